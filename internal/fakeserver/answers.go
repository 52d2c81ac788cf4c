// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package fakeserver

import (
	"strings"

	"github.com/jeranaias/stdqa/internal/model"
)

type cannedAnswer struct {
	keywords []string
	answer   model.AnswerPayload
}

var canned = []cannedAnswer{
	{
		keywords: []string{"exit", "evacuation", "escape"},
		answer: model.AnswerPayload{
			Summary: "Evacuation exits must be at least 1.2 m wide when more than 50 people use them, and 0.8 m otherwise.",
			Details: []string{
				"Width is measured in the clear, excluding door leaves that open into the opening.",
				"Doors on escape routes open in the direction of exit.",
			},
			Standards: []model.Standard{
				{Name: "SP 1.13130.2020", Section: "4.2.5", Title: "Evacuation routes and exits"},
				{Name: "SP 1.13130.2020", Section: "4.2.6", Title: "Opening direction of doors"},
			},
			Note: "✓ Found in 2 documents",
		},
	},
	{
		keywords: []string{"rebar", "cover", "concrete"},
		answer: model.AnswerPayload{
			Summary: "The minimum concrete cover for slab reinforcement in dry indoor conditions is 15 mm, and not less than the bar diameter.",
			Details: []string{
				"Open-air structures without extra protection need 30 mm.",
				"Foundations cast on prepared ground need 40 mm, or 70 mm without a blinding layer.",
			},
			Standards: []model.Standard{
				{Name: "SP 63.13330.2018", Section: "10.3.2", Title: "Concrete and reinforced concrete structures"},
			},
			Note: "✓ Found in 1 document",
		},
	},
	{
		keywords: []string{"stair", "step", "railing"},
		answer: model.AnswerPayload{
			Summary: "Stair flights need a rise of no more than 0.22 m and a going of at least 0.25 m.",
			Details: []string{
				"Flights have between 3 and 16 rises.",
				"Railings are at least 0.9 m high.",
			},
			Standards: []model.Standard{
				{Name: "SP 54.13330.2022", Section: "4.11", Title: "Multi-apartment residential buildings"},
				{Name: "SP 1.13130.2020", Section: "4.4.2", Title: "Evacuation routes and exits"},
			},
			Note: "Values differ for single-family houses; check the building class.",
		},
	},
}

// Lookup returns the canned answer whose keywords match the question, or a
// fallback with no standards.
func Lookup(question string) *model.AnswerPayload {
	q := strings.ToLower(question)
	for _, c := range canned {
		for _, kw := range c.keywords {
			if strings.Contains(q, kw) {
				a := c.answer
				return &a
			}
		}
	}
	return &model.AnswerPayload{
		Summary: "No clause in the indexed documents answers this question directly.",
		Note:    "Try naming the structure or the building element.",
	}
}
