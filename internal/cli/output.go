// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"

	"github.com/jeranaias/stdqa/internal/model"
	"github.com/jeranaias/stdqa/internal/render"
)

// =============================================================================
// ANSWER OUTPUT
// =============================================================================

// answerWriter prints ask results for line-oriented commands.
type answerWriter struct {
	out         io.Writer
	showDetails bool
	// renderer is nil when output is plain text.
	renderer *render.Renderer
}

func (a *app) newAnswerWriter(out io.Writer) *answerWriter {
	w := &answerWriter{out: out, showDetails: a.cfg.UI.ShowDetails}
	if ColorsEnabled() {
		w.renderer = render.NewRenderer(glamourStyle(a.cfg.UI.GlamourStyle), GetTerminalWidth()-4)
	}
	return w
}

// Print prints one result: the error line or the formatted answer.
func (w *answerWriter) Print(res model.Result) {
	if res.IsError() {
		fmt.Fprintln(w.out, paint(failStyle, "❌ "+res.Error()))
		return
	}
	if w.renderer == nil {
		fmt.Fprint(w.out, render.ResultText(res, w.showDetails))
		return
	}

	view := render.BuildAnswerView(res.Answer)
	fmt.Fprintln(w.out, w.renderer.Render(render.Markdown(view, w.showDetails)))
	if view.Note != "" {
		style := passStyle
		if view.NoteSeverity == render.SeverityCaution {
			style = warnStyle
		}
		fmt.Fprintln(w.out, style.Render(view.NoteSeverity.Label()+" "+view.Note))
	}
}

// =============================================================================
// JSON OUTPUT
// =============================================================================

// AskOutput is the --json shape of one ask call.
type AskOutput struct {
	SessionID string               `json:"session_id"`
	Question  string               `json:"question"`
	OK        bool                 `json:"ok"`
	Answer    *model.AnswerPayload `json:"answer,omitempty"`
	Error     string               `json:"error,omitempty"`
}

// writeJSON encodes v indented, colorized when the output is a terminal.
func writeJSON(out io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	text := string(data) + "\n"
	if ColorsEnabled() {
		text = highlight(text, "json")
	}
	_, err = io.WriteString(out, text)
	return err
}

// highlight colors src for a 256-color terminal. The input is returned
// unchanged if chroma cannot tokenize it.
func highlight(src, language string) string {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := chromaStyles.Get("monokai")
	if style == nil {
		style = chromaStyles.Fallback
	}

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, src)
	if err != nil {
		return src
	}
	var buf strings.Builder
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return src
	}
	return buf.String()
}
