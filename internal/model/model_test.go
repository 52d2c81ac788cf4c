// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"encoding/json"
	"testing"
)

func TestResult_Union(t *testing.T) {
	ok := OK(&AnswerPayload{Summary: "Max 1.6 MPa"})
	if ok.IsError() {
		t.Error("OK result reported as error")
	}
	if ok.Error() != "" {
		t.Errorf("OK.Error() = %q, want empty", ok.Error())
	}

	empty := OK(nil)
	if empty.IsError() || empty.Answer == nil {
		t.Error("OK(nil) must stay on the success side")
	}

	fail := Failure("API error: 500")
	if !fail.IsError() {
		t.Error("Failure result not reported as error")
	}
	if fail.Error() != "API error: 500" {
		t.Errorf("Failure.Error() = %q", fail.Error())
	}

	if Failure("").Error() != "unknown error" {
		t.Error("empty failure reason should be replaced")
	}

	var zero Result
	if !zero.IsError() {
		t.Error("zero Result must not look like a success")
	}
}

func TestAskRequest_WireFormat(t *testing.T) {
	data, err := json.Marshal(AskRequest{Question: "q", SessionID: "s"})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"question":"q","session_id":"s"}` {
		t.Errorf("wire format = %s", data)
	}
}

func TestAskResponse_Decode(t *testing.T) {
	body := `{"answer": {"summary": "Max 1.6 MPa", "details": ["- See clause 4.2"], "standards": [], "note": "✓ Verified"}}`
	var resp AskResponse
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Answer == nil || resp.Answer.Summary != "Max 1.6 MPa" {
		t.Fatalf("Answer = %+v", resp.Answer)
	}
	if len(resp.Answer.Details) != 1 || resp.Answer.Note != "✓ Verified" {
		t.Errorf("Answer = %+v", resp.Answer)
	}
}

func TestRole(t *testing.T) {
	if !RoleUser.Valid() || !RoleAssistant.Valid() {
		t.Error("known roles must be valid")
	}
	if Role("system").Valid() {
		t.Error("system is not a transcript role")
	}
	if RoleUser.DisplayName() != "You" {
		t.Errorf("DisplayName = %q", RoleUser.DisplayName())
	}
}
