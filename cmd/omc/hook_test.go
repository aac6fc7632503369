package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestRunHookEmptyPayloadContinues(t *testing.T) {
	var out bytes.Buffer
	runHook("session-start", strings.NewReader(""), &out)

	var resp map[string]any
	if err := json.Unmarshal(out.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp["continue"] != true {
		t.Fatalf("expected continue:true, got %v", resp)
	}
}

func TestRunHookUnrecognizedTypeContinues(t *testing.T) {
	var out bytes.Buffer
	runHook("not-a-real-hook", strings.NewReader(`{"sessionId":"s1"}`), &out)

	var resp map[string]any
	if err := json.Unmarshal(out.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp["continue"] != true {
		t.Fatalf("expected continue:true for unrecognized hook type, got %v", resp)
	}
}

func TestRunHookMalformedJSONNeverPanics(t *testing.T) {
	var out bytes.Buffer
	runHook("pre-tool-use", strings.NewReader(`{not json`), &out)

	var resp map[string]any
	if err := json.Unmarshal(out.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp["continue"] != true {
		t.Fatalf("expected continue:true for malformed input, got %v", resp)
	}
}
