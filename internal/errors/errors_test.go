package errors

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{
			name:    "duplicate signal",
			code:    CodeDuplicateSignal,
			wantMsg: "Signal already registered",
			wantCat: CategoryRuntime,
		},
		{
			name:    "invalid tier",
			code:    CodeInvalidStoreTier,
			wantMsg: "Invalid store tier",
			wantCat: CategoryStore,
		},
		{
			name:    "unresolved path",
			code:    CodeUnresolvedPath,
			wantMsg: "Edit path does not resolve",
			wantCat: CategoryReconcile,
		},
		{
			name:    "unknown error code",
			code:    "E999",
			wantMsg: "Unknown error",
			wantCat: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestPlainError_Error(t *testing.T) {
	err := New(CodeUnknownSignal)
	if got, want := err.Error(), "E002: Signal not registered"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	err = New(CodeUnknownSignal).WithDetail(`"clicked"`)
	if got, want := err.Error(), `E002: Signal not registered: "clicked"`; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	plain := &PlainError{Message: "test error"}
	if plain.Error() != "test error" {
		t.Errorf("Error() = %q, want %q", plain.Error(), "test error")
	}
}

func TestIsMatchesByCode(t *testing.T) {
	sentinel := New(CodeDuplicateSignal)
	err := fmt.Errorf("register: %w", New(CodeDuplicateSignal).WithDetail("x"))

	if !stderrors.Is(err, sentinel) {
		t.Error("errors.Is should match errors with the same code")
	}
	if stderrors.Is(err, New(CodeUnknownSignal)) {
		t.Error("errors.Is should not match a different code")
	}

	a := Newf(CategoryRuntime, "a")
	b := Newf(CategoryRuntime, "a")
	if stderrors.Is(a, b) {
		t.Error("uncoded errors should only match themselves")
	}
	if !stderrors.Is(a, a) {
		t.Error("uncoded error should match itself")
	}
}

func TestWrapAndUnwrap(t *testing.T) {
	cause := stderrors.New("disk full")
	err := New(CodeStoreBackend).Wrap(cause)

	if !stderrors.Is(err, cause) {
		t.Error("wrapped cause should be reachable with errors.Is")
	}
	if !strings.Contains(err.Error(), "disk full") {
		t.Errorf("Error() = %q, should mention the cause", err.Error())
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, CodeFetchFailed) != nil {
		t.Error("FromError(nil) should be nil")
	}

	pe := New(CodeMissingStyle)
	if got := FromError(fmt.Errorf("ctx: %w", pe), CodeFetchFailed); got != pe {
		t.Error("FromError should return the wrapped PlainError unchanged")
	}

	got := FromError(stderrors.New("boom"), CodeFetchFailed)
	if got.Code != CodeFetchFailed {
		t.Errorf("Code = %q, want %q", got.Code, CodeFetchFailed)
	}
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(CodeStaleStore))
	if !HasCode(err, CodeStaleStore) {
		t.Error("HasCode should find a wrapped code")
	}
	if HasCode(err, CodeStoreBackend) {
		t.Error("HasCode matched the wrong code")
	}
	if HasCode(stderrors.New("plain"), CodeStaleStore) {
		t.Error("HasCode matched a standard error")
	}
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	err := New(CodeMissingStyle).WithSuggestion("Pass a style path to Define")
	out := err.Format()

	for _, want := range []string{"ERROR E030: Missing stylesheet", "renders unstyled", "Hint: Pass a style path"} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q in:\n%s", want, out)
		}
	}
}

func TestFormatJSON(t *testing.T) {
	err := New(CodeConfigInvalid).WithDetail("port out of range")

	var decoded map[string]string
	if jerr := json.Unmarshal([]byte(err.FormatJSON()), &decoded); jerr != nil {
		t.Fatalf("FormatJSON produced invalid JSON: %v", jerr)
	}
	if decoded["code"] != CodeConfigInvalid {
		t.Errorf("code = %q, want %q", decoded["code"], CodeConfigInvalid)
	}
	if decoded["detail"] != "port out of range" {
		t.Errorf("detail = %q, want %q", decoded["detail"], "port out of range")
	}
}

func TestFprint(t *testing.T) {
	DisableColors()
	defer EnableColors()

	var buf bytes.Buffer
	Fprint(&buf, stderrors.New("plain failure"))
	if !strings.Contains(buf.String(), "ERROR: plain failure") {
		t.Errorf("Fprint = %q", buf.String())
	}
}

func TestRegistryCompleteness(t *testing.T) {
	for _, code := range GetAllCodes() {
		tmpl, ok := GetTemplate(code)
		if !ok {
			t.Fatalf("GetTemplate(%s) not found", code)
		}
		if tmpl.Message == "" || tmpl.Category == "" {
			t.Errorf("%s: incomplete template %+v", code, tmpl)
		}
	}
}

func TestWrapText(t *testing.T) {
	lines := wrapText("one two three four five six", 9)
	for _, l := range lines {
		if len(l) > 9 {
			t.Errorf("line %q exceeds width", l)
		}
	}
	if strings.Join(lines, " ") != "one two three four five six" {
		t.Errorf("wrapText lost words: %v", lines)
	}
}
