package webping

import (
	"errors"
	"strings"
	"testing"
	"testing/iotest"
)

func TestParseTargets_BareAndVerbForms(t *testing.T) {
	input := "https://a.test\nPOST http://b.test/x\n"

	targets, skipped, err := ParseTargets(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseTargets() error = %v", err)
	}
	if len(skipped) != 0 {
		t.Errorf("skipped = %v, want none", skipped)
	}
	if len(targets) != 2 {
		t.Fatalf("len(targets) = %d, want 2", len(targets))
	}

	if targets[0].Method() != MethodGet || targets[0].URL() != "https://a.test" {
		t.Errorf("targets[0] = %v, want GET https://a.test", targets[0])
	}
	if targets[1].Method() != MethodPost || targets[1].URL() != "http://b.test/x" {
		t.Errorf("targets[1] = %v, want POST http://b.test/x", targets[1])
	}
}

func TestParseTargetLines_SkipsInvalidLines(t *testing.T) {
	lines := []string{
		"https://ok-1.test",
		"PATCH https://bad-verb.test",
		"GET /relative",
		"ftp://files.test",
		"HEAD https://ok-2.test/ping",
		"GET",
		"example.com",
		"delete https://ok-3.test/item",
	}

	targets, skipped := ParseTargetLines(lines)

	wantTargets := []string{
		"GET https://ok-1.test",
		"HEAD https://ok-2.test/ping",
		"DELETE https://ok-3.test/item",
	}
	if len(targets) != len(wantTargets) {
		t.Fatalf("len(targets) = %d, want %d", len(targets), len(wantTargets))
	}
	for i, want := range wantTargets {
		if got := targets[i].String(); got != want {
			t.Errorf("targets[%d] = %q, want %q", i, got, want)
		}
	}

	wantErrs := []error{ErrUnsupportedMethod, ErrRelativeURL, ErrUnsupportedMethod, errMissingURL, ErrUnsupportedMethod}
	if len(skipped) != len(wantErrs) {
		t.Fatalf("len(skipped) = %d, want %d", len(skipped), len(wantErrs))
	}
	if skipped[0].Line != 2 {
		t.Errorf("skipped[0].Line = %d, want 2", skipped[0].Line)
	}
	for i, want := range wantErrs {
		if !errors.Is(skipped[i], want) {
			t.Errorf("skipped[%d] = %v, want %v", i, skipped[i], want)
		}
	}
}

func TestParseTargetLines_CommentsBlanksAndWhitespace(t *testing.T) {
	lines := []string{
		"\ufeff# site list",
		"",
		"   ",
		"  # indented comment",
		"\thttps://a.test  ",
		"  HEAD\t https://b.test",
	}

	targets, skipped := ParseTargetLines(lines)

	if len(skipped) != 0 {
		t.Errorf("skipped = %v, want none", skipped)
	}
	if len(targets) != 2 {
		t.Fatalf("len(targets) = %d, want 2", len(targets))
	}
	if got := targets[0].String(); got != "GET https://a.test" {
		t.Errorf("targets[0] = %q, want GET https://a.test", got)
	}
	if got := targets[1].String(); got != "HEAD https://b.test" {
		t.Errorf("targets[1] = %q, want HEAD https://b.test", got)
	}
}

func TestParseTargetLines_CaseInsensitive(t *testing.T) {
	tests := []struct {
		line string
		want Method
	}{
		{"HTTPS://A.test/Path", MethodGet},
		{"Http://b.test", MethodGet},
		{"head https://c.test", MethodHead},
		{"Options https://d.test", MethodOptions},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			targets, skipped := ParseTargetLines([]string{tt.line})
			if len(skipped) != 0 {
				t.Fatalf("skipped = %v, want none", skipped)
			}
			if len(targets) != 1 {
				t.Fatalf("len(targets) = %d, want 1", len(targets))
			}
			if targets[0].Method() != tt.want {
				t.Errorf("Method() = %v, want %v", targets[0].Method(), tt.want)
			}
		})
	}
}

func TestParseTargetLines_BOMIsIgnored(t *testing.T) {
	targets, skipped := ParseTargetLines([]string{"\ufeffhttps://a.test"})

	if len(skipped) != 0 {
		t.Errorf("skipped = %v, want none", skipped)
	}
	if len(targets) != 1 {
		t.Fatalf("len(targets) = %d, want 1", len(targets))
	}
	if targets[0].URL() != "https://a.test" {
		t.Errorf("URL() = %q, want https://a.test", targets[0].URL())
	}
}

func TestParseTargetLines_Empty(t *testing.T) {
	targets, skipped := ParseTargetLines(nil)

	if len(targets) != 0 || len(skipped) != 0 {
		t.Errorf("ParseTargetLines(nil) = %v, %v; want empty", targets, skipped)
	}
}

func TestParseTargets_ReaderError(t *testing.T) {
	_, _, err := ParseTargets(iotest.ErrReader(errors.New("disk gone")))
	if err == nil {
		t.Fatal("expected error from failing reader")
	}
}

func TestLineError_Error(t *testing.T) {
	le := LineError{Line: 3, Text: "PATCH https://a.test", Err: ErrUnsupportedMethod}

	msg := le.Error()
	if !strings.Contains(msg, "line 3") || !strings.Contains(msg, "PATCH https://a.test") {
		t.Errorf("Error() = %q, want line number and text", msg)
	}
	if !errors.Is(le, ErrUnsupportedMethod) {
		t.Errorf("errors.Is(%v, ErrUnsupportedMethod) = false", le)
	}
}
