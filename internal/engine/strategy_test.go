package engine

import (
	"fmt"
	"regexp"
	"strings"
	"testing"
)

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		input   string
		want    Strategy
		wantErr bool
	}{
		{"mask", StrategyMask, false},
		{"hash", StrategyHash, false},
		{"tokenize", StrategyTokenize, false},
		{"", StrategyMask, false},
		{"MASK", "", true},
		{"rot13", "", true},
	}

	for _, tt := range tests {
		got, err := ParseStrategy(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseStrategy(%q) = %q, want error", tt.input, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseStrategy(%q) failed: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseStrategy(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestRedactMaskUsesRuleMask(t *testing.T) {
	e := New(piiRegistry(t))

	result := e.Redact("Call 010-1234-5678 today", []string{"kr"}, StrategyMask, false)

	if result.RedactedText != "Call ***-****-**** today" {
		t.Errorf("RedactedText = %q, want the rule's literal mask", result.RedactedText)
	}
	if result.RedactionCount != 1 {
		t.Errorf("RedactionCount = %d, want 1", result.RedactionCount)
	}
	if result.OriginalText != "Call 010-1234-5678 today" {
		t.Errorf("OriginalText = %q, want the input preserved", result.OriginalText)
	}
}

func TestRedactMaskDefaultRepeatsMaskChar(t *testing.T) {
	e := New(piiRegistry(t), WithMaskChar("#"))

	// us/phone_01 carries no mask, so the default char is repeated to the
	// match's rune length.
	result := e.Redact("dial 555-123-4567 now", []string{"us"}, StrategyMask, false)

	want := "dial " + strings.Repeat("#", len("555-123-4567")) + " now"
	if result.RedactedText != want {
		t.Errorf("RedactedText = %q, want %q", result.RedactedText, want)
	}
}

func TestRedactHash(t *testing.T) {
	e := New(piiRegistry(t))
	text := "a: 010-1234-5678 b: 010-1234-5678"

	result := e.Redact(text, []string{"kr"}, StrategyHash, false)

	tokenRe := regexp.MustCompile(`\[HASH:[0-9a-f]{16}\]`)
	tokens := tokenRe.FindAllString(result.RedactedText, -1)
	if len(tokens) != 2 {
		t.Fatalf("found %d hash tokens in %q, want 2", len(tokens), result.RedactedText)
	}
	if tokens[0] != tokens[1] {
		t.Errorf("identical values hashed differently: %s vs %s", tokens[0], tokens[1])
	}

	want := fmt.Sprintf("a: [HASH:%s] b: [HASH:%s]",
		e.digest("010-1234-5678"), e.digest("010-1234-5678"))
	if result.RedactedText != want {
		t.Errorf("RedactedText = %q, want %q", result.RedactedText, want)
	}
}

func TestRedactHashAlgorithmSelection(t *testing.T) {
	digests := make(map[string]string)
	for _, algorithm := range []string{"sha256", "sha512", "sha1", "xxhash"} {
		e := New(piiRegistry(t), WithHashAlgorithm(algorithm))
		d := e.digest("010-1234-5678")
		if len(d) != 16 {
			t.Errorf("%s digest length = %d, want 16", algorithm, len(d))
		}
		digests[algorithm] = d
	}
	if digests["sha256"] == digests["xxhash"] {
		t.Error("sha256 and xxhash produced the same digest")
	}
	if digests["sha256"] == digests["sha512"] {
		t.Error("sha256 and sha512 produced the same digest")
	}
}

func TestRedactTokenize(t *testing.T) {
	e := New(piiRegistry(t))
	text := "010-1234-5678 and 010-1234-5678"

	result := e.Redact(text, []string{"kr"}, StrategyTokenize, false)

	// Tokens carry the rule id and the match's offset in the original
	// text, so repeated values stay distinguishable.
	want := "[TOKEN:kr/mobile_01:0] and [TOKEN:kr/mobile_01:18]"
	if result.RedactedText != want {
		t.Errorf("RedactedText = %q, want %q", result.RedactedText, want)
	}
}

func TestRedactNoMatches(t *testing.T) {
	e := New(piiRegistry(t))

	result := e.Redact("nothing sensitive here", nil, StrategyMask, false)

	if result.RedactedText != "nothing sensitive here" {
		t.Errorf("RedactedText = %q, want input unchanged", result.RedactedText)
	}
	if result.RedactionCount != 0 {
		t.Errorf("RedactionCount = %d, want 0", result.RedactionCount)
	}
}

func TestRedactMixedPatterns(t *testing.T) {
	e := New(piiRegistry(t))
	text := "SSN 123-45-6789, email a@b.com"

	result := e.Redact(text, nil, StrategyMask, false)

	// The SSN rule has a literal mask; the email rule falls back to the
	// repeated default character over 7 runes.
	want := "SSN ***-**-****, email *******"
	if result.RedactedText != want {
		t.Errorf("RedactedText = %q, want %q", result.RedactedText, want)
	}
	if result.RedactionCount != 2 {
		t.Errorf("RedactionCount = %d, want 2", result.RedactionCount)
	}
}

func TestRedactOffsetsReferToOriginalText(t *testing.T) {
	e := New(piiRegistry(t))
	text := "x 123-45-6789 y 123-45-6789"

	result := e.Redact(text, []string{"us"}, StrategyTokenize, false)

	// Replacements run back to front, so the second token still names the
	// offset in the original text even though the first splice changed
	// the string's length.
	want := "x [TOKEN:us/ssn_01:2] y [TOKEN:us/ssn_01:16]"
	if result.RedactedText != want {
		t.Errorf("RedactedText = %q, want %q", result.RedactedText, want)
	}
}
