package engine

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"
)

// Strategy selects the transformation applied to matched spans.
type Strategy string

const (
	StrategyMask     Strategy = "mask"
	StrategyHash     Strategy = "hash"
	StrategyTokenize Strategy = "tokenize"
)

// ParseStrategy resolves a strategy name; the empty string means mask.
func ParseStrategy(s string) (Strategy, error) {
	switch strategy := Strategy(s); strategy {
	case StrategyMask, StrategyHash, StrategyTokenize:
		return strategy, nil
	case "":
		return StrategyMask, nil
	}
	return "", fmt.Errorf("unknown redaction strategy: %q", s)
}

// replacement produces the substitution text for one match.
//
// mask uses the rule's literal mask when configured, otherwise the default
// mask character repeated to the original's rune length. hash emits a
// tagged, truncated digest of the original bytes: irreversible and
// deterministic for identical input. tokenize emits a tag keyed by rule
// and start offset, so identical values at different positions yield
// different tokens. Unknown strategies fall back to default masking.
func (e *Engine) replacement(original string, m Match, strategy Strategy) string {
	switch strategy {
	case StrategyMask:
		if m.Mask != "" {
			return m.Mask
		}
		return strings.Repeat(e.maskChar, utf8.RuneCountInString(original))
	case StrategyHash:
		return fmt.Sprintf("[HASH:%s]", e.digest(original))
	case StrategyTokenize:
		return fmt.Sprintf("[TOKEN:%s:%d]", m.FullID, m.Start)
	}
	return strings.Repeat(e.maskChar, utf8.RuneCountInString(original))
}

// digest returns the first 16 hex characters of the configured digest over
// the input's UTF-8 bytes.
func (e *Engine) digest(s string) string {
	switch e.hashAlgorithm {
	case "sha1":
		sum := sha1.Sum([]byte(s))
		return hex.EncodeToString(sum[:])[:16]
	case "sha512":
		sum := sha512.Sum512([]byte(s))
		return hex.EncodeToString(sum[:])[:16]
	case "xxhash":
		return fmt.Sprintf("%016x", xxhash.Sum64String(s))
	default:
		sum := sha256.Sum256([]byte(s))
		return hex.EncodeToString(sum[:])[:16]
	}
}
