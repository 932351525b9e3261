// FILE: lixenwraith/logship/sanitizer/sanitizer.go
// Package sanitizer keeps log output line-safe by rewriting characters that would
// break one-record-per-line collectors or inject terminal control sequences.
package sanitizer

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"unicode"
	"unicode/utf8"
)

// Filter flags for character matching
const (
	FilterNonPrintable uint64 = 1 << iota // Runes not printable per strconv.IsPrint
	FilterControl                         // Control characters (unicode.IsControl)
	FilterLineBreak                       // '\n', '\r', U+2028, U+2029
)

// Transform flags for character transformation
const (
	TransformStrip     uint64 = 1 << iota // Removes the character
	TransformHexEncode                    // Encodes the UTF-8 bytes as "<XXYY>"
	TransformEscape                       // Go-style backslash escape ("\n", "\x1b", "\u2028")
)

// PolicyPreset defines pre-configured sanitization policies
type PolicyPreset string

const (
	PolicyNone    PolicyPreset = "none"    // Passthrough
	PolicyConsole PolicyPreset = "console" // Human-readable single line, escapes breaks, hex for the rest
	PolicyStrict  PolicyPreset = "strict"  // Drops anything non-printable
)

// rule represents a single sanitization rule
type rule struct {
	filter    uint64
	transform uint64
}

// policyRules contains pre-configured rules for each policy
var policyRules = map[PolicyPreset][]rule{
	PolicyNone: {},
	PolicyConsole: {
		{filter: FilterLineBreak | FilterControl, transform: TransformEscape},
		{filter: FilterNonPrintable, transform: TransformHexEncode},
	},
	PolicyStrict: {{filter: FilterNonPrintable | FilterLineBreak, transform: TransformStrip}},
}

// filterOrder fixes evaluation order so results are deterministic
var filterOrder = []uint64{FilterLineBreak, FilterControl, FilterNonPrintable}

// filterCheckers maps individual filter flags to their check functions
var filterCheckers = map[uint64]func(rune) bool{
	FilterNonPrintable: func(r rune) bool { return !strconv.IsPrint(r) },
	FilterControl:      unicode.IsControl,
	FilterLineBreak: func(r rune) bool {
		return r == '\n' || r == '\r' || r == '\u2028' || r == '\u2029'
	},
}

// Sanitizer applies an ordered rule list; the first matching rule wins per rune.
// Not safe for concurrent use, it reuses an internal buffer.
type Sanitizer struct {
	rules []rule
	buf   []byte
}

// New creates a new passthrough Sanitizer
func New() *Sanitizer {
	return &Sanitizer{
		rules: []rule{},
		buf:   make([]byte, 0, 256),
	}
}

// Rule adds a custom rule (appended, earliest rule applies first)
func (s *Sanitizer) Rule(filter uint64, transform uint64) *Sanitizer {
	s.rules = append(s.rules, rule{filter: filter, transform: transform})
	return s
}

// Policy appends a pre-configured policy
func (s *Sanitizer) Policy(preset PolicyPreset) *Sanitizer {
	if rules, ok := policyRules[preset]; ok {
		s.rules = append(s.rules, rules...)
	}
	return s
}

// Sanitize applies all configured rules to the input string
func (s *Sanitizer) Sanitize(data string) string {
	if len(s.rules) == 0 {
		return data
	}

	s.buf = s.buf[:0]
	for _, r := range data {
		matched := false
		for _, rl := range s.rules {
			if matchesFilter(r, rl.filter) {
				s.buf = applyTransform(s.buf, r, rl.transform)
				matched = true
				break
			}
		}
		if !matched {
			s.buf = utf8.AppendRune(s.buf, r)
		}
	}
	return string(s.buf)
}

// matchesFilter checks if a rune matches any filter in the mask
func matchesFilter(r rune, filterMask uint64) bool {
	for _, flag := range filterOrder {
		if filterMask&flag != 0 && filterCheckers[flag](r) {
			return true
		}
	}
	return false
}

// applyTransform appends the transformed rune
func applyTransform(buf []byte, r rune, transformMask uint64) []byte {
	switch {
	case transformMask&TransformStrip != 0:
		return buf

	case transformMask&TransformHexEncode != 0:
		var runeBytes [utf8.UTFMax]byte
		n := utf8.EncodeRune(runeBytes[:], r)
		buf = append(buf, '<')
		buf = hex.AppendEncode(buf, runeBytes[:n])
		return append(buf, '>')

	case transformMask&TransformEscape != 0:
		switch r {
		case '\n':
			return append(buf, '\\', 'n')
		case '\r':
			return append(buf, '\\', 'r')
		case '\t':
			return append(buf, '\\', 't')
		}
		if r < 0x80 {
			return append(buf, fmt.Sprintf("\\x%02x", r)...)
		}
		return append(buf, fmt.Sprintf("\\u%04x", r)...)
	}

	return utf8.AppendRune(buf, r)
}
