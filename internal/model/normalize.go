package model

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var upper = cases.Upper(language.Und)

// NormalizeText NFC-normalizes, upper-cases and trims a free-text field.
func NormalizeText(s string) string {
	return strings.TrimSpace(upper.String(norm.NFC.String(s)))
}

// NormalizeCall normalizes a logged callsign: upper case, no spaces, and
// Ø (slashed zero) folded to 0.
func NormalizeCall(s string) string {
	s = NormalizeText(s)
	s = strings.ReplaceAll(s, "Ø", "0")
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// BaseCall strips portable prefixes and suffixes from a normalized callsign.
// "KH6/K6ABC/P" becomes "K6ABC".
func BaseCall(call string) string {
	call = NormalizeCall(call)
	if !strings.Contains(call, "/") {
		return call
	}
	best := ""
	for _, part := range strings.Split(call, "/") {
		if !looksLikeCall(part) {
			continue
		}
		if len(part) > len(best) {
			best = part
		}
	}
	if best == "" {
		return call
	}
	return best
}

// looksLikeCall reports whether s has the letter+digit shape of a callsign.
func looksLikeCall(s string) bool {
	if len(s) < 3 {
		return false
	}
	var letter, digit bool
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
			letter = true
		case r >= '0' && r <= '9':
			digit = true
		default:
			return false
		}
	}
	return letter && digit
}

// ValidCall reports whether call reduces to a base call with the shape of
// a licensed callsign.
func ValidCall(call string) bool {
	return looksLikeCall(BaseCall(call))
}
