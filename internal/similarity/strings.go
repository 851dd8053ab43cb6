package similarity

import (
	"strings"

	"github.com/xrash/smetrics"
)

// Jaro-Winkler parameters: boost applies above 0.7, prefix up to 4 chars.
const (
	boostThreshold = 0.7
	prefixSize     = 4
)

var morse = map[rune]string{
	'A': ".-", 'B': "-...", 'C': "-.-.", 'D': "-..", 'E': ".", 'F': "..-.",
	'G': "--.", 'H': "....", 'I': "..", 'J': ".---", 'K': "-.-", 'L': ".-..",
	'M': "--", 'N': "-.", 'O': "---", 'P': ".--.", 'Q': "--.-", 'R': ".-.",
	'S': "...", 'T': "-", 'U': "..-", 'V': "...-", 'W': ".--", 'X': "-..-",
	'Y': "-.--", 'Z': "--..",
	'0': "-----", '1': ".----", '2': "..---", '3': "...--", '4': "....-",
	'5': ".....", '6': "-....", '7': "--...", '8': "---..", '9': "----.",
	'/': "-..-.", '?': "..--..", '.': ".-.-.-", ',': "--..--",
}

// Morse encodes s as dots and dashes with no character separators, so
// characters that differ by one element stay close after encoding.
// Characters without a code are dropped.
func Morse(s string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(s) {
		if code, ok := morse[r]; ok {
			b.WriteString(code)
		}
	}
	return b.String()
}

// String compares two short strings with Jaro-Winkler. When cw is set the
// Morse encodings are compared too and the better score wins.
// Two empty strings are identical; one empty string matches nothing.
func String(a, b string, cw bool) float64 {
	a, b = strings.ToUpper(strings.TrimSpace(a)), strings.ToUpper(strings.TrimSpace(b))
	switch {
	case a == b:
		return 1
	case a == "" || b == "":
		return 0
	}
	score := smetrics.JaroWinkler(a, b, boostThreshold, prefixSize)
	if cw {
		ma, mb := Morse(a), Morse(b)
		if ma != "" && mb != "" {
			if ms := smetrics.JaroWinkler(ma, mb, boostThreshold, prefixSize); ms > score {
				score = ms
			}
		}
	}
	return clamp(score)
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
