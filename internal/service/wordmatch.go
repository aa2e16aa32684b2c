package service

import "strings"

// accentFolder strips the accents the recognizer tends to miss on printed
// children's material.
var accentFolder = strings.NewReplacer(
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ü", "u",
	"Á", "a", "É", "e", "Í", "i", "Ó", "o", "Ú", "u", "Ü", "u",
)

// NormalizeRecognizedText lowercases recognized text, folds accents and
// strips everything that is not a letter, digit or space, collapsing runs
// of whitespace to single spaces.
func NormalizeRecognizedText(text string) string {
	folded := strings.ToLower(accentFolder.Replace(text))

	var b strings.Builder
	lastSpace := true
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == 'ñ':
			b.WriteRune(r)
			lastSpace = false
		default:
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// MatchesWord reports whether the target word appears in the recognized
// text after both are normalized. Recognition itself happens in the
// platform text-recognition service; this is only the app-side check the
// camera game runs on each recognized frame.
func MatchesWord(target, recognized string) bool {
	target = NormalizeRecognizedText(target)
	if target == "" {
		return false
	}
	return strings.Contains(NormalizeRecognizedText(recognized), target)
}
