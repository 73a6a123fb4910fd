// Package strcase converts Go identifiers into the field keys shown to users.
package strcase

import (
	"strings"
	"unicode"
)

// Words splits an identifier at case changes, keeping initialisms together:
// "OTPCode" becomes ["OTP", "Code"] and "userID" becomes ["user", "ID"].
func Words(s string) []string {
	runes := []rune(s)
	var words []string
	start := 0

	for i := 1; i < len(runes); i++ {
		prev, cur := runes[i-1], runes[i]
		if !unicode.IsUpper(cur) {
			continue
		}

		lowerToUpper := unicode.IsLower(prev) || unicode.IsDigit(prev)
		endOfInitialism := unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1])
		if lowerToUpper || endOfInitialism {
			words = append(words, string(runes[start:i]))
			start = i
		}
	}
	if start < len(runes) {
		words = append(words, string(runes[start:]))
	}

	return words
}

// ToLowerSnake joins the lowercased Words of s with underscores.
func ToLowerSnake(s string) string {
	words := Words(s)
	for i, w := range words {
		words[i] = strings.ToLower(w)
	}

	return strings.Join(words, "_")
}
