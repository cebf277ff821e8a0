// Package email has small helpers for addressing people in outbound mail.
package email

import (
	"strings"
	"unicode"
)

// Salutation picks the name used to greet a recipient: the first word of the
// full name when present, otherwise a name derived from the address local
// part ("asha.menon@example.com" → "Asha").
func Salutation(fullName, address string) string {
	fullName = strings.TrimSpace(fullName)
	if fullName != "" {
		return capitalize(strings.Fields(fullName)[0])
	}
	return DeriveNameFromAddress(address)
}

// DeriveNameFromAddress extracts a presentable name from the local part of an
// email address, splitting on common separators.
func DeriveNameFromAddress(address string) string {
	localPart := address
	if at := strings.IndexByte(address, '@'); at > 0 {
		localPart = address[:at]
	}

	parts := strings.FieldsFunc(localPart, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})
	if len(parts) == 0 {
		return "there"
	}
	return capitalize(parts[0])
}

func capitalize(s string) string {
	if s == "" {
		return s
	}

	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
