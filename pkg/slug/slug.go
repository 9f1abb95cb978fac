// Copyright (c) 2026 CineScript. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package slug derives ASCII-safe names from arbitrary Unicode strings.
//
// # Usage
//
// Export file names are derived from project names (e.g., "NEON_PROTOCOL").
// Names are composed to NFC first, so "é" typed as one code point or as "e"
// plus a combining accent yields the same file name.
package slug

import (
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Filename keeps ASCII letters and digits (case preserved) and replaces every
// other character with underscores: one per UTF-16 code unit, so characters
// outside the Basic Multilingual Plane (most emoji) become two.
//
// Example:
//
//	slug.Filename("Café Noir: Part 2") // "Caf__Noir__Part_2"
func Filename(s string) string {
	var builder strings.Builder

	for _, r := range norm.NFC.String(s) {
		if isASCIIAlphanumeric(r) {
			builder.WriteRune(r)
			continue
		}
		builder.WriteString(strings.Repeat("_", max(1, utf16.RuneLen(r))))
	}

	return builder.String()
}

func isASCIIAlphanumeric(r rune) bool {
	return r < utf8.RuneSelf && ('a' <= r && r <= 'z' || 'A' <= r && r <= 'Z' || '0' <= r && r <= '9')
}
