// Package textutils provides text normalisation helpers for statement parsing.
package textutils

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	installmentPattern = regexp.MustCompile(`(?i)\(Parcela.*?\)`)
	whitespacePattern  = regexp.MustCompile(`\s+`)
	letterPattern      = regexp.MustCompile(`\pL`)
)

// StripAccents removes combining marks, turning "Movimentação" into "Movimentacao".
func StripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// NormalizeHeader trims, lower-cases and strips accents from a header cell or line.
func NormalizeHeader(s string) string {
	return StripAccents(strings.ToLower(strings.TrimSpace(s)))
}

// ContainsAll reports whether s contains every token.
func ContainsAll(s string, tokens ...string) bool {
	for _, token := range tokens {
		if !strings.Contains(s, token) {
			return false
		}
	}
	return true
}

// RemoveInstallment drops "(Parcela 2 de 10)" style annotations and tidies
// the remaining whitespace.
func RemoveInstallment(description string) string {
	cleaned := installmentPattern.ReplaceAllString(description, "")
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(cleaned, " "))
}

// HasLetter reports whether s contains at least one letter.
func HasLetter(s string) bool {
	return letterPattern.MatchString(s)
}

// NonBlankLines splits text on LF or CRLF and returns the trimmed, non-empty lines.
func NonBlankLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
