// Package csvutils tokenizes the delimited text exported by banks.
package csvutils

import (
	"regexp"
	"strings"

	"nossas-despesas/expense-import/internal/textutils"
)

// Candidates lists the delimiters DetectDelimiter chooses from, in tie-break order.
var Candidates = []rune{',', ';', '\t', '|'}

var (
	digitPattern = regexp.MustCompile(`[-+]?\d`)
	datePattern  = regexp.MustCompile(`\d{1,2}[/-]\d{1,2}[/-]\d{2,4}`)
)

// DetectDelimiter returns the candidate that occurs most often in line.
// Ties keep the earlier candidate, so a line without any yields a comma.
func DetectDelimiter(line string) rune {
	best, bestCount := Candidates[0], -1
	for _, candidate := range Candidates {
		count := strings.Count(line, string(candidate))
		if count > bestCount {
			best, bestCount = candidate, count
		}
	}
	return best
}

// SplitRow splits row on delimiter, honouring double-quoted fields. A doubled
// quote inside a quoted field yields one literal quote. Cells are trimmed and
// lose one leading and one trailing quote character.
func SplitRow(row string, delimiter rune) []string {
	var cells []string
	var current strings.Builder
	inQuotes := false

	chars := []rune(row)
	for i := 0; i < len(chars); i++ {
		c := chars[i]
		if c == '"' {
			if inQuotes && i+1 < len(chars) && chars[i+1] == '"' {
				current.WriteRune('"')
				i++
			} else {
				inQuotes = !inQuotes
			}
			continue
		}
		if c == delimiter && !inQuotes {
			cells = append(cells, current.String())
			current.Reset()
			continue
		}
		current.WriteRune(c)
	}
	cells = append(cells, current.String())

	for i, cell := range cells {
		cells[i] = stripQuotes(strings.TrimSpace(cell))
	}
	return cells
}

func stripQuotes(cell string) string {
	if strings.HasPrefix(cell, `"`) || strings.HasPrefix(cell, "'") {
		cell = cell[1:]
	}
	if strings.HasSuffix(cell, `"`) || strings.HasSuffix(cell, "'") {
		cell = cell[:len(cell)-1]
	}
	return strings.TrimSpace(cell)
}

// IsBlank reports whether every cell is empty.
func IsBlank(cells []string) bool {
	for _, cell := range cells {
		if cell != "" {
			return false
		}
	}
	return true
}

// FindColumn returns the index of the first header matching pattern, or -1.
func FindColumn(headers []string, pattern *regexp.Regexp) int {
	for i, header := range headers {
		if pattern.MatchString(header) {
			return i
		}
	}
	return -1
}

// IndexOf returns the index of the first header equal to name, or -1.
func IndexOf(headers []string, name string) int {
	for i, header := range headers {
		if header == name {
			return i
		}
	}
	return -1
}

// Cell returns cells[index], or "" when index is out of range.
func Cell(cells []string, index int) string {
	if index < 0 || index >= len(cells) {
		return ""
	}
	return cells[index]
}

// PickDescription joins the histórico and description cells with " - ".
// When neither column yields text it falls back to the first cell after the
// first one that holds a letter, and finally to every cell joined.
func PickDescription(cells []string, descriptionIndex, historicoIndex int) string {
	var parts []string
	if h := strings.TrimSpace(Cell(cells, historicoIndex)); h != "" {
		parts = append(parts, h)
	}
	if d := strings.TrimSpace(Cell(cells, descriptionIndex)); d != "" {
		parts = append(parts, d)
	}
	if len(parts) > 0 {
		return strings.Join(parts, " - ")
	}

	for i, cell := range cells {
		if i != 0 && textutils.HasLetter(cell) {
			return cell
		}
	}
	return strings.Join(cells, " - ")
}

// PickAmount returns the amount cell, or the first cell holding a digit.
func PickAmount(cells []string, amountIndex int) string {
	if amountIndex >= 0 && amountIndex < len(cells) {
		return cells[amountIndex]
	}
	for _, cell := range cells {
		if digitPattern.MatchString(cell) {
			return cell
		}
	}
	return ""
}

// PickDate returns the date cell, or the first cell that looks like a date.
func PickDate(cells []string, dateIndex int) string {
	if dateIndex >= 0 && dateIndex < len(cells) {
		return cells[dateIndex]
	}
	for _, cell := range cells {
		if datePattern.MatchString(cell) {
			return cell
		}
	}
	return ""
}
