// Package currencyutils provides the monetary parsing and formatting used by
// every statement parser.
package currencyutils

import (
	"math"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	nonAmountChars  = regexp.MustCompile(`[^\d,.\-]`)
	nonIntegerChars = regexp.MustCompile(`[^0-9\-]`)
	nonDigits       = regexp.MustCompile(`\D`)
	normalizedForm  = regexp.MustCompile(`^-?\d*(\.\d*)?$`)

	hundred  = decimal.NewFromInt(100)
	maxCents = decimal.NewFromInt(math.MaxInt64)
)

// ParseAmountToCents converts a free-form monetary string into integer cents.
// The rightmost comma or period is the decimal separator, so "1.234,56" and
// "1,234.56" both yield 123456. A string without separator is a whole number
// of currency units. The second result is false when raw holds no amount.
func ParseAmountToCents(raw string) (int64, bool) {
	amount, ok := ParseAmount(raw)
	if !ok {
		return 0, false
	}

	cents := amount.Mul(hundred).Round(0)
	if cents.Abs().GreaterThan(maxCents) {
		return 0, false
	}
	return cents.IntPart(), true
}

// ParseAmount converts a free-form monetary string into a decimal amount of
// currency units, using the same separator rules as ParseAmountToCents.
func ParseAmount(raw string) (decimal.Decimal, bool) {
	normalized, ok := StandardizeAmount(raw)
	if !ok {
		return decimal.Zero, false
	}

	amount, err := decimal.NewFromString(normalized)
	if err != nil {
		return decimal.Zero, false
	}
	return amount, true
}

// StandardizeAmount rewrites raw into the plain "-123.45" form accepted by
// decimal.NewFromString. Only one leading minus sign survives.
func StandardizeAmount(raw string) (string, bool) {
	sanitized := nonAmountChars.ReplaceAllString(raw, "")
	if sanitized == "" {
		return "", false
	}

	separator := strings.LastIndexAny(sanitized, ",.")
	var normalized string
	if separator >= 0 {
		integer := keepLeadingMinus(nonIntegerChars.ReplaceAllString(sanitized[:separator], ""))
		fraction := nonDigits.ReplaceAllString(sanitized[separator+1:], "")
		normalized = integer + "." + fraction
	} else {
		normalized = sanitized
	}

	if !normalizedForm.MatchString(normalized) || !strings.ContainsAny(normalized, "0123456789") {
		return "", false
	}

	// decimal.NewFromString wants digits on at least one side of the point.
	normalized = strings.TrimSuffix(normalized, ".")
	if strings.HasPrefix(normalized, ".") || strings.HasPrefix(normalized, "-.") {
		normalized = strings.Replace(normalized, ".", "0.", 1)
	}
	return normalized, true
}

func keepLeadingMinus(s string) string {
	if s == "" {
		return s
	}
	rest := strings.ReplaceAll(s[1:], "-", "")
	return s[:1] + rest
}

// FormatCents renders cents as Brazilian currency, e.g. "R$ 1.234,56".
func FormatCents(cents int64) string {
	amount := decimal.New(cents, -2)
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Abs()
	}

	fixed := amount.StringFixed(2)
	integer, fraction, _ := strings.Cut(fixed, ".")

	var grouped strings.Builder
	for i, r := range integer {
		if i > 0 && (len(integer)-i)%3 == 0 {
			grouped.WriteByte('.')
		}
		grouped.WriteRune(r)
	}
	return sign + "R$ " + grouped.String() + "," + fraction
}

// IsOutflow reports whether cents represents money leaving the account.
func IsOutflow(cents int64) bool {
	return cents < 0
}
