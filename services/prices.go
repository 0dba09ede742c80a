package services

import (
	"regexp"
	"strconv"
	"strings"
)

// priceRegexp captures a currency amount: "$", optional whitespace, digit
// groups with optional thousands separators, optional two-digit fraction.
var priceRegexp = regexp.MustCompile(`\$\s*((?:\d{1,3}(?:,\d{3})+|\d+)(?:\.\d{2})?)`)

// ExtractPrice pulls the first dollar amount out of a free-text label.
// Examples:
//
//	"$1,234.56"            → 1234.56
//	"$ 99"                 → 99
//	"now only $45.00 each" → 45
//
// It returns 0 when the label is empty, contains no amount, or the match
// fails to parse. Zero means "no usable price" — callers filter it out
// with the >1 floor before analysis.
func ExtractPrice(label string) float64 {
	if label == "" {
		return 0
	}

	match := priceRegexp.FindStringSubmatch(label)
	if match == nil {
		return 0
	}

	cleaned := strings.ReplaceAll(match[1], ",", "")
	price, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return price
}
