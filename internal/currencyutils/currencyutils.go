// Package currencyutils parses transaction amounts written in the formats
// users and bank exports produce.
package currencyutils

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	currencySymbols = regexp.MustCompile(`[€$£¥₣₤₹₺₽₩฿₫₴₸₪\s]`)
	currencyCode    = regexp.MustCompile(`^[A-Z]{3}|[A-Z]{3}$`)
)

// ParseAmount parses amounts such as "1234.56", "1,234.56", "1.234,56",
// "1'234.56", "CHF 12.50" or "€12,50". An empty string is an error.
func ParseAmount(amountStr string) (decimal.Decimal, error) {
	standardized := StandardizeAmount(amountStr)
	if standardized == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}

	amount, err := decimal.NewFromString(standardized)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse amount '%s': %w", amountStr, err)
	}
	return amount, nil
}

// StandardizeAmount rewrites an amount into the plain form decimal.NewFromString
// accepts: no currency marks, no thousands separators, '.' as decimal point.
func StandardizeAmount(amountStr string) string {
	s := strings.TrimSpace(amountStr)
	s = currencyCode.ReplaceAllString(s, "")
	s = currencySymbols.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "'", "")

	hasComma := strings.Contains(s, ",")
	hasDot := strings.Contains(s, ".")
	switch {
	case hasComma && hasDot:
		if strings.LastIndex(s, ".") < strings.LastIndex(s, ",") {
			// 1.234,56
			s = strings.ReplaceAll(s, ".", "")
			s = strings.ReplaceAll(s, ",", ".")
		} else {
			// 1,234.56
			s = strings.ReplaceAll(s, ",", "")
		}
	case hasComma:
		parts := strings.Split(s, ",")
		if len(parts) == 2 && len(parts[1]) <= 2 {
			// 1234,56
			s = strings.Replace(s, ",", ".", 1)
		} else {
			// 1,234 or 1,234,567
			s = strings.ReplaceAll(s, ",", "")
		}
	}
	return s
}
