package importer

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var currencyPrefixes = []string{"₹", "Rs.", "Rs", "INR", "€", "$"}

// parseAmount reads a price cell. With decimalComma set the cell is read the
// European way ("1.234,56"), otherwise commas are grouping ("1,234.56" or the
// lakh form "1,23,456.00").
func parseAmount(s string, decimalComma bool) (decimal.Decimal, error) {
	clean := strings.TrimSpace(s)
	for _, p := range currencyPrefixes {
		clean = strings.TrimSpace(strings.TrimPrefix(clean, p))
	}

	clean = strings.ReplaceAll(clean, " ", "")

	if decimalComma {
		clean = strings.ReplaceAll(clean, ".", "")
		clean = strings.ReplaceAll(clean, ",", ".")
	} else {
		clean = strings.ReplaceAll(clean, ",", "")
	}

	return decimal.NewFromString(clean)
}

// parseQuantity reads a whole-unit stock cell. "12.000" is accepted, "1.5" is not.
func parseQuantity(s string, decimalComma bool) (int64, error) {
	d, err := parseAmount(s, decimalComma)
	if err != nil {
		return 0, err
	}

	if !d.IsInteger() {
		return 0, fmt.Errorf("%s is not a whole quantity", d)
	}

	return d.IntPart(), nil
}
