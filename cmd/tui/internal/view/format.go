package view

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

const dbTimeout = 5 * time.Second

// FormatMoney renders an amount with two decimals and thousands separators,
// e.g. "INR 120,000.50".
func FormatMoney(d decimal.Decimal, currency string) string {
	fixed := d.StringFixed(2)

	whole, frac, _ := strings.Cut(fixed, ".")

	sign := ""
	if strings.HasPrefix(whole, "-") {
		sign, whole = "-", whole[1:]
	}

	n, err := decimal.NewFromString(whole)
	if err != nil || !n.IsInteger() {
		return strings.TrimSpace(currency + " " + fixed)
	}

	return strings.TrimSpace(fmt.Sprintf("%s %s%s.%s", currency, sign, humanize.Comma(n.IntPart()), frac))
}

// FormatCount renders a quantity with thousands separators.
func FormatCount(n int64) string {
	return humanize.Comma(n)
}

// FormatDate formats a time.Time into YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// FormatAgo renders t relative to now, e.g. "3 minutes ago".
func FormatAgo(t time.Time) string {
	return humanize.Time(t)
}

// DbCtx returns a context with a standard timeout for store operations.
func DbCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), dbTimeout)
}
