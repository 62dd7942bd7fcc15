package view

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const dbTimeout = 5 * time.Second

var printer = message.NewPrinter(language.English)

// FormatAmount renders an amount in minor units with thousands separators.
func FormatAmount(minor int64, decimals int32) string {
	if decimals == 0 {
		return printer.Sprintf("%d", minor)
	}

	f, _ := decimal.New(minor, -decimals).Float64()

	return printer.Sprint(number.Decimal(f, number.Scale(int(decimals))))
}

// FormatDate formats a time.Time into YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(time.DateOnly)
}

// DbCtx returns a context with a standard timeout for database operations.
func DbCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), dbTimeout)
}
