package wrapped

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var usd = message.NewPrinter(language.AmericanEnglish)

// FormatUSD renders an amount as en-US currency, grouping included
// ("$3,395.00").
func FormatUSD(amount float64) string {
	return usd.Sprintf("$%v", number.Decimal(amount,
		number.MinFractionDigits(2),
		number.MaxFractionDigits(2)))
}
