package money

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Scale は通貨の小数桁（JPY=0, USD=2）。不明な通貨は0。
func Scale(code string) int32 {
	unit, err := currency.ParseISO(strings.TrimSpace(code))
	if err != nil {
		return 0
	}
	scale, _ := currency.Standard.Rounding(unit)
	return int32(scale)
}

// Amount は最小単位の整数を通貨の金額に直す（USDの1999 → 19.99）
func Amount(minor int64, code string) decimal.Decimal {
	return decimal.New(minor, -Scale(code))
}

// Format は "JPY 3,600" / "USD 19.99" の形で返す
func Format(minor int64, code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	scale := Scale(code)

	amt := Amount(minor, code)
	whole := amt.Truncate(0).Abs().IntPart()
	frac := amt.Abs().Sub(amt.Abs().Truncate(0)).Shift(scale).IntPart()

	p := message.NewPrinter(language.English)
	s := p.Sprintf("%d", whole)
	if scale > 0 {
		s += "." + leftPad(p.Sprintf("%d", frac), int(scale))
	}
	if amt.IsNegative() {
		s = "-" + s
	}
	if code == "" {
		return s
	}
	return code + " " + s
}

func leftPad(s string, n int) string {
	for len(s) < n {
		s = "0" + s
	}
	return s
}
