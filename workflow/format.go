package workflow

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Stateless display formatting. These are pure derivations parameterized by
// currency and country code, deliberately not module-level state.

var zeroDecimalCurrencies = map[string]struct{}{
	"UGX": {},
	"KES": {},
	"TZS": {},
	"RWF": {},
	"JPY": {},
}

// FormatAmount renders an amount for display: currency code, thousands
// separators, and the customary number of decimal places.
func FormatAmount(currency string, amount decimal.Decimal) string {
	places := int32(2)
	if _, ok := zeroDecimalCurrencies[strings.ToUpper(currency)]; ok {
		places = 0
	}

	fixed := amount.StringFixed(places)

	neg := strings.HasPrefix(fixed, "-")
	fixed = strings.TrimPrefix(fixed, "-")

	intPart := fixed
	fracPart := ""
	if i := strings.IndexByte(fixed, '.'); i >= 0 {
		intPart, fracPart = fixed[:i], fixed[i:]
	}

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	out := b.String() + fracPart
	if neg {
		out = "-" + out
	}
	return strings.ToUpper(currency) + " " + out
}

var dialCodes = map[string]string{
	"UG": "256",
	"KE": "254",
	"TZ": "255",
	"RW": "250",
	"NG": "234",
	"GH": "233",
	"ZA": "27",
}

// FormatPhone normalizes a raw phone number into international form for the
// given country: separators stripped, a national leading zero replaced with
// the dial code. Numbers already in international form pass through.
func FormatPhone(countryCode, raw string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')', '.':
			return -1
		}
		return r
	}, strings.TrimSpace(raw))

	if cleaned == "" {
		return ""
	}

	if strings.HasPrefix(cleaned, "+") {
		return cleaned
	}

	dial, ok := dialCodes[strings.ToUpper(countryCode)]
	if !ok {
		return cleaned
	}

	if strings.HasPrefix(cleaned, "0") {
		return "+" + dial + cleaned[1:]
	}
	if strings.HasPrefix(cleaned, dial) {
		return "+" + cleaned
	}
	return "+" + dial + cleaned
}
