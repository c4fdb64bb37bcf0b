package receipt

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	currencyStripper = strings.NewReplacer("£", "", "$", "", "€", "")
	penceOnly        = regexp.MustCompile(`^\d{3,}$`)
	commaDecimal     = regexp.MustCompile(`^\d+,\d+$`)
	nonNumeric       = regexp.MustCompile(`[^\d.\-]`)
	leadingNumber    = regexp.MustCompile(`^(\d+(\.\d+)?|\.\d+)`)

	hundred       = decimal.NewFromInt(100)
	overflowLimit = decimal.NewFromInt(1000)
)

// NormalizePrice turns a raw price token into a signed amount. Unparseable
// tokens yield zero. A bare run of three or more digits is read as pence
// ("1234" is 12.34), and non-negative values above 1000 are assumed to be
// unit-less pence and divided by 100.
func NormalizePrice(token string) decimal.Decimal {
	trimmed := strings.TrimSpace(token)
	negative := strings.HasPrefix(trimmed, "-")

	text := strings.Join(strings.Fields(currencyStripper.Replace(trimmed)), "")
	if strings.HasPrefix(text, "-") {
		negative = true
		text = strings.TrimLeft(text, "-")
	}

	if penceOnly.MatchString(text) {
		return signed(decimal.RequireFromString(text).Div(hundred), negative)
	}

	if commaDecimal.MatchString(text) {
		text = strings.Replace(text, ",", ".", 1)
	} else {
		text = nonNumeric.ReplaceAllString(text, "")
	}

	number := leadingNumber.FindString(text)
	if number == "" {
		return decimal.Zero
	}
	value, err := decimal.NewFromString(number)
	if err != nil {
		return decimal.Zero
	}

	if !negative && value.GreaterThan(overflowLimit) {
		value = value.Div(hundred)
	}
	return signed(value, negative)
}

func signed(v decimal.Decimal, negative bool) decimal.Decimal {
	if negative {
		return v.Neg()
	}
	return v
}
