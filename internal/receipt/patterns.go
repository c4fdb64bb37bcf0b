package receipt

import "regexp"

// Class is the category a piece of receipt text is classified into.
type Class int

const (
	ClassFooter Class = iota + 1
	ClassDiscount
	ClassNonItem
	ClassStoreIdentity
)

type classPattern struct {
	class Class
	re    *regexp.Regexp
}

// classPatterns is the single source of truth for keyword classification;
// the sectionizer, both extractors and the metadata extractor all go through it.
var classPatterns = []classPattern{
	{ClassFooter, regexp.MustCompile(`(?i)\b(sub\s*-?\s*total|total|balance due|amount due|vat|change|card|visa|mastercard|maestro|amex|american express|contactless|authori[sz]ation|auth code)\b`)},

	{ClassDiscount, regexp.MustCompile(`(?i)\b(discount|saving|savings|offer|clubcard|nectar|loyalty|smart price|voucher|promo|promotion|coupon|multi-?buy)\b`)},

	{ClassNonItem, regexp.MustCompile(`(?i)^(served by|you were served|staff|colleague|cashier|operator|till\b|service\b|customer service)`)},
	{ClassNonItem, regexp.MustCompile(`(?i)number of items|balance before|more points|card payment`)},
	{ClassNonItem, regexp.MustCompile(`(?i)^(card|(sub\s*-?\s*)?total\b.*|change\b.*)$`)},

	{ClassStoreIdentity, regexp.MustCompile(`(?i)^(tesco|sainsbury'?s?|asda|morrisons|aldi|lidl|waitrose|co-?op|iceland|m\s*&\s*s|marks\s*(and|&)\s*spencer)\b`)},
}

// Is reports whether text falls into class.
func (c Class) Is(text string) bool {
	for _, p := range classPatterns {
		if p.class == c && p.re.MatchString(text) {
			return true
		}
	}
	return false
}

// IsFooterText reports whether a line marks the start of the totals/payment section.
func IsFooterText(text string) bool {
	return ClassFooter.Is(text)
}

// IsDiscountText reports whether a name reads like a discount or offer line.
func IsDiscountText(text string) bool {
	return ClassDiscount.Is(text)
}

// IsNonItemText reports whether text is a known non-item phrase or
// store-identity leakage from the header.
func IsNonItemText(text string) bool {
	return ClassNonItem.Is(text) || ClassStoreIdentity.Is(text)
}

var (
	singleLetter  = regexp.MustCompile(`^[A-Za-z]$`)
	numericOnly   = regexp.MustCompile(`^[\d\s.,:/£$€%-]+$`)
	hasLetter     = regexp.MustCompile(`[A-Za-z]`)
	trailingPrice = regexp.MustCompile(`-?[£$€]?\s?-?\d+[.,]\d{2}\s*[A-Za-z]?$`)
	datePattern   = regexp.MustCompile(`\b\d{2}/\d{2}/(?:\d{4}|\d{2})\b`)
)
