// Package validate holds the pure input checks for declaration fields.
// Every check is a plain decision: no validator panics or leaks parser
// errors past its boundary.
package validate

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jbub/banking/iban"
	"github.com/shopspring/decimal"
)

// Anchored so partial matches never pass.
var emailRe = regexp.MustCompile(`^([A-Za-z0-9]+[.-_])*[A-Za-z0-9]+@[A-Za-z0-9-]+(\.[A-Za-z]{2,})+$`)

// Email reports whether s is a syntactically valid address.
func Email(s string) bool {
	return emailRe.MatchString(s)
}

// IBAN reports whether s parses as a bank account identifier with a valid
// country format and mod-97 checksum.
func IBAN(s string) bool {
	return iban.Validate(s) == nil
}

var ErrAmount = errors.New("not an amount")

// Amount parses s as a decimal number and rounds it to two fractional
// digits, half away from zero ("12.345" becomes 12.35, "-1.005" becomes
// -1.01). Non-numeric or empty input yields ErrAmount.
func Amount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", ErrAmount, s)
	}
	return d.Round(2), nil
}
