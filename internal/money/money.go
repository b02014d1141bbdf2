// Package money represents monetary amounts as int64 minor units (cents).
// Decimal strings are parsed and formatted through shopspring/decimal at the
// boundary; arithmetic inside the core is plain integer math so splitting can
// never create or destroy value through rounding.
package money

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Amount is a monetary value in minor units. The currency itself is opaque to
// the core; all amounts on one ledger share one currency.
type Amount int64

// minorUnitExponent fixes two fractional digits (cents).
const minorUnitExponent = 2

var minorUnitFactor = decimal.New(1, minorUnitExponent)

// Parse converts a decimal string such as "120.50" into minor units.
// It rejects malformed input and values with more than two fractional digits;
// "120.505" is an error, not a silent rounding.
func Parse(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return fromDecimal(d)
}

func fromDecimal(d decimal.Decimal) (Amount, error) {
	scaled := d.Mul(minorUnitFactor)
	if !scaled.IsInteger() {
		return 0, fmt.Errorf("amount %s has more than %d fractional digits", d, minorUnitExponent)
	}
	if !scaled.BigInt().IsInt64() {
		return 0, fmt.Errorf("amount %s out of range", d)
	}
	return Amount(scaled.IntPart()), nil
}

// String formats the amount as a decimal string with two fractional digits,
// e.g. Amount(12345) -> "123.45".
func (a Amount) String() string {
	return decimal.New(int64(a), -minorUnitExponent).StringFixed(minorUnitExponent)
}

// Decimal returns the amount as a shopspring decimal in major units.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(int64(a), -minorUnitExponent)
}

// MarshalJSON writes the amount as a bare minor-unit integer.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(int64(a))
}

// UnmarshalJSON accepts either a minor-unit integer (1250) or a decimal
// string in major units ("12.50"); both forms appear on the wire.
func (a *Amount) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := Parse(s)
		if err != nil {
			return err
		}
		*a = v
		return nil
	}
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid amount %s: want minor-unit integer or decimal string", data)
	}
	*a = Amount(n)
	return nil
}
