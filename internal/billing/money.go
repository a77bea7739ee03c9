// Package billing is the subscription rule engine: plan lookups, quota and
// feature checks, and transaction fee arithmetic. Every function is pure and
// safe for concurrent use; persisted state is passed in by the caller.
package billing

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// PesewasPerCedi is the number of minor units in one Ghana cedi
const PesewasPerCedi = 100

// maxAmount keeps amount * rate inside int64
const maxAmount Amount = math.MaxInt64 / 10_000

// Amount is a GHS value in pesewas
type Amount int64

// FromCedis converts whole cedis to an Amount
func FromCedis(cedis int64) Amount {
	return Amount(cedis * PesewasPerCedi)
}

// ParseAmount parses a decimal cedi string such as "1250", "1250.5" or "1250.50".
// More than two fractional digits are rejected so no sub-pesewa value is ever stored.
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrMalformedAmount)
	}

	negative := false
	if s[0] == '-' || s[0] == '+' {
		negative = s[0] == '-'
		s = s[1:]
	}

	whole, frac, hasDot := strings.Cut(s, ".")
	if !isDigits(whole) || (hasDot && !isDigits(frac)) || len(frac) > 2 {
		return 0, fmt.Errorf("%w: %q", ErrMalformedAmount, s)
	}
	for len(frac) < 2 {
		frac += "0"
	}

	cedis, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedAmount, s)
	}
	pesewas, _ := strconv.ParseInt(frac, 10, 64)
	if cedis > (math.MaxInt64-pesewas)/PesewasPerCedi {
		return 0, fmt.Errorf("%w: %q overflows", ErrMalformedAmount, s)
	}

	a := Amount(cedis*PesewasPerCedi + pesewas)
	if negative {
		a = -a
	}
	return a, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// Pesewas returns the raw minor-unit value
func (a Amount) Pesewas() int64 {
	return int64(a)
}

// String formats the amount as cedis with two decimals
func (a Amount) String() string {
	sign := ""
	v := int64(a)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/PesewasPerCedi, v%PesewasPerCedi)
}

// MarshalJSON encodes the amount as a decimal string to avoid float rounding on clients
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON accepts a decimal string or a JSON number
func (a *Amount) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("%w: %s", ErrMalformedAmount, string(data))
		}
		s = n.String()
	}
	parsed, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Rate is a percentage expressed in basis points (1 bp = 0.01%)
type Rate int64

// Percent returns the rate as a percentage, e.g. 350 bps -> 3.5
func (r Rate) Percent() float64 {
	return float64(r) / 100
}

// Apply returns amount * rate rounded half-up to the nearest pesewa.
// The amount must be positive and no larger than maxAmount.
func (r Rate) Apply(amount Amount) Amount {
	return Amount((int64(amount)*int64(r) + 5_000) / 10_000)
}

var ErrMalformedAmount = errors.New("malformed amount")
