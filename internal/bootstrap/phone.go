package bootstrap

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// NormalizePhone parses raw and returns it in E.164. Numbers without a
// country code are read in defaultRegion (e.g. "GH").
func NormalizePhone(raw, defaultRegion string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrInvalidPhone
	}

	parsed, err := phonenumbers.Parse(raw, strings.ToUpper(defaultRegion))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPhone, err)
	}
	if !phonenumbers.IsValidNumber(parsed) {
		return "", fmt.Errorf("%w: %s", ErrInvalidPhone, raw)
	}
	return phonenumbers.Format(parsed, phonenumbers.E164), nil
}

var ErrInvalidPhone = errors.New("invalid phone number")
