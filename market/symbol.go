package market

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidSymbol is returned when an identifier matches no known
// exchange or numbering convention.
var ErrInvalidSymbol = errors.New("invalid symbol")

// Normalize converts any accepted spelling of a mainland A-share code to
// its canonical form: six digits plus exchange suffix, e.g. "000001.SZ".
//
// Accepted spellings of one instrument: the bare numeric code ("000001"),
// the code with an exchange suffix ("000001.SZ"), and the
// exchange-prefixed lowercase code ("sz000001"). Normalize is pure:
// equal inputs always yield equal outputs, with no side effects.
func Normalize(raw string) (string, error) {
	code := strings.TrimSpace(raw)
	lower := strings.ToLower(code)

	switch {
	case strings.HasPrefix(lower, "sh"), strings.HasPrefix(lower, "sz"):
		code = code[2:]
	case strings.HasSuffix(lower, ".sh"), strings.HasSuffix(lower, ".sz"):
		code = code[:len(code)-3]
	}

	if len(code) != 6 || !allDigits(code) {
		return "", fmt.Errorf("%w: %q", ErrInvalidSymbol, raw)
	}

	// Shenzhen codes start 0/2/3, Shanghai 6/9.
	switch code[0] {
	case '0', '2', '3':
		return code + ".SZ", nil
	case '6', '9':
		return code + ".SH", nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidSymbol, raw)
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
