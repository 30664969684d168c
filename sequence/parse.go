package sequence

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/simmonson/fib-worker/types"
)

// ParseIndex converts message text to an index using strict base-10 parsing.
//
// The whole text must be an optionally signed decimal integer: surrounding
// whitespace, fractional parts and trailing characters are rejected. Leading
// zeros are accepted, so "007" parses to 7.
//
// Returns:
//   - int64: The parsed index (may be negative)
//   - error: wraps types.ErrInvalidIndex for empty, malformed or out of range text
func ParseIndex(text string) (int64, error) {
	if text == "" {
		return 0, fmt.Errorf("%w: empty payload", types.ErrInvalidIndex)
	}

	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return 0, fmt.Errorf("%w: %q is out of range", types.ErrInvalidIndex, text)
		}

		return 0, fmt.Errorf("%w: %q is not a base-10 integer", types.ErrInvalidIndex, text)
	}

	return n, nil
}
