package gateway

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"

	apierrors "github.com/al3xb0/mindpal-task/internal/errors"
)

const (
	// MaxPage is the highest page number forwarded to the directory.
	MaxPage = 1000

	msgPageNotPositive = "Invalid page parameter. Must be a positive integer."
)

var msgPageTooLarge = "Page number must be at most " + strconv.Itoa(MaxPage) + "."

// coercePage turns the raw page value into a page number in [1, MaxPage].
// An absent page means the first one. Integral JSON numbers and decimal
// strings are accepted.
func coercePage(raw json.RawMessage) (int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 1, nil
	}

	var page float64
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, apierrors.InvalidPage(msgPageNotPositive)
		}
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		switch {
		case errors.Is(err, strconv.ErrRange) && n > 0:
			return 0, apierrors.InvalidPage(msgPageTooLarge)
		case err != nil:
			return 0, apierrors.InvalidPage(msgPageNotPositive)
		}
		page = float64(n)
	default:
		if err := json.Unmarshal(raw, &page); err != nil {
			return 0, apierrors.InvalidPage(msgPageNotPositive)
		}
		if page != math.Trunc(page) {
			return 0, apierrors.InvalidPage(msgPageNotPositive)
		}
	}

	if page < 1 {
		return 0, apierrors.InvalidPage(msgPageNotPositive)
	}
	if page > MaxPage {
		return 0, apierrors.InvalidPage(msgPageTooLarge)
	}
	return int(page), nil
}
