package service

import (
	"strconv"
	"strings"
	"time"

	domainerrors "github.com/surdiana/auth-service/internal/errors"
)

// ParseExpiry converts a TTL string like "15m", "12h" or "7d" into a
// duration. The grammar is a positive integer followed by exactly one of
// d, h, m or s. time.ParseDuration is not used because it has no day unit
// and accepts compound forms the config grammar forbids.
func ParseExpiry(value string) (time.Duration, error) {
	if len(value) < 2 {
		return 0, domainerrors.ErrInvalidExpiryFormat
	}

	unit := value[len(value)-1]
	magnitude := value[:len(value)-1]

	if strings.TrimLeft(magnitude, "0123456789") != "" {
		return 0, domainerrors.ErrInvalidExpiryFormat
	}

	n, err := strconv.ParseInt(magnitude, 10, 64)
	if err != nil || n <= 0 {
		return 0, domainerrors.ErrInvalidExpiryFormat
	}

	switch unit {
	case 'd':
		return time.Duration(n) * 24 * time.Hour, nil
	case 'h':
		return time.Duration(n) * time.Hour, nil
	case 'm':
		return time.Duration(n) * time.Minute, nil
	case 's':
		return time.Duration(n) * time.Second, nil
	default:
		return 0, domainerrors.ErrInvalidExpiryFormat
	}
}
