package notification

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"strconv"
	"time"
)

// ID is an opaque notification identifier. Generated ids follow the
// notif_<timestamp36>_<random6> format; caller-supplied ids are accepted as
// long as they match the id grammar.
type ID string

const (
	maxIDLength  = 50
	idRandLength = 6
	idAlphabet   = "abcdefghijklmnopqrstuvwxyz0123456789"
)

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// NewID generates a new notification id from the current time and a short
// random suffix. The timestamp component keeps ids roughly sortable by
// creation time.
func NewID() ID {
	suffix := make([]byte, idRandLength)
	for i := range suffix {
		suffix[i] = idAlphabet[rand.IntN(len(idAlphabet))]
	}
	return ID("notif_" + strconv.FormatInt(time.Now().UnixMilli(), 36) + "_" + string(suffix))
}

// ParseID validates a caller-supplied id string.
func ParseID(s string) (ID, error) {
	if s == "" {
		return "", ErrEmptyID
	}
	if len(s) > maxIDLength {
		return "", fmt.Errorf("%w: %d characters, maximum is %d", ErrIDTooLong, len(s), maxIDLength)
	}
	if !idPattern.MatchString(s) {
		return "", fmt.Errorf("%w: %q", ErrInvalidIDFormat, s)
	}
	return ID(s), nil
}

func (id ID) String() string {
	return string(id)
}
