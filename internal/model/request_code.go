package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	RequestCodePrefix     = "REQ"
	requestCodeDateLayout = "20060102"
	requestCodeSeqDigits  = 4
	maxRequestCodeSeq     = 9999
)

var (
	ErrMalformedRequestCode = errors.New("malformed request code")
	ErrRequestCodeExhausted = errors.New("request code sequence exhausted")
)

// RequestCodeDayPrefix returns REQ<YYYYMMDD> for the day of t.
func RequestCodeDayPrefix(t time.Time) string {
	return RequestCodePrefix + t.Format(requestCodeDateLayout)
}

// NextRequestCode builds the code following last within prefix. An empty
// last starts the day at sequence 1.
func NextRequestCode(prefix, last string) (string, error) {
	next := 1
	if last != "" {
		if !strings.HasPrefix(last, prefix) || len(last) != len(prefix)+requestCodeSeqDigits {
			return "", fmt.Errorf("%w: %q", ErrMalformedRequestCode, last)
		}
		seq, err := strconv.Atoi(last[len(prefix):])
		if err != nil {
			return "", fmt.Errorf("%w: %q", ErrMalformedRequestCode, last)
		}
		next = seq + 1
	}
	if next > maxRequestCodeSeq {
		return "", ErrRequestCodeExhausted
	}
	return fmt.Sprintf("%s%0*d", prefix, requestCodeSeqDigits, next), nil
}
