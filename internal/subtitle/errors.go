package subtitle

import (
	"errors"
	"fmt"
)

// reasons carried by ParseError, matchable with errors.Is
var (
	ErrEmpty           = errors.New("no subtitle entries")
	ErrBadSequence     = errors.New("sequence number is not numeric")
	ErrSequenceOrder   = errors.New("sequence number does not increase")
	ErrMissingTimecode = errors.New("missing timecode line")
	ErrBadTimecode     = errors.New("malformed timecode")
	ErrTimeOrder       = errors.New("end timecode precedes start")
)

// ParseError rejects a whole subtitle file. Line and Block are 1-based and
// zero when the error is not tied to a position.
type ParseError struct {
	Line   int
	Block  int
	Err    error
	Detail string
}

func (e *ParseError) Error() string {
	msg := "parse error"
	if e.Line > 0 {
		msg = fmt.Sprintf("parse error at line %d (block %d)", e.Line, e.Block)
	}
	msg += ": " + e.Err.Error()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
