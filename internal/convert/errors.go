package convert

import (
	"errors"
	"fmt"
)

var (
	ErrNoInput      = errors.New("input file is required")
	ErrNoTargets    = errors.New("at least one output language is required")
	ErrSameLanguage = errors.New("output language is the same as the input language")
	ErrUnsupported  = errors.New("input is neither a subtitle file nor a video")
)

// Stage names the step a Warning comes from.
type Stage string

const (
	StageTranslate Stage = "translate"
	StagePolish    Stage = "polish"
)

// Warning reports an entry that could not be translated or polished. The
// run continues; a failed translation leaves the cell blank and a failed
// polish keeps the unpolished text.
type Warning struct {
	Entry    int // sequence number of the subtitle entry
	Language string
	Stage    Stage
	Err      error
}

func (w Warning) String() string {
	return fmt.Sprintf("entry %d (%s): %s failed: %v", w.Entry, w.Language, w.Stage, w.Err)
}

// WriteError is returned when an output file cannot be written.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}
