package rail

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Error kinds. Every error produced by the pipeline matches exactly one of them
// with errors.Is.
var (
	// ErrConfiguration is fatal: a wiring bug found at link or attach time.
	ErrConfiguration = errors.New("configuration error")
	// ErrProcessing is per item and non-fatal: the item counts as an empty result.
	ErrProcessing = errors.New("processing error")
	// ErrSubmission is fatal: an item of the wrong type was submitted.
	ErrSubmission = errors.New("submission error")
	// ErrShutdown is logged and non-fatal: flushing a final result failed.
	ErrShutdown = errors.New("shutdown error")
)

// ErrClosed is returned when publishing into a channel or stage that was shut down.
var ErrClosed = errors.New("pipeline closed")

// Error describes a failure together with the stage and item it happened on.
type Error struct {
	Kind  error
	Stage string
	Item  string
	Err   error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.Stage != "" {
		b.WriteString(" in stage ")
		b.WriteString(e.Stage)
	}
	if e.Item != "" {
		b.WriteString(" on item ")
		b.WriteString(e.Item)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func Configuration(stage string, format string, args ...any) error {
	return &Error{Kind: ErrConfiguration, Stage: stage, Err: fmt.Errorf(format, args...)}
}

func Processing(stage string, item any, err error) error {
	return &Error{Kind: ErrProcessing, Stage: stage, Item: Describe(item), Err: err}
}

func Submission(stage string, item any, err error) error {
	return &Error{Kind: ErrSubmission, Stage: stage, Item: Describe(item), Err: err}
}

func Shutdown(stage string, err error) error {
	return &Error{Kind: ErrShutdown, Stage: stage, Err: err}
}

// Describe renders an item for error messages, truncating long values.
func Describe(item any) string {
	const limit = 64

	if IsNil(item) {
		return "<nil>"
	}
	s := fmt.Sprintf("%T(%v)", item, item)
	if len(s) > limit {
		cut := limit
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		return s[:cut] + "..."
	}
	return s
}
