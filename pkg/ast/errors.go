package ast

import (
	"errors"
	"fmt"
)

// PositionError attaches source offsets to an evaluation or decoding error.
type PositionError struct {
	Start int
	End   int
	Err   error
}

func (e PositionError) Error() string {
	return fmt.Sprintf("%d-%d: %v", e.Start, e.End, e.Err)
}

func (e PositionError) Unwrap() error {
	return e.Err
}

// WrapError attaches the node's offsets to err. An error that already carries
// a position is returned unchanged so the innermost node wins.
func (s Span) WrapError(err error) error {
	if err == nil {
		return nil
	}

	var posErr PositionError
	if errors.As(err, &posErr) {
		return err
	}

	return PositionError{Start: s.Start, End: s.End, Err: err}
}
