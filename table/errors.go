package table

import "errors"

var (
	// ErrEmptyInput indicates the input has no header row.
	ErrEmptyInput = errors.New("empty table input")

	// ErrInvalidPercentage indicates a Percentage cell that is not a number.
	ErrInvalidPercentage = errors.New("percentage is not a number")
)
