package spectrum

import (
	"errors"
	"fmt"
)

var (
	// ErrShape is returned when the counts vector does not match the model input size.
	ErrShape = errors.New("input shape mismatch")
	// ErrOutputShape is returned when a model head has fewer values than the catalog.
	ErrOutputShape = errors.New("model output shape mismatch")
	// ErrModelNotLoaded is returned when inference is requested without a usable model.
	ErrModelNotLoaded = errors.New("model is not loaded")
	// ErrNoSpectrum is returned when inference is requested before a spectrum was loaded.
	ErrNoSpectrum = errors.New("no spectrum loaded")
	// ErrNoSimulation is returned when a comparison is requested before a simulation was loaded.
	ErrNoSimulation = errors.New("no simulation loaded")
	// ErrInvalidConfig is returned for settings outside their usable range.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrMalformedLine marks a data line with too few fields.
	ErrMalformedLine = errors.New("malformed data line")
)

// ParseError reports a decoding failure on a specific line of an input file.
type ParseError struct {
	Source string
	Line   int
	Err    error
}

func (e *ParseError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("%s:%d: %v", e.Source, e.Line, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
