package table

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingSample marks a filtered table missing a sample the run's
	// sample list demands.
	ErrMissingSample = errors.New("sample missing from filtered table")

	// ErrUnknownSample marks a response file whose derived sample is not
	// a member of the run's declared sample set.
	ErrUnknownSample = errors.New("sample not in declared sample set")
)

// MissingSampleError names the sample a projection could not find.
type MissingSampleError struct {
	Sample string
}

func (e *MissingSampleError) Error() string {
	return fmt.Sprintf("sample %q missing from filtered table", e.Sample)
}

func (e *MissingSampleError) Unwrap() error { return ErrMissingSample }

// UnknownSampleError names a sample outside the declared universe.
type UnknownSampleError struct {
	Sample string
	Source string
}

func (e *UnknownSampleError) Error() string {
	return fmt.Sprintf("sample %q from %q is not in the declared sample set", e.Sample, e.Source)
}

func (e *UnknownSampleError) Unwrap() error { return ErrUnknownSample }
