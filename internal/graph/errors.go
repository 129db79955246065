package graph

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrCycle marks a dependency cycle discovered during resolution.
	ErrCycle = errors.New("cycle detected")

	// ErrMissingInput marks an input that no rule produces and that does
	// not exist on disk at resolution time.
	ErrMissingInput = errors.New("input file does not exist and no rule produces it")
)

// CycleError reports a dependency cycle, listing the targets along it in
// resolution order, ending where it began.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cycle detected: %s", strings.Join(e.Path, " -> "))
}

func (e *CycleError) Unwrap() error { return ErrCycle }
