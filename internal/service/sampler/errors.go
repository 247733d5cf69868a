package sampler

import (
	"errors"
	"fmt"

	"gramgen-go/internal/model/grammar"
)

var (
	// ErrGenerationDeadEnd is matched when expansion reaches a connector nothing can satisfy
	ErrGenerationDeadEnd = errors.New("generation dead end")
	// ErrGenerationOverflow is matched when a parse exceeds the node or depth ceiling
	ErrGenerationOverflow = errors.New("generation overflow")
)

// DeadEndError describes the connector that could not be satisfied
type DeadEndError struct {
	Class     grammar.ClassID
	Connector grammar.Connector
	// NoDisjunct is set when the class was reached but none of its disjuncts accepts the connector
	NoDisjunct bool
}

func (e *DeadEndError) Error() string {
	if e.NoDisjunct {
		return fmt.Sprintf("generation dead end: class %d has no disjunct accepting %s", e.Class, e.Connector)
	}
	return fmt.Sprintf("generation dead end: no class can link to %s of class %d", e.Connector, e.Class)
}

func (e *DeadEndError) Unwrap() error {
	return ErrGenerationDeadEnd
}

// OverflowError reports which ceiling was crossed
type OverflowError struct {
	Limit string
	Max   int
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("generation overflow: %s exceeded %d", e.Limit, e.Max)
}

func (e *OverflowError) Unwrap() error {
	return ErrGenerationOverflow
}

func retryable(err error) bool {
	return errors.Is(err, ErrGenerationDeadEnd) || errors.Is(err, ErrGenerationOverflow)
}
