package grammar

import (
	"errors"
	"fmt"
)

var (
	// ErrGrammarFormat is matched by every grammar parsing failure
	ErrGrammarFormat = errors.New("grammar format error")
	// ErrMalformedConnector is matched by connector tokens that cannot be parsed
	ErrMalformedConnector = errors.New("malformed connector")
)

// FormatError reports a structural problem in a grammar description
type FormatError struct {
	Line   int
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	msg := e.Reason
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	if e.Line > 0 {
		return fmt.Sprintf("grammar line %d: %s", e.Line, msg)
	}
	return "grammar: " + msg
}

func (e *FormatError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrGrammarFormat, e.Err}
	}
	return []error{ErrGrammarFormat}
}

// MalformedConnectorError reports a connector token without a usable label or direction
type MalformedConnectorError struct {
	Token  string
	Reason string
}

func (e *MalformedConnectorError) Error() string {
	return fmt.Sprintf("malformed connector %q: %s", e.Token, e.Reason)
}

func (e *MalformedConnectorError) Unwrap() []error {
	return []error{ErrMalformedConnector, ErrGrammarFormat}
}
