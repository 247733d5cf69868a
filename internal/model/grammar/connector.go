package grammar

import (
	"fmt"
	"strings"
	"unicode"
)

// Direction is the side a connector attaches to
type Direction int

const (
	Left Direction = iota
	Right
)

func (d Direction) Opposite() Direction {
	if d == Left {
		return Right
	}
	return Left
}

// Sign returns the grammar-file sign for the direction
func (d Direction) Sign() string {
	if d == Left {
		return "-"
	}
	return "+"
}

func (d Direction) String() string {
	if d == Left {
		return "left"
	}
	return "right"
}

// Connector is a typed, directional attachment point.
// Type is the leading uppercase run of the label, Suffix the remaining characters.
type Connector struct {
	Type   string
	Suffix string
	Dir    Direction
}

// Label returns the connector label without its direction sign
func (c Connector) Label() string {
	return c.Type + c.Suffix
}

// Swap returns the same connector pointing the other way
func (c Connector) Swap() Connector {
	c.Dir = c.Dir.Opposite()
	return c
}

func (c Connector) String() string {
	return c.Label() + c.Dir.Sign()
}

// CompatibleWith reports whether c can link to other
func (c Connector) CompatibleWith(other Connector) bool {
	return IsCompatible(c, other)
}

// IsCompatible reports whether a and b can form a link: directions must be
// opposite, types equal, and suffixes equal up to the length of the shorter one.
func IsCompatible(a, b Connector) bool {
	if a.Dir == b.Dir {
		return false
	}
	return labelsMatch(a, b)
}

func labelsMatch(a, b Connector) bool {
	if a.Type != b.Type {
		return false
	}
	n := min(len(a.Suffix), len(b.Suffix))
	return a.Suffix[:n] == b.Suffix[:n]
}

// ParseConnector parses a token such as "Ss+" or "C0_1-".
func ParseConnector(token string) (Connector, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Connector{}, &MalformedConnectorError{Token: token, Reason: "empty connector"}
	}

	var dir Direction
	switch token[len(token)-1] {
	case '+':
		dir = Right
	case '-':
		dir = Left
	default:
		return Connector{}, &MalformedConnectorError{Token: token, Reason: "missing trailing direction sign"}
	}

	label := token[:len(token)-1]
	typeEnd := strings.IndexFunc(label, func(r rune) bool { return !unicode.IsUpper(r) })
	if typeEnd < 0 {
		typeEnd = len(label)
	}
	if typeEnd == 0 {
		return Connector{}, &MalformedConnectorError{Token: token, Reason: "label must start with an uppercase type"}
	}
	if strings.ContainsAny(label, "+-&() \t") {
		return Connector{}, &MalformedConnectorError{Token: token, Reason: fmt.Sprintf("invalid character in label %q", label)}
	}

	return Connector{Type: label[:typeEnd], Suffix: label[typeEnd:], Dir: dir}, nil
}
