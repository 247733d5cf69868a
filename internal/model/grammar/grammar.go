// Package grammar holds the link-grammar style model consumed by the sampler:
// classes with their vocabularies, disjuncts of typed directional connectors,
// and an index from connector label to the classes offering it.
package grammar

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// ClassID identifies a grammar class; ids follow file order starting at 0
type ClassID int

// Disjunct is one alternative bundle of connectors a class may use
type Disjunct struct {
	connectors []Connector
}

// NewDisjunct copies connectors into an immutable disjunct
func NewDisjunct(connectors ...Connector) Disjunct {
	return Disjunct{connectors: slices.Clone(connectors)}
}

// Connectors returns a copy of the disjunct's connectors in file order
func (d Disjunct) Connectors() []Connector {
	return slices.Clone(d.connectors)
}

func (d Disjunct) Len() int {
	return len(d.connectors)
}

func (d Disjunct) At(i int) Connector {
	return d.connectors[i]
}

// Accepts reports whether some connector of d can link to the given connector
func (d Disjunct) Accepts(c Connector) bool {
	for _, own := range d.connectors {
		if IsCompatible(c, own) {
			return true
		}
	}
	return false
}

func (d Disjunct) String() string {
	parts := make([]string, len(d.connectors))
	for i, c := range d.connectors {
		parts[i] = c.String()
	}
	return strings.Join(parts, " & ")
}

// Class is a grammar class with its vocabulary and disjuncts
type Class struct {
	ID        ClassID
	Words     []string
	Disjuncts []Disjunct
}

// AcceptingDisjuncts returns the disjuncts that contain a connector compatible with c
func (cl *Class) AcceptingDisjuncts(c Connector) []Disjunct {
	var out []Disjunct
	for _, d := range cl.Disjuncts {
		if d.Accepts(c) {
			out = append(out, d)
		}
	}
	return out
}

type indexEntry struct {
	connector Connector
	classes   map[Direction][]ClassID
}

// ConnectorIndex maps a connector label to the classes whose disjuncts contain it
type ConnectorIndex struct {
	entries map[string]*indexEntry
	labels  []string
}

func newConnectorIndex() *ConnectorIndex {
	return &ConnectorIndex{entries: make(map[string]*indexEntry)}
}

func (ix *ConnectorIndex) register(c Connector, id ClassID) {
	label := c.Label()
	entry, ok := ix.entries[label]
	if !ok {
		entry = &indexEntry{connector: Connector{Type: c.Type, Suffix: c.Suffix}, classes: make(map[Direction][]ClassID)}
		ix.entries[label] = entry
		ix.labels = append(ix.labels, label)
	}
	if !slices.Contains(entry.classes[c.Dir], id) {
		entry.classes[c.Dir] = append(entry.classes[c.Dir], id)
	}
}

// Labels returns every indexed label in registration order
func (ix *ConnectorIndex) Labels() []string {
	return slices.Clone(ix.labels)
}

// Classes returns the classes offering label in either direction
func (ix *ConnectorIndex) Classes(label string) []ClassID {
	entry, ok := ix.entries[label]
	if !ok {
		return nil
	}
	var out []ClassID
	for _, dir := range []Direction{Left, Right} {
		for _, id := range entry.classes[dir] {
			if !slices.Contains(out, id) {
				out = append(out, id)
			}
		}
	}
	slices.Sort(out)
	return out
}

// Grammar is the immutable in-memory grammar model
type Grammar struct {
	classes []*Class
	index   *ConnectorIndex
}

// New builds a grammar from already-parsed classes and indexes their connectors.
// Class ids are reassigned to match slice order.
func New(classes []*Class) (*Grammar, error) {
	if len(classes) == 0 {
		return nil, &FormatError{Reason: "grammar defines no classes"}
	}
	g := &Grammar{index: newConnectorIndex()}
	for i, cl := range classes {
		if len(cl.Words) == 0 {
			return nil, &FormatError{Reason: fmt.Sprintf("class %d has an empty vocabulary", i)}
		}
		if len(cl.Disjuncts) == 0 {
			return nil, &FormatError{Reason: fmt.Sprintf("class %d has no disjuncts", i)}
		}
		for j, d := range cl.Disjuncts {
			if d.Len() == 0 {
				return nil, &FormatError{Reason: fmt.Sprintf("class %d disjunct %d is empty", i, j)}
			}
		}
		g.classes = append(g.classes, &Class{
			ID:        ClassID(i),
			Words:     slices.Clone(cl.Words),
			Disjuncts: slices.Clone(cl.Disjuncts),
		})
	}
	for _, cl := range g.classes {
		for _, d := range cl.Disjuncts {
			for _, c := range d.connectors {
				g.index.register(c, cl.ID)
			}
		}
	}
	return g, nil
}

func (g *Grammar) NumClasses() int {
	return len(g.classes)
}

// Class returns the class with the given id, or nil when out of range
func (g *Grammar) Class(id ClassID) *Class {
	if id < 0 || int(id) >= len(g.classes) {
		return nil
	}
	return g.classes[id]
}

// Classes returns the grammar classes in id order
func (g *Grammar) Classes() []*Class {
	return slices.Clone(g.classes)
}

func (g *Grammar) Index() *ConnectorIndex {
	return g.index
}

// CandidateClasses returns, sorted, the classes owning a disjunct with a
// connector that can link to c. Labels are matched with the generalization
// rule, so a short label reaches every longer label it prefixes.
func (g *Grammar) CandidateClasses(c Connector) []ClassID {
	want := c.Swap()
	var out []ClassID
	for _, label := range g.index.labels {
		entry := g.index.entries[label]
		probe := entry.connector
		probe.Dir = want.Dir
		if !IsCompatible(c, probe) {
			continue
		}
		for _, id := range entry.classes[want.Dir] {
			if !slices.Contains(out, id) {
				out = append(out, id)
			}
		}
	}
	slices.Sort(out)
	return out
}

// Unmatched lists every connector that no class can link to. Generating from
// a grammar with unmatched connectors may dead-end.
func (g *Grammar) Unmatched() []string {
	seen := make(map[string]bool)
	var out []string
	for _, cl := range g.classes {
		for _, d := range cl.Disjuncts {
			for _, c := range d.connectors {
				key := c.String()
				if seen[key] {
					continue
				}
				seen[key] = true
				if len(g.CandidateClasses(c)) == 0 {
					out = append(out, key)
				}
			}
		}
	}
	sort.Strings(out)
	return out
}

// Validate reports unmatched connectors as an error
func (g *Grammar) Validate() error {
	if missing := g.Unmatched(); len(missing) > 0 {
		return fmt.Errorf("connectors without a compatible counterpart: %s", strings.Join(missing, ", "))
	}
	return nil
}

// String renders the grammar back into the grammar file format
func (g *Grammar) String() string {
	var b strings.Builder
	for _, cl := range g.classes {
		fmt.Fprintf(&b, "%% Class: %d\n", cl.ID)
		b.WriteString(strings.Join(cl.Words, " "))
		b.WriteString(":\n")
		parts := make([]string, len(cl.Disjuncts))
		for i, d := range cl.Disjuncts {
			parts[i] = "(" + d.String() + ")"
		}
		b.WriteString(strings.Join(parts, " or "))
		b.WriteString(";\n\n")
	}
	return b.String()
}
