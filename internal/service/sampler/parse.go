package sampler

import (
	"fmt"
	"strconv"
	"strings"

	"gramgen-go/internal/model/grammar"
	"gramgen-go/internal/model/ull"
)

// TreeNode is a node of the partial tree: generation order id and class
type TreeNode struct {
	ID    int
	Class grammar.ClassID
}

// WordInstance is a sampled word bound to one tree node
type WordInstance struct {
	Word  string
	Class grammar.ClassID
	ID    int
}

// Label encodes the instance as "word_class_id"
func (w WordInstance) Label() string {
	return fmt.Sprintf("%s_%d_%d", w.Word, w.Class, w.ID)
}

// ParseWordInstance decodes a label produced by WordInstance.Label.
// The word itself may contain underscores.
func ParseWordInstance(label string) (WordInstance, error) {
	idSep := strings.LastIndex(label, "_")
	if idSep < 0 {
		return WordInstance{}, fmt.Errorf("word instance %q: missing id", label)
	}
	classSep := strings.LastIndex(label[:idSep], "_")
	if classSep < 0 {
		return WordInstance{}, fmt.Errorf("word instance %q: missing class", label)
	}
	id, err := strconv.Atoi(label[idSep+1:])
	if err != nil {
		return WordInstance{}, fmt.Errorf("word instance %q: bad id: %w", label, err)
	}
	class, err := strconv.Atoi(label[classSep+1 : idSep])
	if err != nil {
		return WordInstance{}, fmt.Errorf("word instance %q: bad class: %w", label, err)
	}
	return WordInstance{Word: label[:classSep], Class: grammar.ClassID(class), ID: id}, nil
}

// Node is one word of a finished parse
type Node struct {
	Position int
	ID       int
	Class    grammar.ClassID
	Word     string
	// Head is the 1-based position of the node that generated this one, 0 for the root
	Head int
	// Via is the head's connector that created the link, Back the connector
	// of this node it was matched with. Both are zero for the root.
	Via  grammar.Connector
	Back grammar.Connector
}

// GeneratedParse is a sentence together with its sorted link list
type GeneratedParse struct {
	Words    []string
	Sentence string
	Links    []ull.Link
	Nodes    []Node
}

// Record converts the parse into a ULL record
func (p *GeneratedParse) Record() ull.Record {
	return ull.Record{Sentence: p.Sentence, Links: p.Links}
}

// ULL renders the sentence line followed by the link lines
func (p *GeneratedParse) ULL() string {
	return p.Record().String()
}

// Root returns the node without a head
func (p *GeneratedParse) Root() Node {
	for _, n := range p.Nodes {
		if n.Head == 0 {
			return n
		}
	}
	return Node{}
}

// ResolvePosition maps a word instance label to its word and 1-based position
func (p *GeneratedParse) ResolvePosition(label string) (string, int, error) {
	inst, err := ParseWordInstance(label)
	if err != nil {
		return "", 0, err
	}
	for _, n := range p.Nodes {
		if n.ID == inst.ID && n.Class == inst.Class {
			return n.Word, n.Position, nil
		}
	}
	return "", 0, fmt.Errorf("word instance %q is not part of this parse", label)
}
