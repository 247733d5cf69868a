package sampler

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"

	"gramgen-go/internal/model/grammar"
	"gramgen-go/internal/model/ull"
)

// linkEntry holds the children recorded for one parent word instance
type linkEntry struct {
	parent   string
	children []string
}

// genContext is the mutable state of a single generation attempt
type genContext struct {
	grammar  *grammar.Grammar
	rng      *rand.Rand
	maxNodes int

	counter int
	tree    []TreeNode

	links     []*linkEntry
	linkIndex map[string]*linkEntry

	words   map[int]string
	parents map[int]int
	via     map[int]grammar.Connector
	back    map[int]grammar.Connector
}

func newGenContext(g *grammar.Grammar, rng *rand.Rand, maxNodes int) *genContext {
	return &genContext{
		grammar:   g,
		rng:       rng,
		maxNodes:  maxNodes,
		linkIndex: make(map[string]*linkEntry),
		words:     make(map[int]string),
		parents:   make(map[int]int),
		via:       make(map[int]grammar.Connector),
		back:      make(map[int]grammar.Connector),
	}
}

func (gc *genContext) seed(class grammar.ClassID) TreeNode {
	root := TreeNode{ID: gc.counter, Class: class}
	gc.tree = []TreeNode{root}
	return root
}

func (gc *genContext) newNode(class grammar.ClassID) (TreeNode, error) {
	if gc.counter+2 > gc.maxNodes {
		return TreeNode{}, &OverflowError{Limit: "node count", Max: gc.maxNodes}
	}
	gc.counter++
	return TreeNode{ID: gc.counter, Class: class}, nil
}

func (gc *genContext) insert(at int, n TreeNode) {
	gc.tree = slices.Insert(gc.tree, at, n)
}

// sampleWord draws the node's word on first use and reuses it afterwards
func (gc *genContext) sampleWord(n TreeNode) WordInstance {
	w, ok := gc.words[n.ID]
	if !ok {
		vocab := gc.grammar.Class(n.Class).Words
		w = vocab[gc.rng.IntN(len(vocab))]
		gc.words[n.ID] = w
	}
	return WordInstance{Word: w, Class: n.Class, ID: n.ID}
}

func (gc *genContext) link(parent, child TreeNode, via grammar.Connector) {
	p := gc.sampleWord(parent).Label()
	c := gc.sampleWord(child).Label()
	entry, ok := gc.linkIndex[p]
	if !ok {
		entry = &linkEntry{parent: p}
		gc.linkIndex[p] = entry
		gc.links = append(gc.links, entry)
	}
	entry.children = append(entry.children, c)
	gc.parents[child.ID] = parent.ID
	gc.via[child.ID] = via
}

// assemble resolves every word instance to its final position and builds the parse
func (gc *genContext) assemble(endMarker string) (*GeneratedParse, error) {
	positions := make(map[int]int, len(gc.tree))
	for i, n := range gc.tree {
		positions[n.ID] = i + 1
	}

	resolve := func(label string) (string, int, error) {
		inst, err := ParseWordInstance(label)
		if err != nil {
			return "", 0, err
		}
		pos, ok := positions[inst.ID]
		if !ok || gc.tree[pos-1].Class != inst.Class {
			return "", 0, fmt.Errorf("word instance %q not found in tree", label)
		}
		return inst.Word, pos, nil
	}

	words := make([]string, len(gc.tree))
	var links []ull.Link
	for _, entry := range gc.links {
		pWord, pPos, err := resolve(entry.parent)
		if err != nil {
			return nil, err
		}
		words[pPos-1] = pWord
		for _, child := range entry.children {
			cWord, cPos, err := resolve(child)
			if err != nil {
				return nil, err
			}
			words[cPos-1] = cWord
			links = append(links, ull.NewLink(pPos, pWord, cPos, cWord))
		}
	}
	ull.SortLinks(links)

	nodes := make([]Node, len(gc.tree))
	for i, n := range gc.tree {
		if words[i] == "" {
			words[i] = gc.sampleWord(n).Word
		}
		node := Node{Position: i + 1, ID: n.ID, Class: n.Class, Word: words[i]}
		if parentID, ok := gc.parents[n.ID]; ok {
			node.Head = positions[parentID]
			node.Via = gc.via[n.ID]
			node.Back = gc.back[n.ID]
		}
		nodes[i] = node
	}

	sentence := strings.Join(words, " ")
	if endMarker != "" {
		sentence += " " + endMarker
	}
	return &GeneratedParse{
		Words:    words,
		Sentence: sentence,
		Links:    links,
		Nodes:    nodes,
	}, nil
}
