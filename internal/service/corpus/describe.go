package corpus

import (
	"fmt"
	"strings"
)

// ClassSummary describes one grammar class
type ClassSummary struct {
	ID        int      `json:"id"`
	Words     []string `json:"words"`
	Disjuncts []string `json:"disjuncts"`
}

// GrammarSummary describes a loaded grammar. Warnings lists connectors no
// class can satisfy; parses reaching them always dead-end.
type GrammarSummary struct {
	Path       string         `json:"path,omitempty"`
	Classes    []ClassSummary `json:"classes"`
	Words      int            `json:"words"`
	Disjuncts  int            `json:"disjuncts"`
	Connectors []string       `json:"connectors"`
	Warnings   []string       `json:"warnings,omitempty"`
}

// DescribeGrammar summarizes the service's grammar
func (cs *CorpusService) DescribeGrammar() GrammarSummary {
	g := cs.grammar
	summary := GrammarSummary{
		Path:       cs.grammarPath,
		Connectors: g.Index().Labels(),
	}
	for _, cl := range g.Classes() {
		cls := ClassSummary{ID: int(cl.ID), Words: cl.Words}
		for _, d := range cl.Disjuncts {
			cls.Disjuncts = append(cls.Disjuncts, d.String())
		}
		summary.Classes = append(summary.Classes, cls)
		summary.Words += len(cl.Words)
		summary.Disjuncts += len(cl.Disjuncts)
	}
	for _, c := range g.Unmatched() {
		summary.Warnings = append(summary.Warnings, fmt.Sprintf("connector %s has no compatible class", c))
	}
	return summary
}

// Text renders the summary for plain text clients
func (s GrammarSummary) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d classes, %d words, %d disjuncts\n", len(s.Classes), s.Words, s.Disjuncts)
	for _, cl := range s.Classes {
		fmt.Fprintf(&b, "class %d: %s\n", cl.ID, strings.Join(cl.Words, " "))
		for _, d := range cl.Disjuncts {
			fmt.Fprintf(&b, "  (%s)\n", d)
		}
	}
	for _, w := range s.Warnings {
		fmt.Fprintf(&b, "warning: %s\n", w)
	}
	return b.String()
}
