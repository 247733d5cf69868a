// Package treebank persists generated parses in a graph database: one
// Sentence node per parse, one Word node per word and a LINK relationship
// from every head to its dependent.
package treebank

import (
	"context"
	"fmt"
	"sort"

	"gramgen-go/internal/config"
	"gramgen-go/internal/model/grammar"
	"gramgen-go/internal/model/ull"
	"gramgen-go/internal/service/sampler"

	"go.uber.org/zap"
)

type Treebank struct {
	db     GraphDatabase
	logger *zap.Logger
}

func NewTreebank(db GraphDatabase, logger *zap.Logger) *Treebank {
	return &Treebank{db: db, logger: logger}
}

// NewTreebankFromConfig opens the store selected by generation.store
func NewTreebankFromConfig(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Treebank, error) {
	switch cfg.Generation.Store {
	case "kuzu":
		db, err := NewKuzuDatabase(cfg.Kuzu.Path, logger)
		if err != nil {
			return nil, err
		}
		return NewTreebank(db, logger), nil
	case "neo4j":
		db, err := NewNeo4jDatabase(cfg.Neo4j.URI, cfg.Neo4j.Username, cfg.Neo4j.Password, logger)
		if err != nil {
			return nil, err
		}
		if err := db.VerifyConnectivity(ctx); err != nil {
			db.Close(ctx)
			return nil, err
		}
		if err := db.InitializeSchema(ctx); err != nil {
			db.Close(ctx)
			return nil, err
		}
		return NewTreebank(db, logger), nil
	default:
		return nil, fmt.Errorf("unknown treebank store %q", cfg.Generation.Store)
	}
}

func (tb *Treebank) Close(ctx context.Context) error {
	return tb.db.Close(ctx)
}

// SentenceID names the index-th parse of a run
func SentenceID(runID string, index int) string {
	return fmt.Sprintf("%s/%d", runID, index)
}

func wordID(sentenceID string, position int) string {
	return fmt.Sprintf("%s/%d", sentenceID, position)
}

func connectorString(c grammar.Connector) string {
	if c.Type == "" {
		return ""
	}
	return c.String()
}

// SaveParse stores one parse of a run
func (tb *Treebank) SaveParse(ctx context.Context, runID string, index int, p *sampler.GeneratedParse) error {
	sid := SentenceID(runID, index)
	_, err := tb.db.ExecuteWrite(ctx,
		"CREATE (:Sentence {id: $id, runId: $runId, idx: $idx, text: $text, wordCount: $wordCount})",
		map[string]any{
			"id":        sid,
			"runId":     runID,
			"idx":       int64(index),
			"text":      p.Sentence,
			"wordCount": int64(len(p.Nodes)),
		})
	if err != nil {
		return fmt.Errorf("failed to create sentence %s: %w", sid, err)
	}

	for _, n := range p.Nodes {
		_, err := tb.db.ExecuteWrite(ctx,
			`MATCH (s:Sentence {id: $sentenceId})
			CREATE (s)-[:HAS_WORD]->(:Word {id: $id, sentenceId: $sentenceId, position: $position, form: $form, classId: $classId, genId: $genId, head: $head, via: $via, back: $back})`,
			map[string]any{
				"sentenceId": sid,
				"id":         wordID(sid, n.Position),
				"position":   int64(n.Position),
				"form":       n.Word,
				"classId":    int64(n.Class),
				"genId":      int64(n.ID),
				"head":       int64(n.Head),
				"via":        connectorString(n.Via),
				"back":       connectorString(n.Back),
			})
		if err != nil {
			return fmt.Errorf("failed to create word %d of %s: %w", n.Position, sid, err)
		}
	}

	for _, n := range p.Nodes {
		if n.Head == 0 {
			continue
		}
		_, err := tb.db.ExecuteWrite(ctx,
			`MATCH (h:Word {id: $headId}), (d:Word {id: $depId})
			CREATE (h)-[:LINK {connector: $connector}]->(d)`,
			map[string]any{
				"headId":    wordID(sid, n.Head),
				"depId":     wordID(sid, n.Position),
				"connector": connectorString(n.Via),
			})
		if err != nil {
			return fmt.Errorf("failed to link word %d of %s: %w", n.Position, sid, err)
		}
	}

	tb.logger.Debug("Stored parse", zap.String("sentence_id", sid), zap.Int("words", len(p.Nodes)))
	return nil
}

// LoadParse reads a stored parse back
func (tb *Treebank) LoadParse(ctx context.Context, runID string, index int) (*sampler.GeneratedParse, error) {
	sid := SentenceID(runID, index)
	head, err := tb.db.ExecuteReadSingle(ctx,
		"MATCH (s:Sentence) WHERE s.id = $id RETURN s.text AS text, s.wordCount AS wordCount",
		map[string]any{"id": sid})
	if err != nil {
		return nil, fmt.Errorf("failed to load sentence %s: %w", sid, err)
	}
	wordCount, err := toInt64(head["wordCount"])
	if err != nil {
		return nil, fmt.Errorf("sentence %s: %w", sid, err)
	}

	records, err := tb.db.ExecuteRead(ctx,
		`MATCH (s:Sentence)-[:HAS_WORD]->(w:Word) WHERE s.id = $id
		RETURN w.position AS position, w.form AS form, w.classId AS classId, w.genId AS genId, w.head AS head, w.via AS via, w.back AS back`,
		map[string]any{"id": sid})
	if err != nil {
		return nil, fmt.Errorf("failed to load words of %s: %w", sid, err)
	}
	if int64(len(records)) != wordCount {
		return nil, fmt.Errorf("sentence %s has %d stored words, expected %d", sid, len(records), wordCount)
	}

	nodes := make([]sampler.Node, len(records))
	for i, r := range records {
		n, err := recordToNode(r)
		if err != nil {
			return nil, fmt.Errorf("sentence %s: %w", sid, err)
		}
		nodes[i] = n
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Position < nodes[j].Position })

	p := &sampler.GeneratedParse{
		Sentence: toString(head["text"]),
		Words:    make([]string, len(nodes)),
		Nodes:    nodes,
	}
	for i, n := range nodes {
		if n.Position != i+1 {
			return nil, fmt.Errorf("sentence %s: missing word at position %d", sid, i+1)
		}
		p.Words[i] = n.Word
	}
	for _, n := range nodes {
		if n.Head != 0 {
			h := nodes[n.Head-1]
			p.Links = append(p.Links, ull.NewLink(h.Position, h.Word, n.Position, n.Word))
		}
	}
	ull.SortLinks(p.Links)
	return p, nil
}

func recordToNode(r map[string]any) (sampler.Node, error) {
	var n sampler.Node
	ints := make(map[string]int64, 4)
	for _, key := range []string{"position", "classId", "genId", "head"} {
		v, err := toInt64(r[key])
		if err != nil {
			return n, fmt.Errorf("word field %s: %w", key, err)
		}
		ints[key] = v
	}
	n.Position = int(ints["position"])
	n.Class = grammar.ClassID(ints["classId"])
	n.ID = int(ints["genId"])
	n.Head = int(ints["head"])
	n.Word = toString(r["form"])

	for key, dst := range map[string]*grammar.Connector{"via": &n.Via, "back": &n.Back} {
		s := toString(r[key])
		if s == "" {
			continue
		}
		c, err := grammar.ParseConnector(s)
		if err != nil {
			return n, fmt.Errorf("word field %s: %w", key, err)
		}
		*dst = c
	}
	return n, nil
}

// CountSentences counts stored parses, of one run or of all runs when runID is empty
func (tb *Treebank) CountSentences(ctx context.Context, runID string) (int, error) {
	query := "MATCH (s:Sentence) RETURN count(s) AS total"
	var params map[string]any
	if runID != "" {
		query = "MATCH (s:Sentence) WHERE s.runId = $runId RETURN count(s) AS total"
		params = map[string]any{"runId": runID}
	}
	record, err := tb.db.ExecuteReadSingle(ctx, query, params)
	if err != nil {
		return 0, fmt.Errorf("failed to count sentences: %w", err)
	}
	total, err := toInt64(record["total"])
	if err != nil {
		return 0, fmt.Errorf("failed to count sentences: %w", err)
	}
	return int(total), nil
}
