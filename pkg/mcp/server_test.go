package mcp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gramgen-go/internal/config"
	"gramgen-go/internal/model/grammar"
	"gramgen-go/internal/service/corpus"
	"gramgen-go/internal/util"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

const toyGrammar = `
the a:
D+;

cat dog:
(D- & S+) or (D- & O-);

chased saw:
(S- & O+) or (S-);

idle:
Z+;
`

func newTestServer(t *testing.T) *GrammarServer {
	t.Helper()
	g, err := grammar.ParseString(toyGrammar)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	cs := corpus.NewCorpusService(g, "toy.dict", nil, zap.NewNop())
	return NewGrammarServer(cs, config.Default(), zap.NewNop())
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if res == nil || len(res.Content) != 1 {
		t.Fatalf("expected a single content item, got %+v", res)
	}
	text, ok := res.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", res.Content[0])
	}
	return text.Text
}

func TestGenerateParseTool(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	res, _, err := s.handleGenerateParse(ctx, nil, GenerateParseParams{Count: 3, Seed: util.Ptr(uint64(11)), RootClass: util.Ptr(2)})
	if err != nil {
		t.Fatalf("handleGenerateParse: %v", err)
	}
	text := resultText(t, res)
	if strings.Count(text, "<parse ") != 3 || !strings.Contains(text, `seed="11"`) {
		t.Fatalf("unexpected output:\n%s", text)
	}

	again, _, err := s.handleGenerateParse(ctx, nil, GenerateParseParams{Count: 3, Seed: util.Ptr(uint64(11)), RootClass: util.Ptr(2)})
	if err != nil {
		t.Fatalf("handleGenerateParse: %v", err)
	}
	// run ids differ, parses must not
	strip := func(s string) string { return s[strings.Index(s, "\n"):] }
	if strip(resultText(t, again)) != strip(text) {
		t.Fatal("same seed produced different parses")
	}
}

func TestGenerateParseToolErrors(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		params GenerateParseParams
		want   string
	}{
		{"count too large", GenerateParseParams{Count: maxToolCount + 1}, "count must be between"},
		{"root out of range", GenerateParseParams{RootClass: util.Ptr(9)}, "out of range"},
		{"dead end root", GenerateParseParams{Seed: util.Ptr(uint64(1)), RootClass: util.Ptr(3)}, "Failed to generate parses"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, _, err := s.handleGenerateParse(ctx, nil, tt.params)
			if err != nil {
				t.Fatalf("tool errors are reported as content, got %v", err)
			}
			if text := resultText(t, res); !strings.Contains(text, tt.want) {
				t.Errorf("expected %q in %q", tt.want, text)
			}
		})
	}
}

func TestDescribeGrammarTool(t *testing.T) {
	s := newTestServer(t)
	res, _, err := s.handleDescribeGrammar(context.Background(), nil, DescribeGrammarParams{})
	if err != nil {
		t.Fatalf("handleDescribeGrammar: %v", err)
	}
	text := resultText(t, res)
	if !strings.Contains(text, "class 2: chased saw") || !strings.Contains(text, "Z+") {
		t.Fatalf("unexpected description:\n%s", text)
	}
}

func TestHandlerServesHTTP(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	req, err := http.NewRequest(http.MethodPost, srv.URL, strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-06-18","capabilities":{},"clientInfo":{"name":"test","version":"1"}}}`))
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("initialize returned %d", resp.StatusCode)
	}
}
