package mcp

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"strings"

	"gramgen-go/internal/config"
	"gramgen-go/internal/model/grammar"
	"gramgen-go/internal/service/corpus"
	"gramgen-go/internal/service/sampler"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

const maxToolCount = 100

type GrammarServer struct {
	server        *mcp.Server
	corpusService *corpus.CorpusService
	samplerCfg    sampler.Config
	config        *config.Config
	logger        *zap.Logger
	handler       *mcp.StreamableHTTPHandler
}

type GenerateParseParams struct {
	Count     int     `json:"count,omitempty" jsonschema:"number of parses to generate, defaults to 1"`
	Seed      *uint64 `json:"seed,omitempty" jsonschema:"random seed for reproducible output"`
	RootClass *int    `json:"root_class,omitempty" jsonschema:"grammar class to use as the root of every parse"`
}

type DescribeGrammarParams struct{}

func NewGrammarServer(corpusService *corpus.CorpusService, cfg *config.Config, logger *zap.Logger) *GrammarServer {
	server := &GrammarServer{
		corpusService: corpusService,
		samplerCfg:    cfg.Generation.SamplerConfig(),
		config:        cfg,
		logger:        logger,
	}

	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    "GrammarGen",
		Version: "1.0.0",
	}, nil)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "generateParse",
		Description: "Generate random sentences from the loaded grammar. Returns each sentence with its dependency links in ULL format",
	}, server.handleGenerateParse)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "describeGrammar",
		Description: "Describe the loaded grammar: its classes, words, disjuncts and any connectors that can never be matched",
	}, server.handleDescribeGrammar)

	server.handler = mcp.NewStreamableHTTPHandler(func(req *http.Request) *mcp.Server {
		return mcpServer
	}, nil)

	server.server = mcpServer
	return server
}

// Handler serves the MCP streamable HTTP transport
func (s *GrammarServer) Handler() http.Handler {
	return s.handler
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func (s *GrammarServer) handleGenerateParse(ctx context.Context, req *mcp.CallToolRequest, args GenerateParseParams) (*mcp.CallToolResult, any, error) {
	s.logger.Info("Handling generateParse request", zap.Int("count", args.Count))

	count := args.Count
	if count == 0 {
		count = 1
	}
	if count < 0 || count > maxToolCount {
		return textResult(fmt.Sprintf("count must be between 1 and %d", maxToolCount)), nil, nil
	}

	request := corpus.CorpusRequest{
		Size:    count,
		Seed:    rand.Uint64(),
		Sampler: s.samplerCfg,
	}
	if args.Seed != nil {
		request.Seed = *args.Seed
	}
	if args.RootClass != nil {
		if *args.RootClass < 0 || *args.RootClass >= s.corpusService.Grammar().NumClasses() {
			return textResult(fmt.Sprintf("root_class %d is out of range", *args.RootClass)), nil, nil
		}
		request.Start = &sampler.Start{Class: grammar.ClassID(*args.RootClass), Disjunct: -1}
	}

	c, err := s.corpusService.Generate(ctx, request)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, nil, err
		}
		s.logger.Error("Failed to generate parses", zap.Error(err))
		return textResult(fmt.Sprintf("Failed to generate parses: %v", err)), nil, nil
	}
	return textResult(formatCorpus(c)), nil, nil
}

func formatCorpus(c *corpus.Corpus) string {
	var result strings.Builder
	result.WriteString(fmt.Sprintf("<corpus run_id=\"%s\" seed=\"%d\">\n", c.RunID, c.Seed))
	for i, p := range c.Parses {
		result.WriteString(fmt.Sprintf("  <parse index=\"%d\">\n", i))
		for _, line := range strings.Split(strings.TrimSuffix(p.ULL(), "\n"), "\n") {
			result.WriteString("    " + line + "\n")
		}
		result.WriteString("  </parse>\n")
	}
	if c.Stats.Failures > 0 {
		result.WriteString(fmt.Sprintf("  <failures>%d</failures>\n", c.Stats.Failures))
	}
	result.WriteString("</corpus>\n")
	return result.String()
}

func (s *GrammarServer) handleDescribeGrammar(ctx context.Context, req *mcp.CallToolRequest, args DescribeGrammarParams) (*mcp.CallToolResult, any, error) {
	s.logger.Info("Handling describeGrammar request")
	return textResult(s.corpusService.DescribeGrammar().Text()), nil, nil
}

// ListenAndServe serves MCP on its own address until ctx is done
func (s *GrammarServer) ListenAndServe(ctx context.Context) error {
	address := s.config.Mcp.GetAddress()
	srv := &http.Server{Addr: address, Handler: s.handler}

	go func() {
		<-ctx.Done()
		srv.Close()
	}()

	s.logger.Info("MCP Server going to listen", zap.String("address", address))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("MCP server failed: %w", err)
	}
	return nil
}
