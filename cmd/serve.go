package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"gramgen-go/internal/controller"
	"gramgen-go/internal/handler"
	"gramgen-go/internal/service/corpus"
	"gramgen-go/pkg/mcp"

	"github.com/gonuts/commander"
	"github.com/gonuts/flag"
	"go.uber.org/zap"
)

var (
	servePort    int
	serveGrammar string
)

func ServeCmd() *commander.Command {
	cmd := &commander.Command{
		Run:       runServe,
		UsageLine: "serve [options]",
		Short:     "serve parse generation over HTTP and MCP",
		Long: `
serve parse generation over HTTP and MCP

	$ gramgen serve -grammar <grammar file> -port 8080

The REST API lives under /api/v1, the MCP endpoint at /mcp and on the
address configured under mcp.
`,
		Flag: *flag.NewFlagSet("serve", flag.ExitOnError),
	}
	cmd.Flag.IntVar(&servePort, "port", 0, "HTTP port")
	cmd.Flag.StringVar(&serveGrammar, "grammar", "", "Grammar file")
	return cmd
}

func runServe(cmd *commander.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	if flagSet(cmd, "port") {
		cfg.App.Port = servePort
	}
	if flagSet(cmd, "grammar") {
		cfg.Generation.GrammarFile = serveGrammar
	}

	g, err := loadGrammar(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	tb, err := openSink(ctx, cfg, logger)
	if err != nil {
		return err
	}
	var sink corpus.ParseSink
	if tb != nil {
		defer tb.Close(context.Background())
		sink = tb
	}

	corpusService := corpus.NewCorpusService(g, cfg.Generation.GrammarFile, sink, logger)
	generationController := controller.NewGenerationController(corpusService, cfg.Generation.SamplerConfig(), logger)
	mcpServer := mcp.NewGrammarServer(corpusService, cfg, logger)

	go func() {
		if err := mcpServer.ListenAndServe(ctx); err != nil {
			logger.Error("MCP server stopped", zap.Error(err))
		}
	}()

	router := handler.SetupRouter(generationController, mcpServer.Handler(), logger)
	srv := &http.Server{
		Addr:    cfg.App.GetAddress(),
		Handler: handler.WithCORS(router, cfg.App.CorsOrigins),
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("Starting server", zap.Int("port", cfg.App.Port))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
