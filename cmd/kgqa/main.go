// Command kgqa serves the knowledge-graph question answering API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tmc/langchaingo/tools"

	"github.com/lakegraph/kgqa/agent"
	"github.com/lakegraph/kgqa/config"
	"github.com/lakegraph/kgqa/log"
	"github.com/lakegraph/kgqa/oracle"
	"github.com/lakegraph/kgqa/rag/graphqa"
	graphstore "github.com/lakegraph/kgqa/rag/store"
	"github.com/lakegraph/kgqa/server"
	"github.com/lakegraph/kgqa/store"
	"github.com/lakegraph/kgqa/store/memory"
	"github.com/lakegraph/kgqa/store/redis"
	"github.com/lakegraph/kgqa/tool"
)

func main() {
	envFile := flag.String("env", ".env", "dotenv file to load")
	flag.Parse()

	cfg := config.Load(*envFile)
	if level, err := log.ParseLevel(cfg.App.LogLevel); err == nil {
		log.SetLogLevel(level)
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration: %v", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		log.Error("%v", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	llm, err := oracle.New(cfg.LLM.Provider, cfg.LLM.APIKey, cfg.LLM.BaseURL,
		oracle.WithModel(cfg.LLM.Model), oracle.WithTemperature(cfg.LLM.Temperature))
	if err != nil {
		return err
	}

	graph, err := graphstore.NewFalkorDB(cfg.Graph.URL)
	if err != nil {
		return fmt.Errorf("connect graph: %w", err)
	}
	defer graph.Close()
	qa := graphqa.NewCypherChain(llm, graph, graphqa.WithTopK(cfg.Graph.TopK))

	search, err := newSearch(cfg.Search)
	if err != nil {
		return err
	}

	runner, err := agent.NewRunner(llm, search, qa,
		agent.WithStepDelay(cfg.App.StepDelay),
		agent.WithDontKnowMarkers(cfg.Agent.DontKnowMarkers...),
	)
	if err != nil {
		return err
	}

	opts := []server.Option{
		server.WithCORSOrigins(cfg.App.CORSOrigins),
		server.WithRenderHTML(cfg.App.RenderHTML),
		server.WithHealthCheck("falkordb", graph.Ping),
	}
	sessions, check := newSessions(cfg.Session)
	defer sessions.Close()
	if check != nil {
		opts = append(opts, server.WithHealthCheck("redis", check))
	}

	srv := server.New(runner, sessions, opts...)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Listen(":" + cfg.App.Port)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Info("received %v, shutting down", sig)
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("shutdown complete")
	return nil
}

func newSearch(cfg config.SearchConfig) (tools.Tool, error) {
	switch cfg.Provider {
	case "duckduckgo":
		return tool.NewDuckDuckGoSearch(tool.WithDuckDuckGoMaxResults(cfg.MaxResults)), nil
	case "brave":
		return tool.NewBraveSearch(cfg.BraveKey, tool.WithBraveCount(cfg.MaxResults))
	}
	return nil, errors.New("unknown search provider " + cfg.Provider)
}

func newSessions(cfg config.SessionConfig) (store.SessionStore, server.HealthCheck) {
	if cfg.Backend == "redis" {
		s := redis.NewSessionStore(redis.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPass,
			DB:       cfg.RedisDB,
			TTL:      cfg.TTL,
		})
		return s, s.Ping
	}
	return memory.NewSessionStore(memory.MemoryOptions{TTL: cfg.TTL}), nil
}
