// Command ahody serves the authenticated news-article scraping API.
package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/ahodyhq/ahody/pkg/api"
	"github.com/ahodyhq/ahody/pkg/browser"
	"github.com/ahodyhq/ahody/pkg/config"
	"github.com/ahodyhq/ahody/pkg/llm"
	"github.com/ahodyhq/ahody/pkg/logging"
	"github.com/ahodyhq/ahody/pkg/scraper"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	logger := logging.New(os.Stderr, "ahody", os.Getenv)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("failed to load configuration", "err", err)
	}

	// Install the browser driver up front so the first request doesn't pay
	// for it.
	if err := playwright.Install(&playwright.RunOptions{
		Verbose: false,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	}); err != nil {
		logger.Fatal("failed to install playwright driver", "err", err)
	}

	store, err := browser.NewStateStore(cfg.StateDir, logger)
	if err != nil {
		logger.Fatal("failed to open state store", "err", err)
	}

	registry := browser.NewRegistry(logger)
	manager := browser.NewManager(store, registry, browser.Options{
		Headless:            cfg.Headless,
		NavigationTimeoutMs: cfg.NavigationTimeoutMs,
	}, logger)

	var agent scraper.Agent
	var planner api.SourcePlanner
	llmClient, err := llm.NewClient(cfg.LLM.APIKey,
		llm.WithModel(cfg.LLM.Model),
		llm.WithBaseURL(cfg.LLM.BaseURL),
		llm.WithMaxInputTokens(cfg.LLM.MaxInputTokens),
		llm.WithLogger(logger),
	)
	if err != nil {
		logger.Warn("extraction agent disabled", "err", err)
	} else {
		agent = llmClient
		planner = llmClient
	}

	svc := scraper.NewService(manager, agent, logger)
	server := api.NewServer(svc, store, planner, logger)

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: server.Router(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("listening", "addr", cfg.ListenAddr, "sites", registry.Sites())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", "err", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown incomplete", "err", err)
	}
}
