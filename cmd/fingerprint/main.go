// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/poiesic/fingerprint"
	"github.com/poiesic/fingerprint/ai"
	"github.com/poiesic/fingerprint/ai/cache"
	"github.com/poiesic/fingerprint/config"
	"github.com/poiesic/fingerprint/core"
	"github.com/poiesic/fingerprint/mcp"
	"github.com/poiesic/fingerprint/metric"
	"github.com/poiesic/fingerprint/recommend"
	"github.com/poiesic/fingerprint/server"
	"github.com/poiesic/fingerprint/storage"
	"github.com/poiesic/fingerprint/storage/badger"
	"github.com/poiesic/fingerprint/table"
	"github.com/poiesic/fingerprint/warm"
	"github.com/urfave/cli/v2"
)

var version = "dev"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// engineFlags are shared by every command that answers queries.
func engineFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "data",
			Aliases: []string{"d"},
			Usage:   "Path to the expertise CSV or TSV (overrides data_path)",
		},
		&cli.StringFlag{
			Name:    "model",
			Aliases: []string{"m"},
			Usage:   "Embedding model (" + strings.Join(ai.ModelNames(), ", ") + ")",
		},
		&cli.StringFlag{
			Name:  "provider",
			Usage: "Embedding provider (openai, static)",
		},
		&cli.StringFlag{
			Name:  "embedding-host",
			Usage: "Embedding service host URL",
		},
		&cli.StringFlag{
			Name:  "cache",
			Usage: "Path to BadgerDB embedding cache directory",
		},
		&cli.StringFlag{
			Name:  "similarity",
			Usage: "Approximate topic matching similarity (ratio, jaro-winkler)",
		},
		&cli.Float64Flag{
			Name:  "cutoff",
			Usage: "Minimum similarity for an approximate topic match",
		},
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "fingerprint",
		Usage:   "Match research topics to researchers by expertise fingerprint",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (default $XDG_CONFIG_HOME/fingerprint/config.yaml)",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "recommend",
				Usage:     "Rank researchers for a topic",
				ArgsUsage: "<topic>",
				Action:    recommendCommand,
				Flags: append(engineFlags(),
					&cli.IntFlag{
						Name:    "topk",
						Aliases: []string{"k"},
						Usage:   "Number of researchers to return",
						Value:   10,
					},
					&cli.StringFlag{
						Name:  "metric",
						Usage: "Similarity metric (" + strings.Join(metric.Names(), ", ") + ")",
						Value: "cosine",
					},
					&cli.BoolFlag{
						Name:  "explain",
						Usage: "Describe each step of the query on stderr",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Print the response as JSON",
					},
				),
			},
			{
				Name:      "suggest",
				Usage:     "Suggest known topics resembling some text",
				ArgsUsage: "<text>",
				Action:    suggestCommand,
				Flags: append(engineFlags(),
					&cli.IntFlag{
						Name:  "k",
						Usage: "Maximum number of suggestions",
						Value: 5,
					},
				),
			},
			{
				Name:   "topics",
				Usage:  "List known topics",
				Action: topicsCommand,
				Flags: append(engineFlags(),
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of topics (0 for all)",
						Value: server.MaxTopics,
					},
				),
			},
			{
				Name:   "serve",
				Usage:  "Serve the HTTP API",
				Action: serveCommand,
				Flags: append(engineFlags(),
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Listen address (overrides server.addr)",
					},
					&cli.BoolFlag{
						Name:  "preload",
						Usage: "Build the default model's profile before listening",
					},
				),
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools over stdio",
				Action: mcpCommand,
				Flags:  engineFlags(),
			},
			{
				Name:   "warm-cache",
				Usage:  "Precompute embeddings into the persistent cache",
				Action: warmCacheCommand,
				Flags: append(engineFlags(),
					&cli.StringSliceFlag{
						Name:  "models",
						Usage: "Models to warm (default: the configured default model)",
					},
					&cli.BoolFlag{
						Name:  "all-models",
						Usage: "Warm every registered model",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of texts to process in each batch",
						Value: 64,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N texts",
						Value: 64,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed embedding calls",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				),
			},
			{
				Name:  "config",
				Usage: "Manage the configuration file",
				Subcommands: []*cli.Command{
					{
						Name:   "init",
						Usage:  "Write a configuration file with the default settings",
						Action: configInitCommand,
						Flags: []cli.Flag{
							&cli.BoolFlag{
								Name:  "force",
								Usage: "Overwrite an existing configuration file",
							},
						},
					},
				},
			},
		},
	}
}

// loadConfig reads the config file and applies command line overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if v := c.String("data"); v != "" {
		cfg.DataPath = v
	}
	if v := c.String("model"); v != "" {
		cfg.DefaultModel = v
	}
	if v := c.String("provider"); v != "" {
		cfg.Embedding.Provider = v
	}
	if v := c.String("embedding-host"); v != "" {
		cfg.Embedding.Host = v
	}
	if v := c.String("cache"); v != "" {
		cfg.Cache.Path = v
	}
	if v := c.String("similarity"); v != "" {
		cfg.Matching.Similarity = v
	}
	if c.IsSet("cutoff") {
		cfg.Matching.Cutoff = c.Float64("cutoff")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openStore opens the persistent cache, or returns nil when none is configured.
func openStore(cfg *config.Config) (storage.VectorCache, error) {
	if cfg.Cache.Path == "" {
		return nil, nil
	}
	store, err := badger.OpenVectorCache(cfg.Cache.Path, false)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	return store, nil
}

// buildEngine wires provider, caches and table source from cfg. The returned
// cleanup closes everything it opened.
func buildEngine(cfg *config.Config) (*fingerprint.Engine, func(), error) {
	provider, err := fingerprint.NewProvider(cfg.AIConfig())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create embedding provider: %w", err)
	}

	store, err := openStore(cfg)
	if err != nil {
		provider.Close()
		return nil, nil, err
	}
	cacheOpts := []cache.Option{cache.WithLRUSize(cfg.Cache.LRUSize)}
	if store != nil {
		cacheOpts = append(cacheOpts, cache.WithStore(store))
	}

	engine, err := fingerprint.NewEngine(cache.NewProvider(provider, cacheOpts...),
		fingerprint.WithTableSource(fingerprint.FileSource(cfg.DataPath)),
		fingerprint.WithDefaultModel(cfg.DefaultModel),
		fingerprint.WithTopicPreview(cfg.TopicPreview),
		fingerprint.WithRetry(cfg.Embedding.RetryAttempts, cfg.Embedding.RetryDelay),
		fingerprint.WithMatcherOptions(cfg.MatcherOptions()...),
	)
	if err != nil {
		provider.Close()
		if store != nil {
			store.Close()
		}
		return nil, nil, err
	}

	cleanup := func() {
		engine.Close()
		if store != nil {
			store.Close()
		}
	}
	return engine, cleanup, nil
}

func recommendCommand(c *cli.Context) error {
	topic := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(topic) == "" {
		return fmt.Errorf("a topic is required")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	engine, cleanup, err := buildEngine(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	var opts []recommend.Option
	if c.Bool("explain") {
		opts = append(opts, recommend.WithMonitor(&recommend.TextMonitor{W: c.App.ErrWriter}))
	}

	resp, err := engine.Recommend(c.Context, "", core.Query{
		Topic:  topic,
		TopK:   c.Int("topk"),
		Metric: c.String("metric"),
	}, opts...)
	if err != nil {
		var noMatch *core.NoMatchError
		if errors.As(err, &noMatch) && len(noMatch.Suggestions) > 0 {
			return fmt.Errorf("%w\ndid you mean: %s", err, strings.Join(noMatch.Suggestions, ", "))
		}
		return err
	}

	if c.Bool("json") {
		enc := json.NewEncoder(c.App.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}
	printResponse(c.App.Writer, resp)
	return nil
}

func printResponse(w io.Writer, resp *core.Response) {
	fmt.Fprintf(w, "%q matched %q (%s) - %s, %s, %d candidates\n\n",
		resp.QueryTopic, resp.MatchedTopic, resp.MatchStage, resp.Model, resp.Metric, resp.TotalCandidates)
	for i, r := range resp.Results {
		field := "-"
		if r.Field != nil {
			field = *r.Field
		}
		fmt.Fprintf(w, "%3d. %-30s %-25s %8.4f\n", i+1, r.Researcher, field, r.Score)
		if len(r.TopTopics) > 0 {
			fmt.Fprintf(w, "     %s\n", strings.Join(r.TopTopics, ", "))
		}
	}
}

func suggestCommand(c *cli.Context) error {
	text := strings.Join(c.Args().Slice(), " ")

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	engine, cleanup, err := buildEngine(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	suggestions, err := engine.Suggest(c.Context, "", text, c.Int("k"))
	if err != nil {
		return err
	}
	for _, s := range suggestions {
		fmt.Fprintln(c.App.Writer, s)
	}
	return nil
}

func topicsCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	engine, cleanup, err := buildEngine(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	topics, err := engine.Topics(c.Context, "", c.Int("limit"))
	if err != nil {
		return err
	}
	for _, t := range topics {
		fmt.Fprintln(c.App.Writer, t)
	}
	return nil
}

func serveCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if v := c.String("addr"); v != "" {
		cfg.Server.Addr = v
	}
	engine, cleanup, err := buildEngine(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if c.Bool("preload") {
		if _, err := engine.Reload(ctx, ""); err != nil {
			return fmt.Errorf("failed to preload profile: %w", err)
		}
	}

	srv := server.NewServer(engine, server.WithDefaultModel(cfg.DefaultModel))
	return srv.ListenAndServe(ctx, cfg.Server.Addr)
}

func mcpCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	engine, cleanup, err := buildEngine(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := mcp.NewServer(engine, version, mcp.WithDefaultModel(cfg.DefaultModel))
	if err != nil {
		return err
	}
	return srv.Serve(ctx)
}

func warmCacheCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if cfg.Cache.Path == "" {
		return fmt.Errorf("a cache path is required (--cache or cache.path)")
	}

	models := c.StringSlice("models")
	switch {
	case c.Bool("all-models"):
		models = ai.ModelNames()
	case len(models) == 0:
		models = []string{cfg.DefaultModel}
	}

	warmConfig := &warm.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}
	if warmConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if warmConfig.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if warmConfig.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	t, err := table.LoadFile(cfg.DataPath)
	if err != nil {
		return err
	}

	provider, err := fingerprint.NewProvider(cfg.AIConfig())
	if err != nil {
		return fmt.Errorf("failed to create embedding provider: %w", err)
	}
	defer provider.Close()

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	fmt.Fprintf(c.App.ErrWriter, "Data: %s\n", cfg.DataPath)
	fmt.Fprintf(c.App.ErrWriter, "Cache: %s\n", cfg.Cache.Path)
	fmt.Fprintf(c.App.ErrWriter, "Provider: %s\n", cfg.Embedding.Provider)
	fmt.Fprintln(c.App.ErrWriter)

	w := warm.NewWarmer(provider, store, warmConfig, c.App.ErrWriter)
	stats, err := w.Run(c.Context, t, models...)
	if err != nil {
		return fmt.Errorf("cache warm-up failed: %w", err)
	}
	for _, s := range stats {
		fmt.Fprintf(c.App.ErrWriter, "%s: %d texts, %d embedded, %d already cached in %v\n",
			s.Model, s.Texts, s.Embedded, s.Cached, s.Elapsed.Round(time.Millisecond))
	}
	return nil
}

// configInitCommand writes the default configuration to --config or the
// default config path. An existing file is kept unless --force is given.
func configInitCommand(c *cli.Context) error {
	path := c.String("config")
	if path == "" {
		var err error
		if path, err = config.GetConfigPath(); err != nil {
			return err
		}
	}

	if _, err := os.Stat(path); err == nil && !c.Bool("force") {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	if err := config.Default().Save(path); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "Config saved to %s\n", path)
	return nil
}

// setupLogger configures the global slog logger based on the --log-level flag.
func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
