// Package main is the lexicon CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hyperjump/lexicon/internal/autocomplete"
	"github.com/hyperjump/lexicon/internal/cli"
	"github.com/hyperjump/lexicon/internal/config"
	"github.com/hyperjump/lexicon/internal/fileid"
	"github.com/hyperjump/lexicon/internal/ingest"
	"github.com/hyperjump/lexicon/internal/models"
	"github.com/hyperjump/lexicon/internal/search"
	"github.com/hyperjump/lexicon/internal/server"
	"github.com/hyperjump/lexicon/internal/storage"
	"github.com/hyperjump/lexicon/internal/tokenizer"
	"github.com/hyperjump/lexicon/internal/watcher"
	"github.com/hyperjump/lexicon/pkg/utils"
)

var version = "dev"

const (
	defaultConfigPath = "/usr/local/etc/lexicon/config.yaml"
	defaultServerURL  = "http://localhost:8080"
	shutdownTimeout   = 10 * time.Second
)

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development). When the default file
// does not exist either, built-in defaults are used and the returned path is empty.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
			cfg := &config.Config{}
			config.ApplyDefaults(cfg)
			return cfg, "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	args := os.Args[2:]
	switch command {
	case "server":
		runServer(args)
	case "sync":
		runSync(args)
	case "add":
		runAdd(args)
	case "delete":
		runDelete(args)
	case "search":
		runSearch(args)
	case "lookup":
		runLookup(args)
	case "rebuild":
		runRebuild(args)
	case "status":
		runStatus(args)
	case "version", "--version", "-v":
		fmt.Printf("lexicon version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// clientFlags are shared by every command that can talk to a running server.
type clientFlags struct {
	configPath *string
	serverURL  *string
}

func addClientFlags(fs *flag.FlagSet) clientFlags {
	return clientFlags{
		configPath: fs.String("config", defaultConfigPath, "config file path"),
		serverURL:  fs.String("server", defaultServerURL, "server URL (empty = use direct storage when server is not running)"),
	}
}

func (f clientFlags) config() *config.Config {
	cfg, _, err := loadConfig(*f.configPath)
	if err != nil {
		fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func (f clientFlags) client(cfg *config.Config) *apiClient {
	return newAPIClient(*f.serverURL, cfg.Server.APIToken)
}

// openComponents initializes direct storage access for one-shot commands.
func openComponents(cfg *config.Config) (*Components, *zap.Logger) {
	logger, err := utils.NewCLILogger(cfg.Debug)
	if err != nil {
		fatalf("Failed to create logger: %v", err)
	}
	components, err := initializeComponents(cfg, logger)
	if err != nil {
		fatalf("Failed to initialize: %v", err)
	}
	return components, logger
}

func runServer(args []string) {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (file events, ingestion tasks, requests)")
	_ = fs.Parse(args)

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fatalf("Failed to load config: %v", err)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
		zap.String("content_directory", cfg.Content.Directory),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	pipeline := components.Pipeline
	if cfg.Content.WatchOrDefault() {
		watchSvc := watcher.NewWatcher(
			cfg.Content.Directory,
			pipeline.EnqueueLoad,
			func(path string) {
				key, err := fileid.FromPath(path)
				if err != nil {
					logger.Warn("watch remove ignored", zap.String("path", path), zap.Error(err))
					return
				}
				pipeline.EnqueueDelete(key)
			},
			watcher.WithLogger(logger),
			watcher.WithDebounce(cfg.Content.WatchDebounce()),
		)
		if err := watchSvc.Start(gctx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		defer watchSvc.Stop()
	}

	if _, err := pipeline.SyncAll(gctx, cfg.Content.Directory); err != nil {
		logger.Warn("initial sync skipped", zap.Error(err))
	}
	if count, err := components.Completions.Count(); err == nil && count == 0 {
		components.Rebuild.Trigger()
	}

	srv := server.NewServer(
		components.Search,
		pipeline,
		components.Builder,
		components.Storage,
		components.Completions,
		cfg,
		logger,
	)
	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Stop(shutdownCtx); err != nil {
			logger.Warn("server shutdown failed", zap.Error(err))
		}
		if err := pipeline.Scheduler().Wait(shutdownCtx); err != nil {
			logger.Warn("ingestion still running at shutdown", zap.Error(err))
		}
		components.Rebuild.Flush()
		return nil
	})
	if err := g.Wait(); err != nil {
		logger.Error("server stopped", zap.Error(err))
		components.Close()
		os.Exit(1)
	}
}

func runSync(args []string) {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)
	flags := addClientFlags(fs)
	_ = fs.Parse(args)
	cfg := flags.config()
	dir, err := syncDir(*flags.serverURL, fs.Args(), cfg)
	if err != nil {
		fatalf("Sync failed: %v", err)
	}

	if *flags.serverURL != "" {
		var out struct {
			Tasks int `json:"tasks"`
		}
		if err := flags.client(cfg).post("/api/v1/sync", &out); err != nil {
			fatalf("Sync failed: %v", err)
		}
		fmt.Printf("Queued %d task(s) on the server\n", out.Tasks)
		return
	}

	components, logger := openComponents(cfg)
	defer logger.Sync()
	defer components.Close()

	ctx := context.Background()
	n, err := components.Pipeline.SyncAll(ctx, dir)
	if err != nil {
		fatalf("Sync failed: %v", err)
	}
	if err := components.Pipeline.Scheduler().Wait(ctx); err != nil {
		fatalf("Sync failed: %v", err)
	}
	components.Rebuild.Flush()
	topics, _ := components.Storage.CountTopics(ctx)
	fmt.Printf("Processed %d task(s) from %s; %d topic(s) stored\n", n, dir, topics)
}

// syncDir picks the directory for sync. A running server only syncs its own
// content directory, so an explicit one needs direct mode.
func syncDir(serverURL string, args []string, cfg *config.Config) (string, error) {
	if len(args) == 0 {
		return cfg.Content.Directory, nil
	}
	if serverURL != "" {
		return "", fmt.Errorf("a directory argument requires --server \"\"; the server at %s syncs its configured content directory", serverURL)
	}
	return args[0], nil
}

func runAdd(args []string) {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	flags := addClientFlags(fs)
	_ = fs.Parse(args)
	if fs.NArg() < 1 {
		fatalf("Usage: lexicon add [flags] <publication.article.md>")
	}
	path := fs.Arg(0)
	key, err := fileid.FromPath(path)
	if err != nil {
		fatalf("Invalid file name: %v", err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		fatalf("Failed to read file: %v", err)
	}
	cfg := flags.config()

	var disposition string
	if *flags.serverURL != "" {
		var out struct {
			Disposition string `json:"disposition"`
		}
		if err := flags.client(cfg).put("/api/v1/topics/"+url.PathEscape(key.String()), content, &out); err != nil {
			fatalf("Add failed: %v", err)
		}
		disposition = out.Disposition
	} else {
		components, logger := openComponents(cfg)
		defer logger.Sync()
		defer components.Close()
		d, err := components.Pipeline.AddOrReplace(context.Background(), key, content)
		if err != nil {
			fatalf("Add failed: %v", err)
		}
		components.Rebuild.Flush()
		disposition = string(d)
	}
	fmt.Printf("%s: %s\n", key, disposition)
}

// topicKeyFromArg accepts a key, a file name or a path.
func topicKeyFromArg(arg string) (fileid.Key, error) {
	return fileid.Parse(filepath.Base(arg))
}

func runDelete(args []string) {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	flags := addClientFlags(fs)
	_ = fs.Parse(args)
	if fs.NArg() < 1 {
		fatalf("Usage: lexicon delete [flags] <publication.article>")
	}
	key, err := topicKeyFromArg(fs.Arg(0))
	if err != nil {
		fatalf("Invalid key: %v", err)
	}
	cfg := flags.config()

	if *flags.serverURL != "" {
		if err := flags.client(cfg).delete("/api/v1/topics/"+url.PathEscape(key.String()), nil); err != nil {
			fatalf("Delete failed: %v", err)
		}
	} else {
		components, logger := openComponents(cfg)
		defer logger.Sync()
		defer components.Close()
		deleted, err := components.Pipeline.DeleteByKey(context.Background(), key)
		if err != nil {
			fatalf("Delete failed: %v", err)
		}
		if !deleted {
			fatalf("Topic not found: %s", key)
		}
		components.Rebuild.Flush()
	}
	fmt.Printf("Topic deleted: %s\n", key)
}

// buildSearchTerm joins all positional args with spaces so the word works the
// same with or without shell quoting.
func buildSearchTerm(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// argsReorder moves any flags (and their values) that appear after the
// positional arguments to the front so that flag.Parse() sees them. Go's flag
// package stops at the first non-flag argument.
func argsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func parseOutput(s string) cli.OutputFormat {
	format, err := cli.ParseOutputFormat(s)
	if err != nil {
		fatalf("%v", err)
	}
	return format
}

func runSearch(args []string) {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	flags := addClientFlags(fs)
	authorized := fs.Bool("authorized", false, "include restricted topics (sends the configured API token)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(argsReorder(args))

	word := buildSearchTerm(fs.Args())
	if word == "" {
		fatalf("Usage: lexicon search [flags] <word>")
	}
	format := parseOutput(*outputFormat)
	cfg := flags.config()

	var hits []*models.LemmaHit
	if *flags.serverURL != "" {
		client := flags.client(cfg)
		if !*authorized {
			client.token = ""
		}
		var out struct {
			Results []*models.LemmaHit `json:"results"`
		}
		if err := client.get("/api/v1/search", url.Values{"word": {word}}, &out); err != nil {
			fatalf("Search failed: %v", err)
		}
		hits = out.Results
	} else {
		components, logger := openComponents(cfg)
		defer logger.Sync()
		defer components.Close()
		var err error
		hits, err = components.Search.SearchExact(context.Background(), word, *authorized)
		if err != nil {
			fatalf("Search failed: %v", err)
		}
	}
	if err := cli.WriteSearchResults(os.Stdout, word, hits, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

func runLookup(args []string) {
	fs := flag.NewFlagSet("lookup", flag.ExitOnError)
	flags := addClientFlags(fs)
	limit := fs.Int("limit", 0, "maximum number of suggestions (default from config)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(argsReorder(args))

	if fs.NArg() < 1 {
		fatalf("Usage: lexicon lookup [flags] <prefix>")
	}
	prefix := fs.Arg(0)
	format := parseOutput(*outputFormat)
	cfg := flags.config()

	var entries []models.AutoCompleteEntry
	if *flags.serverURL != "" {
		query := url.Values{"prefix": {prefix}}
		if *limit > 0 {
			query.Set("limit", strconv.Itoa(*limit))
		}
		var out struct {
			Results []models.AutoCompleteEntry `json:"results"`
		}
		if err := flags.client(cfg).get("/api/v1/lookup", query, &out); err != nil {
			fatalf("Lookup failed: %v", err)
		}
		entries = out.Results
	} else {
		components, logger := openComponents(cfg)
		defer logger.Sync()
		defer components.Close()
		var err error
		entries, err = components.Search.LookupPrefix(context.Background(), prefix, *limit)
		if err != nil {
			fatalf("Lookup failed: %v", err)
		}
	}
	if err := cli.WriteLookupResults(os.Stdout, prefix, entries, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

func runRebuild(args []string) {
	fs := flag.NewFlagSet("rebuild", flag.ExitOnError)
	flags := addClientFlags(fs)
	_ = fs.Parse(args)
	cfg := flags.config()

	var n int
	if *flags.serverURL != "" {
		var out struct {
			Entries int `json:"entries"`
		}
		if err := flags.client(cfg).post("/api/v1/autocomplete/rebuild", &out); err != nil {
			fatalf("Rebuild failed: %v", err)
		}
		n = out.Entries
	} else {
		components, logger := openComponents(cfg)
		defer logger.Sync()
		defer components.Close()
		var err error
		n, err = components.Builder.Rebuild(context.Background())
		if err != nil {
			fatalf("Rebuild failed: %v", err)
		}
	}
	fmt.Printf("Autocomplete index rebuilt with %d entries\n", n)
}

func runStatus(args []string) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	flags := addClientFlags(fs)
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(args)
	format := parseOutput(*outputFormat)
	cfg := flags.config()

	var status cli.Status
	if *flags.serverURL != "" {
		var out struct {
			cli.Status
			Config struct {
				ContentDirectory string `json:"content_directory"`
			} `json:"config"`
		}
		if err := flags.client(cfg).get("/api/v1/status", nil, &out); err != nil {
			fatalf("Status failed: %v", err)
		}
		status = out.Status
		status.ContentDirectory = out.Config.ContentDirectory
	} else {
		components, logger := openComponents(cfg)
		defer logger.Sync()
		defer components.Close()
		s, err := collectStatus(context.Background(), components, cfg)
		if err != nil {
			fatalf("Status failed: %v", err)
		}
		status = s
	}
	if err := cli.WriteStatus(os.Stdout, status, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

func collectStatus(ctx context.Context, c *Components, cfg *config.Config) (cli.Status, error) {
	var s cli.Status
	var err error
	if s.Topics, err = c.Storage.CountTopics(ctx); err != nil {
		return s, err
	}
	if s.Lemmas, err = c.Storage.CountLemmas(ctx); err != nil {
		return s, err
	}
	if s.Words, err = c.Storage.CountWords(ctx); err != nil {
		return s, err
	}
	if s.AutocompleteEntries, err = c.Completions.Count(); err != nil {
		return s, err
	}
	paths := append(storage.DatabaseFiles(cfg.Storage.DatabasePath), cfg.Storage.AutocompleteIndexPath)
	if s.DiskUsageBytes, err = storage.DiskUsageBytes(paths...); err != nil {
		return s, err
	}
	s.ContentDirectory = cfg.Content.Directory
	return s, nil
}

// Components holds initialized services.
type Components struct {
	Storage     *storage.SQLiteStorage
	Completions *autocomplete.BleveStore
	Builder     *autocomplete.Builder
	Rebuild     *autocomplete.Debouncer
	Pipeline    *ingest.Pipeline
	Search      *search.Service
}

// Close stops the rebuild timer and closes the index and the database.
func (c *Components) Close() {
	if c.Rebuild != nil {
		c.Rebuild.Stop()
	}
	if c.Completions != nil {
		_ = c.Completions.Close()
		c.Completions = nil
	}
	if c.Storage != nil {
		_ = c.Storage.Close()
		c.Storage = nil
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	completions, err := autocomplete.NewBleveStore(cfg.Storage.AutocompleteIndexPath)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize autocomplete index: %w", err)
	}

	tok := tokenizer.New()
	builder := autocomplete.NewBuilder(store, completions, tok, autocomplete.WithLogger(logger))
	rebuild := builder.Debounced(cfg.Ingest.RebuildDelay())
	pipeline := ingest.NewPipeline(store, tok, rebuild,
		ingest.WithLogger(logger),
		ingest.WithConcurrency(cfg.Ingest.Concurrency))
	svc := search.NewService(store, completions,
		search.WithLookupLimits(cfg.Search.LookupLimit, cfg.Search.MaxLookupLimit))

	return &Components{
		Storage:     store,
		Completions: completions,
		Builder:     builder,
		Rebuild:     rebuild,
		Pipeline:    pipeline,
		Search:      svc,
	}, nil
}

func printUsage() {
	fmt.Println(`lexicon - Bilingual study-document ingestion and word search

Usage:
  lexicon server [flags]            Start the HTTP server (watches the content directory)
  lexicon sync [flags] [dir]        Load every content file and drop topics whose file is gone
                                    ([dir] only with --server "")
  lexicon add [flags] <file>        Add or replace one document (publication.article.md)
  lexicon delete [flags] <key>      Delete a topic (publication.article)
  lexicon search [flags] <word>     Exact word search
  lexicon lookup [flags] <prefix>   Autocomplete prefix lookup
  lexicon rebuild [flags]           Rebuild the autocomplete index now
  lexicon status [flags]            Show counts and disk usage
  lexicon version                   Show version
  lexicon help                      Show this help

Common Flags:
  --config string    Config file path (default: /usr/local/etc/lexicon/config.yaml)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") to
                     work on the database directly when the server is not running.

Server Flags:
  --debug            Enable debug logging

Search Flags:
  --authorized       Include restricted topics
  --output string    Output format: text or json (default: text)

Lookup Flags:
  --limit int        Maximum number of suggestions (default from config)
  --output string    Output format: text or json (default: text)

Examples:
  lexicon server
  lexicon sync --server "" ./content
  lexicon add lessen.les-01.md
  lexicon search huis
  lexicon search --authorized --output json voor
  lexicon lookup --limit 5 hu
  lexicon delete lessen.les-01
  lexicon status --output json`)
}
