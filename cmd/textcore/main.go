// Command textcore loads a file into a document, optionally runs a Lua
// script against it, and prints or serves the result.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"syscall"
	"time"

	"github.com/dshills/textcore/internal/action"
	"github.com/dshills/textcore/internal/engine"
	"github.com/dshills/textcore/internal/engine/syntax"
	"github.com/dshills/textcore/internal/feed"
	"github.com/dshills/textcore/internal/lang"
	"github.com/dshills/textcore/internal/logging"
	"github.com/dshills/textcore/internal/script"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
)

var errUsage = errors.New("usage")

type options struct {
	File         string
	Language     string
	LanguagesDir string
	Watch        bool
	Script       string
	Tokens       bool
	Print        bool
	Write        bool
	Serve        string
	LogLevel     slog.Level
	LogFormat    logging.Format
	ShowVersion  bool
}

func main() {
	os.Exit(run())
}

func run() int {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}
	if opts.ShowVersion {
		fmt.Printf("textcore %s (%s)\n", version, commit)
		return 0
	}

	logger, err := logging.New(os.Stderr, opts.LogLevel, opts.LogFormat, "textcore")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := execute(ctx, opts, os.Stdout, logger); err != nil {
		logger.Error("textcore failed", "error", err)
		return 1
	}
	return 0
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	var level, format string

	fs := flag.NewFlagSet("textcore", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.Language, "lang", "", "Language name (detected from the file name by default)")
	fs.StringVar(&opts.LanguagesDir, "languages", "", "Directory of .toml/.yaml language definitions")
	fs.BoolVar(&opts.Watch, "watch", false, "Reload -languages when its files change (requires -serve)")
	fs.StringVar(&opts.Script, "script", "", "Lua script to run against the document")
	fs.BoolVar(&opts.Tokens, "tokens", false, "Print highlight tokens as JSON lines")
	fs.BoolVar(&opts.Print, "print", false, "Print the document text")
	fs.BoolVar(&opts.Write, "write", false, "Write the document back to FILE")
	fs.StringVar(&opts.Serve, "serve", "", "Serve the edit feed on this address, e.g. :8080")
	fs.StringVar(&level, "log-level", "info", "Log level (debug, info, warn, error)")
	fs.StringVar(&format, "log-format", "text", "Log format (text, json)")
	fs.BoolVar(&opts.ShowVersion, "version", false, "Show version information")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: textcore [options] FILE\n\nOptions:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  textcore -tokens main.go\n")
		fmt.Fprintf(stderr, "  textcore -script fix.lua -write main.go\n")
		fmt.Fprintf(stderr, "  textcore -serve :8080 -languages ./langs -watch main.go\n")
	}
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if opts.ShowVersion {
		return opts, nil
	}

	var err error
	if opts.LogLevel, err = logging.ParseLevel(level); err != nil {
		return opts, err
	}
	opts.LogFormat = logging.Format(format)
	switch opts.LogFormat {
	case logging.FormatText, logging.FormatJSON:
	default:
		return opts, fmt.Errorf("%w: %q", logging.ErrUnknownFormat, format)
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return opts, fmt.Errorf("%w: expected one FILE, got %d", errUsage, fs.NArg())
	}
	opts.File = fs.Arg(0)
	if opts.Watch && (opts.Serve == "" || opts.LanguagesDir == "") {
		return opts, fmt.Errorf("%w: -watch needs -serve and -languages", errUsage)
	}
	return opts, nil
}

func execute(ctx context.Context, opts options, stdout io.Writer, logger *slog.Logger) error {
	reloads := make(chan []string, 1)
	langs, err := lang.NewRegistry(
		lang.WithLogger(logger),
		lang.WithReloadHook(func(names []string) {
			select {
			case reloads <- names:
			default:
			}
		}),
	)
	if err != nil {
		return err
	}
	if opts.LanguagesDir != "" {
		if err := langs.LoadDir(opts.LanguagesDir); err != nil {
			return err
		}
		// Startup loads are not reloads.
		select {
		case <-reloads:
		default:
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	doc, err := openDocument(opts, langs, engine.NewMetrics(reg), logger)
	if err != nil {
		return err
	}
	defer doc.Close()

	// Without a server the document has a single user and is accessed
	// directly; with one every access goes through the session.
	do := func(fn func(*engine.Document) error) error { return fn(doc) }
	var srv *feed.Server
	var sess *feed.Session
	if opts.Serve != "" {
		hub := feed.NewHub(feed.WithHubLogger(logger), feed.WithHubMetrics(reg))
		srv = feed.NewServer(hub, feed.WithGatherer(reg), feed.WithServerLogger(logger))
		defer srv.Close()
		sess = srv.Open(filepath.Base(opts.File), doc)
		do = func(fn func(*engine.Document) error) error { return sess.Do(ctx, fn) }
	}

	if opts.Script != "" {
		err := do(func(d *engine.Document) error {
			actions := action.New(
				action.WithClipboard(&action.MemoryClipboard{}),
				action.WithLogger(logger),
			)
			rt := script.New(d, script.WithActions(actions), script.WithLogger(logger), script.WithOutput(stdout))
			defer rt.Close()
			return rt.RunFile(ctx, opts.Script)
		})
		if err != nil {
			return err
		}
	}
	if opts.Write {
		if err := do(func(d *engine.Document) error { return writeDocument(opts.File, d) }); err != nil {
			return err
		}
	}
	if opts.Print {
		if err := do(func(d *engine.Document) error {
			_, err := io.WriteString(stdout, d.Text())
			return err
		}); err != nil {
			return err
		}
	}
	if opts.Tokens {
		if err := do(func(d *engine.Document) error { return writeTokens(stdout, d) }); err != nil {
			return err
		}
	}

	if srv == nil {
		return nil
	}
	if opts.Watch {
		go func() {
			if err := langs.Watch(ctx, opts.LanguagesDir); err != nil {
				logger.Error("language watch stopped", "dir", opts.LanguagesDir, "error", err)
			}
		}()
		go applyReloads(ctx, sess, reloads, logger)
	}
	return serve(ctx, opts.Serve, srv.Handler(), logger)
}

func openDocument(opts options, langs *lang.Registry, m *engine.Metrics, logger *slog.Logger) (*engine.Document, error) {
	docOpts := []engine.Option{
		engine.WithFilename(filepath.Base(opts.File)),
		engine.WithLanguages(langs),
		engine.WithLanguage(opts.Language),
		engine.WithLogger(logger),
		engine.WithMetrics(m),
	}
	f, err := os.Open(opts.File)
	if errors.Is(err, os.ErrNotExist) {
		logger.Info("new file", "file", opts.File)
		return engine.New(docOpts...), nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return engine.NewFromReader(f, docOpts...)
}

func writeDocument(path string, d *engine.Document) error {
	mode := os.FileMode(0o644)
	if fi, err := os.Stat(path); err == nil {
		mode = fi.Mode().Perm()
	}
	return os.WriteFile(path, []byte(d.Text()), mode)
}

type tokenLine struct {
	Line   int            `json:"line"`
	Tokens []syntax.Token `json:"tokens"`
}

func writeTokens(w io.Writer, d *engine.Document) error {
	enc := json.NewEncoder(w)
	for i, tokens := range d.Tokens(0, d.LineCount()) {
		if err := enc.Encode(tokenLine{Line: i, Tokens: tokens}); err != nil {
			return err
		}
	}
	return nil
}

// applyReloads reparses the served document when its language changed.
func applyReloads(ctx context.Context, sess *feed.Session, reloads <-chan []string, logger *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case names := <-reloads:
			err := sess.Do(ctx, func(d *engine.Document) error {
				if d.Language() != "" && !slices.Contains(names, d.Language()) {
					return nil
				}
				return d.ReloadLanguage()
			})
			if err != nil {
				logger.Warn("language reload failed", "error", err)
			}
		}
	}
}

func serve(ctx context.Context, addr string, h http.Handler, logger *slog.Logger) error {
	hs := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		logger.Info("serving edit feed", "addr", addr)
		errc <- hs.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := hs.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
