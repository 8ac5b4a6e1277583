package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"NewsDigest/internal/app"
	"NewsDigest/internal/config"
	"NewsDigest/internal/logging"
)

const usage = `usage: newsdigest [-config path] <command> [flags]

commands:
  serve            run the HTTP API (default)
  run-once [-q t]  summarize latest headlines (or search results for t) and print JSON
  clear-articles   delete every saved article
`

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	_ = godotenv.Load()

	global := flag.NewFlagSet("newsdigest", flag.ContinueOnError)
	configPath := global.String("config", "", "path to YAML config (defaults to $NEWSDIGEST_CONFIG)")
	global.Usage = func() { fmt.Fprint(global.Output(), usage) }
	if err := global.Parse(args); err != nil {
		return err
	}

	command := "serve"
	rest := global.Args()
	if len(rest) > 0 {
		command, rest = rest[0], rest[1:]
	}

	cfg := config.Load(*configPath)
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch command {
	case "serve":
		return withApp(ctx, cfg, logger, func(a *app.Application) error {
			return a.Serve(ctx)
		})
	case "run-once":
		fs := flag.NewFlagSet("run-once", flag.ContinueOnError)
		term := fs.String("q", "", "search term; empty means latest headlines")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		return withApp(ctx, cfg, logger, func(a *app.Application) error {
			articles, err := a.RunOnce(ctx, *term)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(articles)
		})
	case "clear-articles":
		return withApp(ctx, cfg, logger, func(a *app.Application) error {
			n, err := a.ClearArticles(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(stdout, "Successfully deleted %d articles.\n", n)
			return nil
		})
	default:
		global.Usage()
		return errors.New("unknown command " + command)
	}
}

func withApp(ctx context.Context, cfg config.Config, logger *slog.Logger, fn func(*app.Application) error) error {
	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("build application: %w", err)
	}
	defer func() {
		if err := application.Close(); err != nil {
			logger.Warn("close application", "error", err)
		}
	}()

	if err := fn(application); err != nil {
		logger.Error("application stopped", "error", err)
		return err
	}
	return nil
}
