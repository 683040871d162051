package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/ironsheep/ballot-interpreter/internal/config"
	"github.com/ironsheep/ballot-interpreter/internal/election"
	"github.com/ironsheep/ballot-interpreter/internal/imaging"
	"github.com/ironsheep/ballot-interpreter/internal/interpret"
	"github.com/ironsheep/ballot-interpreter/internal/ocr"
	"github.com/ironsheep/ballot-interpreter/internal/server"
	"github.com/ironsheep/ballot-interpreter/internal/store"
	"github.com/ironsheep/ballot-interpreter/pkg/logger"
	"github.com/ironsheep/ballot-interpreter/pkg/metrics"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

const usage = `ballot-interpreter - interpret scanned timing-mark ballot cards

Usage:
  ballot-interpreter [serve]                         Run the MCP server on stdin/stdout
  ballot-interpreter interpret [flags] FRONT BACK    Interpret one card and print JSON

Interpret flags:
  --election PATH       Election definition used to score ovals
  --ballot-style ID     Ballot style to score (default: from the card number)

Options:
  --version, -v    Print version information
  --help, -h       Print this help message

Environment variables:
  BALLOT_CONFIG=path.yaml      Configuration file
  BALLOT_LOG_LEVEL=debug       Enable debug logging
  BALLOT_STORE_DSN=path.db     Keep interpretation summaries
  BALLOT_METRICS_ADDR=:9090    Expose Prometheus metrics

The server communicates via MCP protocol over stdin/stdout.
`

func main() {
	command := "serve"
	args := os.Args[1:]
	if len(args) > 0 {
		switch args[0] {
		case "--version", "-v", "version":
			fmt.Printf("ballot-interpreter %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Print(usage)
			return
		case "serve", "interpret":
			command, args = args[0], args[1:]
		default:
			fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", args[0], usage)
			os.Exit(2)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, command, args); err != nil {
		fmt.Fprintf(os.Stderr, "ballot-interpreter: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, command string, args []string) error {
	// Logging goes to stderr; stdout is for the MCP protocol and results
	if err := logger.Init(); err != nil {
		return err
	}
	log := logger.Get()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		return err
	}
	runtime.GOMAXPROCS(cfg.MaxWorkers)

	m := metrics.NewManager(metrics.WithNamespace(cfg.MetricsNamespace))
	if cfg.MetricsAddr != "" {
		go func() {
			if err := m.Serve(ctx, cfg.MetricsAddr); err != nil {
				log.Error(ctx, "metrics server stopped", logger.Error(err))
			}
		}()
	}

	opts, err := interpret.OptionsFromConfig(cfg)
	if err != nil {
		return err
	}
	opts = append(opts, interpret.WithRecorder(m))

	var st *store.Store
	if cfg.StoreDSN != "" {
		if st, err = store.Open(ctx, cfg.StoreDriver, cfg.StoreDSN); err != nil {
			return err
		}
		defer st.Close()
	}

	switch command {
	case "interpret":
		return interpretCard(ctx, log, st, opts, args)
	default:
		log.Info(ctx, "ballot interpreter starting",
			logger.String("version", Version),
			logger.String("build_time", BuildTime),
			logger.String("commit", GitCommit))
		srvOpts := []server.Option{
			server.WithInterpretOptions(opts...),
			server.WithOCR(ocr.NewReader(cfg.OCRLanguage, 0.5)),
			server.WithVersion(Version),
			server.WithLogger(log.Named("server")),
		}
		if st != nil {
			srvOpts = append(srvOpts, server.WithStore(st))
		}
		err := server.New(srvOpts...).Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
}

func interpretCard(ctx context.Context, log logger.Logger, st *store.Store, opts []interpret.Option, args []string) error {
	fs := flag.NewFlagSet("interpret", flag.ContinueOnError)
	electionPath := fs.String("election", "", "election definition")
	ballotStyle := fs.String("ballot-style", "", "ballot style to score")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return errors.New("interpret needs a front and a back image")
	}

	if *electionPath != "" {
		e, err := election.Load(*electionPath)
		if err != nil {
			return err
		}
		opts = append(opts, interpret.WithElection(e))
	}
	if *ballotStyle != "" {
		opts = append(opts, interpret.WithBallotStyle(*ballotStyle))
	}

	cache := imaging.NewCache()
	front, err := cache.Load(imaging.FromPath(fs.Arg(0)))
	if err != nil {
		return err
	}
	back, err := cache.Load(imaging.FromPath(fs.Arg(1)))
	if err != nil {
		return err
	}

	opts = append(opts, interpret.WithLogger(log.Named("interpret")))
	card, interpErr := interpret.New(opts...).Interpret(ctx, front, back)

	if st != nil {
		sum, err := store.Summarize(card, server.DefaultMarkThreshold)
		if err == nil {
			err = st.Save(ctx, sum)
		}
		if err != nil {
			log.Error(ctx, "interpretation not stored", logger.Error(err))
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(card); err != nil {
		return err
	}
	return interpErr
}
