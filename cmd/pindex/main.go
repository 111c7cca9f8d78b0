// Command pindex computes longitudinal poverty persistence indices.
//
// In batch mode it loads one observations file, prints the validation errors and
// writes the persistence ratio and poverty index exports:
//
//	pindex -in panel.csv -out results/ [-xlsx]
//
// With -serve it starts the HTTP view instead; -in, when given, is loaded first.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"pindex/internal/app"
	"pindex/internal/config"
	"pindex/internal/infrastructure"
)

// Set at link time by build.go
var (
	Version   = config.AppVersion
	BuildTime = ""
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// run returns the process exit code: 0 on success, 1 on a failure, 2 on bad usage
// and 3 when the dataset loaded but failed validation.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("pindex", flag.ContinueOnError)
	fs.SetOutput(stderr)
	in := fs.String("in", "", "observations file to load")
	out := fs.String("out", "", "output directory for the exports (defaults to export.output_dir)")
	configPath := fs.String("config", "", "YAML configuration file (defaults to $PINDEX_CONFIG)")
	serve := fs.Bool("serve", false, "serve the HTTP view instead of exiting after the exports")
	port := fs.Int("port", 0, "HTTP port, overrides server.port")
	xlsx := fs.Bool("xlsx", false, "also write the xlsx workbook")
	showVersion := fs.Bool("version", false, "print the version and exit")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if *showVersion {
		fmt.Fprintf(stdout, "pindex %s %s\n", Version, BuildTime)
		return 0
	}
	if *in == "" && !*serve {
		fmt.Fprintln(stderr, "pindex: -in is required unless -serve is given")
		fs.Usage()
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "pindex: %v\n", err)
		return 1
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}

	// stdout carries the batch report, logs go to stderr
	logger, logFile, err := infrastructure.NewLogger(cfg.Logging, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "pindex: %v\n", err)
		return 1
	}
	if logFile != nil {
		defer logFile.Close()
	}
	slog.SetDefault(logger)

	application, err := app.NewApplication(cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize application", slog.String("error", err.Error()))
		return 1
	}

	code := 0
	if *in != "" {
		report, err := application.RunBatch(ctx, app.BatchOptions{
			Input:     *in,
			OutputDir: *out,
			Workbook:  *xlsx,
		}, stdout)
		switch {
		case err != nil:
			fmt.Fprintf(stderr, "pindex: %v\n", err)
			code = 1
		case !report.Snapshot.IsValid():
			code = 3
		}
	}

	if !*serve {
		if err := application.Close(ctx); err != nil {
			logger.Warn("Telemetry shutdown failed", slog.String("error", err.Error()))
		}
		return code
	}

	if err := application.Run(ctx); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return 1
	}
	return code
}
