package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/kapu/gamegen-go/internal/app"
	"github.com/kapu/gamegen-go/internal/client"
	"github.com/kapu/gamegen-go/internal/domain"
	"github.com/kapu/gamegen-go/internal/input"
	"github.com/kapu/gamegen-go/internal/service/generator"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type generateOptions struct {
	inputFile  string
	outputFile string
	serverURL  string
}

func newGenerateCmd() *cobra.Command {
	opts := &generateOptions{}

	cmd := &cobra.Command{
		Use:   "generate [urls...]",
		Short: "Generate JSON game records, one per URL",
		Example: `  # URLs as arguments
  gamegen generate https://example.com/games/moto-x3m.html

  # One URL per line from a file, written to out.json
  gamegen generate -f urls.txt -o out.json

  # Piped input
  cat urls.txt | gamegen generate

  # Run the batch on a gamegen server and watch progress
  gamegen generate --server http://localhost:8080 -f urls.txt`,
		RunE: func(c *cobra.Command, args []string) error {
			raw, err := readURLInput(c.InOrStdin(), opts.inputFile, args)
			if err != nil {
				return err
			}
			if opts.serverURL != "" {
				return runRemoteGenerate(c.Context(), c.OutOrStdout(), c.ErrOrStderr(), opts, raw)
			}
			return runGenerate(c.Context(), c.OutOrStdout(), opts, raw)
		},
	}

	cmd.Flags().StringVarP(&opts.inputFile, "file", "f", "", "Read URLs from a file, one per line")
	cmd.Flags().StringVarP(&opts.outputFile, "output", "o", "", "Write JSON to a file instead of stdout")
	cmd.Flags().StringVar(&opts.serverURL, "server", "", "Generate on a running gamegen server instead of locally")

	return cmd
}

func runGenerate(ctx context.Context, stdout io.Writer, opts *generateOptions, raw string) error {
	urls, err := input.ParseURLList(raw)
	if err != nil {
		return err
	}

	cfg, logger, err := loadRuntime()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	buildCtx, buildCancel := context.WithTimeout(ctx, 30*time.Second)
	container, err := app.Build(buildCtx, cfg, logger)
	buildCancel()
	if err != nil {
		logger.Error("Failed to assemble application services", zap.Error(err))
		return err
	}
	defer container.Close()

	runCtx, cancel := signalContext(ctx)
	defer cancel()

	records := container.Generator.Generate(runCtx, urls)
	logger.Info("Generation complete",
		zap.Int("total", len(records)),
		zap.Int("failed", countFailed(records)),
	)

	return writeRecords(stdout, opts.outputFile, records)
}

// runRemoteGenerate needs no API key: the server holds the model credentials.
func runRemoteGenerate(ctx context.Context, stdout, stderr io.Writer, opts *generateOptions, raw string) error {
	urls, err := input.ParseURLList(raw)
	if err != nil {
		return err
	}

	runCtx, cancel := signalContext(ctx)
	defer cancel()

	remote := client.NewClient(opts.serverURL, zap.NewNop())

	circuit, err := remote.Health(runCtx)
	if err != nil {
		return fmt.Errorf("server %s is not reachable: %w", opts.serverURL, err)
	}
	if circuit != "" && circuit != "CLOSED" {
		fmt.Fprintf(stderr, "warning: server model circuit is %s, expect failed records\n", circuit)
	}

	records, err := remote.StreamGenerate(runCtx, urls, func(ev domain.ProgressEvent) {
		status := "ok"
		if ev.Failed {
			status = "failed"
		}
		fmt.Fprintf(stderr, "[%d/%d] %s %s\n", ev.Index+1, ev.Total, status, ev.URL)
	})
	if errors.Is(err, client.ErrStreamUnsupported) {
		fmt.Fprintln(stderr, "streaming unavailable, waiting for the whole batch")
		records, err = remote.Generate(runCtx, urls)
	}
	if err != nil {
		return err
	}

	return writeRecords(stdout, opts.outputFile, records)
}

func writeRecords(stdout io.Writer, outputFile string, records []domain.GameRecord) error {
	out, err := generator.FormatJSON(records)
	if err != nil {
		return fmt.Errorf("failed to encode records: %w", err)
	}

	if outputFile == "" {
		_, err = fmt.Fprintln(stdout, string(out))
		return err
	}

	if err := os.WriteFile(outputFile, append(out, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", outputFile, err)
	}
	_, err = fmt.Fprintf(stdout, "Wrote %d records to %s\n", len(records), outputFile)
	return err
}

// readURLInput joins URLs from arguments and the input file. Stdin is read
// only when neither is given and it is not a terminal.
func readURLInput(stdin io.Reader, inputFile string, args []string) (string, error) {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, args...)

	if inputFile != "" {
		content, err := os.ReadFile(inputFile)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", inputFile, err)
		}
		parts = append(parts, string(content))
	}

	if len(parts) == 0 && !isTerminal(stdin) {
		content, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		parts = append(parts, string(content))
	}

	return strings.Join(parts, "\n"), nil
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return stat.Mode()&os.ModeCharDevice != 0
}

func countFailed(records []domain.GameRecord) int {
	failed := 0
	for _, rec := range records {
		if rec.IsPlaceholder() {
			failed++
		}
	}
	return failed
}
