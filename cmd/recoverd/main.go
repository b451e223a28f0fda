// Command recoverd drives a deleted-file recovery scan from the
// command line: pick a source device or image, an output directory,
// and an optional category filter, and it reports recovered files as
// they're found.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/arnesen/recoverd/adapter"
	"github.com/arnesen/recoverd/block"
	"github.com/arnesen/recoverd/checkpoint"
	"github.com/arnesen/recoverd/orchestrator"
	"github.com/arnesen/recoverd/saver"
	"github.com/arnesen/recoverd/session"
	"github.com/arnesen/recoverd/signature"
)

func main() {
	app := &cli.App{
		Name:  "recoverd",
		Usage: "recover deleted files from a raw device or disk image",
		Commands: []*cli.Command{
			{
				Name:      "scan",
				Usage:     "scan a source for recoverable files",
				ArgsUsage: "SOURCE",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Required: true, Usage: "directory to write recovered files into"},
					&cli.StringFlag{Name: "checkpoint-dir", Usage: "directory to persist/resume scan checkpoints"},
					&cli.StringSliceFlag{Name: "category", Usage: "restrict recovery to these categories (repeatable)"},
					&cli.BoolFlag{Name: "save", Usage: "write recovered files to --output after the scan completes"},
				},
				Action: runScan,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("fatal error: %s", err.Error())
	}
}

func runScan(c *cli.Context) error {
	if c.Args().Len() != 1 {
		return cli.Exit("expected exactly one SOURCE argument", 1)
	}
	source := c.Args().First()
	outputDir := c.String("output")
	checkpointDir := c.String("checkpoint-dir")

	logger, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	categories, err := parseCategories(c.StringSlice("category"))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return cli.Exit(fmt.Sprintf("creating output dir: %s", err), 1)
	}
	if checkpointDir != "" {
		if err := os.MkdirAll(checkpointDir, 0o755); err != nil {
			return cli.Exit(fmt.Sprintf("creating checkpoint dir: %s", err), 1)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		<-sigCh
		sugar.Warn("interrupt received, cancelling scan")
		cancel()
	}()

	shouldSave := c.Bool("save")

	scan, err := orchestrator.Run(ctx, orchestrator.Options{
		DevicePath:    source,
		Categories:    categories,
		CheckpointDir: checkpointDir,
		Adapter:       adapter.NullAdapter{},
		Logger:        sugar,
		Callbacks: session.Callbacks{
			OnFileFound: func(f *session.RecoveredFile) {
				sugar.Infow("recovered file", "offset", f.Offset, "size", humanize.Bytes(uint64(f.Size)), "format", f.Signature.Name)
			},
		},
	})
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	if shouldSave {
		r, openErr := block.Open(source)
		if openErr != nil {
			return cli.Exit(openErr.Error(), 1)
		}
		defer r.Close()
		for i, f := range scan.Files {
			res := saver.Save(ctx, r, adapter.NullAdapter{}, f, outputDir, i+1)
			if res.Err != nil {
				sugar.Warnw("save failed", "offset", f.Offset, "error", res.Err)
				continue
			}
			sugar.Infow("saved file", "path", res.DestinationPath)
		}
	}

	if checkpointDir != "" {
		_ = checkpoint.Clear(checkpointDir)
	}

	sugar.Infow("scan complete",
		"files_found", scan.FileCount(),
		"bytes_scanned", humanize.Bytes(uint64(scan.BytesScanned)),
		"mode", scan.Mode.String(),
	)
	return nil
}

func parseCategories(raw []string) ([]signature.Category, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make([]signature.Category, 0, len(raw))
	for _, r := range raw {
		out = append(out, signature.Category(strings.TrimSpace(r)))
	}
	return out, nil
}
