package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	docmerge "github.com/alnah/go-docmerge"
	"github.com/alnah/go-docmerge/internal/fileutil"
)

// Sentinel errors for CLI operations.
var (
	ErrNoInput = errors.New("no input files given")
)

// stageConcurrency caps parallel staging copies.
const stageConcurrency = 4

// run dispatches to the doctor subcommand or executes a merge.
// Returns the process exit code.
func run(ctx context.Context, flags *cliFlags, args []string) int {
	if flags.version {
		fmt.Printf("docmerge %s\n", Version)
		return ExitSuccess
	}

	if len(args) > 0 && args[0] == "doctor" {
		return runDoctorCmd(flags, os.Stdout)
	}

	if err := runMerge(ctx, flags, args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitCodeFor(err)
	}
	return ExitSuccess
}

// runMerge stages the input files, builds the request, and merges.
func runMerge(ctx context.Context, flags *cliFlags, args []string) error {
	if len(args) == 0 {
		return ErrNoInput
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}

	m, err := docmerge.NewMerger(mergerOptions(cfg, flags)...)
	if err != nil {
		return err
	}

	// The merger deletes every input path it is handed, so user files are
	// staged as copies into the uploads directory first.
	inputs, err := stageInputs(ctx, cfg.Dirs.Uploads, args)
	if err != nil {
		return err
	}

	req := docmerge.MergeRequest{
		Files:        inputs,
		OutputFormat: docmerge.OutputFormat(flags.format),
		DocumentName: flags.name,
		MergeOrder:   flags.order,
	}

	result, err := m.Merge(ctx, req)
	if err != nil {
		return err
	}

	return printResult(flags, result)
}

// loadConfig resolves the effective config: file (flag or env), then env
// overrides, then defaults.
func loadConfig(flags *cliFlags) (docmerge.Config, error) {
	path := flags.config
	if path == "" {
		path = os.Getenv("DOCMERGE_CONFIG")
	}

	cfg := docmerge.DefaultConfig()
	if path != "" {
		var err error
		cfg, err = docmerge.LoadConfig(path)
		if err != nil {
			return cfg, err
		}
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// mergerOptions layers CLI flags on top of the config.
func mergerOptions(cfg docmerge.Config, flags *cliFlags) []docmerge.Option {
	if flags.outputDir != "" {
		cfg.Dirs.Output = flags.outputDir
	}
	if flags.tempDir != "" {
		cfg.Dirs.Temp = flags.tempDir
	}
	if flags.engine != "" {
		cfg.Engine.Binary = flags.engine
	}
	if flags.timeout > 0 {
		cfg.Engine.TimeoutSeconds = flags.timeout
	}
	if flags.workers > 0 {
		cfg.Governor.MaxConcurrent = flags.workers
	}
	if flags.batchSize > 0 {
		cfg.Governor.BatchSize = flags.batchSize
	}
	return cfg.Options()
}

// stageInputs copies the user's files into the uploads directory so the
// merger can own (and delete) them. Copies run concurrently, bounded.
func stageInputs(ctx context.Context, uploadsDir string, paths []string) ([]docmerge.InputFile, error) {
	if err := fileutil.EnsureDir(uploadsDir); err != nil {
		return nil, err
	}

	inputs := make([]docmerge.InputFile, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(stageConcurrency)

	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			info, err := os.Stat(p)
			if err != nil {
				return fmt.Errorf("input %q: %w", p, err)
			}

			staged := filepath.Join(uploadsDir,
				fmt.Sprintf("%d-%d-%s", time.Now().UnixNano(), i, filepath.Base(p)))
			if err := fileutil.CopyFile(p, staged); err != nil {
				return err
			}

			inputs[i] = docmerge.InputFile{
				OriginalName: filepath.Base(p),
				Path:         staged,
				Size:         info.Size(),
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		// Remove anything already staged; the merger never saw these.
		for _, in := range inputs {
			if in.Path != "" {
				_ = os.Remove(in.Path)
			}
		}
		return nil, err
	}
	return inputs, nil
}

// printResult writes the result summary (or JSON) to stdout.
func printResult(flags *cliFlags, result *docmerge.MergeResult) error {
	if flags.jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	if !flags.quiet {
		fmt.Printf("Created %s (%d bytes, %d files, integrity %d/100)\n",
			result.Filename, result.FileSize, result.ProcessedFiles, result.IntegrityScore)

		if flags.verbose {
			for _, v := range result.ValidationResults {
				status := "ok"
				if !v.Valid {
					status = "INVALID"
				}
				fmt.Printf("  %-30s %s", v.Target, status)
				for _, w := range v.Warnings {
					fmt.Printf("  warning: %s", w)
				}
				fmt.Println()
			}
		}
	}
	return nil
}
