package main

import (
	"fmt"

	flag "github.com/spf13/pflag"
)

// cliFlags holds all parsed command-line flags.
type cliFlags struct {
	config    string
	format    string
	name      string
	order     []string
	outputDir string
	tempDir   string
	engine    string
	timeout   int
	workers   int
	batchSize int
	quiet     bool
	verbose   bool
	jsonOut   bool
	version   bool
}

// parseFlags parses os.Args-style arguments. Returns the flags and the
// remaining positional arguments (input files or a subcommand).
func parseFlags(args []string) (*cliFlags, []string, error) {
	f := &cliFlags{}

	fs := flag.NewFlagSet("docmerge", flag.ContinueOnError)
	fs.StringVarP(&f.config, "config", "c", "", "path to YAML config file")
	fs.StringVarP(&f.format, "format", "f", "pdf", "output format: pdf, docx, zip")
	fs.StringVarP(&f.name, "name", "n", "merged", "output document name")
	fs.StringSliceVar(&f.order, "order", nil, "explicit merge order (original filenames, comma-separated)")
	fs.StringVarP(&f.outputDir, "output-dir", "o", "", "directory for the final artifact")
	fs.StringVar(&f.tempDir, "temp-dir", "", "directory for conversion fragments")
	fs.StringVar(&f.engine, "engine", "", "conversion engine binary (default: soffice)")
	fs.IntVar(&f.timeout, "timeout", 0, "engine timeout in seconds")
	fs.IntVarP(&f.workers, "workers", "w", 0, "max concurrent conversions (0 = auto)")
	fs.IntVar(&f.batchSize, "batch-size", 0, "conversions per batch")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "suppress non-error output")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "enable debug output")
	fs.BoolVar(&f.jsonOut, "json", false, "print the merge result as JSON")
	fs.BoolVar(&f.version, "version", false, "print version and exit")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: docmerge [flags] <file>...\n")
		fmt.Fprintf(fs.Output(), "       docmerge doctor [--json]\n\n")
		fmt.Fprintf(fs.Output(), "Merge documents, spreadsheets, presentations, images and PDFs\ninto a single artifact.\n\nFlags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args[1:]); err != nil {
		return nil, nil, err
	}

	return f, fs.Args(), nil
}
