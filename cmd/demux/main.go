// demux splits a paired-end sequencing run into per-sample FASTQ files by
// index barcode, screening reads for N bases, index hopping, and low mean
// index quality.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/maddygriz/demultiplex/internal/config"
	"github.com/maddygriz/demultiplex/internal/demux"
)

var version = "dev"

const (
	exitSuccess = 0
	exitError   = 1
)

type cliFlags struct {
	read1      string
	read2      string
	index1     string
	index2     string
	report     string
	configFile string
	outDir     string
	cutoff     float64
	gzipOutput bool
	workers    int
	set        map[string]bool // flags explicitly given on the command line
}

func main() {
	os.Exit(run())
}

func run() int {
	flags, done, err := parseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return exitError
	}
	if done {
		return exitSuccess
	}

	if err := execute(flags); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return exitError
	}
	return exitSuccess
}

func parseFlags() (*cliFlags, bool, error) {
	var flags cliFlags
	var showVersion, showHelp bool

	flag.StringVar(&flags.read1, "read1", "", "FASTQ file for the first primary read (plain or gzip)")
	flag.StringVar(&flags.read2, "read2", "", "FASTQ file for the second primary read (plain or gzip)")
	flag.StringVar(&flags.index1, "index1", "", "FASTQ file for the first index read (plain or gzip)")
	flag.StringVar(&flags.index2, "index2", "", "FASTQ file for the second index read (plain or gzip)")
	flag.StringVar(&flags.report, "out", "", "output file for the run summary")
	flag.StringVar(&flags.configFile, "config", "", "TOML config file (cutoff, barcodes, output dir)")
	flag.StringVar(&flags.outDir, "outdir", "", "directory for per-barcode bucket files (default: current directory)")
	flag.Float64Var(&flags.cutoff, "cutoff", demux.DefaultQualityCutoff, "minimum mean Phred score for an index read")
	flag.BoolVar(&flags.gzipOutput, "gzip", false, "gzip-compress bucket files")
	flag.IntVar(&flags.workers, "workers", 1, "classification workers (1 = fully sequential)")
	flag.BoolVar(&showVersion, "version", false, "show version and exit")
	flag.BoolVar(&showHelp, "h", false, "show help")

	flag.Usage = usage
	flag.Parse()

	if showHelp {
		flag.Usage()
		return &flags, true, nil
	}
	if showVersion {
		fmt.Printf("demux version %s\n", version)
		return &flags, true, nil
	}

	flags.set = make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { flags.set[f.Name] = true })

	var missing []string
	for _, req := range []struct{ name, value string }{
		{"read1", flags.read1},
		{"read2", flags.read2},
		{"index1", flags.index1},
		{"index2", flags.index2},
		{"out", flags.report},
	} {
		if req.value == "" {
			missing = append(missing, "-"+req.name)
		}
	}
	if len(missing) > 0 {
		return nil, false, fmt.Errorf("missing required flags: %s", strings.Join(missing, ", "))
	}

	return &flags, false, nil
}

func usage() {
	fmt.Fprintf(os.Stderr, `demux - Demultiplex paired-end sequencing runs by index barcode

Reads four positionally synchronized FASTQ streams (two primary reads, two
index reads), screens each read group for N bases, index hopping, and low
mean index quality, and appends the primary records to per-barcode bucket
files. Failing read groups go to a shared reject pair with the failure
reasons tagged on the separator line.

Usage:
  demux -read1 R1.fastq.gz -read2 R2.fastq.gz \
        -index1 I1.fastq.gz -index2 I2.fastq.gz \
        -out summary.txt [-outdir buckets/] [-config run.toml]

Options:
`)
	flag.PrintDefaults()
}

// buildConfig layers the TOML file (if any) over the defaults, then applies
// explicitly set flags on top.
func buildConfig(flags *cliFlags) (*config.Config, error) {
	cfg := config.Default()
	if flags.configFile != "" {
		loaded, err := config.Load(flags.configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if flags.set["cutoff"] {
		cfg.QualityCutoff = flags.cutoff
	}
	if flags.set["outdir"] {
		cfg.OutputDir = flags.outDir
	}
	if flags.set["gzip"] {
		cfg.GzipOutput = flags.gzipOutput
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func execute(flags *cliFlags) error {
	cfg, err := buildConfig(flags)
	if err != nil {
		return err
	}

	var readers [4]io.Reader
	for i, path := range []string{flags.read1, flags.read2, flags.index1, flags.index2} {
		r, cleanup, err := openInput(path)
		if err != nil {
			return err
		}
		defer cleanup()
		readers[i] = r
	}

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	quad := demux.NewQuadReader(readers[0], readers[1], readers[2], readers[3])
	classifier := demux.NewClassifier(cfg.QualityCutoff, cfg.Barcodes)
	router := demux.NewRouter(cfg.OutputDir, cfg.GzipOutput)
	stats := demux.NewStats(cfg.Barcodes)

	engine := demux.NewEngine(quad, classifier, router, stats, &demux.Options{
		Workers: flags.workers,
	})

	runErr := engine.Run()
	if closeErr := router.Close(); runErr == nil {
		runErr = closeErr
	}
	if runErr != nil {
		return runErr
	}

	return writeReport(flags.report, stats)
}

// openInput opens a FASTQ input, transparently decompressing gzip detected by
// suffix or magic bytes.
func openInput(path string) (io.Reader, func(), error) {
	f, err := os.Open(path) //nolint:gosec // CLI tool needs to open user-specified files
	if err != nil {
		return nil, nil, fmt.Errorf("cannot open input: %w", err)
	}
	cleanup := func() { _ = f.Close() }

	br := bufio.NewReaderSize(f, 1<<20)
	hasGzipMagic, err := inputHasGzipMagic(br)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("cannot inspect input %s: %w", path, err)
	}

	if strings.HasSuffix(strings.ToLower(path), ".gz") || hasGzipMagic {
		gz, err := gzip.NewReader(br)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("cannot open gzip input %s: %w", path, err)
		}
		return gz, func() {
			_ = gz.Close()
			_ = f.Close()
		}, nil
	}

	return br, cleanup, nil
}

func inputHasGzipMagic(br *bufio.Reader) (bool, error) {
	header, err := br.Peek(2)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		return false, err
	}
	return len(header) == 2 && header[0] == 0x1f && header[1] == 0x8b, nil
}

func writeReport(path string, stats *demux.Stats) error {
	f, err := os.Create(path) //nolint:gosec // CLI tool needs to create user-specified files
	if err != nil {
		return fmt.Errorf("cannot create report: %w", err)
	}
	bw := bufio.NewWriter(f)

	if err := stats.WriteReport(bw); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing report: %w", err)
	}
	if err := bw.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing report: %w", err)
	}
	return f.Close()
}
