// internal/cli/options.go
package cli

import (
	"errors"
	"flag"
	"fmt"
	"strings"

	"readpump/internal/version"
)

// Input format names accepted by the format flags.
const (
	FormatFASTA  = "fasta"
	FormatFASTQ  = "fastq"
	FormatTab    = "tab"
	FormatRaw    = "raw"
	FormatVector = "vector"
)

// Output record renderings.
const (
	OutFASTQ = "fastq"
	OutTab   = "tab"
)

// Options holds all CLI flags and arguments.
type Options struct {
	// Input files
	Unpaired    []string // -U, plus positional arguments
	Mate1       []string // -1
	Mate2       []string // -2
	Interleaved []string // --12 (tab format, pairs in one stream)
	Sequences   []string // positional reads with -c

	Format string // fasta | fastq | tab | raw | vector

	// Record shaping
	Trim5    int
	Trim3    int
	Skip     uint64
	Phred64  bool
	Solexa   bool
	IntQuals bool
	Seed     uint
	FixNames bool

	// Performance
	Threads      int
	FileParallel bool
	BatchSize    int

	// Output
	Output      string
	OutFormat   string // fastq | tab
	NoReorder   bool
	Shards      int
	FlushThresh int
	Quiet       bool

	Version bool
}

// NewFlagSet returns a configured FlagSet with custom usage/help.
func NewFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(),
			`%s: parallel sequencing-read pump

Reads FASTA/FASTQ/tab/raw inputs with one lightweight reader lock per
source, parses records on worker threads, and writes them back out in
input order.

Version: %s

Usage of %s:
`, name, version.Version, name)
		fs.PrintDefaults()
	}
	return fs
}

// Parse is the top-level call for CLI parsing.
func Parse() (Options, error) { return ParseArgs(flag.CommandLine, nil) }

// ParseArgs registers and parses all flags, returns an Options struct.
func ParseArgs(fs *flag.FlagSet, argv []string) (Options, error) {
	var opt Options
	var help bool
	var fasta, fastq, raw, tab, vector bool
	var unpaired, m1, m2, il commaList

	// Input
	fs.Var(&unpaired, "U", "comma-separated unpaired read files (or '-') [*]")
	fs.Var(&m1, "1", "comma-separated mate-1 read files [*]")
	fs.Var(&m2, "2", "comma-separated mate-2 read files [*]")
	fs.Var(&il, "12", "comma-separated tab-delimited files with both mates per line [*]")
	fs.BoolVar(&fasta, "f", false, "inputs are FASTA [false]")
	fs.BoolVar(&fastq, "q", false, "inputs are FASTQ (default) [false]")
	fs.BoolVar(&raw, "r", false, "inputs are raw, one sequence per line [false]")
	fs.BoolVar(&tab, "tab", false, "inputs are tab-delimited records [false]")
	fs.BoolVar(&vector, "c", false, "arguments are the sequences themselves (seq or seq:quals) [false]")

	// Record shaping
	fs.IntVar(&opt.Trim5, "trim5", 0, "trim N bases from the 5' end of each read [0]")
	fs.IntVar(&opt.Trim3, "trim3", 0, "trim N bases from the 3' end of each read [0]")
	fs.Uint64Var(&opt.Skip, "skip", 0, "skip the first N reads (or pairs) [0]")
	fs.BoolVar(&opt.Phred64, "phred64", false, "FASTQ qualities are Phred+64 [false]")
	fs.BoolVar(&opt.Solexa, "solexa-quals", false, "FASTQ qualities are Solexa-scaled [false]")
	fs.BoolVar(&opt.IntQuals, "int-quals", false, "FASTQ qualities are space-separated integers [false]")
	fs.UintVar(&opt.Seed, "seed", 0, "seed mixed into per-read pseudo-random seeds [0]")
	fs.BoolVar(&opt.FixNames, "fix-names", false, "append /1 and /2 to paired read names [false]")

	// Performance
	fs.IntVar(&opt.Threads, "p", 1, "number of parser/writer threads [1]")
	fs.BoolVar(&opt.FileParallel, "file-parallel", false, "one reader lock per file instead of per file list [false]")
	fs.IntVar(&opt.BatchSize, "batch-size", 0, "reads per dispatch batch (0 = default) [0]")

	// Output
	fs.StringVar(&opt.Output, "o", "-", "output file ('-' = stdout; .gz compresses) [-]")
	fs.StringVar(&opt.OutFormat, "out-format", OutFASTQ, "output rendering: fastq | tab [fastq]")
	fs.BoolVar(&opt.NoReorder, "no-reorder", false, "skip output reordering; flush per-thread buffers as they fill [false]")
	fs.IntVar(&opt.Shards, "shards", 1, "output shards with --no-reorder [1]")
	fs.IntVar(&opt.FlushThresh, "flush-thresh", 0, "contiguous finished reads required for an unforced flush (0 = default) [0]")
	fs.BoolVar(&opt.Quiet, "quiet", false, "suppress the run summary on stderr [false]")

	fs.BoolVar(&opt.Version, "v", false, "print version and exit (shorthand) [false]")
	fs.BoolVar(&opt.Version, "version", false, "print version and exit [false]")
	fs.BoolVar(&help, "h", false, "show this help message (shorthand) [false]")

	if err := fs.Parse(argv); err != nil {
		return opt, err
	}
	if help {
		fs.Usage()
		return opt, flag.ErrHelp
	}
	if opt.Version {
		return opt, nil
	}

	opt.Unpaired = unpaired
	opt.Mate1 = m1
	opt.Mate2 = m2
	opt.Interleaved = il
	if vector {
		opt.Sequences = fs.Args()
	} else {
		opt.Unpaired = append(opt.Unpaired, fs.Args()...)
	}

	// Format selection
	nfmt := 0
	for _, b := range []bool{fasta, fastq, raw, tab, vector} {
		if b {
			nfmt++
		}
	}
	if nfmt > 1 {
		return opt, errors.New("more than one input format specified (-f/-q/-r/--tab/-c)")
	}
	switch {
	case fasta:
		opt.Format = FormatFASTA
	case raw:
		opt.Format = FormatRaw
	case tab:
		opt.Format = FormatTab
	case vector:
		opt.Format = FormatVector
	default:
		opt.Format = FormatFASTQ
	}
	// Interleaved inputs are tab-delimited by definition.
	if len(opt.Interleaved) > 0 {
		if nfmt > 0 && opt.Format != FormatTab {
			return opt, errors.New("--12 conflicts with -f/-q/-r/-c")
		}
		opt.Format = FormatTab
	}

	// Validation
	switch {
	case vector && (len(opt.Mate1) > 0 || len(opt.Mate2) > 0 || len(unpaired) > 0 || len(opt.Interleaved) > 0):
		return opt, errors.New("-c conflicts with -U/-1/-2/--12")
	case vector && len(opt.Sequences) == 0:
		return opt, errors.New("-c requires at least one sequence argument")
	case (len(opt.Mate1) > 0) != (len(opt.Mate2) > 0):
		return opt, errors.New("-1 and -2 must be supplied together")
	case len(opt.Mate1) != len(opt.Mate2):
		return opt, fmt.Errorf("-1 and -2 must name the same number of files (%d vs %d)", len(opt.Mate1), len(opt.Mate2))
	case !vector && len(opt.Unpaired) == 0 && len(opt.Mate1) == 0 && len(opt.Interleaved) == 0:
		return opt, errors.New("provide reads via -U, -1/-2, --12, or -c")
	}
	if opt.Solexa && opt.Phred64 {
		return opt, errors.New("--solexa-quals conflicts with --phred64")
	}
	if opt.IntQuals && (opt.Format == FormatFASTA || opt.Format == FormatRaw) {
		return opt, errors.New("--int-quals requires a quality-bearing format")
	}
	if opt.Trim5 < 0 || opt.Trim3 < 0 {
		return opt, errors.New("--trim5/--trim3 must be ≥ 0")
	}
	if opt.Threads < 1 {
		return opt, errors.New("-p must be ≥ 1")
	}
	if opt.BatchSize < 0 {
		return opt, errors.New("--batch-size must be ≥ 0")
	}
	if uint64(opt.Seed) > 0xFFFFFFFF {
		return opt, errors.New("--seed must fit in 32 bits")
	}
	if opt.OutFormat != OutFASTQ && opt.OutFormat != OutTab {
		return opt, fmt.Errorf("invalid --out-format %q", opt.OutFormat)
	}
	if opt.Shards < 1 {
		return opt, errors.New("--shards must be ≥ 1")
	}
	if opt.Shards > 1 && !opt.NoReorder {
		return opt, errors.New("--shards requires --no-reorder")
	}
	if opt.Shards > 1 && opt.Output == "-" {
		return opt, errors.New("--shards requires -o (shards append .N to the path)")
	}
	if opt.FlushThresh < 0 {
		return opt, errors.New("--flush-thresh must be ≥ 0")
	}
	return opt, nil
}

// commaList collects comma-separated, repeatable file-list flags.
type commaList []string

func (s *commaList) String() string { return strings.Join(*s, ",") }

func (s *commaList) Set(v string) error {
	for _, f := range strings.Split(v, ",") {
		if f != "" {
			*s = append(*s, f)
		}
	}
	return nil
}
