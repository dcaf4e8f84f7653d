// internal/app/app.go
package app

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"sync"
	"time"

	"code.cloudfoundry.org/bytefmt"
	"github.com/shenwei356/xopen"

	"readpump/dispatch"
	"readpump/internal/cli"
	"readpump/internal/version"
	"readpump/outq"
	"readpump/source"
)

func RunContext(parent context.Context, argv []string, stdout, stderr io.Writer) int {
	outw := bufio.NewWriter(stdout)
	defer func() { _ = outw.Flush() }()

	fs := cli.NewFlagSet("readpump")
	fs.SetOutput(io.Discard)

	opts, err := cli.ParseArgs(fs, argv)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			fs.SetOutput(outw)
			fs.Usage()
			if e := outw.Flush(); isBrokenPipe(e) {
				return 0
			} else if e != nil {
				_, _ = fmt.Fprintln(stderr, e)
				return 3
			}
			return 0
		}
		_, _ = fmt.Fprintln(stderr, err)
		return 2
	}

	if opts.Version {
		_, _ = fmt.Fprintf(outw, "readpump version %s\n", version.Version)
		if e := outw.Flush(); isBrokenPipe(e) {
			return 0
		} else if e != nil {
			_, _ = fmt.Fprintln(stderr, e)
			return 3
		}
		return 0
	}

	params := &source.Params{
		Format:       mapFormat(opts.Format),
		Trim5:        opts.Trim5,
		Trim3:        opts.Trim3,
		Skip:         opts.Skip,
		IntQuals:     opts.IntQuals,
		Phred64:      opts.Phred64,
		Solexa:       opts.Solexa,
		Seed:         uint32(opts.Seed),
		FixName:      opts.FixNames,
		FileParallel: opts.FileParallel,
		BatchSize:    opts.BatchSize,
		Counter:      &source.Counter{},
		Warn:         stderr,
	}

	singles := opts.Unpaired
	if params.Format == source.FormatVector {
		singles = opts.Sequences
	}
	comp, err := dispatch.Setup(params, singles, opts.Mate1, opts.Mate2, opts.Interleaved)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 2
	}

	outs, counters, closeOuts, err := openOutputs(opts, outw)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 2
	}

	q, err := outq.New(outq.Config{
		Reorder:     !opts.NoReorder,
		Threads:     opts.Threads,
		Outputs:     outs,
		FlushThresh: opts.FlushThresh,
	})
	if err != nil {
		_ = closeOuts()
		_, _ = fmt.Fprintln(stderr, err)
		return 2
	}

	// In-memory sources apply the skip at construction; for file-backed
	// formats the skip happens here so record ids stay gapless.
	skipBelow := opts.Skip
	if params.Format == source.FormatVector {
		skipBelow = 0
	}

	start := time.Now()
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	// First worker error wins; the rest drain out via cancellation.
	var (
		errMu    sync.Mutex
		firstErr error
	)
	fail := func(err error) {
		errMu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		errMu.Unlock()
		cancel()
	}

	var wg sync.WaitGroup
	wg.Add(opts.Threads)
	for t := 0; t < opts.Threads; t++ {
		go func(tid int) {
			defer wg.Done()
			rd := dispatch.NewReader(comp, params)
			var text []byte
			for {
				select {
				case <-ctx.Done():
					return
				default:
				}
				ra, rb, last, err := rd.Next()
				if err != nil {
					fail(err)
					return
				}
				if ra == nil {
					return
				}
				if err := q.BeginRead(ra.ID, tid); err != nil {
					fail(err)
					return
				}
				text = text[:0]
				if ra.ID >= skipBelow {
					text = render(text, opts.OutFormat, ra, rb)
				}
				if err := q.FinishRead(ra.ID, tid, text); err != nil {
					fail(err)
					return
				}
				if last {
					return
				}
			}
		}(t)
	}
	wg.Wait()

	if err := q.Flush(true); err != nil {
		fail(err)
	}
	if err := closeOuts(); err != nil {
		fail(err)
	}

	errMu.Lock()
	err = firstErr
	errMu.Unlock()
	if isBrokenPipe(err) {
		return 0
	}
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 1
	}
	if parent.Err() != nil {
		return 130
	}

	if !opts.Quiet {
		var nbytes uint64
		for _, c := range counters {
			nbytes += c.n
		}
		_, _ = fmt.Fprintf(stderr, "readpump: %d records (%s) in %v\n",
			q.NumFlushed(), bytefmt.ByteSize(nbytes), time.Since(start).Round(time.Millisecond))
	}
	return 0
}

func Run(argv []string, stdout, stderr io.Writer) int {
	return RunContext(context.Background(), argv, stdout, stderr)
}

func mapFormat(f string) source.Format {
	switch f {
	case cli.FormatFASTA:
		return source.FormatFASTA
	case cli.FormatTab:
		return source.FormatTabbed
	case cli.FormatRaw:
		return source.FormatRaw
	case cli.FormatVector:
		return source.FormatVector
	default:
		return source.FormatFASTQ
	}
}

// countWriter tallies bytes for the run summary. Writes are already
// serialized per stream by the output queue's locks.
type countWriter struct {
	w io.Writer
	n uint64
}

func (c *countWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += uint64(n)
	return n, err
}

// openOutputs resolves -o and --shards into the queue's output streams.
// Stdout is the already-buffered writer; files go through xopen so a .gz
// suffix compresses transparently.
func openOutputs(opts cli.Options, stdout io.Writer) ([]io.Writer, []*countWriter, func() error, error) {
	if opts.Output == "-" {
		cw := &countWriter{w: stdout}
		return []io.Writer{cw}, []*countWriter{cw}, func() error { return nil }, nil
	}

	paths := []string{opts.Output}
	if opts.Shards > 1 {
		paths = paths[:0]
		for i := 0; i < opts.Shards; i++ {
			paths = append(paths, fmt.Sprintf("%s.%d", opts.Output, i))
		}
	}

	var (
		outs     []io.Writer
		counters []*countWriter
		files    []*xopen.Writer
	)
	closeAll := func() error {
		var first error
		for _, f := range files {
			if err := f.Close(); err != nil && first == nil {
				first = err
			}
		}
		return first
	}
	for _, p := range paths {
		w, err := xopen.Wopen(p)
		if err != nil {
			_ = closeAll()
			return nil, nil, nil, fmt.Errorf("open output %s: %w", p, err)
		}
		files = append(files, w)
		cw := &countWriter{w: w}
		outs = append(outs, cw)
		counters = append(counters, cw)
	}
	return outs, counters, closeAll, nil
}
