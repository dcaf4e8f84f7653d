// Package source implements the per-format record sources: the cheap,
// lock-protected "light parse" that slices raw bytes into a batch, and the
// expensive "heavy parse" that runs lock-free on a worker thread.
package source

import (
	"io"
	"os"
	"sync"

	"readpump/read"
)

// Format selects one of the closed set of input grammars.
type Format int

const (
	FormatFASTA Format = iota
	FormatFASTQ
	FormatTabbed
	FormatRaw
	FormatVector
	FormatArchive
)

func (f Format) String() string {
	switch f {
	case FormatFASTA:
		return "fasta"
	case FormatFASTQ:
		return "fastq"
	case FormatTabbed:
		return "tab"
	case FormatRaw:
		return "raw"
	case FormatVector:
		return "vector"
	case FormatArchive:
		return "archive"
	}
	return "unknown"
}

// Counter is the shared record-id counter. Each drawn batch reserves a
// gapless id range under its own lock, separate from any source lock.
type Counter struct {
	mu sync.Mutex
	n  uint64
}

// Next reserves n ids and returns the first of the range.
func (c *Counter) Next(n uint64) uint64 {
	c.mu.Lock()
	base := c.n
	c.n += n
	c.mu.Unlock()
	return base
}

// Total is the number of ids handed out so far.
func (c *Counter) Total() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

// Params carries the configuration consumed by record sources and the
// per-worker readers. Counter must be shared by every source of a run.
type Params struct {
	Format       Format
	Trim5        int    // bases to trim from the 5' end
	Trim3        int    // bases to trim from the 3' end
	Skip         uint64 // leading records to skip
	IntQuals     bool   // qualities are space-separated integers
	Phred64      bool   // ASCII qualities use the +64 offset
	Solexa       bool   // qualities are Solexa-scaled
	Seed         uint32 // global seed mixed into per-record seeds
	FixName      bool   // append /1 and /2 to mate names
	FileParallel bool   // one source per file instead of one source per list

	BatchSize int // record slots per batch (0 = default)
	RawTarget int // byte fill target for byte-oriented formats (0 = default)

	Counter *Counter
	Warn    io.Writer // one-shot warnings; defaults to os.Stderr
}

func (p *Params) warnw() io.Writer {
	if p.Warn != nil {
		return p.Warn
	}
	return os.Stderr
}

// Source is a format-specific record source.
//
// NextBatch performs the light parse: it fills one end of pt (end A when
// batchA, else end B) and returns whether every file of this source is
// exhausted and how many records were produced. When lock is true the
// source serializes the call on its own mutex; the paired dispatcher
// passes false and spans both draws with a single lock of its own. A
// (false, 0) result means "opened the next file, try again" and is
// retried by the dispatcher, never surfaced to workers.
//
// Parse performs the heavy parse for the batch's current record (pair)
// and must be called with no lock held. ok=false without an error means
// the raw bytes held no further record and the batch should be dropped.
type Source interface {
	NextBatch(pt *read.Batch, batchA, lock bool) (done bool, n int, err error)
	Parse(ra, rb *read.Record) (ok bool, err error)
}

// New builds a Source for a file-backed format over the given paths.
// Vector and archive sources have dedicated constructors.
func New(p *Params, files []string) (Source, error) {
	switch p.Format {
	case FormatFASTA:
		return newFastaSource(p, files), nil
	case FormatFASTQ:
		return newFastqSource(p, files), nil
	case FormatTabbed:
		return newTabbedSource(p, files), nil
	case FormatRaw:
		return newRawSource(p, files), nil
	default:
		return nil, Fatalf("format %s is not file-backed", p.Format)
	}
}

// NewPaired builds a Source destined for one side of a paired dispatch.
// FASTQ switches to record-counted fills there, so both mate files
// produce identical batch sizes; other formats are slot-bounded already.
func NewPaired(p *Params, files []string) (Source, error) {
	if p.Format == FormatFASTQ {
		return newPairedFastqSource(p, files), nil
	}
	return New(p, files)
}
