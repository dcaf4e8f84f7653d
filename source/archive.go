package source

import (
	"sync"

	"readpump/read"
)

// PairReader is the external genomic-archive collaborator: given an
// accession it yields name/sequence/quality pairs one at a time. The
// second record is left empty for unpaired fragments.
type PairReader interface {
	NextPair(ra, rb *read.Record) (found bool, err error)
}

type archivePair struct {
	a, b read.Record
}

// ArchiveSource drains records produced by a background goroutine running
// the PairReader. The bounded channel is the producer/consumer ring: the
// producer blocks when it is full, the consumer blocks when it is empty,
// and closing it signals exhaustion.
type ArchiveSource struct {
	p  *Params
	mu sync.Mutex
	ch chan archivePair

	errMu sync.Mutex
	err   error
}

// DefaultArchiveDepth bounds in-flight pairs per run.
const DefaultArchiveDepth = 4096

// NewArchive starts the producer goroutine immediately.
func NewArchive(p *Params, r PairReader, depth int) *ArchiveSource {
	if depth <= 0 {
		depth = DefaultArchiveDepth
	}
	s := &ArchiveSource{p: p, ch: make(chan archivePair, depth)}
	go s.produce(r)
	return s
}

func (s *ArchiveSource) produce(r PairReader) {
	defer close(s.ch)
	for {
		var pr archivePair
		found, err := r.NextPair(&pr.a, &pr.b)
		if err != nil {
			s.errMu.Lock()
			s.err = Fatalf("archive read failed: %v", err)
			s.errMu.Unlock()
			return
		}
		if !found {
			return
		}
		pr.a.Parsed = true
		if !pr.b.Empty() {
			pr.b.Parsed = true
		}
		s.ch <- pr
	}
}

func (s *ArchiveSource) producerErr() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

func (s *ArchiveSource) NextBatch(pt *read.Batch, batchA, lock bool) (bool, int, error) {
	if lock {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	n := 0
	done := false
fill:
	for n < len(pt.BufA) {
		if n == 0 {
			// Block for the first pair; an empty-but-alive producer must
			// not surface as a zero batch.
			pr, ok := <-s.ch
			if !ok {
				done = true
				break
			}
			s.install(pt, n, &pr)
			n++
			continue
		}
		select {
		case pr, ok := <-s.ch:
			if !ok {
				done = true
				break fill
			}
			s.install(pt, n, &pr)
			n++
		default:
			// Producer momentarily behind; ship what we have rather
			// than holding the batch hostage.
			break fill
		}
	}
	if err := s.producerErr(); err != nil && done {
		return true, 0, err
	}
	if batchA && n > 0 {
		base := s.p.Counter.Next(uint64(n))
		pt.SetBase(base, n)
	}
	return done, n, nil
}

func (s *ArchiveSource) install(pt *read.Batch, i int, pr *archivePair) {
	a := &pt.BufA[i]
	b := &pt.BufB[i]
	*a = pr.a
	if pr.b.Parsed {
		*b = pr.b
		if len(b.Name) == 0 {
			b.Name = append(b.Name[:0], a.Name...)
		}
		b.Trim5, b.Trim3 = s.p.Trim5, s.p.Trim3
	}
	a.Trim5, a.Trim3 = s.p.Trim5, s.p.Trim3
}

// Parse is a no-op: archive records arrive fully parsed.
func (s *ArchiveSource) Parse(ra, rb *read.Record) (bool, error) { return true, nil }
