package source_test

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"readpump/read"
	"readpump/source"
)

// drained is one record (or pair) pulled through a source the way a
// worker would: light parse under the lock, heavy parse outside it.
type drained struct {
	id         uint64
	name, seq, qual string
	paired     bool
	bName, bSeq, bQual string
}

func newParams(f source.Format) *source.Params {
	return &source.Params{
		Format:  f,
		Counter: &source.Counter{},
		Warn:    io.Discard,
	}
}

func newSource(t *testing.T, p *source.Params, files ...string) source.Source {
	t.Helper()
	s, err := source.New(p, files)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func drainErr(s source.Source, slots, rawTarget int) ([]drained, error) {
	pt := read.NewBatch(slots, rawTarget)
	var out []drained
	for {
		if pt.Exhausted() {
			pt.Reset()
			done, n, err := s.NextBatch(pt, true, true)
			if err != nil {
				return out, err
			}
			if n == 0 {
				if done {
					return out, nil
				}
				continue
			}
		} else {
			pt.Advance()
		}

		ra, rb := pt.A(), pt.B()
		ra.ID = pt.ReadID()
		rb.ID = ra.ID
		if pt.UseRaw {
			ra.Raw = pt.RawA[:pt.RawLenA]
			ra.RawCur = &pt.RawCurA
			if pt.RawLenB > 0 {
				rb.Raw = pt.RawB[:pt.RawLenB]
				rb.RawCur = &pt.RawCurB
			}
		}
		if !ra.Parsed {
			ok, err := s.Parse(ra, rb)
			if err != nil {
				return out, err
			}
			if !ok {
				continue
			}
		}

		d := drained{
			id:   ra.ID,
			name: string(ra.Name),
			seq:  ra.SeqString(),
			qual: string(ra.Qual),
		}
		if rb.Parsed || !rb.Empty() {
			d.paired = true
			d.bName = string(rb.Name)
			d.bSeq = rb.SeqString()
			d.bQual = string(rb.Qual)
		}
		out = append(out, d)
	}
}

func drain(t *testing.T, s source.Source, slots, rawTarget int) []drained {
	t.Helper()
	out, err := drainErr(s, slots, rawTarget)
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	return out
}

func checkIDs(t *testing.T, recs []drained) {
	t.Helper()
	for i, r := range recs {
		if r.id != uint64(i) {
			t.Fatalf("record %d has id %d; ids must be gapless and ordered", i, r.id)
		}
	}
}
