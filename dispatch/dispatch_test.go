package dispatch_test

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"readpump/dispatch"
	"readpump/read"
	"readpump/source"
)

func newParams(f source.Format) *source.Params {
	return &source.Params{
		Format:  f,
		Counter: &source.Counter{},
		Warn:    io.Discard,
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func fastqOf(names ...string) string {
	var sb strings.Builder
	for _, n := range names {
		sb.WriteString("@" + n + "\nACGT\n+\nIIII\n")
	}
	return sb.String()
}

type got struct {
	id     uint64
	name   string
	mate   int
	bName  string
	paired bool
	last   bool
}

func pull(t *testing.T, rd *dispatch.Reader) []got {
	t.Helper()
	var out []got
	for {
		ra, rb, last, err := rd.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if ra == nil {
			return out
		}
		g := got{id: ra.ID, name: string(ra.Name), mate: ra.Mate, last: last}
		if rb != nil {
			g.paired = true
			g.bName = string(rb.Name)
			if rb.ID != ra.ID || rb.Mate != 2 {
				t.Fatalf("mate record: id %d mate %d, want id %d mate 2", rb.ID, rb.Mate, ra.ID)
			}
		}
		out = append(out, g)
		if last {
			// The run must end right after the record flagged last.
			ra, rb, done, err := rd.Next()
			if err != nil || ra != nil || rb != nil || !done {
				t.Fatalf("after last: %v %v %v %v", ra, rb, done, err)
			}
			return out
		}
	}
}

func TestSoloUnpairedOrderAndLast(t *testing.T) {
	dir := t.TempDir()
	f1 := writeFile(t, dir, "a.fq", fastqOf("a0", "a1", "a2"))
	f2 := writeFile(t, dir, "b.fq", fastqOf("b0", "b1"))
	p := newParams(source.FormatFASTQ)
	comp, err := dispatch.Setup(p, []string{f1, f2}, nil, nil, nil)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	recs := pull(t, dispatch.NewReader(comp, p))
	want := []string{"a0", "a1", "a2", "b0", "b1"}
	if len(recs) != len(want) {
		t.Fatalf("got %d records, want %d", len(recs), len(want))
	}
	for i, w := range want {
		r := recs[i]
		if r.name != w || r.id != uint64(i) || r.mate != 0 || r.paired {
			t.Fatalf("record %d = %+v, want unpaired %q with id %d", i, r, w, i)
		}
		if r.last != (i == len(want)-1) {
			t.Fatalf("record %d: last = %v", i, r.last)
		}
	}
}

func TestDualPairedLockStep(t *testing.T) {
	dir := t.TempDir()
	m1 := writeFile(t, dir, "r_1.fq", fastqOf("p0/1", "p1/1", "p2/1"))
	m2 := writeFile(t, dir, "r_2.fq", fastqOf("p0/2", "p1/2", "p2/2"))
	p := newParams(source.FormatFASTQ)
	p.BatchSize = 2
	comp, err := dispatch.Setup(p, nil, []string{m1}, []string{m2}, nil)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	recs := pull(t, dispatch.NewReader(comp, p))
	if len(recs) != 3 {
		t.Fatalf("got %d pairs, want 3", len(recs))
	}
	for i, r := range recs {
		wantA := fmt.Sprintf("p%d/1", i)
		wantB := fmt.Sprintf("p%d/2", i)
		if !r.paired || r.name != wantA || r.bName != wantB || r.id != uint64(i) || r.mate != 1 {
			t.Fatalf("pair %d = %+v, want %s + %s", i, r, wantA, wantB)
		}
	}
}

func TestDualPairedPlusSingles(t *testing.T) {
	dir := t.TempDir()
	m1 := writeFile(t, dir, "r_1.fq", fastqOf("p0"))
	m2 := writeFile(t, dir, "r_2.fq", fastqOf("p0"))
	u := writeFile(t, dir, "u.fq", fastqOf("u0", "u1"))
	p := newParams(source.FormatFASTQ)
	p.FixName = true
	comp, err := dispatch.Setup(p, []string{u}, []string{m1}, []string{m2}, nil)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	recs := pull(t, dispatch.NewReader(comp, p))
	if len(recs) != 3 {
		t.Fatalf("got %d records, want 3", len(recs))
	}
	if !recs[0].paired || recs[0].name != "p0/1" || recs[0].bName != "p0/2" {
		t.Fatalf("record 0 = %+v, want the fixed-name pair", recs[0])
	}
	if recs[1].paired || recs[1].name != "u0/1" {
		t.Fatalf("record 1 = %+v, want unpaired u0/1", recs[1])
	}
	for i, r := range recs {
		if r.id != uint64(i) {
			t.Fatalf("record %d has id %d", i, r.id)
		}
	}
}

func TestDualMateCountMismatchFatal(t *testing.T) {
	dir := t.TempDir()
	names1 := make([]string, 10)
	names2 := make([]string, 8)
	for i := range names1 {
		names1[i] = fmt.Sprintf("p%d", i)
	}
	for i := range names2 {
		names2[i] = fmt.Sprintf("p%d", i)
	}
	m1 := writeFile(t, dir, "r_1.fq", fastqOf(names1...))
	m2 := writeFile(t, dir, "r_2.fq", fastqOf(names2...))
	p := newParams(source.FormatFASTQ)
	comp, err := dispatch.Setup(p, nil, []string{m1}, []string{m2}, nil)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	rd := dispatch.NewReader(comp, p)
	var lastErr error
	for {
		ra, _, _, err := rd.Next()
		if err != nil {
			lastErr = err
			break
		}
		if ra == nil {
			break
		}
	}
	if lastErr == nil || !strings.Contains(lastErr.Error(), "fewer reads in file specified with -2") {
		t.Fatalf("err = %v, want the mate-count mismatch", lastErr)
	}
	if !source.IsFatal(lastErr) {
		t.Fatalf("err = %v, want fatal", lastErr)
	}
}

func TestFileParallelKeepsIDsGapless(t *testing.T) {
	dir := t.TempDir()
	f1 := writeFile(t, dir, "a.fq", fastqOf("a0", "a1"))
	f2 := writeFile(t, dir, "b.fq", fastqOf("b0", "b1", "b2"))
	p := newParams(source.FormatFASTQ)
	p.FileParallel = true
	comp, err := dispatch.Setup(p, []string{f1, f2}, nil, nil, nil)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	recs := pull(t, dispatch.NewReader(comp, p))
	if len(recs) != 5 {
		t.Fatalf("got %d records, want 5", len(recs))
	}
	seen := make(map[uint64]bool)
	for _, r := range recs {
		if r.id >= 5 || seen[r.id] {
			t.Fatalf("id %d out of range or repeated", r.id)
		}
		seen[r.id] = true
	}
}

func TestSetupRejectsEmptyInput(t *testing.T) {
	p := newParams(source.FormatFASTQ)
	if _, err := dispatch.Setup(p, nil, nil, nil, nil); err == nil {
		t.Fatal("Setup accepted an empty input set")
	}
}

func TestSetupRejectsUnbalancedMates(t *testing.T) {
	p := newParams(source.FormatFASTQ)
	if _, err := dispatch.Setup(p, nil, []string{"a"}, nil, nil); err == nil {
		t.Fatal("Setup accepted -1 without -2")
	}
}

func TestInterleavedTab(t *testing.T) {
	dir := t.TempDir()
	f := writeFile(t, dir, "in.tab", "p0\tACGT\tIIII\tTTTT\tJJJJ\np1\tGGGG\tIIII\tCCCC\tJJJJ\n")
	p := newParams(source.FormatTabbed)
	comp, err := dispatch.Setup(p, nil, nil, nil, []string{f})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	recs := pull(t, dispatch.NewReader(comp, p))
	if len(recs) != 2 || !recs[0].paired || !recs[1].paired {
		t.Fatalf("records = %+v, want two pairs", recs)
	}
	if recs[0].name != "p0" || recs[1].name != "p1" {
		t.Fatalf("names = %q, %q", recs[0].name, recs[1].name)
	}
}

func TestReaderSeedsAndMates(t *testing.T) {
	dir := t.TempDir()
	m1 := writeFile(t, dir, "r_1.fq", "@p0\nACGT\n+\nIIII\n")
	m2 := writeFile(t, dir, "r_2.fq", "@p0\nTTTT\n+\nJJJJ\n")
	p := newParams(source.FormatFASTQ)
	p.Seed = 77
	comp, err := dispatch.Setup(p, nil, []string{m1}, []string{m2}, nil)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	ra, rb, _, err := dispatch.NewReader(comp, p).Next()
	if err != nil || ra == nil || rb == nil {
		t.Fatalf("Next: %v %v %v", ra, rb, err)
	}
	if ra.Mate != 1 || rb.Mate != 2 {
		t.Fatalf("mates = %d/%d, want 1/2", ra.Mate, rb.Mate)
	}
	wantA := read.GenSeed(ra.Seq, ra.Qual, ra.Name, 77)
	wantB := read.GenSeed(rb.Seq, rb.Qual, rb.Name, 77)
	if ra.Seed != wantA || rb.Seed != wantB {
		t.Fatalf("seeds = %d/%d, want %d/%d", ra.Seed, rb.Seed, wantA, wantB)
	}
}

// scriptedPairReader drives the archive composer without a live backend.
type scriptedPairReader struct {
	n    int
	next int
}

func (r *scriptedPairReader) NextPair(ra, rb *read.Record) (bool, error) {
	if r.next >= r.n {
		return false, nil
	}
	ra.Name = append(ra.Name, fmt.Sprintf("f%d", r.next)...)
	ra.Seq = append(ra.Seq, read.BaseA, read.BaseC)
	ra.Qual = append(ra.Qual, 'I', 'I')
	rb.Seq = append(rb.Seq, read.BaseG, read.BaseT)
	rb.Qual = append(rb.Qual, 'I', 'I')
	r.next++
	return true, nil
}

func TestArchiveComposer(t *testing.T) {
	p := newParams(source.FormatArchive)
	comp := dispatch.NewArchiveComposer(p, &scriptedPairReader{n: 25}, 4)
	recs := pull(t, dispatch.NewReader(comp, p))
	if len(recs) != 25 {
		t.Fatalf("got %d pairs, want 25", len(recs))
	}
	for i, r := range recs {
		if !r.paired || r.id != uint64(i) {
			t.Fatalf("pair %d = %+v", i, r)
		}
	}
}
