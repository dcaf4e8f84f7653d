package source_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/pgzip"

	"readpump/source"
)

const smallFastq = "@r1\nACGT\n+\nIIII\n@r2\nGGGG\n+r2\nJJJJ\n@r3\nTTTT\n+\nKKKK\n"

func TestFastqBasic(t *testing.T) {
	dir := t.TempDir()
	f := writeFile(t, dir, "in.fq", smallFastq)
	p := newParams(source.FormatFASTQ)
	recs := drain(t, newSource(t, p, f), 0, 0)

	want := []drained{
		{id: 0, name: "r1", seq: "ACGT", qual: "IIII"},
		{id: 1, name: "r2", seq: "GGGG", qual: "JJJJ"},
		{id: 2, name: "r3", seq: "TTTT", qual: "KKKK"},
	}
	if len(recs) != len(want) {
		t.Fatalf("got %d records, want %d", len(recs), len(want))
	}
	for i, w := range want {
		if recs[i] != w {
			t.Errorf("record %d = %+v, want %+v", i, recs[i], w)
		}
	}
	if p.Counter.Total() != 3 {
		t.Fatalf("counter total = %d, want 3", p.Counter.Total())
	}
}

func TestFastqTinyFillTargetKeepsRecordsWhole(t *testing.T) {
	// A fill target far below one record forces the boundary extension on
	// every batch; records must still come through whole and in order.
	dir := t.TempDir()
	var sb strings.Builder
	for i := 0; i < 50; i++ {
		sb.WriteString("@read")
		sb.WriteByte(byte('0' + i%10))
		sb.WriteString("\nACGTACGTACGT\n+\nIIIIIIIIIIII\n")
	}
	f := writeFile(t, dir, "in.fq", sb.String())
	p := newParams(source.FormatFASTQ)
	p.RawTarget = 8
	recs := drain(t, newSource(t, p, f), 0, 8)
	if len(recs) != 50 {
		t.Fatalf("got %d records, want 50", len(recs))
	}
	checkIDs(t, recs)
	for i, r := range recs {
		if r.seq != "ACGTACGTACGT" {
			t.Fatalf("record %d: seq = %q, split across batches", i, r.seq)
		}
	}
}

func TestFastqNoTrailingNewline(t *testing.T) {
	dir := t.TempDir()
	f := writeFile(t, dir, "in.fq", "@r1\nACGT\n+\nIIII")
	p := newParams(source.FormatFASTQ)
	recs := drain(t, newSource(t, p, f), 0, 0)
	if len(recs) != 1 || recs[0].qual != "IIII" {
		t.Fatalf("records = %+v, want one complete record", recs)
	}
}

func TestFastqMultiFile(t *testing.T) {
	dir := t.TempDir()
	f1 := writeFile(t, dir, "a.fq", "@a\nAAAA\n+\nIIII\n")
	f2 := writeFile(t, dir, "b.fq", "@b\nCCCC\n+\nIIII\n")
	p := newParams(source.FormatFASTQ)
	recs := drain(t, newSource(t, p, f1, f2), 0, 0)
	if len(recs) != 2 || recs[0].name != "a" || recs[1].name != "b" {
		t.Fatalf("records = %+v, want a then b", recs)
	}
	checkIDs(t, recs)
}

func TestFastqGzipInput(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "in.fq.gz")
	fh, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	zw := pgzip.NewWriter(fh)
	if _, err := zw.Write([]byte(smallFastq)); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	if err := fh.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	p := newParams(source.FormatFASTQ)
	recs := drain(t, newSource(t, p, path), 0, 0)
	if len(recs) != 3 || recs[2].name != "r3" {
		t.Fatalf("records = %+v, want the three compressed records", recs)
	}
}

func TestFastqTrims(t *testing.T) {
	dir := t.TempDir()
	f := writeFile(t, dir, "in.fq", "@r1\nACGT\n+\nIJKL\n")
	p := newParams(source.FormatFASTQ)
	p.Trim5 = 1
	p.Trim3 = 1
	recs := drain(t, newSource(t, p, f), 0, 0)
	if len(recs) != 1 || recs[0].seq != "CG" || recs[0].qual != "JK" {
		t.Fatalf("records = %+v, want trimmed CG/JK", recs)
	}
}

func TestFastqPhred64(t *testing.T) {
	dir := t.TempDir()
	f := writeFile(t, dir, "in.fq", "@r1\nACGT\n+\nhhhh\n")
	p := newParams(source.FormatFASTQ)
	p.Phred64 = true
	recs := drain(t, newSource(t, p, f), 0, 0)
	if len(recs) != 1 || recs[0].qual != "IIII" {
		t.Fatalf("records = %+v, want Phred+64 remapped to IIII", recs)
	}
}

func TestFastqIntQuals(t *testing.T) {
	dir := t.TempDir()
	f := writeFile(t, dir, "in.fq", "@r1\nACGT\n+\n40 30 -2 40\n")
	p := newParams(source.FormatFASTQ)
	p.IntQuals = true
	recs := drain(t, newSource(t, p, f), 0, 0)
	if len(recs) != 1 || recs[0].qual != "I?!I" {
		t.Fatalf("records = %+v, want integer qualities decoded", recs)
	}
}

func TestFastqSpaceInQualsFatal(t *testing.T) {
	dir := t.TempDir()
	f := writeFile(t, dir, "in.fq", "@r1\nACGT\n+\n40 30 20 40\n")
	p := newParams(source.FormatFASTQ)
	_, err := drainErr(newSource(t, p, f), 0, 0)
	if err == nil || !strings.Contains(err.Error(), "--int-quals") {
		t.Fatalf("err = %v, want the --int-quals hint", err)
	}
	if !source.IsFatal(err) {
		t.Fatalf("err = %v, want fatal", err)
	}
}

func TestFastqQualLengthMismatchFatal(t *testing.T) {
	dir := t.TempDir()
	f := writeFile(t, dir, "in.fq", "@r1\nACGT\n+\nII\n")
	p := newParams(source.FormatFASTQ)
	_, err := drainErr(newSource(t, p, f), 0, 0)
	if err == nil || !strings.Contains(err.Error(), "quality") {
		t.Fatalf("err = %v, want quality length diagnostic", err)
	}
}

func TestFastqWrongFirstByteFatal(t *testing.T) {
	dir := t.TempDir()
	f := writeFile(t, dir, "in.fq", ">r1\nACGT\n")
	p := newParams(source.FormatFASTQ)
	_, err := drainErr(newSource(t, p, f), 0, 0)
	if err == nil || !source.IsFatal(err) {
		t.Fatalf("err = %v, want fatal format error", err)
	}
}

func TestFastqMissingFilesSkippedWithWarning(t *testing.T) {
	dir := t.TempDir()
	f := writeFile(t, dir, "in.fq", "@r1\nACGT\n+\nIIII\n")
	var warn strings.Builder
	p := newParams(source.FormatFASTQ)
	p.Warn = &warn
	recs := drain(t, newSource(t, p, filepath.Join(dir, "missing.fq"), f), 0, 0)
	if len(recs) != 1 {
		t.Fatalf("got %d records, want the one from the valid file", len(recs))
	}
	if !strings.Contains(warn.String(), "skipping") {
		t.Fatalf("warning = %q, want a skip notice", warn.String())
	}
}

func TestFastqNoValidFilesFatal(t *testing.T) {
	dir := t.TempDir()
	p := newParams(source.FormatFASTQ)
	_, err := drainErr(newSource(t, p, filepath.Join(dir, "nope.fq")), 0, 0)
	if err == nil || !strings.Contains(err.Error(), "no input read files were valid") {
		t.Fatalf("err = %v, want no-valid-files diagnostic", err)
	}
}
