package source_test

import (
	"testing"

	"readpump/source"
)

func TestVectorBasic(t *testing.T) {
	p := newParams(source.FormatVector)
	s := source.NewVector(p, []string{"ACGT:IJKL", "GGGG"})
	recs := drain(t, s, 0, 0)
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	if recs[0].name != "0" || recs[0].seq != "ACGT" || recs[0].qual != "IJKL" {
		t.Fatalf("record 0 = %+v", recs[0])
	}
	// Missing quality pads with the maximum value.
	if recs[1].name != "1" || recs[1].seq != "GGGG" || recs[1].qual != "IIII" {
		t.Fatalf("record 1 = %+v", recs[1])
	}
	checkIDs(t, recs)
}

func TestVectorSkip(t *testing.T) {
	p := newParams(source.FormatVector)
	p.Skip = 2
	s := source.NewVector(p, []string{"AAAA", "CCCC", "GGGG", "TTTT"})
	recs := drain(t, s, 0, 0)
	if len(recs) != 2 || recs[0].seq != "GGGG" || recs[1].seq != "TTTT" {
		t.Fatalf("records = %+v, want the last two entries", recs)
	}
	// Ids restart at zero: skipped entries never enter the id space.
	checkIDs(t, recs)
}

func TestVectorTrims(t *testing.T) {
	p := newParams(source.FormatVector)
	p.Trim5 = 1
	p.Trim3 = 1
	s := source.NewVector(p, []string{"ACGT:IJKL", "AG"})
	recs := drain(t, s, 0, 0)
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	if recs[0].seq != "CG" || recs[0].qual != "JK" {
		t.Fatalf("record 0 = %+v, want trimmed CG/JK", recs[0])
	}
	// Entries shorter than the combined trims become empty records.
	if recs[1].seq != "" {
		t.Fatalf("record 1 = %+v, want empty sequence", recs[1])
	}
}
