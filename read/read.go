// Package read holds the sequence-record and batch-buffer types shared by
// the record sources, the dispatcher and the per-worker readers.
package read

import (
	"bytes"
	"strconv"
)

// Bases are stored alphabet-coded: 0=A 1=C 2=G 3=T 4=N.
const (
	BaseA = iota
	BaseC
	BaseG
	BaseT
	BaseN
)

// Asc2DNA maps an ASCII byte to its base code. Ambiguity codes and any
// other alphabetic byte collapse to N.
var Asc2DNA [256]byte

// DNA2Asc renders a base code back to ASCII.
var DNA2Asc = [5]byte{'A', 'C', 'G', 'T', 'N'}

func init() {
	for i := range Asc2DNA {
		Asc2DNA[i] = BaseN
	}
	set := func(c byte, v byte) {
		Asc2DNA[c] = v
		Asc2DNA[c|0x20] = v // lower case
	}
	set('A', BaseA)
	set('C', BaseC)
	set('G', BaseG)
	set('T', BaseT)
}

// Record is one sequence read. It is owned by a Batch slot until handed to
// the downstream consumer, then cleared and reused on the next batch.
type Record struct {
	Name []byte
	Seq  []byte // alphabet-coded, forward strand
	Qual []byte // Phred+33, one byte per base

	Trim5 int // bases removed from the 5' end
	Trim3 int // bases removed from the 3' end

	Mate int    // 0 = unpaired, 1, 2
	ID   uint64 // global record id
	Seed uint32 // per-record random seed

	// OrigBuf holds the verbatim source bytes sliced off by the light
	// parser for record-oriented formats. Byte-oriented formats leave it
	// empty and parse out of the batch's shared raw area instead.
	OrigBuf []byte

	// Raw and RawCur alias the owning batch's shared raw area and its
	// parse cursor when a byte-oriented light parser filled the batch.
	Raw    []byte
	RawCur *int

	// Parsed marks records that arrive fully parsed from the source
	// (in-memory and archive sources), so the heavy parse is skipped.
	Parsed bool
}

// Reset clears the record for reuse, keeping allocated capacity.
func (r *Record) Reset() {
	r.Name = r.Name[:0]
	r.Seq = r.Seq[:0]
	r.Qual = r.Qual[:0]
	r.Trim5 = 0
	r.Trim3 = 0
	r.Mate = 0
	r.ID = 0
	r.Seed = 0
	r.OrigBuf = r.OrigBuf[:0]
	r.Raw = nil
	r.RawCur = nil
	r.Parsed = false
}

// Empty reports whether no sequence has been installed yet.
func (r *Record) Empty() bool { return len(r.Seq) == 0 }

// SeqString renders the coded sequence as ASCII.
func (r *Record) SeqString() string {
	out := make([]byte, len(r.Seq))
	for i, c := range r.Seq {
		out[i] = DNA2Asc[c]
	}
	return string(out)
}

// SynthesizeName installs a name derived from the record id. Used when the
// input carries no name (raw format, absent FASTA/FASTQ headers).
func (r *Record) SynthesizeName() {
	r.Name = strconv.AppendUint(r.Name[:0], r.ID, 10)
}

// FixMateName truncates any existing "/..." suffix and appends /1 or /2.
func (r *Record) FixMateName(mate int) {
	if i := bytes.IndexByte(r.Name, '/'); i >= 0 {
		r.Name = r.Name[:i]
	}
	r.Name = append(r.Name, '/', byte('0'+mate))
}
