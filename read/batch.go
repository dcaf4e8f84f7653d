package read

const (
	// DefaultBatchSize is the number of record slots per end.
	DefaultBatchSize = 16
	// DefaultRawTarget is the fill target for byte-oriented light parsers.
	DefaultRawTarget = 1 << 19
	// RawHeadroom is reserved past the fill target so a byte-oriented
	// light parser can always complete the trailing record boundary.
	RawHeadroom = 1 << 16
)

// Batch is a worker-private reusable buffer filled once per dispatch.
// Record-oriented formats fill the slot arrays (one raw record per slot);
// byte-oriented formats fill the shared raw areas and the heavy parser
// walks them record by record via the Raw cursors.
type Batch struct {
	BufA []Record // end A (or whole pairs for interleaved formats)
	BufB []Record // end B; untouched for unpaired input

	RawA, RawB       []byte // len = target + RawHeadroom
	RawLenA, RawLenB int    // valid bytes in RawA/RawB
	RawCurA, RawCurB int    // heavy-parse cursors into RawA/RawB
	UseRaw           bool   // set by byte-oriented light parsers

	baseID uint64 // id of the first record in the batch
	cur    int    // index of the current record
	nrec   int    // records produced by the last light parse
}

// NewBatch allocates a batch with the given slot count and raw fill
// target. Zero arguments select the defaults.
func NewBatch(slots, rawTarget int) *Batch {
	if slots <= 0 {
		slots = DefaultBatchSize
	}
	if rawTarget <= 0 {
		rawTarget = DefaultRawTarget
	}
	b := &Batch{
		BufA: make([]Record, slots),
		BufB: make([]Record, slots),
		RawA: make([]byte, rawTarget+RawHeadroom),
		RawB: make([]byte, rawTarget+RawHeadroom),
	}
	return b
}

// RawTarget is the byte-oriented fill target (excludes headroom).
func (b *Batch) RawTarget() int { return len(b.RawA) - RawHeadroom }

// Reset prepares the batch for a fresh light parse.
func (b *Batch) Reset() {
	for i := range b.BufA {
		b.BufA[i].Reset()
	}
	for i := range b.BufB {
		b.BufB[i].Reset()
	}
	b.RawLenA, b.RawLenB = 0, 0
	b.RawCurA, b.RawCurB = 0, 0
	b.UseRaw = false
	b.baseID = 0
	b.cur = 0
	b.nrec = 0
}

// SetBase installs the id range assigned to this batch: the first record
// gets id, slot i gets id+i, and n records were produced in total.
func (b *Batch) SetBase(id uint64, n int) {
	b.baseID = id
	b.nrec = n
}

// NumRecords is the record count set by the last light parse.
func (b *Batch) NumRecords() int { return b.nrec }

// ReadID is the global id of the current record.
func (b *Batch) ReadID() uint64 { return b.baseID + uint64(b.cur) }

// A returns the current end-A record slot. Byte-oriented batches reuse
// slot zero as the parse destination for every record.
func (b *Batch) A() *Record {
	if b.UseRaw {
		return &b.BufA[0]
	}
	return &b.BufA[b.cur]
}

// B returns the current end-B record slot.
func (b *Batch) B() *Record {
	if b.UseRaw {
		return &b.BufB[0]
	}
	return &b.BufB[b.cur]
}

// Advance moves the cursor to the next record. Byte-oriented batches also
// clear the destination slots; their raw cursors were advanced by the
// heavy parser.
func (b *Batch) Advance() {
	b.cur++
	if b.UseRaw {
		b.BufA[0].Reset()
		b.BufB[0].Reset()
	}
}

// Exhausted reports whether the current record is the last one available,
// i.e. the next request needs a fresh batch.
func (b *Batch) Exhausted() bool {
	if b.UseRaw {
		return b.RawCurA >= b.RawLenA
	}
	return b.nrec == 0 || b.cur >= b.nrec-1
}

// IsLastRecord reports whether the current record is the final one of
// this batch.
func (b *Batch) IsLastRecord() bool {
	if b.UseRaw {
		return b.RawCurA >= b.RawLenA
	}
	return b.cur == b.nrec-1
}
