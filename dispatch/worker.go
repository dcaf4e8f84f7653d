package dispatch

import (
	"readpump/read"
	"readpump/source"
)

// Reader is the thread-facing facade over the composer: each worker owns
// one. It requests batches, runs the heavy parse with no lock held, and
// finalizes records (mate numbers, global id, per-record seed).
type Reader struct {
	comp Composer
	pp   *source.Params
	buf  *read.Batch

	lastBatch bool
}

// NewReader allocates the worker's batch buffer.
func NewReader(comp Composer, p *source.Params) *Reader {
	return &Reader{
		comp: comp,
		pp:   p,
		buf:  read.NewBatch(p.BatchSize, p.RawTarget),
	}
}

// Next yields the next record, or record pair (rb non-nil), in input
// order for this worker's batches. last is true when this record is the
// final one of the whole run; done-with-no-record is reported as
// (nil, nil, true, nil). Returned records are valid until the next call.
//
// An empty batch only terminates the run when the composer also reports
// exhaustion; otherwise the request is retried.
func (r *Reader) Next() (*read.Record, *read.Record, bool, error) {
	for {
		if r.buf.Exhausted() {
			r.buf.Reset()
			done, n, err := r.comp.NextBatch(r.buf)
			if err != nil {
				return nil, nil, true, err
			}
			if n == 0 {
				if done {
					return nil, nil, true, nil
				}
				continue
			}
			r.lastBatch = done
		} else {
			r.buf.Advance()
		}

		ra, rb := r.buf.A(), r.buf.B()
		ra.ID = r.buf.ReadID()
		rb.ID = ra.ID
		if r.buf.UseRaw {
			ra.Raw = r.buf.RawA[:r.buf.RawLenA]
			ra.RawCur = &r.buf.RawCurA
			if r.buf.RawLenB > 0 {
				rb.Raw = r.buf.RawB[:r.buf.RawLenB]
				rb.RawCur = &r.buf.RawCurB
			}
		}

		// Heavy parse, outside every lock.
		if !ra.Parsed {
			ok, err := r.comp.Parse(ra, rb)
			if err != nil {
				return nil, nil, true, err
			}
			if !ok {
				continue // raw tail held no record; fetch the next batch
			}
		}

		paired := rb.Parsed || !rb.Empty()
		if paired {
			r.finalizePair(ra, rb)
		} else {
			r.finalize(ra)
			rb = nil
		}
		last := r.lastBatch && r.buf.IsLastRecord()
		return ra, rb, last, nil
	}
}

func (r *Reader) finalize(ra *read.Record) {
	ra.Mate = 0
	ra.Seed = read.GenSeed(ra.Seq, ra.Qual, ra.Name, r.pp.Seed)
	if r.pp.FixName {
		ra.FixMateName(1)
	}
}

func (r *Reader) finalizePair(ra, rb *read.Record) {
	ra.Mate = 1
	rb.Mate = 2
	ra.Seed = read.GenSeed(ra.Seq, ra.Qual, ra.Name, r.pp.Seed)
	rb.Seed = read.GenSeed(rb.Seq, rb.Qual, rb.Name, r.pp.Seed)
	if r.pp.FixName {
		ra.FixMateName(1)
		rb.FixMateName(2)
	}
}
