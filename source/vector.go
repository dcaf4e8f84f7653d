package source

import (
	"bytes"
	"strconv"
	"sync"

	"readpump/read"
)

// VectorSource serves records given directly as strings, each entry
// "sequence[:quality]". Trimming happens at construction; quality is
// padded with the maximum value or truncated to match the sequence.
type VectorSource struct {
	p  *Params
	mu sync.Mutex

	recs []read.Record
	cur  int
}

// NewVector parses the entries eagerly. Leading-record skip applies here,
// at construction, since the records never pass through a light parse.
func NewVector(p *Params, entries []string) *VectorSource {
	s := &VectorSource{p: p}
	for i, e := range entries {
		var r read.Record
		seq := []byte(e)
		var qual []byte
		if j := bytes.IndexByte(seq, ':'); j >= 0 {
			qual = seq[j+1:]
			seq = seq[:j]
		}
		if len(seq) <= p.Trim5+p.Trim3 {
			seq = nil
		} else {
			seq = seq[p.Trim5 : len(seq)-p.Trim3]
		}
		if len(qual) > p.Trim5+p.Trim3 {
			qual = qual[p.Trim5 : len(qual)-p.Trim3]
		}
		for _, c := range seq {
			if c == '.' {
				c = 'N'
			}
			if isAlpha(c) {
				r.Seq = append(r.Seq, read.Asc2DNA[c])
			}
		}
		for _, c := range qual {
			if len(r.Qual) == len(r.Seq) {
				break
			}
			r.Qual = append(r.Qual, c)
		}
		for len(r.Qual) < len(r.Seq) {
			r.Qual = append(r.Qual, 'I')
		}
		r.Trim5 = p.Trim5
		r.Trim3 = p.Trim3
		r.Name = []byte(strconv.Itoa(i))
		r.Parsed = true
		s.recs = append(s.recs, r)
	}
	if p.Skip < uint64(len(s.recs)) {
		s.cur = int(p.Skip)
	} else {
		s.cur = len(s.recs)
	}
	return s
}

func (s *VectorSource) NextBatch(pt *read.Batch, batchA, lock bool) (bool, int, error) {
	if lock {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	buf := pt.BufA
	if !batchA {
		buf = pt.BufB
	}
	n := 0
	for n < len(buf) && s.cur < len(s.recs) {
		src := &s.recs[s.cur]
		dst := &buf[n]
		dst.Name = append(dst.Name[:0], src.Name...)
		dst.Seq = append(dst.Seq[:0], src.Seq...)
		dst.Qual = append(dst.Qual[:0], src.Qual...)
		dst.Trim5 = src.Trim5
		dst.Trim3 = src.Trim3
		dst.Parsed = true
		s.cur++
		n++
	}
	done := s.cur >= len(s.recs)
	if batchA && n > 0 {
		base := s.p.Counter.Next(uint64(n))
		pt.SetBase(base, n)
	}
	return done, n, nil
}

// Parse is a no-op: vector records arrive fully parsed.
func (s *VectorSource) Parse(ra, rb *read.Record) (bool, error) { return true, nil }
