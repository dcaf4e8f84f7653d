package source

import (
	"io"

	"readpump/read"
)

// fastaSource reads FASTA records. The light parse slices one verbatim
// record per batch slot (leading '>' included); field extraction happens
// in Parse on the worker.
type fastaSource struct {
	fileSource
}

func newFastaSource(p *Params, files []string) *fastaSource {
	s := &fastaSource{fileSource: newFileSource(p, files)}
	s.fromFile = s.nextBatchFromFile
	return s
}

func (s *fastaSource) nextBatchFromFile(pt *read.Batch, batchA bool) (bool, int, error) {
	buf := pt.BufA
	if !batchA {
		buf = pt.BufB
	}
	if s.first {
		c, err := s.getSkippingNewlines()
		if err == io.EOF {
			return true, 0, nil
		}
		if err != nil {
			return true, 0, err
		}
		if c != '>' {
			return true, 0, badFormat("FASTA", c)
		}
		s.first = false
	}
	done := false
	readi := 0
	for readi < len(buf) && !done {
		slot := &buf[readi]
		slot.OrigBuf = append(slot.OrigBuf[:0], '>')
		for {
			c, err := s.br.ReadByte()
			if err != nil {
				done = true
				break
			}
			if c == '>' {
				break
			}
			slot.OrigBuf = append(slot.OrigBuf, c)
		}
		if done && len(slot.OrigBuf) == 1 {
			// EOF fell exactly on a record boundary; no record here.
			slot.OrigBuf = slot.OrigBuf[:0]
			break
		}
		readi++
	}
	return done, readi, nil
}

// Parse extracts name/sequence from the raw record sliced by the light
// parse. Quality is synthesized as the constant maximum per base.
func (s *fastaSource) Parse(ra, rb *read.Record) (bool, error) {
	if err := s.parseOne(ra); err != nil {
		return false, err
	}
	if len(rb.OrigBuf) > 0 && rb.Empty() {
		if err := s.parseOne(rb); err != nil {
			return false, err
		}
	}
	return true, nil
}

func (s *fastaSource) parseOne(r *read.Record) error {
	cur := read.NewCursor(r.OrigBuf)
	if c, ok := cur.Get(); !ok || c != '>' {
		return Fatalf("malformed FASTA record: missing '>'")
	}
	// Header line: name runs to the newline, truncated at the first '/'.
	sawSlash := false
	for {
		c, ok := cur.Get()
		if !ok {
			return Fatalf("malformed FASTA record %q: header without sequence", r.Name)
		}
		if c == '\n' || c == '\r' {
			break
		}
		if c == '/' {
			sawSlash = true
		}
		if !sawSlash {
			r.Name = append(r.Name, c)
		}
	}
	nchar := installSeq(r, r.OrigBuf[cur.Pos():], s.p.Trim5)
	finishSeqTrim(r, nchar, s.p.Trim3)
	synthQuals(r)
	if len(r.Name) == 0 {
		r.SynthesizeName()
	}
	r.Parsed = true
	return nil
}
