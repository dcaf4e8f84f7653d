package source

import (
	"bytes"
	"io"

	"readpump/read"
)

// tabbedSource reads one record, or one mate pair, per tab-delimited
// line: name, sequence, quality[, name2, sequence2, quality2]. A 5-field
// line is a pair whose second mate reuses the first name.
type tabbedSource struct {
	fileSource
}

func newTabbedSource(p *Params, files []string) *tabbedSource {
	s := &tabbedSource{fileSource: newFileSource(p, files)}
	s.fromFile = s.nextBatchFromFile
	return s
}

func (s *tabbedSource) nextBatchFromFile(pt *read.Batch, batchA bool) (bool, int, error) {
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
		if c == '>' || c == '@' {
			return true, 0, badFormat("tab-delimited", c)
		}
		_ = s.br.UnreadByte()
		s.first = false
	}
	return s.fillLines(buf)
}

// fillLines slices one verbatim line per slot, skipping blank lines.
// Shared with the raw format.
func (s *fileSource) fillLines(buf []read.Record) (bool, int, error) {
	done := false
	readi := 0
	for readi < len(buf) && !done {
		slot := &buf[readi]
		slot.OrigBuf = slot.OrigBuf[:0]
		for {
			c, err := s.br.ReadByte()
			if err != nil {
				done = true
				break
			}
			if c == '\n' {
				break
			}
			if c == '\r' {
				continue
			}
			slot.OrigBuf = append(slot.OrigBuf, c)
		}
		if len(slot.OrigBuf) == 0 {
			if done {
				break
			}
			continue // blank line
		}
		readi++
	}
	return done, readi, nil
}

func (s *tabbedSource) Parse(ra, rb *read.Record) (bool, error) {
	fields := bytes.Split(ra.OrigBuf, []byte{'\t'})
	switch len(fields) {
	case 3:
		return true, s.parseEnd(ra, fields[0], fields[1], fields[2])
	case 5:
		if err := s.parseEnd(ra, fields[0], fields[1], fields[2]); err != nil {
			return false, err
		}
		return true, s.parseEnd(rb, fields[0], fields[3], fields[4])
	case 6:
		if err := s.parseEnd(ra, fields[0], fields[1], fields[2]); err != nil {
			return false, err
		}
		return true, s.parseEnd(rb, fields[3], fields[4], fields[5])
	default:
		return false, Fatalf("malformed tab-delimited record (%d fields): %q", len(fields), ra.OrigBuf)
	}
}

func (s *tabbedSource) parseEnd(r *read.Record, name, seq, qual []byte) error {
	r.Name = append(r.Name[:0], name...)
	nchar := installSeq(r, seq, s.p.Trim5)
	finishSeqTrim(r, nchar, s.p.Trim3)
	var err error
	if s.p.IntQuals {
		err = s.p.installQualsInt(r, qual)
	} else {
		err = s.p.installQualsASCII(r, qual)
	}
	if err != nil {
		return err
	}
	if len(r.Name) == 0 {
		r.SynthesizeName()
	}
	r.Parsed = true
	return nil
}
