package source

import (
	"io"

	"readpump/read"
)

// rawSource reads one unnamed sequence per line. Names are synthesized
// from the record id and quality is the constant maximum.
type rawSource struct {
	fileSource
}

func newRawSource(p *Params, files []string) *rawSource {
	s := &rawSource{fileSource: newFileSource(p, files)}
	s.fromFile = s.nextBatchFromFile
	return s
}

func (s *rawSource) nextBatchFromFile(pt *read.Batch, batchA bool) (bool, int, error) {
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
		if !isAlpha(c) {
			return true, 0, badFormat("raw", c)
		}
		_ = s.br.UnreadByte()
		s.first = false
	}
	return s.fillLines(buf)
}

func (s *rawSource) Parse(ra, rb *read.Record) (bool, error) {
	nchar := installSeq(ra, ra.OrigBuf, s.p.Trim5)
	finishSeqTrim(ra, nchar, s.p.Trim3)
	synthQuals(ra)
	ra.SynthesizeName()
	ra.Parsed = true
	return true, nil
}
