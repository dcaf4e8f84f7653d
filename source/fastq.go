package source

import (
	"bytes"
	"io"

	"readpump/read"
)

// fastqSource reads FASTQ. Its light parse is byte-oriented: it fills the
// batch's raw area up to the fill target and then keeps reading into the
// reserved headroom until a record boundary, so no worker ever sees a
// truncated trailing record. Field extraction happens in Parse, walking
// the raw area through the batch's raw cursor.
type fastqSource struct {
	fileSource

	// recordCap > 0 switches to record-counted fills. The paired
	// dispatcher needs both mate files to produce identical batch sizes,
	// which a byte target cannot guarantee.
	recordCap int
}

func newFastqSource(p *Params, files []string) *fastqSource {
	s := &fastqSource{fileSource: newFileSource(p, files)}
	s.fromFile = s.nextBatchFromFile
	return s
}

func newPairedFastqSource(p *Params, files []string) *fastqSource {
	s := newFastqSource(p, files)
	s.recordCap = p.BatchSize
	if s.recordCap <= 0 {
		s.recordCap = read.DefaultBatchSize
	}
	return s
}

func (s *fastqSource) nextBatchFromFile(pt *read.Batch, batchA bool) (bool, int, error) {
	pt.UseRaw = true
	raw := pt.RawA
	if !batchA {
		raw = pt.RawB
	}
	n := 0
	if s.first {
		c, err := s.getSkippingNewlines()
		if err == io.EOF {
			return true, 0, nil
		}
		if err != nil {
			return true, 0, err
		}
		if c != '@' {
			return true, 0, badFormat("FASTQ", c)
		}
		s.first = false
		raw[0] = '@'
		n = 1
	}

	var done bool
	var err error
	if s.recordCap > 0 {
		n, done, err = s.fillRecords(raw, n)
	} else {
		n, done, err = s.fillBytes(raw, n, pt.RawTarget())
	}
	if err != nil {
		return true, 0, err
	}
	if n > 0 && raw[n-1] != '\n' {
		// EOF without a trailing newline; complete the final line so the
		// record count below stays exact.
		raw[n] = '\n'
		n++
	}
	nrec := bytes.Count(raw[:n], []byte{'\n'}) / 4
	if batchA {
		pt.RawLenA = n
	} else {
		pt.RawLenB = n
	}
	return done, nrec, nil
}

// fillRecords reads exactly recordCap records (or to EOF), counting
// newline quadruplets.
func (s *fastqSource) fillRecords(raw []byte, n int) (int, bool, error) {
	newlines := 0
	for newlines < 4*s.recordCap {
		if n >= len(raw) {
			return n, false, Fatalf("FASTQ record batch overflows the raw buffer (%d bytes); records too long", len(raw))
		}
		c, err := s.br.ReadByte()
		if err != nil {
			return n, true, nil
		}
		raw[n] = c
		n++
		if c == '\n' {
			newlines++
		}
	}
	return n, false, nil
}

// fillBytes reads up to target bytes and then extends into the headroom
// until a coherent record boundary: a newline following a line that began
// with '@', with the next byte looking like the start of a sequence line.
// The boundary test is a heuristic; the headroom keeps it safe when it
// overshoots into the following record.
func (s *fastqSource) fillBytes(raw []byte, n, target int) (int, bool, error) {
	for n < target {
		c, err := s.br.ReadByte()
		if err != nil {
			return n, true, nil
		}
		raw[n] = c
		n++
	}

	// Extend to the end of the current record.
	headroom := len(raw) - n - 1 // one byte kept for the closing newline
	i := 0
	var prevC, prevLineStart byte
	newRecord := false
	newlines := 0
	c, err := s.br.ReadByte()
	for err == nil && i < headroom && (!newRecord || newlines < 4) {
		raw[n+i] = c
		prevC = c
		i++
		var nc byte
		nc, err = s.br.ReadByte()
		if err == nil {
			if !newRecord &&
				(prevC == '\n' || prevC == '\r') &&
				prevLineStart == '@' &&
				(nc >= 'A' || nc == '*' || nc == '-') {
				newRecord = true
				newlines = 1
			}
			if prevC == '\n' || prevC == '\r' {
				prevLineStart = nc
			}
			if nc == '\n' || nc == '\r' {
				newlines++
			}
		}
		c = nc
	}
	if err == nil && i < len(raw)-n {
		// The boundary scan stops with the record's closing newline still
		// in hand; keep it so the last record ends on a line boundary.
		raw[n+i] = c
		i++
	}
	return n + i, err != nil, nil
}

// Parse extracts the next record (and its mate, for paired input) from
// the batch's raw areas. Runs on the worker with no lock held.
func (s *fastqSource) Parse(ra, rb *read.Record) (bool, error) {
	ok, err := s.parseOne(ra)
	if err != nil || !ok {
		return ok, err
	}
	if rb.RawCur != nil && !rb.Parsed {
		return s.parseOne(rb)
	}
	return true, nil
}

func (s *fastqSource) parseOne(r *read.Record) (bool, error) {
	raw := r.Raw
	cur := *r.RawCur

	// Resynchronize on the next record marker; trailing bytes with no
	// marker mean the batch is spent.
	for cur < len(raw) && raw[cur] != '@' {
		cur++
	}
	if cur >= len(raw)-1 {
		*r.RawCur = len(raw)
		return false, nil
	}
	cur++ // past '@'

	// Name line.
	c := raw[cur]
	cur++
	for c != '\n' && c != '\r' {
		r.Name = append(r.Name, c)
		if cur >= len(raw) {
			return false, s.truncated(r)
		}
		c = raw[cur]
		cur++
	}
	for c == '\n' || c == '\r' {
		if cur >= len(raw) {
			return false, s.truncated(r)
		}
		c = raw[cur]
		cur++
	}

	// Sequence, up to the '+' separator line.
	nchar := 0
	for c != '+' {
		if c == '.' {
			c = 'N'
		}
		if isAlpha(c) {
			if nchar >= s.p.Trim5 {
				r.Seq = append(r.Seq, read.Asc2DNA[c])
			}
			nchar++
		}
		if cur >= len(raw) {
			return false, s.truncated(r)
		}
		c = raw[cur]
		cur++
	}
	finishSeqTrim(r, nchar, s.p.Trim3)

	// '+' line; may repeat the name, ignored.
	for c != '\n' && c != '\r' {
		if cur >= len(raw) {
			return false, s.truncated(r)
		}
		c = raw[cur]
		cur++
	}
	for cur < len(raw) && (c == '\n' || c == '\r') {
		c = raw[cur]
		cur++
	}

	// Quality line: everything from c to the newline.
	qstart := cur - 1
	for cur < len(raw) && raw[cur] != '\n' && raw[cur] != '\r' {
		cur++
	}
	qline := raw[qstart:cur]
	var err error
	if s.p.IntQuals {
		err = s.p.installQualsInt(r, qline)
	} else {
		err = s.p.installQualsASCII(r, qline)
	}
	if err != nil {
		return false, err
	}
	for cur < len(raw) && (raw[cur] == '\n' || raw[cur] == '\r') {
		cur++
	}

	if len(r.Name) == 0 {
		r.SynthesizeName()
	}
	r.Parsed = true
	*r.RawCur = cur
	return true, nil
}

func (s *fastqSource) truncated(r *read.Record) error {
	name := string(r.Name)
	if name == "" {
		name = "(unnamed)"
	}
	return Fatalf("malformed FASTQ record %s: unexpected end of record", name)
}
