package source

import (
	"readpump/read"
)

func isAlpha(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

// installSeq appends the sequence bytes in raw to r.Seq, case-normalizing,
// mapping the '.' gap marker to N and skipping anything non-alphabetic.
// It returns the number of bases seen (before trimming); the first trim5
// of them are dropped. The caller applies the 3' trim via trimSeqEnd.
func installSeq(r *read.Record, raw []byte, trim5 int) int {
	nchar := 0
	for _, c := range raw {
		if c == '.' {
			c = 'N'
		}
		if !isAlpha(c) {
			continue
		}
		if nchar >= trim5 {
			r.Seq = append(r.Seq, read.Asc2DNA[c])
		}
		nchar++
	}
	return nchar
}

// trimEnd removes up to n trailing bytes from b and returns the trimmed
// slice and how many bytes were actually removed.
func trimEnd(b []byte, n int) ([]byte, int) {
	if n <= 0 {
		return b, 0
	}
	if n > len(b) {
		n = len(b)
	}
	return b[:len(b)-n], n
}

// finishSeqTrim records the trim bookkeeping after installSeq: nchar bases
// were read, the 5' trim already dropped some, and trim3 comes off the end
// now. Invariant: Trim5, Trim3 >= 0 and Trim5+Trim3 <= nchar.
func finishSeqTrim(r *read.Record, nchar, trim3 int) {
	var cut int
	r.Seq, cut = trimEnd(r.Seq, trim3)
	r.Trim5 = nchar - len(r.Seq) - cut
	r.Trim3 = cut
}

// synthQuals installs the constant maximum quality for every retained
// base. Used by formats that carry no quality information.
func synthQuals(r *read.Record) {
	for range r.Seq {
		r.Qual = append(r.Qual, 'I')
	}
}

// installQualsASCII decodes an ASCII quality run. The first trimmed5
// values are dropped and trimmed3 come off the end; the result must match
// the sequence length exactly. A space byte inside the run is a fatal
// format error.
func (p *Params) installQualsASCII(r *read.Record, raw []byte) error {
	nqual := 0
	for _, c := range raw {
		if c == ' ' {
			return wrongQualityFormat(r)
		}
		if c == '\r' || c == '\n' {
			break
		}
		q, err := read.Phred33FromChar(c, p.Solexa, p.Phred64)
		if err != nil {
			return Fatalf("read %s: %v", r.Name, err)
		}
		if nqual >= r.Trim5 {
			r.Qual = append(r.Qual, q)
		}
		nqual++
	}
	r.Qual, _ = trimEnd(r.Qual, r.Trim3)
	return p.checkQualLen(r)
}

// installQualsInt decodes a run of space-separated integer qualities.
func (p *Params) installQualsInt(r *read.Record, raw []byte) error {
	nqual := 0
	i := 0
	for i < len(raw) {
		c := raw[i]
		if c == ' ' || c == '\t' {
			i++
			continue
		}
		if c == '\r' || c == '\n' {
			break
		}
		neg := false
		if c == '-' {
			neg = true
			i++
		}
		num := 0
		sawDigit := false
		for i < len(raw) && raw[i] >= '0' && raw[i] <= '9' {
			num = num*10 + int(raw[i]-'0')
			sawDigit = true
			i++
		}
		if !sawDigit {
			return Fatalf("read %s: could not parse integer quality at %q", r.Name, raw[i:])
		}
		if neg {
			num = 0
		}
		if nqual >= r.Trim5 {
			r.Qual = append(r.Qual, read.Phred33FromInt(num, p.Solexa))
		}
		nqual++
	}
	r.Qual, _ = trimEnd(r.Qual, r.Trim3)
	return p.checkQualLen(r)
}

func (p *Params) checkQualLen(r *read.Record) error {
	if len(r.Qual) < len(r.Seq) {
		return Fatalf("read %s has more read characters than quality values", r.Name)
	}
	if len(r.Qual) > len(r.Seq) {
		return Fatalf("read %s has more quality values than read characters", r.Name)
	}
	return nil
}

func wrongQualityFormat(r *read.Record) error {
	return Fatalf("encountered one or more spaces while parsing the quality string for read %s; "+
		"if this is a FASTQ file with integer (non-ASCII-encoded) qualities, re-run with the --int-quals option", r.Name)
}
