package app

import (
	"readpump/internal/cli"
	"readpump/read"
)

// appendFastq renders one record as a four-line FASTQ block.
func appendFastq(dst []byte, r *read.Record) []byte {
	dst = append(dst, '@')
	dst = append(dst, r.Name...)
	dst = append(dst, '\n')
	for _, c := range r.Seq {
		dst = append(dst, read.DNA2Asc[c])
	}
	dst = append(dst, '\n', '+', '\n')
	dst = append(dst, r.Qual...)
	dst = append(dst, '\n')
	return dst
}

// appendTab renders a record (or pair) as one tab-delimited line:
// name, then seq/qual per end.
func appendTab(dst []byte, ra, rb *read.Record) []byte {
	dst = append(dst, ra.Name...)
	for _, r := range []*read.Record{ra, rb} {
		if r == nil {
			break
		}
		dst = append(dst, '\t')
		for _, c := range r.Seq {
			dst = append(dst, read.DNA2Asc[c])
		}
		dst = append(dst, '\t')
		dst = append(dst, r.Qual...)
	}
	dst = append(dst, '\n')
	return dst
}

// render writes the output text for one record or pair. Pairs render as
// consecutive FASTQ blocks (mate 1 then mate 2) or a single tab line.
func render(dst []byte, format string, ra, rb *read.Record) []byte {
	if format == cli.OutTab {
		return appendTab(dst, ra, rb)
	}
	dst = appendFastq(dst, ra)
	if rb != nil {
		dst = appendFastq(dst, rb)
	}
	return dst
}
