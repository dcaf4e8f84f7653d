package source

import (
	"bufio"
	"fmt"
	"io"
	"sync"

	"readpump/read"
)

// fileSource is the shared base for file-backed sources: an ordered file
// list with a forward-only cursor, warn-once skipping of unopenable files,
// and the outer light-parse loop that advances to the next file on EOF.
// The concrete format supplies fromFile.
type fileSource struct {
	p     *Params
	files []string

	mu         sync.Mutex
	cur        int // next file index to try
	warned     []bool
	rc         io.ReadCloser
	br         *bufio.Reader
	opened     bool
	everOpened bool
	exhausted  bool
	first      bool // first byte of the current file not yet format-checked

	// fromFile fills one end of the batch from the open file. It reports
	// (fileDone, recordsProduced).
	fromFile func(pt *read.Batch, batchA bool) (bool, int, error)
}

func newFileSource(p *Params, files []string) fileSource {
	return fileSource{p: p, files: files, warned: make([]bool, len(files))}
}

func (s *fileSource) closeCurrent() {
	if s.rc != nil {
		_ = s.rc.Close()
		s.rc = nil
	}
	s.br = nil
	s.opened = false
}

// openNext opens the next openable file in the list. A file that cannot
// be opened is skipped with a one-time warning; running out of files is
// fatal only if no file ever opened.
func (s *fileSource) openNext() (bool, error) {
	s.closeCurrent()
	for s.cur < len(s.files) {
		path := s.files[s.cur]
		rc, err := openReader(path)
		if err != nil {
			if !s.warned[s.cur] {
				fmt.Fprintf(s.p.warnw(), "warning: could not open read file %q for reading; skipping...\n", path)
				s.warned[s.cur] = true
			}
			s.cur++
			continue
		}
		s.cur++
		s.rc = rc
		s.br = bufio.NewReaderSize(rc, 64*1024)
		s.opened = true
		s.everOpened = true
		s.first = true
		return true, nil
	}
	if !s.everOpened {
		return false, Fatalf("no input read files were valid")
	}
	return false, nil
}

// NextBatch runs the light parse under the source lock (unless the caller
// already holds a spanning lock) and reserves the batch's id range once
// the record count is known.
func (s *fileSource) NextBatch(pt *read.Batch, batchA, lock bool) (bool, int, error) {
	if lock {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	if s.exhausted {
		return true, 0, nil
	}
	if !s.opened {
		ok, err := s.openNext()
		if err != nil {
			return true, 0, err
		}
		if !ok {
			s.exhausted = true
			return true, 0, nil
		}
	}
	for {
		fileDone, n, err := s.fromFile(pt, batchA)
		if err != nil {
			return true, 0, err
		}
		if fileDone {
			ok, err := s.openNext()
			if err != nil {
				return true, 0, err
			}
			if !ok {
				s.exhausted = true
				s.reserve(pt, batchA, n)
				return true, n, nil
			}
			if n == 0 {
				continue // fresh file, nothing produced yet
			}
			s.reserve(pt, batchA, n)
			return false, n, nil
		}
		if n == 0 {
			continue
		}
		s.reserve(pt, batchA, n)
		return false, n, nil
	}
}

// reserve claims a gapless id range for the n records just produced. Only
// the end-A draw reserves; the end-B draw of a paired dispatch reuses the
// range claimed by its mate.
func (s *fileSource) reserve(pt *read.Batch, batchA bool, n int) {
	if !batchA || n == 0 {
		return
	}
	base := s.p.Counter.Next(uint64(n))
	pt.SetBase(base, n)
}

// getSkippingNewlines returns the next byte that is not part of vertical
// whitespace.
func (s *fileSource) getSkippingNewlines() (byte, error) {
	for {
		c, err := s.br.ReadByte()
		if err != nil {
			return 0, err
		}
		if c != '\n' && c != '\r' {
			return c, nil
		}
	}
}
