// Package outq restores input order on output: workers finish records in
// any order, the queue buffers records whose predecessors are still in
// flight and writes contiguous finished prefixes to the stream.
package outq

import (
	"fmt"
	"io"
	"sync"
)

// DefaultFlushThresh is the minimum contiguous finished run an unforced
// flush writes. Waiting for several in a row amortizes the cost of
// shifting the window across many records at the price of buffering.
const DefaultFlushThresh = 8

// DefaultPerThreadBuf is the per-thread record buffer used when
// reordering is disabled.
const DefaultPerThreadBuf = 64

// Config selects the queue's mode once at construction.
type Config struct {
	// Reorder restores strict input order. Requires exactly one output.
	Reorder bool
	// Threads is the number of worker threads that will call in.
	Threads int
	// Outputs are the output streams. Reordering mode takes one; with
	// reordering disabled, flushes shard across all of them by thread id.
	Outputs []io.Writer
	// FlushThresh overrides DefaultFlushThresh when > 0.
	FlushThresh int
	// PerThreadBuf overrides DefaultPerThreadBuf when > 0.
	PerThreadBuf int
}

type slot struct {
	line     []byte
	started  bool
	finished bool
}

// Queue is the ordered output buffer. All window state is guarded by one
// mutex; the non-reordering mode instead uses one lock per output shard.
type Queue struct {
	reorder     bool
	flushThresh int

	mu    sync.Mutex
	cur   uint64 // id of the oldest unflushed record
	win   []slot // window indexed relative to cur
	out   io.Writer

	// Non-reordering mode.
	bufSize int
	perBuf  [][][]byte
	perCnt  []int
	outs    []io.Writer
	outMu   []sync.Mutex

	// Per-thread diagnostics.
	started, finished, flushed []uint64
}

// New builds a queue for a fixed pool of workers.
func New(cfg Config) (*Queue, error) {
	if cfg.Threads < 1 {
		cfg.Threads = 1
	}
	if len(cfg.Outputs) == 0 {
		return nil, fmt.Errorf("outq: no output streams")
	}
	if cfg.Reorder && len(cfg.Outputs) != 1 {
		return nil, fmt.Errorf("outq: reordering requires exactly one output stream, got %d", len(cfg.Outputs))
	}
	q := &Queue{
		reorder:     cfg.Reorder,
		flushThresh: cfg.FlushThresh,
		out:         cfg.Outputs[0],
		bufSize:     cfg.PerThreadBuf,
		outs:        cfg.Outputs,
		outMu:       make([]sync.Mutex, len(cfg.Outputs)),
		started:     make([]uint64, cfg.Threads),
		finished:    make([]uint64, cfg.Threads),
		flushed:     make([]uint64, cfg.Threads),
	}
	if q.flushThresh <= 0 {
		q.flushThresh = DefaultFlushThresh
	}
	if q.bufSize <= 0 {
		q.bufSize = DefaultPerThreadBuf
	}
	q.perBuf = make([][][]byte, cfg.Threads)
	q.perCnt = make([]int, cfg.Threads)
	for i := range q.perBuf {
		q.perBuf[i] = make([][]byte, q.bufSize)
	}
	return q, nil
}

// BeginRead announces that output for the given record id is coming,
// growing the window if the id lies beyond its tail.
func (q *Queue) BeginRead(id uint64, thread int) error {
	if !q.reorder {
		q.started[thread]++
		return nil
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.started[thread]++
	if id < q.cur {
		return fmt.Errorf("outq: record %d begun after the window advanced past it (cur %d)", id, q.cur)
	}
	for uint64(len(q.win)) <= id-q.cur {
		q.win = append(q.win, slot{})
	}
	q.win[id-q.cur].started = true
	q.win[id-q.cur].finished = false
	return nil
}

// FinishRead installs the record's output text and attempts an unforced
// flush. Finishing an id twice before it is flushed is an error.
func (q *Queue) FinishRead(id uint64, thread int, rec []byte) error {
	if !q.reorder {
		q.finished[thread]++
		if q.perCnt[thread] >= q.bufSize {
			if err := q.flushThread(thread); err != nil {
				return err
			}
		}
		q.perBuf[thread][q.perCnt[thread]] = append([]byte(nil), rec...)
		q.perCnt[thread]++
		return nil
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	i := id - q.cur
	if id < q.cur || i >= uint64(len(q.win)) || !q.win[i].started {
		return fmt.Errorf("outq: record %d finished without a matching begin", id)
	}
	if q.win[i].finished {
		return fmt.Errorf("outq: record %d finished twice", id)
	}
	q.win[i].line = append(q.win[i].line[:0], rec...)
	q.win[i].finished = true
	q.finished[thread]++
	return q.flushLocked(false)
}

// flushThread empties one worker's private buffer to its output shard.
func (q *Queue) flushThread(thread int) error {
	idx := thread % len(q.outs)
	q.outMu[idx].Lock()
	defer q.outMu[idx].Unlock()
	for i := 0; i < q.perCnt[thread]; i++ {
		if err := writeAll(q.outs[idx], q.perBuf[thread][i]); err != nil {
			return err
		}
	}
	q.flushed[thread] += uint64(q.perCnt[thread])
	q.perCnt[thread] = 0
	return nil
}

// Flush writes the contiguous finished prefix. Unforced flushes are
// no-ops below the batching threshold; a forced flush writes whatever is
// finished and is mandatory at shutdown.
func (q *Queue) Flush(force bool) error {
	if !q.reorder {
		for t := range q.perBuf {
			if q.perCnt[t] > 0 {
				if err := q.flushThread(t); err != nil {
					return err
				}
			}
		}
		return nil
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.flushLocked(force)
}

func (q *Queue) flushLocked(force bool) error {
	nflush := 0
	for nflush < len(q.win) && q.win[nflush].finished {
		nflush++
	}
	if !force && nflush < q.flushThresh {
		return nil
	}
	for i := 0; i < nflush; i++ {
		if err := writeAll(q.out, q.win[i].line); err != nil {
			return err
		}
	}
	q.win = q.win[nflush:]
	q.cur += uint64(nflush)
	q.flushed[0] += uint64(nflush)
	return nil
}

func writeAll(w io.Writer, b []byte) error {
	n, err := w.Write(b)
	if err != nil {
		return fmt.Errorf("outq: wrote only %d out of %d bytes to output: %w", n, len(b), err)
	}
	if n != len(b) {
		return fmt.Errorf("outq: wrote only %d out of %d bytes to output", n, len(b))
	}
	return nil
}

// Cur is the id of the oldest not-yet-flushed record.
func (q *Queue) Cur() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.cur
}

// NumStarted totals records begun across all threads.
func (q *Queue) NumStarted() uint64 { return sum(q.started) }

// NumFinished totals records finished across all threads.
func (q *Queue) NumFinished() uint64 { return sum(q.finished) }

// NumFlushed totals records written out across all threads.
func (q *Queue) NumFlushed() uint64 { return sum(q.flushed) }

func sum(v []uint64) uint64 {
	var t uint64
	for _, n := range v {
		t += n
	}
	return t
}
