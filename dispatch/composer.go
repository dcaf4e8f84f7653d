// Package dispatch coordinates record sources across worker threads: it
// hands out batches with gapless, strictly increasing id ranges and
// advances through file lists and file pairs as they drain.
package dispatch

import (
	"sync"

	"readpump/read"
	"readpump/source"
)

// Composer dispenses batches to workers. NextBatch reports whether every
// source is exhausted and how many records were produced; (false, 0)
// never escapes to callers. Parse delegates the heavy parse to the
// format implementation.
type Composer interface {
	NextBatch(pt *read.Batch) (done bool, n int, err error)
	Parse(ra, rb *read.Record) (ok bool, err error)
}

// Solo dispatches from an ordered list of independent sources, advancing
// a shared index when the current source drains. The advance is
// compare-and-skip: threads racing past the same exhausted source bump
// the index only once.
type Solo struct {
	srcs []source.Source

	mu  sync.Mutex
	cur int
}

// NewSolo wraps the given sources.
func NewSolo(srcs []source.Source) *Solo { return &Solo{srcs: srcs} }

func (c *Solo) curIndex() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cur
}

// advance bumps the shared index past idx if no other thread has already.
func (c *Solo) advance(idx int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if idx+1 > c.cur {
		c.cur = idx + 1
	}
	return c.cur
}

func (c *Solo) NextBatch(pt *read.Batch) (bool, int, error) {
	cur := c.curIndex()
	for cur < len(c.srcs) {
		done, n, err := c.srcs[cur].NextBatch(pt, true, true)
		if err != nil {
			return true, 0, err
		}
		if done && n == 0 {
			cur = c.advance(cur)
			continue
		}
		// A source that drained while still yielding records is only
		// "done" for the whole run if it was the last one.
		return done && cur == len(c.srcs)-1, n, nil
	}
	return true, 0, nil
}

func (c *Solo) Parse(ra, rb *read.Record) (bool, error) {
	return c.srcs[0].Parse(ra, rb)
}

// Dual dispatches from parallel end-A/end-B source lists. Positions with
// no end-B source behave like Solo; paired positions draw both ends
// under one lock so the mate streams stay lock-step.
type Dual struct {
	a, b []source.Source

	mu  sync.Mutex
	cur int
}

// NewDual wraps parallel source lists; b[i] may be nil for unpaired
// positions. len(a) must equal len(b).
func NewDual(a, b []source.Source) *Dual { return &Dual{a: a, b: b} }

func (c *Dual) curIndex() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cur
}

func (c *Dual) advance(idx int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if idx+1 > c.cur {
		c.cur = idx + 1
	}
	return c.cur
}

func (c *Dual) NextBatch(pt *read.Batch) (bool, int, error) {
	cur := c.curIndex()
	for cur < len(c.a) {
		if c.b[cur] == nil {
			done, n, err := c.a[cur].NextBatch(pt, true, true)
			if err != nil {
				return true, 0, err
			}
			if done && n == 0 {
				cur = c.advance(cur)
				continue
			}
			return done && cur == len(c.a)-1, n, nil
		}

		// One lock spans both draws so this thread gets parallel reads
		// from the two mate files.
		c.mu.Lock()
		doneA, nA, errA := c.a[cur].NextBatch(pt, true, false)
		doneB, nB, errB := c.b[cur].NextBatch(pt, false, false)
		c.mu.Unlock()
		if errA != nil {
			return true, 0, errA
		}
		if errB != nil {
			return true, 0, errB
		}
		if nA < nB {
			return true, 0, source.Fatalf("fewer reads in file specified with -1 than in file specified with -2")
		}
		if nA == 0 && nB == 0 {
			cur = c.advance(cur)
			continue
		}
		if nB < nA {
			return true, 0, source.Fatalf("fewer reads in file specified with -2 than in file specified with -1")
		}
		return doneA && doneB && cur == len(c.a)-1, nA, nil
	}
	return true, 0, nil
}

func (c *Dual) Parse(ra, rb *read.Record) (bool, error) {
	return c.a[0].Parse(ra, rb)
}
