package timeline

import (
	"container/heap"
	"fmt"
	"sort"
	"strings"
	"time"
)

// OverlapMode selects the overlap detection algorithm.
type OverlapMode string

const (
	// OverlapSweep reports every intersecting pair using an active-interval
	// sweep over start times.
	OverlapSweep OverlapMode = "sweep"
	// OverlapAdjacent only compares each execution with the next one in
	// start order. It misses overlaps between non-neighbours and is kept
	// for reports that must match the historical output.
	OverlapAdjacent OverlapMode = "adjacent"
)

func ParseOverlapMode(s string) (OverlapMode, error) {
	switch m := OverlapMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return OverlapSweep, nil
	case OverlapSweep, OverlapAdjacent:
		return m, nil
	default:
		return "", fmt.Errorf("unknown overlap mode %q (sweep|adjacent)", s)
	}
}

// DetectOverlaps returns the intersecting pairs of execs, ordered by the
// later execution's start and then by the earlier one's start. Touching
// intervals (end == next start) do not overlap.
func DetectOverlaps(execs []Execution, mode OverlapMode) []Overlap {
	byStart := sortByStart(execs)
	if len(byStart) < 2 {
		return nil
	}
	if mode == OverlapAdjacent {
		return adjacentOverlaps(byStart)
	}
	return sweepOverlaps(byStart)
}

func adjacentOverlaps(byStart []Execution) []Overlap {
	var out []Overlap
	for i := 0; i < len(byStart)-1; i++ {
		a, b := byStart[i], byStart[i+1]
		if a.End.After(b.Start) {
			out = append(out, newOverlap(a, b))
		}
	}
	return out
}

// sweepOverlaps keeps the executions still running at the current start in
// a min-heap keyed by end time. Everything left in the heap after evicting
// finished runs intersects the current execution.
func sweepOverlaps(byStart []Execution) []Overlap {
	active := &endHeap{execs: byStart}
	var (
		out     []Overlap
		running []int
	)
	for j, cur := range byStart {
		for active.Len() > 0 && !byStart[active.idx[0]].End.After(cur.Start) {
			heap.Pop(active)
		}
		running = append(running[:0], active.idx...)
		sort.Ints(running)
		for _, i := range running {
			out = append(out, newOverlap(byStart[i], cur))
		}
		heap.Push(active, j)
	}
	return out
}

func newOverlap(a, b Execution) Overlap {
	return Overlap{First: a, Second: b, Start: b.Start, End: minTime(a.End, b.End)}
}

func minTime(a, b time.Time) time.Time {
	if b.Before(a) {
		return b
	}
	return a
}

// endHeap holds indexes into execs ordered by End.
type endHeap struct {
	execs []Execution
	idx   []int
}

func (h *endHeap) Len() int { return len(h.idx) }
func (h *endHeap) Less(i, j int) bool {
	return h.execs[h.idx[i]].End.Before(h.execs[h.idx[j]].End)
}
func (h *endHeap) Swap(i, j int) { h.idx[i], h.idx[j] = h.idx[j], h.idx[i] }
func (h *endHeap) Push(x any)    { h.idx = append(h.idx, x.(int)) }
func (h *endHeap) Pop() any {
	n := len(h.idx) - 1
	v := h.idx[n]
	h.idx = h.idx[:n]
	return v
}
