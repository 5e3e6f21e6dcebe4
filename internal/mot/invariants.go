// Package mot provides small test-only invariant checkers for identity
// tracking runs: label/status bookkeeping across frames, asserted against
// directly rather than via ground-truth ID matching.
package mot

import "fmt"

// LabelHistory tracks one label's appearance across frames, mirroring
// TrackLifecycle's FirstFrame/LastFrame/Fragmentations bookkeeping but
// keyed by this project's uint64 label IDs instead of ground-truth IDs.
type LabelHistory struct {
	ID             uint64
	FirstFrame     uint64
	LastFrame      uint64
	FramesSeen     int
	Fragmentations int
	wasSeen        bool
}

// Checker accumulates LabelHistory per label across a run and checks
// identity-stability invariants (monotone IDs, label uniqueness per
// frame); fragmentation is counted per label, not bounded.
type Checker struct {
	histories map[uint64]*LabelHistory
	maxIDSeen uint64
}

// NewChecker constructs an empty Checker.
func NewChecker() *Checker {
	return &Checker{histories: make(map[uint64]*LabelHistory)}
}

// Observe records that label appeared (or not) at frame. Call once per
// label per frame; omit a label on frames where it is absent.
func (c *Checker) Observe(label uint64, frame uint64) error {
	if label < c.maxIDSeen && c.histories[label] == nil {
		return fmt.Errorf("mot: label %d appeared after a higher label %d was already observed", label, c.maxIDSeen)
	}
	if label > c.maxIDSeen {
		c.maxIDSeen = label
	}

	h, ok := c.histories[label]
	if !ok {
		h = &LabelHistory{ID: label, FirstFrame: frame, LastFrame: frame}
		c.histories[label] = h
	}
	if !h.wasSeen && h.FramesSeen > 0 {
		h.Fragmentations++
	}
	h.wasSeen = true
	h.FramesSeen++
	h.LastFrame = frame
	return nil
}

// Lapse marks that label was absent at the current frame (needed so the
// next Observe can detect a fragmentation rather than a fresh start).
func (c *Checker) Lapse(label uint64) {
	if h, ok := c.histories[label]; ok {
		h.wasSeen = false
	}
}

// History returns the recorded history for label, or nil if never observed.
func (c *Checker) History(label uint64) *LabelHistory {
	return c.histories[label]
}

// AssertNoDuplicateLabels fails if any two entries in labels (a single
// frame's current-list labels) repeat, enforcing the one-label-per-track
// invariant.
func AssertNoDuplicateLabels(labels []uint64) error {
	seen := make(map[uint64]bool, len(labels))
	for _, l := range labels {
		if seen[l] {
			return fmt.Errorf("mot: duplicate label %d within the same frame", l)
		}
		seen[l] = true
	}
	return nil
}
