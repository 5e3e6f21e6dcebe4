package match_test

import (
	"image"
	"testing"

	"gocv.io/x/gocv"

	scitrack "github.com/nanoscitrack/scitrack"
	"github.com/nanoscitrack/scitrack/match"
	"github.com/nanoscitrack/scitrack/track"
)

// stubAdapter always reports roi found, so a synthetic track never times
// out regardless of how many times Update is called.
type stubAdapter struct {
	roi image.Rectangle
}

func (s *stubAdapter) Init(frame gocv.Mat, roi image.Rectangle) error {
	s.roi = roi
	return nil
}

func (s *stubAdapter) Update(frame gocv.Mat) (image.Rectangle, bool) {
	return s.roi, true
}

func (s *stubAdapter) Close() error { return nil }

func solidFrame(t *testing.T, size int, value uint8) (colour, gray gocv.Mat) {
	t.Helper()
	colour = gocv.NewMatWithSize(size, size, gocv.MatTypeCV8UC3)
	gray = gocv.NewMatWithSize(size, size, gocv.MatTypeCV8UC1)
	t.Cleanup(func() { colour.Close(); gray.Close() })
	colour.SetTo(gocv.NewScalar(float64(value), float64(value), float64(value), 0))
	gray.SetTo(gocv.NewScalar(float64(value), 0, 0, 0))
	return colour, gray
}

// newTestTrack builds a track.Track at roi, then calls Update samples-1
// more times (holding the box fixed) so it clears the default sample gate.
func newTestTrack(t *testing.T, roi image.Rectangle, offset scitrack.Point, samples int, value uint8) *track.Track {
	t.Helper()
	colour, gray := solidFrame(t, 128, value)

	tr, err := track.NewTrack(track.DefaultConfig(), &stubAdapter{}, colour, gray, roi, image.Rectangle{}, offset)
	if err != nil {
		t.Fatalf("NewTrack: %v", err)
	}
	for i := 1; i < samples; i++ {
		tr.Update(colour, gray)
	}
	return tr
}

// onlyPosition keeps only the comparePosition term (velocity, angle and
// histogram/HOG/MOSSE weights are zero) so the expected score is computable
// by hand.
func onlyPosition() match.Matcher {
	m := *match.NewGlobalMatcher()
	m.Weights = match.Weights{Position: -1}
	return m
}

func TestMatchPromotesCandidateWithinThreshold(t *testing.T) {
	m := onlyPosition()
	m.Threshold = -0.5 // comparePosition returns a small positive distance; -1*distance must clear this

	poolTrack := newTestTrack(t, image.Rect(10, 10, 30, 30), scitrack.Point{}, 3, 100)
	poolTrack.Label = &scitrack.Label{ID: 7}

	cand := newTestTrack(t, image.Rect(10, 10, 30, 30), scitrack.Point{}, 3, 100)

	_, newOut, poolOut := m.Match(nil, []*track.Track{cand}, []*track.Track{poolTrack})

	if len(poolOut) != 0 {
		t.Fatalf("expected the pool to be consumed, got %d remaining", len(poolOut))
	}
	if len(newOut) != 0 {
		t.Fatalf("expected the candidate to be promoted out of new, got %d remaining", len(newOut))
	}
	if cand.Label == nil || cand.Label.ID != 7 {
		t.Fatalf("expected candidate to inherit pool label 7, got %v", cand.Label)
	}
}

func TestMatchRequiresSampleGate(t *testing.T) {
	m := onlyPosition()
	m.Threshold = -10 // accept almost anything

	poolTrack := newTestTrack(t, image.Rect(10, 10, 30, 30), scitrack.Point{}, 3, 100)
	poolTrack.Label = &scitrack.Label{ID: 1}

	cand := newTestTrack(t, image.Rect(10, 10, 30, 30), scitrack.Point{}, 1, 100)
	cand.Samples = 0 // below SampleGate

	_, newOut, poolOut := m.Match(nil, []*track.Track{cand}, []*track.Track{poolTrack})

	if len(poolOut) != 1 {
		t.Fatalf("pool should be untouched when the only candidate fails the sample gate, got %d", len(poolOut))
	}
	if len(newOut) != 1 {
		t.Fatalf("candidate below the sample gate should remain in new, got %d", len(newOut))
	}
	if cand.Label != nil {
		t.Fatalf("candidate below the sample gate must not be labelled, got %v", cand.Label)
	}
}

func TestMatchConsumesUnlabelledPoolEntryWithoutPromoting(t *testing.T) {
	m := onlyPosition()
	m.Threshold = -10

	// An out-of-scene entry that was never labelled (reservoir slot that
	// never got promoted): Matcher/matcher.py's match() still removes it
	// from the pool on a hit even though nothing gets relabelled.
	poolTrack := newTestTrack(t, image.Rect(10, 10, 30, 30), scitrack.Point{}, 3, 100)
	poolTrack.Label = nil

	cand := newTestTrack(t, image.Rect(10, 10, 30, 30), scitrack.Point{}, 3, 100)

	_, newOut, poolOut := m.Match(nil, []*track.Track{cand}, []*track.Track{poolTrack})

	if len(poolOut) != 0 {
		t.Fatalf("unlabelled pool entry should still be consumed on a hit, got %d remaining", len(poolOut))
	}
	if len(newOut) != 1 {
		t.Fatalf("candidate must not be promoted when the matched pool entry has no label, got %d remaining", len(newOut))
	}
	if cand.Label != nil {
		t.Fatalf("candidate must not gain a label from an unlabelled pool entry, got %v", cand.Label)
	}
}

func TestMatchRejectsBelowThreshold(t *testing.T) {
	m := onlyPosition()
	m.Threshold = 10 // impossible to clear

	poolTrack := newTestTrack(t, image.Rect(10, 10, 30, 30), scitrack.Point{}, 3, 100)
	poolTrack.Label = &scitrack.Label{ID: 2}
	cand := newTestTrack(t, image.Rect(10, 10, 30, 30), scitrack.Point{}, 3, 100)

	_, newOut, poolOut := m.Match(nil, []*track.Track{cand}, []*track.Track{poolTrack})

	if len(poolOut) != 1 || len(newOut) != 1 {
		t.Fatalf("nothing should match when no score clears threshold, got pool=%d new=%d", len(poolOut), len(newOut))
	}
}

func TestMatchDedupesRepeatedPoolEntry(t *testing.T) {
	m := onlyPosition()
	m.Threshold = -10 // accept almost anything

	poolTrack := newTestTrack(t, image.Rect(10, 10, 30, 30), scitrack.Point{}, 3, 100)
	poolTrack.Label = &scitrack.Label{ID: 9}

	candA := newTestTrack(t, image.Rect(10, 10, 30, 30), scitrack.Point{}, 3, 100)
	candB := newTestTrack(t, image.Rect(10, 10, 30, 30), scitrack.Point{}, 3, 100)

	// poolTrack appears twice, as it would if the same retired track were
	// appended to the accumulating pool across frames without dedup.
	_, newOut, poolOut := m.Match(nil, []*track.Track{candA, candB}, []*track.Track{poolTrack, poolTrack})

	if len(poolOut) != 0 {
		t.Fatalf("duplicate pool entry should be consumed once, got %d remaining", len(poolOut))
	}
	if len(newOut) != 1 {
		t.Fatalf("only one candidate should match the deduplicated pool entry, got %d remaining in new", len(newOut))
	}
	labelled := 0
	if candA.Label != nil {
		labelled++
	}
	if candB.Label != nil {
		labelled++
	}
	if labelled != 1 {
		t.Fatalf("exactly one candidate should inherit the pool label, got %d", labelled)
	}
}

func TestPreCleanRemovesOutAndDeadFromCurrent(t *testing.T) {
	m := onlyPosition()

	shared := newTestTrack(t, image.Rect(0, 0, 10, 10), scitrack.Point{}, 1, 50)
	other := newTestTrack(t, image.Rect(20, 20, 30, 30), scitrack.Point{}, 1, 50)
	gone := newTestTrack(t, image.Rect(40, 40, 50, 50), scitrack.Point{}, 1, 50)

	curOut, _, _, _ := m.PreClean([]*track.Track{shared, other, gone}, nil, []*track.Track{shared}, []*track.Track{gone})

	if len(curOut) != 1 || curOut[0] != other {
		t.Fatalf("expected only the non-retired track to survive PreClean, got %v", curOut)
	}
}

func TestPostCleanPromotesGatedNewTracksAndAssignsLabels(t *testing.T) {
	m := onlyPosition()

	n1 := newTestTrack(t, image.Rect(0, 0, 10, 10), scitrack.Point{}, 3, 50)
	n2 := newTestTrack(t, image.Rect(20, 20, 30, 30), scitrack.Point{}, 1, 50)
	n2.Samples = 0 // still below the sample gate

	nextID, curOut, newOut, _ := m.PostClean(nil, []*track.Track{n1, n2}, nil, 5, 42)

	if nextID != 6 {
		t.Fatalf("nextID = %d, want 6 (one label minted)", nextID)
	}
	if len(curOut) != 1 || curOut[0] != n1 {
		t.Fatalf("expected n1 promoted into current, got %v", curOut)
	}
	if len(newOut) != 1 || newOut[0] != n2 {
		t.Fatalf("expected n2 deferred in new, got %v", newOut)
	}
	if n1.Label == nil || n1.Label.ID != 6 {
		t.Fatalf("n1 should be labelled with the freshly minted id 6, got %v", n1.Label)
	}
	if n1.Label.SpawnTime != 42 {
		t.Fatalf("n1 label SpawnTime = %d, want 42", n1.Label.SpawnTime)
	}
}

func TestPostCleanDropsPoolEntriesAtMaxDeathTime(t *testing.T) {
	m := onlyPosition()
	m.MaxDeathTime = 2

	stale := newTestTrack(t, image.Rect(0, 0, 10, 10), scitrack.Point{}, 1, 50)
	stale.DeathTime = 1 // one increment away from MaxDeathTime

	fresh := newTestTrack(t, image.Rect(20, 20, 30, 30), scitrack.Point{}, 1, 50)
	fresh.DeathTime = 0

	_, _, _, poolOut := m.PostClean(nil, nil, []*track.Track{stale, fresh}, 0, 0)

	if len(poolOut) != 1 || poolOut[0] != fresh {
		t.Fatalf("expected only fresh to survive past MaxDeathTime, got %v", poolOut)
	}
}
