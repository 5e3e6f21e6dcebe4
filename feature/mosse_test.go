package feature_test

import (
	"image"
	"testing"

	"github.com/nanoscitrack/scitrack/feature"
)

func TestMOSSECompareUnreadyIsZero(t *testing.T) {
	var a, b feature.MOSSE
	patch := solidPatch(t, 100)
	if got := a.Compare(&b, patch, patch); got != 0 {
		t.Fatalf("Compare on uninitialised MOSSE = %v, want 0", got)
	}
}

func TestMOSSECompareNilReceiverIsZero(t *testing.T) {
	var m *feature.MOSSE
	other := feature.NewMOSSE(feature.DefaultMOSSEConfig())
	patch := solidPatch(t, 100)
	if got := m.Compare(other, patch, patch); got != 0 {
		t.Fatalf("Compare on a nil receiver = %v, want 0", got)
	}
}

func TestMOSSENotReadyBeforeInitialise(t *testing.T) {
	m := feature.NewMOSSE(feature.MOSSEConfig{})
	if m.Ready() {
		t.Fatalf("a freshly constructed MOSSE filter must not be Ready")
	}
}

func TestMOSSECloseOnUnreadyFilterIsSafe(t *testing.T) {
	m := feature.NewMOSSE(feature.MOSSEConfig{})
	m.Close() // must not panic
}

func TestMOSSEInitialiseThenReady(t *testing.T) {
	patch := solidPatch(t, 120)
	roi := image.Rect(0, 0, patch.Cols(), patch.Rows())

	m := feature.NewMOSSE(feature.DefaultMOSSEConfig())
	if err := m.Initialise(patch, roi); err != nil {
		t.Skipf("MOSSE filter could not train on this patch: %v", err)
	}
	defer m.Close()

	if !m.Ready() {
		t.Fatalf("Initialise succeeded but Ready() is false")
	}
}
