// Package trace implements the JSON tracking log, written as a single JSON
// array: one array entry per frame, one object per tracked object in that frame, carrying
// whichever fields were enabled. Grounded on Utils/json_tracer.py.
package trace

import (
	"encoding/json"
	"os"

	"github.com/nanoscitrack/scitrack/track"
)

// Status mirrors json_tracer.py's numeric status codes.
type Status int

const (
	StatusCurrent Status = 0
	StatusNew     Status = 1
	StatusOut     Status = 2
	StatusDead    Status = 3
)

// Entry is one tracked object's record within one frame.
type Entry struct {
	Status       Status     `json:"status"`
	Label        int64      `json:"label"`
	SpawnTime    uint64     `json:"spawn_time"`
	RelPosition  *[2]float64 `json:"rel_position,omitempty"`
	AbsPosition  *[2]float64 `json:"abs_position,omitempty"`
	Speed        *[2]float64 `json:"speed,omitempty"`
	Direction    *float64    `json:"direction,omitempty"`
	ColHistogram []float64   `json:"col_histogram,omitempty"`
	HOGHistogram []float64   `json:"hog_histogram,omitempty"`
}

// Tracer accumulates one Entry slice per frame and dumps the whole run to
// a JSON file on Dump.
type Tracer struct {
	// EnabledFields selects which optional Entry fields are populated:
	// any of "rel_position", "abs_position", "speed", "direction",
	// "col_histogram", "hog_histogram".
	EnabledFields []string
	// StatusFilter selects which of current/new/out/dead are recorded.
	StatusFilter []Status
	// FilePrefix names the output file (FilePrefix + ".json").
	FilePrefix string

	frames [][]Entry
}

func (t *Tracer) enabled(field string) bool {
	for _, f := range t.EnabledFields {
		if f == field {
			return true
		}
	}
	return false
}

func (t *Tracer) statusEnabled(s Status) bool {
	if len(t.StatusFilter) == 0 {
		return false
	}
	for _, f := range t.StatusFilter {
		if f == s {
			return true
		}
	}
	return false
}

// Push records one frame's snapshot across the four lifecycle lists.
func (t *Tracer) Push(frameCount uint64, current, newTracks, out, dead []*track.Track) {
	var frame []Entry
	if t.statusEnabled(StatusCurrent) {
		for _, tr := range current {
			frame = append(frame, t.createEntry(tr, StatusCurrent, frameCount))
		}
	}
	if t.statusEnabled(StatusNew) {
		for _, tr := range newTracks {
			frame = append(frame, t.createEntry(tr, StatusNew, frameCount))
		}
	}
	if t.statusEnabled(StatusOut) {
		for _, tr := range out {
			frame = append(frame, t.createEntry(tr, StatusOut, frameCount))
		}
	}
	if t.statusEnabled(StatusDead) {
		for _, tr := range dead {
			frame = append(frame, t.createEntry(tr, StatusDead, frameCount))
		}
	}
	t.frames = append(t.frames, frame)
}

func (t *Tracer) createEntry(tr *track.Track, status Status, frameCount uint64) Entry {
	e := Entry{Status: status}
	if tr.Label != nil {
		e.Label = int64(tr.Label.ID)
		e.SpawnTime = tr.Label.SpawnTime
	} else {
		e.Label = -1
		e.SpawnTime = frameCount
	}

	px, py := tr.Velocity.Position()
	if t.enabled("rel_position") {
		v := [2]float64{px, py}
		e.RelPosition = &v
	}
	if t.enabled("abs_position") {
		ax, ay := tr.GlobalPosition()
		v := [2]float64{ax, ay}
		e.AbsPosition = &v
	}
	if t.enabled("speed") {
		speed := tr.Velocity.Speed()
		v := [2]float64{speed, speed}
		e.Speed = &v
	}
	if t.enabled("direction") {
		d, _ := tr.Velocity.Direction()
		e.Direction = &d
	}
	if t.enabled("col_histogram") {
		e.ColHistogram = tr.Histogram.Bins()
	}
	if t.enabled("hog_histogram") {
		e.HOGHistogram = tr.HOG.Vector()
	}
	return e
}

// Reset clears the accumulated frames without touching configuration.
func (t *Tracer) Reset() { t.frames = nil }

// Dump writes the accumulated frames to FilePrefix + ".json".
func (t *Tracer) Dump() error {
	name := t.FilePrefix
	if name == "" {
		name = "results"
	}
	name += ".json"

	data, err := json.Marshal(t.frames)
	if err != nil {
		return err
	}
	return os.WriteFile(name, data, 0o644)
}
