// Package dataset provides per-scene frame sources: either a video file
// (gocv.VideoCapture) or an enumerated image stack (one file per frame,
// as produced by microscopy acquisition software), following
// Utils/tiff.py's per-file enumeration.
package dataset

import (
	"fmt"
	"path/filepath"

	"gocv.io/x/gocv"

	scitrack "github.com/nanoscitrack/scitrack"
)

// Source produces the next frame for one scene, or false when exhausted.
type Source interface {
	Next() (gocv.Mat, bool)
	Close() error
}

// VideoSource reads sequential frames from a video file via gocv.
type VideoSource struct {
	cap *gocv.VideoCapture
}

// OpenVideoSource opens path as a video capture.
func OpenVideoSource(path string) (*VideoSource, error) {
	cap, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", scitrack.ErrDatasetNotFound, path, err)
	}
	return &VideoSource{cap: cap}, nil
}

// Next reads and returns the next frame.
func (v *VideoSource) Next() (gocv.Mat, bool) {
	frame := gocv.NewMat()
	if !v.cap.Read(&frame) || frame.Empty() {
		frame.Close()
		return gocv.NewMat(), false
	}
	return frame, true
}

// Close releases the underlying capture.
func (v *VideoSource) Close() error {
	return v.cap.Close()
}

// ImageStackConfig describes an enumerated sequence of single-frame image
// files: FilePrefix + index + FileSuffix, e.g. "frame_0001.tif". This is
// explicitly NOT a multi-page TIFF decoder — NanoSciTracker's datasets are
// one 12-bit TIFF per frame, enumerated by filename, matching tiff12_open's
// per-call single-image read; true multi-page TIFF decoding and mosaic
// de-stitching are out of scope.
type ImageStackConfig struct {
	Dir            string
	FilePrefix     string
	FileSuffix     string
	Enumerated     bool // if true, index is zero-padded per EnumWidth
	EnumWidth      int
	StartIndex     int
	Normalisation  float64 // tiff12_open's bit-depth normalisation divisor, default 2048
}

// ImageStackSource enumerates and decodes one image file per Next call.
type ImageStackSource struct {
	cfg   ImageStackConfig
	index int
}

// NewImageStackSource constructs a source with cfg defaults filled in.
func NewImageStackSource(cfg ImageStackConfig) *ImageStackSource {
	if cfg.Normalisation == 0 {
		cfg.Normalisation = 2048
	}
	return &ImageStackSource{cfg: cfg, index: cfg.StartIndex}
}

func (s *ImageStackSource) path() string {
	idx := fmt.Sprintf("%d", s.index)
	if s.cfg.Enumerated && s.cfg.EnumWidth > 0 {
		idx = fmt.Sprintf("%0*d", s.cfg.EnumWidth, s.index)
	}
	name := s.cfg.FilePrefix + idx + s.cfg.FileSuffix
	return filepath.Join(s.cfg.Dir, name)
}

// Next decodes the next file in the enumeration, applying tiff12_open's
// bit-depth rescale to 8-bit (the channel count is kept as decoded), or
// reports false once the file does not exist.
func (s *ImageStackSource) Next() (gocv.Mat, bool) {
	p := s.path()
	raw := gocv.IMRead(p, gocv.IMReadAnyDepth|gocv.IMReadAnyColor)
	if raw.Empty() {
		return gocv.NewMat(), false
	}
	s.index++

	out := gocv.NewMat()
	raw.ConvertToWithParams(&out, gocv.MatTypeCV8U, 255.0/s.cfg.Normalisation, 0)
	raw.Close()
	return out, true
}

// Close is a no-op; ImageStackSource holds no persistent OS resource
// between calls.
func (s *ImageStackSource) Close() error { return nil }
