// Package config loads the JSON settings file that drives a World: scene
// geometry, matcher weights/thresholds, tracer selection, and dataset
// enumeration. Key names match the existing settings schema verbatim so
// existing config files keep working. An optional secondary .ini layer
// (gopkg.in/ini.v1) lets a deployment override individual keys without
// editing the JSON.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/ini.v1"

	scitrack "github.com/nanoscitrack/scitrack"
)

// WeightSet mirrors the JSON shape of a matcher's weight map.
type WeightSet struct {
	Position  float64 `json:"position"`
	Velocity  float64 `json:"velocity"`
	Angle     float64 `json:"angle"`
	HOG       float64 `json:"hog"`
	Histogram float64 `json:"histogram"`
	MOSSE     float64 `json:"mosse"`
}

// Config is the full settings document.
type Config struct {
	WorldSize      [2]int `json:"world_size"`
	SceneSize      [2]int `json:"scene_size"`
	Overlapping    int    `json:"overlapping"`
	Scenes         [][2][2]int `json:"scenes"` // list of [[x0,x1],[y0,y1]]
	Stitching      bool   `json:"stitching"`
	StitchingOrder []int  `json:"stitching_order"`

	FilePath     string `json:"file_path"`
	FilePrefix   string `json:"file_prefix"`
	FileSuffix   string `json:"file_suffix"`
	FileEnumered bool   `json:"file_enumered"`

	GlobalMatcherWeights   WeightSet `json:"global_matcher_weights"`
	GlobalMatcherThreshold float64   `json:"global_matcher_threshold"`
	GlobalMatcherDeathTime int       `json:"global_matcher_death_time"`

	DeadTrackerWeights   WeightSet `json:"dead_tracker_weights"`
	DeadTrackerThreshold float64   `json:"dead_tracker_threshold"`
	DeadTrackerDeathTime int       `json:"dead_tracker_death_time"`

	EnableTracer []string `json:"enable_tracer"`
	TraceStatus  []int    `json:"trace_status"`
	TracerPrefix string   `json:"tracer_prefix"`

	DetectionSampling int `json:"detection_sampling"`
}

// Load reads and parses path as JSON, then applies ApplyDefaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", scitrack.ErrConfigInvalid, path, err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", scitrack.ErrConfigInvalid, path, err)
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// ApplyDefaults fills the zero-valued matcher weight/threshold/death-time
// fields, DetectionSampling and TracerPrefix with their defaults, matching
// Matcher/matcher.py's constructor defaults and GlobalTracker/scene.py's
// detection_sampling=3. Other fields are left as loaded.
func (c *Config) ApplyDefaults() {
	if c.GlobalMatcherWeights == (WeightSet{}) {
		c.GlobalMatcherWeights = WeightSet{Position: -0.3, Velocity: -0.2, Angle: 0.2, Histogram: 0.4}
	}
	if c.GlobalMatcherThreshold == 0 {
		c.GlobalMatcherThreshold = 0.45
	}
	if c.GlobalMatcherDeathTime == 0 {
		c.GlobalMatcherDeathTime = 100
	}
	if c.DeadTrackerWeights == (WeightSet{}) {
		c.DeadTrackerWeights = WeightSet{Position: -0.4, Velocity: -0.3, Angle: 0.2, Histogram: 0.4}
	}
	if c.DeadTrackerThreshold == 0 {
		c.DeadTrackerThreshold = 0.35
	}
	if c.DeadTrackerDeathTime == 0 {
		c.DeadTrackerDeathTime = 120
	}
	if c.DetectionSampling == 0 {
		c.DetectionSampling = 3
	}
	if c.TracerPrefix == "" {
		c.TracerPrefix = "results"
	}
}

// LoadLocalOverrides applies key overrides from an .ini file's [Settings]
// section on top of an already-loaded Config, for deployment-local tweaks
// (e.g. a different file_path per machine) without editing the checked-in
// JSON.
func (c *Config) LoadLocalOverrides(iniPath string) error {
	if _, err := os.Stat(iniPath); os.IsNotExist(err) {
		return nil
	}
	file, err := ini.Load(iniPath)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", scitrack.ErrConfigInvalid, iniPath, err)
	}
	section := file.Section("Settings")

	if v := section.Key("file_path").String(); v != "" {
		c.FilePath = v
	}
	if v := section.Key("file_prefix").String(); v != "" {
		c.FilePrefix = v
	}
	if v := section.Key("file_suffix").String(); v != "" {
		c.FileSuffix = v
	}
	if section.HasKey("detection_sampling") {
		c.DetectionSampling = section.Key("detection_sampling").MustInt(c.DetectionSampling)
	}
	if section.HasKey("global_matcher_threshold") {
		c.GlobalMatcherThreshold = section.Key("global_matcher_threshold").MustFloat64(c.GlobalMatcherThreshold)
	}
	return nil
}
