// Command scitrack runs the multi-scene tracker over a configured dataset
// and dumps the resulting trace to disk.
package main

import (
	"flag"
	"fmt"
	"image"
	"log"
	"os"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"gocv.io/x/gocv"

	"github.com/nanoscitrack/scitrack/adapter"
	"github.com/nanoscitrack/scitrack/config"
	"github.com/nanoscitrack/scitrack/dataset"
	"github.com/nanoscitrack/scitrack/scene"
	"github.com/nanoscitrack/scitrack/track"
	"github.com/nanoscitrack/scitrack/trace"
	"github.com/nanoscitrack/scitrack/world"
)

func main() {
	configPath := flag.String("config", "settings.json", "path to the JSON settings file")
	iniOverride := flag.String("ini", "", "optional .ini override file")
	frameLimit := flag.Int("frames", 0, "stop after this many frames (0 = unlimited)")
	flag.Parse()

	if err := run(*configPath, *iniOverride, *frameLimit); err != nil {
		log.Fatalf("scitrack: %v", err)
	}
}

func run(configPath, iniOverride string, frameLimit int) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if iniOverride != "" {
		if err := cfg.LoadLocalOverrides(iniOverride); err != nil {
			return err
		}
	}

	w := world.New()
	w.OutMatcher.Weights.Position = cfg.GlobalMatcherWeights.Position
	w.OutMatcher.Weights.Velocity = cfg.GlobalMatcherWeights.Velocity
	w.OutMatcher.Weights.Angle = cfg.GlobalMatcherWeights.Angle
	w.OutMatcher.Weights.HOG = cfg.GlobalMatcherWeights.HOG
	w.OutMatcher.Weights.Histogram = cfg.GlobalMatcherWeights.Histogram
	w.OutMatcher.Weights.MOSSE = cfg.GlobalMatcherWeights.MOSSE
	w.OutMatcher.Threshold = cfg.GlobalMatcherThreshold
	w.OutMatcher.MaxDeathTime = cfg.GlobalMatcherDeathTime

	w.DeadMatcher.Weights.Position = cfg.DeadTrackerWeights.Position
	w.DeadMatcher.Weights.Velocity = cfg.DeadTrackerWeights.Velocity
	w.DeadMatcher.Weights.Angle = cfg.DeadTrackerWeights.Angle
	w.DeadMatcher.Weights.HOG = cfg.DeadTrackerWeights.HOG
	w.DeadMatcher.Weights.Histogram = cfg.DeadTrackerWeights.Histogram
	w.DeadMatcher.Weights.MOSSE = cfg.DeadTrackerWeights.MOSSE
	w.DeadMatcher.Threshold = cfg.DeadTrackerThreshold
	w.DeadMatcher.MaxDeathTime = cfg.DeadTrackerDeathTime

	if len(cfg.EnableTracer) > 0 {
		statuses := make([]trace.Status, len(cfg.TraceStatus))
		for i, s := range cfg.TraceStatus {
			statuses[i] = trace.Status(s)
		}
		w.Tracer = &trace.Tracer{
			EnabledFields: cfg.EnableTracer,
			StatusFilter:  statuses,
			FilePrefix:    cfg.TracerPrefix,
		}
	}

	detector := adapter.NewOtsuBlobDetector(adapter.DefaultOtsuConfig())
	sources := make([]dataset.Source, 0, len(cfg.Scenes))
	for i, roi := range cfg.Scenes {
		sceneCfg := scene.Config{
			ROI:               image.Rect(roi[0][0], roi[1][0], roi[0][1], roi[1][1]),
			Overlap:           cfg.Overlapping,
			DetectionSampling: cfg.DetectionSampling,
			OverlapMatch:      scene.DefaultOverlapConfig(),
			Track:             track.DefaultConfig(),
		}
		s := scene.New(sceneCfg, detector, func() adapter.ShortTermTracker { return adapter.NewKCFTracker() })
		w.SpawnScenes(s)

		src, err := dataset.OpenVideoSource(fmt.Sprintf("%s/%s%d%s", cfg.FilePath, cfg.FilePrefix, i, cfg.FileSuffix))
		if err != nil {
			return err
		}
		sources = append(sources, src)
	}
	defer func() {
		for _, s := range sources {
			_ = s.Close()
		}
	}()

	cols, _ := termSize()
	bar := progressbar.NewOptions(frameLimit,
		progressbar.OptionSetWidth(cols/2),
		progressbar.OptionSetDescription("tracking"),
	)

	frameCount := 0
	for {
		if frameLimit > 0 && frameCount >= frameLimit {
			break
		}
		frames := make([]gocv.Mat, len(sources))
		grayFrames := make([]gocv.Mat, len(sources))
		ok := true
		for i, src := range sources {
			f, got := src.Next()
			if !got {
				ok = false
				break
			}
			frames[i] = f
			gray := gocv.NewMat()
			gocv.CvtColor(f, &gray, gocv.ColorBGRToGray)
			grayFrames[i] = gray
		}
		if !ok {
			break
		}

		w.Update(frames, grayFrames)

		for i := range frames {
			frames[i].Close()
			grayFrames[i].Close()
		}

		frameCount++
		_ = bar.Add(1)
	}

	if w.Tracer != nil {
		if err := w.Tracer.Dump(); err != nil {
			return err
		}
	}
	w.Close()
	return nil
}

func termSize() (cols, lines int) {
	if width, height, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		return width, height
	}
	return 80, 24
}
