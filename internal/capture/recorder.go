package capture

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// Recorder pulls fixed-duration clips from the camera stream
type Recorder struct {
	runner    Runner
	streamURL string
	width     int
	height    int
	preset    string
	codec     string
}

// NewRecorder creates a recorder with the fixed 640x360 ultrafast H.264 preset
func NewRecorder(runner Runner, streamURL string) *Recorder {
	return &Recorder{
		runner:    runner,
		streamURL: streamURL,
		width:     640,
		height:    360,
		preset:    "ultrafast",
		codec:     "libx264",
	}
}

// Args returns the ffmpeg arguments for one clip. Existing output is overwritten.
func (r *Recorder) Args(outputPath string, duration time.Duration) []string {
	return []string{
		"-y",
		"-i", r.streamURL,
		"-t", strconv.FormatFloat(duration.Seconds(), 'f', -1, 64),
		"-vf", fmt.Sprintf("scale=%d:%d", r.width, r.height),
		"-preset", r.preset,
		"-c:v", r.codec,
		outputPath,
	}
}

// Record captures duration worth of stream into outputPath and blocks until the
// tool exits. A missing or empty output is not detected here.
func (r *Recorder) Record(ctx context.Context, outputPath string, duration time.Duration) error {
	if duration <= 0 {
		return fmt.Errorf("invalid capture duration %v", duration)
	}

	start := time.Now()
	if err := r.runner.Run(ctx, r.Args(outputPath, duration)); err != nil {
		log.Warningf("Capture to %s failed after %v: %v", outputPath, time.Since(start).Round(time.Millisecond), err)
		return err
	}

	log.Infof("🎥 Captured %v clip to %s", duration, outputPath)
	return nil
}
