// Package main is a command line tool that measures the quality of a depth
// camera stream. Each frame's region-of-interest point cloud gets a plane
// fitted to it and six quality metrics derived from the fit; the accumulated
// series can be rendered to plots at the end of the run.
package main

import (
	"context"
	"image"
	"io"
	"strconv"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"github.com/viam-labs/depth-quality/camera"
	"github.com/viam-labs/depth-quality/planefit"
	"github.com/viam-labs/depth-quality/pointcloud"
	"github.com/viam-labs/depth-quality/quality"
	"github.com/viam-labs/depth-quality/report"
)

var logger = golog.NewDevelopmentLogger("depth-quality")

func main() {
	goutils.ContextualMain(mainWithArgs, logger)
}

// Arguments for the command. ParseFlags cannot express a numeric default
// tag on a flag.Value field, so the float defaults live in defaultArguments.
type Arguments struct {
	PCDFile           string    `flag:"pcd,usage=analyze a single captured point cloud file instead of simulating"`
	Frames            int       `flag:"frames,default=30,usage=number of synthetic frames to process"`
	DistanceM         floatFlag `flag:"distance,usage=simulated wall distance (m)"`
	TiltDeg           floatFlag `flag:"tilt,usage=simulated wall tilt (deg)"`
	NoiseMM           floatFlag `flag:"noise,usage=simulated depth noise sigma (mm)"`
	FillRate          floatFlag `flag:"fill,usage=simulated fill rate in [0 1]"`
	BaselineMM        floatFlag `flag:"baseline,usage=stereo baseline (mm)"`
	FocalPX           floatFlag `flag:"focal,usage=focal length (px)"`
	ROIWidth          int       `flag:"roi-width,default=320,usage=region of interest width (px)"`
	ROIHeight         int       `flag:"roi-height,default=240,usage=region of interest height (px)"`
	History           int       `flag:"history,default=0,usage=bound on per-metric series length (0 = unbounded)"`
	RANSACIterations  int       `flag:"ransac-iterations,default=100,usage=plane fit RANSAC iterations"`
	RANSACThresholdMM floatFlag `flag:"ransac-threshold,usage=plane fit inlier threshold (mm)"`
	OutDir            string    `flag:"out,usage=directory to write metric plots to"`
}

// defaultArguments returns Arguments pre-seeded with the float defaults;
// flags set on the command line overwrite them during parsing.
func defaultArguments() Arguments {
	return Arguments{
		DistanceM:         2.0,
		NoiseMM:           1.0,
		FillRate:          0.95,
		BaselineMM:        50,
		FocalPX:           600,
		RANSACThresholdMM: 5,
	}
}

type floatFlag float64

func (ff *floatFlag) String() string {
	return strconv.FormatFloat(float64(*ff), 'f', -1, 64)
}

// Set implements flag.Value.
func (ff *floatFlag) Set(val string) error {
	if val == "" {
		return nil
	}
	conv, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return err
	}
	*ff = floatFlag(conv)
	return nil
}

func mainWithArgs(ctx context.Context, args []string, logger golog.Logger) error {
	argsParsed := defaultArguments()
	if err := goutils.ParseFlags(args, &argsParsed); err != nil {
		return err
	}

	calib := quality.StereoCalibration{
		BaselineMM:    float64(argsParsed.BaselineMM),
		FocalLengthPX: float64(argsParsed.FocalPX),
	}
	roi := image.Rect(0, 0, argsParsed.ROIWidth, argsParsed.ROIHeight)

	var src camera.Source
	var err error
	if argsParsed.PCDFile != "" {
		src, err = camera.NewFileSource(argsParsed.PCDFile, roi, calib, logger)
	} else {
		src, err = camera.NewSyntheticWallSource(camera.SyntheticWallConfig{
			DistanceM:   float64(argsParsed.DistanceM),
			TiltDeg:     float64(argsParsed.TiltDeg),
			NoiseMM:     float64(argsParsed.NoiseMM),
			FillRate:    float64(argsParsed.FillRate),
			ROI:         roi,
			Calibration: calib,
		})
	}
	if err != nil {
		return err
	}
	defer goutils.UncheckedErrorFunc(src.Close)

	metrics := quality.DefaultMetrics(argsParsed.History, nil)
	fitter := planefit.NewFitter(argsParsed.RANSACIterations, float64(argsParsed.RANSACThresholdMM)*0.001)
	if err := runCapture(ctx, argsParsed.Frames, src, metrics, fitter, logger); err != nil {
		return err
	}

	if argsParsed.OutDir != "" {
		if err := report.SaveAll(argsParsed.OutDir, metrics, logger); err != nil {
			return err
		}
		logger.Infow("wrote metric plots", "dir", argsParsed.OutDir)
	}
	return nil
}

// runCapture pulls up to maxFrames frames from the source, fits a plane to
// each, and publishes the frame's quality metrics. Frames with degenerate
// geometry are skipped, not fatal.
func runCapture(
	ctx context.Context,
	maxFrames int,
	src camera.Source,
	metrics quality.Metrics,
	fitter *planefit.Fitter,
	logger golog.Logger,
) error {
	analyzer := quality.NewAnalyzer(metrics)
	processed, skipped := 0, 0
	for i := 0; i < maxFrames; i++ {
		frame, err := src.NextFrame(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		plane, inliers, err := fitter.Fit(pointcloud.NewFromVectors(frame.Points))
		if err != nil {
			skipped++
			logger.Warnw("plane fit failed, skipping frame", "frame", i, "error", err)
			continue
		}
		logger.Debugw("fitted plane",
			"frame", i,
			"equation", plane.Equation(),
			"inliers", inliers.Size(),
			"points", len(frame.Points),
		)

		if err := analyzer.ProcessFrame(frame.Points, plane, frame.ROI, frame.Calibration); err != nil {
			if quality.IsDegenerateInputError(err) {
				skipped++
				logger.Warnw("degenerate frame, skipping", "frame", i, "error", err)
				continue
			}
			return err
		}
		processed++
		logFrame(logger, i, metrics)
	}
	if processed == 0 && skipped > 0 {
		return errors.Errorf("no frame could be processed, %d skipped", skipped)
	}
	logger.Infow("capture complete", "processed", processed, "skipped", skipped)
	return nil
}

func logFrame(logger golog.Logger, frame int, metrics quality.Metrics) {
	logger.Infow("frame metrics",
		"frame", frame,
		"avg_error_mm", latest(metrics.AvgError),
		"std_error_mm", latest(metrics.StdError),
		"subpixel_rms", latest(metrics.SubpixelRMS),
		"distance_m", latest(metrics.Distance),
		"angle_deg", latest(metrics.Angle),
		"fill_rate_pct", latest(metrics.FillRate),
	)
}

func latest(m *quality.Metric) float32 {
	s, ok := m.Latest()
	if !ok {
		return 0
	}
	return s.Value
}
