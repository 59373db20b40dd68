package camera

import (
	"context"
	"image"
	"io"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"

	"github.com/viam-labs/depth-quality/pointcloud"
	"github.com/viam-labs/depth-quality/quality"
)

// FileSource serves a single captured point cloud file as one frame. The ROI
// and calibration of the capture are not stored in the file and must be
// supplied by the caller.
type FileSource struct {
	frame Frame
	done  bool
}

// NewFileSource loads the given point cloud file.
func NewFileSource(
	path string,
	roi image.Rectangle,
	calib quality.StereoCalibration,
	logger golog.Logger,
) (*FileSource, error) {
	cloud, err := pointcloud.NewFromFile(path, logger)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot load point cloud from %q", path)
	}
	logger.Debugw("loaded point cloud", "path", path, "points", cloud.Size())
	return &FileSource{
		frame: Frame{
			Points:      pointcloud.ToVectors(cloud),
			ROI:         roi,
			Calibration: calib,
		},
	}, nil
}

// NextFrame returns the loaded frame on the first call and io.EOF afterwards.
func (s *FileSource) NextFrame(ctx context.Context) (Frame, error) {
	if ctx.Err() != nil {
		return Frame{}, ctx.Err()
	}
	if s.done {
		return Frame{}, io.EOF
	}
	s.done = true
	return s.frame, nil
}

// Close implements Source.
func (s *FileSource) Close() error {
	return nil
}
