package pointcloud

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// PCDType is the export type of a PCD file.
type PCDType int

const (
	// PCDAscii is a PCD file with ascii data.
	PCDAscii PCDType = 0
	// PCDBinary is a PCD file with binary data.
	PCDBinary PCDType = 1
)

// NewFromFile returns a point cloud loaded from the given file path.
// Only the PCD format is supported.
func NewFromFile(fn string, logger golog.Logger) (PointCloud, error) {
	switch ext := filepath.Ext(fn); ext {
	case ".pcd":
		return newFromPCDFile(fn, logger)
	default:
		return nil, errors.Errorf("do not know how to read file type %q", ext)
	}
}

func newFromPCDFile(fn string, logger golog.Logger) (PointCloud, error) {
	//nolint:gosec
	f, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			logger.Debugw("error closing pcd file", "error", cerr)
		}
	}()
	return ReadPCD(f)
}

// WriteToPCDFile writes the cloud to the given file path in PCD format.
func WriteToPCDFile(cloud PointCloud, fn string, outputType PCDType) (err error) {
	//nolint:gosec
	f, err := os.Create(fn)
	if err != nil {
		return err
	}
	defer func() {
		cerr := f.Close()
		if err == nil {
			err = cerr
		}
	}()
	return ToPCD(cloud, f, outputType)
}

// ToPCD writes out a point cloud to a PCD file of the specified type.
// Point coordinates are written in meters, matching the storage units.
func ToPCD(cloud PointCloud, out io.Writer, outputType PCDType) error {
	var err error

	_, err = io.WriteString(out, "VERSION .7\n"+
		"FIELDS x y z\n"+
		"SIZE 4 4 4\n"+
		"TYPE F F F\n"+
		"COUNT 1 1 1\n")
	if err != nil {
		return err
	}
	_, err = io.WriteString(out, "WIDTH "+strconv.Itoa(cloud.Size())+"\n"+
		"HEIGHT 1\n"+
		"VIEWPOINT 0 0 0 1 0 0 0\n"+
		"POINTS "+strconv.Itoa(cloud.Size())+"\n")
	if err != nil {
		return err
	}

	switch outputType {
	case PCDBinary:
		_, err = io.WriteString(out, "DATA binary\n")
	case PCDAscii:
		_, err = io.WriteString(out, "DATA ascii\n")
	default:
		return errors.Errorf("unsupported pcd output type %d", outputType)
	}
	if err != nil {
		return err
	}
	return writePCDData(cloud, out, outputType)
}

func writePCDData(cloud PointCloud, out io.Writer, pcdtype PCDType) error {
	var err error
	cloud.Iterate(func(_ int, pos r3.Vector) bool {
		switch pcdtype {
		case PCDBinary:
			buf := make([]byte, 12)
			binary.LittleEndian.PutUint32(buf, math.Float32bits(float32(pos.X)))
			binary.LittleEndian.PutUint32(buf[4:], math.Float32bits(float32(pos.Y)))
			binary.LittleEndian.PutUint32(buf[8:], math.Float32bits(float32(pos.Z)))
			_, err = out.Write(buf)
		case PCDAscii:
			_, err = io.WriteString(out,
				strconv.FormatFloat(pos.X, 'f', 6, 32)+" "+
					strconv.FormatFloat(pos.Y, 'f', 6, 32)+" "+
					strconv.FormatFloat(pos.Z, 'f', 6, 32)+"\n")
		}
		return err == nil
	})
	return err
}

type pcdHeader struct {
	size   []uint64
	width  uint64
	height uint64
	points uint64
	data   PCDType
}

const pcdCommentChar = "#"

var pcdHeaderFields = []string{"VERSION", "FIELDS", "SIZE", "TYPE", "COUNT", "WIDTH", "HEIGHT", "VIEWPOINT", "POINTS", "DATA"}

func parsePCDHeaderLine(line string, index int, header *pcdHeader) error {
	var err error
	name := pcdHeaderFields[index]
	field, value, _ := strings.Cut(line, " ")
	tokens := strings.Split(value, " ")
	if field != name {
		return errors.Errorf("line is supposed to start with %s but is %s", name, line)
	}

	switch name {
	case "VERSION":
		if value != ".7" && value != "0.7" {
			return errors.Errorf("unsupported pcd version %s", value)
		}
	case "FIELDS":
		if value != "x y z" {
			return errors.Errorf("unsupported pcd fields %q", value)
		}
	case "SIZE":
		if len(tokens) != 3 {
			return errors.New("unexpected number of fields in SIZE line")
		}
		header.size = make([]uint64, len(tokens))
		for i, token := range tokens {
			header.size[i], err = strconv.ParseUint(token, 10, 64)
			if err != nil {
				return errors.Errorf("invalid SIZE field %s", token)
			}
			// fields are all 4-byte floats, anything else misaligns the reader
			if header.size[i] != 4 {
				return errors.Errorf("unsupported pcd field size %s", token)
			}
		}
	case "TYPE":
		if len(tokens) != 3 {
			return errors.New("unexpected number of fields in TYPE line")
		}
		for _, token := range tokens {
			if token != "F" {
				return errors.Errorf("unsupported pcd field type %s", token)
			}
		}
	case "COUNT":
		if len(tokens) != 3 {
			return errors.New("unexpected number of fields in COUNT line")
		}
	case "WIDTH":
		header.width, err = strconv.ParseUint(value, 10, 64)
		if err != nil {
			return errors.Errorf("invalid WIDTH field %s: %s", value, err)
		}
	case "HEIGHT":
		header.height, err = strconv.ParseUint(value, 10, 64)
		if err != nil {
			return errors.Errorf("invalid HEIGHT field %s: %s", value, err)
		}
	case "VIEWPOINT":
		if len(tokens) != 7 {
			return errors.Errorf("unexpected number of fields in VIEWPOINT line. Expected 7, got %d", len(tokens))
		}
	case "POINTS":
		var points uint64
		points, err = strconv.ParseUint(value, 10, 64)
		if err != nil {
			return errors.Errorf("invalid POINTS field %s: %s", value, err)
		}
		if points != header.width*header.height {
			return errors.Errorf("POINTS field %d does not match WIDTH*HEIGHT %d", points, header.width*header.height)
		}
		header.points = points
	case "DATA":
		switch value {
		case "ascii":
			header.data = PCDAscii
		case "binary":
			header.data = PCDBinary
		default:
			return errors.Errorf("unsupported pcd data type %s", value)
		}
	}

	return nil
}

// ReadPCD reads a PCD file into a pointcloud. Only x y z float fields are
// supported; coordinates are taken to be meters.
func ReadPCD(inRaw io.Reader) (PointCloud, error) {
	header := pcdHeader{}
	in := bufio.NewReader(inRaw)
	var line string
	var err error
	headerLineCount := 0
	for headerLineCount < len(pcdHeaderFields) {
		line, err = in.ReadString('\n')
		if err != nil {
			return nil, errors.Errorf("error reading header line %d: %s", headerLineCount, err)
		}
		line, _, _ = strings.Cut(line, pcdCommentChar)
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if err := parsePCDHeaderLine(line, headerLineCount, &header); err != nil {
			return nil, err
		}
		headerLineCount++
	}
	switch header.data {
	case PCDAscii:
		return readPCDAscii(in, header)
	case PCDBinary:
		return readPCDBinary(in, header)
	default:
		return nil, errors.Errorf("unsupported pcd data type %v", header.data)
	}
}

func readPCDAscii(in *bufio.Reader, header pcdHeader) (PointCloud, error) {
	cloud := NewWithPrealloc(int(header.points))
	for i := 0; i < int(header.points); i++ {
		line, err := in.ReadString('\n')
		if err != nil {
			return nil, err
		}
		line = strings.TrimSpace(line)
		tokens := strings.Fields(line)
		if len(tokens) != 3 {
			return nil, errors.Errorf("unexpected number of fields in point %d", i)
		}
		point := make([]float64, len(tokens))
		for j, token := range tokens {
			point[j], err = strconv.ParseFloat(token, 64)
			if err != nil {
				return nil, errors.Errorf("invalid point %d field %s: %s", i, token, err)
			}
		}
		cloud.Append(r3.Vector{X: point[0], Y: point[1], Z: point[2]})
	}
	return cloud, nil
}

func readPCDBinary(in *bufio.Reader, header pcdHeader) (PointCloud, error) {
	cloud := NewWithPrealloc(int(header.points))
	for i := 0; i < int(header.points); i++ {
		pointBuf := make([]float64, 3)
		for j := 0; j < 3; j++ {
			buf := make([]byte, header.size[j])
			read, err := io.ReadFull(in, buf)
			if err != nil {
				return nil, err
			}
			if read != int(header.size[j]) {
				return nil, errors.Errorf("unexpected number of bytes read %d", read)
			}
			pointBuf[j] = float64(math.Float32frombits(binary.LittleEndian.Uint32(buf)))
		}
		cloud.Append(r3.Vector{X: pointBuf[0], Y: pointBuf[1], Z: pointBuf[2]})
	}
	return cloud, nil
}
