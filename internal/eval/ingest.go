package eval

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/banshee-data/rodeval/internal/config"
	"github.com/banshee-data/rodeval/internal/fsutil"
	"github.com/banshee-data/rodeval/internal/mapping"
)

// Field-of-view limits applied to every record before bucketing.
const (
	MinRange = 1.0                  // meters
	MaxRange = 25.0                 // meters
	MaxAngle = 60.0 * math.Pi / 180 // radians, symmetric about boresight
)

// MaxFrameID is the largest frame id accepted. Buckets are dense over
// frames, so the id bounds memory and the number of matching tasks.
const MaxFrameID = 1<<20 - 1

// InFieldOfView reports whether a position lies inside the region the
// sensor measures reliably. Records outside it are dropped at ingestion.
func InFieldOfView(rng, agl float64) bool {
	if rng > MaxRange || rng < MinRange {
		return false
	}
	return agl >= -MaxAngle && agl <= MaxAngle
}

// ParseGroundTruth reads "frame range angle class" records.
func ParseGroundTruth(r io.Reader, objects *config.ObjectConfig) (*Buckets, error) {
	return parseRecords(r, objects, 4, func(f []string) (Object, error) {
		return parsePolar(f, objects, 1.0)
	})
}

// ParseSubmission reads "frame range angle class score" records.
func ParseSubmission(r io.Reader, objects *config.ObjectConfig) (*Buckets, error) {
	return parseRecords(r, objects, 5, func(f []string) (Object, error) {
		score, err := parseFloat(f[4], "score")
		if err != nil {
			return Object{}, err
		}
		return parsePolar(f, objects, score)
	})
}

// ParseGridResults reads "frame class range_bin angle_bin confidence"
// records produced by a network on the confidence-map grid. Bins are
// converted to range and angle through the grids; confidences above 1 are
// clamped to 1.
func ParseGridResults(r io.Reader, objects *config.ObjectConfig, rangeGrid, angleGrid []float64) (*Buckets, error) {
	return parseRecords(r, objects, 5, func(f []string) (Object, error) {
		frame, err := parseFrame(f[0])
		if err != nil {
			return Object{}, err
		}
		classID, err := lookupClass(objects, f[1])
		if err != nil {
			return Object{}, err
		}
		rid, err := parseInt(f[2], "range bin")
		if err != nil {
			return Object{}, err
		}
		aid, err := parseInt(f[3], "angle bin")
		if err != nil {
			return Object{}, err
		}
		conf, err := parseFloat(f[4], "confidence")
		if err != nil {
			return Object{}, err
		}
		rng, agl, err := mapping.Idx2RA(rid, aid, rangeGrid, angleGrid)
		if err != nil {
			return Object{}, fmt.Errorf("%w: %v", ErrGridIndex, err)
		}
		return Object{
			FrameID:  frame,
			Range:    rng,
			Angle:    agl,
			ClassID:  classID,
			Score:    math.Min(conf, 1),
			RangeBin: rid,
			AngleBin: aid,
		}, nil
	})
}

// LoadGroundTruth parses a ground-truth file.
func LoadGroundTruth(fsys fsutil.FileSystem, path string, objects *config.ObjectConfig) (*Buckets, error) {
	return loadFile(fsys, path, func(r io.Reader) (*Buckets, error) {
		return ParseGroundTruth(r, objects)
	})
}

// LoadSubmission parses a submission file.
func LoadSubmission(fsys fsutil.FileSystem, path string, objects *config.ObjectConfig) (*Buckets, error) {
	return loadFile(fsys, path, func(r io.Reader) (*Buckets, error) {
		return ParseSubmission(r, objects)
	})
}

// LoadGridResults parses a grid-indexed result file against the
// confidence-map grids.
func LoadGridResults(fsys fsutil.FileSystem, path string, objects *config.ObjectConfig, grids *mapping.Grids) (*Buckets, error) {
	return loadFile(fsys, path, func(r io.Reader) (*Buckets, error) {
		return ParseGridResults(r, objects, grids.Range, grids.Angle)
	})
}

func loadFile(fsys fsutil.FileSystem, path string, parse func(io.Reader) (*Buckets, error)) (*Buckets, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	b, err := parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return b, nil
}

// parseRecords scans whitespace-delimited lines, skipping blank ones, and
// buckets every record that passes the field-of-view filter. Ids are
// assigned 1-based in file order over the surviving records.
func parseRecords(r io.Reader, objects *config.ObjectConfig, nFields int, parse func([]string) (Object, error)) (*Buckets, error) {
	buckets := NewBuckets(objects.NClasses)
	scanner := bufio.NewScanner(r)
	nextID := 1
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != nFields {
			return nil, &RecordError{
				Line: lineNo,
				Text: line,
				Err:  fmt.Errorf("%w: want %d fields, got %d", ErrMalformedRecord, nFields, len(fields)),
			}
		}
		obj, err := parse(fields)
		if err != nil {
			return nil, &RecordError{Line: lineNo, Text: line, Err: err}
		}
		if !InFieldOfView(obj.Range, obj.Angle) {
			continue
		}
		obj.ID = nextID
		nextID++
		buckets.Add(obj)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}
	return buckets, nil
}

// parsePolar decodes the leading "frame range angle class" fields.
func parsePolar(f []string, objects *config.ObjectConfig, score float64) (Object, error) {
	frame, err := parseFrame(f[0])
	if err != nil {
		return Object{}, err
	}
	rng, err := parseFloat(f[1], "range")
	if err != nil {
		return Object{}, err
	}
	agl, err := parseFloat(f[2], "angle")
	if err != nil {
		return Object{}, err
	}
	classID, err := lookupClass(objects, f[3])
	if err != nil {
		return Object{}, err
	}
	return Object{
		FrameID:  frame,
		Range:    rng,
		Angle:    agl,
		ClassID:  classID,
		Score:    score,
		RangeBin: -1,
		AngleBin: -1,
	}, nil
}

func parseFrame(s string) (int, error) {
	frame, err := parseInt(s, "frame id")
	if err != nil {
		return 0, err
	}
	if frame < 0 {
		return 0, fmt.Errorf("%w: negative frame id %d", ErrMalformedRecord, frame)
	}
	if frame > MaxFrameID {
		return 0, fmt.Errorf("%w: frame id %d exceeds %d", ErrMalformedRecord, frame, MaxFrameID)
	}
	return frame, nil
}

func parseInt(s, field string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q is not an integer", ErrMalformedRecord, field, s)
	}
	return v, nil
}

func parseFloat(s, field string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %s %q is not a finite number", ErrMalformedRecord, field, s)
	}
	return v, nil
}

func lookupClass(objects *config.ObjectConfig, name string) (int, error) {
	id, ok := objects.ClassID(name)
	if !ok {
		return 0, fmt.Errorf("%w %q", ErrUnknownClass, name)
	}
	return id, nil
}
