// Package eval scores radar object detections against ground truth with the
// Object Location Similarity (OLS) metric and reduces the matches to
// COCO-style precision/recall statistics.
package eval

// Object is one ground-truth object or detection in polar sensor
// coordinates. Ground-truth objects carry Score 1.
type Object struct {
	ID      int     // 1-based, unique within one parsed file
	FrameID int
	Range   float64 // meters
	Angle   float64 // radians, 0 on boresight
	ClassID int     // index into the class list
	Score   float64 // detection confidence in [0, 1]

	// Grid bins for grid-indexed results; -1 otherwise.
	RangeBin int
	AngleBin int
}

// Buckets groups objects by (frame, class) in a dense slice indexed
// frame*nClass + class. Objects keep their insertion order within a bucket.
type Buckets struct {
	nClass int
	cells  [][]Object
	count  int
}

// NewBuckets returns an empty set of buckets for nClass classes.
func NewBuckets(nClass int) *Buckets {
	return &Buckets{nClass: nClass}
}

// Add appends o to its (frame, class) bucket, growing the frame range as
// needed.
func (b *Buckets) Add(o Object) {
	idx := o.FrameID*b.nClass + o.ClassID
	if idx >= len(b.cells) {
		grown := make([][]Object, (o.FrameID+1)*b.nClass)
		copy(grown, b.cells)
		b.cells = grown
	}
	b.cells[idx] = append(b.cells[idx], o)
	b.count++
}

// Get returns the objects in the (frame, class) bucket. Out-of-range frames
// are empty.
func (b *Buckets) Get(frame, class int) []Object {
	idx := frame*b.nClass + class
	if frame < 0 || class < 0 || class >= b.nClass || idx >= len(b.cells) {
		return nil
	}
	return b.cells[idx]
}

// NumFrames returns one past the highest frame id seen.
func (b *Buckets) NumFrames() int {
	if b.nClass == 0 {
		return 0
	}
	return len(b.cells) / b.nClass
}

// NumClasses returns the number of classes the buckets were built for.
func (b *Buckets) NumClasses() int {
	return b.nClass
}

// Len returns the total number of objects across all buckets.
func (b *Buckets) Len() int {
	return b.count
}
