package tile

import "errors"

var (
	// ErrNilSource is returned when BuildTile is called without a source.
	ErrNilSource = errors.New("tile: source is nil")
	// ErrZeroSampleDim is returned when a descriptor's SampleDim is zero.
	ErrZeroSampleDim = errors.New("tile: sample dimension is zero")
)
