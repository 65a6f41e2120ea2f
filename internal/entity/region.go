package entity

import (
	"fmt"
	"strconv"
	"strings"
)

// RegionType identifies the geometric selector kind.
type RegionType string

const (
	RegionBBox    RegionType = "bbox"
	RegionPolygon RegionType = "polygon"
	RegionPoint   RegionType = "point"
	RegionMask    RegionType = "mask"
)

// CoordinateFrame tells whether coordinates are absolute pixels or
// relative [0,1] fractions of the image dimensions.
type CoordinateFrame string

const (
	FramePixel    CoordinateFrame = "pixel"
	FrameRelative CoordinateFrame = "relative"
)

// Region is a typed geometric selector over an image. It is a value object:
// stored coordinates are never rescaled in place, frame conversion happens
// only at read time via ToPixels.
//
// Coordinate layout by type:
//
//	bbox:    [x1, y1, x2, y2]
//	point:   [x, y]
//	polygon: [x0, y0, x1, y1, ...] (at least 3 vertices)
//	mask:    [x1, y1, x2, y2] bounding box of the raster, MaskRef points at the raster
type Region struct {
	Type        RegionType      `json:"type"`
	Coordinates []float64       `json:"coordinates"`
	Frame       CoordinateFrame `json:"format"`
	MaskRef     string          `json:"mask_ref,omitempty"`
}

// Validate checks coordinate arity, frame resolvability and bounds against
// the image geometry. Width/height are required for pixel-frame bounds
// checks; relative coordinates must lie in [0,1].
func (r Region) Validate(width, height int) error {
	switch r.Frame {
	case FramePixel, FrameRelative:
	default:
		return fmt.Errorf("unresolvable coordinate frame %q", r.Frame)
	}

	switch r.Type {
	case RegionBBox, RegionMask:
		if len(r.Coordinates) != 4 {
			return fmt.Errorf("%s region requires 4 coordinates, got %d", r.Type, len(r.Coordinates))
		}
		if r.Coordinates[0] >= r.Coordinates[2] || r.Coordinates[1] >= r.Coordinates[3] {
			return fmt.Errorf("%s region is empty or inverted", r.Type)
		}
		if r.Type == RegionMask && r.MaskRef == "" {
			return fmt.Errorf("mask region requires a mask reference")
		}
	case RegionPoint:
		if len(r.Coordinates) != 2 {
			return fmt.Errorf("point region requires 2 coordinates, got %d", len(r.Coordinates))
		}
	case RegionPolygon:
		if len(r.Coordinates) < 6 || len(r.Coordinates)%2 != 0 {
			return fmt.Errorf("polygon region requires at least 3 (x,y) vertices, got %d values", len(r.Coordinates))
		}
	default:
		return fmt.Errorf("unknown region type %q", r.Type)
	}

	for i := 0; i+1 < len(r.Coordinates); i += 2 {
		x, y := r.Coordinates[i], r.Coordinates[i+1]
		if r.Frame == FrameRelative {
			if x < 0 || x > 1 || y < 0 || y > 1 {
				return fmt.Errorf("relative coordinate (%g, %g) outside [0,1]", x, y)
			}
			continue
		}
		if x < 0 || y < 0 || float64(width) < x || float64(height) < y {
			return fmt.Errorf("pixel coordinate (%g, %g) outside %dx%d image", x, y, width, height)
		}
	}
	return nil
}

// ToPixels returns a copy of the region expressed in the pixel frame for the
// given image geometry. Pixel-frame regions are returned unchanged (copied).
// This is the only place frame conversion happens.
func (r Region) ToPixels(width, height int) Region {
	out := r
	out.Coordinates = make([]float64, len(r.Coordinates))
	copy(out.Coordinates, r.Coordinates)
	if r.Frame != FrameRelative {
		return out
	}
	for i := 0; i+1 < len(out.Coordinates); i += 2 {
		out.Coordinates[i] *= float64(width)
		out.Coordinates[i+1] *= float64(height)
	}
	out.Frame = FramePixel
	return out
}

// CanonicalKey returns a deterministic key for this region, used to scope the
// per-image embedding cache. Identical selections always map to the same key.
func (r Region) CanonicalKey() string {
	var b strings.Builder
	b.WriteString(string(r.Type))
	b.WriteByte('|')
	b.WriteString(string(r.Frame))
	for _, c := range r.Coordinates {
		b.WriteByte('|')
		b.WriteString(strconv.FormatFloat(c, 'g', 9, 64))
	}
	if r.MaskRef != "" {
		b.WriteByte('|')
		b.WriteString(r.MaskRef)
	}
	return b.String()
}
