// Package route implements the travelling-salesman problem data: a list of
// named cities in 3-D space and the evaluator that scores a genome as the
// length of the closed tour it encodes.
package route

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	ErrNoCities       = errors.New("no cities loaded")
	ErrMalformedCity  = errors.New("malformed city entry")
	ErrLengthMismatch = errors.New("genome length does not match city count")
)

// Point is a location in 3-D space.
type Point struct {
	X, Y, Z float64
}

// Distance is the Euclidean distance between p and q.
func (p Point) Distance(q Point) float64 {
	dx, dy, dz := p.X-q.X, p.Y-q.Y, p.Z-q.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

func (p Point) String() string {
	return "(" + formatCoord(p.X) + "," + formatCoord(p.Y) + "," + formatCoord(p.Z) + ")"
}

// ParsePoint reads "x,y,z", optionally wrapped in parentheses.
func ParsePoint(raw string) (Point, error) {
	trimmed := strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(raw), "("), ")")
	parts := strings.Split(trimmed, ",")
	if len(parts) != 3 {
		return Point{}, fmt.Errorf("%w: point %q needs three coordinates", ErrMalformedCity, raw)
	}
	var coords [3]float64
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return Point{}, fmt.Errorf("%w: point %q: %w", ErrMalformedCity, raw, err)
		}
		coords[i] = v
	}
	return Point{X: coords[0], Y: coords[1], Z: coords[2]}, nil
}

type City struct {
	Name string `json:"name"`
	Loc  Point  `json:"loc"`
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}
