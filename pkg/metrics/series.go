package metrics

import (
	"math"
	"strings"
	"time"
)

const DefaultCapacity = 600

type Point struct {
	At    time.Time
	Value float64
}

// Series is a fixed-capacity ring of samples. Append overwrites the oldest
// sample once the ring is full.
type Series struct {
	points []Point
	head   int
	size   int
}

func NewSeries(capacity int) *Series {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Series{points: make([]Point, capacity)}
}

func (s *Series) Append(at time.Time, v float64) {
	idx := (s.head + s.size) % len(s.points)
	s.points[idx] = Point{At: at, Value: v}
	if s.size < len(s.points) {
		s.size++
		return
	}
	s.head = (s.head + 1) % len(s.points)
}

func (s *Series) Len() int { return s.size }

func (s *Series) Cap() int { return len(s.points) }

func (s *Series) Last() (Point, bool) {
	if s.size == 0 {
		return Point{}, false
	}
	return s.at(s.size - 1), true
}

// Points returns every retained sample, oldest first.
func (s *Series) Points() []Point {
	out := make([]Point, 0, s.size)
	for i := 0; i < s.size; i++ {
		out = append(out, s.at(i))
	}
	return out
}

// Window returns the samples taken within d before now, oldest first.
func (s *Series) Window(now time.Time, d time.Duration) []Point {
	if d <= 0 {
		return s.Points()
	}
	cutoff := now.Add(-d)
	// samples are appended in arrival order, so scan back from the newest
	start := s.size
	for start > 0 && !s.at(start-1).At.Before(cutoff) {
		start--
	}
	out := make([]Point, 0, s.size-start)
	for i := start; i < s.size; i++ {
		out = append(out, s.at(i))
	}
	return out
}

func (s *Series) at(i int) Point {
	return s.points[(s.head+i)%len(s.points)]
}

var sparkTicks = []rune("▁▂▃▄▅▆▇█")

// Sparkline renders the last width values. A flat series draws the lowest tick.
func Sparkline(points []Point, width int) string {
	if width <= 0 || len(points) == 0 {
		return ""
	}
	if len(points) > width {
		points = points[len(points)-width:]
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, p := range points {
		lo = math.Min(lo, p.Value)
		hi = math.Max(hi, p.Value)
	}
	if lo > 0 {
		lo = 0
	}
	span := hi - lo
	var b strings.Builder
	for _, p := range points {
		idx := 0
		if span > 0 {
			idx = int(math.Round((p.Value - lo) / span * float64(len(sparkTicks)-1)))
		}
		b.WriteRune(sparkTicks[idx])
	}
	return b.String()
}
