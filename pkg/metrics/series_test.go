package metrics

import (
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
)

func TestSeries_AppendWrapsAtCapacity(t *testing.T) {
	s := NewSeries(3)
	base := time.Unix(1000, 0)
	for i := 0; i < 5; i++ {
		s.Append(base.Add(time.Duration(i)*time.Second), float64(i))
	}

	require.Equal(t, 3, s.Len())
	pts := s.Points()
	require.Len(t, pts, 3)
	require.Equal(t, 2.0, pts[0].Value)
	require.Equal(t, 4.0, pts[2].Value)

	last, ok := s.Last()
	require.True(t, ok)
	require.Equal(t, 4.0, last.Value)
}

func TestSeries_Window(t *testing.T) {
	s := NewSeries(10)
	base := time.Unix(1000, 0)
	for i := 0; i < 6; i++ {
		s.Append(base.Add(time.Duration(i)*time.Second), float64(i))
	}

	now := base.Add(5 * time.Second)
	win := s.Window(now, 2*time.Second)
	require.Len(t, win, 3)
	require.Equal(t, 3.0, win[0].Value)
	require.Equal(t, 5.0, win[2].Value)

	require.Len(t, s.Window(now, 0), 6)
	require.Empty(t, s.Window(base.Add(time.Hour), time.Second))
}

func TestSeries_EmptyLast(t *testing.T) {
	s := NewSeries(0)
	require.Equal(t, DefaultCapacity, s.Cap())
	_, ok := s.Last()
	require.False(t, ok)
}

func TestSparkline(t *testing.T) {
	base := time.Unix(0, 0)
	pts := []Point{{base, 0}, {base, 50}, {base, 100}}
	line := Sparkline(pts, 10)
	require.Equal(t, "▁▅█", line)

	flat := Sparkline([]Point{{base, 0}, {base, 0}}, 10)
	require.Equal(t, "▁▁", flat)

	trimmed := Sparkline(pts, 2)
	require.Equal(t, 2, utf8.RuneCountInString(trimmed))
	require.Equal(t, "", Sparkline(nil, 5))
}
