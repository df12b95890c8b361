package plotting

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeriesPointsSkipsNonFinite(t *testing.T) {
	s := Series{
		Edges: []float64{0, 1, 2, 3, 4},
		Xi:    []float64{1.5, math.NaN(), math.Inf(1), -0.2},
	}
	pts := s.points()
	require.Len(t, pts, 2)
	assert.Equal(t, 0.5, pts[0].X)
	assert.Equal(t, 1.5, pts[0].Y)
	assert.Equal(t, 3.5, pts[1].X)
	assert.Equal(t, -0.2, pts[1].Y)
}

func TestNewXiPlot_NothingToPlot(t *testing.T) {
	_, err := NewXiPlot("empty", false, Series{Edges: []float64{0, 1}, Xi: []float64{math.NaN()}})
	assert.ErrorIs(t, err, ErrNothingToPlot)
}

func TestWriteXi_PNG(t *testing.T) {
	var buf bytes.Buffer
	err := WriteXi(&buf, "png", "test", true,
		Series{Label: "Landy-Szalay", Edges: []float64{0.1, 0.2, 0.4, 0.8}, Xi: []float64{3, 1, 0.2}},
		Series{Label: "Natural", Edges: []float64{0.1, 0.2, 0.4, 0.8}, Xi: []float64{2.8, 0.9, math.NaN()}},
	)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")), "not a PNG")
}

func TestSaveXi(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xi.svg")
	require.NoError(t, SaveXi(path, "svg", false, Series{Edges: []float64{0, 1, 2}, Xi: []float64{0.5, 0.1}}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}
