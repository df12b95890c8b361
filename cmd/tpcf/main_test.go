package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/banshee-data/tpcf/internal/geometry"
	"github.com/banshee-data/tpcf/internal/testutil"
	"github.com/banshee-data/tpcf/internal/tpcf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Cleanup(func() { configureLogging(io.Discard, false, false) })

	cmd := newRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func writePoints(t *testing.T, name string, pts []r3.Vec) string {
	t.Helper()
	var buf bytes.Buffer
	buf.WriteString("# x y z\n")
	for _, p := range pts {
		fmt.Fprintf(&buf, "%.17g %.17g %.17g\n", p.X, p.Y, p.Z)
	}
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

// dataRows returns the non-comment, non-header lines of a text table.
func dataRows(out string) []string {
	var rows []string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if strings.HasPrefix(line, "#") || strings.HasPrefix(line, "r_lo") {
			continue
		}
		rows = append(rows, line)
	}
	return rows
}

type jsonResult struct {
	RunID     string     `json:"run_id"`
	Estimator string     `json:"estimator"`
	Edges     []float64  `json:"edges"`
	Xi        []*float64 `json:"xi"`
	RMid      []float64  `json:"r_mid"`
	N1        int        `json:"n1"`
	N2        int        `json:"n2"`
	NRand     int        `json:"n_rand"`
	Auto      bool       `json:"auto"`
	Period    []*float64 `json:"period"`
	Counts    struct {
		DD []int64 `json:"dd"`
		DR []int64 `json:"dr"`
		RR []int64 `json:"rr"`
	} `json:"counts"`
}

func decodeResult(t *testing.T, out string) jsonResult {
	t.Helper()
	var res jsonResult
	require.NoError(t, json.Unmarshal([]byte(out), &res), out)
	return res
}

func TestComputeText(t *testing.T) {
	sample := writePoints(t, "sample.txt", testutil.UniformCube(200, 1, 1))

	out, _, err := execute(t, "compute",
		"--sample1", sample,
		"--rbins", "0.05,0.1,0.2",
		"--period", "1",
		"--uniform-randoms", "400",
		"--seed", "7",
	)
	require.NoError(t, err)

	assert.Contains(t, out, "# run ")
	assert.Contains(t, out, "# estimator Natural, n1=200 n2=200 n_rand=400 auto=true")
	assert.Contains(t, out, "r_lo")
	rows := dataRows(out)
	require.Len(t, rows, 2)
	assert.True(t, strings.HasPrefix(rows[0], "0.05 "), rows[0])
	// Natural needs RR but not DR.
	assert.Equal(t, "-", strings.Fields(rows[0])[5])
}

func TestComputeJSONLandySzalay(t *testing.T) {
	sample := writePoints(t, "sample.txt", testutil.UniformCube(150, 1, 2))
	randoms := writePoints(t, "randoms.txt", testutil.UniformCube(300, 1, 3))

	out, _, err := execute(t, "compute", "--format", "json",
		"--sample1", sample,
		"--randoms", randoms,
		"--rmin", "0.1", "--rmax", "0.3", "--nbins", "2",
		"--estimator", "landy-szalay",
		"--period", "1,1,1",
	)
	require.NoError(t, err)

	res := decodeResult(t, out)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, "Landy-Szalay", res.Estimator)
	assert.InDeltaSlice(t, []float64{0.1, 0.2, 0.3}, res.Edges, 1e-12)
	assert.InDeltaSlice(t, []float64{0.15, 0.25}, res.RMid, 1e-12)
	assert.Len(t, res.Xi, 2)
	assert.Len(t, res.Counts.DD, 2)
	assert.Len(t, res.Counts.DR, 2)
	assert.Len(t, res.Counts.RR, 2)
	assert.Equal(t, 150, res.N1)
	assert.Equal(t, 300, res.NRand)
	assert.True(t, res.Auto)
	require.Len(t, res.Period, 3)
	for _, xi := range res.Xi {
		require.NotNil(t, xi)
		assert.InDelta(t, 0, *xi, 0.3)
	}
}

func TestComputeJSONCross(t *testing.T) {
	s1 := writePoints(t, "s1.txt", testutil.UniformCube(80, 1, 4))
	s2 := writePoints(t, "s2.txt", testutil.UniformCube(60, 1, 5))
	randoms := writePoints(t, "randoms.txt", testutil.UniformCube(100, 1, 6))

	out, _, err := execute(t, "compute", "--format", "json",
		"--sample1", s1, "--sample2", s2, "--randoms", randoms,
		"--rbins", "0.1,0.2,0.4",
		"--estimator", "Davis-Peebles",
	)
	require.NoError(t, err)

	res := decodeResult(t, out)
	assert.False(t, res.Auto)
	assert.Equal(t, 80, res.N1)
	assert.Equal(t, 60, res.N2)
	assert.Nil(t, res.Period)
	assert.Nil(t, res.Counts.RR)
}

func TestComputeCSV(t *testing.T) {
	sample := writePoints(t, "sample.txt", testutil.UniformCube(100, 1, 8))

	out, _, err := execute(t, "compute", "--format", "csv",
		"--sample1", sample,
		"--rbins", "0.1,0.2,0.3,0.4",
		"--uniform-randoms", "200",
	)
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, columns, records[0])
	assert.Equal(t, "0.1", records[1][0])
	assert.Equal(t, "0.2", records[1][1])
}

func TestComputeEmptyBinsEncodeAsNull(t *testing.T) {
	// Two points far apart: the only bin has no RR pairs.
	sample := writePoints(t, "sample.txt", []r3.Vec{{X: 0, Y: 0, Z: 0}, {X: 0.9, Y: 0, Z: 0}})
	randoms := writePoints(t, "randoms.txt", []r3.Vec{{X: 0, Y: 0, Z: 0}, {X: 0.5, Y: 0.5, Z: 0.5}})

	out, _, err := execute(t, "compute", "--format", "json",
		"--sample1", sample, "--randoms", randoms,
		"--rbins", "0,0.01",
	)
	require.NoError(t, err)
	res := decodeResult(t, out)
	require.Len(t, res.Xi, 1)
	assert.Nil(t, res.Xi[0])
}

func TestComputeSeedIsReproducible(t *testing.T) {
	sample := writePoints(t, "sample.txt", testutil.UniformCube(300, 1, 9))
	args := []string{"compute", "--format", "json",
		"--sample1", sample,
		"--rbins", "0.05,0.1,0.2",
		"--uniform-randoms", "250",
		"--max-sample-size", "200",
		"--seed", "42",
		"--period", "1",
	}

	out1, _, err := execute(t, args...)
	require.NoError(t, err)
	out2, _, err := execute(t, args...)
	require.NoError(t, err)

	r1, r2 := decodeResult(t, out1), decodeResult(t, out2)
	assert.Equal(t, 200, r1.N1)
	assert.Equal(t, 200, r1.NRand)
	assert.Equal(t, r1.Counts, r2.Counts)
	assert.NotEqual(t, r1.RunID, r2.RunID)
}

func TestComputeErrors(t *testing.T) {
	sample := writePoints(t, "sample.txt", testutil.UniformCube(50, 1, 10))
	randoms := writePoints(t, "randoms.txt", testutil.UniformCube(50, 1, 11))

	tests := []struct {
		name    string
		args    []string
		wantErr error
		wantMsg string
	}{
		{
			name:    "natural without randoms",
			args:    []string{"--sample1", sample},
			wantErr: tpcf.ErrMissingCounts,
		},
		{
			name:    "unknown estimator",
			args:    []string{"--sample1", sample, "--randoms", randoms, "--estimator", "Peebles-Hauser"},
			wantErr: tpcf.ErrUnknownEstimator,
		},
		{
			name:    "decreasing edges",
			args:    []string{"--sample1", sample, "--randoms", randoms, "--rbins", "0.2,0.1"},
			wantErr: tpcf.ErrInvalidBinEdges,
		},
		{
			name:    "bad period",
			args:    []string{"--sample1", sample, "--randoms", randoms, "--period", "1,1"},
			wantErr: tpcf.ErrInvalidPeriod,
		},
		{
			name:    "negative period",
			args:    []string{"--sample1", sample, "--randoms", randoms, "--period", "-1"},
			wantErr: tpcf.ErrInvalidPeriod,
		},
		{
			name:    "both randoms",
			args:    []string{"--sample1", sample, "--randoms", randoms, "--uniform-randoms", "10"},
			wantMsg: "mutually exclusive",
		},
		{
			name:    "negative uniform randoms",
			args:    []string{"--sample1", sample, "--uniform-randoms", "-5"},
			wantMsg: "--uniform-randoms must be positive",
		},
		{
			name:    "negative uniform randoms with randoms file",
			args:    []string{"--sample1", sample, "--randoms", randoms, "--uniform-randoms", "-5"},
			wantMsg: "--uniform-randoms must be positive",
		},
		{
			name:    "zero max sample size",
			args:    []string{"--sample1", sample, "--randoms", randoms, "--max-sample-size", "0"},
			wantMsg: "max_sample_size",
		},
		{
			name:    "missing file",
			args:    []string{"--sample1", filepath.Join(t.TempDir(), "nope.txt"), "--randoms", randoms},
			wantErr: os.ErrNotExist,
		},
		{
			name:    "missing sample1 flag",
			args:    []string{"--randoms", randoms},
			wantMsg: "sample1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, append([]string{"compute"}, tt.args...)...)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestComputeEnvironmentOverrides(t *testing.T) {
	sample := writePoints(t, "sample.txt", testutil.UniformCube(60, 1, 12))
	t.Setenv("TPCF_NBINS", "3")
	t.Setenv("TPCF_RMAX", "0.3")

	out, _, err := execute(t, "compute", "--sample1", sample, "--uniform-randoms", "100")
	require.NoError(t, err)
	assert.Len(t, dataRows(out), 3)

	// Flags win over the environment.
	out, _, err = execute(t, "compute", "--sample1", sample, "--uniform-randoms", "100", "--nbins", "2")
	require.NoError(t, err)
	assert.Len(t, dataRows(out), 2)
}

func TestComputeConfigFile(t *testing.T) {
	sample := writePoints(t, "sample.txt", testutil.UniformCube(60, 1, 13))
	cfgPath := filepath.Join(t.TempDir(), "run.json")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`{
		"rbins": [0.1, 0.2],
		"period": [1, null, 1],
		"estimator": "Hewett",
		"seed": 5
	}`), 0o644))

	out, _, err := execute(t, "--config", cfgPath, "--format", "json",
		"compute", "--sample1", sample, "--uniform-randoms", "100")
	require.NoError(t, err)
	res := decodeResult(t, out)
	assert.Equal(t, "Hewett", res.Estimator)
	assert.Equal(t, []float64{0.1, 0.2}, res.Edges)
	require.Len(t, res.Period, 3)
	assert.NotNil(t, res.Period[0])
	assert.Nil(t, res.Period[1], "open axis encodes as null")

	// A flag overrides the file.
	out, _, err = execute(t, "--config", cfgPath, "--format", "json",
		"compute", "--sample1", sample, "--uniform-randoms", "100", "--estimator", "Hamilton")
	require.NoError(t, err)
	assert.Equal(t, "Hamilton", decodeResult(t, out).Estimator)
}

func TestComputeConfigFileRejected(t *testing.T) {
	sample := writePoints(t, "sample.txt", testutil.UniformCube(10, 1, 14))
	cfgPath := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("rmax: 1\n"), 0o644))

	_, _, err := execute(t, "--config", cfgPath, "compute", "--sample1", sample)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ".json")
}

func TestComputePlot(t *testing.T) {
	sample := writePoints(t, "sample.txt", testutil.Clustered(200, 5, 0.02, 1, 15))
	plotPath := filepath.Join(t.TempDir(), "xi.png")

	_, _, err := execute(t, "compute",
		"--sample1", sample,
		"--rmin", "0.01", "--rmax", "0.3", "--nbins", "5", "--log-bins",
		"--uniform-randoms", "400", "--seed", "1",
		"--plot", plotPath,
	)
	require.NoError(t, err)

	data, err := os.ReadFile(plotPath)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))
}

func TestComputeVerboseLogs(t *testing.T) {
	sample := writePoints(t, "sample.txt", testutil.UniformCube(100, 1, 16))

	_, stderr, err := execute(t, "compute", "--verbose",
		"--sample1", sample, "--uniform-randoms", "100", "--period", "1")
	require.NoError(t, err)
	assert.Contains(t, stderr, "[tpcf] ")
	assert.Contains(t, stderr, "Natural estimator")
	assert.Contains(t, stderr, "[paircount] ")
}

func TestInvalidFormat(t *testing.T) {
	_, _, err := execute(t, "--format", "yaml", "version")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestVersionCommand(t *testing.T) {
	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "tpcf dev"), out)
}

func TestDefaultsCommand(t *testing.T) {
	out, _, err := execute(t, "defaults")
	require.NoError(t, err)
	assert.Contains(t, out, "bolshoi")
	assert.Contains(t, out, "rockstar")
	assert.Contains(t, out, "halo_mpeak > 300 particles")
	assert.Contains(t, out, "WMAP5")
	assert.Contains(t, out, "[0 0.125 0.25 0.375 0.5]")

	out, _, err = execute(t, "defaults", "--format", "json")
	require.NoError(t, err)
	var rep struct {
		Simulation struct {
			SimName string `json:"simname"`
		} `json:"simulation"`
		Run struct {
			NBins int `json:"nbins"`
		} `json:"run"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, "bolshoi", rep.Simulation.SimName)
	assert.Equal(t, 4, rep.Run.NBins)
}

func TestReadPoints(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []r3.Vec
		wantErr error
		wantMsg string
	}{
		{
			name:  "whitespace and comments",
			input: "# header\n1 2 3\n\n  4\t5   6  \n",
			want:  []r3.Vec{{X: 1, Y: 2, Z: 3}, {X: 4, Y: 5, Z: 6}},
		},
		{
			name:  "commas",
			input: "1,2,3\n4, 5, 6\n",
			want:  []r3.Vec{{X: 1, Y: 2, Z: 3}, {X: 4, Y: 5, Z: 6}},
		},
		{
			name:  "empty",
			input: "# nothing\n",
			want:  []r3.Vec{},
		},
		{
			name:    "two columns",
			input:   "1 2\n",
			wantErr: geometry.ErrInvalidCoordinates,
		},
		{
			name:    "non-finite",
			input:   "1 2 NaN\n",
			wantErr: geometry.ErrInvalidCoordinates,
		},
		{
			name:    "not a number",
			input:   "1 2 3\n1 x 3\n",
			wantMsg: "line 2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readPoints(strings.NewReader(tt.input))
			if tt.wantErr != nil || tt.wantMsg != "" {
				require.Error(t, err)
				if tt.wantErr != nil {
					assert.ErrorIs(t, err, tt.wantErr)
				}
				if tt.wantMsg != "" {
					assert.Contains(t, err.Error(), tt.wantMsg)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParsePeriod(t *testing.T) {
	p, err := parsePeriod("2")
	require.NoError(t, err)
	require.Len(t, p, 3)
	for _, v := range p {
		require.NotNil(t, v)
		assert.Equal(t, 2.0, *v)
	}

	p, err = parsePeriod("1, inf, 3")
	require.NoError(t, err)
	require.Len(t, p, 3)
	assert.Equal(t, 1.0, *p[0])
	assert.Nil(t, p[1])
	assert.Equal(t, 3.0, *p[2])

	p, err = parsePeriod("")
	require.NoError(t, err)
	assert.Nil(t, p)

	_, err = parsePeriod("1,2")
	assert.ErrorIs(t, err, tpcf.ErrInvalidPeriod)

	_, err = parsePeriod("1,abc,2")
	assert.Error(t, err)
}

func TestRandomsBox(t *testing.T) {
	pts := []r3.Vec{{X: 0.2, Y: 0.3, Z: 0.4}, {X: 0.6, Y: 0.9, Z: 0.5}}

	box, err := randomsBox(nil, pts)
	require.NoError(t, err)
	assert.Equal(t, r3.Box{Min: r3.Vec{X: 0.2, Y: 0.3, Z: 0.4}, Max: r3.Vec{X: 0.6, Y: 0.9, Z: 0.5}}, box)

	box, err = randomsBox([]float64{2, math.Inf(1), 3}, pts)
	require.NoError(t, err)
	assert.Equal(t, r3.Box{Min: r3.Vec{X: 0, Y: 0.3, Z: 0}, Max: r3.Vec{X: 2, Y: 0.9, Z: 3}}, box)

	_, err = randomsBox(nil)
	assert.ErrorIs(t, err, tpcf.ErrEmptySample)
}

func TestJSONFloat(t *testing.T) {
	b, err := json.Marshal([]jsonFloat{1.5, jsonFloat(math.NaN()), jsonFloat(math.Inf(1))})
	require.NoError(t, err)
	assert.JSONEq(t, `[1.5, null, null]`, string(b))
}
