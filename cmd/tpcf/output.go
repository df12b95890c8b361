package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"text/tabwriter"

	"github.com/banshee-data/tpcf/internal/tpcf"
)

// binRow is one radial bin of a result.
type binRow struct {
	RLo  float64
	RHi  float64
	RMid float64
	Xi   float64
	DD   int64
	DR   *int64
	RR   *int64
}

func binRows(res *tpcf.Result) []binRow {
	rows := make([]binRow, len(res.Xi))
	for i := range rows {
		rows[i] = binRow{
			RLo:  res.Edges[i],
			RHi:  res.Edges[i+1],
			RMid: 0.5 * (res.Edges[i] + res.Edges[i+1]),
			Xi:   res.Xi[i],
			DD:   res.Counts.DD[i],
		}
		if res.Counts.DR != nil {
			rows[i].DR = &res.Counts.DR[i]
		}
		if res.Counts.RR != nil {
			rows[i].RR = &res.Counts.RR[i]
		}
	}
	return rows
}

var columns = []string{"r_lo", "r_hi", "r_mid", "xi", "DD", "DR", "RR"}

func writeResult(w io.Writer, format string, res *tpcf.Result) error {
	switch format {
	case "json":
		return writeJSON(w, res)
	case "csv":
		return writeCSV(w, res)
	default:
		return writeTable(w, res)
	}
}

func writeTable(w io.Writer, res *tpcf.Result) error {
	fmt.Fprintf(w, "# run %s\n", res.RunID)
	fmt.Fprintf(w, "# estimator %s, n1=%d n2=%d n_rand=%d auto=%t\n", res.Estimator, res.N1, res.N2, res.NRand, res.Auto)
	if res.Period != nil {
		fmt.Fprintf(w, "# period %v\n", res.Period)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for i, c := range columns {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprint(tw, c)
	}
	fmt.Fprintln(tw)
	for _, r := range binRows(res) {
		fmt.Fprintf(tw, "%g\t%g\t%g\t%s\t%d\t%s\t%s\n",
			r.RLo, r.RHi, r.RMid, formatFloat(r.Xi), r.DD, formatCount(r.DR), formatCount(r.RR))
	}
	return tw.Flush()
}

func writeCSV(w io.Writer, res *tpcf.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return err
	}
	for _, r := range binRows(res) {
		row := []string{
			strconv.FormatFloat(r.RLo, 'g', -1, 64),
			strconv.FormatFloat(r.RHi, 'g', -1, 64),
			strconv.FormatFloat(r.RMid, 'g', -1, 64),
			formatFloat(r.Xi),
			strconv.FormatInt(r.DD, 10),
			formatCount(r.DR),
			formatCount(r.RR),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// jsonFloat encodes non-finite values as null, which encoding/json cannot
// otherwise represent.
type jsonFloat float64

func (f jsonFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

func jsonFloats(xs []float64) []jsonFloat {
	if xs == nil {
		return nil
	}
	out := make([]jsonFloat, len(xs))
	for i, x := range xs {
		out[i] = jsonFloat(x)
	}
	return out
}

// jsonReport is a Result with its non-finite fields made encodable.
type jsonReport struct {
	*tpcf.Result
	Xi     []jsonFloat `json:"xi"`
	Period []jsonFloat `json:"period,omitempty"`
	RMid   []float64   `json:"r_mid"`
}

func writeJSON(w io.Writer, res *tpcf.Result) error {
	rep := jsonReport{
		Result: res,
		Xi:     jsonFloats(res.Xi),
		Period: jsonFloats(res.Period),
		RMid:   make([]float64, len(res.Xi)),
	}
	for i, r := range binRows(res) {
		rep.RMid[i] = r.RMid
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 8, 64)
}

func formatCount(c *int64) string {
	if c == nil {
		return "-"
	}
	return strconv.FormatInt(*c, 10)
}
