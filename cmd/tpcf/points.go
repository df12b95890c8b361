package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/banshee-data/tpcf/internal/geometry"
	"gonum.org/v1/gonum/spatial/r3"
)

// maxLineBytes bounds a single row of a point file.
const maxLineBytes = 1 << 20

// readPointFile loads an "x y z" table from path; "-" reads stdin.
func readPointFile(path string) ([]r3.Vec, error) {
	if path == "-" {
		return readPoints(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open point file: %w", err)
	}
	defer f.Close()

	pts, err := readPoints(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return pts, nil
}

// readPoints parses one point per line. Columns may be separated by
// whitespace or commas; blank lines and lines starting with # are skipped.
func readPoints(r io.Reader) ([]r3.Vec, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var rows [][]float64
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.FieldsFunc(text, func(r rune) bool {
			return r == ',' || unicode.IsSpace(r)
		})
		row := make([]float64, len(fields))
		for i, field := range fields {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid float '%s': %w", line, field, err)
			}
			row[i] = v
		}
		rows = append(rows, row)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read points: %w", err)
	}
	return geometry.FromRows(rows)
}
