package tesseract

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// wordLevel is the TSV "level" value of a word row.
const wordLevel = "5"

var errNoTSVHeader = errors.New("tsv: missing level/conf header")

// ParseConfidences returns the conf column of every word row of tesseract TSV output,
// in reading order, truncated to integer scores. Rows that cannot be parsed are skipped.
func ParseConfidences(tsv []byte) ([]float64, error) {
	lines := strings.Split(strings.ReplaceAll(string(tsv), "\r\n", "\n"), "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) == "" {
		return nil, errNoTSVHeader
	}

	levelCol, confCol := -1, -1
	for i, name := range strings.Split(lines[0], "\t") {
		switch strings.TrimSpace(name) {
		case "level":
			levelCol = i
		case "conf":
			confCol = i
		}
	}
	if levelCol < 0 || confCol < 0 {
		return nil, errNoTSVHeader
	}

	confs := make([]float64, 0, len(lines))
	for _, ln := range lines[1:] {
		if ln == "" {
			continue
		}
		cols := strings.Split(ln, "\t")
		if len(cols) <= confCol || len(cols) <= levelCol || cols[levelCol] != wordLevel {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(cols[confCol]), 64)
		if err != nil {
			continue
		}
		confs = append(confs, wordScore(v))
	}
	return confs, nil
}

// wordScore truncates a tesseract confidence to its integer score.
func wordScore(v float64) float64 {
	return math.Trunc(v)
}
