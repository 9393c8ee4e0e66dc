package spectrum

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Token positions of a simulation data line split on single spaces.
const (
	colELow     = 2
	colEMiddle  = 4
	colCounts   = 6
	colSigma2   = 8
	colBinIndex = 9
)

// SimulationOptions controls normalization of a simulated spectrum.
type SimulationOptions struct {
	// Particles is the number of simulated histories. Zero selects DefaultParticleCount.
	Particles float64
	// ThresholdBins is how many leading bins are forced to zero. Zero selects DefaultThresholdBins.
	ThresholdBins int
	// MaxRows caps the table length. Zero selects ChannelCount.
	MaxRows int
}

func (o *SimulationOptions) applyDefaults() {
	if o.Particles <= 0 {
		o.Particles = DefaultParticleCount
	}
	if o.ThresholdBins <= 0 {
		o.ThresholdBins = DefaultThresholdBins
	}
	if o.MaxRows <= 0 {
		o.MaxRows = ChannelCount
	}
}

// ParseSimulationFile reads a simulated pulse height spectrum from disk.
// particles <= 0 selects DefaultParticleCount.
func ParseSimulationFile(path string, particles float64) (SimulationTable, error) {
	return ParseSimulationFileWithOptions(path, SimulationOptions{Particles: particles})
}

// ParseSimulationFileWithOptions reads a simulation file honoring caller provided options.
func ParseSimulationFileWithOptions(path string, opts SimulationOptions) (SimulationTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return SimulationTable{}, fmt.Errorf("open simulation file: %w", err)
	}
	defer f.Close()
	table, err := decodeSimulation(f, filepath.Base(path), opts)
	if err != nil {
		return SimulationTable{}, err
	}
	table.Source = path
	return table, nil
}

// DecodeSimulation decodes a simulation stream. Comment lines start with '#',
// a line splitting into exactly two tokens ends the data.
func DecodeSimulation(r io.Reader, opts SimulationOptions) (SimulationTable, error) {
	return decodeSimulation(r, "", opts)
}

func decodeSimulation(r io.Reader, source string, opts SimulationOptions) (SimulationTable, error) {
	opts.applyDefaults()
	var rows []SimulationRow
	lineNo := 0
	scanner := newLineScanner(r)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.HasPrefix(line, "#") {
			continue
		}
		tokens := strings.Split(line, " ")
		if len(tokens) == 2 {
			break
		}
		row, err := parseSimulationTokens(tokens)
		if err != nil {
			return SimulationTable{}, &ParseError{Source: source, Line: lineNo, Err: err}
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return SimulationTable{}, fmt.Errorf("scan simulation file: %w", err)
	}

	normalizeSimulation(rows, opts)
	if len(rows) > opts.MaxRows {
		rows = rows[:opts.MaxRows]
	}
	return SimulationTable{Particles: opts.Particles, Rows: rows}, nil
}

func parseSimulationTokens(tokens []string) (SimulationRow, error) {
	if len(tokens) <= colBinIndex {
		return SimulationRow{}, fmt.Errorf("%w: %d fields, want at least %d", ErrMalformedLine, len(tokens), colBinIndex+1)
	}
	var row SimulationRow
	fields := []struct {
		col int
		dst *float64
	}{
		{colELow, &row.ELow},
		{colEMiddle, &row.EMiddle},
		{colCounts, &row.RawCounts},
		{colSigma2, &row.Sigma2},
	}
	for _, f := range fields {
		v, err := parseDecimal(tokens[f.col])
		if err != nil {
			return SimulationRow{}, err
		}
		*f.dst = v
	}
	bin, err := strconv.Atoi(strings.TrimSpace(tokens[colBinIndex]))
	if err != nil {
		return SimulationRow{}, err
	}
	row.BinIndex = bin
	return row, nil
}

// parseDecimal accepts both '.' and ',' as decimal separator.
func parseDecimal(tok string) (float64, error) {
	tok = strings.TrimSpace(tok)
	return strconv.ParseFloat(strings.Replace(tok, ",", ".", 1), 64)
}

// normalizeSimulation converts per-eV-per-history rates into counts per bin
// for opts.Particles histories. The last row has no successor and uses an
// upper edge of zero.
func normalizeSimulation(rows []SimulationRow, opts SimulationOptions) {
	for i := range rows {
		next := 0.0
		if i+1 < len(rows) {
			next = rows[i+1].ELow
		}
		width := (next - rows[i].ELow) / float64(rows[i].BinIndex)
		rows[i].NormalizedCounts = rows[i].RawCounts * opts.Particles / width
		if i < opts.ThresholdBins {
			rows[i].NormalizedCounts = 0
		}
		rows[i].EnergyKeV = rows[i].ELow / 1e3
	}
}
