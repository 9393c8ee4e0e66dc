package spectrum

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// IECSentinel marks the start of the channel data in an IEC spectrum file.
const IECSentinel = "A004USERDEFINED"

// ParseIECFile reads an IEC spectrum file from disk.
func ParseIECFile(path string) (Spectrum, error) {
	f, err := os.Open(path)
	if err != nil {
		return Spectrum{}, fmt.Errorf("open spectrum file: %w", err)
	}
	defer f.Close()
	spec, err := decodeIEC(f, filepath.Base(path))
	if err != nil {
		return Spectrum{}, err
	}
	spec.Source = path
	return spec, nil
}

// DecodeIEC decodes an IEC spectrum. Lines up to and including the sentinel
// are header; every later line contributes its tokens after the first two.
// The first decoded value is not a channel and is dropped. A stream without
// the sentinel yields an empty spectrum.
func DecodeIEC(r io.Reader) (Spectrum, error) {
	return decodeIEC(r, "")
}

func decodeIEC(r io.Reader, source string) (Spectrum, error) {
	var (
		header  []string
		values  []float64
		started bool
		lineNo  int
	)
	scanner := newLineScanner(r)
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if isIECSentinel(line) {
			started = true
			continue
		}
		if !started {
			header = append(header, headerText(line))
			continue
		}
		fields := strings.Fields(line)
		if len(fields) <= 2 {
			continue
		}
		for _, tok := range fields[2:] {
			v, err := strconv.ParseFloat(tok, 64)
			if err != nil {
				return Spectrum{}, &ParseError{Source: source, Line: lineNo, Err: err}
			}
			values = append(values, v)
		}
	}
	if err := scanner.Err(); err != nil {
		return Spectrum{}, fmt.Errorf("scan spectrum file: %w", err)
	}
	if !started {
		header = nil
	}

	// TODO: confirm with the detector vendor whether the leading value is a
	// channel count or live time before treating it as metadata.
	var rows []SpectrumRow
	if len(values) > 1 {
		rows = make([]SpectrumRow, len(values)-1)
		for i, v := range values[1:] {
			rows[i] = SpectrumRow{Channel: i, Counts: v}
		}
	}
	return Spectrum{Header: header, Rows: rows}, nil
}

func isIECSentinel(line string) bool {
	return strings.TrimRight(line, " \t\r") == IECSentinel
}
