package spectrum

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const paddedSentinel = "A004USERDEFINED                                                     "

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// iecFixture builds an IEC file whose data rows carry the given values,
// perRow values after the two leading columns.
func iecFixture(values []float64, perRow int) string {
	var b strings.Builder
	b.WriteString("A004SPEC_ID    sample\n")
	b.WriteString("A004   600.000000   601.250000\n")
	b.WriteString(paddedSentinel + "\n")
	for i := 0; i < len(values); i += perRow {
		fmt.Fprintf(&b, "A004 %6d", i)
		for j := i; j < i+perRow && j < len(values); j++ {
			b.WriteString(" " + strconv.FormatFloat(values[j], 'f', -1, 64))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func TestDecodeIEC_DropsFirstValue(t *testing.T) {
	spec, err := DecodeIEC(strings.NewReader(iecFixture([]float64{5, 1, 2, 3}, 2)))
	require.NoError(t, err)

	require.Equal(t, 3, spec.Len())
	assert.Equal(t, []SpectrumRow{
		{Channel: 0, Counts: 1},
		{Channel: 1, Counts: 2},
		{Channel: 2, Counts: 3},
	}, spec.Rows)
	assert.Equal(t, []float64{1, 2, 3}, spec.Counts())
	assert.Equal(t, []string{"A004SPEC_ID    sample", "A004   600.000000   601.250000"}, spec.Header)
}

func TestDecodeIEC_LengthIsValuesMinusOne(t *testing.T) {
	tests := []struct {
		name   string
		values int
		perRow int
	}{
		{"single row", 6, 6},
		{"ragged last row", 11, 5},
		{"full detector", ChannelCount + 1, 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := make([]float64, tt.values)
			for i := range values {
				values[i] = float64(i)
			}
			spec, err := DecodeIEC(strings.NewReader(iecFixture(values, tt.perRow)))
			require.NoError(t, err)
			assert.Equal(t, tt.values-1, spec.Len())
			for i, r := range spec.Rows {
				if r.Channel != i || r.Counts != float64(i+1) {
					t.Fatalf("row %d = %+v", i, r)
				}
			}
		})
	}
}

func TestDecodeIEC_WithoutSentinel(t *testing.T) {
	spec, err := DecodeIEC(strings.NewReader("A004SPEC_ID\nA004 0 1 2 3\n"))
	require.NoError(t, err)
	assert.Zero(t, spec.Len())
	assert.Nil(t, spec.Header)
}

func TestDecodeIEC_SentinelMustMatchWholeLine(t *testing.T) {
	in := "A004USERDEFINED extra\nA004 0 1 2\n"
	spec, err := DecodeIEC(strings.NewReader(in))
	require.NoError(t, err)
	assert.Zero(t, spec.Len())
}

func TestDecodeIEC_CRLFAndBOM(t *testing.T) {
	in := "\ufeffA004SPEC_ID\r\n" + paddedSentinel + "\r\nA004 0 9 4 5\r\n\r\nA004 3 6\r\n"
	spec, err := DecodeIEC(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []float64{4, 5, 6}, spec.Counts())
	assert.Equal(t, []string{"A004SPEC_ID"}, spec.Header)
}

func TestDecodeIEC_HeaderInANSICodePage(t *testing.T) {
	in := "A004 Dose \xb5Sv\n" + paddedSentinel + "\nA004 0 1 2\n"
	spec, err := DecodeIEC(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []string{"A004 Dose µSv"}, spec.Header)
}

func TestParseIECFile_ParseError(t *testing.T) {
	path := writeFile(t, "bad.iec", paddedSentinel+"\nA004 0 1 2\nA004 2 3 x4\n")
	_, err := ParseIECFile(path)
	require.Error(t, err)

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, 3, perr.Line)
	assert.Equal(t, "bad.iec", perr.Source)
	assert.Contains(t, err.Error(), "bad.iec:3")
}

func TestParseIECFile_Missing(t *testing.T) {
	_, err := ParseIECFile(filepath.Join(t.TempDir(), "nope.iec"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestParseIECFile_SetsSource(t *testing.T) {
	path := writeFile(t, "ok.IEC", iecFixture([]float64{0, 10, 20}, 3))
	spec, err := ParseIECFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, spec.Source)
	assert.Equal(t, []float64{10, 20}, spec.Counts())
}

func TestSpectrum_HeaderText(t *testing.T) {
	spec := Spectrum{Header: []string{"A004SPEC_ID    sample", "", "  A004   600.0\t601.25 ", "A004 Dose µSv"}}
	assert.Equal(t, "A004SPEC_ID sample\nA004 600.0 601.25\nA004 Dose µSv", spec.HeaderText(0))
	assert.Equal(t, "A004SPEC_ID sample\nA004 600.0 601.25", spec.HeaderText(2))
	assert.Empty(t, Spectrum{}.HeaderText(3))
}
