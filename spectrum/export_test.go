package spectrum

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPredictionTableData(t *testing.T) {
	data := PredictionTableData(PredictionTable{Rows: []Prediction{
		{Label: "Cs-137", Score: 97.5, Activity: 12.346, Uncertainty: 3},
		{Label: "Co-60", Score: 0, Activity: 0.1, Uncertainty: 3},
	}})
	require.Len(t, data, 3)
	assert.Equal(t, []string{"radionuclide", "probability", "activity", "activity uncertainty"}, data[0])
	assert.Equal(t, []string{"Cs-137", "97.50", "12.35", "3.00"}, data[1])
	assert.Equal(t, []string{"Co-60", "0.00", "0.10", "3.00"}, data[2])
}

func TestWritePredictionCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePredictionCSV(&buf, PredictionTable{Rows: []Prediction{
		{Label: "Am-241", Score: 1.5, Activity: 2, Uncertainty: 0},
	}}))
	assert.Equal(t, "radionuclide,probability,activity,activity uncertainty\nAm-241,1.50,2.00,0.00\n", buf.String())
}

func TestWriteSpectrumCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSpectrumCSV(&buf, Spectrum{Rows: []SpectrumRow{{0, 1}, {1, 2.5}}}))
	assert.Equal(t, "channel,counts\n0,1\n1,2.5\n", buf.String())
}

func TestWriteSimulationCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSimulationCSV(&buf, SimulationTable{Rows: []SimulationRow{
		{ELow: 1000, EMiddle: 1500, RawCounts: 1e-6, Sigma2: 2e-8, BinIndex: 1, NormalizedCounts: math.Inf(-1), EnergyKeV: 1},
	}}))
	assert.Equal(t,
		"Elow(eV),Emiddle(eV),counts(1/eV/hist),+-2sigma,nbin,counts,E(keV)\n1000,1500,1e-06,2e-08,1,-Inf,1\n",
		buf.String())
}
