package spectrum

import (
	"bytes"
	"context"
	"log"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullSpectrumFile(t *testing.T, value float64) string {
	t.Helper()
	values := make([]float64, ChannelCount+1)
	for i := range values {
		values[i] = value
	}
	values[0] = 999
	return writeFile(t, "full.iec", iecFixture(values, 8))
}

func newTestService(t *testing.T, model Model) (*Service, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger := log.New(&buf, "", 0)
	return NewService(model, Config{}, logger), &buf
}

func TestService_LoadAndPredict(t *testing.T) {
	model := newStubModel()
	svc, logs := newTestService(t, model)
	require.True(t, svc.HasModel())

	path := fullSpectrumFile(t, 4)
	spec, err := svc.LoadSpectrum(path)
	require.NoError(t, err)
	assert.Equal(t, ChannelCount, spec.Len())

	table, err := svc.Predict(context.Background())
	require.NoError(t, err)
	require.Len(t, table.Rows, CatalogSize)
	assert.Equal(t, 256.0, table.Rows[0].Uncertainty)

	assert.Equal(t, filepath.Dir(path), svc.Config().LastSpectrumDir)
	assert.Contains(t, logs.String(), "Loaded spectrum full.iec (16384 channels)")
	assert.Contains(t, logs.String(), "Prediction done: Cs-137 12.35%")

	require.NoError(t, svc.Close())
	assert.True(t, model.closed)
}

func TestService_PredictWithoutSpectrum(t *testing.T) {
	svc, _ := newTestService(t, newStubModel())
	_, err := svc.Predict(context.Background())
	assert.ErrorIs(t, err, ErrNoSpectrum)

	_, err = svc.Summary()
	assert.ErrorIs(t, err, ErrNoSpectrum)
}

func TestService_DecodeOnlyMode(t *testing.T) {
	svc, logs := newTestService(t, nil)
	assert.False(t, svc.HasModel())
	assert.Contains(t, logs.String(), "prediction disabled")

	_, err := svc.LoadSpectrum(fullSpectrumFile(t, 1))
	require.NoError(t, err)
	_, err = svc.Predict(context.Background())
	assert.ErrorIs(t, err, ErrModelNotLoaded)
	assert.NoError(t, svc.Close())
}

func TestService_FailedLoadKeepsPrevious(t *testing.T) {
	svc, _ := newTestService(t, nil)
	_, err := svc.LoadSpectrum(writeFile(t, "a.iec", iecFixture([]float64{0, 1, 2}, 3)))
	require.NoError(t, err)

	_, err = svc.LoadSpectrum(writeFile(t, "b.iec", paddedSentinel+"\nA004 0 nan? 1\n"))
	require.Error(t, err)

	spec, ok := svc.Spectrum()
	require.True(t, ok)
	assert.Equal(t, []float64{1, 2}, spec.Counts())
}

func TestService_SimulationComparison(t *testing.T) {
	svc, _ := newTestService(t, nil)
	svc.UpdateConfig(Config{ParticleCount: 5e6, ThresholdBins: 1})

	_, err := svc.CompareWithSimulation()
	assert.ErrorIs(t, err, ErrNoSpectrum)

	_, err = svc.LoadSpectrum(writeFile(t, "s.iec", iecFixture([]float64{0, 0, 3, 4, 5}, 5)))
	require.NoError(t, err)
	_, err = svc.CompareWithSimulation()
	assert.ErrorIs(t, err, ErrNoSimulation)

	table, err := svc.LoadSimulation(writeFile(t, "sim.dat", simFixture(linearBins(4), true)))
	require.NoError(t, err)
	assert.Equal(t, 5e6, table.Particles)
	assert.Zero(t, table.Rows[0].NormalizedCounts)

	sim, ok := svc.Simulation()
	require.True(t, ok)
	assert.Equal(t, table, sim)

	score, err := svc.CompareWithSimulation()
	require.NoError(t, err)
	// the last bin has no successor and normalizes to a negative value
	assert.Less(t, sim.Rows[3].NormalizedCounts, 0.0)
	assert.InDelta(t, Similarity([]float64{0, 3, 4, 5}, sim.ReferenceCounts(4)), score, 1e-12)
	assert.NotEqual(t, Similarity([]float64{0, 3, 4, 5}, sim.Counts(4)), score)
}

func TestService_Summary(t *testing.T) {
	svc, _ := newTestService(t, nil)
	_, err := svc.LoadSpectrum(writeFile(t, "s.iec", iecFixture([]float64{7, 1, 9, 6}, 4)))
	require.NoError(t, err)

	sum, err := svc.Summary()
	require.NoError(t, err)
	assert.Equal(t, Summary{Channels: 3, Total: 16, Peak: 9, PeakChannel: 1, Uncertainty: 4}, sum)
}
