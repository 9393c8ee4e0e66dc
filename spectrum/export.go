package spectrum

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// predictionHeader is the column header used for prediction tables.
var predictionHeader = []string{"radionuclide", "probability", "activity", "activity uncertainty"}

// PredictionTableData renders a prediction table as header plus rows of text,
// the same cells shown on screen and written to CSV.
func PredictionTableData(t PredictionTable) [][]string {
	data := make([][]string, 1, len(t.Rows)+1)
	data[0] = append([]string(nil), predictionHeader...)
	for _, r := range t.Rows {
		data = append(data, []string{
			r.Label,
			formatFixed2(r.Score),
			formatFixed2(r.Activity),
			formatFixed2(r.Uncertainty),
		})
	}
	return data
}

// WritePredictionCSV writes a prediction table as CSV.
func WritePredictionCSV(w io.Writer, t PredictionTable) error {
	return writeCSV(w, PredictionTableData(t))
}

// WriteSpectrumCSV writes channel/counts pairs as CSV.
func WriteSpectrumCSV(w io.Writer, s Spectrum) error {
	data := make([][]string, 0, len(s.Rows)+1)
	data = append(data, []string{"channel", "counts"})
	for _, r := range s.Rows {
		data = append(data, []string{strconv.Itoa(r.Channel), formatFloat(r.Counts)})
	}
	return writeCSV(w, data)
}

// WriteSimulationCSV writes all columns of a simulation table as CSV.
func WriteSimulationCSV(w io.Writer, t SimulationTable) error {
	data := make([][]string, 0, len(t.Rows)+1)
	data = append(data, []string{"Elow(eV)", "Emiddle(eV)", "counts(1/eV/hist)", "+-2sigma", "nbin", "counts", "E(keV)"})
	for _, r := range t.Rows {
		data = append(data, []string{
			formatFloat(r.ELow),
			formatFloat(r.EMiddle),
			formatFloat(r.RawCounts),
			formatFloat(r.Sigma2),
			strconv.Itoa(r.BinIndex),
			formatFloat(r.NormalizedCounts),
			formatFloat(r.EnergyKeV),
		})
	}
	return writeCSV(w, data)
}

func writeCSV(w io.Writer, data [][]string) error {
	writer := csv.NewWriter(w)
	for i, row := range data {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

var tablePrinter = message.NewPrinter(language.English)

// formatFixed2 uses thousands separators like the on-screen table.
func formatFixed2(v float64) string {
	return tablePrinter.Sprintf("%.2f", v)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
