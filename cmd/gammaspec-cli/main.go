package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"yashubustudio/gammaspec/spectrum"
)

type cliOptions struct {
	configPath     string
	iecPath        string
	simulationPath string
	particles      float64
	outputPath     string
	outputDir      string
	nuclides       string
	decodeOnly     bool
	stdout         bool
}

func main() {
	opts, err := parseFlags()
	if err != nil {
		log.Fatalf("gammaspec-cli: %v", err)
	}
	if err := run(opts); err != nil {
		log.Fatalf("gammaspec-cli: %v", err)
	}
}

func parseFlags() (cliOptions, error) {
	var opts cliOptions
	flag.StringVar(&opts.configPath, "config", "", "Path to config.json (default: ./config.json)")
	flag.StringVar(&opts.iecPath, "iec", "", "IEC spectrum file to analyze")
	flag.StringVar(&opts.simulationPath, "sim", "", "penEasy simulation output to decode")
	flag.Float64Var(&opts.particles, "particles", 0, "Number of simulated histories (default from config, 1e7)")
	flag.StringVar(&opts.outputPath, "output", "", "CSV file to write predictions (default uses --output-dir/prediction_*.csv)")
	flag.StringVar(&opts.outputDir, "output-dir", "", "Directory where CSVs are written when --output is omitted (default from config)")
	flag.StringVar(&opts.nuclides, "nuclides", "", "Comma separated nuclides to report, e.g. Cs-137,Co-60")
	flag.BoolVar(&opts.decodeOnly, "decode-only", false, "Skip inference and only write decoded tables")
	flag.BoolVar(&opts.stdout, "stdout", false, "Print summary results to STDOUT")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s (--iec FILE | --sim FILE) [options]\n\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	opts.configPath = strings.TrimSpace(opts.configPath)
	opts.iecPath = strings.TrimSpace(opts.iecPath)
	opts.simulationPath = strings.TrimSpace(opts.simulationPath)
	opts.outputPath = strings.TrimSpace(opts.outputPath)
	opts.outputDir = strings.TrimSpace(opts.outputDir)

	if opts.particles != 0 {
		if err := spectrum.ValidateParticleCount(opts.particles); err != nil {
			return opts, fmt.Errorf("--particles: %w", err)
		}
	}
	if opts.iecPath == "" && opts.simulationPath == "" {
		flag.Usage()
		return opts, errors.New("missing required --iec or --sim file")
	}
	return opts, nil
}

func run(opts cliOptions) error {
	_ = godotenv.Load()

	cfg, err := spectrum.LoadConfig(opts.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.particles > 0 {
		cfg.ParticleCount = opts.particles
	}
	if opts.outputDir == "" {
		opts.outputDir = cfg.OutputDir
	}
	filter, err := parseNuclideFilter(opts.nuclides)
	if err != nil {
		return err
	}

	logger := log.New(os.Stdout, "", log.LstdFlags)
	var model spectrum.Model
	needModel := opts.iecPath != "" && !opts.decodeOnly
	if needModel {
		m, err := spectrum.NewOrtModel(cfg.Model)
		if err != nil {
			return fmt.Errorf("init model: %w", err)
		}
		model = m
		defer func() {
			if err := spectrum.ShutdownRuntime(); err != nil {
				logger.Printf("shutdown onnxruntime: %v", err)
			}
		}()
	}
	service := spectrum.NewService(model, cfg, logger)
	defer service.Close()

	stamp := time.Now().Format("20060102150405")

	if opts.simulationPath != "" {
		sim, err := service.LoadSimulation(opts.simulationPath)
		if err != nil {
			return fmt.Errorf("read simulation: %w", err)
		}
		path, err := resolveOutputPath("", opts.outputDir, "simulation_"+stamp+".csv")
		if err != nil {
			return err
		}
		if err := writeFileCSV(path, func(w io.Writer) error { return spectrum.WriteSimulationCSV(w, sim) }); err != nil {
			return err
		}
		fmt.Printf("シミュレーション表を %s に保存しました\n", path)
	}

	if opts.iecPath == "" {
		return nil
	}
	spec, err := service.LoadSpectrum(opts.iecPath)
	if err != nil {
		return fmt.Errorf("read spectrum: %w", err)
	}
	if opts.decodeOnly {
		path, err := resolveOutputPath(opts.outputPath, opts.outputDir, "spectrum_"+stamp+".csv")
		if err != nil {
			return err
		}
		if err := writeFileCSV(path, func(w io.Writer) error { return spectrum.WriteSpectrumCSV(w, spec) }); err != nil {
			return err
		}
		fmt.Printf("スペクトル表を %s に保存しました\n", path)
		if opts.stdout {
			printSummary(service, spectrum.PredictionTable{})
		}
		return nil
	}

	table, err := service.Predict(context.Background())
	if err != nil {
		return fmt.Errorf("predict: %w", err)
	}
	table = filterTable(table, filter)

	path, err := resolveOutputPath(opts.outputPath, opts.outputDir, "prediction_"+stamp+".csv")
	if err != nil {
		return err
	}
	if err := writeFileCSV(path, func(w io.Writer) error { return spectrum.WritePredictionCSV(w, table) }); err != nil {
		return err
	}
	fmt.Printf("推定結果を %s に保存しました\n", path)

	if opts.stdout {
		printSummary(service, table)
	}
	return nil
}

// parseNuclideFilter returns catalog indices to keep; nil keeps every row.
func parseNuclideFilter(s string) (map[int]bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	keep := make(map[int]bool)
	for _, name := range strings.Split(s, ",") {
		if strings.TrimSpace(name) == "" {
			continue
		}
		idx, ok := spectrum.NuclideIndex(name)
		if !ok {
			return nil, fmt.Errorf("unknown nuclide %q", strings.TrimSpace(name))
		}
		keep[idx] = true
	}
	return keep, nil
}

func filterTable(t spectrum.PredictionTable, keep map[int]bool) spectrum.PredictionTable {
	if keep == nil {
		return t
	}
	out := spectrum.PredictionTable{ModelID: t.ModelID}
	for i, row := range t.Rows {
		if keep[i] {
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}

// resolveOutputPath returns an absolute path for a result file, creating its
// directory. An explicit path wins; otherwise filename goes under dir.
func resolveOutputPath(path, dir, filename string) (string, error) {
	if path == "" {
		if dir == "" {
			dir = "csv"
		}
		path = filepath.Join(dir, filename)
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve output path %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	return absPath, nil
}

func writeFileCSV(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create result file: %w", err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close result file: %w", err)
	}
	return nil
}

func printSummary(service *spectrum.Service, table spectrum.PredictionTable) {
	fmt.Println()
	fmt.Println("==== 解析結果プレビュー ====")
	if spec, ok := service.Spectrum(); ok {
		if header := spec.HeaderText(0); header != "" {
			fmt.Println("ヘッダー:")
			for _, line := range strings.Split(header, "\n") {
				fmt.Printf("    %s\n", line)
			}
		}
	}
	if sum, err := service.Summary(); err == nil {
		fmt.Printf("チャンネル数: %d  総カウント: %.0f  ピーク: %.0f (ch %d)\n",
			sum.Channels, sum.Total, sum.Peak, sum.PeakChannel)
	}
	if sim, err := service.CompareWithSimulation(); err == nil {
		fmt.Printf("シミュレーション類似度: %.3f\n", sim)
	}
	if len(table.Rows) == 0 {
		return
	}
	for _, row := range table.Rows {
		fmt.Printf("  - %-7s %6.2f%%  activity=%.2f ± %.2f\n", row.Label, row.Score, row.Activity, row.Uncertainty)
	}
	if best, ok := table.Best(); ok {
		fmt.Printf("最有力候補: %s\n", best.Label)
	}
}
