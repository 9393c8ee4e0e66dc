package app

import (
	"fmt"
	"io"
	"log"
	"os"

	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/data/binding"
	"fyne.io/fyne/v2/dialog"
	"github.com/joho/godotenv"

	"yashubustudio/gammaspec/spectrum"
)

const (
	fyneAppID    = "studio.yashubu.gammaspec"
	logLineLimit = 300
)

// Run loads configuration and the model, then starts the desktop UI.
func Run(configPath string) error {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := spectrum.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logBind := binding.NewString()
	capture := newLogCapture(logBind, logLineLimit)
	logger := log.New(io.MultiWriter(os.Stdout, capture), "", log.LstdFlags)

	model, modelErr := openModel(cfg.Model, logger)
	svc := spectrum.NewService(model, cfg, logger)
	defer func() {
		if err := svc.Close(); err != nil {
			logger.Printf("close model: %v", err)
		}
		if err := spectrum.ShutdownRuntime(); err != nil {
			logger.Printf("shutdown onnxruntime: %v", err)
		}
	}()

	a := fyneapp.NewWithID(fyneAppID)
	u := buildUI(a, svc, logger, logBind)
	if modelErr != nil {
		dialog.ShowError(fmt.Errorf("モデルを読み込めませんでした。スペクトルの表示のみ可能です: %w", modelErr), u.w)
	}
	u.w.ShowAndRun()

	if err := spectrum.SaveConfig(configPath, svc.Config()); err != nil {
		logger.Printf("設定の保存に失敗しました: %v", err)
	}
	return nil
}

// openModel returns a nil Model when the network cannot be loaded so the
// application still decodes and plots spectra.
func openModel(cfg spectrum.ModelConfig, logger *log.Logger) (spectrum.Model, error) {
	m, err := spectrum.NewOrtModel(cfg)
	if err != nil {
		logger.Printf("[WARN] model unavailable: %v", err)
		return nil, err
	}
	return m, nil
}
