package app

import (
	"context"
	"strings"
	"fmt"
	"log"
	"path/filepath"
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/data/binding"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"yashubustudio/gammaspec/spectrum"
)

var predictionColumnWidths = []float32{140, 110, 110, 170}

const headerPreviewLines = 4

type uiState struct {
	service *spectrum.Service
	logger  *log.Logger

	w          fyne.Window
	log        *widget.Entry
	status     *widget.Label
	statusBind binding.String
	summary    *widget.Label
	progress   *widget.ProgressBarInfinite
	resTbl     *widget.Table

	// rows holds the header followed by one row per nuclide; only touched
	// on the fyne goroutine.
	rows   [][]string
	result spectrum.PredictionTable

	plot       *spectrumPlot
	plotRaster *canvas.Raster
	heat       *heatMap
	heatRaster *canvas.Raster

	loadBtn    *widget.Button
	simBtn     *widget.Button
	processBtn *widget.Button
	exportBtn  *widget.Button
}

func buildUI(a fyne.App, svc *spectrum.Service, logger *log.Logger, logBind binding.String) *uiState {
	u := &uiState{service: svc, logger: logger}
	u.w = a.NewWindow("Gamma Spectrum Analyzer")

	u.statusBind = binding.NewString()
	_ = u.statusBind.Set("準備完了")

	u.log = widget.NewEntryWithData(logBind)
	u.log.MultiLine = true
	u.log.Wrapping = fyne.TextWrapWord
	u.log.SetPlaceHolder("処理ログ")
	u.log.Disable()

	u.status = widget.NewLabelWithData(u.statusBind)
	u.progress = widget.NewProgressBarInfinite()
	u.progress.Hide()
	u.summary = widget.NewLabel("スペクトル未読込")
	u.summary.Wrapping = fyne.TextWrapWord

	u.loadBtn = widget.NewButtonWithIcon("スペクトル読込", theme.FolderOpenIcon(), func() { u.onLoadSpectrum() })
	u.simBtn = widget.NewButtonWithIcon("シミュレーション読込", theme.ContentAddIcon(), func() { u.onLoadSimulation() })
	u.processBtn = widget.NewButtonWithIcon("解析実行", theme.ConfirmIcon(), func() { u.onProcess() })
	u.exportBtn = widget.NewButtonWithIcon("CSVエクスポート", theme.DocumentSaveIcon(), func() { u.onExport() })
	settingsBtn := widget.NewButtonWithIcon("設定", theme.SettingsIcon(), func() { u.openSettings() })
	if !svc.HasModel() {
		u.processBtn.Disable()
	}

	u.rows = spectrum.PredictionTableData(spectrum.PredictionTable{})
	u.resTbl = widget.NewTable(
		func() (int, int) {
			return len(u.rows), len(predictionColumnWidths)
		},
		func() fyne.CanvasObject {
			return widget.NewLabel("")
		},
		func(id widget.TableCellID, obj fyne.CanvasObject) {
			lbl := obj.(*widget.Label)
			if id.Row >= len(u.rows) || id.Col >= len(u.rows[id.Row]) {
				lbl.SetText("")
				return
			}
			if id.Row == 0 {
				lbl.Alignment = fyne.TextAlignCenter
				lbl.TextStyle = fyne.TextStyle{Bold: true}
			} else {
				lbl.TextStyle = fyne.TextStyle{}
				lbl.Alignment = fyne.TextAlignTrailing
				if id.Col == 0 {
					lbl.Alignment = fyne.TextAlignLeading
				}
			}
			lbl.SetText(u.rows[id.Row][id.Col])
		},
	)
	for i, w := range predictionColumnWidths {
		u.resTbl.SetColumnWidth(i, w)
	}

	u.plot = &spectrumPlot{}
	u.plotRaster = canvas.NewRasterWithPixels(u.plot.Pixel)
	u.plotRaster.SetMinSize(fyne.NewSize(480, 240))
	u.heat = &heatMap{}
	u.heatRaster = canvas.NewRasterWithPixels(u.heat.Pixel)
	u.heatRaster.SetMinSize(fyne.NewSize(256, 256))

	controls := container.NewGridWithColumns(3, u.loadBtn, u.simBtn, settingsBtn)
	actions := container.NewGridWithColumns(2, u.processBtn, u.exportBtn)
	left := container.NewBorder(
		container.NewVBox(
			controls,
			actions,
			widget.NewSeparator(),
			widget.NewLabelWithStyle("状態", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
			u.progress,
			u.status,
			u.summary,
			widget.NewSeparator(),
			widget.NewLabelWithStyle("推定結果", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		),
		container.NewVBox(
			widget.NewSeparator(),
			widget.NewLabelWithStyle("ログ", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
			container.NewGridWrap(fyne.NewSize(540, 160), u.log),
		),
		nil, nil,
		u.resTbl,
	)

	plots := container.NewVSplit(
		container.NewBorder(
			widget.NewLabelWithStyle("スペクトル (log)", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
			nil, nil, nil, u.plotRaster),
		container.NewBorder(
			widget.NewLabelWithStyle("ヒートマップ 128x128", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
			nil, nil, nil, u.heatRaster),
	)
	plots.Offset = 0.5

	split := container.NewHSplit(left, plots)
	split.Offset = 0.45

	u.w.SetContent(split)
	u.w.Resize(fyne.NewSize(1180, 760))
	return u
}

func (u *uiState) setBusy(b bool) {
	fyne.Do(func() {
		if b {
			u.loadBtn.Disable()
			u.simBtn.Disable()
			u.processBtn.Disable()
			u.exportBtn.Disable()
			u.progress.Show()
			u.progress.Start()
		} else {
			u.loadBtn.Enable()
			u.simBtn.Enable()
			if u.service.HasModel() {
				u.processBtn.Enable()
			}
			u.exportBtn.Enable()
			u.progress.Stop()
			u.progress.Hide()
		}
	})
}

func (u *uiState) appendLog(msg string) {
	u.logger.Print(msg)
}

func (u *uiState) setStatus(text string) {
	_ = u.statusBind.Set(text)
}

func (u *uiState) showError(err error) {
	u.appendLog("[ERROR] " + err.Error())
	fyne.Do(func() {
		dialog.ShowError(err, u.w)
	})
}

func (u *uiState) onLoadSpectrum() {
	fd := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
		if err != nil || rc == nil {
			return
		}
		path := rc.URI().Path()
		_ = rc.Close()
		u.setBusy(true)
		u.setStatus("スペクトル読込中...")
		go func() {
			defer u.setBusy(false)
			spec, err := u.service.LoadSpectrum(path)
			if err != nil {
				u.setStatus("読込失敗")
				u.showError(fmt.Errorf("スペクトルを読み込めませんでした: %w", err))
				return
			}
			counts := spec.Counts()
			u.plot.SetCounts(counts)
			u.heat.SetCounts(counts)
			u.setStatus(fmt.Sprintf("スペクトル: %s", filepath.Base(path)))
			fyne.Do(func() {
				u.clearResult()
				u.updateSummary()
				u.plotRaster.Refresh()
				u.heatRaster.Refresh()
			})
		}()
	}, u.w)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".iec", ".IEC"}))
	if dir := u.service.Config().LastSpectrumDir; dir != "" {
		if lister, err := storage.ListerForURI(storage.NewFileURI(dir)); err == nil {
			fd.SetLocation(lister)
		}
	}
	fd.Show()
}

func (u *uiState) onLoadSimulation() {
	fd := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
		if err != nil || rc == nil {
			return
		}
		path := rc.URI().Path()
		_ = rc.Close()
		u.setBusy(true)
		u.setStatus("シミュレーション読込中...")
		go func() {
			defer u.setBusy(false)
			sim, err := u.service.LoadSimulation(path)
			if err != nil {
				u.setStatus("読込失敗")
				u.showError(fmt.Errorf("シミュレーションを読み込めませんでした: %w", err))
				return
			}
			u.plot.SetOverlay(sim.ReferenceCounts(sim.Len()))
			u.setStatus(fmt.Sprintf("シミュレーション: %s", filepath.Base(path)))
			fyne.Do(func() {
				u.updateSummary()
				u.plotRaster.Refresh()
			})
		}()
	}, u.w)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".dat", ".txt"}))
	fd.Show()
}

func (u *uiState) onProcess() {
	if _, ok := u.service.Spectrum(); !ok {
		dialog.ShowInformation("情報", "先にスペクトルを読み込んでください", u.w)
		return
	}
	u.setBusy(true)
	u.setStatus("解析中...")
	go func() {
		defer u.setBusy(false)
		table, err := u.service.Predict(context.Background())
		if err != nil {
			u.setStatus("解析失敗")
			u.showError(fmt.Errorf("解析に失敗しました: %w", err))
			return
		}
		status := "解析完了"
		if best, ok := table.Best(); ok {
			status = fmt.Sprintf("解析完了: %s (%.2f%%)", best.Label, best.Score)
		}
		u.setStatus(status)
		fyne.Do(func() {
			u.result = table
			u.rows = spectrum.PredictionTableData(table)
			u.resTbl.Refresh()
		})
	}()
}

func (u *uiState) clearResult() {
	u.result = spectrum.PredictionTable{}
	u.rows = spectrum.PredictionTableData(u.result)
	u.resTbl.Refresh()
}

func (u *uiState) updateSummary() {
	sum, err := u.service.Summary()
	if err != nil {
		u.summary.SetText("スペクトル未読込")
		return
	}
	text := fmt.Sprintf("チャンネル:%d / 総カウント:%.0f / ピーク:%.0f (ch %d) / 不確かさ:%.2f",
		sum.Channels, sum.Total, sum.Peak, sum.PeakChannel, sum.Uncertainty)
	if sim, err := u.service.CompareWithSimulation(); err == nil {
		text += fmt.Sprintf(" / シミュレーション類似度:%.3f", sim)
	}
	if spec, ok := u.service.Spectrum(); ok {
		if header := spec.HeaderText(headerPreviewLines); header != "" {
			text += "\n" + header
		}
	}
	u.summary.SetText(text)
}

func (u *uiState) onExport() {
	if len(u.result.Rows) == 0 {
		dialog.ShowInformation("情報", "出力データがありません", u.w)
		return
	}
	table := u.result
	fd := dialog.NewFileSave(func(uc fyne.URIWriteCloser, err error) {
		if err != nil || uc == nil {
			return
		}
		defer uc.Close()
		if err := spectrum.WritePredictionCSV(uc, table); err != nil {
			u.showError(err)
			return
		}
		u.appendLog(fmt.Sprintf("CSVエクスポート完了: %s", uc.URI().Path()))
	}, u.w)
	fd.SetFileName("prediction.csv")
	fd.Show()
}

func (u *uiState) openSettings() {
	cfg := u.service.Config()

	particlesEntry := widget.NewEntry()
	particlesEntry.SetText(strconv.FormatFloat(cfg.ParticleCount, 'g', -1, 64))
	thresholdEntry := widget.NewEntry()
	thresholdEntry.SetText(strconv.Itoa(cfg.ThresholdBins))
	modelEntry := widget.NewEntry()
	modelEntry.SetText(cfg.Model.ModelPath)
	ortEntry := widget.NewEntry()
	ortEntry.SetText(cfg.Model.OrtLibrary)

	form := &widget.Form{Items: []*widget.FormItem{
		{Text: "粒子数", Widget: particlesEntry},
		{Text: "閾値ビン数", Widget: thresholdEntry},
		{Text: "モデル (再起動後に反映)", Widget: modelEntry},
		{Text: "ONNX Runtime", Widget: ortEntry},
	}}

	dialog.NewCustomConfirm("設定", "OK", "キャンセル", form, func(ok bool) {
		if !ok {
			return
		}
		newCfg := cfg
		particles, threshold, err := parseSimulationSettings(particlesEntry.Text, thresholdEntry.Text)
		if err != nil {
			u.showError(err)
			return
		}
		newCfg.ParticleCount = particles
		newCfg.ThresholdBins = threshold
		newCfg.Model.ModelPath = modelEntry.Text
		newCfg.Model.OrtLibrary = ortEntry.Text
		u.service.UpdateConfig(newCfg)
		u.appendLog("設定を更新しました")
	}, u.w).Show()
}

// parseSimulationSettings validates the settings form fields that feed the
// simulation decoder.
func parseSimulationSettings(particles, threshold string) (float64, int, error) {
	p, err := strconv.ParseFloat(strings.TrimSpace(particles), 64)
	if err != nil || spectrum.ValidateParticleCount(p) != nil {
		return 0, 0, fmt.Errorf("粒子数は正の有限な数値で入力してください: %q", particles)
	}
	n, err := strconv.Atoi(strings.TrimSpace(threshold))
	if err != nil || spectrum.ValidateThresholdBins(n) != nil {
		return 0, 0, fmt.Errorf("閾値ビン数は1以上の整数で入力してください: %q", threshold)
	}
	return p, n, nil
}
