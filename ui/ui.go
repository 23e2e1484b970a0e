package ui

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"dng-desqueeze/config"
	"dng-desqueeze/desqueeze"
	"dng-desqueeze/exiftool"
	"dng-desqueeze/util/log"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

const (
	prefInputFolder = "inputFolder"
	outputSubfolder = "OUTPUT"
	processLabel    = "Process DNG Files"
)

// update is what the worker goroutine hands to the widget goroutine.
type update struct {
	event   desqueeze.Event
	done    bool
	summary desqueeze.Summary
	err     error
}

type chanReporter chan<- update

func (c chanReporter) Report(e desqueeze.Event) { c <- update{event: e} }

// App is the desktop front end. One batch runs at a time on a background goroutine.
type App struct {
	fyneApp fyne.App
	window  fyne.Window

	logMu sync.Mutex // guards logText appends

	mu            sync.Mutex
	cfg           config.Config
	running       bool
	cancel        context.CancelFunc
	lastOutputDir string
	wg            sync.WaitGroup

	// newBatch builds the batch for a run; tests swap in fakes.
	newBatch func(cfg config.Config, rep desqueeze.Reporter) *desqueeze.Batch

	statusLabel      *widget.Label
	fileCountLabel   *widget.Label
	inputFolderLabel *widget.Label
	progressBar      *widget.ProgressBar
	logText          *widget.Entry
	logScroll        *container.Scroll
	processBtn       *widget.Button
	cancelBtn        *widget.Button
}

// New builds the main window. The input folder last picked is restored from preferences.
func New(a fyne.App, cfg config.Config) *App {
	w := a.NewWindow(fmt.Sprintf("%s Tool (电影镜头DNG文件批量拉伸)", config.AppName))
	w.Resize(fyne.NewSize(800, 600))

	if saved := a.Preferences().String(prefInputFolder); saved != "" {
		cfg.InputDir = saved
		cfg.OutputDir = filepath.Join(saved, outputSubfolder)
	}

	app := &App{
		fyneApp: a,
		window:  w,
		cfg:     cfg,
		newBatch: func(cfg config.Config, rep desqueeze.Reporter) *desqueeze.Batch {
			return &desqueeze.Batch{Config: cfg, Reporter: rep}
		},
	}
	app.setupUI()
	app.updateStatus()

	w.SetOnClosed(func() {
		app.mu.Lock()
		defer app.mu.Unlock()
		if app.cancel != nil {
			app.cancel()
		}
	})
	return app
}

// Window returns the main window.
func (app *App) Window() fyne.Window {
	return app.window
}

// ShowAndRun shows the window and runs the event loop until it is closed.
func (app *App) ShowAndRun() {
	go app.checkExifToolAvailability()
	app.window.CenterOnScreen()
	app.window.ShowAndRun()
}

func (app *App) setupUI() {
	title := widget.NewLabel(config.AppName + " Tool")
	title.TextStyle.Bold = true
	title.Alignment = fyne.TextAlignCenter

	app.statusLabel = widget.NewLabel("Ready to process DNG files")
	app.fileCountLabel = widget.NewLabel("")
	app.progressBar = widget.NewProgressBar()

	app.inputFolderLabel = widget.NewLabel(app.cfg.InputDir)
	selectInputBtn := widget.NewButton("Select Input Folder", app.selectInputFolder)

	app.processBtn = widget.NewButton(processLabel, app.startProcessing)
	app.processBtn.Importance = widget.HighImportance

	app.cancelBtn = widget.NewButton("Cancel", app.cancelProcessing)
	app.cancelBtn.Disable()

	clearBtn := widget.NewButton("Clear Output", app.clearOutput)
	openBtn := widget.NewButton("Open Output Folder", app.openOutputFolder)

	app.logText = widget.NewMultiLineEntry()
	app.logText.Wrapping = fyne.TextWrapWord
	app.logText.Disable()
	app.logScroll = container.NewScroll(app.logText)

	statusSection := container.NewVBox(
		widget.NewLabel("Status"),
		app.statusLabel,
		app.fileCountLabel,
		app.progressBar,
	)

	top := container.NewVBox(
		title,
		container.NewHBox(selectInputBtn, app.inputFolderLabel),
		widget.NewSeparator(),
		statusSection,
		container.NewHBox(app.processBtn, app.cancelBtn, clearBtn, openBtn),
		widget.NewLabel("Processing Output"),
	)

	app.window.SetContent(container.NewBorder(top, nil, nil, nil, app.logScroll))
}

func (app *App) currentConfig() config.Config {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.cfg
}

func (app *App) logMessage(msg string) {
	app.logMu.Lock()
	defer app.logMu.Unlock()
	app.logText.SetText(app.logText.Text + msg + "\n")
	app.logScroll.ScrollToBottom()
}

func (app *App) clearOutput() {
	app.logMu.Lock()
	defer app.logMu.Unlock()
	app.logText.SetText("")
}

func (app *App) updateStatus() {
	cfg := app.currentConfig()
	if _, err := os.Stat(cfg.InputDir); err != nil {
		app.fileCountLabel.SetText(fmt.Sprintf("%s folder not found", filepath.Base(cfg.InputDir)))
		return
	}

	files, err := desqueeze.FindInputs(cfg.InputDir, cfg.Extension)
	switch {
	case err != nil:
		app.fileCountLabel.SetText(fmt.Sprintf("Could not read %s: %v", cfg.InputDir, err))
	case len(files) == 0:
		app.fileCountLabel.SetText(fmt.Sprintf("No DNG files found in %s folder", filepath.Base(cfg.InputDir)))
	default:
		app.fileCountLabel.SetText(fmt.Sprintf("Found %d DNG file(s) in %s folder", len(files), filepath.Base(cfg.InputDir)))
	}
}

func (app *App) selectInputFolder() {
	dialog.ShowFolderOpen(func(uri fyne.ListableURI, err error) {
		if err != nil || uri == nil {
			return
		}
		app.setInputFolder(uri.Path())
	}, app.window)
}

func (app *App) setInputFolder(path string) {
	app.mu.Lock()
	app.cfg.InputDir = path
	app.cfg.OutputDir = filepath.Join(path, outputSubfolder)
	app.mu.Unlock()

	app.fyneApp.Preferences().SetString(prefInputFolder, path)
	app.inputFolderLabel.SetText(path)
	app.logMessage(fmt.Sprintf("Input folder selected: %s", path))
	app.updateStatus()
}

func (app *App) openOutputFolder() {
	app.mu.Lock()
	dir := app.lastOutputDir
	if dir == "" {
		dir = app.cfg.OutputDir
	}
	app.mu.Unlock()

	if _, err := os.Stat(dir); err != nil {
		dialog.ShowInformation("Info", "Output folder does not exist yet.", app.window)
		return
	}

	u, err := folderURL(dir)
	if err == nil {
		err = app.fyneApp.OpenURL(u)
	}
	if err != nil {
		dialog.ShowError(fmt.Errorf("opening %s: %w", dir, err), app.window)
	}
}

// folderURL turns a local directory into a file:// URL the desktop can open.
func folderURL(dir string) (*url.URL, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	p := filepath.ToSlash(abs)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p // C:/... on windows
	}
	return &url.URL{Scheme: "file", Path: p}, nil
}

// checkExifToolAvailability logs whether the configured exiftool can be run.
func (app *App) checkExifToolAvailability() {
	cfg := app.currentConfig()
	path, err := exiftool.Locate(cfg.ExiftoolPath)
	if err != nil {
		app.logMessage(fmt.Sprintf("⚠️  %v", err))
		return
	}

	version, err := exiftool.Version(context.Background(), exiftool.NewCmd(path, cfg.PressEnter))
	if err != nil {
		log.Printf("exiftool -ver: %v", err)
		app.logMessage(fmt.Sprintf("⚠️  ExifTool at %s is not working properly: %v", path, err))
		return
	}
	app.logMessage(fmt.Sprintf("✅ ExifTool v%s ready", version))
}

func (app *App) startProcessing() {
	app.mu.Lock()
	if app.running {
		app.mu.Unlock()
		return
	}
	app.running = true
	ctx, cancel := context.WithCancel(context.Background())
	app.cancel = cancel
	cfg := app.cfg
	app.mu.Unlock()

	app.processBtn.SetText("Processing...")
	app.processBtn.Disable()
	app.cancelBtn.Enable()
	app.progressBar.SetValue(0)
	app.statusLabel.SetText("Starting processing...")

	app.logMessage(config.AppName + " Tool")
	app.logMessage("==================================================")

	updates := make(chan update, 64)
	batch := app.newBatch(cfg, chanReporter(updates))

	app.wg.Add(2)
	go app.processFiles(ctx, batch, updates)
	go app.consume(updates)
}

func (app *App) cancelProcessing() {
	app.mu.Lock()
	defer app.mu.Unlock()
	if app.cancel != nil {
		app.cancel()
		app.statusLabel.SetText("Cancelling...")
	}
}

// processFiles runs on the worker goroutine and never touches widgets.
func (app *App) processFiles(ctx context.Context, batch *desqueeze.Batch, updates chan<- update) {
	defer app.wg.Done()
	defer close(updates)

	sum, err := batch.Run(ctx)
	if err != nil {
		log.Printf("batch run: %v", err)
	}
	updates <- update{done: true, summary: sum, err: err}
}

// consume applies worker updates to the widgets until the worker closes the channel.
func (app *App) consume(updates <-chan update) {
	defer app.wg.Done()
	for u := range updates {
		if u.done {
			app.finish(u.summary, u.err)
			continue
		}
		app.apply(u.event)
	}
}

func (app *App) apply(e desqueeze.Event) {
	switch e.Kind {
	case desqueeze.EventProgress:
		app.progressBar.SetValue(e.Fraction())
		app.statusLabel.SetText("Processing: " + e.File)
		return
	case desqueeze.EventDone:
		app.progressBar.SetValue(1)
	}

	if text := desqueeze.FormatEvent(e); text != "" {
		app.logMessage(text)
	}
}

func (app *App) finish(sum desqueeze.Summary, err error) {
	app.mu.Lock()
	app.running = false
	if app.cancel != nil {
		app.cancel()
		app.cancel = nil
	}
	if sum.OutputDir != "" {
		app.lastOutputDir = sum.OutputDir
	}
	app.mu.Unlock()

	switch {
	case err == nil:
		app.statusLabel.SetText("Processing completed successfully!")
	case errors.Is(err, desqueeze.ErrBatchAborted):
		app.statusLabel.SetText(fmt.Sprintf("Completed with %d error(s)", sum.Failed))
	case errors.Is(err, context.Canceled):
		app.statusLabel.SetText(fmt.Sprintf("Cancelled after %d file(s)", sum.Succeeded))
	case errors.Is(err, desqueeze.ErrNoInputs):
		app.logMessage(fmt.Sprintf("No DNG files found in %s folder", filepath.Base(app.currentConfig().InputDir)))
		app.statusLabel.SetText("No DNG files to process")
	default:
		app.logMessage(fmt.Sprintf("Error: %v", err))
		app.statusLabel.SetText("Processing failed")
	}

	app.processBtn.SetText(processLabel)
	app.processBtn.Enable()
	app.cancelBtn.Disable()
	app.updateStatus()
}

// wait blocks until the current run, if any, has been fully applied to the widgets.
func (app *App) wait() {
	app.wg.Wait()
}
