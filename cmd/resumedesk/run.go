package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/spf13/cobra"

	"github.com/resumekit/resumedesk/internal/api"
	"github.com/resumekit/resumedesk/internal/config"
	"github.com/resumekit/resumedesk/internal/editor"
	"github.com/resumekit/resumedesk/internal/logger"
	"github.com/resumekit/resumedesk/internal/preview"
	"github.com/resumekit/resumedesk/internal/store"
	"github.com/resumekit/resumedesk/internal/tui"
	"github.com/resumekit/resumedesk/internal/tui/theme"
	"github.com/resumekit/resumedesk/internal/wizard"
)

var runFlags struct {
	backendURL  string
	editorURL   string
	dataDir     string
	downloadDir string
	uploadDir   string
	reset       bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Open the formatting wizard",
	Long: `Open the three step formatting wizard.

State is stored under the data directory, so a restart resumes on the
step you left. Use --reset to discard the saved wizard state.`,
	RunE: runWizard,
}

func init() {
	runCmd.Flags().StringVar(&runFlags.backendURL, "backend-url", "", "Formatting service base URL (overrides config)")
	runCmd.Flags().StringVar(&runFlags.editorURL, "editor-url", "", "Live editor runtime base URL (defaults to backend URL)")
	runCmd.Flags().StringVar(&runFlags.dataDir, "data-dir", "", "Data directory for embedded persistence")
	runCmd.Flags().StringVar(&runFlags.downloadDir, "download-dir", "", "Directory for downloaded resumes")
	runCmd.Flags().StringVar(&runFlags.uploadDir, "upload-dir", "", "Directory scanned for resumes to upload")
	runCmd.Flags().BoolVar(&runFlags.reset, "reset", false, "Discard saved wizard state before starting")
}

func runWizard(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	applyRunFlags(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	if level, err := logger.ParseLevel(cfg.LogLevel); err == nil {
		logger.Default.SetLevel(level)
	}

	backend, err := api.NewClient(cfg.BackendURL)
	if err != nil {
		return fmt.Errorf("backend client: %w", err)
	}

	editorURL := cfg.EditorURL
	if editorURL == "" {
		editorURL = cfg.BackendURL
	}
	runtime, err := editor.NewHTTPRuntime(editorURL)
	if err != nil {
		return fmt.Errorf("editor runtime: %w", err)
	}

	// Embedded persistence. Everything below needs the KV bucket, so
	// failures here abort before any UI comes up.
	ns, err := store.StartEmbedded(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("starting embedded NATS: %w", err)
	}
	nc, err := store.ConnectInProcess(ns)
	if err != nil {
		ns.Shutdown()
		return fmt.Errorf("connecting to embedded NATS: %w", err)
	}
	defer func() {
		if err := store.Shutdown(nc, ns); err != nil {
			logger.Warn("shutdown: %v", err)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	kv, err := store.OpenBucket(ctx, nc)
	cancel()
	if err != nil {
		return fmt.Errorf("opening state bucket: %w", err)
	}
	states := store.NewKVStore(kv)

	if err := os.MkdirAll(cfg.DownloadDir, 0755); err != nil {
		return fmt.Errorf("creating download dir: %w", err)
	}

	// The program pointer is filled in after construction; events fired
	// before Run are impossible because Restore runs first.
	var program *tea.Program
	notify := func(msg tea.Msg) {
		if program != nil {
			program.Send(msg)
		}
	}

	history := wizard.NewHistory()
	controller := wizard.NewController(states, history, backend,
		wizard.WithOnChange(func(s wizard.State) {
			notify(tui.WizardStateMsg{State: s})
		}),
	)

	startCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if runFlags.reset {
		controller.StartOver(startCtx)
	} else {
		controller.Restore(startCtx)
	}

	darkMode := true
	if found, err := states.Load(startCtx, store.KeyDarkMode, &darkMode); err != nil || !found {
		darkMode = true
	}
	theme.SetDark(darkMode)

	previewer := preview.NewRenderer(backend)
	resultsStep := tui.NewResultsStep(previewer)

	session := editor.NewManager(runtime, backend, resultsStep,
		tui.EditorMountID, cfg.DownloadDir,
		func(ev editor.Event) {
			notify(tui.EditorEventMsg{Event: ev})
		},
	)
	resultsStep.SetSession(session)

	templateStep := tui.NewTemplateStep(backend, controller, states)
	uploadStep := tui.NewUploadStep(controller, cfg.UploadDir)

	app := tui.NewApp(controller, session, backend, states,
		templateStep, uploadStep, resultsStep, darkMode)
	defer app.Close()

	program = tea.NewProgram(app)
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("running UI: %w", err)
	}
	return nil
}

func applyRunFlags(cfg *config.Config) {
	if runFlags.backendURL != "" {
		cfg.BackendURL = runFlags.backendURL
	}
	if runFlags.editorURL != "" {
		cfg.EditorURL = runFlags.editorURL
	}
	if runFlags.dataDir != "" {
		cfg.DataDir = runFlags.dataDir
	}
	if runFlags.downloadDir != "" {
		cfg.DownloadDir = runFlags.downloadDir
	}
	if runFlags.uploadDir != "" {
		cfg.UploadDir = runFlags.uploadDir
	}
}
