package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/resumekit/resumedesk/internal/api"
	"github.com/resumekit/resumedesk/internal/config"
	"github.com/resumekit/resumedesk/internal/editor"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check connectivity to the formatting service and editor runtime",
	RunE:  runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	failed := false

	if config.Exists() {
		fmt.Println("✓ config file found")
	} else {
		fmt.Println("✗ no config file (run 'resumedesk setup')")
	}

	if err := cfg.Validate(); err != nil {
		fmt.Printf("✗ config invalid: %v\n", err)
		return fmt.Errorf("doctor found problems")
	}
	fmt.Printf("✓ backend_url set (%s)\n", cfg.BackendURL)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	backend, err := api.NewClient(cfg.BackendURL)
	if err != nil {
		return fmt.Errorf("backend client: %w", err)
	}
	if templates, err := backend.ListTemplates(ctx); err != nil {
		fmt.Printf("✗ formatting service unreachable: %v\n", err)
		failed = true
	} else {
		fmt.Printf("✓ formatting service reachable (%d templates)\n", len(templates))
	}

	editorURL := cfg.EditorURL
	if editorURL == "" {
		editorURL = cfg.BackendURL
	}
	runtime, err := editor.NewHTTPRuntime(editorURL)
	if err != nil {
		return fmt.Errorf("editor runtime: %w", err)
	}
	// One quick attempt, not the full poll cycle.
	runtime.PollAttempts = 1
	if err := runtime.WaitReady(ctx); err != nil {
		fmt.Printf("✗ editor runtime not ready: %v\n", err)
		fmt.Println("  (previews and downloads still work without it)")
	} else {
		fmt.Println("✓ editor runtime ready")
	}

	if failed {
		return fmt.Errorf("doctor found problems")
	}
	return nil
}
