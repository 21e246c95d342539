package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/resumekit/resumedesk/internal/config"
)

var setupFlags struct {
	project    bool
	force      bool
	backendURL string
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create resumedesk configuration file",
	Long: `Create a resumedesk configuration file with sensible defaults.

By default, creates a global config at ~/.config/resumedesk/resumedesk.yml.
Use --project to create a project-local config in the current directory.`,
	RunE: runSetup,
}

func init() {
	setupCmd.Flags().BoolVarP(&setupFlags.project, "project", "p", false, "Create config in current directory instead of global location")
	setupCmd.Flags().BoolVarP(&setupFlags.force, "force", "f", false, "Overwrite existing config file")
	setupCmd.Flags().StringVar(&setupFlags.backendURL, "backend-url", "", "Formatting service base URL to write into the config")
}

func runSetup(cmd *cobra.Command, args []string) error {
	targetPath := config.GlobalPath()
	if setupFlags.project {
		targetPath = config.ProjectPath()
	}

	if !setupFlags.force && fileExists(targetPath) {
		return fmt.Errorf("config file already exists at %s\n\nUse --force to overwrite", targetPath)
	}

	cfg := &config.Config{
		BackendURL:  setupFlags.backendURL,
		EditorURL:   "",
		DataDir:     ".resumedesk",
		DownloadDir: "downloads",
		UploadDir:   ".",
		LogLevel:    "info",
		LogFile:     "",
	}

	var err error
	if setupFlags.project {
		err = config.WriteProject(cfg)
	} else {
		err = config.WriteGlobal(cfg)
	}
	if err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Printf("Config written to: %s\n\n", targetPath)
	if setupFlags.backendURL == "" {
		fmt.Println("Set backend_url in the config (or RESUMEDESK_BACKEND_URL), then run 'resumedesk run'.")
	} else {
		fmt.Println("Run 'resumedesk run' to get started.")
	}

	return nil
}

// fileExists checks if a file exists (helper for setup command).
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
