package main

import (
	"context"
	"os"
	"strings"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/resumekit/resumedesk/internal/logger"
	"github.com/resumekit/resumedesk/internal/tui/theme"
)

const (
	logoText1 = "█▀█ █▀▀ █▀ █░█ █▀▄▀█ █▀▀ █▀▄ █▀▀ █▀ █▄▀"
	logoText2 = "█▀▄ ██▄ ▄█ █▄█ █░▀░█ ██▄ █▄▀ ██▄ ▄█ █░█"
)

// Version set via ldflags during build
var version = "dev"

func main() {
	defer func() { _ = logger.Close() }()

	if err := fang.Execute(context.Background(), rootCmd, fang.WithVersion(version)); err != nil {
		logger.Error("Command execution failed: %v", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "resumedesk",
	Short: "Terminal client for the resume formatting service",
}

// renderLogo creates the logo with gradient colors
func renderLogo() string {
	t := theme.NewDark()
	line1 := theme.ApplyGradient(logoText1, t.Primary, t.Secondary)
	line2 := theme.ApplyGradient(logoText2, t.Primary, t.Secondary)
	return strings.Join([]string{line1, line2}, "\n")
}

func init() {
	rootCmd.Long = renderLogo() + `

resumedesk reformats resumes against branded templates. Pick a
template, upload one or more resumes, then edit the formatted output
live, preview it in the terminal, or download it.

State persists across restarts via embedded NATS JetStream, so the
wizard reopens exactly where you left it.`

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(setupCmd)
}
