package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGlobalPath(t *testing.T) {
	origXDG := os.Getenv("XDG_CONFIG_HOME")
	defer func() {
		if origXDG != "" {
			_ = os.Setenv("XDG_CONFIG_HOME", origXDG)
		} else {
			_ = os.Unsetenv("XDG_CONFIG_HOME")
		}
	}()

	t.Run("with XDG_CONFIG_HOME set", func(t *testing.T) {
		_ = os.Setenv("XDG_CONFIG_HOME", "/custom/config")
		got := GlobalPath()
		want := "/custom/config/resumedesk/resumedesk.yml"
		if got != want {
			t.Errorf("GlobalPath() = %v, want %v", got, want)
		}
	})

	t.Run("without XDG_CONFIG_HOME", func(t *testing.T) {
		_ = os.Unsetenv("XDG_CONFIG_HOME")
		got := GlobalPath()
		if !filepath.IsAbs(got) {
			t.Errorf("GlobalPath() should return absolute path, got %v", got)
		}
		if filepath.Base(got) != "resumedesk.yml" {
			t.Errorf("GlobalPath() should end with resumedesk.yml, got %v", got)
		}
	})
}

func TestProjectPath(t *testing.T) {
	got := ProjectPath()
	want := "resumedesk.yml"
	if got != want {
		t.Errorf("ProjectPath() = %v, want %v", got, want)
	}
}

func TestLoadDefaults(t *testing.T) {
	// Run in an empty directory so no project config is picked up
	origDir, _ := os.Getwd()
	tmpDir := t.TempDir()
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}
	defer func() { _ = os.Chdir(origDir) }()

	_ = os.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))
	defer func() { _ = os.Unsetenv("XDG_CONFIG_HOME") }()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.DataDir != ".resumedesk" {
		t.Errorf("expected default data_dir '.resumedesk', got %q", cfg.DataDir)
	}
	if cfg.DownloadDir != "downloads" {
		t.Errorf("expected default download_dir 'downloads', got %q", cfg.DownloadDir)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected default log_level 'info', got %q", cfg.LogLevel)
	}

	// backend_url has no default and must fail validation
	if err := cfg.Validate(); err == nil {
		t.Error("expected Validate() to fail without backend_url")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	origDir, _ := os.Getwd()
	tmpDir := t.TempDir()
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}
	defer func() { _ = os.Chdir(origDir) }()

	_ = os.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))
	_ = os.Setenv("RESUMEDESK_BACKEND_URL", "http://localhost:5000")
	defer func() {
		_ = os.Unsetenv("XDG_CONFIG_HOME")
		_ = os.Unsetenv("RESUMEDESK_BACKEND_URL")
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.BackendURL != "http://localhost:5000" {
		t.Errorf("expected env backend_url, got %q", cfg.BackendURL)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() failed with backend_url set: %v", err)
	}
}

func TestWriteProject(t *testing.T) {
	origDir, _ := os.Getwd()
	tmpDir := t.TempDir()
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}
	defer func() { _ = os.Chdir(origDir) }()

	_ = os.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))
	defer func() { _ = os.Unsetenv("XDG_CONFIG_HOME") }()

	cfg := &Config{
		BackendURL:  "http://backend.test",
		EditorURL:   "http://editor.test",
		DataDir:     ".resumedesk",
		DownloadDir: "downloads",
	}
	if err := WriteProject(cfg); err != nil {
		t.Fatalf("WriteProject() failed: %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if loaded.BackendURL != "http://backend.test" {
		t.Errorf("expected backend_url from project config, got %q", loaded.BackendURL)
	}
	if loaded.EditorURL != "http://editor.test" {
		t.Errorf("expected editor_url from project config, got %q", loaded.EditorURL)
	}
}
