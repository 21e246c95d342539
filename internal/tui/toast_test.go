package tui

import (
	"strings"
	"testing"
)

func TestToastShowAndDismiss(t *testing.T) {
	toast := NewToast()

	if toast.IsVisible() {
		t.Fatal("new toast should not be visible")
	}

	cmd := toast.Show("saved")
	if cmd == nil {
		t.Fatal("Show should return a dismiss command")
	}
	if !toast.IsVisible() {
		t.Fatal("toast should be visible after Show")
	}
	if toast.Message() != "saved" {
		t.Errorf("expected message %q, got %q", "saved", toast.Message())
	}

	toast.Update(ToastDismissMsg{})
	if toast.IsVisible() {
		t.Fatal("toast should be hidden after dismiss")
	}
	if toast.Message() != "" {
		t.Errorf("expected empty message after dismiss, got %q", toast.Message())
	}
}

func TestToastView(t *testing.T) {
	toast := NewToast()

	if got := toast.View(80, 24); got != "" {
		t.Errorf("hidden toast should render empty, got %q", got)
	}

	toast.Show("download complete")
	view := toast.View(80, 24)
	if !strings.Contains(view, "download complete") {
		t.Errorf("toast view should contain message, got %q", view)
	}
}

func TestToastShowError(t *testing.T) {
	toast := NewToast()
	toast.ShowError("boom")

	if !toast.IsVisible() {
		t.Fatal("error toast should be visible")
	}
	if !toast.isError {
		t.Error("error toast should be flagged as error")
	}

	// A later info toast clears the error styling.
	toast.Show("ok")
	if toast.isError {
		t.Error("info toast should clear error flag")
	}
}
