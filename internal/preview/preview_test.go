package preview

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/resumekit/resumedesk/internal/domain"
)

type fakeFetcher struct {
	data  []byte
	err   error
	calls int
}

func (f *fakeFetcher) Download(_ context.Context, _ string) ([]byte, error) {
	f.calls++
	return f.data, f.err
}

func TestRender_Markdown(t *testing.T) {
	f := &fakeFetcher{data: []byte("# Resume\n\nSome **bold** experience.")}
	r := NewRenderer(f)

	out, err := r.Render(context.Background(), domain.FormatResult{Filename: "resume.md"}, 80)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(out, "Resume") {
		t.Errorf("rendered preview missing heading text: %q", out)
	}
	if f.calls != 1 {
		t.Errorf("expected exactly one fetch, got %d", f.calls)
	}
}

func TestRender_UnknownExtensionTreatedAsText(t *testing.T) {
	f := &fakeFetcher{data: []byte("plain contents")}
	r := NewRenderer(f)

	out, err := r.Render(context.Background(), domain.FormatResult{Filename: "resume.out"}, 80)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(out, "plain contents") {
		t.Errorf("preview should contain the raw text: %q", out)
	}
}

func TestRender_Docx(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatal(err)
	}
	w.Write([]byte(`<w:document><w:body><w:p><w:r><w:t>First paragraph</w:t></w:r></w:p><w:p><w:r><w:t>Second paragraph</w:t></w:r></w:p></w:body></w:document>`))
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}

	f := &fakeFetcher{data: buf.Bytes()}
	r := NewRenderer(f)

	out, err := r.Render(context.Background(), domain.FormatResult{Filename: "ab12.docx"}, 80)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(out, "First paragraph") || !strings.Contains(out, "Second paragraph") {
		t.Errorf("docx preview missing paragraphs: %q", out)
	}
}

func TestRender_FetchError(t *testing.T) {
	f := &fakeFetcher{err: errors.New("backend unreachable")}
	r := NewRenderer(f)

	_, err := r.Render(context.Background(), domain.FormatResult{Filename: "resume.md"}, 80)
	if err == nil {
		t.Fatal("expected fetch error to propagate")
	}
}

func TestRender_CorruptDocx(t *testing.T) {
	f := &fakeFetcher{data: []byte("not a zip archive")}
	r := NewRenderer(f)

	_, err := r.Render(context.Background(), domain.FormatResult{Filename: "bad.docx"}, 80)
	if err == nil {
		t.Fatal("expected error for corrupt docx")
	}
}

func TestWrapText(t *testing.T) {
	out := wrapText("one two three four five six seven eight nine ten", 15)
	for _, line := range strings.Split(out, "\n") {
		if len(line) > 15 {
			t.Errorf("line exceeds width: %q", line)
		}
	}
	if !strings.Contains(out, "one two") {
		t.Errorf("unexpected wrap output: %q", out)
	}
}
