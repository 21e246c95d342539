// Package api is the HTTP client for the formatting backend: the template
// catalog, format job submission, artifact download, editor configuration,
// and the contact-info record.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/resumekit/resumedesk/internal/domain"
	"github.com/resumekit/resumedesk/internal/logger"
)

// ErrBackend marks a transport failure or non-success backend status.
var ErrBackend = errors.New("backend request failed")

// ErrMalformed marks a 2xx response missing its success marker or a field
// the client requires.
var ErrMalformed = errors.New("malformed backend response")

// Client talks to the formatting backend. Network timeouts are the
// transport defaults; failures surface as ordinary errors.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a backend client for the given base URL.
func NewClient(baseURL string) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, fmt.Errorf("backend base URL is required")
	}
	if _, err := url.Parse(trimmed); err != nil {
		return nil, fmt.Errorf("invalid backend base URL: %w", err)
	}
	return &Client{
		baseURL:    trimmed,
		httpClient: &http.Client{},
	}, nil
}

type templatesResponse struct {
	Success   bool              `json:"success"`
	Templates []domain.Template `json:"templates"`
	Error     string            `json:"error,omitempty"`
}

type createTemplateResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
	Error   string `json:"error,omitempty"`
}

type formatResponse struct {
	Success bool                  `json:"success"`
	Files   []domain.FormatResult `json:"files"`
	Error   string                `json:"error,omitempty"`
}

type editorConfigResponse struct {
	Success bool            `json:"success"`
	Config  json.RawMessage `json:"config"`
	Error   string          `json:"error,omitempty"`
}

type contactResponse struct {
	Success bool                `json:"success"`
	Contact *domain.ContactInfo `json:"contact"`
	Error   string              `json:"error,omitempty"`
}

type ackResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// ListTemplates fetches the template catalog.
func (c *Client) ListTemplates(ctx context.Context) ([]domain.Template, error) {
	var out templatesResponse
	if err := c.getJSON(ctx, "/templates", &out); err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, fmt.Errorf("%w: %s", ErrBackend, backendMessage(out.Error))
	}
	if out.Templates == nil {
		return nil, fmt.Errorf("%w: templates field missing", ErrMalformed)
	}
	return out.Templates, nil
}

// CreateTemplate uploads a new template file under the given display name
// and returns the backend-assigned id.
func (c *Client) CreateTemplate(ctx context.Context, name, path string) (string, error) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	if err := w.WriteField("name", name); err != nil {
		return "", fmt.Errorf("writing name field: %w", err)
	}
	if err := attachFile(w, "file", path); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("closing multipart body: %w", err)
	}

	var out createTemplateResponse
	if err := c.postMultipart(ctx, "/templates", w.FormDataContentType(), body, &out); err != nil {
		return "", err
	}
	if !out.Success {
		return "", fmt.Errorf("%w: %s", ErrBackend, backendMessage(out.Error))
	}
	if out.ID == "" {
		return "", fmt.Errorf("%w: id field missing", ErrMalformed)
	}
	return out.ID, nil
}

// DeleteTemplate removes a template from the catalog.
func (c *Client) DeleteTemplate(ctx context.Context, id string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/templates/"+url.PathEscape(id), nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}

	var out ackResponse
	if err := c.do(req, &out); err != nil {
		return err
	}
	if !out.Success {
		return fmt.Errorf("%w: %s", ErrBackend, backendMessage(out.Error))
	}
	return nil
}

// TemplateThumbnail fetches the thumbnail image bytes for a template.
func (c *Client) TemplateThumbnail(ctx context.Context, id string) ([]byte, error) {
	return c.getBytes(ctx, "/templates/"+url.PathEscape(id)+"/thumbnail")
}

// SubmitFormat sends a batch of resume files and a template id to the
// formatting backend and returns one result descriptor per input.
func (c *Client) SubmitFormat(ctx context.Context, templateID string, files []domain.ResumeFile) ([]domain.FormatResult, error) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	if err := w.WriteField("template_id", templateID); err != nil {
		return nil, fmt.Errorf("writing template_id field: %w", err)
	}
	for _, f := range files {
		if err := attachFile(w, "resumes", f.Path); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart body: %w", err)
	}

	var out formatResponse
	if err := c.postMultipart(ctx, "/format", w.FormDataContentType(), body, &out); err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, fmt.Errorf("%w: %s", ErrBackend, backendMessage(out.Error))
	}
	if out.Files == nil {
		return nil, fmt.Errorf("%w: files field missing", ErrMalformed)
	}
	return out.Files, nil
}

// Download fetches the bytes of a formatted artifact. filename is the
// backend-assigned opaque token, used verbatim.
func (c *Client) Download(ctx context.Context, filename string) ([]byte, error) {
	return c.getBytes(ctx, "/download/"+url.PathEscape(filename))
}

// EditorConfig fetches the live editor configuration blob for an artifact.
// The blob is opaque to the client and handed to the runtime unchanged.
func (c *Client) EditorConfig(ctx context.Context, filename string) (json.RawMessage, error) {
	var out editorConfigResponse
	if err := c.getJSON(ctx, "/onlyoffice/config/"+url.PathEscape(filename), &out); err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, fmt.Errorf("%w: %s", ErrBackend, backendMessage(out.Error))
	}
	if len(out.Config) == 0 {
		return nil, fmt.Errorf("%w: config field missing", ErrMalformed)
	}
	return out.Config, nil
}

// Contact fetches the stored contact-info record.
func (c *Client) Contact(ctx context.Context) (domain.ContactInfo, error) {
	var out contactResponse
	if err := c.getJSON(ctx, "/cai-contact", &out); err != nil {
		return domain.ContactInfo{}, err
	}
	if !out.Success {
		return domain.ContactInfo{}, fmt.Errorf("%w: %s", ErrBackend, backendMessage(out.Error))
	}
	if out.Contact == nil {
		return domain.ContactInfo{}, fmt.Errorf("%w: contact field missing", ErrMalformed)
	}
	return *out.Contact, nil
}

// SaveContact writes the contact-info record.
func (c *Client) SaveContact(ctx context.Context, info domain.ContactInfo) error {
	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("marshaling contact info: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/cai-contact", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var out ackResponse
	if err := c.do(req, &out); err != nil {
		return err
	}
	if !out.Success {
		return fmt.Errorf("%w: %s", ErrBackend, backendMessage(out.Error))
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	return c.do(req, dest)
}

func (c *Client) postMultipart(ctx context.Context, path, contentType string, body io.Reader, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	return c.do(req, dest)
}

func (c *Client) getBytes(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.Warn("Backend returned status %d for %s", resp.StatusCode, path)
		return nil, fmt.Errorf("%w: status %d", ErrBackend, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrBackend, err)
	}
	return data, nil
}

func (c *Client) do(req *http.Request, dest any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.Warn("Backend returned status %d for %s %s", resp.StatusCode, req.Method, req.URL.Path)
		return fmt.Errorf("%w: status %d", ErrBackend, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("%w: decoding body: %v", ErrMalformed, err)
	}
	return nil
}

func attachFile(w *multipart.Writer, field, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	part, err := w.CreateFormFile(field, filepath.Base(path))
	if err != nil {
		return fmt.Errorf("creating form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("copying %s: %w", path, err)
	}
	return nil
}

func backendMessage(msg string) string {
	if msg == "" {
		return "backend reported failure"
	}
	return msg
}
