package domain

import "time"

// Template is a formatting template owned by the backend catalog. The
// client holds a read-only cached copy; thumbnail bytes are fetched
// separately by id when needed.
type Template struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	FileType string `json:"file_type"`
}

// ResumeFile is a source document queued for formatting. It exists only in
// the upload step's working set and is never persisted.
type ResumeFile struct {
	ID   string // Client-assigned, used for working-set membership
	Name string // Base filename shown in the picker
	Path string // Absolute path on disk
	Size int64  // Byte size for display
}

// FormatResult is one formatted output document. Filename is assigned by
// the backend, unique and URL-safe; it is the only key used to address the
// artifact (download, editor config). Immutable once produced.
type FormatResult struct {
	Filename    string `json:"filename"`
	Original    string `json:"original"`
	DisplayName string `json:"display_name"`
}

// ContactInfo is the operator's contact record, edited via a modal and
// mirrored to the backend.
type ContactInfo struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// DownloadRecord notes where an artifact landed on local disk.
type DownloadRecord struct {
	Filename string    // Backend filename the bytes came from
	Path     string    // Local path written
	SavedAt  time.Time // When the write completed
}
