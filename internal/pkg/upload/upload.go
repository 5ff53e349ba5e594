// Package upload stages complaint attachments on local disk and enforces
// the per-mode count, size and MIME constraints before anything is
// persisted. Staged files are scarce resources: every path out of a
// submission (success, failure, cancel, expiry sweep) must release them.
package upload

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Policy holds the attachment constraints for one submission mode.
// The caps deliberately differ between call sites: guest 5x10MB,
// citizen 10x10MB, maintenance photos 5x5MB.
type Policy struct {
	MaxFiles     int
	MaxFileSize  int64
	AllowedMimes []string
}

// DefaultAllowedMimes is the image allow-list shared by every mode
var DefaultAllowedMimes = []string{
	"image/jpeg",
	"image/png",
	"image/gif",
	"image/webp",
}

// AllowsMime reports whether the policy accepts a MIME type
func (p Policy) AllowsMime(mime string) bool {
	mime = strings.ToLower(strings.TrimSpace(mime))
	// strip any ";charset=..." parameter
	if i := strings.Index(mime, ";"); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	for _, allowed := range p.AllowedMimes {
		if mime == allowed {
			return true
		}
	}
	return false
}

// Incoming describes one file offered to the manager. Handlers build it
// from multipart headers; tests build it from in-memory readers.
type Incoming struct {
	FileName string
	MimeType string
	Size     int64
	Open     func() (io.ReadCloser, error)
}

// FromMultipart adapts a multipart file header to an Incoming
func FromMultipart(fh *multipart.FileHeader) Incoming {
	return Incoming{
		FileName: fh.Filename,
		MimeType: fh.Header.Get("Content-Type"),
		Size:     fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

// Rejection records why one file of a batch was refused
type Rejection struct {
	FileName string `json:"file_name"`
	Reason   string `json:"reason"`
}

// StagedFile is an accepted attachment held on disk until the submission
// either commits or is abandoned
type StagedFile struct {
	ID        string `json:"id"`
	FileName  string `json:"file_name"`
	MimeType  string `json:"mime_type"`
	SizeBytes int64  `json:"size_bytes"`
	Path      string `json:"-"`
}

// Manager tracks the staged attachments of one in-progress submission
type Manager struct {
	dir    string
	policy Policy

	mu       sync.Mutex
	files    []*StagedFile
	released bool
}

// NewManager creates a manager staging into dir (created if missing)
func NewManager(dir string, policy Policy) (*Manager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}
	return &Manager{dir: dir, policy: policy}, nil
}

// Add validates and stages a batch of files. Acceptance is per-file: a
// disallowed file never blocks the valid files that arrived with it.
// Additions beyond the count cap are rejected, never silently truncated.
func (m *Manager) Add(batch []Incoming) ([]*StagedFile, []Rejection) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var accepted []*StagedFile
	var rejected []Rejection

	for _, in := range batch {
		if m.released {
			rejected = append(rejected, Rejection{FileName: in.FileName, Reason: "submission is no longer active"})
			continue
		}
		if len(m.files) >= m.policy.MaxFiles {
			rejected = append(rejected, Rejection{
				FileName: in.FileName,
				Reason:   fmt.Sprintf("maximum of %d files allowed", m.policy.MaxFiles),
			})
			continue
		}
		if !m.policy.AllowsMime(in.MimeType) {
			rejected = append(rejected, Rejection{FileName: in.FileName, Reason: "file type not allowed, only images are accepted"})
			continue
		}
		if in.Size > m.policy.MaxFileSize {
			rejected = append(rejected, Rejection{
				FileName: in.FileName,
				Reason:   fmt.Sprintf("file exceeds the %dMB size limit", m.policy.MaxFileSize/(1024*1024)),
			})
			continue
		}

		staged, err := m.stage(in)
		if err != nil {
			rejected = append(rejected, Rejection{FileName: in.FileName, Reason: "failed to store file"})
			continue
		}
		m.files = append(m.files, staged)
		accepted = append(accepted, staged)
	}

	return accepted, rejected
}

// stage copies the file to the staging dir under a generated name
func (m *Manager) stage(in Incoming) (*StagedFile, error) {
	src, err := in.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	id := uuid.New().String()
	path := filepath.Join(m.dir, id+strings.ToLower(filepath.Ext(in.FileName)))

	dst, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	written, err := io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return nil, err
	}

	return &StagedFile{
		ID:        id,
		FileName:  in.FileName,
		MimeType:  in.MimeType,
		SizeBytes: written,
		Path:      path,
	}, nil
}

// Remove deletes one staged file and frees its disk space
func (m *Manager) Remove(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, f := range m.files {
		if f.ID == id {
			os.Remove(f.Path)
			m.files = append(m.files[:i], m.files[i+1:]...)
			return true
		}
	}
	return false
}

// Files returns the accepted attachments in insertion order
func (m *Manager) Files() []*StagedFile {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*StagedFile, len(m.files))
	copy(out, m.files)
	return out
}

// Count returns the number of staged files
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.files)
}

// Commit moves every staged file into destDir and marks the manager
// released. Called exactly once, when the complaint is persisted.
func (m *Manager) Commit(destDir string) ([]*StagedFile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.released {
		return nil, fmt.Errorf("attachments already released")
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}

	committed := make([]*StagedFile, 0, len(m.files))
	for _, f := range m.files {
		dest := filepath.Join(destDir, filepath.Base(f.Path))
		if err := os.Rename(f.Path, dest); err != nil {
			// Roll back files already moved so a partial commit leaves
			// nothing orphaned in the storage dir.
			for _, moved := range committed {
				os.Remove(moved.Path)
			}
			return nil, fmt.Errorf("commit %s: %w", f.FileName, err)
		}
		f.Path = dest
		committed = append(committed, f)
	}

	m.files = nil
	m.released = true
	return committed, nil
}

// ReleaseAll discards every staged file. Idempotent; safe to call on any
// exit path including after Commit.
func (m *Manager) ReleaseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, f := range m.files {
		os.Remove(f.Path)
	}
	m.files = nil
	m.released = true
}

// Released reports whether the manager has been committed or released
func (m *Manager) Released() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.released
}
