// Package attach loads and validates files staged for the next chat message.
package attach

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
)

// Selection-time error kinds. Wrapped errors carry the offending detail.
var (
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrAttachmentTooLarge  = errors.New("attachment too large")
	ErrPageLimitExceeded   = errors.New("page limit exceeded")
)

// UnknownPages marks a file whose page count cannot be determined.
const UnknownPages = -1

// mimeTypes is the accepted set, keyed by lower-case extension without dot.
var mimeTypes = map[string]string{
	"pdf":  "application/pdf",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"csv":  "text/csv",
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// File is a validated-or-candidate attachment held in memory.
type File struct {
	Name     string
	Ext      string
	MIMEType string
	Size     int64
	Data     []byte
	Pages    int
}

// Extensions returns the accepted extensions in sorted order, without dots.
func Extensions() []string {
	exts := make([]string, 0, len(mimeTypes))
	for ext := range mimeTypes {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Supported reports whether name has an accepted extension.
func Supported(name string) bool {
	_, ok := mimeTypes[extOf(name)]
	return ok
}

func extOf(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}

func checkType(name string) (string, string, error) {
	ext := extOf(name)
	mimeType, ok := mimeTypes[ext]
	if !ok {
		if ext == "" {
			return "", "", fmt.Errorf("%w: %s has no extension", ErrUnsupportedFileType, name)
		}
		return "", "", fmt.Errorf("%w: .%s (accepted: %s)", ErrUnsupportedFileType, ext, strings.Join(Extensions(), ", "))
	}
	return ext, mimeType, nil
}

func checkSize(name string, size, maxBytes int64) error {
	if maxBytes > 0 && size > maxBytes {
		return fmt.Errorf("%w: %s is %s, limit is %s", ErrAttachmentTooLarge,
			name, humanize.IBytes(uint64(size)), humanize.IBytes(uint64(maxBytes)))
	}
	return nil
}

// Load reads the file at path. The extension and size are checked against
// the file's metadata before any data is read; maxBytes <= 0 disables the
// size check.
func Load(path string, maxBytes int64) (*File, error) {
	name := filepath.Base(path)
	if _, _, err := checkType(name); err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat attachment: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrUnsupportedFileType, name)
	}
	if err := checkSize(name, info.Size(), maxBytes); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read attachment: %w", err)
	}
	return FromBytes(name, data)
}

// FromBytes builds a File from an in-memory payload.
func FromBytes(name string, data []byte) (*File, error) {
	ext, mimeType, err := checkType(name)
	if err != nil {
		return nil, err
	}
	return &File{
		Name:     filepath.Base(name),
		Ext:      ext,
		MIMEType: mimeType,
		Size:     int64(len(data)),
		Data:     data,
		Pages:    CountPages(ext, data),
	}, nil
}

// HumanSize formats the file size for display.
func (f *File) HumanSize() string {
	return humanize.IBytes(uint64(f.Size))
}

// Policy is the client-side acceptance rule for attachments.
type Policy struct {
	MaxBytes     int64 // <= 0 means unlimited
	MaxPages     int   // <= 0 means unlimited
	EnforcePages bool  // reject instead of warn when over MaxPages
}

// Report describes a file that passed validation.
type Report struct {
	Pages  int
	Notice string // advisory message, empty when nothing to say
}

// Validate checks f against the policy. A page count over the limit is an
// advisory notice unless EnforcePages is set; files without page semantics
// always pass the page check.
func (p Policy) Validate(f *File) (Report, error) {
	if f == nil {
		return Report{}, fmt.Errorf("%w: no file", ErrUnsupportedFileType)
	}
	if _, _, err := checkType(f.Name); err != nil {
		return Report{}, err
	}
	if err := checkSize(f.Name, f.Size, p.MaxBytes); err != nil {
		return Report{}, err
	}

	report := Report{Pages: f.Pages}
	if p.MaxPages > 0 && f.Pages > p.MaxPages {
		if p.EnforcePages {
			return Report{}, fmt.Errorf("%w: %s has %d pages, limit is %d",
				ErrPageLimitExceeded, f.Name, f.Pages, p.MaxPages)
		}
		report.Notice = fmt.Sprintf("%s has %d pages; only the first %d may be read",
			f.Name, f.Pages, p.MaxPages)
	}
	return report, nil
}
