package attach

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"

	"github.com/ledongthuc/pdf"
)

// CountPages returns the page count for formats with page semantics, or
// UnknownPages when the format has none or the count cannot be read.
func CountPages(ext string, data []byte) int {
	switch ext {
	case "pdf":
		return pdfPages(data)
	case "docx":
		return docxPages(data)
	case "jpg", "jpeg", "png":
		return 1
	default:
		return UnknownPages
	}
}

func pdfPages(data []byte) (n int) {
	// The reader panics on some malformed cross-reference tables.
	defer func() {
		if recover() != nil {
			n = UnknownPages
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return UnknownPages
	}
	if pages := r.NumPage(); pages > 0 {
		return pages
	}
	return UnknownPages
}

// docxAppProps is the subset of docProps/app.xml we read. Word updates
// <Pages> on save; files from other generators may omit it.
type docxAppProps struct {
	Pages int `xml:"Pages"`
}

func docxPages(data []byte) int {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return UnknownPages
	}

	for _, f := range r.File {
		if f.Name != "docProps/app.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return UnknownPages
		}
		raw, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return UnknownPages
		}

		var props docxAppProps
		if err := xml.Unmarshal(raw, &props); err != nil || props.Pages <= 0 {
			return UnknownPages
		}
		return props.Pages
	}
	return UnknownPages
}
