package dto

import (
	"io"
	"path/filepath"
	"strings"
)

// UploadedFile is a multipart part detached from the HTTP layer.
type UploadedFile struct {
	Filename    string
	Size        int64
	ContentType string
	Open        func() (io.ReadCloser, error)
}

// Ext returns the lower-cased extension including the dot.
func (f UploadedFile) Ext() string {
	return strings.ToLower(filepath.Ext(f.Filename))
}

// SafeName strips any directory components from the client supplied name.
func (f UploadedFile) SafeName() string {
	name := filepath.Base(strings.ReplaceAll(f.Filename, "\\", "/"))
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	return name
}
