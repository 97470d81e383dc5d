// Package storage puts user uploads (resumes) in object storage.
package storage

import (
	"context"
	"io"
	"strconv"

	"github.com/google/uuid"
)

// Object describes an upload.
type Object struct {
	Name         string
	ContentType  string
	CacheControl string
}

// Uploader stores an object and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, obj Object, r io.Reader) (url string, err error)
}

// ResumeObject names a new PDF resume for userID. Every upload gets a fresh
// name so cached copies of an older resume never shadow the new one.
func ResumeObject(userID int64) Object {
	return Object{
		Name:         "resumes/" + strconv.FormatInt(userID, 10) + "/" + uuid.NewString() + ".pdf",
		ContentType:  "application/pdf",
		CacheControl: "private, max-age=3600",
	}
}
