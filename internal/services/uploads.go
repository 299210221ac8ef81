package services

import (
	"fmt"
	"strings"

	"soukBack/internal/validation"
)

// Upload is one file received with a form.
type Upload struct {
	Field       string
	Filename    string
	ContentType string
	Data        []byte
}

func (u Upload) imageFile() validation.ImageFile {
	return validation.ImageFile{Name: u.Filename, ContentType: u.ContentType, Size: int64(len(u.Data))}
}

// FileError reports why a single file was rejected or failed to upload.
type FileError struct {
	File    string `json:"file"`
	Message string `json:"error"`
	Err     error  `json:"-"`
}

func newFileError(u Upload, err error) FileError {
	return FileError{File: u.Filename, Message: err.Error(), Err: err}
}

// UploadErrors aggregates the files of one batch that could not be stored.
type UploadErrors []FileError

func (e UploadErrors) Error() string {
	names := make([]string, 0, len(e))
	for _, fe := range e {
		names = append(names, fmt.Sprintf("%s (%s)", fe.File, fe.Message))
	}
	return fmt.Sprintf("failed to upload %d file(s): %s", len(e), strings.Join(names, ", "))
}

func (e UploadErrors) Unwrap() []error {
	errs := make([]error, 0, len(e))
	for _, fe := range e {
		if fe.Err != nil {
			errs = append(errs, fe.Err)
		}
	}
	return errs
}
