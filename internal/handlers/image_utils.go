package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"soukBack/internal/services"
)

// collectImageFiles returns every file sent under the given form keys.
func collectImageFiles(form *multipart.Form, keys ...string) []*multipart.FileHeader {
	if form == nil {
		return nil
	}

	var result []*multipart.FileHeader
	for _, key := range keys {
		if headers, ok := form.File[key]; ok {
			result = append(result, headers...)
		}
	}
	return result
}

// readUploads reads every file under keys. The content type is sniffed from
// the bytes when they look like an image, otherwise the part header is used.
func readUploads(form *multipart.Form, keys ...string) ([]services.Upload, error) {
	var uploads []services.Upload
	for _, fh := range collectImageFiles(form, keys...) {
		up, err := readUpload(fh)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, up)
	}
	return uploads, nil
}

func readUpload(fh *multipart.FileHeader) (services.Upload, error) {
	f, err := fh.Open()
	if err != nil {
		return services.Upload{}, fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return services.Upload{}, fmt.Errorf("read %s: %w", fh.Filename, err)
	}

	ct := fh.Header.Get("Content-Type")
	if sniffed := http.DetectContentType(data); strings.HasPrefix(sniffed, "image/") {
		ct = sniffed
	}
	return services.Upload{Filename: fh.Filename, ContentType: ct, Data: data}, nil
}

// gatherStringsFromForm reads string values under keys. A value may be a JSON
// array of strings or a plain string; empty, "null" and "undefined" entries
// are skipped. ok is false when nothing usable was sent.
func gatherStringsFromForm(form *multipart.Form, keys ...string) ([]string, bool, error) {
	if form == nil {
		return nil, false, nil
	}

	var result []string
	for _, key := range keys {
		for _, raw := range form.Value[key] {
			raw = strings.TrimSpace(raw)
			if strings.HasPrefix(raw, "[") {
				var arr []string
				if err := json.Unmarshal([]byte(raw), &arr); err != nil {
					return nil, false, fmt.Errorf("%s: invalid JSON array: %w", key, err)
				}
				for _, v := range arr {
					if v = strings.TrimSpace(v); usableValue(v) {
						result = append(result, v)
					}
				}
				continue
			}
			if usableValue(raw) {
				result = append(result, raw)
			}
		}
	}
	return result, len(result) > 0, nil
}

func usableValue(v string) bool {
	return v != "" && v != "null" && v != "undefined"
}
