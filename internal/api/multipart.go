package api

import (
	"bytes"
	"sort"

	"github.com/google/uuid"
)

// ImageField is the single binary part of a multipart upload. The backend
// only ever receives JPEG data, so the part's Content-Type is fixed.
type ImageField struct {
	Name     string // form field name, usually "image"
	Filename string // synthesized, e.g. "car.jpg" or "<username>-image.jpg"
	Data     []byte
}

func newBoundary() string { return uuid.NewString() }

// buildMultipartBody reproduces the exact wire format the PHP scripts were
// written against: for each string field a boundary line, a
// Content-Disposition line, a blank line, the value and CRLF; the image
// part adds a filename and Content-Type; the final boundary is terminated
// with "--". Fields are emitted in sorted key order so the body is
// deterministic.
func buildMultipartBody(fields map[string]string, image ImageField, boundary string) []byte {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b bytes.Buffer
	for _, k := range keys {
		b.WriteString("--" + boundary + "\r\n")
		b.WriteString(`Content-Disposition: form-data; name="` + k + `"` + "\r\n\r\n")
		b.WriteString(fields[k])
		b.WriteString("\r\n")
	}
	b.WriteString("--" + boundary + "\r\n")
	b.WriteString(`Content-Disposition: form-data; name="` + image.Name + `"; filename="` + image.Filename + `"` + "\r\n")
	b.WriteString("Content-Type: image/jpeg\r\n\r\n")
	b.Write(image.Data)
	b.WriteString("\r\n")
	b.WriteString("--" + boundary + "--\r\n")
	return b.Bytes()
}
