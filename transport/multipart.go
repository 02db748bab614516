package transport

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/adamwoolhether/httpdriver/format"
)

const formURLEncoded = "application/x-www-form-urlencoded"

// FormFile is a file part of a multipart/form-data body.
type FormFile struct {
	Filename string
	Content  io.Reader
}

// OpenFormFile opens path for upload. The file is closed once it has been
// written into a request body.
func OpenFormFile(path string) (FormFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return FormFile{}, fmt.Errorf("open form file: %w", err)
	}

	return FormFile{Filename: filepath.Base(path), Content: f}, nil
}

// requestBody renders post_fields. Strings, byte slices and readers are sent
// as they are; mappings become a multipart/form-data body.
func requestBody(fields any) ([]byte, string, error) {
	switch v := fields.(type) {
	case nil:
		return nil, "", nil
	case []byte:
		return v, formURLEncoded, nil
	case string:
		return []byte(v), formURLEncoded, nil
	case io.Reader:
		b, err := io.ReadAll(v)
		if err != nil {
			return nil, "", fmt.Errorf("read post fields: %w", err)
		}
		return b, formURLEncoded, nil
	}

	m, ok, err := format.FromAny(fields)
	if err != nil {
		return nil, "", fmt.Errorf("post fields: %w", err)
	}
	if !ok {
		return []byte(fmt.Sprint(fields)), formURLEncoded, nil
	}

	return multipartBody(m)
}

func multipartBody(m *format.Map) ([]byte, string, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	for _, k := range m.Keys() {
		v, _ := m.Get(k)

		values, isList := format.Normalize(v).([]any)
		if !isList {
			values = []any{v}
		}

		for _, val := range values {
			if err := writePart(w, k, val); err != nil {
				return nil, "", fmt.Errorf("part[%s]: %w", k, err)
			}
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("closing multipart writer: %w", err)
	}

	return body.Bytes(), w.FormDataContentType(), nil
}

func writePart(w *multipart.Writer, name string, v any) error {
	switch val := v.(type) {
	case FormFile:
		part, err := w.CreateFormFile(name, val.Filename)
		if err != nil {
			return err
		}
		if c, ok := val.Content.(io.Closer); ok {
			defer c.Close()
		}
		_, err = io.Copy(part, val.Content)
		return err
	case []byte:
		return w.WriteField(name, string(val))
	case string:
		return w.WriteField(name, val)
	case nil:
		return w.WriteField(name, "")
	}

	return w.WriteField(name, fmt.Sprint(v))
}
