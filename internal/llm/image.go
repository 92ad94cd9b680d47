package llm

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// MaxImageBytes bounds decoded inline images.
const MaxImageBytes = 8 << 20

// InlineImage is a decoded image sent alongside a vision prompt.
type InlineImage struct {
	MIMEType string
	Data     []byte
}

// DataURL renders the image as a base64 data URL.
func (i InlineImage) DataURL() string {
	return "data:" + i.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(i.Data)
}

// ParseInlineImage decodes a data URL ("data:image/jpeg;base64,...") or bare base64
// payload. The MIME type is sniffed from the bytes; the declared type is ignored.
func ParseInlineImage(raw string) (*InlineImage, error) {
	payload := strings.TrimSpace(raw)
	if payload == "" {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidImage)
	}
	if strings.HasPrefix(payload, "data:") {
		header, body, ok := strings.Cut(payload, ",")
		if !ok {
			return nil, fmt.Errorf("%w: malformed data URL", ErrInvalidImage)
		}
		if !strings.HasSuffix(header, ";base64") {
			return nil, fmt.Errorf("%w: data URL is not base64 encoded", ErrInvalidImage)
		}
		payload = body
	}

	data, err := decodeBase64(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty image", ErrInvalidImage)
	}
	if len(data) > MaxImageBytes {
		return nil, fmt.Errorf("%w: image exceeds %d bytes", ErrInvalidImage, MaxImageBytes)
	}

	detected := mimetype.Detect(data)
	if !strings.HasPrefix(detected.String(), "image/") {
		return nil, fmt.Errorf("%w: unsupported content type %s", ErrInvalidImage, detected.String())
	}
	return &InlineImage{MIMEType: detected.String(), Data: data}, nil
}

func decodeBase64(s string) ([]byte, error) {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', ' ', '\t':
			return -1
		}
		return r
	}, s)
	encodings := []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding}
	var lastErr error
	for _, enc := range encodings {
		data, err := enc.DecodeString(s)
		if err == nil {
			return data, nil
		}
		lastErr = err
	}
	return nil, lastErr
}
