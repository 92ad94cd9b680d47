package llm

import (
	"encoding/base64"
	"errors"
	"testing"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func TestParseInlineImage(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString(pngBytes)
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{name: "data url", raw: "data:image/png;base64," + encoded},
		{name: "mislabelled data url", raw: "data:image/jpeg;base64," + encoded},
		{name: "bare base64", raw: encoded},
		{name: "unpadded", raw: base64.RawStdEncoding.EncodeToString(pngBytes)},
		{name: "wrapped lines", raw: encoded[:10] + "\n" + encoded[10:]},
		{name: "empty", raw: "  ", wantErr: true},
		{name: "not base64", raw: "data:image/png;base64,@@@", wantErr: true},
		{name: "not an image", raw: base64.StdEncoding.EncodeToString([]byte("plain text here")), wantErr: true},
		{name: "not base64 data url", raw: "data:image/png," + encoded, wantErr: true},
		{name: "no comma", raw: "data:image/png;base64", wantErr: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			img, err := ParseInlineImage(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidImage) {
					t.Fatalf("expected ErrInvalidImage, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if img.MIMEType != "image/png" {
				t.Fatalf("expected image/png, got %q", img.MIMEType)
			}
			if string(img.Data) != string(pngBytes) {
				t.Fatalf("decoded bytes differ")
			}
		})
	}
}

func TestInlineImageDataURLRoundTrip(t *testing.T) {
	img := InlineImage{MIMEType: "image/png", Data: pngBytes}
	parsed, err := ParseInlineImage(img.DataURL())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.MIMEType != img.MIMEType {
		t.Fatalf("expected %s, got %s", img.MIMEType, parsed.MIMEType)
	}
}
