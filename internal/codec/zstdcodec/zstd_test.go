package zstdcodec

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"
)

func TestCodec_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		c    *Codec
	}{
		{"default", New()},
		{"best compression", New(WithLevel(zstd.SpeedBestCompression))},
	}

	original := []byte(strings.Repeat(`{"fen":"8/8/8/4k3/8/8/4K3/4R3 w - -","evals":[]}`+"\n", 50))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var compressed bytes.Buffer
			w, err := tt.c.Writer(&compressed)
			if err != nil {
				t.Fatalf("Writer() error = %v", err)
			}
			if _, err := w.Write(original); err != nil {
				t.Fatalf("Write() error = %v", err)
			}
			if err := w.Close(); err != nil {
				t.Fatalf("Close() error = %v", err)
			}
			if compressed.Len() >= len(original) {
				t.Errorf("compressed size %d not below original %d", compressed.Len(), len(original))
			}

			r, err := tt.c.Reader(&compressed)
			if err != nil {
				t.Fatalf("Reader() error = %v", err)
			}
			defer r.Close()
			got, err := io.ReadAll(r)
			if err != nil {
				t.Fatalf("ReadAll() error = %v", err)
			}
			if !bytes.Equal(got, original) {
				t.Error("round trip mismatch")
			}
		})
	}
}

func TestCodec_Extension(t *testing.T) {
	if got := New().Extension(); got != "zst" {
		t.Errorf("Extension() = %q, want zst", got)
	}
}
