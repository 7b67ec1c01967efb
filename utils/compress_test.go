package utils

import (
	"bytes"
	"strings"
	"testing"
)

func TestCompressAndDecompressBytes(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"Short value", []byte("Hello, world!")},
		{"Program list JSON", []byte(`[{"id":1,"name":"Bereshit","cover":"https://cdn.example/bereshit_es.jpg"}]`)},
		{"Empty value", []byte{}},
		{"Repetitive value", []byte(strings.Repeat("materials ", 500))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			compressed, err := CompressBytes(tt.data)
			if err != nil {
				t.Fatalf("CompressBytes failed: %v", err)
			}

			decompressed, err := DecompressBytes(compressed)
			if err != nil {
				t.Fatalf("DecompressBytes failed: %v", err)
			}

			if !bytes.Equal(decompressed, tt.data) {
				t.Errorf("Round trip mismatch: got %q, want %q", decompressed, tt.data)
			}
		})
	}
}

func TestCompressBytesShrinksRepetitiveInput(t *testing.T) {
	input := []byte(strings.Repeat("season 1 episode ", 1000))
	compressed, err := CompressBytes(input)
	if err != nil {
		t.Fatalf("CompressBytes failed: %v", err)
	}
	if len(compressed) >= len(input) {
		t.Errorf("Expected compressed size < %d, got %d", len(input), len(compressed))
	}
}

func TestDecompressBytesInvalidInput(t *testing.T) {
	if _, err := DecompressBytes([]byte("definitely not gzip")); err == nil {
		t.Error("Expected error for invalid gzip input")
	}
}
