package bodywriter

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDetectMode(t *testing.T) {
	cases := map[string]Mode{
		"image/png":                ModeBinary,
		"image/jpeg":               ModeBinary,
		"application/zip":          ModeBinary,
		"application/gzip":         ModeBinary,
		"application/x-tar":        ModeBinary,
		"application/octet-stream": ModeBinary,
		"text/html":                ModeText,
		"text/html; charset=utf-8": ModeText,
		"application/json":         ModeText,
		"text/plain":               ModeText,
		"":                         ModeText,
	}
	for contentType, want := range cases {
		if got := DetectMode(contentType); got != want {
			t.Fatalf("DetectMode(%q) = %v, want %v", contentType, got, want)
		}
	}
}

func TestWriteInfersMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pic")
	mode, err := Write(path, 200, "image/png", []byte{0x89, 'P', 'N', 'G'}, ModeAuto)
	if err != nil {
		t.Fatal(err)
	}
	if mode != ModeBinary {
		t.Fatalf("Mode is %v", mode)
	}
	body, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != "\x89PNG" {
		t.Fatalf("Body is %q", body)
	}
}

func TestWriteExplicitModeOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page")
	mode, err := Write(path, 200, "image/png", []byte("x"), ModeText)
	if err != nil {
		t.Fatal(err)
	}
	if mode != ModeText {
		t.Fatalf("Mode is %v", mode)
	}
}

func TestWriteRefusesNonSuccess(t *testing.T) {
	path := filepath.Join(t.TempDir(), "err")
	if _, err := Write(path, 404, "text/html", []byte("not found"), ModeAuto); err == nil {
		t.Fatal("Wrote body of non-success response")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("Destination file was created")
	}
}

func TestWriteFailurePropagates(t *testing.T) {
	// path inside a missing directory
	path := filepath.Join(t.TempDir(), "missing", "file")
	if _, err := Write(path, 200, "text/plain", []byte("x"), ModeAuto); err == nil {
		t.Fatal("Write into missing directory succeeded")
	}
}

func TestParseMode(t *testing.T) {
	for name, want := range map[string]Mode{"auto": ModeAuto, "": ModeAuto, "text": ModeText, "binary": ModeBinary} {
		mode, err := ParseMode(name)
		if err != nil || mode != want {
			t.Fatalf("ParseMode(%q) = %v, %v", name, mode, err)
		}
	}
	if _, err := ParseMode("raw"); err == nil {
		t.Fatal("Unknown mode accepted")
	}
}
