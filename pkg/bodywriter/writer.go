// Package bodywriter persists retrieved bodies, choosing between
// binary and text mode based on the response content type.
package bodywriter

import (
	"fmt"
	"net/http"
	"os"
	"regexp"
)

// Mode is the persistence mode for a retrieved body.
type Mode int

const (
	// ModeAuto infers binary or text from the content type.
	ModeAuto Mode = iota
	ModeText
	ModeBinary
)

func (m Mode) String() string {
	switch m {
	case ModeText:
		return "text"
	case ModeBinary:
		return "binary"
	default:
		return "auto"
	}
}

// ParseMode parses a mode name as given on a command line.
func ParseMode(name string) (Mode, error) {
	switch name {
	case "", "auto":
		return ModeAuto, nil
	case "text":
		return ModeText, nil
	case "binary":
		return ModeBinary, nil
	}
	return ModeAuto, fmt.Errorf("unknown write mode %q", name)
}

// binaryTypes matches content types persisted in binary mode:
// images and common archive formats.
var binaryTypes = regexp.MustCompile(`^(image/|application/(zip|gzip|x-gzip|x-tar|x-bzip2|x-7z-compressed|x-rar-compressed|octet-stream))`)

// DetectMode infers the write mode from a content type.
// Everything that is not an image or archive is treated as text.
func DetectMode(contentType string) Mode {
	if binaryTypes.MatchString(contentType) {
		return ModeBinary
	}
	return ModeText
}

// Write persists body to path and returns the mode actually used.
// An explicit mode overrides the one inferred from contentType.
// Only bodies of successful (200) outcomes may be written; anything
// else is refused. The destination file is closed on every exit
// path, including write failure.
func Write(path string, statusCode int, contentType string, body []byte, mode Mode) (Mode, error) {
	if statusCode != http.StatusOK {
		return mode, fmt.Errorf("refusing to write body of non-success response (status %d)", statusCode)
	}
	if mode == ModeAuto {
		mode = DetectMode(contentType)
	}

	file, err := os.Create(path)
	if err != nil {
		return mode, err
	}
	defer file.Close()

	if _, err := file.Write(body); err != nil {
		return mode, err
	}
	// surface close errors on the success path; short writes on some
	// filesystems only show up here
	if err := file.Close(); err != nil {
		return mode, err
	}
	return mode, nil
}
