// Package clipboard provides the text sources the import reads from.
package clipboard

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/atotto/clipboard"
)

// Source returns the raw text to import
type Source interface {
	ReadText(ctx context.Context) (string, error)
}

// System reads the operating system clipboard
type System struct{}

// ReadText returns the clipboard content
func (System) ReadText(ctx context.Context) (string, error) {
	if clipboard.Unsupported {
		return "", fmt.Errorf("system clipboard is not supported on this platform")
	}
	text, err := clipboard.ReadAll()
	if err != nil {
		return "", fmt.Errorf("failed to read clipboard: %w", err)
	}
	return text, nil
}

// File reads the text of a file
type File struct {
	Path string
}

// ReadText returns the file content
func (f File) ReadText(ctx context.Context) (string, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return "", fmt.Errorf("failed to read import file: %w", err)
	}
	return string(data), nil
}

// Reader reads all text from a stream such as stdin
type Reader struct {
	R io.Reader
}

// ReadText drains the reader
func (r Reader) ReadText(ctx context.Context) (string, error) {
	data, err := io.ReadAll(r.R)
	if err != nil {
		return "", fmt.Errorf("failed to read import text: %w", err)
	}
	return string(data), nil
}

// Open picks the source for a --from value: empty means the system
// clipboard and "-" means stdin
func Open(from string, stdin io.Reader) Source {
	switch from {
	case "":
		return System{}
	case "-":
		return Reader{R: stdin}
	default:
		return File{Path: from}
	}
}
