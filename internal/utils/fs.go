package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// FileExists simply checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// EnsureDir creates directory if it doesn't exist
func EnsureDir(dirPath string) error {
	return os.MkdirAll(dirPath, 0755)
}

// SaveTOMLFile saves a struct to a TOML file
func SaveTOMLFile(data any, filePath string) error {
	file, err := os.Create(filePath)
	if err != nil {
		log.Errorf("Failed to create file: %v", err)
		return err
	}
	defer file.Close()
	encoder := toml.NewEncoder(file)
	return encoder.Encode(data)
}

// GetAbsolutePath returns the absolute path of a file
func GetAbsolutePath(configPath string) string {
	if configPath == "" {
		return "unknown"
	}

	if !filepath.IsAbs(configPath) {
		if absPath, err := filepath.Abs(configPath); err == nil {
			return absPath
		}
	}
	return configPath
}

// IsUTF8Name reports whether enc names UTF-8 or is empty.
func IsUTF8Name(enc string) bool {
	return enc == "" || strings.EqualFold(enc, "utf-8") || strings.EqualFold(enc, "utf8")
}

// OpenText opens path for reading, decoding from enc (any WHATWG label such
// as big5 or gbk) into UTF-8. The returned closer releases the file.
func OpenText(path, enc string) (io.Reader, io.Closer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	if IsUTF8Name(enc) {
		return f, f, nil
	}
	e, err := htmlindex.Get(enc)
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("unsupported encoding %q: %w", enc, err)
	}
	return transform.NewReader(f, e.NewDecoder()), f, nil
}

// TrimBOM strips a leading UTF-8 byte order mark, which spreadsheet exports put on the first header cell.
func TrimBOM(s string) string {
	return strings.TrimPrefix(s, "\ufeff")
}

