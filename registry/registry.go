// Package registry records provider URLs where the shell discovers them.
// The cache core never touches this; a Sink is injected into the provider
// server, which calls it once after binding its listener.
package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Sink accepts a provider URL for service discovery.
type Sink interface {
	// Register makes the URL discoverable. Registering a URL that is
	// already present is a no-op.
	Register(url string) error
}

// FileSink registers provider URLs in a line-oriented text file, one URL
// per line. Lines starting with # are treated as comments.
type FileSink struct {
	path string
}

// DefaultPath returns the shell's registry file, ~/.sa/saps.txt.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot locate home directory: %w", err)
	}
	return filepath.Join(home, ".sa", "saps.txt"), nil
}

// NewFileSink creates a FileSink writing to the given path. If path is
// empty, DefaultPath is used.
func NewFileSink(path string) (*FileSink, error) {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	return &FileSink{path: path}, nil
}

func (s *FileSink) Register(url string) error {
	data, err := os.ReadFile(s.path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if line == url {
			return nil
		}
	}

	if err = os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	entry := url + "\n"
	if len(data) != 0 && !strings.HasSuffix(string(data), "\n") {
		entry = "\n" + entry
	}
	_, err = f.WriteString(entry)
	return err
}

func (s *FileSink) String() string {
	return s.path
}
