package sources

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// DirConfig holds configuration for a directory of mounted secret files
type DirConfig struct {
	Path string `yaml:"path"`
}

// Validate checks that Path is an existing directory
func (d DirConfig) Validate() error {
	if d.Path == "" {
		return errors.New("path is required for secrets directory")
	}

	info, err := os.Stat(d.Path)
	if os.IsNotExist(err) {
		return errors.Errorf("secrets directory %q does not exist", d.Path)
	}
	if err != nil {
		return errors.Wrapf(err, "error accessing secrets directory %q", d.Path)
	}
	if !info.IsDir() {
		return errors.Errorf("secrets directory %q is not a directory", d.Path)
	}
	return nil
}

// CreateClient creates a DirLoader from this config.
func (d DirConfig) CreateClient() (*DirLoader, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return NewDirLoader(d.Path), nil
}

// DirLoader turns a directory of files into environment values, the layout
// used by Docker and Kubernetes secret mounts. Each regular file is one key
// named after the file. Its content, trimmed of whitespace, is the value.
// Hidden entries and subdirectories are skipped; symlinks are followed.
type DirLoader struct {
	dir string
}

// NewDirLoader creates a loader for dir.
func NewDirLoader(dir string) *DirLoader {
	return &DirLoader{dir: dir}
}

// Load implements Loader.
func (d *DirLoader) Load(_ context.Context) (map[string]string, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading secrets directory %q", d.dir)
	}

	values := make(map[string]string, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		// Kubernetes mounts keys as symlinks, so follow them before checking
		path := filepath.Join(d.dir, name)
		info, err := os.Stat(path)
		if err != nil {
			return nil, errors.Wrapf(err, "error accessing secret file %q", name)
		}
		if !info.Mode().IsRegular() {
			continue
		}

		// #nosec G304 -- name comes from listing d.dir itself
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read secret file %q", name)
		}
		values[name] = strings.TrimSpace(string(content))
	}

	log.Debug().
		Str("dir", d.dir).
		Int("keys", len(values)).
		Msg("Retrieved secrets from directory")
	return values, nil
}

// Name implements Loader.
func (d *DirLoader) Name() string {
	return "Directory"
}
