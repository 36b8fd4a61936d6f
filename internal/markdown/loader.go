package markdown

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

// LoaderConfig configures how markdown files are discovered.
type LoaderConfig struct {
	// Pattern limits discovered files to those matching the glob. Defaults to
	// "*.md".
	Pattern string
	// Recursive controls whether sub-directories are traversed.
	Recursive bool
}

// Source is one markdown file read from the filesystem.
type Source struct {
	Path     string
	Data     []byte
	Checksum string
}

// Loader reads markdown sources from a filesystem.
type Loader struct {
	fs        fs.FS
	pattern   string
	recursive bool
}

// NewLoader constructs a loader over filesystem.
func NewLoader(filesystem fs.FS, cfg LoaderConfig) *Loader {
	pattern := strings.TrimSpace(cfg.Pattern)
	if pattern == "" {
		pattern = "*.md"
	}
	return &Loader{
		fs:        filesystem,
		pattern:   pattern,
		recursive: cfg.Recursive,
	}
}

// Load reads a single file. Paths are slash separated and relative to the
// loader root.
func (l *Loader) Load(ctx context.Context, name string) (*Source, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name = cleanPath(name)
	data, err := fs.ReadFile(l.fs, name)
	if err != nil {
		return nil, fmt.Errorf("markdown loader read %s: %w", name, err)
	}
	sum := sha256.Sum256(data)
	return &Source{
		Path:     name,
		Data:     data,
		Checksum: hex.EncodeToString(sum[:]),
	}, nil
}

// Discover lists the files under dir that match the pattern, sorted by path.
func (l *Loader) Discover(ctx context.Context, dir string) ([]string, error) {
	root := cleanPath(dir)
	var paths []string
	err := fs.WalkDir(l.fs, root, func(current string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if current != root && !l.recursive {
				return fs.SkipDir
			}
			return nil
		}
		if l.matches(current) {
			paths = append(paths, current)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("markdown loader walk %s: %w", root, err)
	}
	sort.Strings(paths)
	return paths, nil
}

func (l *Loader) matches(name string) bool {
	pattern := strings.ReplaceAll(l.pattern, "**/", "")
	target := path.Base(name)
	if strings.Contains(pattern, "/") {
		target = name
	}
	ok, err := path.Match(pattern, target)
	return err == nil && ok
}

func cleanPath(name string) string {
	name = strings.TrimPrefix(path.Clean(strings.ReplaceAll(name, "\\", "/")), "/")
	if name == "" {
		return "."
	}
	return name
}
