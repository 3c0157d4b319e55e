// Package filesource reads Lua script source from the local filesystem.
package filesource

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/reglet-dev/luahost/domain/ports"
)

// fileSourceConfig holds configuration for the FileSource.
type fileSourceConfig struct {
	baseDir string // Directory relative paths resolve against; empty means the working directory
	maxSize int64  // Largest accepted script in bytes; zero disables the check
}

func defaultFileSourceConfig() fileSourceConfig {
	return fileSourceConfig{}
}

// Option configures a FileSource instance.
type Option func(*fileSourceConfig)

// WithBaseDir resolves relative paths against dir instead of the working directory.
func WithBaseDir(dir string) Option {
	return func(c *fileSourceConfig) {
		c.baseDir = dir
	}
}

// WithMaxSize rejects scripts larger than size bytes. Zero disables the limit.
func WithMaxSize(size int64) Option {
	return func(c *fileSourceConfig) {
		c.maxSize = size
	}
}

// FileSource implements ports.SourceReader on top of the os package.
type FileSource struct {
	config fileSourceConfig
}

// NewFileSource creates a new FileSource with the given options.
func NewFileSource(opts ...Option) ports.SourceReader {
	cfg := defaultFileSourceConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &FileSource{config: cfg}
}

// ReadSource returns the full contents of the script at path.
// Errors from the os package are returned unwrapped so callers can inspect them.
func (s *FileSource) ReadSource(path string) ([]byte, error) {
	resolved := s.resolve(path)

	if s.config.maxSize > 0 {
		info, err := os.Stat(resolved)
		if err != nil {
			return nil, err
		}
		if info.Size() > s.config.maxSize {
			return nil, fmt.Errorf("script %s is %d bytes, limit is %d", path, info.Size(), s.config.maxSize)
		}
	}

	return os.ReadFile(resolved)
}

// Glob returns the files under root matching a doublestar pattern such as
// "jobs/**/*.lua". Paths are slash separated, relative to root and sorted.
func (s *FileSource) Glob(root, pattern string) ([]string, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, doublestar.ErrBadPattern)
	}

	matches, err := doublestar.Glob(os.DirFS(s.resolve(root)), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("failed to glob %q: %w", pattern, err)
	}
	sort.Strings(matches)
	return matches, nil
}

func (s *FileSource) resolve(path string) string {
	if s.config.baseDir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(s.config.baseDir, path)
}
