package mapping

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/ubrain/pkg/core"
)

const (
	// DefaultFileName is the mapping file created in the working directory.
	DefaultFileName = ".ub_mapping.json"
	// FallbackFileName is used inside the temp directory when the working
	// directory cannot be written.
	FallbackFileName = "ub_mapping.json"
)

// FileOptions configures a FileProvider.
type FileOptions struct {
	// Path overrides resolution entirely.
	Path string
	// WorkDir is the preferred directory. Defaults to the process working directory.
	WorkDir string
	// ReadOnlyDeployment forces the temp fallback, e.g. on serverless hosts
	// whose working directory is immutable.
	ReadOnlyDeployment bool
	// TempDir overrides os.TempDir for the fallback.
	TempDir string
}

// FileProvider stores the mapping as a JSON or YAML file. The format
// follows the file extension.
type FileProvider struct {
	opts FileOptions
	once sync.Once
	path string
}

// NewFileProvider creates a file provider. The path is resolved lazily,
// once, on first use.
func NewFileProvider(opts FileOptions) *FileProvider {
	return &FileProvider{opts: opts}
}

func (p *FileProvider) Name() string { return "file" }

func (p *FileProvider) Writable() bool { return true }

// Path returns the resolved file path.
func (p *FileProvider) Path() string {
	p.once.Do(func() {
		p.path = ResolvePath(p.opts)
	})
	return p.path
}

// ResolvePath picks the mapping file location: an explicit path wins,
// then the working directory when it is writable and the deployment is not
// read-only, and finally the temp directory.
func ResolvePath(opts FileOptions) string {
	if custom := strings.TrimSpace(opts.Path); custom != "" {
		if abs, err := filepath.Abs(custom); err == nil {
			return abs
		}
		return custom
	}

	dir := opts.WorkDir
	if dir == "" {
		if wd, err := os.Getwd(); err == nil {
			dir = wd
		}
	}
	if dir != "" && !opts.ReadOnlyDeployment && isWritableDir(dir) {
		return filepath.Join(dir, DefaultFileName)
	}

	tmp := opts.TempDir
	if tmp == "" {
		tmp = os.TempDir()
	}
	return filepath.Join(tmp, FallbackFileName)
}

func isWritableDir(dir string) bool {
	f, err := os.CreateTemp(dir, ".ub-writable-*")
	if err != nil {
		return false
	}
	name := f.Name()
	f.Close()
	os.Remove(name)
	return true
}

func (p *FileProvider) isYAML() bool {
	return IsYAMLPath(p.Path())
}

func (p *FileProvider) TryRead(ctx context.Context) (*core.Mapping, bool, error) {
	data, err := os.ReadFile(p.Path())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read %s: %w", p.Path(), err)
	}

	m, err := Decode(data, p.isYAML())
	if err != nil {
		return nil, false, fmt.Errorf("decode %s: %w", p.Path(), err)
	}
	return m, true, nil
}

func (p *FileProvider) TryWrite(ctx context.Context, m *core.Mapping) error {
	path := p.Path()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create mapping dir: %w", err)
	}

	data, err := Encode(m, p.isYAML())
	if err != nil {
		return err
	}
	return replaceFile(ctx, path, data, 0o644)
}

// Encode serializes a mapping as indented JSON or as YAML.
func Encode(m *core.Mapping, asYAML bool) ([]byte, error) {
	if asYAML {
		out, err := yaml.Marshal(m)
		if err != nil {
			return nil, fmt.Errorf("encode mapping: %w", err)
		}
		return out, nil
	}
	out, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode mapping: %w", err)
	}
	return append(out, '\n'), nil
}

// Decode parses a mapping from JSON or YAML.
func Decode(data []byte, asYAML bool) (*core.Mapping, error) {
	m := core.NewMapping()
	var err error
	if asYAML {
		err = yaml.Unmarshal(data, m)
	} else {
		err = json.Unmarshal(data, m)
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// IsYAMLPath reports whether path has a YAML extension.
func IsYAMLPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
