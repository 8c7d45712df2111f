// Package scaffold creates a new API project with a sample spec.
package scaffold

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"sort"
	"strings"
)

//go:embed templates
var templatesFS embed.FS

// Templates lists the available project templates
var Templates = []string{"openapi", "graphql"}

// Directories are created in every new project
var Directories = []string{"specs", "generated", "tests"}

// ErrNotEmpty is returned when the target directory already has entries
var ErrNotEmpty = errors.New("directory is not empty")

// Options selects the template and the target directory
type Options struct {
	Template string
	Output   string
}

// Result describes a created project
type Result struct {
	Dir string
	// Files lists the written files relative to Dir, sorted
	Files []string
}

// SpecFile returns the sample spec path relative to the project root
func (r *Result) SpecFile() string {
	for _, f := range r.Files {
		if strings.HasPrefix(f, "specs"+string(filepath.Separator)) {
			return f
		}
	}
	return ""
}

// FileSystem is the subset of file operations used by scaffolding
type FileSystem interface {
	ReadDir(name string) ([]os.DirEntry, error)
	MkdirAll(path string, perm os.FileMode) error
	WriteFile(name string, data []byte, perm os.FileMode) error
}

type osFileSystem struct{}

func (osFileSystem) ReadDir(name string) ([]os.DirEntry, error) {
	return os.ReadDir(name)
}

func (osFileSystem) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

func (osFileSystem) WriteFile(name string, data []byte, perm os.FileMode) error {
	return os.WriteFile(name, data, perm)
}

// Scaffolder writes new projects
type Scaffolder struct {
	filesystem FileSystem
	templates  fs.FS
}

// New creates a scaffolder over the OS file system
func New() *Scaffolder {
	return &Scaffolder{
		filesystem: osFileSystem{},
		templates:  templatesFS,
	}
}

// Init creates a project with the default scaffolder
func Init(opts Options) (*Result, error) {
	return New().Init(opts)
}

type packageJSON struct {
	Name        string            `json:"name"`
	Version     string            `json:"version"`
	Description string            `json:"description"`
	Scripts     map[string]string `json:"scripts"`
}

// Init writes the project layout into opts.Output. The directory may exist
// but must be empty.
func (s *Scaffolder) Init(opts Options) (*Result, error) {
	if !slices.Contains(Templates, opts.Template) {
		return nil, fmt.Errorf("unknown template %q (available: %s)", opts.Template, strings.Join(Templates, ", "))
	}

	output := opts.Output
	if output == "" {
		output = "."
	}
	dir, err := filepath.Abs(output)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", output, err)
	}

	entries, err := s.filesystem.ReadDir(dir)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}
	if len(entries) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotEmpty, dir)
	}

	for _, sub := range append([]string{""}, Directories...) {
		if err := s.filesystem.MkdirAll(filepath.Join(dir, sub), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	result := &Result{Dir: dir}

	pkg, err := json.MarshalIndent(packageJSON{
		Name:        filepath.Base(dir),
		Version:     "1.0.0",
		Description: "Generated API project",
		Scripts: map[string]string{
			"generate": "gidevo-api-tool generate",
			"validate": "gidevo-api-tool validate",
		},
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode package.json: %w", err)
	}
	if err := s.filesystem.WriteFile(filepath.Join(dir, "package.json"), append(pkg, '\n'), 0644); err != nil {
		return nil, fmt.Errorf("failed to write package.json: %w", err)
	}
	result.Files = append(result.Files, "package.json")

	written, err := s.extractTemplate(opts.Template, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to write %s template: %w", opts.Template, err)
	}
	result.Files = append(result.Files, written...)
	sort.Strings(result.Files)

	return result, nil
}

func (s *Scaffolder) extractTemplate(name, destDir string) ([]string, error) {
	root := path.Join("templates", name)

	var written []string
	err := fs.WalkDir(s.templates, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == root {
			return nil
		}

		rel := filepath.FromSlash(strings.TrimPrefix(p, root+"/"))
		destPath := filepath.Join(destDir, rel)

		if d.IsDir() {
			return s.filesystem.MkdirAll(destPath, 0755)
		}

		data, err := fs.ReadFile(s.templates, p)
		if err != nil {
			return err
		}
		if err := s.filesystem.WriteFile(destPath, data, 0644); err != nil {
			return err
		}
		written = append(written, rel)
		return nil
	})
	return written, err
}
