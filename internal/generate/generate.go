// Package generate renders project scaffolds by fixed template
// substitution. Output is a pure function of the input and the supplied
// clock: same type, name, requirements, and timestamp produce byte-identical
// files.
package generate

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"
	"time"

	"github.com/pmezard/go-difflib/difflib"
)

// Input selects a project template and fills its placeholders.
type Input struct {
	Type         string
	Name         string
	Requirements string
	Now          time.Time
}

// File is one rendered output file, path relative to the project directory.
type File struct {
	Path     string
	Contents string
}

// ProjectTypes lists the supported template sets.
func ProjectTypes() []string {
	types := make([]string, 0, len(projectTemplates))
	for t := range projectTemplates {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Render produces the file set for the input. Files are returned sorted by
// path.
func Render(in Input) ([]File, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("project name is required")
	}
	templates, ok := projectTemplates[in.Type]
	if !ok {
		return nil, fmt.Errorf("unknown project type %q (have: %s)",
			in.Type, strings.Join(ProjectTypes(), ", "))
	}

	data := templateData{
		Name:         in.Name,
		Requirements: strings.TrimSpace(in.Requirements),
		Generated:    in.Now.UTC().Format(time.RFC3339),
	}
	if data.Requirements == "" {
		data.Requirements = "none specified"
	}

	paths := make([]string, 0, len(templates))
	for path := range templates {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	files := make([]File, 0, len(paths))
	for _, path := range paths {
		tmpl, err := template.New(path).Parse(templates[path])
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", path, err)
		}
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, data); err != nil {
			return nil, fmt.Errorf("render %s: %w", path, err)
		}
		files = append(files, File{Path: path, Contents: buf.String()})
	}
	return files, nil
}

// Write writes rendered files under dir, creating directories as needed.
func Write(dir string, files []File) error {
	for _, file := range files {
		target := filepath.Join(dir, file.Path)
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("ensure dir for %s: %w", file.Path, err)
		}
		if err := os.WriteFile(target, []byte(file.Contents), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", file.Path, err)
		}
	}
	return nil
}

// Check compares rendered files against what is on disk under dir and
// returns a unified diff of the differences. An empty string means the
// directory matches the rendering exactly.
func Check(dir string, files []File) (string, error) {
	var out strings.Builder
	for _, file := range files {
		target := filepath.Join(dir, file.Path)
		existing, err := os.ReadFile(target)
		if err != nil {
			if os.IsNotExist(err) {
				existing = nil
			} else {
				return "", fmt.Errorf("read %s: %w", file.Path, err)
			}
		}
		if string(existing) == file.Contents {
			continue
		}

		diff := difflib.UnifiedDiff{
			A:        difflib.SplitLines(string(existing)),
			B:        difflib.SplitLines(file.Contents),
			FromFile: filepath.Join("a", file.Path),
			ToFile:   filepath.Join("b", file.Path),
			Context:  3,
		}
		text, err := difflib.GetUnifiedDiffString(diff)
		if err != nil {
			return "", fmt.Errorf("diff %s: %w", file.Path, err)
		}
		out.WriteString(text)
	}
	return out.String(), nil
}
