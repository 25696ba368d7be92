package viewer

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
)

//go:embed templates/*.html
var templateFS embed.FS

// TemplateSet holds the parsed page templates. All templates are parsed
// once up front so execution is safe for concurrent use.
type TemplateSet struct {
	byName map[string]*template.Template
}

// NewTemplateSet parses the embedded templates.
func NewTemplateSet() (*TemplateSet, error) {
	sub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return nil, err
	}
	return ParseTemplates(sub)
}

// ParseTemplates parses every *.html file at the root of fsys.
func ParseTemplates(fsys fs.FS) (*TemplateSet, error) {
	names, err := fs.Glob(fsys, "*.html")
	if err != nil {
		return nil, err
	}
	set := &TemplateSet{byName: make(map[string]*template.Template, len(names))}
	for _, name := range names {
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, err
		}
		t, err := template.New(name).Parse(string(content))
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		set.byName[name] = t
	}
	return set, nil
}

// Execute runs the named template.
func (s *TemplateSet) Execute(w io.Writer, name string, data interface{}) error {
	t, ok := s.byName[name]
	if !ok {
		return fmt.Errorf("template %s: %w", name, fs.ErrNotExist)
	}
	return t.Execute(w, data)
}
