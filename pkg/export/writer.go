package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tidymind/tidymind/pkg/db"
)

// Frontmatter is the YAML header of an exported note file
type Frontmatter struct {
	ID       string `yaml:"id"`
	Category string `yaml:"category"`
	Title    string `yaml:"title"`
	Created  string `yaml:"created"`
}

// Exporter writes notes as markdown files under a directory, one file per
// note, named by title and id so re-exports overwrite in place.
type Exporter struct {
	Dir  string
	Tmpl *TemplateEngine
}

// NewExporter creates an exporter rooted at dir
func NewExporter(dir string) *Exporter {
	return &Exporter{Dir: dir, Tmpl: NewTemplateEngine(dir)}
}

// ExportNote writes one note and returns the path relative to the export dir
func (e *Exporter) ExportNote(n db.Note) (string, error) {
	tmpl, err := e.Tmpl.Load()
	if err != nil {
		return "", fmt.Errorf("failed to load export template: %w", err)
	}

	var rendered string
	if tmpl != "" {
		rendered = e.Tmpl.Render(tmpl, n.Title, n.Category, n.Content, n.CreatedAt)
	} else {
		fm, err := yaml.Marshal(Frontmatter{
			ID:       n.ID,
			Category: n.Category,
			Title:    n.Title,
			Created:  n.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		})
		if err != nil {
			return "", fmt.Errorf("failed to marshal frontmatter: %w", err)
		}
		rendered = fmt.Sprintf("---\n%s---\n%s\n", string(fm), n.Content)
	}

	relPath := noteFilename(n)
	path := filepath.Join(e.Dir, relPath)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(rendered), 0644); err != nil {
		return "", err
	}
	return relPath, nil
}

// ExportAll writes every note and returns how many files were written
func (e *Exporter) ExportAll(notes []db.Note) (int, error) {
	written := 0
	for _, n := range notes {
		if _, err := e.ExportNote(n); err != nil {
			return written, fmt.Errorf("failed to export note %s: %w", n.ID, err)
		}
		written++
	}
	return written, nil
}

func noteFilename(n db.Note) string {
	base := SanitizeFilename(n.Title)
	if base == "" {
		base = "note"
	}
	return filepath.Join(n.Category, fmt.Sprintf("%s %s.md", base, n.ID))
}

// SanitizeFilename removes characters invalid in filenames.
func SanitizeFilename(name string) string {
	invalid := []string{"/", "\\", ":", "*", "?", "\"", "<", ">", "|"}
	for _, char := range invalid {
		name = strings.ReplaceAll(name, char, "-")
	}
	return strings.TrimSpace(name)
}
