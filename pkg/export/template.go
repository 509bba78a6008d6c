package export

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// TemplateName is the file a user drops into the export directory to
// customize the layout of exported notes.
const TemplateName = "_template.md"

// TemplateEngine renders exported notes through an optional user template.
// Supported placeholders:
//
//	{{title}}       the note's display title
//	{{category}}    the note's category
//	{{content}}     the full note content
//	{{created}}     the capture time, RFC3339
//	{{date:FORMAT}} render time, FORMAT using YYYY/MM/DD/HH/mm/ss tokens
type TemplateEngine struct {
	Dir string
}

// NewTemplateEngine creates a template engine rooted at the export directory
func NewTemplateEngine(dir string) *TemplateEngine {
	return &TemplateEngine{Dir: dir}
}

// Load returns the custom template content, or "" when none is present
func (e *TemplateEngine) Load() (string, error) {
	data, err := os.ReadFile(filepath.Join(e.Dir, TemplateName))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return string(data), nil
}

var datePlaceholder = regexp.MustCompile(`\{\{date:(.*?)\}\}`)

// Render substitutes placeholders in the template content
func (e *TemplateEngine) Render(tmpl, title, category, content string, created time.Time) string {
	out := strings.ReplaceAll(tmpl, "{{title}}", title)
	out = strings.ReplaceAll(out, "{{category}}", category)
	out = strings.ReplaceAll(out, "{{content}}", content)
	out = strings.ReplaceAll(out, "{{created}}", created.UTC().Format(time.RFC3339))

	out = datePlaceholder.ReplaceAllStringFunc(out, func(match string) string {
		parts := datePlaceholder.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		return time.Now().Format(dateTokensToGoFormat(parts[1]))
	})

	return out
}

func dateTokensToGoFormat(format string) string {
	format = strings.ReplaceAll(format, "YYYY", "2006")
	format = strings.ReplaceAll(format, "MM", "01")
	format = strings.ReplaceAll(format, "DD", "02")
	format = strings.ReplaceAll(format, "HH", "15")
	format = strings.ReplaceAll(format, "mm", "04")
	format = strings.ReplaceAll(format, "ss", "05")
	return format
}
