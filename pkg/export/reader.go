package export

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tidymind/tidymind/pkg/db"
)

// ReadNote parses an exported markdown file back into a note. Files written
// through a custom template are not round-trippable; this reads the default
// frontmatter format.
func ReadNote(path string) (*db.Note, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	var frontmatterLines []string
	var contentLines []string
	inFrontmatter := false
	lineCount := 0

	for scanner.Scan() {
		line := scanner.Text()
		lineCount++

		if lineCount == 1 && line == "---" {
			inFrontmatter = true
			continue
		}

		if inFrontmatter {
			if line == "---" {
				inFrontmatter = false
				continue
			}
			frontmatterLines = append(frontmatterLines, line)
		} else {
			contentLines = append(contentLines, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	var fm Frontmatter
	if len(frontmatterLines) > 0 {
		if err := yaml.Unmarshal([]byte(strings.Join(frontmatterLines, "\n")), &fm); err != nil {
			return nil, fmt.Errorf("failed to parse frontmatter: %w", err)
		}
	}

	created, err := time.Parse("2006-01-02T15:04:05Z07:00", fm.Created)
	if err != nil {
		created = time.Time{}
	}

	return &db.Note{
		ID:        fm.ID,
		Category:  fm.Category,
		Title:     fm.Title,
		Content:   strings.TrimSuffix(strings.Join(contentLines, "\n"), "\n"),
		CreatedAt: created.UTC(),
	}, nil
}
