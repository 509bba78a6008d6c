package ai

import (
	"context"
	"log"
	"strings"
)

// CategoryOther is the degraded-but-valid fallback category.
const CategoryOther = "Other"

// Categories is the closed set of labels the classifier may return.
var Categories = []string{
	"Task",
	"Idea",
	"Reminder",
	"Goal",
	"Thought",
	"Question",
	"Articles",
	"Notes",
	"Images",
	"Bookmarks",
	"Inspiration",
	CategoryOther,
}

// ValidCategory reports whether name is an exact member of the fixed set.
func ValidCategory(name string) bool {
	for _, c := range Categories {
		if c == name {
			return true
		}
	}
	return false
}

// Classifier labels free text with exactly one category from the fixed set.
// It is total: every call returns a valid category, never an error. Model
// failures and unrecognized model output both degrade to "Other".
type Classifier struct {
	gen Generator
}

// NewClassifier creates a Classifier on top of a text generator.
func NewClassifier(gen Generator) *Classifier {
	return &Classifier{gen: gen}
}

// Classify returns a member of Categories for the given content.
// Categorization is advisory, so upstream failures are absorbed here
// rather than propagated; the caller only ever sees a valid label.
func (c *Classifier) Classify(ctx context.Context, content string) string {
	raw, err := c.gen.GenerateText(ctx, CategorizePrompt(content))
	if err != nil {
		log.Printf("classify: model call failed, falling back to %s: %v", CategoryOther, err)
		return CategoryOther
	}

	category := strings.TrimSpace(raw)
	if !ValidCategory(category) {
		return CategoryOther
	}
	return category
}
