package ai

import "fmt"

// CategorizePrompt returns the instruction prompt for categorizing a note.
// The category list must stay in sync with Categories in classifier.go.
func CategorizePrompt(content string) string {
	return fmt.Sprintf(`You are an AI assistant that helps categorize thoughts and notes.

Analyze the given text and categorize it into one of these categories:
- Task: Action items, things to do, work-related items
- Idea: Creative thoughts, innovations, concepts, brainstorming
- Reminder: Things to remember, appointments, deadlines
- Goal: Aspirations, objectives, long-term plans
- Thought: Random thoughts, observations, reflections
- Question: Things to research, questions to ask, curiosities
- Articles: Article links, reading materials, blog posts
- Notes: General notes, meeting notes, lecture notes
- Images: References to images, photos, visual content
- Bookmarks: Links to save, websites to remember, resources
- Inspiration: Motivational content, quotes, creative inspiration
- Other: Anything that doesn't fit the above categories

Respond with ONLY the category name, nothing else.

Categorize this text: "%s"
`, content)
}
