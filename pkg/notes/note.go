package notes

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// titleMaxLen is the display-title cutoff for the first content line
const titleMaxLen = 50

// DeriveTitle computes the display title for note content: the first line,
// truncated to 50 characters with an ellipsis marker when it was longer.
func DeriveTitle(content string) string {
	line := content
	if i := strings.IndexByte(content, '\n'); i >= 0 {
		line = content[:i]
	}
	// Truncation counts characters, not bytes, so multibyte content is
	// never cut mid-rune.
	runes := []rune(line)
	if len(runes) > titleMaxLen {
		return string(runes[:titleMaxLen]) + "..."
	}
	return line
}

// NewNoteID returns a collision-resistant note id: capture time in
// milliseconds plus a random suffix.
func NewNoteID() string {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return strconv.FormatInt(time.Now().UnixNano(), 10)
	}
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), hex.EncodeToString(buf))
}
