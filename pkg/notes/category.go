package notes

// DefaultColors maps the builtin categories to their display-color tokens.
// The tokens are opaque style classes consumed by clients.
var DefaultColors = map[string]string{
	"Task":        "border-blue-500 text-blue-500",
	"Idea":        "border-purple-500 text-purple-500",
	"Reminder":    "border-orange-500 text-orange-500",
	"Goal":        "border-green-500 text-green-500",
	"Thought":     "border-pink-500 text-pink-500",
	"Question":    "border-yellow-500 text-yellow-500",
	"Articles":    "border-red-400 text-red-400",
	"Notes":       "border-rose-400 text-rose-400",
	"Images":      "border-amber-400 text-amber-400",
	"Bookmarks":   "border-fuchsia-400 text-fuchsia-400",
	"Inspiration": "border-cyan-400 text-cyan-400",
	"Other":       "border-gray-400 text-gray-400",
}

// palette supplies colors for user-defined categories, in rotation
var palette = []string{
	"border-indigo-500 text-indigo-500",
	"border-teal-500 text-teal-500",
	"border-emerald-500 text-emerald-500",
	"border-sky-500 text-sky-500",
	"border-violet-500 text-violet-500",
	"border-lime-500 text-lime-500",
}

// PaletteColor picks a color for the n-th registered category
func PaletteColor(n int64) string {
	return palette[int(n)%len(palette)]
}
