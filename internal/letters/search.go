package letters

import (
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/starford/letterbox/internal/models"
)

// letterSource implements fuzzy.Source over title, author and content.
type letterSource []models.Letter

func (s letterSource) String(i int) string {
	return s[i].Title + " " + s[i].Author + " " + s[i].Content
}

func (s letterSource) Len() int {
	return len(s)
}

// Search returns the letters matching query, best match first. A blank
// query returns the full list in insertion order.
func (r *Repository) Search(query string) []models.Letter {
	list := r.List()
	query = strings.TrimSpace(query)
	if query == "" {
		return list
	}

	matches := fuzzy.FindFrom(query, letterSource(list))
	out := make([]models.Letter, 0, len(matches))
	for _, m := range matches {
		out = append(out, list[m.Index])
	}
	return out
}
