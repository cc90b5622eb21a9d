package render

import (
	"bytes"
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/starford/letterbox/internal/countdown"
	"github.com/starford/letterbox/internal/form"
	"github.com/starford/letterbox/internal/models"
	"github.com/starford/letterbox/internal/player"
)

func newRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := New()
	require.NoError(t, err)
	return r
}

func TestLettersEscapesScript(t *testing.T) {
	r := newRenderer(t)
	out, err := r.Letters([]models.Letter{{
		ID:      "1",
		Title:   "<script>alert('x')</script>",
		Author:  `Tom & "Jerry"`,
		Content: "<b>bold</b>",
		Date:    "8/8/2026",
	}})
	require.NoError(t, err)

	assert.Contains(t, out, "&lt;script&gt;")
	assert.NotContains(t, out, "<script>")
	assert.NotContains(t, out, "<b>")
	assert.Contains(t, out, "&lt;b&gt;bold&lt;/b&gt;")
	assert.Contains(t, out, "Tom &amp; &#34;Jerry&#34;")
	assert.Contains(t, out, "alert(&#39;x&#39;)")
}

func TestLettersEmptyPlaceholder(t *testing.T) {
	r := newRenderer(t)
	for _, in := range [][]models.Letter{nil, {}} {
		out, err := r.Letters(in)
		require.NoError(t, err)
		assert.Contains(t, out, EmptyLetters)
		assert.NotContains(t, out, "letter-card")
		assert.Contains(t, out, `<span id="letter-count">0</span>`)
	}
}

func TestLettersDeleteAffordance(t *testing.T) {
	r := newRenderer(t)
	letters := []models.Letter{
		{ID: "first", Title: "a", Author: "b", Content: "c", Date: "d"},
		{ID: "second", Title: "e", Author: "f", Content: "g", Date: "h"},
	}
	out, err := r.Letters(letters)
	require.NoError(t, err)

	assert.Contains(t, out, `href="/letters/first/delete"`)
	assert.Contains(t, out, `href="/letters/second/delete"`)
	assert.NotContains(t, out, EmptyLetters)
	assert.Less(t, strings.Index(out, "first"), strings.Index(out, "second"), "insertion order")
	assert.Contains(t, out, `<span id="letter-count">2</span>`)
}

func TestLettersIsPure(t *testing.T) {
	r := newRenderer(t)
	in := []models.Letter{{ID: "1", Title: "t", Author: "a", Content: "c", Date: "d"}}
	a, _ := r.Letters(in)
	b, _ := r.Letters(in)
	assert.Equal(t, a, b)
}

func TestWritePage(t *testing.T) {
	r := newRenderer(t)
	var buf bytes.Buffer
	err := r.WritePage(&buf, Page{
		Title:     "Happy Birthday",
		Tab:       "letters",
		Letters:   []models.Letter{{ID: "1", Title: "<i>hi</i>", Author: "a", Content: "c", Date: "d"}},
		Form:      form.Fields{Title: `"><script>x</script>`, Content: "partial"},
		Notice:    form.NoticeMissingFields,
		Countdown: countdown.Remaining{Days: 12, Hours: 3},
		Target:    "August 8",
		Track:     player.Track{Src: "/media/song.mp3", Title: "Song", Volume: 70},
		Cards:     []Card{{Front: "Front <1>", Back: "Back"}},
	})
	require.NoError(t, err)
	out := buf.String()

	assert.NotContains(t, out, "<script>x")
	assert.NotContains(t, out, "<i>hi</i>")
	assert.Contains(t, out, `class="nav-tab active" href="/?tab=letters"`)
	assert.Contains(t, out, `id="letters-section" class="section active"`)
	assert.Contains(t, out, "Please fill in all fields before saving.")
	assert.Contains(t, out, `role="alertdialog"`)
	assert.Contains(t, out, `<span id="days">12</span>`)
	assert.Contains(t, out, "Front &lt;1&gt;")
	assert.Contains(t, out, `src="/media/song.mp3"`)
	assert.Contains(t, out, `data-gain="0.7"`)
	assert.Contains(t, out, ">partial</textarea>")
}

func TestWritePageUnknownTabFallsBack(t *testing.T) {
	r := newRenderer(t)
	var buf bytes.Buffer
	require.NoError(t, r.WritePage(&buf, Page{Title: "x", Tab: "nope", Notice: form.NoticeSaved}))
	out := buf.String()
	assert.Contains(t, out, `id="celebrate-section" class="section active"`)
	assert.Contains(t, out, `class="notice toast"`)
	assert.Contains(t, out, "No song configured.")
}

func TestWriteConfirmDelete(t *testing.T) {
	r := newRenderer(t)
	var buf bytes.Buffer
	require.NoError(t, r.WriteConfirmDelete(&buf, models.Letter{ID: "abc", Title: "<u>t</u>", Author: "a", Content: "c", Date: "d"}))
	out := buf.String()
	assert.Contains(t, out, form.DeletePrompt)
	assert.Contains(t, out, `action="/letters/abc/delete"`)
	assert.Contains(t, out, `name="confirm" value="yes"`)
	assert.NotContains(t, out, "<u>t</u>")
}

func TestStaticAssets(t *testing.T) {
	for _, name := range []string{"app.css", "app.js"} {
		data, err := fs.ReadFile(Static(), name)
		require.NoError(t, err, name)
		assert.NotEmpty(t, data)
	}
}

func TestNormalizeTab(t *testing.T) {
	assert.Equal(t, "music", NormalizeTab("music"))
	assert.Equal(t, "celebrate", NormalizeTab(""))
	assert.Equal(t, "celebrate", NormalizeTab("<x>"))
}

// cards parses out and returns the id and delete link of every letter card.
func cards(t *testing.T, out string) [][2]string {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(out))
	require.NoError(t, err)

	var found [][2]string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "article" && attr(n, "class") == "letter-card" {
			found = append(found, [2]string{attr(n, "id"), deleteHref(n)})
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return found
}

func deleteHref(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "a" && attr(n, "class") == "delete-btn" {
		return attr(n, "href")
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if h := deleteHref(c); h != "" {
			return h
		}
	}
	return ""
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func TestLettersOneCardPerLetter(t *testing.T) {
	r := newRenderer(t)
	out, err := r.Letters([]models.Letter{
		{ID: "a1", Title: `"><a href="x">`, Author: "x", Content: "y", Date: "z"},
		{ID: "b2", Title: "t", Author: "x", Content: "</article><article class=\"letter-card\">", Date: "z"},
	})
	require.NoError(t, err)

	assert.Equal(t, [][2]string{
		{"letter-a1", "/letters/a1/delete"},
		{"letter-b2", "/letters/b2/delete"},
	}, cards(t, out))
}
