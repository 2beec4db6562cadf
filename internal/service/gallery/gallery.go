// Package gallery turns rendered cards into a standalone HTML page.
package gallery

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"

	"github.com/ChaseRain/storycards/internal/service/render"
)

// Title is the story heading. Either part may be empty.
type Title struct {
	Primary   string
	Secondary string
}

type Gallery struct {
	md goldmark.Markdown
}

func New() *Gallery {
	return &Gallery{
		md: goldmark.New(
			goldmark.WithExtensions(extension.Typographer),
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
		),
	}
}

// Markdown builds the markdown source for the cards, in card order.
func (g *Gallery) Markdown(title Title, cards []render.Card) []byte {
	var b bytes.Buffer

	heading := title.Secondary
	if heading == "" {
		heading = title.Primary
	}
	if heading == "" {
		heading = "Story"
	}
	fmt.Fprintf(&b, "# %s\n\n", escape(heading))
	if title.Primary != "" && title.Primary != heading {
		fmt.Fprintf(&b, "*%s*\n\n", escape(title.Primary))
	}

	for _, card := range cards {
		fmt.Fprintf(&b, "## Page %d\n\n", card.PageNumber)
		fmt.Fprintf(&b, "![Page %d](<%s>)\n\n", card.PageNumber, card.ImageURL)
		if card.PrimaryText != "" {
			fmt.Fprintf(&b, "%s\n\n", escape(card.PrimaryText))
		}
		if card.SecondaryText != "" {
			fmt.Fprintf(&b, "*%s*\n\n", escape(card.SecondaryText))
		}
	}
	return b.Bytes()
}

// Render writes a complete HTML document for the cards.
func (g *Gallery) Render(w io.Writer, title Title, cards []render.Card) error {
	var body bytes.Buffer
	if err := g.md.Convert(g.Markdown(title, cards), &body); err != nil {
		return fmt.Errorf("failed to convert gallery markdown: %w", err)
	}

	pageTitle := title.Secondary
	if pageTitle == "" {
		pageTitle = "Story"
	}

	_, err := fmt.Fprintf(w, pageTemplate, html.EscapeString(pageTitle), body.String())
	return err
}

const pageTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body { font-family: sans-serif; max-width: 480px; margin: 2em auto; }
img { width: 100%%; border-radius: 8px; }
h2 { font-size: 0.9em; color: #888; margin-top: 2em; }
</style>
</head>
<body>
%s</body>
</html>
`

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "`", "\\`", `*`, `\*`, `_`, `\_`, `[`, `\[`, `]`, `\]`,
	`#`, `\#`, `<`, `\<`, `>`, `\>`, `!`, `\!`, "\n", " ",
)

// escape keeps backend text from being read as markdown or raw HTML.
func escape(s string) string {
	return markdownEscaper.Replace(s)
}
