package knowledge

import (
	"html"
	"regexp"
	"strings"
)

var (
	frontMatterRe  = regexp.MustCompile(`(?s)\A\s*---[ \t]*\n.*?\n---[ \t]*(?:\n|\z)`)
	htmlTagRe      = regexp.MustCompile(`<[^>]+>`)
	blankRunRe     = regexp.MustCompile(`\n{3,}`)
	spaceRunRe     = regexp.MustCompile(`[ \t]{2,}`)
	bulletRe       = regexp.MustCompile(`(?m)^[ \t]*(?:-+|\*|•)[ \t]+`)
	zeroWidthRunes = strings.NewReplacer("\u200b", "", "\ufeff", "")
)

// Clean normalizes a markdown document before it is chunked and embedded.
func Clean(text string) string {
	text = zeroWidthRunes.Replace(text)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = frontMatterRe.ReplaceAllString(text, "")
	text = html.UnescapeString(text)
	text = strings.ReplaceAll(text, "\u00a0", " ")
	text = htmlTagRe.ReplaceAllString(text, " ")
	text = blankRunRe.ReplaceAllString(text, "\n\n")
	text = spaceRunRe.ReplaceAllString(text, " ")
	text = bulletRe.ReplaceAllString(text, "- ")

	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	text = strings.Join(lines, "\n")
	text = blankRunRe.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text)
}
