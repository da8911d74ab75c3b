package knowledge

import (
	"strings"
	"unicode/utf8"
)

const (
	DefaultChunkSize    = 600
	DefaultChunkOverlap = 100
)

// markdownSeparators go from coarsest to finest. The empty separator splits
// between runes.
var markdownSeparators = []string{
	"\n## ",
	"\n### ",
	"\n#### ",
	"\n##### ",
	"\n\n",
	"\n",
	". ",
	" ",
	"",
}

// Splitter cuts text into chunks of at most Size runes, repeating up to
// Overlap runes of the previous chunk at the start of the next one.
type Splitter struct {
	Size       int
	Overlap    int
	Separators []string
}

// NewSplitter returns a markdown-aware splitter.
func NewSplitter(size, overlap int) *Splitter {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}
	return &Splitter{Size: size, Overlap: overlap, Separators: markdownSeparators}
}

// Split returns the non-empty chunks of text.
func (s *Splitter) Split(text string) []string {
	var out []string
	for _, c := range s.split(text, s.Separators) {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

func (s *Splitter) split(text string, separators []string) []string {
	sep, rest := "", []string(nil)
	for i, candidate := range separators {
		if candidate == "" || strings.Contains(text, candidate) {
			sep, rest = candidate, separators[i+1:]
			break
		}
	}

	var chunks, small []string
	for _, piece := range splitKeep(text, sep) {
		if utf8.RuneCountInString(piece) < s.Size {
			small = append(small, piece)
			continue
		}
		if len(small) > 0 {
			chunks = append(chunks, s.merge(small)...)
			small = nil
		}
		if len(rest) == 0 {
			chunks = append(chunks, piece)
			continue
		}
		chunks = append(chunks, s.split(piece, rest)...)
	}
	if len(small) > 0 {
		chunks = append(chunks, s.merge(small)...)
	}
	return chunks
}

// merge packs consecutive pieces into chunks, carrying an overlap tail
// from one chunk into the next.
func (s *Splitter) merge(pieces []string) []string {
	var (
		chunks  []string
		current []string
		total   int
	)
	for _, p := range pieces {
		n := utf8.RuneCountInString(p)
		if total+n > s.Size && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, ""))
			for total > s.Overlap || (total+n > s.Size && total > 0) {
				total -= utf8.RuneCountInString(current[0])
				current = current[1:]
			}
		}
		current = append(current, p)
		total += n
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, ""))
	}
	return chunks
}

// splitKeep splits text on sep, keeping sep at the start of each following
// piece so joining the pieces restores text.
func splitKeep(text, sep string) []string {
	if sep == "" {
		pieces := make([]string, 0, utf8.RuneCountInString(text))
		for _, r := range text {
			pieces = append(pieces, string(r))
		}
		return pieces
	}

	parts := strings.Split(text, sep)
	pieces := make([]string, 0, len(parts))
	for i, p := range parts {
		if i > 0 {
			p = sep + p
		}
		if p != "" {
			pieces = append(pieces, p)
		}
	}
	return pieces
}
