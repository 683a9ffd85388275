// Package moderation rewrites forbidden words in chat text before it is
// stored or broadcast. Matching is case-insensitive and ignores punctuation
// and spacing inside a word, so thin obfuscation does not get past it.
package moderation

import (
	"bufio"
	"bytes"
	_ "embed"
	"strings"
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
)

//go:embed words.txt
var defaultWordList []byte

// Censor replaces matched spans with a replacement rune. Safe for concurrent
// use: the automaton is immutable after construction.
type Censor struct {
	matcher     *goahocorasick.Machine
	replacement rune
}

// NewCensor builds the automaton from the given word list.
func NewCensor(words []string, replacement rune) (*Censor, error) {
	patterns := make([][]rune, 0, len(words))
	for _, w := range words {
		if normalized := normalize([]rune(w)); len(normalized) > 0 {
			patterns = append(patterns, normalized)
		}
	}

	machine := new(goahocorasick.Machine)
	if err := machine.Build(patterns); err != nil {
		return nil, err
	}
	return &Censor{matcher: machine, replacement: replacement}, nil
}

// NewDefaultCensor uses the embedded word list.
func NewDefaultCensor(replacement rune) (*Censor, error) {
	var words []string
	scanner := bufio.NewScanner(bytes.NewReader(defaultWordList))
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" && !strings.HasPrefix(line, "#") {
			words = append(words, line)
		}
	}
	return NewCensor(words, replacement)
}

// Apply returns the text with every forbidden span overwritten by the
// replacement rune. Spacing and punctuation of the original are preserved.
func (c *Censor) Apply(text string) string {
	original := []rune(text)
	searchable, origIdx := searchableForm(original)
	if len(searchable) == 0 {
		return text
	}

	spans := c.matcher.MultiPatternSearch(searchable, false)
	if len(spans) == 0 {
		return text
	}

	for _, span := range spans {
		start := span.Pos
		end := start + len(span.Word)
		if start < 0 || end > len(origIdx) {
			continue
		}
		for i := start; i < end; i++ {
			original[origIdx[i]] = c.replacement
		}
	}
	return string(original)
}

// searchableForm lowercases the text and strips noise runes while tracking,
// per searchable rune, its index in the original.
func searchableForm(original []rune) ([]rune, []int) {
	searchable := make([]rune, 0, len(original))
	origIdx := make([]int, 0, len(original))
	for i, r := range original {
		if isNoise(r) {
			continue
		}
		searchable = append(searchable, unicode.ToLower(r))
		origIdx = append(origIdx, i)
	}
	return searchable, origIdx
}

func normalize(word []rune) []rune {
	out := make([]rune, 0, len(word))
	for _, r := range word {
		if isNoise(r) {
			continue
		}
		out = append(out, unicode.ToLower(r))
	}
	return out
}

func isNoise(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r)
}
