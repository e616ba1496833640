// Package moderation provides the profanity classifier consumed at
// question creation, and the censoring applied to participant-facing text.
package moderation

import (
	"context"
	"strings"
	"unicode"
)

// Placeholder replaces each profane token in participant-facing text.
const Placeholder = "***"

// Classifier decides whether submitted text is profane. Implementations
// must be pure: no state side effects, same verdict for same text. Callers
// treat any error as a profane verdict so unreviewed content never reaches
// participants.
type Classifier interface {
	Classify(ctx context.Context, text string) (flagged bool, err error)
}

// WordList is a Classifier backed by a local blocklist. Matching is
// case-insensitive on whole words only, so "class" never matches "ass".
type WordList struct {
	words map[string]struct{}
}

// defaultWords is intentionally small; deployments extend it via
// MODERATION_EXTRA_WORDS or swap in a real classifier service.
var defaultWords = []string{
	"damn", "hell", "crap", "ass", "bastard", "bitch", "piss", "shit", "fuck",
}

// NewWordList builds a classifier from the default blocklist plus any
// extra words.
func NewWordList(extra ...string) *WordList {
	w := &WordList{words: make(map[string]struct{}, len(defaultWords)+len(extra))}
	for _, word := range defaultWords {
		w.words[word] = struct{}{}
	}
	for _, word := range extra {
		word = strings.ToLower(strings.TrimSpace(word))
		if word != "" {
			w.words[word] = struct{}{}
		}
	}
	return w
}

// Classify reports whether text contains a blocklisted word.
func (w *WordList) Classify(_ context.Context, text string) (bool, error) {
	for _, token := range splitWords(text) {
		if _, ok := w.words[strings.ToLower(token)]; ok {
			return true, nil
		}
	}
	return false, nil
}

// Censor replaces every blocklisted word in text with Placeholder,
// preserving all punctuation and spacing around it.
func (w *WordList) Censor(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	start := -1
	flush := func(end int) {
		if start < 0 {
			return
		}
		token := text[start:end]
		if _, ok := w.words[strings.ToLower(token)]; ok {
			b.WriteString(Placeholder)
		} else {
			b.WriteString(token)
		}
		start = -1
	}
	for i, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'' {
			if start < 0 {
				start = i
			}
			continue
		}
		flush(i)
		b.WriteRune(r)
	}
	flush(len(text))
	return b.String()
}

func splitWords(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}
