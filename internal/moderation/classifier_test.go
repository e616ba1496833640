package moderation

import (
	"context"
	"testing"
)

func TestClassifyDetectsProfanity(t *testing.T) {
	w := NewWordList()
	flagged, err := w.Classify(context.Background(), "what the hell is momentum?")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if !flagged {
		t.Fatal("expected profane text to be flagged")
	}
}

func TestClassifyCleanText(t *testing.T) {
	w := NewWordList()
	flagged, err := w.Classify(context.Background(), "How does the event loop schedule timers?")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if flagged {
		t.Fatal("clean text should not be flagged")
	}
}

func TestClassifyWholeWordsOnly(t *testing.T) {
	w := NewWordList()
	// "class" contains "ass", "shellfish" contains "hell"; substrings must
	// not trigger the blocklist.
	for _, text := range []string{"Which class covers this?", "Is shellfish an allergen?", "assessment criteria"} {
		flagged, err := w.Classify(context.Background(), text)
		if err != nil {
			t.Fatalf("classify %q: %v", text, err)
		}
		if flagged {
			t.Errorf("%q should not be flagged", text)
		}
	}
}

func TestClassifyCaseInsensitive(t *testing.T) {
	w := NewWordList()
	flagged, _ := w.Classify(context.Background(), "DAMN good question")
	if !flagged {
		t.Fatal("uppercase profanity should be flagged")
	}
}

func TestClassifyExtraWords(t *testing.T) {
	w := NewWordList("bloody")
	flagged, _ := w.Classify(context.Background(), "this is bloody hard")
	if !flagged {
		t.Fatal("extra blocklist word should be flagged")
	}
}

func TestCensorPreservesPunctuation(t *testing.T) {
	w := NewWordList()
	got := w.Censor("What the hell is momentum?")
	want := "What the *** is momentum?"
	if got != want {
		t.Fatalf("Censor = %q, want %q", got, want)
	}
}

func TestCensorMultipleWords(t *testing.T) {
	w := NewWordList()
	got := w.Censor("damn, that shit was fast!")
	want := "***, that *** was fast!"
	if got != want {
		t.Fatalf("Censor = %q, want %q", got, want)
	}
}

func TestCensorCleanTextUnchanged(t *testing.T) {
	w := NewWordList()
	text := "Why does the cache invalidate early?"
	if got := w.Censor(text); got != text {
		t.Fatalf("Censor changed clean text: %q", got)
	}
}
