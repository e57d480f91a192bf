package audio

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func testTranscript() Transcript {
	return Transcript{
		Sentences: []Sentence{
			{Words: []Word{
				{Text: "Bonjour", Start: 500, End: 900},
				{Text: "à", Start: 950, End: 1000},
				{Text: "tous", Start: 1000, End: 1400},
			}},
			{Words: []Word{
				{Text: "Comment", Start: 2000, End: 2400},
				{Text: "allez-vous", Start: 2450, End: 3100},
			}},
		},
	}
}

func TestSyncIndex_ActiveAt(t *testing.T) {
	ix, err := NewSyncIndex(testTranscript())
	if err != nil {
		t.Fatalf("NewSyncIndex() failed: %v", err)
	}

	tests := []struct {
		name     string
		t        int
		wantText string
		wantPos  int
		wantSent int
		wantOK   bool
	}{
		{name: "before first word", t: 0, wantOK: false},
		{name: "just before first word", t: 499, wantOK: false},
		{name: "first word start", t: 500, wantText: "Bonjour", wantPos: 0, wantSent: 0, wantOK: true},
		{name: "inside first word", t: 700, wantText: "Bonjour", wantPos: 0, wantSent: 0, wantOK: true},
		{name: "gap keeps previous word", t: 920, wantText: "Bonjour", wantPos: 0, wantSent: 0, wantOK: true},
		{name: "adjacent words boundary", t: 1000, wantText: "tous", wantPos: 2, wantSent: 0, wantOK: true},
		{name: "gap between sentences", t: 1700, wantText: "tous", wantPos: 2, wantSent: 0, wantOK: true},
		{name: "second sentence", t: 2600, wantText: "allez-vous", wantPos: 4, wantSent: 1, wantOK: true},
		{name: "after last word", t: 9999, wantText: "allez-vous", wantPos: 4, wantSent: 1, wantOK: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, ok := ix.ActiveAt(tt.t)
			if ok != tt.wantOK {
				t.Fatalf("ActiveAt(%d) ok = %v, want %v", tt.t, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			assert.Equal(t, tt.wantText, w.Text)
			assert.Equal(t, tt.wantPos, w.Position)
			assert.Equal(t, tt.wantSent, w.Sentence)

			sent, ok := ix.ActiveSentenceAt(tt.t)
			assert.True(t, ok)
			assert.Equal(t, tt.wantSent, sent)
		})
	}
}

func TestSyncIndex_GlobalPositions(t *testing.T) {
	ix, err := NewSyncIndex(testTranscript())
	if err != nil {
		t.Fatalf("NewSyncIndex() failed: %v", err)
	}

	words := ix.Words()
	assert.Len(t, words, 5)
	for i, w := range words {
		assert.Equal(t, i, w.Position)
	}
	assert.Equal(t, 0, words[2].Sentence)
	assert.Equal(t, 1, words[3].Sentence)
}

func TestNewSyncIndex_RejectsOutOfOrderWords(t *testing.T) {
	tests := []struct {
		name string
		tr   Transcript
	}{
		{
			name: "overlapping words",
			tr: Transcript{Sentences: []Sentence{
				{Words: []Word{{Text: "a", Start: 0, End: 500}, {Text: "b", Start: 400, End: 900}}},
			}},
		},
		{
			name: "end before start",
			tr: Transcript{Sentences: []Sentence{
				{Words: []Word{{Text: "a", Start: 500, End: 100}}},
			}},
		},
		{
			name: "overlap across sentences",
			tr: Transcript{Sentences: []Sentence{
				{Words: []Word{{Text: "a", Start: 0, End: 500}}},
				{Words: []Word{{Text: "b", Start: 300, End: 700}}},
			}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSyncIndex(tt.tr)
			if errors.Cause(err) != errWordOrder {
				t.Errorf("NewSyncIndex() error = %v, want %v", err, errWordOrder)
			}
		})
	}
}

func TestNewSyncIndex_EmptyTranscript(t *testing.T) {
	ix, err := NewSyncIndex(Transcript{})
	if err != nil {
		t.Fatalf("NewSyncIndex() failed: %v", err)
	}
	_, ok := ix.ActiveAt(1000)
	assert.False(t, ok)
}
