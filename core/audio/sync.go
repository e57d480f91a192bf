package audio

import (
	"sort"

	"github.com/pkg/errors"
)

var errWordOrder = errors.New("transcript words out of order")

type (
	// IndexedWord is a transcript word with its global position across
	// sentences and the index of the sentence it belongs to.
	IndexedWord struct {
		Word
		Position int `json:"position"`
		Sentence int `json:"sentence"`
	}

	// SyncIndex is a flat index of transcript words used to resolve the
	// active word/sentence for a playback timestamp.
	SyncIndex struct {
		words []IndexedWord
	}
)

// NewSyncIndex flattens the transcript into a word index. Word intervals
// must be non-overlapping and sorted by start time across the whole
// transcript; anything else is rejected.
func NewSyncIndex(t Transcript) (*SyncIndex, error) {
	var words []IndexedWord
	pos := 0
	prevEnd := -1
	for si, sentence := range t.Sentences {
		for _, w := range sentence.Words {
			if w.End < w.Start || w.Start < prevEnd {
				return nil, errors.Wrapf(errWordOrder, "word %q at position %d", w.Text, pos)
			}
			words = append(words, IndexedWord{Word: w, Position: pos, Sentence: si})
			prevEnd = w.End
			pos++
		}
	}
	return &SyncIndex{words: words}, nil
}

// Words returns the flattened word list in playback order.
func (ix *SyncIndex) Words() []IndexedWord {
	return ix.words
}

// ActiveAt returns the word active at playback timestamp t (milliseconds):
// the word whose [Start, End) interval contains t, or the previous word
// during a gap between words. ok is false before the first word starts.
// After the last word ends, the last word stays active.
func (ix *SyncIndex) ActiveAt(t int) (IndexedWord, bool) {
	// first word starting after t; the candidate is the one before it
	i := sort.Search(len(ix.words), func(i int) bool {
		return ix.words[i].Start > t
	})
	if i == 0 {
		return IndexedWord{}, false
	}
	return ix.words[i-1], true
}

// ActiveSentenceAt returns the index of the sentence active at t.
func (ix *SyncIndex) ActiveSentenceAt(t int) (int, bool) {
	w, ok := ix.ActiveAt(t)
	if !ok {
		return 0, false
	}
	return w.Sentence, true
}
