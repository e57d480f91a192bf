package exam

import (
	"strings"

	"github.com/prepdesk/prepdesk/core"
)

// Subject levels
const (
	LevelHigher     = "Higher"
	LevelOrdinary   = "Ordinary"
	LevelFoundation = "Foundation"
)

const (
	defaultPageSize = 20
	maxPageSize     = 50
)

type (
	Subject struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Level string `json:"level"`
	}

	Topic struct {
		ID        string `json:"id"`
		SubjectID string `json:"subject_id"`
		Name      string `json:"name"`
	}

	Question struct {
		ID            string `json:"id"`
		SubjectID     string `json:"subject_id"`
		TopicID       string `json:"topic_id"`
		Year          int    `json:"year"`
		Paper         string `json:"paper"`
		Number        int    `json:"number"`
		Text          string `json:"text"`
		MarkingScheme string `json:"marking_scheme,omitempty"`
		HasAudio      bool   `json:"has_audio"`
	}

	// SearchFilter narrows a question search. All fields are ANDed.
	SearchFilter struct {
		SubjectID string   `query:"subject"`
		TopicIDs  []string `query:"topic"`
		Years     []int    `query:"year"`
		Keyword   string   `query:"search"`
		Cursor    string   `query:"cursor"`
		Limit     int      `query:"limit"`
	}

	// Page is one page of search results. NextCursor is opaque to callers;
	// only the repository that issued it can decode it.
	Page struct {
		Questions  []Question `json:"questions"`
		NextCursor string     `json:"next_cursor,omitempty"`
	}

	TopicStats struct {
		TopicID   string `json:"topic_id"`
		TopicName string `json:"topic_name"`
		Completed int    `json:"completed"`
		Total     int    `json:"total"`
	}

	SubjectStats struct {
		SubjectID   string       `json:"subject_id"`
		SubjectName string       `json:"subject_name"`
		Completed   int          `json:"completed"`
		Total       int          `json:"total"`
		Percent     float64      `json:"percent"`
		Topics      []TopicStats `json:"topics"`
	}
)

// Clean normalizes the filter: trimmed keyword, limit clamped to [1, maxPageSize].
func (f *SearchFilter) Clean() {
	f.Keyword = core.CleanString(f.Keyword)
	if f.Limit < 1 {
		f.Limit = defaultPageSize
	} else if f.Limit > maxPageSize {
		f.Limit = maxPageSize
	}
}

// MatchesKeyword reports whether q matches the (already cleaned) keyword,
// case-insensitively over the question text.
func (q Question) MatchesKeyword(keyword string) bool {
	if keyword == "" {
		return true
	}
	return strings.Contains(strings.ToLower(q.Text), strings.ToLower(keyword))
}

// Less orders questions year DESC, then paper, number, id ASC. This is the
// stable search order cursors are composed against.
func (q Question) Less(other Question) bool {
	if q.Year != other.Year {
		return q.Year > other.Year
	}
	if q.Paper != other.Paper {
		return q.Paper < other.Paper
	}
	if q.Number != other.Number {
		return q.Number < other.Number
	}
	return q.ID < other.ID
}

func (s SubjectStats) withPercent() SubjectStats {
	if s.Total > 0 {
		s.Percent = float64(s.Completed) / float64(s.Total) * 100
	}
	return s
}
