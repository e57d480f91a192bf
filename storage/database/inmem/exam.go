package inmem

import (
	"context"
	"encoding/base64"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/prepdesk/prepdesk/core/exam"
)

// ExamRepository is a map-backed exam.Repository for tests and local runs.
type ExamRepository struct {
	mu          sync.RWMutex
	subjects    map[string]exam.Subject
	topics      map[string]exam.Topic
	questions   map[string]exam.Question
	completions map[string]map[string]struct{} // user ID -> completed question IDs
}

var _ exam.Repository = (*ExamRepository)(nil) // interface compliance check

func NewExamRepository() *ExamRepository {
	return &ExamRepository{
		subjects:    make(map[string]exam.Subject),
		topics:      make(map[string]exam.Topic),
		questions:   make(map[string]exam.Question),
		completions: make(map[string]map[string]struct{}),
	}
}

// SeedSubject registers a subject, assigning an ID if missing.
func (repo *ExamRepository) SeedSubject(s exam.Subject) exam.Subject {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	repo.subjects[s.ID] = s
	return s
}

func (repo *ExamRepository) SeedTopic(t exam.Topic) exam.Topic {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	repo.topics[t.ID] = t
	return t
}

func (repo *ExamRepository) SeedQuestion(q exam.Question) exam.Question {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	repo.questions[q.ID] = q
	return q
}

func (repo *ExamRepository) QuerySubjects(ctx context.Context) ([]exam.Subject, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	subjects := make([]exam.Subject, 0, len(repo.subjects))
	for _, s := range repo.subjects {
		subjects = append(subjects, s)
	}
	sort.Slice(subjects, func(i, j int) bool {
		if subjects[i].Name != subjects[j].Name {
			return subjects[i].Name < subjects[j].Name
		}
		return subjects[i].Level < subjects[j].Level
	})
	return subjects, nil
}

func (repo *ExamRepository) GetSubjectByID(ctx context.Context, id string) (exam.Subject, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	s, ok := repo.subjects[id]
	if !ok {
		return exam.Subject{}, exam.ErrSubjectNotFound
	}
	return s, nil
}

func (repo *ExamRepository) QueryTopics(ctx context.Context, subjectID string) ([]exam.Topic, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	topics := make([]exam.Topic, 0)
	for _, t := range repo.topics {
		if t.SubjectID == subjectID {
			topics = append(topics, t)
		}
	}
	sort.Slice(topics, func(i, j int) bool { return topics[i].Name < topics[j].Name })
	return topics, nil
}

func (repo *ExamRepository) GetQuestionByID(ctx context.Context, id string) (exam.Question, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	q, ok := repo.questions[id]
	if !ok {
		return exam.Question{}, exam.ErrQuestionNotFound
	}
	return q, nil
}

func (repo *ExamRepository) SearchQuestions(ctx context.Context, filter exam.SearchFilter) (exam.Page, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	matched := make([]exam.Question, 0)
	for _, q := range repo.questions {
		if filter.SubjectID != "" && q.SubjectID != filter.SubjectID {
			continue
		}
		if len(filter.TopicIDs) > 0 && !containsString(filter.TopicIDs, q.TopicID) {
			continue
		}
		if len(filter.Years) > 0 && !containsInt(filter.Years, q.Year) {
			continue
		}
		if !q.MatchesKeyword(filter.Keyword) {
			continue
		}
		matched = append(matched, q)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Less(matched[j]) })

	// an unknown cursor degrades to the first page
	start := 0
	if lastID, ok := decodePageCursor(filter.Cursor); ok {
		for i, q := range matched {
			if q.ID == lastID {
				start = i + 1
				break
			}
		}
	}
	if start >= len(matched) {
		return exam.Page{Questions: []exam.Question{}}, nil
	}
	matched = matched[start:]

	page := exam.Page{Questions: matched}
	if len(matched) > filter.Limit {
		page.Questions = matched[:filter.Limit]
		page.NextCursor = encodePageCursor(page.Questions[filter.Limit-1].ID)
	}
	return page, nil
}

func (repo *ExamRepository) MarkCompletion(ctx context.Context, userID, questionID string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	done, ok := repo.completions[userID]
	if !ok {
		done = make(map[string]struct{})
		repo.completions[userID] = done
	}
	done[questionID] = struct{}{}
	return nil
}

func (repo *ExamRepository) UnmarkCompletion(ctx context.Context, userID, questionID string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	if done, ok := repo.completions[userID]; ok {
		delete(done, questionID)
	}
	return nil
}

func (repo *ExamRepository) QueryCompletionStats(ctx context.Context, userID string, subjectIDs []string) ([]exam.SubjectStats, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	done := repo.completions[userID]

	subjects := make([]exam.Subject, 0)
	for _, s := range repo.subjects {
		if len(subjectIDs) > 0 && !containsString(subjectIDs, s.ID) {
			continue
		}
		subjects = append(subjects, s)
	}
	sort.Slice(subjects, func(i, j int) bool { return subjects[i].Name < subjects[j].Name })

	stats := make([]exam.SubjectStats, 0, len(subjects))
	for _, s := range subjects {
		subjStats := exam.SubjectStats{
			SubjectID:   s.ID,
			SubjectName: s.Name,
			Topics:      make([]exam.TopicStats, 0),
		}

		topics, _ := repo.queryTopicsLocked(s.ID)
		for _, t := range topics {
			topicStats := exam.TopicStats{TopicID: t.ID, TopicName: t.Name}
			for _, q := range repo.questions {
				if q.TopicID != t.ID {
					continue
				}
				topicStats.Total++
				if _, completed := done[q.ID]; completed {
					topicStats.Completed++
				}
			}
			subjStats.Topics = append(subjStats.Topics, topicStats)
			subjStats.Total += topicStats.Total
			subjStats.Completed += topicStats.Completed
		}
		stats = append(stats, subjStats)
	}
	return stats, nil
}

func (repo *ExamRepository) queryTopicsLocked(subjectID string) ([]exam.Topic, error) {
	topics := make([]exam.Topic, 0)
	for _, t := range repo.topics {
		if t.SubjectID == subjectID {
			topics = append(topics, t)
		}
	}
	sort.Slice(topics, func(i, j int) bool { return topics[i].Name < topics[j].Name })
	return topics, nil
}

func encodePageCursor(id string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(id))
}

func decodePageCursor(s string) (string, bool) {
	if s == "" {
		return "", false
	}
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return "", false
	}
	return string(raw), true
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

func containsInt(haystack []int, needle int) bool {
	for _, n := range haystack {
		if n == needle {
			return true
		}
	}
	return false
}
