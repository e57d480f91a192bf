package exam

import (
	"context"

	"github.com/pkg/errors"
)

var (
	// errors
	ErrSubjectNotFound  = errors.New("subject not found")
	ErrQuestionNotFound = errors.New("question not found")
)

type (
	Repository interface {
		QuerySubjects(ctx context.Context) ([]Subject, error)
		GetSubjectByID(ctx context.Context, id string) (Subject, error)
		QueryTopics(ctx context.Context, subjectID string) ([]Topic, error)
		GetQuestionByID(ctx context.Context, id string) (Question, error)
		// SearchQuestions returns one page ordered year DESC, paper, number, id.
		// An unknown or empty cursor yields the first page.
		SearchQuestions(ctx context.Context, filter SearchFilter) (Page, error)
		// MarkCompletion records a completion and bumps the counter atomically.
		// Idempotent: marking an already-completed question is a no-op.
		MarkCompletion(ctx context.Context, userID, questionID string) error
		// UnmarkCompletion removes a completion. Idempotent; never drives a
		// counter negative.
		UnmarkCompletion(ctx context.Context, userID, questionID string) error
		QueryCompletionStats(ctx context.Context, userID string, subjectIDs []string) ([]SubjectStats, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Subjects(ctx context.Context) ([]Subject, error) {
	return svc.repo.QuerySubjects(ctx)
}

func (svc *Service) GetSubject(ctx context.Context, id string) (Subject, error) {
	return svc.repo.GetSubjectByID(ctx, id)
}

func (svc *Service) Topics(ctx context.Context, subjectID string) ([]Topic, error) {
	if _, err := svc.repo.GetSubjectByID(ctx, subjectID); err != nil {
		return nil, err
	}
	return svc.repo.QueryTopics(ctx, subjectID)
}

func (svc *Service) GetQuestion(ctx context.Context, id string) (Question, error) {
	return svc.repo.GetQuestionByID(ctx, id)
}

func (svc *Service) Search(ctx context.Context, filter SearchFilter) (Page, error) {
	filter.Clean()
	page, err := svc.repo.SearchQuestions(ctx, filter)
	if err != nil {
		return Page{}, errors.Wrap(err, "searching questions")
	}
	if page.Questions == nil {
		page.Questions = []Question{}
	}
	return page, nil
}

// MergePages flattens fetched pages into one slice keyed by question ID,
// preserving first-seen order. The result never contains two entries with
// the same ID, whatever overlap the pages carry.
func MergePages(pages ...Page) []Question {
	seen := make(map[string]struct{})
	merged := make([]Question, 0)
	for _, page := range pages {
		for _, q := range page.Questions {
			if _, ok := seen[q.ID]; ok {
				continue
			}
			seen[q.ID] = struct{}{}
			merged = append(merged, q)
		}
	}
	return merged
}

func (svc *Service) MarkCompleted(ctx context.Context, userID, questionID string) error {
	if _, err := svc.repo.GetQuestionByID(ctx, questionID); err != nil {
		return err
	}
	return svc.repo.MarkCompletion(ctx, userID, questionID)
}

func (svc *Service) UnmarkCompleted(ctx context.Context, userID, questionID string) error {
	if _, err := svc.repo.GetQuestionByID(ctx, questionID); err != nil {
		return err
	}
	return svc.repo.UnmarkCompletion(ctx, userID, questionID)
}

// Stats reports per-subject and per-topic completion counts for the user,
// restricted to the given subjects (nil means all).
func (svc *Service) Stats(ctx context.Context, userID string, subjectIDs []string) ([]SubjectStats, error) {
	stats, err := svc.repo.QueryCompletionStats(ctx, userID, subjectIDs)
	if err != nil {
		return nil, errors.Wrap(err, "querying completion stats")
	}
	for i := range stats {
		stats[i] = stats[i].withPercent()
	}
	return stats, nil
}
