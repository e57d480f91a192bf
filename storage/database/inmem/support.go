package inmem

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/prepdesk/prepdesk/core/support"
)

// SupportRepository is a slice-backed support.Repository for tests and local runs.
type SupportRepository struct {
	mu          sync.RWMutex
	submissions []support.Submission
}

var _ support.Repository = (*SupportRepository)(nil) // interface compliance check

func NewSupportRepository() *SupportRepository {
	return &SupportRepository{}
}

func (repo *SupportRepository) CreateSubmission(ctx context.Context, sub support.Submission) (support.Submission, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	repo.submissions = append(repo.submissions, sub)
	return sub, nil
}

// Submissions returns a copy of everything stored so far.
func (repo *SupportRepository) Submissions() []support.Submission {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	return append([]support.Submission(nil), repo.submissions...)
}
