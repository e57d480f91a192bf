package inmem

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/prepdesk/prepdesk/core/audio"
)

// AudioRepository is a map-backed audio.Repository for tests and local runs.
type AudioRepository struct {
	mu        sync.RWMutex
	questions map[string]audio.AudioQuestion // keyed by question ID
}

var _ audio.Repository = (*AudioRepository)(nil) // interface compliance check

func NewAudioRepository() *AudioRepository {
	return &AudioRepository{questions: make(map[string]audio.AudioQuestion)}
}

func (repo *AudioRepository) SeedAudioQuestion(aq audio.AudioQuestion) audio.AudioQuestion {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	if aq.ID == "" {
		aq.ID = uuid.NewString()
	}
	repo.questions[aq.QuestionID] = aq
	return aq
}

func (repo *AudioRepository) GetAudioQuestionByQuestionID(ctx context.Context, questionID string) (audio.AudioQuestion, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	aq, ok := repo.questions[questionID]
	if !ok {
		return audio.AudioQuestion{}, audio.ErrNotFound
	}
	return aq, nil
}
