package audio

import (
	"context"

	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("audio question not found")

type (
	// Word is a transcript word with its playback interval in milliseconds.
	// A word is active for t in [Start, End).
	Word struct {
		Text  string `json:"text"`
		Start int    `json:"start"`
		End   int    `json:"end"`
	}

	Sentence struct {
		Words []Word `json:"words"`
	}

	Transcript struct {
		Sentences []Sentence `json:"sentences"`
	}

	AudioQuestion struct {
		ID         string     `json:"id"`
		QuestionID string     `json:"question_id"`
		AudioURL   string     `json:"audio_url"`
		Transcript Transcript `json:"transcript"`
	}

	Repository interface {
		GetAudioQuestionByQuestionID(ctx context.Context, questionID string) (AudioQuestion, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// GetForQuestion returns the audio question with its transcript, along with
// the flat word index clients sync highlighting against.
func (svc *Service) GetForQuestion(ctx context.Context, questionID string) (AudioQuestion, *SyncIndex, error) {
	aq, err := svc.repo.GetAudioQuestionByQuestionID(ctx, questionID)
	if err != nil {
		return AudioQuestion{}, nil, err
	}
	ix, err := NewSyncIndex(aq.Transcript)
	if err != nil {
		return AudioQuestion{}, nil, errors.Wrapf(err, "indexing transcript of audio question %s", aq.ID)
	}
	return aq, ix, nil
}
