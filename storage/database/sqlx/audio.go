package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/prepdesk/prepdesk/core/audio"
)

type audioRepository struct {
	db *sqlx.DB
}

var _ audio.Repository = (*audioRepository)(nil) // interface compliance check

func NewAudioRepository(db *sqlx.DB) *audioRepository {
	return &audioRepository{db: db}
}

func (repo audioRepository) GetAudioQuestionByQuestionID(ctx context.Context, questionID string) (audio.AudioQuestion, error) {
	if !validUUID(questionID) {
		return audio.AudioQuestion{}, audio.ErrNotFound
	}
	var row struct {
		ID         string `db:"id"`
		QuestionID string `db:"question_id"`
		AudioURL   string `db:"audio_url"`
		Transcript []byte `db:"transcript"`
	}
	query := `SELECT id, question_id, audio_url, transcript FROM audio_question WHERE question_id = $1`
	if err := repo.db.GetContext(ctx, &row, query, questionID); err != nil {
		if err == sql.ErrNoRows {
			return audio.AudioQuestion{}, audio.ErrNotFound
		}
		return audio.AudioQuestion{}, errors.Wrap(err, "getting audio question")
	}

	aq := audio.AudioQuestion{
		ID:         row.ID,
		QuestionID: row.QuestionID,
		AudioURL:   row.AudioURL,
	}
	if err := json.Unmarshal(row.Transcript, &aq.Transcript); err != nil {
		return audio.AudioQuestion{}, errors.Wrapf(err, "decoding transcript of audio question %s", row.ID)
	}
	return aq, nil
}
