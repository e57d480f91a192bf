package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/prepdesk/prepdesk/core/exam"
)

type examRepository struct {
	db *sqlx.DB
}

var _ exam.Repository = (*examRepository)(nil) // interface compliance check

func NewExamRepository(db *sqlx.DB) *examRepository {
	return &examRepository{db: db}
}

func (repo examRepository) QuerySubjects(ctx context.Context) ([]exam.Subject, error) {
	subjects := make([]exam.Subject, 0)
	query := `SELECT id, name, level FROM subject ORDER BY name, level`
	if err := repo.db.SelectContext(ctx, &subjects, query); err != nil {
		return nil, errors.Wrap(err, "querying subjects")
	}
	return subjects, nil
}

func (repo examRepository) GetSubjectByID(ctx context.Context, id string) (exam.Subject, error) {
	if !validUUID(id) {
		return exam.Subject{}, exam.ErrSubjectNotFound
	}
	var subject exam.Subject
	query := `SELECT id, name, level FROM subject WHERE id = $1`
	if err := repo.db.GetContext(ctx, &subject, query, id); err != nil {
		if err == sql.ErrNoRows {
			return exam.Subject{}, exam.ErrSubjectNotFound
		}
		return exam.Subject{}, errors.Wrap(err, "getting subject")
	}
	return subject, nil
}

func (repo examRepository) QueryTopics(ctx context.Context, subjectID string) ([]exam.Topic, error) {
	topics := make([]exam.Topic, 0)
	if !validUUID(subjectID) {
		return topics, nil
	}
	query := `SELECT id, subject_id, name FROM topic WHERE subject_id = $1 ORDER BY name`
	if err := repo.db.SelectContext(ctx, &topics, query, subjectID); err != nil {
		return nil, errors.Wrap(err, "querying topics")
	}
	return topics, nil
}

const questionColumns = `id, subject_id, topic_id, year, paper, number, text, marking_scheme, has_audio`

func (repo examRepository) GetQuestionByID(ctx context.Context, id string) (exam.Question, error) {
	if !validUUID(id) {
		return exam.Question{}, exam.ErrQuestionNotFound
	}
	var q exam.Question
	query := fmt.Sprintf(`SELECT %s FROM question WHERE id = $1`, questionColumns)
	if err := repo.db.GetContext(ctx, &q, query, id); err != nil {
		if err == sql.ErrNoRows {
			return exam.Question{}, exam.ErrQuestionNotFound
		}
		return exam.Question{}, errors.Wrap(err, "getting question")
	}
	return q, nil
}

func (repo examRepository) SearchQuestions(ctx context.Context, filter exam.SearchFilter) (exam.Page, error) {
	where := make([]string, 0, 5)
	args := make([]interface{}, 0, 8)

	if filter.SubjectID != "" {
		if !validUUID(filter.SubjectID) {
			return exam.Page{Questions: make([]exam.Question, 0)}, nil
		}
		args = append(args, filter.SubjectID)
		where = append(where, fmt.Sprintf("subject_id = $%d", len(args)))
	}
	if len(filter.TopicIDs) > 0 {
		topicIDs := filterUUIDs(filter.TopicIDs)
		if len(topicIDs) == 0 {
			return exam.Page{Questions: make([]exam.Question, 0)}, nil
		}
		args = append(args, pq.Array(topicIDs))
		where = append(where, fmt.Sprintf("topic_id = ANY($%d)", len(args)))
	}
	if len(filter.Years) > 0 {
		args = append(args, pq.Array(filter.Years))
		where = append(where, fmt.Sprintf("year = ANY($%d)", len(args)))
	}
	if filter.Keyword != "" {
		args = append(args, "%"+filter.Keyword+"%")
		where = append(where, fmt.Sprintf("text ILIKE $%d", len(args)))
	}

	if cur, ok := decodeCursor(filter.Cursor); ok {
		args = append(args, cur.Year, cur.Paper, cur.Number, cur.ID)
		n := len(args)
		where = append(where, fmt.Sprintf(
			"(year < $%d OR (year = $%d AND (paper, number, id) > ($%d, $%d, $%d::uuid)))",
			n-3, n-3, n-2, n-1, n,
		))
	}

	query := fmt.Sprintf(`SELECT %s FROM question`, questionColumns)
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, filter.Limit+1)
	query += fmt.Sprintf(" ORDER BY year DESC, paper, number, id LIMIT $%d", len(args))

	questions := make([]exam.Question, 0, filter.Limit)
	if err := repo.db.SelectContext(ctx, &questions, query, args...); err != nil {
		return exam.Page{}, errors.Wrap(err, "searching questions")
	}

	page := exam.Page{Questions: questions}
	if len(questions) > filter.Limit {
		page.Questions = questions[:filter.Limit]
		last := page.Questions[filter.Limit-1]
		page.NextCursor = encodeCursor(last)
	}
	return page, nil
}

func (repo examRepository) MarkCompletion(ctx context.Context, userID, questionID string) error {
	query := `INSERT INTO completion (user_id, question_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	_, err := repo.db.ExecContext(ctx, query, userID, questionID)
	return errors.Wrap(err, "marking completion")
}

func (repo examRepository) UnmarkCompletion(ctx context.Context, userID, questionID string) error {
	query := `DELETE FROM completion WHERE user_id = $1 AND question_id = $2`
	_, err := repo.db.ExecContext(ctx, query, userID, questionID)
	return errors.Wrap(err, "unmarking completion")
}

func (repo examRepository) QueryCompletionStats(ctx context.Context, userID string, subjectIDs []string) ([]exam.SubjectStats, error) {
	if len(subjectIDs) > 0 {
		if subjectIDs = filterUUIDs(subjectIDs); len(subjectIDs) == 0 {
			return make([]exam.SubjectStats, 0), nil
		}
	}
	var rows []struct {
		SubjectID   string `db:"subject_id"`
		SubjectName string `db:"subject_name"`
		TopicID     string `db:"topic_id"`
		TopicName   string `db:"topic_name"`
		Total       int    `db:"total"`
		Completed   int    `db:"completed"`
	}
	query := `
		SELECT s.id   AS subject_id,
		       s.name AS subject_name,
		       t.id   AS topic_id,
		       t.name AS topic_name,
		       COUNT(q.id)          AS total,
		       COUNT(c.question_id) AS completed
		FROM subject s
		JOIN topic t ON t.subject_id = s.id
		JOIN question q ON q.topic_id = t.id
		LEFT JOIN completion c ON c.question_id = q.id AND c.user_id = $1
		WHERE cardinality($2::uuid[]) = 0 OR s.id = ANY($2::uuid[])
		GROUP BY s.id, s.name, t.id, t.name
		ORDER BY s.name, t.name`
	if err := repo.db.SelectContext(ctx, &rows, query, userID, pq.Array(subjectIDs)); err != nil {
		return nil, errors.Wrap(err, "querying completion stats")
	}

	stats := make([]exam.SubjectStats, 0)
	idx := make(map[string]int) // subject ID -> position in stats
	for _, row := range rows {
		i, ok := idx[row.SubjectID]
		if !ok {
			stats = append(stats, exam.SubjectStats{
				SubjectID:   row.SubjectID,
				SubjectName: row.SubjectName,
				Topics:      make([]exam.TopicStats, 0),
			})
			i = len(stats) - 1
			idx[row.SubjectID] = i
		}
		stats[i].Topics = append(stats[i].Topics, exam.TopicStats{
			TopicID:   row.TopicID,
			TopicName: row.TopicName,
			Completed: row.Completed,
			Total:     row.Total,
		})
		stats[i].Completed += row.Completed
		stats[i].Total += row.Total
	}
	return stats, nil
}

// searchCursor is the decoded keyset position of the last row of a page.
// Serialized as JSON and base64-encoded so callers treat it as opaque; JSON
// keeps the fields intact whatever characters a paper name carries.
type searchCursor struct {
	Year   int    `json:"y"`
	Paper  string `json:"p"`
	Number int    `json:"n"`
	ID     string `json:"id"`
}

func encodeCursor(q exam.Question) string {
	raw, _ := json.Marshal(searchCursor{Year: q.Year, Paper: q.Paper, Number: q.Number, ID: q.ID})
	return base64.RawURLEncoding.EncodeToString(raw)
}

// decodeCursor parses an opaque cursor. Malformed cursors are treated as
// absent so a stale or tampered cursor degrades to the first page.
func decodeCursor(s string) (searchCursor, bool) {
	if s == "" {
		return searchCursor{}, false
	}
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return searchCursor{}, false
	}
	var cur searchCursor
	if err := json.Unmarshal(raw, &cur); err != nil {
		return searchCursor{}, false
	}
	if !validUUID(cur.ID) {
		return searchCursor{}, false
	}
	return cur, true
}
