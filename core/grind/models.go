package grind

import "time"

type (
	// Grind is a scheduled live tutoring session students can register for.
	Grind struct {
		ID         string    `json:"id"`
		SubjectID  string    `json:"subject_id"`
		Title      string    `json:"title"`
		Tutor      string    `json:"tutor"`
		StartsAt   time.Time `json:"starts_at"` // UTC
		DurationMn int       `json:"duration_minutes"`
		Capacity   int       `json:"capacity"`
		Registered int       `json:"registered"`
	}

	Registration struct {
		GrindID      string    `json:"grind_id"`
		UserID       string    `json:"user_id"`
		CreatedAt    time.Time `json:"created_at"` // UTC
		ReminderSent bool      `json:"-"`
	}

	// Reminder is a registration joined with the registrant's address, due
	// for a session-start reminder email.
	Reminder struct {
		Grind  Grind
		UserID string
		Name   string
		Email  string
	}
)

func (g Grind) EndsAt() time.Time {
	return g.StartsAt.Add(time.Duration(g.DurationMn) * time.Minute)
}

func (g Grind) Full() bool {
	return g.Capacity > 0 && g.Registered >= g.Capacity
}

func (g Grind) Started(now time.Time) bool {
	return !now.Before(g.StartsAt)
}
