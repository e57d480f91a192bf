package grind

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/prepdesk/prepdesk/core"
	"github.com/prepdesk/prepdesk/core/user"
)

type (
	fakeMail struct {
		sent []*core.EmailMessage
	}

	fakeRepo struct {
		grinds        map[string]Grind
		registrations map[string]Registration
		due           []Reminder
		markedSent    []string
	}
)

func (m *fakeMail) SendMessages(messages ...*core.EmailMessage) {
	m.sent = append(m.sent, messages...)
}

func newFakeRepo(grinds ...Grind) *fakeRepo {
	r := &fakeRepo{
		grinds:        make(map[string]Grind),
		registrations: make(map[string]Registration),
	}
	for _, g := range grinds {
		r.grinds[g.ID] = g
	}
	return r
}

func (r *fakeRepo) QueryUpcomingGrinds(ctx context.Context, after time.Time, subjectID string) ([]Grind, error) {
	var grinds []Grind
	for _, g := range r.grinds {
		if g.StartsAt.After(after) && (subjectID == "" || g.SubjectID == subjectID) {
			grinds = append(grinds, g)
		}
	}
	return grinds, nil
}

func (r *fakeRepo) GetGrindByID(ctx context.Context, id string) (Grind, error) {
	g, ok := r.grinds[id]
	if !ok {
		return Grind{}, ErrNotFound
	}
	return g, nil
}

func (r *fakeRepo) CreateRegistration(ctx context.Context, reg Registration) error {
	key := reg.GrindID + "|" + reg.UserID
	if _, ok := r.registrations[key]; ok {
		return ErrAlreadyRegistered
	}
	g := r.grinds[reg.GrindID]
	if g.Full() {
		return ErrFull
	}
	r.registrations[key] = reg
	g.Registered++
	r.grinds[g.ID] = g
	return nil
}

func (r *fakeRepo) DeleteRegistration(ctx context.Context, grindID, userID string) error {
	delete(r.registrations, grindID+"|"+userID)
	return nil
}

func (r *fakeRepo) QueryUserRegistrations(ctx context.Context, userID string) ([]Registration, error) {
	var regs []Registration
	for _, reg := range r.registrations {
		if reg.UserID == userID {
			regs = append(regs, reg)
		}
	}
	return regs, nil
}

func (r *fakeRepo) QueryDueReminders(ctx context.Context, after, until time.Time) ([]Reminder, error) {
	return r.due, nil
}

func (r *fakeRepo) MarkReminderSent(ctx context.Context, grindID, userID string) error {
	r.markedSent = append(r.markedSent, grindID+"|"+userID)
	return nil
}

func mockNow(t *testing.T, now time.Time) {
	orig := nowFunc
	nowFunc = func() time.Time { return now }
	t.Cleanup(func() { nowFunc = orig })
}

func TestService_Register(t *testing.T) {
	now := time.Date(2026, 5, 20, 10, 0, 0, 0, time.UTC)
	mockNow(t, now)

	usr := user.User{ID: "u1", Name: "Jess Murphy", Email: "jess@test.com"}
	upcoming := Grind{ID: "g1", SubjectID: "s1", Title: "Paper 1 Revision", StartsAt: now.Add(48 * time.Hour), Capacity: 2}
	full := Grind{ID: "g2", SubjectID: "s1", Title: "Full House", StartsAt: now.Add(24 * time.Hour), Capacity: 1, Registered: 1}
	started := Grind{ID: "g3", SubjectID: "s1", Title: "Already Started", StartsAt: now.Add(-time.Hour), Capacity: 0}

	tests := []struct {
		name    string
		grindID string
		repeat  bool
		wantErr error
	}{
		{name: "ok", grindID: "g1"},
		{name: "unknown grind", grindID: "nope", wantErr: ErrNotFound},
		{name: "full grind", grindID: "g2", wantErr: ErrFull},
		{name: "already started", grindID: "g3", wantErr: ErrAlreadyStarted},
		{name: "duplicate registration", grindID: "g1", repeat: true, wantErr: ErrAlreadyRegistered},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeRepo(upcoming, full, started)
			mail := new(fakeMail)
			svc := NewService(repo, mail)

			ctx := context.Background()
			if tt.repeat {
				_, err := svc.Register(ctx, usr, tt.grindID)
				assert.NoError(t, err)
			}

			g, err := svc.Register(ctx, usr, tt.grindID)
			if tt.wantErr != nil {
				if tt.wantErr == ErrNotFound {
					assert.Equal(t, ErrNotFound, err)
				} else {
					vErr, ok := err.(*core.ValidationError)
					if assert.True(t, ok, "want ValidationError, got %v", err) {
						assert.Equal(t, tt.wantErr, vErr.Err)
					}
				}
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, 1, g.Registered)
			if assert.Len(t, mail.sent, 1) {
				assert.Equal(t, "grind_confirmation", mail.sent[0].TemplateName)
				assert.Equal(t, usr.Email, mail.sent[0].To[0].Address)
			}
		})
	}
}

func TestService_Unregister_isIdempotent(t *testing.T) {
	now := time.Date(2026, 5, 20, 10, 0, 0, 0, time.UTC)
	mockNow(t, now)

	usr := user.User{ID: "u1", Name: "Jess Murphy", Email: "jess@test.com"}
	repo := newFakeRepo(Grind{ID: "g1", StartsAt: now.Add(time.Hour), Capacity: 5})
	svc := NewService(repo, new(fakeMail))

	ctx := context.Background()
	_, err := svc.Register(ctx, usr, "g1")
	assert.NoError(t, err)

	assert.NoError(t, svc.Unregister(ctx, usr, "g1"))
	assert.NoError(t, svc.Unregister(ctx, usr, "g1")) // second time is a no-op
	assert.Equal(t, ErrNotFound, svc.Unregister(ctx, usr, "nope"))
}

func TestService_SendDueReminders(t *testing.T) {
	now := time.Date(2026, 5, 20, 10, 0, 0, 0, time.UTC)
	mockNow(t, now)

	g := Grind{ID: "g1", Title: "Starting Soon", StartsAt: now.Add(2 * time.Hour)}
	repo := newFakeRepo(g)
	repo.due = []Reminder{
		{Grind: g, UserID: "u1", Name: "Jess Murphy", Email: "jess@test.com"},
		{Grind: g, UserID: "u2", Name: "Sam Byrne", Email: "sam@test.com"},
	}
	mail := new(fakeMail)
	svc := NewService(repo, mail)

	sent, err := svc.SendDueReminders(context.Background(), 24*time.Hour)
	assert.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.Len(t, mail.sent, 2)
	assert.Equal(t, []string{"g1|u1", "g1|u2"}, repo.markedSent)
	for _, msg := range mail.sent {
		assert.Equal(t, "grind_reminder", msg.TemplateName)
	}
}

func TestGrind_Full(t *testing.T) {
	assert.False(t, Grind{Capacity: 0, Registered: 100}.Full(), "zero capacity means unlimited")
	assert.False(t, Grind{Capacity: 10, Registered: 9}.Full())
	assert.True(t, Grind{Capacity: 10, Registered: 10}.Full())
}
