package inmem

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/prepdesk/prepdesk/core/grind"
)

// GrindRepository is a map-backed grind.Repository for tests and local runs.
// Reminder queries join against the user repository it is built with.
type GrindRepository struct {
	mu            sync.RWMutex
	grinds        map[string]grind.Grind
	registrations map[string]grind.Registration // grind ID + "|" + user ID
	users         *UserRepository
}

var _ grind.Repository = (*GrindRepository)(nil) // interface compliance check

func NewGrindRepository(users *UserRepository) *GrindRepository {
	return &GrindRepository{
		grinds:        make(map[string]grind.Grind),
		registrations: make(map[string]grind.Registration),
		users:         users,
	}
}

func (repo *GrindRepository) SeedGrind(g grind.Grind) grind.Grind {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	repo.grinds[g.ID] = g
	return g
}

func (repo *GrindRepository) QueryUpcomingGrinds(ctx context.Context, after time.Time, subjectID string) ([]grind.Grind, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	grinds := make([]grind.Grind, 0)
	for _, g := range repo.grinds {
		if !g.StartsAt.After(after) {
			continue
		}
		if subjectID != "" && g.SubjectID != subjectID {
			continue
		}
		grinds = append(grinds, g)
	}
	sort.Slice(grinds, func(i, j int) bool {
		if grinds[i].StartsAt.Equal(grinds[j].StartsAt) {
			return grinds[i].ID < grinds[j].ID
		}
		return grinds[i].StartsAt.Before(grinds[j].StartsAt)
	})
	return grinds, nil
}

func (repo *GrindRepository) GetGrindByID(ctx context.Context, id string) (grind.Grind, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	g, ok := repo.grinds[id]
	if !ok {
		return grind.Grind{}, grind.ErrNotFound
	}
	return g, nil
}

func (repo *GrindRepository) CreateRegistration(ctx context.Context, reg grind.Registration) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	g, ok := repo.grinds[reg.GrindID]
	if !ok {
		return grind.ErrNotFound
	}
	key := regKey(reg.GrindID, reg.UserID)
	if _, exists := repo.registrations[key]; exists {
		return grind.ErrAlreadyRegistered
	}
	if g.Full() {
		return grind.ErrFull
	}

	repo.registrations[key] = reg
	g.Registered++
	repo.grinds[g.ID] = g
	return nil
}

func (repo *GrindRepository) DeleteRegistration(ctx context.Context, grindID, userID string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	key := regKey(grindID, userID)
	if _, exists := repo.registrations[key]; !exists {
		return nil
	}
	delete(repo.registrations, key)

	if g, ok := repo.grinds[grindID]; ok && g.Registered > 0 {
		g.Registered--
		repo.grinds[grindID] = g
	}
	return nil
}

func (repo *GrindRepository) QueryUserRegistrations(ctx context.Context, userID string) ([]grind.Registration, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	regs := make([]grind.Registration, 0)
	for _, reg := range repo.registrations {
		if reg.UserID == userID {
			regs = append(regs, reg)
		}
	}
	sort.Slice(regs, func(i, j int) bool { return regs[i].CreatedAt.Before(regs[j].CreatedAt) })
	return regs, nil
}

func (repo *GrindRepository) QueryDueReminders(ctx context.Context, after, until time.Time) ([]grind.Reminder, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	reminders := make([]grind.Reminder, 0)
	for _, reg := range repo.registrations {
		if reg.ReminderSent {
			continue
		}
		g, ok := repo.grinds[reg.GrindID]
		if !ok || !g.StartsAt.After(after) || g.StartsAt.After(until) {
			continue
		}

		rem := grind.Reminder{Grind: g, UserID: reg.UserID}
		if repo.users != nil {
			if usr, err := repo.users.GetUserByID(ctx, reg.UserID); err == nil {
				rem.Name = usr.Name
				rem.Email = usr.Email
			}
		}
		reminders = append(reminders, rem)
	}
	sort.Slice(reminders, func(i, j int) bool {
		if reminders[i].Grind.StartsAt.Equal(reminders[j].Grind.StartsAt) {
			return reminders[i].UserID < reminders[j].UserID
		}
		return reminders[i].Grind.StartsAt.Before(reminders[j].Grind.StartsAt)
	})
	return reminders, nil
}

func (repo *GrindRepository) MarkReminderSent(ctx context.Context, grindID, userID string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	key := regKey(grindID, userID)
	if reg, ok := repo.registrations[key]; ok {
		reg.ReminderSent = true
		repo.registrations[key] = reg
	}
	return nil
}

func regKey(grindID, userID string) string {
	return grindID + "|" + userID
}
