package schedulersvc

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/prepdesk/prepdesk/core"
	"github.com/prepdesk/prepdesk/core/grind"
)

// Scheduler runs the application's periodic jobs.
type Scheduler struct {
	scheduler *gocron.Scheduler
	grindSvc  *grind.Service
	logger    core.Logger
}

func New(grindSvc *grind.Service, logger core.Logger) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		grindSvc:  grindSvc,
		logger:    logger,
	}
}

// Start schedules all jobs and runs them in the background.
func (s *Scheduler) Start() {
	_, _ = s.scheduler.Every(1).Hour().Do(s.sendGrindReminders)
	s.scheduler.StartAsync()
}

func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

func (s *Scheduler) sendGrindReminders() {
	sent, err := s.grindSvc.SendDueReminders(context.Background(), core.Conf.GrindReminderWindow)
	if err != nil {
		s.logger.Error(fmt.Sprintf("sending grind reminders: %v", err), err)
		return
	}
	if sent > 0 {
		s.logger.Info(fmt.Sprintf("sent %d grind reminders", sent))
	}
}
