package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"kam-backend/controllers"
	"kam-backend/models"

	"github.com/robfig/cron/v3"
)

const scanTimeout = 5 * time.Minute

// DueFinder lists the leads whose next interaction is due.
type DueFinder interface {
	DueLeads(ctx context.Context) ([]models.DueLead, error)
}

type Broadcaster interface {
	Broadcast(event string, payload interface{})
}

// Scheduler runs the periodic interaction-due scan and pushes the result to dashboards.
type Scheduler struct {
	cron   *cron.Cron
	finder DueFinder
	out    Broadcaster
	logger *log.Logger
}

func NewScheduler(finder DueFinder, out Broadcaster, logger *log.Logger) *Scheduler {
	if logger == nil {
		logger = log.Default()
	}
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		finder: finder,
		out:    out,
		logger: logger,
	}
}

// Setup registers the due scan on expr, a standard five-field cron expression.
func (s *Scheduler) Setup(expr string) error {
	_, err := s.cron.AddFunc(expr, func() {
		ctx, cancel := context.WithTimeout(context.Background(), scanTimeout)
		defer cancel()
		if _, err := s.RunOnce(ctx); err != nil {
			s.logger.Printf("interaction-due scan failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule interaction-due scan %q: %w", expr, err)
	}
	return nil
}

// RunOnce scans for due leads and broadcasts them when there are any.
func (s *Scheduler) RunOnce(ctx context.Context) ([]models.DueLead, error) {
	due, err := s.finder.DueLeads(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Printf("interaction-due scan: %d lead(s) due", len(due))
	if len(due) > 0 && s.out != nil {
		s.out.Broadcast(controllers.EventInteractionDue, due)
	}
	return due, nil
}

func (s *Scheduler) Start() {
	s.logger.Println("starting scheduler")
	s.cron.Start()
}

// Stop halts the scheduler and waits for a running scan to finish.
func (s *Scheduler) Stop() {
	s.logger.Println("stopping scheduler")
	<-s.cron.Stop().Done()
}
