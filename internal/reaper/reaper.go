package reaper

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/onhighmng/melhor-saude-backend/internal/models"
)

type StaleAssignmentStore interface {
	ListStaleAssignments(ctx context.Context, olderThan time.Duration) ([]models.AssignmentLog, error)
	ResolveAssignment(ctx context.Context, caseID string, status string) error
}

type Reassigner interface {
	ReassignCase(ctx context.Context, caseID string, reason string) *models.AssignmentResult
}

// Reaper periodically expires assignments that were never accepted and
// hands the case back for reassignment. The matching core itself tracks no
// elapsed time; this is the external timeout trigger.
type Reaper struct {
	Store         StaleAssignmentStore
	Assigner      Reassigner
	AcceptTimeout time.Duration
	Logger        zerolog.Logger

	cron *cron.Cron
}

func (r *Reaper) Start(interval time.Duration) error {
	r.cron = cron.New()
	spec := fmt.Sprintf("@every %s", interval)
	if _, err := r.cron.AddFunc(spec, r.Sweep); err != nil {
		return err
	}
	r.cron.Start()
	r.Logger.Info().Dur("interval", interval).Dur("accept_timeout", r.AcceptTimeout).Msg("timeout reaper started")
	return nil
}

func (r *Reaper) Stop() {
	if r.cron != nil {
		<-r.cron.Stop().Done()
	}
}

func (r *Reaper) Sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	stale, err := r.Store.ListStaleAssignments(ctx, r.AcceptTimeout)
	if err != nil {
		r.Logger.Error().Err(err).Msg("stale assignment scan failed")
		return
	}

	for _, entry := range stale {
		if err := r.Store.ResolveAssignment(ctx, entry.CaseID, models.LogStatusTimeout); err != nil {
			r.Logger.Error().Err(err).Str("case_id", entry.CaseID).Msg("failed to expire assignment")
			continue
		}
		r.Logger.Info().Str("case_id", entry.CaseID).Msg("assignment timed out, reassigning")
		r.Assigner.ReassignCase(ctx, entry.CaseID, models.LogStatusTimeout)
	}
}
