package matching

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/onhighmng/melhor-saude-backend/internal/models"
)

type ProviderDirectory interface {
	ListEligibleProviders(ctx context.Context) ([]models.Provider, error)
	CountNearTermBookings(ctx context.Context, providerID string, within time.Duration) (int, error)
}

type CaseRepository interface {
	GetCaseByID(ctx context.Context, caseID string) (models.CaseRecord, error)
}

type AuditSink interface {
	AppendLog(ctx context.Context, entry models.AssignmentLog) error
	ListLogs(ctx context.Context, since time.Time) ([]models.AssignmentLog, error)
	ProviderLogs(ctx context.Context, providerID string, since time.Time) ([]models.AssignmentLog, error)
}

type Notifier interface {
	NotifyAssignment(ctx context.Context, providerID string, n models.AssignmentNotification) error
}

// Service routes cases to providers. All collaborators are injected so tests
// can substitute fakes.
type Service struct {
	Providers ProviderDirectory
	Cases     CaseRepository
	Audit     AuditSink
	Notifier  Notifier
	Logger    zerolog.Logger
}

// AssignCase picks the best viable provider for the case and commits the
// assignment. A nil result means "could not assign" and is a normal outcome,
// not a fault: lookup failures, empty candidate sets, and sub-floor scores
// all land here. The audit write and the notification are best-effort.
func (s *Service) AssignCase(ctx context.Context, c models.Case) *models.AssignmentResult {
	providers, err := s.Providers.ListEligibleProviders(ctx)
	if err != nil {
		s.Logger.Error().Err(err).Str("case_id", c.ID).Msg("provider lookup failed")
		return nil
	}

	compatible := make([]models.Provider, 0, len(providers))
	for _, p := range providers {
		if ServesPillar(p, c.Pillar) {
			compatible = append(compatible, p)
		}
	}
	if len(compatible) == 0 {
		s.Logger.Info().Str("case_id", c.ID).Str("pillar", c.Pillar).Msg("no compatible providers")
		return nil
	}

	results := s.scoreAll(ctx, compatible, c)

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].MatchScore > results[j].MatchScore
	})

	viable := results[:0]
	for _, r := range results {
		if r.MatchScore >= ViabilityFloor {
			viable = append(viable, r)
		}
	}
	if len(viable) == 0 {
		s.Logger.Info().Str("case_id", c.ID).Msg("no candidate above viability floor")
		return nil
	}

	winner := viable[0]

	providerID := winner.ProviderID
	entry := models.AssignmentLog{
		ID:         uuid.NewString(),
		CaseID:     c.ID,
		ProviderID: &providerID,
		MatchScore: winner.MatchScore,
		Method:     models.MethodAutomatic,
		Status:     models.LogStatusAssigned,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.Audit.AppendLog(ctx, entry); err != nil {
		s.Logger.Error().Err(err).Str("case_id", c.ID).Msg("assignment log write failed")
	}

	notification := models.AssignmentNotification{
		CaseID:   c.ID,
		Pillar:   c.Pillar,
		Priority: c.Priority,
		CaseType: c.CaseType,
	}
	if err := s.Notifier.NotifyAssignment(ctx, winner.ProviderID, notification); err != nil {
		s.Logger.Error().Err(err).Str("provider_id", winner.ProviderID).Msg("assignment notify failed")
	}

	s.Logger.Info().
		Str("case_id", c.ID).
		Str("provider_id", winner.ProviderID).
		Float64("score", winner.MatchScore).
		Msg("case assigned")
	return &winner
}

// scoreAll fans the scoring out across providers and joins before ranking.
// Result order follows fetch order, so the later stable sort breaks ties
// deterministically. A failure scoring one provider drops that provider
// only, never the batch.
func (s *Service) scoreAll(ctx context.Context, providers []models.Provider, c models.Case) []models.AssignmentResult {
	scored := make([]*models.AssignmentResult, len(providers))
	var wg sync.WaitGroup
	for i := range providers {
		wg.Add(1)
		go func(i int, p models.Provider) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					s.Logger.Error().
						Str("provider_id", p.ID).
						Interface("panic", r).
						Msg("provider scoring failed, skipping candidate")
				}
			}()
			res := s.scoreProvider(ctx, p, c)
			scored[i] = &res
		}(i, providers[i])
	}
	wg.Wait()

	out := make([]models.AssignmentResult, 0, len(providers))
	for _, r := range scored {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out
}

func (s *Service) scoreProvider(ctx context.Context, p models.Provider, c models.Case) models.AssignmentResult {
	score, reasons := MatchScore(p, c)
	score, reasons = ApplyAvailability(score, reasons, s.isBusy(ctx, p.ID))
	return models.AssignmentResult{
		ProviderID:       p.ID,
		MatchScore:       score,
		Reasons:          reasons,
		EstimatedMinutes: EstimateResponseMinutes(p, c),
	}
}

// isBusy fails open: a broken availability check must never block every
// assignment, so errors count as "available".
func (s *Service) isBusy(ctx context.Context, providerID string) bool {
	count, err := s.Providers.CountNearTermBookings(ctx, providerID, AvailabilityWindow)
	if err != nil {
		s.Logger.Warn().Err(err).Str("provider_id", providerID).Msg("availability check failed, assuming available")
		return false
	}
	return count >= busyBookingsLimit
}

// ReassignCase re-runs assignment for a case after the assigned provider
// declined or timed out. Provider state and availability are re-read fresh,
// so a provider who just became unavailable scores lower on its own; the
// previous assignee is not excluded explicitly.
func (s *Service) ReassignCase(ctx context.Context, caseID string, reason string) *models.AssignmentResult {
	if reason != models.LogStatusDeclined && reason != models.LogStatusTimeout {
		s.Logger.Error().Str("case_id", caseID).Str("reason", reason).Msg("unknown reassignment reason")
		return nil
	}

	record, err := s.Cases.GetCaseByID(ctx, caseID)
	if err != nil {
		s.Logger.Error().Err(err).Str("case_id", caseID).Msg("case lookup failed, cannot reassign")
		return nil
	}

	entry := models.AssignmentLog{
		ID:        uuid.NewString(),
		CaseID:    caseID,
		Method:    models.MethodReassigned,
		Reason:    reason,
		Status:    reason,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Audit.AppendLog(ctx, entry); err != nil {
		s.Logger.Error().Err(err).Str("case_id", caseID).Msg("reassignment log write failed")
	}

	s.Logger.Info().Str("case_id", caseID).Str("reason", reason).Msg("reassigning case")
	return s.AssignCase(ctx, rebuildCase(record))
}

// rebuildCase reconstructs a scoring view of a case from its stored record.
// Fields the record no longer carries fall back to conservative defaults.
func rebuildCase(record models.CaseRecord) models.Case {
	priority := record.Priority
	if priority == "" {
		priority = models.PriorityNormal
	}
	caseType := record.CaseType
	if caseType == "" {
		caseType = models.CaseTypeEscalatedChat
	}

	var prefs *models.UserPreferences
	if record.PreferredLanguage != "" || record.PreferredSession != "" {
		prefs = &models.UserPreferences{
			Language:    record.PreferredLanguage,
			SessionType: record.PreferredSession,
		}
	}

	return models.Case{
		ID:          record.ID,
		UserID:      record.UserID,
		Pillar:      record.Pillar,
		Priority:    priority,
		CaseType:    caseType,
		Preferences: prefs,
		Details: models.CaseDetails{
			Description:      record.Description,
			UrgencyLevel:     record.UrgencyLevel,
			PreviousSessions: record.PreviousSessions,
		},
		CreatedAt: record.CreatedAt,
	}
}

// GetProviderStats aggregates a provider's audit trail over a trailing
// window. Failures degrade to a zeroed view.
func (s *Service) GetProviderStats(ctx context.Context, providerID string, days int) models.ProviderStats {
	stats := models.ProviderStats{ProviderID: providerID, WindowDays: days}

	since := time.Now().UTC().AddDate(0, 0, -days)
	logs, err := s.Audit.ProviderLogs(ctx, providerID, since)
	if err != nil {
		s.Logger.Error().Err(err).Str("provider_id", providerID).Msg("provider stats query failed")
		return stats
	}

	var scoreTotal float64
	for _, entry := range logs {
		stats.TotalAssigned++
		scoreTotal += entry.MatchScore
		switch entry.Status {
		case models.LogStatusAccepted:
			stats.Accepted++
		case models.LogStatusDeclined:
			stats.Declined++
		case models.LogStatusTimeout:
			stats.TimedOut++
		}
	}
	if stats.TotalAssigned > 0 {
		stats.AcceptanceRate = float64(stats.Accepted) / float64(stats.TotalAssigned)
		stats.AvgMatchScore = scoreTotal / float64(stats.TotalAssigned)
	}
	return stats
}

// GetAssignmentHistory lists audit entries within a trailing window, newest
// first. Failures degrade to an empty list.
func (s *Service) GetAssignmentHistory(ctx context.Context, days int) []models.AssignmentLog {
	since := time.Now().UTC().AddDate(0, 0, -days)
	logs, err := s.Audit.ListLogs(ctx, since)
	if err != nil {
		s.Logger.Error().Err(err).Msg("assignment history query failed")
		return []models.AssignmentLog{}
	}
	return logs
}
