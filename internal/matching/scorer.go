package matching

import (
	"fmt"
	"strings"
	"time"

	"github.com/onhighmng/melhor-saude-backend/internal/models"
)

const (
	weightPillar      = 0.30
	weightRating      = 0.20
	weightExperience  = 0.15
	weightSessions    = 0.10
	weightLanguage    = 0.10
	weightSessionType = 0.10
	weightSpecialty   = 0.05
	weightUrgent      = 0.10

	ratingScale       = 5.0
	experienceCapYrs  = 10.0
	sessionVolumeCap  = 100.0
	availabilityCut   = 0.5
	busyBookingsLimit = 3

	// AvailabilityWindow is how far ahead near-term bookings count
	// against a provider.
	AvailabilityWindow = 2 * time.Hour

	// ViabilityFloor is the minimum match score a candidate needs to
	// stay in the ranking.
	ViabilityFloor = 0.3

	baseResponseMinutes = 30
	minResponseMinutes  = 5
)

const ReasonLimitedAvailability = "disponibilidade limitada"

// MatchScore computes the raw weighted score for one provider against one
// case, before the availability penalty and the final cap. Reasons come back
// in signal evaluation order.
func MatchScore(p models.Provider, c models.Case) (float64, []string) {
	score := 0.0
	var reasons []string

	// Candidate sets are pre-filtered by pillar, so compatibility always holds.
	score += weightPillar
	reasons = append(reasons, fmt.Sprintf("Pilar %s compatível", c.Pillar))

	if p.Rating > 0 {
		score += (p.Rating / ratingScale) * weightRating
		reasons = append(reasons, fmt.Sprintf("Avaliação %.1f de 5", p.Rating))
	}

	if p.YearsExperience > 0 {
		years := float64(p.YearsExperience)
		if years > experienceCapYrs {
			years = experienceCapYrs
		}
		score += (years / experienceCapYrs) * weightExperience
		reasons = append(reasons, fmt.Sprintf("%d anos de experiência", p.YearsExperience))
	}

	if p.TotalSessions > 0 {
		sessions := float64(p.TotalSessions)
		if sessions > sessionVolumeCap {
			sessions = sessionVolumeCap
		}
		score += (sessions / sessionVolumeCap) * weightSessions
		reasons = append(reasons, fmt.Sprintf("%d sessões realizadas", p.TotalSessions))
	}

	if prefersLanguage(c) && speaksLanguage(p, c.Preferences.Language) {
		score += weightLanguage
		reasons = append(reasons, "Idioma compatível")
	}

	if sessionTypeMatches(p, c) {
		score += weightSessionType
		reasons = append(reasons, "Tipo de sessão compatível")
	}

	if hasSpecialty(p.Specializations, c.Pillar) {
		score += weightSpecialty
		reasons = append(reasons, fmt.Sprintf("Especialista em %s", c.Pillar))
	}

	if c.Priority == models.PriorityUrgent {
		score += weightUrgent
		reasons = append(reasons, "Prioridade urgente")
	}

	return score, reasons
}

// ApplyAvailability discounts a raw score for a busy provider and then caps
// the result to 1.0. The cap binds strictly after the discount.
func ApplyAvailability(score float64, reasons []string, busy bool) (float64, []string) {
	if busy {
		score *= availabilityCut
		reasons = append(reasons, ReasonLimitedAvailability)
	}
	if score > 1.0 {
		score = 1.0
	}
	return score, reasons
}

// EstimateResponseMinutes predicts how quickly the provider is likely to
// react, floored at five minutes.
func EstimateResponseMinutes(p models.Provider, c models.Case) int {
	minutes := baseResponseMinutes

	if p.Rating >= 4.5 {
		minutes -= 10
	} else if p.Rating < 3.5 {
		minutes += 15
	}
	if p.YearsExperience >= 5 {
		minutes -= 5
	}
	switch c.Priority {
	case models.PriorityUrgent:
		minutes -= 15
	case models.PriorityHigh:
		minutes -= 10
	}
	if p.TotalSessions >= 100 {
		minutes -= 5
	}

	if minutes < minResponseMinutes {
		minutes = minResponseMinutes
	}
	return minutes
}

func ServesPillar(p models.Provider, pillar string) bool {
	for _, candidate := range p.Pillars {
		if strings.EqualFold(strings.TrimSpace(candidate), strings.TrimSpace(pillar)) {
			return true
		}
	}
	return false
}

func prefersLanguage(c models.Case) bool {
	return c.Preferences != nil && strings.TrimSpace(c.Preferences.Language) != ""
}

func speaksLanguage(p models.Provider, language string) bool {
	for _, l := range p.Languages {
		if strings.EqualFold(strings.TrimSpace(l), strings.TrimSpace(language)) {
			return true
		}
	}
	return false
}

func sessionTypeMatches(p models.Provider, c models.Case) bool {
	if p.SessionType == models.SessionTypeBoth {
		return true
	}
	if c.Preferences == nil || c.Preferences.SessionType == "" {
		return false
	}
	return strings.EqualFold(p.SessionType, c.Preferences.SessionType)
}

func hasSpecialty(specializations []string, pillar string) bool {
	for _, s := range specializations {
		if strings.EqualFold(strings.TrimSpace(s), strings.TrimSpace(pillar)) {
			return true
		}
	}
	return false
}
