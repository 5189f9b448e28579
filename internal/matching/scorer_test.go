package matching

import (
	"math/rand"
	"testing"

	"github.com/onhighmng/melhor-saude-backend/internal/models"
)

func TestMatchScoreStaysBounded(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	priorities := []string{models.PriorityLow, models.PriorityNormal, models.PriorityHigh, models.PriorityUrgent}
	languages := []string{"pt", "en", "es"}

	for i := 0; i < 2000; i++ {
		p := models.Provider{
			ID:              "p1",
			Pillars:         []string{"legal"},
			Specializations: []string{"legal", "financial"}[:rng.Intn(3)],
			Languages:       languages[:rng.Intn(4)],
			Rating:          rng.Float64() * 5,
			TotalSessions:   rng.Intn(500),
			YearsExperience: rng.Intn(40),
			SessionType:     []string{models.SessionTypeVirtual, models.SessionTypeInPerson, models.SessionTypeBoth}[rng.Intn(3)],
		}
		c := models.Case{
			ID:       "c1",
			Pillar:   "legal",
			Priority: priorities[rng.Intn(len(priorities))],
		}
		if rng.Intn(2) == 0 {
			c.Preferences = &models.UserPreferences{
				Language:    languages[rng.Intn(len(languages))],
				SessionType: []string{models.SessionTypeVirtual, models.SessionTypeInPerson}[rng.Intn(2)],
			}
		}

		score, reasons := MatchScore(p, c)
		score, reasons = ApplyAvailability(score, reasons, rng.Intn(2) == 0)
		if score < 0 || score > 1 {
			t.Fatalf("score %f out of [0,1] for provider %+v case %+v", score, p, c)
		}
		if len(reasons) == 0 {
			t.Fatalf("expected at least the pillar reason")
		}
	}
}

func TestMatchScoreCapsFullHouse(t *testing.T) {
	p := models.Provider{
		ID:              "p1",
		Pillars:         []string{"psychological"},
		Specializations: []string{"psychological"},
		Languages:       []string{"pt"},
		Rating:          5,
		TotalSessions:   200,
		YearsExperience: 15,
		SessionType:     models.SessionTypeBoth,
	}
	c := models.Case{
		ID:       "c1",
		Pillar:   "psychological",
		Priority: models.PriorityUrgent,
		Preferences: &models.UserPreferences{
			Language:    "pt",
			SessionType: models.SessionTypeVirtual,
		},
	}

	raw, reasons := MatchScore(p, c)
	if raw <= 1.0 {
		t.Fatalf("expected raw sum above 1.0 when every signal applies, got %f", raw)
	}
	capped, _ := ApplyAvailability(raw, reasons, false)
	if capped != 1.0 {
		t.Fatalf("expected cap to 1.0, got %f", capped)
	}
}

func TestAvailabilityDiscountAppliesBeforeCap(t *testing.T) {
	score, reasons := ApplyAvailability(0.9, []string{"Pilar legal compatível"}, true)
	if score != 0.45 {
		t.Fatalf("expected 0.9 discounted to exactly 0.45, got %f", score)
	}
	if reasons[len(reasons)-1] != ReasonLimitedAvailability {
		t.Fatalf("expected limited availability reason appended last, got %v", reasons)
	}
}

func TestAvailabilityNoDiscountWhenFree(t *testing.T) {
	score, reasons := ApplyAvailability(0.9, nil, false)
	if score != 0.9 {
		t.Fatalf("expected score untouched, got %f", score)
	}
	if len(reasons) != 0 {
		t.Fatalf("expected no reason appended, got %v", reasons)
	}
}

func TestEstimateResponseMinutesFloor(t *testing.T) {
	p := models.Provider{Rating: 5, YearsExperience: 20, TotalSessions: 500}
	c := models.Case{Priority: models.PriorityUrgent}
	if got := EstimateResponseMinutes(p, c); got != 5 {
		t.Fatalf("expected floor of 5 minutes, got %d", got)
	}
}

func TestEstimateResponseMinutesAdjustments(t *testing.T) {
	tests := []struct {
		name string
		p    models.Provider
		c    models.Case
		want int
	}{
		{"baseline", models.Provider{Rating: 4.0}, models.Case{Priority: models.PriorityNormal}, 30},
		{"low rating penalty", models.Provider{Rating: 3.0}, models.Case{Priority: models.PriorityNormal}, 45},
		{"high rating and experience", models.Provider{Rating: 4.8, YearsExperience: 6}, models.Case{Priority: models.PriorityNormal}, 15},
		{"high priority", models.Provider{Rating: 4.0}, models.Case{Priority: models.PriorityHigh}, 20},
		{"seasoned under urgency", models.Provider{Rating: 4.0, TotalSessions: 150}, models.Case{Priority: models.PriorityUrgent}, 10},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := EstimateResponseMinutes(tc.p, tc.c); got != tc.want {
				t.Fatalf("expected %d minutes, got %d", tc.want, got)
			}
		})
	}
}

func TestPreferenceReasonsAndBonuses(t *testing.T) {
	p := models.Provider{
		ID:          "p1",
		Pillars:     []string{"psychological"},
		Languages:   []string{"en", "pt"},
		SessionType: models.SessionTypeBoth,
	}
	c := models.Case{
		ID:     "c1",
		Pillar: "psychological",
		Preferences: &models.UserPreferences{
			Language:    "en",
			SessionType: models.SessionTypeVirtual,
		},
	}

	score, reasons := MatchScore(p, c)
	if score < 0.5 {
		t.Fatalf("expected pillar + language + session bonuses to reach at least 0.5, got %f", score)
	}
	if !containsReason(reasons, "Idioma compatível") {
		t.Fatalf("expected language reason, got %v", reasons)
	}
	if !containsReason(reasons, "Tipo de sessão compatível") {
		t.Fatalf("expected session type reason, got %v", reasons)
	}
}

func TestServesPillarIsCaseInsensitive(t *testing.T) {
	p := models.Provider{Pillars: []string{"Legal", " financial "}}
	if !ServesPillar(p, "legal") {
		t.Fatalf("expected legal pillar match")
	}
	if !ServesPillar(p, "financial") {
		t.Fatalf("expected trimmed financial pillar match")
	}
	if ServesPillar(p, "physical") {
		t.Fatalf("did not expect physical pillar match")
	}
}

func containsReason(reasons []string, want string) bool {
	for _, r := range reasons {
		if r == want {
			return true
		}
	}
	return false
}
