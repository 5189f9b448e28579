package models

import "time"

const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

const (
	CaseTypeEscalatedChat  = "escalated_chat"
	CaseTypeSessionRequest = "session_request"
	CaseTypeFollowUp       = "follow_up"
)

const (
	SessionTypeVirtual  = "virtual"
	SessionTypeInPerson = "in_person"
	SessionTypeBoth     = "both"
)

const (
	LogStatusAssigned = "assigned"
	LogStatusAccepted = "accepted"
	LogStatusDeclined = "declined"
	LogStatusTimeout  = "timeout"
)

const (
	MethodAutomatic  = "automatic"
	MethodReassigned = "case_reassigned"
)

type Provider struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Pillars         []string  `json:"pillars"`
	Specializations []string  `json:"specializations"`
	Languages       []string  `json:"languages"`
	Rating          float64   `json:"rating"`
	TotalSessions   int       `json:"total_sessions"`
	YearsExperience int       `json:"years_experience"`
	SessionType     string    `json:"session_type"`
	Active          bool      `json:"active"`
	Approved        bool      `json:"approved"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type UserPreferences struct {
	Language       string `json:"language,omitempty"`
	SessionType    string `json:"session_type,omitempty"`
	TimePreference string `json:"time_preference,omitempty"`
}

type CaseDetails struct {
	Description      string  `json:"description,omitempty"`
	UrgencyLevel     string  `json:"urgency_level,omitempty"`
	PreviousSessions int     `json:"previous_sessions"`
	UserRating       float64 `json:"user_rating,omitempty"`
}

type Case struct {
	ID          string           `json:"id"`
	UserID      string           `json:"user_id"`
	Pillar      string           `json:"pillar"`
	Priority    string           `json:"priority"`
	CaseType    string           `json:"case_type"`
	Preferences *UserPreferences `json:"preferences,omitempty"`
	Details     CaseDetails      `json:"details"`
	CreatedAt   time.Time        `json:"created_at"`
}

// CaseRecord is the persisted shape a case is rebuilt from during
// reassignment; the original priority and preferences may be gone by then.
type CaseRecord struct {
	ID                string    `json:"id"`
	UserID            string    `json:"user_id"`
	Pillar            string    `json:"pillar"`
	Priority          string    `json:"priority"`
	CaseType          string    `json:"case_type"`
	PreferredLanguage string    `json:"preferred_language"`
	PreferredSession  string    `json:"preferred_session"`
	Description       string    `json:"description"`
	UrgencyLevel      string    `json:"urgency_level"`
	PreviousSessions  int       `json:"previous_sessions"`
	CreatedAt         time.Time `json:"created_at"`
}

type AssignmentResult struct {
	ProviderID       string   `json:"provider_id"`
	MatchScore       float64  `json:"match_score"`
	Reasons          []string `json:"reasons"`
	EstimatedMinutes int      `json:"estimated_response_minutes"`
}

type AssignmentLog struct {
	ID         string    `json:"id"`
	CaseID     string    `json:"case_id"`
	ProviderID *string   `json:"provider_id"`
	MatchScore float64   `json:"match_score"`
	Method     string    `json:"method"`
	Reason     string    `json:"reason,omitempty"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

type AssignmentNotification struct {
	CaseID   string `json:"case_id"`
	Pillar   string `json:"pillar"`
	Priority string `json:"priority"`
	CaseType string `json:"case_type"`
}

type ProviderStats struct {
	ProviderID     string  `json:"provider_id"`
	WindowDays     int     `json:"window_days"`
	TotalAssigned  int     `json:"total_assigned"`
	Accepted       int     `json:"accepted"`
	Declined       int     `json:"declined"`
	TimedOut       int     `json:"timed_out"`
	AcceptanceRate float64 `json:"acceptance_rate"`
	AvgMatchScore  float64 `json:"avg_match_score"`
}
