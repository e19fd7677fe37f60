// Package model defines the value types shared across the data ops
// pipelines. All types here are plain values; ownership of persistence
// stays with the store layer.
package model

import "time"

// Company is a canonical company record scoped to a workspace.
type Company struct {
	ID          int64     `json:"id"`
	WorkspaceID string    `json:"workspace_id"`
	Name        string    `json:"name"`
	Domain      string    `json:"domain,omitempty"`
	Website     string    `json:"website,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
	UpdatedAt   time.Time `json:"updated_at,omitempty"`
}

// EngagementStage tracks how far a contact has progressed in outreach.
// Stages are ordered; see Rank.
type EngagementStage string

const (
	StageUncontacted EngagementStage = "uncontacted"
	StageContacted   EngagementStage = "contacted"
	StageEngaged     EngagementStage = "engaged"
	StageOpportunity EngagementStage = "opportunity"
)

var stageRank = map[EngagementStage]int{
	StageUncontacted: 0,
	StageContacted:   1,
	StageEngaged:     2,
	StageOpportunity: 3,
}

// Rank returns the ordinal position of the stage. Unknown stages rank
// alongside uncontacted.
func (s EngagementStage) Rank() int {
	return stageRank[s]
}

// EarlierThan reports whether s comes before other in the outreach funnel.
func (s EngagementStage) EarlierThan(other EngagementStage) bool {
	return s.Rank() < other.Rank()
}

// Person is a contact at a company. Emails holds every known address
// (work, personal, secondary) and is the primary identity-linking key.
type Person struct {
	ID          int64           `json:"id"`
	WorkspaceID string          `json:"workspace_id"`
	CompanyID   int64           `json:"company_id,omitempty"`
	FullName    string          `json:"full_name"`
	Title       string          `json:"title,omitempty"`
	Emails      []string        `json:"emails,omitempty"`
	Stage       EngagementStage `json:"stage,omitempty"`
}

// Lead is an imported, not-yet-resolved contact row (from an XLSX/CSV
// list or an enrichment export). Company references are free text until
// resolution links them to a Company record.
type Lead struct {
	FullName    string `json:"full_name"`
	Title       string `json:"title,omitempty"`
	Email       string `json:"email,omitempty"`
	CompanyName string `json:"company_name,omitempty"`
	Website     string `json:"website,omitempty"`
}

// EmailMessage is an inbound/outbound message pending attribution to a
// person and company.
type EmailMessage struct {
	ID          int64     `json:"id"`
	WorkspaceID string    `json:"workspace_id"`
	FromAddress string    `json:"from_address"`
	FromName    string    `json:"from_name,omitempty"`
	PersonID    *int64    `json:"person_id,omitempty"`
	CompanyID   *int64    `json:"company_id,omitempty"`
	ReceivedAt  time.Time `json:"received_at,omitempty"`
}

// MergeSuggestion records a probable duplicate company pair found by the
// dedupe scan, with the match mechanism and confidence retained for review.
type MergeSuggestion struct {
	RunID       string  `json:"run_id"`
	WorkspaceID string  `json:"workspace_id"`
	CompanyID   int64   `json:"company_id"`
	DuplicateID int64   `json:"duplicate_id"`
	MatchType   string  `json:"match_type"`
	Confidence  float64 `json:"confidence"`
}
