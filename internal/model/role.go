package model

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// BuyerGroupRole categorizes a contact's function within a purchasing
// decision. The canonical storage form is lowercase snake_case; Label
// returns the display form.
type BuyerGroupRole string

const (
	RoleDecisionMaker BuyerGroupRole = "decision_maker"
	RoleChampion      BuyerGroupRole = "champion"
	RoleStakeholder   BuyerGroupRole = "stakeholder"
	RoleBlocker       BuyerGroupRole = "blocker"
	RoleIntroducer    BuyerGroupRole = "introducer"
)

// AllRoles lists every buyer group role in display order.
var AllRoles = []BuyerGroupRole{
	RoleDecisionMaker,
	RoleChampion,
	RoleStakeholder,
	RoleBlocker,
	RoleIntroducer,
}

var titleCaser = cases.Title(language.English)

// Label returns the human-readable display form of the role
// (e.g., "decision_maker" -> "Decision Maker").
func (r BuyerGroupRole) Label() string {
	return titleCaser.String(strings.ReplaceAll(string(r), "_", " "))
}

// Valid reports whether r is one of the known roles.
func (r BuyerGroupRole) Valid() bool {
	switch r {
	case RoleDecisionMaker, RoleChampion, RoleStakeholder, RoleBlocker, RoleIntroducer:
		return true
	}
	return false
}

// ParseRole converts a storage or display form into a BuyerGroupRole.
// Returns the zero value and false for unrecognized input.
func ParseRole(s string) (BuyerGroupRole, bool) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "_")
	r := BuyerGroupRole(normalized)
	if r.Valid() {
		return r, true
	}
	return "", false
}

// InfluenceLevel buckets an influence score for display and filtering.
type InfluenceLevel string

const (
	InfluenceHigh   InfluenceLevel = "high"
	InfluenceMedium InfluenceLevel = "medium"
	InfluenceLow    InfluenceLevel = "low"
)

// LevelForScore maps a 0-100 influence score to a coarse level.
func LevelForScore(score int) InfluenceLevel {
	switch {
	case score >= 70:
		return InfluenceHigh
	case score >= 40:
		return InfluenceMedium
	default:
		return InfluenceLow
	}
}

// RoleAssignment is the classifier output for one person: a buyer group
// role plus an influence estimate. It is a derived view recomputed from
// the person's current title, not an independently versioned entity.
type RoleAssignment struct {
	PersonID       int64          `json:"person_id"`
	Role           BuyerGroupRole `json:"role"`
	InfluenceScore int            `json:"influence_score"`
	InfluenceLevel InfluenceLevel `json:"influence_level"`
}
