// Package classify assigns buyer group roles and influence scores to
// contacts from free-text job titles. Classification is a pure, ordered,
// first-match-wins rule evaluation; the keyword tables, score bands, and
// peer-context deltas are configuration data with shipped defaults.
package classify

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/adrata/dataops-cli/internal/model"
)

// Band is the inclusive influence score range for a role.
type Band struct {
	Min int `yaml:"min" mapstructure:"min"`
	Max int `yaml:"max" mapstructure:"max"`
}

// Config holds the classifier rule tables. All keyword tests are
// case-insensitive substring matches against the job title.
type Config struct {
	// Decision maker rules.
	ExecutiveKeywords      []string `yaml:"executive_keywords" mapstructure:"executive_keywords"`
	VPDecisionDomains      []string `yaml:"vp_decision_domains" mapstructure:"vp_decision_domains"`
	DirectorDecisionDomain []string `yaml:"director_decision_domains" mapstructure:"director_decision_domains"`

	// Champion rules.
	ChampionVPDomains       []string `yaml:"champion_vp_domains" mapstructure:"champion_vp_domains"`
	ChampionDirectorDomains []string `yaml:"champion_director_domains" mapstructure:"champion_director_domains"`
	ChampionTitleKeywords   []string `yaml:"champion_title_keywords" mapstructure:"champion_title_keywords"`

	// Introducer / blocker rules.
	IntroducerKeywords []string `yaml:"introducer_keywords" mapstructure:"introducer_keywords"`
	BlockerKeywords    []string `yaml:"blocker_keywords" mapstructure:"blocker_keywords"`

	// StrengthKeywords push the influence score to the top of the role
	// band when present in the title.
	StrengthKeywords []string `yaml:"strength_keywords" mapstructure:"strength_keywords"`

	// Influence bands per role (storage form key).
	Bands map[model.BuyerGroupRole]Band `yaml:"bands" mapstructure:"bands"`

	// Peer-context deltas. The magnitudes mirror observed production
	// values and are tunable because no firmer rationale exists for them.
	SoloContactBonus    int `yaml:"solo_contact_bonus" mapstructure:"solo_contact_bonus"`
	EarlierStagePenalty int `yaml:"earlier_stage_penalty" mapstructure:"earlier_stage_penalty"`
	LaterStageBonus     int `yaml:"later_stage_bonus" mapstructure:"later_stage_bonus"`
}

// DefaultConfig returns the shipped rule tables.
func DefaultConfig() Config {
	return Config{
		ExecutiveKeywords: []string{
			"chief", "ceo", "cfo", "cto", "cpo", "president",
			"founder", "owner", "principal", "managing partner",
		},
		VPDecisionDomains:      []string{"finance", "marketing", "operations"},
		DirectorDecisionDomain: []string{"finance"},

		ChampionVPDomains: []string{"card", "services", "technology", "data", "analytics"},
		ChampionDirectorDomains: []string{
			"financial", "modeling", "analysis", "human resources",
			"data", "analytics", "product", "engineering",
		},
		ChampionTitleKeywords: []string{
			"director", "senior vice president", "vice president", "vp",
			"senior manager", "manager", "lead", "head of",
		},

		IntroducerKeywords: []string{
			"business development", "banker", "collector", "debt", "sales",
			"relationship manager", "relationship", "partner",
		},
		BlockerKeywords: []string{"legal", "compliance", "risk", "audit", "security"},

		StrengthKeywords: []string{"chief", "senior"},

		Bands: map[model.BuyerGroupRole]Band{
			model.RoleDecisionMaker: {Min: 90, Max: 100},
			model.RoleChampion:      {Min: 70, Max: 89},
			model.RoleStakeholder:   {Min: 30, Max: 50},
			model.RoleBlocker:       {Min: 50, Max: 70},
			model.RoleIntroducer:    {Min: 40, Max: 60},
		},

		SoloContactBonus:    30,
		EarlierStagePenalty: 20,
		LaterStageBonus:     25,
	}
}

// ValidateConfig checks that a classifier Config is internally consistent.
func ValidateConfig(c Config) error {
	var errs []string

	lists := map[string][]string{
		"executive_keywords":        c.ExecutiveKeywords,
		"champion_title_keywords":   c.ChampionTitleKeywords,
		"introducer_keywords":       c.IntroducerKeywords,
		"blocker_keywords":          c.BlockerKeywords,
		"vp_decision_domains":       c.VPDecisionDomains,
		"director_decision_domains": c.DirectorDecisionDomain,
	}
	for name, kws := range lists {
		if len(kws) == 0 {
			errs = append(errs, fmt.Sprintf("%s must not be empty", name))
		}
	}

	for _, role := range model.AllRoles {
		band, ok := c.Bands[role]
		if !ok {
			errs = append(errs, fmt.Sprintf("missing band for role %s", role))
			continue
		}
		if band.Min < 0 || band.Max > 100 {
			errs = append(errs, fmt.Sprintf("band for %s must stay within 0-100", role))
		}
		if band.Min > band.Max {
			errs = append(errs, fmt.Sprintf("band for %s has min > max", role))
		}
	}

	for name, delta := range map[string]int{
		"solo_contact_bonus":    c.SoloContactBonus,
		"earlier_stage_penalty": c.EarlierStagePenalty,
		"later_stage_bonus":     c.LaterStageBonus,
	} {
		if delta < 0 || delta > 100 {
			errs = append(errs, fmt.Sprintf("%s must be between 0 and 100", name))
		}
	}

	if len(errs) > 0 {
		return eris.Errorf("classify: config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
