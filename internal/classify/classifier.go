package classify

import (
	"strings"

	"github.com/adrata/dataops-cli/internal/model"
)

// Peer is the title and outreach stage of another contact at the same
// company, used for the optional peer-context influence adjustment.
type Peer struct {
	Title string                `json:"title"`
	Stage model.EngagementStage `json:"stage"`
}

// Assignment is the classifier output: a role and a 0-100 influence
// score. Influence level and person identity are attached by the caller.
type Assignment struct {
	Role           model.BuyerGroupRole `json:"role"`
	InfluenceScore int                  `json:"influence_score"`
}

// Classifier maps job titles to buyer group roles. Safe for concurrent
// use; no state is mutated across calls.
type Classifier struct {
	cfg Config
}

// New creates a Classifier. Zero-value keyword tables in cfg would make
// every title a Stakeholder; use DefaultConfig as the base.
func New(cfg Config) *Classifier {
	return &Classifier{cfg: cfg}
}

// Classify evaluates the role rules in order against the job title and
// returns the first matching role with its base influence score. An
// empty or unrecognized title falls through to Stakeholder with the
// default score; classification never fails.
func (c *Classifier) Classify(title string) Assignment {
	t := strings.ToLower(strings.TrimSpace(title))
	role := c.classifyRole(t)
	return Assignment{Role: role, InfluenceScore: c.influence(role, t)}
}

// ClassifyWithPeers classifies the title and then applies the
// peer-context adjustment for a contact at the given stage. The
// adjustment only moves the influence score, never the role:
//
//   - no peers at the company: solo-contact bonus (first foothold)
//   - stage earlier than some peer's: penalty
//   - stage later than an uncontacted peer's: bonus
//
// The result is clamped to [0,100].
func (c *Classifier) ClassifyWithPeers(title string, stage model.EngagementStage, peers []Peer) Assignment {
	a := c.Classify(title)

	switch {
	case len(peers) == 0:
		a.InfluenceScore += c.cfg.SoloContactBonus
	case stageEarlierThanAny(stage, peers):
		a.InfluenceScore -= c.cfg.EarlierStagePenalty
	case laterThanUncontactedPeer(stage, peers):
		a.InfluenceScore += c.cfg.LaterStageBonus
	}

	a.InfluenceScore = clamp(a.InfluenceScore, 0, 100)
	return a
}

func stageEarlierThanAny(stage model.EngagementStage, peers []Peer) bool {
	for _, p := range peers {
		if stage.EarlierThan(p.Stage) {
			return true
		}
	}
	return false
}

func laterThanUncontactedPeer(stage model.EngagementStage, peers []Peer) bool {
	for _, p := range peers {
		if p.Stage == model.StageUncontacted && p.Stage.EarlierThan(stage) {
			return true
		}
	}
	return false
}

// classifyRole runs the ordered first-match-wins rules. The title is
// already lowercased.
func (c *Classifier) classifyRole(t string) model.BuyerGroupRole {
	if c.isDecisionMaker(t) {
		return model.RoleDecisionMaker
	}
	if c.isChampion(t) {
		return model.RoleChampion
	}
	if containsAny(t, c.cfg.IntroducerKeywords) {
		return model.RoleIntroducer
	}
	if containsAny(t, c.cfg.BlockerKeywords) {
		return model.RoleBlocker
	}
	return model.RoleStakeholder
}

func (c *Classifier) isDecisionMaker(t string) bool {
	if containsAny(t, c.cfg.ExecutiveKeywords) {
		return true
	}
	if strings.Contains(t, "senior vice president") || strings.Contains(t, "svp") {
		return true
	}
	if hasVP(t) && containsAny(t, c.cfg.VPDecisionDomains) {
		return true
	}
	if strings.Contains(t, "director") && containsAny(t, c.cfg.DirectorDecisionDomain) {
		return true
	}
	return false
}

func (c *Classifier) isChampion(t string) bool {
	if hasVP(t) && containsAny(t, c.cfg.ChampionVPDomains) {
		return true
	}
	if (strings.Contains(t, "director") || strings.Contains(t, "head of")) &&
		containsAny(t, c.cfg.ChampionDirectorDomains) {
		return true
	}
	return containsAny(t, c.cfg.ChampionTitleKeywords)
}

// influence picks the score within the role band: band top when a
// strength keyword is present, band midpoint otherwise. The midpoint is
// the documented default (Stakeholder with an empty title scores 40).
func (c *Classifier) influence(role model.BuyerGroupRole, t string) int {
	band, ok := c.cfg.Bands[role]
	if !ok {
		return 0
	}
	if containsAny(t, c.cfg.StrengthKeywords) {
		return band.Max
	}
	return band.Min + (band.Max-band.Min)/2
}

func hasVP(t string) bool {
	return strings.Contains(t, "vice president") || strings.Contains(t, "vp")
}

func containsAny(t string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(t, kw) {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
