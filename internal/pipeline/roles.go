package pipeline

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/adrata/dataops-cli/internal/classify"
	"github.com/adrata/dataops-cli/internal/model"
	"github.com/adrata/dataops-cli/internal/store"
)

// PersonAssignment pairs a classified person with their assignment.
type PersonAssignment struct {
	PersonID       int64                `json:"person_id"`
	FullName       string               `json:"full_name"`
	Title          string               `json:"title"`
	Role           model.BuyerGroupRole `json:"role"`
	InfluenceScore int                  `json:"influence_score"`
	InfluenceLevel model.InfluenceLevel `json:"influence_level"`
}

// CompanyCoverage summarizes buyer group coverage for one company.
type CompanyCoverage struct {
	CompanyID   int64                        `json:"company_id"`
	CompanyName string                       `json:"company_name"`
	People      int                          `json:"people"`
	RoleCounts  map[model.BuyerGroupRole]int `json:"role_counts"`
	Assignments []PersonAssignment           `json:"assignments"`
}

// HasDecisionMaker reports whether the company's buyer group includes at
// least one decision maker.
func (c CompanyCoverage) HasDecisionMaker() bool {
	return c.RoleCounts[model.RoleDecisionMaker] > 0
}

// HasChampion reports whether the company's buyer group includes at
// least one champion.
func (c CompanyCoverage) HasChampion() bool {
	return c.RoleCounts[model.RoleChampion] > 0
}

// RolesReport summarizes a role assignment run over one workspace.
type RolesReport struct {
	RunID       string            `json:"run_id"`
	WorkspaceID string            `json:"workspace_id"`
	Companies   []CompanyCoverage `json:"companies"`
	Assigned    int               `json:"assigned"`
}

// RoleAssigner classifies every person in a workspace into a buyer
// group role, using their colleagues at the same company as peer
// context for influence adjustment.
type RoleAssigner struct {
	store      store.Store
	classifier *classify.Classifier
	opts       Options
}

// NewRoleAssigner creates a RoleAssigner.
func NewRoleAssigner(st store.Store, classifier *classify.Classifier, opts Options) *RoleAssigner {
	return &RoleAssigner{store: st, classifier: classifier, opts: opts.withDefaults()}
}

// Run classifies people company by company. Companies are processed on
// a bounded worker group; the people within one company are classified
// together so each sees the others as peers.
func (r *RoleAssigner) Run(ctx context.Context, workspaceID string) (*RolesReport, error) {
	companies, err := r.store.ListCompanies(ctx, workspaceID)
	if err != nil {
		return nil, eris.Wrap(err, "roles: list companies")
	}

	report := &RolesReport{
		RunID:       uuid.NewString(),
		WorkspaceID: workspaceID,
		Companies:   make([]CompanyCoverage, len(companies)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.MaxConcurrent)

	for i, company := range companies {
		g.Go(func() error {
			coverage, err := r.classifyCompany(gctx, company)
			if err != nil {
				return err
			}
			report.Companies[i] = *coverage
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "roles: classify")
	}

	for _, c := range report.Companies {
		report.Assigned += len(c.Assignments)
	}

	zap.L().Info("roles: run complete",
		zap.String("workspace_id", workspaceID),
		zap.Int("companies", len(companies)),
		zap.Int("assigned", report.Assigned),
	)

	return report, nil
}

// RunCompany classifies a single company's people.
func (r *RoleAssigner) RunCompany(ctx context.Context, workspaceID string, companyID int64) (*RolesReport, error) {
	companies, err := r.store.ListCompanies(ctx, workspaceID)
	if err != nil {
		return nil, eris.Wrap(err, "roles: list companies")
	}

	for _, company := range companies {
		if company.ID != companyID {
			continue
		}
		coverage, err := r.classifyCompany(ctx, company)
		if err != nil {
			return nil, err
		}
		return &RolesReport{
			RunID:       uuid.NewString(),
			WorkspaceID: workspaceID,
			Companies:   []CompanyCoverage{*coverage},
			Assigned:    len(coverage.Assignments),
		}, nil
	}
	return nil, eris.Errorf("roles: company %d not found in workspace %s", companyID, workspaceID)
}

func (r *RoleAssigner) classifyCompany(ctx context.Context, company model.Company) (*CompanyCoverage, error) {
	people, err := r.store.ListPeopleByCompany(ctx, company.ID)
	if err != nil {
		return nil, eris.Wrapf(err, "roles: list people for company %d", company.ID)
	}

	coverage := &CompanyCoverage{
		CompanyID:   company.ID,
		CompanyName: company.Name,
		People:      len(people),
		RoleCounts:  make(map[model.BuyerGroupRole]int),
	}

	for i, p := range people {
		peers := make([]classify.Peer, 0, len(people)-1)
		for j, other := range people {
			if j == i {
				continue
			}
			peers = append(peers, classify.Peer{Title: other.Title, Stage: other.Stage})
		}

		a := r.classifier.ClassifyWithPeers(p.Title, p.Stage, peers)
		coverage.Assignments = append(coverage.Assignments, PersonAssignment{
			PersonID:       p.ID,
			FullName:       p.FullName,
			Title:          p.Title,
			Role:           a.Role,
			InfluenceScore: a.InfluenceScore,
			InfluenceLevel: model.LevelForScore(a.InfluenceScore),
		})
		coverage.RoleCounts[a.Role]++
	}

	sort.Slice(coverage.Assignments, func(a, b int) bool {
		return coverage.Assignments[a].PersonID < coverage.Assignments[b].PersonID
	})

	return coverage, nil
}

// Save persists the report's assignments in rate-limited batches keyed
// by the run ID, so reruns overwrite prior assignments per person.
func (r *RoleAssigner) Save(ctx context.Context, report *RolesReport) error {
	limiter := r.opts.writeLimiter()

	var assignments []model.RoleAssignment
	for _, c := range report.Companies {
		for _, a := range c.Assignments {
			assignments = append(assignments, model.RoleAssignment{
				PersonID:       a.PersonID,
				Role:           a.Role,
				InfluenceScore: a.InfluenceScore,
				InfluenceLevel: a.InfluenceLevel,
			})
		}
	}

	for start := 0; start < len(assignments); start += r.opts.BatchSize {
		if err := limiter.Wait(ctx); err != nil {
			return eris.Wrap(err, "roles: rate limit")
		}
		end := min(start+r.opts.BatchSize, len(assignments))
		if err := r.store.SaveRoleAssignments(ctx, report.WorkspaceID, report.RunID, assignments[start:end]); err != nil {
			return eris.Wrap(err, "roles: save batch")
		}
	}
	return nil
}
