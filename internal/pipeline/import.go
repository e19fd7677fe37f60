package pipeline

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/adrata/dataops-cli/internal/model"
	"github.com/adrata/dataops-cli/internal/resolve"
	"github.com/adrata/dataops-cli/internal/store"
)

// ImportReport summarizes one lead list import.
type ImportReport struct {
	Leads             int `json:"leads"`
	CompaniesCreated  int `json:"companies_created"`
	CompaniesMatched  int `json:"companies_matched"`
	PeopleCreated     int `json:"people_created"`
	PeopleMatched     int `json:"people_matched"`
	SkippedIncomplete int `json:"skipped_incomplete"`
}

// LeadImporter resolves imported leads against existing CRM records
// instead of inserting blindly. Companies resolve by domain then fuzzy
// name; people resolve by email.
type LeadImporter struct {
	store   store.Store
	matcher *resolve.Matcher
	opts    Options
}

// NewLeadImporter creates a LeadImporter.
func NewLeadImporter(st store.Store, matcher *resolve.Matcher, opts Options) *LeadImporter {
	return &LeadImporter{store: st, matcher: matcher, opts: opts.withDefaults()}
}

// Run imports the leads into the workspace. Leads with neither a
// company name nor a website are skipped; leads without an email create
// nothing at the person level.
func (l *LeadImporter) Run(ctx context.Context, workspaceID string, leads []model.Lead) (*ImportReport, error) {
	companies, err := l.store.ListCompanies(ctx, workspaceID)
	if err != nil {
		return nil, eris.Wrap(err, "import: list companies")
	}

	limiter := l.opts.writeLimiter()
	report := &ImportReport{Leads: len(leads)}

	for _, lead := range leads {
		if lead.CompanyName == "" && lead.Website == "" {
			report.SkippedIncomplete++
			continue
		}

		company, created, err := l.resolveCompany(ctx, workspaceID, lead, companies, limiter)
		if err != nil {
			return nil, err
		}
		if created {
			companies = append(companies, *company)
			report.CompaniesCreated++
		} else {
			report.CompaniesMatched++
		}

		// Addresses are case-insensitive identities; store and match
		// the normalized form.
		email := strings.ToLower(strings.TrimSpace(lead.Email))
		if email == "" {
			continue
		}

		person, err := l.store.FindPersonByEmail(ctx, workspaceID, email)
		if err != nil {
			return nil, eris.Wrapf(err, "import: lookup person %s", email)
		}
		if person != nil {
			report.PeopleMatched++
			continue
		}

		if err := limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "import: rate limit")
		}
		p := &model.Person{
			WorkspaceID: workspaceID,
			CompanyID:   company.ID,
			FullName:    lead.FullName,
			Title:       lead.Title,
			Emails:      []string{email},
			Stage:       model.StageUncontacted,
		}
		if err := l.store.CreatePerson(ctx, p); err != nil {
			return nil, eris.Wrapf(err, "import: create person %s", email)
		}
		report.PeopleCreated++
	}

	zap.L().Info("import: run complete",
		zap.String("workspace_id", workspaceID),
		zap.Int("leads", report.Leads),
		zap.Int("companies_created", report.CompaniesCreated),
		zap.Int("people_created", report.PeopleCreated),
	)

	return report, nil
}

func (l *LeadImporter) resolveCompany(ctx context.Context, workspaceID string, lead model.Lead, companies []model.Company, limiter *rate.Limiter) (*model.Company, bool, error) {
	// Domain first: a website match is authoritative.
	domain := resolve.NormalizeDomain(lead.Website)
	if domain != "" {
		existing, err := l.store.GetCompanyByDomain(ctx, workspaceID, domain)
		if err != nil {
			return nil, false, eris.Wrapf(err, "import: lookup company by domain %s", domain)
		}
		if existing != nil {
			return existing, false, nil
		}
		for i, c := range companies {
			if resolve.LinkByDomain([]string{domain}, []string{resolve.NormalizeDomain(c.Domain), resolve.NormalizeDomain(c.Website)}) {
				return &companies[i], false, nil
			}
		}
	}

	// Then fuzzy name against everything already loaded.
	if lead.CompanyName != "" {
		candidates := make([]resolve.Candidate, 0, len(companies))
		for _, c := range companies {
			candidates = append(candidates, resolve.Candidate{ID: c.ID, Name: c.Name})
		}
		if match, _ := l.matcher.FindBestMatch(lead.CompanyName, candidates); match != nil {
			for i, c := range companies {
				if c.ID == match.ID {
					return &companies[i], false, nil
				}
			}
		}
	}

	if err := limiter.Wait(ctx); err != nil {
		return nil, false, eris.Wrap(err, "import: rate limit")
	}
	company := &model.Company{
		WorkspaceID: workspaceID,
		Name:        lead.CompanyName,
		Domain:      domain,
		Website:     lead.Website,
	}
	if err := l.store.CreateCompany(ctx, company); err != nil {
		return nil, false, eris.Wrapf(err, "import: create company %q", lead.CompanyName)
	}
	return company, true, nil
}
