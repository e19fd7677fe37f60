package pipeline

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/adrata/dataops-cli/internal/model"
	"github.com/adrata/dataops-cli/internal/resolve"
	"github.com/adrata/dataops-cli/internal/store"
)

// Shared mailbox providers. Their domains identify the provider, not
// the sender's employer, so the domain and fuzzy steps skip them.
var freemailDomains = map[string]bool{
	"gmail.com":      true,
	"googlemail.com": true,
	"yahoo.com":      true,
	"hotmail.com":    true,
	"outlook.com":    true,
	"live.com":       true,
	"aol.com":        true,
	"icloud.com":     true,
	"me.com":         true,
	"proton.me":      true,
	"protonmail.com": true,
}

// LinkReport summarizes one email attribution run.
type LinkReport struct {
	Scanned       int `json:"scanned"`
	LinkedPeople  int `json:"linked_people"`
	LinkedCompany int `json:"linked_company"`
	Unmatched     int `json:"unmatched"`
}

// EmailLinker attributes inbound email messages to CRM records using a
// three-step cascade: sender address against known person emails, then
// sender domain against company domains, then a fuzzy match of the
// sender's host name against company names.
type EmailLinker struct {
	store   store.Store
	matcher *resolve.Matcher
	opts    Options
}

// NewEmailLinker creates an EmailLinker.
func NewEmailLinker(st store.Store, matcher *resolve.Matcher, opts Options) *EmailLinker {
	return &EmailLinker{store: st, matcher: matcher, opts: opts.withDefaults()}
}

// Run attributes up to limit unlinked messages in the workspace. A
// person match also links the person's company; a domain or fuzzy match
// links the company only.
func (l *EmailLinker) Run(ctx context.Context, workspaceID string, limit int) (*LinkReport, error) {
	emails, err := l.store.ListUnlinkedEmails(ctx, workspaceID, limit)
	if err != nil {
		return nil, eris.Wrap(err, "linkemail: list unlinked")
	}

	companies, err := l.store.ListCompanies(ctx, workspaceID)
	if err != nil {
		return nil, eris.Wrap(err, "linkemail: list companies")
	}

	limiter := l.opts.writeLimiter()
	report := &LinkReport{Scanned: len(emails)}

	for _, msg := range emails {
		personID, companyID, err := l.attribute(ctx, workspaceID, msg, companies)
		if err != nil {
			return nil, err
		}
		if personID == nil && companyID == nil {
			report.Unmatched++
			continue
		}

		if err := limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "linkemail: rate limit")
		}
		if err := l.store.LinkEmail(ctx, msg.ID, personID, companyID); err != nil {
			return nil, eris.Wrapf(err, "linkemail: link message %d", msg.ID)
		}
		if personID != nil {
			report.LinkedPeople++
		} else {
			report.LinkedCompany++
		}
	}

	zap.L().Info("linkemail: run complete",
		zap.String("workspace_id", workspaceID),
		zap.Int("scanned", report.Scanned),
		zap.Int("linked_people", report.LinkedPeople),
		zap.Int("linked_company", report.LinkedCompany),
		zap.Int("unmatched", report.Unmatched),
	)

	return report, nil
}

func (l *EmailLinker) attribute(ctx context.Context, workspaceID string, msg model.EmailMessage, companies []model.Company) (personID, companyID *int64, err error) {
	// Step 1: sender address against known person emails. Addresses
	// are case-insensitive identities, so normalize before the lookup.
	sender := strings.ToLower(strings.TrimSpace(msg.FromAddress))
	person, err := l.store.FindPersonByEmail(ctx, workspaceID, sender)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "linkemail: lookup %s", sender)
	}
	if person != nil {
		return &person.ID, &person.CompanyID, nil
	}

	senderDomain := resolve.DomainOfEmail(sender)
	if senderDomain == "" || freemailDomains[resolve.BaseDomain(senderDomain)] {
		return nil, nil, nil
	}

	// Step 2: sender domain against company domains.
	for _, c := range companies {
		companyDomains := []string{
			resolve.NormalizeDomain(c.Domain),
			resolve.NormalizeDomain(c.Website),
		}
		if resolve.LinkByDomain([]string{senderDomain}, companyDomains) {
			return nil, &c.ID, nil
		}
	}

	// Step 3: fuzzy match of the host name ("acme" in acme.com) against
	// company names. Catches companies recorded without a domain.
	host, _, _ := strings.Cut(resolve.BaseDomain(senderDomain), ".")
	if host == "" {
		return nil, nil, nil
	}
	candidates := make([]resolve.Candidate, 0, len(companies))
	for _, c := range companies {
		candidates = append(candidates, resolve.Candidate{ID: c.ID, Name: c.Name})
	}
	if match, _ := l.matcher.FindBestMatch(host, candidates); match != nil {
		zap.L().Debug("linkemail: fuzzy host match",
			zap.String("host", host),
			zap.String("company", match.Name),
			zap.Float64("score", match.Score),
		)
		return nil, &match.ID, nil
	}

	return nil, nil, nil
}
