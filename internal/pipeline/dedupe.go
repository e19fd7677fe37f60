// Package pipeline orchestrates the batch audit jobs: company dedupe
// scans, buyer group role assignment, email attribution, and lead list
// imports. It owns batching, concurrency, and write pacing; the
// resolve and classify packages stay pure.
package pipeline

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/adrata/dataops-cli/internal/model"
	"github.com/adrata/dataops-cli/internal/resolve"
	"github.com/adrata/dataops-cli/internal/store"
)

// Options tunes pipeline batching and write pacing.
type Options struct {
	BatchSize       int
	MaxConcurrent   int
	WritesPerSecond float64
}

func (o Options) withDefaults() Options {
	if o.BatchSize <= 0 {
		o.BatchSize = 200
	}
	if o.MaxConcurrent <= 0 {
		o.MaxConcurrent = 5
	}
	if o.WritesPerSecond <= 0 {
		o.WritesPerSecond = 25
	}
	return o
}

func (o Options) writeLimiter() *rate.Limiter {
	return rate.NewLimiter(rate.Limit(o.WritesPerSecond), 1)
}

// DuplicatePair is one probable duplicate found by the dedupe scan.
type DuplicatePair struct {
	Company    model.Company `json:"company"`
	Duplicate  model.Company `json:"duplicate"`
	MatchType  string        `json:"match_type"`
	Confidence float64       `json:"confidence"`
}

// DedupeReport summarizes a dedupe scan over one workspace.
type DedupeReport struct {
	RunID            string          `json:"run_id"`
	WorkspaceID      string          `json:"workspace_id"`
	CompaniesScanned int             `json:"companies_scanned"`
	Pairs            []DuplicatePair `json:"pairs"`
}

// Deduper scans a workspace's companies for duplicates using a two-pass
// cascade: exact domain match, then fuzzy name match above the matcher
// threshold.
type Deduper struct {
	store   store.Store
	matcher *resolve.Matcher
	opts    Options
}

// NewDeduper creates a Deduper.
func NewDeduper(st store.Store, matcher *resolve.Matcher, opts Options) *Deduper {
	return &Deduper{store: st, matcher: matcher, opts: opts.withDefaults()}
}

// Run scans every company in the workspace against the ones after it,
// so each duplicate pair is reported once. Name matching across the
// candidate set runs on a bounded worker group; results are ordered by
// company ID for deterministic reports.
func (d *Deduper) Run(ctx context.Context, workspaceID string) (*DedupeReport, error) {
	companies, err := d.store.ListCompanies(ctx, workspaceID)
	if err != nil {
		return nil, eris.Wrap(err, "dedupe: list companies")
	}

	report := &DedupeReport{
		RunID:            uuid.NewString(),
		WorkspaceID:      workspaceID,
		CompaniesScanned: len(companies),
	}

	// Pass 1: exact domain collisions. Paired IDs are remembered so the
	// name pass does not report the same pair again.
	byDomain := make(map[string]model.Company, len(companies))
	paired := make(map[[2]int64]bool)
	for _, c := range companies {
		domain := resolve.NormalizeDomain(c.Domain)
		if domain == "" {
			domain = resolve.NormalizeDomain(c.Website)
		}
		if domain == "" {
			continue
		}
		if first, ok := byDomain[domain]; ok {
			report.Pairs = append(report.Pairs, DuplicatePair{
				Company:    first,
				Duplicate:  c,
				MatchType:  "exact_domain",
				Confidence: 1.0,
			})
			paired[pairKey(first.ID, c.ID)] = true
			continue
		}
		byDomain[domain] = c
	}

	// Pass 2: fuzzy name match against later companies. The paired set
	// is read-only from here, so the workers share it without locking.
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.opts.MaxConcurrent)

	for i := range companies {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			candidates := make([]resolve.Candidate, 0, len(companies)-i-1)
			for _, other := range companies[i+1:] {
				if paired[pairKey(companies[i].ID, other.ID)] {
					continue
				}
				candidates = append(candidates, resolve.Candidate{ID: other.ID, Name: other.Name})
			}
			match, _ := d.matcher.FindBestMatch(companies[i].Name, candidates)
			if match == nil {
				return nil
			}

			matchType := "fuzzy_name"
			if match.Score == 1.0 {
				matchType = "exact_name"
			}
			pair := DuplicatePair{
				Company:    companies[i],
				Duplicate:  companyByID(companies, match.ID),
				MatchType:  matchType,
				Confidence: match.Score,
			}

			mu.Lock()
			report.Pairs = append(report.Pairs, pair)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "dedupe: scan")
	}

	sort.Slice(report.Pairs, func(a, b int) bool {
		if report.Pairs[a].Company.ID != report.Pairs[b].Company.ID {
			return report.Pairs[a].Company.ID < report.Pairs[b].Company.ID
		}
		return report.Pairs[a].Duplicate.ID < report.Pairs[b].Duplicate.ID
	})

	zap.L().Info("dedupe: scan complete",
		zap.String("workspace_id", workspaceID),
		zap.Int("companies", len(companies)),
		zap.Int("pairs", len(report.Pairs)),
	)

	return report, nil
}

// Save persists the report's pairs as merge suggestions in rate-limited
// batches.
func (d *Deduper) Save(ctx context.Context, report *DedupeReport) error {
	limiter := d.opts.writeLimiter()

	suggestions := make([]model.MergeSuggestion, 0, len(report.Pairs))
	for _, p := range report.Pairs {
		suggestions = append(suggestions, model.MergeSuggestion{
			RunID:       report.RunID,
			WorkspaceID: report.WorkspaceID,
			CompanyID:   p.Company.ID,
			DuplicateID: p.Duplicate.ID,
			MatchType:   p.MatchType,
			Confidence:  p.Confidence,
		})
	}

	for start := 0; start < len(suggestions); start += d.opts.BatchSize {
		if err := limiter.Wait(ctx); err != nil {
			return eris.Wrap(err, "dedupe: rate limit")
		}
		end := min(start+d.opts.BatchSize, len(suggestions))
		if err := d.store.SaveMergeSuggestions(ctx, suggestions[start:end]); err != nil {
			return eris.Wrap(err, "dedupe: save batch")
		}
	}
	return nil
}

func pairKey(a, b int64) [2]int64 {
	if a > b {
		a, b = b, a
	}
	return [2]int64{a, b}
}

func companyByID(companies []model.Company, id int64) model.Company {
	for _, c := range companies {
		if c.ID == id {
			return c
		}
	}
	return model.Company{ID: id}
}
