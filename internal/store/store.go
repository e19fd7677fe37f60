// Package store persists CRM records and audit output for the data ops
// pipelines. Two backends are provided: Postgres (pgx) for the shared
// workspace database and SQLite for local scratch work.
package store

import (
	"context"

	"github.com/adrata/dataops-cli/internal/model"
)

// Store defines the persistence interface for the data ops pipelines.
// Every read is scoped by workspace; the resolution and classification
// engines themselves stay tenant-agnostic.
type Store interface {
	// Companies
	ListCompanies(ctx context.Context, workspaceID string) ([]model.Company, error)
	GetCompanyByDomain(ctx context.Context, workspaceID, domain string) (*model.Company, error)
	CreateCompany(ctx context.Context, c *model.Company) error

	// People
	ListPeopleByCompany(ctx context.Context, companyID int64) ([]model.Person, error)
	FindPersonByEmail(ctx context.Context, workspaceID, email string) (*model.Person, error)
	CreatePerson(ctx context.Context, p *model.Person) error

	// Audit output
	SaveRoleAssignments(ctx context.Context, workspaceID, runID string, assignments []model.RoleAssignment) error
	SaveMergeSuggestions(ctx context.Context, suggestions []model.MergeSuggestion) error

	// Email attribution
	ListUnlinkedEmails(ctx context.Context, workspaceID string, limit int) ([]model.EmailMessage, error)
	LinkEmail(ctx context.Context, emailID int64, personID, companyID *int64) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
