package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/adrata/dataops-cli/internal/db"
	"github.com/adrata/dataops-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresFromPool wraps an existing pool; used by tests with pgxmock.
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, closeFn: pool.Close}
}

// Pool returns the underlying database pool for subsystems that need
// direct query access.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS companies (
	id           BIGSERIAL PRIMARY KEY,
	workspace_id TEXT NOT NULL,
	name         TEXT NOT NULL,
	domain       TEXT,
	website      TEXT,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS people (
	id           BIGSERIAL PRIMARY KEY,
	workspace_id TEXT NOT NULL,
	company_id   BIGINT REFERENCES companies(id),
	full_name    TEXT NOT NULL,
	title        TEXT,
	emails       TEXT[] NOT NULL DEFAULT '{}',
	stage        TEXT NOT NULL DEFAULT 'uncontacted'
);

CREATE TABLE IF NOT EXISTS role_assignments (
	workspace_id    TEXT NOT NULL,
	run_id          TEXT NOT NULL,
	person_id       BIGINT NOT NULL,
	role            TEXT NOT NULL,
	influence_score INT NOT NULL,
	influence_level TEXT NOT NULL,
	assigned_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (workspace_id, person_id)
);

CREATE TABLE IF NOT EXISTS merge_suggestions (
	run_id       TEXT NOT NULL,
	workspace_id TEXT NOT NULL,
	company_id   BIGINT NOT NULL,
	duplicate_id BIGINT NOT NULL,
	match_type   TEXT NOT NULL,
	confidence   NUMERIC(4,3) NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (workspace_id, company_id, duplicate_id)
);

CREATE TABLE IF NOT EXISTS email_messages (
	id           BIGSERIAL PRIMARY KEY,
	workspace_id TEXT NOT NULL,
	from_address TEXT NOT NULL,
	from_name    TEXT,
	person_id    BIGINT,
	company_id   BIGINT,
	received_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_companies_workspace ON companies(workspace_id);
CREATE INDEX IF NOT EXISTS idx_companies_domain ON companies(workspace_id, domain);
CREATE INDEX IF NOT EXISTS idx_people_company ON people(company_id);
CREATE INDEX IF NOT EXISTS idx_email_messages_unlinked ON email_messages(workspace_id) WHERE person_id IS NULL;
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) ListCompanies(ctx context.Context, workspaceID string) ([]model.Company, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, workspace_id, name, COALESCE(domain, ''), COALESCE(website, ''), created_at, updated_at
		 FROM companies WHERE workspace_id = $1 ORDER BY id`, workspaceID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list companies")
	}
	defer rows.Close()

	var companies []model.Company
	for rows.Next() {
		var c model.Company
		if err := rows.Scan(&c.ID, &c.WorkspaceID, &c.Name, &c.Domain, &c.Website, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan company")
		}
		companies = append(companies, c)
	}
	return companies, eris.Wrap(rows.Err(), "postgres: iterate companies")
}

func (s *PostgresStore) GetCompanyByDomain(ctx context.Context, workspaceID, domain string) (*model.Company, error) {
	var c model.Company
	err := s.pool.QueryRow(ctx,
		`SELECT id, workspace_id, name, COALESCE(domain, ''), COALESCE(website, ''), created_at, updated_at
		 FROM companies WHERE workspace_id = $1 AND domain = $2`, workspaceID, domain).
		Scan(&c.ID, &c.WorkspaceID, &c.Name, &c.Domain, &c.Website, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: get company by domain")
	}
	return &c, nil
}

func (s *PostgresStore) CreateCompany(ctx context.Context, c *model.Company) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO companies (workspace_id, name, domain, website)
		 VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, '')) RETURNING id, created_at, updated_at`,
		c.WorkspaceID, c.Name, c.Domain, c.Website).
		Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	return eris.Wrap(err, "postgres: create company")
}

func (s *PostgresStore) ListPeopleByCompany(ctx context.Context, companyID int64) ([]model.Person, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, workspace_id, COALESCE(company_id, 0), full_name, COALESCE(title, ''), emails, stage
		 FROM people WHERE company_id = $1 ORDER BY id`, companyID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list people")
	}
	defer rows.Close()

	var people []model.Person
	for rows.Next() {
		var p model.Person
		if err := rows.Scan(&p.ID, &p.WorkspaceID, &p.CompanyID, &p.FullName, &p.Title, &p.Emails, &p.Stage); err != nil {
			return nil, eris.Wrap(err, "postgres: scan person")
		}
		people = append(people, p)
	}
	return people, eris.Wrap(rows.Err(), "postgres: iterate people")
}

// FindPersonByEmail matches addresses case-insensitively with
// whitespace trimmed, the same identity rule resolve.SharesEmail uses.
func (s *PostgresStore) FindPersonByEmail(ctx context.Context, workspaceID, email string) (*model.Person, error) {
	var p model.Person
	err := s.pool.QueryRow(ctx,
		`SELECT id, workspace_id, COALESCE(company_id, 0), full_name, COALESCE(title, ''), emails, stage
		 FROM people WHERE workspace_id = $1 AND lower(trim($2)) = ANY (SELECT lower(trim(e)) FROM unnest(emails) e)`,
		workspaceID, email).
		Scan(&p.ID, &p.WorkspaceID, &p.CompanyID, &p.FullName, &p.Title, &p.Emails, &p.Stage)
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: find person by email")
	}
	return &p, nil
}

func (s *PostgresStore) CreatePerson(ctx context.Context, p *model.Person) error {
	stage := p.Stage
	if stage == "" {
		stage = model.StageUncontacted
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO people (workspace_id, company_id, full_name, title, emails, stage)
		 VALUES ($1, NULLIF($2, 0), $3, NULLIF($4, ''), $5, $6) RETURNING id`,
		p.WorkspaceID, p.CompanyID, p.FullName, p.Title, p.Emails, stage).
		Scan(&p.ID)
	return eris.Wrap(err, "postgres: create person")
}

// SaveRoleAssignments bulk-upserts a batch of classifier output. The
// latest run wins per person.
func (s *PostgresStore) SaveRoleAssignments(ctx context.Context, workspaceID, runID string, assignments []model.RoleAssignment) error {
	rows := make([][]any, 0, len(assignments))
	for _, a := range assignments {
		rows = append(rows, []any{workspaceID, runID, a.PersonID, string(a.Role), a.InfluenceScore, string(a.InfluenceLevel)})
	}
	_, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "role_assignments",
		Columns:      []string{"workspace_id", "run_id", "person_id", "role", "influence_score", "influence_level"},
		ConflictKeys: []string{"workspace_id", "person_id"},
	}, rows)
	return eris.Wrap(err, "postgres: save role assignments")
}

func (s *PostgresStore) SaveMergeSuggestions(ctx context.Context, suggestions []model.MergeSuggestion) error {
	rows := make([][]any, 0, len(suggestions))
	for _, m := range suggestions {
		rows = append(rows, []any{m.RunID, m.WorkspaceID, m.CompanyID, m.DuplicateID, m.MatchType, m.Confidence})
	}
	_, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "merge_suggestions",
		Columns:      []string{"run_id", "workspace_id", "company_id", "duplicate_id", "match_type", "confidence"},
		ConflictKeys: []string{"workspace_id", "company_id", "duplicate_id"},
	}, rows)
	return eris.Wrap(err, "postgres: save merge suggestions")
}

func (s *PostgresStore) ListUnlinkedEmails(ctx context.Context, workspaceID string, limit int) ([]model.EmailMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, workspace_id, from_address, COALESCE(from_name, ''), person_id, company_id, received_at
		 FROM email_messages
		 WHERE workspace_id = $1 AND person_id IS NULL
		 ORDER BY received_at LIMIT $2`, workspaceID, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list unlinked emails")
	}
	defer rows.Close()

	var emails []model.EmailMessage
	for rows.Next() {
		var e model.EmailMessage
		if err := rows.Scan(&e.ID, &e.WorkspaceID, &e.FromAddress, &e.FromName, &e.PersonID, &e.CompanyID, &e.ReceivedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan email")
		}
		emails = append(emails, e)
	}
	return emails, eris.Wrap(rows.Err(), "postgres: iterate emails")
}

func (s *PostgresStore) LinkEmail(ctx context.Context, emailID int64, personID, companyID *int64) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE email_messages SET person_id = COALESCE($2, person_id), company_id = COALESCE($3, company_id)
		 WHERE id = $1`, emailID, personID, companyID)
	return eris.Wrap(err, "postgres: link email")
}
