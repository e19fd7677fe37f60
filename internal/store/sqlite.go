package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/adrata/dataops-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite, for local
// scratch databases and offline audit runs.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS companies (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	workspace_id TEXT NOT NULL,
	name         TEXT NOT NULL,
	domain       TEXT,
	website      TEXT,
	created_at   DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS people (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	workspace_id TEXT NOT NULL,
	company_id   INTEGER REFERENCES companies(id),
	full_name    TEXT NOT NULL,
	title        TEXT,
	emails       TEXT NOT NULL DEFAULT '[]',
	stage        TEXT NOT NULL DEFAULT 'uncontacted'
);

CREATE TABLE IF NOT EXISTS role_assignments (
	workspace_id    TEXT NOT NULL,
	run_id          TEXT NOT NULL,
	person_id       INTEGER NOT NULL,
	role            TEXT NOT NULL,
	influence_score INTEGER NOT NULL,
	influence_level TEXT NOT NULL,
	assigned_at     DATETIME NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (workspace_id, person_id)
);

CREATE TABLE IF NOT EXISTS merge_suggestions (
	run_id       TEXT NOT NULL,
	workspace_id TEXT NOT NULL,
	company_id   INTEGER NOT NULL,
	duplicate_id INTEGER NOT NULL,
	match_type   TEXT NOT NULL,
	confidence   REAL NOT NULL,
	created_at   DATETIME NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (workspace_id, company_id, duplicate_id)
);

CREATE TABLE IF NOT EXISTS email_messages (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	workspace_id TEXT NOT NULL,
	from_address TEXT NOT NULL,
	from_name    TEXT,
	person_id    INTEGER,
	company_id   INTEGER,
	received_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_companies_workspace ON companies(workspace_id);
CREATE INDEX IF NOT EXISTS idx_people_company ON people(company_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ListCompanies(ctx context.Context, workspaceID string) ([]model.Company, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, workspace_id, name, COALESCE(domain, ''), COALESCE(website, ''), created_at, updated_at
		 FROM companies WHERE workspace_id = ? ORDER BY id`, workspaceID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list companies")
	}
	defer rows.Close()

	var companies []model.Company
	for rows.Next() {
		var c model.Company
		if err := rows.Scan(&c.ID, &c.WorkspaceID, &c.Name, &c.Domain, &c.Website, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan company")
		}
		companies = append(companies, c)
	}
	return companies, eris.Wrap(rows.Err(), "sqlite: iterate companies")
}

func (s *SQLiteStore) GetCompanyByDomain(ctx context.Context, workspaceID, domain string) (*model.Company, error) {
	var c model.Company
	err := s.db.QueryRowContext(ctx,
		`SELECT id, workspace_id, name, COALESCE(domain, ''), COALESCE(website, ''), created_at, updated_at
		 FROM companies WHERE workspace_id = ? AND domain = ?`, workspaceID, domain).
		Scan(&c.ID, &c.WorkspaceID, &c.Name, &c.Domain, &c.Website, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if eris.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "sqlite: get company by domain")
	}
	return &c, nil
}

func (s *SQLiteStore) CreateCompany(ctx context.Context, c *model.Company) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO companies (workspace_id, name, domain, website) VALUES (?, ?, NULLIF(?, ''), NULLIF(?, ''))`,
		c.WorkspaceID, c.Name, c.Domain, c.Website)
	if err != nil {
		return eris.Wrap(err, "sqlite: create company")
	}
	c.ID, err = res.LastInsertId()
	return eris.Wrap(err, "sqlite: create company id")
}

func (s *SQLiteStore) ListPeopleByCompany(ctx context.Context, companyID int64) ([]model.Person, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, workspace_id, COALESCE(company_id, 0), full_name, COALESCE(title, ''), emails, stage
		 FROM people WHERE company_id = ? ORDER BY id`, companyID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list people")
	}
	defer rows.Close()

	var people []model.Person
	for rows.Next() {
		p, err := scanSQLitePerson(rows)
		if err != nil {
			return nil, err
		}
		people = append(people, *p)
	}
	return people, eris.Wrap(rows.Err(), "sqlite: iterate people")
}

func (s *SQLiteStore) FindPersonByEmail(ctx context.Context, workspaceID, email string) (*model.Person, error) {
	// Emails are stored as a JSON array; match on the quoted element.
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, workspace_id, COALESCE(company_id, 0), full_name, COALESCE(title, ''), emails, stage
		 FROM people WHERE workspace_id = ? AND instr(lower(emails), lower(?)) > 0 LIMIT 1`,
		workspaceID, `"`+email+`"`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: find person by email")
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, eris.Wrap(rows.Err(), "sqlite: find person by email")
	}
	return scanSQLitePerson(rows)
}

func (s *SQLiteStore) CreatePerson(ctx context.Context, p *model.Person) error {
	stage := p.Stage
	if stage == "" {
		stage = model.StageUncontacted
	}
	emails, err := json.Marshal(p.Emails)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal emails")
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO people (workspace_id, company_id, full_name, title, emails, stage)
		 VALUES (?, NULLIF(?, 0), ?, NULLIF(?, ''), ?, ?)`,
		p.WorkspaceID, p.CompanyID, p.FullName, p.Title, string(emails), stage)
	if err != nil {
		return eris.Wrap(err, "sqlite: create person")
	}
	p.ID, err = res.LastInsertId()
	return eris.Wrap(err, "sqlite: create person id")
}

func (s *SQLiteStore) SaveRoleAssignments(ctx context.Context, workspaceID, runID string, assignments []model.RoleAssignment) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback()

	for _, a := range assignments {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO role_assignments (workspace_id, run_id, person_id, role, influence_score, influence_level)
			 VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT (workspace_id, person_id) DO UPDATE SET
			   run_id = excluded.run_id,
			   role = excluded.role,
			   influence_score = excluded.influence_score,
			   influence_level = excluded.influence_level,
			   assigned_at = datetime('now')`,
			workspaceID, runID, a.PersonID, string(a.Role), a.InfluenceScore, string(a.InfluenceLevel)); err != nil {
			return eris.Wrap(err, "sqlite: save role assignment")
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit role assignments")
}

func (s *SQLiteStore) SaveMergeSuggestions(ctx context.Context, suggestions []model.MergeSuggestion) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback()

	for _, m := range suggestions {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO merge_suggestions (run_id, workspace_id, company_id, duplicate_id, match_type, confidence)
			 VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT (workspace_id, company_id, duplicate_id) DO UPDATE SET
			   run_id = excluded.run_id,
			   match_type = excluded.match_type,
			   confidence = excluded.confidence`,
			m.RunID, m.WorkspaceID, m.CompanyID, m.DuplicateID, m.MatchType, m.Confidence); err != nil {
			return eris.Wrap(err, "sqlite: save merge suggestion")
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit merge suggestions")
}

func (s *SQLiteStore) ListUnlinkedEmails(ctx context.Context, workspaceID string, limit int) ([]model.EmailMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, workspace_id, from_address, COALESCE(from_name, ''), person_id, company_id, received_at
		 FROM email_messages WHERE workspace_id = ? AND person_id IS NULL
		 ORDER BY received_at LIMIT ?`, workspaceID, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list unlinked emails")
	}
	defer rows.Close()

	var emails []model.EmailMessage
	for rows.Next() {
		var e model.EmailMessage
		if err := rows.Scan(&e.ID, &e.WorkspaceID, &e.FromAddress, &e.FromName, &e.PersonID, &e.CompanyID, &e.ReceivedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan email")
		}
		emails = append(emails, e)
	}
	return emails, eris.Wrap(rows.Err(), "sqlite: iterate emails")
}

func (s *SQLiteStore) LinkEmail(ctx context.Context, emailID int64, personID, companyID *int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE email_messages SET person_id = COALESCE(?, person_id), company_id = COALESCE(?, company_id)
		 WHERE id = ?`, personID, companyID, emailID)
	return eris.Wrap(err, "sqlite: link email")
}

type sqliteRowScanner interface {
	Scan(dest ...any) error
}

func scanSQLitePerson(row sqliteRowScanner) (*model.Person, error) {
	var p model.Person
	var emails string
	if err := row.Scan(&p.ID, &p.WorkspaceID, &p.CompanyID, &p.FullName, &p.Title, &emails, &p.Stage); err != nil {
		return nil, eris.Wrap(err, "sqlite: scan person")
	}
	if emails != "" {
		if err := json.Unmarshal([]byte(emails), &p.Emails); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal emails")
		}
	}
	return &p, nil
}
