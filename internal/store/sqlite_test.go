package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adrata/dataops-cli/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestSQLiteStore_CompanyRoundTrip(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	c := &model.Company{WorkspaceID: "ws", Name: "Acme Corp", Domain: "acme.com", Website: "https://acme.com"}
	require.NoError(t, s.CreateCompany(ctx, c))
	assert.NotZero(t, c.ID)

	companies, err := s.ListCompanies(ctx, "ws")
	require.NoError(t, err)
	require.Len(t, companies, 1)
	assert.Equal(t, "Acme Corp", companies[0].Name)
	assert.Equal(t, "acme.com", companies[0].Domain)

	// Other workspaces see nothing.
	companies, err = s.ListCompanies(ctx, "other")
	require.NoError(t, err)
	assert.Empty(t, companies)
}

func TestSQLiteStore_GetCompanyByDomain(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	c := &model.Company{WorkspaceID: "ws", Name: "Acme Corp", Domain: "acme.com"}
	require.NoError(t, s.CreateCompany(ctx, c))

	found, err := s.GetCompanyByDomain(ctx, "ws", "acme.com")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, c.ID, found.ID)

	missing, err := s.GetCompanyByDomain(ctx, "ws", "globex.com")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSQLiteStore_PersonRoundTrip(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	c := &model.Company{WorkspaceID: "ws", Name: "Acme Corp"}
	require.NoError(t, s.CreateCompany(ctx, c))

	p := &model.Person{
		WorkspaceID: "ws",
		CompanyID:   c.ID,
		FullName:    "Jane Doe",
		Title:       "CFO",
		Emails:      []string{"jane@acme.com", "jane.doe@acme.com"},
		Stage:       model.StageEngaged,
	}
	require.NoError(t, s.CreatePerson(ctx, p))
	assert.NotZero(t, p.ID)

	people, err := s.ListPeopleByCompany(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, people, 1)
	assert.Equal(t, "Jane Doe", people[0].FullName)
	assert.Equal(t, []string{"jane@acme.com", "jane.doe@acme.com"}, people[0].Emails)
	assert.Equal(t, model.StageEngaged, people[0].Stage)
}

func TestSQLiteStore_FindPersonByEmail(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	p := &model.Person{WorkspaceID: "ws", FullName: "Jane Doe", Emails: []string{"jane@acme.com"}}
	require.NoError(t, s.CreatePerson(ctx, p))

	found, err := s.FindPersonByEmail(ctx, "ws", "JANE@ACME.COM")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, p.ID, found.ID)

	missing, err := s.FindPersonByEmail(ctx, "ws", "nobody@acme.com")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSQLiteStore_CreatePerson_DefaultsStage(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	c := &model.Company{WorkspaceID: "ws", Name: "Acme Corp"}
	require.NoError(t, s.CreateCompany(ctx, c))

	p := &model.Person{WorkspaceID: "ws", CompanyID: c.ID, FullName: "Sam"}
	require.NoError(t, s.CreatePerson(ctx, p))

	people, err := s.ListPeopleByCompany(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, people, 1)
	assert.Equal(t, model.StageUncontacted, people[0].Stage)
}

func TestSQLiteStore_RoleAssignmentsLatestRunWins(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	first := []model.RoleAssignment{
		{PersonID: 10, Role: model.RoleStakeholder, InfluenceScore: 40, InfluenceLevel: model.InfluenceMedium},
	}
	require.NoError(t, s.SaveRoleAssignments(ctx, "ws", "run-1", first))

	second := []model.RoleAssignment{
		{PersonID: 10, Role: model.RoleChampion, InfluenceScore: 79, InfluenceLevel: model.InfluenceHigh},
	}
	require.NoError(t, s.SaveRoleAssignments(ctx, "ws", "run-2", second))

	var runID, role string
	var score int
	err := s.db.QueryRowContext(ctx,
		`SELECT run_id, role, influence_score FROM role_assignments WHERE workspace_id = ? AND person_id = ?`,
		"ws", 10).Scan(&runID, &role, &score)
	require.NoError(t, err)
	assert.Equal(t, "run-2", runID)
	assert.Equal(t, "champion", role)
	assert.Equal(t, 79, score)
}

func TestSQLiteStore_MergeSuggestionsUpsert(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveMergeSuggestions(ctx, []model.MergeSuggestion{
		{RunID: "run-1", WorkspaceID: "ws", CompanyID: 1, DuplicateID: 2, MatchType: "fuzzy_name", Confidence: 0.8},
	}))
	require.NoError(t, s.SaveMergeSuggestions(ctx, []model.MergeSuggestion{
		{RunID: "run-2", WorkspaceID: "ws", CompanyID: 1, DuplicateID: 2, MatchType: "exact_domain", Confidence: 1.0},
	}))

	var n int
	require.NoError(t, s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM merge_suggestions`).Scan(&n))
	assert.Equal(t, 1, n)

	var matchType string
	require.NoError(t, s.db.QueryRowContext(ctx,
		`SELECT match_type FROM merge_suggestions WHERE workspace_id = 'ws'`).Scan(&matchType))
	assert.Equal(t, "exact_domain", matchType)
}

func TestSQLiteStore_EmailLinking(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO email_messages (workspace_id, from_address, from_name) VALUES ('ws', 'jane@acme.com', 'Jane Doe')`)
	require.NoError(t, err)

	emails, err := s.ListUnlinkedEmails(ctx, "ws", 10)
	require.NoError(t, err)
	require.Len(t, emails, 1)
	assert.Equal(t, "jane@acme.com", emails[0].FromAddress)

	personID := int64(10)
	companyID := int64(1)
	require.NoError(t, s.LinkEmail(ctx, emails[0].ID, &personID, &companyID))

	emails, err = s.ListUnlinkedEmails(ctx, "ws", 10)
	require.NoError(t, err)
	assert.Empty(t, emails)
}
