package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/portalusers/internal/common"
	"github.com/dmitrijs2005/portalusers/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userColumns = []string{"id", "username", "display_name", "email", "enabled", "created_at", "updated_at"}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

func userRows(users ...models.User) *sqlmock.Rows {
	rows := sqlmock.NewRows(userColumns)
	for _, u := range users {
		rows.AddRow(u.ID, u.UserName, u.DisplayName, u.Email, u.Enabled, u.CreatedAt, u.UpdatedAt)
	}
	return rows
}

var (
	ts    = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	alice = models.User{ID: 1, UserName: "alice", DisplayName: "Alice A", Email: "alice@example.com", Enabled: true, CreatedAt: ts, UpdatedAt: ts}
	bob   = models.User{ID: 2, UserName: "bob", DisplayName: "Bob B", Email: "bob@example.com", Enabled: true, CreatedAt: ts, UpdatedAt: ts}
)

func TestFindByUsername_Found(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	q := `(?s)^SELECT\s+id,\s*username,\s*display_name,\s*email,\s*enabled,\s*created_at,\s*updated_at\s+FROM\s+users\s+WHERE\s+username\s*=\s*\$1\s*$`
	mock.ExpectQuery(q).WithArgs("alice").WillReturnRows(userRows(alice))

	got, err := repo.FindByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, &alice, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByUsername_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`WHERE\s+username\s*=\s*\$1`).WithArgs("ghost").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByUsername(context.Background(), "ghost")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestFindByUsername_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`WHERE\s+username\s*=\s*\$1`).WithArgs("alice").WillReturnError(errors.New("db down"))

	_, err := repo.FindByUsername(context.Background(), "alice")
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestFindByUsernameContainingAndEnabled(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	q := `(?s)WHERE\s+username\s+LIKE\s+\$1\s+AND\s+enabled\s*=\s*\$2\s+ORDER\s+BY\s+id`
	mock.ExpectQuery(q).WithArgs("%ali%", true).WillReturnRows(userRows(alice))

	got, err := repo.FindByUsernameContainingAndEnabled(context.Background(), "ali", true)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "alice", got[0].UserName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByDisplayNameContainingAndEnabled_EscapesWildcards(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	q := `(?s)WHERE\s+display_name\s+LIKE\s+\$1\s+AND\s+enabled\s*=\s*\$2`
	mock.ExpectQuery(q).WithArgs(`%50\%\_off\\%`, true).WillReturnRows(userRows())

	got, err := repo.FindByDisplayNameContainingAndEnabled(context.Background(), `50%_off\`, true)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindFirstNByEnabled(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	q := `(?s)WHERE\s+enabled\s*=\s*\$1\s+ORDER\s+BY\s+id\s+LIMIT\s+\$2`
	mock.ExpectQuery(q).WithArgs(true, 20).WillReturnRows(userRows(alice, bob))

	got, err := repo.FindFirstNByEnabled(context.Background(), 20, true)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "bob", got[1].UserName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindFirstNByEnabled_QueryError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`LIMIT\s+\$2`).WillReturnError(errors.New("db err"))

	_, err := repo.FindFirstNByEnabled(context.Background(), 20, true)
	if err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestList_ScanAndRowErrors(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	bad := sqlmock.NewRows([]string{"id"}).AddRow(1)
	mock.ExpectQuery(`LIMIT`).WillReturnRows(bad)
	_, err := repo.FindFirstNByEnabled(context.Background(), 1, true)
	require.Error(t, err)

	rows := userRows(alice).RowError(0, errors.New("row broke"))
	mock.ExpectQuery(`LIMIT`).WillReturnRows(rows)
	_, err = repo.FindFirstNByEnabled(context.Background(), 1, true)
	require.ErrorContains(t, err, "row broke")
}

func TestFindByUsernameIn(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	q := `(?s)WHERE\s+username\s+IN\s+\(\$1,\s*\$2,\s*\$3\)\s+ORDER\s+BY\s+id`
	mock.ExpectQuery(q).WithArgs("alice", "bob", "ghost").WillReturnRows(userRows(alice, bob))

	got, err := repo.FindByUsernameIn(context.Background(), []string{"alice", "bob", "ghost"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByUsernameIn_EmptySkipsQuery(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	got, err := repo.FindByUsernameIn(context.Background(), nil)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSave_Upsert(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	q := `(?s)^INSERT\s+INTO\s+users\s*\(username,\s*display_name,\s*email,\s*enabled\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4\)\s*ON\s+CONFLICT\s*\(username\).*RETURNING\s+id,\s*created_at,\s*updated_at\s*$`
	mock.ExpectQuery(q).
		WithArgs("alice", "Alice A", "alice@example.com", true).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(1), ts, ts))

	in := &models.User{UserName: "alice", DisplayName: "Alice A", Email: "alice@example.com", Enabled: true}
	got, err := repo.Save(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, &alice, got)
	assert.Zero(t, in.ID, "input must not be mutated")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSave_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`INSERT\s+INTO\s+users`).WillReturnError(errors.New("db down"))

	_, err := repo.Save(context.Background(), &models.User{UserName: "alice"})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestContainsPattern(t *testing.T) {
	assert.Equal(t, "%%", containsPattern(""))
	assert.Equal(t, "%bob%", containsPattern("bob"))
	assert.Equal(t, `%a\_b\%c\\%`, containsPattern(`a_b%c\`))
}
