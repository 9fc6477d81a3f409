package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pianoteacher/studio-api/internal/models"
)

func newStudentRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func studentRows(names ...string) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"id", "name", "age", "grade", "email", "phone", "notes",
		"hourly_rate", "lesson_duration", "payment_terms", "active",
		"created_at", "updated_at", "last_lesson_at",
	})
	for i, name := range names {
		rows.AddRow(
			name+"-id", name, 10+i, "Grade 3", name+"@example.com", "", "",
			45.0, 60, "MONTHLY", true,
			time.Now(), time.Now(), nil,
		)
	}
	return rows
}

func TestStudentRepositoryList(t *testing.T) {
	db, mock, cleanup := newStudentRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	active := true
	mock.ExpectQuery(`(?s)SELECT s\.id, .+ FROM students s WHERE 1=1 AND s\.active = \$1 AND \(LOWER\(s\.name\) LIKE \$2 OR LOWER\(s\.email\) LIKE \$2\) ORDER BY s\.name ASC LIMIT 20 OFFSET 0`).
		WithArgs(true, "%ana%").
		WillReturnRows(studentRows("Ana"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM students s WHERE 1=1 AND s.active = $1 AND (LOWER(s.name) LIKE $2 OR LOWER(s.email) LIKE $2)")).
		WithArgs(true, "%ana%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	students, total, err := repo.List(context.Background(), models.StudentFilter{
		Active:    &active,
		Search:    "Ana",
		SortBy:    "name",
		SortOrder: "asc",
	})
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "Ana", students[0].Name)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryListRejectsUnknownSortColumn(t *testing.T) {
	db, mock, cleanup := newStudentRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	// An unrecognized sort key must fall back to created_at, never be
	// spliced into the query verbatim.
	mock.ExpectQuery(`(?s)SELECT s\.id, .+ FROM students s WHERE 1=1 ORDER BY s\.created_at DESC LIMIT 20 OFFSET 0`).
		WillReturnRows(studentRows())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM students s WHERE 1=1")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, _, err := repo.List(context.Background(), models.StudentFilter{SortBy: "id; DROP TABLE students"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newStudentRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery(`(?s)SELECT s\.id, .+ FROM students s WHERE s\.id = \$1`).
		WithArgs("Ana-id").
		WillReturnRows(studentRows("Ana"))

	student, err := repo.FindByID(context.Background(), "Ana-id")
	require.NoError(t, err)
	assert.Equal(t, "Ana", student.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryExists(t *testing.T) {
	db, mock, cleanup := newStudentRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM students WHERE id = $1 LIMIT 1")).
		WithArgs("known").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM students WHERE id = $1 LIMIT 1")).
		WithArgs("unknown").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	exists, err := repo.Exists(context.Background(), "known")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.Exists(context.Background(), "unknown")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newStudentRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec("INSERT INTO students").
		WillReturnResult(sqlmock.NewResult(1, 1))

	student := &models.Student{Name: "Ana", Age: 10, Active: true}
	require.NoError(t, repo.Create(context.Background(), student))
	assert.NotEmpty(t, student.ID)
	assert.False(t, student.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryDeactivate(t *testing.T) {
	db, mock, cleanup := newStudentRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE students SET active = false, updated_at = $2 WHERE id = $1")).
		WithArgs("Ana-id", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Deactivate(context.Background(), "Ana-id"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryCount(t *testing.T) {
	db, mock, cleanup := newStudentRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) AS total, COUNT(*) FILTER (WHERE active) AS active FROM students")).
		WillReturnRows(sqlmock.NewRows([]string{"total", "active"}).AddRow(12, 9))

	total, active, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12, total)
	assert.Equal(t, 9, active)
	assert.NoError(t, mock.ExpectationsWereMet())
}
