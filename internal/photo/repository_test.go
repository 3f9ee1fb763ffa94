package photo

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	photoID    = "22222222-2222-2222-2222-222222222222"
	employeeID = "11111111-1111-1111-1111-111111111111"
)

var (
	photoCols  = []string{"id", "url", "key", "employee_id", "status", "created_at"}
	joinedCols = []string{
		"id", "url", "key", "employee_id", "status", "created_at",
		"id", "employee_id", "name", "phone", "department", "created_at",
	}
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func TestFilter_Where(t *testing.T) {
	t.Parallel()

	where, args := Filter{}.where()
	assert.Empty(t, where)
	assert.Empty(t, args)

	where, args = Filter{Search: "张", Department: "北京", Status: StatusProcessed}.where()
	assert.Equal(t,
		" WHERE (strpos(e.name, $1) > 0 OR strpos(e.employee_id, $1) > 0) AND e.department = $2 AND p.status = $3",
		where)
	assert.Equal(t, []any{"张", "北京", "processed"}, args)

	where, args = Filter{Status: StatusUnprocessed}.where()
	assert.Equal(t, " WHERE p.status = $1", where)
	assert.Equal(t, []any{"unprocessed"}, args)
}

func TestRepository_Create(t *testing.T) {
	t.Parallel()
	mock := newMock(t)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO photos (url, key, employee_id, status)`)).
		WithArgs("/api/image-proxy?url=x", "E100_1.jpg", employeeID, "unprocessed").
		WillReturnRows(pgxmock.NewRows(photoCols).
			AddRow(photoID, "/api/image-proxy?url=x", "E100_1.jpg", employeeID, "unprocessed", now))

	p, err := NewRepository(mock).Create(context.Background(), CreateInput{
		URL: "/api/image-proxy?url=x", Key: "E100_1.jpg", EmployeeID: employeeID,
	})
	require.NoError(t, err)
	assert.Equal(t, photoID, p.ID)
	assert.Equal(t, StatusUnprocessed, p.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_CreateTranslatesConstraintErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code string
		want error
	}{
		{code: "23503", want: ErrEmployeeNotFound},
		{code: "23514", want: ErrInvalidStatus},
		{code: "23505", want: ErrAlreadyRecorded},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			mock := newMock(t)
			mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO photos`)).
				WithArgs("u", "k", employeeID, "weird").
				WillReturnError(&pgconn.PgError{Code: tt.code})

			_, err := NewRepository(mock).Create(context.Background(), CreateInput{
				URL: "u", Key: "k", EmployeeID: employeeID, Status: "weird",
			})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRepository_List(t *testing.T) {
	t.Parallel()
	mock := newMock(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`FROM photos p JOIN employees e ON e.id = p.employee_id WHERE e.department = \$1\s+ORDER BY p.created_at DESC, p.id DESC\s+LIMIT \$2 OFFSET \$3`).
		WithArgs("北京", 10, 10).
		WillReturnRows(pgxmock.NewRows(joinedCols).
			AddRow(photoID, "u", "E100_1.jpg", employeeID, "processed", now,
				employeeID, "E100", "张三", "未提供", "北京", now))

	photos, err := NewRepository(mock).List(context.Background(), 2, 10, Filter{Department: "北京"})
	require.NoError(t, err)
	require.Len(t, photos, 1)
	assert.Equal(t, StatusProcessed, photos[0].Status)
	require.NotNil(t, photos[0].Employee)
	assert.Equal(t, "E100", photos[0].Employee.EmployeeID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Count(t *testing.T) {
	t.Parallel()
	mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM photos p JOIN employees e ON e.id = p.employee_id WHERE (strpos(e.name, $1) > 0 OR strpos(e.employee_id, $1) > 0)`)).
		WithArgs("E1").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(7)))

	total, err := NewRepository(mock).Count(context.Background(), Filter{Search: "E1"})
	require.NoError(t, err)
	assert.Equal(t, 7, total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetByID_NotFound(t *testing.T) {
	t.Parallel()
	mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, url, key, employee_id, status, created_at FROM photos WHERE id = $1`)).
		WithArgs(photoID).
		WillReturnError(pgx.ErrNoRows)

	_, err := NewRepository(mock).GetByID(context.Background(), photoID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_UpdateStatus(t *testing.T) {
	t.Parallel()
	mock := newMock(t)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE photos SET status = $1 WHERE id = $2`)).
		WithArgs("processed", photoID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE photos SET status = $1 WHERE id = $2`)).
		WithArgs("processed", photoID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	repo := NewRepository(mock)
	require.NoError(t, repo.UpdateStatus(context.Background(), photoID, StatusProcessed))
	assert.ErrorIs(t, repo.UpdateStatus(context.Background(), photoID, StatusProcessed), ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Delete(t *testing.T) {
	t.Parallel()
	mock := newMock(t)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM photos WHERE id = $1`)).
		WithArgs(photoID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM photos WHERE id = $1`)).
		WithArgs(photoID).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	repo := NewRepository(mock)
	require.NoError(t, repo.Delete(context.Background(), photoID))
	assert.ErrorIs(t, repo.Delete(context.Background(), photoID), ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
