//go:build integration

package photo

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/staffphoto/service/internal/config"
	"github.com/staffphoto/service/internal/db"
	"github.com/staffphoto/service/internal/employee"
)

const (
	testPgImage    = "postgres:17"
	testPgUser     = "postgres"
	testPgPassword = "postgres"
	testPgDatabase = "staffphoto"
)

func preparePool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		testPgImage,
		postgres.WithDatabase(testPgDatabase),
		postgres.WithUsername(testPgUser),
		postgres.WithPassword(testPgPassword),
		postgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgContainer.Terminate(context.Background()) })

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, db.Migrate(connStr))

	pool, err := db.Connect(ctx, connStr, config.DatabaseConfig{MaxConns: 4})
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func newIntegrationService(pool *pgxpool.Pool, gw *fakeGateway) (*Service, *Repository) {
	photos := NewRepository(pool)
	return NewService(employee.NewRepository(pool), photos, gw, db.NewTransactionManager(pool), testSettings), photos
}

func TestIntegration_UploadWorkflow(t *testing.T) {
	pool := preparePool(t)
	ctx := context.Background()
	gw := newFakeGateway()
	svc, photos := newIntegrationService(pool, gw)

	t.Run("save upserts the employee", func(t *testing.T) {
		_, err := svc.SaveUpload(ctx, SaveUploadInput{
			EmployeeID: "E1", Department: "北京", PhotoKey: "E1_a.jpg", PhotoURL: gw.PublicURL("E1_a.jpg"),
		})
		require.NoError(t, err)

		p, err := svc.SaveUpload(ctx, SaveUploadInput{
			EmployeeID: "E1", Name: "张三", Phone: "138", Department: "杭州",
			PhotoKey: "E1_b.jpg", PhotoURL: gw.PublicURL("E1_b.jpg"),
		})
		require.NoError(t, err)
		assert.Equal(t, "张三", p.Employee.Name)
		assert.Equal(t, "杭州", p.Employee.Department)

		e, err := employee.NewRepository(pool).GetByEmployeeID(ctx, "E1")
		require.NoError(t, err)
		assert.Equal(t, p.Employee.ID, e.ID)
		assert.Equal(t, "138", e.Phone)

		total, err := photos.Count(ctx, Filter{Search: "E1"})
		require.NoError(t, err)
		assert.Equal(t, 2, total)
	})

	t.Run("pages are disjoint and newest first", func(t *testing.T) {
		for i := range 5 {
			key := fmt.Sprintf("E2_%d.jpg", i)
			_, err := svc.SaveUpload(ctx, SaveUploadInput{
				EmployeeID: "E2", Name: "李四", Department: "广州", PhotoKey: key, PhotoURL: gw.PublicURL(key),
			})
			require.NoError(t, err)
		}

		seen := map[string]bool{}
		for page := 1; page <= 3; page++ {
			res, err := svc.ListPhotos(ctx, ListQuery{Page: page, PageSize: 2, Filter: Filter{Department: "广州"}})
			require.NoError(t, err)
			assert.Equal(t, 5, res.Total)
			assert.Equal(t, 3, res.TotalPages)
			for _, p := range res.Photos {
				assert.False(t, seen[p.ID], "photo %s listed twice", p.ID)
				seen[p.ID] = true
				require.NotNil(t, p.Employee)
				assert.Equal(t, "李四", p.Employee.Name)
			}
		}
		assert.Len(t, seen, 5)

		first, err := svc.ListPhotos(ctx, ListQuery{Page: 1, PageSize: 1, Filter: Filter{Department: "广州"}})
		require.NoError(t, err)
		require.Len(t, first.Photos, 1)
		assert.Equal(t, "E2_4.jpg", first.Photos[0].Key)
	})

	t.Run("status and delete", func(t *testing.T) {
		res, err := svc.ListPhotos(ctx, ListQuery{Page: 1, PageSize: 1, Filter: Filter{Search: "张"}})
		require.NoError(t, err)
		require.Len(t, res.Photos, 1)
		id := res.Photos[0].ID

		require.NoError(t, svc.UpdateStatus(ctx, id, StatusProcessed))
		processed, err := photos.Count(ctx, Filter{Status: StatusProcessed})
		require.NoError(t, err)
		assert.Equal(t, 1, processed)

		deleted, err := svc.DeletePhoto(ctx, id)
		require.NoError(t, err)
		assert.Contains(t, gw.deleted, deleted.Key)

		_, err = photos.GetByID(ctx, id)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, svc.UpdateStatus(ctx, id, StatusUnprocessed), ErrNotFound)
	})
}

func TestIntegration_RepeatedSaveKeepsOneRow(t *testing.T) {
	pool := preparePool(t)
	ctx := context.Background()
	gw := newFakeGateway()
	svc, photos := newIntegrationService(pool, gw)

	in := SaveUploadInput{EmployeeID: "E5", Department: "北京", PhotoKey: "E5_a.jpg", PhotoURL: gw.PublicURL("E5_a.jpg")}
	_, err := svc.SaveUpload(ctx, in)
	require.NoError(t, err)

	_, err = svc.SaveUpload(ctx, in)
	require.ErrorIs(t, err, ErrAlreadyRecorded)
	assert.Empty(t, gw.deleted)

	total, err := photos.Count(ctx, Filter{Search: "E5"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestIntegration_ConstraintErrors(t *testing.T) {
	pool := preparePool(t)
	ctx := context.Background()
	photos := NewRepository(pool)

	_, err := photos.Create(ctx, CreateInput{URL: "u", Key: "k", EmployeeID: uuid.NewString()})
	assert.ErrorIs(t, err, ErrEmployeeNotFound)

	e, err := employee.NewRepository(pool).Upsert(ctx, employee.UpsertInput{EmployeeID: "E9", Department: "北京"}.Normalize())
	require.NoError(t, err)
	assert.Equal(t, employee.NotProvided, e.Name)

	_, err = photos.Create(ctx, CreateInput{URL: "u", Key: "k", EmployeeID: e.ID, Status: "archived"})
	assert.ErrorIs(t, err, ErrInvalidStatus)
}
