//go:build integration

package repository

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/noah-isme/academy-api/internal/database/migrations"
	"github.com/noah-isme/academy-api/internal/models"
	"github.com/noah-isme/academy-api/pkg/database"
)

func startPostgres(t *testing.T) *sqlx.DB {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg, err := postgres.RunContainer(ctx,
		tc.WithImage("postgres:16-alpine"),
		postgres.WithDatabase("academy"),
		postgres.WithUsername("academy"),
		postgres.WithPassword("academy"),
		tc.WithWaitStrategy(wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(time.Minute)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		stopCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
		defer stop()
		_ = pg.Terminate(stopCtx)
	})

	uri, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sqlx.Open("postgres", uri)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.PingContext(ctx))
	require.NoError(t, database.Migrate(db.DB, migrations.FS))
	return db
}

func seedLecture(t *testing.T, db *sqlx.DB) int64 {
	t.Helper()
	ctx := context.Background()
	_, err := db.ExecContext(ctx, `INSERT INTO academies (id, name, invite_key, chief_id) VALUES ('acad', 'Academy', 'key-1', 'boss')`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO users (id, password_hash, name, role, academy_id) VALUES ('tutor', 'x', 'Tutor', 'TEACHER', 'acad')`)
	require.NoError(t, err)
	var lectureID int64
	err = db.QueryRowxContext(ctx,
		`INSERT INTO lectures (academy_id, teacher_id, name, start_time, end_time) VALUES ('acad', 'tutor', 'Math', '10:00', '11:00') RETURNING id`,
	).Scan(&lectureID)
	require.NoError(t, err)
	return lectureID
}

func TestNoticeSequenceConcurrentWriters(t *testing.T) {
	db := startPostgres(t)
	lectureID := seedLecture(t, db)
	repo := NewNoticeRepository(db)

	const writers = 12
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		nums []int
		errs []error
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx := context.Background()
			tx, err := db.BeginTxx(ctx, nil)
			if err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
				return
			}
			num, err := repo.NextSequence(ctx, tx, "acad", lectureID)
			if err == nil {
				err = repo.Create(ctx, tx, &models.Notice{
					ID:        models.NoticeID("acad", lectureID, num),
					AcademyID: "acad",
					LectureID: lectureID,
					NoticeNum: num,
					Title:     "notice",
					AuthorID:  "tutor",
				})
			}
			if err == nil {
				err = tx.Commit()
			} else {
				_ = tx.Rollback()
			}
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			nums = append(nums, num)
		}()
	}
	wg.Wait()

	require.Empty(t, errs)
	sort.Ints(nums)
	expected := make([]int, writers)
	for i := range expected {
		expected[i] = i + 1
	}
	assert.Equal(t, expected, nums)

	notices, total, err := repo.List(context.Background(), models.NoticeFilter{AcademyID: "acad", LectureID: &lectureID, Page: 1, PageSize: 50})
	require.NoError(t, err)
	assert.Equal(t, writers, total)
	assert.Len(t, notices, writers)
}

func TestNoticeSequenceIsScopedPerLecture(t *testing.T) {
	db := startPostgres(t)
	lectureID := seedLecture(t, db)
	repo := NewNoticeRepository(db)
	ctx := context.Background()

	first, err := repo.NextSequence(ctx, nil, "acad", lectureID)
	require.NoError(t, err)
	academyWide, err := repo.NextSequence(ctx, nil, "acad", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, first)
	assert.Equal(t, 1, academyWide)
}
