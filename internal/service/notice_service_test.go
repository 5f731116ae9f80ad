package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academy-api/internal/dto"
	"github.com/noah-isme/academy-api/internal/models"
	appErrors "github.com/noah-isme/academy-api/pkg/errors"
	"github.com/noah-isme/academy-api/pkg/jobs"
	"github.com/noah-isme/academy-api/pkg/storage"
)

type fakeNotices struct {
	notices map[string]*models.Notice
	files   map[string][]models.NoticeFile
}

func newFakeNotices() *fakeNotices {
	return &fakeNotices{notices: map[string]*models.Notice{}, files: map[string][]models.NoticeFile{}}
}

func (f *fakeNotices) NextSequence(ctx context.Context, exec sqlx.ExtContext, academyID string, lectureID int64) (int, error) {
	max := 0
	for _, n := range f.notices {
		if n.AcademyID == academyID && n.LectureID == lectureID && n.NoticeNum > max {
			max = n.NoticeNum
		}
	}
	return max + 1, nil
}

func (f *fakeNotices) Create(ctx context.Context, exec sqlx.ExtContext, notice *models.Notice) error {
	copy := *notice
	f.notices[notice.ID] = &copy
	return nil
}

func (f *fakeNotices) AddFiles(ctx context.Context, exec sqlx.ExtContext, files []models.NoticeFile) error {
	for _, file := range files {
		f.files[file.NoticeID] = append(f.files[file.NoticeID], file)
	}
	return nil
}

func (f *fakeNotices) FindByID(ctx context.Context, id string) (*models.Notice, error) {
	if n, ok := f.notices[id]; ok {
		copy := *n
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeNotices) ListFiles(ctx context.Context, noticeID string) ([]models.NoticeFile, error) {
	return append([]models.NoticeFile{}, f.files[noticeID]...), nil
}

func (f *fakeNotices) List(ctx context.Context, filter models.NoticeFilter) ([]models.Notice, int, error) {
	out := []models.Notice{}
	for _, n := range f.notices {
		if n.AcademyID == filter.AcademyID {
			out = append(out, *n)
		}
	}
	return out, len(out), nil
}

func (f *fakeNotices) UpdateText(ctx context.Context, exec sqlx.ExtContext, id, title, content string) error {
	f.notices[id].Title = title
	f.notices[id].Content = content
	return nil
}

func (f *fakeNotices) IncrementViews(ctx context.Context, id string) error {
	f.notices[id].Views++
	return nil
}

func (f *fakeNotices) DeleteFiles(ctx context.Context, exec sqlx.ExtContext, noticeID string, filenames []string) error {
	drop := map[string]bool{}
	for _, n := range filenames {
		drop[n] = true
	}
	kept := []models.NoticeFile{}
	for _, file := range f.files[noticeID] {
		if !drop[file.Filename] {
			kept = append(kept, file)
		}
	}
	f.files[noticeID] = kept
	return nil
}

func (f *fakeNotices) DeleteAllFiles(ctx context.Context, exec sqlx.ExtContext, noticeID string) error {
	delete(f.files, noticeID)
	return nil
}

func (f *fakeNotices) Delete(ctx context.Context, exec sqlx.ExtContext, id string) error {
	if _, ok := f.notices[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.notices, id)
	return nil
}

type fakeObjects struct {
	objects map[string]string
	failPut error
}

func (f *fakeObjects) PutFile(ctx context.Context, key, path, contentType string) error {
	if f.failPut != nil {
		return f.failPut
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	f.objects[key] = string(data)
	return nil
}

func (f *fakeObjects) Remove(ctx context.Context, key string) error {
	delete(f.objects, key)
	return nil
}

func (f *fakeObjects) RemovePrefix(ctx context.Context, prefix string) error {
	for key := range f.objects {
		if strings.HasPrefix(key, prefix) {
			delete(f.objects, key)
		}
	}
	return nil
}

func (f *fakeObjects) PresignedURL(ctx context.Context, key, filename string) (string, error) {
	return "https://objects.test/" + key, nil
}

type recordingQueue struct {
	jobs []jobs.Job
}

func (q *recordingQueue) Enqueue(job jobs.Job) error {
	q.jobs = append(q.jobs, job)
	return nil
}

type noticeFixture struct {
	svc     *NoticeService
	repo    *fakeNotices
	objects *fakeObjects
	queue   *recordingQueue
	metrics *MetricsService
	root    string
	mock    sqlmock.Sqlmock
}

func newNoticeFixture(t *testing.T) *noticeFixture {
	t.Helper()
	root := t.TempDir()
	local, err := storage.NewLocalStorage(root)
	require.NoError(t, err)
	db, mock := newMockTx(t)
	repo := newFakeNotices()
	objects := &fakeObjects{objects: map[string]string{}}
	metrics := NewMetricsService()
	lectures := fakeLectures{3: {ID: 3, AcademyID: "acad"}, 4: {ID: 4, AcademyID: "other"}}
	svc := NewNoticeService(repo, lectures, local, objects, nil, metrics, db, nil, nil, NoticeConfig{MaxFileSizeBytes: 16})
	queue := &recordingQueue{}
	svc.UseQueue(queue)
	return &noticeFixture{svc: svc, repo: repo, objects: objects, queue: queue, metrics: metrics, root: root, mock: mock}
}

func upload(name, body string) dto.UploadedFile {
	return dto.UploadedFile{
		Filename:    name,
		Size:        int64(len(body)),
		ContentType: "text/plain",
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(body)), nil
		},
	}
}

func (f *noticeFixture) expectTx() {
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()
}

func (f *noticeFixture) dirExists(rel string) bool {
	_, err := os.Stat(filepath.Join(f.root, filepath.FromSlash(rel)))
	return err == nil
}

func TestNoticeCreateAllocatesSequenceAndMirrors(t *testing.T) {
	f := newNoticeFixture(t)
	f.expectTx()
	f.expectTx()

	first, err := f.svc.Create(context.Background(), teacher(), "acad", 3, models.CreateNoticeRequest{Title: "t", Content: "c"}, []dto.UploadedFile{upload("a.txt", "alpha")})
	require.NoError(t, err)
	second, err := f.svc.Create(context.Background(), teacher(), "acad", 3, models.CreateNoticeRequest{Title: "t2", Content: "c2"}, nil)
	require.NoError(t, err)

	assert.Equal(t, "acad_3_1", first.ID)
	assert.Equal(t, "acad_3_2", second.ID)
	assert.Equal(t, "alpha", f.objects.objects["notices/acad/3/1/a.txt"])
	assert.False(t, f.dirExists("notices/acad/3/1"))
	entries, err := os.ReadDir(filepath.Join(f.root, "staging"))
	if err == nil {
		assert.Empty(t, entries)
	}
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestNoticeAcademyWideSequenceIsSeparate(t *testing.T) {
	f := newNoticeFixture(t)
	f.expectTx()
	f.expectTx()

	_, err := f.svc.Create(context.Background(), teacher(), "acad", 3, models.CreateNoticeRequest{Title: "t", Content: "c"}, nil)
	require.NoError(t, err)
	wide, err := f.svc.Create(context.Background(), teacher(), "acad", models.AcademyWideLecture, models.CreateNoticeRequest{Title: "t", Content: "c"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "acad_0_1", wide.ID)
}

func TestNoticeCreateMirrorFailureLeavesOrphanAndQueuesReconcile(t *testing.T) {
	f := newNoticeFixture(t)
	f.objects.failPut = errors.New("bucket unavailable")
	f.expectTx()

	_, err := f.svc.Create(context.Background(), teacher(), "acad", 3, models.CreateNoticeRequest{Title: "t", Content: "c"}, []dto.UploadedFile{upload("a.txt", "alpha")})
	requireAppError(t, err, ErrNoticeFilesPending)

	assert.True(t, f.dirExists("notices/acad/3/1/a.txt"))
	require.Len(t, f.queue.jobs, 1)
	assert.Equal(t, NoticeReconcileJob, f.queue.jobs[0].Type)
	assert.Equal(t, "acad_3_1", f.queue.jobs[0].Payload)
	assert.Equal(t, uint64(1), f.metrics.Snapshot().NoticeOrphans)
	_, stillThere := f.repo.notices["acad_3_1"]
	assert.True(t, stillThere)

	f.objects.failPut = nil
	require.NoError(t, f.svc.Reconcile(context.Background(), f.queue.jobs[0]))
	assert.Equal(t, "alpha", f.objects.objects["notices/acad/3/1/a.txt"])
	assert.False(t, f.dirExists("notices/acad/3/1"))
}

func TestNoticeReconcileDropsDirectoryOfDeletedNotice(t *testing.T) {
	f := newNoticeFixture(t)
	dir := filepath.Join(f.root, "notices", "acad", "3", "9")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "x.txt"), []byte("x"), 0o644))

	queued, err := f.svc.RecoverOrphans(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, queued)
	require.Len(t, f.queue.jobs, 1)
	assert.Equal(t, "acad_3_9", f.queue.jobs[0].Payload)

	require.NoError(t, f.svc.Reconcile(context.Background(), f.queue.jobs[0]))
	assert.False(t, f.dirExists("notices/acad/3/9"))
	assert.Empty(t, f.objects.objects)
}

func TestNoticeCreateRejectsOversizedAndDuplicateFiles(t *testing.T) {
	f := newNoticeFixture(t)
	req := models.CreateNoticeRequest{Title: "t", Content: "c"}

	_, err := f.svc.Create(context.Background(), teacher(), "acad", 3, req, []dto.UploadedFile{upload("big.bin", strings.Repeat("x", 17))})
	requireAppError(t, err, appErrors.ErrPayloadTooLarge)

	lying := upload("lie.bin", strings.Repeat("x", 40))
	lying.Size = 1
	_, err = f.svc.Create(context.Background(), teacher(), "acad", 3, req, []dto.UploadedFile{lying})
	requireAppError(t, err, appErrors.ErrPayloadTooLarge)

	_, err = f.svc.Create(context.Background(), teacher(), "acad", 3, req, []dto.UploadedFile{upload("a.txt", "1"), upload("a.txt", "2")})
	requireAppError(t, err, appErrors.ErrValidation)

	assert.Empty(t, f.repo.notices)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestNoticeCreateAccessRules(t *testing.T) {
	f := newNoticeFixture(t)
	req := models.CreateNoticeRequest{Title: "t", Content: "c"}

	_, err := f.svc.Create(context.Background(), claims("kid", models.RoleStudent, "acad"), "acad", 3, req, nil)
	requireAppError(t, err, appErrors.ErrForbidden)

	_, err = f.svc.Create(context.Background(), teacher(), "other", 4, req, nil)
	requireAppError(t, err, appErrors.ErrForbidden)

	_, err = f.svc.Create(context.Background(), teacher(), "acad", 42, req, nil)
	requireAppError(t, err, appErrors.ErrNotFound)
}

func TestNoticeUpdateSwapsAttachments(t *testing.T) {
	f := newNoticeFixture(t)
	f.expectTx()
	notice, err := f.svc.Create(context.Background(), teacher(), "acad", 3, models.CreateNoticeRequest{Title: "t", Content: "c"}, []dto.UploadedFile{upload("old.txt", "old")})
	require.NoError(t, err)

	f.expectTx()
	updated, err := f.svc.Update(context.Background(), teacher(), notice.ID, models.UpdateNoticeRequest{
		Title:       strPtr("renamed"),
		DeleteFiles: []string{"old.txt"},
	}, []dto.UploadedFile{upload("new.txt", "new")})
	require.NoError(t, err)

	assert.Equal(t, "renamed", updated.Title)
	require.Len(t, updated.Files, 1)
	assert.Equal(t, "new.txt", updated.Files[0].Filename)
	assert.NotContains(t, f.objects.objects, "notices/acad/3/1/old.txt")
	assert.Equal(t, "new", f.objects.objects["notices/acad/3/1/new.txt"])
}

func TestNoticeUpdateMirrorsPendingAttachments(t *testing.T) {
	f := newNoticeFixture(t)
	f.objects.failPut = errors.New("bucket unavailable")
	f.expectTx()
	_, err := f.svc.Create(context.Background(), teacher(), "acad", 3, models.CreateNoticeRequest{Title: "t", Content: "c"}, []dto.UploadedFile{upload("a.txt", "alpha")})
	requireAppError(t, err, ErrNoticeFilesPending)
	require.True(t, f.dirExists("notices/acad/3/1/a.txt"))

	f.objects.failPut = nil
	f.expectTx()
	updated, err := f.svc.Update(context.Background(), teacher(), "acad_3_1", models.UpdateNoticeRequest{}, []dto.UploadedFile{upload("b.txt", "beta")})
	require.NoError(t, err)
	assert.Len(t, updated.Files, 2)

	require.Len(t, f.queue.jobs, 1)
	require.NoError(t, f.svc.Reconcile(context.Background(), f.queue.jobs[0]))

	assert.Equal(t, "alpha", f.objects.objects["notices/acad/3/1/a.txt"])
	assert.Equal(t, "beta", f.objects.objects["notices/acad/3/1/b.txt"])
	assert.False(t, f.dirExists("notices/acad/3/1"))
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestNoticeUpdateRelocationFailureDropsNewRows(t *testing.T) {
	f := newNoticeFixture(t)
	f.expectTx()
	notice, err := f.svc.Create(context.Background(), teacher(), "acad", 3, models.CreateNoticeRequest{Title: "t", Content: "c"}, nil)
	require.NoError(t, err)

	// A plain file where the notice directory belongs makes the move fail.
	require.NoError(t, os.MkdirAll(filepath.Join(f.root, "notices", "acad", "3"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(f.root, "notices", "acad", "3", "1"), []byte("x"), 0o644))

	f.expectTx()
	f.expectTx()
	_, err = f.svc.Update(context.Background(), teacher(), notice.ID, models.UpdateNoticeRequest{}, []dto.UploadedFile{upload("b.txt", "beta")})
	requireAppError(t, err, appErrors.ErrInternal)

	assert.Empty(t, f.repo.files[notice.ID])
	entries, err := os.ReadDir(filepath.Join(f.root, "staging"))
	if err == nil {
		assert.Empty(t, entries)
	}
	assert.Empty(t, f.objects.objects)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestNoticeUpdateByOtherTeacherForbidden(t *testing.T) {
	f := newNoticeFixture(t)
	f.expectTx()
	notice, err := f.svc.Create(context.Background(), teacher(), "acad", 3, models.CreateNoticeRequest{Title: "t", Content: "c"}, nil)
	require.NoError(t, err)

	_, err = f.svc.Update(context.Background(), claims("t2", models.RoleTeacher, "acad"), notice.ID, models.UpdateNoticeRequest{Title: strPtr("x")}, nil)
	requireAppError(t, err, appErrors.ErrForbidden)
}

func TestNoticeDeleteRemovesEverythingAndToleratesMissingDirectory(t *testing.T) {
	f := newNoticeFixture(t)
	f.expectTx()
	notice, err := f.svc.Create(context.Background(), teacher(), "acad", 3, models.CreateNoticeRequest{Title: "t", Content: "c"}, []dto.UploadedFile{upload("a.txt", "alpha")})
	require.NoError(t, err)
	assert.False(t, f.dirExists("notices/acad/3/1"))

	f.expectTx()
	require.NoError(t, f.svc.Delete(context.Background(), chief(), notice.ID))
	assert.Empty(t, f.repo.notices)
	assert.Empty(t, f.objects.objects)

	err = f.svc.Delete(context.Background(), chief(), notice.ID)
	requireAppError(t, err, appErrors.ErrNotFound)
}

func TestNoticeGetCountsViewAndSignsFiles(t *testing.T) {
	f := newNoticeFixture(t)
	f.expectTx()
	notice, err := f.svc.Create(context.Background(), teacher(), "acad", 3, models.CreateNoticeRequest{Title: "t", Content: "c"}, []dto.UploadedFile{upload("a.txt", "alpha")})
	require.NoError(t, err)

	got, err := f.svc.Get(context.Background(), claims("kid", models.RoleStudent, "acad"), notice.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Views)
	require.Len(t, got.Files, 1)
	assert.Equal(t, "https://objects.test/notices/acad/3/1/a.txt", got.Files[0].URL)

	_, err = f.svc.Get(context.Background(), claims("kid", models.RoleStudent, "elsewhere"), notice.ID)
	requireAppError(t, err, appErrors.ErrForbidden)
}

func TestSplitNoticeDir(t *testing.T) {
	assert.Equal(t, "acad_0_4", splitNoticeDir("notices/acad/0/4"))
	assert.Equal(t, "", splitNoticeDir("notices/acad/x/4"))
	assert.Equal(t, "", splitNoticeDir("staging/acad/0/4"))
}
