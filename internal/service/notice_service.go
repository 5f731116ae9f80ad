package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/academy-api/internal/dto"
	"github.com/noah-isme/academy-api/internal/models"
	appErrors "github.com/noah-isme/academy-api/pkg/errors"
	"github.com/noah-isme/academy-api/pkg/jobs"
)

// NoticeReconcileJob is the job type that re-mirrors an orphaned notice directory.
const NoticeReconcileJob = "notice.reconcile"

const (
	stagingRoot = "staging"
	noticeRoot  = "notices"
)

// ErrNoticeFilesPending reports a notice whose attachments are stored locally
// but not yet mirrored to object storage.
var ErrNoticeFilesPending = appErrors.New("NOTICE_FILES_PENDING", http.StatusBadGateway, "notice saved but attachments are pending upload")

type noticeRepository interface {
	NextSequence(ctx context.Context, exec sqlx.ExtContext, academyID string, lectureID int64) (int, error)
	Create(ctx context.Context, exec sqlx.ExtContext, notice *models.Notice) error
	AddFiles(ctx context.Context, exec sqlx.ExtContext, files []models.NoticeFile) error
	FindByID(ctx context.Context, id string) (*models.Notice, error)
	ListFiles(ctx context.Context, noticeID string) ([]models.NoticeFile, error)
	List(ctx context.Context, filter models.NoticeFilter) ([]models.Notice, int, error)
	UpdateText(ctx context.Context, exec sqlx.ExtContext, id, title, content string) error
	IncrementViews(ctx context.Context, id string) error
	DeleteFiles(ctx context.Context, exec sqlx.ExtContext, noticeID string, filenames []string) error
	DeleteAllFiles(ctx context.Context, exec sqlx.ExtContext, noticeID string) error
	Delete(ctx context.Context, exec sqlx.ExtContext, id string) error
}

// localFiles is the transient on-disk area used for staging and relocation.
type localFiles interface {
	SaveStream(name string, r io.Reader) (int64, error)
	Move(src, dst string) error
	RemoveAll(dir string) error
	Exists(name string) bool
	ListFiles(dir string) ([]string, error)
	ListDirs(dir string, depth int) ([]string, error)
	CleanupOlderThan(dir string, ttl time.Duration) ([]string, error)
	Path(name string) string
}

type noticeObjectStore interface {
	PutFile(ctx context.Context, key, path, contentType string) error
	Remove(ctx context.Context, key string) error
	RemovePrefix(ctx context.Context, prefix string) error
	PresignedURL(ctx context.Context, key, filename string) (string, error)
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// NoticeConfig tunes the notice pipeline.
type NoticeConfig struct {
	MaxFileSizeBytes int64
	SequenceRetries  int
	StagingMaxAge    time.Duration
}

// NoticeService manages notices and the lifecycle of their attachments:
// stage locally, relocate into the notice directory, mirror to object
// storage, then reclaim the local copy.
type NoticeService struct {
	notices   noticeRepository
	lectures  lectureFinder
	local     localFiles
	objects   noticeObjectStore
	queue     jobEnqueuer
	cache     *CacheService
	metrics   *MetricsService
	tx        txProvider
	validator *validator.Validate
	logger    *zap.Logger
	cfg       NoticeConfig
}

// NewNoticeService constructs a NoticeService.
func NewNoticeService(notices noticeRepository, lectures lectureFinder, local localFiles, objects noticeObjectStore, cache *CacheService, metrics *MetricsService, tx txProvider, validate *validator.Validate, logger *zap.Logger, cfg NoticeConfig) *NoticeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cfg.MaxFileSizeBytes <= 0 {
		cfg.MaxFileSizeBytes = 10 * 1024 * 1024
	}
	if cfg.SequenceRetries <= 0 {
		cfg.SequenceRetries = 3
	}
	if cfg.StagingMaxAge <= 0 {
		cfg.StagingMaxAge = time.Hour
	}
	return &NoticeService{
		notices:   notices,
		lectures:  lectures,
		local:     local,
		objects:   objects,
		cache:     cache,
		metrics:   metrics,
		tx:        tx,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// UseQueue sets the queue that receives reconcile jobs for orphaned directories.
func (s *NoticeService) UseQueue(queue jobEnqueuer) {
	s.queue = queue
}

// Create stores a notice in academyID, scoped to lectureID or academy-wide
// when lectureID is zero, and mirrors its attachments.
func (s *NoticeService) Create(ctx context.Context, actor *models.JWTClaims, academyID string, lectureID int64, req models.CreateNoticeRequest, files []dto.UploadedFile) (*models.Notice, error) {
	if err := requireRole(actor, models.RoleChief, models.RoleTeacher); err != nil {
		return nil, err
	}
	if err := requireAcademy(actor, academyID); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid notice payload")
	}
	if lectureID != models.AcademyWideLecture {
		lecture, err := accessibleLecture(ctx, s.lectures, actor, lectureID)
		if err != nil {
			return nil, err
		}
		if lecture.AcademyID != academyID {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lecture not found")
		}
	}

	staging, staged, err := s.stage(files)
	if err != nil {
		return nil, err
	}

	notice := &models.Notice{
		AcademyID: academyID,
		LectureID: lectureID,
		Title:     req.Title,
		Content:   req.Content,
		AuthorID:  actor.UserID,
	}
	if err := s.insertWithSequence(ctx, notice, staged); err != nil {
		_ = s.local.RemoveAll(staging)
		return nil, err
	}

	dir := models.NoticeDir(notice.AcademyID, notice.LectureID, notice.NoticeNum)
	if len(notice.Files) > 0 {
		if err := s.relocate(staging, dir); err != nil {
			s.logger.Error("notice relocation failed", zap.String("notice_id", notice.ID), zap.Error(err))
			s.discard(ctx, notice.ID, staging, dir)
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store notice files")
		}
	} else {
		_ = s.local.RemoveAll(staging)
	}
	s.cache.Invalidate(ctx, noticeListPattern(academyID))

	if err := s.mirror(ctx, dir, notice.Files); err != nil {
		s.orphaned(notice.ID, dir, err)
		return nil, filesPending(notice.ID)
	}
	return notice, nil
}

// insertWithSequence allocates the next number of the notice scope and
// persists the notice with its file rows. A unique violation means another
// writer took the number and the allocation is retried.
func (s *NoticeService) insertWithSequence(ctx context.Context, notice *models.Notice, staged []models.NoticeFile) error {
	var err error
	for attempt := 1; attempt <= s.cfg.SequenceRetries; attempt++ {
		err = s.insertOnce(ctx, notice, staged)
		if err == nil {
			return nil
		}
		if !appErrors.IsUniqueViolation(err) {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create notice")
		}
		s.logger.Warn("notice sequence collision", zap.String("academy_id", notice.AcademyID), zap.Int64("lecture_id", notice.LectureID), zap.Int("attempt", attempt))
	}
	return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "could not allocate notice number")
}

func (s *NoticeService) insertOnce(ctx context.Context, notice *models.Notice, staged []models.NoticeFile) (err error) {
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	num, err := s.notices.NextSequence(ctx, tx, notice.AcademyID, notice.LectureID)
	if err != nil {
		return err
	}
	notice.NoticeNum = num
	notice.ID = models.NoticeID(notice.AcademyID, notice.LectureID, num)
	if err = s.notices.Create(ctx, tx, notice); err != nil {
		return err
	}
	files := make([]models.NoticeFile, len(staged))
	for i, f := range staged {
		f.NoticeID = notice.ID
		f.ObjectKey = models.NoticeObjectKey(notice.AcademyID, notice.LectureID, num, f.Filename)
		files[i] = f
	}
	if err = s.notices.AddFiles(ctx, tx, files); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return err
	}
	notice.Files = files
	return nil
}

// stage writes every upload under a fresh staging directory.
func (s *NoticeService) stage(files []dto.UploadedFile) (string, []models.NoticeFile, error) {
	staging := path.Join(stagingRoot, uuid.NewString())
	seen := make(map[string]struct{}, len(files))
	staged := make([]models.NoticeFile, 0, len(files))
	fail := func(err error) (string, []models.NoticeFile, error) {
		_ = s.local.RemoveAll(staging)
		return "", nil, err
	}
	for _, file := range files {
		name := file.SafeName()
		if name == "" {
			return fail(appErrors.Clone(appErrors.ErrValidation, "file name is required"))
		}
		if _, dup := seen[name]; dup {
			return fail(appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("duplicate file %s", name)))
		}
		seen[name] = struct{}{}
		if file.Size > s.cfg.MaxFileSizeBytes {
			return fail(appErrors.Clone(appErrors.ErrPayloadTooLarge, fmt.Sprintf("file %s exceeds the size limit", name)))
		}
		size, err := s.saveUpload(path.Join(staging, name), file)
		if err != nil {
			return fail(appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stage file"))
		}
		if size > s.cfg.MaxFileSizeBytes {
			return fail(appErrors.Clone(appErrors.ErrPayloadTooLarge, fmt.Sprintf("file %s exceeds the size limit", name)))
		}
		contentType := file.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		staged = append(staged, models.NoticeFile{Filename: name, SizeBytes: size, ContentType: contentType})
	}
	return staging, staged, nil
}

func (s *NoticeService) saveUpload(name string, file dto.UploadedFile) (int64, error) {
	reader, err := file.Open()
	if err != nil {
		return 0, err
	}
	defer reader.Close() //nolint:errcheck
	return s.local.SaveStream(name, io.LimitReader(reader, s.cfg.MaxFileSizeBytes+1))
}

// relocate moves staged files into the notice directory one by one so an
// existing directory keeps its other files.
func (s *NoticeService) relocate(staging, dir string) error {
	names, err := s.local.ListFiles(staging)
	if err != nil {
		return err
	}
	for _, name := range names {
		if err := s.local.Move(path.Join(staging, name), path.Join(dir, name)); err != nil {
			return err
		}
	}
	return s.local.RemoveAll(staging)
}

// mirror uploads the listed files from dir and reclaims the directory.
func (s *NoticeService) mirror(ctx context.Context, dir string, files []models.NoticeFile) error {
	if len(files) == 0 {
		return nil
	}
	for _, f := range files {
		local := path.Join(dir, f.Filename)
		if !s.local.Exists(local) {
			continue
		}
		if err := s.objects.PutFile(ctx, f.ObjectKey, s.local.Path(local), f.ContentType); err != nil {
			return err
		}
	}
	if err := s.local.RemoveAll(dir); err != nil {
		s.logger.Warn("failed to reclaim notice directory", zap.String("dir", dir), zap.Error(err))
	}
	return nil
}

// orphaned records a directory left behind by a failed mirror and queues it.
func (s *NoticeService) orphaned(noticeID, dir string, cause error) {
	s.metrics.RecordNoticeOrphan()
	s.logger.Error("notice files left local after upload failure",
		zap.String("notice_id", noticeID), zap.String("dir", dir), zap.Error(cause))
	s.enqueueReconcile(noticeID)
}

func filesPending(noticeID string) error {
	return appErrors.Clone(ErrNoticeFilesPending, fmt.Sprintf("notice %s saved but attachments are pending upload", noticeID))
}

func (s *NoticeService) enqueueReconcile(noticeID string) {
	if s.queue == nil {
		return
	}
	if err := s.queue.Enqueue(jobs.Job{Type: NoticeReconcileJob, Key: noticeID, Payload: noticeID}); err != nil {
		s.logger.Warn("failed to enqueue notice reconcile", zap.String("notice_id", noticeID), zap.Error(err))
	}
}

// discard deletes a notice whose files never reached their directory.
func (s *NoticeService) discard(ctx context.Context, noticeID string, dirs ...string) {
	if err := s.deleteRows(ctx, noticeID); err != nil {
		s.logger.Error("failed to discard notice", zap.String("notice_id", noticeID), zap.Error(err))
	}
	for _, dir := range dirs {
		_ = s.local.RemoveAll(dir)
	}
}

// Reconcile is the queue handler for NoticeReconcileJob. It mirrors whatever
// is left in the notice directory, or drops the directory when the notice is gone.
func (s *NoticeService) Reconcile(ctx context.Context, job jobs.Job) error {
	noticeID, ok := job.Payload.(string)
	if !ok {
		return fmt.Errorf("reconcile payload %T is not a notice id", job.Payload)
	}
	academyID, lectureID, num, err := models.ParseNoticeID(noticeID)
	if err != nil {
		return err
	}
	dir := models.NoticeDir(academyID, lectureID, num)
	if _, err := s.notices.FindByID(ctx, noticeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s.local.RemoveAll(dir)
		}
		return err
	}
	files, err := s.notices.ListFiles(ctx, noticeID)
	if err != nil {
		return err
	}
	if err := s.mirror(ctx, dir, files); err != nil {
		return err
	}
	s.logger.Info("notice files reconciled", zap.String("notice_id", noticeID), zap.Int("files", len(files)))
	return nil
}

// RecoverOrphans queues every notice directory still on disk and clears
// abandoned staging directories. It runs at startup.
func (s *NoticeService) RecoverOrphans(ctx context.Context) (int, error) {
	if removed, err := s.local.CleanupOlderThan(stagingRoot, s.cfg.StagingMaxAge); err != nil {
		s.logger.Warn("staging cleanup failed", zap.Error(err))
	} else if len(removed) > 0 {
		s.logger.Info("removed stale staging directories", zap.Int("count", len(removed)))
	}
	dirs, err := s.local.ListDirs(noticeRoot, 3)
	if err != nil {
		return 0, err
	}
	queued := 0
	for _, dir := range dirs {
		id := splitNoticeDir(dir)
		if id == "" {
			continue
		}
		s.enqueueReconcile(id)
		queued++
	}
	return queued, nil
}

// splitNoticeDir turns notices/<academy>/<lecture>/<num> back into a notice id.
func splitNoticeDir(dir string) string {
	rest, numPart := path.Split(dir)
	rest, lecturePart := path.Split(path.Clean(rest))
	rest, academyPart := path.Split(path.Clean(rest))
	if path.Clean(rest) != noticeRoot {
		return ""
	}
	id := academyPart + "_" + lecturePart + "_" + numPart
	if _, _, _, err := models.ParseNoticeID(id); err != nil {
		return ""
	}
	return id
}

// List returns notices of an academy, optionally narrowed to one lecture.
func (s *NoticeService) List(ctx context.Context, actor *models.JWTClaims, filter models.NoticeFilter) ([]models.Notice, *models.Pagination, bool, error) {
	if err := requireAcademy(actor, filter.AcademyID); err != nil {
		return nil, nil, false, err
	}
	filter.Page, filter.PageSize = models.NormalizePage(filter.Page, filter.PageSize)
	type page struct {
		Items []models.Notice `json:"items"`
		Total int             `json:"total"`
	}
	key := noticeListKey(filter.AcademyID, filter.LectureID, filter.Page, filter.PageSize)
	result, hit, err := cached(ctx, s.cache, key, func() (page, error) {
		items, total, err := s.notices.List(ctx, filter)
		return page{Items: items, Total: total}, err
	})
	if err != nil {
		return nil, nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notices")
	}
	items := result.Items
	if items == nil {
		items = []models.Notice{}
	}
	return items, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: result.Total}, hit, nil
}

// Get returns a notice with presigned attachment URLs and counts the view.
func (s *NoticeService) Get(ctx context.Context, actor *models.JWTClaims, id string) (*models.Notice, error) {
	notice, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := s.notices.IncrementViews(ctx, id); err != nil {
		s.logger.Warn("failed to count notice view", zap.String("notice_id", id), zap.Error(err))
	} else {
		notice.Views++
	}
	files, err := s.notices.ListFiles(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notice files")
	}
	for i := range files {
		url, err := s.objects.PresignedURL(ctx, files[i].ObjectKey, files[i].Filename)
		if err != nil {
			s.logger.Warn("failed to presign notice file", zap.String("key", files[i].ObjectKey), zap.Error(err))
			continue
		}
		files[i].URL = url
	}
	notice.Files = files
	return notice, nil
}

// Update edits the text of a notice, drops the named attachments and adds new ones.
func (s *NoticeService) Update(ctx context.Context, actor *models.JWTClaims, id string, req models.UpdateNoticeRequest, files []dto.UploadedFile) (*models.Notice, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid notice payload")
	}
	notice, err := s.loadEditable(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	existing, err := s.notices.ListFiles(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notice files")
	}
	removed := selectFiles(existing, req.DeleteFiles)

	staging, staged, err := s.stage(files)
	if err != nil {
		return nil, err
	}
	for i := range staged {
		staged[i].NoticeID = notice.ID
		staged[i].ObjectKey = models.NoticeObjectKey(notice.AcademyID, notice.LectureID, notice.NoticeNum, staged[i].Filename)
	}
	if req.Title != nil {
		notice.Title = *req.Title
	}
	if req.Content != nil {
		notice.Content = *req.Content
	}

	if err := s.applyUpdate(ctx, notice, removed, staged); err != nil {
		_ = s.local.RemoveAll(staging)
		return nil, err
	}
	s.cache.Invalidate(ctx, noticeListPattern(notice.AcademyID))

	dir := models.NoticeDir(notice.AcademyID, notice.LectureID, notice.NoticeNum)
	for _, f := range removed {
		if err := s.objects.Remove(ctx, f.ObjectKey); err != nil {
			s.logger.Warn("failed to remove notice object", zap.String("key", f.ObjectKey), zap.Error(err))
		}
		_ = s.local.RemoveAll(path.Join(dir, f.Filename))
	}

	if len(staged) == 0 {
		_ = s.local.RemoveAll(staging)
	} else if err := s.relocate(staging, dir); err != nil {
		s.logger.Error("notice relocation failed", zap.String("notice_id", notice.ID), zap.Error(err))
		s.dropAdded(ctx, notice.ID, staged, staging, dir)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store notice files")
	}

	current, err := s.notices.ListFiles(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notice files")
	}
	if len(staged) > 0 {
		// The directory may still hold files of an earlier failed mirror, so
		// every attachment of the notice is mirrored before it is reclaimed.
		if err := s.mirror(ctx, dir, current); err != nil {
			s.orphaned(notice.ID, dir, err)
			return nil, filesPending(notice.ID)
		}
	}
	notice.Files = current
	return notice, nil
}

// dropAdded undoes the file rows of an update whose uploads never reached the
// notice directory, together with whatever part of them was moved.
func (s *NoticeService) dropAdded(ctx context.Context, noticeID string, added []models.NoticeFile, staging, dir string) {
	names := make([]string, len(added))
	for i, f := range added {
		names[i] = f.Filename
	}
	if err := s.deleteFileRows(ctx, noticeID, names); err != nil {
		s.logger.Error("failed to drop notice file rows", zap.String("notice_id", noticeID), zap.Error(err))
	}
	for _, name := range names {
		_ = s.local.RemoveAll(path.Join(dir, name))
	}
	_ = s.local.RemoveAll(staging)
}

func (s *NoticeService) deleteFileRows(ctx context.Context, noticeID string, names []string) (err error) {
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if err = s.notices.DeleteFiles(ctx, tx, noticeID, names); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *NoticeService) applyUpdate(ctx context.Context, notice *models.Notice, removed, added []models.NoticeFile) (err error) {
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to start transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	names := make([]string, len(removed))
	for i, f := range removed {
		names[i] = f.Filename
	}
	if err = s.notices.DeleteFiles(ctx, tx, notice.ID, names); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete notice files")
	}
	if err = s.notices.AddFiles(ctx, tx, added); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add notice files")
	}
	if err = s.notices.UpdateText(ctx, tx, notice.ID, notice.Title, notice.Content); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update notice")
	}
	if err = tx.Commit(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit notice update")
	}
	return nil
}

// Delete removes the notice rows, the mirrored objects and any local
// directory. A missing directory is not an error.
func (s *NoticeService) Delete(ctx context.Context, actor *models.JWTClaims, id string) error {
	notice, err := s.loadEditable(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.deleteRows(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "notice not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete notice")
	}
	s.cache.Invalidate(ctx, noticeListPattern(notice.AcademyID))

	dir := models.NoticeDir(notice.AcademyID, notice.LectureID, notice.NoticeNum)
	if err := s.objects.RemovePrefix(ctx, dir+"/"); err != nil {
		s.logger.Warn("failed to remove notice objects", zap.String("prefix", dir), zap.Error(err))
	}
	if err := s.local.RemoveAll(dir); err != nil {
		s.logger.Warn("failed to remove notice directory", zap.String("dir", dir), zap.Error(err))
	}
	return nil
}

func (s *NoticeService) deleteRows(ctx context.Context, id string) (err error) {
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if err = s.notices.DeleteAllFiles(ctx, tx, id); err != nil {
		return err
	}
	if err = s.notices.Delete(ctx, tx, id); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *NoticeService) load(ctx context.Context, actor *models.JWTClaims, id string) (*models.Notice, error) {
	academyID, _, _, err := models.ParseNoticeID(id)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "notice not found")
	}
	if err := requireAcademy(actor, academyID); err != nil {
		return nil, err
	}
	notice, err := s.notices.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "notice not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load notice")
	}
	return notice, nil
}

// loadEditable allows the author and the academy chief.
func (s *NoticeService) loadEditable(ctx context.Context, actor *models.JWTClaims, id string) (*models.Notice, error) {
	notice, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RoleChief && actor.UserID != notice.AuthorID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the author or the chief may modify a notice")
	}
	return notice, nil
}

func selectFiles(files []models.NoticeFile, names []string) []models.NoticeFile {
	if len(names) == 0 {
		return nil
	}
	wanted := make(map[string]struct{}, len(names))
	for _, n := range names {
		wanted[n] = struct{}{}
	}
	var out []models.NoticeFile
	for _, f := range files {
		if _, ok := wanted[f.Filename]; ok {
			out = append(out, f)
		}
	}
	return out
}
