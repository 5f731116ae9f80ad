package models

import (
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"
)

// AcademyWideLecture is the lecture id of notices addressed to a whole academy.
const AcademyWideLecture int64 = 0

// Notice is an academy or lecture scoped announcement.
type Notice struct {
	ID        string       `db:"id" json:"id"`
	AcademyID string       `db:"academy_id" json:"academy_id"`
	LectureID int64        `db:"lecture_id" json:"lecture_id"`
	NoticeNum int          `db:"notice_num" json:"notice_num"`
	Title     string       `db:"title" json:"title"`
	Content   string       `db:"content" json:"content"`
	AuthorID  string       `db:"author_id" json:"author_id"`
	Views     int          `db:"views" json:"views"`
	Files     []NoticeFile `db:"-" json:"files,omitempty"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt time.Time    `db:"updated_at" json:"updated_at"`
}

// NoticeFile is an attachment mirrored to object storage.
type NoticeFile struct {
	NoticeID    string    `db:"notice_id" json:"notice_id"`
	Filename    string    `db:"filename" json:"filename"`
	ObjectKey   string    `db:"object_key" json:"-"`
	SizeBytes   int64     `db:"size_bytes" json:"size_bytes"`
	ContentType string    `db:"content_type" json:"content_type"`
	URL         string    `db:"-" json:"url,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// NoticeFilter scopes notice listings.
type NoticeFilter struct {
	AcademyID string
	LectureID *int64
	Page      int
	PageSize  int
}

// NoticeID joins the scope and sequence into the external identifier.
func NoticeID(academyID string, lectureID int64, num int) string {
	return fmt.Sprintf("%s_%d_%d", academyID, lectureID, num)
}

// ParseNoticeID splits an identifier produced by NoticeID. The numeric parts
// are taken from the right so the academy part may itself contain the delimiter.
func ParseNoticeID(id string) (string, int64, int, error) {
	last := strings.LastIndex(id, "_")
	if last <= 0 {
		return "", 0, 0, fmt.Errorf("malformed notice id %q", id)
	}
	num, err := strconv.Atoi(id[last+1:])
	if err != nil || num <= 0 {
		return "", 0, 0, fmt.Errorf("malformed notice sequence in %q", id)
	}
	rest := id[:last]
	mid := strings.LastIndex(rest, "_")
	if mid <= 0 {
		return "", 0, 0, fmt.Errorf("malformed notice id %q", id)
	}
	lectureID, err := strconv.ParseInt(rest[mid+1:], 10, 64)
	if err != nil || lectureID < 0 {
		return "", 0, 0, fmt.Errorf("malformed notice lecture in %q", id)
	}
	return rest[:mid], lectureID, num, nil
}

// NoticeDir is the relative directory and object prefix holding a notice's files.
func NoticeDir(academyID string, lectureID int64, num int) string {
	return path.Join("notices", academyID, strconv.FormatInt(lectureID, 10), strconv.Itoa(num))
}

// NoticeObjectKey is the object storage key of one attachment.
func NoticeObjectKey(academyID string, lectureID int64, num int, filename string) string {
	return path.Join(NoticeDir(academyID, lectureID, num), filename)
}

// CreateNoticeRequest carries the text fields of a new notice.
type CreateNoticeRequest struct {
	Title   string `form:"title" json:"title" validate:"required,max=200"`
	Content string `form:"content" json:"content" validate:"required"`
}

// UpdateNoticeRequest edits a notice. DeleteFiles names attachments to drop.
type UpdateNoticeRequest struct {
	Title       *string  `form:"title" json:"title" validate:"omitempty,min=1,max=200"`
	Content     *string  `form:"content" json:"content"`
	DeleteFiles []string `form:"delete_files" json:"delete_files"`
}
