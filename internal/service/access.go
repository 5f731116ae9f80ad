package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/noah-isme/academy-api/internal/models"
	appErrors "github.com/noah-isme/academy-api/pkg/errors"
)

func requireAcademy(actor *models.JWTClaims, academyID string) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	if !actor.InAcademy(academyID) {
		return appErrors.Clone(appErrors.ErrForbidden, "academy access denied")
	}
	return nil
}

func requireRole(actor *models.JWTClaims, roles ...models.UserRole) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	for _, r := range roles {
		if actor.Role == r {
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrForbidden, "role not permitted")
}

type lectureFinder interface {
	FindByID(ctx context.Context, id int64) (*models.Lecture, error)
}

// accessibleLecture loads a lecture and checks that actor belongs to its academy.
func accessibleLecture(ctx context.Context, lectures lectureFinder, actor *models.JWTClaims, lectureID int64) (*models.Lecture, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	lecture, err := lectures.FindByID(ctx, lectureID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lecture not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lecture")
	}
	if err := requireAcademy(actor, lecture.AcademyID); err != nil {
		return nil, err
	}
	return lecture, nil
}
