// Package approval moves freelancer applications out of the pending state and
// provisions the provider account on approval.
package approval

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Windi-Fikriyansyah/homeservice_be/internal/models"
	"github.com/Windi-Fikriyansyah/homeservice_be/internal/services/saga"
	"github.com/Windi-Fikriyansyah/homeservice_be/internal/utils"
)

var (
	ErrNotFound          = errors.New("application not found")
	ErrInvalidTarget     = errors.New("status must be approved or rejected")
	ErrInvalidTransition = errors.New("application is no longer pending")
)

// TransitionError carries the status stored after a failed transition so the
// caller can show it instead of the requested one.
type TransitionError struct {
	Err     error
	Current models.ApplicationStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%v (current status: %s)", e.Err, e.Current)
}

func (e *TransitionError) Unwrap() error { return e.Err }

// IdentityProvisioner creates and removes auth identities.
type IdentityProvisioner interface {
	Provision(ctx context.Context, name, email, password string, role models.Role) (uuid.UUID, error)
	Deprovision(ctx context.Context, id uuid.UUID) error
}

// GormIdentities stores identities in the users table.
type GormIdentities struct {
	DB *gorm.DB
}

func (g GormIdentities) Provision(ctx context.Context, name, email, password string, role models.Role) (uuid.UUID, error) {
	var count int64
	if err := g.DB.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return uuid.Nil, err
	}
	if count > 0 {
		return uuid.Nil, fmt.Errorf("email %s is already registered", email)
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return uuid.Nil, err
	}
	u := models.User{Name: name, Email: email, Password: hash, Role: role, IsActive: true}
	if err := g.DB.WithContext(ctx).Create(&u).Error; err != nil {
		return uuid.Nil, err
	}
	return u.ID, nil
}

func (g GormIdentities) Deprovision(ctx context.Context, id uuid.UUID) error {
	return g.DB.WithContext(ctx).Delete(&models.User{}, "id = ?", id).Error
}

type Service struct {
	DB         *gorm.DB
	Identities IdentityProvisioner
	Log        logrus.FieldLogger
}

func NewService(db *gorm.DB, log logrus.FieldLogger) *Service {
	return &Service{DB: db, Identities: GormIdentities{DB: db}, Log: log}
}

type Result struct {
	Application models.FreelancerApplication `json:"application"`
	Freelancer  *models.ApprovedFreelancer   `json:"freelancer,omitempty"`
}

// InitialPassword derives the first credential of an approved provider from the
// last four characters of the identity number.
func InitialPassword(identityNumber string) string {
	r := []rune(strings.TrimSpace(identityNumber))
	if len(r) > 4 {
		r = r[len(r)-4:]
	}
	return "password" + string(r)
}

// Transition moves a pending application to approved or rejected. Both targets
// are terminal. Approval provisions the identity and the provider record; if
// either fails the earlier steps are undone and the application is pending again.
func (s *Service) Transition(ctx context.Context, id uuid.UUID, target models.ApplicationStatus) (*Result, error) {
	if target != models.ApplicationApproved && target != models.ApplicationRejected {
		return nil, ErrInvalidTarget
	}

	var app models.FreelancerApplication
	if err := s.DB.WithContext(ctx).First(&app, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if app.Status != models.ApplicationPending {
		return nil, &TransitionError{Err: ErrInvalidTransition, Current: app.Status}
	}

	preImage := app.Status
	res := &Result{}
	var identityID uuid.UUID

	sg := saga.New("application_"+string(target), s.Log).
		Add(saga.Step{
			Name: "update_status",
			Do: func(ctx context.Context) error {
				q := s.DB.WithContext(ctx).Model(&models.FreelancerApplication{}).
					Where("id = ? AND status = ?", id, models.ApplicationPending).
					Update("status", target)
				if q.Error != nil {
					return q.Error
				}
				if q.RowsAffected == 0 {
					return ErrInvalidTransition
				}
				return nil
			},
			Compensate: func(ctx context.Context) error {
				return s.DB.WithContext(ctx).Model(&models.FreelancerApplication{}).
					Where("id = ? AND status = ?", id, target).
					Update("status", preImage).Error
			},
		})

	if target == models.ApplicationApproved {
		sg.Add(saga.Step{
			Name: "provision_identity",
			Do: func(ctx context.Context) error {
				uid, err := s.Identities.Provision(ctx,
					strings.TrimSpace(app.FirstName+" "+app.LastName),
					app.Email,
					InitialPassword(app.IdentityNumber),
					models.RoleFreelancer,
				)
				if err != nil {
					return err
				}
				identityID = uid
				return nil
			},
			Compensate: func(ctx context.Context) error {
				return s.Identities.Deprovision(ctx, identityID)
			},
		}).Add(saga.Step{
			Name: "insert_provider",
			Do: func(ctx context.Context) error {
				f := models.ApprovedFreelancer{
					ID:            identityID,
					ApplicationID: app.ID,
					Email:         app.Email,
					StartTime:     models.DefaultStartTime,
					EndTime:       models.DefaultEndTime,
					ServiceDays:   datatypes.JSONSlice[string]{},
				}
				if err := s.DB.WithContext(ctx).Create(&f).Error; err != nil {
					return err
				}
				res.Freelancer = &f
				return nil
			},
		})
	}

	if err := sg.Run(ctx); err != nil {
		current := s.currentStatus(ctx, id)
		s.Log.WithFields(logrus.Fields{
			"application_id": id,
			"target":         target,
			"current":        current,
		}).WithError(err).Error("application transition failed")

		var se *saga.StepError
		if errors.As(err, &se) && errors.Is(se.Err, ErrInvalidTransition) {
			return nil, &TransitionError{Err: ErrInvalidTransition, Current: current}
		}
		return nil, &TransitionError{Err: err, Current: current}
	}

	app.Status = target
	res.Application = app
	s.Log.WithFields(logrus.Fields{"application_id": id, "status": target}).Info("application transitioned")
	return res, nil
}

func (s *Service) currentStatus(ctx context.Context, id uuid.UUID) models.ApplicationStatus {
	var app models.FreelancerApplication
	err := s.DB.WithContext(context.WithoutCancel(ctx)).Select("id", "status").First(&app, "id = ?", id).Error
	if err != nil {
		s.Log.WithError(err).Warn("re-read application status")
	}
	return app.Status
}

// Pending returns one page of pending applications, oldest first, and the total
// number of pending applications.
func (s *Service) Pending(ctx context.Context, page, limit int) ([]models.FreelancerApplication, int64, error) {
	pending := func() *gorm.DB {
		return s.DB.WithContext(ctx).Model(&models.FreelancerApplication{}).Where("status = ?", models.ApplicationPending)
	}

	var total int64
	if err := pending().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var apps []models.FreelancerApplication
	err := pending().Preload("Documents").
		Order("created_at ASC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&apps).Error
	return apps, total, err
}
