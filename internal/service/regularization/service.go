package regularization

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/cmlabs-hris/hrms-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hrms-backend-go/internal/domain/regularization"
	"github.com/cmlabs-hris/hrms-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/hrms-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/hrms-backend-go/internal/pkg/sse"
)

type RegularizationServiceImpl struct {
	tx             database.Transactor
	regRepo        regularization.RegularizationRepository
	attendanceRepo attendance.AttendanceRepository
	settingsRepo   attendance.SettingsRepository
	hub            *sse.Hub
	now            func() time.Time
}

func NewRegularizationService(
	tx database.Transactor,
	regRepo regularization.RegularizationRepository,
	attendanceRepo attendance.AttendanceRepository,
	settingsRepo attendance.SettingsRepository,
	hub *sse.Hub,
) regularization.RegularizationService {
	return &RegularizationServiceImpl{
		tx:             tx,
		regRepo:        regRepo,
		attendanceRepo: attendanceRepo,
		settingsRepo:   settingsRepo,
		hub:            hub,
		now:            time.Now,
	}
}

// Create implements regularization.RegularizationService.
func (s *RegularizationServiceImpl) Create(ctx context.Context, req regularization.CreateRegularizationRequest) (regularization.RegularizationResponse, error) {
	if err := req.Validate(); err != nil {
		return regularization.RegularizationResponse{}, err
	}

	claims, err := user.ClaimsFromContext(ctx)
	if err != nil {
		return regularization.RegularizationResponse{}, err
	}
	employeeID, err := claims.RequireEmployee()
	if err != nil {
		return regularization.RegularizationResponse{}, err
	}

	reg := req.ToEntity(claims.CompanyID, employeeID)

	now := s.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if reg.AttendanceDate.After(today) {
		return regularization.RegularizationResponse{}, regularization.ErrFutureDate
	}

	pending, err := s.regRepo.HasPending(ctx, employeeID, reg.AttendanceDate, claims.CompanyID)
	if err != nil {
		return regularization.RegularizationResponse{}, err
	}
	if pending {
		return regularization.RegularizationResponse{}, regularization.ErrPendingRequestExists
	}

	created, err := s.regRepo.Create(ctx, reg)
	if err != nil {
		return regularization.RegularizationResponse{}, err
	}

	slog.Info("regularization requested",
		"regularization_id", created.ID,
		"employee_id", employeeID,
		"type", created.Type,
	)
	s.hub.Invalidate(claims.CompanyID, sse.EventRegularizationChanged, "regularization", created.ID)
	return toRegularizationResponse(created), nil
}

// List implements regularization.RegularizationService.
func (s *RegularizationServiceImpl) List(ctx context.Context, filter regularization.RegularizationFilter) (regularization.ListRegularizationResponse, error) {
	if err := filter.Validate(); err != nil {
		return regularization.ListRegularizationResponse{}, err
	}

	claims, err := user.ClaimsFromContext(ctx)
	if err != nil {
		return regularization.ListRegularizationResponse{}, err
	}

	return s.list(ctx, filter, claims.CompanyID)
}

// ListMine implements regularization.RegularizationService.
func (s *RegularizationServiceImpl) ListMine(ctx context.Context, filter regularization.RegularizationFilter) (regularization.ListRegularizationResponse, error) {
	if err := filter.Validate(); err != nil {
		return regularization.ListRegularizationResponse{}, err
	}

	claims, err := user.ClaimsFromContext(ctx)
	if err != nil {
		return regularization.ListRegularizationResponse{}, err
	}
	employeeID, err := claims.RequireEmployee()
	if err != nil {
		return regularization.ListRegularizationResponse{}, err
	}
	filter.EmployeeID = &employeeID

	return s.list(ctx, filter, claims.CompanyID)
}

func (s *RegularizationServiceImpl) list(ctx context.Context, filter regularization.RegularizationFilter, companyID string) (regularization.ListRegularizationResponse, error) {
	regs, total, err := s.regRepo.List(ctx, filter, companyID)
	if err != nil {
		return regularization.ListRegularizationResponse{}, err
	}

	responses := make([]regularization.RegularizationResponse, 0, len(regs))
	for _, r := range regs {
		responses = append(responses, toRegularizationResponse(r))
	}

	totalPages := int(math.Ceil(float64(total) / float64(filter.Limit)))
	showing := fmt.Sprintf("%d-%d of %d", (filter.Page-1)*filter.Limit+1, min(filter.Page*filter.Limit, int(total)), total)
	if total == 0 {
		showing = "0 of 0"
	}

	return regularization.ListRegularizationResponse{
		TotalCount:      total,
		Page:            filter.Page,
		Limit:           filter.Limit,
		TotalPages:      totalPages,
		Showing:         showing,
		Regularizations: responses,
	}, nil
}

// Get implements regularization.RegularizationService. Employees only see their own requests.
func (s *RegularizationServiceImpl) Get(ctx context.Context, id string) (regularization.RegularizationResponse, error) {
	claims, err := user.ClaimsFromContext(ctx)
	if err != nil {
		return regularization.RegularizationResponse{}, err
	}

	reg, err := s.regRepo.GetByID(ctx, id, claims.CompanyID)
	if err != nil {
		return regularization.RegularizationResponse{}, err
	}
	if !claims.Role.IsHR() && reg.EmployeeID != claims.EmployeeID {
		return regularization.RegularizationResponse{}, regularization.ErrNotOwner
	}

	return toRegularizationResponse(reg), nil
}

// Approve implements regularization.RegularizationService.
func (s *RegularizationServiceImpl) Approve(ctx context.Context, id string) (regularization.RegularizationResponse, error) {
	claims, err := user.ClaimsFromContext(ctx)
	if err != nil {
		return regularization.RegularizationResponse{}, err
	}

	var approved regularization.Regularization
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		reg, err := s.regRepo.GetByID(ctx, id, claims.CompanyID)
		if err != nil {
			return err
		}
		if !reg.IsPending() {
			return regularization.ErrAlreadyProcessed
		}

		settings, err := s.settingsRepo.Get(ctx, claims.CompanyID)
		if errors.Is(err, attendance.ErrSettingsNotFound) {
			settings = attendance.DefaultSettings(claims.CompanyID)
		} else if err != nil {
			return fmt.Errorf("failed to load attendance settings: %w", err)
		}

		existing, err := s.attendanceRepo.GetByEmployeeAndDate(ctx, reg.EmployeeID, reg.AttendanceDate, claims.CompanyID)
		if err != nil {
			return err
		}

		record := attendance.Attendance{
			CompanyID:  claims.CompanyID,
			EmployeeID: reg.EmployeeID,
			Date:       reg.AttendanceDate,
		}
		if existing != nil {
			record = *existing
		}

		reg.ApplyTo(&record)
		if record.CheckIn != nil && record.CheckOut != nil && !record.CheckOut.After(*record.CheckIn) {
			return attendance.ErrCheckOutNotAfterIn
		}
		record.Reclassify(settings)
		reason := reg.Reason
		record.EditReason = &reason
		record.EditedBy = optional(claims.UserID)

		var saved attendance.Attendance
		if existing != nil {
			saved, err = s.attendanceRepo.Update(ctx, record, nil)
		} else {
			saved, err = s.attendanceRepo.Create(ctx, record)
		}
		if err != nil {
			return err
		}

		reviewedAt := s.now().UTC()
		reg.Status = regularization.StatusApproved
		reg.AttendanceID = &saved.ID
		reg.ReviewedBy = optional(claims.UserID)
		reg.ReviewedAt = &reviewedAt
		if err := s.regRepo.Review(ctx, reg); err != nil {
			return err
		}

		approved = reg
		return nil
	})
	if err != nil {
		return regularization.RegularizationResponse{}, err
	}

	slog.Info("regularization approved",
		"regularization_id", approved.ID,
		"attendance_id", *approved.AttendanceID,
		"reviewed_by", claims.UserID,
	)
	s.hub.Invalidate(claims.CompanyID, sse.EventRegularizationChanged, "regularization", approved.ID)
	s.hub.Invalidate(claims.CompanyID, sse.EventAttendanceChanged, "attendance", *approved.AttendanceID)
	return toRegularizationResponse(approved), nil
}

// Reject implements regularization.RegularizationService.
func (s *RegularizationServiceImpl) Reject(ctx context.Context, req regularization.RejectRequest) (regularization.RegularizationResponse, error) {
	if err := req.Validate(); err != nil {
		return regularization.RegularizationResponse{}, err
	}

	claims, err := user.ClaimsFromContext(ctx)
	if err != nil {
		return regularization.RegularizationResponse{}, err
	}

	reg, err := s.regRepo.GetByID(ctx, req.ID, claims.CompanyID)
	if err != nil {
		return regularization.RegularizationResponse{}, err
	}
	if !reg.IsPending() {
		return regularization.RegularizationResponse{}, regularization.ErrAlreadyProcessed
	}

	reviewedAt := s.now().UTC()
	reg.Status = regularization.StatusRejected
	reg.RejectionReason = &req.Reason
	reg.ReviewedBy = optional(claims.UserID)
	reg.ReviewedAt = &reviewedAt
	if err := s.regRepo.Review(ctx, reg); err != nil {
		return regularization.RegularizationResponse{}, err
	}

	slog.Info("regularization rejected", "regularization_id", reg.ID, "reviewed_by", claims.UserID)
	s.hub.Invalidate(claims.CompanyID, sse.EventRegularizationChanged, "regularization", reg.ID)
	return toRegularizationResponse(reg), nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func timePtrToString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	format := t.UTC().Format(time.RFC3339)
	return &format
}

func toRegularizationResponse(r regularization.Regularization) regularization.RegularizationResponse {
	resp := regularization.RegularizationResponse{
		ID:               r.ID,
		EmployeeID:       r.EmployeeID,
		AttendanceDate:   r.AttendanceDate.Format("2006-01-02"),
		Type:             r.Type,
		ProposedCheckIn:  timePtrToString(r.ProposedCheckIn),
		ProposedCheckOut: timePtrToString(r.ProposedCheckOut),
		ProposedStatus:   r.ProposedStatus,
		Reason:           r.Reason,
		Status:           r.Status,
		AttendanceID:     r.AttendanceID,
		ReviewedBy:       r.ReviewedBy,
		ReviewedAt:       timePtrToString(r.ReviewedAt),
		RejectionReason:  r.RejectionReason,
		CreatedAt:        r.CreatedAt.UTC().Format(time.RFC3339),
	}
	if r.EmployeeName != nil {
		resp.EmployeeName = *r.EmployeeName
	}
	return resp
}
