package service

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"

	stafferrors "salonhq/internal/staff/errors"
	"salonhq/internal/staff/repository"
	"salonhq/internal/staff/validator"
	"salonhq/pkg/config"
	apperrors "salonhq/pkg/errors"
	"salonhq/pkg/model"
	"salonhq/pkg/sanitizer"
)

// StaffDirectory answers "who can take this job" and owns the roster. It
// never books anything itself.
type StaffDirectory interface {
	FindAvailable(ctx context.Context, date, timeOfDay, serviceName string) ([]model.StaffMember, error)
	GetByID(ctx context.Context, id int64) (*model.StaffMember, error)
	GetAll(ctx context.Context) ([]*model.StaffMember, error)
	GetActive(ctx context.Context) ([]*model.StaffMember, error)
	Create(ctx context.Context, member *model.StaffMember) error
	Update(ctx context.Context, id int64, updates *model.StaffUpdate) error
	Delete(ctx context.Context, id int64) error
}

type staffDirectory struct {
	repo      repository.StaffRepository
	validator *validator.StaffValidator
	cfg       *config.Config
}

func NewStaffDirectory(
	repo repository.StaffRepository,
	validator *validator.StaffValidator,
	cfg *config.Config,
) StaffDirectory {
	return &staffDirectory{
		repo:      repo,
		validator: validator,
		cfg:       cfg,
	}
}

// FindAvailable returns roster-ordered members that are active, offer the
// service, work the date's weekday and whose window covers the time of day.
// Unknown service names simply produce an empty result. Pure query, safe to
// call concurrently.
func (s *staffDirectory) FindAvailable(ctx context.Context, date, timeOfDay, serviceName string) ([]model.StaffMember, error) {
	day, err := model.ParseDate(date)
	if err != nil {
		return nil, apperrors.InvalidDate(date)
	}
	if _, err := model.ParseClock(timeOfDay); err != nil {
		return nil, apperrors.InvalidInput("time of day must be in HH:MM 24-hour format")
	}

	serviceName = sanitizer.NormalizeServiceName(serviceName)
	if serviceName == "" {
		return nil, apperrors.InvalidInput("service name cannot be empty")
	}

	roster, err := s.repo.FindAll(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to load staff roster", "error", err)
		return nil, apperrors.Internal("Failed to load staff roster", err)
	}

	weekday := model.WeekdayName(day)

	var available []model.StaffMember
	for _, m := range roster {
		if m.Status != model.StaffStatusActive {
			continue
		}
		if !m.HasSpecialty(serviceName) {
			continue
		}
		hours := m.WorkingHours(weekday)
		if hours == nil {
			continue
		}
		covers, err := hours.Covers(timeOfDay)
		if err != nil {
			s.cfg.Log.Warn("Skipping staff member with malformed schedule window",
				"staff_id", m.ID,
				"weekday", weekday,
				"error", err,
			)
			continue
		}
		if covers {
			available = append(available, *m)
		}
	}

	s.cfg.Log.Debug("Availability query completed",
		"date", date,
		"time", timeOfDay,
		"service", serviceName,
		"candidates", len(available),
	)
	return available, nil
}

func (s *staffDirectory) GetByID(ctx context.Context, id int64) (*model.StaffMember, error) {
	if id <= 0 {
		return nil, apperrors.InvalidInput("Staff id must be positive")
	}

	member, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, stafferrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Staff member", id)
		}
		return nil, apperrors.Internal("Failed to retrieve staff member", err)
	}

	return member, nil
}

func (s *staffDirectory) GetAll(ctx context.Context) ([]*model.StaffMember, error) {
	roster, err := s.repo.FindAll(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to list staff", "error", err)
		return nil, apperrors.Internal("Failed to list staff", err)
	}
	return roster, nil
}

func (s *staffDirectory) GetActive(ctx context.Context) ([]*model.StaffMember, error) {
	active, err := s.repo.FindByStatus(ctx, model.StaffStatusActive)
	if err != nil {
		s.cfg.Log.Error("Failed to list active staff", "error", err)
		return nil, apperrors.Internal("Failed to list active staff", err)
	}
	return active, nil
}

func (s *staffDirectory) Create(ctx context.Context, member *model.StaffMember) error {
	s.sanitize(member)
	s.applyDefaults(member)

	if err := s.validateSchedule(member.Schedule); err != nil {
		return err
	}
	if err := s.validator.Validate(member); err != nil {
		s.cfg.Log.Warn("Staff validation failed", "name", member.Name, "error", err)
		return apperrors.Validation("Staff validation failed", map[string]any{"error": err.Error()})
	}

	err := s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		id, err := s.repo.NextID(sessCtx)
		if err != nil {
			return apperrors.Internal("Failed to allocate staff id", err)
		}
		member.ID = id
		if err := s.repo.Create(sessCtx, member); err != nil {
			return apperrors.Internal("Failed to create staff member", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create staff member", "name", member.Name, "error", err)
		return err
	}

	s.cfg.Log.Info("Staff member created",
		"id", member.ID,
		"name", member.Name,
		"role", member.Role,
		"specialties", member.Specialties,
	)
	return nil
}

func (s *staffDirectory) Update(ctx context.Context, id int64, updates *model.StaffUpdate) error {
	if id <= 0 {
		return apperrors.InvalidInput("Staff id must be positive")
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, stafferrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Staff member", id)
		}
		return apperrors.Internal("Failed to check staff existence", err)
	}

	if err := s.validator.ValidateUpdate(updates); err != nil {
		s.cfg.Log.Warn("Staff update validation failed", "id", id, "error", err)
		return apperrors.Validation("Invalid update input", map[string]any{"error": err.Error()})
	}

	merged := s.mergeStaffUpdates(existing, updates)
	s.sanitize(merged)

	if err := s.validateSchedule(merged.Schedule); err != nil {
		return err
	}
	if err := s.validator.Validate(merged); err != nil {
		s.cfg.Log.Warn("Staff validation failed", "id", id, "error", err)
		return apperrors.Validation("Staff validation failed", map[string]any{"error": err.Error()})
	}

	if _, err := s.repo.Update(ctx, id, merged); err != nil {
		if errors.Is(err, stafferrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Staff member", id)
		}
		s.cfg.Log.Error("Failed to update staff member", "id", id, "error", err)
		return apperrors.Internal("Failed to update staff member", err)
	}

	s.cfg.Log.Info("Staff member updated", "id", id, "name", merged.Name)
	return nil
}

func (s *staffDirectory) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return apperrors.InvalidInput("Staff id must be positive")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, stafferrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Staff member", id)
		}
		s.cfg.Log.Error("Failed to delete staff member", "id", id, "error", err)
		return apperrors.Internal("Failed to delete staff member", err)
	}

	s.cfg.Log.Info("Staff member deleted", "id", id)
	return nil
}

// --- Helpers ---

func (s *staffDirectory) sanitize(m *model.StaffMember) {
	m.Name = sanitizer.NormalizeName(m.Name)
	m.Email = sanitizer.NormalizeEmail(m.Email)
	if m.Phone != "" {
		if normalized := sanitizer.NormalizePhone(m.Phone); normalized != "" {
			m.Phone = normalized
		}
	}
	m.Role = sanitizer.TrimAndNormalize(m.Role)
	for i, specialty := range m.Specialties {
		m.Specialties[i] = sanitizer.NormalizeServiceName(specialty)
	}
}

func (s *staffDirectory) applyDefaults(m *model.StaffMember) {
	if m.Status == "" {
		m.Status = model.StaffStatusActive
	}
	if m.Commission == 0 {
		m.Commission = s.cfg.DefaultCommission
	}
	for day, hours := range m.Schedule {
		if hours == nil {
			continue
		}
		if hours.Start == "" {
			hours.Start = s.cfg.DefaultOpeningAt
		}
		if hours.End == "" {
			hours.End = s.cfg.DefaultClosingAt
		}
		m.Schedule[day] = hours
	}
}

// validateSchedule enforces start <= end per working day, surfaced as the
// dedicated schedule error rather than a generic validation failure.
func (s *staffDirectory) validateSchedule(schedule map[string]*model.DayHours) error {
	for day, hours := range schedule {
		if hours == nil {
			continue
		}
		if !hours.Valid() {
			return apperrors.InvalidSchedule(
				day + ": start (" + hours.Start + ") must not be after end (" + hours.End + ")",
			)
		}
	}
	return nil
}

func (s *staffDirectory) mergeStaffUpdates(existing *model.StaffMember, updates *model.StaffUpdate) *model.StaffMember {
	merged := *existing

	if updates.Name != "" {
		merged.Name = updates.Name
	}
	if updates.Email != "" {
		merged.Email = updates.Email
	}
	if updates.Phone != "" {
		merged.Phone = updates.Phone
	}
	if updates.Role != "" {
		merged.Role = updates.Role
	}
	if updates.Specialties != nil {
		merged.Specialties = *updates.Specialties
	}
	if updates.Commission != nil {
		merged.Commission = *updates.Commission
	}
	if updates.Status != "" {
		merged.Status = updates.Status
	}
	if updates.Schedule != nil {
		merged.Schedule = *updates.Schedule
	}

	merged.ID = existing.ID
	merged.CreatedAt = existing.CreatedAt
	return &merged
}
