package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/mongo"

	appointmenterrors "salonhq/internal/appointments/errors"
	"salonhq/internal/appointments/repository"
	"salonhq/internal/appointments/validator"
	staffservice "salonhq/internal/staff/service"
	"salonhq/pkg/config"
	apperrors "salonhq/pkg/errors"
	"salonhq/pkg/identity"
	"salonhq/pkg/model"
	"salonhq/pkg/notify"
	"salonhq/pkg/sanitizer"
)

// SelectionStrategy picks a stylist from the eligible candidates for one
// service line. Candidates arrive in roster order with already-assigned
// stylists filtered out. Returning nil means no acceptable candidate.
type SelectionStrategy func(candidates []model.StaffMember) *model.StaffMember

// FirstAvailable picks the first candidate in roster order.
func FirstAvailable(candidates []model.StaffMember) *model.StaffMember {
	if len(candidates) == 0 {
		return nil
	}
	return &candidates[0]
}

type AppointmentStore interface {
	Book(ctx context.Context, req *model.BookingRequest) (*model.BookingResult, error)
	GetByID(ctx context.Context, id int64) (*model.Appointment, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Appointment, int64, error)
	Reschedule(ctx context.Context, id int64, newDate, newTime string) error
	ChangeStylist(ctx context.Context, id int64, date, timeOfDay, serviceName string, newStylistID int64) error
	ChangeStatus(ctx context.Context, id int64, newStatus string) error
	Update(ctx context.Context, id int64, updates *model.AppointmentUpdate) error
	Cancel(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
	ListForUser(ctx context.Context, userID int64) ([]*model.Appointment, error)
	ListForStaff(ctx context.Context, staffID int64) ([]*model.Appointment, error)
}

type appointmentStore struct {
	repo      repository.AppointmentRepository
	lockRepo  repository.SlotLockRepository
	validator *validator.AppointmentValidator
	staff     staffservice.StaffDirectory
	ident     identity.Provider
	notifier  notify.Sink
	selectFn  SelectionStrategy
	cfg       *config.Config
}

func NewAppointmentStore(
	repo repository.AppointmentRepository,
	lockRepo repository.SlotLockRepository,
	validator *validator.AppointmentValidator,
	staff staffservice.StaffDirectory,
	ident identity.Provider,
	notifier notify.Sink,
	cfg *config.Config,
) AppointmentStore {
	return &appointmentStore{
		repo:      repo,
		lockRepo:  lockRepo,
		validator: validator,
		staff:     staff,
		ident:     ident,
		notifier:  notifier,
		selectFn:  FirstAvailable,
		cfg:       cfg,
	}
}

// WithSelectionStrategy replaces the default first-available stylist picker.
func (s *appointmentStore) WithSelectionStrategy(fn SelectionStrategy) *appointmentStore {
	if fn != nil {
		s.selectFn = fn
	}
	return s
}

// Book assigns a stylist to every requested service line, in request order,
// and persists the appointment. If any line cannot be staffed nothing is
// persisted at all.
func (s *appointmentStore) Book(ctx context.Context, req *model.BookingRequest) (*model.BookingResult, error) {
	s.sanitizeRequest(req)

	if err := s.validator.ValidateBookingRequest(req); err != nil {
		s.cfg.Log.Warn("Booking request validation failed", "error", err)
		return nil, apperrors.Validation("Booking request validation failed", map[string]any{"error": err.Error()})
	}

	lines, err := s.assignStylists(ctx, req.Services, req.Date, req.Time, nil)
	if err != nil {
		s.notifier.Notify(ctx, notify.KindError, bookingFailureMessage(err))
		return nil, err
	}

	lockID, err := s.acquireSlotLock(ctx, req.Date, req.Time)
	if err != nil {
		return nil, err
	}
	defer func() {
		if releaseErr := s.lockRepo.Release(ctx, lockID); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release slot lock", "lock_id", lockID, "error", releaseErr)
		}
	}()

	appointment := &model.Appointment{
		ClientName:  req.ClientName,
		ClientEmail: req.ClientEmail,
		ClientPhone: req.ClientPhone,
		UserID:      s.ident.CurrentUserID(ctx),
		Services:    lines,
		Date:        req.Date,
		Time:        req.Time,
		Message:     req.Message,
		Status:      model.StatusAwaitingConfirmation,
		TotalPrice:  totalPrice(lines),
	}

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		id, err := s.repo.NextID(sessCtx)
		if err != nil {
			return apperrors.Internal("Failed to allocate appointment id", err)
		}
		appointment.ID = id
		if err := s.repo.Create(sessCtx, appointment); err != nil {
			return apperrors.Internal("Failed to create appointment", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to book appointment", "error", err)
		return nil, err
	}

	result := &model.BookingResult{
		AppointmentID: appointment.ID,
		Assignments:   assignments(lines),
	}

	s.cfg.Log.Info("Appointment booked",
		"id", appointment.ID,
		"date", appointment.Date,
		"time", appointment.Time,
		"services", len(lines),
		"guest", appointment.UserID == nil,
	)
	s.notifier.Notify(ctx, notify.KindSuccess, bookingSuccessMessage(result, appointment))

	return result, nil
}

func (s *appointmentStore) GetByID(ctx context.Context, id int64) (*model.Appointment, error) {
	if id <= 0 {
		return nil, apperrors.InvalidInput("Appointment id must be positive")
	}

	appointment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, appointmenterrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Appointment", id)
		}
		return nil, apperrors.Internal("Failed to retrieve appointment", err)
	}

	return appointment, nil
}

func (s *appointmentStore) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Appointment, int64, error) {
	var count int64
	var appointments []*model.Appointment
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count appointments", "error", errCount)
			errCount = apperrors.Internal("Failed to count appointments", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		appointments, errFind = s.repo.FindAll(ctx, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list appointments", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve appointments", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return appointments, count, nil
}

// Reschedule moves an appointment to a new slot. Every service line is
// re-staffed against the new slot; a line's current stylist keeps the job if
// still available, otherwise the first free candidate takes over. Any
// unstaffable line aborts the whole move.
func (s *appointmentStore) Reschedule(ctx context.Context, id int64, newDate, newTime string) error {
	if id <= 0 {
		return apperrors.InvalidInput("Appointment id must be positive")
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, appointmenterrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Appointment", id)
		}
		return apperrors.Internal("Failed to check appointment existence", err)
	}

	selections := selectionsFromLines(existing.Services)
	preferred := currentAssignments(existing.Services)

	lines, err := s.assignStylists(ctx, selections, newDate, newTime, preferred)
	if err != nil {
		s.notifier.Notify(ctx, notify.KindError, rescheduleFailureMessage(id, newDate, newTime, err))
		return err
	}

	updated := *existing
	updated.Services = lines
	updated.Date = newDate
	updated.Time = newTime
	updated.Status = model.StatusAwaitingConfirmation
	updated.TotalPrice = totalPrice(lines)

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if _, err := s.repo.Update(sessCtx, id, &updated); err != nil {
			if errors.Is(err, appointmenterrors.ErrNotFound) {
				return apperrors.NotFoundWithID("Appointment", id)
			}
			return apperrors.Internal("Failed to reschedule appointment", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to reschedule appointment", "id", id, "error", err)
		return err
	}

	s.cfg.Log.Info("Appointment rescheduled",
		"id", id,
		"date", newDate,
		"time", newTime,
	)
	s.notifier.Notify(ctx, notify.KindSuccess,
		fmt.Sprintf("Appointment #%d moved to %s at %s.", id, newDate, newTime))
	return nil
}

// ChangeStylist swaps the stylist on one service line. The requested stylist
// must be in the availability set for the slot and must not already hold
// another line of the same appointment.
func (s *appointmentStore) ChangeStylist(ctx context.Context, id int64, date, timeOfDay, serviceName string, newStylistID int64) error {
	if id <= 0 {
		return apperrors.InvalidInput("Appointment id must be positive")
	}
	if newStylistID <= 0 {
		return apperrors.InvalidInput("Stylist id must be positive")
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, appointmenterrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Appointment", id)
		}
		return apperrors.Internal("Failed to check appointment existence", err)
	}

	serviceName = sanitizer.NormalizeServiceName(serviceName)
	lineIdx := -1
	for i, line := range existing.Services {
		if line.ServiceName == serviceName {
			lineIdx = i
			break
		}
	}
	if lineIdx < 0 {
		return apperrors.InvalidInput(fmt.Sprintf("Appointment has no %q service line", serviceName))
	}

	for i, line := range existing.Services {
		if i != lineIdx && line.Stylist.ID == newStylistID {
			return apperrors.Conflict(fmt.Sprintf(
				"Stylist %d already holds the %q line of this appointment", newStylistID, line.ServiceName))
		}
	}

	available, err := s.staff.FindAvailable(ctx, date, timeOfDay, serviceName)
	if err != nil {
		return err
	}

	var chosen *model.StaffMember
	for i := range available {
		if available[i].ID == newStylistID {
			chosen = &available[i]
			break
		}
	}
	if chosen == nil {
		return apperrors.StylistUnavailable(newStylistID, serviceName, date, timeOfDay)
	}

	updated := *existing
	updated.Services = make([]model.ServiceLine, len(existing.Services))
	copy(updated.Services, existing.Services)
	updated.Services[lineIdx].Stylist = snapshotOf(chosen)

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if _, err := s.repo.Update(sessCtx, id, &updated); err != nil {
			if errors.Is(err, appointmenterrors.ErrNotFound) {
				return apperrors.NotFoundWithID("Appointment", id)
			}
			return apperrors.Internal("Failed to change stylist", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to change stylist", "id", id, "stylist_id", newStylistID, "error", err)
		return err
	}

	s.cfg.Log.Info("Stylist changed",
		"id", id,
		"service", serviceName,
		"stylist_id", newStylistID,
	)
	s.notifier.Notify(ctx, notify.KindInfo,
		fmt.Sprintf("Appointment #%d: %s is now handled by %s.", id, serviceName, chosen.Name))
	return nil
}

func (s *appointmentStore) ChangeStatus(ctx context.Context, id int64, newStatus string) error {
	if id <= 0 {
		return apperrors.InvalidInput("Appointment id must be positive")
	}
	if !validStatus(newStatus) {
		return apperrors.InvalidInput(fmt.Sprintf(
			"Invalid status %q, must be one of: %s", newStatus, strings.Join(model.AppointmentStatuses, ", ")))
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, appointmenterrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Appointment", id)
		}
		return apperrors.Internal("Failed to check appointment existence", err)
	}

	updated := *existing
	updated.Status = newStatus

	if _, err := s.repo.Update(ctx, id, &updated); err != nil {
		if errors.Is(err, appointmenterrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Appointment", id)
		}
		s.cfg.Log.Error("Failed to change appointment status", "id", id, "error", err)
		return apperrors.Internal("Failed to change appointment status", err)
	}

	s.cfg.Log.Info("Appointment status changed",
		"id", id,
		"from", existing.Status,
		"to", newStatus,
	)
	return nil
}

// Update merges a partial patch. Touching date, time or services re-runs the
// stylist assignment for the resulting slot; caller-supplied stylist data is
// never trusted on those paths.
func (s *appointmentStore) Update(ctx context.Context, id int64, updates *model.AppointmentUpdate) error {
	if id <= 0 {
		return apperrors.InvalidInput("Appointment id must be positive")
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, appointmenterrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Appointment", id)
		}
		return apperrors.Internal("Failed to check appointment existence", err)
	}

	if err := s.validator.ValidateUpdate(updates); err != nil {
		s.cfg.Log.Warn("Appointment update validation failed", "id", id, "error", err)
		return apperrors.Validation("Invalid update input", map[string]any{"error": err.Error()})
	}

	merged := *existing
	if updates.ClientName != "" {
		merged.ClientName = sanitizer.NormalizeName(updates.ClientName)
	}
	if updates.ClientEmail != "" {
		merged.ClientEmail = sanitizer.NormalizeEmail(updates.ClientEmail)
	}
	if updates.ClientPhone != "" {
		merged.ClientPhone = normalizePhone(updates.ClientPhone)
	}
	if updates.Message != nil {
		merged.Message = *updates.Message
	}
	if updates.Date != "" {
		merged.Date = updates.Date
	}
	if updates.Time != "" {
		merged.Time = updates.Time
	}

	slotTouched := updates.Date != "" || updates.Time != "" || updates.Services != nil
	if slotTouched {
		selections := selectionsFromLines(existing.Services)
		if updates.Services != nil {
			selections = sanitizeSelections(*updates.Services)
		}

		lines, err := s.assignStylists(ctx, selections, merged.Date, merged.Time, currentAssignments(existing.Services))
		if err != nil {
			s.notifier.Notify(ctx, notify.KindError, bookingFailureMessage(err))
			return err
		}

		merged.Services = lines
		merged.Status = model.StatusAwaitingConfirmation
		merged.TotalPrice = totalPrice(lines)
	}

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if _, err := s.repo.Update(sessCtx, id, &merged); err != nil {
			if errors.Is(err, appointmenterrors.ErrNotFound) {
				return apperrors.NotFoundWithID("Appointment", id)
			}
			return apperrors.Internal("Failed to update appointment", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to update appointment", "id", id, "error", err)
		return err
	}

	s.cfg.Log.Info("Appointment updated", "id", id, "slot_touched", slotTouched)
	return nil
}

// Cancel flips the status to Cancelled. Cancelling an already-cancelled or
// absent appointment succeeds as a no-op.
func (s *appointmentStore) Cancel(ctx context.Context, id int64) error {
	if id <= 0 {
		return apperrors.InvalidInput("Appointment id must be positive")
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, appointmenterrors.ErrNotFound) {
			s.cfg.Log.Info("Cancel of absent appointment ignored", "id", id)
			return nil
		}
		return apperrors.Internal("Failed to check appointment existence", err)
	}

	if existing.Status == model.StatusCancelled {
		return nil
	}

	updated := *existing
	updated.Status = model.StatusCancelled

	if _, err := s.repo.Update(ctx, id, &updated); err != nil {
		if errors.Is(err, appointmenterrors.ErrNotFound) {
			return nil
		}
		s.cfg.Log.Error("Failed to cancel appointment", "id", id, "error", err)
		return apperrors.Internal("Failed to cancel appointment", err)
	}

	s.cfg.Log.Info("Appointment cancelled", "id", id)
	s.notifier.Notify(ctx, notify.KindInfo,
		fmt.Sprintf("Appointment #%d on %s at %s was cancelled.", id, existing.Date, existing.Time))
	return nil
}

func (s *appointmentStore) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return apperrors.InvalidInput("Appointment id must be positive")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, appointmenterrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Appointment", id)
		}
		s.cfg.Log.Error("Failed to delete appointment", "id", id, "error", err)
		return apperrors.Internal("Failed to delete appointment", err)
	}

	s.cfg.Log.Info("Appointment deleted", "id", id)
	return nil
}

func (s *appointmentStore) ListForUser(ctx context.Context, userID int64) ([]*model.Appointment, error) {
	if userID <= 0 {
		return nil, apperrors.InvalidInput("User id must be positive")
	}

	appointments, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		s.cfg.Log.Error("Failed to list appointments for user", "user_id", userID, "error", err)
		return nil, apperrors.Internal("Failed to list appointments", err)
	}
	return appointments, nil
}

func (s *appointmentStore) ListForStaff(ctx context.Context, staffID int64) ([]*model.Appointment, error) {
	if staffID <= 0 {
		return nil, apperrors.InvalidInput("Staff id must be positive")
	}

	appointments, err := s.repo.FindByStaffID(ctx, staffID)
	if err != nil {
		s.cfg.Log.Error("Failed to list appointments for staff", "staff_id", staffID, "error", err)
		return nil, apperrors.Internal("Failed to list appointments", err)
	}
	return appointments, nil
}

// --- Helpers ---

// assignStylists staffs each requested service line in order. preferred maps
// service name to the stylist snapshot currently holding that line; a
// preferred stylist keeps the line whenever still in the availability set.
// A stylist never takes two lines of the same appointment. Any unstaffable
// line fails the whole batch.
func (s *appointmentStore) assignStylists(
	ctx context.Context,
	selections []model.ServiceSelection,
	date, timeOfDay string,
	preferred map[string]model.StylistSnapshot,
) ([]model.ServiceLine, error) {
	taken := make(map[int64]struct{}, len(selections))
	lines := make([]model.ServiceLine, 0, len(selections))

	for _, sel := range selections {
		available, err := s.staff.FindAvailable(ctx, date, timeOfDay, sel.ServiceName)
		if err != nil {
			return nil, err
		}

		eligible := make([]model.StaffMember, 0, len(available))
		for _, m := range available {
			if _, assigned := taken[m.ID]; assigned {
				continue
			}
			eligible = append(eligible, m)
		}

		var chosen *model.StaffMember
		if current, ok := preferred[sel.ServiceName]; ok {
			for i := range eligible {
				if eligible[i].ID == current.ID {
					chosen = &eligible[i]
					break
				}
			}
		}
		if chosen == nil {
			chosen = s.selectFn(eligible)
		}
		if chosen == nil {
			s.cfg.Log.Warn("No stylist available for service line",
				"service", sel.ServiceName,
				"date", date,
				"time", timeOfDay,
				"candidates", len(available),
			)
			return nil, apperrors.NoStylistAvailable(sel.ServiceName, date, timeOfDay)
		}

		taken[chosen.ID] = struct{}{}
		lines = append(lines, model.ServiceLine{
			ServiceName: sel.ServiceName,
			Price:       sel.Price,
			Stylist:     snapshotOf(chosen),
		})
	}

	return lines, nil
}

func (s *appointmentStore) acquireSlotLock(ctx context.Context, date, timeOfDay string) (string, error) {
	lock, err := s.lockRepo.Acquire(ctx, date, timeOfDay)
	if err != nil {
		if errors.Is(err, appointmenterrors.ErrSlotLocked) {
			return "", apperrors.Conflict("This time slot is currently being booked by another request. Please try again.")
		}
		return "", apperrors.Internal("Failed to acquire slot lock", err)
	}
	return lock.ID, nil
}

func (s *appointmentStore) sanitizeRequest(req *model.BookingRequest) {
	req.ClientName = sanitizer.NormalizeName(req.ClientName)
	req.ClientEmail = sanitizer.NormalizeEmail(req.ClientEmail)
	req.ClientPhone = normalizePhone(req.ClientPhone)
	req.Message = sanitizer.TrimAndNormalize(req.Message)
	req.Services = sanitizeSelections(req.Services)
}

func sanitizeSelections(selections []model.ServiceSelection) []model.ServiceSelection {
	out := make([]model.ServiceSelection, len(selections))
	for i, sel := range selections {
		out[i] = model.ServiceSelection{
			ServiceName: sanitizer.NormalizeServiceName(sel.ServiceName),
			Price:       sel.Price,
		}
	}
	return out
}

func normalizePhone(phone string) string {
	if phone == "" {
		return ""
	}
	if normalized := sanitizer.NormalizePhone(phone); normalized != "" {
		return normalized
	}
	return phone
}

// snapshotOf copies the staff fields frozen onto the appointment. Later staff
// edits must not reach existing appointments.
func snapshotOf(m *model.StaffMember) model.StylistSnapshot {
	return model.StylistSnapshot{
		ID:         m.ID,
		Name:       m.Name,
		Email:      m.Email,
		Phone:      m.Phone,
		Commission: m.Commission,
	}
}

func selectionsFromLines(lines []model.ServiceLine) []model.ServiceSelection {
	selections := make([]model.ServiceSelection, len(lines))
	for i, line := range lines {
		selections[i] = model.ServiceSelection{
			ServiceName: line.ServiceName,
			Price:       line.Price,
		}
	}
	return selections
}

func currentAssignments(lines []model.ServiceLine) map[string]model.StylistSnapshot {
	current := make(map[string]model.StylistSnapshot, len(lines))
	for _, line := range lines {
		if _, seen := current[line.ServiceName]; !seen {
			current[line.ServiceName] = line.Stylist
		}
	}
	return current
}

func assignments(lines []model.ServiceLine) []model.Assignment {
	out := make([]model.Assignment, len(lines))
	for i, line := range lines {
		out[i] = model.Assignment{
			ServiceName: line.ServiceName,
			StylistName: line.Stylist.Name,
		}
	}
	return out
}

func totalPrice(lines []model.ServiceLine) float64 {
	var total float64
	for _, line := range lines {
		total += line.Price
	}
	return total
}

func validStatus(status string) bool {
	for _, s := range model.AppointmentStatuses {
		if s == status {
			return true
		}
	}
	return false
}

func bookingSuccessMessage(result *model.BookingResult, appointment *model.Appointment) string {
	parts := make([]string, len(result.Assignments))
	for i, a := range result.Assignments {
		parts[i] = fmt.Sprintf("%s with %s", a.ServiceName, a.StylistName)
	}
	return fmt.Sprintf("Appointment #%d booked for %s at %s: %s.",
		result.AppointmentID, appointment.Date, appointment.Time, strings.Join(parts, ", "))
}

func bookingFailureMessage(err error) string {
	appErr := apperrors.AsAppError(err)
	return appErr.Message
}

func rescheduleFailureMessage(id int64, date, timeOfDay string, err error) string {
	return fmt.Sprintf("Could not move appointment #%d to %s at %s: %s",
		id, date, timeOfDay, bookingFailureMessage(err))
}
