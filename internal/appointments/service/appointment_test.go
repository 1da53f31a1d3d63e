package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	appointmenterrors "salonhq/internal/appointments/errors"
	"salonhq/internal/appointments/validator"
	"salonhq/pkg/config"
	mongotx "salonhq/pkg/db/mongo"
	apperrors "salonhq/pkg/errors"
	"salonhq/pkg/logger"
	"salonhq/pkg/model"
)

// Mock appointment repository backed by an in-memory map. Keeps the id
// allocation semantics of the real repository: max existing id plus one.
type mockAppointmentRepository struct {
	mu           sync.Mutex
	appointments map[int64]*model.Appointment
	createErr    error
	findErr      error
	updateCalls  int
}

func newMockAppointmentRepository() *mockAppointmentRepository {
	return &mockAppointmentRepository{appointments: map[int64]*model.Appointment{}}
}

func (m *mockAppointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *appointment
	m.appointments[appointment.ID] = &copy
	return nil
}

func (m *mockAppointmentRepository) FindByID(ctx context.Context, id int64) (*model.Appointment, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.appointments[id]; ok {
		copy := *a
		return &copy, nil
	}
	return nil, appointmenterrors.ErrNotFound
}

func (m *mockAppointmentRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Appointment
	for id := int64(1); id <= maxID(m.appointments); id++ {
		if a, ok := m.appointments[id]; ok {
			copy := *a
			out = append(out, &copy)
		}
	}
	if offset >= int64(len(out)) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockAppointmentRepository) FindByUserID(ctx context.Context, userID int64) ([]*model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Appointment
	for id := int64(1); id <= maxID(m.appointments); id++ {
		a, ok := m.appointments[id]
		if !ok || a.UserID == nil || *a.UserID != userID {
			continue
		}
		copy := *a
		out = append(out, &copy)
	}
	return out, nil
}

func (m *mockAppointmentRepository) FindByStaffID(ctx context.Context, staffID int64) ([]*model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Appointment
	for id := int64(1); id <= maxID(m.appointments); id++ {
		a, ok := m.appointments[id]
		if !ok {
			continue
		}
		for _, line := range a.Services {
			if line.Stylist.ID == staffID {
				copy := *a
				out = append(out, &copy)
				break
			}
		}
	}
	return out, nil
}

func (m *mockAppointmentRepository) Update(ctx context.Context, id int64, appointment *model.Appointment) (*mongo.UpdateResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateCalls++
	if _, ok := m.appointments[id]; !ok {
		return nil, appointmenterrors.ErrNotFound
	}
	copy := *appointment
	copy.ID = id
	m.appointments[id] = &copy
	return &mongo.UpdateResult{MatchedCount: 1}, nil
}

func (m *mockAppointmentRepository) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.appointments[id]; !ok {
		return appointmenterrors.ErrNotFound
	}
	delete(m.appointments, id)
	return nil
}

func (m *mockAppointmentRepository) NextID(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return maxID(m.appointments) + 1, nil
}

func (m *mockAppointmentRepository) Count(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.appointments)), nil
}

func (m *mockAppointmentRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(nil)
}

func maxID(appointments map[int64]*model.Appointment) int64 {
	var top int64
	for id := range appointments {
		if id > top {
			top = id
		}
	}
	return top
}

// Mock slot lock repository
type mockSlotLockRepository struct {
	mu       sync.Mutex
	held     map[string]struct{}
	acquired []string
	released []string
}

func newMockSlotLockRepository() *mockSlotLockRepository {
	return &mockSlotLockRepository{held: map[string]struct{}{}}
}

func (m *mockSlotLockRepository) Acquire(ctx context.Context, date, timeOfDay string) (*model.SlotLock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := date + "@" + timeOfDay
	if _, taken := m.held[id]; taken {
		return nil, appointmenterrors.ErrSlotLocked
	}
	m.held[id] = struct{}{}
	m.acquired = append(m.acquired, id)
	return &model.SlotLock{ID: id, ExpiresAt: time.Now().Add(10 * time.Second)}, nil
}

func (m *mockSlotLockRepository) Release(ctx context.Context, lockID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.held, lockID)
	m.released = append(m.released, lockID)
	return nil
}

// Mock staff directory
type mockStaffDirectory struct {
	findAvailableFunc func(ctx context.Context, date, timeOfDay, serviceName string) ([]model.StaffMember, error)
	getByIDFunc       func(ctx context.Context, id int64) (*model.StaffMember, error)
}

func (m *mockStaffDirectory) FindAvailable(ctx context.Context, date, timeOfDay, serviceName string) ([]model.StaffMember, error) {
	if m.findAvailableFunc != nil {
		return m.findAvailableFunc(ctx, date, timeOfDay, serviceName)
	}
	return nil, nil
}

func (m *mockStaffDirectory) GetByID(ctx context.Context, id int64) (*model.StaffMember, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, apperrors.NotFoundWithID("Staff member", id)
}

func (m *mockStaffDirectory) GetAll(ctx context.Context) ([]*model.StaffMember, error) {
	return nil, nil
}

func (m *mockStaffDirectory) GetActive(ctx context.Context) ([]*model.StaffMember, error) {
	return nil, nil
}

func (m *mockStaffDirectory) Create(ctx context.Context, member *model.StaffMember) error {
	return nil
}

func (m *mockStaffDirectory) Update(ctx context.Context, id int64, updates *model.StaffUpdate) error {
	return nil
}

func (m *mockStaffDirectory) Delete(ctx context.Context, id int64) error {
	return nil
}

// Identity stub
type stubIdentity struct {
	userID *int64
}

func (s *stubIdentity) CurrentUserID(ctx context.Context) *int64 { return s.userID }
func (s *stubIdentity) CurrentUserEmail(ctx context.Context) string {
	return ""
}

// Notification recorder
type recordingSink struct {
	mu       sync.Mutex
	kinds    []string
	messages []string
}

func (r *recordingSink) Notify(_ context.Context, kind, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kinds = append(r.kinds, kind)
	r.messages = append(r.messages, message)
}

func stylist(id int64, name string) model.StaffMember {
	return model.StaffMember{
		ID:         id,
		Name:       name,
		Email:      name + "@example.com",
		Commission: 0.4,
		Status:     model.StaffStatusActive,
	}
}

// availabilityTable maps service name to the roster-ordered candidates
// FindAvailable returns for any slot.
func availabilityTable(table map[string][]model.StaffMember) *mockStaffDirectory {
	return &mockStaffDirectory{
		findAvailableFunc: func(ctx context.Context, date, timeOfDay, serviceName string) ([]model.StaffMember, error) {
			return table[serviceName], nil
		},
	}
}

type storeFixture struct {
	store    AppointmentStore
	repo     *mockAppointmentRepository
	locks    *mockSlotLockRepository
	sink     *recordingSink
	identity *stubIdentity
}

func newFixture(t *testing.T, staff *mockStaffDirectory) *storeFixture {
	t.Helper()

	log := logger.New(logger.Config{
		Level:     "error",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
	cfg := &config.Config{
		Log:          log,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		SlotLockTTL:  10 * time.Second,
	}

	f := &storeFixture{
		repo:     newMockAppointmentRepository(),
		locks:    newMockSlotLockRepository(),
		sink:     &recordingSink{},
		identity: &stubIdentity{},
	}
	f.store = NewAppointmentStore(
		f.repo,
		f.locks,
		validator.NewAppointmentValidator(log),
		staff,
		f.identity,
		f.sink,
		cfg,
	)
	return f
}

func haircutRequest(services ...model.ServiceSelection) *model.BookingRequest {
	return &model.BookingRequest{
		ClientName:  "Dana Levi",
		ClientEmail: "dana@example.com",
		Services:    services,
		Date:        "2026-01-05",
		Time:        "10:00",
	}
}

func TestBook_AssignsFirstAvailablePerLine(t *testing.T) {
	staff := availabilityTable(map[string][]model.StaffMember{
		"Haircut":  {stylist(1, "Maria"), stylist(2, "James")},
		"Coloring": {stylist(1, "Maria")},
	})
	f := newFixture(t, staff)

	result, err := f.store.Book(context.Background(), haircutRequest(
		model.ServiceSelection{ServiceName: "Haircut", Price: 40},
		model.ServiceSelection{ServiceName: "Coloring", Price: 80},
	))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.AppointmentID != 1 {
		t.Errorf("expected first appointment id 1, got %d", result.AppointmentID)
	}
	if len(result.Assignments) != 2 {
		t.Fatalf("expected 2 assignments, got %d", len(result.Assignments))
	}
	if result.Assignments[0].StylistName != "Maria" {
		t.Errorf("haircut should go to the first candidate, got %q", result.Assignments[0].StylistName)
	}

	stored := f.repo.appointments[1]
	if stored == nil {
		t.Fatal("appointment was not persisted")
	}
	if stored.Status != model.StatusAwaitingConfirmation {
		t.Errorf("expected status %q, got %q", model.StatusAwaitingConfirmation, stored.Status)
	}
	if stored.TotalPrice != 120 {
		t.Errorf("expected total price 120, got %g", stored.TotalPrice)
	}
}

func TestBook_NoDoubleAssignmentWithinAppointment(t *testing.T) {
	// Coloring's only candidate is also Haircut's first candidate.
	staff := availabilityTable(map[string][]model.StaffMember{
		"Haircut":  {stylist(1, "Maria"), stylist(2, "James")},
		"Coloring": {stylist(1, "Maria")},
	})
	f := newFixture(t, staff)

	result, err := f.store.Book(context.Background(), haircutRequest(
		model.ServiceSelection{ServiceName: "Coloring", Price: 80},
		model.ServiceSelection{ServiceName: "Haircut", Price: 40},
	))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Assignments[0].StylistName != "Maria" {
		t.Errorf("coloring line should take Maria, got %q", result.Assignments[0].StylistName)
	}
	if result.Assignments[1].StylistName != "James" {
		t.Errorf("haircut line must skip the taken stylist, got %q", result.Assignments[1].StylistName)
	}

	seen := map[int64]string{}
	for _, line := range f.repo.appointments[1].Services {
		if prev, dup := seen[line.Stylist.ID]; dup {
			t.Fatalf("stylist %d assigned to both %q and %q", line.Stylist.ID, prev, line.ServiceName)
		}
		seen[line.Stylist.ID] = line.ServiceName
	}
}

func TestBook_SameServiceTwiceGetsTwoStylists(t *testing.T) {
	staff := availabilityTable(map[string][]model.StaffMember{
		"Haircut": {stylist(1, "Maria"), stylist(2, "James")},
	})
	f := newFixture(t, staff)

	result, err := f.store.Book(context.Background(), haircutRequest(
		model.ServiceSelection{ServiceName: "Haircut", Price: 40},
		model.ServiceSelection{ServiceName: "Haircut", Price: 40},
	))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Assignments[0].StylistName != "Maria" || result.Assignments[1].StylistName != "James" {
		t.Errorf("expected Maria then James, got %q and %q",
			result.Assignments[0].StylistName, result.Assignments[1].StylistName)
	}
}

func TestBook_AtomicFailure(t *testing.T) {
	// First line staffable, second is not. Nothing may be persisted.
	staff := availabilityTable(map[string][]model.StaffMember{
		"Haircut": {stylist(1, "Maria")},
	})
	f := newFixture(t, staff)

	_, err := f.store.Book(context.Background(), haircutRequest(
		model.ServiceSelection{ServiceName: "Haircut", Price: 40},
		model.ServiceSelection{ServiceName: "Massage", Price: 60},
	))
	if err == nil {
		t.Fatal("expected an error")
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeNoStylistAvailable {
		t.Errorf("expected code %s, got %s", apperrors.CodeNoStylistAvailable, appErr.Code)
	}
	if len(f.repo.appointments) != 0 {
		t.Errorf("nothing may be persisted on failure, found %d appointments", len(f.repo.appointments))
	}
	if len(f.locks.acquired) != 0 {
		t.Errorf("no lock should be taken before assignment succeeds")
	}
	if len(f.sink.kinds) == 0 || f.sink.kinds[0] != "error" {
		t.Errorf("expected an error notification, got %v", f.sink.kinds)
	}
}

func TestBook_IDMonotonicity(t *testing.T) {
	staff := availabilityTable(map[string][]model.StaffMember{
		"Haircut": {stylist(1, "Maria")},
	})
	f := newFixture(t, staff)

	for want := int64(1); want <= 3; want++ {
		result, err := f.store.Book(context.Background(), haircutRequest(
			model.ServiceSelection{ServiceName: "Haircut", Price: 40},
		))
		if err != nil {
			t.Fatalf("booking %d: unexpected error: %v", want, err)
		}
		if result.AppointmentID != want {
			t.Errorf("expected id %d, got %d", want, result.AppointmentID)
		}
	}

	// Deleting the latest frees its id for reuse; max+1 after deleting 3 is 3.
	if err := f.store.Delete(context.Background(), 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	result, err := f.store.Book(context.Background(), haircutRequest(
		model.ServiceSelection{ServiceName: "Haircut", Price: 40},
	))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.AppointmentID != 3 {
		t.Errorf("expected reallocated id 3, got %d", result.AppointmentID)
	}
}

func TestBook_GuestAndAuthenticatedUser(t *testing.T) {
	staff := availabilityTable(map[string][]model.StaffMember{
		"Haircut": {stylist(1, "Maria")},
	})

	f := newFixture(t, staff)
	if _, err := f.store.Book(context.Background(), haircutRequest(
		model.ServiceSelection{ServiceName: "Haircut", Price: 40},
	)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.repo.appointments[1].UserID != nil {
		t.Errorf("guest booking must have nil user id, got %d", *f.repo.appointments[1].UserID)
	}

	f = newFixture(t, staff)
	uid := int64(42)
	f.identity.userID = &uid
	if _, err := f.store.Book(context.Background(), haircutRequest(
		model.ServiceSelection{ServiceName: "Haircut", Price: 40},
	)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := f.repo.appointments[1].UserID; got == nil || *got != 42 {
		t.Errorf("expected user id 42 on the appointment, got %v", got)
	}
}

func TestBook_SnapshotNotReference(t *testing.T) {
	roster := []model.StaffMember{stylist(1, "Maria")}
	staff := &mockStaffDirectory{
		findAvailableFunc: func(ctx context.Context, date, timeOfDay, serviceName string) ([]model.StaffMember, error) {
			out := make([]model.StaffMember, len(roster))
			copy(out, roster)
			return out, nil
		},
	}
	f := newFixture(t, staff)

	if _, err := f.store.Book(context.Background(), haircutRequest(
		model.ServiceSelection{ServiceName: "Haircut", Price: 40},
	)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A later edit to the staff record must not leak into the appointment.
	roster[0].Name = "Renamed"
	roster[0].Commission = 0.9

	snap := f.repo.appointments[1].Services[0].Stylist
	if snap.Name != "Maria" {
		t.Errorf("snapshot name changed with staff record: %q", snap.Name)
	}
	if snap.Commission != 0.4 {
		t.Errorf("snapshot commission changed with staff record: %g", snap.Commission)
	}
}

func TestBook_SlotLockConflict(t *testing.T) {
	staff := availabilityTable(map[string][]model.StaffMember{
		"Haircut": {stylist(1, "Maria")},
	})
	f := newFixture(t, staff)

	// Another in-flight booking holds the slot.
	if _, err := f.locks.Acquire(context.Background(), "2026-01-05", "10:00"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := f.store.Book(context.Background(), haircutRequest(
		model.ServiceSelection{ServiceName: "Haircut", Price: 40},
	))
	if err == nil {
		t.Fatal("expected a conflict")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeConflict {
		t.Errorf("expected code %s, got %s", apperrors.CodeConflict, appErr.Code)
	}
	if len(f.repo.appointments) != 0 {
		t.Errorf("nothing may be persisted while the slot is locked")
	}
}

func TestBook_ReleasesLockAfterWrite(t *testing.T) {
	staff := availabilityTable(map[string][]model.StaffMember{
		"Haircut": {stylist(1, "Maria")},
	})
	f := newFixture(t, staff)

	if _, err := f.store.Book(context.Background(), haircutRequest(
		model.ServiceSelection{ServiceName: "Haircut", Price: 40},
	)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(f.locks.held) != 0 {
		t.Errorf("lock still held after booking completed")
	}
	if len(f.locks.released) != 1 {
		t.Errorf("expected exactly one release, got %d", len(f.locks.released))
	}
}

func TestBook_SequentialDoubleBookingAllowed(t *testing.T) {
	// Two separate bookings for the same slot both succeed. The lock guards
	// the write window only; it is not a reservation.
	staff := availabilityTable(map[string][]model.StaffMember{
		"Haircut": {stylist(1, "Maria")},
	})
	f := newFixture(t, staff)

	for i := 0; i < 2; i++ {
		if _, err := f.store.Book(context.Background(), haircutRequest(
			model.ServiceSelection{ServiceName: "Haircut", Price: 40},
		)); err != nil {
			t.Fatalf("booking %d: unexpected error: %v", i+1, err)
		}
	}
	if len(f.repo.appointments) != 2 {
		t.Errorf("expected both sequential bookings persisted, got %d", len(f.repo.appointments))
	}
}

func TestBook_ValidationFailure(t *testing.T) {
	f := newFixture(t, &mockStaffDirectory{})

	_, err := f.store.Book(context.Background(), &model.BookingRequest{
		ClientName: "D",
		Services:   nil,
		Date:       "2026-01-05",
		Time:       "10:00",
	})
	if err == nil {
		t.Fatal("expected a validation error")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeValidation {
		t.Errorf("expected code %s, got %s", apperrors.CodeValidation, appErr.Code)
	}
}

func seedAppointment(t *testing.T, f *storeFixture, lines ...model.ServiceLine) *model.Appointment {
	t.Helper()
	total := 0.0
	for _, l := range lines {
		total += l.Price
	}
	appointment := &model.Appointment{
		ID:          1,
		ClientName:  "Dana Levi",
		ClientEmail: "dana@example.com",
		Services:    lines,
		Date:        "2026-01-05",
		Time:        "10:00",
		Status:      model.StatusConfirmed,
		TotalPrice:  total,
	}
	f.repo.appointments[1] = appointment
	return appointment
}

func line(serviceName string, price float64, stylistID int64, stylistName string) model.ServiceLine {
	return model.ServiceLine{
		ServiceName: serviceName,
		Price:       price,
		Stylist: model.StylistSnapshot{
			ID:         stylistID,
			Name:       stylistName,
			Commission: 0.4,
		},
	}
}

func TestReschedule_KeepsCurrentStylistWhenStillAvailable(t *testing.T) {
	// James holds the line and is second in roster order for the new slot.
	// Stability beats roster order.
	staff := availabilityTable(map[string][]model.StaffMember{
		"Haircut": {stylist(1, "Maria"), stylist(2, "James")},
	})
	f := newFixture(t, staff)
	seedAppointment(t, f, line("Haircut", 40, 2, "James"))

	if err := f.store.Reschedule(context.Background(), 1, "2026-01-06", "11:00"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	updated := f.repo.appointments[1]
	if updated.Services[0].Stylist.ID != 2 {
		t.Errorf("expected James (2) to keep the line, got stylist %d", updated.Services[0].Stylist.ID)
	}
	if updated.Date != "2026-01-06" || updated.Time != "11:00" {
		t.Errorf("slot not updated: %s %s", updated.Date, updated.Time)
	}
	if updated.Status != model.StatusAwaitingConfirmation {
		t.Errorf("reschedule must reset status, got %q", updated.Status)
	}
}

func TestReschedule_ReplacesUnavailableStylist(t *testing.T) {
	staff := availabilityTable(map[string][]model.StaffMember{
		"Haircut": {stylist(3, "Priya")},
	})
	f := newFixture(t, staff)
	seedAppointment(t, f, line("Haircut", 40, 2, "James"))

	if err := f.store.Reschedule(context.Background(), 1, "2026-01-06", "11:00"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := f.repo.appointments[1].Services[0].Stylist.ID; got != 3 {
		t.Errorf("expected first new candidate (3), got %d", got)
	}
}

func TestReschedule_AtomicFailure(t *testing.T) {
	// Second line unstaffable at the new slot; the appointment must keep its
	// original slot and assignments.
	staff := availabilityTable(map[string][]model.StaffMember{
		"Haircut": {stylist(1, "Maria")},
	})
	f := newFixture(t, staff)
	seedAppointment(t, f,
		line("Haircut", 40, 1, "Maria"),
		line("Massage", 60, 2, "James"),
	)

	err := f.store.Reschedule(context.Background(), 1, "2026-01-06", "11:00")
	if err == nil {
		t.Fatal("expected an error")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeNoStylistAvailable {
		t.Errorf("expected code %s, got %s", apperrors.CodeNoStylistAvailable, appErr.Code)
	}

	untouched := f.repo.appointments[1]
	if untouched.Date != "2026-01-05" || untouched.Time != "10:00" {
		t.Errorf("appointment slot changed on failed reschedule: %s %s", untouched.Date, untouched.Time)
	}
	if untouched.Status != model.StatusConfirmed {
		t.Errorf("status changed on failed reschedule: %q", untouched.Status)
	}
	if f.repo.updateCalls != 0 {
		t.Errorf("repository update must not run on failure, ran %d times", f.repo.updateCalls)
	}
}

func TestReschedule_NotFound(t *testing.T) {
	f := newFixture(t, &mockStaffDirectory{})

	err := f.store.Reschedule(context.Background(), 9, "2026-01-06", "11:00")
	if err == nil {
		t.Fatal("expected an error")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeNotFound {
		t.Errorf("expected code %s, got %s", apperrors.CodeNotFound, appErr.Code)
	}
}

func TestChangeStylist(t *testing.T) {
	staff := availabilityTable(map[string][]model.StaffMember{
		"Haircut": {stylist(1, "Maria"), stylist(2, "James")},
	})

	t.Run("swap to an available stylist", func(t *testing.T) {
		f := newFixture(t, staff)
		seedAppointment(t, f, line("Haircut", 40, 1, "Maria"))

		err := f.store.ChangeStylist(context.Background(), 1, "2026-01-05", "10:00", "Haircut", 2)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		snap := f.repo.appointments[1].Services[0].Stylist
		if snap.ID != 2 || snap.Name != "James" {
			t.Errorf("expected fresh James snapshot, got %+v", snap)
		}
	})

	t.Run("requested stylist not in availability set", func(t *testing.T) {
		f := newFixture(t, staff)
		seedAppointment(t, f, line("Haircut", 40, 1, "Maria"))

		err := f.store.ChangeStylist(context.Background(), 1, "2026-01-05", "10:00", "Haircut", 7)
		if err == nil {
			t.Fatal("expected an error")
		}
		if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeStylistUnavailable {
			t.Errorf("expected code %s, got %s", apperrors.CodeStylistUnavailable, appErr.Code)
		}
		if f.repo.appointments[1].Services[0].Stylist.ID != 1 {
			t.Errorf("assignment changed on failed swap")
		}
	})

	t.Run("stylist already holds another line", func(t *testing.T) {
		f := newFixture(t, staff)
		seedAppointment(t, f,
			line("Haircut", 40, 1, "Maria"),
			line("Coloring", 80, 2, "James"),
		)

		err := f.store.ChangeStylist(context.Background(), 1, "2026-01-05", "10:00", "Haircut", 2)
		if err == nil {
			t.Fatal("expected an error")
		}
		if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeConflict {
			t.Errorf("expected code %s, got %s", apperrors.CodeConflict, appErr.Code)
		}
	})

	t.Run("no such service line", func(t *testing.T) {
		f := newFixture(t, staff)
		seedAppointment(t, f, line("Haircut", 40, 1, "Maria"))

		err := f.store.ChangeStylist(context.Background(), 1, "2026-01-05", "10:00", "Massage", 2)
		if err == nil {
			t.Fatal("expected an error")
		}
		if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeInvalidInput {
			t.Errorf("expected code %s, got %s", apperrors.CodeInvalidInput, appErr.Code)
		}
	})
}

func TestChangeStatus(t *testing.T) {
	f := newFixture(t, &mockStaffDirectory{})
	seedAppointment(t, f, line("Haircut", 40, 1, "Maria"))

	if err := f.store.ChangeStatus(context.Background(), 1, model.StatusCheckedIn); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := f.repo.appointments[1].Status; got != model.StatusCheckedIn {
		t.Errorf("expected %q, got %q", model.StatusCheckedIn, got)
	}

	err := f.store.ChangeStatus(context.Background(), 1, "On Hold")
	if err == nil {
		t.Fatal("expected an error for unknown status")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeInvalidInput {
		t.Errorf("expected code %s, got %s", apperrors.CodeInvalidInput, appErr.Code)
	}
}

func TestUpdate_ClientFieldsOnlyLeavesSlotAlone(t *testing.T) {
	f := newFixture(t, &mockStaffDirectory{
		findAvailableFunc: func(ctx context.Context, date, timeOfDay, serviceName string) ([]model.StaffMember, error) {
			t.Fatal("availability must not be consulted for a client-field patch")
			return nil, nil
		},
	})
	seedAppointment(t, f, line("Haircut", 40, 1, "Maria"))

	err := f.store.Update(context.Background(), 1, &model.AppointmentUpdate{
		ClientName: "Dana Cohen",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	updated := f.repo.appointments[1]
	if updated.ClientName != "Dana Cohen" {
		t.Errorf("client name not patched: %q", updated.ClientName)
	}
	if updated.Status != model.StatusConfirmed {
		t.Errorf("status must be untouched, got %q", updated.Status)
	}
	if updated.Services[0].Stylist.ID != 1 {
		t.Errorf("assignment must be untouched")
	}
}

func TestUpdate_DateChangeReassigns(t *testing.T) {
	staff := availabilityTable(map[string][]model.StaffMember{
		"Haircut": {stylist(3, "Priya")},
	})
	f := newFixture(t, staff)
	seedAppointment(t, f, line("Haircut", 40, 1, "Maria"))

	err := f.store.Update(context.Background(), 1, &model.AppointmentUpdate{
		Date: "2026-01-07",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	updated := f.repo.appointments[1]
	if updated.Date != "2026-01-07" {
		t.Errorf("date not patched: %q", updated.Date)
	}
	if updated.Services[0].Stylist.ID != 3 {
		t.Errorf("assignment must be recomputed for the new slot, got stylist %d", updated.Services[0].Stylist.ID)
	}
	if updated.Status != model.StatusAwaitingConfirmation {
		t.Errorf("slot change must reset status, got %q", updated.Status)
	}
}

func TestUpdate_ServicesChangeRecomputesTotal(t *testing.T) {
	staff := availabilityTable(map[string][]model.StaffMember{
		"Haircut": {stylist(1, "Maria")},
		"Massage": {stylist(2, "James")},
	})
	f := newFixture(t, staff)
	seedAppointment(t, f, line("Haircut", 40, 1, "Maria"))

	services := []model.ServiceSelection{
		{ServiceName: "Haircut", Price: 40},
		{ServiceName: "Massage", Price: 60},
	}
	err := f.store.Update(context.Background(), 1, &model.AppointmentUpdate{
		Services: &services,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	updated := f.repo.appointments[1]
	if len(updated.Services) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(updated.Services))
	}
	if updated.TotalPrice != 100 {
		t.Errorf("expected recomputed total 100, got %g", updated.TotalPrice)
	}
}

func TestCancel_Idempotent(t *testing.T) {
	f := newFixture(t, &mockStaffDirectory{})
	seedAppointment(t, f, line("Haircut", 40, 1, "Maria"))

	if err := f.store.Cancel(context.Background(), 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := f.repo.appointments[1].Status; got != model.StatusCancelled {
		t.Errorf("expected %q, got %q", model.StatusCancelled, got)
	}

	updatesBefore := f.repo.updateCalls
	if err := f.store.Cancel(context.Background(), 1); err != nil {
		t.Fatalf("second cancel must succeed: %v", err)
	}
	if f.repo.updateCalls != updatesBefore {
		t.Errorf("second cancel must be a no-op write")
	}

	if err := f.store.Cancel(context.Background(), 99); err != nil {
		t.Fatalf("cancel of an absent appointment must succeed: %v", err)
	}
}

func TestDelete(t *testing.T) {
	f := newFixture(t, &mockStaffDirectory{})
	seedAppointment(t, f, line("Haircut", 40, 1, "Maria"))

	if err := f.store.Delete(context.Background(), 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.repo.appointments) != 0 {
		t.Errorf("appointment not removed")
	}

	err := f.store.Delete(context.Background(), 1)
	if err == nil {
		t.Fatal("expected not found for a second delete")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeNotFound {
		t.Errorf("expected code %s, got %s", apperrors.CodeNotFound, appErr.Code)
	}
}

func TestListForUserAndStaff(t *testing.T) {
	staff := availabilityTable(map[string][]model.StaffMember{
		"Haircut": {stylist(1, "Maria"), stylist(2, "James")},
	})
	f := newFixture(t, staff)

	uid := int64(42)
	f.identity.userID = &uid
	if _, err := f.store.Book(context.Background(), haircutRequest(
		model.ServiceSelection{ServiceName: "Haircut", Price: 40},
	)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f.identity.userID = nil
	if _, err := f.store.Book(context.Background(), haircutRequest(
		model.ServiceSelection{ServiceName: "Haircut", Price: 40},
	)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	forUser, err := f.store.ListForUser(context.Background(), 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(forUser) != 1 || forUser[0].ID != 1 {
		t.Errorf("expected only appointment 1 for user 42, got %d results", len(forUser))
	}

	forStaff, err := f.store.ListForStaff(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(forStaff) != 2 {
		t.Errorf("expected Maria on both appointments, got %d results", len(forStaff))
	}
}

func TestSelectionStrategyPluggable(t *testing.T) {
	staff := availabilityTable(map[string][]model.StaffMember{
		"Haircut": {stylist(1, "Maria"), stylist(2, "James")},
	})
	f := newFixture(t, staff)

	// Pick the last candidate instead of the first.
	f.store.(*appointmentStore).WithSelectionStrategy(func(candidates []model.StaffMember) *model.StaffMember {
		if len(candidates) == 0 {
			return nil
		}
		return &candidates[len(candidates)-1]
	})

	result, err := f.store.Book(context.Background(), haircutRequest(
		model.ServiceSelection{ServiceName: "Haircut", Price: 40},
	))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Assignments[0].StylistName != "James" {
		t.Errorf("custom strategy ignored, got %q", result.Assignments[0].StylistName)
	}
}
