package model

import "time"

const (
	StaffStatusActive   = "active"
	StaffStatusInactive = "inactive"
)

// Weekday names as they appear in persisted schedules. Lowercase on the wire,
// matching time.Weekday.String() after folding.
var Weekdays = []string{
	"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday",
}

// DayHours is one weekday's working window. Times are "HH:MM" 24-hour strings.
type DayHours struct {
	Start string `json:"start" bson:"start" validate:"required,clock"`
	End   string `json:"end" bson:"end" validate:"required,clock"`
}

// StaffMember is a roster entry. A nil (or absent) Schedule entry for a
// weekday means a day off.
type StaffMember struct {
	ID          int64                `json:"id" bson:"_id"`
	Name        string               `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Email       string               `json:"email" bson:"email" validate:"required,email"`
	Phone       string               `json:"phone" bson:"phone" validate:"omitempty,e164"`
	Role        string               `json:"role" bson:"role" validate:"required,min=2,max=50"`
	Specialties []string             `json:"specialties" bson:"specialties" validate:"required,min=1,dive,required"`
	Commission  float64              `json:"commission" bson:"commission" validate:"min=0,max=1"`
	Status      string               `json:"status" bson:"status" validate:"required,oneof=active inactive"`
	Schedule    map[string]*DayHours `json:"schedule" bson:"schedule" validate:"omitempty,weekly_schedule"`
	CreatedAt   time.Time            `json:"created_at" bson:"created_at" validate:"omitempty"`
}

// StaffUpdate is a partial patch merged into an existing StaffMember.
// Pointer fields distinguish "not supplied" from zero values.
type StaffUpdate struct {
	Name        string                `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Email       string                `json:"email,omitempty" validate:"omitempty,email"`
	Phone       string                `json:"phone,omitempty" validate:"omitempty,e164"`
	Role        string                `json:"role,omitempty" validate:"omitempty,min=2,max=50"`
	Specialties *[]string             `json:"specialties,omitempty" validate:"omitempty,min=1,dive,required"`
	Commission  *float64              `json:"commission,omitempty" validate:"omitempty,min=0,max=1"`
	Status      string                `json:"status,omitempty" validate:"omitempty,oneof=active inactive"`
	Schedule    *map[string]*DayHours `json:"schedule,omitempty" validate:"omitempty,weekly_schedule"`
}

// HasSpecialty reports whether the member offers the service, matched exactly.
func (m *StaffMember) HasSpecialty(serviceName string) bool {
	for _, s := range m.Specialties {
		if s == serviceName {
			return true
		}
	}
	return false
}

// WorkingHours returns the member's window for a weekday, or nil on a day off.
func (m *StaffMember) WorkingHours(weekday string) *DayHours {
	if m.Schedule == nil {
		return nil
	}
	return m.Schedule[weekday]
}
