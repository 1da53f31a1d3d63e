package model

import "time"

// Appointment status values. The normal flow is Awaiting Confirmation →
// Confirmed → Checked In → Completed; Cancelled is reachable from any
// non-terminal state.
const (
	StatusAwaitingConfirmation = "Awaiting Confirmation"
	StatusConfirmed            = "Confirmed"
	StatusCheckedIn            = "Checked In"
	StatusCompleted            = "Completed"
	StatusCancelled            = "Cancelled"
)

// AppointmentStatuses lists every valid status value.
var AppointmentStatuses = []string{
	StatusAwaitingConfirmation,
	StatusConfirmed,
	StatusCheckedIn,
	StatusCompleted,
	StatusCancelled,
}

// StylistSnapshot is a by-value copy of staff fields frozen at assignment
// time. Later staff edits never reach into existing appointments.
type StylistSnapshot struct {
	ID         int64   `json:"id" bson:"id"`
	Name       string  `json:"name" bson:"name"`
	Email      string  `json:"email" bson:"email"`
	Phone      string  `json:"phone" bson:"phone"`
	Commission float64 `json:"commission" bson:"commission"`
}

// ServiceLine is one service within an appointment, carrying its own
// stylist assignment.
type ServiceLine struct {
	ServiceName string          `json:"serviceName" bson:"serviceName" validate:"required,min=2,max=100"`
	Price       float64         `json:"price" bson:"price" validate:"min=0"`
	Stylist     StylistSnapshot `json:"stylist" bson:"stylist"`
}

type Appointment struct {
	ID          int64         `json:"id" bson:"_id"`
	ClientName  string        `json:"clientName" bson:"clientName" validate:"required,min=2,max=100"`
	ClientEmail string        `json:"clientEmail" bson:"clientEmail" validate:"required,email"`
	ClientPhone string        `json:"clientPhone" bson:"clientPhone" validate:"omitempty,e164"`
	UserID      *int64        `json:"userId" bson:"userId" validate:"omitempty"`
	Services    []ServiceLine `json:"services" bson:"services" validate:"required,min=1,dive"`
	Date        string        `json:"date" bson:"date" validate:"required,calendar_date"`
	Time        string        `json:"time" bson:"time" validate:"required,clock"`
	Message     string        `json:"message,omitempty" bson:"message" validate:"omitempty,max=500"`
	Status      string        `json:"status" bson:"status" validate:"required,oneof='Awaiting Confirmation' Confirmed 'Checked In' Completed Cancelled"`
	TotalPrice  float64       `json:"totalPrice" bson:"totalPrice" validate:"min=0"`
	CreatedAt   time.Time     `json:"created_at" bson:"created_at" validate:"omitempty"`
}

// AppointmentUpdate is a partial patch merged into an existing appointment.
// If Date, Time or Services are supplied, stylist assignments are
// re-validated rather than trusted.
type AppointmentUpdate struct {
	ClientName  string              `json:"clientName,omitempty" validate:"omitempty,min=2,max=100"`
	ClientEmail string              `json:"clientEmail,omitempty" validate:"omitempty,email"`
	ClientPhone string              `json:"clientPhone,omitempty" validate:"omitempty,e164"`
	Services    *[]ServiceSelection `json:"services,omitempty" validate:"omitempty,min=1,dive"`
	Date        string              `json:"date,omitempty" validate:"omitempty,calendar_date"`
	Time        string              `json:"time,omitempty" validate:"omitempty,clock"`
	Message     *string             `json:"message,omitempty" validate:"omitempty,max=500"`
}

// ServiceSelection is a requested service before a stylist is assigned.
type ServiceSelection struct {
	ServiceName string  `json:"serviceName" validate:"required,min=2,max=100"`
	Price       float64 `json:"price" validate:"min=0"`
}

// BookingRequest is the payload for creating an appointment.
type BookingRequest struct {
	ClientName  string             `json:"clientName" validate:"required,min=2,max=100"`
	ClientEmail string             `json:"clientEmail" validate:"required,email"`
	ClientPhone string             `json:"clientPhone" validate:"omitempty,e164"`
	Services    []ServiceSelection `json:"services" validate:"required,min=1,dive"`
	Date        string             `json:"date" validate:"required,calendar_date"`
	Time        string             `json:"time" validate:"required,clock"`
	Message     string             `json:"message,omitempty" validate:"omitempty,max=500"`
}

// Assignment is one human-readable line of a booking confirmation,
// "service → stylist name".
type Assignment struct {
	ServiceName string `json:"serviceName"`
	StylistName string `json:"stylistName"`
}

// BookingResult is returned by a successful booking.
type BookingResult struct {
	AppointmentID int64        `json:"appointmentId"`
	Assignments   []Assignment `json:"assignments"`
}

// IsTerminalStatus reports whether no further transitions are defined out of
// the status.
func IsTerminalStatus(status string) bool {
	return status == StatusCompleted || status == StatusCancelled
}
