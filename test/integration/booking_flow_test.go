package integrationtests

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"salonhq/pkg/model"
	"salonhq/test/integration/testutil"
)

// nextMonday returns the next Monday strictly after today, matching the
// schedule of the stylist the test creates.
func nextMonday() string {
	d := time.Now().AddDate(0, 0, 1)
	for d.Weekday() != time.Monday {
		d = d.AddDate(0, 0, 1)
	}
	return d.Format("2006-01-02")
}

func TestBookingFlow(t *testing.T) {
	client := testutil.Setup(t)

	email := fmt.Sprintf("maria+%d@example.com", time.Now().UnixNano())
	resp := client.POST(t, "/api/v1/staff", map[string]any{
		"name":        "Maria Lopez",
		"email":       email,
		"role":        "stylist",
		"specialties": []string{"Haircut"},
		"commission":  0.4,
		"schedule": map[string]any{
			"monday": map[string]string{"start": "09:00", "end": "17:00"},
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, "create staff: %s", resp.Body)

	var staffResp struct {
		Data model.StaffMember `json:"data"`
	}
	require.NoError(t, resp.DecodeJSON(&staffResp))
	staffID := staffResp.Data.ID
	require.Greater(t, staffID, int64(0))
	defer client.DELETE(t, fmt.Sprintf("/api/v1/staff/id/%d", staffID))

	date := nextMonday()

	resp = client.GET(t, fmt.Sprintf("/api/v1/staff/available?date=%s&time=10:00&service=Haircut", date))
	require.Equal(t, http.StatusOK, resp.StatusCode, "availability: %s", resp.Body)

	var availResp struct {
		Data []model.StaffMember `json:"data"`
	}
	require.NoError(t, resp.DecodeJSON(&availResp))

	found := false
	for _, m := range availResp.Data {
		if m.ID == staffID {
			found = true
		}
	}
	require.True(t, found, "created stylist should be available on %s", date)

	resp = client.POST(t, "/api/v1/appointments", map[string]any{
		"clientName":  "Dana Cohen",
		"clientEmail": "dana@example.com",
		"services":    []map[string]any{{"serviceName": "Haircut", "price": 50}},
		"date":        date,
		"time":        "10:00",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, "book: %s", resp.Body)

	var bookResp struct {
		Data model.BookingResult `json:"data"`
	}
	require.NoError(t, resp.DecodeJSON(&bookResp))
	appointmentID := bookResp.Data.AppointmentID
	require.Greater(t, appointmentID, int64(0))
	require.Len(t, bookResp.Data.Assignments, 1)
	require.Equal(t, "Haircut", bookResp.Data.Assignments[0].ServiceName)
	require.Equal(t, "Maria Lopez", bookResp.Data.Assignments[0].StylistName)
	defer client.DELETE(t, fmt.Sprintf("/api/v1/appointments/id/%d", appointmentID))

	resp = client.GET(t, fmt.Sprintf("/api/v1/appointments/id/%d", appointmentID))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var apptResp struct {
		Data model.Appointment `json:"data"`
	}
	require.NoError(t, resp.DecodeJSON(&apptResp))
	require.Equal(t, model.StatusAwaitingConfirmation, apptResp.Data.Status)
	require.Equal(t, staffID, apptResp.Data.Services[0].Stylist.ID)
	require.Equal(t, 50.0, apptResp.Data.TotalPrice)

	resp = client.POST(t, fmt.Sprintf("/api/v1/appointments/id/%d/status", appointmentID), map[string]any{
		"status": model.StatusConfirmed,
	})
	require.Equal(t, http.StatusNoContent, resp.StatusCode, "confirm: %s", resp.Body)

	// Cancel is idempotent, a second cancel is still a success.
	for i := 0; i < 2; i++ {
		resp = client.POST(t, fmt.Sprintf("/api/v1/appointments/id/%d/cancel", appointmentID), map[string]any{})
		require.Equal(t, http.StatusNoContent, resp.StatusCode, "cancel #%d: %s", i+1, resp.Body)
	}

	resp = client.GET(t, fmt.Sprintf("/api/v1/appointments/id/%d", appointmentID))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, resp.DecodeJSON(&apptResp))
	require.Equal(t, model.StatusCancelled, apptResp.Data.Status)
}

func TestBookingWithoutCoverage(t *testing.T) {
	client := testutil.Setup(t)

	resp := client.POST(t, "/api/v1/appointments", map[string]any{
		"clientName":  "Dana Cohen",
		"clientEmail": "dana@example.com",
		"services":    []map[string]any{{"serviceName": "Basket Weaving", "price": 10}},
		"date":        nextMonday(),
		"time":        "10:00",
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode, "expected no stylist for unknown service: %s", resp.Body)
}
