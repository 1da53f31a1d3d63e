package handler

import (
	"encoding/json"
	"net/http"

	"salonhq/internal/staff/service"
	httputil "salonhq/pkg/http"
	"salonhq/pkg/logger"
	"salonhq/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type StaffHandler struct {
	directory service.StaffDirectory
	log       *logger.Logger
}

func NewStaffHandler(directory service.StaffDirectory, log *logger.Logger) *StaffHandler {
	return &StaffHandler{
		directory: directory,
		log:       log,
	}
}

func (h *StaffHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var member model.StaffMember
	if err := json.NewDecoder(r.Body).Decode(&member); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Create", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	if err := h.directory.Create(r.Context(), &member); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Create", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, member); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *StaffHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := httputil.ExtractID(ps.ByName("id"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetByID", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	member, err := h.directory.GetByID(r.Context(), id)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetByID", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, member); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *StaffHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var (
		roster []*model.StaffMember
		err    error
	)
	if r.URL.Query().Get("status") == model.StaffStatusActive {
		roster, err = h.directory.GetActive(r.Context())
	} else {
		roster, err = h.directory.GetAll(r.Context())
	}
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetAll", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, roster); err != nil {
		h.log.Error("failed to write success response", "handler", "GetAll", "operation", "WriteSuccess", "error", err)
	}
}

// Available resolves which stylists can take a service at a date and time.
func (h *StaffHandler) Available(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()
	date := query.Get("date")
	timeOfDay := query.Get("time")
	serviceName := query.Get("service")

	if date == "" || timeOfDay == "" || serviceName == "" {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "'date', 'time' and 'service' query parameters are required",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Available", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	available, err := h.directory.FindAvailable(r.Context(), date, timeOfDay, serviceName)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Available", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, available); err != nil {
		h.log.Error("failed to write success response", "handler", "Available", "operation", "WriteSuccess", "error", err)
	}
}

func (h *StaffHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := httputil.ExtractID(ps.ByName("id"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Update", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	var updates model.StaffUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Update", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	if err := h.directory.Update(r.Context(), id, &updates); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Update", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	httputil.WriteNoContent(w)
}

func (h *StaffHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := httputil.ExtractID(ps.ByName("id"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Delete", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := h.directory.Delete(r.Context(), id); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Delete", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	httputil.WriteNoContent(w)
}

func (h *StaffHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/staff", h.Create)
	router.GET("/api/v1/staff", h.GetAll)
	router.GET("/api/v1/staff/available", h.Available)
	router.GET("/api/v1/staff/id/:id", h.GetByID)
	router.PATCH("/api/v1/staff/id/:id", h.Update)
	router.DELETE("/api/v1/staff/id/:id", h.Delete)
}
