package handler

import (
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"interviewsync/internal/slots/service"
	"interviewsync/pkg/auth"
	"interviewsync/pkg/contracts"
	apperrors "interviewsync/pkg/errors"
	httputil "interviewsync/pkg/http"
	"interviewsync/pkg/logger"
	"interviewsync/pkg/model"
)

type SlotHandler struct {
	service service.SlotService
	log     *logger.Logger
}

func NewSlotHandler(service service.SlotService, log *logger.Logger) *SlotHandler {
	return &SlotHandler{
		service: service,
		log:     log,
	}
}

type createSlotRequest struct {
	InterviewerID string    `json:"interviewer_id,omitempty"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
}

func (h *SlotHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *SlotHandler) requester(w http.ResponseWriter, r *http.Request, handler string) (auth.Requester, bool) {
	requester, ok := auth.RequesterFromContext(r.Context())
	if !ok {
		h.writeError(w, handler, apperrors.Unauthorized("Authentication required"))
	}
	return requester, ok
}

func (h *SlotHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requester, ok := h.requester(w, r, "Create")
	if !ok {
		return
	}

	var req createSlotRequest
	if err := httputil.DecodeJSON(r, &req, false); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	slot := &model.Slot{
		InterviewerID: req.InterviewerID,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
	}
	if err := h.service.Create(r.Context(), requester, slot); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, slot); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *SlotHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	requester, ok := h.requester(w, r, "GetByID")
	if !ok {
		return
	}

	slot, err := h.service.GetByID(r.Context(), requester, ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, slot); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *SlotHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requester, ok := h.requester(w, r, "GetAll")
	if !ok {
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	filter := model.SlotFilter{InterviewerID: r.URL.Query().Get("interviewer_id")}
	if filter.StartDate, err = httputil.ParseTimeParam(r, "start_date"); err != nil {
		h.writeError(w, "GetAll", err)
		return
	}
	if filter.EndDate, err = httputil.ParseTimeParam(r, "end_date"); err != nil {
		h.writeError(w, "GetAll", err)
		return
	}
	if filter.Available, err = httputil.ParseBoolParam(r, "available"); err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	slots, totalCount, err := h.service.List(r.Context(), requester, filter, limit, offset)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	if err := httputil.WritePaginated(w, slots, totalCount, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "operation", "WritePaginated", "error", err)
	}
}

func (h *SlotHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	requester, ok := h.requester(w, r, "Update")
	if !ok {
		return
	}

	var updates model.SlotUpdate
	if err := httputil.DecodeJSON(r, &updates, false); err != nil {
		h.writeError(w, "Update", err)
		return
	}

	slot, err := h.service.Update(r.Context(), requester, ps.ByName("id"), &updates)
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}

	if err := httputil.WriteSuccess(w, slot); err != nil {
		h.log.Error("failed to write success response", "handler", "Update", "operation", "WriteSuccess", "error", err)
	}
}

func (h *SlotHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	requester, ok := h.requester(w, r, "Delete")
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), requester, ps.ByName("id")); err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *SlotHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST(contracts.ResourcePath("slots"), h.Create)
	router.GET(contracts.ResourcePath("slots"), h.GetAll)
	router.GET(contracts.ResourcePath("slots", ":id"), h.GetByID)
	router.PUT(contracts.ResourcePath("slots", ":id"), h.Update)
	router.DELETE(contracts.ResourcePath("slots", ":id"), h.Delete)
}
