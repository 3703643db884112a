package handler

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"interviewsync/internal/interviews/service"
	"interviewsync/pkg/auth"
	"interviewsync/pkg/contracts"
	apperrors "interviewsync/pkg/errors"
	httputil "interviewsync/pkg/http"
	"interviewsync/pkg/logger"
	"interviewsync/pkg/model"
)

type InterviewHandler struct {
	service service.InterviewService
	log     *logger.Logger
}

func NewInterviewHandler(service service.InterviewService, log *logger.Logger) *InterviewHandler {
	return &InterviewHandler{
		service: service,
		log:     log,
	}
}

func (h *InterviewHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *InterviewHandler) writeSuccess(w http.ResponseWriter, handler string, data any) {
	if err := httputil.WriteSuccess(w, data); err != nil {
		h.log.Error("failed to write success response", "handler", handler, "operation", "WriteSuccess", "error", err)
	}
}

func (h *InterviewHandler) requester(w http.ResponseWriter, r *http.Request, handler string) (auth.Requester, bool) {
	requester, ok := auth.RequesterFromContext(r.Context())
	if !ok {
		h.writeError(w, handler, apperrors.Unauthorized("Authentication required"))
	}
	return requester, ok
}

func (h *InterviewHandler) Book(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requester, ok := h.requester(w, r, "Book")
	if !ok {
		return
	}

	var req model.BookingRequest
	if err := httputil.DecodeJSON(r, &req, false); err != nil {
		h.writeError(w, "Book", err)
		return
	}

	interview, err := h.service.Book(r.Context(), requester, &req)
	if err != nil {
		h.writeError(w, "Book", err)
		return
	}

	if err := httputil.WriteCreated(w, interview); err != nil {
		h.log.Error("failed to write created response", "handler", "Book", "operation", "WriteCreated", "error", err)
	}
}

func (h *InterviewHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	requester, ok := h.requester(w, r, "GetByID")
	if !ok {
		return
	}

	interview, err := h.service.GetByID(r.Context(), requester, ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	h.writeSuccess(w, "GetByID", interview)
}

func (h *InterviewHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requester, ok := h.requester(w, r, "GetAll")
	if !ok {
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	query := r.URL.Query()
	filter := model.InterviewFilter{
		CandidateID:   query.Get("candidate_id"),
		InterviewerID: query.Get("interviewer_id"),
		Status:        model.InterviewStatus(query.Get("status")),
	}

	interviews, totalCount, err := h.service.List(r.Context(), requester, filter, limit, offset)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	if err := httputil.WritePaginated(w, interviews, totalCount, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "operation", "WritePaginated", "error", err)
	}
}

func (h *InterviewHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	requester, ok := h.requester(w, r, "Update")
	if !ok {
		return
	}

	var updates model.InterviewUpdate
	if err := httputil.DecodeJSON(r, &updates, false); err != nil {
		h.writeError(w, "Update", err)
		return
	}

	interview, err := h.service.Update(r.Context(), requester, ps.ByName("id"), &updates)
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}

	h.writeSuccess(w, "Update", interview)
}

// Cancel accepts an optional {"reason": "..."} body.
func (h *InterviewHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	requester, ok := h.requester(w, r, "Cancel")
	if !ok {
		return
	}

	var req model.CancelRequest
	if err := httputil.DecodeJSON(r, &req, true); err != nil {
		h.writeError(w, "Cancel", err)
		return
	}

	interview, err := h.service.Cancel(r.Context(), requester, ps.ByName("id"), req.Reason)
	if err != nil {
		h.writeError(w, "Cancel", err)
		return
	}

	h.writeSuccess(w, "Cancel", interview)
}

func (h *InterviewHandler) Rebook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	requester, ok := h.requester(w, r, "Rebook")
	if !ok {
		return
	}

	var req model.RebookRequest
	if err := httputil.DecodeJSON(r, &req, false); err != nil {
		h.writeError(w, "Rebook", err)
		return
	}

	interview, err := h.service.Rebook(r.Context(), requester, ps.ByName("id"), req.SlotID)
	if err != nil {
		h.writeError(w, "Rebook", err)
		return
	}

	h.writeSuccess(w, "Rebook", interview)
}

func (h *InterviewHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
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

func (h *InterviewHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST(contracts.ResourcePath("interviews"), h.Book)
	router.GET(contracts.ResourcePath("interviews"), h.GetAll)
	router.GET(contracts.ResourcePath("interviews", ":id"), h.GetByID)
	router.PUT(contracts.ResourcePath("interviews", ":id"), h.Update)
	router.DELETE(contracts.ResourcePath("interviews", ":id"), h.Delete)
	router.PATCH(contracts.ResourcePath("interviews", ":id", "cancel"), h.Cancel)
	router.POST(contracts.ResourcePath("interviews", ":id", "rebook"), h.Rebook)
}
