package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap/zapcore"

	"upsolve/logger"
	"upsolve/service"
)

type Handler struct {
	svc    *service.UpsolveService
	logger *logger.Logger
}

func NewHandler(svc *service.UpsolveService, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{svc: svc, logger: log}
}

type RegisterUserRequest struct {
	UserID string `json:"userId"`
	Handle string `json:"handle"`
}

type AddQuestionRequest struct {
	URL string `json:"url"`
}

func (h *Handler) RegisterUserRoutes(r chi.Router) {
	r.Post("/", h.registerUser)
	r.Post("/{userId}/resolve", h.resolve)
	r.Post("/{userId}/import", h.importFaulty)
	r.Get("/{userId}/questions", h.listQuestions)
	r.Put("/{userId}/questions", h.addQuestion)
	r.Get("/{userId}/questions/{questionId}", h.getQuestion)
	r.Patch("/{userId}/questions/{questionId}/bookmark", h.toggleBookmark)
	r.Delete("/{userId}/questions/{questionId}", h.removeQuestion)
}

func (h *Handler) RegisterQuestionRoutes(r chi.Router) {
	r.Get("/{questionId}/statement", h.getStatement) // GET /api/v1/questions/1520_A/statement?refresh=true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, method string, err error) {
	code := service.StatusFromError(err)
	if code >= http.StatusInternalServerError {
		h.logger.Log(zapcore.ErrorLevel, uuid.New().String(), "Request failed", map[string]any{
			"method":    method,
			"path":      r.URL.Path,
			"status":    code,
			"errorType": service.ErrorTypeOf(err),
		}, "API", err)
	}
	RespondWithError(w, err)
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", service.ErrInvalidInput, err)
	}
	return nil
}

func (h *Handler) registerUser(w http.ResponseWriter, r *http.Request) {
	var req RegisterUserRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, "registerUser", err)
		return
	}
	if err := h.svc.RegisterUser(r.Context(), req.UserID, req.Handle); err != nil {
		h.fail(w, r, "registerUser", err)
		return
	}
	RespondWithJSON(w, http.StatusCreated, req)
}

func (h *Handler) resolve(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.ResolveForUser(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		h.fail(w, r, "resolve", err)
		return
	}
	RespondWithJSON(w, http.StatusOK, res)
}

func (h *Handler) importFaulty(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.ImportFaultySubmissions(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		h.fail(w, r, "importFaulty", err)
		return
	}
	RespondWithJSON(w, http.StatusOK, res)
}

func (h *Handler) listQuestions(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListQuestions(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		h.fail(w, r, "listQuestions", err)
		return
	}
	RespondWithJSON(w, http.StatusOK, list)
}

func (h *Handler) addQuestion(w http.ResponseWriter, r *http.Request) {
	var req AddQuestionRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, "addQuestion", err)
		return
	}
	uq, err := h.svc.AddQuestionByURL(r.Context(), chi.URLParam(r, "userId"), req.URL)
	if err != nil {
		h.fail(w, r, "addQuestion", err)
		return
	}
	RespondWithJSON(w, http.StatusCreated, uq)
}

func (h *Handler) getQuestion(w http.ResponseWriter, r *http.Request) {
	uq, err := h.svc.GetUserQuestion(r.Context(), chi.URLParam(r, "userId"), chi.URLParam(r, "questionId"))
	if err != nil {
		h.fail(w, r, "getQuestion", err)
		return
	}
	RespondWithJSON(w, http.StatusOK, uq)
}

func (h *Handler) toggleBookmark(w http.ResponseWriter, r *http.Request) {
	on, err := h.svc.ToggleBookmark(r.Context(), chi.URLParam(r, "userId"), chi.URLParam(r, "questionId"))
	if err != nil {
		h.fail(w, r, "toggleBookmark", err)
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]bool{"bookmarked": on})
}

func (h *Handler) removeQuestion(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.RemoveQuestion(r.Context(), chi.URLParam(r, "userId"), chi.URLParam(r, "questionId")); err != nil {
		h.fail(w, r, "removeQuestion", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) getStatement(w http.ResponseWriter, r *http.Request) {
	refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh"))
	st, err := h.svc.GetStatement(r.Context(), chi.URLParam(r, "questionId"), refresh)
	if err != nil {
		h.fail(w, r, "getStatement", err)
		return
	}
	RespondWithJSON(w, http.StatusOK, st)
}
