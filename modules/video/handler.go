package video

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"brandreel-server/modules/common/fallback"
	"brandreel-server/modules/common/model"
	"brandreel-server/modules/common/utils"
)

const maxFormMemory = 1 << 20

type Handler struct {
	service  *Service
	validate *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes - 라우트 등록
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/generate_video", h.HandleGenerateVideo).Methods("POST", "OPTIONS")
	r.HandleFunc("/check_status/{request_id}", h.HandleCheckStatus).Methods("GET")
	r.HandleFunc("/api/video/jobs", h.HandleEnqueue).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/video/jobs/{job_id}", h.HandleGetJob).Methods("GET")
	r.HandleFunc("/api/video/jobs/{job_id}/cancel", h.HandleCancel).Methods("POST", "OPTIONS")
	zap.L().Info("[Video] routes registered: /generate_video, /check_status/{request_id}, /api/video/jobs")
}

// HandleGenerateVideo - POST /generate_video (multipart/form-data or urlencoded)
func (h *Handler) HandleGenerateVideo(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	if err := r.ParseMultipartForm(maxFormMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		utils.WriteError(w, http.StatusBadRequest, "Invalid form data")
		return
	}

	form := GenerateVideoForm{
		Prompt:      strings.TrimSpace(r.FormValue("prompt")),
		BrandInput:  strings.TrimSpace(r.FormValue("brand_input")),
		AspectRatio: fallback.SafeString(r.FormValue("aspect_ratio"), h.service.defaultRatio),
		Duration:    fallback.SafeString(r.FormValue("duration"), h.service.defaultDuration),
		ContentType: fallback.SafeString(r.FormValue("content_type"), model.ContentTypeCreativeScene),
	}
	if form.Prompt == "" {
		utils.WriteError(w, http.StatusBadRequest, "Invalid prompt selection")
		return
	}
	if err := h.validate.Struct(&form); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Unsupported aspect_ratio or duration")
		return
	}

	resp, err := h.service.Generate(r.Context(), &form)
	switch {
	case errors.Is(err, ErrJobCancelled):
		utils.WriteError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		utils.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.WriteJSON(w, http.StatusOK, resp)
}

// HandleCheckStatus - GET /check_status/{request_id}
func (h *Handler) HandleCheckStatus(w http.ResponseWriter, r *http.Request) {
	requestID := mux.Vars(r)["request_id"]

	status, err := h.service.CheckStatus(r.Context(), requestID)
	if err != nil {
		zap.L().Error("[Video] status check failed", zap.String("request_id", requestID), zap.Error(err))
		utils.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.WriteJSON(w, http.StatusOK, CheckStatusResponse{
		Status:    status,
		Timestamp: float64(time.Now().UnixNano()) / 1e9,
	})
}

// HandleEnqueue - POST /api/video/jobs
func (h *Handler) HandleEnqueue(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	var req EnqueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Prompt = strings.TrimSpace(req.Prompt)
	if err := h.validate.Struct(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "prompt is required; aspect_ratio and duration must be supported values")
		return
	}

	resp, err := h.service.Enqueue(r.Context(), &req)
	switch {
	case errors.Is(err, ErrQueueUnavailable):
		utils.WriteError(w, http.StatusServiceUnavailable, err.Error())
		return
	case err != nil:
		zap.L().Error("[Video] enqueue failed", zap.Error(err))
		utils.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.WriteJSON(w, http.StatusAccepted, resp)
}

// HandleGetJob - GET /api/video/jobs/{job_id}
func (h *Handler) HandleGetJob(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["job_id"]

	job, err := h.service.GetJob(r.Context(), jobID)
	if err != nil {
		utils.WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	utils.WriteJSON(w, http.StatusOK, job)
}

// HandleCancel - POST /api/video/jobs/{job_id}/cancel
func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	jobID := mux.Vars(r)["job_id"]

	zap.L().Info("[Video] cancel requested", zap.String("job_id", jobID))

	job, err := h.service.CancelJob(r.Context(), jobID)
	switch {
	case errors.Is(err, ErrJobNotFound):
		utils.WriteError(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, ErrQueueUnavailable):
		utils.WriteError(w, http.StatusServiceUnavailable, err.Error())
		return
	case errors.Is(err, ErrJobFinished):
		utils.WriteJSON(w, http.StatusConflict, CancelResponse{
			Success: false,
			Message: "Job already " + job.Status,
			JobID:   jobID,
			Status:  job.Status,
		})
		return
	case err != nil:
		utils.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.WriteJSON(w, http.StatusOK, CancelResponse{
		Success: true,
		Message: "Cancel request sent. Job will stop before its result is saved.",
		JobID:   jobID,
		Status:  job.Status,
	})
}
