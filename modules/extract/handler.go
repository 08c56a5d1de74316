package extract

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"brandreel-server/modules/common/utils"
)

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
	r.HandleFunc("/extract-images", h.HandleExtract).Methods("POST", "OPTIONS")
	zap.L().Info("[Extract] routes registered: /extract-images")
}

// HandleExtract - POST /extract-images
func (h *Handler) HandleExtract(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	var req ExtractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "A valid 'url' is required")
		return
	}

	images, err := h.service.Extract(r.Context(), req.URL)
	switch {
	case errors.Is(err, ErrNoImages):
		utils.WriteError(w, http.StatusNotFound, ErrNoImages.Error())
		return
	case errors.Is(err, ErrUpstream):
		zap.L().Warn("[Extract] upstream failure", zap.String("url", req.URL), zap.Error(err))
		utils.WriteError(w, http.StatusBadGateway, err.Error())
		return
	case err != nil:
		zap.L().Error("[Extract] extraction failed", zap.String("url", req.URL), zap.Error(err))
		utils.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.WriteJSON(w, http.StatusOK, ExtractResponse{Images: images, ProductImages: images})
}
