package prompt

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"brandreel-server/modules/common/utils"
)

const missingParamsMessage = "Missing required parameters: 'text' and 'feature_type'"

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
	r.HandleFunc("/generate-prompt", h.HandleGeneratePrompt).Methods("POST", "OPTIONS")
	r.HandleFunc("/generate-prompt-2", h.HandleGeneratePromptWithSettings).Methods("POST", "OPTIONS")
	r.HandleFunc("/detect-style", h.HandleDetectStyle).Methods("POST", "OPTIONS")
	zap.L().Info("[Prompt] routes registered: /generate-prompt, /generate-prompt-2, /detect-style")
}

// HandleGeneratePrompt - POST /generate-prompt
func (h *Handler) HandleGeneratePrompt(w http.ResponseWriter, r *http.Request) {
	h.generate(w, r, false)
}

// HandleGeneratePromptWithSettings - POST /generate-prompt-2
// Same as /generate-prompt plus aspect ratio and the video settings tool.
func (h *Handler) HandleGeneratePromptWithSettings(w http.ResponseWriter, r *http.Request) {
	h.generate(w, r, true)
}

func (h *Handler) generate(w http.ResponseWriter, r *http.Request, withSettings bool) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		zap.L().Warn("[Prompt] invalid request body", zap.Error(err))
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if msg := h.validationMessage(&req); msg != "" {
		utils.WriteError(w, http.StatusBadRequest, msg)
		return
	}

	resp, err := h.service.GeneratePrompts(r.Context(), &req, withSettings)
	if err != nil {
		zap.L().Error("[Prompt] generation failed", zap.Error(err))
		utils.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.WriteJSON(w, http.StatusOK, resp)
}

// HandleDetectStyle - POST /detect-style
func (h *Handler) HandleDetectStyle(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	var req DetectStyleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if msg := h.validationMessage(&req); msg != "" {
		utils.WriteError(w, http.StatusBadRequest, msg)
		return
	}

	style, err := h.service.DetectStyle(r.Context(), &req)
	if err != nil {
		zap.L().Error("[Prompt] style detection failed", zap.Error(err))
		utils.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.WriteJSON(w, http.StatusOK, DetectStyleResponse{Style: style})
}

// validationMessage maps validator errors onto the messages the front end shows.
func (h *Handler) validationMessage(req interface{}) string {
	err := h.validate.Struct(req)
	if err == nil {
		return ""
	}

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return err.Error()
	}
	for _, fe := range errs {
		if fe.Tag() == "required" {
			return missingParamsMessage
		}
	}
	switch errs[0].Field() {
	case "FeatureType":
		return "Invalid feature_type: must be 'image' or 'video'"
	case "AspectRatio":
		return "Invalid aspect_ratio: must be '16:9' or '9:16'"
	}
	return errs[0].Error()
}
