package pages

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"html/template"
	"image"
	"io/fs"
	"net/http"
	"net/url"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"brandreel-server/modules/common/config"
	"brandreel-server/modules/common/model"
	"brandreel-server/modules/common/utils"
	"brandreel-server/modules/common/webp"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

const (
	thumbnailSize    = 480
	thumbnailQuality = 80
	thumbnailMaxSize = 10 << 20
)

// Downloader fetches remote images for /thumbnail.
type Downloader interface {
	Download(ctx context.Context, rawURL string, maxBytes int64) ([]byte, string, error)
}

// Handler serves the HTML pages, embedded static assets and product thumbnails.
type Handler struct {
	tmpl            *template.Template
	downloader      Downloader
	encode          func(image.Image, float32) ([]byte, error)
	defaultRatio    string
	defaultDuration string
}

type pageData struct {
	Title           string
	AspectRatios    []string
	Durations       []string
	DefaultRatio    string
	DefaultDuration string
	VideoURL        string
	Prompt          string
	Brand           string
}

// NewHandler parses the embedded templates. downloader may be nil, in which
// case /thumbnail answers 503.
func NewHandler(cfg *config.Config, downloader Downloader) *Handler {
	return &Handler{
		tmpl:            template.Must(template.ParseFS(templateFS, "templates/*.html")),
		downloader:      downloader,
		encode:          webp.Encode,
		defaultRatio:    cfg.DefaultRatio,
		defaultDuration: cfg.DefaultLength,
	}
}

// RegisterRoutes - 라우트 등록
func (h *Handler) RegisterRoutes(r *mux.Router) {
	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	r.HandleFunc("/", h.page("welcome.html", "Welcome")).Methods("GET")
	r.HandleFunc("/index", h.page("index.html", "Create a video")).Methods("GET")
	r.HandleFunc("/image", h.page("image.html", "Start from a product page")).Methods("GET")
	r.HandleFunc("/video", h.HandleVideo).Methods("GET")
	r.HandleFunc("/thumbnail", h.HandleThumbnail).Methods("GET")

	zap.L().Info("[Pages] routes registered: /, /index, /image, /video, /thumbnail, /static/")
}

func (h *Handler) page(name, title string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.render(w, name, h.data(title))
	}
}

func (h *Handler) data(title string) pageData {
	return pageData{
		Title:           title,
		AspectRatios:    model.AspectRatios,
		Durations:       model.Durations,
		DefaultRatio:    h.defaultRatio,
		DefaultDuration: h.defaultDuration,
	}
}

// HandleVideo - GET /video?video_url=&prompt=&brand=
func (h *Handler) HandleVideo(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	videoURL := q.Get("video_url")
	if videoURL == "" {
		http.Redirect(w, r, "/index", http.StatusFound)
		return
	}

	data := h.data("Your video")
	data.VideoURL = videoURL
	data.Prompt = q.Get("prompt")
	data.Brand = q.Get("brand")
	h.render(w, "video.html", data)
}

// HandleThumbnail - GET /thumbnail?url= downloads a remote image and returns a WebP thumbnail.
func (h *Handler) HandleThumbnail(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("url")
	u, err := url.Parse(raw)
	if raw == "" || err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		utils.WriteError(w, http.StatusBadRequest, "Invalid image url")
		return
	}
	if h.downloader == nil {
		utils.WriteError(w, http.StatusServiceUnavailable, "Thumbnails are not available")
		return
	}

	data, _, err := h.downloader.Download(r.Context(), raw, thumbnailMaxSize)
	if err != nil {
		zap.L().Warn("[Pages] thumbnail download failed", zap.String("url", raw), zap.Error(err))
		utils.WriteError(w, http.StatusBadGateway, "Failed to download image")
		return
	}

	img, format, err := utils.DecodeImage(data)
	if errors.Is(err, utils.ErrImageTooLarge) {
		zap.L().Warn("[Pages] thumbnail source too large", zap.String("url", raw), zap.Error(err))
		utils.WriteError(w, http.StatusRequestEntityTooLarge, "Image is too large")
		return
	}
	if err != nil {
		utils.WriteError(w, http.StatusUnsupportedMediaType, "Unsupported image format")
		return
	}

	thumb := utils.Thumbnail(img, thumbnailSize, thumbnailSize)
	encoded, err := h.encode(utils.ToRGBA(thumb), thumbnailQuality)
	if err != nil {
		zap.L().Error("[Pages] thumbnail encode failed", zap.String("format", format), zap.Error(err))
		utils.WriteError(w, http.StatusInternalServerError, "Failed to encode thumbnail")
		return
	}

	w.Header().Set("Content-Type", "image/webp")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	w.Write(encoded)
}

func (h *Handler) render(w http.ResponseWriter, name string, data pageData) {
	var buf bytes.Buffer
	if err := h.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		zap.L().Error("[Pages] template render failed", zap.String("template", name), zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}
