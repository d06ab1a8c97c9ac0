package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hszk-dev/videocatalog/internal/domain/model"
	"github.com/hszk-dev/videocatalog/internal/domain/repository"
	"github.com/hszk-dev/videocatalog/internal/domain/validation"
	"github.com/hszk-dev/videocatalog/internal/usecase"
)

const (
	timeFormat = "2006-01-02T15:04:05Z07:00"

	defaultPerPage     = 25
	defaultSort        = "title"
	defaultMaxUpload   = 100 << 20
	multipartMemoryCap = 32 << 20
)

// Multipart field names of the media files accepted on create and update.
const (
	fieldVideoFile         = "video_file"
	fieldTrailerFile       = "trailer_file"
	fieldBannerFile        = "banner_file"
	fieldThumbnailFile     = "thumb_file"
	fieldThumbnailHalfFile = "thumb_half_file"
	fieldMediaFile         = "media_file"
)

// Request/Response types

// VideoRequest is the body of create and update requests.
type VideoRequest struct {
	Title        *string  `json:"title"`
	Description  string   `json:"description"`
	YearLaunched int      `json:"year_launched"`
	Duration     float64  `json:"duration"`
	Opened       bool     `json:"opened"`
	Published    bool     `json:"published"`
	Rating       string   `json:"rating"`
	Categories   []string `json:"categories"`
	Genres       []string `json:"genres"`
	CastMembers  []string `json:"cast_members"`
}

type VideoIDResponse struct {
	ID string `json:"id"`
}

type VideoResponse struct {
	ID            string                   `json:"id"`
	Title         string                   `json:"title"`
	Description   string                   `json:"description"`
	YearLaunched  int                      `json:"year_launched"`
	Duration      float64                  `json:"duration"`
	Opened        bool                     `json:"opened"`
	Published     bool                     `json:"published"`
	Rating        string                   `json:"rating,omitempty"`
	Categories    []string                 `json:"categories"`
	Genres        []string                 `json:"genres"`
	CastMembers   []string                 `json:"cast_members"`
	Video         *AudioVideoMediaResponse `json:"video,omitempty"`
	Trailer       *AudioVideoMediaResponse `json:"trailer,omitempty"`
	Banner        *ImageMediaResponse      `json:"banner,omitempty"`
	Thumbnail     *ImageMediaResponse      `json:"thumbnail,omitempty"`
	ThumbnailHalf *ImageMediaResponse      `json:"thumbnail_half,omitempty"`
	CreatedAt     string                   `json:"created_at"`
	UpdatedAt     string                   `json:"updated_at"`
}

type AudioVideoMediaResponse struct {
	ID              string `json:"id"`
	Checksum        string `json:"checksum"`
	Name            string `json:"name"`
	RawLocation     string `json:"raw_location"`
	EncodedLocation string `json:"encoded_location"`
	Status          string `json:"status"`
}

type ImageMediaResponse struct {
	ID       string `json:"id"`
	Checksum string `json:"checksum"`
	Name     string `json:"name"`
	Location string `json:"location"`
}

type VideoPreviewResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

type VideoListResponse struct {
	CurrentPage int                    `json:"current_page"`
	PerPage     int                    `json:"per_page"`
	Total       int64                  `json:"total"`
	Items       []VideoPreviewResponse `json:"items"`
}

// VideoHandler handles video-related HTTP requests.
type VideoHandler struct {
	svc           usecase.VideoService
	maxUploadSize int64
}

// NewVideoHandler creates a new VideoHandler. A non-positive maxUploadSize
// falls back to 100 MiB.
func NewVideoHandler(svc usecase.VideoService, maxUploadSize int64) *VideoHandler {
	if maxUploadSize <= 0 {
		maxUploadSize = defaultMaxUpload
	}
	return &VideoHandler{svc: svc, maxUploadSize: maxUploadSize}
}

// Routes mounts the video endpoints on r.
func (h *VideoHandler) Routes(r chi.Router) {
	r.Route("/videos", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/", h.List)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.Get)
			r.Put("/", h.Update)
			r.Delete("/", h.Delete)

			r.Patch("/medias/status", h.UpdateMediaStatus)
			r.Post("/medias/{type}", h.UploadMedia)
			r.Get("/medias/{type}", h.GetMedia)
			r.Get("/medias/{type}/url", h.GetMediaURL)
		})
	})
}

// Create handles POST /v1/videos
func (h *VideoHandler) Create(w http.ResponseWriter, r *http.Request) {
	attrs, resources, ok := h.decodeVideo(w, r)
	if !ok {
		return
	}

	output, err := h.svc.CreateVideo(r.Context(), usecase.CreateVideoInput{
		VideoAttributes: attrs,
		Resources:       resources,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	w.Header().Set("Location", "/v1/videos/"+output.ID.String())
	JSON(w, http.StatusCreated, VideoIDResponse{ID: output.ID.String()})
}

// Update handles PUT /v1/videos/{id}
func (h *VideoHandler) Update(w http.ResponseWriter, r *http.Request) {
	videoID, ok := videoIDParam(w, r)
	if !ok {
		return
	}

	attrs, resources, ok := h.decodeVideo(w, r)
	if !ok {
		return
	}

	output, err := h.svc.UpdateVideo(r.Context(), usecase.UpdateVideoInput{
		ID:              videoID.String(),
		VideoAttributes: attrs,
		Resources:       resources,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	JSON(w, http.StatusOK, VideoIDResponse{ID: output.ID.String()})
}

// Get handles GET /v1/videos/{id}
func (h *VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	videoID, ok := videoIDParam(w, r)
	if !ok {
		return
	}

	video, err := h.svc.GetVideo(r.Context(), videoID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	JSON(w, http.StatusOK, toVideoResponse(video))
}

// Delete handles DELETE /v1/videos/{id}
func (h *VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	videoID, ok := videoIDParam(w, r)
	if !ok {
		return
	}

	if err := h.svc.DeleteVideo(r.Context(), videoID); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// List handles GET /v1/videos
func (h *VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, err := intParam(q.Get("page"), 0)
	if err != nil || page < 0 {
		Error(w, http.StatusBadRequest, "invalid_page", "page must be a non-negative integer")
		return
	}
	perPage, err := intParam(q.Get("perPage"), defaultPerPage)
	if err != nil || perPage < 0 {
		Error(w, http.StatusBadRequest, "invalid_per_page", "perPage must be a non-negative integer")
		return
	}

	sort := q.Get("sort")
	if sort == "" {
		sort = defaultSort
	}

	result, err := h.svc.ListVideos(r.Context(), model.VideoSearchQuery{
		Page:        page,
		PerPage:     perPage,
		Terms:       q.Get("search"),
		Sort:        sort,
		Direction:   q.Get("dir"),
		Categories:  model.NewIDSet(model.IDsFrom[model.CategoryID](splitList(q.Get("categories")))...),
		Genres:      model.NewIDSet(model.IDsFrom[model.GenreID](splitList(q.Get("genres")))...),
		CastMembers: model.NewIDSet(model.IDsFrom[model.CastMemberID](splitList(q.Get("cast_members")))...),
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	items := make([]VideoPreviewResponse, 0, len(result.Items))
	for _, p := range result.Items {
		items = append(items, toPreviewResponse(p))
	}

	JSON(w, http.StatusOK, VideoListResponse{
		CurrentPage: result.CurrentPage,
		PerPage:     result.PerPage,
		Total:       result.Total,
		Items:       items,
	})
}

// decodeVideo reads a JSON or multipart body. It writes the error response
// itself and returns ok=false on bad input.
func (h *VideoHandler) decodeVideo(w http.ResponseWriter, r *http.Request) (usecase.VideoAttributes, usecase.VideoResources, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	if !isMultipart(r) {
		var req VideoRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeBodyError(w, err, "Invalid JSON body")
			return usecase.VideoAttributes{}, usecase.VideoResources{}, false
		}
		return req.attributes(), usecase.VideoResources{}, true
	}

	if err := r.ParseMultipartForm(multipartMemoryCap); err != nil {
		writeBodyError(w, err, "Invalid multipart form data")
		return usecase.VideoAttributes{}, usecase.VideoResources{}, false
	}

	req, err := videoRequestFromForm(r.MultipartForm)
	if err != nil {
		Error(w, http.StatusBadRequest, "invalid_request", err.Error())
		return usecase.VideoAttributes{}, usecase.VideoResources{}, false
	}

	var resources usecase.VideoResources
	for field, dst := range map[string]**model.Resource{
		fieldVideoFile:         &resources.Video,
		fieldTrailerFile:       &resources.Trailer,
		fieldBannerFile:        &resources.Banner,
		fieldThumbnailFile:     &resources.Thumbnail,
		fieldThumbnailHalfFile: &resources.ThumbnailHalf,
	} {
		res, err := formResource(r, field)
		if err != nil {
			Error(w, http.StatusBadRequest, "invalid_file", "Could not read "+field)
			return usecase.VideoAttributes{}, usecase.VideoResources{}, false
		}
		*dst = res
	}

	return req.attributes(), resources, true
}

func (req VideoRequest) attributes() usecase.VideoAttributes {
	return usecase.VideoAttributes{
		Title:       req.Title,
		Description: req.Description,
		LaunchedAt:  req.YearLaunched,
		Duration:    req.Duration,
		Opened:      req.Opened,
		Published:   req.Published,
		Rating:      req.Rating,
		Categories:  req.Categories,
		Genres:      req.Genres,
		CastMembers: req.CastMembers,
	}
}

func videoRequestFromForm(form *multipart.Form) (VideoRequest, error) {
	value := func(key string) string {
		if vs := form.Value[key]; len(vs) > 0 {
			return vs[0]
		}
		return ""
	}
	list := func(key string) []string {
		var out []string
		for _, v := range form.Value[key] {
			out = append(out, splitList(v)...)
		}
		return out
	}

	req := VideoRequest{
		Description: value("description"),
		Rating:      value("rating"),
		Categories:  list("categories"),
		Genres:      list("genres"),
		CastMembers: list("cast_members"),
	}
	if vs, ok := form.Value["title"]; ok && len(vs) > 0 {
		title := vs[0]
		req.Title = &title
	}

	var err error
	if req.YearLaunched, err = intParam(value("year_launched"), 0); err != nil {
		return VideoRequest{}, errors.New("year_launched must be an integer")
	}
	if s := value("duration"); s != "" {
		if req.Duration, err = strconv.ParseFloat(s, 64); err != nil {
			return VideoRequest{}, errors.New("duration must be a number")
		}
	}
	if req.Opened, err = boolParam(value("opened")); err != nil {
		return VideoRequest{}, errors.New("opened must be a boolean")
	}
	if req.Published, err = boolParam(value("published")); err != nil {
		return VideoRequest{}, errors.New("published must be a boolean")
	}

	return req, nil
}

// formResource reads one uploaded file. A missing field yields nil.
func formResource(r *http.Request, field string) (*model.Resource, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(content)
	}

	res := model.NewResource(content, contentType, header.Filename)
	return &res, nil
}

func (h *VideoHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		notification *validation.NotificationError
		notFound     *repository.NotFoundError
	)

	switch {
	case errors.As(err, &notification):
		ValidationError(w, notification)
	case errors.As(err, &notFound):
		Error(w, http.StatusNotFound, "not_found", notFound.Error())
	case errors.Is(err, repository.ErrVideoNotFound):
		Error(w, http.StatusNotFound, "not_found", "Video not found")
	case errors.Is(err, usecase.ErrInvalidMediaType):
		Error(w, http.StatusBadRequest, "invalid_media_type", err.Error())
	case errors.Is(err, usecase.ErrInvalidMediaStatus):
		Error(w, http.StatusBadRequest, "invalid_media_status", err.Error())
	case errors.Is(err, repository.ErrPresignNotSupported):
		Error(w, http.StatusNotImplemented, "not_implemented", "The configured storage cannot sign media URLs")
	case errors.Is(err, repository.ErrConcurrentUpdate):
		Error(w, http.StatusConflict, "concurrent_update", "Video was modified by another request, retry")
	default:
		slog.ErrorContext(r.Context(), "unexpected service error", "error", err)
		Error(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}

func writeBodyError(w http.ResponseWriter, err error, message string) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		Error(w, http.StatusRequestEntityTooLarge, "request_too_large", "Request body exceeds the upload limit")
		return
	}
	Error(w, http.StatusBadRequest, "invalid_request", message)
}

func videoIDParam(w http.ResponseWriter, r *http.Request) (model.VideoID, bool) {
	id := model.VideoIDFrom(chi.URLParam(r, "id"))
	if id == "" {
		Error(w, http.StatusBadRequest, "invalid_video_id", "Video ID is required")
		return "", false
	}
	return id, true
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

func intParam(s string, def int) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}
	return strconv.Atoi(s)
}

func boolParam(s string) (bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return false, nil
	}
	return strconv.ParseBool(s)
}

// splitList splits a comma separated list, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func toVideoResponse(v *model.Video) VideoResponse {
	resp := VideoResponse{
		ID:            v.ID.String(),
		Description:   v.Description,
		YearLaunched:  v.LaunchedAt,
		Duration:      v.Duration,
		Opened:        v.Opened,
		Published:     v.Published,
		Rating:        string(v.Rating),
		Categories:    model.IDStrings(v.Categories.Values()),
		Genres:        model.IDStrings(v.Genres.Values()),
		CastMembers:   model.IDStrings(v.CastMembers.Values()),
		Video:         toAudioVideoResponse(v.Video),
		Trailer:       toAudioVideoResponse(v.Trailer),
		Banner:        toImageResponse(v.Banner),
		Thumbnail:     toImageResponse(v.Thumbnail),
		ThumbnailHalf: toImageResponse(v.ThumbnailHalf),
		CreatedAt:     v.CreatedAt.Format(timeFormat),
		UpdatedAt:     v.UpdatedAt.Format(timeFormat),
	}
	if v.Title != nil {
		resp.Title = *v.Title
	}
	return resp
}

func toPreviewResponse(p model.VideoPreview) VideoPreviewResponse {
	return VideoPreviewResponse{
		ID:          p.ID.String(),
		Title:       p.Title,
		Description: p.Description,
		CreatedAt:   p.CreatedAt.Format(timeFormat),
		UpdatedAt:   p.UpdatedAt.Format(timeFormat),
	}
}

func toAudioVideoResponse(m *model.AudioVideoMedia) *AudioVideoMediaResponse {
	if m == nil {
		return nil
	}
	return &AudioVideoMediaResponse{
		ID:              m.ID,
		Checksum:        m.Checksum,
		Name:            m.Name,
		RawLocation:     m.RawLocation,
		EncodedLocation: m.EncodedLocation,
		Status:          m.Status.String(),
	}
}

func toImageResponse(m *model.ImageMedia) *ImageMediaResponse {
	if m == nil {
		return nil
	}
	return &ImageMediaResponse{
		ID:       m.ID,
		Checksum: m.Checksum,
		Name:     m.Name,
		Location: m.Location,
	}
}
