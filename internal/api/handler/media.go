package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hszk-dev/videocatalog/internal/domain/model"
	"github.com/hszk-dev/videocatalog/internal/usecase"
)

type UploadMediaResponse struct {
	VideoID   string `json:"video_id"`
	MediaType string `json:"media_type"`
}

type MediaURLResponse struct {
	VideoID   string `json:"video_id"`
	MediaType string `json:"media_type"`
	URL       string `json:"url"`
	ExpiresAt string `json:"expires_at"`
}

// MediaStatusRequest is the encoder callback body, shaped like the queue message.
type MediaStatusRequest struct {
	Status             string `json:"status"`
	ResourceID         string `json:"resource_id"`
	EncodedVideoFolder string `json:"encoded_video_folder"`
	FilePath           string `json:"file_path"`
}

// UploadMedia handles POST /v1/videos/{id}/medias/{type}
func (h *VideoHandler) UploadMedia(w http.ResponseWriter, r *http.Request) {
	videoID, ok := videoIDParam(w, r)
	if !ok {
		return
	}
	mediaType, ok := mediaTypeParam(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(multipartMemoryCap); err != nil {
		writeBodyError(w, err, "Invalid multipart form data")
		return
	}

	resource, err := formResource(r, fieldMediaFile)
	if err != nil {
		Error(w, http.StatusBadRequest, "invalid_file", "Could not read "+fieldMediaFile)
		return
	}
	if resource == nil {
		Error(w, http.StatusBadRequest, "missing_file", fieldMediaFile+" is required")
		return
	}

	output, err := h.svc.UploadMedia(r.Context(), usecase.UploadMediaInput{
		VideoID:  videoID.String(),
		Type:     mediaType,
		Resource: *resource,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/v1/videos/%s/medias/%s", output.VideoID, output.Type))
	JSON(w, http.StatusCreated, UploadMediaResponse{
		VideoID:   output.VideoID.String(),
		MediaType: output.Type.String(),
	})
}

// GetMedia handles GET /v1/videos/{id}/medias/{type}
func (h *VideoHandler) GetMedia(w http.ResponseWriter, r *http.Request) {
	videoID, ok := videoIDParam(w, r)
	if !ok {
		return
	}
	mediaType, ok := mediaTypeParam(w, r)
	if !ok {
		return
	}

	resource, err := h.svc.GetMedia(r.Context(), videoID, mediaType)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	contentType := resource.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(resource.Content)))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", resource.Name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(resource.Content)
}

// GetMediaURL handles GET /v1/videos/{id}/medias/{type}/url
func (h *VideoHandler) GetMediaURL(w http.ResponseWriter, r *http.Request) {
	videoID, ok := videoIDParam(w, r)
	if !ok {
		return
	}
	mediaType, ok := mediaTypeParam(w, r)
	if !ok {
		return
	}

	output, err := h.svc.GetMediaURL(r.Context(), videoID, mediaType)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	JSON(w, http.StatusOK, MediaURLResponse{
		VideoID:   output.VideoID.String(),
		MediaType: output.Type.String(),
		URL:       output.URL,
		ExpiresAt: output.ExpiresAt.UTC().Format(timeFormat),
	})
}

// UpdateMediaStatus handles PATCH /v1/videos/{id}/medias/status
func (h *VideoHandler) UpdateMediaStatus(w http.ResponseWriter, r *http.Request) {
	videoID, ok := videoIDParam(w, r)
	if !ok {
		return
	}

	var req MediaStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}
	if req.ResourceID == "" {
		Error(w, http.StatusBadRequest, "invalid_resource_id", "resource_id is required")
		return
	}

	err := h.svc.UpdateMediaStatus(r.Context(), usecase.UpdateMediaStatusInput{
		Status:     req.Status,
		VideoID:    videoID.String(),
		ResourceID: req.ResourceID,
		Folder:     req.EncodedVideoFolder,
		FileName:   req.FilePath,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func mediaTypeParam(w http.ResponseWriter, r *http.Request) (model.MediaType, bool) {
	raw := chi.URLParam(r, "type")
	mediaType, ok := model.ParseMediaType(raw)
	if !ok {
		Error(w, http.StatusBadRequest, "invalid_media_type", fmt.Sprintf("unknown media type %q", raw))
		return "", false
	}
	return mediaType, true
}
