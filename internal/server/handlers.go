package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/go-playground/validator/v10"

	"github.com/speakersplit/speakersplit/internal/crop"
	"github.com/speakersplit/speakersplit/internal/library"
	"github.com/speakersplit/speakersplit/internal/media"
	"github.com/speakersplit/speakersplit/internal/region"
	"github.com/speakersplit/speakersplit/internal/run"
	"github.com/speakersplit/speakersplit/internal/storage"
)

// Handlers contains the HTTP handlers for the crop service.
type Handlers struct {
	service   *crop.Service
	prober    media.Prober
	store     storage.Storage
	videoDir  string
	validator *validator.Validate
	logger    *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(service *crop.Service, prober media.Prober, store storage.Storage, videoDir string, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		service:   service,
		prober:    prober,
		store:     store,
		videoDir:  videoDir,
		validator: validator.New(),
		logger:    logger,
	}
}

// Health handles GET /health requests.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// GetSource handles GET /api/source requests: it reports the discovered
// source video together with its natural dimensions, so a client can
// obtain metrics synchronously instead of waiting for a metadata event.
func (h *Handlers) GetSource(w http.ResponseWriter, r *http.Request) {
	path, err := library.FirstVideo(h.videoDir)
	if err != nil {
		if errors.Is(err, library.ErrNoSourceVideo) {
			writeError(w, http.StatusNotFound, "no source video available, place a file in the video directory", "NO_SOURCE_VIDEO")
			return
		}
		h.logger.Error("source discovery failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to discover source video", "SOURCE_DISCOVERY_FAILED")
		return
	}

	width, height, err := h.prober.Dimensions(r.Context(), path)
	if err != nil {
		h.logger.Error("source probe failed",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "unable to read video metadata", "METADATA_PROBE_FAILED")
		return
	}

	name := filepath.Base(path)
	writeJSON(w, http.StatusOK, SourceResponse{
		Filename: name,
		URL:      "/media/" + name,
		MIME:     library.MIMEType(name),
		Width:    width,
		Height:   height,
	})
}

// ServeMedia handles GET /media/{filename} requests: it streams the
// source video with range support so the player can seek.
func (h *Handlers) ServeMedia(w http.ResponseWriter, r *http.Request) {
	name := filepath.Base(r.PathValue("filename"))
	if name == "" || name == "." || !library.IsVideo(name) {
		writeError(w, http.StatusNotFound, "media not found", "MEDIA_NOT_FOUND")
		return
	}

	w.Header().Set("Content-Type", library.MIMEType(name))
	http.ServeFile(w, r, filepath.Join(h.videoDir, name))
}

// ServeOutput handles GET /outputs/{filename} requests: it serves an
// exported crop as an attachment download.
func (h *Handlers) ServeOutput(w http.ResponseWriter, r *http.Request) {
	name := filepath.Base(r.PathValue("filename"))
	if name == "" || name == "." {
		writeError(w, http.StatusNotFound, "output not found", "OUTPUT_NOT_FOUND")
		return
	}

	f, err := h.store.OpenOutput(r.Context(), name)
	if err != nil {
		writeError(w, http.StatusNotFound, "output not found", "OUTPUT_NOT_FOUND")
		return
	}
	defer func() { _ = f.Close() }()

	w.Header().Set("Content-Type", "video/mp4")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	if _, err := io.Copy(w, f); err != nil {
		h.logger.Warn("output download interrupted",
			slog.String("filename", name),
			slog.String("error", err.Error()),
		)
	}
}

// Process handles POST /process requests: it validates the two-region
// payload, runs the crop export, and returns the output descriptors.
func (h *Handlers) Process(w http.ResponseWriter, r *http.Request) {
	var req ProcessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode request body",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "missing region data", "INVALID_JSON")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		h.logger.Warn("request validation failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "invalid region data provided", "VALIDATION_ERROR")
		return
	}

	sourcePath, err := library.FirstVideo(h.videoDir)
	if err != nil {
		if errors.Is(err, library.ErrNoSourceVideo) {
			writeError(w, http.StatusBadRequest, "no source video available, place a file in the video directory", "NO_SOURCE_VIDEO")
			return
		}
		h.logger.Error("source discovery failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to discover source video", "SOURCE_DISCOVERY_FAILED")
		return
	}

	specs := make([]region.CropSpec, len(req.Regions))
	for i, reg := range req.Regions {
		specs[i] = region.CropSpec{
			ID:     reg.ID,
			X:      reg.X,
			Y:      reg.Y,
			Width:  reg.Width,
			Height: reg.Height,
		}
	}

	// Detach from the request context: an export in flight is not
	// abortable by the client going away mid-request.
	completed, err := h.service.Process(context.WithoutCancel(r.Context()), crop.Input{
		SourcePath: sourcePath,
		Regions:    specs,
	})
	if err != nil {
		h.writeProcessError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ProcessResponse{
		RunID:   completed.ID,
		Outputs: outputResponses(completed.Outputs),
	})
}

// GetRun handles GET /runs/{id} requests.
func (h *Handlers) GetRun(w http.ResponseWriter, r *http.Request) {
	runID := r.PathValue("id")
	if runID == "" {
		writeError(w, http.StatusBadRequest, "run ID is required", "MISSING_RUN_ID")
		return
	}

	found, err := h.service.GetRun(r.Context(), runID)
	if err != nil {
		if errors.Is(err, run.ErrRunNotFound) {
			writeError(w, http.StatusNotFound, "run not found", "RUN_NOT_FOUND")
			return
		}
		h.logger.Error("failed to get run",
			slog.String("run_id", runID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get run", "RUN_FETCH_FAILED")
		return
	}

	writeJSON(w, http.StatusOK, RunResponse{
		ID:      found.ID,
		Status:  string(found.Status),
		Outputs: outputResponses(found.Outputs),
		Error:   found.Error,
	})
}

// writeProcessError maps crop service failures to error responses.
func (h *Handlers) writeProcessError(w http.ResponseWriter, err error) {
	var ffmpegErr *media.FFmpegError
	switch {
	case errors.Is(err, crop.ErrTwoRegionsRequired):
		writeError(w, http.StatusBadRequest, "exactly two regions must be provided", "TWO_REGIONS_REQUIRED")
	case errors.Is(err, media.ErrFFprobeExecution),
		errors.Is(err, media.ErrNoVideoStream),
		errors.Is(err, media.ErrInvalidDimensions):
		writeError(w, http.StatusInternalServerError, "unable to read video metadata", "METADATA_PROBE_FAILED")
	case errors.As(err, &ffmpegErr):
		writeError(w, http.StatusInternalServerError, "ffmpeg failed while exporting the cropped video", "CROP_EXPORT_FAILED")
	default:
		h.logger.Error("crop processing failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to process regions", "PROCESS_FAILED")
	}
}

// outputResponses converts run outputs to their response form.
func outputResponses(outputs []run.Output) []OutputResponse {
	if len(outputs) == 0 {
		return []OutputResponse{}
	}
	resp := make([]OutputResponse, len(outputs))
	for i, out := range outputs {
		resp[i] = OutputResponse{
			Label:    out.Label,
			Filename: out.Filename,
			URL:      out.URL,
			Crop: CropResponse{
				X:      out.Crop.X,
				Y:      out.Crop.Y,
				Width:  out.Crop.Width,
				Height: out.Crop.Height,
			},
		}
	}
	return resp
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// writeError writes an error response in the standard format.
func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
