package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"linkvault/pkg/blob"
	"linkvault/pkg/logging"
	"linkvault/pkg/middleware"
	"linkvault/pkg/service"
	"linkvault/pkg/storage"

	"github.com/go-chi/chi/v5"
)

// allowedExtensions mirrors the upload gateway's strict allowlist.
var allowedExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".pdf": true, ".txt": true, ".docx": true, ".zip": true,
}

type Handler struct {
	records   *service.RecordService
	blobs     blob.Store
	logger    *logging.Logger
	maxUpload int64
}

func NewHandler(records *service.RecordService, blobs blob.Store, logger *logging.Logger, maxUpload int64) *Handler {
	if maxUpload <= 0 {
		maxUpload = 5 << 20
	}
	return &Handler{records: records, blobs: blobs, logger: logger, maxUpload: maxUpload}
}

type uploadResponse struct {
	Success   bool      `json:"success"`
	LinkID    string    `json:"link_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Upload accepts a multipart form with either a "text" field or a "file"
// part, plus optional "expiry" (RFC 3339), "max_views", and "password"
// fields. The size cap and extension allowlist are enforced here, before the
// access-control core ever sees the payload.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Headroom over the file cap covers the other form fields.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+(64<<10))
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		writeError(w, http.StatusBadRequest, "file is too large or form is malformed")
		return
	}

	req := service.CreateRequest{
		Text:     r.FormValue("text"),
		Password: r.FormValue("password"),
	}

	if v := r.FormValue("expiry"); v != "" {
		expiresAt, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid expiry timestamp")
			return
		}
		req.ExpiresAt = &expiresAt
	}
	if v := r.FormValue("max_views"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid max_views")
			return
		}
		req.MaxViews = &n
	}

	if ident := middleware.GetIdentity(ctx); ident.State == middleware.Authenticated {
		owner := ident.OwnerID
		req.OwnerID = &owner
	}

	file, header, err := r.FormFile("file")
	if err == nil {
		defer file.Close()

		ext := strings.ToLower(filepath.Ext(header.Filename))
		if !allowedExtensions[ext] {
			writeError(w, http.StatusBadRequest, "file type not allowed")
			return
		}
		if header.Size > h.maxUpload {
			writeError(w, http.StatusBadRequest, "file is too large")
			return
		}

		key := fmt.Sprintf("%d_%s", time.Now().UnixMilli(), filepath.Base(header.Filename))
		contentType := header.Header.Get("Content-Type")
		if err := h.blobs.Put(ctx, key, file, header.Size, contentType); err != nil {
			h.logger.Error(ctx, "blob upload failed", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to store file")
			return
		}
		req.FileKey = key
		req.FileName = header.Filename
	}

	rec, err := h.records.Create(ctx, &req)
	if err != nil {
		// The blob went in before the metadata; take it back out so a
		// rejected upload leaves nothing behind.
		if req.FileKey != "" {
			if derr := h.blobs.Delete(ctx, req.FileKey); derr != nil {
				h.logger.Warn(ctx, "orphaned blob cleanup failed", "key", req.FileKey, "error", derr)
			}
		}
		if service.IsValidation(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error(ctx, "create record failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusCreated, uploadResponse{
		Success:   true,
		LinkID:    rec.ID,
		ExpiresAt: rec.ExpiresAt,
	})
}

type peekResponse struct {
	Found        bool               `json:"found"`
	Kind         storage.RecordKind `json:"kind"`
	OriginalName *string            `json:"original_name,omitempty"`
	Protected    bool               `json:"protected"`
}

// Peek reports existence and gating metadata without consuming a view.
func (h *Handler) Peek(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	result, err := h.records.Peek(r.Context(), id)
	if err != nil {
		if service.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "link not found")
			return
		}
		h.logger.Error(r.Context(), "peek failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, peekResponse{
		Found:        true,
		Kind:         result.Kind,
		OriginalName: result.DisplayName,
		Protected:    result.Protected,
	})
}

type revealRequest struct {
	Password string `json:"password"`
}

type revealResponse struct {
	Kind         storage.RecordKind `json:"kind"`
	Content      string             `json:"content,omitempty"`
	Filename     string             `json:"filename,omitempty"`
	OriginalName *string            `json:"original_name,omitempty"`
}

// Reveal consumes one view and returns the content. Text comes back inline;
// files come back as the object key for the download endpoint.
func (h *Handler) Reveal(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req revealRequest
	if r.Body != nil {
		// An empty or absent body is a reveal without a password.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	result, err := h.records.Reveal(r.Context(), id, req.Password)
	if err != nil {
		switch {
		case service.IsNotFound(err):
			writeError(w, http.StatusNotFound, "link not found")
		case errors.Is(err, service.ErrPasswordRequired):
			writeError(w, http.StatusUnauthorized, "password required")
		case errors.Is(err, service.ErrIncorrectPassword):
			writeError(w, http.StatusUnauthorized, "incorrect password")
		default:
			h.logger.Error(r.Context(), "reveal failed", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	resp := revealResponse{Kind: result.Kind}
	if result.Kind == storage.KindText {
		resp.Content = result.Content
	} else {
		resp.Filename = result.Content
		resp.OriginalName = result.DisplayName
	}
	writeJSON(w, http.StatusOK, resp)
}

// Download redirects to the blob store's public URL for an object key.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	if filename == "" {
		writeError(w, http.StatusNotFound, "file not found")
		return
	}
	http.Redirect(w, r, h.blobs.PublicURL(filename), http.StatusFound)
}

// ListOwned returns the caller's non-expired records, metadata only.
func (h *Handler) ListOwned(w http.ResponseWriter, r *http.Request) {
	ident := middleware.GetIdentity(r.Context())

	metas, err := h.records.ListOwned(r.Context(), ident.OwnerID)
	if err != nil {
		h.logger.Error(r.Context(), "list owned failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, metas)
}

// DeleteOwned deletes one of the caller's records. A record the caller does
// not own is indistinguishable from one that does not exist.
func (h *Handler) DeleteOwned(w http.ResponseWriter, r *http.Request) {
	ident := middleware.GetIdentity(r.Context())
	id := chi.URLParam(r, "id")

	if err := h.records.DeleteOwned(r.Context(), ident.OwnerID, id); err != nil {
		if service.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "content not found or unauthorized")
			return
		}
		h.logger.Error(r.Context(), "delete owned failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// CorrelationID stamps each request context with a correlation ID for logs.
func CorrelationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.WithCorrelationID(r.Context())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func SetupRoutes(r *chi.Mux, handler *Handler, identity *middleware.IdentityMiddleware) {
	r.Use(CorrelationID)
	r.Get("/health", handler.HealthCheck)
	r.Route("/api", func(r chi.Router) {
		if identity != nil {
			r.Use(identity.Resolve)
		}
		r.With(middleware.RejectInvalid).Post("/upload", handler.Upload)
		r.With(middleware.RequireOwner).Get("/user/uploads", handler.ListOwned)
		r.With(middleware.RequireOwner).Delete("/user/files/{id}", handler.DeleteOwned)
		r.Get("/file/download/{filename}", handler.Download)
		r.Get("/{id}", handler.Peek)
		r.Post("/{id}/verify", handler.Reveal)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
