package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"photo-mapper/storage"
)

type PhotoHandlers struct {
	Db      storage.PhotoDB
	Users   storage.UserDB
	Storage storage.PhotoStorage
	Log     *zap.Logger

	SecretKey      string
	TokenTTL       time.Duration
	MaxUploadBytes int64
	ThumbnailWidth int
	RequestTimeout time.Duration
}

const defaultSearchDistance = 1000

// Router wires every endpoint behind request logging and panic recovery.
func (h *PhotoHandlers) Router() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/", h.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/login", h.handleLogin).Methods(http.MethodPost)

	r.HandleFunc("/photos", h.authed(h.handleListPhotos)).Methods(http.MethodGet)
	r.HandleFunc("/photos", h.authed(h.handleUploadPhoto)).Methods(http.MethodPost)
	r.HandleFunc("/photos/near", h.authed(h.handleSearchNear)).Methods(http.MethodGet)
	r.HandleFunc("/photos/{id}", h.authed(h.handleGetPhoto)).Methods(http.MethodGet)
	r.HandleFunc("/photos/{id}/image", h.authed(h.handleGetImage)).Methods(http.MethodGet)

	r.HandleFunc("/tags", h.authed(h.handleListTags)).Methods(http.MethodGet)
	r.HandleFunc("/tags", h.authed(h.handleCreateTag)).Methods(http.MethodPost)
	r.HandleFunc("/tags/{name}", h.authed(h.handleDeleteTag)).Methods(http.MethodDelete)

	return RecoveryMiddleware(h.Log, RequestLoggerMiddleware(h.Log, r.ServeHTTP))
}

func (h *PhotoHandlers) authed(next http.HandlerFunc) http.HandlerFunc {
	return h.authMiddleware(timeoutMiddleware(h.RequestTimeout, next))
}

func (h *PhotoHandlers) handleIndex(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, h.Log, http.StatusOK, map[string]any{
		"photos": map[string]string{
			"description": "List of photos owned by the authenticated user.",
			"items":       "/photos",
		},
		"tags": map[string]string{
			"description": "List of all the tags that can be associated with a photo.",
			"items":       "/tags",
		},
	})
}

func (h *PhotoHandlers) handleListPhotos(w http.ResponseWriter, r *http.Request) {
	owner, _ := OwnerFromContext(r.Context())

	photos, err := h.Db.ListPhotos(r.Context(), owner)
	if err != nil {
		h.internalError(w, "failed to list photos", err)
		return
	}
	respondJSON(w, h.Log, http.StatusOK, photos)
}

func (h *PhotoHandlers) handleSearchNear(w http.ResponseWriter, r *http.Request) {
	owner, _ := OwnerFromContext(r.Context())
	q := r.URL.Query()

	lon, errLon := strconv.ParseFloat(q.Get("lon"), 64)
	lat, errLat := strconv.ParseFloat(q.Get("lat"), 64)
	if errLon != nil || errLat != nil || lon < -180 || lon > 180 || lat < -90 || lat > 90 {
		http.Error(w, "lon and lat must be valid coordinates", http.StatusBadRequest)
		return
	}

	dist := defaultSearchDistance
	if raw := q.Get("dist"); raw != "" {
		d, err := strconv.Atoi(raw)
		if err != nil || d <= 0 {
			http.Error(w, "dist must be a positive number of meters", http.StatusBadRequest)
			return
		}
		dist = d
	}

	photos, err := h.Db.SearchPhotosByLocation(r.Context(), owner, lon, lat, dist)
	if err != nil {
		h.internalError(w, "failed to search photos", err)
		return
	}
	respondJSON(w, h.Log, http.StatusOK, photos)
}

func (h *PhotoHandlers) handleGetPhoto(w http.ResponseWriter, r *http.Request) {
	owner, _ := OwnerFromContext(r.Context())

	photo, err := h.Db.GetPhoto(r.Context(), owner, mux.Vars(r)["id"])
	if errors.Is(err, storage.ErrNotFound) {
		http.Error(w, "Photo not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.internalError(w, "failed to get photo", err)
		return
	}
	respondJSON(w, h.Log, http.StatusOK, photo)
}

// handleGetImage streams the stored image, or its thumbnail with
// ?thumbnail=true.
func (h *PhotoHandlers) handleGetImage(w http.ResponseWriter, r *http.Request) {
	owner, _ := OwnerFromContext(r.Context())

	photo, err := h.Db.GetPhoto(r.Context(), owner, mux.Vars(r)["id"])
	if errors.Is(err, storage.ErrNotFound) {
		http.Error(w, "Photo not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.internalError(w, "failed to get photo", err)
		return
	}

	key, contentType := photo.ImagePath, photo.ContentType
	if thumb, _ := strconv.ParseBool(r.URL.Query().Get("thumbnail")); thumb {
		if photo.ThumbnailPath == "" {
			http.Error(w, "Thumbnail not available", http.StatusNotFound)
			return
		}
		key, contentType = photo.ThumbnailPath, "image/jpeg"
	}

	rc, err := h.Storage.OpenPhoto(r.Context(), key)
	if errors.Is(err, storage.ErrNotFound) {
		http.Error(w, "Image not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.internalError(w, "failed to open image", err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		h.Log.Warn("failed to stream image", zap.String("key", key), zap.Error(err))
	}
}

func (h *PhotoHandlers) internalError(w http.ResponseWriter, msg string, err error) {
	h.Log.Error(msg, zap.Error(err))
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

func respondJSON(w http.ResponseWriter, log *zap.Logger, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Warn("failed to encode response", zap.Error(err))
	}
}
