package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"photo-mapper/metadata"
	"photo-mapper/model"
	"photo-mapper/storage"
	"photo-mapper/thumbnail"
)

// Parts above this size are spooled to disk while parsing the form.
const multipartMemory = 32 << 20

// upload is one image of a request, validated and ready to persist.
type upload struct {
	filename    string
	contentType string
	data        []byte
	meta        *metadata.Extracted
	tags        []string
}

// errBadUpload marks request problems that are reported as 400.
var errBadUpload = errors.New("bad upload")

// handleUploadPhoto accepts one or more "file" parts and an optional
// "tags" value per file (a JSON array of names, matched by position).
// The batch is all or nothing: every image is validated before anything is
// stored, and photos already stored are removed if a later one fails.
func (h *PhotoHandlers) handleUploadPhoto(w http.ResponseWriter, r *http.Request) {
	owner, _ := OwnerFromContext(r.Context())

	if r.ContentLength > h.MaxUploadBytes {
		h.Log.Info("upload exceeds limit", zap.Int64("content_length", r.ContentLength), zap.Int64("limit", h.MaxUploadBytes))
		http.Error(w, "File size exceeds limit", http.StatusRequestEntityTooLarge)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "File size exceeds limit", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	fileHeaders := r.MultipartForm.File["file"]
	if len(fileHeaders) == 0 {
		http.Error(w, "No files uploaded", http.StatusBadRequest)
		return
	}

	tagLists, err := parseTagLists(r.MultipartForm.Value["tags"], len(fileHeaders))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	uploads := make([]*upload, 0, len(fileHeaders))
	for i, fh := range fileHeaders {
		u, err := readUpload(fh, tagLists[i])
		if err != nil {
			if metadata.IsClientError(err) || errors.Is(err, errBadUpload) {
				h.Log.Info("rejected upload", zap.String("filename", fh.Filename), zap.Error(err))
				http.Error(w, fmt.Sprintf("%s: %v", fh.Filename, err), http.StatusBadRequest)
				return
			}
			h.internalError(w, "failed to read upload", err)
			return
		}
		uploads = append(uploads, u)
	}

	photos, err := h.createPhotos(r.Context(), owner, uploads)
	if errors.Is(err, storage.ErrDuplicatePhoto) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		h.internalError(w, "failed to store photos", err)
		return
	}

	respondJSON(w, h.Log, http.StatusCreated, photos)
}

// parseTagLists decodes up to n tag lists; missing or empty values mean
// no tags for that file.
func parseTagLists(values []string, n int) ([][]string, error) {
	if len(values) > n {
		return nil, fmt.Errorf("got %d tag lists for %d files", len(values), n)
	}

	lists := make([][]string, n)
	for i, v := range values {
		if v == "" {
			continue
		}
		var names []string
		if err := json.Unmarshal([]byte(v), &names); err != nil {
			return nil, fmt.Errorf("tags for file %d must be a JSON array of strings", i+1)
		}
		normalized, err := model.NormalizeTagNames(names)
		if err != nil {
			return nil, err
		}
		lists[i] = normalized
	}
	return lists, nil
}

func readUpload(fh *multipart.FileHeader, tags []string) (*upload, error) {
	file, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty file", errBadUpload)
	}

	meta, err := metadata.Extract(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	return &upload{
		filename:    fh.Filename,
		contentType: http.DetectContentType(data),
		data:        data,
		meta:        meta,
		tags:        tags,
	}, nil
}

func (h *PhotoHandlers) createPhotos(ctx context.Context, owner string, uploads []*upload) ([]model.Photo, error) {
	photos := make([]model.Photo, 0, len(uploads))
	var createdTags []string
	for _, u := range uploads {
		photo, created, err := h.createPhoto(ctx, owner, u)
		createdTags = append(createdTags, created...)
		if err != nil {
			h.rollback(owner, photos, createdTags)
			return nil, fmt.Errorf("%s: %w", u.filename, err)
		}
		photos = append(photos, *photo)
	}
	return photos, nil
}

// createPhoto stores the image and its thumbnail, then the record. Files
// are removed again when the record cannot be created. The names of tags
// inserted into the catalog are returned even on failure.
func (h *PhotoHandlers) createPhoto(ctx context.Context, owner string, u *upload) (*model.Photo, []string, error) {
	tags, created, err := h.Db.GetOrCreateTags(ctx, u.tags)
	if err != nil {
		return nil, created, err
	}
	tagNames := make([]string, 0, len(tags))
	for _, t := range tags {
		tagNames = append(tagNames, t.Name)
	}

	id := uuid.New()
	photo := &model.Photo{
		ID:          id.String(),
		OwnerID:     owner,
		ImagePath:   storage.PhotoKey(owner, id, u.filename),
		Location:    model.NewGeoPoint(u.meta.Location.Longitude, u.meta.Location.Latitude),
		TakenAt:     u.meta.TakenAt,
		Tags:        tagNames,
		Size:        int64(len(u.data)),
		ContentType: u.contentType,
		CreatedAt:   time.Now().UTC(),
	}

	if err := h.Storage.SavePhoto(ctx, photo.ImagePath, bytes.NewReader(u.data), photo.Size, photo.ContentType); err != nil {
		return nil, created, err
	}
	photo.ThumbnailPath = h.saveThumbnail(ctx, owner, id, u)

	if err := h.Db.CreatePhoto(ctx, photo); err != nil {
		h.removeFiles(photo)
		return nil, created, err
	}

	h.Log.Info("photo created",
		zap.String("id", photo.ID),
		zap.String("owner", owner),
		zap.Time("taken_at", photo.TakenAt),
		zap.Float64s("coordinates", photo.Location.Coordinates),
	)
	return photo, created, nil
}

// saveThumbnail returns the stored thumbnail key, or "" if none could be
// made. A missing thumbnail never fails the upload.
func (h *PhotoHandlers) saveThumbnail(ctx context.Context, owner string, id uuid.UUID, u *upload) string {
	thumb, err := thumbnail.Generate(bytes.NewReader(u.data), u.meta.Orientation, h.ThumbnailWidth)
	if err != nil {
		h.Log.Warn("skipping thumbnail", zap.String("filename", u.filename), zap.Error(err))
		return ""
	}

	key := storage.ThumbnailKey(owner, id)
	if err := h.Storage.SavePhoto(ctx, key, bytes.NewReader(thumb), int64(len(thumb)), "image/jpeg"); err != nil {
		h.Log.Warn("failed to store thumbnail", zap.String("key", key), zap.Error(err))
		return ""
	}
	return key
}

// rollback runs on a fresh context so a cancelled request still cleans up.
// Tags the request added to the catalog go too, unless another photo
// picked them up meanwhile.
func (h *PhotoHandlers) rollback(owner string, photos []model.Photo, createdTags []string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for i := range photos {
		if err := h.Db.DeletePhoto(ctx, owner, photos[i].ID); err != nil {
			h.Log.Error("failed to roll back photo record", zap.String("id", photos[i].ID), zap.Error(err))
		}
		h.removeFiles(&photos[i])
	}

	if len(createdTags) == 0 {
		return
	}
	if err := h.Db.RemoveUnusedTags(ctx, createdTags); err != nil {
		h.Log.Error("failed to roll back tags", zap.Strings("tags", createdTags), zap.Error(err))
	}
}

func (h *PhotoHandlers) removeFiles(photo *model.Photo) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, key := range []string{photo.ImagePath, photo.ThumbnailPath} {
		if key == "" {
			continue
		}
		if err := h.Storage.DeletePhoto(ctx, key); err != nil {
			h.Log.Warn("failed to remove stored file", zap.String("key", key), zap.Error(err))
		}
	}
}
