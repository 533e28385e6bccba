package storage

import (
	"path"
	"strings"

	"github.com/google/uuid"
)

// PhotoKey is where an owner's image lives: images/<owner>/<id hex>.<ext>,
// keeping the extension of the uploaded file name.
func PhotoKey(ownerID string, id uuid.UUID, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if ext == "" {
		ext = ".jpg"
	}
	return path.Join("images", ownerID, hexID(id)+ext)
}

// ThumbnailKey is the JPEG thumbnail counterpart of PhotoKey.
func ThumbnailKey(ownerID string, id uuid.UUID) string {
	return path.Join("thumbnails", ownerID, hexID(id)+".jpg")
}

func hexID(id uuid.UUID) string {
	return strings.ReplaceAll(id.String(), "-", "")
}
