package storage

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestPhotoKey(t *testing.T) {
	id := uuid.MustParse("9f1c2a4e-6d3b-4f0e-8a1d-2b7c5e9f0a13")

	assert.Equal(t, "images/42/9f1c2a4e6d3b4f0e8a1d2b7c5e9f0a13.jpg", PhotoKey("42", id, "DSCF0001.JPG"))
	assert.Equal(t, "images/42/9f1c2a4e6d3b4f0e8a1d2b7c5e9f0a13.heic", PhotoKey("42", id, "IMG_1.heic"))
	assert.Equal(t, "images/42/9f1c2a4e6d3b4f0e8a1d2b7c5e9f0a13.jpg", PhotoKey("42", id, "noext"))
	assert.Equal(t, "thumbnails/42/9f1c2a4e6d3b4f0e8a1d2b7c5e9f0a13.jpg", ThumbnailKey("42", id))
}
