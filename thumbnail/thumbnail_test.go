package thumbnail

import (
	"bytes"
	"image"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photo-mapper/metadata/metadatatest"
)

func decodeSize(t *testing.T, data []byte) (int, int) {
	t.Helper()
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	return cfg.Width, cfg.Height
}

func TestGenerate_Resizes(t *testing.T) {
	src := metadatatest.Image{}.JPEGSized(64, 32)

	out, err := Generate(bytes.NewReader(src), 1, 16)
	require.NoError(t, err)

	w, h := decodeSize(t, out)
	assert.Equal(t, 16, w)
	assert.Equal(t, 8, h)
}

func TestGenerate_RotatesBeforeResizing(t *testing.T) {
	src := metadatatest.Image{}.JPEGSized(64, 32)

	out, err := Generate(bytes.NewReader(src), 6, 16)
	require.NoError(t, err)

	w, h := decodeSize(t, out)
	assert.Equal(t, 16, w)
	assert.Equal(t, 32, h)
}

func TestGenerate_KeepsSmallImages(t *testing.T) {
	src := metadatatest.Image{}.JPEGSized(16, 8)

	out, err := Generate(bytes.NewReader(src), 0, 320)
	require.NoError(t, err)

	w, h := decodeSize(t, out)
	assert.Equal(t, 16, w)
	assert.Equal(t, 8, h)
}

func TestGenerate_NotAnImage(t *testing.T) {
	_, err := Generate(strings.NewReader("imagedata"), 1, 320)
	assert.Error(t, err)
}

func TestFixOrientation(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	for _, o := range []int{5, 6, 7, 8} {
		b := FixOrientation(img, o).Bounds()
		assert.Equal(t, 2, b.Dx(), "orientation %d", o)
		assert.Equal(t, 4, b.Dy(), "orientation %d", o)
	}
	for _, o := range []int{0, 1, 2, 3, 4} {
		b := FixOrientation(img, o).Bounds()
		assert.Equal(t, 4, b.Dx(), "orientation %d", o)
	}
}
