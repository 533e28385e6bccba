package metadata

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photo-mapper/metadata/metadatatest"
)

var (
	sampleLat = []metadatatest.Rational{metadatatest.R(1, 1), metadatatest.R(51, 1), metadatatest.R(169, 5)}
	sampleLon = []metadatatest.Rational{metadatatest.R(157, 1), metadatatest.R(23, 1), metadatatest.R(95, 2)}
)

func TestReadDirectory_TIFF(t *testing.T) {
	img := metadatatest.Tagged("2025:01:01 01:01:01", sampleLat, "N", sampleLon, "W")
	img.Orientation = 8

	dir, err := ReadDirectory(bytes.NewReader(img.TIFF()))
	require.NoError(t, err)

	require.NotNil(t, dir.Photo)
	assert.Equal(t, "2025:01:01 01:01:01", dir.Photo.DateTimeOriginal)
	require.NotNil(t, dir.GPS)
	assert.Equal(t, "N", dir.GPS.LatitudeRef)
	assert.Equal(t, "W", dir.GPS.LongitudeRef)
	require.NotNil(t, dir.GPS.Latitude)
	assert.Equal(t, "169/5", dir.GPS.Latitude[2].String())
	require.NotNil(t, dir.GPS.Longitude)
	assert.Equal(t, "95/2", dir.GPS.Longitude[2].String())
	assert.Equal(t, 8, dir.Orientation)
}

func TestReadDirectory_GroupsAbsent(t *testing.T) {
	dir, err := ReadDirectory(bytes.NewReader(metadatatest.Image{}.TIFF()))
	require.NoError(t, err)
	assert.Nil(t, dir.Photo)
	assert.Nil(t, dir.GPS)
}

func TestReadDirectory_ZeroDenominatorIsMissing(t *testing.T) {
	lat := []metadatatest.Rational{metadatatest.R(1, 0), metadatatest.R(51, 1), metadatatest.R(169, 5)}
	img := metadatatest.Tagged("2025:01:01 01:01:01", lat, "N", sampleLon, "W")

	dir, err := ReadDirectory(bytes.NewReader(img.TIFF()))
	require.NoError(t, err)
	require.NotNil(t, dir.GPS)
	assert.Nil(t, dir.GPS.Latitude)
}

func plainImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		for y := 0; y < 8; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 30), G: uint8(y * 30), B: 128, A: 255})
		}
	}
	return img
}

func TestReadDirectory_NoExifBlock(t *testing.T) {
	var jpg, pngBuf bytes.Buffer
	require.NoError(t, jpeg.Encode(&jpg, plainImage(), nil))
	require.NoError(t, png.Encode(&pngBuf, plainImage()))

	tests := []struct {
		name string
		data []byte
	}{
		{"jpeg", jpg.Bytes()},
		{"png", pngBuf.Bytes()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir, err := ReadDirectory(bytes.NewReader(tt.data))
			require.NoError(t, err)
			assert.Nil(t, dir.Photo)
			assert.Nil(t, dir.GPS)

			_, err = Extract(bytes.NewReader(tt.data))
			assert.ErrorIs(t, err, ErrDateTimeMissing)
			assert.NotErrorIs(t, err, ErrDecode)
		})
	}
}

func TestReadDirectory_Corrupt(t *testing.T) {
	_, err := ReadDirectory(bytes.NewReader([]byte("imagedata")))
	assert.ErrorIs(t, err, ErrDecode)
	assert.True(t, IsClientError(err))
}

func TestExtract_JPEG(t *testing.T) {
	img := metadatatest.Tagged("2025:01:01 01:01:01", sampleLat, "n", sampleLon, "w")

	got, err := Extract(bytes.NewReader(img.JPEG()))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 1, 1, 1, 1, 0, time.UTC), got.TakenAt)
	assert.InDelta(t, -157.39652777777778, got.Location.Longitude, 1e-12)
	assert.InDelta(t, 1.859388888888889, got.Location.Latitude, 1e-12)
}

func TestExtract_MissingLongitudeRef(t *testing.T) {
	img := metadatatest.Tagged("2025:01:01 01:01:01", sampleLat, "N", sampleLon, "")

	_, err := Extract(bytes.NewReader(img.JPEG()))
	assert.ErrorIs(t, err, ErrGPSInfoMissing)
}

func TestExtract_GPSWithoutTimestamp(t *testing.T) {
	img := metadatatest.Tagged("", sampleLat, "N", sampleLon, "W")

	_, err := Extract(bytes.NewReader(img.JPEG()))
	assert.ErrorIs(t, err, ErrDateTimeMissing)
}
