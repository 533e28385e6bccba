package metadata

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"math/big"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
	_ "golang.org/x/image/webp"
)

// DMS is a degrees/minutes/seconds triple as stored in the GPS group.
type DMS [3]*big.Rat

// PhotoGroup holds the capture-time fields of the Exif sub-IFD.
type PhotoGroup struct {
	DateTimeOriginal string
}

// GPSGroup holds the location fields of the GPS sub-IFD. A nil DMS or an
// empty reference means the field was not present.
type GPSGroup struct {
	Latitude     *DMS
	LatitudeRef  string
	Longitude    *DMS
	LongitudeRef string
}

// Directory is the typed view of an image's EXIF tags. A nil group means
// the image carries no such sub-IFD.
type Directory struct {
	Photo       *PhotoGroup
	GPS         *GPSGroup
	Orientation int
}

// ReadDirectory decodes the EXIF block of an image container. An image
// that decodes but carries no EXIF block yields an empty Directory;
// ErrDecode is kept for input that is not a readable image at all.
func ReadDirectory(r io.Reader) (*Directory, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}

	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil && (x == nil || exif.IsCriticalError(err)) {
		if _, _, cfgErr := image.DecodeConfig(bytes.NewReader(data)); cfgErr == nil {
			return &Directory{}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	dir := &Directory{}

	if hasTag(x, exif.ExifIFDPointer) {
		dir.Photo = &PhotoGroup{
			DateTimeOriginal: stringTag(x, exif.DateTimeOriginal),
		}
	}

	if hasTag(x, exif.GPSInfoIFDPointer) {
		dir.GPS = &GPSGroup{
			Latitude:     dmsTag(x, exif.GPSLatitude),
			LatitudeRef:  stringTag(x, exif.GPSLatitudeRef),
			Longitude:    dmsTag(x, exif.GPSLongitude),
			LongitudeRef: stringTag(x, exif.GPSLongitudeRef),
		}
	}

	if tag, err := x.Get(exif.Orientation); err == nil {
		if o, err := tag.Int(0); err == nil {
			dir.Orientation = o
		}
	}

	return dir, nil
}

func hasTag(x *exif.Exif, name exif.FieldName) bool {
	_, err := x.Get(name)
	return err == nil
}

func stringTag(x *exif.Exif, name exif.FieldName) string {
	tag, err := x.Get(name)
	if err != nil {
		return ""
	}
	s, err := tag.StringVal()
	if err != nil {
		return ""
	}
	return s
}

// dmsTag returns nil unless the tag holds three rationals with non-zero
// denominators.
func dmsTag(x *exif.Exif, name exif.FieldName) *DMS {
	tag, err := x.Get(name)
	if err != nil || tag.Count < 3 {
		return nil
	}

	var dms DMS
	for i := range dms {
		r, err := ratAt(tag, i)
		if err != nil {
			return nil
		}
		dms[i] = r
	}
	return &dms
}

var errZeroDenominator = errors.New("zero denominator")

func ratAt(tag *tiff.Tag, i int) (*big.Rat, error) {
	num, den, err := tag.Rat2(i)
	if err != nil {
		return nil, err
	}
	if den == 0 {
		return nil, errZeroDenominator
	}
	return big.NewRat(num, den), nil
}
