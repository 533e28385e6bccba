package metadata

import (
	"fmt"
	"io"
	"math/big"
	"strings"
	"time"
)

// DateTimeLayout is the EXIF capture-time format. The date part uses
// colons, unlike ISO-8601.
const DateTimeLayout = "2006:01:02 15:04:05"

// Point is a WGS84 coordinate in decimal degrees.
type Point struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

// Extracted is what an upload needs from an image: when and where it was
// taken. Both are always set together.
type Extracted struct {
	TakenAt     time.Time
	Location    Point
	Orientation int
}

// Extract reads the image metadata from r and decodes capture time and
// location out of it.
func Extract(r io.Reader) (*Extracted, error) {
	dir, err := ReadDirectory(r)
	if err != nil {
		return nil, err
	}
	return FromDirectory(dir)
}

// FromDirectory decodes the timestamp first and returns its error without
// looking at the GPS group, so an image missing both reports
// ErrDateTimeMissing.
func FromDirectory(dir *Directory) (*Extracted, error) {
	takenAt, err := DecodeTimestamp(dir.Photo)
	if err != nil {
		return nil, err
	}

	loc, err := DecodeLocation(dir.GPS)
	if err != nil {
		return nil, err
	}

	return &Extracted{
		TakenAt:     takenAt,
		Location:    loc,
		Orientation: dir.Orientation,
	}, nil
}

// DecodeTimestamp parses DateTimeOriginal as a naive wall-clock time. The
// result is expressed in UTC without applying any offset tag.
func DecodeTimestamp(group *PhotoGroup) (time.Time, error) {
	if group == nil {
		return time.Time{}, fmt.Errorf("%w: no exif sub-directory", ErrDateTimeMissing)
	}

	raw := strings.TrimRight(group.DateTimeOriginal, "\x00")
	if raw == "" {
		return time.Time{}, fmt.Errorf("%w: DateTimeOriginal not set", ErrDateTimeMissing)
	}

	t, err := time.Parse(DateTimeLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: DateTimeOriginal %q", ErrDateTimeMissing, raw)
	}
	return t, nil
}

// DecodeLocation converts the GPS group into a point. Any of the four
// required fields missing counts as no GPS info at all.
func DecodeLocation(group *GPSGroup) (Point, error) {
	if group == nil {
		return Point{}, fmt.Errorf("%w: no gps sub-directory", ErrGPSInfoMissing)
	}

	var missing []string
	if group.Latitude == nil {
		missing = append(missing, "GPSLatitude")
	}
	if strings.TrimSpace(group.LatitudeRef) == "" {
		missing = append(missing, "GPSLatitudeRef")
	}
	if group.Longitude == nil {
		missing = append(missing, "GPSLongitude")
	}
	if strings.TrimSpace(group.LongitudeRef) == "" {
		missing = append(missing, "GPSLongitudeRef")
	}
	if len(missing) > 0 {
		return Point{}, fmt.Errorf("%w: %s not set", ErrGPSInfoMissing, strings.Join(missing, ", "))
	}

	lat, lon := group.Latitude, group.Longitude
	return Point{
		Longitude: DMSToDecimal(lon[0], lon[1], lon[2], group.LongitudeRef),
		Latitude:  DMSToDecimal(lat[0], lat[1], lat[2], group.LatitudeRef),
	}, nil
}

var (
	sixty      = big.NewRat(60, 1)
	thirtySixH = big.NewRat(3600, 1)
)

// DMSToDecimal computes degrees + minutes/60 + seconds/3600 exactly and
// rounds once to float64. South and west references negate the result.
func DMSToDecimal(degrees, minutes, seconds *big.Rat, ref string) float64 {
	sum := new(big.Rat).Set(degrees)
	sum.Add(sum, new(big.Rat).Quo(minutes, sixty))
	sum.Add(sum, new(big.Rat).Quo(seconds, thirtySixH))

	decimal, _ := sum.Float64()

	switch strings.ToUpper(strings.TrimSpace(ref)) {
	case "S", "W":
		decimal = -decimal
	}
	return decimal
}
