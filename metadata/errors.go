package metadata

import "errors"

// Extraction failures. All of them describe a problem with the uploaded
// image, never with the server, and none of them is worth retrying.
var (
	ErrDecode          = errors.New("image metadata could not be decoded")
	ErrDateTimeMissing = errors.New("exif data missing datetime")
	ErrGPSInfoMissing  = errors.New("exif data missing gps info")
)

// IsClientError reports whether err came from extracting metadata out of
// the caller's image.
func IsClientError(err error) bool {
	return errors.Is(err, ErrDecode) ||
		errors.Is(err, ErrDateTimeMissing) ||
		errors.Is(err, ErrGPSInfoMissing)
}
