package storage

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicatePhoto = errors.New("photo with the same location and timestamp already exists")
	ErrDuplicateTag   = errors.New("tag already exists")
	ErrDuplicateUser  = errors.New("user already exists")
)
