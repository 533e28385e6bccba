package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Photo struct {
	ID            string    `bson:"_id" json:"id"`
	OwnerID       string    `bson:"owner_id" json:"owner_id"`
	ImagePath     string    `bson:"image_path" json:"image"`
	ThumbnailPath string    `bson:"thumbnail_path,omitempty" json:"thumbnail,omitempty"`
	Location      GeoPoint  `bson:"location" json:"location"`
	TakenAt       time.Time `bson:"taken_at" json:"datetime"`
	Tags          []string  `bson:"tags" json:"tags"`
	Size          int64     `bson:"size" json:"size"`
	ContentType   string    `bson:"content_type" json:"content_type"`
	CreatedAt     time.Time `bson:"created_at" json:"created_at"`
}

type GeoPoint struct {
	Type        string    `bson:"type" json:"type"`
	Coordinates []float64 `bson:"coordinates" json:"coordinates"` // [longitude, latitude]
}

// NewGeoPoint returns a GeoJSON point. Coordinates are stored as given,
// no reprojection.
func NewGeoPoint(lon, lat float64) GeoPoint {
	return GeoPoint{
		Type:        "Point",
		Coordinates: []float64{lon, lat},
	}
}

// TagNameMaxLength bounds Tag.Name in characters.
const TagNameMaxLength = 50

type Tag struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	Name    string             `bson:"name" json:"name"`
	NameKey string             `bson:"name_key" json:"-"`
}

type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username     string             `bson:"username" json:"username"`
	PasswordHash string             `bson:"password_hash" json:"-"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
}
