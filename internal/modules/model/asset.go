package model

import (
	"time"

	"github.com/google/uuid"
)

type Orientation string

const (
	OrientationLandscape Orientation = "landscape"
	OrientationPortrait  Orientation = "portrait"
)

// OrientationOf classifies a frame size. Square frames count as landscape.
func OrientationOf(width, height int) Orientation {
	if width < height {
		return OrientationPortrait
	}
	return OrientationLandscape
}

type Asset struct {
	ID          uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string      `gorm:"type:text;not null" json:"title"`
	Bucket      string      `gorm:"type:text;not null;uniqueIndex:u_bucket_key,priority:1" json:"bucket"`
	S3Key       string      `gorm:"column:s3_key;type:text;not null;uniqueIndex:u_bucket_key,priority:2" json:"s3_key"`
	MIME        string      `gorm:"column:mime;type:text;not null" json:"mime"`
	SizeB       int64       `gorm:"column:size_bigint;type:bigint;not null" json:"size_b"`
	Width       int         `gorm:"column:width;not null" json:"width"`
	Height      int         `gorm:"column:height;not null" json:"height"`
	Orientation Orientation `gorm:"type:text;not null;index" json:"orientation"`
	Duration    string      `gorm:"type:text;not null" json:"duration"`
	DurationSec float64     `gorm:"column:duration_seconds;type:numeric;not null" json:"duration_seconds"`
	HasHuman    bool        `gorm:"column:has_human;not null;index" json:"has_human"`
	Thumbnail   []byte      `json:"-"`

	IsFavorite bool `gorm:"column:is_favorite;not null;default:false;index" json:"is_favorite"`
	IsDeleted  bool `gorm:"column:is_deleted;not null;default:false;index" json:"is_deleted"`

	ProjectID *uuid.UUID `gorm:"type:uuid;index" json:"project_id"`
	Project   *Project   `gorm:"foreignKey:ProjectID;references:ID;constraint:OnDelete:SET NULL,OnUpdate:CASCADE;" json:"-"`

	CreatedAt time.Time `gorm:"autoCreateTime;index:i_created_id,priority:1" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Presigned download URL, filled per request.
	URL string `gorm:"-" json:"url,omitempty"`
}

func (Asset) TableName() string { return "assets" }
