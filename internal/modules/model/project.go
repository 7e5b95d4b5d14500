package model

import (
	"time"

	"github.com/google/uuid"
)

type Project struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name string    `gorm:"type:text;not null" json:"name"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Project <-> Asset. Deleting a project keeps its videos.
	Assets []Asset `gorm:"constraint:OnDelete:SET NULL,OnUpdate:CASCADE;" json:"assets,omitempty"`
}

func (Project) TableName() string { return "projects" }
