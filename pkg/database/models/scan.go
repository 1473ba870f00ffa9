package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func init() {
	registerForAutomigration(&Scan{})
}

// Scan is a barcode seen for the first time by a camera session.
type Scan struct {
	gorm.Model
	UUID         string `gorm:"uniqueIndex"`
	CameraTitle  string `gorm:"index:idx_scans_camera_time,priority:1"`
	Format       string
	ValueType    string
	RawValue     string
	DisplayValue string
	ScannedAt    time.Time `gorm:"index:idx_scans_camera_time,priority:2,sort:desc"`
}

func (s *Scan) BeforeCreate(tx *gorm.DB) error {
	if len(s.UUID) == 0 {
		s.UUID = uuid.NewString()
	}
	if s.ScannedAt.IsZero() {
		s.ScannedAt = time.Now()
	}
	return nil
}
