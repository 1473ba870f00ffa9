package repos

import (
	"github.com/tauraamui/scandaemon/pkg/database/dbconn"
	"github.com/tauraamui/scandaemon/pkg/database/models"
	"github.com/tauraamui/xerror"
)

const DefaultScanListLimit = 100

type ScanRepository struct {
	DB dbconn.GormWrapper
}

func (r *ScanRepository) Create(scan *models.Scan) error {
	return r.DB.Create(scan).Error()
}

// ListByCamera returns the most recent scans for a camera, newest first.
func (r *ScanRepository) ListByCamera(title string, limit int) ([]models.Scan, error) {
	if limit <= 0 {
		limit = DefaultScanListLimit
	}
	scans := []models.Scan{}
	if err := r.DB.Where("camera_title = ?", title).Order("scanned_at desc").Limit(limit).Find(&scans).Error(); err != nil {
		return nil, xerror.Errorf("unable to list scans for camera %s: %w", title, err)
	}
	return scans, nil
}
