package repositories

import (
	"fmt"
	"strings"

	"github.com/desertthunder/gpxup/internal/models"
	"github.com/desertthunder/gpxup/internal/services"
)

// UploadLogAdapter implements tasks.UploadRecorder using UploadRepository.
//
// Duplicate trace names are silently ignored (UNIQUE constraint violations):
// a re-recorded upload is not a failure.
type UploadLogAdapter struct {
	repo *UploadRepository
}

// NewUploadLogAdapter creates a new UploadLogAdapter with the given repository
func NewUploadLogAdapter(repo *UploadRepository) *UploadLogAdapter {
	return &UploadLogAdapter{repo: repo}
}

// Record logs one successful upload.
// Returns nil if the trace name is already recorded (deduplication).
func (a *UploadLogAdapter) Record(traceName, file, remoteID string, visibility services.Visibility) error {
	existing, err := a.repo.GetByTraceName(traceName)
	if err == nil && existing != nil {
		return nil
	}

	upload := models.NewPersistedUpload(traceName, file, remoteID, string(visibility))

	if err := a.repo.Create(upload); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return nil
		}
		return fmt.Errorf("failed to record upload: %w", err)
	}

	return nil
}
