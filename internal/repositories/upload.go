package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/gpxup/internal/models"
	"github.com/desertthunder/gpxup/internal/shared"
)

// UploadRepository implements models.Repository[*models.PersistedUpload].
//
// Rows are keyed by a generated uuid; trace names carry a UNIQUE index so
// one trace name is recorded at most once.
type UploadRepository struct {
	db *sql.DB
}

// NewUploadRepository creates a new UploadRepository with the given database connection
func NewUploadRepository(db *sql.DB) *UploadRepository {
	return &UploadRepository{db: db}
}

// Create inserts a new [models.PersistedUpload] into the database with generated ID and sequence
func (r *UploadRepository) Create(upload *models.PersistedUpload) error {
	sequence, err := NextSequence(r.db, "uploads")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	upload.SetID(id)
	upload.SetSequence(sequence)

	if err := upload.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO uploads (id, sequence, trace_name, file, remote_id, visibility, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		upload.TraceName(),
		upload.File(),
		upload.RemoteID(),
		upload.Visibility(),
		upload.CreatedAt(),
		upload.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert upload: %w", err)
	}

	return nil
}

// Get retrieves an upload by ID, excluding soft-deleted rows
func (r *UploadRepository) Get(id string) (*models.PersistedUpload, error) {
	query := `
		SELECT id, sequence, trace_name, file, remote_id, visibility, created_at, updated_at, deleted_at
		FROM uploads
		WHERE id = ? AND deleted_at IS NULL
	`

	return r.scanOne(r.db.QueryRow(query, id))
}

// GetByTraceName retrieves an upload by its trace name
func (r *UploadRepository) GetByTraceName(traceName string) (*models.PersistedUpload, error) {
	query := `
		SELECT id, sequence, trace_name, file, remote_id, visibility, created_at, updated_at, deleted_at
		FROM uploads
		WHERE trace_name = ? AND deleted_at IS NULL
	`

	return r.scanOne(r.db.QueryRow(query, traceName))
}

// Update modifies an existing upload in the database
func (r *UploadRepository) Update(upload *models.PersistedUpload) error {
	if err := upload.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	upload.SetUpdatedAt(now)

	query := `
		UPDATE uploads
		SET trace_name = ?, file = ?, remote_id = ?, visibility = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		upload.TraceName(),
		upload.File(),
		upload.RemoteID(),
		upload.Visibility(),
		now,
		upload.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update upload: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("upload not found: %s", upload.ID())
	}

	return nil
}

// Delete soft-deletes an upload by setting its deleted_at timestamp
func (r *UploadRepository) Delete(id string) error {
	query := `UPDATE uploads SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete upload: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("upload not found: %s", id)
	}

	return nil
}

// List retrieves uploads matching the given criteria, newest first.
//
// Supported criteria: "limit" (int), "visibility" (string).
func (r *UploadRepository) List(criteria map[string]any) ([]*models.PersistedUpload, error) {
	query := `
		SELECT id, sequence, trace_name, file, remote_id, visibility, created_at, updated_at, deleted_at
		FROM uploads
		WHERE deleted_at IS NULL
	`
	args := []any{}

	if visibility, ok := criteria["visibility"].(string); ok && visibility != "" {
		query += " AND visibility = ?"
		args = append(args, visibility)
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list uploads: %w", err)
	}
	defer rows.Close()

	var uploads []*models.PersistedUpload
	for rows.Next() {
		upload, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, upload)
	}

	return uploads, rows.Err()
}

type scannable interface {
	Scan(dest ...any) error
}

func (r *UploadRepository) scanOne(row *sql.Row) (*models.PersistedUpload, error) {
	upload, err := scanUpload(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("upload not found")
	}
	return upload, err
}

func (r *UploadRepository) scanRow(rows *sql.Rows) (*models.PersistedUpload, error) {
	return scanUpload(rows)
}

func scanUpload(s scannable) (*models.PersistedUpload, error) {
	var (
		id, traceName, file, remoteID, visibility string
		sequence                                  int
		createdAt, updatedAt                      time.Time
		deletedAt                                 sql.NullTime
	)

	if err := s.Scan(&id, &sequence, &traceName, &file, &remoteID, &visibility, &createdAt, &updatedAt, &deletedAt); err != nil {
		return nil, err
	}

	upload := models.NewPersistedUpload(traceName, file, remoteID, visibility)
	upload.SetID(id)
	upload.SetSequence(sequence)
	upload.SetTimestamps(createdAt, updatedAt)
	if deletedAt.Valid {
		t := deletedAt.Time
		upload.SetDeletedAt(&t)
	}

	return upload, nil
}
