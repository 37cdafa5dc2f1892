package models

import (
	"fmt"
	"time"
)

// PersistedUpload is one row of the local upload history: a trace that was
// successfully pushed to the remote service.
type PersistedUpload struct {
	id         string
	sequence   int
	traceName  string
	file       string
	remoteID   string
	visibility string
	createdAt  time.Time
	updatedAt  time.Time
	deletedAt  *time.Time
}

// NewPersistedUpload creates an upload record with fresh timestamps.
// The id and sequence are assigned by the repository on Create.
func NewPersistedUpload(traceName, file, remoteID, visibility string) *PersistedUpload {
	now := time.Now()
	return &PersistedUpload{
		traceName:  traceName,
		file:       file,
		remoteID:   remoteID,
		visibility: visibility,
		createdAt:  now,
		updatedAt:  now,
	}
}

func (u *PersistedUpload) ID() string            { return u.id }
func (u *PersistedUpload) Sequence() int         { return u.sequence }
func (u *PersistedUpload) TraceName() string     { return u.traceName }
func (u *PersistedUpload) File() string          { return u.file }
func (u *PersistedUpload) RemoteID() string      { return u.remoteID }
func (u *PersistedUpload) Visibility() string    { return u.visibility }
func (u *PersistedUpload) CreatedAt() time.Time  { return u.createdAt }
func (u *PersistedUpload) UpdatedAt() time.Time  { return u.updatedAt }
func (u *PersistedUpload) DeletedAt() *time.Time { return u.deletedAt }

func (u *PersistedUpload) SetID(id string)           { u.id = id }
func (u *PersistedUpload) SetSequence(sequence int)  { u.sequence = sequence }
func (u *PersistedUpload) SetUpdatedAt(t time.Time)  { u.updatedAt = t }
func (u *PersistedUpload) SetDeletedAt(t *time.Time) { u.deletedAt = t }

// SetTimestamps restores persisted timestamps when scanning rows.
func (u *PersistedUpload) SetTimestamps(created, updated time.Time) {
	u.createdAt = created
	u.updatedAt = updated
}

// Validate checks the record carries the fields the history is keyed on.
func (u *PersistedUpload) Validate() error {
	if u.traceName == "" {
		return fmt.Errorf("trace name is required")
	}
	if u.remoteID == "" {
		return fmt.Errorf("remote id is required")
	}
	return nil
}
