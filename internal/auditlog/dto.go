package auditlog

import (
	"time"

	"github.com/angelmondragon/partshop-backend/pkg/db/models"
	"github.com/angelmondragon/partshop-backend/pkg/enums"
	"github.com/angelmondragon/partshop-backend/pkg/pagination"
)

// EntryDTO is the API projection of an audit log row.
type EntryDTO struct {
	ID        uint              `json:"id"`
	UserID    *uint             `json:"user_id,omitempty"`
	User      *UserSummary      `json:"user,omitempty"`
	Action    enums.AuditAction `json:"action"`
	CreatedAt time.Time         `json:"created_at"`
}

// UserSummary identifies the user an entry belongs to.
type UserSummary struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// EntryList is a page of audit log entries.
type EntryList struct {
	Entries []EntryDTO `json:"entries"`
	pagination.Page
}

// FromModel maps a persisted entry to its DTO.
func FromModel(m models.AuditLog) EntryDTO {
	dto := EntryDTO{
		ID:        m.ID,
		UserID:    m.UserID,
		Action:    m.Action,
		CreatedAt: m.CreatedAt,
	}
	if m.User != nil {
		dto.User = &UserSummary{Name: m.User.Name, Email: m.User.Email}
	}
	return dto
}
