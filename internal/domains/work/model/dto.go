package model

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	editionmodel "circulation-backend/internal/domains/edition/model"
)

// MergeRequest asks to retire one work into another.
type MergeRequest struct {
	TargetID string `json:"target_id"`
}

func (r MergeRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.TargetID, validation.Required, validation.By(validUUID)),
	)
}

func validUUID(value interface{}) error {
	s, _ := value.(string)
	_, err := uuid.Parse(s)
	return err
}

// MergeResponse reports the outcome of a merge attempt.
type MergeResponse struct {
	Merged     bool    `json:"merged"`
	Similarity float64 `json:"similarity"`
}

// WorkDetailResponse is the full patron-facing view of a work.
type WorkDetailResponse struct {
	Work     *Work                  `json:"work"`
	Genres   []WorkGenre            `json:"genres"`
	Editions []editionmodel.Edition `json:"editions"`
}
