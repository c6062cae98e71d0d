package model

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// AssertEquivalencyRequest records a bibliographic assertion that two
// identifiers denote the same underlying work.
type AssertEquivalencyRequest struct {
	DataSource  string  `json:"data_source"`
	OutputType  string  `json:"output_type"`
	OutputValue string  `json:"output_value"`
	Strength    float64 `json:"strength"`
}

func (req AssertEquivalencyRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.DataSource, validation.Required),
		validation.Field(&req.OutputType, validation.Required),
		validation.Field(&req.OutputValue, validation.Required),
		validation.Field(&req.Strength, validation.Min(-1.0), validation.Max(1.0)),
	)
}

// LookupIdentifierRequest resolves or creates an identifier by type and value.
type LookupIdentifierRequest struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

func (req LookupIdentifierRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Type, validation.Required),
		validation.Field(&req.Value, validation.Required),
	)
}

// EquivalentResponse is one member of an identifier's equivalence closure.
type EquivalentResponse struct {
	IdentifierID int64   `json:"identifier_id"`
	Type         string  `json:"type"`
	Value        string  `json:"value"`
	Confidence   float64 `json:"confidence"`
	Votes        int     `json:"votes"`
}
