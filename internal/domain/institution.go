package domain

import "github.com/google/uuid"

// Institution is a financial institution statements are imported from.
// FitID is the external id statements carry in their header; it is how an
// incoming file is matched to an institution. TransFitIDPat, when set, is
// a regular expression (at most one capture group) used to normalize the
// transaction fit-ids that institution emits.
type Institution struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	FitID         string    `json:"fitId"`
	TransFitIDPat *string   `json:"transFitIdPat,omitempty"`
}

// InstitutionInput is the write shape for institutions.
type InstitutionInput struct {
	Name          string  `json:"name"`
	FitID         string  `json:"fitId"`
	TransFitIDPat *string `json:"transFitIdPat,omitempty"`
}

// DecodeInstitutionInput converts an InstitutionInput into an Institution.
func DecodeInstitutionInput(id uuid.UUID, in InstitutionInput) Institution {
	return Institution{
		ID:            id,
		Name:          in.Name,
		FitID:         in.FitID,
		TransFitIDPat: in.TransFitIDPat,
	}
}
