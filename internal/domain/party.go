package domain

import "time"

// Party is an operator, technician or other actor working requests. Parties
// with a matching jurisdiction and zone form the default team for a request.
type Party struct {
	ID             string
	Name           string
	Email          string
	Phone          string
	PasswordHash   string
	JurisdictionID *string
	Zone           *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Reporter is the embedded contact of the citizen who raised a request.
type Reporter struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email,omitempty"`
	Account string `json:"account,omitempty"`
}
