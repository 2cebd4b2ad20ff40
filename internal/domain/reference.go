package domain

import "time"

// Jurisdiction is an administrative entity responsible for an area.
type Jurisdiction struct {
	ID        string
	Code      string
	Name      string
	Phone     string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ServiceGroup categorizes services (e.g. water supply, sanitation).
type ServiceGroup struct {
	ID   string
	Code string
	Name string
}

// Service is a catalog entry citizens report against. SLAHours is the
// agreed time-to-resolve used to derive a request's expected date.
type Service struct {
	ID             string
	Code           string
	Name           string
	JurisdictionID string
	GroupID        *string
	TypeID         *string
	PriorityID     *string
	SLAHours       int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Status is a lifecycle state. The highest weight is the default for new
// requests.
type Status struct {
	ID     string
	Name   string
	Weight int
	Color  string
}

// Priority ranks urgency. The highest weight is the default for new requests.
type Priority struct {
	ID     string
	Name   string
	Weight int
	Color  string
}
