package domain

import "time"

// Counter is the per-scope atomic sequence backing ticket numbers. One row
// exists per (jurisdiction code, service code, year); it is upserted
// atomically and never deleted.
type Counter struct {
	Jurisdiction string
	Service      string
	Year         int
	Sequence     int64
	UpdatedAt    time.Time
}
