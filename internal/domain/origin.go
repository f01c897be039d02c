package domain

import (
	"strings"
	"time"
)

type OriginStatus string

const (
	OriginStatusPending     OriginStatus = "pending"
	OriginStatusActive      OriginStatus = "active"
	OriginStatusUnreachable OriginStatus = "unreachable"
)

// OriginServer is a known origin (PDS) host. Entries are created on first
// successful registration and deactivated rather than deleted; the row is a
// cache of origin state, never the source of truth.
type OriginServer struct {
	ID                 string
	Endpoint           string
	Status             OriginStatus
	RegistrationReason string
	RegisteredAt       time.Time
}

// NormalizeEndpoint canonicalizes an origin endpoint URL so that re-registering
// "https://pds.example.com/" finds the entry stored for "https://pds.example.com".
func NormalizeEndpoint(raw string) string {
	return strings.TrimRight(strings.TrimSpace(raw), "/")
}
