package ir

// Tab is a named subset of factories saved and loaded as one unit.
type Tab struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Plan          *Plan  `json:"plan"`
	Digest        string `json:"digest,omitempty"`
	SchemaVersion string `json:"schema_version"`
}
