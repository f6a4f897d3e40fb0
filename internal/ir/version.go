package ir

// Version constants for the persisted plan schema and engine.
const (
	// SchemaVersion is the plan schema version written with every saved tab.
	SchemaVersion = "1"

	// EngineVersion is the factoryplan engine version.
	EngineVersion = "0.1.0"
)
