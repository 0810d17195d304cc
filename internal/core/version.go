package core

// Version constants recorded in every run header.
const (
	// EngineVersion is the simcore runtime version.
	EngineVersion = "0.1.0"

	// LogFormatVersion is the event log schema version.
	LogFormatVersion = "1"
)
