package ir

// Version constants for the plan format and the processor.
const (
	// PlanFormat is the version of the persisted plan layout.
	PlanFormat = "1"

	// EngineVersion is the iocplan processor version.
	EngineVersion = "0.1.0"
)
