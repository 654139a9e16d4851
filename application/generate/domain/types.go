package domain

import (
	"datagen/common"
	"datagen/internal/shape"
)

// Request is a validated generation request.
type Request struct {
	Structure int
	// RecordFormat is accepted for compatibility and does not change output.
	RecordFormat int
	SizeKB       float64
	Random       bool
}

// Mode returns the generation mode requested.
func (r Request) Mode() common.Mode {
	if r.Random {
		return common.Random
	}
	return common.Deterministic
}

// Streaming reports whether the request exceeds the in-memory threshold.
func (r Request) Streaming() bool {
	return r.SizeKB > common.StreamThresholdKB
}

// Query parameter names and defaults.
const (
	ParamStructure    = "structure"
	ParamRecordFormat = "record-format"
	ParamSize         = "size"
	ParamRandom       = "random"

	DefaultRecordFormat = 1
	DefaultSizeKB       = 10.0
)

// Validation error tags.
const (
	TagInvalidStructure    = "invalid_structure"
	TagInvalidRecordFormat = "invalid_record_format"
	TagInvalidSize         = "invalid_size"
	TagNotStreamable       = "structure_not_streamable"
	TagServerBusy          = "server_busy"
	TagGenerationFailed    = "generation_failed"
)

// StructureHint points clients at the default shape.
type StructureHint struct {
	Structure int    `json:"structure"`
	JSONPath  string `json:"jsonpath"`
}

// DefaultStructureHint returns the hint attached to structure errors.
func DefaultStructureHint() StructureHint {
	return StructureHint{Structure: shape.DefaultID, JSONPath: shape.Default().JSONPath()}
}

// ValidationError rejects a request before any work starts.
type ValidationError struct {
	Tag     string
	Message string
	Hint    any
}

func (e *ValidationError) Error() string {
	return e.Tag + ": " + e.Message
}

// BusyDetails is the payload returned with admission rejections.
type BusyDetails struct {
	Current         int     `json:"current"`
	Capacity        int     `json:"capacity"`
	RequestedSizeKB float64 `json:"requested_size_kb"`
}
