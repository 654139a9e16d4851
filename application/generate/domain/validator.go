package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"datagen/common"
	"datagen/internal/shape"
)

// Query looks up a single query parameter, as gin.Context.GetQuery does.
type Query func(key string) (string, bool)

// ParseRequest validates the generation parameters. Missing parameters take
// their defaults.
func ParseRequest(query Query) (Request, error) {
	req := Request{
		Structure:    shape.DefaultID,
		RecordFormat: DefaultRecordFormat,
		SizeKB:       DefaultSizeKB,
	}

	if v, ok := lookup(query, ParamStructure); ok {
		id, err := strconv.Atoi(v)
		if err != nil || id < 1 || id > 9 {
			return req, &ValidationError{
				Tag:     TagInvalidStructure,
				Message: fmt.Sprintf("structure must be an integer between 1 and 9, got %q", v),
				Hint:    DefaultStructureHint(),
			}
		}
		req.Structure = id
	}

	if v, ok := lookup(query, ParamRecordFormat); ok {
		f, err := strconv.Atoi(v)
		if err != nil || f < 1 || f > 3 {
			return req, &ValidationError{
				Tag:     TagInvalidRecordFormat,
				Message: fmt.Sprintf("record-format must be an integer between 1 and 3, got %q", v),
			}
		}
		req.RecordFormat = f
	}

	size, err := parseSize(query)
	if err != nil {
		return req, err
	}
	req.SizeKB = size

	if v, ok := lookup(query, ParamRandom); ok {
		req.Random = parseBool(v)
	}

	return req, nil
}

// ParseLineRequest validates the parameters of the line-oriented endpoints,
// which ignore structure and record-format.
func ParseLineRequest(query Query) (Request, error) {
	req := Request{Structure: shape.DefaultID, RecordFormat: DefaultRecordFormat}

	size, err := parseSize(query)
	if err != nil {
		return req, err
	}
	req.SizeKB = size

	if v, ok := lookup(query, ParamRandom); ok {
		req.Random = parseBool(v)
	}
	return req, nil
}

// CheckStreamable rejects requests above the streaming threshold for shapes
// that can only be built in memory.
func CheckStreamable(req Request) error {
	if req.Streaming() && !shape.IsStreamable(req.Structure) {
		return &ValidationError{
			Tag: TagNotStreamable,
			Message: fmt.Sprintf("structure %d cannot be streamed; sizes above %d KB are not supported for it",
				req.Structure, common.StreamThresholdKB),
			Hint: DefaultStructureHint(),
		}
	}
	return nil
}

func parseSize(query Query) (float64, error) {
	v, ok := lookup(query, ParamSize)
	if !ok {
		return DefaultSizeKB, nil
	}
	size, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(size) || size < 1 || size > common.MaxSizeKB {
		return 0, &ValidationError{
			Tag:     TagInvalidSize,
			Message: fmt.Sprintf("size must be a number of KB between 1 and %d, got %q", common.MaxSizeKB, v),
		}
	}
	return size, nil
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "t", "true", "yes", "y", "on":
		return true
	}
	return false
}

func lookup(query Query, key string) (string, bool) {
	v, ok := query(key)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}
