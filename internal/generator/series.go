package generator

import (
	"fmt"
	"math"
	"slices"

	"datagen/common"

	json "github.com/json-iterator/go"
)

const (
	// sampleEvery is the stride at which record sizes are measured exactly.
	sampleEvery = 20
	// countSlack inflates the estimated record count to avoid undershooting.
	countSlack = 1.05
)

// RangeError reports a target size outside [1, Max] kilobytes.
type RangeError struct {
	SizeKB float64
	Max    float64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("size must be between 1 and %.0f KB, got %g", e.Max, e.SizeKB)
}

// Builder assembles record series whose serialized length approximates a
// requested byte budget.
type Builder struct {
	pools *Pools
	maxKB float64
}

// NewBuilder returns a Builder over pools accepting targets up to
// common.MaxSizeKB.
func NewBuilder(pools *Pools) *Builder {
	return &Builder{pools: pools, maxKB: common.MaxSizeKB}
}

// Pools exposes the shared value pools.
func (b *Builder) Pools() *Pools {
	return b.pools
}

// Build generates a series starting at index 0.
func (b *Builder) Build(sizeKB float64, mode common.Mode) (common.Series, error) {
	return b.BuildFrom(0, sizeKB, mode)
}

// BuildFrom generates records start, start+1, ... until the running size
// estimate reaches sizeKB kilobytes or the estimated count is exhausted.
//
// Only every 20th record is serialized to measure its size; the rest are
// accounted for with the size of the first record plus one separator byte.
// The result therefore approximates the target rather than matching it.
func (b *Builder) BuildFrom(start int, sizeKB float64, mode common.Mode) (common.Series, error) {
	if math.IsNaN(sizeKB) || sizeKB < 1 || sizeKB > b.maxKB {
		return nil, &RangeError{SizeKB: sizeKB, Max: b.maxKB}
	}
	target := int64(sizeKB * 1024)

	first := b.pools.Record(start, mode)
	encoded, err := json.Marshal(first)
	if err != nil {
		return nil, fmt.Errorf("failed to encode record %d: %w", first.IntID, err)
	}
	avgSize := int64(len(encoded))

	estimated := int(math.Ceil(float64(target) / float64(avgSize) * countSlack))
	series := make(common.Series, 0, estimated)
	series = append(series, first)
	total := avgSize

	for i := 1; total < target && len(series) < estimated; i++ {
		rec := b.pools.Record(start+i, mode)
		if i%sampleEvery == 0 {
			encoded, err := json.Marshal(rec)
			if err != nil {
				return nil, fmt.Errorf("failed to encode record %d: %w", rec.IntID, err)
			}
			total += int64(len(encoded)) + 1
		} else {
			total += avgSize + 1
		}
		series = append(series, rec)
	}

	return slices.Clip(series), nil
}
