package generator

import (
	"math"
	"math/rand/v2"
	"time"

	"datagen/common"
)

// Record produces the record at index. In deterministic mode the result is a
// pure function of index and the pools; in random mode every field except
// int_id is drawn independently on each call.
func (p *Pools) Record(index int, mode common.Mode) common.Record {
	if mode == common.Random {
		return p.randomRecord(index)
	}
	return p.deterministicRecord(index)
}

func (p *Pools) deterministicRecord(i int) common.Record {
	return common.Record{
		IntID:           i + 1,
		StringName:      p.Names[i%len(p.Names)],
		DecimalAmount:   p.Amounts[i%len(p.Amounts)],
		BoolActive:      i%3 != 0,
		StringRemark:    p.Remarks[i%len(p.Remarks)],
		StringCategory:  p.Categories[i%len(p.Categories)],
		StringTimestamp: p.Timestamps[i%len(p.Timestamps)],
		IntCount:        (i * 17) % 1000,
		DecimalRate:     p.Rates[i%len(p.Rates)],
		StringStatus:    p.Statuses[i%len(p.Statuses)],
		ObjectMetadata: common.RecordMetadata{
			CreatedBy: p.Users[i%len(p.Users)],
			Priority:  i%5 + 1,
			Verified:  i%2 == 0,
		},
		ArrayTags:         cloneTags(p.TagSets[i%len(p.TagSets)]),
		StringLocation:    p.Cities[i%len(p.Cities)],
		StringDescription: p.Descriptions[i%len(p.Descriptions)],
	}
}

func (p *Pools) randomRecord(i int) common.Record {
	ts := time.Now().Add(-time.Duration(rand.Int64N(int64(365 * 24 * time.Hour))))

	return common.Record{
		IntID:           i + 1,
		StringName:      pick(p.Names),
		DecimalAmount:   common.Decimal(math.Round(rand.Float64()*1000000) / 100),
		BoolActive:      rand.IntN(2) == 1,
		StringRemark:    pick(p.Remarks),
		StringCategory:  pick(p.Categories),
		StringTimestamp: ts.UTC().Format(TimestampLayout),
		IntCount:        rand.IntN(1000),
		DecimalRate:     common.Decimal(math.Round(rand.Float64()*10000) / 100),
		StringStatus:    pick(p.Statuses),
		ObjectMetadata: common.RecordMetadata{
			CreatedBy: pick(p.Users),
			Priority:  rand.IntN(5) + 1,
			Verified:  rand.IntN(2) == 1,
		},
		ArrayTags:         cloneTags(pick(p.TagSets)),
		StringLocation:    pick(p.Cities),
		StringDescription: pick(p.Descriptions),
	}
}

func pick[T any](pool []T) T {
	return pool[rand.IntN(len(pool))]
}

// cloneTags copies a pool entry so callers never alias shared pool memory.
func cloneTags(tags []string) []string {
	out := make([]string, len(tags))
	copy(out, tags)
	return out
}
