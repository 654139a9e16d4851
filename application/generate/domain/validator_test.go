package domain

import (
	"net/url"
	"testing"

	"datagen/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func queryOf(raw string) Query {
	values, _ := url.ParseQuery(raw)
	return func(key string) (string, bool) {
		if !values.Has(key) {
			return "", false
		}
		return values.Get(key), true
	}
}

func TestParseRequest_Defaults(t *testing.T) {
	req, err := ParseRequest(queryOf(""))
	require.NoError(t, err)

	assert.Equal(t, 1, req.Structure)
	assert.Equal(t, DefaultRecordFormat, req.RecordFormat)
	assert.Equal(t, DefaultSizeKB, req.SizeKB)
	assert.False(t, req.Random)
	assert.Equal(t, common.Deterministic, req.Mode())
	assert.False(t, req.Streaming())
}

func TestParseRequest(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		want    Request
		wantTag string
	}{
		{name: "all parameters", query: "structure=7&record-format=2&size=2.5&random=true",
			want: Request{Structure: 7, RecordFormat: 2, SizeKB: 2.5, Random: true}},
		{name: "blank values take defaults", query: "structure=&size=%20",
			want: Request{Structure: 1, RecordFormat: 1, SizeKB: 10}},
		{name: "random accepts yes", query: "random=YES",
			want: Request{Structure: 1, RecordFormat: 1, SizeKB: 10, Random: true}},
		{name: "random accepts anything else as false", query: "random=maybe",
			want: Request{Structure: 1, RecordFormat: 1, SizeKB: 10}},
		{name: "maximum size", query: "size=1048576",
			want: Request{Structure: 1, RecordFormat: 1, SizeKB: common.MaxSizeKB}},
		{name: "structure zero", query: "structure=0", wantTag: TagInvalidStructure},
		{name: "structure ten", query: "structure=10", wantTag: TagInvalidStructure},
		{name: "structure text", query: "structure=abc", wantTag: TagInvalidStructure},
		{name: "record format four", query: "record-format=4", wantTag: TagInvalidRecordFormat},
		{name: "size zero", query: "size=0", wantTag: TagInvalidSize},
		{name: "size negative", query: "size=-5", wantTag: TagInvalidSize},
		{name: "size too large", query: "size=1048577", wantTag: TagInvalidSize},
		{name: "size text", query: "size=big", wantTag: TagInvalidSize},
		{name: "size NaN", query: "size=NaN", wantTag: TagInvalidSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := ParseRequest(queryOf(tt.query))
			if tt.wantTag == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.want, req)
				return
			}

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantTag, verr.Tag)
			assert.NotEmpty(t, verr.Message)
		})
	}
}

func TestParseRequest_StructureHint(t *testing.T) {
	_, err := ParseRequest(queryOf("structure=12"))

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, StructureHint{Structure: 1, JSONPath: "$[*]"}, verr.Hint)
}

func TestParseLineRequest(t *testing.T) {
	req, err := ParseLineRequest(queryOf("structure=99&size=3&random=1"))
	require.NoError(t, err)
	assert.Equal(t, 3.0, req.SizeKB)
	assert.True(t, req.Random)

	_, err = ParseLineRequest(queryOf("size=0"))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, TagInvalidSize, verr.Tag)
}

func TestCheckStreamable(t *testing.T) {
	above := float64(common.StreamThresholdKB) + 1

	for _, id := range []int{1, 2, 3, 4, 6, 7, 9} {
		assert.NoError(t, CheckStreamable(Request{Structure: id, SizeKB: above}), "structure %d", id)
	}

	for _, id := range []int{5, 8} {
		assert.NoError(t, CheckStreamable(Request{Structure: id, SizeKB: common.StreamThresholdKB}),
			"structure %d at the threshold is built in memory", id)

		err := CheckStreamable(Request{Structure: id, SizeKB: above})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr, "structure %d", id)
		assert.Equal(t, TagNotStreamable, verr.Tag)
		assert.NotNil(t, verr.Hint)
	}
}
