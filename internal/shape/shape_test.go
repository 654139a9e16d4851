package shape

import (
	"bytes"
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"datagen/common"
	"datagen/internal/generator"

	json "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSeries(t *testing.T, kb float64) common.Series {
	t.Helper()
	pools := generator.NewPools(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), rand.New(rand.NewPCG(7, 7)))
	series, err := generator.NewBuilder(pools).Build(kb, common.Deterministic)
	require.NoError(t, err)
	return series
}

func decode(t *testing.T, data []byte) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal(data, &v), "document: %s", data)
	return v
}

func roundTrip(t *testing.T, v any) any {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return decode(t, data)
}

// extract evaluates the small JSONPath subset used by the shapes:
// $, .name, [*] and .*
func extract(t *testing.T, doc any, path string) []any {
	t.Helper()
	require.True(t, strings.HasPrefix(path, "$"), "path %s", path)

	current := []any{doc}
	rest := path[1:]
	for rest != "" {
		var next []any
		switch {
		case strings.HasPrefix(rest, "[*]"):
			rest = rest[3:]
			for _, node := range current {
				arr, ok := node.([]any)
				require.True(t, ok, "expected array at %s", path)
				next = append(next, arr...)
			}
		case strings.HasPrefix(rest, ".*"):
			rest = rest[2:]
			for _, node := range current {
				obj, ok := node.(map[string]any)
				require.True(t, ok, "expected object at %s", path)
				for _, v := range obj {
					next = append(next, v)
				}
			}
		case strings.HasPrefix(rest, "."):
			rest = rest[1:]
			end := strings.IndexAny(rest, ".[")
			if end < 0 {
				end = len(rest)
			}
			key := rest[:end]
			rest = rest[end:]
			for _, node := range current {
				obj, ok := node.(map[string]any)
				require.True(t, ok, "expected object at %s", path)
				v, ok := obj[key]
				require.True(t, ok, "missing key %s", key)
				next = append(next, v)
			}
		default:
			t.Fatalf("unsupported path segment %q", rest)
		}
		current = next
	}
	return current
}

func streamDocument(t *testing.T, s Streamable, series common.Series) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.Write(s.Prefix())
	for i, r := range series {
		if i > 0 {
			buf.WriteByte(',')
		}
		item, err := json.Marshal(s.Item(r))
		require.NoError(t, err)
		buf.Write(item)
	}
	suffix, err := s.Suffix(len(series))
	require.NoError(t, err)
	buf.Write(suffix)
	return buf.Bytes()
}

func TestRegistry(t *testing.T) {
	all := All()
	require.Len(t, all, 9)
	for i, s := range all {
		assert.Equal(t, i+1, s.ID())
		assert.NotEmpty(t, s.JSONPath())
		assert.NotEmpty(t, s.Description())
	}

	streamable := map[int]bool{1: true, 2: true, 3: true, 4: true, 5: false, 6: true, 7: true, 8: false, 9: true}
	for id, want := range streamable {
		assert.Equal(t, want, IsStreamable(id), "shape %d", id)
	}
	assert.False(t, IsStreamable(0))
	assert.False(t, IsStreamable(10))

	_, ok := Lookup(42)
	assert.False(t, ok)
	assert.Equal(t, 1, Default().ID())
	assert.Equal(t, "$[*]", Describe(Default()).JSONPath)
}

func TestStreamableRoundTrip(t *testing.T) {
	series := testSeries(t, 8)
	require.Greater(t, len(series), 5)

	for _, s := range All() {
		st, ok := AsStreamable(s)
		if !ok {
			continue
		}

		t.Run(s.Description(), func(t *testing.T) {
			want := make([]any, len(series))
			for i, r := range series {
				want[i] = roundTrip(t, st.Item(r))
			}

			wrapped, err := json.Marshal(st.Wrap(series))
			require.NoError(t, err)
			assert.Equal(t, want, extract(t, decode(t, wrapped), st.JSONPath()))

			streamed := streamDocument(t, st, series)
			assert.Equal(t, want, extract(t, decode(t, streamed), st.JSONPath()))
		})
	}
}

func TestStreamedMatchesWrapped(t *testing.T) {
	series := testSeries(t, 4)

	for _, id := range []int{1, 2, 3, 4, 7, 9} {
		s, _ := Lookup(id)
		st, _ := AsStreamable(s)

		wrapped, err := json.Marshal(st.Wrap(series))
		require.NoError(t, err)
		assert.Equal(t, decode(t, wrapped), decode(t, streamDocument(t, st, series)), "shape %d", id)
	}
}

func TestPositionalRows(t *testing.T) {
	series := testSeries(t, 4)
	s, _ := Lookup(4)

	rows := roundTrip(t, s.Wrap(series)).([]any)
	require.Len(t, rows, len(series))
	for i, row := range rows {
		values := row.([]any)
		require.Len(t, values, len(common.FieldNames))

		record := roundTrip(t, series[i]).(map[string]any)
		for j, name := range common.FieldNames {
			assert.Equal(t, record[name], values[j], "row %d field %s", i, name)
		}
	}
}

func TestColumnar(t *testing.T) {
	series := testSeries(t, 4)
	s, _ := Lookup(5)

	doc := roundTrip(t, s.Wrap(series)).(map[string]any)
	require.Len(t, doc, len(common.FieldNames))
	for _, name := range common.FieldNames {
		column, ok := doc[name].([]any)
		require.True(t, ok, "missing column %s", name)
		assert.Len(t, column, len(series))
	}

	ids := extract(t, doc, s.JSONPath())[0].([]any)
	for i, id := range ids {
		assert.EqualValues(t, i+1, id)
	}

	data, err := json.Marshal(s.Wrap(series))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte(`{"int_id":[`)))
}

func TestGrouped(t *testing.T) {
	s, _ := Lookup(8)

	t.Run("groups by category", func(t *testing.T) {
		series := testSeries(t, 8)
		doc := roundTrip(t, s.Wrap(series)).(map[string]any)

		summary := doc["summary"].(map[string]any)
		assert.EqualValues(t, len(series), summary["total_records"])
		assert.Equal(t, "string_category", summary["grouped_by"])

		groups := doc["groups"].(map[string]any)
		assert.EqualValues(t, len(groups), summary["group_count"])

		total := 0
		for category, members := range groups {
			for _, m := range members.([]any) {
				assert.Equal(t, category, m.(map[string]any)["string_category"])
				total++
			}
		}
		assert.Equal(t, len(series), total)
		assert.Len(t, extract(t, doc, s.JSONPath()), len(series))
	})

	t.Run("falls back to location then synthetic buckets", func(t *testing.T) {
		series := testSeries(t, 8)
		noCategory := make(common.Series, len(series))
		copy(noCategory, series)
		noCategory[0].StringCategory = ""

		doc := roundTrip(t, s.Wrap(noCategory)).(map[string]any)
		assert.Equal(t, "string_location", doc["summary"].(map[string]any)["grouped_by"])
		assert.NotEmpty(t, series[0].StringCategory, "wrap must not mutate its input")

		for i := range noCategory {
			noCategory[i].StringCategory = ""
			noCategory[i].StringLocation = ""
			noCategory[i].StringStatus = ""
		}
		doc = roundTrip(t, s.Wrap(noCategory)).(map[string]any)
		groups := doc["groups"].(map[string]any)
		assert.Contains(t, groups, "group_0")
		assert.Len(t, groups["group_0"].([]any), 10)
	})

	t.Run("keeps first seen group order", func(t *testing.T) {
		data, err := json.Marshal(s.Wrap(testSeries(t, 4)))
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(data, []byte(`{"groups":{"electronics":[`)), string(data[:40]))
	})
}

func TestMetadataPrefix(t *testing.T) {
	s, _ := Lookup(6)
	st, _ := AsStreamable(s)

	doc := decode(t, streamDocument(t, st, testSeries(t, 2))).(map[string]any)
	meta := doc["metadata"].(map[string]any)
	assert.EqualValues(t, 0, meta["record_count"])

	series := testSeries(t, 2)
	wrapped := roundTrip(t, s.Wrap(series)).(map[string]any)
	assert.EqualValues(t, len(series), wrapped["metadata"].(map[string]any)["record_count"])
}

func TestPaginatedCounts(t *testing.T) {
	s, _ := Lookup(7)
	st, _ := AsStreamable(s)

	for _, count := range []int{0, 1, 37} {
		suffix, err := st.Suffix(count)
		require.NoError(t, err)

		var items []string
		for i := 0; i < count; i++ {
			items = append(items, "{}")
		}
		doc := decode(t, []byte(string(st.Prefix())+strings.Join(items, ",")+string(suffix))).(map[string]any)

		meta := doc["meta"].(map[string]any)
		assert.EqualValues(t, count, meta["total"])
		assert.EqualValues(t, count, meta["per_page"])
		assert.EqualValues(t, count, meta["to"])
		if count == 0 {
			assert.Nil(t, meta["from"])
		} else {
			assert.EqualValues(t, 1, meta["from"])
		}
		assert.Nil(t, doc["links"].(map[string]any)["next"])
	}

	series := testSeries(t, 3)
	wrapped := roundTrip(t, s.Wrap(series)).(map[string]any)
	assert.EqualValues(t, len(series), wrapped["meta"].(map[string]any)["total"])
}

func TestDeepNestedSuffix(t *testing.T) {
	s, _ := Lookup(9)
	st, _ := AsStreamable(s)

	series := testSeries(t, 3)
	doc := decode(t, streamDocument(t, st, series)).(map[string]any)
	response := doc["api"].(map[string]any)["response"].(map[string]any)
	assert.EqualValues(t, len(series), response["metadata"].(map[string]any)["record_count"])
}

func TestWrapEmptySeries(t *testing.T) {
	for _, s := range All() {
		data, err := json.Marshal(s.Wrap(nil))
		require.NoError(t, err)
		assert.NotEqual(t, "null", string(data), "shape %d", s.ID())
		decode(t, data)
	}
}
