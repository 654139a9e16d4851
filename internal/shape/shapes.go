package shape

import (
	"bytes"
	"fmt"

	"datagen/common"

	"github.com/guregu/null/v5"
	json "github.com/json-iterator/go"
)

func init() {
	register(bareArray{base{1, "$[*]", "Bare array of record objects"}})
	register(dataEnvelope{base{2, "$.data[*]", "Object with the records under a data key"}})
	register(raceEntries{base{3, "$.race.entries[*]", "Records nested two levels deep under race.entries"}})
	register(positionalRows{base{4, "$[*]", "Array of value rows without field names, in canonical field order"}})
	register(columnar{base{5, "$.int_id", "Columnar object with one array per field, transposed across the series"}})
	register(withMetadata{base{6, "$.data[*]", "Records under data, preceded by a metadata object"}})
	register(paginated{base{7, "$.data[*]", "Paginated response with data, links and meta"}})
	register(grouped{base{8, "$.groups.*[*]", "Records grouped by a categorical field, with a summary"}})
	register(deepNested{base{9, "$.api.response.payload.records[*]", "Records nested under api.response.payload with response metadata"}})
}

type base struct {
	id   int
	path string
	desc string
}

func (b base) ID() int             { return b.id }
func (b base) JSONPath() string    { return b.path }
func (b base) Description() string { return b.desc }

// Item emits records unchanged; positional shapes override it.
func (b base) Item(r common.Record) any { return r }

func nonNil(series common.Series) common.Series {
	if series == nil {
		return common.Series{}
	}
	return series
}

// 1: [ ... ]
type bareArray struct{ base }

func (bareArray) Wrap(series common.Series) any { return nonNil(series) }
func (bareArray) Prefix() []byte                { return []byte("[") }
func (bareArray) Suffix(int) ([]byte, error)    { return []byte("]"), nil }

// 2: {"data":[ ... ]}
type dataEnvelope struct{ base }

type dataDocument struct {
	Data common.Series `json:"data"`
}

func (dataEnvelope) Wrap(series common.Series) any { return dataDocument{Data: nonNil(series)} }
func (dataEnvelope) Prefix() []byte                { return []byte(`{"data":[`) }
func (dataEnvelope) Suffix(int) ([]byte, error)    { return []byte("]}"), nil }

// 3: {"race":{"entries":[ ... ]}}
type raceEntries struct{ base }

type raceDocument struct {
	Race struct {
		Entries common.Series `json:"entries"`
	} `json:"race"`
}

func (raceEntries) Wrap(series common.Series) any {
	var doc raceDocument
	doc.Race.Entries = nonNil(series)
	return doc
}
func (raceEntries) Prefix() []byte             { return []byte(`{"race":{"entries":[`) }
func (raceEntries) Suffix(int) ([]byte, error) { return []byte("]}}"), nil }

// 4: [[v1, v2, ...], ...]
type positionalRows struct{ base }

func (positionalRows) Wrap(series common.Series) any {
	rows := make([][]any, len(series))
	for i, r := range series {
		rows[i] = r.Values()
	}
	return rows
}
func (positionalRows) Prefix() []byte             { return []byte("[") }
func (positionalRows) Suffix(int) ([]byte, error) { return []byte("]"), nil }
func (positionalRows) Item(r common.Record) any   { return r.Values() }

// 5: {"int_id":[...], "string_name":[...], ...}
type columnar struct{ base }

type columnarDocument struct {
	IntID             []int                   `json:"int_id"`
	StringName        []string                `json:"string_name"`
	DecimalAmount     []common.Decimal        `json:"decimal_amount"`
	BoolActive        []bool                  `json:"bool_active"`
	StringRemark      []string                `json:"string_remark"`
	StringCategory    []string                `json:"string_category"`
	StringTimestamp   []string                `json:"string_timestamp"`
	IntCount          []int                   `json:"int_count"`
	DecimalRate       []common.Decimal        `json:"decimal_rate"`
	StringStatus      []string                `json:"string_status"`
	ObjectMetadata    []common.RecordMetadata `json:"object_metadata"`
	ArrayTags         [][]string              `json:"array_tags"`
	StringLocation    []string                `json:"string_location"`
	StringDescription []string                `json:"string_description"`
}

func (columnar) Wrap(series common.Series) any {
	n := len(series)
	doc := columnarDocument{
		IntID:             make([]int, n),
		StringName:        make([]string, n),
		DecimalAmount:     make([]common.Decimal, n),
		BoolActive:        make([]bool, n),
		StringRemark:      make([]string, n),
		StringCategory:    make([]string, n),
		StringTimestamp:   make([]string, n),
		IntCount:          make([]int, n),
		DecimalRate:       make([]common.Decimal, n),
		StringStatus:      make([]string, n),
		ObjectMetadata:    make([]common.RecordMetadata, n),
		ArrayTags:         make([][]string, n),
		StringLocation:    make([]string, n),
		StringDescription: make([]string, n),
	}
	for i, r := range series {
		doc.IntID[i] = r.IntID
		doc.StringName[i] = r.StringName
		doc.DecimalAmount[i] = r.DecimalAmount
		doc.BoolActive[i] = r.BoolActive
		doc.StringRemark[i] = r.StringRemark
		doc.StringCategory[i] = r.StringCategory
		doc.StringTimestamp[i] = r.StringTimestamp
		doc.IntCount[i] = r.IntCount
		doc.DecimalRate[i] = r.DecimalRate
		doc.StringStatus[i] = r.StringStatus
		doc.ObjectMetadata[i] = r.ObjectMetadata
		doc.ArrayTags[i] = r.ArrayTags
		doc.StringLocation[i] = r.StringLocation
		doc.StringDescription[i] = r.StringDescription
	}
	return doc
}

// 6: {"metadata":{...},"data":[ ... ]}
type withMetadata struct{ base }

type documentMetadata struct {
	Source        string   `json:"source"`
	SchemaVersion string   `json:"schema_version"`
	Fields        []string `json:"fields"`
	RecordCount   int      `json:"record_count"`
}

type metadataDocument struct {
	Metadata documentMetadata `json:"metadata"`
	Data     common.Series    `json:"data"`
}

func newDocumentMetadata(count int) documentMetadata {
	return documentMetadata{
		Source:        "synthetic",
		SchemaVersion: "1.0",
		Fields:        common.FieldNames,
		RecordCount:   count,
	}
}

func (withMetadata) Wrap(series common.Series) any {
	return metadataDocument{Metadata: newDocumentMetadata(len(series)), Data: nonNil(series)}
}

// Prefix carries a record_count of 0: the final count is unknown when the
// prefix is written.
func (withMetadata) Prefix() []byte {
	meta, err := json.Marshal(newDocumentMetadata(0))
	if err != nil {
		panic(fmt.Sprintf("shape 6 metadata: %v", err))
	}
	var buf bytes.Buffer
	buf.WriteString(`{"metadata":`)
	buf.Write(meta)
	buf.WriteString(`,"data":[`)
	return buf.Bytes()
}
func (withMetadata) Suffix(int) ([]byte, error) { return []byte("]}"), nil }

// 7: {"data":[ ... ],"links":{...},"meta":{...}}
type paginated struct{ base }

type pageLinks struct {
	First string      `json:"first"`
	Last  string      `json:"last"`
	Prev  null.String `json:"prev"`
	Next  null.String `json:"next"`
}

type pageMeta struct {
	CurrentPage int      `json:"current_page"`
	From        null.Int `json:"from"`
	LastPage    int      `json:"last_page"`
	PerPage     int      `json:"per_page"`
	To          int      `json:"to"`
	Total       int      `json:"total"`
}

type paginatedDocument struct {
	Data  common.Series `json:"data"`
	Links pageLinks     `json:"links"`
	Meta  pageMeta      `json:"meta"`
}

func newPage(count int) (pageLinks, pageMeta) {
	links := pageLinks{First: "?page=1", Last: "?page=1"}
	meta := pageMeta{
		CurrentPage: 1,
		LastPage:    1,
		PerPage:     count,
		To:          count,
		Total:       count,
	}
	if count > 0 {
		meta.From = null.IntFrom(1)
	}
	return links, meta
}

func (paginated) Wrap(series common.Series) any {
	links, meta := newPage(len(series))
	return paginatedDocument{Data: nonNil(series), Links: links, Meta: meta}
}
func (paginated) Prefix() []byte { return []byte(`{"data":[`) }

// Suffix reports count as per_page, to and total.
func (paginated) Suffix(count int) ([]byte, error) {
	links, meta := newPage(count)
	encodedLinks, err := json.Marshal(links)
	if err != nil {
		return nil, fmt.Errorf("failed to encode links: %w", err)
	}
	encodedMeta, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("failed to encode meta: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(`],"links":`)
	buf.Write(encodedLinks)
	buf.WriteString(`,"meta":`)
	buf.Write(encodedMeta)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// 8: {"groups":{"<key>":[ ... ]},"summary":{...}}
type grouped struct{ base }

const syntheticGroupSize = 10

type groupSummary struct {
	TotalRecords int    `json:"total_records"`
	GroupCount   int    `json:"group_count"`
	GroupedBy    string `json:"grouped_by"`
}

type groupedDocument struct {
	Groups  *groupSet    `json:"groups"`
	Summary groupSummary `json:"summary"`
}

// groupSet keeps groups in first-seen order.
type groupSet struct {
	keys    []string
	members map[string]common.Series
}

func (g *groupSet) add(key string, r common.Record) {
	if _, ok := g.members[key]; !ok {
		g.keys = append(g.keys, key)
	}
	g.members[key] = append(g.members[key], r)
}

func (g *groupSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range g.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(g.members[key])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// groupingField picks the first categorical field populated on every record.
func groupingField(series common.Series) (string, func(int, common.Record) string) {
	candidates := []struct {
		name string
		get  func(common.Record) string
	}{
		{"string_category", func(r common.Record) string { return r.StringCategory }},
		{"string_location", func(r common.Record) string { return r.StringLocation }},
		{"string_status", func(r common.Record) string { return r.StringStatus }},
	}

	for _, c := range candidates {
		complete := true
		for _, r := range series {
			if c.get(r) == "" {
				complete = false
				break
			}
		}
		if complete {
			get := c.get
			return c.name, func(_ int, r common.Record) string { return get(r) }
		}
	}

	return "group", func(i int, _ common.Record) string {
		return fmt.Sprintf("group_%d", i/syntheticGroupSize)
	}
}

func (grouped) Wrap(series common.Series) any {
	field, key := groupingField(series)
	groups := &groupSet{members: make(map[string]common.Series)}
	for i, r := range series {
		groups.add(key(i, r), r)
	}
	return groupedDocument{
		Groups: groups,
		Summary: groupSummary{
			TotalRecords: len(series),
			GroupCount:   len(groups.keys),
			GroupedBy:    field,
		},
	}
}

// 9: {"api":{"response":{"payload":{"records":[ ... ]},"metadata":{...}}}}
type deepNested struct{ base }

type responseMetadata struct {
	RecordCount int    `json:"record_count"`
	Status      string `json:"status"`
}

type nestedDocument struct {
	API struct {
		Response struct {
			Payload struct {
				Records common.Series `json:"records"`
			} `json:"payload"`
			Metadata responseMetadata `json:"metadata"`
		} `json:"response"`
	} `json:"api"`
}

func (deepNested) Wrap(series common.Series) any {
	var doc nestedDocument
	doc.API.Response.Payload.Records = nonNil(series)
	doc.API.Response.Metadata = responseMetadata{RecordCount: len(series), Status: "success"}
	return doc
}
func (deepNested) Prefix() []byte { return []byte(`{"api":{"response":{"payload":{"records":[`) }

func (deepNested) Suffix(count int) ([]byte, error) {
	meta, err := json.Marshal(responseMetadata{RecordCount: count, Status: "success"})
	if err != nil {
		return nil, fmt.Errorf("failed to encode response metadata: %w", err)
	}
	var buf bytes.Buffer
	buf.WriteString(`]},"metadata":`)
	buf.Write(meta)
	buf.WriteString("}}}")
	return buf.Bytes(), nil
}
