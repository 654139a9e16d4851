package common

import "strconv"

// FieldNames lists the record fields in canonical order. Positional shapes
// rely on this order.
var FieldNames = []string{
	"int_id",
	"string_name",
	"decimal_amount",
	"bool_active",
	"string_remark",
	"string_category",
	"string_timestamp",
	"int_count",
	"decimal_rate",
	"string_status",
	"object_metadata",
	"array_tags",
	"string_location",
	"string_description",
}

// Decimal is a float serialized with exactly two fraction digits.
type Decimal float64

// MarshalJSON writes the value as a JSON number such as 12.50
func (d Decimal) MarshalJSON() ([]byte, error) {
	return strconv.AppendFloat(nil, float64(d), 'f', 2, 64), nil
}

// RecordMetadata is the nested object carried by every record.
type RecordMetadata struct {
	CreatedBy string `json:"created_by"`
	Priority  int    `json:"priority"`
	Verified  bool   `json:"verified"`
}

// Record is one synthetic row. Field declaration order matches FieldNames.
type Record struct {
	IntID             int            `json:"int_id"`
	StringName        string         `json:"string_name"`
	DecimalAmount     Decimal        `json:"decimal_amount"`
	BoolActive        bool           `json:"bool_active"`
	StringRemark      string         `json:"string_remark"`
	StringCategory    string         `json:"string_category"`
	StringTimestamp   string         `json:"string_timestamp"`
	IntCount          int            `json:"int_count"`
	DecimalRate       Decimal        `json:"decimal_rate"`
	StringStatus      string         `json:"string_status"`
	ObjectMetadata    RecordMetadata `json:"object_metadata"`
	ArrayTags         []string       `json:"array_tags"`
	StringLocation    string         `json:"string_location"`
	StringDescription string         `json:"string_description"`
}

// Values flattens the record into a positional row following FieldNames.
func (r Record) Values() []any {
	return []any{
		r.IntID,
		r.StringName,
		r.DecimalAmount,
		r.BoolActive,
		r.StringRemark,
		r.StringCategory,
		r.StringTimestamp,
		r.IntCount,
		r.DecimalRate,
		r.StringStatus,
		r.ObjectMetadata,
		r.ArrayTags,
		r.StringLocation,
		r.StringDescription,
	}
}

// Series is an ordered run of records produced for a single request.
type Series []Record

// Mode selects how record values are produced.
type Mode int

const (
	// Deterministic derives every field from the record index.
	Deterministic Mode = iota
	// Random draws every field independently at call time.
	Random
)

func (m Mode) String() string {
	if m == Random {
		return "random"
	}
	return "deterministic"
}
