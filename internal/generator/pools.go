// Package generator synthesizes records from fixed value pools and assembles
// them into series sized to a byte budget.
package generator

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"datagen/common"
)

const (
	decimalTableSize   = 1000
	timestampPoolSize  = 100
	descriptionPoolLen = 100
	userPoolSize       = 10

	// TimestampLayout is the ISO-8601 form used for string_timestamp.
	TimestampLayout = "2006-01-02T15:04:05.000Z"
)

var (
	names = []string{
		`Alice "Al" Johnson`,
		"Bob O'Brien",
		"Carlos Muñoz",
		"Dana\tTabbed",
		"Émilie Dubois",
		"Frank <Admin> & Co.",
		"Grace\nNewline",
		"Hiro 田中",
		"Ivan Petrov, Jr.",
		"Jade \\ Backslash",
		"Kai 🚀 Rocket",
		"Lena Schäfer",
		"Mike /slash/",
		"Nora \"Quote\" Lee",
		"Omar Al-Farsi",
		"Priya Ñandú",
		"Quinn {brace}",
		"Rosa\r\nCRLF",
		"Sam [bracket]",
		"Tara\u0001Ctrl",
	}

	remarks = []string{
		"",
		"First contact",
		"Needs review",
		"",
		"Escalated: see ticket #42",
		"Customer said \"thanks!\"",
		"",
		"Follow-up in 3 days",
		"Ünïcödé remark",
		"Line one\nLine two",
		"",
		"Priority <high>",
		"Duplicate of #17",
		"50% discount applied",
		"",
		"Path C:\\temp\\file",
		"Awaiting payment",
		"✓ verified",
		"",
		"Tab\tseparated",
	}

	categories = []string{"electronics", "books", "clothing", "home", "sports"}
	cities     = []string{"New York", "London", "Tokyo", "São Paulo", "Zürich"}
	statuses   = []string{"active", "pending", "suspended", "archived"}
	tagSets    = [][]string{
		{"new"},
		{"sale", "featured"},
		{"limited", "exclusive", "gift"},
		{"clearance", "bundle", "eco", "imported"},
	}

	descriptionBodies = []string{
		"Lorem ipsum dolor sit amet, consectetur adipiscing elit, sed do eiusmod tempor incididunt ut labore et dolore magna aliqua.",
		"Ut enim ad minim veniam, quis nostrud exercitation ullamco laboris nisi ut aliquip ex ea commodo consequat, duis aute irure.",
		"Excepteur sint occaecat cupidatat non proident, sunt in culpa qui officia deserunt mollit anim id est laborum et dolorum.",
		"Sed ut perspiciatis unde omnis iste natus error sit voluptatem accusantium doloremque laudantium, totam rem aperiam eaque.",
		"Nemo enim ipsam voluptatem quia voluptas sit aspernatur aut odit aut fugit, sed quia consequuntur magni dolores eos qui.",
	}
)

// Pools holds the read-only reference data records are derived from. It is
// built once at service construction and shared by every request.
type Pools struct {
	Names        []string
	Remarks      []string
	Categories   []string
	Cities       []string
	Statuses     []string
	TagSets      [][]string
	Timestamps   []string
	Descriptions []string
	Users        []string
	Amounts      []common.Decimal
	Rates        []common.Decimal
}

// NewPools builds the value pools. Timestamps are a one-time draw from rng
// spread over the year preceding now, so deterministic output is stable for
// the lifetime of one Pools value only. A nil rng is seeded from now.
func NewPools(now time.Time, rng *rand.Rand) *Pools {
	if rng == nil {
		seed := uint64(now.UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>17|1))
	}

	p := &Pools{
		Names:      names,
		Remarks:    remarks,
		Categories: categories,
		Cities:     cities,
		Statuses:   statuses,
		TagSets:    tagSets,
	}

	p.Timestamps = make([]string, timestampPoolSize)
	for i := range p.Timestamps {
		offset := time.Duration(rng.Int64N(int64(365 * 24 * time.Hour)))
		p.Timestamps[i] = now.Add(-offset).UTC().Format(TimestampLayout)
	}

	p.Descriptions = make([]string, descriptionPoolLen)
	for i := range p.Descriptions {
		p.Descriptions[i] = fmt.Sprintf("Item %03d: %s", i, descriptionBodies[i%len(descriptionBodies)])
	}

	p.Users = make([]string, userPoolSize)
	for i := range p.Users {
		p.Users[i] = fmt.Sprintf("user_%03d", i+1)
	}

	p.Amounts = make([]common.Decimal, decimalTableSize)
	p.Rates = make([]common.Decimal, decimalTableSize)
	for i := 0; i < decimalTableSize; i++ {
		p.Amounts[i] = cents(math.Mod(float64(i)*1234.56, 10000))
		p.Rates[i] = cents(math.Mod(float64(i)*0.37, 100))
	}

	return p
}

func cents(v float64) common.Decimal {
	return common.Decimal(math.Round(v*100) / 100)
}
