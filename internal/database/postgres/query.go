package postgres

import (
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/kozaktomas/band-gallery/internal/database"
)

// whereBuilder collects AND-ed predicates with positional arguments.
type whereBuilder struct {
	clauses []string
	args    []any
}

// arg appends a value and returns its placeholder.
func (b *whereBuilder) arg(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

// add appends a predicate; every %s in clause is replaced by the placeholder of v.
func (b *whereBuilder) add(clause string, v any) {
	b.clauses = append(b.clauses, strings.ReplaceAll(clause, "%s", b.arg(v)))
}

// addRaw appends a predicate without arguments.
func (b *whereBuilder) addRaw(clause string) {
	b.clauses = append(b.clauses, clause)
}

// sql renders the predicates, or TRUE when there are none.
func (b *whereBuilder) sql() string {
	if len(b.clauses) == 0 {
		return "TRUE"
	}
	return strings.Join(b.clauses, " AND ")
}

// photoFilter adds the predicates of a gallery filter over photos aliased as p.
func (b *whereBuilder) photoFilter(f database.PhotoFilter) {
	if f.EventID != "" {
		b.add("p.event_id = %s", f.EventID)
	}
	if f.BandID != "" {
		b.add("p.band_id = %s", f.BandID)
	}
	if f.CompanySlug != "" {
		b.add(`p.band_id IN (
			SELECT fb.id FROM bands fb JOIN companies fc ON fc.id = fb.company_id WHERE fc.slug = %s
		)`, f.CompanySlug)
	}
	if f.Photographer != "" {
		b.add("lower(p.photographer) = lower(%s)", f.Photographer)
	}
	if f.UnmatchedOnly {
		b.addRaw("p.band_id IS NULL")
	}
}

// exclude removes ids from the photo set.
func (b *whereBuilder) exclude(ids []string) {
	if len(ids) == 0 {
		return
	}
	b.add("NOT (p.id = ANY(%s))", pq.Array(ids))
}

// orderBy renders the ORDER BY expression of a photo ordering.
// The shuffled key is md5(seed || id) compared bytewise, matching shuffle.OrderKey.
func (b *whereBuilder) orderBy(o database.PhotoOrder) string {
	if o.Shuffled {
		seed := b.arg(o.Seed)
		return fmt.Sprintf(`md5(%s::text || p.id) COLLATE "C", p.id COLLATE "C"`, seed)
	}
	return `p.captured_at DESC NULLS LAST, p.uploaded_at DESC, p.id COLLATE "C" DESC`
}
