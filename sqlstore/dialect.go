package sqlstore

import (
	"fmt"
	"strings"
)

// Dialect distinguishes the two database backends a Store can drive.
type Dialect int

const (
	// MySQL drives go-sql-driver/mysql, using "?" placeholders.
	MySQL Dialect = iota
	// QL drives the embedded cznic/ql database, using "?1"-style
	// positional placeholders.
	QL
)

// ph returns the n placeholders (1-indexed) appropriate to d, comma
// joined, e.g. ph(MySQL, 3) == "?, ?, ?" and ph(QL, 3) == "?1, ?2, ?3".
func (d Dialect) ph(n int) string {
	parts := make([]string, n)
	for i := 0; i < n; i++ {
		parts[i] = d.p(i + 1)
	}
	return strings.Join(parts, ", ")
}

// p returns the single placeholder for 1-indexed position i.
func (d Dialect) p(i int) string {
	if d == QL {
		return fmt.Sprintf("?%d", i)
	}
	return "?"
}

// inClause returns a "column IN (p1, p2, ...)" fragment, or "1=0" for an empty
// slice since SQL forbids an empty IN list.
func (d Dialect) inClause(column string, count, startAt int) string {
	if count == 0 {
		return "1=0"
	}
	parts := make([]string, count)
	for i := 0; i < count; i++ {
		parts[i] = d.p(startAt + i)
	}
	return column + " IN (" + strings.Join(parts, ", ") + ")"
}
