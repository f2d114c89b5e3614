package seeder

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"skill-journal/internal/database"
)

var ErrSchemaMismatch = errors.New("schema mismatch")

// Schema lists the columns each table must have before seeding.
type Schema map[string][]string

// DocumentsSchema is what the journal seeders write through.
var DocumentsSchema = Schema{"documents": {"collection", "id", "data", "created_at"}}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// CheckSchema reports every missing column at once, so seeding an unmigrated
// database stops before the first write.
func CheckSchema(ctx context.Context, db database.Querier, want Schema) error {
	if db == nil {
		return errors.New("nil db")
	}
	tables := make([]string, 0, len(want))
	for t := range want {
		tables = append(tables, t)
	}
	if len(tables) == 0 {
		return nil
	}
	sort.Strings(tables)

	query, args, err := psql.Select("table_name", "column_name").
		From("information_schema.columns").
		Where(sq.Eq{"table_schema": "public"}).
		Where(sq.Eq{"table_name": tables}).
		ToSql()
	if err != nil {
		return err
	}
	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	have := make(map[string]struct{})
	for rows.Next() {
		var table, column string
		if err := rows.Scan(&table, &column); err != nil {
			return err
		}
		have[table+"."+column] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	var missing []string
	for _, t := range tables {
		for _, col := range want[t] {
			if _, ok := have[t+"."+col]; !ok {
				missing = append(missing, t+"."+col)
			}
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrSchemaMismatch, strings.Join(missing, ", "))
	}
	return nil
}
