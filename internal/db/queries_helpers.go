package db

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/chris/mira/internal/model"
)

var allowedColumns = map[string]map[string]bool{
	"user_state": {
		"current_phase": true, "capacity_score": true, "is_shutdown": true, "morning_anchors": true,
		"vision_line": true, "last_active_date": true, "last_goals_date": true, "last_reflection_date": true,
		"last_interaction": true, "low_capacity_streak": true, "last_energy_level": true, "phase_override": true,
	},
	"conversations": {"title": true},
}

// updateRow is a generic helper for updating a row's fields.
func (d *DB) updateRow(ctx context.Context, table, keyCol string, key int64, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	allowed, ok := allowedColumns[table]
	if !ok {
		return fmt.Errorf("unknown table: %s", table)
	}
	var setClauses []string
	var args []any
	for col, val := range fields {
		if !allowed[col] {
			return fmt.Errorf("disallowed column %q for table %s", col, table)
		}
		setClauses = append(setClauses, col+" = ?")
		args = append(args, val)
	}
	setClauses = append(setClauses, "updated_at = datetime('now')")
	args = append(args, key)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?", table, strings.Join(setClauses, ", "), keyCol)
	res, err := d.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return storageErr(fmt.Sprintf("updating %s %d", table, key), err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%s %d: %w", table, key, model.ErrNotFoundOrAccessDenied)
	}
	return nil
}

// storageErr tags a driver failure with the storage sentinel so callers can
// tell "store down" apart from "row absent".
func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, model.ErrStorageUnavailable, err)
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func nullStr(s string) any {
	if s == "" || s == "null" {
		return nil
	}
	return s
}

func encodeList(items []string) string {
	if items == nil {
		items = []string{}
	}
	b, _ := json.Marshal(items) // []string marshal cannot fail
	return string(b)
}

// decodeList reads a JSON string array column. Anything that is not a valid
// array decodes to an empty list.
func decodeList(raw string) []string {
	out := []string{}
	if raw == "" || !gjson.Valid(raw) {
		return out
	}
	res := gjson.Parse(raw)
	if !res.IsArray() {
		return out
	}
	for _, item := range res.Array() {
		out = append(out, item.String())
	}
	return out
}
