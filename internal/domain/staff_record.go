package domain

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// ErrNameRequired is returned when a staff record has no name.
var ErrNameRequired = errors.New("nome is required")

// FieldError reports a value whose type does not fit its column.
type FieldError struct {
	Field string
	Value any
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("invalid value for %s: %v", e.Field, e.Value)
}

// StaffRecord is one row of a staff table. Counters holds every counter of the
// record's tier.
type StaffRecord struct {
	ID        int64
	Name      string
	Role      string
	Status    string
	DiscordID string
	Prize     *string
	Counters  map[string]int64
}

// MarshalJSON flattens the record into the column-named object the dashboard reads.
func (r StaffRecord) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Counters)+6)
	out["id"] = r.ID
	out[ColName] = r.Name
	out[ColRole] = r.Role
	out[ColStatus] = r.Status
	out[ColDiscordID] = r.DiscordID
	if r.Prize != nil {
		out[ColPrize] = *r.Prize
	}
	for name, v := range r.Counters {
		out[name] = v
	}
	return json.Marshal(out)
}

// Value returns the stored value of a writable column.
func (r StaffRecord) Value(col Column) any {
	switch col.Name {
	case ColName:
		return r.Name
	case ColRole:
		return r.Role
	case ColStatus:
		return r.Status
	case ColDiscordID:
		return r.DiscordID
	case ColPrize:
		if r.Prize == nil {
			return DefaultPrize
		}
		return *r.Prize
	}
	return r.Counters[col.Name]
}

// Values returns the record's values in t.Columns() order.
func (r StaffRecord) Values(t Tier) []any {
	cols := t.Columns()
	values := make([]any, 0, len(cols))
	for _, col := range cols {
		values = append(values, r.Value(col))
	}
	return values
}

// NewRecord builds a record from a decoded request body. Empty text fields and
// missing counters take the tier defaults; fields outside the tier are ignored.
func (t Tier) NewRecord(input map[string]any) (StaffRecord, error) {
	rec := StaffRecord{Counters: make(map[string]int64, len(t.Counters))}

	for _, col := range t.Columns() {
		raw, present := input[col.Name]
		if !present || raw == nil {
			continue
		}
		v, err := col.Coerce(raw)
		if err != nil {
			return StaffRecord{}, err
		}
		switch col.Name {
		case ColName:
			rec.Name = strings.TrimSpace(v.(string))
		case ColRole:
			rec.Role = v.(string)
		case ColStatus:
			rec.Status = v.(string)
		case ColDiscordID:
			rec.DiscordID = v.(string)
		case ColPrize:
			prize := v.(string)
			rec.Prize = &prize
		default:
			rec.Counters[col.Name] = v.(int64)
		}
	}

	if rec.Name == "" {
		return StaffRecord{}, ErrNameRequired
	}
	t.applyDefaults(&rec)
	return rec, nil
}

// RecordFromExport is NewRecord plus the optional id carried by export documents.
func (t Tier) RecordFromExport(input map[string]any) (StaffRecord, error) {
	rec, err := t.NewRecord(input)
	if err != nil {
		return StaffRecord{}, err
	}
	if raw, ok := input["id"]; ok && raw != nil {
		id, err := coerceInt("id", raw)
		if err != nil {
			return StaffRecord{}, err
		}
		if id > 0 {
			rec.ID = id
		}
	}
	return rec, nil
}

func (t Tier) applyDefaults(rec *StaffRecord) {
	if rec.Role == "" {
		rec.Role = t.Code
	}
	if rec.Status == "" {
		rec.Status = DefaultStatus
	}
	if t.HasPrize {
		if rec.Prize == nil || *rec.Prize == "" {
			prize := DefaultPrize
			rec.Prize = &prize
		}
	} else {
		rec.Prize = nil
	}
	for _, name := range t.Counters {
		if _, ok := rec.Counters[name]; !ok {
			rec.Counters[name] = 0
		}
	}
}

// ColumnValue is one filtered assignment of a partial update.
type ColumnValue struct {
	Column string
	Value  any
}

// FilterPatch keeps the allow-listed fields of input, in column order, with
// values converted to their column type. Unknown fields are dropped.
func FilterPatch(columns []Column, input map[string]any) ([]ColumnValue, error) {
	updates := make([]ColumnValue, 0, len(input))
	for _, col := range columns {
		raw, present := input[col.Name]
		if !present {
			continue
		}
		v, err := col.Coerce(raw)
		if err != nil {
			return nil, err
		}
		if col.Name == ColName {
			v = strings.TrimSpace(v.(string))
			if v == "" {
				return nil, ErrNameRequired
			}
		}
		updates = append(updates, ColumnValue{Column: col.Name, Value: v})
	}
	return updates, nil
}

// Coerce converts a decoded JSON value to the column's Go type.
func (c Column) Coerce(raw any) (any, error) {
	if c.Kind == ColumnInt {
		return coerceInt(c.Name, raw)
	}
	switch v := raw.(type) {
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	}
	return nil, &FieldError{Field: c.Name, Value: raw}
}

func coerceInt(field string, raw any) (int64, error) {
	switch v := raw.(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n, nil
		}
		if f, err := v.Float64(); err == nil && f == math.Trunc(f) && math.Abs(f) < math.MaxInt64 {
			return int64(f), nil
		}
	case float64:
		if v == math.Trunc(v) && math.Abs(v) < math.MaxInt64 {
			return int64(v), nil
		}
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case string:
		if s := strings.TrimSpace(v); s == "" {
			return 0, nil
		} else if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, &FieldError{Field: field, Value: raw}
}
