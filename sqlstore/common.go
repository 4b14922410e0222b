package sqlstore

import (
	"database/sql"
	"encoding/json"
)

func toNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func fromNullString(n sql.NullString) *string {
	if !n.Valid {
		return nil
	}
	s := n.String
	return &s
}

func toNullInt64(i *int) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*i), Valid: true}
}

func fromNullInt64(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func encodeAttrs(attrs map[string]interface{}) (sql.NullString, error) {
	if attrs == nil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(attrs)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func decodeAttrs(n sql.NullString) (map[string]interface{}, error) {
	if !n.Valid {
		return nil, nil
	}
	var attrs map[string]interface{}
	if err := json.Unmarshal([]byte(n.String), &attrs); err != nil {
		return nil, err
	}
	return attrs, nil
}
