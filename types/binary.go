package types

import (
	"bytes"
	"database/sql/driver"
	"encoding/hex"
	"encoding/json"
)

// Binary is like []byte, but marshals itself as a lowercase hex string in JSON instead of base64,
// and treats a nil or empty slice as invalid/absent rather than as the empty string.
type Binary []byte

// Valid returns whether b is non-empty.
func (b Binary) Valid() bool {
	return len(b) > 0
}

// String returns the lowercase hex encoding of b, or the empty string if b is nil or empty.
func (b Binary) String() string {
	if len(b) == 0 {
		return ""
	}

	return hex.EncodeToString(b)
}

// MarshalJSON implements json.Marshaler.
func (b Binary) MarshalJSON() ([]byte, error) {
	if len(b) == 0 {
		return []byte("null"), nil
	}

	return json.Marshal(b.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (b *Binary) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*b = nil
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	decoded, err := hex.DecodeString(s)
	if err != nil {
		return err
	}

	*b = decoded

	return nil
}

// Value implements driver.Valuer.
func (b Binary) Value() (driver.Value, error) {
	if len(b) == 0 {
		return nil, nil
	}

	return []byte(b), nil
}

// Scan implements sql.Scanner.
func (b *Binary) Scan(src interface{}) error {
	if src == nil {
		*b = nil
		return nil
	}

	switch v := src.(type) {
	case []byte:
		*b = bytes.Clone(v)
	case string:
		*b = Binary(v)
	default:
		*b = nil
	}

	return nil
}

// Assert interface compliance.
var (
	_ driver.Valuer = Binary(nil)
)
