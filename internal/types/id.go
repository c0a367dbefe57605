package types

import (
	"bytes"
	"encoding/json"

	"nexus/internal/ident"
)

// ID is an identifier in canonical form. It decodes from either a JSON string
// or a JSON array of 16 byte values.
type ID string

func (id ID) String() string {
	return string(id)
}

func (id ID) IsZero() bool {
	return id == ""
}

func (id *ID) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*id = ""
		return nil
	}
	var raw any
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return err
	}
	canonical, err := ident.Canonical(raw)
	if err != nil {
		return err
	}
	*id = ID(canonical)
	return nil
}
