package vars

import (
	"github.com/sugawarayuuta/sonnet"
)

// encode and decode pin down the wire representation of stored values.
// Round-tripping through JSON normalizes numbers to float64, so both
// backends apply it and a variable reads back identically regardless of
// the backend.

func encode(value any) ([]byte, error) {
	return sonnet.Marshal(value)
}

func decode(raw []byte) (any, error) {
	var v any
	if err := sonnet.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}
