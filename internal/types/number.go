package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Number is a JSON number that the upstream parser may emit as a bare
// number, a quoted numeric string, or null. Scribe blocks are inconsistent
// about this, so every count or credit field in a parse tree uses *Number.
type Number float64

// UnmarshalJSON accepts 3, "3", "3.0", and null.
func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("numeric string %q: %w", s, err)
		}
		*n = Number(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*n = Number(f)
	return nil
}

// MarshalJSON renders the number without a trailing ".0" for integral
// values, matching the source trees.
func (n Number) MarshalJSON() ([]byte, error) {
	f := float64(n)
	if f == float64(int64(f)) {
		return []byte(strconv.FormatInt(int64(f), 10)), nil
	}
	return []byte(strconv.FormatFloat(f, 'f', -1, 64)), nil
}

// Int truncates to int.
func (n *Number) Int() int {
	if n == nil {
		return 0
	}
	return int(*n)
}

// Float returns the value, or 0 for nil.
func (n *Number) Float() float64 {
	if n == nil {
		return 0
	}
	return float64(*n)
}
