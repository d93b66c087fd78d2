package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Money is an amount in minor currency units. The backend serialises
// NUMERIC columns as strings ("1500.00"), so decoding accepts both forms.
type Money int64

func (m *Money) UnmarshalJSON(data []byte) error {
	f, ok, err := decodeNumber(data)
	if err != nil {
		return fmt.Errorf("money: %w", err)
	}
	if !ok {
		*m = 0
		return nil
	}
	*m = Money(math.Round(f))
	return nil
}

// Decimal is a float that may arrive as a JSON string.
type Decimal float64

func (d *Decimal) UnmarshalJSON(data []byte) error {
	f, ok, err := decodeNumber(data)
	if err != nil {
		return fmt.Errorf("decimal: %w", err)
	}
	if !ok {
		*d = 0
		return nil
	}
	*d = Decimal(f)
	return nil
}

func decodeNumber(data []byte) (float64, bool, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return 0, false, nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return 0, false, err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return 0, false, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false, err
		}
		return f, true, nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return 0, false, err
	}
	return f, true, nil
}
