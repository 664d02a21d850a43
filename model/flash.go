package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Custom serializer for the one-shot notice list carried by a session

const (
	FlashSuccess = "success"
	FlashError   = "error"
)

type Flash struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type FlashList []Flash

// Value implements the driver.Valuer interface.
// This defines how the list is stored in the database.
func (f FlashList) Value() (driver.Value, error) {
	if len(f) == 0 {
		return "", nil
	}

	b, err := json.Marshal(f)
	if err != nil {
		return "", fmt.Errorf("failed to serialize flash list, %w", err)
	}

	return string(b), nil
}

// Scan implements the sql.Scanner interface.
// This defines how the database value is converted back into go.
func (f *FlashList) Scan(value interface{}) error {
	if value == nil {
		*f = FlashList{}
		return nil
	}

	str, ok := value.(string)
	if !ok {
		b, ok := value.([]byte)
		if !ok {
			return fmt.Errorf("failed to scan FlashList, %v", value)
		}

		str = string(b)
	}

	if str == "" {
		*f = FlashList{}
		return nil
	}

	return json.Unmarshal([]byte(str), f)
}
