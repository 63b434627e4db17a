package enums

import "fmt"

// TableStatus reflects dining table availability on the floor plan.
type TableStatus string

const (
	TableStatusAvailable TableStatus = "available"
	TableStatusOccupied  TableStatus = "occupied"
	TableStatusReserved  TableStatus = "reserved"
)

var validTableStatuses = []TableStatus{
	TableStatusAvailable,
	TableStatusOccupied,
	TableStatusReserved,
}

func (s TableStatus) String() string {
	return string(s)
}

func (s TableStatus) IsValid() bool {
	for _, candidate := range validTableStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

func ParseTableStatus(value string) (TableStatus, error) {
	for _, candidate := range validTableStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid table status %q", value)
}
