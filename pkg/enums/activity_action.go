package enums

import "fmt"

// ActivityAction classifies audit log entries.
type ActivityAction string

const (
	ActivityActionOwnershipTransferred ActivityAction = "ownership_transferred"
	ActivityActionCompensationRequired ActivityAction = "compensation_required"
)

var validActivityActions = []ActivityAction{
	ActivityActionOwnershipTransferred,
	ActivityActionCompensationRequired,
}

// String implements fmt.Stringer.
func (a ActivityAction) String() string {
	return string(a)
}

// IsValid reports whether the value is a known ActivityAction.
func (a ActivityAction) IsValid() bool {
	for _, candidate := range validActivityActions {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseActivityAction converts raw input into a ActivityAction.
func ParseActivityAction(value string) (ActivityAction, error) {
	for _, candidate := range validActivityActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid activity action %q", value)
}
