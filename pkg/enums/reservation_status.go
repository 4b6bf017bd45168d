package enums

import "fmt"

// ReservationStatus is the lifecycle of a hold placed on a unit.
type ReservationStatus string

const (
	ReservationStatusActive    ReservationStatus = "active"
	ReservationStatusPending   ReservationStatus = "pending"
	ReservationStatusConfirmed ReservationStatus = "confirmed"
	ReservationStatusReserved  ReservationStatus = "reserved"
	ReservationStatusCompleted ReservationStatus = "completed"
	ReservationStatusCancelled ReservationStatus = "cancelled"
)

var validReservationStatuses = []ReservationStatus{
	ReservationStatusActive,
	ReservationStatusPending,
	ReservationStatusConfirmed,
	ReservationStatusReserved,
	ReservationStatusCompleted,
	ReservationStatusCancelled,
}

// String implements fmt.Stringer.
func (r ReservationStatus) String() string {
	return string(r)
}

// IsValid reports whether the value is a known ReservationStatus.
func (r ReservationStatus) IsValid() bool {
	for _, candidate := range validReservationStatuses {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseReservationStatus converts raw input into a ReservationStatus.
func ParseReservationStatus(value string) (ReservationStatus, error) {
	for _, candidate := range validReservationStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid reservation status %q", value)
}

// AwaitsSettlement reports whether a reservation in this status still holds a
// deposit that a sale must reconcile.
func (r ReservationStatus) AwaitsSettlement() bool {
	switch r {
	case ReservationStatusActive, ReservationStatusPending, ReservationStatusConfirmed, ReservationStatusReserved:
		return true
	}
	return false
}

// OpenReservationStatuses lists the statuses AwaitsSettlement accepts, for queries.
func OpenReservationStatuses() []ReservationStatus {
	return []ReservationStatus{
		ReservationStatusActive,
		ReservationStatusPending,
		ReservationStatusConfirmed,
		ReservationStatusReserved,
	}
}
