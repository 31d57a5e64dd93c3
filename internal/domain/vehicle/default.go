package vehicle

import (
	"fmt"
	"sort"

	xerrors "carp-service/internal/pkg/errors"
)

// DefaultChange is a single is_default write.
type DefaultChange struct {
	VehicleID int64
	IsDefault bool
}

// ReassignDefault computes the writes that make targetID the only default
// among owned. Clears come before the set so each statement keeps at most one
// default per user. Writes that would not change a row are omitted.
func ReassignDefault(owned []Vehicle, targetID int64) ([]DefaultChange, error) {
	var target *Vehicle
	for i := range owned {
		if owned[i].ID == targetID {
			target = &owned[i]
			break
		}
	}
	if target == nil {
		return nil, fmt.Errorf("vehicle %d: %w", targetID, xerrors.ErrNotFound)
	}
	if !target.IsActive {
		return nil, xerrors.InvalidField("vehicle_id", "an inactive vehicle cannot be the default")
	}

	var changes []DefaultChange
	for _, v := range owned {
		if v.ID != targetID && v.IsDefault {
			changes = append(changes, DefaultChange{VehicleID: v.ID, IsDefault: false})
		}
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].VehicleID < changes[j].VehicleID })

	if !target.IsDefault {
		changes = append(changes, DefaultChange{VehicleID: targetID, IsDefault: true})
	}
	return changes, nil
}

// ApplyDefaultChanges returns a copy of owned with the changes applied.
func ApplyDefaultChanges(owned []Vehicle, changes []DefaultChange) []Vehicle {
	out := make([]Vehicle, len(owned))
	copy(out, owned)
	for _, ch := range changes {
		for i := range out {
			if out[i].ID == ch.VehicleID {
				out[i].IsDefault = ch.IsDefault
			}
		}
	}
	return out
}
