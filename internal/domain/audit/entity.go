// internal/domain/audit/entity.go
package audit

import (
	"encoding/json"
	"time"
)

type Action string
type TargetType string

const (
	ActionCreateEmissionFactor     Action = "create_emission_factor"
	ActionUpdateEmissionFactor     Action = "update_emission_factor"
	ActionDeactivateEmissionFactor Action = "deactivate_emission_factor"
	ActionUpdateUser               Action = "update_user"
	ActionUpdateUserRole           Action = "update_user_role"
	ActionDeleteUser               Action = "delete_user"
	ActionUpdateSystemConfig       Action = "update_system_config"

	TargetUser           TargetType = "user"
	TargetEmissionFactor TargetType = "emission_factor"
	TargetSystemConfig   TargetType = "system_config"
)

// AdminLog is an append-only record of one admin mutation.
type AdminLog struct {
	ID         int64           `json:"id" db:"id"`
	AdminID    int64           `json:"admin_id" db:"admin_id"`
	Action     Action          `json:"action" db:"action"`
	TargetType TargetType      `json:"target_type" db:"target_type"`
	TargetID   *int64          `json:"target_id,omitempty" db:"target_id"`
	OldData    json.RawMessage `json:"old_data,omitempty" db:"old_data"`
	NewData    json.RawMessage `json:"new_data,omitempty" db:"new_data"`
	IPAddress  *string         `json:"ip_address,omitempty" db:"ip_address"`
	UserAgent  *string         `json:"user_agent,omitempty" db:"user_agent"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}

// Actor identifies the admin and request behind a mutation.
type Actor struct {
	AdminID   int64
	IPAddress string
	UserAgent string
}
