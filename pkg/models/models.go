package models

import (
	"time"
)

// TV statuses as maintained by the health monitor.
const (
	TVStatusActive  = "active"
	TVStatusOffline = "offline"
)

// TV represents the tvs table - one controllable television receiver.
type TV struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	IPAddress   string    `gorm:"not null;uniqueIndex;type:inet" json:"ip_address" binding:"required,ip"`
	Name        string    `gorm:"not null" json:"name" binding:"required"`
	Model       string    `json:"model"`
	MACAddress  string    `json:"mac_address" binding:"omitempty,mac"`
	BroadcastIP string    `json:"broadcast_ip" binding:"omitempty,ip"`
	Token       string    `json:"token,omitempty" gocrypt:"aes"` // Pairing token, encrypted at rest
	Status      string    `gorm:"default:'active'" json:"status" binding:"omitempty,oneof=active offline"`
	CreatedAt   time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// CommandKey represents the command_keys table - one logical command name
// mapped to the key code the television understands.
type CommandKey struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"not null;uniqueIndex" json:"name" binding:"required"`
	KeyCode     string    `gorm:"not null" json:"key_code" binding:"required"`
	Description string    `json:"description"`
	CreatedAt   time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName overrides the default table name logic
func (TV) TableName() string         { return "tvs" }
func (CommandKey) TableName() string { return "command_keys" }

// GetID methods to satisfy Identifiable interface
func (t TV) GetID() int64         { return t.ID }
func (c CommandKey) GetID() int64 { return c.ID }
