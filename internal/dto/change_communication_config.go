// Package dto holds the outward representations served to API callers.
package dto

import (
	"time"

	"github.com/google/uuid"
)

// ChangeCommunicationConfig is the outward view of a communication
// configuration. Date carries the last time the configuration was integrated
// by the EMS and is only filled by the enriched lookup.
type ChangeCommunicationConfig struct {
	ID       int64      `json:"id"`
	Name     string     `json:"name"`
	Protocol string     `json:"protocol"`
	Address  string     `json:"address"`
	Port     int        `json:"port"`
	Active   bool       `json:"active"`
	EMSGUID  *uuid.UUID `json:"ems_guid,omitempty"`
	EMSCode  string     `json:"ems_code,omitempty"`
	EMSName  string     `json:"ems_name,omitempty"`
	Date     *time.Time `json:"date,omitempty"`
}
