package reference

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// CommunicationConfig is a communication configuration record as served by
// the reference-data service.
type CommunicationConfig struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Protocol string `json:"protocol"`
	Address  string `json:"address"`
	Port     int    `json:"port"`
	Active   bool   `json:"active"`
	EMS      *EMS   `json:"ems,omitempty"`
}

// EMS describes the energy management system a configuration belongs to.
// Its GUID is the join key towards warehouse snapshots.
type EMS struct {
	GUID uuid.UUID `json:"guid"`
	Code string    `json:"code,omitempty"`
	Name string    `json:"name,omitempty"`
}

// UnmarshalJSON accepts an empty or null guid as uuid.Nil so the record
// decodes and EMSGUID reports the key as missing. Malformed guids still fail.
func (e *EMS) UnmarshalJSON(b []byte) error {
	type emsAlias EMS
	var raw struct {
		emsAlias
		GUID *string `json:"guid"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	*e = EMS(raw.emsAlias)
	e.GUID = uuid.Nil
	if raw.GUID == nil || strings.TrimSpace(*raw.GUID) == "" {
		return nil
	}
	guid, err := uuid.Parse(strings.TrimSpace(*raw.GUID))
	if err != nil {
		return fmt.Errorf("ems guid %q: %w", *raw.GUID, err)
	}
	e.GUID = guid
	return nil
}

func NewEMS(guid uuid.UUID, code, name string) *EMS {
	return &EMS{GUID: guid, Code: code, Name: name}
}

// EMSGUID returns the GUID of the embedded EMS and whether one is usable.
func (c CommunicationConfig) EMSGUID() (uuid.UUID, bool) {
	if c.EMS == nil || c.EMS.GUID == uuid.Nil {
		return uuid.Nil, false
	}
	return c.EMS.GUID, true
}
