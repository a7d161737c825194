// Package mapper converts reference records into outward DTOs.
package mapper

import (
	"decofer/core-go/internal/dto"
	"decofer/core-go/internal/reference"
)

type ChangeCommunicationConfigMapper struct{}

func NewChangeCommunicationConfigMapper() ChangeCommunicationConfigMapper {
	return ChangeCommunicationConfigMapper{}
}

// ToDTO never sets Date; that field belongs to the enrichment step.
func (ChangeCommunicationConfigMapper) ToDTO(cfg reference.CommunicationConfig) dto.ChangeCommunicationConfig {
	out := dto.ChangeCommunicationConfig{
		ID:       cfg.ID,
		Name:     cfg.Name,
		Protocol: cfg.Protocol,
		Address:  cfg.Address,
		Port:     cfg.Port,
		Active:   cfg.Active,
	}
	if cfg.EMS != nil {
		if guid, ok := cfg.EMSGUID(); ok {
			out.EMSGUID = &guid
		}
		out.EMSCode = cfg.EMS.Code
		out.EMSName = cfg.EMS.Name
	}
	return out
}
