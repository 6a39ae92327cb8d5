package request

import (
	validation "github.com/go-ozzo/ozzo-validation"
)

type UpsertFlagRequest struct {
	Enabled           bool `json:"enabled"`
	RolloutPercentage int  `json:"rollout_percentage"`
}

func (req *UpsertFlagRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.RolloutPercentage, validation.Min(0), validation.Max(100)),
	)
}
