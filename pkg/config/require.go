package config

import (
	"errors"
	"fmt"
)

// Required pairs an env name with the value loaded for it.
type Required struct {
	Env   string
	Value string
}

func NonEmpty(reqs ...Required) error {
	var errs []error
	for _, r := range reqs {
		if r.Value == "" {
			errs = append(errs, fmt.Errorf("missing required env %s", r.Env))
		}
	}
	return errors.Join(errs...)
}
