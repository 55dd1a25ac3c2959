// Package validation checks configuration and graph documents before they
// are used.
//
// Struct tag validation covers configuration structs:
//
//	type EngineConfig struct {
//	    Concurrency int `validate:"gte=0"`
//	}
//	err := validation.Validate(cfg)
//
// Programmatic validation collects field errors from decoded documents:
//
//	v := validation.New().Required("name", spec.Name).Name("name", spec.Name)
//	if appErr := v.Validate(); appErr != nil {
//	    return appErr
//	}
package validation
