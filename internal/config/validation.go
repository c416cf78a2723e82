package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
)

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("cronspec", validateCronSpec)
	return v
}

// Validate checks field rules and the cross-field constraints env tags cannot express.
func Validate(cfg Config) error {
	if err := newValidator().Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return formatValidationErrors(verrs)
		}
		return fmt.Errorf("validate config: %w", err)
	}
	if cfg.Simulation.DefaultTrials() < 1 {
		return errors.New("invalid configuration: default trial count must be positive")
	}
	if cfg.Metrics.Enabled && cfg.Metrics.Port == cfg.Port {
		return fmt.Errorf("invalid configuration: METRICS_PORT and PORT must differ (both %s)", cfg.Port)
	}
	return nil
}

func validateCronSpec(fl validator.FieldLevel) bool {
	_, err := cron.ParseStandard(fl.Field().String())
	return err == nil
}

func formatValidationErrors(verrs validator.ValidationErrors) error {
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}
