package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func init() {
	validate.RegisterStructValidation(validatePublishToken, Config{})
}

// validatePublishToken requires a GitHub token whenever results are pushed,
// since both the push and the PR comment authenticate with it.
func validatePublishToken(sl validator.StructLevel) {
	c := sl.Current().Interface().(Config)
	if c.Publish.Enabled && c.GitHub.Token == "" {
		sl.ReportError(c.GitHub.Token, "GitHub.Token", "Token", "required_with_publish", "")
	}
}

// ValidateConfig checks every field of cfg and reports all violations at once.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("configuration validation failed: no configuration")
	}

	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("configuration validation failed:\n  %s", strings.Join(msgs, "\n  "))
}

func describe(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "required", "required_if":
		return fmt.Sprintf("%s is required", field)
	case "required_with_publish":
		return fmt.Sprintf("%s is required when publishing is enabled", field)
	case "gt":
		return fmt.Sprintf("%s must be positive, got: %v", field, fe.Value())
	case "min":
		return fmt.Sprintf("%s must not be empty", field)
	case "url":
		return fmt.Sprintf("%s must be a URL, got: %v", field, fe.Value())
	case "hostname_port":
		return fmt.Sprintf("%s must be host:port, got: %v", field, fe.Value())
	case "email":
		return fmt.Sprintf("%s must be an email address, got: %v", field, fe.Value())
	default:
		return fmt.Sprintf("%s failed %q validation", field, fe.Tag())
	}
}
