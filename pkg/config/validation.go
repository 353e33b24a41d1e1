package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// validate is the singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate validates the configuration using struct tags and custom rules.
//
// Log level normalization happens in ApplyDefaults, not here; validation
// accepts both uppercase and lowercase levels.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}
	return validateCustomRules(cfg)
}

// validateCustomRules performs validation beyond struct tags.
func validateCustomRules(cfg *Config) error {
	if !cfg.Adapters.FTP.Enabled {
		return fmt.Errorf("adapters: the ftp adapter must be enabled")
	}

	// A per-account ceiling above the global one can never be reached.
	if cfg.Limits.MaxLogins > 0 && cfg.Limits.MaxAnonymousLogins > cfg.Limits.MaxLogins {
		return fmt.Errorf("limits: max_anonymous_logins (%d) exceeds max_logins (%d)",
			cfg.Limits.MaxAnonymousLogins, cfg.Limits.MaxLogins)
	}

	names := make(map[string]bool)
	for i, account := range cfg.Users.Accounts {
		if names[account.Name] {
			return fmt.Errorf("users.accounts[%d]: duplicate account name %q", i, account.Name)
		}
		names[account.Name] = true
	}

	return nil
}

// formatValidationError converts validator errors into user-friendly
// messages.
func formatValidationError(err error) error {
	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		if len(validationErrs) > 0 {
			e := validationErrs[0]
			return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
				e.Namespace(), e.Tag(), e.Value())
		}
	}
	return err
}
