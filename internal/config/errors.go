package config

import (
	"fmt"
	"strings"
)

// ConfigMissingError reports a mandatory key that no source provided.
type ConfigMissingError struct {
	Key string
}

func (e *ConfigMissingError) Error() string {
	return fmt.Sprintf("missing required config %q (set it in the config file, as an environment variable, or with --%s)",
		e.Key, strings.ReplaceAll(e.Key, "_", "-"))
}
