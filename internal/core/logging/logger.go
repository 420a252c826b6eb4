// Package logging carries per-item log fields through context.Context and
// hands out component loggers that emit them.
package logging

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Component returns the global logger tagged with cmp=name.
func Component(name string) zerolog.Logger {
	return log.Logger.With().Str("cmp", name).Logger().Hook(ContextHook{})
}
