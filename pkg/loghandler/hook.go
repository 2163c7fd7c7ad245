package loghandler

import "github.com/rs/zerolog"

// Hook returns a zerolog hook that forwards every event at or above min.
// Only the level and message are forwarded; event fields stay local.
func (h *Handler) Hook(min zerolog.Level) zerolog.Hook {
	return zerolog.HookFunc(func(e *zerolog.Event, level zerolog.Level, msg string) {
		if level < min || level == zerolog.NoLevel || level == zerolog.Disabled {
			return
		}
		h.Emit(Record{Level: levelName(level), Message: msg})
	})
}

func levelName(level zerolog.Level) string {
	switch level {
	case zerolog.TraceLevel, zerolog.DebugLevel:
		return LevelDebug
	case zerolog.InfoLevel:
		return LevelInfo
	case zerolog.WarnLevel:
		return LevelWarning
	case zerolog.ErrorLevel:
		return LevelError
	default:
		return LevelCritical
	}
}
