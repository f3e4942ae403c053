package styles

// Status icons
const (
	IconSuccess = "✓"
	IconError   = "✗"
	IconWarning = "⚠"
	IconInfo    = "ℹ"
	IconRunning = "▶"
	IconPending = "○"
	IconSkipped = "⊘"
	IconSystem  = "●"
	IconGear    = "⚙"
	IconBullet  = "•"
)

// StatusIcon returns the icon for a process liveness flag.
func StatusIcon(alive bool) string {
	if alive {
		return IconSuccess
	}
	return IconError
}

// PluginStateIcon maps the numeric plugin state to an icon.
func PluginStateIcon(state int) string {
	switch state {
	case 0:
		return IconSkipped
	case 1:
		return IconSuccess
	case 2:
		return IconWarning
	case 3:
		return IconError
	default:
		return IconBullet
	}
}

// ConnectionIcon returns the icon for a monitor connection state name.
func ConnectionIcon(state string) string {
	switch state {
	case "open":
		return IconSystem
	case "connecting":
		return IconPending
	default:
		return IconError
	}
}

// LogLevelIcon returns the appropriate icon for a log level.
func LogLevelIcon(level string) string {
	switch level {
	case "error", "ERROR":
		return IconError
	case "warn", "WARN", "warning", "WARNING":
		return IconWarning
	case "info", "INFO":
		return IconInfo
	default:
		return IconBullet
	}
}
