package tui

const TopicMonitor = "charactl.monitor"

const (
	DomainTypeMonitorFrame    = "monitor.frame"
	DomainTypeConnectionState = "monitor.state"
)

const (
	UITypeEventAppend = "tui.event.append"
)
