package utils

import (
	"fmt"
	"strings"
	"time"
)

// MessageType selects the colour used when printing a CLI message.
type MessageType int

// The message types used across the CLI application.
const (
	DefaultMessage MessageType = iota
	SuccessMessage
	ErrorMessage
	StatusMessage
	WarningMessage
)

// ANSI colours used across the CLI application.
const (
	DefaultColor = "\x1b[0m"
	StatusColor  = "\x1b[36m"
	SuccessColor = "\x1b[32m"
	ErrorColor   = "\x1b[31m"
	WarningColor = "\x1b[33m"
)

// Brand prefixes the status lines printed by the CLI.
const Brand = "📸 PICTURE PERFECT"

var palette = map[MessageType]string{
	DefaultMessage: DefaultColor,
	SuccessMessage: SuccessColor,
	ErrorMessage:   ErrorColor,
	StatusMessage:  StatusColor,
	WarningMessage: WarningColor,
}

// DecorateText wraps s in the colour of the message type and resets the terminal colour afterwards.
func DecorateText(s string, msgType MessageType) string {
	color, ok := palette[msgType]
	if !ok {
		return s
	}
	return color + s + DefaultColor
}

// StatusLine renders "<brand> ⇢ msg" with the brand highlighted.
func StatusLine(msg string, msgType MessageType) string {
	return fmt.Sprintf("%s %s %s",
		DecorateText(Brand, StatusMessage),
		DecorateText("⇢", DefaultMessage),
		DecorateText(msg, msgType),
	)
}

// FormatTime formats a duration as a short human readable value, e.g. "1h 2m 3.40s".
func FormatTime(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.2fs", d.Seconds())
	}

	days := int64(d / (24 * time.Hour))
	d -= time.Duration(days) * 24 * time.Hour
	hours := int64(d / time.Hour)
	d -= time.Duration(hours) * time.Hour
	minutes := int64(d / time.Minute)
	d -= time.Duration(minutes) * time.Minute

	parts := make([]string, 0, 4)
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if days > 0 || hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	parts = append(parts, fmt.Sprintf("%dm", minutes), fmt.Sprintf("%.2fs", d.Seconds()))

	return strings.Join(parts, " ")
}
