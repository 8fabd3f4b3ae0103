package model

// Level is the severity of a user-facing notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelWarning Level = "warning"
	LevelInfo    Level = "info"
)

// Notification is a single user-facing message.
type Notification struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}
