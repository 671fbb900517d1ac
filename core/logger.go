package core

// Logger is the app-wide logging interface. Implementations may report to an
// external error tracker on top of writing to the standard logger.
//
// Expected args: error, map[string]interface{} or the authenticated user.
type Logger interface {
	Enable(enabled bool)
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
