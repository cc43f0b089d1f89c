package core

// Logger is any service that can report messages.
// args may hold errors, maps of extra data and the faculty.Identity acting at the time.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
