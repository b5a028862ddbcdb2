package core

// Logger is the application logger.
// expected args: error, map[string]interface{} (extra fields), user.User (the request user).
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
