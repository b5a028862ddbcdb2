package logsvc

import (
	"context"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/trezcool/mansa/core"
	"github.com/trezcool/mansa/core/user"
)

// Logger writes structured logs with zap and reports warnings and errors to Rollbar when enabled.
type Logger struct {
	zl      *zap.Logger
	rollbar bool
}

var _ core.Logger = (*Logger)(nil)

// NewLogger returns a Logger named after the app component (API, DB, ADMIN...).
// Rollbar reporting is enabled outside debug mode when a token is configured.
func NewLogger(name string, conf *core.Config) (*Logger, error) {
	var zcfg zap.Config
	if conf.Debug {
		zcfg = zap.NewDevelopmentConfig()
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zcfg = zap.NewProductionConfig()
	}
	zl, err := zcfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}

	l := &Logger{zl: zl.Named(name)}
	if conf.RollbarToken != "" && !conf.Debug {
		rollbar.SetToken(conf.RollbarToken)
		rollbar.SetEnvironment(conf.Env)
		rollbar.SetServerHost(conf.Server.Host)
		rollbar.SetCodeVersion(conf.Build)
		rollbar.SetStackTracer(errors.StackTracer)
		l.rollbar = true
	}
	return l, nil
}

// NewNopLogger discards everything; used by tests.
func NewNopLogger() *Logger {
	return &Logger{zl: zap.NewNop()}
}

// NewZapLogger wraps an existing zap logger, without Rollbar.
func NewZapLogger(zl *zap.Logger) *Logger {
	return &Logger{zl: zl}
}

func (l *Logger) Zap() *zap.Logger { return l.zl }

// Sync flushes buffered logs and waits for pending Rollbar reports.
func (l *Logger) Sync() error {
	if l.rollbar {
		rollbar.Wait()
	}
	return l.zl.Sync()
}

// expected args: error, map[string]interface{}, user.User
// The user goes to Rollbar as a person context of the call.
func (l *Logger) fields(args []interface{}) ([]zap.Field, []interface{}) {
	var usrSet bool
	fields := make([]zap.Field, 0, len(args))
	extras := make([]interface{}, 0, len(args))
	for _, arg := range args {
		switch a := arg.(type) {
		case user.User:
			if usrSet { // only set one User
				continue
			}
			usrSet = true
			fields = append(fields, zap.String("user_id", a.ID), zap.String("user_email", a.Email))
			if l.rollbar {
				extras = append(extras, personContext(a))
			}
		case error:
			fields = append(fields, zap.Error(a))
			extras = append(extras, a)
		case map[string]interface{}:
			for k, v := range a {
				fields = append(fields, zap.Any(k, v))
			}
			extras = append(extras, a)
		default:
			fields = append(fields, zap.Any("arg", a))
		}
	}
	return fields, extras
}

func personContext(usr user.User) context.Context {
	return rollbar.NewPersonContext(context.Background(), &rollbar.Person{
		Id:       usr.ID,
		Username: usr.Name,
		Email:    usr.Email,
	})
}

func (l *Logger) report(level, msg string, extras []interface{}) {
	if l.rollbar {
		rollbar.Log(level, append([]interface{}{msg}, extras...)...)
	}
}

func (l *Logger) Debug(msg string, args ...interface{}) {
	fields, _ := l.fields(args)
	l.zl.Debug(msg, fields...)
}

func (l *Logger) Info(msg string, args ...interface{}) {
	fields, _ := l.fields(args)
	l.zl.Info(msg, fields...)
}

func (l *Logger) Warn(msg string, args ...interface{}) {
	fields, extras := l.fields(args)
	l.zl.Warn(msg, fields...)
	l.report(rollbar.WARN, msg, extras)
}

func (l *Logger) Error(msg string, args ...interface{}) {
	fields, extras := l.fields(args)
	l.zl.Error(msg, fields...)
	l.report(rollbar.ERR, msg, extras)
}

func (l *Logger) Fatal(msg string, args ...interface{}) {
	fields, extras := l.fields(args)
	l.report(rollbar.CRIT, msg, extras)
	if l.rollbar {
		rollbar.Wait()
	}
	l.zl.Fatal(msg, fields...)
}
