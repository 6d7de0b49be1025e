package logsvc

import (
	"log"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/students-gateway/gateway/core"
	"github.com/students-gateway/gateway/core/user"
)

// RollbarLogger reports to rollbar and mirrors every entry to a std logger.
type RollbarLogger struct {
	std *log.Logger
	app string
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	return &RollbarLogger{std: std, app: conf.AppName}
}

// Enable turns reporting to rollbar on or off; local logging is unaffected.
func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// Close waits for the queued rollbar reports to be sent.
func (l RollbarLogger) Close() {
	rollbar.Close()
}

// entry is a log call split into what rollbar reports.
type entry struct {
	err    error
	fields map[string]interface{}
	usr    *user.User
}

// newEntry sorts args: the first error and the first signed-in user.User are kept,
// maps are merged into the custom fields and anything else is stored under "args".
func (l RollbarLogger) newEntry(args []interface{}) entry {
	e := entry{fields: map[string]interface{}{}}
	if l.app != "" {
		e.fields["app"] = l.app
	}
	var extra []interface{}
	for _, arg := range args {
		switch v := arg.(type) {
		case user.User:
			if e.usr == nil && v.Username != "" {
				usr := v
				e.usr = &usr
				e.fields["role"] = usr.Role
			}
		case error:
			if e.err == nil {
				e.err = v
			} else {
				extra = append(extra, v.Error())
			}
		case map[string]interface{}:
			for k, val := range v {
				e.fields[k] = val
			}
		default:
			extra = append(extra, v)
		}
	}
	if len(extra) > 0 {
		e.fields["args"] = extra
	}
	return e
}

func (l RollbarLogger) report(level, msg string, args []interface{}) {
	e := l.newEntry(args)
	if e.usr != nil {
		rollbar.SetPerson(e.usr.Username, e.usr.Name, e.usr.Email)
	} else {
		rollbar.ClearPerson()
	}

	if e.err != nil {
		// rollbar drops the message of error reports
		e.fields["message"] = msg
		rollbar.Log(level, e.err, e.fields)
	} else {
		rollbar.Log(level, msg, e.fields)
	}

	l.std.Printf("[%s] %s", level, msg)
	if e.err != nil {
		l.std.Printf("%+v", e.err)
	}
	if len(e.fields) > 0 {
		l.std.Printf("%v", e.fields)
	}
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) {
	l.report(rollbar.DEBUG, msg, args)
}

func (l RollbarLogger) Info(msg string, args ...interface{}) {
	l.report(rollbar.INFO, msg, args)
}

func (l RollbarLogger) Warn(msg string, args ...interface{}) {
	l.report(rollbar.WARN, msg, args)
}

func (l RollbarLogger) Error(msg string, args ...interface{}) {
	l.report(rollbar.ERR, msg, args)
}

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	l.report(rollbar.CRIT, msg, args)
	rollbar.Close()
	l.std.Fatal(msg)
}
