package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/go-playground/validator/v10"

	"github.com/cutm/results/core"
	"github.com/cutm/results/core/faculty"
	"github.com/cutm/results/core/result"
)

// Faculty is the identity used by tests acting as a logged-in faculty member.
var Faculty = faculty.Identity{Email: "shubham@cutm.ac.in"}

func NewConfig() *core.Config {
	conf := core.NewConfig()
	conf.TestMode = true
	conf.SecretKey = "test-secret"
	conf.Database.Engine = core.EngineMemory
	conf.Server.DisableRequestLogs = true
	conf.Email.ClearAllRecipients = nil
	return conf
}

func NewValidator() *validator.Validate {
	validate := validator.New()
	core.InitValidators(validate, core.NewTranslator())
	return validate
}

func Subject(name string, obtained, total int) result.SubjectScore {
	return result.SubjectScore{Name: name, Obtained: obtained, Total: total}
}

func Draft(roll, name string, subjects ...result.SubjectScore) result.Draft {
	return result.Draft{
		Roll:     roll,
		Name:     name,
		Branch:   "CSE",
		Section:  "A",
		Year:     "2",
		Subjects: subjects,
	}
}

func CreateRecord(t *testing.T, svc *result.Service, d result.Draft) result.Record {
	rec, _, err := svc.Upsert(context.Background(), d, Faculty)
	if err != nil {
		t.Fatalf("CreateRecord() failed: %v", err)
	}
	return rec
}

type LogEntry struct {
	Level string
	Msg   string
	Args  []interface{}
}

// Logger is a core.Logger that keeps every entry in memory.
type Logger struct {
	mu      sync.Mutex
	entries []LogEntry
}

var _ core.Logger = (*Logger)(nil)

func NewLogger() *Logger {
	return new(Logger)
}

func (l *Logger) log(level, msg string, args []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, LogEntry{Level: level, Msg: msg, Args: args})
}

func (l *Logger) Debug(msg string, args ...interface{}) { l.log("debug", msg, args) }
func (l *Logger) Info(msg string, args ...interface{})  { l.log("info", msg, args) }
func (l *Logger) Warn(msg string, args ...interface{})  { l.log("warn", msg, args) }
func (l *Logger) Error(msg string, args ...interface{}) { l.log("error", msg, args) }

// Fatal is recorded like any other level; tests must not exit.
func (l *Logger) Fatal(msg string, args ...interface{}) { l.log("fatal", msg, args) }

func (l *Logger) Entries(level string) []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []LogEntry
	for _, e := range l.entries {
		if e.Level == level {
			out = append(out, e)
		}
	}
	return out
}

func (l *Logger) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return fmt.Sprintf("%+v", l.entries)
}
