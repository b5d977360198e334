package slogx

import (
	"fmt"
	"log/slog"
)

// Error returns a slog.Attr with key "error" holding the error's message.
func Error(err error) slog.Attr {
	return slog.String("error", err.Error())
}

// Stringer returns a slog.Attr holding the string form of value.
func Stringer(key string, value fmt.Stringer) slog.Attr {
	return slog.String(key, value.String())
}

// KeyLoggerName is the attribute key used to tag log records with the
// subsystem that emitted them.
const KeyLoggerName = "logger"

// LoggerName returns an attribute naming the emitting subsystem.
func LoggerName(name string) slog.Attr {
	return slog.String(KeyLoggerName, name)
}

// Automaton returns an attribute identifying an automaton by id.
func Automaton(id string) slog.Attr {
	return slog.String("automaton", id)
}

// Session returns an attribute identifying a session.
func Session(id string) slog.Attr {
	return slog.String("session", id)
}
