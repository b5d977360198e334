package automata

import (
	"fmt"

	"github.com/casualjim/automata/messages"
)

type task interface {
	task()
}

type stringTask string

func (s stringTask) task() {}

type messageTask messages.Message[messages.UserMessage]

func (m messageTask) task() {}

// RunStep pairs an automaton with the request it should handle.
type RunStep struct {
	automatonName string
	task          task
}

// Task is the set of request shapes a step accepts: a plain string or a
// prepared user message.
type Task interface {
	~string | messages.Message[messages.UserMessage]
}

// Step creates a run step addressed to the named automaton.
func Step[T Task](automatonName string, tsk T) RunStep {
	var t task
	switch xt := any(tsk).(type) {
	case string:
		t = stringTask(xt)
	case messages.Message[messages.UserMessage]:
		t = messageTask(xt)
	default:
		panic(fmt.Sprintf("invalid task type: %T", xt))
	}
	return RunStep{
		automatonName: automatonName,
		task:          t,
	}
}
