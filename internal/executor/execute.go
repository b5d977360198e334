package executor

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"math"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/casualjim/automata/api"
	"github.com/casualjim/automata/events"
	"github.com/casualjim/automata/pkg/stdx"
	"github.com/casualjim/automata/pkg/uuidx"
	"github.com/casualjim/automata/runstate"
	"github.com/casualjim/automata/types"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/invopop/jsonschema"
	"github.com/tidwall/gjson"
)

// Structured outputs use a subset of JSON schema. These flags keep the
// generated schemas inside that subset.
var schemaReflector = jsonschema.Reflector{
	AllowAdditionalProperties: false,
	DoNotReference:            true,
}

func ToJSONSchema[T any]() *jsonschema.Schema {
	var v T
	return schemaReflector.Reflect(v)
}

// StructuredOutput describes the shape a run's final result should take.
type StructuredOutput struct {
	Name        string
	Description string
	Schema      *jsonschema.Schema
}

func NewRunCommand(automaton api.Automaton, state *runstate.Aggregator, hook events.Hook) (RunCommand, error) {
	var err error
	if automaton == nil {
		err = errors.Join(err, errors.New("automaton is required"))
	}
	if state == nil {
		err = errors.Join(err, errors.New("state is required"))
	}
	if hook == nil {
		err = errors.Join(err, errors.New("hook is required"))
	}

	if err != nil {
		return RunCommand{}, err
	}

	return RunCommand{
		id:        uuidx.New(),
		Automaton: automaton,
		State:     state,
		Hook:      hook,
		MaxTurns:  math.MaxInt,
	}, nil
}

type RunCommand struct {
	id               uuid.UUID
	Automaton        api.Automaton
	State            *runstate.Aggregator
	StructuredOutput *StructuredOutput
	Requester        string
	MaxTurns         int
	ContextVariables types.ContextVars
	Hook             events.Hook
}

func (r *RunCommand) Validate() error {
	if r.Automaton == nil {
		return fmt.Errorf("automaton cannot be nil")
	}
	if r.State == nil {
		return fmt.Errorf("state cannot be nil")
	}
	if r.Hook == nil {
		return fmt.Errorf("hook cannot be nil")
	}
	return nil
}

func (r *RunCommand) initializeContextVars() types.ContextVars {
	if r.ContextVariables != nil {
		return maps.Clone(r.ContextVariables)
	}
	return nil
}

func (r *RunCommand) ID() uuid.UUID {
	return r.id
}

func (r RunCommand) WithMaxTurns(maxTurns int) RunCommand {
	r.MaxTurns = maxTurns
	return r
}

func (r RunCommand) WithRequester(requester string) RunCommand {
	r.Requester = requester
	return r
}

func (r RunCommand) WithContextVariables(contextVariables types.ContextVars) RunCommand {
	r.ContextVariables = contextVariables
	return r
}

func (r RunCommand) WithStructuredOutput(output *StructuredOutput) RunCommand {
	r.StructuredOutput = output
	return r
}

func DefaultUnmarshal[T any]() func([]byte) (T, error) {
	var t T
	_, isGjsonResult := any(t).(gjson.Result)
	isString := reflect.TypeFor[T]().Kind() == reflect.String

	switch {
	case isGjsonResult:
		return func(data []byte) (T, error) {
			result := gjson.ParseBytes(data)
			return any(result).(T), nil
		}
	case isString:
		return func(data []byte) (T, error) {
			return any(string(data)).(T), nil
		}
	default:
		return func(data []byte) (T, error) {
			var v T
			if err := json.Unmarshal(data, &v); err != nil {
				return v, err
			}
			return v, nil
		}
	}
}

type CompletableFuture[T any] interface {
	Future[T]
	Promise
}

type Promise interface {
	Complete(string)
	Error(error)
}

type Future[T any] interface {
	Get() (T, error)
}

type futState struct {
	value string
	err   error
}

type futResult[T any] struct {
	outcome api.RunResult[T]
	done    bool
}

type future[T any] struct {
	unmarshal func([]byte) (T, error)
	ch        chan futState
	result    atomic.Value // holds *futResult[T]
	once      sync.Once
	mu        sync.Mutex
}

func NewFuture[T any](unmarshal func([]byte) (T, error)) CompletableFuture[T] {
	f := &future[T]{
		unmarshal: unmarshal,
		ch:        make(chan futState, 1),
	}
	f.result.Store(&futResult[T]{})
	return f
}

func (f *future[T]) Get() (T, error) {
	res := f.result.Load().(*futResult[T])
	if res.done {
		return res.outcome.Success, res.outcome.Err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	res = f.result.Load().(*futResult[T])
	if res.done {
		return res.outcome.Success, res.outcome.Err
	}

	r := <-f.ch
	var newResult futResult[T]
	if r.err != nil {
		newResult = futResult[T]{
			outcome: api.RunResult[T]{Success: stdx.Zero[T](), Err: r.err},
			done:    true,
		}
	} else {
		result, err := f.unmarshal([]byte(r.value))
		newResult = futResult[T]{
			outcome: api.RunResult[T]{Success: result, Err: err},
			done:    true,
		}
	}
	f.result.Store(&newResult)
	return newResult.outcome.Success, newResult.outcome.Err
}

func (f *future[T]) Complete(data string) {
	f.once.Do(func() {
		f.ch <- futState{value: data}
	})
}

func (f *future[T]) Error(err error) {
	f.once.Do(func() {
		f.ch <- futState{err: err}
	})
}

type Executor interface {
	Run(context.Context, RunCommand, Promise) error
}
