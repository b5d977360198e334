package automata

import (
	"context"
	"reflect"

	"github.com/casualjim/automata/api"
	"github.com/casualjim/automata/events"
	"github.com/casualjim/automata/internal/executor"
	"github.com/casualjim/automata/runstate"
	"github.com/casualjim/automata/types"
	"github.com/fogfish/opts"
	"github.com/invopop/jsonschema"
	"github.com/tidwall/gjson"
)

// ExecutionContext holds the configuration for running a hierarchy: the
// executor, the event hook, the promise resolved with the final result, and
// run parameters like context variables and the turn limit.
type ExecutionContext struct {
	executor       executor.Executor
	hook           events.Hook
	promise        executor.Promise
	responseSchema *executor.StructuredOutput
	contextVars    types.ContextVars
	onClose        func(context.Context)
	maxTurns       int
}

func (e *ExecutionContext) createCommand(a api.Automaton, state *runstate.Aggregator) (executor.RunCommand, error) {
	cmd, err := executor.NewRunCommand(a, state, e.hook)
	if err != nil {
		return executor.RunCommand{}, err
	}
	if len(e.contextVars) > 0 {
		cmd = cmd.WithContextVariables(e.contextVars)
	}
	if e.responseSchema != nil {
		cmd = cmd.WithStructuredOutput(e.responseSchema)
	}
	if e.maxTurns > 0 {
		cmd = cmd.WithMaxTurns(e.maxTurns)
	}
	return cmd, nil
}

var (
	// WithContextVars sets variables rendered into instructions and injected
	// into tool functions that declare a ContextVars parameter.
	WithContextVars = opts.ForName[ExecutionContext, types.ContextVars]("contextVars")

	// WithMaxTurns caps the number of delegations a single run may make.
	WithMaxTurns = opts.ForName[ExecutionContext, int]("maxTurns")
)

// StructuredOutput requests the final result as JSON matching the schema of
// T. String-like result types skip schema generation.
func StructuredOutput[T any](name, description string) opts.Option[ExecutionContext] {
	return opts.Type[ExecutionContext](func(s *ExecutionContext) error {
		schema := jsonSchema[T]()
		if schema != nil {
			s.responseSchema = &executor.StructuredOutput{
				Name:        name,
				Description: description,
				Schema:      schema,
			}
		}
		return nil
	})
}

func jsonSchema[T any]() *jsonschema.Schema {
	var schema *jsonschema.Schema
	var isGjsonResult bool
	var t T
	_, isGjsonResult = any(t).(gjson.Result)
	isString := reflect.TypeFor[T]().Kind() == reflect.String

	if !isGjsonResult && !isString {
		schema = executor.ToJSONSchema[T]()
	}

	return schema
}

// Local creates an ExecutionContext backed by the in-process executor. The
// hook receives every event of the run and, when the last step completes,
// the final result decoded as T.
func Local[T any](hook Hook[T], options ...opts.Option[ExecutionContext]) ExecutionContext {
	fut := executor.NewFuture(executor.DefaultUnmarshal[T]())
	dp := &deferredPromise[T]{
		promise: fut,
		hook:    hook,
	}

	execCtx := ExecutionContext{
		executor: executor.NewLocal(),
		hook:     hook,
		promise:  dp,
		onClose: func(ctx context.Context) {
			dp.Forward(ctx)
			hook.OnClose(ctx)
		},
	}

	if err := opts.Apply(&execCtx, options); err != nil {
		panic(err)
	}

	return execCtx
}
