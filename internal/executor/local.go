package executor

import (
	"context"
	"encoding"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/casualjim/automata/api"
	"github.com/casualjim/automata/events"
	"github.com/casualjim/automata/knowledge"
	"github.com/casualjim/automata/messages"
	"github.com/casualjim/automata/pkg/reflectx"
	"github.com/casualjim/automata/pkg/slogx"
	"github.com/casualjim/automata/pkg/uuidx"
	"github.com/casualjim/automata/planner"
	"github.com/casualjim/automata/reflector"
	"github.com/casualjim/automata/runstate"
	"github.com/casualjim/automata/tool"
	"github.com/casualjim/automata/types"
	"github.com/casualjim/automata/validator"
	"github.com/go-openapi/strfmt"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

var _ Executor = &Local{}

type Local struct{}

func NewLocal() *Local {
	return &Local{}
}

func wrapErr(runID, turnID uuid.UUID, sender string, err error) (events.Error, bool) {
	if err == nil {
		return events.Error{}, false
	}
	if pErr, ok := err.(events.Error); ok { //nolint: errorlint
		return pErr, true
	}
	return events.Error{
		RunID:     runID,
		TurnID:    turnID,
		Sender:    sender,
		Err:       err,
		Timestamp: strfmt.DateTime(time.Now()),
	}, true
}

// Component accessors are asserted individually so partial implementations
// still work. Every accessor may legitimately return nil.

func plannerOf(a api.Automaton) planner.Planner {
	if c, ok := a.(interface{ Planner() planner.Planner }); ok {
		return c.Planner()
	}
	return nil
}

func reflectorOf(a api.Automaton) reflector.Reflector {
	if c, ok := a.(interface{ Reflector() reflector.Reflector }); ok {
		return c.Reflector()
	}
	return nil
}

func knowledgeOf(a api.Automaton) knowledge.Source {
	if c, ok := a.(interface{ Knowledge() knowledge.Source }); ok {
		return c.Knowledge()
	}
	return nil
}

func inputValidatorOf(a api.Automaton) validator.Validator {
	if c, ok := a.(interface{ InputValidator() validator.Validator }); ok {
		return c.InputValidator()
	}
	return nil
}

func outputValidatorOf(a api.Automaton) validator.Validator {
	if c, ok := a.(interface{ OutputValidator() validator.Validator }); ok {
		return c.OutputValidator()
	}
	return nil
}

func runnerOf(a api.Automaton) api.Runner {
	if c, ok := a.(interface{ Runner() api.Runner }); ok {
		if r := c.Runner(); r != nil {
			return r
		}
		return nil
	}
	if r, ok := a.(api.Runnable); ok {
		return r.Run
	}
	return nil
}

type runParams struct {
	command     RunCommand
	state       *runstate.Aggregator
	contextVars types.ContextVars
	promise     Promise
	request     string
}

// Run drives a single automaton through one request. The request is the last
// user prompt in the command's state; callers seed it before running.
func (l *Local) Run(ctx context.Context, command RunCommand, promise Promise) error {
	if err := command.Validate(); err != nil {
		return err
	}

	state := command.State.Fork()
	prompt, ok := lastUserPrompt(state)
	if !ok {
		return fmt.Errorf("no request in run state for automaton %q", command.Automaton.Name())
	}

	params := runParams{
		command:     command,
		state:       state,
		contextVars: command.initializeContextVars(),
		promise:     promise,
		request:     prompt.Payload.Content,
	}

	if err := l.run(ctx, &params); err != nil {
		return err
	}

	command.State.Join(state)
	return nil
}

func (l *Local) run(ctx context.Context, params *runParams) error {
	a := params.command.Automaton

	// Input gate. A failed validation is a reply, not an error: the
	// correction text goes back to the requester.
	if iv := inputValidatorOf(a); iv != nil {
		ok, msg, err := iv.Validate(ctx, params.request)
		if err != nil {
			l.publishError(ctx, params, fmt.Errorf("input validator: %w", err))
			params.promise.Error(err)
			return err
		}
		if !ok {
			l.reply(ctx, params, msg)
			return nil
		}
	}

	if runner := runnerOf(a); runner != nil {
		result, err := runner(ctx, params.request)
		if err != nil {
			l.publishError(ctx, params, err)
			params.promise.Error(err)
			return err
		}
		if serr := l.checkStructuredOutput(params, result); serr != nil {
			l.publishError(ctx, params, serr)
			params.promise.Error(serr)
			return serr
		}
		l.reply(ctx, params, result)
		return nil
	}

	return l.runDelegationLoop(ctx, params)
}

func (l *Local) runDelegationLoop(ctx context.Context, params *runParams) error {
	a := params.command.Automaton

	pl := plannerOf(a)
	if pl == nil {
		err := fmt.Errorf("automaton %q has neither a runner nor a planner", a.Name())
		l.publishError(ctx, params, err)
		return err
	}

	capabilities := describeCapabilities(a)

	for params.state.TurnLen() < params.command.MaxTurns {
		if err := ctx.Err(); err != nil {
			return err
		}

		reflections, err := l.reflect(ctx, params)
		if err != nil {
			l.publishError(ctx, params, err)
			params.promise.Error(err)
			return err
		}

		plan, err := pl.Plan(ctx, planner.Input{
			AutomatonName: a.Name(),
			Request:       params.request,
			Capabilities:  capabilities,
			Steps:         params.state.TurnSteps(),
			Reflections:   reflections,
		})
		if err != nil {
			l.publishError(ctx, params, err)
			params.promise.Error(err)
			return err
		}

		callID := uuidx.New().String()
		callMsg := messages.New().
			WithSender(a.Name()).
			WithRun(params.command.ID(), params.state.ID()).
			DelegationCall(callID, plan.Action.AutomatonID, plan.Action.Request)
		callMsg.Payload.PlanText = plan.Text
		params.state.AddDelegationCall(callMsg)
		params.command.Hook.OnDelegationCall(ctx, callMsg)

		var result string
		if plan.Action.AutomatonID == planner.FinalizeID && !hasCapability(a, planner.FinalizeID) {
			// No finalize delegate attached; the plan's request is already
			// the final result.
			result = plan.Action.Request
		} else {
			result, err = l.delegate(ctx, params, plan.Action)
			if err != nil {
				l.publishError(ctx, params, err)
				params.promise.Error(err)
				return err
			}
		}

		respMsg := messages.New().
			WithSender(plan.Action.AutomatonID).
			WithRun(params.command.ID(), params.state.ID()).
			DelegationResponse(callID, plan.Action.AutomatonID, result)
		params.state.AddDelegationResponse(respMsg)
		params.command.Hook.OnDelegationResponse(ctx, respMsg)

		params.state.AddStep(runstate.Step{
			Reflection:  reflections,
			PlanText:    plan.Text,
			AutomatonID: plan.Action.AutomatonID,
			Request:     plan.Action.Request,
			Result:      result,
		})

		if plan.Action.AutomatonID == planner.FinalizeID {
			if ov := outputValidatorOf(a); ov != nil {
				ok, msg, verr := ov.Validate(ctx, result)
				if verr != nil {
					l.publishError(ctx, params, fmt.Errorf("output validator: %w", verr))
					params.promise.Error(verr)
					return verr
				}
				if !ok {
					result = msg
				}
			}
			if serr := l.checkStructuredOutput(params, result); serr != nil {
				l.publishError(ctx, params, serr)
				params.promise.Error(serr)
				return serr
			}
			l.reply(ctx, params, result)
			return nil
		}
	}

	err := errors.New("max turns exceeded")
	l.publishError(ctx, params, err)
	params.promise.Error(err)
	return err
}

func (l *Local) reflect(ctx context.Context, params *runParams) ([]string, error) {
	a := params.command.Automaton

	var reflections []string
	if refl := reflectorOf(a); refl != nil {
		lines, err := refl.Reflect(ctx, params.request, params.state.TurnSteps())
		if err != nil {
			return nil, fmt.Errorf("reflector: %w", err)
		}
		reflections = lines
	}
	if ks := knowledgeOf(a); ks != nil {
		background, err := ks.Background(ctx, params.request)
		if err != nil {
			return nil, fmt.Errorf("knowledge: %w", err)
		}
		if background != "" {
			reflections = append(reflections, "Background knowledge: "+background)
		}
	}
	return reflections, nil
}

// reply completes the run with the final result, recording it as the
// automaton's assistant message.
func (l *Local) reply(ctx context.Context, params *runParams, result string) {
	msg := messages.New().
		WithSender(params.command.Automaton.Name()).
		WithRun(params.command.ID(), params.state.ID()).
		AssistantMessage(result)
	params.state.AddAssistantMessage(msg)
	params.command.Hook.OnAssistantMessage(ctx, msg)
	params.promise.Complete(result)
}

// delegate resolves the planned action against the automaton's sub-automata
// and tools, invokes it, and returns the textual result.
func (l *Local) delegate(ctx context.Context, params *runParams, action planner.Action) (string, error) {
	a := params.command.Automaton

	for _, sub := range a.SubAutomata() {
		if sub.Name() == action.AutomatonID {
			return l.delegateToAutomaton(ctx, params, sub, action.Request)
		}
	}

	for _, td := range a.Tools() {
		if td.Name == action.AutomatonID {
			return l.invokeTool(ctx, params, td, action.Request)
		}
	}

	return "", events.Error{
		RunID:     params.command.ID(),
		TurnID:    params.state.ID(),
		Sender:    a.Name(),
		Err:       fmt.Errorf("unknown capability %q for automaton %q", action.AutomatonID, a.Name()),
		Timestamp: strfmt.DateTime(time.Now()),
	}
}

func (l *Local) delegateToAutomaton(ctx context.Context, params *runParams, sub api.Automaton, request string) (string, error) {
	slog.DebugContext(ctx, "delegating",
		slogx.Automaton(params.command.Automaton.Name()),
		slog.String("delegate", sub.Name()),
	)

	if runner := runnerOf(sub); runner != nil {
		return runner(ctx, request)
	}

	childState := runstate.New()
	childState.AddUserPrompt(messages.New().
		WithSender(params.command.Automaton.Name()).
		UserPrompt(request))

	childCmd, err := NewRunCommand(sub, childState, params.command.Hook)
	if err != nil {
		return "", err
	}
	childCmd = childCmd.
		WithMaxTurns(params.command.MaxTurns).
		WithRequester(params.command.Automaton.Name())
	if params.contextVars != nil {
		childCmd = childCmd.WithContextVariables(params.contextVars)
	}

	fut := NewFuture(DefaultUnmarshal[string]())
	if err := l.Run(ctx, childCmd, fut); err != nil {
		return "", err
	}
	return fut.Get()
}

func (l *Local) invokeTool(ctx context.Context, params *runParams, td tool.Definition, request string) (string, error) {
	var args []reflect.Value
	if len(td.Parameters) == 0 {
		// Tools without declared parameters receive the raw request.
		args = []reflect.Value{reflect.ValueOf(request)}
	} else {
		args = buildArgList(request, td.Parameters)
	}

	result, err := callFunction(ctx, td.Function, args, params.contextVars)
	if err != nil {
		return "", err
	}

	if result.ContextVariables != nil {
		if params.contextVars == nil {
			params.contextVars = make(types.ContextVars)
		}
		maps.Copy(params.contextVars, result.ContextVariables)
	}

	return result.Value, nil
}

// checkStructuredOutput gates a final result against the requested output
// shape. Only top-level required fields are checked; the schema subset the
// reflector emits does not need a full validator.
func (l *Local) checkStructuredOutput(params *runParams, result string) error {
	so := params.command.StructuredOutput
	if so == nil || so.Schema == nil {
		return nil
	}

	parsed := gjson.Parse(result)
	if !parsed.IsObject() {
		return fmt.Errorf("result for %q is not a JSON object", so.Name)
	}
	for _, field := range so.Schema.Required {
		if !parsed.Get(field).Exists() {
			return fmt.Errorf("result for %q is missing required field %q", so.Name, field)
		}
	}
	return nil
}

func (l *Local) publishError(ctx context.Context, params *runParams, err error) {
	if ee, hasErr := wrapErr(params.command.ID(), params.state.ID(), params.command.Automaton.Name(), err); hasErr {
		if params.command.Requester != "" && !ee.Meta.Exists() {
			if raw, merr := sjson.Set("{}", "requester", params.command.Requester); merr == nil {
				ee.Meta = gjson.Parse(raw)
			}
		}
		params.command.Hook.OnError(ctx, ee)
	}
}

func hasCapability(a api.Automaton, id string) bool {
	for _, sub := range a.SubAutomata() {
		if sub.Name() == id {
			return true
		}
	}
	for _, td := range a.Tools() {
		if td.Name == id {
			return true
		}
	}
	return false
}

func lastUserPrompt(state *runstate.Aggregator) (messages.Message[messages.UserMessage], bool) {
	var found messages.Message[messages.UserMessage]
	var ok bool
	for msg := range state.MessagesIter() {
		if payload, isUser := msg.Payload.(messages.UserMessage); isUser {
			found = messages.Message[messages.UserMessage]{
				RunID:     msg.RunID,
				TurnID:    msg.TurnID,
				Payload:   payload,
				Sender:    msg.Sender,
				Timestamp: msg.Timestamp,
				Meta:      msg.Meta,
			}
			ok = true
		}
	}
	return found, ok
}

func describeCapabilities(a api.Automaton) []planner.Descriptor {
	var caps []planner.Descriptor
	for _, sub := range a.SubAutomata() {
		caps = append(caps, planner.Descriptor{
			ID:                sub.Name(),
			Name:              sub.Name(),
			Description:       sub.Description(),
			InputRequirements: sub.InputRequirements(),
		})
	}
	for _, td := range a.Tools() {
		caps = append(caps, planner.Descriptor{
			ID:                td.Name,
			Name:              td.Name,
			Description:       td.Description,
			InputRequirements: toolRequirements(td),
		})
	}
	return caps
}

func toolRequirements(td tool.Definition) []string {
	if len(td.Parameters) == 0 {
		return []string{"Free-form text"}
	}
	names := make([]string, 0, len(td.Parameters))
	for _, v := range td.Parameters {
		names = append(names, v)
	}
	sort.Strings(names)
	return []string{"A JSON object with the fields: " + strings.Join(names, ", ")}
}

func buildArgList(arguments string, parameters map[string]string) []reflect.Value {
	args := gjson.Parse(arguments)
	targs := make([]string, len(parameters))
	for k, v := range parameters {
		ns := strings.TrimPrefix(k, "param")
		i, _ := strconv.Atoi(ns)
		if i < 0 || i >= len(targs) {
			continue
		}
		targs[i] = v
	}

	toolArgs := make([]reflect.Value, 0)
	for _, arg := range targs {
		if arg == "" {
			continue
		}

		val := args.Get(arg)
		if !val.Exists() {
			continue
		}

		toolArgs = append(toolArgs, reflect.ValueOf(val.Value()))
	}
	return toolArgs
}

type toolResult struct {
	Value            string
	ContextVariables types.ContextVars
}

func callFunction(ctx context.Context, fn any, args []reflect.Value, contextVars types.ContextVars) (toolResult, error) {
	val := reflect.ValueOf(fn)
	vtpe := val.Type()

	numIn := vtpe.NumIn()
	callArgs := make([]reflect.Value, numIn)

	ai := 0
	for fi := 0; fi < numIn; fi++ {
		paramType := vtpe.In(fi)
		if paramType == reflect.TypeFor[context.Context]() {
			callArgs[fi] = reflect.ValueOf(ctx)
			continue
		}
		if reflectx.IsRefinedType[types.ContextVars](paramType) {
			callArgs[fi] = reflect.ValueOf(contextVars)
			continue
		}
		if ai < len(args) {
			vv := args[ai]
			ai++
			if vv.Type().ConvertibleTo(paramType) {
				callArgs[fi] = vv.Convert(paramType)
				continue
			}
		}
		callArgs[fi] = reflect.Zero(paramType)
	}

	results := val.Call(callArgs)
	if len(results) == 0 {
		return toolResult{}, nil
	}

	// A trailing error return aborts the call.
	for _, res := range results {
		if err, isErr := res.Interface().(error); isErr && err != nil {
			return toolResult{}, err
		}
	}

	res := results[0]
	if !res.IsValid() {
		return toolResult{}, nil
	}
	if res.Kind() == reflect.Interface && res.IsNil() {
		return toolResult{}, nil
	}

	switch rv := res.Interface().(type) {
	case error:
		return toolResult{}, rv
	case types.ContextVars:
		return toolResult{Value: "", ContextVariables: rv}, nil
	case string:
		return toolResult{Value: rv}, nil
	case time.Time:
		return toolResult{Value: rv.Format(time.RFC3339)}, nil
	case int, int8, int16, int32, int64:
		val := reflect.ValueOf(rv)
		return toolResult{Value: strconv.FormatInt(val.Int(), 10)}, nil
	case uint, uint8, uint16, uint32, uint64:
		val := reflect.ValueOf(rv)
		return toolResult{Value: strconv.FormatUint(val.Uint(), 10)}, nil
	case float32, float64:
		val := reflect.ValueOf(rv)
		return toolResult{Value: strconv.FormatFloat(val.Float(), 'f', -1, 64)}, nil
	case encoding.TextMarshaler:
		b, err := rv.MarshalText()
		if err != nil {
			slog.Error("Error marshalling function return", slogx.Error(err))
			return toolResult{}, err
		}
		return toolResult{Value: string(b)}, nil
	case fmt.Stringer:
		return toolResult{Value: rv.String()}, nil
	default:
		b, err := json.Marshal(rv)
		if err != nil {
			slog.Error("Error marshalling function return", slogx.Error(err))
			return toolResult{}, err
		}
		return toolResult{Value: string(b)}, nil
	}
}
