package tool

import (
	"context"
	"fmt"
	"reflect"
	"runtime"
	"strings"

	"github.com/casualjim/automata/pkg/reflectx"
	"github.com/casualjim/automata/pkg/stdx"
	"github.com/casualjim/automata/types"
	"github.com/fogfish/opts"
	"github.com/invopop/jsonschema"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Definition describes a callable tool: its name, documentation, parameter
// names, rank within the hierarchy, and the function that implements it.
//
// Rank places the tool in the hierarchy's strict ordering. An automaton may
// only carry tools of strictly lower rank than its own; plain functions
// default to rank 0, while wrapped automata inherit the rank they were
// composed with.
type Definition struct {
	Name        string
	Description string
	Parameters  map[string]string
	Rank        int
	Function    any
}

var functionReflector = jsonschema.Reflector{
	AllowAdditionalProperties: true,
	DoNotReference:            true,
}

// ToNameAndSchema reflects the tool function into a JSON schema describing
// its parameters.
func (td Definition) ToNameAndSchema() (string, *jsonschema.Schema) {
	return functionDefinitionJSON(&functionReflector, td)
}

func functionDefinitionJSON(reflector *jsonschema.Reflector, f Definition) (string, *jsonschema.Schema) {
	val := reflect.ValueOf(f.Function)
	typ := val.Type()

	name := f.Name
	if name == "" && typ.Kind() == reflect.Func {
		// Named function types report their type name, anonymous functions
		// and methods fall back to the runtime symbol.
		if typ.Name() != "" {
			name = typ.String()
		} else if fn := runtime.FuncForPC(val.Pointer()); fn != nil {
			name = fn.Name()
			if lastDot := strings.LastIndex(name, "."); lastDot >= 0 {
				name = name[lastDot+1:]
			}
		} else {
			name = typ.String()
		}
	}

	schema := &jsonschema.Schema{
		Type:       "object",
		Properties: orderedmap.New[string, *jsonschema.Schema](),
	}

	if typ.Kind() == reflect.Func {
		numIn := typ.NumIn()
		startIdx := 0
		// Skip receiver for methods.
		if numIn > 0 && typ.In(0).Kind() == reflect.Struct {
			startIdx = 1
		}

		var required []string
		argIdx := 0
		for i := startIdx; i < numIn; i++ {
			paramType := typ.In(i)
			if paramType == reflect.TypeFor[context.Context]() {
				continue
			}
			if reflectx.IsRefinedType[types.ContextVars](paramType) {
				continue
			}

			paramName := fmt.Sprintf("param%d", argIdx)
			argIdx++
			if f.Parameters != nil {
				if p, ok := f.Parameters[paramName]; ok {
					paramName = p
				}
			}

			propSchema := reflector.ReflectFromType(paramType)
			propSchema.Version = ""
			schema.Properties.Set(paramName, propSchema)
			required = append(required, paramName)
		}
		if len(required) > 0 {
			schema.Required = required
		}
	}

	return name, schema
}

// Option configures a tool definition.
type Option = opts.Option[Definition]

// Must creates a tool definition and panics when New would return an error.
// Use it for tools defined at package init time where a bad definition is a
// programming error.
func Must(f any, options ...Option) Definition {
	return stdx.Must1(New(f, options...))
}

// New creates a tool definition from the provided function and options. The
// value must be a function; the name defaults to the function's symbol name
// when no Name option is given.
func New(f any, options ...Option) (Definition, error) {
	if !reflectx.IsFunction(f) {
		return Definition{}, fmt.Errorf("provided value is not a function")
	}

	var def Definition
	if err := opts.Apply(&def, options); err != nil {
		return Definition{}, err
	}
	if def.Name == "" {
		def.Name = reflectx.FunctionName(f)
	}
	if def.Rank < 0 {
		return Definition{}, fmt.Errorf("tool %q has negative rank %d", def.Name, def.Rank)
	}

	def.Function = f
	return def, nil
}

// Name sets the tool's name.
var Name = opts.ForName[Definition, string]("Name")

// Description sets the tool's human-readable description.
var Description = opts.ForName[Definition, string]("Description")

// Rank sets the tool's rank in the hierarchy. Plain functions default to 0.
var Rank = opts.ForName[Definition, int]("Rank")

// Parameters names the tool function's positional parameters in order. The
// names appear in the generated schema and in delegation requests.
func Parameters(parameters ...string) opts.Option[Definition] {
	return opts.Type[Definition](func(o *Definition) error {
		o.Parameters = make(map[string]string, len(parameters))
		for i, p := range parameters {
			o.Parameters[fmt.Sprintf("param%d", i)] = p
		}
		return nil
	})
}
