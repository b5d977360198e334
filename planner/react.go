package planner

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/casualjim/automata/api"
)

const directivesTemplate = "You are simulating the output of an \"Automaton\" called `%[1]s`. Automata are advanced AI agents capable of fulfilling requests in a predictable way.\n\n" +
	"Request: `%[1]s` has been asked to complete the following Request:\n```\n%[2]s\n```\n\n" +
	"Sub-Automata: Sub-Automata are subsidiary agents that an Automaton can call upon to perform tasks needed to perform the Request. `%[1]s` has access to the following sub-automata:\n%[3]s\n\n" +
	"Reasoning Thoughtcycle:\n" +
	"`%[1]s` goes through a consistent reasoning process to standardize the process for completing requests. To make use of it, it outputs the following thoughtcycle:\n" +
	"```thoughtcycle_format\n" +
	"Reflection: `%[1]s` reflects abstractly upon the events that have occurred so far, as well as relevant information it can recall from its knowledge\n" +
	"Thought: `%[1]s` analyzes its Result, Reflection and Progress Record to come to a decision about the current status of the Request\n" +
	"Progress Record: `%[1]s` keeps track of an itemized record of actions taken so far and their outcomes, including the names of artifacts (e.g. files) generated\n" +
	"Next Action: a concrete, achievable action that can be taken by a Sub-Automaton to make progress on the Request\n" +
	"Sub-Automaton Name: the name of the Sub-Automaton to request the Next Action. MUST be one of the following: [%[4]s]\n" +
	"Sub-Automaton Input Requirements: the Input Requirements of the Sub-Automaton being used, copied from above\n" +
	"Sub-Automaton Input: the request to send to the Sub-Automaton. This MUST follow any Input Requirements of the Sub-Automaton, as described above\n" +
	"Result: the reply from the Sub-Automaton, which can include error messages or requests for clarification\n" +
	"... (this `Reflection -> Progress Record -> Thought -> Next Action -> Sub-Automaton Name -> Sub-Automaton Input Requirements -> Sub-Automaton Input -> Result` thoughtcycle repeats until no further delegation to Sub-Automata is needed, or `%[1]s` determines that the Request cannot be completed)\n" +
	"```\n\n" +
	"General instructions regarding the `%[1]s`'s work process:\n" +
	"- `%[1]s` always adheres to the Input Requirements of the Sub-Automata it uses\n" +
	"- `%[1]s`'s output always follows the format of the thoughtcycle defined above\n" +
	"- when `%[1]s` receives a reply from a Sub-Automaton, it will always parse the reply and use it to update its Progress Record\n" +
	"- if `%[1]s` completes the request and OR it determines that the Request cannot be completed, it uses the `Finalize Reply` Sub-Automaton to report its result back to the requester\n\n" +
	"Begin the simulation of `%[1]s` below, after the divider. Do not include any other text besides what `%[1]s` would output."

const correctionText = "I must output the following:\n" +
	"- the `Sub-Automaton Name` to send a request to\n" +
	"- the `Input Requirements`\n" +
	"- what `Sub-Automaton Input` to send\n" +
	"The output must follow the format specified in the `thoughtcycle_format` block above"

var actionPattern = regexp.MustCompile(
	`(?s)Sub-Automaton Name\s*\d*\s*:(.*?)\nSub-Automaton\s*\d*\s*Input\s*\d*\s*Requirements\s*\d*\s*:(.*?)\nSub-Automaton\s*\d*\s*Input\s*\d*\s*:\s*(.*)`,
)

// ParseThoughtcycle extracts the chosen sub-automaton name and request from a
// thoughtcycle completion. When the completion does not follow the format,
// the returned name is "Think" and the request is a correction the automaton
// can act on.
func ParseThoughtcycle(completion string) (name, request string) {
	match := actionPattern.FindStringSubmatch(completion)
	if match == nil {
		return "Think", correctionText
	}

	clean := func(s string) string {
		s = strings.TrimSpace(s)
		s = strings.Trim(s, `"`)
		return strings.Trim(s, ".")
	}
	return clean(match[1]), clean(match[3])
}

// React returns a planner that drives a text engine through the thoughtcycle
// and parses the chosen delegation out of the completion. It requires a
// capability with id "think" so malformed completions have somewhere to go.
func React(engine api.Engine) (Planner, error) {
	if engine == nil {
		return nil, fmt.Errorf("react planner requires an engine")
	}

	return Func(func(ctx context.Context, in Input) (Plan, error) {
		if _, ok := findByID(in.Capabilities, ThinkID); !ok {
			return Plan{}, fmt.Errorf("react planner requires a capability with id %q", ThinkID)
		}

		prompt := reactPrompt(in)
		completion, err := engine.Complete(ctx, prompt)
		if err != nil {
			return Plan{}, fmt.Errorf("react planner: %w", err)
		}
		completion = truncateAtStop(strings.TrimSpace(completion))

		name, request := ParseThoughtcycle(completion)
		for _, c := range in.Capabilities {
			// Spec-built capabilities are keyed by lowercase ids while the
			// thoughtcycle uses display names, so match either, ignoring case.
			if strings.EqualFold(c.Name, name) || strings.EqualFold(c.ID, name) {
				return Plan{Action: Action{AutomatonID: c.ID, Request: request}, Text: completion}, nil
			}
		}

		names := make([]string, len(in.Capabilities))
		for i, c := range in.Capabilities {
			names[i] = fmt.Sprintf("%q", c.Name)
		}
		return Plan{
			Action: Action{
				AutomatonID: ThinkID,
				Request:     fmt.Sprintf("The Sub-Automaton Name must be one of the following: [%s]", strings.Join(names, ", ")),
			},
			Text: completion,
		}, nil
	}), nil
}

func reactPrompt(in Input) string {
	names := make([]string, len(in.Capabilities))
	descriptions := make([]string, len(in.Capabilities))
	for i, c := range in.Capabilities {
		names[i] = fmt.Sprintf("%q", c.Name)

		reqs := make([]string, len(c.InputRequirements))
		for j, r := range c.InputRequirements {
			reqs[j] = fmt.Sprintf("%c. %s", 'a'+j, r)
		}
		descriptions[i] = fmt.Sprintf("`%s`:\n- Description: %s\n- Input Requirements:\n  %s",
			c.Name, c.Description, strings.Join(reqs, "\n  "))
	}

	directives := fmt.Sprintf(directivesTemplate,
		in.AutomatonName, in.Request, strings.Join(descriptions, "\n"), strings.Join(names, ", "))

	reflection := "None"
	if len(in.Reflections) > 0 {
		lines := make([]string, len(in.Reflections))
		for i, r := range in.Reflections {
			lines[i] = " -" + r
		}
		reflection = strings.Join(lines, "\n")
	}
	stepIntro := fmt.Sprintf("---`%s`: Thoughtcycle---\n\nReflection:\n%s\n\nThought:", in.AutomatonName, reflection)

	var previous strings.Builder
	for _, step := range in.Steps {
		fmt.Fprintf(&previous, "%s\n%s\n\nResult:\n%s\n\n", stepIntro, step.PlanText, step.Result)
	}

	return directives + "\n\n" + previous.String() + stepIntro
}

// truncateAtStop cuts the completion at the markers that end a planning turn,
// mirroring the stop sequences the thoughtcycle uses.
func truncateAtStop(s string) string {
	for _, stop := range []string{"\nResult:", "\n---"} {
		if idx := strings.Index(s, stop); idx >= 0 {
			s = s[:idx]
		}
	}
	return strings.TrimSpace(s)
}
