package planner

import (
	"context"
	"fmt"
)

// Sequential returns a planner that delegates the original request to each
// capability once, in declared order, then finalizes with the last result.
// The finalize capability is skipped during the walk; it must be present so
// the run can terminate.
func Sequential() Planner {
	return Func(func(_ context.Context, in Input) (Plan, error) {
		if _, ok := findByID(in.Capabilities, FinalizeID); !ok {
			return Plan{}, fmt.Errorf("sequential planner requires a capability with id %q", FinalizeID)
		}

		var pending []Descriptor
		for _, c := range in.Capabilities {
			if c.ID != FinalizeID {
				pending = append(pending, c)
			}
		}

		idx := len(in.Steps)
		if idx < len(pending) {
			next := pending[idx]
			return Plan{
				Action: Action{AutomatonID: next.ID, Request: in.Request},
				Text:   fmt.Sprintf("delegate to %s (%d of %d)", next.ID, idx+1, len(pending)),
			}, nil
		}

		result, ok := lastResult(in.Steps)
		if !ok {
			result = in.Request
		}
		return Plan{
			Action: Action{AutomatonID: FinalizeID, Request: result},
			Text:   "all capabilities consulted, finalizing",
		}, nil
	})
}
