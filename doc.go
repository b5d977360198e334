/*
Package automata orchestrates hierarchies of ranked agents.

An automaton is an autonomous agent with an integer rank. It may only
delegate to capabilities of strictly lower rank: sub-automata, or leaf tools
at the bottom of the hierarchy. Because every delegation edge descends, call
cycles cannot be constructed.

A typical composition builds the leaves first and stacks coordinators on
top:

	saveText := tool.Must(SaveText, tool.Name("save_text"), tool.Rank(1))

	creator := automaton.Must(
		automaton.Name("quiz_creator"),
		automaton.Rank(2),
		automaton.Tools(saveText),
		automaton.WithPlanner(planner.Sequential()),
	)

	h := automata.New(
		automata.Automata(creator),
		automata.Steps(automata.Step(creator.Name(), "a math quiz")),
	)

	err := h.Run(ctx, automata.Local[string](hook))

Automata can also be declared in YAML and assembled by the spec package, or
wrapped as tools with AsTool to appear as leaf capabilities of a higher
coordinator.
*/
package automata
