/*
Package tool defines the callable leaves of an automaton hierarchy. A tool is
a plain Go function with metadata: a name, a description, named parameters,
and a rank that places it in the hierarchy's strict ordering.

Tools generate JSON schemas for their parameters through reflection, so an
automaton can advertise its capabilities without hand-written schemas:

	func savePoem(text string, location string) (string, error) { ... }

	def := tool.Must(savePoem,
		tool.Name("save_text"),
		tool.Description("Persists text to a file"),
		tool.Parameters("text", "location"),
	)

Functions may take a types.ContextVars parameter; it is injected at call time
and excluded from the generated schema.
*/
package tool
