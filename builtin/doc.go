// Package builtin provides the function runners that ship with the module:
// small leaf automata like save_text, think, finalize, and assistant. They
// are wired into hierarchies through the spec loader or attached directly as
// runners on rank-1 automata.
package builtin
