// Package bridge routes user code into an execution scope.
//
// Code runs in one of two scopes: the privileged background scope of the
// agent, or the content scope of a tab. A Bridge owns one local scope and
// an evaluator (Runner) for it; messages for the other scope leave through
// a Transport.
//
// # Trigger messages
//
// A TriggerMessage carries the code to run, its parameters and the click
// context (tab, click info, item settings). It is the only thing that
// crosses a scope boundary, so every field must survive JSON encoding.
//
// # Code
//
// Code is either source text or a closure descriptor. Closures do not
// carry their lexical environment across a boundary: a descriptor names
// the chunk a function was defined in and the path of its prototype
// inside that chunk, and the receiving evaluator re-instantiates it with
// no upvalues. The text form of a closure is ordinary source text with a
// header comment, so closures travel through the same "code" field as
// plain source.
//
// # API surface
//
// User code never sees a TriggerMessage directly. NewAPI deep-clones the
// message, promotes its fields to the top level, adds the clone as
// "message" and binds RunAs to the original message, so further
// delegation carries the authentic trigger context no matter what the
// user code did to its copy.
package bridge
