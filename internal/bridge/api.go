package bridge

import (
	"context"
	"encoding/json"
	"fmt"
)

// RunAsFunc delivers code into a scope on behalf of the code triggered by
// origin.
type RunAsFunc func(ctx context.Context, origin TriggerMessage, scope string, code Code, params any) error

// API is the object exposed to user code for one trigger message.
//
// Message is a deep copy: user code may change it freely without
// affecting the trigger context that RunAs forwards.
type API struct {
	// Message is the deep-cloned message as generic JSON values.
	Message map[string]any

	original TriggerMessage
	runAs    RunAsFunc
}

// NewAPI builds the API surface for msg. The clone goes through a JSON
// round trip, so a message that cannot be encoded is rejected here. msg is
// not modified.
func NewAPI(msg TriggerMessage, runAs RunAsFunc) (*API, error) {
	raw, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotSerializable, err)
	}

	var clone map[string]any
	if err := json.Unmarshal(raw, &clone); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotSerializable, err)
	}

	return &API{
		Message:  clone,
		original: msg,
		runAs:    runAs,
	}, nil
}

// Code returns the code the surface was built to run.
func (a *API) Code() Code {
	return a.original.Code
}

// Fields returns the promoted view: every field of the cloned message at
// the top level plus the clone itself under "message". Nested values are
// shared with Message.
func (a *API) Fields() map[string]any {
	fields := make(map[string]any, len(a.Message)+1)
	for k, v := range a.Message {
		fields[k] = v
	}
	fields["message"] = a.Message
	return fields
}

// Trigger returns the message the surface was built from.
func (a *API) Trigger() TriggerMessage {
	return a.original
}

// RunAs runs code in the named scope with the original trigger context.
// An unrecognized scope fails with a *ConfigurationError before anything
// is sent.
func (a *API) RunAs(ctx context.Context, scope string, code Code, params any) error {
	if _, err := ParseScope(scope); err != nil {
		return err
	}
	if a.runAs == nil {
		return fmt.Errorf("runAs %s: no dispatcher bound", scope)
	}
	return a.runAs(ctx, a.Trigger(), scope, code, params)
}
