package tool

import (
	"context"
	"errors"
	"testing"
)

func TestRegistryExecute(t *testing.T) {
	reg := NewRegistry()
	reg.Register(Definition{Function: Function{Name: "echo"}}, func(ctx context.Context, args string) (string, error) {
		return "echo: " + args, nil
	})

	got, err := reg.Execute(context.Background(), "echo", `{"x":1}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != `echo: {"x":1}` {
		t.Errorf("got %q", got)
	}

	_, err = reg.Execute(context.Background(), "missing", "{}")
	if !errors.Is(err, ErrUnknownTool) {
		t.Errorf("got %v, want ErrUnknownTool", err)
	}
}

func TestRegistryReplace(t *testing.T) {
	reg := NewRegistry()
	reg.Register(Definition{Function: Function{Name: "a", Description: "first"}}, nil)
	reg.Register(Definition{Function: Function{Name: "a", Description: "second"}}, nil)

	defs := reg.Definitions()
	if len(defs) != 1 {
		t.Fatalf("got %d definitions, want 1", len(defs))
	}
	if defs[0].Function.Description != "second" {
		t.Errorf("got %q, want second", defs[0].Function.Description)
	}
	if defs[0].Type != "function" {
		t.Errorf("got type %q, want function", defs[0].Type)
	}
	if !reg.Has("a") {
		t.Error("expected Has(a)")
	}
}
