package di

import "testing"

type greeter interface{ Greet() string }

type english struct{}

func (e english) Greet() string { return "hello" }

func TestTokenFactoryIsLazySingleton(t *testing.T) {
	c := NewContainer()
	built := 0
	tok := NewToken[greeter]("test.greeter")

	RegisterToken(c, tok, func(ServiceRegistry) greeter {
		built++
		return english{}
	})

	if built != 0 {
		t.Fatal("factory should not run before first Get")
	}

	first := GetToken(c, tok)
	second := GetToken(c, tok)

	if built != 1 {
		t.Errorf("factory ran %d times, want 1", built)
	}
	if first.Greet() != "hello" || second.Greet() != "hello" {
		t.Error("unexpected service value")
	}
}

func TestFactoriesResolveDependencies(t *testing.T) {
	c := NewContainer()
	c.Register("config", "value")

	tok := NewToken[string]("test.derived")
	RegisterToken(c, tok, func(sr ServiceRegistry) string {
		return sr.Get("config").(string) + "-derived"
	})

	if got := GetToken(c, tok); got != "value-derived" {
		t.Errorf("got %q", got)
	}
	if !c.Has("config") || c.Has("missing") {
		t.Error("Has reported wrong membership")
	}
}

func TestGetUnknownPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for unknown service")
		}
	}()
	NewContainer().Get("nope")
}

func TestGetTokenNilOptionalService(t *testing.T) {
	c := NewContainer()
	tok := NewToken[greeter]("optional")
	RegisterToken(c, tok, func(ServiceRegistry) greeter { return nil })

	if got := GetToken(c, tok); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}
