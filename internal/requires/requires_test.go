package requires

import (
	"errors"
	"testing"
)

type sample struct{}

func TestNotNil(t *testing.T) {
	var typedNil *sample
	var nilMap map[string]string

	tests := []struct {
		name    string
		value   any
		wantErr bool
	}{
		{"untyped nil", nil, true},
		{"typed nil pointer", typedNil, true},
		{"nil map", nilMap, true},
		{"pointer", &sample{}, false},
		{"string", "", false},
		{"int", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NotNil(tt.value, "arg")
			if (err != nil) != tt.wantErr {
				t.Fatalf("NotNil() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				return
			}
			if !errors.Is(err, ErrNilArgument) {
				t.Errorf("errors.Is(err, ErrNilArgument) = false")
			}
			var argErr *ArgumentError
			if !errors.As(err, &argErr) || argErr.Name != "arg" {
				t.Errorf("expected *ArgumentError named arg, got %v", err)
			}
		})
	}
}

func TestNotNilAll(t *testing.T) {
	err := NotNilAll(&sample{}, "first", nil, "second", nil, "third")
	var argErr *ArgumentError
	if !errors.As(err, &argErr) {
		t.Fatalf("expected *ArgumentError, got %v", err)
	}
	if argErr.Name != "second" {
		t.Errorf("Name = %q, want second", argErr.Name)
	}
	if argErr.Error() != "second: argument must not be nil" {
		t.Errorf("Error() = %q", argErr.Error())
	}

	if err := NotNilAll(&sample{}, "first"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
