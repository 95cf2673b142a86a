package layer

import (
	"errors"
	"testing"
)

func TestAsErrorAndMessage(t *testing.T) {
	boom := errors.New("boom")
	display, msg := AsErrorAndMessage(boom)
	if display != boom {
		t.Fatalf("expected the error itself, got %#v", display)
	}
	if msg != "boom" {
		t.Fatalf("unexpected message: %q", msg)
	}

	tests := []struct {
		in   any
		want string
	}{
		{in: 42, want: "42"},
		{in: "plain", want: "plain"},
		{in: nil, want: "<nil>"},
		{in: struct{ A int }{A: 1}, want: "{1}"},
	}
	for _, tc := range tests {
		display, msg := AsErrorAndMessage(tc.in)
		if display != tc.want || msg != tc.want {
			t.Fatalf("AsErrorAndMessage(%#v): got=(%#v, %q) want=(%q, %q)", tc.in, display, msg, tc.want, tc.want)
		}
	}
}
