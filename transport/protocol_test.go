package transport

import (
	"errors"
	"testing"
)

func TestFirstProtocol(t *testing.T) {
	t.Parallel()

	cases := []struct {
		tags string
		want Protocol
		ok   bool
	}{
		{"http", ProtocolHTTP, true},
		{" GRPC ", ProtocolGRPC, true},
		{"v1,tcp,http", ProtocolTCP, true},
		{"foo,,bar", ProtocolUnknown, false},
		{"", ProtocolUnknown, false},
	}
	for _, c := range cases {
		got, ok := FirstProtocol(c.tags)
		if got != c.want || ok != c.ok {
			t.Fatalf("FirstProtocol(%q) = %v,%v want %v,%v", c.tags, got, ok, c.want, c.ok)
		}
	}
}

func TestNewDialer(t *testing.T) {
	t.Parallel()

	for _, p := range []Protocol{ProtocolHTTP, ProtocolGRPC, ProtocolTCP} {
		d, err := NewDialer(p, nil)
		if err != nil || d == nil {
			t.Fatalf("NewDialer(%s) err = %v", p, err)
		}
	}
	if _, err := NewDialer(ProtocolUnknown, nil); !errors.Is(err, ErrProtocolUnknown) {
		t.Fatalf("err = %v", err)
	}
	if ProtocolUnknown.String() != "unknown" || ProtocolGRPC.String() != "grpc" {
		t.Fatalf("unexpected names")
	}
}
