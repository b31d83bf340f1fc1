package recordstore

import (
	"errors"
	"strings"
	"testing"
)

func TestOutcomeConstructors(t *testing.T) {
	if o := Accepted(); !o.OK() || o.String() != "success" {
		t.Fatalf("unexpected accepted outcome %v", o)
	}

	o := Declined("duplicate name")
	if o.OK() || o.Kind != Rejected || o.Message != "duplicate name" {
		t.Fatalf("unexpected declined outcome %+v", o)
	}
	if o.String() != "rejected: duplicate name" {
		t.Fatalf("String() = %q", o.String())
	}

	o = Failed(errors.New("connection refused"))
	if o.OK() || o.Kind != TransportFailure || o.Err == nil {
		t.Fatalf("unexpected failed outcome %+v", o)
	}
	if !strings.Contains(o.String(), "connection refused") {
		t.Fatalf("String() = %q", o.String())
	}
}

func TestOutcomeKindString(t *testing.T) {
	tests := map[OutcomeKind]string{
		Success:          "success",
		Rejected:         "rejected",
		TransportFailure: "transport_failure",
		OutcomeKind(42):  "outcome(42)",
	}
	for kind, want := range tests {
		if got := kind.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", int(kind), got, want)
		}
	}
}
