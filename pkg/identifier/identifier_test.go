package identifier

import (
	"testing"

	"utsav/pkg/domain"
)

func TestNewRegistrationIDShape(t *testing.T) {
	id := NewRegistrationID()
	parsed, err := domain.ParseRegistrationID(id.String())
	if err != nil {
		t.Fatalf("generated id failed to parse: %v", err)
	}
	if parsed != id {
		t.Fatalf("round trip changed id: %s != %s", parsed, id)
	}
	if len(id) != len(domain.RegistrationIDPrefix)+8 {
		t.Fatalf("unexpected id length: %q", id)
	}
}

func TestNewTransactionIDShape(t *testing.T) {
	id := NewTransactionID()
	if _, err := domain.ParseTransactionID(id.String()); err != nil {
		t.Fatalf("generated transaction id failed to parse: %v", err)
	}
}

// Ids come from UUID entropy, so a small sample must not collide.
func TestNoCollisionsInSample(t *testing.T) {
	seen := make(map[domain.RegistrationID]struct{}, 10000)
	for range 10000 {
		id := NewRegistrationID()
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id generated: %s", id)
		}
		seen[id] = struct{}{}
	}
}
