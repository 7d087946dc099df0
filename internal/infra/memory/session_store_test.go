package memory

import "testing"

func TestSessionStoreLifecycle(t *testing.T) {
	store := NewSessionStore()

	session := store.GetOrCreate("s1", "u1")
	if session == nil {
		t.Fatalf("expected session")
	}
	if session.UserID() != "u1" {
		t.Fatalf("expected owner u1, got %s", session.UserID())
	}

	again := store.GetOrCreate("s1", "u1")
	if again != session {
		t.Fatalf("expected the same session instance")
	}

	if _, ok := store.Get("s1"); !ok {
		t.Fatalf("expected session present")
	}

	store.Delete("s1")
	if _, ok := store.Get("s1"); ok {
		t.Fatalf("expected session removed")
	}
}
