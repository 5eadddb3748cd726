package store

import "testing"

func TestMemoryStoreMarkAndSeen(t *testing.T) {
	s := NewMemoryStore()

	if s.Seen("quake-1") {
		t.Error("Expected fresh store to report unseen")
	}
	if s.Len() != 0 {
		t.Errorf("Expected empty store, got %d", s.Len())
	}

	if err := s.Mark("quake-1"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !s.Seen("quake-1") {
		t.Error("Expected marked id to be seen")
	}
	if s.Seen("quake-2") {
		t.Error("Expected unmarked id to be unseen")
	}
	if s.Len() != 1 {
		t.Errorf("Expected 1 id, got %d", s.Len())
	}
}

func TestMemoryStoreMarkIdempotent(t *testing.T) {
	s := NewMemoryStore()

	for i := 0; i < 3; i++ {
		if err := s.Mark("quake-1"); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
	}
	if s.Len() != 1 {
		t.Errorf("Expected 1 id after repeated marks, got %d", s.Len())
	}
}

func TestMemoryStoreClose(t *testing.T) {
	s := NewMemoryStore()
	if err := s.Close(); err != nil {
		t.Errorf("Expected no error on close, got %v", err)
	}
}
