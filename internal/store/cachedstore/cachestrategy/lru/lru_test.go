package lru

import "testing"

func TestStrategy_Evicts(t *testing.T) {
	s, err := New(2)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	s.Add("a", []byte("1"))
	s.Add("b", []byte("2"))
	s.Get("a")
	if evicted := s.Add("c", []byte("3")); !evicted {
		t.Error("Add() over capacity should evict")
	}

	if _, ok := s.Get("b"); ok {
		t.Error("least recently used key b should be evicted")
	}
	if _, ok := s.Get("a"); !ok {
		t.Error("recently used key a should be kept")
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
}

func TestNew_InvalidCapacity(t *testing.T) {
	if _, err := New(0); err == nil {
		t.Error("New(0) should return error")
	}
}
