package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/matzehuels/stackdiagram/pkg/diagram"
	"github.com/matzehuels/stackdiagram/pkg/errors"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close()

	r := NewRecord("X", "abc", []string{"svg"}, map[string][]byte{"svg": []byte("<svg/>")}, diagram.Stats{Nodes: 2})
	if err := s.Save(ctx, r); err != nil {
		t.Fatal(err)
	}

	got, err := s.Get(ctx, r.ID)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(r, got); diff != "" {
		t.Errorf("Get() mismatch (-want +got):\n%s", diff)
	}

	// Stored copies are isolated from the caller.
	got.Artifacts["svg"] = []byte("changed")
	again, _ := s.Get(ctx, r.ID)
	if string(again.Artifacts["svg"]) != "<svg/>" {
		t.Error("Get() returned shared artifact map")
	}

	if _, err := s.Get(ctx, uuid.New()); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Get(unknown) error = %v, want NOT_FOUND", err)
	}
	if err := s.Save(ctx, &Record{}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Save(no id) error = %v, want INVALID_INPUT", err)
	}
}

func TestMemoryStoreList(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var ids []uuid.UUID
	for i := range 5 {
		r := NewRecord("r", "h", []string{"png"}, map[string][]byte{"png": {1}}, diagram.Stats{})
		r.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		ids = append(ids, r.ID)
		if err := s.Save(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	list, err := s.List(ctx, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 3 {
		t.Fatalf("List(3) returned %d records", len(list))
	}
	for i, r := range list {
		if r.ID != ids[4-i] {
			t.Errorf("List()[%d] = %s, want newest first", i, r.ID)
		}
		if r.Artifacts != nil {
			t.Error("List() must not return artifacts")
		}
	}

	all, _ := s.List(ctx, 0)
	if len(all) != 5 {
		t.Errorf("List(0) returned %d records, want all 5", len(all))
	}
}

func TestMemoryStoreConcurrent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := NewRecord("c", "h", nil, nil, diagram.Stats{})
			_ = s.Save(ctx, r)
			_, _ = s.Get(ctx, r.ID)
			_, _ = s.List(ctx, 10)
		}()
	}
	wg.Wait()

	if all, _ := s.List(ctx, DefaultListLimit); len(all) != 20 {
		t.Errorf("stored %d records, want 20", len(all))
	}
}

func TestMongoRecordConversion(t *testing.T) {
	r := NewRecord("X", "abc", []string{"svg", "png"}, map[string][]byte{"svg": []byte("s")}, diagram.Stats{Nodes: 3, Clusters: 1, Edges: 2, MaxDepth: 1})
	back, err := toMongo(r).record()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(r, back); diff != "" {
		t.Errorf("conversion mismatch (-want +got):\n%s", diff)
	}

	if _, err := (mongoRecord{ID: "not-a-uuid"}).record(); err == nil {
		t.Error("record() should reject a malformed id")
	}
}
