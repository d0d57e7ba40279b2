package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/scholarline/scholarline/engine/internal/store"
)

func TestSeedAndListScholarships(t *testing.T) {
	ctx := context.Background()
	m := New()
	m.SeedScholarships([]store.Scholarship{
		{ID: "sch-2", Name: "Beta Grant"},
		{ID: "sch-1", Name: "Alpha Grant", Tags: []string{"stem"}},
		{ID: "sch-3", Name: "Gamma Grant"},
	})

	results, err := m.ListScholarships(ctx, 0)
	if err != nil {
		t.Fatalf("ListScholarships: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 scholarships, got %d", len(results))
	}
	if results[0].ID != "sch-1" || results[2].ID != "sch-3" {
		t.Errorf("not sorted by ID: %v", results)
	}

	limited, err := m.ListScholarships(ctx, 2)
	if err != nil {
		t.Fatalf("ListScholarships: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("expected limit applied, got %d", len(limited))
	}
}

func TestGetScholarship_CloneIsolation(t *testing.T) {
	ctx := context.Background()
	m := New()
	m.SeedScholarships([]store.Scholarship{{ID: "sch-1", Tags: []string{"stem"}, Embedding: []float64{0.1, 0.2}}})

	first, err := m.GetScholarship(ctx, "sch-1")
	if err != nil {
		t.Fatalf("GetScholarship: %v", err)
	}
	first.Tags[0] = "mutated"
	first.Embedding[0] = 9.9

	second, _ := m.GetScholarship(ctx, "sch-1")
	if second.Tags[0] != "stem" || second.Embedding[0] != 0.1 {
		t.Errorf("stored scholarship mutated through returned copy: %+v", second)
	}
}

func TestGetScholarship_Missing(t *testing.T) {
	m := New()
	scholarship, err := m.GetScholarship(context.Background(), "nope")
	if err != nil {
		t.Fatalf("GetScholarship: %v", err)
	}
	if scholarship != nil {
		t.Errorf("expected nil for missing scholarship")
	}
}

func TestApplicationsDefaultStatusAndOrdering(t *testing.T) {
	ctx := context.Background()
	m := New()
	if err := m.CreateApplication(ctx, store.Application{ID: "app-1", ScholarshipID: "sch-1", CreatedAt: "2026-01-01T00:00:00Z"}); err != nil {
		t.Fatalf("CreateApplication: %v", err)
	}
	if err := m.CreateApplication(ctx, store.Application{ID: "app-2", ScholarshipID: "sch-2", Status: "Submitted", CreatedAt: "2026-02-01T00:00:00Z"}); err != nil {
		t.Fatalf("CreateApplication: %v", err)
	}

	first, _ := m.GetApplication(ctx, "app-1")
	if first.Status != "Pending" {
		t.Errorf("default status = %q, want Pending", first.Status)
	}

	all, err := m.ListApplications(ctx)
	if err != nil {
		t.Fatalf("ListApplications: %v", err)
	}
	if len(all) != 2 || all[0].ID != "app-2" {
		t.Errorf("expected newest first, got %v", all)
	}
}

func TestTasksByApplication(t *testing.T) {
	ctx := context.Background()
	m := New()
	for i := 1; i <= 3; i++ {
		task := store.Task{
			ID:            fmt.Sprintf("task-%d", i),
			ApplicationID: "app-1",
			Title:         fmt.Sprintf("Step %d", i),
			Priority:      "Medium",
			CreatedAt:     "2026-01-01T00:00:00Z",
		}
		if err := m.CreateTask(ctx, task); err != nil {
			t.Fatalf("CreateTask: %v", err)
		}
	}
	_ = m.CreateTask(ctx, store.Task{ID: "task-other", ApplicationID: "app-2", Title: "Other"})

	tasks, err := m.ListTasksByApplication(ctx, "app-1")
	if err != nil {
		t.Fatalf("ListTasksByApplication: %v", err)
	}
	if len(tasks) != 3 {
		t.Fatalf("expected 3 tasks, got %d", len(tasks))
	}
	if tasks[0].ID != "task-1" || tasks[2].ID != "task-3" {
		t.Errorf("tasks not ordered: %v", tasks)
	}
	if tasks[0].Status != "pending" {
		t.Errorf("default task status = %q", tasks[0].Status)
	}
}

func TestConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	m := New()
	m.SeedScholarships([]store.Scholarship{{ID: "sch-1"}})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = m.CreateApplication(ctx, store.Application{ID: fmt.Sprintf("app-%d", i), ScholarshipID: "sch-1"})
			_, _ = m.ListApplications(ctx)
			_, _ = m.GetScholarship(ctx, "sch-1")
		}(i)
	}
	wg.Wait()

	all, err := m.ListApplications(ctx)
	if err != nil {
		t.Fatalf("ListApplications: %v", err)
	}
	if len(all) != 16 {
		t.Errorf("expected 16 applications, got %d", len(all))
	}
}
