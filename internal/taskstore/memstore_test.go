package taskstore

import (
	"context"
	"fmt"
	"testing"
	"time"

	"creditdesk/internal/domain"
)

func TestMemStore_RecordThenGet_ShouldRoundTrip(t *testing.T) {
	m := NewMemStore()
	ctx := context.Background()

	rec, err := m.RecordTask(ctx, "ACME Industrial", "Smith", "chase rent roll", "")
	if err != nil {
		t.Fatal(err)
	}
	if rec.Status != domain.StatusOpen {
		t.Errorf("default status: want open, got %q", rec.Status)
	}
	if rec.TaskID == "" {
		t.Error("task id missing")
	}

	got, err := m.GetTasks(ctx, domain.TaskFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].TaskID != rec.TaskID {
		t.Errorf("round trip: got %+v", got)
	}
}

func TestMemStore_RecordTask_WhenInvalidStatus_ShouldError(t *testing.T) {
	m := NewMemStore()
	if _, err := m.RecordTask(context.Background(), "A", "B", "C", "paused"); err == nil {
		t.Error("expected error")
	}
}

func TestMemStore_GetTasks_ShouldMatchBorrowerCaseInsensitivePartial(t *testing.T) {
	m := NewMemStore()
	ctx := context.Background()
	if _, err := m.RecordTask(ctx, "ACME Industrial LLC", "Smith", "a", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := m.RecordTask(ctx, "Greenfield Storage", "Lopez", "b", ""); err != nil {
		t.Fatal(err)
	}

	got, err := m.GetTasks(ctx, domain.TaskFilter{Borrower: "acme"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Borrower != "ACME Industrial LLC" {
		t.Errorf("partial match: got %+v", got)
	}
}

func TestMemStore_GetTasks_ShouldFilterStatusExactly(t *testing.T) {
	m := NewMemStore()
	ctx := context.Background()
	if _, err := m.RecordTask(ctx, "A", "Smith", "x", domain.StatusOpen); err != nil {
		t.Fatal(err)
	}
	if _, err := m.RecordTask(ctx, "B", "Smith", "y", domain.StatusBlocked); err != nil {
		t.Fatal(err)
	}

	got, err := m.GetTasks(ctx, domain.TaskFilter{Status: domain.StatusBlocked})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Borrower != "B" {
		t.Errorf("status filter: got %+v", got)
	}
}

func TestMemStore_GetTasks_ShouldReturnNewestFirst(t *testing.T) {
	m := NewMemStore()
	base := time.UnixMilli(1730000000000)
	step := 0
	m.nowFunc = func() time.Time {
		step++
		return base.Add(time.Duration(step) * time.Second)
	}
	ctx := context.Background()

	first, _ := m.RecordTask(ctx, "Old", "Smith", "x", "")
	second, _ := m.RecordTask(ctx, "New", "Smith", "y", "")

	got, err := m.GetTasks(ctx, domain.TaskFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("len: got %d", len(got))
	}
	if got[0].TaskID != second.TaskID || got[1].TaskID != first.TaskID {
		t.Errorf("order: got %s then %s", got[0].TaskID, got[1].TaskID)
	}
}

func TestMemStore_RecordTask_WhenSameMillisecond_ShouldStillGetUniqueIDs(t *testing.T) {
	m := NewMemStore()
	fixed := time.UnixMilli(1730000000000)
	m.nowFunc = func() time.Time { return fixed }
	ctx := context.Background()

	a, _ := m.RecordTask(ctx, "A", "S", "x", "")
	b, _ := m.RecordTask(ctx, "B", "S", "y", "")
	if a.TaskID == b.TaskID {
		t.Errorf("ids must be unique, both %q", a.TaskID)
	}
}

func TestMemStore_GetTasks_ShouldCapRows(t *testing.T) {
	m := NewMemStore()
	ctx := context.Background()
	for i := 0; i < maxQueryRows+20; i++ {
		if _, err := m.RecordTask(ctx, fmt.Sprintf("B%d", i), "S", "x", ""); err != nil {
			t.Fatal(err)
		}
	}

	got, err := m.GetTasks(ctx, domain.TaskFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != maxQueryRows {
		t.Errorf("cap: want %d, got %d", maxQueryRows, len(got))
	}
}

func TestMemStore_Health_ShouldBeHealthy(t *testing.T) {
	if err := NewMemStore().Health(context.Background()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
