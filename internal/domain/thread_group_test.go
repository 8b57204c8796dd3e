package domain

import (
	"testing"
	"time"
)

func TestGroupThreads(t *testing.T) {
	now := time.Date(2025, 6, 10, 15, 0, 0, 0, time.UTC)
	threads := []Thread{
		{ID: "today-early", UpdatedAt: time.Date(2025, 6, 10, 1, 0, 0, 0, time.UTC)},
		{ID: "today-late", UpdatedAt: time.Date(2025, 6, 10, 14, 0, 0, 0, time.UTC)},
		{ID: "yesterday", UpdatedAt: time.Date(2025, 6, 9, 23, 59, 0, 0, time.UTC)},
		{ID: "week", UpdatedAt: time.Date(2025, 6, 4, 8, 0, 0, 0, time.UTC)},
		{ID: "older", UpdatedAt: time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)},
	}

	groups := GroupThreads(threads, now)

	if len(groups.Today) != 2 || groups.Today[0].ID != "today-late" {
		t.Fatalf("unexpected today bucket: %+v", groups.Today)
	}
	if len(groups.Yesterday) != 1 || groups.Yesterday[0].ID != "yesterday" {
		t.Fatalf("unexpected yesterday bucket: %+v", groups.Yesterday)
	}
	if len(groups.Last7Days) != 1 || groups.Last7Days[0].ID != "week" {
		t.Fatalf("unexpected last7days bucket: %+v", groups.Last7Days)
	}
	if len(groups.Older) != 1 || groups.Older[0].ID != "older" {
		t.Fatalf("unexpected older bucket: %+v", groups.Older)
	}
}

func TestGroupThreadsEmptyBucketsAreNotNil(t *testing.T) {
	groups := GroupThreads(nil, time.Now())
	if groups.Today == nil || groups.Yesterday == nil || groups.Last7Days == nil || groups.Older == nil {
		t.Fatalf("expected empty slices for JSON rendering")
	}
}
