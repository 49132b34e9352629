package service

import (
	"testing"
)

func TestUniqueSlugSuffixes(t *testing.T) {
	gdb := setupTagServiceTestDB(t)
	svc := NewTagService(gdb)

	names := []string{"Ban công", "Ban cong", "Ban-cong"}
	want := []string{"ban-cong", "ban-cong-2", "ban-cong-3"}
	for i, name := range names {
		tag, err := svc.Create(name, "")
		if err != nil {
			t.Fatalf("create tag %q: %v", name, err)
		}
		if tag.Slug != want[i] {
			t.Fatalf("tag %q: expected slug %q, got %q", name, want[i], tag.Slug)
		}
	}
}

func TestUniqueSlugFallsBackForEmptyBase(t *testing.T) {
	gdb := setupTagServiceTestDB(t)

	derived, err := uniqueSlug(gdb, "tags", "!!!", 0)
	if err != nil {
		t.Fatalf("derive slug: %v", err)
	}
	if derived != "untitled" {
		t.Fatalf("expected fallback slug, got %q", derived)
	}
}
