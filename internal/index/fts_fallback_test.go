//go:build !sqlite_fts5

package index

import (
	"testing"
	"time"
)

func TestLikeSearch_Literal(t *testing.T) {
	db := testDB(t)
	now := time.Now()
	_ = db.Upsert(FileRow{Path: "blog/a.md", ContentType: "blog", ContentID: "a", Title: "Discount", UpdatedAt: now}, "save 100% today", nil)
	_ = db.Upsert(FileRow{Path: "blog/b.md", ContentType: "blog", ContentID: "b", Title: "Other", UpdatedAt: now}, "save 1000 coins", nil)
	_ = db.Upsert(FileRow{Path: "page/c.md", ContentType: "page", ContentID: "c", Title: "100% done", UpdatedAt: now}, "", nil)

	results, err := db.Search(SearchQuery{Text: "100%"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 || results[0].Path != "page/c.md" || results[1].Path != "blog/a.md" {
		t.Errorf("results = %+v", results)
	}

	results, _ = db.Search(SearchQuery{Text: "100%", Type: "blog", Limit: 1})
	if len(results) != 1 || results[0].ContentType != "blog" {
		t.Errorf("filtered results = %+v", results)
	}
}
