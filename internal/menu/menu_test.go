package menu

import (
	"errors"
	"strings"
	"testing"
)

func TestIsVideoPath(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"dishes/tacos.mp4", true},
		{"dishes/TACOS.MP4", true},
		{"dishes/soup.webm", true},
		{"dishes/flan.Mov", true},
		{"dishes/photo.jpg", false},
		{"dishes/mp4", false},
		{"dishes/tacos.mp4.bak", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsVideoPath(tt.path); got != tt.want {
			t.Errorf("IsVideoPath(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestGroup_JoinsOnCategoryID(t *testing.T) {
	categories := []Category{
		{ID: "drinks", DisplayOrder: 1},
		{ID: "mains", DisplayOrder: 2},
		{ID: "desserts", DisplayOrder: 3},
	}
	items := []MenuItem{
		{ID: "1", CategoryID: "mains"},
		{ID: "2", CategoryID: "drinks"},
		{ID: "3", CategoryID: "mains"},
		{ID: "4", CategoryID: "unknown"},
	}

	groups := Group(categories, items)

	if len(groups) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(groups))
	}
	if groups[0].Category.ID != "drinks" || len(groups[0].Items) != 1 || groups[0].Items[0].ID != "2" {
		t.Errorf("unexpected drinks group: %+v", groups[0])
	}
	if len(groups[1].Items) != 2 || groups[1].Items[0].ID != "1" || groups[1].Items[1].ID != "3" {
		t.Errorf("expected mains items [1 3] in order, got %+v", groups[1].Items)
	}
	if groups[2].Items == nil || len(groups[2].Items) != 0 {
		t.Errorf("expected empty non-nil desserts items, got %#v", groups[2].Items)
	}
}

func TestFlatten_CategoryThenItemOrder(t *testing.T) {
	groups := Group(
		[]Category{{ID: "drinks"}, {ID: "mains"}},
		[]MenuItem{{ID: "1", CategoryID: "mains"}, {ID: "2", CategoryID: "drinks"}, {ID: "3", CategoryID: "mains"}},
	)

	items := Flatten(groups)

	var ids []string
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	if strings.Join(ids, ",") != "2,1,3" {
		t.Errorf("expected feed order 2,1,3, got %v", ids)
	}
}

func TestDataLoadFailedError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := error(&DataLoadFailedError{Op: "list categories", Err: cause})
	if !errors.Is(err, cause) {
		t.Error("expected DataLoadFailedError to unwrap to cause")
	}
	if err.Error() != "menu load failed (list categories): connection refused" {
		t.Errorf("unexpected message: %s", err.Error())
	}
}

func TestStatusString(t *testing.T) {
	if StatusPending.String() != "pending" || StatusSuccess.String() != "success" || StatusError.String() != "error" {
		t.Error("unexpected status names")
	}
}
