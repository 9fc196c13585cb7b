package menu

import (
	"fmt"
	"regexp"
)

type Category struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	DisplayOrder int    `json:"displayOrder"`
}

// MenuItem is immutable once fetched. URL holds the signed video URL and is
// empty when the item has no video or signing failed.
type MenuItem struct {
	ID          string `json:"id"`
	CategoryID  string `json:"categoryId"`
	Name        string `json:"name"`
	Description string `json:"description"`
	PriceCents  int    `json:"priceCents"`
	VideoPath   string `json:"videoPath"`
	URL         string `json:"url,omitempty"`
}

type CategoryGroup struct {
	Category Category   `json:"category"`
	Items    []MenuItem `json:"items"`
}

type Menu struct {
	Categories []Category `json:"categories"`
	Items      []MenuItem `json:"items"`
}

type DataLoadFailedError struct {
	Op  string
	Err error
}

func (e *DataLoadFailedError) Error() string {
	return fmt.Sprintf("menu load failed (%s): %v", e.Op, e.Err)
}

func (e *DataLoadFailedError) Unwrap() error {
	return e.Err
}

var videoExtension = regexp.MustCompile(`(?i)\.(mp4|webm|mov)$`)

func IsVideoPath(path string) bool {
	return videoExtension.MatchString(path)
}

// Group joins items to categories on CategoryID, keeping category order and
// item order. Items whose category is unknown are left out.
func Group(categories []Category, items []MenuItem) []CategoryGroup {
	byCategory := make(map[string][]MenuItem, len(categories))
	for _, item := range items {
		byCategory[item.CategoryID] = append(byCategory[item.CategoryID], item)
	}

	groups := make([]CategoryGroup, 0, len(categories))
	for _, c := range categories {
		groupItems := byCategory[c.ID]
		if groupItems == nil {
			groupItems = []MenuItem{}
		}
		groups = append(groups, CategoryGroup{Category: c, Items: groupItems})
	}
	return groups
}

// Flatten lists grouped items in feed order: by category, then by item.
func Flatten(groups []CategoryGroup) []MenuItem {
	var out []MenuItem
	for _, g := range groups {
		out = append(out, g.Items...)
	}
	return out
}
