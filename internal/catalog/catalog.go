// Package catalog holds the built-in item sample shown when the marketplace
// API is unreachable, and the category list.
package catalog

import (
	"fmt"
	"os"
	"strings"

	"arenda/internal/models"

	"gopkg.in/yaml.v2"
)

type Category struct {
	ID    string `yaml:"id"`
	Label string `yaml:"label"`
}

var categories = []Category{
	{ID: models.CategoryAll, Label: "Все"},
	{ID: "tools", Label: "Инструменты"},
	{ID: "electronics", Label: "Техника"},
	{ID: "sports", Label: "Спорт"},
	{ID: "furniture", Label: "Мебель"},
	{ID: "camping", Label: "Туризм"},
}

// Categories returns the category filter, "all" first.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

func KnownCategory(id string) bool {
	for _, c := range categories {
		if c.ID == id {
			return true
		}
	}
	return false
}

// Filter keeps items of the category; "all" and "" keep everything.
func Filter(items []models.Item, category string) []models.Item {
	category = strings.TrimSpace(category)
	if category == "" || category == models.CategoryAll {
		return items
	}
	out := make([]models.Item, 0, len(items))
	for _, item := range items {
		if item.CategoryID == category {
			out = append(out, item)
		}
	}
	return out
}

func Find(items []models.Item, id int64) (models.Item, bool) {
	for _, item := range items {
		if item.ID == id {
			return item, true
		}
	}
	return models.Item{}, false
}

// Load reads an items file in the same shape as the built-in sample:
//
//	items:
//	  - id: 1
//	    title: ...
func Load(path string) ([]models.Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}

	var file struct {
		Items []models.Item `yaml:"items"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}

	if err := ValidateItems(file.Items); err != nil {
		return nil, err
	}
	return file.Items, nil
}

func ValidateItems(items []models.Item) error {
	if len(items) == 0 {
		return fmt.Errorf("catalog is empty")
	}
	itemIDs := make(map[int64]bool)
	for _, item := range items {
		if item.ID == 0 {
			return fmt.Errorf("item '%s' has invalid ID 0", item.Title)
		}
		if itemIDs[item.ID] {
			return fmt.Errorf("duplicate item ID found: %d", item.ID)
		}
		itemIDs[item.ID] = true

		if item.Price < 0 {
			return fmt.Errorf("item %d has negative price", item.ID)
		}
		if !item.Period.Valid() {
			return fmt.Errorf("item %d has unknown period %q", item.ID, item.Period)
		}
		if item.Rating < 0 || item.Rating > 5 {
			return fmt.Errorf("item %d rating %.1f out of range", item.ID, float64(item.Rating))
		}
	}
	return nil
}
