package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"arenda/internal/catalog"
	"arenda/internal/models"

	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run validates a catalog file before it is used as the offline fallback.
func run() error {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	itemsPath := flag.String("items", "configs/items.yaml", "path to items.yaml")
	flag.Parse()

	items, err := catalog.Load(*itemsPath)
	if err != nil {
		return err
	}

	perCategory := make(map[string]int)
	for _, it := range items {
		if !catalog.KnownCategory(it.CategoryID) || it.CategoryID == models.CategoryAll {
			logger.Warn().Int64("id", it.ID).Str("category", it.CategoryID).Msg("unknown category, item is shown only under 'all'")
		}
		if !it.Condition.Valid() {
			logger.Warn().Int64("id", it.ID).Str("condition", string(it.Condition)).Msg("unknown condition")
		}
		perCategory[it.CategoryID]++
	}

	ids := make([]string, 0, len(perCategory))
	for id := range perCategory {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		fmt.Printf("%-12s %d\n", id, perCategory[id])
	}
	fmt.Printf("done: items=%d\n", len(items))
	return nil
}
