package service

import (
	"context"
	"strings"

	"arenda/internal/catalog"
	"arenda/internal/domain"
	"arenda/internal/models"

	"github.com/rs/zerolog"
)

// CatalogPage is what the home page renders. Degraded pages show the
// built-in sample because the items service could not be reached.
type CatalogPage struct {
	Category string
	Items    []models.Item
	Degraded bool
	Cause    error
}

type CatalogController struct {
	base
	api domain.MarketplaceAPI
}

func NewCatalogController(client domain.MarketplaceAPI, notifier domain.Notifier, logger *zerolog.Logger) *CatalogController {
	return &CatalogController{
		base: newBase(nil, nil, notifier, logger),
		api:  client,
	}
}

// Load fetches the listing for category. It always yields a page.
func (c *CatalogController) Load(ctx context.Context, category string) *CatalogPage {
	category = strings.TrimSpace(category)
	if category == "" {
		category = models.CategoryAll
	}

	res := c.api.ListItems(ctx, category)
	// сервер может проигнорировать фильтр
	page := &CatalogPage{
		Category: category,
		Items:    catalog.Filter(res.Items, category),
		Degraded: res.Degraded(),
		Cause:    res.Cause,
	}

	if page.Degraded {
		c.logger.Warn().Err(res.Cause).Str("category", category).Msg("showing built-in catalog")
		c.notify(ctx, models.LevelInfo, "Каталог", "Сервис недоступен, показаны примеры объявлений")
	}
	return page
}
