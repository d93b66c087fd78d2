package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"arenda/internal/catalog"
	"arenda/internal/metrics"
	"arenda/internal/models"
)

// itemList accepts both a bare array and an {"items": [...]} envelope.
type itemList []models.Item

func (l *itemList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var wrap struct {
			Items []models.Item `json:"items"`
		}
		if err := json.Unmarshal(data, &wrap); err != nil {
			return err
		}
		*l = wrap.Items
		return nil
	}
	var items []models.Item
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	*l = items
	return nil
}

// ListItems returns the active listings of a category ("all" or "" for
// every category). When the service fails the built-in sample is returned
// with Source fallback and the failure in Cause.
func (c *Client) ListItems(ctx context.Context, category string) *models.ItemsResult {
	category = strings.TrimSpace(category)
	if category == "" {
		category = models.CategoryAll
	}

	cacheKey := itemsCachePrefix + category
	var items itemList
	if c.readCache(ctx, cacheKey, &items) {
		return &models.ItemsResult{Items: items, Source: models.ItemsSourceCache}
	}

	endpoint := c.itemsURL
	if category != models.CategoryAll {
		endpoint += "?category=" + url.QueryEscape(category)
	}

	if err := c.doGet(ctx, opListItems, endpoint, "", &items); err != nil {
		metrics.IncCatalogFallback()
		c.logger.Warn().Err(err).Str("category", category).Msg("Serving built-in catalog sample")
		return &models.ItemsResult{
			Items:  catalog.Filter(c.fallback(), category),
			Source: models.ItemsSourceFallback,
			Cause:  err,
		}
	}

	if items == nil {
		items = itemList{}
	}
	c.writeCache(ctx, cacheKey, items)
	return &models.ItemsResult{Items: items, Source: models.ItemsSourceRemote}
}

type createListingResponse struct {
	ItemID int64 `json:"item_id"`
}

func (c *Client) CreateListing(ctx context.Context, token string, listing models.Listing) (int64, error) {
	if token == "" {
		return 0, &RequestError{Op: opCreateListing, Kind: ErrUnauthorized}
	}

	var resp createListingResponse
	if err := c.doPost(ctx, opCreateListing, c.itemsURL, token, listing, &resp); err != nil {
		return 0, err
	}
	c.dropItemsCache(ctx, listing.CategoryID)
	return resp.ItemID, nil
}

func (c *Client) dropItemsCache(ctx context.Context, category string) {
	if c.redis == nil {
		return
	}
	keys := []string{itemsCachePrefix + models.CategoryAll}
	if category != "" && category != models.CategoryAll {
		keys = append(keys, itemsCachePrefix+category)
	}
	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to drop items cache")
	}
}
