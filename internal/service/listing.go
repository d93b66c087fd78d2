package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"arenda/internal/catalog"
	"arenda/internal/domain"
	"arenda/internal/events"
	"arenda/internal/models"

	"github.com/rs/zerolog"
)

const titleListing = "Ошибка при создании объявления"

// ListingForm is the create-listing form as the user typed it.
type ListingForm struct {
	Title       string
	Description string
	CategoryID  string
	Price       string
	Period      string
	Location    string
	Condition   string
	ImageURL    string
	Features    string
	Rules       string

	// PhotoPath is a local image uploaded in place of ImageURL.
	PhotoPath string
}

type ListingController struct {
	base
	api      domain.MarketplaceAPI
	uploader domain.ImageUploader
	submit   Action
}

// NewListingController builds the create-listing controller. uploader may
// be nil, then only ready image URLs are accepted.
func NewListingController(client domain.MarketplaceAPI, sessions domain.SessionStore, uploader domain.ImageUploader, bus domain.EventPublisher, notifier domain.Notifier, logger *zerolog.Logger) *ListingController {
	return &ListingController{
		base:     newBase(sessions, bus, notifier, logger),
		api:      client,
		uploader: uploader,
	}
}

// SubmitAction exposes the state of the publish button.
func (c *ListingController) SubmitAction() *Action {
	return &c.submit
}

// Submit validates the form, uploads the photo if one is given and
// creates the listing. It returns the new item id.
func (c *ListingController) Submit(ctx context.Context, form ListingForm) (int64, error) {
	sess, err := c.requireSession(ctx)
	if err != nil {
		return 0, c.fail(ctx, titleListing, err)
	}

	listing, err := form.Listing()
	if err != nil {
		return 0, c.fail(ctx, titleListing, err)
	}

	var id int64
	err = c.submit.Run(ctx, func(ctx context.Context) error {
		if form.PhotoPath != "" {
			url, err := c.uploadPhoto(ctx, form.PhotoPath)
			if err != nil {
				return err
			}
			listing.ImageURL = url
		}

		var err error
		id, err = c.api.CreateListing(ctx, sess.Token, listing)
		return err
	})
	if err != nil {
		return 0, c.fail(ctx, titleListing, err)
	}

	c.logger.Info().Int64("item_id", id).Str("category", listing.CategoryID).Msg("listing created")
	c.publish(events.EventListingCreated, events.ListingEventPayload{
		ItemID:     id,
		Title:      listing.Title,
		CategoryID: listing.CategoryID,
		Price:      listing.Price,
		ImageURL:   listing.ImageURL,
	})
	c.notify(ctx, models.LevelSuccess, "Объявление опубликовано", listing.Title)
	return id, nil
}

func (c *ListingController) uploadPhoto(ctx context.Context, path string) (string, error) {
	if c.uploader == nil {
		return "", ErrUploadUnavailable
	}
	body, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read photo: %w", err)
	}
	url, err := c.uploader.Upload(ctx, filepath.Base(path), body)
	if err != nil {
		return "", fmt.Errorf("upload photo: %w", err)
	}
	return url, nil
}

// Listing converts the form into a request payload. Period defaults to a
// day and condition to excellent, as the form preselects them.
func (f ListingForm) Listing() (models.Listing, error) {
	l := models.Listing{
		Title:       strings.TrimSpace(f.Title),
		Description: strings.TrimSpace(f.Description),
		CategoryID:  strings.TrimSpace(f.CategoryID),
		Location:    strings.TrimSpace(f.Location),
		ImageURL:    strings.TrimSpace(f.ImageURL),
		Period:      models.PeriodDay,
		Condition:   models.ConditionExcellent,
		Features:    SplitLines(f.Features),
		Rules:       SplitLines(f.Rules),
	}

	if l.Title == "" {
		return l, ErrTitleRequired
	}
	if l.CategoryID == models.CategoryAll || !catalog.KnownCategory(l.CategoryID) {
		return l, fmt.Errorf("%w: %q", ErrInvalidCategory, l.CategoryID)
	}

	price, err := ParsePrice(f.Price)
	if err != nil {
		return l, err
	}
	l.Price = price

	if strings.TrimSpace(f.Period) != "" {
		l.Period = models.ParsePeriod(f.Period)
		if !l.Period.Valid() {
			return l, fmt.Errorf("%w: %q", ErrInvalidPeriod, f.Period)
		}
	}
	if strings.TrimSpace(f.Condition) != "" {
		l.Condition = models.ParseCondition(f.Condition)
		if !l.Condition.Valid() {
			return l, fmt.Errorf("%w: %q", ErrInvalidCondition, f.Condition)
		}
	}
	if l.Location == "" {
		return l, ErrLocationRequired
	}
	return l, nil
}

// ParsePrice accepts a positive whole number, spaces allowed as thousands
// separators ("1 500").
func ParsePrice(s string) (int64, error) {
	s = strings.Map(func(r rune) rune {
		if r == ' ' || r == '\u00a0' {
			return -1
		}
		return r
	}, strings.TrimSpace(s))

	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPrice, s)
	}
	return v, nil
}

// SplitLines turns a multi-line text field into its non-blank lines,
// trimmed, in order. The result is never nil.
func SplitLines(s string) []string {
	out := []string{}
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
