package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"alxtravel/internal/domain/listings"
	"alxtravel/internal/domain/shared/fault"
	"alxtravel/internal/domain/shared/money"
)

type listingFixture struct {
	ID          string `json:"id"`
	Owner       string `json:"owner"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Location    string `json:"location"`
	// NightlyPrice is a decimal string such as "95.00".
	NightlyPrice string `json:"nightly_price"`
	Currency     string `json:"currency"`
	Inactive     bool   `json:"inactive"`
}

// loadListingFixtures seeds listings from a JSON file; listings that already exist are skipped.
func loadListingFixtures(ctx context.Context, path string, store listings.Store, currency string, logger *slog.Logger) error {
	if store == nil {
		return errNoStore
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Debug("listing fixtures file not found, skipping", "path", path)
			return nil
		}
		return fmt.Errorf("read fixtures: %w", err)
	}
	var fixtures []listingFixture
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return fmt.Errorf("decode fixtures: %w", err)
	}

	now := time.Now().UTC()
	for _, fx := range fixtures {
		cur := fx.Currency
		if cur == "" {
			cur = currency
		}
		price, err := money.ParseDecimal(fx.NightlyPrice, cur)
		if err != nil {
			logger.Error("fixture invalid", "listing_id", fx.ID, "error", err)
			continue
		}
		listing, err := listings.NewListing(listings.CreateListingParams{
			ID:           listings.ListingID(fx.ID),
			Owner:        listings.HostID(fx.Owner),
			Title:        fx.Title,
			Description:  fx.Description,
			Location:     fx.Location,
			NightlyPrice: price,
			Now:          now,
		})
		if err != nil {
			logger.Error("fixture invalid", "listing_id", fx.ID, "error", err)
			continue
		}
		if _, err := store.Create(ctx, listing); err != nil {
			if fault.Is(err, fault.Conflict) {
				continue
			}
			logger.Error("cannot store fixture listing", "listing_id", fx.ID, "error", err)
			continue
		}
		if fx.Inactive {
			if err := store.SetActive(ctx, listing.ID, false); err != nil {
				logger.Error("fixture deactivation failed", "listing_id", fx.ID, "error", err)
			}
		}
		logger.Info("listing fixture imported", "listing_id", listing.ID)
	}
	return nil
}

func fixturesPath() string {
	if p := os.Getenv("LISTINGS_FIXTURES"); p != "" {
		return p
	}
	return filepath.Join("data", "listings.json")
}
