package main

import (
	"context"
	"errors"
	"fmt"

	"soukBack/internal/catalog"
	"soukBack/internal/fixtures"
	"soukBack/internal/models"
	"soukBack/internal/normalize"
	"soukBack/internal/repositories"
)

const seedSellerID = "seed"

func (c *cli) migrate(ctx context.Context) error {
	db, dialect, err := repositories.OpenDB(ctx, c.cfg.Database.Driver, c.cfg.Database.URL)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := repositories.Migrate(ctx, db, dialect); err != nil {
		return err
	}
	c.logger.Sugar().Infof("schema is up to date (%s)", c.cfg.Database.Driver)
	return nil
}

// seed inserts the bundled sample listings. Running it twice is a no-op.
func (c *cli) seed(ctx context.Context) error {
	log := c.logger.Sugar()
	db, dialect, err := repositories.OpenDB(ctx, c.cfg.Database.Driver, c.cfg.Database.URL)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := repositories.Migrate(ctx, db, dialect); err != nil {
		return err
	}

	raws, err := fixtures.Listings()
	if err != nil {
		return err
	}

	sellers := &repositories.SellerRepository{DB: db, Dialect: dialect}
	_, err = sellers.Create(ctx, models.SellerProfile{ID: seedSellerID, Name: "Souk", Rating: 5})
	if err != nil && !errors.Is(err, models.ErrDuplicateRecord) {
		return fmt.Errorf("seed seller: %w", err)
	}

	listings := &repositories.ListingRepository{DB: db, Dialect: dialect, Tree: catalog.Default()}
	inserted := 0
	for _, l := range normalize.NormalizeAll(raws) {
		if l.SellerID == "" {
			l.SellerID = seedSellerID
		}
		if _, err := listings.Insert(ctx, l); err != nil {
			if errors.Is(err, models.ErrDuplicateRecord) {
				continue
			}
			return fmt.Errorf("seed listing %s: %w", l.ID, err)
		}
		inserted++
	}
	log.Infof("seeded %d of %d listings", inserted, len(raws))
	return nil
}
