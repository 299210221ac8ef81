package repositories

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"soukBack/internal/catalog"
	"soukBack/internal/models"
	"soukBack/internal/normalize"
	"soukBack/internal/search"
)

type ListingRepository struct {
	DB      *sql.DB
	Dialect Dialect
	Tree    *catalog.Tree
}

const listingColumns = `
	l.id, l.seller_id, l.title, l.description, l.price, l.category, l.location, l.image,
	l.item_condition, l.features, l.images, l.is_sold, l.created_at, l.updated_at,
	p.name, p.rating, p.phone, p.created_at, p.total_sales, p.response_rate`

const listingFrom = `
	FROM listings l
	LEFT JOIN seller_profiles p ON p.id = l.seller_id`

// Search returns every listing the SQL rendering of c admits, newest first.
// The result is a superset of the exact match; callers filter it again with
// search.Compile.
func (r *ListingRepository) Search(ctx context.Context, c search.Criteria) ([]models.Listing, error) {
	where, args := search.Where(c, r.Tree, "l.")
	query := "SELECT" + listingColumns + listingFrom + " WHERE " + where + " ORDER BY l.created_at DESC"
	return r.query(ctx, query, args...)
}

func (r *ListingRepository) ListBySeller(ctx context.Context, sellerID string) ([]models.Listing, error) {
	query := "SELECT" + listingColumns + listingFrom + " WHERE l.seller_id = ? ORDER BY l.created_at DESC"
	return r.query(ctx, query, sellerID)
}

func (r *ListingRepository) Get(ctx context.Context, id string) (models.Listing, error) {
	query := "SELECT" + listingColumns + listingFrom + " WHERE l.id = ?"
	row := r.DB.QueryRowContext(ctx, r.Dialect.Rebind(query), id)
	l, err := scanListing(row)
	if err == sql.ErrNoRows {
		return models.Listing{}, models.ErrNoRecord
	}
	if err != nil {
		return models.Listing{}, err
	}
	return l, nil
}

// Insert stores l. An empty ID gets a fresh UUID and a zero CreatedAt is set to
// now.
func (r *ListingRepository) Insert(ctx context.Context, l models.Listing) (models.Listing, error) {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now()
	}
	l.CreatedAt = l.CreatedAt.UTC()
	features, images, err := encodeLists(l)
	if err != nil {
		return models.Listing{}, err
	}

	query := `
		INSERT INTO listings
			(id, seller_id, title, description, price, category, location, image, item_condition,
			 features, images, is_sold, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.DB.ExecContext(ctx, r.Dialect.Rebind(query),
		l.ID, l.SellerID, l.Title, l.Description, l.Price, l.Category, l.Location, l.Image,
		string(l.Condition), features, images, l.IsSold, l.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return models.Listing{}, models.ErrDuplicateRecord
		}
		return models.Listing{}, err
	}
	return r.Get(ctx, l.ID)
}

// Update overwrites the editable fields of l. The seller and sold flag are not
// touched.
func (r *ListingRepository) Update(ctx context.Context, l models.Listing) (models.Listing, error) {
	features, images, err := encodeLists(l)
	if err != nil {
		return models.Listing{}, err
	}
	query := `
		UPDATE listings
		SET title = ?, description = ?, price = ?, category = ?, location = ?, image = ?,
			item_condition = ?, features = ?, images = ?, updated_at = ?
		WHERE id = ?`
	result, err := r.DB.ExecContext(ctx, r.Dialect.Rebind(query),
		l.Title, l.Description, l.Price, l.Category, l.Location, l.Image,
		string(l.Condition), features, images, time.Now().UTC(), l.ID,
	)
	if err != nil {
		return models.Listing{}, err
	}
	if err := expectAffected(result); err != nil {
		return models.Listing{}, err
	}
	return r.Get(ctx, l.ID)
}

func (r *ListingRepository) Delete(ctx context.Context, id string) error {
	result, err := r.DB.ExecContext(ctx, r.Dialect.Rebind(`DELETE FROM listings WHERE id = ?`), id)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

func (r *ListingRepository) SetSold(ctx context.Context, id string, sold bool) error {
	query := `UPDATE listings SET is_sold = ?, updated_at = ? WHERE id = ?`
	result, err := r.DB.ExecContext(ctx, r.Dialect.Rebind(query), sold, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

func (r *ListingRepository) CountSold(ctx context.Context, sellerID string) (int, error) {
	var n int
	query := `SELECT COUNT(*) FROM listings WHERE seller_id = ? AND is_sold = ?`
	err := r.DB.QueryRowContext(ctx, r.Dialect.Rebind(query), sellerID, true).Scan(&n)
	return n, err
}

func (r *ListingRepository) query(ctx context.Context, query string, args ...any) ([]models.Listing, error) {
	rows, err := r.DB.QueryContext(ctx, r.Dialect.Rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var listings []models.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return listings, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanListing reads one row through normalize, so NULL and empty columns get
// the same defaults as any other raw record.
func scanListing(s rowScanner) (models.Listing, error) {
	var (
		raw                                   normalize.RawListing
		title, description, category          sql.NullString
		location, image, condition            sql.NullString
		features, images                      sql.NullString
		price                                 sql.NullFloat64
		createdAt, updatedAt, sellerCreatedAt nullTime
		sellerName, sellerPhone               sql.NullString
		sellerRating, sellerResponse          sql.NullFloat64
		sellerSales                           sql.NullInt64
	)
	err := s.Scan(
		&raw.ID, &raw.SellerID, &title, &description, &price, &category, &location, &image,
		&condition, &features, &images, &raw.IsSold, &createdAt, &updatedAt,
		&sellerName, &sellerRating, &sellerPhone, &sellerCreatedAt, &sellerSales, &sellerResponse,
	)
	if err != nil {
		return models.Listing{}, err
	}

	raw.Title = strPtr(title)
	raw.Description = strPtr(description)
	raw.Category = strPtr(category)
	raw.Location = strPtr(location)
	raw.Image = strPtr(image)
	raw.Condition = strPtr(condition)
	if price.Valid {
		p := normalize.Price(price.Float64)
		raw.Price = &p
	}
	if features.Valid {
		raw.Features = json.RawMessage(features.String)
	}
	if images.Valid {
		raw.Images = json.RawMessage(images.String)
	}
	raw.CreatedAt = createdAt.ptr()
	raw.UpdatedAt = updatedAt.ptr()
	if sellerName.Valid {
		raw.Seller = &models.SellerSummary{
			Name:         sellerName.String,
			Rating:       sellerRating.Float64,
			Phone:        sellerPhone.String,
			JoinedDate:   sellerCreatedAt.Time,
			TotalSales:   int(sellerSales.Int64),
			ResponseRate: sellerResponse.Float64,
		}
	}
	return normalize.Normalize(raw), nil
}

func encodeLists(l models.Listing) (string, string, error) {
	features, err := encodeStrings(l.Features)
	if err != nil {
		return "", "", fmt.Errorf("encode features: %w", err)
	}
	images, err := encodeStrings(l.Images)
	if err != nil {
		return "", "", fmt.Errorf("encode images: %w", err)
	}
	return features, images, nil
}

// encodeStrings writes a JSON array without HTML escaping so the stored text
// stays searchable with LIKE.
func encodeStrings(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(items); err != nil {
		return "", err
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

func strPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}

func expectAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return models.ErrNoRecord
	}
	return nil
}
