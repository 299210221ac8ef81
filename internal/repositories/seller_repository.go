package repositories

import (
	"context"
	"database/sql"
	"time"

	"soukBack/internal/models"
)

type SellerRepository struct {
	DB      *sql.DB
	Dialect Dialect
}

const sellerColumns = `id, name, phone, rating, total_sales, response_rate, avatar_url, device_token, created_at`

func (r *SellerRepository) Get(ctx context.Context, id string) (models.SellerProfile, error) {
	query := `SELECT ` + sellerColumns + ` FROM seller_profiles WHERE id = ?`
	var (
		p         models.SellerProfile
		avatar    sql.NullString
		createdAt nullTime
	)
	err := r.DB.QueryRowContext(ctx, r.Dialect.Rebind(query), id).Scan(
		&p.ID, &p.Name, &p.Phone, &p.Rating, &p.TotalSales, &p.ResponseRate, &avatar, &p.DeviceToken, &createdAt,
	)
	if err == sql.ErrNoRows {
		return models.SellerProfile{}, models.ErrNoRecord
	}
	if err != nil {
		return models.SellerProfile{}, err
	}
	p.AvatarURL = strPtr(avatar)
	p.CreatedAt = createdAt.Time
	return p, nil
}

// Create inserts p. An existing profile with the same id yields
// models.ErrDuplicateRecord.
func (r *SellerRepository) Create(ctx context.Context, p models.SellerProfile) (models.SellerProfile, error) {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	p.CreatedAt = p.CreatedAt.UTC()
	query := `
		INSERT INTO seller_profiles (id, name, phone, rating, total_sales, response_rate, avatar_url, device_token, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.DB.ExecContext(ctx, r.Dialect.Rebind(query),
		p.ID, p.Name, p.Phone, p.Rating, p.TotalSales, p.ResponseRate, nullableString(p.AvatarURL), p.DeviceToken, p.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return models.SellerProfile{}, models.ErrDuplicateRecord
		}
		return models.SellerProfile{}, err
	}
	return p, nil
}

func (r *SellerRepository) Update(ctx context.Context, id, name, phone string) (models.SellerProfile, error) {
	query := `UPDATE seller_profiles SET name = ?, phone = ? WHERE id = ?`
	if err := r.exec(ctx, query, name, phone, id); err != nil {
		return models.SellerProfile{}, err
	}
	return r.Get(ctx, id)
}

func (r *SellerRepository) SetAvatar(ctx context.Context, id string, url *string) error {
	return r.exec(ctx, `UPDATE seller_profiles SET avatar_url = ? WHERE id = ?`, nullableString(url), id)
}

func (r *SellerRepository) SetDeviceToken(ctx context.Context, id, token string) error {
	return r.exec(ctx, `UPDATE seller_profiles SET device_token = ? WHERE id = ?`, token, id)
}

func (r *SellerRepository) SetTotalSales(ctx context.Context, id string, n int) error {
	return r.exec(ctx, `UPDATE seller_profiles SET total_sales = ? WHERE id = ?`, n, id)
}

// exec runs an update by id. MySQL reports zero affected rows when nothing
// changed, so a missing row is confirmed with a lookup.
func (r *SellerRepository) exec(ctx context.Context, query string, args ...any) error {
	result, err := r.DB.ExecContext(ctx, r.Dialect.Rebind(query), args...)
	if err != nil {
		return err
	}
	if err := expectAffected(result); err != models.ErrNoRecord {
		return err
	}
	_, err = r.Get(ctx, args[len(args)-1].(string))
	return err
}
