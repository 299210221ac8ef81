package services

import (
	"context"
	"time"

	"soukBack/internal/models"
	"soukBack/internal/search"
)

// Logger provides the minimal logging the services need.
type Logger interface {
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}

func logger(l Logger) Logger {
	if l == nil {
		return nopLogger{}
	}
	return l
}

type ListingStore interface {
	Search(ctx context.Context, c search.Criteria) ([]models.Listing, error)
	Get(ctx context.Context, id string) (models.Listing, error)
	Insert(ctx context.Context, l models.Listing) (models.Listing, error)
	Update(ctx context.Context, l models.Listing) (models.Listing, error)
	Delete(ctx context.Context, id string) error
	SetSold(ctx context.Context, id string, sold bool) error
	CountSold(ctx context.Context, sellerID string) (int, error)
	ListBySeller(ctx context.Context, sellerID string) ([]models.Listing, error)
}

type SellerStore interface {
	Get(ctx context.Context, id string) (models.SellerProfile, error)
	Create(ctx context.Context, p models.SellerProfile) (models.SellerProfile, error)
	Update(ctx context.Context, id, name, phone string) (models.SellerProfile, error)
	SetAvatar(ctx context.Context, id string, url *string) error
	SetDeviceToken(ctx context.Context, id, token string) error
	SetTotalSales(ctx context.Context, id string, n int) error
}

type UserStore interface {
	CreateUser(ctx context.Context, u models.User) (models.User, error)
	GetUserByID(ctx context.Context, id string) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	SetSession(ctx context.Context, s models.Session) error
	GetSession(ctx context.Context, refreshToken string) (models.Session, error)
	DeleteSession(ctx context.Context, refreshToken string) error
}

// SnapshotCache holds the last complete listing set for degraded reads.
type SnapshotCache interface {
	Save(ctx context.Context, listings []models.Listing) error
	Load(ctx context.Context) ([]models.Listing, error)
	Invalidate(ctx context.Context) error
}

type TokenManager interface {
	NewJWT(userID string) (string, time.Time, error)
	Parse(accessToken string) (string, error)
	NewRefreshToken() string
}

// Buckets images are stored in.
const (
	ListingImagesBucket = "listing-images"
	AvatarsBucket       = "avatars"
)

const cleanupTimeout = 30 * time.Second

// detached returns a context for best-effort cleanup that outlives a
// cancelled request.
func detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
}
