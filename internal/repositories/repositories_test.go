package repositories

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"soukBack/internal/catalog"
	"soukBack/internal/models"
	"soukBack/internal/search"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()
	db, d, err := OpenDB(ctx, "sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, Migrate(ctx, db, d))
	return db
}

func TestRebind(t *testing.T) {
	q := "SELECT * FROM t WHERE a = ? AND b IN (?,?)"
	assert.Equal(t, q, MySQL.Rebind(q))
	assert.Equal(t, "SELECT * FROM t WHERE a = $1 AND b IN ($2,$3)", Postgres.Rebind(q))
}

func TestDialectFor(t *testing.T) {
	d, err := DialectFor("pgx")
	require.NoError(t, err)
	assert.Equal(t, Postgres, d)
	_, err = DialectFor("oracle")
	assert.Error(t, err)
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	assert.NoError(t, Migrate(context.Background(), db, SQLite))
}

func TestListingRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	sellers := &SellerRepository{DB: db, Dialect: SQLite}
	listings := &ListingRepository{DB: db, Dialect: SQLite, Tree: catalog.Default()}

	_, err := sellers.Create(ctx, models.SellerProfile{ID: "s1", Name: "Aicha", Phone: "+22236123456", Rating: 4.5})
	require.NoError(t, err)

	in := models.Listing{
		SellerID:    "s1",
		Title:       "Goats <2 years>",
		Description: "Healthy",
		Price:       35000,
		Category:    "goats-sheep",
		Location:    "Rosso",
		Image:       "http://x/main.png",
		Condition:   models.ConditionGood,
		Features:    []string{"vaccinated", "ça va"},
		Images:      []string{"http://x/2.png"},
	}
	got, err := listings.Insert(ctx, in)
	require.NoError(t, err)
	require.NotEmpty(t, got.ID)
	assert.Equal(t, in.Title, got.Title)
	assert.Equal(t, in.Features, got.Features)
	assert.Equal(t, in.Images, got.Images)
	assert.Equal(t, "Aicha", got.Seller.Name)
	assert.Equal(t, "+22236123456", got.Seller.Phone)
	assert.False(t, got.CreatedAt.IsZero())
	assert.Nil(t, got.UpdatedAt)

	got.Title = "Sheep"
	got.Images = nil
	updated, err := listings.Update(ctx, got)
	require.NoError(t, err)
	assert.Equal(t, "Sheep", updated.Title)
	assert.Equal(t, []string{}, updated.Images)
	assert.NotNil(t, updated.UpdatedAt)

	require.NoError(t, listings.Delete(ctx, got.ID))
	_, err = listings.Get(ctx, got.ID)
	assert.ErrorIs(t, err, models.ErrNoRecord)
	assert.ErrorIs(t, listings.Delete(ctx, got.ID), models.ErrNoRecord)
}

func TestListingNullColumnsNormalize(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	_, err := db.ExecContext(ctx, `INSERT INTO listings (id, seller_id, features, created_at) VALUES ('l1', 'nobody', '["a","https://x/y.jpg"]', ?)`, time.Now().UTC())
	require.NoError(t, err)

	repo := &ListingRepository{DB: db, Dialect: SQLite, Tree: catalog.Default()}
	l, err := repo.Get(ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, "No Title", l.Title)
	assert.Equal(t, "No Description", l.Description)
	assert.Equal(t, "Unknown Location", l.Location)
	assert.Equal(t, models.ConditionUnknown, l.Condition)
	assert.Equal(t, []string{"a"}, l.Features)
	assert.Equal(t, []string{"https://x/y.jpg"}, l.Images)
	assert.Equal(t, models.SellerSummary{}, l.Seller)
}

func TestSearchPrefilterAgreesWithMatcher(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := &ListingRepository{DB: db, Dialect: SQLite, Tree: catalog.Default()}

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	seed := []models.Listing{
		{Title: "Toyota Corolla", Price: 900000, Category: "cars", Location: "Nouakchott", Condition: models.ConditionGood, Features: []string{"automatic"}},
		{Title: "iPhone 13", Price: 25000, Category: "phones", Location: "Nouadhibou", Condition: models.ConditionLikeNew},
		{Title: "Scooter", Price: 60000, Category: "motorcycles", Location: "Nouakchott", Condition: models.ConditionPoor, Features: []string{"Helmet 100%"}},
		{Title: "Shoes", Price: 800, Category: "shoes", Location: "Rosso", Condition: models.ConditionNew, Features: []string{"size\t42", "line1\nline2", "wide\u2028fit"}},
		{Title: "", Price: 0, Category: "land", Location: "", Condition: ""},
	}
	for i, l := range seed {
		l.SellerID = "s1"
		l.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		_, err := repo.Insert(ctx, l)
		require.NoError(t, err)
	}

	min := 20000.0
	criteria := []search.Criteria{
		{},
		{Query: "nouak"},
		{Query: "helmet 100%"},
		{Query: "no title"},
		{Query: "unknown"},
		{Category: "vehicles"},
		{MinPrice: &min},
		{Location: "unknown location"},
		{Condition: "Like New"},
		{Query: "o", Category: "vehicles", MinPrice: &min},
		{Query: "size\t42"},
		{Query: "line1\nline2"},
		{Query: "wide\u2028fit"},
	}
	all, err := repo.Search(ctx, search.Criteria{})
	require.NoError(t, err)
	require.Len(t, all, len(seed))
	assert.Equal(t, "Unknown Location", all[0].Location, "newest first")

	for _, c := range criteria {
		rows, err := repo.Search(ctx, c)
		require.NoError(t, err)
		want := search.Apply(all, c, catalog.Default())
		got := search.Compile(c, catalog.Default()).Filter(rows)
		assert.Equal(t, ids(want), ids(got), "criteria %+v", c)
		assert.GreaterOrEqual(t, len(rows), len(got))
	}

	rows, err := repo.Search(ctx, search.Criteria{Query: "size\t42"})
	require.NoError(t, err)
	assert.Len(t, search.Compile(search.Criteria{Query: "size\t42"}, catalog.Default()).Filter(rows), 1)
}

func ids(ls []models.Listing) []string {
	out := []string{}
	for _, l := range ls {
		out = append(out, l.ID)
	}
	return out
}

func TestSoldCount(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := &ListingRepository{DB: db, Dialect: SQLite, Tree: catalog.Default()}

	a, err := repo.Insert(ctx, models.Listing{SellerID: "s1", Title: "a"})
	require.NoError(t, err)
	b, err := repo.Insert(ctx, models.Listing{SellerID: "s1", Title: "b"})
	require.NoError(t, err)
	_, err = repo.Insert(ctx, models.Listing{SellerID: "s2", Title: "c", IsSold: true})
	require.NoError(t, err)

	require.NoError(t, repo.SetSold(ctx, a.ID, true))
	require.NoError(t, repo.SetSold(ctx, b.ID, true))
	n, err := repo.CountSold(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, repo.SetSold(ctx, b.ID, false))
	n, err = repo.CountSold(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.ErrorIs(t, repo.SetSold(ctx, "missing", true), models.ErrNoRecord)

	mine, err := repo.ListBySeller(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}

func TestSellerRepository(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := &SellerRepository{DB: db, Dialect: SQLite}

	_, err := repo.Get(ctx, "u1")
	assert.ErrorIs(t, err, models.ErrNoRecord)

	_, err = repo.Create(ctx, models.SellerProfile{ID: "u1", Name: "Sidi"})
	require.NoError(t, err)
	_, err = repo.Create(ctx, models.SellerProfile{ID: "u1", Name: "Sidi"})
	assert.ErrorIs(t, err, models.ErrDuplicateRecord)

	p, err := repo.Update(ctx, "u1", "Sidi Mohamed", "+22241000000")
	require.NoError(t, err)
	assert.Equal(t, "Sidi Mohamed", p.Name)

	url := "http://x/avatars/u1/a.png"
	require.NoError(t, repo.SetAvatar(ctx, "u1", &url))
	require.NoError(t, repo.SetDeviceToken(ctx, "u1", "tok"))
	require.NoError(t, repo.SetTotalSales(ctx, "u1", 3))

	p, err = repo.Get(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, p.AvatarURL)
	assert.Equal(t, url, *p.AvatarURL)
	assert.Equal(t, "tok", p.DeviceToken)
	assert.Equal(t, 3, p.TotalSales)

	assert.ErrorIs(t, repo.SetTotalSales(ctx, "ghost", 1), models.ErrNoRecord)
}

func TestUserRepository(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := &UserRepository{DB: db, Dialect: SQLite}

	u, err := repo.CreateUser(ctx, models.User{ID: "u1", Email: "a@b.mr", PasswordHash: "h"})
	require.NoError(t, err)
	_, err = repo.CreateUser(ctx, models.User{ID: "u2", Email: "a@b.mr", PasswordHash: "h"})
	assert.ErrorIs(t, err, models.ErrDuplicateEmail)

	exists, err := repo.EmailExists(ctx, "a@b.mr")
	require.NoError(t, err)
	assert.True(t, exists)

	got, err := repo.GetUserByEmail(ctx, "a@b.mr")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	_, err = repo.GetUserByID(ctx, "nope")
	assert.ErrorIs(t, err, models.ErrNoRecord)

	exp := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	require.NoError(t, repo.SetSession(ctx, models.Session{UserID: "u1", RefreshToken: "r1", ExpiresAt: exp}))
	s, err := repo.GetSession(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "u1", s.UserID)
	assert.True(t, exp.Equal(s.ExpiresAt))

	require.NoError(t, repo.DeleteSession(ctx, "r1"))
	_, err = repo.GetSession(ctx, "r1")
	assert.ErrorIs(t, err, models.ErrNoRecord)
}
