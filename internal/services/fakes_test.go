package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"soukBack/internal/cache"
	"soukBack/internal/catalog"
	"soukBack/internal/models"
	"soukBack/internal/notify"
	"soukBack/internal/search"
)

var errDown = errors.New("connection refused")

type fakeListings struct {
	mu        sync.Mutex
	rows      map[string]models.Listing
	seq       int
	failRead  bool
	failWrite error
	// beforeSearch runs at the start of Search, outside the lock.
	beforeSearch func()
}

func newFakeListings(ls ...models.Listing) *fakeListings {
	f := &fakeListings{rows: map[string]models.Listing{}}
	for _, l := range ls {
		f.rows[l.ID] = l
	}
	return f
}

func (f *fakeListings) all() []models.Listing {
	out := make([]models.Listing, 0, len(f.rows))
	for _, l := range f.rows {
		out = append(out, l)
	}
	search.SortListings(out, search.SortNewest)
	return out
}

func (f *fakeListings) Search(_ context.Context, c search.Criteria) ([]models.Listing, error) {
	if f.beforeSearch != nil {
		f.beforeSearch()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failRead {
		return nil, errDown
	}
	return search.Apply(f.all(), c, catalog.Default()), nil
}

func (f *fakeListings) Get(_ context.Context, id string) (models.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failRead {
		return models.Listing{}, errDown
	}
	l, ok := f.rows[id]
	if !ok {
		return models.Listing{}, models.ErrNoRecord
	}
	return l, nil
}

func (f *fakeListings) Insert(_ context.Context, l models.Listing) (models.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrite != nil {
		return models.Listing{}, f.failWrite
	}
	f.seq++
	l.ID = fmt.Sprintf("l%d", f.seq)
	l.CreatedAt = time.Now()
	f.rows[l.ID] = l
	return l, nil
}

func (f *fakeListings) Update(_ context.Context, l models.Listing) (models.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrite != nil {
		return models.Listing{}, f.failWrite
	}
	old, ok := f.rows[l.ID]
	if !ok {
		return models.Listing{}, models.ErrNoRecord
	}
	l.CreatedAt = old.CreatedAt
	f.rows[l.ID] = l
	return l, nil
}

func (f *fakeListings) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[id]; !ok {
		return models.ErrNoRecord
	}
	delete(f.rows, id)
	return nil
}

func (f *fakeListings) SetSold(_ context.Context, id string, sold bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.rows[id]
	if !ok {
		return models.ErrNoRecord
	}
	l.IsSold = sold
	f.rows[id] = l
	return nil
}

func (f *fakeListings) CountSold(_ context.Context, sellerID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, l := range f.rows {
		if l.SellerID == sellerID && l.IsSold {
			n++
		}
	}
	return n, nil
}

func (f *fakeListings) ListBySeller(_ context.Context, sellerID string) ([]models.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failRead {
		return nil, errDown
	}
	var out []models.Listing
	for _, l := range f.all() {
		if l.SellerID == sellerID {
			out = append(out, l)
		}
	}
	return out, nil
}

type fakeSellers struct {
	mu         sync.Mutex
	profiles   map[string]models.SellerProfile
	failCreate error
}

func newFakeSellers(ps ...models.SellerProfile) *fakeSellers {
	f := &fakeSellers{profiles: map[string]models.SellerProfile{}}
	for _, p := range ps {
		f.profiles[p.ID] = p
	}
	return f
}

func (f *fakeSellers) Get(_ context.Context, id string) (models.SellerProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[id]
	if !ok {
		return models.SellerProfile{}, models.ErrNoRecord
	}
	return p, nil
}

func (f *fakeSellers) Create(_ context.Context, p models.SellerProfile) (models.SellerProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate != nil {
		return models.SellerProfile{}, f.failCreate
	}
	if _, ok := f.profiles[p.ID]; ok {
		return models.SellerProfile{}, models.ErrDuplicateRecord
	}
	f.profiles[p.ID] = p
	return p, nil
}

func (f *fakeSellers) Update(_ context.Context, id, name, phone string) (models.SellerProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[id]
	if !ok {
		return models.SellerProfile{}, models.ErrNoRecord
	}
	p.Name, p.Phone = name, phone
	f.profiles[id] = p
	return p, nil
}

func (f *fakeSellers) update(id string, fn func(*models.SellerProfile)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[id]
	if !ok {
		return models.ErrNoRecord
	}
	fn(&p)
	f.profiles[id] = p
	return nil
}

func (f *fakeSellers) SetAvatar(_ context.Context, id string, url *string) error {
	return f.update(id, func(p *models.SellerProfile) { p.AvatarURL = url })
}

func (f *fakeSellers) SetDeviceToken(_ context.Context, id, token string) error {
	return f.update(id, func(p *models.SellerProfile) { p.DeviceToken = token })
}

func (f *fakeSellers) SetTotalSales(_ context.Context, id string, n int) error {
	return f.update(id, func(p *models.SellerProfile) { p.TotalSales = n })
}

type fakeUsers struct {
	mu        sync.Mutex
	users     map[string]models.User
	sessions  map[string]models.Session
	probeFail bool
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: map[string]models.User{}, sessions: map[string]models.Session{}}
}

func (f *fakeUsers) CreateUser(_ context.Context, u models.User) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return models.User{}, models.ErrDuplicateEmail
		}
	}
	f.users[u.ID] = u
	return u, nil
}

func (f *fakeUsers) GetUserByID(_ context.Context, id string) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return models.User{}, models.ErrNoRecord
	}
	return u, nil
}

func (f *fakeUsers) GetUserByEmail(_ context.Context, email string) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, models.ErrNoRecord
}

func (f *fakeUsers) EmailExists(ctx context.Context, email string) (bool, error) {
	if f.probeFail {
		return false, errDown
	}
	_, err := f.GetUserByEmail(ctx, email)
	return err == nil, nil
}

func (f *fakeUsers) SetSession(_ context.Context, s models.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[s.RefreshToken] = s
	return nil
}

func (f *fakeUsers) GetSession(_ context.Context, token string) (models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[token]
	if !ok {
		return models.Session{}, models.ErrNoRecord
	}
	return s, nil
}

func (f *fakeUsers) DeleteSession(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.sessions[token]; !ok {
		return models.ErrNoRecord
	}
	delete(f.sessions, token)
	return nil
}

// fakeStorage fails uploads whose payload is exactly failSize bytes.
type fakeStorage struct {
	mu       sync.Mutex
	objects  map[string][]byte
	deleted  []string
	failSize int
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: map[string][]byte{}}
}

func (s *fakeStorage) Upload(_ context.Context, bucket, path string, data []byte, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSize > 0 && len(data) == s.failSize {
		return "", errDown
	}
	s.objects[bucket+"/"+path] = data
	return s.PublicURL(bucket, path), nil
}

func (s *fakeStorage) Delete(_ context.Context, bucket, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, bucket+"/"+path)
	s.deleted = append(s.deleted, bucket+"/"+path)
	return nil
}

func (s *fakeStorage) PublicURL(bucket, path string) string {
	return "https://cdn.test/" + bucket + "/" + path
}

func (s *fakeStorage) ObjectPath(url string) (string, string, bool) {
	rest, ok := strings.CutPrefix(url, "https://cdn.test/")
	if !ok {
		return "", "", false
	}
	bucket, path, ok := strings.Cut(rest, "/")
	return bucket, path, ok
}

func (s *fakeStorage) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

type memCache struct {
	mu       sync.Mutex
	listings []models.Listing
	saved    int
}

func (c *memCache) Save(_ context.Context, ls []models.Listing) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listings = append([]models.Listing(nil), ls...)
	c.saved++
	return nil
}

func (c *memCache) Load(context.Context) ([]models.Listing, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.listings == nil {
		return nil, cache.ErrMiss
	}
	return append([]models.Listing(nil), c.listings...), nil
}

func (c *memCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listings = nil
	return nil
}

type recordingPusher struct {
	mu   sync.Mutex
	sent []notify.Message
}

func (p *recordingPusher) Push(_ context.Context, _ string, m notify.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, m)
	return nil
}

type fakeTokens struct{ n int }

func (t *fakeTokens) NewJWT(userID string) (string, time.Time, error) {
	return "access-" + userID, time.Now().Add(time.Minute), nil
}

func (t *fakeTokens) Parse(token string) (string, error) {
	id, ok := strings.CutPrefix(token, "access-")
	if !ok {
		return "", errors.New("bad token")
	}
	return id, nil
}

func (t *fakeTokens) NewRefreshToken() string {
	t.n++
	return fmt.Sprintf("refresh-%d", t.n)
}

func png(name string, size int) Upload {
	return Upload{Field: "images", Filename: name, ContentType: "image/png", Data: make([]byte, size)}
}
