package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"soukBack/internal/cache"
	"soukBack/internal/catalog"
	"soukBack/internal/models"
	"soukBack/internal/notify"
	"soukBack/internal/search"
	"soukBack/internal/storage"
	"soukBack/internal/validation"
)

const (
	defaultPageLimit     = 20
	maxPageLimit         = 100
	defaultUploadWorkers = 4
	maxTitleLength       = 255
)

type ListingService struct {
	Listings ListingStore
	Sellers  SellerStore
	Storage  storage.Storage
	Cache    SnapshotCache
	Pusher   notify.Pusher
	Tree     *catalog.Tree
	Log      Logger
	// UploadWorkers bounds concurrent uploads per submission.
	UploadWorkers int

	snapshotMu sync.Mutex
	writes     uint64
}

// ListingDraft is the submitted listing form. Price is kept as entered.
type ListingDraft struct {
	Title       string
	Description string
	Price       string
	Category    string
	Location    string
	Condition   string
	Features    []string
}

type Page struct {
	Page  int
	Limit int
}

func (p Page) normalized() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = defaultPageLimit
	}
	if p.Limit > maxPageLimit {
		p.Limit = maxPageLimit
	}
	return p
}

// SubmitResult is a stored listing plus the additional images that were
// rejected by validation and skipped.
type SubmitResult struct {
	Listing  models.Listing `json:"listing"`
	Rejected []FileError    `json:"rejected,omitempty"`
}

type storedObject struct {
	path string
	url  string
}

func (s *ListingService) tree() *catalog.Tree {
	if s.Tree == nil {
		return catalog.Default()
	}
	return s.Tree
}

func (s *ListingService) cache() SnapshotCache {
	if s.Cache == nil {
		return cache.Noop{}
	}
	return s.Cache
}

// Search runs the SQL prefilter, re-applies the exact predicate, sorts and
// pages. When the database fails the last snapshot is searched instead.
func (s *ListingService) Search(ctx context.Context, c search.Criteria, order search.Sort, page Page) (models.ListingList, error) {
	m := search.Compile(c, s.tree())
	page = page.normalized()

	source := "database"
	gen := s.generation()
	rows, err := s.Listings.Search(ctx, c)
	switch {
	case err == nil && m.MatchesAll():
		s.saveSnapshot(ctx, gen, rows)
	case err != nil:
		rows, err = s.fromSnapshot(ctx, err)
		if err != nil {
			return models.ListingList{}, err
		}
		source = "cache"
	}

	matched := m.Filter(rows)
	search.SortListings(matched, order)

	list := models.ListingList{
		Listings: []models.Listing{},
		Total:    len(matched),
		Page:     page.Page,
		Limit:    page.Limit,
		Source:   source,
	}
	for i, l := range matched {
		if i == 0 || l.Price < list.MinPrice {
			list.MinPrice = l.Price
		}
		if l.Price > list.MaxPrice {
			list.MaxPrice = l.Price
		}
	}
	// Compare page counts first so a huge page number cannot overflow the offset.
	pages := (len(matched) + page.Limit - 1) / page.Limit
	if page.Page <= pages {
		start := (page.Page - 1) * page.Limit
		end := min(start+page.Limit, len(matched))
		list.Listings = matched[start:end]
	}
	return list, nil
}

func (s *ListingService) Get(ctx context.Context, id string) (models.Listing, error) {
	l, err := s.Listings.Get(ctx, id)
	if err == nil || errors.Is(err, models.ErrNoRecord) {
		return l, err
	}
	rows, err := s.fromSnapshot(ctx, err)
	if err != nil {
		return models.Listing{}, err
	}
	for _, l := range rows {
		if l.ID == id {
			return l, nil
		}
	}
	return models.Listing{}, models.ErrNoRecord
}

func (s *ListingService) BySeller(ctx context.Context, sellerID string) ([]models.Listing, error) {
	rows, err := s.Listings.ListBySeller(ctx, sellerID)
	if err == nil {
		if rows == nil {
			rows = []models.Listing{}
		}
		return rows, nil
	}
	rows, err = s.fromSnapshot(ctx, err)
	if err != nil {
		return nil, err
	}
	out := []models.Listing{}
	for _, l := range rows {
		if l.SellerID == sellerID {
			out = append(out, l)
		}
	}
	search.SortListings(out, search.SortNewest)
	return out, nil
}

// fromSnapshot handles a failed database read. Cancellation is returned as is;
// otherwise the snapshot is loaded or ErrUnavailable returned.
func (s *ListingService) fromSnapshot(ctx context.Context, cause error) ([]models.Listing, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	log := logger(s.Log)
	log.Errorf("listing read failed, using snapshot: %v", cause)
	rows, err := s.cache().Load(ctx)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			log.Errorf("load listing snapshot: %v", err)
		}
		return nil, models.ErrUnavailable
	}
	return rows, nil
}

// Submit validates and stores a new listing with its images.
//
// Field errors and an invalid main image abort before anything is uploaded.
// Invalid additional images are skipped and reported in the result. If any
// upload fails the submission aborts with UploadErrors and images already
// stored stay in place. If the insert fails every image uploaded here is
// deleted.
func (s *ListingService) Submit(ctx context.Context, sellerID string, d ListingDraft, main *Upload, extra []Upload) (SubmitResult, error) {
	l, errs := s.validateDraft(d)
	if main == nil {
		errs.Add("image", "a main image is required")
	} else if err := validation.ValidateImage(main.imageFile(), validation.ListingImage); err != nil {
		errs.Add("image", err.Error())
	}
	if err := errs.Err(); err != nil {
		return SubmitResult{}, err
	}

	accepted, rejected := screenImages(extra)
	objs, err := s.uploadAll(ctx, sellerID, append([]Upload{*main}, accepted...))
	if err != nil {
		return SubmitResult{}, err
	}

	l.SellerID = sellerID
	l.Image = objs[0].url
	l.Images = urls(objs[1:])
	created, err := s.Listings.Insert(ctx, l)
	if err != nil {
		s.deleteObjects(ctx, objs)
		return SubmitResult{}, fmt.Errorf("save listing: %w", err)
	}

	s.invalidate(ctx)
	s.pushPublished(ctx, created)
	return SubmitResult{Listing: created, Rejected: rejected}, nil
}

// Update edits a listing owned by sellerID. A new main image replaces the old
// one, additional images are appended and images listed in remove are
// dropped. Replaced objects are deleted after the row is saved.
func (s *ListingService) Update(ctx context.Context, sellerID, id string, d ListingDraft, main *Upload, extra []Upload, remove []string) (SubmitResult, error) {
	existing, err := s.owned(ctx, sellerID, id)
	if err != nil {
		return SubmitResult{}, err
	}

	l, errs := s.validateDraft(d)
	if main != nil {
		if err := validation.ValidateImage(main.imageFile(), validation.ListingImage); err != nil {
			errs.Add("image", err.Error())
		}
	}
	if err := errs.Err(); err != nil {
		return SubmitResult{}, err
	}

	accepted, rejected := screenImages(extra)
	batch := accepted
	if main != nil {
		batch = append([]Upload{*main}, accepted...)
	}
	objs, err := s.uploadAll(ctx, sellerID, batch)
	if err != nil {
		return SubmitResult{}, err
	}

	l.ID = existing.ID
	l.SellerID = existing.SellerID
	l.IsSold = existing.IsSold
	l.Image = existing.Image
	added := objs
	var dropped []string
	if main != nil {
		l.Image = objs[0].url
		added = objs[1:]
		dropped = append(dropped, existing.Image)
	}
	removeSet := make(map[string]bool, len(remove))
	for _, u := range remove {
		removeSet[u] = true
	}
	l.Images = make([]string, 0, len(existing.Images)+len(added))
	for _, u := range existing.Images {
		if removeSet[u] {
			dropped = append(dropped, u)
			continue
		}
		l.Images = append(l.Images, u)
	}
	l.Images = append(l.Images, urls(added)...)

	updated, err := s.Listings.Update(ctx, l)
	if err != nil {
		s.deleteObjects(ctx, objs)
		return SubmitResult{}, fmt.Errorf("update listing: %w", err)
	}
	s.deleteURLs(ctx, dropped)
	s.invalidate(ctx)
	return SubmitResult{Listing: updated, Rejected: rejected}, nil
}

func (s *ListingService) Delete(ctx context.Context, sellerID, id string) error {
	existing, err := s.owned(ctx, sellerID, id)
	if err != nil {
		return err
	}
	if err := s.Listings.Delete(ctx, id); err != nil {
		return err
	}
	s.deleteURLs(ctx, append([]string{existing.Image}, existing.Images...))
	if existing.IsSold {
		s.recountSales(ctx, sellerID)
	}
	s.invalidate(ctx)
	return nil
}

// MarkSold sets the sold flag and refreshes the seller's sales counter.
func (s *ListingService) MarkSold(ctx context.Context, sellerID, id string, sold bool) (models.Listing, error) {
	if _, err := s.owned(ctx, sellerID, id); err != nil {
		return models.Listing{}, err
	}
	if err := s.Listings.SetSold(ctx, id, sold); err != nil {
		return models.Listing{}, err
	}
	s.recountSales(ctx, sellerID)
	s.invalidate(ctx)
	return s.Listings.Get(ctx, id)
}

// recountSales derives total_sales from the seller's sold listings. It is the
// only writer of that counter.
func (s *ListingService) recountSales(ctx context.Context, sellerID string) {
	n, err := s.Listings.CountSold(ctx, sellerID)
	if err != nil {
		logger(s.Log).Errorf("count sold listings for %s: %v", sellerID, err)
		return
	}
	if err := s.Sellers.SetTotalSales(ctx, sellerID, n); err != nil {
		logger(s.Log).Errorf("set total sales for %s: %v", sellerID, err)
	}
}

func (s *ListingService) owned(ctx context.Context, sellerID, id string) (models.Listing, error) {
	l, err := s.Listings.Get(ctx, id)
	if err != nil {
		return models.Listing{}, err
	}
	if l.SellerID != sellerID {
		return models.Listing{}, models.ErrForbidden
	}
	return l, nil
}

func (s *ListingService) validateDraft(d ListingDraft) (models.Listing, validation.Errors) {
	errs := validation.Errors{}
	l := models.Listing{
		Title:       strings.TrimSpace(d.Title),
		Description: strings.TrimSpace(d.Description),
		Category:    strings.TrimSpace(d.Category),
		Location:    strings.TrimSpace(d.Location),
		Condition:   models.Condition(strings.TrimSpace(d.Condition)),
		Features:    []string{},
	}

	switch {
	case l.Title == "":
		errs.Add("title", "title is required")
	case len([]rune(l.Title)) > maxTitleLength:
		errs.Add("title", fmt.Sprintf("title must be at most %d characters", maxTitleLength))
	}

	price := strings.TrimSpace(d.Price)
	if price == "" {
		errs.Add("price", "price is required")
	} else if v, err := strconv.ParseFloat(price, 64); err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		errs.Add("price", "price must be a number of at least 0")
	} else {
		l.Price = v
	}

	if !s.tree().Known(l.Category) {
		errs.Add("category", "choose a category")
	}
	if !l.Condition.Valid() {
		errs.Add("condition", "choose a condition")
	}

	for _, f := range d.Features {
		if f = strings.TrimSpace(f); f != "" {
			l.Features = append(l.Features, f)
		}
	}
	return l, errs
}

// screenImages validates each additional image on its own.
func screenImages(files []Upload) (accepted []Upload, rejected []FileError) {
	for _, f := range files {
		if err := validation.ValidateImage(f.imageFile(), validation.ListingImage); err != nil {
			rejected = append(rejected, newFileError(f, err))
			continue
		}
		accepted = append(accepted, f)
	}
	return accepted, rejected
}

// uploadAll stores files concurrently. Every file is attempted; the result
// keeps input order and failures are collected into UploadErrors.
func (s *ListingService) uploadAll(ctx context.Context, sellerID string, files []Upload) ([]storedObject, error) {
	objs := make([]storedObject, len(files))
	errs := make([]error, len(files))

	workers := s.UploadWorkers
	if workers <= 0 {
		workers = defaultUploadWorkers
	}
	var g errgroup.Group
	g.SetLimit(workers)
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			path := storage.ObjectKey(sellerID, validation.ImageExtension(f.ContentType, f.Filename))
			url, err := s.Storage.Upload(ctx, ListingImagesBucket, path, f.Data, f.ContentType)
			if err != nil {
				errs[i] = err
				return nil
			}
			objs[i] = storedObject{path: path, url: url}
			return nil
		})
	}
	_ = g.Wait()

	var failed UploadErrors
	for i, err := range errs {
		if err != nil {
			failed = append(failed, newFileError(files[i], err))
		}
	}
	if len(failed) > 0 {
		return nil, failed
	}
	return objs, nil
}

func (s *ListingService) deleteObjects(ctx context.Context, objs []storedObject) {
	ctx, cancel := detached(ctx)
	defer cancel()
	for _, o := range objs {
		if err := s.Storage.Delete(ctx, ListingImagesBucket, o.path); err != nil {
			logger(s.Log).Errorf("cleanup %s: %v", o.path, err)
		}
	}
}

// deleteURLs removes objects this store issued. Foreign URLs, such as seeded
// images, are left alone.
func (s *ListingService) deleteURLs(ctx context.Context, list []string) {
	ctx, cancel := detached(ctx)
	defer cancel()
	for _, u := range list {
		bucket, path, ok := s.Storage.ObjectPath(u)
		if !ok {
			continue
		}
		if err := s.Storage.Delete(ctx, bucket, path); err != nil {
			logger(s.Log).Errorf("delete %s: %v", u, err)
		}
	}
}

func (s *ListingService) generation() uint64 {
	s.snapshotMu.Lock()
	defer s.snapshotMu.Unlock()
	return s.writes
}

// saveSnapshot stores rows read at generation gen. A write that completed
// since then has already invalidated the snapshot and the rows are dropped.
func (s *ListingService) saveSnapshot(ctx context.Context, gen uint64, rows []models.Listing) {
	s.snapshotMu.Lock()
	defer s.snapshotMu.Unlock()
	if gen != s.writes {
		return
	}
	if err := s.cache().Save(ctx, rows); err != nil {
		logger(s.Log).Errorf("save listing snapshot: %v", err)
	}
}

func (s *ListingService) invalidate(ctx context.Context) {
	s.snapshotMu.Lock()
	defer s.snapshotMu.Unlock()
	s.writes++
	if err := s.cache().Invalidate(ctx); err != nil {
		logger(s.Log).Errorf("invalidate listing snapshot: %v", err)
	}
}

func (s *ListingService) pushPublished(ctx context.Context, l models.Listing) {
	if s.Pusher == nil || s.Sellers == nil {
		return
	}
	p, err := s.Sellers.Get(ctx, l.SellerID)
	if err != nil || p.DeviceToken == "" {
		return
	}
	msg := notify.Message{
		Title: "Listing published",
		Body:  l.Title,
		Data:  map[string]string{"type": "listing_published", "listing_id": l.ID},
	}
	if err := s.Pusher.Push(ctx, p.DeviceToken, msg); err != nil {
		logger(s.Log).Errorf("push listing published to %s: %v", l.SellerID, err)
	}
}

func urls(objs []storedObject) []string {
	out := make([]string, 0, len(objs))
	for _, o := range objs {
		out = append(out, o.url)
	}
	return out
}
