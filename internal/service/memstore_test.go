package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/AmrIbrahim41/smart-shop/internal/apperr"
	"github.com/AmrIbrahim41/smart-shop/internal/auth"
	"github.com/AmrIbrahim41/smart-shop/internal/events"
	"github.com/AmrIbrahim41/smart-shop/internal/models"
)

// memStore backs every repository interface with maps. RunInTx snapshots
// the maps and restores them when fn fails, which is enough to observe
// atomicity in single goroutine tests.
type memStore struct {
	products   map[primitive.ObjectID]models.Product
	categories map[primitive.ObjectID]models.Category
	tags       map[primitive.ObjectID]models.Tag
	reviews    map[primitive.ObjectID]models.Review
	orders     map[primitive.ObjectID]models.Order
	carts      map[primitive.ObjectID]models.CartItem
	wishlist   map[primitive.ObjectID]models.WishlistItem
	users      map[primitive.ObjectID]models.User
	profiles   map[primitive.ObjectID]models.Profile
	tokens     map[primitive.ObjectID]models.RefreshToken

	versions map[primitive.ObjectID]int64

	// afterProductRead runs once, right after the next product lookup, to
	// interleave a concurrent writer.
	afterProductRead func()
}

func newMemStore() *memStore {
	s := &memStore{}
	s.reset()
	return s
}

func (s *memStore) reset() {
	s.products = map[primitive.ObjectID]models.Product{}
	s.categories = map[primitive.ObjectID]models.Category{}
	s.tags = map[primitive.ObjectID]models.Tag{}
	s.reviews = map[primitive.ObjectID]models.Review{}
	s.orders = map[primitive.ObjectID]models.Order{}
	s.carts = map[primitive.ObjectID]models.CartItem{}
	s.wishlist = map[primitive.ObjectID]models.WishlistItem{}
	s.users = map[primitive.ObjectID]models.User{}
	s.profiles = map[primitive.ObjectID]models.Profile{}
	s.tokens = map[primitive.ObjectID]models.RefreshToken{}
	s.versions = map[primitive.ObjectID]int64{}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *memStore) snapshot() *memStore {
	return &memStore{
		products:   cloneMap(s.products),
		categories: cloneMap(s.categories),
		tags:       cloneMap(s.tags),
		reviews:    cloneMap(s.reviews),
		orders:     cloneMap(s.orders),
		carts:      cloneMap(s.carts),
		wishlist:   cloneMap(s.wishlist),
		users:      cloneMap(s.users),
		profiles:   cloneMap(s.profiles),
		tokens:     cloneMap(s.tokens),
		versions:   cloneMap(s.versions),
	}
}

func (s *memStore) restore(snap *memStore) {
	s.products = snap.products
	s.categories = snap.categories
	s.tags = snap.tags
	s.reviews = snap.reviews
	s.orders = snap.orders
	s.carts = snap.carts
	s.wishlist = snap.wishlist
	s.users = snap.users
	s.profiles = snap.profiles
	s.tokens = snap.tokens
	s.versions = snap.versions
}

func (s *memStore) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	snap := s.snapshot()
	if err := fn(ctx); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func sortNewestFirst[T any](items []T, key func(T) (time.Time, primitive.ObjectID)) {
	sort.SliceStable(items, func(i, j int) bool {
		ti, idi := key(items[i])
		tj, idj := key(items[j])
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return bytes.Compare(idi[:], idj[:]) > 0
	})
}

func productKey(p models.Product) (time.Time, primitive.ObjectID) { return p.CreatedAt, p.ID }
func orderKey(o models.Order) (time.Time, primitive.ObjectID)     { return o.CreatedAt, o.ID }

// products

type memProducts struct{ s *memStore }

func (r memProducts) matching(q models.ProductQuery) []models.Product {
	kw := strings.ToLower(q.Keyword)
	inKeywordCategory := map[primitive.ObjectID]bool{}
	for _, id := range q.KeywordCategoryIDs {
		inKeywordCategory[id] = true
	}
	out := make([]models.Product, 0)
	for _, p := range r.s.products {
		if q.ApprovedOnly && !p.IsApproved() {
			continue
		}
		if q.CategoryID != nil && (p.CategoryID == nil || *p.CategoryID != *q.CategoryID) {
			continue
		}
		if kw != "" {
			hit := strings.Contains(strings.ToLower(p.Name), kw) ||
				strings.Contains(strings.ToLower(p.Description), kw) ||
				strings.Contains(strings.ToLower(p.Brand), kw) ||
				(p.CategoryID != nil && inKeywordCategory[*p.CategoryID])
			if !hit {
				continue
			}
		}
		out = append(out, p)
	}
	sortNewestFirst(out, productKey)
	return out
}

func (r memProducts) Count(_ context.Context, q models.ProductQuery) (int64, error) {
	return int64(len(r.matching(q))), nil
}

func (r memProducts) Search(_ context.Context, q models.ProductQuery, skip, limit int64) ([]models.Product, error) {
	all := r.matching(q)
	if skip >= int64(len(all)) {
		return []models.Product{}, nil
	}
	end := skip + limit
	if end > int64(len(all)) {
		end = int64(len(all))
	}
	return all[skip:end], nil
}

func (r memProducts) FindByID(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	p, ok := r.s.products[id]
	if hook := r.s.afterProductRead; hook != nil {
		r.s.afterProductRead = nil
		hook()
	}
	if !ok {
		return nil, apperr.NotFound("Product not found")
	}
	return &p, nil
}

func (r memProducts) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Product, error) {
	out := make([]models.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := r.s.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r memProducts) FindByImageID(_ context.Context, imageID primitive.ObjectID) (*models.Product, error) {
	for _, p := range r.s.products {
		for _, img := range p.Images {
			if img.ID == imageID {
				return &p, nil
			}
		}
	}
	return nil, apperr.NotFound("Image not found")
}

func (r memProducts) FindByOwner(_ context.Context, ownerID primitive.ObjectID) ([]models.Product, error) {
	out := make([]models.Product, 0)
	for _, p := range r.s.products {
		if p.OwnedBy(ownerID) {
			out = append(out, p)
		}
	}
	sortNewestFirst(out, productKey)
	return out, nil
}

func (r memProducts) IDsByOwner(ctx context.Context, ownerID primitive.ObjectID) ([]primitive.ObjectID, error) {
	products, _ := r.FindByOwner(ctx, ownerID)
	ids := make([]primitive.ObjectID, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
	}
	return ids, nil
}

func (r memProducts) FindApproved(_ context.Context) ([]models.Product, error) {
	return r.matching(models.ProductQuery{ApprovedOnly: true}), nil
}

func (r memProducts) TopRated(_ context.Context, limit int) ([]models.Product, error) {
	all := r.matching(models.ProductQuery{})
	sort.SliceStable(all, func(i, j int) bool { return all[i].Rating > all[j].Rating })
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (r memProducts) CountAll(_ context.Context) (int64, error) {
	return int64(len(r.s.products)), nil
}

func (r memProducts) Insert(_ context.Context, p *models.Product) error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	r.s.products[p.ID] = *p
	return nil
}

func (r memProducts) Update(_ context.Context, p *models.Product) error {
	stored, ok := r.s.products[p.ID]
	if !ok {
		return apperr.NotFound("Product not found")
	}
	saved := *p
	saved.Rating, saved.NumReviews = stored.Rating, stored.NumReviews
	saved.CountInStock = stored.CountInStock
	r.s.products[p.ID] = saved
	return nil
}

func (r memProducts) SetStock(_ context.Context, id primitive.ObjectID, count int) error {
	p, ok := r.s.products[id]
	if !ok {
		return apperr.NotFound("Product not found")
	}
	p.CountInStock = count
	r.s.products[id] = p
	return nil
}

func (r memProducts) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := r.s.products[id]; !ok {
		return apperr.NotFound("Product not found")
	}
	delete(r.s.products, id)
	return nil
}

func (r memProducts) AdjustStock(_ context.Context, id primitive.ObjectID, delta int) error {
	p, ok := r.s.products[id]
	if !ok {
		return apperr.NotFound("Product not found")
	}
	p.CountInStock += delta
	r.s.products[id] = p
	return nil
}

func (r memProducts) BumpVersion(_ context.Context, id primitive.ObjectID) error {
	if _, ok := r.s.products[id]; !ok {
		return apperr.NotFound("Product not found")
	}
	r.s.versions[id]++
	return nil
}

func (r memProducts) SetRating(_ context.Context, id primitive.ObjectID, rating float64, numReviews int) error {
	p, ok := r.s.products[id]
	if !ok {
		return apperr.NotFound("Product not found")
	}
	p.Rating, p.NumReviews = rating, numReviews
	r.s.products[id] = p
	return nil
}

func (r memProducts) PullImage(_ context.Context, productID, imageID primitive.ObjectID) error {
	p := r.s.products[productID]
	kept := make([]models.ProductImage, 0, len(p.Images))
	for _, img := range p.Images {
		if img.ID != imageID {
			kept = append(kept, img)
		}
	}
	p.Images = kept
	r.s.products[productID] = p
	return nil
}

func (r memProducts) UnsetCategory(_ context.Context, categoryID primitive.ObjectID) error {
	for id, p := range r.s.products {
		if p.CategoryID != nil && *p.CategoryID == categoryID {
			p.CategoryID = nil
			r.s.products[id] = p
		}
	}
	return nil
}

func (r memProducts) PullTag(_ context.Context, tagID primitive.ObjectID) error {
	for id, p := range r.s.products {
		kept := make([]primitive.ObjectID, 0, len(p.TagIDs))
		for _, t := range p.TagIDs {
			if t != tagID {
				kept = append(kept, t)
			}
		}
		p.TagIDs = kept
		r.s.products[id] = p
	}
	return nil
}

func (r memProducts) DetachOwner(_ context.Context, ownerID primitive.ObjectID) error {
	for id, p := range r.s.products {
		if p.OwnedBy(ownerID) {
			p.UserID = nil
			r.s.products[id] = p
		}
	}
	return nil
}

// categories and tags

type memCategories struct{ s *memStore }

func (r memCategories) List(_ context.Context) ([]models.Category, error) {
	out := make([]models.Category, 0, len(r.s.categories))
	for _, c := range r.s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r memCategories) FindByID(_ context.Context, id primitive.ObjectID) (*models.Category, error) {
	c, ok := r.s.categories[id]
	if !ok {
		return nil, apperr.NotFound("Category not found")
	}
	return &c, nil
}

func (r memCategories) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Category, error) {
	out := make([]models.Category, 0, len(ids))
	for _, id := range ids {
		if c, ok := r.s.categories[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r memCategories) IDsMatchingName(_ context.Context, keyword string) ([]primitive.ObjectID, error) {
	var ids []primitive.ObjectID
	for _, c := range r.s.categories {
		if strings.Contains(strings.ToLower(c.Name), strings.ToLower(keyword)) {
			ids = append(ids, c.ID)
		}
	}
	return ids, nil
}

func (r memCategories) Insert(_ context.Context, c *models.Category) error {
	for _, existing := range r.s.categories {
		if existing.Name == c.Name {
			return apperr.Validation("Category with this name already exists")
		}
	}
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	r.s.categories[c.ID] = *c
	return nil
}

func (r memCategories) Update(_ context.Context, c *models.Category) error {
	r.s.categories[c.ID] = *c
	return nil
}

func (r memCategories) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := r.s.categories[id]; !ok {
		return apperr.NotFound("Category not found")
	}
	delete(r.s.categories, id)
	return nil
}

type memTags struct{ s *memStore }

func (r memTags) List(_ context.Context) ([]models.Tag, error) {
	out := make([]models.Tag, 0, len(r.s.tags))
	for _, t := range r.s.tags {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r memTags) FindByID(_ context.Context, id primitive.ObjectID) (*models.Tag, error) {
	t, ok := r.s.tags[id]
	if !ok {
		return nil, apperr.NotFound("Tag not found")
	}
	return &t, nil
}

func (r memTags) GetOrCreate(_ context.Context, name string) (*models.Tag, error) {
	for _, t := range r.s.tags {
		if t.Name == name {
			return &t, nil
		}
	}
	t := models.Tag{ID: primitive.NewObjectID(), Name: name}
	r.s.tags[t.ID] = t
	return &t, nil
}

func (r memTags) Insert(_ context.Context, t *models.Tag) error {
	if t.ID.IsZero() {
		t.ID = primitive.NewObjectID()
	}
	r.s.tags[t.ID] = *t
	return nil
}

func (r memTags) Update(_ context.Context, t *models.Tag) error {
	r.s.tags[t.ID] = *t
	return nil
}

func (r memTags) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := r.s.tags[id]; !ok {
		return apperr.NotFound("Tag not found")
	}
	delete(r.s.tags, id)
	return nil
}

// reviews

type memReviews struct{ s *memStore }

func (r memReviews) ListByProduct(_ context.Context, productID primitive.ObjectID) ([]models.Review, error) {
	out := make([]models.Review, 0)
	for _, rv := range r.s.reviews {
		if rv.ProductID == productID {
			out = append(out, rv)
		}
	}
	return out, nil
}

func (r memReviews) FindByProductAndUser(_ context.Context, productID, userID primitive.ObjectID) (*models.Review, error) {
	for _, rv := range r.s.reviews {
		if rv.ProductID == productID && rv.UserID != nil && *rv.UserID == userID {
			return &rv, nil
		}
	}
	return nil, nil
}

func (r memReviews) Insert(ctx context.Context, rv *models.Review) error {
	if rv.UserID != nil {
		if existing, _ := r.FindByProductAndUser(ctx, rv.ProductID, *rv.UserID); existing != nil {
			return apperr.Conflict("Product already reviewed")
		}
	}
	if rv.ID.IsZero() {
		rv.ID = primitive.NewObjectID()
	}
	r.s.reviews[rv.ID] = *rv
	return nil
}

func (r memReviews) Update(_ context.Context, rv *models.Review) error {
	if _, ok := r.s.reviews[rv.ID]; !ok {
		return apperr.NotFound("Review not found")
	}
	r.s.reviews[rv.ID] = *rv
	return nil
}

func (r memReviews) Stats(_ context.Context, productID primitive.ObjectID) (models.RatingStats, error) {
	var stats models.RatingStats
	for _, rv := range r.s.reviews {
		if rv.ProductID == productID {
			stats.Count++
			stats.Sum += rv.Rating
		}
	}
	return stats, nil
}

func (r memReviews) DeleteByProduct(_ context.Context, productID primitive.ObjectID) error {
	for id, rv := range r.s.reviews {
		if rv.ProductID == productID {
			delete(r.s.reviews, id)
		}
	}
	return nil
}

func (r memReviews) DetachUser(_ context.Context, userID primitive.ObjectID) error {
	for id, rv := range r.s.reviews {
		if rv.UserID != nil && *rv.UserID == userID {
			rv.UserID = nil
			r.s.reviews[id] = rv
		}
	}
	return nil
}

// orders

type memOrders struct{ s *memStore }

func (r memOrders) list(keep func(models.Order) bool) []models.Order {
	out := make([]models.Order, 0)
	for _, o := range r.s.orders {
		if keep(o) {
			out = append(out, o)
		}
	}
	sortNewestFirst(out, orderKey)
	return out
}

func (r memOrders) Insert(_ context.Context, o *models.Order) error {
	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	r.s.orders[o.ID] = *o
	return nil
}

func (r memOrders) FindByID(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	o, ok := r.s.orders[id]
	if !ok {
		return nil, apperr.NotFound("Order not found")
	}
	return &o, nil
}

func (r memOrders) ListByUser(_ context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	return r.list(func(o models.Order) bool { return o.PlacedBy(userID) }), nil
}

func (r memOrders) ListAll(_ context.Context) ([]models.Order, error) {
	return r.list(func(models.Order) bool { return true }), nil
}

func (r memOrders) ListContainingProducts(_ context.Context, productIDs []primitive.ObjectID) ([]models.Order, error) {
	wanted := map[primitive.ObjectID]bool{}
	for _, id := range productIDs {
		wanted[id] = true
	}
	return r.list(func(o models.Order) bool {
		for _, item := range o.Items {
			if item.ProductID != nil && wanted[*item.ProductID] {
				return true
			}
		}
		return false
	}), nil
}

func (r memOrders) Latest(ctx context.Context, n int) ([]models.Order, error) {
	all, _ := r.ListAll(ctx)
	if len(all) > n {
		all = all[:n]
	}
	return all, nil
}

func (r memOrders) MarkPaid(_ context.Context, id primitive.ObjectID, at time.Time) error {
	o, ok := r.s.orders[id]
	if !ok {
		return apperr.NotFound("Order not found")
	}
	o.IsPaid, o.PaidAt = true, &at
	r.s.orders[id] = o
	return nil
}

func (r memOrders) MarkDelivered(_ context.Context, id primitive.ObjectID, at time.Time) error {
	o, ok := r.s.orders[id]
	if !ok {
		return apperr.NotFound("Order not found")
	}
	o.IsDelivered, o.DeliveredAt = true, &at
	r.s.orders[id] = o
	return nil
}

func (r memOrders) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := r.s.orders[id]; !ok {
		return apperr.NotFound("Order not found")
	}
	delete(r.s.orders, id)
	return nil
}

func (r memOrders) DetachProduct(_ context.Context, productID primitive.ObjectID) error {
	for id, o := range r.s.orders {
		items := make([]models.OrderItem, len(o.Items))
		copy(items, o.Items)
		for i := range items {
			if items[i].ProductID != nil && *items[i].ProductID == productID {
				items[i].ProductID = nil
			}
		}
		o.Items = items
		r.s.orders[id] = o
	}
	return nil
}

func (r memOrders) DetachUser(_ context.Context, userID primitive.ObjectID) error {
	for id, o := range r.s.orders {
		if o.PlacedBy(userID) {
			o.UserID = nil
			r.s.orders[id] = o
		}
	}
	return nil
}

func (r memOrders) CountAll(_ context.Context) (int64, error) {
	return int64(len(r.s.orders)), nil
}

func (r memOrders) TotalSales(_ context.Context) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, o := range r.s.orders {
		total = total.Add(o.TotalPrice)
	}
	return total, nil
}

// cart and wishlist

type memCarts struct{ s *memStore }

func (r memCarts) ListByUser(_ context.Context, userID primitive.ObjectID) ([]models.CartItem, error) {
	out := make([]models.CartItem, 0)
	for _, item := range r.s.carts {
		if item.UserID == userID {
			out = append(out, item)
		}
	}
	sortNewestFirst(out, func(c models.CartItem) (time.Time, primitive.ObjectID) { return c.CreatedAt, c.ID })
	return out, nil
}

func (r memCarts) Upsert(_ context.Context, userID, productID primitive.ObjectID, qty int, now time.Time) error {
	for id, item := range r.s.carts {
		if item.UserID == userID && item.ProductID == productID {
			item.Qty = qty
			r.s.carts[id] = item
			return nil
		}
	}
	id := primitive.NewObjectID()
	r.s.carts[id] = models.CartItem{ID: id, UserID: userID, ProductID: productID, Qty: qty, CreatedAt: now}
	return nil
}

func (r memCarts) Remove(_ context.Context, userID, productID primitive.ObjectID) (bool, error) {
	for id, item := range r.s.carts {
		if item.UserID == userID && item.ProductID == productID {
			delete(r.s.carts, id)
			return true, nil
		}
	}
	return false, nil
}

func (r memCarts) Clear(_ context.Context, userID primitive.ObjectID) error {
	for id, item := range r.s.carts {
		if item.UserID == userID {
			delete(r.s.carts, id)
		}
	}
	return nil
}

func (r memCarts) DeleteByProduct(_ context.Context, productID primitive.ObjectID) error {
	for id, item := range r.s.carts {
		if item.ProductID == productID {
			delete(r.s.carts, id)
		}
	}
	return nil
}

type memWishlist struct{ s *memStore }

func (r memWishlist) ListByUser(_ context.Context, userID primitive.ObjectID) ([]models.WishlistItem, error) {
	out := make([]models.WishlistItem, 0)
	for _, item := range r.s.wishlist {
		if item.UserID == userID {
			out = append(out, item)
		}
	}
	sortNewestFirst(out, func(w models.WishlistItem) (time.Time, primitive.ObjectID) { return w.CreatedAt, w.ID })
	return out, nil
}

func (r memWishlist) Insert(_ context.Context, item *models.WishlistItem) error {
	for _, existing := range r.s.wishlist {
		if existing.UserID == item.UserID && existing.ProductID == item.ProductID {
			return apperr.Conflict("Product already in wishlist")
		}
	}
	r.s.wishlist[item.ID] = *item
	return nil
}

func (r memWishlist) Remove(_ context.Context, userID, productID primitive.ObjectID) (bool, error) {
	for id, item := range r.s.wishlist {
		if item.UserID == userID && item.ProductID == productID {
			delete(r.s.wishlist, id)
			return true, nil
		}
	}
	return false, nil
}

func (r memWishlist) Clear(_ context.Context, userID primitive.ObjectID) error {
	for id, item := range r.s.wishlist {
		if item.UserID == userID {
			delete(r.s.wishlist, id)
		}
	}
	return nil
}

func (r memWishlist) DeleteByProduct(_ context.Context, productID primitive.ObjectID) error {
	for id, item := range r.s.wishlist {
		if item.ProductID == productID {
			delete(r.s.wishlist, id)
		}
	}
	return nil
}

// users, profiles and refresh tokens

type memUsers struct{ s *memStore }

func (r memUsers) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	u, ok := r.s.users[id]
	if !ok {
		return nil, apperr.NotFound("User not found")
	}
	return &u, nil
}

func (r memUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range r.s.users {
		if u.Email == email || u.Username == email {
			return &u, nil
		}
	}
	return nil, apperr.NotFound("User not found")
}

func (r memUsers) EmailTaken(ctx context.Context, email string) (bool, error) {
	_, err := r.FindByEmail(ctx, email)
	return err == nil, nil
}

func (r memUsers) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	out := make([]models.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := r.s.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r memUsers) List(_ context.Context) ([]models.User, error) {
	out := make([]models.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return bytes.Compare(out[i].ID[:], out[j].ID[:]) < 0 })
	return out, nil
}

func (r memUsers) Insert(_ context.Context, u *models.User) error {
	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return apperr.Validation("this email is already registered")
		}
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	r.s.users[u.ID] = *u
	return nil
}

func (r memUsers) Update(_ context.Context, u *models.User) error {
	if _, ok := r.s.users[u.ID]; !ok {
		return apperr.NotFound("User not found")
	}
	r.s.users[u.ID] = *u
	return nil
}

func (r memUsers) TouchLogin(_ context.Context, id primitive.ObjectID, at time.Time) error {
	u := r.s.users[id]
	u.LastLogin = &at
	r.s.users[id] = u
	return nil
}

func (r memUsers) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := r.s.users[id]; !ok {
		return apperr.NotFound("User not found")
	}
	delete(r.s.users, id)
	return nil
}

func (r memUsers) CountAll(_ context.Context) (int64, error) {
	return int64(len(r.s.users)), nil
}

type memProfiles struct{ s *memStore }

func (r memProfiles) FindByUser(_ context.Context, userID primitive.ObjectID) (*models.Profile, error) {
	for _, p := range r.s.profiles {
		if p.UserID == userID {
			return &p, nil
		}
	}
	return nil, nil
}

func (r memProfiles) FindByUsers(_ context.Context, userIDs []primitive.ObjectID) ([]models.Profile, error) {
	wanted := map[primitive.ObjectID]bool{}
	for _, id := range userIDs {
		wanted[id] = true
	}
	out := make([]models.Profile, 0)
	for _, p := range r.s.profiles {
		if wanted[p.UserID] {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r memProfiles) Insert(_ context.Context, p *models.Profile) error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	r.s.profiles[p.ID] = *p
	return nil
}

func (r memProfiles) Upsert(_ context.Context, p *models.Profile) error {
	for id, existing := range r.s.profiles {
		if existing.UserID == p.UserID {
			p.ID = id
			r.s.profiles[id] = *p
			return nil
		}
	}
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	r.s.profiles[p.ID] = *p
	return nil
}

func (r memProfiles) DeleteByUser(_ context.Context, userID primitive.ObjectID) error {
	for id, p := range r.s.profiles {
		if p.UserID == userID {
			delete(r.s.profiles, id)
		}
	}
	return nil
}

type memTokens struct{ s *memStore }

func (r memTokens) Insert(_ context.Context, t *models.RefreshToken) error {
	if t.ID.IsZero() {
		t.ID = primitive.NewObjectID()
	}
	r.s.tokens[t.ID] = *t
	return nil
}

func (r memTokens) FindByHash(_ context.Context, hash string) (*models.RefreshToken, error) {
	for _, t := range r.s.tokens {
		if t.TokenHash == hash {
			return &t, nil
		}
	}
	return nil, apperr.Unauthorized("Token is invalid or expired")
}

func (r memTokens) Revoke(_ context.Context, id primitive.ObjectID, replacedBy *primitive.ObjectID) (bool, error) {
	t, ok := r.s.tokens[id]
	if !ok || t.Revoked {
		return false, nil
	}
	t.Revoked, t.ReplacedBy = true, replacedBy
	r.s.tokens[id] = t
	return true, nil
}

func (r memTokens) DeleteByUser(_ context.Context, userID primitive.ObjectID) error {
	for id, t := range r.s.tokens {
		if t.UserID == userID {
			delete(r.s.tokens, id)
		}
	}
	return nil
}

// collaborators

type sentMail struct {
	To, Subject, Body string
}

type fakeMailer struct {
	fail error
	sent []sentMail
}

func (m *fakeMailer) Send(_ context.Context, to, subject, body string) error {
	if m.fail != nil {
		return m.fail
	}
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

type fakeStorage struct {
	saved   []string
	deleted []string
}

func (f *fakeStorage) Save(_ context.Context, folder, ext string, r io.Reader, _ int64) (string, error) {
	if _, err := io.ReadAll(r); err != nil {
		return "", err
	}
	ref := fmt.Sprintf("/media/%s/%d%s", folder, len(f.saved)+1, ext)
	f.saved = append(f.saved, ref)
	return ref, nil
}

func (f *fakeStorage) Delete(_ context.Context, ref string) error {
	f.deleted = append(f.deleted, ref)
	return nil
}

type recordingPublisher struct {
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.events = append(p.events, e)
	return nil
}

type countingObserver struct {
	orders  int
	reviews int
}

func (o *countingObserver) OrderPlaced(decimal.Decimal) { o.orders++ }
func (o *countingObserver) ReviewSubmitted(int) { o.reviews++ }

// countingCache never hits; it only counts invalidations.
type countingCache struct {
	invalidations int
}

func (c *countingCache) Get(context.Context) ([]models.Product, bool) { return nil, false }
func (c *countingCache) Set(context.Context, []models.Product) {}
func (c *countingCache) Invalidate(context.Context) { c.invalidations++ }

// fixture wires every service to one memStore.
type fixture struct {
	store    *memStore
	svc      *Services
	mail     *fakeMailer
	files    *fakeStorage
	events   *recordingPublisher
	observer *countingObserver
	cache    *countingCache
	tokens   *auth.Tokens
	clock    time.Time
}

func newFixture() *fixture {
	f := &fixture{
		store:    newMemStore(),
		mail:     &fakeMailer{},
		files:    &fakeStorage{},
		events:   &recordingPublisher{},
		observer: &countingObserver{},
		cache:    &countingCache{},
		tokens:   auth.NewTokens("test-secret", time.Hour, 72*time.Hour),
		clock:    time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	s := f.store
	f.svc = New(Deps{
		Tx:            s,
		Products:      memProducts{s},
		Categories:    memCategories{s},
		Tags:          memTags{s},
		Reviews:       memReviews{s},
		Orders:        memOrders{s},
		Carts:         memCarts{s},
		Wishlist:      memWishlist{s},
		Users:         memUsers{s},
		Profiles:      memProfiles{s},
		RefreshTokens: memTokens{s},
		Tokens:        f.tokens,
		Mailer:        f.mail,
		Storage:       f.files,
		Events:        f.events,
		Observer:      f.observer,
		TopCache:      f.cache,
		Clock:         func() time.Time { return f.clock },
		Options:       Options{FrontendURL: "https://shop.test"},
	})
	return f
}

// tick advances the fixture clock so later rows sort newer.
func (f *fixture) tick() {
	f.clock = f.clock.Add(time.Minute)
}

func (f *fixture) addUser(email string, accountType string, staff bool) (*models.User, *auth.Principal) {
	hash, err := auth.HashPassword("secret123")
	if err != nil {
		panic(err)
	}
	u := models.User{
		ID:           primitive.NewObjectID(),
		Username:     email,
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.Split(email, "@")[0],
		IsStaff:      staff,
		IsActive:     true,
		CreatedAt:    f.clock,
	}
	f.store.users[u.ID] = u
	f.store.profiles[primitive.NewObjectID()] = models.Profile{UserID: u.ID, Type: accountType}
	return &u, &auth.Principal{UserID: u.ID, IsAdmin: staff, AccountType: accountType}
}

func (f *fixture) addProduct(name string, price string, stock int, status string, owner *primitive.ObjectID) *models.Product {
	f.tick()
	p := models.Product{
		ID:             primitive.NewObjectID(),
		UserID:         owner,
		Name:           name,
		Price:          decimal.RequireFromString(price),
		CountInStock:   stock,
		ApprovalStatus: status,
		CreatedAt:      f.clock,
	}
	f.store.products[p.ID] = p
	return &p
}

func memUpload(name, content string) Upload {
	return Upload{
		Filename: name,
		Size:     int64(len(content)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(content)), nil
		},
	}
}
