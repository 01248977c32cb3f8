package service

import (
	"bytes"
	"context"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/AmrIbrahim41/smart-shop/internal/apperr"
	"github.com/AmrIbrahim41/smart-shop/internal/auth"
	"github.com/AmrIbrahim41/smart-shop/internal/models"
)

const productImagesFolder = "products"

type CatalogService struct {
	d *Deps
}

// ProductInput carries the fields of a create or update request. Nil
// pointers and unset flags leave the stored value alone.
type ProductInput struct {
	Name           *string
	Brand          *string
	Description    *string
	Price          *decimal.Decimal
	CountInStock   *int
	ApprovalStatus *string

	DiscountSet   bool
	DiscountPrice *decimal.Decimal

	CategorySet bool
	CategoryID  *primitive.ObjectID

	TagsSet  bool
	TagNames []string

	Image  *Upload
	Images []Upload
}

// List searches the catalog. Callers that are not staff only ever see
// approved products.
func (s *CatalogService) List(ctx context.Context, p *auth.Principal, keyword string, categoryID *primitive.ObjectID, rawPage string) (*models.ProductPage, error) {
	q := models.ProductQuery{
		Keyword:      strings.TrimSpace(keyword),
		CategoryID:   categoryID,
		ApprovedOnly: !p.IsStaff(),
	}
	if q.Keyword != "" {
		ids, err := s.d.Categories.IDsMatchingName(ctx, q.Keyword)
		if err != nil {
			return nil, err
		}
		q.KeywordCategoryIDs = ids
	}

	total, err := s.d.Products.Count(ctx, q)
	if err != nil {
		return nil, err
	}
	size := s.d.Options.PageSize
	pages := PageCount(total, size)
	page := ResolvePage(rawPage, pages)

	products, err := s.d.Products.Search(ctx, q, int64((page-1)*size), int64(size))
	if err != nil {
		return nil, err
	}
	if err := s.enrich(ctx, products); err != nil {
		return nil, err
	}
	return &models.ProductPage{Products: products, Page: page, Pages: pages}, nil
}

// Get returns one product with its reviews.
func (s *CatalogService) Get(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	product, err := s.d.Products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	reviews, err := s.d.Reviews.ListByProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	for i := range reviews {
		if reviews[i].UserID == nil {
			reviews[i].Name = "Anonymous"
		}
	}
	product.Reviews = reviews

	one := []models.Product{*product}
	if err := s.enrich(ctx, one); err != nil {
		return nil, err
	}
	return &one[0], nil
}

// Top returns the best rated products regardless of approval status.
func (s *CatalogService) Top(ctx context.Context) ([]models.Product, error) {
	if products, ok := s.d.TopCache.Get(ctx); ok {
		return products, nil
	}
	products, err := s.d.Products.TopRated(ctx, s.d.Options.TopProductsLimit)
	if err != nil {
		return nil, err
	}
	if err := s.enrich(ctx, products); err != nil {
		return nil, err
	}
	s.d.TopCache.Set(ctx, products)
	return products, nil
}

func (s *CatalogService) Mine(ctx context.Context, p *auth.Principal) ([]models.Product, error) {
	if err := requireUser(p); err != nil {
		return nil, err
	}
	products, err := s.d.Products.FindByOwner(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	return products, s.enrich(ctx, products)
}

// ByCategory groups approved products under their category. Categories
// without approved products are left out.
func (s *CatalogService) ByCategory(ctx context.Context) ([]models.CategoryProducts, error) {
	products, err := s.d.Products.FindApproved(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.enrich(ctx, products); err != nil {
		return nil, err
	}

	grouped := make(map[primitive.ObjectID][]models.Product)
	var ids []primitive.ObjectID
	for _, product := range products {
		if product.CategoryID == nil {
			continue
		}
		id := *product.CategoryID
		if _, seen := grouped[id]; !seen {
			ids = append(ids, id)
		}
		grouped[id] = append(grouped[id], product)
	}

	categories, err := s.d.Categories.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	sort.Slice(categories, func(i, j int) bool { return bytes.Compare(categories[i].ID[:], categories[j].ID[:]) < 0 })

	out := make([]models.CategoryProducts, 0, len(categories))
	for _, c := range categories {
		out = append(out, models.CategoryProducts{ID: c.ID, Name: c.Name, Products: grouped[c.ID]})
	}
	return out, nil
}

// Create lists a new product. Vendors' products start pending; staff may set
// the approval status directly.
func (s *CatalogService) Create(ctx context.Context, p *auth.Principal, in ProductInput) (*models.Product, error) {
	if err := requireUser(p); err != nil {
		return nil, err
	}
	if !p.IsStaff() && !p.IsVendor() {
		return nil, apperr.Forbidden("Only vendors can add products")
	}

	product := &models.Product{
		ID:             primitive.NewObjectID(),
		UserID:         &p.UserID,
		TagIDs:         []primitive.ObjectID{},
		Images:         []models.ProductImage{},
		ApprovalStatus: models.ApprovalPending,
		CreatedAt:      s.d.now(),
	}
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, apperr.Validation("Product name is required")
	}
	if in.Price == nil {
		return nil, apperr.Validation("Price is required")
	}
	if err := s.apply(ctx, p, product, in); err != nil {
		return nil, err
	}

	stored, err := s.storeUploads(ctx, product, in)
	if err != nil {
		return nil, err
	}

	err = s.d.Tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.applyTags(ctx, product, in); err != nil {
			return err
		}
		return s.d.Products.Insert(ctx, product)
	})
	if err != nil {
		s.d.removeFiles(ctx, stored...)
		return nil, err
	}

	s.d.TopCache.Invalidate(ctx)
	s.d.Log.Info("product created", zap.String("productId", product.ID.Hex()), zap.String("userId", p.UserID.Hex()))
	return product, nil
}

// Update edits a product. Only its owner or staff may do so; gallery images
// are appended, tags replaced when sent.
func (s *CatalogService) Update(ctx context.Context, p *auth.Principal, id primitive.ObjectID, in ProductInput) (*models.Product, error) {
	if err := requireUser(p); err != nil {
		return nil, err
	}
	product, err := s.d.Products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsStaff() && !product.OwnedBy(p.UserID) {
		return nil, apperr.Forbidden("Not authorized to edit this product")
	}

	oldImage := product.Image
	if err := s.apply(ctx, p, product, in); err != nil {
		return nil, err
	}
	stored, err := s.storeUploads(ctx, product, in)
	if err != nil {
		return nil, err
	}

	err = s.d.Tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.applyTags(ctx, product, in); err != nil {
			return err
		}
		if err := s.d.Products.Update(ctx, product); err != nil {
			return err
		}
		if in.CountInStock != nil {
			return s.d.Products.SetStock(ctx, product.ID, product.CountInStock)
		}
		return nil
	})
	if err != nil {
		s.d.removeFiles(ctx, stored...)
		return nil, err
	}
	if in.Image != nil && oldImage != "" && oldImage != product.Image {
		s.d.removeFiles(ctx, oldImage)
	}

	s.d.TopCache.Invalidate(ctx)
	return product, nil
}

// Delete removes a product with its reviews, cart lines and wishlist entries
// in one transaction. Order items keep their snapshot but lose the link.
func (s *CatalogService) Delete(ctx context.Context, p *auth.Principal, id primitive.ObjectID) error {
	if err := requireUser(p); err != nil {
		return err
	}
	product, err := s.d.Products.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !p.IsStaff() && !product.OwnedBy(p.UserID) {
		return apperr.Forbidden("Not authorized to delete this product")
	}

	err = s.d.Tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.d.Reviews.DeleteByProduct(ctx, id); err != nil {
			return err
		}
		if err := s.d.Carts.DeleteByProduct(ctx, id); err != nil {
			return err
		}
		if err := s.d.Wishlist.DeleteByProduct(ctx, id); err != nil {
			return err
		}
		if err := s.d.Orders.DetachProduct(ctx, id); err != nil {
			return err
		}
		return s.d.Products.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	s.d.removeFiles(ctx, product.ImagePaths()...)
	s.d.TopCache.Invalidate(ctx)
	s.d.Log.Info("product deleted", zap.String("productId", id.Hex()))
	return nil
}

// DeleteImage removes one gallery image.
func (s *CatalogService) DeleteImage(ctx context.Context, p *auth.Principal, imageID primitive.ObjectID) error {
	if err := requireUser(p); err != nil {
		return err
	}
	product, err := s.d.Products.FindByImageID(ctx, imageID)
	if err != nil {
		return err
	}
	if !p.IsStaff() && !product.OwnedBy(p.UserID) {
		return apperr.Forbidden("Not authorized to delete this image")
	}
	if err := s.d.Products.PullImage(ctx, product.ID, imageID); err != nil {
		return err
	}
	for _, img := range product.Images {
		if img.ID == imageID {
			s.d.removeFiles(ctx, img.Image)
		}
	}
	return nil
}

func (s *CatalogService) apply(ctx context.Context, p *auth.Principal, product *models.Product, in ProductInput) error {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return apperr.Validation("Product name is required")
		}
		product.Name = name
	}
	if in.Brand != nil {
		product.Brand = strings.TrimSpace(*in.Brand)
	}
	if in.Description != nil {
		product.Description = strings.TrimSpace(*in.Description)
	}
	if in.Price != nil {
		if in.Price.IsNegative() {
			return apperr.Validation("Price must be zero or more")
		}
		product.Price = in.Price.Round(2)
	}
	if in.DiscountSet {
		if in.DiscountPrice != nil {
			if in.DiscountPrice.IsNegative() {
				return apperr.Validation("Discount price must be zero or more")
			}
			rounded := in.DiscountPrice.Round(2)
			product.DiscountPrice = &rounded
		} else {
			product.DiscountPrice = nil
		}
	}
	if in.CountInStock != nil {
		if *in.CountInStock < 0 {
			return apperr.Validation("Stock must be zero or more")
		}
		product.CountInStock = *in.CountInStock
	}
	if in.CategorySet {
		if in.CategoryID != nil {
			if _, err := s.d.Categories.FindByID(ctx, *in.CategoryID); err != nil {
				if apperr.Is(err, apperr.KindNotFound) {
					return apperr.Validation("Category does not exist")
				}
				return err
			}
		}
		product.CategoryID = in.CategoryID
	}
	if in.ApprovalStatus != nil && p.IsStaff() {
		if !models.ValidApprovalStatus(*in.ApprovalStatus) {
			return apperr.Validation("approval_status must be pending, approved or rejected")
		}
		product.ApprovalStatus = *in.ApprovalStatus
	}
	return nil
}

// applyTags resolves tag names to ids, creating missing tags.
func (s *CatalogService) applyTags(ctx context.Context, product *models.Product, in ProductInput) error {
	if !in.TagsSet {
		return nil
	}
	ids := make([]primitive.ObjectID, 0, len(in.TagNames))
	seen := make(map[primitive.ObjectID]bool)
	for _, name := range in.TagNames {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		tag, err := s.d.Tags.GetOrCreate(ctx, name)
		if err != nil {
			return err
		}
		if !seen[tag.ID] {
			seen[tag.ID] = true
			ids = append(ids, tag.ID)
		}
	}
	product.TagIDs = ids
	return nil
}

// storeUploads saves the main and gallery images and returns the references
// written, so the caller can remove them if persisting the product fails.
func (s *CatalogService) storeUploads(ctx context.Context, product *models.Product, in ProductInput) ([]string, error) {
	var stored []string
	if in.Image != nil {
		ref, err := s.d.storeImage(ctx, productImagesFolder, *in.Image)
		if err != nil {
			return nil, err
		}
		stored = append(stored, ref)
		product.Image = ref
	}
	for _, up := range in.Images {
		ref, err := s.d.storeImage(ctx, productImagesFolder, up)
		if err != nil {
			s.d.removeFiles(ctx, stored...)
			return nil, err
		}
		stored = append(stored, ref)
		product.Images = append(product.Images, models.ProductImage{ID: primitive.NewObjectID(), Image: ref})
	}
	return stored, nil
}

// enrich fills the owner and category names used by product views.
func (s *CatalogService) enrich(ctx context.Context, products []models.Product) error {
	return enrichProducts(ctx, s.d, products)
}

func enrichProducts(ctx context.Context, d *Deps, products []models.Product) error {
	if len(products) == 0 {
		return nil
	}
	userIDs := make([]primitive.ObjectID, 0)
	categoryIDs := make([]primitive.ObjectID, 0)
	for _, p := range products {
		if p.UserID != nil {
			userIDs = append(userIDs, *p.UserID)
		}
		if p.CategoryID != nil {
			categoryIDs = append(categoryIDs, *p.CategoryID)
		}
	}

	users, err := d.Users.FindByIDs(ctx, uniqueIDs(userIDs))
	if err != nil {
		return err
	}
	categories, err := d.Categories.FindByIDs(ctx, uniqueIDs(categoryIDs))
	if err != nil {
		return err
	}

	userNames := make(map[primitive.ObjectID]string, len(users))
	for _, u := range users {
		userNames[u.ID] = u.FirstName
	}
	categoryNames := make(map[primitive.ObjectID]string, len(categories))
	for _, c := range categories {
		categoryNames[c.ID] = c.Name
	}

	for i := range products {
		if products[i].UserID != nil {
			products[i].UserName = userNames[*products[i].UserID]
		}
		if products[i].CategoryID != nil {
			products[i].CategoryName = categoryNames[*products[i].CategoryID]
		}
		if products[i].TagIDs == nil {
			products[i].TagIDs = []primitive.ObjectID{}
		}
		if products[i].Images == nil {
			products[i].Images = []models.ProductImage{}
		}
	}
	return nil
}

func uniqueIDs(ids []primitive.ObjectID) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]bool, len(ids))
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
