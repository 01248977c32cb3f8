// Package service holds the business rules of the shop. Services talk to
// storage through the repository interfaces in repositories.go and return
// apperr errors that the HTTP layer turns into responses.
package service

import (
	"context"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/AmrIbrahim41/smart-shop/internal/apperr"
	"github.com/AmrIbrahim41/smart-shop/internal/auth"
	"github.com/AmrIbrahim41/smart-shop/internal/cache"
	"github.com/AmrIbrahim41/smart-shop/internal/events"
	"github.com/AmrIbrahim41/smart-shop/internal/mailer"
	"github.com/AmrIbrahim41/smart-shop/internal/storage"
)

// Observer receives business measurements.
type Observer interface {
	OrderPlaced(total decimal.Decimal)
	ReviewSubmitted(rating int)
}

type nopObserver struct{}

func (nopObserver) OrderPlaced(decimal.Decimal) {}
func (nopObserver) ReviewSubmitted(int) {}

type Options struct {
	PageSize         int
	TopProductsLimit int
	FrontendURL      string
	RefreshTTL       time.Duration
}

type Deps struct {
	Tx            TxRunner
	Products      ProductRepository
	Categories    CategoryRepository
	Tags          TagRepository
	Reviews       ReviewRepository
	Orders        OrderRepository
	Carts         CartRepository
	Wishlist      WishlistRepository
	Users         UserRepository
	Profiles      ProfileRepository
	RefreshTokens RefreshTokenRepository

	Tokens   *auth.Tokens
	Mailer   mailer.Sender
	Storage  storage.Storage
	TopCache cache.TopProducts
	Events   events.Publisher
	Observer Observer
	Log      *zap.Logger
	Clock    func() time.Time

	Options Options
}

type Services struct {
	Catalog   *CatalogService
	Taxonomy  *TaxonomyService
	Orders    *OrderService
	Reviews   *ReviewService
	Carts     *CartService
	Accounts  *AccountService
	Dashboard *DashboardService
}

func New(d Deps) *Services {
	if d.TopCache == nil {
		d.TopCache = cache.Noop{}
	}
	if d.Events == nil {
		d.Events = events.Noop{}
	}
	if d.Observer == nil {
		d.Observer = nopObserver{}
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Clock == nil {
		d.Clock = time.Now
	}
	if d.Options.PageSize <= 0 {
		d.Options.PageSize = 8
	}
	if d.Options.TopProductsLimit <= 0 {
		d.Options.TopProductsLimit = 5
	}
	if d.Options.RefreshTTL <= 0 {
		d.Options.RefreshTTL = 7 * 24 * time.Hour
	}

	deps := &d
	return &Services{
		Catalog:   &CatalogService{deps},
		Taxonomy:  &TaxonomyService{deps},
		Orders:    &OrderService{deps},
		Reviews:   &ReviewService{deps},
		Carts:     &CartService{deps},
		Accounts:  &AccountService{deps},
		Dashboard: &DashboardService{deps},
	}
}

func (d *Deps) now() time.Time {
	return d.Clock().UTC()
}

// publish sends an event once the producing transaction has committed. A
// failed publish never fails the request.
func (d *Deps) publish(ctx context.Context, event events.Event) {
	if err := d.Events.Publish(ctx, event); err != nil {
		d.Log.Warn("event publish failed", zap.String("type", event.Type), zap.Error(err))
	}
}

// Upload is an image received with a request.
type Upload struct {
	Filename string
	Size     int64
	Open     func() (io.ReadCloser, error)
}

func (d *Deps) storeImage(ctx context.Context, folder string, up Upload) (string, error) {
	ext, err := storage.ImageExtension(up.Filename, up.Size)
	if err != nil {
		return "", apperr.Validation(err.Error())
	}
	r, err := up.Open()
	if err != nil {
		return "", apperr.Internal("failed to read upload", err)
	}
	defer r.Close()

	ref, err := d.Storage.Save(ctx, folder, ext, r, up.Size)
	if err != nil {
		return "", apperr.Internal("failed to store image", err)
	}
	return ref, nil
}

// removeFiles deletes stored files on a best-effort basis.
func (d *Deps) removeFiles(ctx context.Context, refs ...string) {
	for _, ref := range refs {
		if ref == "" {
			continue
		}
		if err := d.Storage.Delete(ctx, ref); err != nil {
			d.Log.Warn("stored file not removed", zap.String("ref", ref), zap.Error(err))
		}
	}
}

func requireUser(p *auth.Principal) error {
	if p == nil {
		return apperr.Unauthorized("Authentication credentials were not provided.")
	}
	return nil
}

func requireStaff(p *auth.Principal) error {
	if err := requireUser(p); err != nil {
		return err
	}
	if !p.IsAdmin {
		return apperr.Forbidden("You do not have permission to perform this action.")
	}
	return nil
}
