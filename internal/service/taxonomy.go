package service

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/AmrIbrahim41/smart-shop/internal/apperr"
	"github.com/AmrIbrahim41/smart-shop/internal/auth"
	"github.com/AmrIbrahim41/smart-shop/internal/models"
)

type TaxonomyService struct {
	d *Deps
}

type CategoryInput struct {
	Name        string
	Description *string
}

func (s *TaxonomyService) Categories(ctx context.Context) ([]models.Category, error) {
	return s.d.Categories.List(ctx)
}

func (s *TaxonomyService) CreateCategory(ctx context.Context, p *auth.Principal, in CategoryInput) (*models.Category, error) {
	if err := requireStaff(p); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.Validation("Category name is required")
	}
	c := &models.Category{Name: name, CreatedAt: s.d.now()}
	if in.Description != nil {
		c.Description = strings.TrimSpace(*in.Description)
	}
	if err := s.d.Categories.Insert(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *TaxonomyService) UpdateCategory(ctx context.Context, p *auth.Principal, id primitive.ObjectID, in CategoryInput) (*models.Category, error) {
	if err := requireStaff(p); err != nil {
		return nil, err
	}
	c, err := s.d.Categories.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if name := strings.TrimSpace(in.Name); name != "" {
		c.Name = name
	}
	if in.Description != nil {
		c.Description = strings.TrimSpace(*in.Description)
	}
	if err := s.d.Categories.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteCategory removes a category; its products stay, uncategorised.
func (s *TaxonomyService) DeleteCategory(ctx context.Context, p *auth.Principal, id primitive.ObjectID) error {
	if err := requireStaff(p); err != nil {
		return err
	}
	err := s.d.Tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.d.Categories.Delete(ctx, id); err != nil {
			return err
		}
		return s.d.Products.UnsetCategory(ctx, id)
	})
	if err == nil {
		s.d.TopCache.Invalidate(ctx)
	}
	return err
}

func (s *TaxonomyService) Tags(ctx context.Context) ([]models.Tag, error) {
	return s.d.Tags.List(ctx)
}

func (s *TaxonomyService) CreateTag(ctx context.Context, p *auth.Principal, name string) (*models.Tag, error) {
	if err := requireStaff(p); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("Tag name is required")
	}
	t := &models.Tag{Name: name}
	if err := s.d.Tags.Insert(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *TaxonomyService) UpdateTag(ctx context.Context, p *auth.Principal, id primitive.ObjectID, name string) (*models.Tag, error) {
	if err := requireStaff(p); err != nil {
		return nil, err
	}
	t, err := s.d.Tags.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if name = strings.TrimSpace(name); name != "" {
		t.Name = name
	}
	if err := s.d.Tags.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// DeleteTag removes a tag and detaches it from every product.
func (s *TaxonomyService) DeleteTag(ctx context.Context, p *auth.Principal, id primitive.ObjectID) error {
	if err := requireStaff(p); err != nil {
		return err
	}
	return s.d.Tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.d.Tags.Delete(ctx, id); err != nil {
			return err
		}
		return s.d.Products.PullTag(ctx, id)
	})
}
