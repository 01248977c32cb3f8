package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/AmrIbrahim41/smart-shop/internal/apperr"
	"github.com/AmrIbrahim41/smart-shop/internal/middleware"
	"github.com/AmrIbrahim41/smart-shop/internal/service"
)

const maxMultipartMemory = 32 << 20

// bodyFields reads one text field from a form or JSON body.
type bodyFields interface {
	value(key string) (string, bool)
}

type formValues struct{ c *gin.Context }

// value returns the last submitted value, so a field repeated by the form
// (a hidden default followed by a checkbox) resolves to what the user chose.
func (f formValues) value(key string) (string, bool) {
	values, ok := f.c.GetPostFormArray(key)
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[len(values)-1], true
}

type jsonValues map[string]json.RawMessage

func (j jsonValues) value(key string) (string, bool) {
	raw, ok := j[key]
	if !ok {
		return "", false
	}
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "null" {
		return "", true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}
	return trimmed, true
}

// requestFields parses a multipart, urlencoded or JSON body into a field
// reader. An empty body yields no fields.
func requestFields(c *gin.Context) (bodyFields, error) {
	contentType := c.ContentType()
	switch {
	case strings.HasPrefix(contentType, "multipart/form-data"):
		if err := c.Request.ParseMultipartForm(maxMultipartMemory); err != nil {
			return nil, apperr.Validation("invalid multipart body")
		}
		return formValues{c}, nil
	case contentType == "application/x-www-form-urlencoded":
		if err := c.Request.ParseForm(); err != nil {
			return nil, apperr.Validation("invalid form body")
		}
		return formValues{c}, nil
	default:
		body := jsonValues{}
		if c.Request.ContentLength != 0 {
			if err := json.NewDecoder(c.Request.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
				return nil, apperr.Validation("invalid request body")
			}
		}
		return body, nil
	}
}

// parseProductRequest accepts multipart forms (with image uploads),
// urlencoded forms and JSON bodies. Fields that are absent stay unset.
func parseProductRequest(c *gin.Context) (service.ProductInput, error) {
	var in service.ProductInput

	fields, err := requestFields(c)
	if err != nil {
		return in, err
	}

	if v, ok := fields.value("name"); ok {
		in.Name = &v
	}
	if v, ok := fields.value("brand"); ok {
		in.Brand = &v
	}
	if v, ok := fields.value("description"); ok {
		in.Description = &v
	}
	if v, ok := fields.value("approval_status"); ok && strings.TrimSpace(v) != "" {
		status := strings.ToLower(strings.TrimSpace(v))
		in.ApprovalStatus = &status
	}

	if v, ok := fields.value("price"); ok && strings.TrimSpace(v) != "" {
		price, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return in, apperr.Validation("price must be a number")
		}
		in.Price = &price
	}
	if v, ok := fields.value("discount_price"); ok {
		in.DiscountSet = true
		if v = strings.TrimSpace(v); v != "" {
			discount, err := decimal.NewFromString(v)
			if err != nil {
				return in, apperr.Validation("discount_price must be a number")
			}
			in.DiscountPrice = &discount
		}
	}
	if v, ok := fields.value("countInStock"); ok && strings.TrimSpace(v) != "" {
		stock, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return in, apperr.Validation("countInStock must be an integer")
		}
		in.CountInStock = &stock
	}
	if v, ok := fields.value("category"); ok && strings.TrimSpace(v) != "" {
		id, err := parseObjectID(v)
		if err != nil {
			return in, apperr.Validation("Category does not exist")
		}
		in.CategorySet = true
		in.CategoryID = &id
	}
	if v, ok := fields.value("tags"); ok {
		var names []string
		if err := json.Unmarshal([]byte(v), &names); err != nil {
			middleware.Logger(c).Warn("ignoring malformed tags", zap.String("tags", v), zap.Error(err))
		} else {
			in.TagsSet = true
			in.TagNames = names
		}
	}

	if c.Request.MultipartForm != nil {
		if files := c.Request.MultipartForm.File["image"]; len(files) > 0 {
			up := uploadFrom(files[0])
			in.Image = &up
		}
		for _, fh := range c.Request.MultipartForm.File["images"] {
			in.Images = append(in.Images, uploadFrom(fh))
		}
	}

	return in, nil
}

func uploadFrom(fh *multipart.FileHeader) service.Upload {
	return service.Upload{
		Filename: fh.Filename,
		Size:     fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

// formFile returns the named upload when present. Other errors are reported.
func formFile(c *gin.Context, name string) (*service.Upload, error) {
	fh, err := c.FormFile(name)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, apperr.Validation("invalid upload: " + name)
	}
	up := uploadFrom(fh)
	return &up, nil
}
