package service

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/shoe_store/internal/apperr"
	"github.com/Skotchmaster/shoe_store/internal/auth"
	"github.com/Skotchmaster/shoe_store/internal/events"
	"github.com/Skotchmaster/shoe_store/internal/importer"
	"github.com/Skotchmaster/shoe_store/internal/media"
	"github.com/Skotchmaster/shoe_store/internal/models"
	"github.com/Skotchmaster/shoe_store/internal/query"
	"github.com/Skotchmaster/shoe_store/internal/repo"
	"github.com/Skotchmaster/shoe_store/internal/search"
	"github.com/Skotchmaster/shoe_store/pkg/logging"
)

const (
	MsgProductNotFound = "Product not found"
	MsgNotOwner        = "You do not own this product"
	MsgNoSizes         = "A product must have at least one size."
	MsgBadCategory     = "Category is either: Men's Shoes, Women's Shoes, Basketball Shoes, Running Shoes"
	MsgNegativePrice   = "Price must be a positive number"
	MsgNoName          = "A product must have a name"
	MsgNoDescription   = "A product must have a description"
	MsgTooManyImages   = "A product can have at most 5 images"
)

// Indexer is the full-text index products are mirrored into.
type Indexer interface {
	Put(ctx context.Context, p *models.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, q string, from, size int) (*search.Hits, error)
}

type ProductService struct {
	Lister
	Repo   *repo.GormRepo
	Media  media.Store
	Images media.Processor
	// Index is optional; without it search runs against the database.
	Index  Indexer
	Events events.Publisher
}

type ProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Category    models.Category
	Sizes       []int64
	OnSale      bool
	Images      []io.Reader
}

// ProductPatch leaves nil fields untouched. Non-empty Images replace the
// current set.
type ProductPatch struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Category    *models.Category
	Sizes       []int64
	OnSale      *bool
	Images      []io.Reader
}

type ImportResult struct {
	Created  int                 `json:"created"`
	Products []models.Product    `json:"products"`
	Errors   []importer.RowError `json:"errors"`
}

// CheckOwnership allows admins everywhere and sellers on their own products.
func CheckOwnership(id *auth.Identity, p *models.Product) error {
	if id == nil {
		return apperr.Authentication(auth.MsgNoToken)
	}
	if id.IsAdmin() || p.SellerID == id.UserID() {
		return nil
	}
	return apperr.Authorization(MsgNotOwner)
}

func (s *ProductService) List(ctx context.Context, params url.Values) (*query.Result[models.Product], error) {
	return s.Repo.ListProducts(ctx, s.build(ProductSchema, params))
}

func (s *ProductService) Mine(ctx context.Context, sellerID uuid.UUID, params url.Values) (*query.Result[models.Product], error) {
	return s.Repo.ListProducts(ctx, s.build(ProductSchema, params), query.Where("seller_id = ?", sellerID))
}

func (s *ProductService) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	p, err := s.Repo.FindProduct(ctx, id)
	if err != nil {
		return nil, notFound(err, MsgProductNotFound)
	}
	return p, nil
}

func (s *ProductService) Create(ctx context.Context, id *auth.Identity, in ProductInput) (*models.Product, error) {
	l := logging.FromContext(ctx).With("svc", "products.create")

	if err := validateProduct(in.Name, in.Description, in.Price, in.Category, in.Sizes); err != nil {
		l.Warn("create_product_error", "status", 400, "error", err)
		return nil, err
	}
	if len(in.Images) > media.MaxProductImages {
		return nil, apperr.Validation(MsgTooManyImages)
	}

	p := &models.Product{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Price:       in.Price,
		Category:    in.Category,
		Sizes:       pq.Int64Array(in.Sizes),
		OnSale:      in.OnSale,
		SellerID:    id.UserID(),
	}
	if len(in.Images) > 0 {
		processed, err := s.processImages(in.Images)
		if err != nil {
			l.Warn("create_product_error", "status", 400, "reason", "images", "error", err)
			return nil, err
		}
		folder := media.ProductFolder(p.ID)
		links, err := s.storeImages(ctx, folder, processed)
		if err != nil {
			l.Warn("create_product_error", "reason", "images", "error", err)
			return nil, err
		}
		p.Images = links
		p.MediaFolder = folder
	}

	if err := s.Repo.CreateProduct(ctx, p); err != nil {
		l.Error("create_product_error", "status", 500, "error", err)
		s.dropFolder(ctx, p.MediaFolder)
		return nil, err
	}
	s.indexed(ctx, p, events.ProductCreated)
	l.Info("product_created", "product_id", p.ID.String())
	return p, nil
}

func (s *ProductService) Update(ctx context.Context, id *auth.Identity, productID uuid.UUID, in ProductPatch) (*models.Product, error) {
	l := logging.FromContext(ctx).With("svc", "products.update")

	current, err := s.owned(ctx, id, productID)
	if err != nil {
		l.Warn("update_product_error", "product_id", productID.String(), "error", err)
		return nil, err
	}

	fields := map[string]any{}
	next := *current
	if in.Name != nil {
		next.Name = strings.TrimSpace(*in.Name)
		fields["name"] = next.Name
	}
	if in.Description != nil {
		next.Description = strings.TrimSpace(*in.Description)
		fields["description"] = next.Description
	}
	if in.Price != nil {
		next.Price = *in.Price
		fields["price"] = next.Price
	}
	if in.Category != nil {
		next.Category = *in.Category
		fields["category"] = next.Category
	}
	if in.Sizes != nil {
		next.Sizes = pq.Int64Array(in.Sizes)
		fields["sizes"] = next.Sizes
	}
	if in.OnSale != nil {
		fields["on_sale"] = *in.OnSale
	}
	if err := validateProduct(next.Name, next.Description, next.Price, next.Category, next.Sizes); err != nil {
		l.Warn("update_product_error", "status", 400, "error", err)
		return nil, err
	}
	if len(in.Images) > media.MaxProductImages {
		return nil, apperr.Validation(MsgTooManyImages)
	}
	// the current images stay in place until the row points at the new set
	var staged string
	if len(in.Images) > 0 {
		processed, err := s.processImages(in.Images)
		if err != nil {
			l.Warn("update_product_error", "status", 400, "reason", "images", "error", err)
			return nil, err
		}
		folder := media.ProductRevisionFolder(productID, uuid.NewString()[:8])
		links, err := s.storeImages(ctx, folder, processed)
		if err != nil {
			l.Warn("update_product_error", "reason", "images", "error", err)
			return nil, err
		}
		staged = folder
		fields["images"] = pq.StringArray(links)
		fields["media_folder"] = folder
	}
	if len(fields) == 0 {
		return current, nil
	}

	p, err := s.Repo.UpdateProduct(ctx, productID, fields)
	if err != nil {
		s.dropFolder(ctx, staged)
		return nil, notFound(err, MsgProductNotFound)
	}
	if staged != "" {
		s.dropFolder(ctx, current.MediaFolder)
	}
	s.indexed(ctx, p, events.ProductUpdated)
	l.Info("product_updated", "product_id", p.ID.String())
	return p, nil
}

func (s *ProductService) Delete(ctx context.Context, id *auth.Identity, productID uuid.UUID) error {
	l := logging.FromContext(ctx).With("svc", "products.delete")

	p, err := s.owned(ctx, id, productID)
	if err != nil {
		l.Warn("delete_product_error", "product_id", productID.String(), "error", err)
		return err
	}
	if err := s.Repo.DeleteProduct(ctx, productID); err != nil {
		return notFound(err, MsgProductNotFound)
	}
	s.dropFolder(ctx, p.MediaFolder)
	if s.Index != nil {
		if err := s.Index.Delete(ctx, productID); err != nil {
			l.Warn("index_delete_failed", "product_id", productID.String(), "error", err)
		}
	}
	events.Emit(ctx, s.Events, events.New(events.ProductDeleted, productID.String(), map[string]any{"id": productID}))
	l.Info("product_deleted", "product_id", productID.String())
	return nil
}

// searchWindow caps how many index hits are narrowed down by the
// structured filters of a search request.
const searchWindow = 500

// Search asks the full-text index for candidates and runs the request's
// filters, sort, fields and paging over them. Without a usable index it
// falls back to the database substring search.
func (s *ProductService) Search(ctx context.Context, q string, params url.Values) (*query.Result[models.Product], error) {
	l := logging.FromContext(ctx).With("svc", "products.search")

	b := s.build(ProductSchema, params)
	if err := b.Err(); err != nil {
		return nil, err
	}
	if s.Index != nil {
		hits, err := s.Index.Search(ctx, q, 0, searchWindow)
		if err == nil {
			opts := []query.RunOption{query.Where("id IN ?", hits.IDs)}
			if params.Get(query.ParamSort) == "" {
				opts = append(opts, query.RankByID(hits.IDs))
			}
			if hits.Total > int64(len(hits.IDs)) {
				l.Debug("search_window_truncated", "hits", hits.Total, "window", len(hits.IDs))
			}
			return s.Repo.ListProducts(ctx, b, opts...)
		}
		l.Warn("search_index_failed", "error", err)
	}

	fallback := url.Values{}
	for k, v := range params {
		fallback[k] = v
	}
	fallback.Set(query.ParamSearch, q)
	return s.Repo.ListProducts(ctx, s.build(ProductSchema, fallback))
}

// Import creates one product per valid spreadsheet row. Rows that fail
// validation are reported and skipped.
func (s *ProductService) Import(ctx context.Context, id *auth.Identity, r io.Reader) (*ImportResult, error) {
	l := logging.FromContext(ctx).With("svc", "products.import")

	rows, rowErrs, err := importer.Parse(r)
	if err != nil {
		l.Warn("import_error", "status", 400, "error", err)
		return nil, err
	}

	res := &ImportResult{Errors: rowErrs, Products: []models.Product{}}
	if res.Errors == nil {
		res.Errors = []importer.RowError{}
	}
	products := make([]models.Product, 0, len(rows))
	for _, row := range rows {
		products = append(products, models.Product{
			ID:          uuid.New(),
			Name:        row.Name,
			Description: row.Description,
			Price:       row.Price,
			Category:    row.Category,
			Sizes:       pq.Int64Array(row.Sizes),
			OnSale:      row.OnSale,
			SellerID:    id.UserID(),
		})
	}
	if len(products) > 0 {
		if err := s.Repo.CreateProducts(ctx, products); err != nil {
			l.Error("import_error", "status", 500, "error", err)
			return nil, err
		}
	}
	for i := range products {
		s.indexed(ctx, &products[i], events.ProductCreated)
	}
	res.Created = len(products)
	res.Products = products
	l.Info("import_finished", "created", res.Created, "rejected", len(res.Errors))
	return res, nil
}

func (s *ProductService) owned(ctx context.Context, id *auth.Identity, productID uuid.UUID) (*models.Product, error) {
	p, err := s.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	if err := CheckOwnership(id, p); err != nil {
		return nil, err
	}
	return p, nil
}

// processImages validates and resizes every upload before anything is
// stored.
func (s *ProductService) processImages(images []io.Reader) ([][]byte, error) {
	out := make([][]byte, 0, len(images))
	for _, img := range images {
		data, err := s.Images.Process(img, media.ProductShape)
		if err != nil {
			return nil, err
		}
		out = append(out, data)
	}
	return out, nil
}

func (s *ProductService) storeImages(ctx context.Context, folder string, images [][]byte) ([]string, error) {
	links := make([]string, 0, len(images))
	for i, data := range images {
		link, err := s.Media.Store(ctx, data, folder, fmt.Sprintf("image-%d", i+1))
		if err != nil {
			s.dropFolder(ctx, folder)
			return nil, err
		}
		links = append(links, link)
	}
	return links, nil
}

func (s *ProductService) dropFolder(ctx context.Context, folder string) {
	if folder == "" || s.Media == nil {
		return
	}
	if err := s.Media.DeleteFolder(ctx, folder); err != nil {
		logging.FromContext(ctx).Warn("media_delete_failed", "folder", folder, "error", err)
	}
}

func (s *ProductService) indexed(ctx context.Context, p *models.Product, typ string) {
	if s.Index != nil {
		if err := s.Index.Put(ctx, p); err != nil {
			logging.FromContext(ctx).Warn("index_put_failed", "product_id", p.ID.String(), "error", err)
		}
	}
	events.Emit(ctx, s.Events, events.New(typ, p.ID.String(), search.DocumentFrom(p)))
}

func validateProduct(name, description string, price decimal.Decimal, cat models.Category, sizes []int64) error {
	switch {
	case strings.TrimSpace(name) == "":
		return apperr.Validation(MsgNoName)
	case strings.TrimSpace(description) == "":
		return apperr.Validation(MsgNoDescription)
	case price.IsNegative():
		return apperr.Validation(MsgNegativePrice)
	case !cat.Valid():
		return apperr.Validation(MsgBadCategory)
	case len(sizes) == 0:
		return apperr.Validation(MsgNoSizes)
	}
	for _, sz := range sizes {
		if sz <= 0 {
			return apperr.Validationf("Invalid shoe size: %d", sz)
		}
	}
	return nil
}
