package httpserver

import (
	"io"
	"mime/multipart"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shoe_store/internal/apperr"
	"github.com/Skotchmaster/shoe_store/internal/media"
	"github.com/Skotchmaster/shoe_store/internal/middleware/authmw"
	"github.com/Skotchmaster/shoe_store/internal/models"
	"github.com/Skotchmaster/shoe_store/internal/service"
	"github.com/Skotchmaster/shoe_store/pkg/logging"
)

const MsgNoImportFile = "Please upload an .xlsx file under \"file\""

type ProductsHTTP struct {
	Svc *service.ProductService
}

func (h *ProductsHTTP) List(c echo.Context) error {
	res, err := h.Svc.List(c.Request().Context(), c.QueryParams())
	if err != nil {
		return err
	}
	return page(c, "products", res)
}

func (h *ProductsHTTP) Search(c echo.Context) error {
	params := c.QueryParams()
	q := params.Get("q")
	if q == "" {
		return h.List(c)
	}
	params.Del("q")

	res, err := h.Svc.Search(c.Request().Context(), q, params)
	if err != nil {
		return err
	}
	return page(c, "products", res)
}

func (h *ProductsHTTP) Mine(c echo.Context) error {
	id, err := authmw.MustIdentity(c)
	if err != nil {
		return err
	}
	res, err := h.Svc.Mine(c.Request().Context(), id.UserID(), c.QueryParams())
	if err != nil {
		return err
	}
	return page(c, "products", res)
}

func (h *ProductsHTTP) Get(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	p, err := h.Svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, map[string]any{"product": p})
}

func (h *ProductsHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "products.create")

	id, err := authmw.MustIdentity(c)
	if err != nil {
		return err
	}

	var (
		req    ProductRequest
		images []io.Reader
	)
	if isMultipart(c) {
		closeAll, err := productForm(c, &req, &images)
		if err != nil {
			l.Warn("create_product_error", "status", 400, "reason", "invalid form", "error", err)
			return err
		}
		defer closeAll()
	} else if err := c.Bind(&req); err != nil {
		l.Warn("create_product_error", "status", 400, "reason", "invalid body", "error", err)
		return apperr.Wrap(apperr.KindValidation, MsgInvalidBody, err)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	p, err := h.Svc.Create(ctx, id, service.ProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       *req.Price,
		Category:    models.Category(req.Category),
		Sizes:       req.Sizes,
		OnSale:      req.OnSale,
		Images:      images,
	})
	if err != nil {
		return err
	}
	return success(c, http.StatusCreated, map[string]any{"product": p})
}

func (h *ProductsHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "products.update")

	id, err := authmw.MustIdentity(c)
	if err != nil {
		return err
	}
	productID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var (
		req    ProductPatchRequest
		images []io.Reader
	)
	if isMultipart(c) {
		closeAll, err := patchForm(c, &req, &images)
		if err != nil {
			l.Warn("update_product_error", "status", 400, "reason", "invalid form", "error", err)
			return err
		}
		defer closeAll()
	} else if err := c.Bind(&req); err != nil {
		l.Warn("update_product_error", "status", 400, "reason", "invalid body", "error", err)
		return apperr.Wrap(apperr.KindValidation, MsgInvalidBody, err)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	patch := service.ProductPatch{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Sizes:       req.Sizes,
		OnSale:      req.OnSale,
		Images:      images,
	}
	if req.Category != nil {
		cat := models.Category(*req.Category)
		patch.Category = &cat
	}

	p, err := h.Svc.Update(ctx, id, productID, patch)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, map[string]any{"product": p})
}

func (h *ProductsHTTP) Delete(c echo.Context) error {
	id, err := authmw.MustIdentity(c)
	if err != nil {
		return err
	}
	productID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Svc.Delete(c.Request().Context(), id, productID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ProductsHTTP) Import(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "products.import")

	id, err := authmw.MustIdentity(c)
	if err != nil {
		return err
	}
	fh, err := c.FormFile("file")
	if err != nil {
		l.Warn("import_error", "status", 400, "reason", "no file", "error", err)
		return apperr.Validation(MsgNoImportFile)
	}
	f, err := fh.Open()
	if err != nil {
		return apperr.Wrap(apperr.KindValidation, MsgNoImportFile, err)
	}
	defer f.Close()

	res, err := h.Svc.Import(ctx, id, f)
	if err != nil {
		return err
	}
	return success(c, http.StatusCreated, res)
}

func productForm(c echo.Context, req *ProductRequest, images *[]io.Reader) (func(), error) {
	form, err := c.MultipartForm()
	if err != nil {
		return func() {}, apperr.Wrap(apperr.KindValidation, MsgInvalidBody, err)
	}
	if v := formString(form, "name"); v != nil {
		req.Name = *v
	}
	if v := formString(form, "description"); v != nil {
		req.Description = *v
	}
	if v := formString(form, "category"); v != nil {
		req.Category = *v
	}
	if req.Price, err = formDecimal(form, "price"); err != nil {
		return func() {}, err
	}
	if req.Sizes, err = formSizes(form, "sizes"); err != nil {
		return func() {}, err
	}
	onSale, err := formBool(form, "on_sale")
	if err != nil {
		return func() {}, err
	}
	if onSale != nil {
		req.OnSale = *onSale
	}
	return formImages(form, images)
}

func patchForm(c echo.Context, req *ProductPatchRequest, images *[]io.Reader) (func(), error) {
	form, err := c.MultipartForm()
	if err != nil {
		return func() {}, apperr.Wrap(apperr.KindValidation, MsgInvalidBody, err)
	}
	req.Name = formString(form, "name")
	req.Description = formString(form, "description")
	req.Category = formString(form, "category")
	if req.Price, err = formDecimal(form, "price"); err != nil {
		return func() {}, err
	}
	if req.Sizes, err = formSizes(form, "sizes"); err != nil {
		return func() {}, err
	}
	if req.OnSale, err = formBool(form, "on_sale"); err != nil {
		return func() {}, err
	}
	return formImages(form, images)
}

func formImages(form *multipart.Form, images *[]io.Reader) (func(), error) {
	if len(form.File["images"]) > media.MaxProductImages {
		return func() {}, apperr.Validation(service.MsgTooManyImages)
	}
	files, closeAll, err := uploads(form, "images")
	if err != nil {
		return func() {}, err
	}
	*images = files
	return closeAll, nil
}
