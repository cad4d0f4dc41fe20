package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/altastore/catalog-service/internal/httperr"
	"github.com/altastore/catalog-service/internal/product"
	"github.com/altastore/catalog-service/internal/product/dto"
	"github.com/altastore/catalog-service/pkg/apperrors"
	"github.com/altastore/catalog-service/pkg/logger"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type ProductHandler struct {
	uc     product.UseCase
	logger logger.ZapLogger
}

func NewProductHandler(uc product.UseCase, log logger.ZapLogger) *ProductHandler {
	return &ProductHandler{uc: uc, logger: log}
}

func (h *ProductHandler) Register(g *echo.Group) {
	g.GET("/products", h.List)
	g.GET("/products/search", h.Search)
	g.POST("/products", h.Create)
	g.GET("/products/:id", h.Get)
	g.GET("/products/:id/image", h.GetImage)
	g.PUT("/products/:id", h.Update)
	g.DELETE("/products/:id", h.Delete)
}

func (h *ProductHandler) Create(c echo.Context) error {
	input, err := bindCreateInput(c)
	if err != nil {
		return httperr.Respond(c, err)
	}

	p, err := h.uc.Create(c.Request().Context(), input)
	if err != nil {
		h.logger.Error("create product failed", zap.Error(err))
		return httperr.Respond(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"data": p})
}

func (h *ProductHandler) Update(c echo.Context) error {
	input, err := bindUpdateInput(c)
	if err != nil {
		return httperr.Respond(c, err)
	}
	input.ID = c.Param("id")

	p, err := h.uc.Update(c.Request().Context(), input)
	if err != nil {
		h.logger.Error("update product failed", zap.String("product_id", input.ID), zap.Error(err))
		return httperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": p})
}

func (h *ProductHandler) Delete(c echo.Context) error {
	id := c.Param("id")
	if err := h.uc.Delete(c.Request().Context(), id); err != nil {
		h.logger.Error("delete product failed", zap.String("product_id", id), zap.Error(err))
		return httperr.Respond(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ProductHandler) Get(c echo.Context) error {
	p, err := h.uc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": p})
}

func (h *ProductHandler) GetImage(c echo.Context) error {
	image, contentType, err := h.uc.GetImage(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httperr.Respond(c, err)
	}
	return c.Blob(http.StatusOK, contentType, image)
}

func (h *ProductHandler) List(c echo.Context) error {
	filters := bindFilters(c)

	products, total, err := h.uc.List(c.Request().Context(), filters)
	if err != nil {
		return httperr.Respond(c, err)
	}

	resp := echo.Map{"data": products}
	if filters.Paginate {
		resp["meta"] = dto.NewPageMeta(filters, total)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *ProductHandler) Search(c echo.Context) error {
	page := intParam(c, "page", dto.DefaultPage)
	perPage := intParam(c, "per_page", dto.DefaultPerPage)

	products, total, err := h.uc.Search(c.Request().Context(), c.QueryParam("q"), page, perPage)
	if err != nil {
		return httperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"data": products,
		"meta": echo.Map{"page": page, "per_page": perPage, "total_item": total},
	})
}

func bindFilters(c echo.Context) *dto.ProductFilters {
	filters := &dto.ProductFilters{
		Name:       c.QueryParam("name"),
		CategoryID: c.QueryParam("category_id"),
		SortBy:     c.QueryParam("sort_by"),
		SortOrder:  strings.ToLower(c.QueryParam("sort_order")),
		Page:       intParam(c, "page", dto.DefaultPage),
		PerPage:    intParam(c, "per_page", dto.DefaultPerPage),
		Paginate:   c.QueryParam("paginate") != "false",
	}
	filters.Normalize()
	return filters
}

func intParam(c echo.Context, name string, fallback int) int {
	if v, err := strconv.Atoi(c.QueryParam(name)); err == nil && v > 0 {
		return v
	}
	return fallback
}

// bindCreateInput accepts either a JSON body or a multipart form with an
// "image" file; in the multipart case variants travel as a JSON-encoded
// field and category_ids as repeated fields.
func bindCreateInput(c echo.Context) (*dto.CreateProductInput, error) {
	input := new(dto.CreateProductInput)

	if !isMultipart(c) {
		if err := c.Bind(input); err != nil {
			return nil, apperrors.InvalidInput("malformed request body")
		}
		return input, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return nil, apperrors.InvalidInput("malformed multipart form")
	}

	input.Name = formValue(form.Value, "name")
	input.Description = formValue(form.Value, "description")
	if v, ok := form.Value["is_active"]; ok && len(v) > 0 {
		b, err := strconv.ParseBool(v[0])
		if err != nil {
			return nil, apperrors.InvalidInput("is_active must be a boolean")
		}
		input.IsActive = &b
	}
	input.CategoryIDs = form.Value["category_ids"]
	if v, ok := form.Value["variants"]; ok && len(v) > 0 {
		if err := json.Unmarshal([]byte(v[0]), &input.Variants); err != nil {
			return nil, apperrors.InvalidInput("variants must be a JSON array")
		}
	}

	image, err := readImageFile(c)
	if err != nil {
		return nil, err
	}
	input.Image = image
	return input, nil
}

func bindUpdateInput(c echo.Context) (*dto.UpdateProductInput, error) {
	input := new(dto.UpdateProductInput)

	if !isMultipart(c) {
		if err := c.Bind(input); err != nil {
			return nil, apperrors.InvalidInput("malformed request body")
		}
		return input, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return nil, apperrors.InvalidInput("malformed multipart form")
	}

	// Field presence matters here: an absent field means "no change".
	if v, ok := form.Value["name"]; ok && len(v) > 0 {
		input.Name = &v[0]
	}
	if v, ok := form.Value["description"]; ok && len(v) > 0 {
		input.Description = &v[0]
	}
	if v, ok := form.Value["is_active"]; ok && len(v) > 0 {
		b, err := strconv.ParseBool(v[0])
		if err != nil {
			return nil, apperrors.InvalidInput("is_active must be a boolean")
		}
		input.IsActive = &b
	}
	input.CategoryIDs = form.Value["category_ids"]
	if v, ok := form.Value["variants"]; ok && len(v) > 0 {
		if err := json.Unmarshal([]byte(v[0]), &input.Variants); err != nil {
			return nil, apperrors.InvalidInput("variants must be a JSON array")
		}
	}

	image, err := readImageFile(c)
	if err != nil {
		return nil, err
	}
	input.Image = image
	return input, nil
}

func isMultipart(c echo.Context) bool {
	return strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm)
}

func formValue(values map[string][]string, key string) string {
	if v, ok := values[key]; ok && len(v) > 0 {
		return v[0]
	}
	return ""
}

func readImageFile(c echo.Context) ([]byte, error) {
	fh, err := c.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, apperrors.InvalidInput("image upload could not be read")
	}

	f, err := fh.Open()
	if err != nil {
		return nil, apperrors.InvalidInput("image upload could not be read")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, apperrors.InvalidInput("image upload could not be read")
	}
	return data, nil
}
