package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/altastore/catalog-service/internal/category"
	"github.com/altastore/catalog-service/internal/category/dto"
	"github.com/altastore/catalog-service/internal/httperr"
	"github.com/altastore/catalog-service/pkg/apperrors"
	"github.com/altastore/catalog-service/pkg/logger"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type CategoryHandler struct {
	uc     category.UseCase
	logger logger.ZapLogger
}

func NewCategoryHandler(uc category.UseCase, log logger.ZapLogger) *CategoryHandler {
	return &CategoryHandler{uc: uc, logger: log}
}

func (h *CategoryHandler) Register(g *echo.Group) {
	g.GET("/categories", h.List)
	g.POST("/categories", h.Create)
	g.GET("/categories/:id", h.Get)
	g.GET("/categories/:id/image", h.GetImage)
	g.PUT("/categories/:id", h.Update)
	g.DELETE("/categories/:id", h.Delete)
}

func (h *CategoryHandler) Create(c echo.Context) error {
	input := new(dto.CreateCategoryInput)

	if isMultipart(c) {
		input.Name = c.FormValue("name")
		image, err := readImageFile(c)
		if err != nil {
			return httperr.Respond(c, err)
		}
		input.Image = image
	} else if err := c.Bind(input); err != nil {
		return httperr.Respond(c, apperrors.InvalidInput("malformed request body"))
	}

	cat, err := h.uc.Create(c.Request().Context(), input)
	if err != nil {
		h.logger.Error("create category failed", zap.Error(err))
		return httperr.Respond(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"data": cat})
}

func (h *CategoryHandler) Update(c echo.Context) error {
	input := new(dto.UpdateCategoryInput)

	if isMultipart(c) {
		form, err := c.MultipartForm()
		if err != nil {
			return httperr.Respond(c, apperrors.InvalidInput("malformed multipart form"))
		}
		if v, ok := form.Value["name"]; ok && len(v) > 0 {
			input.Name = &v[0]
		}
		image, err := readImageFile(c)
		if err != nil {
			return httperr.Respond(c, err)
		}
		input.Image = image
	} else if err := c.Bind(input); err != nil {
		return httperr.Respond(c, apperrors.InvalidInput("malformed request body"))
	}
	input.ID = c.Param("id")

	cat, err := h.uc.Update(c.Request().Context(), input)
	if err != nil {
		h.logger.Error("update category failed", zap.String("category_id", input.ID), zap.Error(err))
		return httperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": cat})
}

func (h *CategoryHandler) Delete(c echo.Context) error {
	id := c.Param("id")
	if err := h.uc.Delete(c.Request().Context(), id); err != nil {
		h.logger.Error("delete category failed", zap.String("category_id", id), zap.Error(err))
		return httperr.Respond(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CategoryHandler) Get(c echo.Context) error {
	cat, err := h.uc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": cat})
}

func (h *CategoryHandler) GetImage(c echo.Context) error {
	image, contentType, err := h.uc.GetImage(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httperr.Respond(c, err)
	}
	return c.Blob(http.StatusOK, contentType, image)
}

func (h *CategoryHandler) List(c echo.Context) error {
	filters := &dto.CategoryFilters{
		Name:    c.QueryParam("name"),
		Page:    intParam(c, "page", 1),
		PerPage: intParam(c, "per_page", 5),
	}

	categories, total, err := h.uc.List(c.Request().Context(), filters)
	if err != nil {
		return httperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"data": categories,
		"meta": echo.Map{"page": filters.Page, "per_page": filters.PerPage, "total_item": total},
	})
}

func intParam(c echo.Context, name string, fallback int) int {
	if v, err := strconv.Atoi(c.QueryParam(name)); err == nil && v > 0 {
		return v
	}
	return fallback
}

func isMultipart(c echo.Context) bool {
	return strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm)
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
