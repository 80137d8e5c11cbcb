package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"storefront-checkout-demo/internal/catalog"
	"storefront-checkout-demo/internal/dto"
)

type CatalogHandler struct {
	catalog *catalog.Catalog
}

func NewCatalogHandler(cat *catalog.Catalog) *CatalogHandler {
	return &CatalogHandler{
		catalog: cat,
	}
}

func (h *CatalogHandler) ListProducts(c echo.Context) error {
	products := h.catalog.Filter(catalog.Query{
		Category: c.QueryParam("category"),
		Search:   c.QueryParam("q"),
		Sort:     c.QueryParam("sort"),
	})

	return c.JSON(http.StatusOK, &dto.ProductListResponse{
		Products:   products,
		Categories: h.catalog.Categories(),
	})
}

func (h *CatalogHandler) GetProduct(c echo.Context) error {
	p, ok := h.catalog.Get(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "product not found")
	}
	return c.JSON(http.StatusOK, p)
}
