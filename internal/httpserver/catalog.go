package httpserver

import (
	"net/http"

	"partsmarket/internal/domain"

	"github.com/gin-gonic/gin"
)

func listProductsHandler(svc CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var kind domain.ProductKind
		if raw := c.Query("kind"); raw != "" {
			parsed, err := domain.ParseProductKind(raw)
			if err != nil {
				badRequest(c, err.Error())
				return
			}
			kind = parsed
		}
		products, err := svc.List(c.Request.Context(), kind)
		if err != nil {
			respondError(c, err)
			return
		}
		if products == nil {
			products = []domain.Product{}
		}
		c.JSON(http.StatusOK, products)
	}
}

func getProductHandler(svc CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		kind, err := domain.ParseProductKind(c.Param("kind"))
		if err != nil {
			badRequest(c, err.Error())
			return
		}
		product, err := svc.Get(c.Request.Context(), kind, c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, product)
	}
}
