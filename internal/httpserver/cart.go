package httpserver

import (
	"net/http"
	"strings"

	"partsmarket/internal/domain"
	cartsvc "partsmarket/internal/service/cart"

	"github.com/gin-gonic/gin"
)

// cartItemRequest is the shared payload of the cart item endpoints. The
// kind discriminator is parsed into the typed union tag right here at the
// boundary and nowhere else.
type cartItemRequest struct {
	ProductID string `json:"productId"`
	Kind      string `json:"kind"`
	Quantity  int    `json:"quantity"`
}

func (r cartItemRequest) toInput() (cartsvc.ItemInput, error) {
	kind, err := domain.ParseProductKind(r.Kind)
	if err != nil {
		return cartsvc.ItemInput{}, err
	}
	return cartsvc.ItemInput{
		ProductID: strings.TrimSpace(r.ProductID),
		Kind:      kind,
		Quantity:  r.Quantity,
	}, nil
}

type verifyStockRequest struct {
	Items []cartItemRequest `json:"items"`
}

func getCartHandler(svc CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		cart, err := svc.Get(c.Request.Context(), currentUser(c).ID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, cart)
	}
}

func addCartItemHandler(svc CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req cartItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body")
			return
		}
		in, err := req.toInput()
		if err != nil {
			badRequest(c, err.Error())
			return
		}
		if in.ProductID == "" {
			badRequest(c, "productId required")
			return
		}
		cart, err := svc.AddItem(c.Request.Context(), currentUser(c).ID, in)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, cart)
	}
}

func setCartItemHandler(svc CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req cartItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body")
			return
		}
		in, err := req.toInput()
		if err != nil {
			badRequest(c, err.Error())
			return
		}
		if in.ProductID == "" {
			badRequest(c, "productId required")
			return
		}
		cart, err := svc.SetItemQuantity(c.Request.Context(), currentUser(c).ID, in)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, cart)
	}
}

// removeCartItemHandler always answers 200 with the resulting cart, even
// when the item was already gone.
func removeCartItemHandler(svc CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req cartItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body")
			return
		}
		if strings.TrimSpace(req.ProductID) == "" || strings.TrimSpace(req.Kind) == "" {
			badRequest(c, "productId and kind required")
			return
		}
		kind, err := domain.ParseProductKind(req.Kind)
		if err != nil {
			badRequest(c, err.Error())
			return
		}
		cart, err := svc.RemoveItem(c.Request.Context(), currentUser(c).ID, strings.TrimSpace(req.ProductID), kind)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, cart)
	}
}

func clearCartHandler(svc CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.Clear(c.Request.Context(), currentUser(c).ID); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "cart cleared"})
	}
}

func verifyStockHandler(svc CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req verifyStockRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body")
			return
		}
		items := make([]cartsvc.ItemInput, 0, len(req.Items))
		for _, item := range req.Items {
			in, err := item.toInput()
			if err != nil {
				badRequest(c, err.Error())
				return
			}
			items = append(items, in)
		}

		report, err := svc.VerifyStock(c.Request.Context(), items)
		if err != nil {
			respondError(c, err)
			return
		}
		if !report.Valid {
			c.JSON(http.StatusConflict, gin.H{
				"valido":  false,
				"errores": report.Problems,
				"message": strings.Join(report.Problems, "; "),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"valido":       true,
			"itemsValidos": report.Items,
		})
	}
}
