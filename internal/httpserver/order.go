package httpserver

import (
	"net/http"

	"partsmarket/internal/domain"
	ordersvc "partsmarket/internal/service/order"

	"github.com/gin-gonic/gin"
)

type checkoutRequest struct {
	DeliveryAddress domain.DeliveryAddress `json:"deliveryAddress"`
	PaymentMethod   string                 `json:"paymentMethod"`
}

type statusRequest struct {
	Estado string `json:"estado"`
}

func checkoutHandler(svc OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req checkoutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body")
			return
		}
		user := currentUser(c)
		order, err := svc.Checkout(c.Request.Context(), user.ID, ordersvc.CheckoutInput{
			DeliveryAddress: req.DeliveryAddress,
			PaymentMethod:   req.PaymentMethod,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, order)
	}
}

func orderHistoryHandler(svc OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		orders, err := svc.History(c.Request.Context(), user.ID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, orders)
	}
}

func getOrderHandler(svc OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		actor := ordersvc.Actor{ID: user.ID, Role: user.Role}
		order, err := svc.Get(c.Request.Context(), actor, c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

func adminListOrdersHandler(svc OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var status domain.OrderStatus
		if raw := c.Query("estado"); raw != "" {
			parsed, err := domain.ParseOrderStatus(raw)
			if err != nil {
				badRequest(c, "unknown estado filter")
				return
			}
			status = parsed
		}
		orders, err := svc.ListAll(c.Request.Context(), status)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, orders)
	}
}

func adminOrderStatusHandler(svc OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req statusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body")
			return
		}
		status, err := domain.ParseOrderStatus(req.Estado)
		if err != nil {
			respondError(c, err)
			return
		}
		order, err := svc.UpdateStatus(c.Request.Context(), c.Param("id"), status)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

func providerListOrdersHandler(svc OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		orders, err := svc.ListByProvider(c.Request.Context(), user.ID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, orders)
	}
}

func providerOrderStatusHandler(svc OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req statusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body")
			return
		}
		status, err := domain.ParseProviderStatus(req.Estado)
		if err != nil {
			respondError(c, err)
			return
		}
		user := currentUser(c)
		order, err := svc.UpdateProviderStatus(c.Request.Context(), user.ID, c.Param("id"), status)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}
