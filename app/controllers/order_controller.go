package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/herbveda/storefront/app/models"
	"github.com/herbveda/storefront/app/repositories"
	"github.com/herbveda/storefront/app/services"
	"github.com/herbveda/storefront/pkg/bind"
	"github.com/herbveda/storefront/pkg/collection"
	"github.com/herbveda/storefront/pkg/middleware"
	"github.com/herbveda/storefront/pkg/response"
)

type OrderController struct {
	orders *services.OrderService
}

func NewOrderController(orders *services.OrderService) *OrderController {
	return &OrderController{orders: orders}
}

// Create handles POST /api/orders.
func (c *OrderController) Create(w http.ResponseWriter, r *http.Request) {
	claims := middleware.UserFromCtx(r.Context())

	var body services.CreateOrderInput
	if _, err := bind.JSON(r, &body); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	order, err := c.orders.Create(r.Context(), claims.Subject, body)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.CreatedMessage(w, "Order created successfully", map[string]any{"order": order.Safe()})
}

// Get handles GET /api/orders/{orderId}.
func (c *OrderController) Get(w http.ResponseWriter, r *http.Request) {
	claims := middleware.UserFromCtx(r.Context())

	order, err := c.orders.Get(r.Context(), claims.Subject, chi.URLParam(r, "orderId"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.Success(w, map[string]any{"order": order.Safe()})
}

// List handles GET /api/orders. Optional filter: ?productName=Ashwagandha.
func (c *OrderController) List(w http.ResponseWriter, r *http.Request) {
	claims := middleware.UserFromCtx(r.Context())

	orders, err := c.orders.List(r.Context(), claims.Subject, r.URL.Query().Get("productName"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	safe := collection.Map(orders, func(o models.Order) models.SafeOrder { return o.Safe() })
	if safe == nil {
		safe = []models.SafeOrder{}
	}
	response.Success(w, map[string]any{"orders": safe})
}

// Summary handles GET /api/orders/summary/by-product.
func (c *OrderController) Summary(w http.ResponseWriter, r *http.Request) {
	claims := middleware.UserFromCtx(r.Context())

	summary, err := c.orders.Summary(r.Context(), claims.Subject)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if summary == nil {
		summary = []repositories.ProductSummary{}
	}
	response.Success(w, map[string]any{"summary": summary})
}

// UpdateStatus handles PATCH /api/orders/{orderId}/status.
func (c *OrderController) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	claims := middleware.UserFromCtx(r.Context())

	var body struct {
		Status string `json:"status" validate:"required"`
	}
	if errs, err := bind.JSON(r, &body); err != nil {
		response.BadRequest(w, err.Error())
		return
	} else if errs != nil {
		response.ValidationError(w, errs)
		return
	}

	order, err := c.orders.UpdateStatus(r.Context(), claims.Subject, chi.URLParam(r, "orderId"), body.Status)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.MessageData(w, "Order status updated successfully", map[string]any{"order": order.Safe()})
}
