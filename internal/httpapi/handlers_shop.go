package httpapi

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ritvika/paintshop/internal/models"
)

type productResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	PriceCents  int64  `json:"price_cents"`
	Price       string `json:"price"`
	ImageURL    string `json:"image_url,omitempty"`
}

func (r *Router) productJSON(c *gin.Context, p *models.Product) productResponse {
	imageURL, err := r.catalog.ImageURL(c.Request.Context(), p.ImageKey)
	if err != nil {
		r.logger.Warn(c.Request.Context(), "image url not resolved", "product_id", p.ID, "error", err)
	}
	return productResponse{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		PriceCents:  p.PriceCents,
		Price:       models.FormatCents(p.PriceCents),
		ImageURL:    imageURL,
	}
}

func (r *Router) handleListProducts(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	result, err := r.catalog.ListPage(c.Request.Context(), page)
	if err != nil {
		respondError(c, err)
		return
	}

	items := make([]productResponse, 0, len(result.Products))
	for _, p := range result.Products {
		items = append(items, r.productJSON(c, p))
	}
	c.JSON(http.StatusOK, gin.H{
		"products":     items,
		"total_items":  result.TotalItems,
		"current_page": result.CurrentPage,
		"last_page":    result.LastPage,
		"has_next":     result.HasNext,
		"has_prev":     result.HasPrev,
	})
}

func (r *Router) handleGetProduct(c *gin.Context) {
	p, err := r.catalog.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r.productJSON(c, p))
}

type cartItemResponse struct {
	ProductID   string           `json:"product_id"`
	Quantity    int32            `json:"quantity"`
	Unavailable bool             `json:"unavailable,omitempty"`
	Product     *productResponse `json:"product,omitempty"`
	LineCents   int64            `json:"line_cents"`
}

func (r *Router) cartJSON(c *gin.Context, cart *models.ResolvedCart) gin.H {
	items := make([]cartItemResponse, 0, len(cart.Items))
	for _, it := range cart.Items {
		item := cartItemResponse{ProductID: it.ProductID, Quantity: it.Quantity}
		if it.Product == nil {
			item.Unavailable = true
		} else {
			p := r.productJSON(c, it.Product)
			item.Product = &p
			item.LineCents = it.Product.PriceCents * int64(it.Quantity)
		}
		items = append(items, item)
	}
	return gin.H{
		"items":       items,
		"total_cents": cart.TotalCents(),
		"total":       models.FormatCents(cart.TotalCents()),
	}
}

func (r *Router) handleGetCart(c *gin.Context) {
	cart, err := r.carts.Get(c.Request.Context(), userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r.cartJSON(c, cart))
}

func (r *Router) handleAddCartItem(c *gin.Context) {
	var req struct {
		ProductID string `json:"product_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "product_id is required"})
		return
	}

	if err := r.carts.Add(c.Request.Context(), userID(c), req.ProductID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (r *Router) handleRemoveCartItem(c *gin.Context) {
	if err := r.carts.Remove(c.Request.Context(), userID(c), c.Param("productID")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (r *Router) handleClearCart(c *gin.Context) {
	if err := r.carts.Clear(c.Request.Context(), userID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type orderResponse struct {
	ID          string              `json:"id"`
	Status      string              `json:"status"`
	TotalCents  int64               `json:"total_cents"`
	Total       string              `json:"total"`
	Currency    string              `json:"currency"`
	ProviderRef string              `json:"provider_ref,omitempty"`
	CreatedAt   string              `json:"created_at"`
	Items       []orderItemResponse `json:"items"`
}

type orderItemResponse struct {
	ProductID      string `json:"product_id"`
	Title          string `json:"title"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	Quantity       int32  `json:"quantity"`
	LineCents      int64  `json:"line_cents"`
}

func orderJSON(o *models.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, orderItemResponse{
			ProductID:      it.ProductID,
			Title:          it.Title,
			UnitPriceCents: it.UnitPriceCents,
			Quantity:       it.Quantity,
			LineCents:      it.LineCents,
		})
	}
	return orderResponse{
		ID:          o.ID,
		Status:      o.Status,
		TotalCents:  o.TotalCents,
		Total:       models.FormatCents(o.TotalCents),
		Currency:    o.Currency,
		ProviderRef: o.ProviderRef,
		CreatedAt:   o.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		Items:       items,
	}
}

func (r *Router) handleCheckout(c *gin.Context) {
	var req struct {
		SourceToken string `json:"source_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "source_token is required"})
		return
	}

	order, err := r.checkout.Checkout(c.Request.Context(), userID(c),
		req.SourceToken, c.GetHeader("Idempotency-Key"))
	if err != nil {
		// The order, when present, tells the client what state it is in.
		if order != nil {
			c.AbortWithStatusJSON(statusFor(err), gin.H{
				"error": err.Error(),
				"order": orderJSON(order),
			})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"order": orderJSON(order)})
}

func (r *Router) handleListOrders(c *gin.Context) {
	orders, err := r.orders.ListByUser(c.Request.Context(), userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	items := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		items = append(items, orderJSON(o))
	}
	c.JSON(http.StatusOK, gin.H{"orders": items})
}

func (r *Router) handleGetOrder(c *gin.Context) {
	order, err := r.orders.Get(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": orderJSON(order)})
}

func (r *Router) handleInvoice(c *gin.Context) {
	id := c.Param("id")

	// Render to a buffer first so an ownership or lookup failure still
	// produces a clean JSON error response.
	var buf bytes.Buffer
	if err := r.orders.WriteInvoice(c.Request.Context(), userID(c), id, &buf); err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", `inline; filename="invoice-`+id+`.pdf"`)
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}
