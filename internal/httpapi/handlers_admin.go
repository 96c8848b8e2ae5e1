package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ritvika/paintshop/internal/models"
)

// productForm reads the multipart product form shared by create and
// update: title, description, a decimal price and an optional image file.
// Returns the parsed product (ImageKey empty when no file was sent).
func (r *Router) productForm(c *gin.Context) (*models.Product, error) {
	priceCents, err := models.ParsePriceCents(c.PostForm("price"))
	if err != nil {
		return nil, err
	}

	p := &models.Product{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		PriceCents:  priceCents,
	}

	file, header, err := c.Request.FormFile("image")
	if err != nil {
		if err == http.ErrMissingFile {
			return p, nil
		}
		return nil, err
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	key, err := r.catalog.UploadImage(c.Request.Context(), contentType, file)
	if err != nil {
		return nil, err
	}
	p.ImageKey = key
	return p, nil
}

func (r *Router) handleAdminListProducts(c *gin.Context) {
	products, err := r.catalog.ListByOwner(c.Request.Context(), userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	items := make([]productResponse, 0, len(products))
	for _, p := range products {
		items = append(items, r.productJSON(c, p))
	}
	c.JSON(http.StatusOK, gin.H{"products": items})
}

func (r *Router) handleAdminCreateProduct(c *gin.Context) {
	p, err := r.productForm(c)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	created, err := r.catalog.Create(c.Request.Context(), userID(c), p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, r.productJSON(c, created))
}

func (r *Router) handleAdminUpdateProduct(c *gin.Context) {
	p, err := r.productForm(c)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	p.ID = c.Param("id")

	if err := r.catalog.Update(c.Request.Context(), userID(c), p); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (r *Router) handleAdminDeleteProduct(c *gin.Context) {
	if err := r.catalog.Delete(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
