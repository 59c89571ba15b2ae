package main

import (
	"log"
	"net/http"
	"strconv"

	"shopbe/models"

	"github.com/gin-gonic/gin"
)

func setupProductRoutes(r *gin.Engine) {
	product := r.Group("/api/v1/product")
	product.GET("/all", listProductsHandler)
	product.GET("/:id", getProductHandler)

	admin := product.Group("")
	admin.Use(authMiddleware(), adminMiddleware())
	admin.POST("", createProductHandler)
	admin.DELETE("/:id", deleteProductHandler)
}

// createProductHandler accepts multipart form fields plus any number of
// files under "photos". Photos are normalized and stored before the row is
// written, so a failed upload never leaves a product pointing at nothing.
func createProductHandler(c *gin.Context) {
	name := c.PostForm("name")
	priceStr := c.PostForm("price")
	stockStr := c.PostForm("stock")
	category := c.PostForm("category")
	description := c.PostForm("description")
	if name == "" || priceStr == "" || stockStr == "" || category == "" || description == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Please fill all required fields"})
		return
	}
	price, err := strconv.ParseInt(priceStr, 10, 64)
	if err != nil || price < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "price must be a non-negative integer"})
		return
	}
	stock, err := strconv.Atoi(stockStr)
	if err != nil || stock < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "stock must be a non-negative integer"})
		return
	}

	var photos []models.ProductPhoto
	if form, err := c.MultipartForm(); err == nil {
		files := form.File["photos"]
		if len(files) > 0 && photoStore == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "photo storage is not configured"})
			return
		}
		for _, fh := range files {
			f, err := fh.Open()
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "failed to read uploaded file"})
				return
			}
			body, err := normalizePhoto(f, fh.Filename)
			f.Close()
			if err != nil {
				// undecodable upload is the client's problem
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "unsupported image file"})
				return
			}
			url, key, err := photoStore.UploadPhoto(c.Request.Context(), fh.Filename, body, "image/jpeg")
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "failed to store photo"})
				return
			}
			photos = append(photos, models.ProductPhoto{URL: url, Key: key, ContentType: "image/jpeg"})
		}
	}

	product := models.Product{
		Name:        name,
		Description: description,
		Price:       price,
		Stock:       stock,
		Category:    category,
		IsFeatured:  c.PostForm("isFeatured") == "true",
		Photos:      photos,
	}
	if err := db.Create(&product).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "create failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "product created successfully", "product": product})
}

func listProductsHandler(c *gin.Context) {
	q := db.Model(&models.Product{}).Preload("Photos")
	if category := c.Query("category"); category != "" {
		q = q.Where("category = ?", category)
	}
	if c.Query("featured") == "true" {
		q = q.Where("is_featured = ?", true)
	}
	var products []models.Product
	if err := q.Order("id desc").Limit(100).Find(&products).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "products": products})
}

func getProductHandler(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "product not found"})
		return
	}
	var product models.Product
	if err := db.Preload("Photos").First(&product, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "product not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "product": product})
}

func deleteProductHandler(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "product not found"})
		return
	}
	var product models.Product
	if err := db.Preload("Photos").First(&product, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "product not found"})
		return
	}
	if photoStore != nil && len(product.Photos) > 0 {
		keys := make([]string, 0, len(product.Photos))
		for _, p := range product.Photos {
			keys = append(keys, p.Key)
		}
		// best effort: an orphaned object is preferable to an undeletable product
		if err := photoStore.DeletePhotos(c.Request.Context(), keys); err != nil {
			log.Printf("failed to delete photos for product %d: %v", product.ID, err)
		}
	}
	if err := db.Where("product_id = ?", product.ID).Delete(&models.ProductPhoto{}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "delete failed"})
		return
	}
	if err := db.Delete(&product).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "delete failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "product deleted"})
}
