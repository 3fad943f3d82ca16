package handlers

import (
	"fmt"
	"net/http"

	"forkhub/internal/services"

	"github.com/gin-gonic/gin"
)

type categoryForm struct {
	Name string `form:"name" binding:"required"`
}

// AdminHandler manages categories. Access is checked by AdminRequired.
type AdminHandler struct {
	categories *services.CategoryService
}

func NewAdminHandler(categories *services.CategoryService) *AdminHandler {
	return &AdminHandler{categories: categories}
}

func (h *AdminHandler) renderCategories(c *gin.Context, editing gin.H) {
	categories, err := h.categories.ListCategories(c.Request.Context())
	if err != nil {
		renderFailure(c, err)
		return
	}

	data := gin.H{
		"Title":      "Categories",
		"Active":     "admin",
		"Categories": categories,
	}
	for k, v := range editing {
		data[k] = v
	}
	Render(c, http.StatusOK, "admin/categories.html", data)
}

// ListCategories GET /admin/categories
func (h *AdminHandler) ListCategories(c *gin.Context) {
	h.renderCategories(c, nil)
}

// EditCategory GET /admin/categories/:id shows the list with an edit form.
func (h *AdminHandler) EditCategory(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		handleError(c, err, "/admin/categories")
		return
	}

	category, err := h.categories.GetCategory(c.Request.Context(), id)
	if err != nil {
		handleError(c, err, "/admin/categories")
		return
	}
	h.renderCategories(c, gin.H{"Category": category})
}

func bindCategory(c *gin.Context) (string, error) {
	var form categoryForm
	if err := c.ShouldBind(&form); err != nil {
		return "", &services.Error{Kind: services.ErrValidation, Message: "Category name is required."}
	}
	return form.Name, nil
}

// CreateCategory POST /admin/categories
func (h *AdminHandler) CreateCategory(c *gin.Context) {
	name, err := bindCategory(c)
	if err == nil {
		_, err = h.categories.CreateCategory(c.Request.Context(), name)
	}
	if err != nil {
		handleError(c, err, "/admin/categories")
		return
	}

	success(c, "Category created.")
	c.Redirect(http.StatusFound, "/admin/categories")
}

// UpdateCategory PUT /admin/categories/:id
func (h *AdminHandler) UpdateCategory(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		handleError(c, err, "/admin/categories")
		return
	}

	name, err := bindCategory(c)
	if err == nil {
		_, err = h.categories.UpdateCategory(c.Request.Context(), id, name)
	}
	if err != nil {
		handleError(c, err, fmt.Sprintf("/admin/categories/%d", id))
		return
	}

	success(c, "Category updated.")
	c.Redirect(http.StatusFound, "/admin/categories")
}

// DeleteCategory DELETE /admin/categories/:id
func (h *AdminHandler) DeleteCategory(c *gin.Context) {
	id, err := idParam(c)
	if err == nil {
		err = h.categories.DeleteCategory(c.Request.Context(), id)
	}
	if err != nil {
		handleError(c, err, "/admin/categories")
		return
	}

	success(c, "Category deleted.")
	c.Redirect(http.StatusFound, "/admin/categories")
}
