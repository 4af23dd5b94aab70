package api

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ridloal/product-dashboard/internal/dashboard/grid"
	"github.com/ridloal/product-dashboard/internal/dashboard/service"
	"github.com/ridloal/product-dashboard/internal/permission"
	"github.com/ridloal/product-dashboard/internal/platform/logger"
	"github.com/ridloal/product-dashboard/internal/platform/metrics"
	"github.com/ridloal/product-dashboard/internal/platform/middleware"
	"github.com/ridloal/product-dashboard/internal/product/domain"
	"github.com/ridloal/product-dashboard/internal/product/repository"
	"github.com/ridloal/product-dashboard/internal/product/validation"
)

//go:embed templates/*.html
var templatesFS embed.FS

type DashboardHandler struct {
	dashboardService service.DashboardService
}

func NewDashboardHandler(ds service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: ds}
}

// productRequest is the JSON body of create and update.
type productRequest struct {
	Name     string   `json:"name" binding:"required,min=2"`
	Price    *float64 `json:"price" binding:"required,gt=0"`
	Currency string   `json:"currency" binding:"required,currency3"`
}

func (r productRequest) fields() domain.ProductFields {
	return domain.ProductFields{Name: r.Name, Price: *r.Price, Currency: r.Currency}
}

type pageData struct {
	View service.DashboardView
	Grid grid.Grid
}

func LoadTemplates(router *gin.Engine) error {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"price": func(p float64) string { return fmt.Sprintf("%.2f", p) },
	}).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return fmt.Errorf("failed to parse templates: %w", err)
	}
	router.SetHTMLTemplate(tmpl)
	return nil
}

// RegisterPages mounts the server-rendered dashboard. Every action redirects back to "/".
func (h *DashboardHandler) RegisterPages(router *gin.Engine) {
	router.GET("/", h.Page)
	router.POST("/reload", h.Reload)
	router.GET("/products/new", h.OpenCreate)
	router.GET("/products/:id/edit", h.OpenEdit)
	router.POST("/products", h.SubmitForm)
	router.POST("/form/cancel", h.CloseForm)
	router.POST("/products/:id/delete", h.RequestDelete)
	router.POST("/confirm", h.ConfirmDelete)
	router.POST("/confirm/cancel", h.CancelDelete)
	router.POST("/notification/close", h.DismissNotification)
}

func (h *DashboardHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/dashboard", h.GetDashboard)
	router.GET("/permissions", h.GetPermissions)
	productRoutes := router.Group("/products")
	{
		productRoutes.GET("", h.ListProducts)
		productRoutes.POST("", h.CreateProduct)
		productRoutes.PUT("/:id", h.UpdateProduct)
		productRoutes.DELETE("/:id", h.DeleteProduct)
	}
}

// RegisterOps adds the health and Prometheus endpoints.
func RegisterOps(router *gin.Engine) {
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
}

func (h *DashboardHandler) Page(c *gin.Context) {
	var req grid.PageRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		req = grid.PageRequest{}
	}
	view := h.dashboardService.Snapshot()
	c.HTML(http.StatusOK, "dashboard.html", pageData{
		View: view,
		Grid: grid.Build(view.Products, view.Permissions, req),
	})
}

func (h *DashboardHandler) Reload(c *gin.Context) {
	if err := h.dashboardService.Mount(c.Request.Context()); err != nil {
		logger.Warn("Reload: " + err.Error())
	}
	redirectHome(c)
}

func (h *DashboardHandler) OpenCreate(c *gin.Context) {
	if err := h.dashboardService.OpenCreate(); err != nil {
		h.pageError(c, err)
		return
	}
	redirectHome(c)
}

func (h *DashboardHandler) OpenEdit(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}
	if err := h.dashboardService.OpenEdit(id); err != nil {
		h.pageError(c, err)
		return
	}
	redirectHome(c)
}

func (h *DashboardHandler) SubmitForm(c *gin.Context) {
	var form domain.ProductForm
	// Field violations are re-checked by SubmitForm so they land on the open form.
	if err := c.ShouldBind(&form); err != nil && validation.Translate(err) == nil {
		c.String(http.StatusBadRequest, "invalid form")
		return
	}
	// Validation and store errors are already on the view (field errors / notification).
	if _, err := h.dashboardService.SubmitForm(c.Request.Context(), form); err != nil {
		logger.Debug("SubmitForm: " + err.Error())
	}
	redirectHome(c)
}

func (h *DashboardHandler) CloseForm(c *gin.Context) {
	h.dashboardService.CloseForm()
	redirectHome(c)
}

func (h *DashboardHandler) RequestDelete(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}
	if err := h.dashboardService.RequestDelete(id); err != nil {
		h.pageError(c, err)
		return
	}
	redirectHome(c)
}

func (h *DashboardHandler) ConfirmDelete(c *gin.Context) {
	// Rejections are reported to the user through the notification.
	if err := h.dashboardService.ConfirmDelete(c.Request.Context()); err != nil {
		logger.Warn("ConfirmDelete: " + err.Error())
	}
	redirectHome(c)
}

func (h *DashboardHandler) CancelDelete(c *gin.Context) {
	if err := h.dashboardService.CancelDelete(); err != nil {
		logger.Debug("CancelDelete: " + err.Error())
	}
	redirectHome(c)
}

func (h *DashboardHandler) DismissNotification(c *gin.Context) {
	h.dashboardService.DismissNotification()
	redirectHome(c)
}

func (h *DashboardHandler) pageError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPermissionDenied):
		c.String(http.StatusForbidden, err.Error())
	case errors.Is(err, repository.ErrProductNotFound):
		c.String(http.StatusNotFound, err.Error())
	default:
		logger.Error("DashboardHandler: page action failed", err, nil)
		redirectHome(c)
	}
}

func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	c.JSON(http.StatusOK, h.dashboardService.Snapshot())
}

func (h *DashboardHandler) GetPermissions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"permissions": h.dashboardService.Snapshot().Permissions})
}

func (h *DashboardHandler) ListProducts(c *gin.Context) {
	var req grid.PageRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid page request"})
		return
	}
	view := h.dashboardService.Snapshot()
	if !view.Can(permission.Read) {
		c.JSON(http.StatusForbidden, gin.H{"error": service.ErrPermissionDenied.Error()})
		return
	}
	c.JSON(http.StatusOK, grid.Build(view.Products, view.Permissions, req))
}

func (h *DashboardHandler) CreateProduct(c *gin.Context) {
	fields, ok := bindProduct(c)
	if !ok {
		return
	}
	product, err := h.dashboardService.Submit(c.Request.Context(), domain.CreateProduct{Fields: fields})
	if err != nil {
		writeError(c, "CreateProduct", err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (h *DashboardHandler) UpdateProduct(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}
	fields, ok := bindProduct(c)
	if !ok {
		return
	}
	product, err := h.dashboardService.Submit(c.Request.Context(), domain.EditProduct{ID: id, Fields: fields})
	if err != nil {
		writeError(c, "UpdateProduct", err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *DashboardHandler) DeleteProduct(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}
	if err := h.dashboardService.DeleteProduct(c.Request.Context(), id); err != nil {
		writeError(c, "DeleteProduct", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func bindProduct(c *gin.Context) (domain.ProductFields, bool) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if fieldErrs := validation.Translate(err); fieldErrs.HasErrors() {
			c.JSON(http.StatusBadRequest, gin.H{"error": service.ErrValidation.Error(), "fields": fieldErrs})
			return domain.ProductFields{}, false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return domain.ProductFields{}, false
	}
	return req.fields(), true
}

func productID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product id"})
		return 0, false
	}
	return id, true
}

func writeError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, repository.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrMutationInProgress), errors.Is(err, service.ErrNoPendingDelete),
		errors.Is(err, service.ErrDeletePending):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		logger.Error(fmt.Sprintf("%s: service error (request_id=%s)", op, middleware.RequestIDFromContext(c)), err, nil)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func redirectHome(c *gin.Context) {
	c.Redirect(http.StatusSeeOther, "/")
}
