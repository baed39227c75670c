package catalog

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/greenbasket/greenbasket/internal/shared"
	"github.com/greenbasket/greenbasket/internal/view"
)

const productsPerPage = 24

// Handler wires the storefront catalog pages and the admin product console.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	templates   *view.Engine
	csrfManager *shared.CSRFManager
	validator   *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	return &Handler{
		logger:      logger,
		service:     service,
		templates:   templates,
		csrfManager: csrf,
		validator:   validator.New(),
	}
}

// MountPublicRoutes registers the storefront pages.
func (h *Handler) MountPublicRoutes(r chi.Router) {
	r.Get("/products", h.showProducts)
	r.Get("/products/{slug}", h.showProduct)
	r.Get("/categories/{category}", h.showProducts)
}

// MountAdminRoutes registers the product and category consoles under /admin.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Get("/products", h.adminListProducts)
	r.Get("/products/new", h.adminNewProduct)
	r.Post("/products/new", h.adminCreateProduct)
	r.Get("/products/{id}/edit", h.adminEditProduct)
	r.Post("/products/{id}/edit", h.adminUpdateProduct)
	r.Post("/products/{id}/archive", h.adminArchiveProduct)

	r.Get("/categories", h.adminListCategories)
	r.Get("/categories/new", h.adminNewCategory)
	r.Post("/categories/new", h.adminCreateCategory)
	r.Get("/categories/{id}/edit", h.adminEditCategory)
	r.Post("/categories/{id}/edit", h.adminUpdateCategory)
	r.Post("/categories/{id}/archive", h.adminArchiveCategory)
}

type productsPageData struct {
	Products   []Product
	Categories []Category
	Pagination shared.Pagination
	PrevPage   int
	NextPage   int
}

func (h *Handler) showProducts(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	req := ListRequest{
		Category: chi.URLParam(r, "category"),
		Page:     page,
		PerPage:  productsPerPage,
	}

	products, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list products", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	categories, err := h.service.ListCategories(r.Context(), false)
	if err != nil {
		h.logger.Error("list categories", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	p := shared.NewPagination(req.Page, req.PerPage, total)
	h.render(w, r, "pages/products.html", "Products", productsPageData{
		Products:   products,
		Categories: categories,
		Pagination: p,
		PrevPage:   p.Page - 1,
		NextPage:   p.Page + 1,
	}, http.StatusOK)
}

type productPageData struct {
	Product *Product
}

func (h *Handler) showProduct(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	product, err := h.service.GetBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		h.logger.Error("load product", slog.String("slug", slug), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/product.html", product.Name, productPageData{Product: product}, http.StatusOK)
}

type adminProductsPageData struct {
	Products []Product
}

func (h *Handler) adminListProducts(w http.ResponseWriter, r *http.Request) {
	products, _, err := h.service.List(r.Context(), ListRequest{IncludeAll: true, PerPage: 200})
	if err != nil {
		h.logger.Error("admin list products", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/admin_products.html", "Products", adminProductsPageData{Products: products}, http.StatusOK)
}

type productForm struct {
	Name        string `validate:"required,min=2"`
	Slug        string `validate:"required,min=2,lowercase"`
	Category    string
	Description string
	Unit        string `validate:"required"`
	PriceCents  int64  `validate:"required,gt=0"`
	StockQty    int    `validate:"gte=0"`
}

type productFormPageData struct {
	IsNew  bool
	Action string
	Form   productForm
	Errors map[string]string
}

func (h *Handler) adminNewProduct(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/admin_product_form.html", "New product", productFormPageData{
		IsNew:  true,
		Action: "/admin/products/new",
		Form:   productForm{Unit: "each"},
	}, http.StatusOK)
}

func (h *Handler) adminCreateProduct(w http.ResponseWriter, r *http.Request) {
	form, formErrors := h.parseProductForm(r)
	if len(formErrors) == 0 {
		_, err := h.service.Create(r.Context(), form.product())
		switch {
		case errors.Is(err, ErrSlugTaken):
			formErrors["Slug"] = "That slug is already in use"
		case err != nil:
			h.logger.Error("create product", slog.Any("error", err))
			formErrors["general"] = "Could not save the product"
		default:
			h.flashAndRedirect(w, r, "Product created", "/admin/products")
			return
		}
	}
	h.render(w, r, "pages/admin_product_form.html", "New product", productFormPageData{
		IsNew: true, Action: "/admin/products/new", Form: form, Errors: formErrors,
	}, http.StatusBadRequest)
}

func (h *Handler) adminEditProduct(w http.ResponseWriter, r *http.Request) {
	product, ok := h.loadProductByParam(w, r)
	if !ok {
		return
	}
	h.render(w, r, "pages/admin_product_form.html", "Edit product", productFormPageData{
		Action: "/admin/products/" + strconv.FormatInt(product.ID, 10) + "/edit",
		Form: productForm{
			Name:        product.Name,
			Slug:        product.Slug,
			Category:    product.Category,
			Description: product.Description,
			Unit:        product.Unit,
			PriceCents:  product.PriceCents,
			StockQty:    product.StockQty,
		},
	}, http.StatusOK)
}

func (h *Handler) adminUpdateProduct(w http.ResponseWriter, r *http.Request) {
	product, ok := h.loadProductByParam(w, r)
	if !ok {
		return
	}
	form, formErrors := h.parseProductForm(r)
	if len(formErrors) == 0 {
		updated := form.product()
		updated.ID = product.ID
		err := h.service.Update(r.Context(), updated)
		switch {
		case errors.Is(err, ErrSlugTaken):
			formErrors["Slug"] = "That slug is already in use"
		case err != nil:
			h.logger.Error("update product", slog.Any("error", err))
			formErrors["general"] = "Could not save the product"
		default:
			h.flashAndRedirect(w, r, "Product saved", "/admin/products")
			return
		}
	}
	h.render(w, r, "pages/admin_product_form.html", "Edit product", productFormPageData{
		Action: r.URL.Path, Form: form, Errors: formErrors,
	}, http.StatusBadRequest)
}

func (h *Handler) adminArchiveProduct(w http.ResponseWriter, r *http.Request) {
	product, ok := h.loadProductByParam(w, r)
	if !ok {
		return
	}
	if err := h.service.Archive(r.Context(), product.ID); err != nil {
		h.logger.Error("archive product", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.flashAndRedirect(w, r, "Product archived", "/admin/products")
}

type adminCategoriesPageData struct {
	Categories []Category
}

func (h *Handler) adminListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListCategories(r.Context(), true)
	if err != nil {
		h.logger.Error("admin list categories", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/admin_categories.html", "Categories", adminCategoriesPageData{Categories: categories}, http.StatusOK)
}

type categoryForm struct {
	Name        string `validate:"required,min=2"`
	Slug        string `validate:"required,min=2,lowercase"`
	Description string
}

type categoryFormPageData struct {
	IsNew  bool
	Action string
	Form   categoryForm
	Errors map[string]string
}

func (h *Handler) adminNewCategory(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/admin_category_form.html", "New category", categoryFormPageData{
		IsNew:  true,
		Action: "/admin/categories/new",
	}, http.StatusOK)
}

func (h *Handler) adminCreateCategory(w http.ResponseWriter, r *http.Request) {
	form, formErrors := h.parseCategoryForm(r)
	if len(formErrors) == 0 {
		_, err := h.service.CreateCategory(r.Context(), form.category())
		switch {
		case errors.Is(err, ErrSlugTaken):
			formErrors["Slug"] = "That slug is already in use"
		case err != nil:
			h.logger.Error("create category", slog.Any("error", err))
			formErrors["general"] = "Could not save the category"
		default:
			h.flashAndRedirect(w, r, "Category created", "/admin/categories")
			return
		}
	}
	h.render(w, r, "pages/admin_category_form.html", "New category", categoryFormPageData{
		IsNew: true, Action: "/admin/categories/new", Form: form, Errors: formErrors,
	}, http.StatusBadRequest)
}

func (h *Handler) adminEditCategory(w http.ResponseWriter, r *http.Request) {
	category, ok := h.loadCategoryByParam(w, r)
	if !ok {
		return
	}
	h.render(w, r, "pages/admin_category_form.html", "Edit category", categoryFormPageData{
		Action: "/admin/categories/" + strconv.FormatInt(category.ID, 10) + "/edit",
		Form: categoryForm{
			Name:        category.Name,
			Slug:        category.Slug,
			Description: category.Description,
		},
	}, http.StatusOK)
}

func (h *Handler) adminUpdateCategory(w http.ResponseWriter, r *http.Request) {
	category, ok := h.loadCategoryByParam(w, r)
	if !ok {
		return
	}
	form, formErrors := h.parseCategoryForm(r)
	if len(formErrors) == 0 {
		updated := form.category()
		updated.ID = category.ID
		err := h.service.UpdateCategory(r.Context(), updated)
		switch {
		case errors.Is(err, ErrSlugTaken):
			formErrors["Slug"] = "That slug is already in use"
		case err != nil:
			h.logger.Error("update category", slog.Any("error", err))
			formErrors["general"] = "Could not save the category"
		default:
			h.flashAndRedirect(w, r, "Category saved", "/admin/categories")
			return
		}
	}
	h.render(w, r, "pages/admin_category_form.html", "Edit category", categoryFormPageData{
		Action: r.URL.Path, Form: form, Errors: formErrors,
	}, http.StatusBadRequest)
}

func (h *Handler) adminArchiveCategory(w http.ResponseWriter, r *http.Request) {
	category, ok := h.loadCategoryByParam(w, r)
	if !ok {
		return
	}
	if err := h.service.ArchiveCategory(r.Context(), category.ID); err != nil {
		h.logger.Error("archive category", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.flashAndRedirect(w, r, "Category archived", "/admin/categories")
}

func (f categoryForm) category() Category {
	return Category{
		Name:        f.Name,
		Slug:        f.Slug,
		Description: f.Description,
	}
}

func (h *Handler) parseCategoryForm(r *http.Request) (categoryForm, map[string]string) {
	formErrors := make(map[string]string)
	if err := r.ParseForm(); err != nil {
		formErrors["general"] = "Malformed form submission"
		return categoryForm{}, formErrors
	}
	form := categoryForm{
		Name:        r.PostFormValue("name"),
		Slug:        r.PostFormValue("slug"),
		Description: r.PostFormValue("description"),
	}
	if err := h.validator.Struct(form); err != nil {
		for _, fieldErr := range err.(validator.ValidationErrors) {
			formErrors[fieldErr.Field()] = fieldErr.Error()
		}
	}
	return form, formErrors
}

func (h *Handler) loadCategoryByParam(w http.ResponseWriter, r *http.Request) (*Category, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return nil, false
	}
	category, err := h.service.GetCategoryByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			http.NotFound(w, r)
			return nil, false
		}
		h.logger.Error("load category", slog.Int64("id", id), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return nil, false
	}
	return category, true
}

func (f productForm) product() Product {
	return Product{
		Name:        f.Name,
		Slug:        f.Slug,
		Category:    f.Category,
		Description: f.Description,
		Unit:        f.Unit,
		PriceCents:  f.PriceCents,
		StockQty:    f.StockQty,
	}
}

func (h *Handler) parseProductForm(r *http.Request) (productForm, map[string]string) {
	formErrors := make(map[string]string)
	if err := r.ParseForm(); err != nil {
		formErrors["general"] = "Malformed form submission"
		return productForm{}, formErrors
	}
	price, _ := strconv.ParseInt(r.PostFormValue("price_cents"), 10, 64)
	stock, _ := strconv.Atoi(r.PostFormValue("stock_qty"))
	form := productForm{
		Name:        r.PostFormValue("name"),
		Slug:        r.PostFormValue("slug"),
		Category:    r.PostFormValue("category"),
		Description: r.PostFormValue("description"),
		Unit:        r.PostFormValue("unit"),
		PriceCents:  price,
		StockQty:    stock,
	}
	if err := h.validator.Struct(form); err != nil {
		for _, fieldErr := range err.(validator.ValidationErrors) {
			formErrors[fieldErr.Field()] = fieldErr.Error()
		}
	}
	return form, formErrors
}

func (h *Handler) loadProductByParam(w http.ResponseWriter, r *http.Request) (*Product, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return nil, false
	}
	product, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			http.NotFound(w, r)
			return nil, false
		}
		h.logger.Error("load product", slog.Int64("id", id), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return nil, false
	}
	return product, true
}

func (h *Handler) flashAndRedirect(w http.ResponseWriter, r *http.Request, message, target string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: "success", Message: message})
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, page, title string, data any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrfManager.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	err := h.templates.Render(w, page, view.TemplateData{
		Title:       title,
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		User:        sess.User(),
		Data:        data,
	})
	if err != nil {
		h.logger.Error("render catalog page", slog.String("page", page), slog.Any("error", err))
	}
}
