package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trueque/marketplace/internal/core/domain"
	"github.com/trueque/marketplace/internal/core/ports"
	"github.com/trueque/marketplace/internal/core/service"
)

// RefDataHandler serves the reference collections from the in-process store
// and the admin mutation surface that writes through to the repository.
// Reads never fail: a collection that could not load answers with its
// lifecycle state and last-good items.
type RefDataHandler struct {
	store     *service.RefDataStore
	provinces ports.ProvinceRepository
}

func NewRefDataHandler(store *service.RefDataStore, provinces ports.ProvinceRepository) *RefDataHandler {
	return &RefDataHandler{store: store, provinces: provinces}
}

// collectionResponse is the wire shape of one reference collection. State
// lets the client tell loading, failure and genuine emptiness apart.
type collectionResponse[T any] struct {
	State domain.CollectionState `json:"state"`
	Items []T                    `json:"items"`
	Error string                 `json:"error,omitempty"`
}

func toCollection[T any](c service.Collection[T]) collectionResponse[T] {
	items := c.Items
	if items == nil {
		items = []T{}
	}
	return collectionResponse[T]{State: c.State, Items: items, Error: c.Err}
}

// Categories lists the category collection.
//
// @Summary      Categories
// @Tags         refdata
// @Produce      json
// @Success      200  {object}  collectionResponse[domain.Category]
// @Router       /categorias [get]
func (h *RefDataHandler) Categories(c echo.Context) error {
	return c.JSON(http.StatusOK, toCollection(h.store.Categories()))
}

// Subcategories lists subcategories, optionally scoped to one category.
//
// @Summary      Subcategories
// @Tags         refdata
// @Produce      json
// @Param        category  query  string  false  "Parent category id"
// @Success      200  {object}  collectionResponse[domain.Subcategory]
// @Router       /subcategorias [get]
func (h *RefDataHandler) Subcategories(c echo.Context) error {
	col := h.store.Subcategories()
	if categoryID := c.QueryParam("category"); categoryID != "" {
		col.Items = h.store.SubcategoriesOf(categoryID)
	}
	return c.JSON(http.StatusOK, toCollection(col))
}

// Provinces lists the province collection.
//
// @Summary      Provinces
// @Tags         refdata
// @Produce      json
// @Success      200  {object}  collectionResponse[domain.Province]
// @Router       /provincias [get]
func (h *RefDataHandler) Provinces(c echo.Context) error {
	return c.JSON(http.StatusOK, toCollection(h.store.Provinces()))
}

// Municipalities lists municipalities, optionally scoped to one province.
//
// @Summary      Municipalities
// @Tags         refdata
// @Produce      json
// @Param        province  query  string  false  "Parent province id"
// @Success      200  {object}  collectionResponse[domain.Municipality]
// @Router       /municipios [get]
func (h *RefDataHandler) Municipalities(c echo.Context) error {
	col := h.store.Municipalities()
	if provinceID := c.QueryParam("province"); provinceID != "" {
		col.Items = h.store.MunicipalitiesOf(provinceID)
	}
	return c.JSON(http.StatusOK, toCollection(col))
}

// Category returns one category by id.
//
// @Summary      Category by id
// @Tags         refdata
// @Produce      json
// @Param        id  path  string  true  "Category id"
// @Success      200  {object}  domain.Category
// @Failure      404  {object}  map[string]string
// @Router       /categorias/{id} [get]
func (h *RefDataHandler) Category(c echo.Context) error {
	cat, ok := h.store.CategoryByID(c.Param("id"))
	if !ok {
		return domain.ErrCategoryNotFound
	}
	return c.JSON(http.StatusOK, cat)
}

// Subcategory returns one subcategory by id.
//
// @Summary      Subcategory by id
// @Tags         refdata
// @Produce      json
// @Param        id  path  string  true  "Subcategory id"
// @Success      200  {object}  domain.Subcategory
// @Failure      404  {object}  map[string]string
// @Router       /subcategorias/{id} [get]
func (h *RefDataHandler) Subcategory(c echo.Context) error {
	sc, ok := h.store.SubcategoryByID(c.Param("id"))
	if !ok {
		return domain.ErrSubcategoryNotFound
	}
	return c.JSON(http.StatusOK, sc)
}

// Province returns one province by id.
//
// @Summary      Province by id
// @Tags         refdata
// @Produce      json
// @Param        id  path  string  true  "Province id"
// @Success      200  {object}  domain.Province
// @Failure      404  {object}  map[string]string
// @Router       /provincias/{id} [get]
func (h *RefDataHandler) Province(c echo.Context) error {
	p, ok := h.store.ProvinceByID(c.Param("id"))
	if !ok {
		return domain.ErrProvinceNotFound
	}
	return c.JSON(http.StatusOK, p)
}

// Municipality returns one municipality by id.
//
// @Summary      Municipality by id
// @Tags         refdata
// @Produce      json
// @Param        id  path  string  true  "Municipality id"
// @Success      200  {object}  domain.Municipality
// @Failure      404  {object}  map[string]string
// @Router       /municipios/{id} [get]
func (h *RefDataHandler) Municipality(c echo.Context) error {
	m, ok := h.store.MunicipalityByID(c.Param("id"))
	if !ok {
		return domain.ErrMunicipalityNotFound
	}
	return c.JSON(http.StatusOK, m)
}

type provinceRequest struct {
	Name string `json:"name" validate:"required"`
	Code string `json:"code"`
	Slug string `json:"slug"`
}

type municipalityRequest struct {
	Name       string `json:"name" validate:"required"`
	ProvinceID string `json:"province_id" validate:"required"`
}

// CreateProvince adds a province. Admin only. The in-process collection is
// reloaded so readers see the write without a restart.
//
// @Summary      Create a province
// @Tags         refdata-admin
// @Accept       json
// @Produce      json
// @Param        body  body      provinceRequest  true  "Province"
// @Success      201   {object}  domain.Province
// @Router       /provincias [post]
func (h *RefDataHandler) CreateProvince(c echo.Context) error {
	var req provinceRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, []string{"solicitud inválida"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, validationMessages(err))
	}

	p := domain.Province{Name: req.Name, Code: req.Code, Slug: req.Slug}
	if err := h.provinces.CreateProvince(c.Request().Context(), &p); err != nil {
		return err
	}
	h.store.LoadProvinces(c.Request().Context())
	return c.JSON(http.StatusCreated, p)
}

// UpdateProvince edits a province. Admin only.
//
// @Summary      Update a province
// @Tags         refdata-admin
// @Accept       json
// @Produce      json
// @Param        id    path      string           true  "Province id"
// @Param        body  body      provinceRequest  true  "Province"
// @Success      200   {object}  domain.Province
// @Router       /provincias/{id} [put]
func (h *RefDataHandler) UpdateProvince(c echo.Context) error {
	var req provinceRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, []string{"solicitud inválida"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, validationMessages(err))
	}

	p := domain.Province{ID: c.Param("id"), Name: req.Name, Code: req.Code, Slug: req.Slug}
	if err := h.provinces.UpdateProvince(c.Request().Context(), &p); err != nil {
		return err
	}
	h.store.LoadProvinces(c.Request().Context())
	return c.JSON(http.StatusOK, p)
}

// DeleteProvince removes a province. Admin only.
//
// @Summary      Delete a province
// @Tags         refdata-admin
// @Param        id  path  string  true  "Province id"
// @Success      204
// @Router       /provincias/{id} [delete]
func (h *RefDataHandler) DeleteProvince(c echo.Context) error {
	if err := h.provinces.DeleteProvince(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	h.store.LoadProvinces(c.Request().Context())
	return c.NoContent(http.StatusNoContent)
}

// CreateMunicipality adds a municipality. Admin only.
//
// @Summary      Create a municipality
// @Tags         refdata-admin
// @Accept       json
// @Produce      json
// @Param        body  body      municipalityRequest  true  "Municipality"
// @Success      201   {object}  domain.Municipality
// @Router       /municipios [post]
func (h *RefDataHandler) CreateMunicipality(c echo.Context) error {
	var req municipalityRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, []string{"solicitud inválida"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, validationMessages(err))
	}

	m := domain.Municipality{Name: req.Name, ProvinceID: req.ProvinceID}
	if err := h.provinces.CreateMunicipality(c.Request().Context(), &m); err != nil {
		return err
	}
	h.store.LoadMunicipalities(c.Request().Context())
	return c.JSON(http.StatusCreated, m)
}

// UpdateMunicipality edits a municipality. Admin only.
//
// @Summary      Update a municipality
// @Tags         refdata-admin
// @Accept       json
// @Produce      json
// @Param        id    path      string               true  "Municipality id"
// @Param        body  body      municipalityRequest  true  "Municipality"
// @Success      200   {object}  domain.Municipality
// @Router       /municipios/{id} [put]
func (h *RefDataHandler) UpdateMunicipality(c echo.Context) error {
	var req municipalityRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, []string{"solicitud inválida"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, validationMessages(err))
	}

	m := domain.Municipality{ID: c.Param("id"), Name: req.Name, ProvinceID: req.ProvinceID}
	if err := h.provinces.UpdateMunicipality(c.Request().Context(), &m); err != nil {
		return err
	}
	h.store.LoadMunicipalities(c.Request().Context())
	return c.JSON(http.StatusOK, m)
}

// DeleteMunicipality removes a municipality. Admin only.
//
// @Summary      Delete a municipality
// @Tags         refdata-admin
// @Param        id  path  string  true  "Municipality id"
// @Success      204
// @Router       /municipios/{id} [delete]
func (h *RefDataHandler) DeleteMunicipality(c echo.Context) error {
	if err := h.provinces.DeleteMunicipality(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	h.store.LoadMunicipalities(c.Request().Context())
	return c.NoContent(http.StatusNoContent)
}
