package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/trueque/marketplace/internal/api/metrics"
	"github.com/trueque/marketplace/internal/api/middleware"
	"github.com/trueque/marketplace/internal/core/domain"
	"github.com/trueque/marketplace/internal/core/ports"
	"github.com/trueque/marketplace/internal/core/search"
	"github.com/trueque/marketplace/internal/core/service"
	"github.com/trueque/marketplace/internal/util/timefmt"
)

// ListingHandler serves the listing surface: the filtered browse endpoint,
// owner CRUD and favorites.
type ListingHandler struct {
	svc     ports.ListingService
	ref     *service.RefDataStore
	carrier *search.Carrier
	now     func() time.Time
}

func NewListingHandler(svc ports.ListingService, ref *service.RefDataStore, carrier *search.Carrier) *ListingHandler {
	return &ListingHandler{svc: svc, ref: ref, carrier: carrier, now: time.Now}
}

type listingResponse struct {
	ID            string              `json:"id"`
	Title         string              `json:"title"`
	Description   string              `json:"description"`
	CategoryID    string              `json:"category_id"`
	CategoryName  string              `json:"category_name,omitempty"`
	SubcategoryID string              `json:"subcategory_id,omitempty"`
	ProvinceID    string              `json:"province_id"`
	ProvinceName  string              `json:"province_name,omitempty"`
	Owner         domain.OwnerSummary `json:"owner"`
	Likes         int                 `json:"likes"`
	Images        []string            `json:"images"`
	Contact       domain.Contact      `json:"contact"`
	CreatedAt     time.Time           `json:"created_at"`
	Posted        string              `json:"posted"`
}

type listingPage struct {
	Listings      []listingResponse `json:"listings"`
	Total         int               `json:"total"`
	Matched       int               `json:"matched"`
	SearchApplied bool              `json:"search_applied"`
	Intent        search.Intent     `json:"intent"`
}

type createListingRequest struct {
	Title         string   `json:"title" validate:"required,min=3"`
	Description   string   `json:"description" validate:"required,min=10"`
	CategoryID    string   `json:"category_id" validate:"required"`
	SubcategoryID string   `json:"subcategory_id"`
	ProvinceID    string   `json:"province_id" validate:"required"`
	Images        []string `json:"images"`
	ContactEmail  string   `json:"contact_email" validate:"required,email"`
	ContactPhone  string   `json:"contact_phone"`
}

// List answers the browse page. The visible set is the full collection run
// through the filter engine: an intent token posted by a search surface is
// consumed exactly once; re-renders resend the resolved fields instead, so a
// hard refresh without them always lands unfiltered.
//
// @Summary      Browse listings, optionally filtered
// @Tags         listings
// @Produce      json
// @Param        intent    query  string  false  "One-shot intent token"
// @Param        term      query  string  false  "Search term"
// @Param        category  query  string  false  "Category id"
// @Param        province  query  string  false  "Province id"
// @Param        applied   query  bool    false  "Search already applied"
// @Param        remove    query  string  false  "Filter chip to remove (search|category|location)"
// @Success      200  {object}  listingPage
// @Router       /servicios [get]
func (h *ListingHandler) List(c echo.Context) error {
	sess := h.resumeSession(c)

	if kind := c.QueryParam("remove"); kind != "" {
		sess.RemoveFilter(search.FilterKind(kind))
		metrics.FiltersRemovedTotal.WithLabelValues(kind).Inc()
	}

	all, err := h.svc.List(c.Request().Context())
	if err != nil {
		return err
	}

	visible := sess.Visible(all, h.ref)
	if sess.Applied() {
		metrics.SearchResultSize.Observe(float64(len(visible)))
	}

	return c.JSON(http.StatusOK, listingPage{
		Listings:      h.toResponses(visible),
		Total:         len(all),
		Matched:       len(visible),
		SearchApplied: sess.Applied(),
		Intent:        sess.Intent(),
	})
}

// resumeSession rebuilds the search session for this request. A valid intent
// token wins; otherwise the explicit query fields carry the state forward.
func (h *ListingHandler) resumeSession(c echo.Context) *search.Session {
	if token := c.QueryParam("intent"); token != "" {
		if intent, ok := h.carrier.Consume(token); ok {
			sess := search.NewSession()
			sess.Apply(intent)
			return sess
		}
		metrics.HandoffsExpiredTotal.Inc()
	}
	intent := search.Intent{
		Term:       c.QueryParam("term"),
		CategoryID: c.QueryParam("category"),
		ProvinceID: c.QueryParam("province"),
	}
	return search.Resume(intent, c.QueryParam("applied") == "true")
}

// Get returns one listing.
//
// @Summary      Get a listing by id
// @Tags         listings
// @Produce      json
// @Param        id   path      string  true  "Listing id"
// @Success      200  {object}  listingResponse
// @Failure      404  {object}  map[string]string
// @Router       /servicios/{id} [get]
func (h *ListingHandler) Get(c echo.Context) error {
	listing, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.toResponse(*listing))
}

// Create publishes a new listing owned by the session user.
//
// @Summary      Publish a listing
// @Tags         listings
// @Accept       json
// @Produce      json
// @Param        body  body      createListingRequest  true  "Listing"
// @Success      201   {object}  listingResponse
// @Failure      400   {array}   string
// @Router       /servicios [post]
func (h *ListingHandler) Create(c echo.Context) error {
	user, err := sessionUser(c)
	if err != nil {
		return err
	}

	var req createListingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, []string{"solicitud inválida"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, validationMessages(err))
	}

	listing, err := h.svc.Publish(c.Request().Context(), ports.CreateListingInput{
		Title:         req.Title,
		Description:   req.Description,
		CategoryID:    req.CategoryID,
		SubcategoryID: req.SubcategoryID,
		ProvinceID:    req.ProvinceID,
		Images:        req.Images,
		ContactEmail:  req.ContactEmail,
		ContactPhone:  req.ContactPhone,
		OwnerID:       user.ID,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, h.toResponse(*listing))
}

// Update edits an owned listing.
//
// @Summary      Edit an owned listing
// @Tags         listings
// @Accept       json
// @Produce      json
// @Param        id    path      string                true  "Listing id"
// @Param        body  body      createListingRequest  true  "Listing"
// @Success      200   {object}  listingResponse
// @Failure      403   {object}  map[string]string
// @Router       /servicios/{id} [put]
func (h *ListingHandler) Update(c echo.Context) error {
	user, err := sessionUser(c)
	if err != nil {
		return err
	}

	var req createListingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, []string{"solicitud inválida"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, validationMessages(err))
	}

	listing, err := h.svc.Edit(c.Request().Context(), ports.UpdateListingInput{
		ListingID:     c.Param("id"),
		OwnerID:       user.ID,
		Title:         req.Title,
		Description:   req.Description,
		CategoryID:    req.CategoryID,
		SubcategoryID: req.SubcategoryID,
		ProvinceID:    req.ProvinceID,
		Images:        req.Images,
		ContactEmail:  req.ContactEmail,
		ContactPhone:  req.ContactPhone,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.toResponse(*listing))
}

// Delete unpublishes an owned listing.
//
// @Summary      Delete an owned listing
// @Tags         listings
// @Param        id  path  string  true  "Listing id"
// @Success      204
// @Router       /servicios/{id} [delete]
func (h *ListingHandler) Delete(c echo.Context) error {
	user, err := sessionUser(c)
	if err != nil {
		return err
	}
	if err := h.svc.Unpublish(c.Request().Context(), c.Param("id"), user.ID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Profile answers the session user's profile page: the user plus their own
// published listings.
//
// @Summary      Session user's profile
// @Tags         listings
// @Produce      json
// @Success      200  {object}  map[string]any
// @Router       /perfil [get]
func (h *ListingHandler) Profile(c echo.Context) error {
	user, err := sessionUser(c)
	if err != nil {
		return err
	}
	own, err := h.svc.ListByOwner(c.Request().Context(), user.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"user":     user,
		"listings": h.toResponses(own),
	})
}

// Favorites answers the saved-listings page.
//
// @Summary      Session user's saved listings
// @Tags         favorites
// @Produce      json
// @Success      200  {array}  listingResponse
// @Router       /guardados [get]
func (h *ListingHandler) Favorites(c echo.Context) error {
	user, err := sessionUser(c)
	if err != nil {
		return err
	}
	saved, err := h.svc.Favorites(c.Request().Context(), user.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.toResponses(saved))
}

// SaveFavorite saves a listing for the session user.
//
// @Summary      Save a listing
// @Tags         favorites
// @Param        id  path  string  true  "Listing id"
// @Success      204
// @Failure      409  {object}  map[string]string
// @Router       /guardados/{id} [post]
func (h *ListingHandler) SaveFavorite(c echo.Context) error {
	user, err := sessionUser(c)
	if err != nil {
		return err
	}
	if err := h.svc.SaveFavorite(c.Request().Context(), user.ID, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// RemoveFavorite removes a saved listing.
//
// @Summary      Remove a saved listing
// @Tags         favorites
// @Param        id  path  string  true  "Listing id"
// @Success      204
// @Router       /guardados/{id} [delete]
func (h *ListingHandler) RemoveFavorite(c echo.Context) error {
	user, err := sessionUser(c)
	if err != nil {
		return err
	}
	if err := h.svc.RemoveFavorite(c.Request().Context(), user.ID, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ListingHandler) toResponse(l domain.Listing) listingResponse {
	resp := listingResponse{
		ID:            l.ID,
		Title:         l.Title,
		Description:   l.Description,
		CategoryID:    l.CategoryID,
		SubcategoryID: l.SubcategoryID,
		ProvinceID:    l.ProvinceID,
		Owner:         l.Owner,
		Likes:         l.Likes,
		Images:        l.Images,
		Contact:       l.Contact,
		CreatedAt:     l.CreatedAt,
		Posted:        timefmt.TimeAgo(l.CreatedAt, h.now()),
	}
	if name, ok := h.ref.CategoryName(l.CategoryID); ok {
		resp.CategoryName = name
	}
	if name, ok := h.ref.ProvinceName(l.ProvinceID); ok {
		resp.ProvinceName = name
	}
	return resp
}

func (h *ListingHandler) toResponses(ls []domain.Listing) []listingResponse {
	out := make([]listingResponse, 0, len(ls))
	for _, l := range ls {
		out = append(out, h.toResponse(l))
	}
	return out
}

// sessionUser returns the resolved authenticated user. Guarded routes reach
// here only after the guard let them through, so a missing user is a
// programming error surfaced as 401, not a redirect.
func sessionUser(c echo.Context) (*domain.User, error) {
	store := middleware.StoreFrom(c)
	if store == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "no session")
	}
	snap := store.Snapshot()
	if !snap.Authenticated || snap.User == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "no session")
	}
	return snap.User, nil
}
