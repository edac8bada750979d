package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trueque/marketplace/internal/api/metrics"
	"github.com/trueque/marketplace/internal/core/ports"
	"github.com/trueque/marketplace/internal/core/search"
)

// SearchRecorder accepts province hits for asynchronous counting.
type SearchRecorder interface {
	Enqueue(provinceID string)
}

// SearchHandler owns the intent-producing side of search: every surface that
// starts a search posts its intent here and navigates with the returned
// one-shot token. The browse endpoint consumes it.
type SearchHandler struct {
	carrier  *search.Carrier
	svc      ports.ListingService
	recorder SearchRecorder
}

func NewSearchHandler(carrier *search.Carrier, svc ports.ListingService, recorder SearchRecorder) *SearchHandler {
	return &SearchHandler{carrier: carrier, svc: svc, recorder: recorder}
}

type intentRequest struct {
	Source          string `json:"source" validate:"required,oneof=search_bar category_tap province_tap subcategory_tap map_picker"`
	Term            string `json:"term"`
	CategoryID      string `json:"category_id"`
	ProvinceID      string `json:"province_id"`
	SubcategoryName string `json:"subcategory_name"`
}

type intentResponse struct {
	Token string `json:"token"`
}

// PostIntent normalizes a surface's search submission into an intent and
// parks it for the next browse request. Empty submissions are accepted but
// produce no token, matching the no-op search path.
//
// @Summary      Post a search intent
// @Tags         search
// @Accept       json
// @Produce      json
// @Param        body  body      intentRequest  true  "Search submission"
// @Success      201   {object}  intentResponse
// @Success      204   "Empty submission, nothing to carry"
// @Failure      400   {array}   string
// @Router       /search/intents [post]
func (h *SearchHandler) PostIntent(c echo.Context) error {
	var req intentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, []string{"solicitud inválida"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, validationMessages(err))
	}

	intent := intentFor(req)
	token, ok := h.carrier.Post(intent)
	if !ok {
		return c.NoContent(http.StatusNoContent)
	}

	metrics.SearchesTotal.WithLabelValues(req.Source).Inc()
	if intent.ProvinceID != "" {
		h.recorder.Enqueue(intent.ProvinceID)
	}

	return c.JSON(http.StatusCreated, intentResponse{Token: token})
}

func intentFor(req intentRequest) search.Intent {
	switch req.Source {
	case "category_tap":
		return search.FromCategoryTap(req.CategoryID)
	case "province_tap", "map_picker":
		return search.FromProvinceTap(req.ProvinceID)
	case "subcategory_tap":
		return search.FromSubcategoryTap(req.CategoryID, req.SubcategoryName)
	default:
		return search.FromSearchBar(req.Term, req.CategoryID, req.ProvinceID)
	}
}

type provinceRankResponse struct {
	ProvinceID string `json:"province_id"`
	Name       string `json:"name"`
	Listings   int    `json:"listings"`
	Searches   int64  `json:"searches"`
}

type mostSearchedResponse struct {
	Provinces  []provinceRankResponse `json:"provinces"`
	Categories []ports.CategoryGroup  `json:"categories"`
}

// MostSearched answers the landing page's most-searched section: top
// provinces by published listings and recorded searches, plus the category
// groups with their subcategories. Both tabs produce intents via PostIntent.
//
// @Summary      Most-searched provinces and categories
// @Tags         search
// @Produce      json
// @Success      200  {object}  mostSearchedResponse
// @Router       /search/most-searched [get]
func (h *SearchHandler) MostSearched(c echo.Context) error {
	ranks, err := h.svc.TopProvinces(c.Request().Context(), 6)
	if err != nil {
		return err
	}

	provinces := make([]provinceRankResponse, 0, len(ranks))
	for _, r := range ranks {
		provinces = append(provinces, provinceRankResponse{
			ProvinceID: r.ProvinceID,
			Name:       r.Name,
			Listings:   r.Listings,
			Searches:   r.Searches,
		})
	}

	return c.JSON(http.StatusOK, mostSearchedResponse{
		Provinces:  provinces,
		Categories: h.svc.CategoryGroups(4),
	})
}
