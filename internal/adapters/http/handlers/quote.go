package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quote-ingest/internal/adapters/http/dto"
	"github.com/jsamuelsen/quote-ingest/internal/app"
)

// QuoteHandler serves the catalog and accepts ingest requests.
type QuoteHandler struct {
	service *app.QuoteService
}

// NewQuoteHandler creates a new quote handler.
func NewQuoteHandler(service *app.QuoteService) *QuoteHandler {
	return &QuoteHandler{service: service}
}

// ListQuotes handles GET /api/v1/quotes
//
// @Summary List quotes
// @Description Pages through the live catalog in ingest order
// @Tags quotes
// @Produce json
// @Param cursor query string false "NextCursor of the previous page"
// @Param limit query int false "Page size, 1 to 100"
// @Success 200 {object} dto.QuoteListResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /api/v1/quotes [get]
func (h *QuoteHandler) ListQuotes(c *gin.Context) {
	var req dto.PaginationRequest
	if err := dto.BindQueryAndValidate(c, &req); err != nil {
		respondWithBindError(c, err)
		return
	}

	var offset int

	quotes, catalog, err := h.service.List(c.Request.Context(), req.GetLimit(),
		func(generation uint64) (int, error) {
			var err error
			offset, err = req.Offset(generation)

			return offset, err
		})
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.QuoteListResponse{
		Page:       dto.NewPage(dto.NewQuoteResponses(quotes), offset, catalog.Len(), catalog.Generation()),
		Generation: catalog.Generation(),
		BuiltAt:    catalog.BuiltAt(),
	})
}

// GetRandomQuote handles GET /api/v1/quotes/random
//
// @Summary Get a random quote
// @Tags quotes
// @Produce json
// @Success 200 {object} dto.QuoteResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/quotes/random [get]
func (h *QuoteHandler) GetRandomQuote(c *gin.Context) {
	quote, err := h.service.Random(c.Request.Context())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewQuoteResponse(quote))
}

// ListDiagnostics handles GET /api/v1/ingest/diagnostics
//
// @Summary List diagnostics
// @Description Problems found while building the live catalog
// @Tags ingest
// @Produce json
// @Success 200 {object} dto.DiagnosticsResponse
// @Router /api/v1/ingest/diagnostics [get]
func (h *QuoteHandler) ListDiagnostics(c *gin.Context) {
	diags, generation := h.service.Diagnostics(c.Request.Context())

	c.JSON(http.StatusOK, dto.DiagnosticsResponse{
		Generation:  generation,
		Diagnostics: dto.NewDiagnosticResponses(diags, h.service.RelativePath),
	})
}

// Ingest handles POST /api/v1/ingest
//
// @Summary Ingest sources
// @Description Decodes files under the data directory. With publish set, a
// @Description batch without schema mismatches replaces the live catalog.
// @Tags ingest
// @Accept json
// @Produce json
// @Param request body dto.IngestRequest true "Paths to ingest"
// @Success 200 {object} dto.IngestResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Router /api/v1/ingest [post]
func (h *QuoteHandler) Ingest(c *gin.Context) {
	var req dto.IngestRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		respondWithBindError(c, err)
		return
	}

	outcome, err := h.service.Ingest(c.Request.Context(), app.IngestRequest{
		Paths:   req.Paths,
		Publish: req.Publish,
	})
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewIngestResponse(req, outcome.Report, outcome.Published, outcome.Generation))
}

// RegisterRoutes registers the quote and ingest routes on rg.
func (h *QuoteHandler) RegisterRoutes(rg *gin.RouterGroup) {
	quotes := rg.Group("/quotes")
	quotes.GET("", h.ListQuotes)
	quotes.GET("/random", h.GetRandomQuote)

	ingest := rg.Group("/ingest")
	ingest.POST("", h.Ingest)
	ingest.GET("/diagnostics", h.ListDiagnostics)
}

func respondWithBindError(c *gin.Context, err error) {
	if fields := dto.ValidationErrors(err); fields != nil {
		dto.RespondWithValidationErrors(c, fields)
		return
	}

	dto.HandleError(c, err)
}
