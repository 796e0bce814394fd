package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quotekeeper/internal/adapters/http/dto"
	"github.com/jsamuelsen/quotekeeper/internal/app"
	"github.com/jsamuelsen/quotekeeper/internal/domain"
)

// ExportFilename is the attachment name of GET /quotes/export.
const ExportFilename = "quotes.json"

// QuoteHandler serves the quote collection.
type QuoteHandler struct {
	book *app.QuoteBook
}

// NewQuoteHandler creates a new quote handler.
func NewQuoteHandler(book *app.QuoteBook) *QuoteHandler {
	return &QuoteHandler{book: book}
}

// List handles GET /api/v1/quotes?category=&cursor=&limit=
// An empty category lists everything.
func (h *QuoteHandler) List(c *gin.Context) {
	var req dto.ListQuotesRequest
	if err := dto.BindQueryAndValidate(c, &req); err != nil {
		dto.RespondBindError(c, err)
		return
	}

	offset, err := req.Offset()
	if err != nil {
		dto.Respond(c, dto.ErrorCodeBadRequest, err.Error())
		return
	}

	category := req.Category
	if category == "" {
		category = domain.CategoryAll
	}

	quotes := dto.NewQuoteResponses(h.book.FilterBy(category))
	c.JSON(http.StatusOK, dto.Paginate(quotes, offset, req.GetLimit()))
}

// Add handles POST /api/v1/quotes.
func (h *QuoteHandler) Add(c *gin.Context) {
	var req dto.AddQuoteRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.RespondBindError(c, err)
		return
	}

	quote, err := h.book.Add(c.Request.Context(), req.Text, req.Category)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewQuoteResponse(quote))
}

// Random handles GET /api/v1/quotes/random?category=
// Without a category the last filter is reused.
func (h *QuoteHandler) Random(c *gin.Context) {
	quote, err := h.book.RandomQuote(c.Request.Context(), c.Query("category"))
	if domain.IsNotFound(err) {
		dto.Respond(c, dto.ErrorCodeNotFound, app.MsgNoQuotes)
		return
	}

	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewQuoteResponse(quote))
}

// Last handles GET /api/v1/quotes/last.
func (h *QuoteHandler) Last(c *gin.Context) {
	quote, ok := h.book.LastShown(c.Request.Context())
	if !ok {
		dto.Respond(c, dto.ErrorCodeNotFound, "no quote has been shown yet")
		return
	}

	c.JSON(http.StatusOK, dto.NewQuoteResponse(quote))
}

// Categories handles GET /api/v1/categories.
func (h *QuoteHandler) Categories(c *gin.Context) {
	c.JSON(http.StatusOK, dto.CategoriesResponse{Categories: h.book.Categories()})
}

// Export handles GET /api/v1/quotes/export.
func (h *QuoteHandler) Export(c *gin.Context) {
	c.Header("Content-Disposition", `attachment; filename="`+ExportFilename+`"`)
	c.Header("Content-Type", "application/json")
	c.Status(http.StatusOK)

	if err := h.book.Export(c.Writer); err != nil {
		_ = c.Error(err)
	}
}

// Import handles POST /api/v1/quotes/import. A multipart request carries
// the array in its "file" field; any other content type is read as the
// raw JSON array.
func (h *QuoteHandler) Import(c *gin.Context) {
	body := io.Reader(c.Request.Body)

	if c.ContentType() == gin.MIMEMultipartPOSTForm {
		fh, err := c.FormFile("file")

		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			dto.HandleError(c, err)
			return
		}

		if err != nil {
			dto.Respond(c, dto.ErrorCodeBadRequest, `multipart import requires a "file" field`)
			return
		}

		f, err := fh.Open()
		if err != nil {
			dto.Respond(c, dto.ErrorCodeBadRequest, "cannot read uploaded file")
			return
		}
		defer f.Close()

		body = f
	}

	n, err := h.book.Import(c.Request.Context(), body)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ImportResponse{Imported: n, Total: h.book.Len()})
}

// RegisterQuoteRoutes registers quote routes on the given router group.
func (h *QuoteHandler) RegisterQuoteRoutes(rg *gin.RouterGroup) {
	quotes := rg.Group("/quotes")
	quotes.GET("", h.List)
	quotes.POST("", h.Add)
	quotes.GET("/random", h.Random)
	quotes.GET("/last", h.Last)
	quotes.GET("/export", h.Export)
	quotes.POST("/import", h.Import)

	rg.GET("/categories", h.Categories)
}
