package controllers

import (
	"net/http"
	"strconv"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	restful "github.com/emicklei/go-restful/v3"

	"bookstore-restful/auth"
	"bookstore-restful/models"
	"bookstore-restful/services"
)

// BookController serves the catalogue routes.
type BookController struct {
	bookService services.BookService
	tokens      *auth.TokenManager
	errs        errorResponder
}

func NewBookController(bookService services.BookService, tokens *auth.TokenManager, errs errorResponder) *BookController {
	return &BookController{bookService: bookService, tokens: tokens, errs: errs}
}

// RegisterRoutes sets up the /books web service.
func (ctl *BookController) RegisterRoutes(ws *restful.WebService) {
	ws.Path("/books").Consumes(restful.MIME_JSON).Produces(restful.MIME_JSON)
	tags := []string{"books"}

	ws.Route(ws.POST("").Filter(auth.AuthFilter(ctl.tokens)).To(ctl.createBookHandler).
		AllowedMethodsWithoutContentType(bodyMethods).
		Doc("Add a book owned by the caller").
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Param(ws.HeaderParameter("Authorization", "Bearer token").DataType("string").Required(true)).
		Reads(services.BookInput{}).
		Returns(http.StatusCreated, "Book created", models.Book{}).
		Returns(http.StatusBadRequest, "Invalid request body", ErrorResponse{}).
		Returns(http.StatusUnauthorized, "Token missing or invalid", ErrorResponse{}).
		Returns(http.StatusInternalServerError, "Database error", ErrorResponse{}))

	ws.Route(ws.GET("").To(ctl.listBooksHandler).
		Doc("List all books").
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Writes([]models.Book{}).
		Returns(http.StatusCreated, "Books listed", []models.Book{}).
		Returns(http.StatusInternalServerError, "Failed to fetch books", ErrorResponse{}))

	ws.Route(ws.GET("/daily").To(ctl.dailyCountsHandler).
		Doc("Count books added per calendar day, oldest first").
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Writes([]models.DailyCount{}).
		Returns(http.StatusCreated, "Daily counts", []models.DailyCount{}).
		Returns(http.StatusInternalServerError, "Failed to fetch daily book counts", ErrorResponse{}))

	ws.Route(ws.GET("/{id}").To(ctl.getBookHandler).
		Doc("Get book by ID").
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Param(ws.PathParameter("id", "Identifier of the book").DataType("integer")).
		Writes(models.Book{}).
		Returns(http.StatusCreated, "Book found", models.Book{}).
		Returns(http.StatusBadRequest, "Invalid book ID", ErrorResponse{}).
		Returns(http.StatusNotFound, "Book not found", ErrorResponse{}).
		Returns(http.StatusInternalServerError, "Server error", ErrorResponse{}))
}

// RegisterQueryRoutes adds the lookup routes that live outside /books.
func (ctl *BookController) RegisterQueryRoutes(ws *restful.WebService) {
	tags := []string{"books"}

	ws.Route(ws.GET("/booksusername").To(ctl.booksByUsernameHandler).
		Doc("List the books added by a user").
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Param(ws.QueryParameter("username", "Owner username").DataType("string").Required(true)).
		Writes([]models.Book{}).
		Returns(http.StatusCreated, "Books listed", []models.Book{}).
		Returns(http.StatusBadRequest, "Username is required", ErrorResponse{}).
		Returns(http.StatusNotFound, "No books found for this user", ErrorResponse{}).
		Returns(http.StatusInternalServerError, "Failed to fetch books", ErrorResponse{}))

	ws.Route(ws.GET("/search").To(ctl.searchHandler).
		Doc("Search books by title, ignoring case").
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Param(ws.QueryParameter("title", "Substring of the title").DataType("string")).
		Writes([]models.Book{}).
		Returns(http.StatusCreated, "Matching books", []models.Book{}).
		Returns(http.StatusNotFound, "No books found", ErrorResponse{}).
		Returns(http.StatusInternalServerError, "Failed to search books", ErrorResponse{}))
}

// createBookHandler (Handles POST /books)
func (ctl *BookController) createBookHandler(request *restful.Request, response *restful.Response) {
	claims, ok := auth.ClaimsFrom(request)
	if !ok {
		writeError(response, http.StatusUnauthorized, "Token is missing")
		return
	}

	input := new(services.BookInput)
	if !readBody(request, response, input) {
		return
	}

	book, err := ctl.bookService.Create(request.Request.Context(), claims.Identity(), input)
	if err != nil {
		ctl.errs.handleServiceError(request, response, err, "Database error")
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusCreated, book, restful.MIME_JSON)
}

// listBooksHandler (Handles GET /books)
func (ctl *BookController) listBooksHandler(request *restful.Request, response *restful.Response) {
	books, err := ctl.bookService.List(request.Request.Context())
	if err != nil {
		ctl.errs.handleServiceError(request, response, err, "Failed to fetch books")
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusCreated, books, restful.MIME_JSON)
}

// getBookHandler (Handles GET /books/{id})
func (ctl *BookController) getBookHandler(request *restful.Request, response *restful.Response) {
	id, err := strconv.ParseUint(request.PathParameter("id"), 10, 32)
	if err != nil {
		writeError(response, http.StatusBadRequest, "Invalid book ID")
		return
	}

	book, err := ctl.bookService.Get(request.Request.Context(), uint(id))
	if err != nil {
		ctl.errs.handleServiceError(request, response, err, "Server error")
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusCreated, book, restful.MIME_JSON)
}

// dailyCountsHandler (Handles GET /books/daily)
func (ctl *BookController) dailyCountsHandler(request *restful.Request, response *restful.Response) {
	counts, err := ctl.bookService.DailyCounts(request.Request.Context())
	if err != nil {
		ctl.errs.handleServiceError(request, response, err, "Failed to fetch daily book counts")
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusCreated, counts, restful.MIME_JSON)
}

// booksByUsernameHandler (Handles GET /booksusername)
func (ctl *BookController) booksByUsernameHandler(request *restful.Request, response *restful.Response) {
	books, err := ctl.bookService.ListByUsername(request.Request.Context(), request.QueryParameter("username"))
	if err != nil {
		ctl.errs.handleServiceError(request, response, err, "Failed to fetch books")
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusCreated, books, restful.MIME_JSON)
}

// searchHandler (Handles GET /search)
func (ctl *BookController) searchHandler(request *restful.Request, response *restful.Response) {
	books, err := ctl.bookService.SearchByTitle(request.Request.Context(), request.QueryParameter("title"))
	if err != nil {
		ctl.errs.handleServiceError(request, response, err, "Failed to search books")
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusCreated, books, restful.MIME_JSON)
}
