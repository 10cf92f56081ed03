package controllers

import (
	"net/http"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	restful "github.com/emicklei/go-restful/v3"
	"github.com/go-openapi/spec"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"bookstore-restful/auth"
	"bookstore-restful/interceptors"
	"bookstore-restful/services"
)

// Options wires the services and cross-cutting pieces into the container.
type Options struct {
	UserService services.UserService
	BookService services.BookService
	Tokens      *auth.TokenManager
	Logger      *zap.Logger

	// Metrics and Gatherer are optional. When both are set, requests are
	// measured and GET /metrics exposes the registry.
	Metrics  *interceptors.Metrics
	Gatherer prometheus.Gatherer

	ExposeErrorDetails      bool
	RoleUpdateRequiresAdmin bool
}

// NewContainer builds the HTTP handler with every route, filter and the
// OpenAPI document at /apidocs.json.
func NewContainer(opts Options) *restful.Container {
	container := restful.NewContainer()
	container.Router(restful.CurlyRouter{})
	container.DoNotRecover(false)
	container.RecoverHandler(interceptors.RecoverHandler(opts.Logger))
	container.ServiceErrorHandler(writeServiceError)
	restful.DefaultRequestContentType(restful.MIME_JSON)

	errs := errorResponder{logger: opts.Logger, exposeDetails: opts.ExposeErrorDetails}
	authController := NewAuthController(opts.UserService, errs)
	bookController := NewBookController(opts.BookService, opts.Tokens, errs)
	userController := NewUserController(opts.UserService, opts.Tokens, opts.RoleUpdateRequiresAdmin, errs)

	rootWS := new(restful.WebService)
	rootWS.Path("/").Consumes(restful.MIME_JSON).Produces(restful.MIME_JSON)
	authController.RegisterRoutes(rootWS)
	bookController.RegisterQueryRoutes(rootWS)
	container.Add(rootWS)

	booksWS := new(restful.WebService)
	bookController.RegisterRoutes(booksWS)
	container.Add(booksWS)

	usersWS := new(restful.WebService)
	userController.RegisterRoutes(usersWS)
	container.Add(usersWS)

	container.Add(restfulspec.NewOpenAPIService(restfulspec.Config{
		WebServices:                   container.RegisteredWebServices(),
		APIPath:                       "/apidocs.json",
		PostBuildSwaggerObjectHandler: enrichSwaggerObject,
	}))

	if opts.Metrics != nil && opts.Gatherer != nil {
		container.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	// Filters run outermost first.
	container.Filter(interceptors.RequestIDFilter)
	container.Filter(interceptors.AccessLogFilter(opts.Logger))
	if opts.Metrics != nil {
		container.Filter(opts.Metrics.Filter)
	}
	cors := restful.CrossOriginResourceSharing{
		ExposeHeaders:  []string{interceptors.RequestIDHeader},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		CookiesAllowed: false,
		Container:      container,
	}
	container.Filter(cors.Filter)
	container.Filter(container.OPTIONSFilter)

	return container
}

func enrichSwaggerObject(swo *spec.Swagger) {
	swo.Info = &spec.Info{
		InfoProps: spec.InfoProps{
			Title:       "Bookstore API",
			Description: "Users, tokens and the book catalogue",
			Version:     "1.0.0",
		},
	}
	swo.Tags = []spec.Tag{
		{TagProps: spec.TagProps{Name: "auth", Description: "Registration and login"}},
		{TagProps: spec.TagProps{Name: "books", Description: "Book catalogue"}},
		{TagProps: spec.TagProps{Name: "users", Description: "User administration"}},
	}
}
