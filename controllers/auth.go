package controllers

import (
	"net/http"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	restful "github.com/emicklei/go-restful/v3"

	"bookstore-restful/models"
	"bookstore-restful/services"
)

// AuthController serves registration and login.
type AuthController struct {
	userService services.UserService
	errs        errorResponder
}

func NewAuthController(userService services.UserService, errs errorResponder) *AuthController {
	return &AuthController{userService: userService, errs: errs}
}

// RegisteredUserResponse is the stored row returned after registration,
// password hash included.
type RegisteredUserResponse struct {
	models.User
	Password string `json:"password"`
}

// RegisterRoutes adds POST /register and POST / to the root web service.
func (ctl *AuthController) RegisterRoutes(ws *restful.WebService) {
	tags := []string{"auth"}

	ws.Route(ws.POST("/register").To(ctl.registerHandler).
		AllowedMethodsWithoutContentType(bodyMethods).
		Doc("Register a new user").
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Reads(services.RegisterInput{}).
		Returns(http.StatusCreated, "User created", RegisteredUserResponse{}).
		Returns(http.StatusBadRequest, "Invalid request body", ErrorResponse{}).
		Returns(http.StatusInternalServerError, "Database error", ErrorResponse{}))

	ws.Route(ws.POST("/").To(ctl.loginHandler).
		AllowedMethodsWithoutContentType(bodyMethods).
		Doc("Log in with email and password").
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Reads(services.LoginInput{}).
		Returns(http.StatusOK, "Token issued", services.LoginResult{}).
		Returns(http.StatusUnauthorized, "Invalid email or password", ErrorResponse{}).
		Returns(http.StatusInternalServerError, "Server error", ErrorResponse{}))
}

// registerHandler (Handles POST /register)
func (ctl *AuthController) registerHandler(request *restful.Request, response *restful.Response) {
	input := new(services.RegisterInput)
	if !readBody(request, response, input) {
		return
	}

	user, err := ctl.userService.Register(request.Request.Context(), input)
	if err != nil {
		ctl.errs.handleServiceError(request, response, err, "Database error")
		return
	}

	_ = response.WriteHeaderAndJson(http.StatusCreated, RegisteredUserResponse{User: *user, Password: user.Password}, restful.MIME_JSON)
}

// loginHandler (Handles POST /)
func (ctl *AuthController) loginHandler(request *restful.Request, response *restful.Response) {
	input := new(services.LoginInput)
	if !readBody(request, response, input) {
		return
	}

	result, err := ctl.userService.Login(request.Request.Context(), input)
	if err != nil {
		ctl.errs.handleServiceError(request, response, err, "Server error")
		return
	}

	_ = response.WriteHeaderAndJson(http.StatusOK, result, restful.MIME_JSON)
}
