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

// UserController serves the /users routes.
type UserController struct {
	userService  services.UserService
	tokens       *auth.TokenManager
	requireAdmin bool
	errs         errorResponder
}

// NewUserController creates a UserController. With requireAdmin set, role
// changes need a bearer token carrying the admin role.
func NewUserController(userService services.UserService, tokens *auth.TokenManager, requireAdmin bool, errs errorResponder) *UserController {
	return &UserController{userService: userService, tokens: tokens, requireAdmin: requireAdmin, errs: errs}
}

// RoleUpdateInput is the body of PUT /users/{id}/role.
type RoleUpdateInput struct {
	Role string `json:"role"`
}

// RegisterRoutes sets up the user-related routes for a go-restful WebService.
func (ctl *UserController) RegisterRoutes(ws *restful.WebService) {
	ws.Path("/users").Consumes(restful.MIME_JSON).Produces(restful.MIME_JSON)
	tags := []string{"users"}

	ws.Route(ws.GET("").To(ctl.listUsersHandler).
		Doc("List users").
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Writes([]models.User{}).
		Returns(http.StatusCreated, "Users listed", []models.User{}).
		Returns(http.StatusInternalServerError, "Failed to fetch users", ErrorResponse{}))

	rb := ws.PUT("/{id}/role").To(ctl.updateRoleHandler).
		AllowedMethodsWithoutContentType(bodyMethods).
		Doc("Change the role of a user").
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Param(ws.PathParameter("id", "Identifier of the user").DataType("integer")).
		Reads(RoleUpdateInput{}).
		Writes(models.User{}).
		Returns(http.StatusCreated, "Role updated", models.User{}).
		Returns(http.StatusBadRequest, "Invalid request body or user ID", ErrorResponse{}).
		Returns(http.StatusNotFound, "User not found", ErrorResponse{}).
		Returns(http.StatusInternalServerError, "Failed to update user role", ErrorResponse{})
	if ctl.requireAdmin {
		rb = rb.Filter(auth.AuthFilter(ctl.tokens)).Filter(auth.RequireRole(models.RoleAdmin)).
			Returns(http.StatusUnauthorized, "Token missing or invalid", ErrorResponse{}).
			Returns(http.StatusForbidden, "Admin role required", ErrorResponse{})
	}
	ws.Route(rb)
}

// listUsersHandler (Handles GET /users)
func (ctl *UserController) listUsersHandler(request *restful.Request, response *restful.Response) {
	users, err := ctl.userService.ListUsers(request.Request.Context())
	if err != nil {
		ctl.errs.handleServiceError(request, response, err, "Failed to fetch users")
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusCreated, users, restful.MIME_JSON)
}

// updateRoleHandler (Handles PUT /users/{id}/role)
func (ctl *UserController) updateRoleHandler(request *restful.Request, response *restful.Response) {
	userID, err := strconv.ParseUint(request.PathParameter("id"), 10, 32)
	if err != nil {
		writeError(response, http.StatusBadRequest, "Invalid user ID format")
		return
	}

	input := new(RoleUpdateInput)
	if !readBody(request, response, input) {
		return
	}

	user, err := ctl.userService.UpdateRole(request.Request.Context(), uint(userID), input.Role)
	if err != nil {
		ctl.errs.handleServiceError(request, response, err, "Failed to update user role")
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusCreated, user, restful.MIME_JSON)
}
