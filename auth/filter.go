package auth

import (
	"errors"
	"net/http"

	restful "github.com/emicklei/go-restful/v3"

	"bookstore-restful/interceptors"
)

const claimsAttribute = "auth.claims"

// AuthFilter creates a go-restful FilterFunction for bearer token authentication.
func AuthFilter(tm *TokenManager) restful.FilterFunction {
	return func(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
		tokenString, err := interceptors.BearerToken(req.HeaderParameter("Authorization"))
		if err != nil {
			message := "Invalid authorization header format"
			if errors.Is(err, interceptors.ErrMissingToken) {
				message = "Token is missing"
			}
			_ = resp.WriteHeaderAndJson(http.StatusUnauthorized, map[string]string{"error": message}, restful.MIME_JSON)
			return
		}

		claims, err := tm.ParseAndValidateToken(tokenString)
		if err != nil {
			_ = resp.WriteHeaderAndJson(http.StatusUnauthorized, map[string]string{"error": "Invalid token"}, restful.MIME_JSON)
			return
		}

		req.SetAttribute(claimsAttribute, claims)
		req.Request = req.Request.WithContext(interceptors.WithUsername(req.Request.Context(), claims.Username))
		chain.ProcessFilter(req, resp)
	}
}

// RequireRole rejects authenticated callers whose role claim differs from role.
// It must run after AuthFilter.
func RequireRole(role string) restful.FilterFunction {
	return func(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
		claims, ok := ClaimsFrom(req)
		if !ok {
			_ = resp.WriteHeaderAndJson(http.StatusUnauthorized, map[string]string{"error": "Token is missing"}, restful.MIME_JSON)
			return
		}
		if claims.Role != role {
			_ = resp.WriteHeaderAndJson(http.StatusForbidden, map[string]string{"error": "Forbidden: " + role + " role required"}, restful.MIME_JSON)
			return
		}
		chain.ProcessFilter(req, resp)
	}
}

// ClaimsFrom returns the claims stored by AuthFilter.
func ClaimsFrom(req *restful.Request) (*CustomClaims, bool) {
	claims, ok := req.Attribute(claimsAttribute).(*CustomClaims)
	return claims, ok && claims != nil
}
