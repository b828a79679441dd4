package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/finflow/finflow/internal/user"
)

type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type Service interface {
	JWTAccessTokenMiddleware() func(http.Handler) http.Handler
}

type service struct {
	jwtManager  *JWTManager
	userService user.Service
}

func NewAuthService(jwtManager *JWTManager, userService user.Service) Service {
	return &service{
		jwtManager:  jwtManager,
		userService: userService,
	}
}

// JWTAccessTokenMiddleware validates the provider-issued bearer token,
// resolves (or provisions on first sight) the local user and stores its id
// in the request context.
func (s *service) JWTAccessTokenMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeJSONError(w, http.StatusUnauthorized, "Authorization header is required")
				return
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				writeJSONError(w, http.StatusUnauthorized, "Invalid token format")
				return
			}

			claims, err := s.jwtManager.ValidateAccessToken(tokenString)
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			existingUser, err := s.userService.EnsureUser(claims.Subject, claims.Email, claims.Name)
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "Could not resolve user identity")
				return
			}

			ctx := context.WithValue(r.Context(), "userID", existingUser.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// writeJSONError writes an error response in JSON format
func writeJSONError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{
		Status:  "error",
		Message: message,
	})
}
