package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/marketplace-api/internal/api"
	"github.com/phrazzld/marketplace-api/internal/api/middleware"
	"github.com/phrazzld/marketplace-api/internal/api/shared"
	"github.com/phrazzld/marketplace-api/internal/mocks"
	"github.com/phrazzld/marketplace-api/internal/platform/logger"
	"github.com/phrazzld/marketplace-api/internal/service"
	"github.com/stretchr/testify/require"
)

// testEnv wires the handlers to real services over the in-memory stores.
type testEnv struct {
	router   http.Handler
	users    *mocks.MockUserStore
	products *mocks.MockProductStore
	services *mocks.MockServiceStore
	emitter  *mocks.MockEventEmitter
	jwt      *mocks.MockJWTService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	_, log := logger.NewTestLogger(t)

	env := &testEnv{
		users:   mocks.NewMockUserStore(),
		emitter: &mocks.MockEventEmitter{},
		jwt:     &mocks.MockJWTService{},
	}
	env.products = mocks.NewMockProductStore(env.users.Exists)
	env.services = mocks.NewMockServiceStore(env.users.Exists)

	userSvc := service.NewUserService(env.users, mocks.NewMockPasswordHasher(), log,
		service.WithUserEvents(env.emitter))
	authHandler := api.NewAuthHandler(userSvc, env.jwt, log)
	userHandler := api.NewUserHandler(userSvc, log)
	productHandler := api.NewProductHandler(service.NewProductService(env.products, env.emitter, log), log)
	serviceHandler := api.NewServiceHandler(service.NewOfferingService(env.services, env.emitter, log), log)
	authMiddleware := middleware.NewAuthMiddleware(env.jwt)

	r := chi.NewRouter()
	r.Use(middleware.NewTraceMiddleware(log))
	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/refresh", authHandler.Refresh)
		r.Get("/auth/check-email", authHandler.CheckEmail)
		r.Get("/auth/check-username", authHandler.CheckUsername)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Get("/users", userHandler.ListUsers)
			r.Get("/users/me", userHandler.GetMe)
			r.Put("/users/me", userHandler.UpdateMe)
			r.Post("/users/recalculate-counters", userHandler.RecalculateCounters)
			r.Get("/users/{id}", userHandler.GetUser)
			r.Post("/users/{id}/follow", userHandler.Follow)
			r.Delete("/users/{id}/unfollow", userHandler.Unfollow)

			r.Post("/products", productHandler.CreateProduct)
			r.Get("/products", productHandler.ListProducts)
			r.Get("/products/user/{userId}", productHandler.ListUserProducts)
			r.Get("/products/{productId}", productHandler.GetProduct)
			r.Put("/products/{productId}", productHandler.ReplaceProduct)
			r.Patch("/products/{productId}", productHandler.PatchProduct)
			r.Delete("/products/{productId}", productHandler.DeleteProduct)

			r.Post("/services", serviceHandler.CreateService)
			r.Get("/services", serviceHandler.ListServices)
			r.Get("/services/user/{userId}", serviceHandler.ListUserServices)
			r.Get("/services/{serviceId}", serviceHandler.GetService)
			r.Put("/services/{serviceId}", serviceHandler.ReplaceService)
			r.Patch("/services/{serviceId}", serviceHandler.PatchService)
			r.Delete("/services/{serviceId}", serviceHandler.DeleteService)
		})
	})
	env.router = r
	return env
}

// do sends a request with an optional JSON body and bearer token.
func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// signup registers a user through the API and returns its ID and access token.
func (e *testEnv) signup(t *testing.T, name, location string) (uuid.UUID, string) {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/auth/register", "", map[string]any{
		"email":    name + "@example.com",
		"username": name,
		"password": "password123",
		"location": location,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	resp := decode[api.AuthResponse](t, rec)
	return resp.User.ID, resp.AccessToken
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) shared.ErrorResponse {
	t.Helper()
	return decode[shared.ErrorResponse](t, rec)
}

// fieldNames lists the fields reported in a validation error response.
func fieldNames(resp shared.ErrorResponse) []string {
	names := make([]string, 0, len(resp.Fields))
	for _, f := range resp.Fields {
		names = append(names, f.Field)
	}
	return names
}
