package api_test

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/marketplace-api/internal/api"
	"github.com/phrazzld/marketplace-api/internal/domain"
	"github.com/phrazzld/marketplace-api/internal/mocks"
	"github.com/phrazzld/marketplace-api/internal/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserHandler_RequiresAuthentication(t *testing.T) {
	env := newTestEnv(t)

	paths := []struct{ method, path string }{
		{http.MethodGet, "/api/users"},
		{http.MethodGet, "/api/users/me"},
		{http.MethodPost, "/api/users/" + uuid.NewString() + "/follow"},
		{http.MethodGet, "/api/products"},
		{http.MethodGet, "/api/services"},
	}
	for _, p := range paths {
		t.Run(p.method+" "+p.path, func(t *testing.T) {
			rec := env.do(t, p.method, p.path, "", nil)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}

	t.Run("refresh token cannot authenticate", func(t *testing.T) {
		id, _ := env.signup(t, "anna", "Warsaw")
		rec := env.do(t, http.MethodGet, "/api/users/me", mocks.RefreshToken(id), nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestUserHandler_Profile(t *testing.T) {
	env := newTestEnv(t)
	annaID, anna := env.signup(t, "anna", "Warsaw")
	env.signup(t, "bob", "Berlin")

	t.Run("get me", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/users/me", anna, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		user := decode[api.UserResponse](t, rec)
		assert.Equal(t, annaID, user.ID)
		assert.Equal(t, "Warsaw", user.Location)
	})

	t.Run("partial update keeps other fields", func(t *testing.T) {
		rec := env.do(t, http.MethodPut, "/api/users/me", anna, map[string]any{
			"bio":      "Drone pilot",
			"location": "Kraków",
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		user := decode[api.UserResponse](t, rec)
		assert.Equal(t, "Drone pilot", user.Bio)
		assert.Equal(t, "Kraków", user.Location)
		assert.Equal(t, "anna", user.Username)
	})

	t.Run("taken username is a conflict", func(t *testing.T) {
		rec := env.do(t, http.MethodPut, "/api/users/me", anna, map[string]any{"username": "bob"})
		assert.Equal(t, http.StatusConflict, rec.Code)

		stored, err := env.users.GetByID(t.Context(), annaID)
		require.NoError(t, err)
		assert.Equal(t, "anna", stored.Username)
	})

	t.Run("invalid email", func(t *testing.T) {
		rec := env.do(t, http.MethodPut, "/api/users/me", anna, map[string]any{"email": "nope"})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, []string{"email"}, fieldNames(decodeError(t, rec)))
	})

	t.Run("get by id", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/users/"+annaID.String(), anna, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, annaID, decode[api.UserResponse](t, rec).ID)
	})

	t.Run("unknown id", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/users/"+uuid.NewString(), anna, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "User not found", decodeError(t, rec).Error)
	})

	t.Run("malformed id", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/users/not-a-uuid", anna, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, []string{"id"}, fieldNames(decodeError(t, rec)))
	})
}

func TestUserHandler_ListUsers(t *testing.T) {
	env := newTestEnv(t)
	_, anna := env.signup(t, "anna", "Warsaw")
	env.signup(t, "bob", "Warsaw")
	env.signup(t, "carol", "Kraków")
	env.signup(t, "dave", "Berlin")

	tests := []struct {
		name      string
		query     string
		wantNames []string
		wantTotal int64
	}{
		{"excludes the caller", "", []string{"dave", "carol", "bob"}, 3},
		{"location split on commas", "?location=Warsaw,%20Poland", []string{"bob"}, 1},
		{"search by username", "?searchParam=CAR", []string{"carol"}, 1},
		{"window", "?limit=1&offset=1", []string{"carol"}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, "/api/users"+tt.query, anna, nil)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			result := decode[query.Result[api.UserResponse]](t, rec)
			names := make([]string, 0, len(result.Items))
			for _, u := range result.Items {
				names = append(names, u.Username)
			}
			assert.Equal(t, tt.wantNames, names)
			assert.Equal(t, tt.wantTotal, result.Total)
		})
	}

	t.Run("invalid pagination", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/users?limit=abc&offset=-1", anna, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.ElementsMatch(t, []string{"limit", "offset"}, fieldNames(decodeError(t, rec)))
	})

	t.Run("limit above maximum", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/users?limit=101", anna, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestUserHandler_FollowGraph(t *testing.T) {
	env := newTestEnv(t)
	annaID, anna := env.signup(t, "anna", "Warsaw")
	bobID, bob := env.signup(t, "bob", "Warsaw")

	followPath := "/api/users/" + bobID.String() + "/follow"
	unfollowPath := "/api/users/" + bobID.String() + "/unfollow"

	rec := env.do(t, http.MethodPost, followPath, anna, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := decode[domain.FollowResult](t, rec)
	assert.Equal(t, domain.FollowResult{
		UserID:         bobID,
		FollowerID:     annaID,
		IsFollowing:    true,
		FollowersCount: 1,
		FollowingCount: 1,
	}, result)

	rec = env.do(t, http.MethodPost, followPath, anna, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Already following this user", decodeError(t, rec).Error)

	me := decode[api.UserResponse](t, env.do(t, http.MethodGet, "/api/users/me", bob, nil))
	assert.Equal(t, []uuid.UUID{annaID}, me.Followers)
	assert.Equal(t, 1, me.FollowersCount)

	rec = env.do(t, http.MethodPost, "/api/users/"+annaID.String()+"/follow", anna, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "You cannot follow yourself", decodeError(t, rec).Error)

	rec = env.do(t, http.MethodPost, "/api/users/"+uuid.NewString()+"/follow", anna, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodDelete, unfollowPath, anna, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	result = decode[domain.FollowResult](t, rec)
	assert.False(t, result.IsFollowing)
	assert.Zero(t, result.FollowersCount)
	assert.Zero(t, result.FollowingCount)

	rec = env.do(t, http.MethodDelete, unfollowPath, anna, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Not following this user", decodeError(t, rec).Error)
}

func TestUserHandler_RecalculateCounters(t *testing.T) {
	env := newTestEnv(t)
	annaID, anna := env.signup(t, "anna", "Warsaw")

	drifted, err := env.users.GetByID(t.Context(), annaID)
	require.NoError(t, err)
	drifted.FollowersCount = 7
	env.users.Put(drifted)

	rec := env.do(t, http.MethodPost, "/api/users/recalculate-counters", anna, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), decode[api.RecalculateResponse](t, rec).Updated)

	rec = env.do(t, http.MethodPost, "/api/users/recalculate-counters", anna, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, decode[api.RecalculateResponse](t, rec).Updated)
}
