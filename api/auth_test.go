package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"photo-mapper/model"
	"photo-mapper/storage"
)

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("fakepwd")
	require.NoError(t, err)
	assert.True(t, CheckPasswordHash("fakepwd", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)

	hash, err := HashPassword("fakepwd")
	require.NoError(t, err)
	user := &model.User{ID: primitive.NewObjectID(), Username: "fakeuser", PasswordHash: hash}
	s.users.On("GetUserByUsername", mock.Anything, "fakeuser").Return(user, nil)
	s.users.On("GetUserByUsername", mock.Anything, "nobody").Return(nil, storage.ErrNotFound)

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"username":"fakeuser","password":"fakepwd"}`))
	rec := s.do(t, req, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	claims := &jwt.RegisteredClaims{}
	_, err = jwt.ParseWithClaims(resp["token"], claims, func(*jwt.Token) (interface{}, error) {
		return []byte("topsecret"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, user.ID.Hex(), claims.Subject)

	// The token authenticates as that user.
	list := httptest.NewRequest(http.MethodGet, "/photos", nil)
	list.Header.Set("Authorization", "Bearer "+resp["token"])
	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, list)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"username":"fakeuser","password":"nope"}`))
	assert.Equal(t, http.StatusUnauthorized, s.do(t, req, "").Code)

	req = httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"username":"nobody","password":"fakepwd"}`))
	assert.Equal(t, http.StatusUnauthorized, s.do(t, req, "").Code)

	req = httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{`))
	assert.Equal(t, http.StatusBadRequest, s.do(t, req, "").Code)

	s.users.AssertExpectations(t)
}

func TestOwnerFromContext(t *testing.T) {
	_, ok := OwnerFromContext(httptest.NewRequest(http.MethodGet, "/", nil).Context())
	assert.False(t, ok)

	owner, ok := OwnerFromContext(withOwner(httptest.NewRequest(http.MethodGet, "/", nil).Context(), "abc"))
	assert.True(t, ok)
	assert.Equal(t, "abc", owner)
}

func TestRecoveryMiddleware(t *testing.T) {
	s := newTestServer(t)
	h := RecoveryMiddleware(s.h.Log, func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
