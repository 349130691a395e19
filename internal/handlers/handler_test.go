package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/harentsoaR/carrental-api/internal/query"
	"github.com/harentsoaR/carrental-api/internal/store"
)

type brokenUsers struct {
	*fakeUsers
}

func (brokenUsers) List(context.Context, string, query.Page) (*store.UserPage, error) {
	return nil, errors.New("connection reset")
}

func TestInternalErrorDetails(t *testing.T) {
	env := newTestEnv(t, 100)
	env.h.Users = brokenUsers{env.users}

	w := env.do(http.MethodGet, "/users/all", env.adminToken(t), nil)
	requireStatus(t, w, http.StatusInternalServerError)
	body := decode(t, w)
	assert.Equal(t, "Internal server error", body["message"])
	assert.NotContains(t, body, "error")

	env.h.Settings.ExposeErrors = true
	w = env.do(http.MethodGet, "/users/all", env.adminToken(t), nil)
	requireStatus(t, w, http.StatusInternalServerError)
	assert.Equal(t, "connection reset", decode(t, w)["error"])
}

func TestObjectIDParamsAreCheckedBeforeBodies(t *testing.T) {
	env := newTestEnv(t, 100)

	w := env.do(http.MethodDelete, "/users/delete/123", env.adminToken(t), nil)
	requireStatus(t, w, http.StatusBadRequest)
	assert.Equal(t, "Invalid user ID format", decode(t, w)["message"])
}
