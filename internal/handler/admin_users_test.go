package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allelectronic/repair-service/internal/config"
	"github.com/allelectronic/repair-service/internal/middleware"
	"github.com/allelectronic/repair-service/internal/model"
	"github.com/allelectronic/repair-service/internal/utils"
)

func TestCreateUser_DefaultRole(t *testing.T) {
	store := newFakeAccountStore()
	h := NewUserHandler(store)

	c, rec := jsonContext(t, http.MethodPost, "/v1/admin/users",
		`{"username":"sam","password":"pw123456"}`)
	require.NoError(t, h.Create(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	out := decodeBody(t, rec)
	user := out["user"].(map[string]any)
	assert.Equal(t, model.RoleUser, user["role"], "omitted role defaults to least privileged")
}

func TestCreateUser_Conflict(t *testing.T) {
	store := newFakeAccountStore()
	_, err := store.Create(context.Background(), "sam", "pw123456", model.RoleUser)
	require.NoError(t, err)
	h := NewUserHandler(store)

	c, rec := jsonContext(t, http.MethodPost, "/v1/admin/users",
		`{"username":"sam","password":"other"}`)
	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCreateUser_MissingFields(t *testing.T) {
	h := NewUserHandler(newFakeAccountStore())
	c, rec := jsonContext(t, http.MethodPost, "/v1/admin/users", `{"username":"sam"}`)
	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateUser_RequiresAField(t *testing.T) {
	store := newFakeAccountStore()
	acc, err := store.Create(context.Background(), "sam", "pw123456", model.RoleUser)
	require.NoError(t, err)
	h := NewUserHandler(store)

	c, rec := jsonContext(t, http.MethodPut, "/v1/admin/users",
		`{"userId":"`+acc.ID+`"}`)
	require.NoError(t, h.Update(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateUser_RoleChange(t *testing.T) {
	store := newFakeAccountStore()
	acc, err := store.Create(context.Background(), "sam", "pw123456", model.RoleUser)
	require.NoError(t, err)
	h := NewUserHandler(store)

	c, rec := jsonContext(t, http.MethodPut, "/v1/admin/users",
		`{"userId":"`+acc.ID+`","newRole":"admin"}`)
	require.NoError(t, h.Update(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.RoleAdmin, store.accounts[0].Role)
}

func TestUpdateUser_NotFound(t *testing.T) {
	h := NewUserHandler(newFakeAccountStore())
	c, rec := jsonContext(t, http.MethodPut, "/v1/admin/users",
		`{"userId":"missing","newRole":"admin"}`)
	require.NoError(t, h.Update(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteUser_SelfDeleteForbidden(t *testing.T) {
	store := newFakeAccountStore()
	acc, err := store.Create(context.Background(), "boss", "pw123456", model.RoleAdmin)
	require.NoError(t, err)
	h := NewUserHandler(store)

	c, rec := jsonContext(t, http.MethodDelete, "/v1/admin/users",
		`{"userId":"`+acc.ID+`"}`)
	c.Set(middleware.CtxUsername, "boss")
	require.NoError(t, h.Delete(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Len(t, store.accounts, 1, "no mutation on self-delete")
}

func TestDeleteUser_OK(t *testing.T) {
	store := newFakeAccountStore()
	acc, err := store.Create(context.Background(), "sam", "pw123456", model.RoleUser)
	require.NoError(t, err)
	h := NewUserHandler(store)

	c, rec := jsonContext(t, http.MethodDelete, "/v1/admin/users",
		`{"userId":"`+acc.ID+`"}`)
	c.Set(middleware.CtxUsername, "boss")
	require.NoError(t, h.Delete(c))

	require.Equal(t, http.StatusOK, rec.Code)
	out := decodeBody(t, rec)
	assert.Contains(t, out["message"], `"sam"`)
	assert.Empty(t, store.accounts)
}

func testAuthHandler(store AccountStore) *AuthHandler {
	return NewAuthHandler(config.Config{JWTSecret: "test-secret", AccessTTLHours: 8}, store)
}

func TestLogin_GenericFailure(t *testing.T) {
	store := newFakeAccountStore()
	_, err := store.Create(context.Background(), "jane", "correct-pw", model.RoleAdmin)
	require.NoError(t, err)
	h := testAuthHandler(store)

	for _, body := range []string{
		`{"username":"jane","password":"wrong"}`,
		`{"username":"nobody","password":"whatever"}`,
	} {
		c, rec := jsonContext(t, http.MethodPost, "/v1/auth/login", body)
		require.NoError(t, h.Login(c))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		out := decodeBody(t, rec)
		assert.Equal(t, "Invalid credentials", out["message"],
			"failures must be indistinguishable")
	}
}

func TestLogin_InactiveLooksNonexistent(t *testing.T) {
	store := newFakeAccountStore()
	acc, err := store.Create(context.Background(), "jane", "correct-pw", model.RoleAdmin)
	require.NoError(t, err)
	for i := range store.accounts {
		if store.accounts[i].ID == acc.ID {
			store.accounts[i].IsActive = false
		}
	}
	h := testAuthHandler(store)

	c, rec := jsonContext(t, http.MethodPost, "/v1/auth/login",
		`{"username":"jane","password":"correct-pw"}`)
	require.NoError(t, h.Login(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogin_IssuesVerifiableToken(t *testing.T) {
	store := newFakeAccountStore()
	_, err := store.Create(context.Background(), "jane", "correct-pw", model.RoleModerator)
	require.NoError(t, err)
	h := testAuthHandler(store)

	c, rec := jsonContext(t, http.MethodPost, "/v1/auth/login",
		`{"username":"jane","password":"correct-pw"}`)
	require.NoError(t, h.Login(c))
	require.Equal(t, http.StatusOK, rec.Code)

	out := decodeBody(t, rec)
	token, _ := out["token"].(string)
	require.NotEmpty(t, token)

	claims, err := utils.ParseAccessToken("test-secret", token)
	require.NoError(t, err)
	assert.Equal(t, "jane", claims.Username)
	assert.Equal(t, model.RoleModerator, claims.Role)
}

func TestMe_ReflectsTokenClaims(t *testing.T) {
	h := testAuthHandler(newFakeAccountStore())
	c, rec := jsonContext(t, http.MethodGet, "/v1/me", "")
	c.Set(middleware.CtxUsername, "jane")
	c.Set(middleware.CtxRole, model.RoleModerator)
	require.NoError(t, h.Me(c))

	require.Equal(t, http.StatusOK, rec.Code)
	out := decodeBody(t, rec)
	user := out["user"].(map[string]any)
	assert.Equal(t, "jane", user["username"])
	assert.Equal(t, model.RoleModerator, user["role"])
}
