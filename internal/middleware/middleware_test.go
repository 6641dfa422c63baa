package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"ecauth/internal/domain/model"
	"ecauth/internal/repository"
	auth "ecauth/internal/usecase/auth_usecase"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type stubVerifier struct {
	claims map[string]*model.TokenClaims
}

func (s stubVerifier) Verify(token string, class model.TokenClass) (*model.TokenClaims, error) {
	if class != model.TokenClassAccess {
		return nil, errors.New("wrong class")
	}
	c, ok := s.claims[token]
	if !ok {
		return nil, errors.New("bad token")
	}
	return c, nil
}

type mockAccounts struct {
	repository.AccountRepository
	mock.Mock
}

func (m *mockAccounts) FindByID(ctx context.Context, id int64) (*model.Account, error) {
	args := m.Called(ctx, id)
	a, _ := args.Get(0).(*model.Account)
	return a, args.Error(1)
}

type checkerFunc func(ctx context.Context, p *model.Principal, routeID string) error

func (f checkerFunc) CheckRoute(ctx context.Context, p *model.Principal, routeID string) error {
	return f(ctx, p, routeID)
}

func newContext(authz string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	if authz != "" {
		req.Header.Set(echo.HeaderAuthorization, authz)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func ok(c echo.Context) error { return c.NoContent(http.StatusNoContent) }

func TestAuthJWT(t *testing.T) {
	verifier := stubVerifier{claims: map[string]*model.TokenClaims{
		"good":   {AccountID: 7, Email: "a@x.com", Role: "user"},
		"no-sub": {Email: "a@x.com"},
	}}
	h := AuthJWT(verifier)(ok)

	tests := []struct {
		name    string
		header  string
		wantErr error
	}{
		{"valid", "Bearer good", nil},
		{"lowercase scheme", "bearer good", nil},
		{"missing header", "", auth.ErrInvalidToken},
		{"wrong scheme", "Basic good", auth.ErrInvalidToken},
		{"empty token", "Bearer   ", auth.ErrInvalidToken},
		{"unknown token", "Bearer nope", auth.ErrInvalidToken},
		{"no subject", "Bearer no-sub", auth.ErrInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newContext(tt.header)
			err := h(c)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, http.StatusNoContent, rec.Code)
			claims, found := Claims(c)
			require.True(t, found)
			assert.Equal(t, int64(7), claims.AccountID)
			assert.Equal(t, int64(7), AccountID(c))
		})
	}
}

func TestAccountStatusGuard(t *testing.T) {
	accounts := new(mockAccounts)
	accounts.On("FindByID", mock.Anything, int64(1)).Return(&model.Account{
		ID: 1, Email: "a@x.com", Status: model.AccountStatusActive, RoleID: 3,
		Role: model.Role{ID: 3, Name: "user", Permissions: []model.Permission{{Name: model.PermProductsRead}, {Name: model.PermOrdersRead}}},
	}, nil)
	accounts.On("FindByID", mock.Anything, int64(2)).Return(&model.Account{ID: 2, Status: model.AccountStatusBlocked}, nil)
	accounts.On("FindByID", mock.Anything, int64(3)).Return(nil, repository.ErrAccountNotFound)

	h := AccountStatusGuard(accounts)(ok)

	run := func(accountID int64) (echo.Context, error) {
		c, _ := newContext("")
		c.Set(CtxClaimsKey, &model.TokenClaims{AccountID: accountID})
		return c, h(c)
	}

	c, err := run(1)
	require.NoError(t, err)
	p, found := CurrentPrincipal(c)
	require.True(t, found)
	assert.Equal(t, int64(3), p.RoleID)
	assert.Equal(t, "user", p.Role)
	assert.Equal(t, []string{model.PermProductsRead, model.PermOrdersRead}, p.PermissionNames)

	_, err = run(2)
	assert.ErrorIs(t, err, auth.ErrAccountBlocked)

	_, err = run(3)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	c, _ = newContext("")
	assert.ErrorIs(t, h(c), auth.ErrInvalidToken)
}

func TestRequirePermissions(t *testing.T) {
	var gotRoute string
	checker := checkerFunc(func(_ context.Context, p *model.Principal, routeID string) error {
		gotRoute = routeID
		if p.Role != "admin" {
			return auth.ErrInsufficientPermissions
		}
		return nil
	})
	h := RequirePermissions(checker, "GET /admin/audit-logs")(ok)

	c, rec := newContext("")
	c.Set(CtxPrincipalKey, &model.Principal{ID: 1, Role: "admin"})
	require.NoError(t, h(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "GET /admin/audit-logs", gotRoute)

	c, _ = newContext("")
	c.Set(CtxPrincipalKey, &model.Principal{ID: 2, Role: "user"})
	assert.ErrorIs(t, h(c), auth.ErrInsufficientPermissions)

	c, _ = newContext("")
	assert.ErrorIs(t, h(c), auth.ErrInvalidToken)
}
