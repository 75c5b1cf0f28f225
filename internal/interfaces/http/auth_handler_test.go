package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Soporte-api/internal/application/auth"
	"github.com/jhoicas/Soporte-api/internal/application/dto"
	"github.com/jhoicas/Soporte-api/internal/domain/entity"
	apphttp "github.com/jhoicas/Soporte-api/internal/interfaces/http"
)

// fakeUserRepo repositorio de usuarios en memoria para tests de handler.
type fakeUserRepo struct {
	byEmail map[string]*entity.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byEmail: map[string]*entity.User{}}
}

func (r *fakeUserRepo) Create(u *entity.User) error {
	cp := *u
	r.byEmail[u.Email] = &cp
	return nil
}

func (r *fakeUserRepo) GetByID(id string) (*entity.User, error) {
	for _, u := range r.byEmail {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) FindByEmail(email string) (*entity.User, error) {
	u, ok := r.byEmail[email]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func newAuthApp() (*fiber.App, *fakeUserRepo) {
	repo := newFakeUserRepo()
	uc := auth.NewAuthUseCase(repo, auth.JWTConfig{
		Secret:     testJWTSecret,
		ExpMinutes: testExpMin,
		Issuer:     testIssuer,
	})
	app := fiber.New()
	h := apphttp.NewAuthHandler(uc)
	app.Post("/api/auth/register", h.Register)
	app.Post("/api/auth/login", h.Login)
	return app, repo
}

func postJSON(t *testing.T, app *fiber.App, path string, body interface{}) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestAuthHandler_RegisterYLogin(t *testing.T) {
	app, _ := newAuthApp()

	resp := postJSON(t, app, "/api/auth/register", dto.RegisterRequest{
		Email:    "ana@soporte.dev",
		Password: "super-secreta-1",
		Name:     "Ana",
		Role:     "manager",
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var user dto.UserResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&user))
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "manager", user.Role)

	// Login con las mismas credenciales debe devolver token + usuario.
	loginResp := postJSON(t, app, "/api/auth/login", dto.LoginRequest{
		Email:    "ana@soporte.dev",
		Password: "super-secreta-1",
	})
	defer loginResp.Body.Close()
	require.Equal(t, http.StatusOK, loginResp.StatusCode)

	var out dto.LoginResponse
	require.NoError(t, json.NewDecoder(loginResp.Body).Decode(&out))
	assert.NotEmpty(t, out.Token)
	assert.Equal(t, user.ID, out.User.ID)
}

func TestAuthHandler_RegisterSinRol_AsignaAgente(t *testing.T) {
	app, _ := newAuthApp()

	resp := postJSON(t, app, "/api/auth/register", dto.RegisterRequest{
		Email:    "leo@soporte.dev",
		Password: "super-secreta-1",
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var user dto.UserResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&user))
	assert.Equal(t, entity.RoleAgente, user.Role, "el rol por defecto es agente")
}

func TestAuthHandler_EmailDuplicado_Retorna409(t *testing.T) {
	app, _ := newAuthApp()

	first := postJSON(t, app, "/api/auth/register", dto.RegisterRequest{
		Email:    "dup@soporte.dev",
		Password: "super-secreta-1",
	})
	first.Body.Close()
	require.Equal(t, http.StatusCreated, first.StatusCode)

	second := postJSON(t, app, "/api/auth/register", dto.RegisterRequest{
		Email:    "dup@soporte.dev",
		Password: "otra-password-2",
	})
	defer second.Body.Close()
	assert.Equal(t, http.StatusConflict, second.StatusCode)
}

func TestAuthHandler_PasswordCorta_Retorna400(t *testing.T) {
	app, _ := newAuthApp()

	resp := postJSON(t, app, "/api/auth/register", dto.RegisterRequest{
		Email:    "corta@soporte.dev",
		Password: "1234567",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAuthHandler_CredencialesMalas_Retorna401(t *testing.T) {
	app, _ := newAuthApp()

	created := postJSON(t, app, "/api/auth/register", dto.RegisterRequest{
		Email:    "maria@soporte.dev",
		Password: "super-secreta-1",
	})
	created.Body.Close()

	resp := postJSON(t, app, "/api/auth/login", dto.LoginRequest{
		Email:    "maria@soporte.dev",
		Password: "password-equivocada",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuthHandler_CuentaDeshabilitada_Retorna403(t *testing.T) {
	app, repo := newAuthApp()

	created := postJSON(t, app, "/api/auth/register", dto.RegisterRequest{
		Email:    "baja@soporte.dev",
		Password: "super-secreta-1",
	})
	created.Body.Close()
	repo.byEmail["baja@soporte.dev"].Status = "disabled"

	resp := postJSON(t, app, "/api/auth/login", dto.LoginRequest{
		Email:    "baja@soporte.dev",
		Password: "super-secreta-1",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
