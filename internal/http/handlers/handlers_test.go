package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/geocoder89/accounthub/internal/domain/account"
	"github.com/geocoder89/accounthub/internal/http/handlers"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testID = "3f1c2a4e-8b7d-4c55-9a1e-0d6b5f2e7c11"

type fakeAccounts struct {
	registerFn     func(ctx context.Context, c account.Candidate) (account.Account, error)
	getFn          func(ctx context.Context, id string) (account.Account, error)
	listFn         func(ctx context.Context, f account.ListFilter) ([]account.Account, error)
	statsFn        func(ctx context.Context) (account.Stats, error)
	updateFn       func(ctx context.Context, id string, u account.ProfileUpdate) (account.Account, error)
	deleteFn       func(ctx context.Context, id string) error
	setRoleFn      func(ctx context.Context, id, raw string) (account.Account, error)
	setStatusFn    func(ctx context.Context, id, raw string) (account.Account, error)
	changeSecretFn func(ctx context.Context, id, current, next string) error
}

func (f *fakeAccounts) Register(ctx context.Context, c account.Candidate) (account.Account, error) {
	return f.registerFn(ctx, c)
}

func (f *fakeAccounts) Get(ctx context.Context, id string) (account.Account, error) {
	return f.getFn(ctx, id)
}

func (f *fakeAccounts) List(ctx context.Context, filter account.ListFilter) ([]account.Account, error) {
	return f.listFn(ctx, filter)
}

func (f *fakeAccounts) Stats(ctx context.Context) (account.Stats, error) {
	return f.statsFn(ctx)
}

func (f *fakeAccounts) UpdateProfile(ctx context.Context, id string, u account.ProfileUpdate) (account.Account, error) {
	return f.updateFn(ctx, id, u)
}

func (f *fakeAccounts) Delete(ctx context.Context, id string) error {
	return f.deleteFn(ctx, id)
}

func (f *fakeAccounts) SetRole(ctx context.Context, id, raw string) (account.Account, error) {
	return f.setRoleFn(ctx, id, raw)
}

func (f *fakeAccounts) SetStatus(ctx context.Context, id, raw string) (account.Account, error) {
	return f.setStatusFn(ctx, id, raw)
}

func (f *fakeAccounts) ChangeSecret(ctx context.Context, id, current, next string) error {
	return f.changeSecretFn(ctx, id, current, next)
}

type fakeGate struct {
	authenticateFn func(ctx context.Context, email, secret string) (account.Account, error)
}

func (g *fakeGate) Authenticate(ctx context.Context, email, secret string) (account.Account, error) {
	return g.authenticateFn(ctx, email, secret)
}

type fakeTokens struct{}

func (fakeTokens) GenerateAccessToken(accountID, email, role string) (string, error) {
	return "token-for-" + accountID, nil
}

func (fakeTokens) AccessTTL() time.Duration { return 15 * time.Minute }

func sampleAccount() account.Account {
	now := time.Date(2026, time.March, 15, 10, 0, 0, 0, time.UTC)
	return account.Account{
		ID:         testID,
		FirstName:  "Ana",
		LastName:   "Diaz",
		Email:      "ana@example.com",
		SecretHash: "$2a$04$notarealhashnotarealhashnotarealhashnotarealhash",
		BirthDate:  account.NewDate(1990, time.May, 2),
		Role:       account.RoleUser,
		Status:     account.StatusActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func setupRouter(accounts *fakeAccounts, gate *fakeGate) *gin.Engine {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	authHandler := handlers.NewAuthHandler(accounts, gate, fakeTokens{}, nil, log)
	accountsHandler := handlers.NewAccountsHandler(accounts, log)

	r := gin.New()
	r.POST("/api/auth/register", authHandler.Register)
	r.POST("/api/auth/login", authHandler.Login)
	r.GET("/api/users", accountsHandler.List)
	r.GET("/api/users/stats", accountsHandler.Stats)
	r.GET("/api/users/:id", accountsHandler.Get)
	r.PUT("/api/users/:id", accountsHandler.Update)
	r.DELETE("/api/users/:id", accountsHandler.Delete)
	r.PATCH("/api/users/:id/role", accountsHandler.SetRole)
	r.PATCH("/api/users/:id/status", accountsHandler.SetStatus)
	r.PUT("/api/users/:id/secret", accountsHandler.ChangeSecret)

	return r
}

func doJSON(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details struct {
			Fields []handlers.FieldError `json:"fields"`
		} `json:"details"`
	} `json:"error"`
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorBody {
	t.Helper()

	var out errorBody
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal error body: %v body=%s", err, w.Body.String())
	}
	return out
}

const registerBody = `{"firstName":"Ana","lastName":"Diaz","email":"ana@example.com","secret":"correct-horse","birthDate":"1990-05-02","city":"Lisbon"}`

func TestRegister_Created(t *testing.T) {
	var got account.Candidate
	accounts := &fakeAccounts{
		registerFn: func(_ context.Context, c account.Candidate) (account.Account, error) {
			got = c
			return sampleAccount(), nil
		},
	}

	w := doJSON(setupRouter(accounts, &fakeGate{}), http.MethodPost, "/api/auth/register", registerBody)

	if w.Code != http.StatusCreated {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusCreated, w.Body.String())
	}
	if loc := w.Header().Get("Location"); loc != "/api/users/"+testID {
		t.Fatalf("unexpected Location %q", loc)
	}
	if strings.Contains(w.Body.String(), "secretHash") || strings.Contains(w.Body.String(), "$2a$") {
		t.Fatalf("response leaks the secret hash: %s", w.Body.String())
	}
	if got.BirthDate.String() != "1990-05-02" || got.City != "Lisbon" || got.Secret != "correct-horse" {
		t.Fatalf("candidate not mapped: %+v", got)
	}
}

func TestRegister_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"duplicate", account.ErrDuplicateIdentity, http.StatusConflict, "email_taken"},
		{"underage", account.ErrInvalidAge, http.StatusBadRequest, "invalid_age"},
		{"unexpected", errors.New("connection reset by peer"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			accounts := &fakeAccounts{
				registerFn: func(context.Context, account.Candidate) (account.Account, error) {
					return account.Account{}, fmt.Errorf("register: %w", tt.err)
				},
			}

			w := doJSON(setupRouter(accounts, &fakeGate{}), http.MethodPost, "/api/auth/register", registerBody)

			if w.Code != tt.wantStatus {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatus, w.Body.String())
			}
			body := decodeError(t, w)
			if body.Error.Code != tt.wantCode {
				t.Fatalf("got code %q, want %q", body.Error.Code, tt.wantCode)
			}
			if strings.Contains(w.Body.String(), "connection reset") {
				t.Fatalf("internal detail echoed: %s", w.Body.String())
			}
		})
	}
}

func TestRegister_BirthDateMustBeInThePast(t *testing.T) {
	accounts := &fakeAccounts{
		registerFn: func(context.Context, account.Candidate) (account.Account, error) {
			t.Fatalf("service should not be called")
			return account.Account{}, nil
		},
	}

	body := `{"firstName":"Ana","lastName":"Diaz","email":"ana@example.com","secret":"correct-horse","birthDate":"2999-01-01"}`
	w := doJSON(setupRouter(accounts, &fakeGate{}), http.MethodPost, "/api/auth/register", body)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusBadRequest, w.Body.String())
	}

	resp := decodeError(t, w)
	if len(resp.Error.Details.Fields) != 1 || resp.Error.Details.Fields[0].Field != "birthDate" || resp.Error.Details.Fields[0].Rule != "past" {
		t.Fatalf("unexpected field errors: %+v", resp.Error.Details.Fields)
	}
}

func TestLogin(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"ok", nil, http.StatusOK, ""},
		{"wrong_secret", account.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
		{"inactive", account.ErrAccountInactive, http.StatusForbidden, "account_inactive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gate := &fakeGate{
				authenticateFn: func(_ context.Context, email, secret string) (account.Account, error) {
					if tt.err != nil {
						return account.Account{}, tt.err
					}
					return sampleAccount(), nil
				},
			}

			w := doJSON(setupRouter(&fakeAccounts{}, gate), http.MethodPost, "/api/auth/login",
				`{"email":"ana@example.com","secret":"correct-horse"}`)

			if w.Code != tt.wantStatus {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatus, w.Body.String())
			}

			if tt.err == nil {
				var resp handlers.LoginResponse
				if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
					t.Fatalf("unmarshal: %v", err)
				}
				if resp.AccessToken != "token-for-"+testID || resp.Account.ID != testID {
					t.Fatalf("unexpected login response: %+v", resp)
				}
				if resp.ExpiresIn != 900 {
					t.Fatalf("expiresIn = %d, want 900", resp.ExpiresIn)
				}
				return
			}

			if code := decodeError(t, w).Error.Code; code != tt.wantCode {
				t.Fatalf("got code %q, want %q", code, tt.wantCode)
			}
		})
	}
}

func TestList_FiltersAndEmptyResult(t *testing.T) {
	var got account.ListFilter
	accounts := &fakeAccounts{
		listFn: func(_ context.Context, f account.ListFilter) ([]account.Account, error) {
			got = f
			return nil, nil
		},
	}

	w := doJSON(setupRouter(accounts, &fakeGate{}), http.MethodGet, "/api/users?role=admin&status=active&city=Porto", "")

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusOK, w.Body.String())
	}
	if w.Body.String() != `{"items":[],"count":0}` {
		t.Fatalf("unexpected body %s", w.Body.String())
	}
	if got.Role == nil || *got.Role != account.RoleAdmin {
		t.Fatalf("role filter not applied: %+v", got)
	}
	if got.Status == nil || *got.Status != account.StatusActive {
		t.Fatalf("status filter not applied: %+v", got)
	}
	if got.City == nil || *got.City != "Porto" || got.Country != nil {
		t.Fatalf("location filters wrong: %+v", got)
	}
}

func TestList_InvalidRole(t *testing.T) {
	accounts := &fakeAccounts{
		listFn: func(context.Context, account.ListFilter) ([]account.Account, error) {
			t.Fatalf("service should not be called")
			return nil, nil
		},
	}

	w := doJSON(setupRouter(accounts, &fakeGate{}), http.MethodGet, "/api/users?role=superuser", "")

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want %d", w.Code, http.StatusBadRequest)
	}
	if code := decodeError(t, w).Error.Code; code != "invalid_value" {
		t.Fatalf("got code %q, want invalid_value", code)
	}
}

func TestGet_InvalidIDAndNotFound(t *testing.T) {
	accounts := &fakeAccounts{
		getFn: func(context.Context, string) (account.Account, error) {
			return account.Account{}, account.ErrNotFound
		},
	}
	r := setupRouter(accounts, &fakeGate{})

	w := doJSON(r, http.MethodGet, "/api/users/not-a-uuid", "")
	if w.Code != http.StatusBadRequest || decodeError(t, w).Error.Code != "invalid_id" {
		t.Fatalf("got %d %s, want 400 invalid_id", w.Code, w.Body.String())
	}

	w = doJSON(r, http.MethodGet, "/api/users/"+testID, "")
	if w.Code != http.StatusNotFound || decodeError(t, w).Error.Code != "not_found" {
		t.Fatalf("got %d %s, want 404 not_found", w.Code, w.Body.String())
	}
}

func TestGet_ConditionalRequest(t *testing.T) {
	accounts := &fakeAccounts{
		getFn: func(context.Context, string) (account.Account, error) {
			return sampleAccount(), nil
		},
	}
	r := setupRouter(accounts, &fakeGate{})

	w := doJSON(r, http.MethodGet, "/api/users/"+testID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", w.Code)
	}
	etag := w.Header().Get("ETag")
	if etag == "" {
		t.Fatalf("missing ETag header")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/users/"+testID, nil)
	req.Header.Set("If-None-Match", etag)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotModified {
		t.Fatalf("got status %d, want 304", w.Code)
	}
}

func TestUpdate_PassesProfileOnly(t *testing.T) {
	var got account.ProfileUpdate
	accounts := &fakeAccounts{
		updateFn: func(_ context.Context, id string, u account.ProfileUpdate) (account.Account, error) {
			got = u
			a := sampleAccount()
			a.Apply(u, a.UpdatedAt.Add(time.Minute))
			return a, nil
		},
	}

	body := `{"firstName":"Ana Maria","lastName":"Diaz","country":"PT","email":"other@example.com","role":"admin"}`
	w := doJSON(setupRouter(accounts, &fakeGate{}), http.MethodPut, "/api/users/"+testID, body)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200, body=%s", w.Code, w.Body.String())
	}

	want := account.ProfileUpdate{FirstName: "Ana Maria", LastName: "Diaz", Country: "PT"}
	if got != want {
		t.Fatalf("got update %+v, want %+v", got, want)
	}

	var a account.Account
	if err := json.Unmarshal(w.Body.Bytes(), &a); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if a.Email != "ana@example.com" || a.Role != account.RoleUser {
		t.Fatalf("immutable fields changed: %+v", a)
	}
}

func TestDelete(t *testing.T) {
	calls := 0
	accounts := &fakeAccounts{
		deleteFn: func(context.Context, string) error {
			calls++
			if calls > 1 {
				return account.ErrNotFound
			}
			return nil
		},
	}
	r := setupRouter(accounts, &fakeGate{})

	if w := doJSON(r, http.MethodDelete, "/api/users/"+testID, ""); w.Code != http.StatusNoContent {
		t.Fatalf("first delete: got %d, want 204", w.Code)
	}
	if w := doJSON(r, http.MethodDelete, "/api/users/"+testID, ""); w.Code != http.StatusNotFound {
		t.Fatalf("second delete: got %d, want 404", w.Code)
	}
}

func TestSetRoleAndStatus(t *testing.T) {
	accounts := &fakeAccounts{
		setRoleFn: func(_ context.Context, _ string, raw string) (account.Account, error) {
			role, err := account.ParseRole(raw)
			if err != nil {
				return account.Account{}, err
			}
			a := sampleAccount()
			a.Role = role
			return a, nil
		},
		setStatusFn: func(context.Context, string, string) (account.Account, error) {
			return account.Account{}, account.ErrNotFound
		},
	}
	r := setupRouter(accounts, &fakeGate{})

	w := doJSON(r, http.MethodPatch, "/api/users/"+testID+"/role", `{"role":"admin"}`)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"role":"admin"`) {
		t.Fatalf("got %d %s, want 200 with admin role", w.Code, w.Body.String())
	}

	w = doJSON(r, http.MethodPatch, "/api/users/"+testID+"/role", `{"role":"bogus"}`)
	if w.Code != http.StatusBadRequest || decodeError(t, w).Error.Code != "invalid_value" {
		t.Fatalf("got %d %s, want 400 invalid_value", w.Code, w.Body.String())
	}

	w = doJSON(r, http.MethodPatch, "/api/users/"+testID+"/status", `{"status":"inactive"}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("got %d, want 404", w.Code)
	}
}

func TestChangeSecret(t *testing.T) {
	accounts := &fakeAccounts{
		changeSecretFn: func(_ context.Context, _ string, current, _ string) error {
			if current != "correct-horse" {
				return account.ErrInvalidCredentials
			}
			return nil
		},
	}
	r := setupRouter(accounts, &fakeGate{})

	w := doJSON(r, http.MethodPut, "/api/users/"+testID+"/secret", `{"currentSecret":"correct-horse","newSecret":"battery-staple"}`)
	if w.Code != http.StatusNoContent {
		t.Fatalf("got %d %s, want 204", w.Code, w.Body.String())
	}

	w = doJSON(r, http.MethodPut, "/api/users/"+testID+"/secret", `{"currentSecret":"nope","newSecret":"battery-staple"}`)
	if w.Code != http.StatusUnauthorized || decodeError(t, w).Error.Code != "invalid_credentials" {
		t.Fatalf("got %d %s, want 401 invalid_credentials", w.Code, w.Body.String())
	}

	w = doJSON(r, http.MethodPut, "/api/users/"+testID+"/secret", `{"currentSecret":"correct-horse","newSecret":"short"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400 for a short new secret", w.Code)
	}
}

func TestStats(t *testing.T) {
	accounts := &fakeAccounts{
		statsFn: func(context.Context) (account.Stats, error) {
			s := account.NewStats()
			s.Total = 3
			s.ByRole[account.RoleUser] = 2
			s.ByRole[account.RoleAdmin] = 1
			s.ByStatus[account.StatusActive] = 3
			return s, nil
		},
	}

	w := doJSON(setupRouter(accounts, &fakeGate{}), http.MethodGet, "/api/users/stats", "")
	if w.Code != http.StatusOK {
		t.Fatalf("got %d, want 200", w.Code)
	}

	var got account.Stats
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Total != 3 || got.ByRole[account.RoleAdmin] != 1 || got.ByStatus[account.StatusInactive] != 0 {
		t.Fatalf("unexpected stats %+v", got)
	}
}

func TestHealth_Readyz(t *testing.T) {
	h := handlers.NewHealthHandler(
		handlers.ReadinessCheck{Name: "db", Check: func(context.Context) error { return nil }},
		handlers.ReadinessCheck{Name: "redis", Check: func(context.Context) error { return errors.New("dial tcp: refused") }},
	)

	r := gin.New()
	r.GET("/readyz", h.Readyz)

	w := doJSON(r, http.MethodGet, "/readyz", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("got %d, want 503", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"redis":"down"`) || !strings.Contains(w.Body.String(), `"db":"up"`) {
		t.Fatalf("unexpected body %s", w.Body.String())
	}
}

// emailOfLen builds a syntactically valid address exactly n characters long.
func emailOfLen(n int) string {
	local := strings.Repeat("a", 40)
	return local + "@" + strings.Repeat("d", n-len(local)-1-len(".com")) + ".com"
}

func TestRegister_FieldLimits(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(body map[string]string)
		wantField string
		wantRule  string
	}{
		{"email_100", func(b map[string]string) { b["email"] = emailOfLen(100) }, "", ""},
		{"email_101", func(b map[string]string) { b["email"] = emailOfLen(101) }, "email", "max"},
		{"phone_20", func(b map[string]string) { b["phone"] = strings.Repeat("9", 20) }, "", ""},
		{"phone_21", func(b map[string]string) { b["phone"] = strings.Repeat("9", 21) }, "phone", "max"},
		{"long_address", func(b map[string]string) { b["address"] = strings.Repeat("Rua ", 500) }, "", ""},
		{"secret_72_bytes_multibyte", func(b map[string]string) { b["secret"] = strings.Repeat("é", 36) }, "", ""},
		{"secret_72_runes_144_bytes", func(b map[string]string) { b["secret"] = strings.Repeat("é", 72) }, "secret", "maxbytes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			accounts := &fakeAccounts{
				registerFn: func(context.Context, account.Candidate) (account.Account, error) {
					called = true
					return sampleAccount(), nil
				},
			}

			body := map[string]string{
				"firstName": "Ana",
				"lastName":  "Diaz",
				"email":     "ana@example.com",
				"secret":    "correct-horse",
				"birthDate": "1990-05-02",
			}
			tt.mutate(body)
			raw, err := json.Marshal(body)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}

			w := doJSON(setupRouter(accounts, &fakeGate{}), http.MethodPost, "/api/auth/register", string(raw))

			if tt.wantField == "" {
				if w.Code != http.StatusCreated || !called {
					t.Fatalf("got status %d (called=%v), want 201, body=%s", w.Code, called, w.Body.String())
				}
				return
			}

			if w.Code != http.StatusBadRequest || called {
				t.Fatalf("got status %d (called=%v), want 400, body=%s", w.Code, called, w.Body.String())
			}

			fields := decodeError(t, w).Error.Details.Fields
			if len(fields) != 1 || fields[0].Field != tt.wantField || fields[0].Rule != tt.wantRule {
				t.Fatalf("unexpected field errors: %+v", fields)
			}
		})
	}
}

func TestChangeSecret_RejectsSecretOver72Bytes(t *testing.T) {
	accounts := &fakeAccounts{
		changeSecretFn: func(context.Context, string, string, string) error {
			t.Fatalf("service should not be called")
			return nil
		},
	}

	body := `{"currentSecret":"correct-horse","newSecret":"` + strings.Repeat("é", 72) + `"}`
	w := doJSON(setupRouter(accounts, &fakeGate{}), http.MethodPut, "/api/users/"+testID+"/secret", body)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got %d %s, want 400", w.Code, w.Body.String())
	}

	fields := decodeError(t, w).Error.Details.Fields
	if len(fields) != 1 || fields[0].Field != "newSecret" || fields[0].Rule != "maxbytes" {
		t.Fatalf("unexpected field errors: %+v", fields)
	}
}
