package auth_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/NandaFebian/workorder-portal-sub000/internal/app/features/auth"
	companystore "github.com/NandaFebian/workorder-portal-sub000/internal/app/store/companies"
	userstore "github.com/NandaFebian/workorder-portal-sub000/internal/app/store/users"
	sysauth "github.com/NandaFebian/workorder-portal-sub000/internal/app/system/auth"
	"github.com/NandaFebian/workorder-portal-sub000/internal/domain/models"
	"github.com/NandaFebian/workorder-portal-sub000/internal/testutil"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*auth.Handler, *testutil.Fixtures, *sysauth.TokenManager) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	users := userstore.New(db, logger)
	companies := companystore.New(db)
	tokens := sysauth.NewTokenManager("test-secret", time.Hour, users, logger)
	handler := auth.NewHandler(users, companies, tokens, logger)
	return handler, testutil.NewFixtures(t, db), tokens
}

func TestRegisterCompany_CreatesCompanyAndOperator(t *testing.T) {
	handler, _, _ := newTestHandler(t)

	body := `{
		"company_name": "Acme Maintenance",
		"contact_email": "office@acme.test",
		"full_name": "Ada Operator",
		"email": "ada@acme.test",
		"password": "long-enough-password"
	}`
	req := httptest.NewRequest("POST", "/auth/register/company", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.RegisterCompany(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}

	var resp struct {
		Token string `json:"token"`
		User  struct {
			Email     string `json:"email"`
			Role      string `json:"role"`
			CompanyID string `json:"company_id"`
		} `json:"user"`
		Company struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"company"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.Token == "" {
		t.Error("expected a signed token")
	}
	if resp.User.Role != "company" {
		t.Errorf("role: got %q, want %q", resp.User.Role, "company")
	}
	if resp.User.CompanyID != resp.Company.ID {
		t.Errorf("operator company: got %q, want %q", resp.User.CompanyID, resp.Company.ID)
	}
	if resp.Company.Name != "Acme Maintenance" {
		t.Errorf("company name: got %q, want %q", resp.Company.Name, "Acme Maintenance")
	}
}

func TestRegisterCompany_DuplicateOperatorEmailRollsBackCompany(t *testing.T) {
	handler, fixtures, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateClient(ctx, "taken@acme.test")

	body := `{
		"company_name": "Rollback Co",
		"contact_email": "office@rollback.test",
		"full_name": "Ada Operator",
		"email": "taken@acme.test",
		"password": "long-enough-password"
	}`
	req := httptest.NewRequest("POST", "/auth/register/company", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.RegisterCompany(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected status %d, got %d: %s", http.StatusConflict, rec.Code, rec.Body.String())
	}

	// The half-created company must not survive the failed registration.
	companies, err := handler.Companies.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	for _, co := range companies {
		if co.Name == "Rollback Co" {
			t.Error("company left behind after failed operator create")
		}
	}
}

func TestLogin_ReturnsTokenThatResolvesUser(t *testing.T) {
	handler, fixtures, tokens := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateClient(ctx, "client@example.com")

	body := `{"email": "Client@Example.com", "password": "fixture-password"}`
	req := httptest.NewRequest("POST", "/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.Login(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}

	claims, err := tokens.Parse(resp.Token)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if claims.Role != "client" {
		t.Errorf("claims role: got %q, want %q", claims.Role, "client")
	}
	if u := handler.Users.FetchUser(ctx, claims.Subject); u == nil {
		t.Error("token subject does not resolve to a stored user")
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	handler, fixtures, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateClient(ctx, "client@example.com")

	body := `{"email": "client@example.com", "password": "not-the-password"}`
	req := httptest.NewRequest("POST", "/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.Login(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestLogin_SuspendedAccount(t *testing.T) {
	handler, fixtures, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := fixtures.CreateClient(ctx, "suspended@example.com")
	if err := handler.Users.SetStatus(ctx, user.ID, models.UserDisabled); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}

	body := `{"email": "suspended@example.com", "password": "fixture-password"}`
	req := httptest.NewRequest("POST", "/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.Login(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestMe_ReturnsCurrentUser(t *testing.T) {
	handler, fixtures, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := fixtures.CreateClient(ctx, "me@example.com")

	req := httptest.NewRequest("GET", "/auth/me", nil)
	req = sysauth.WithTestUser(req, &sysauth.TokenUser{
		ID:       user.ID,
		FullName: user.FullName,
		Email:    user.Email,
		Role:     user.Role,
	})
	rec := httptest.NewRecorder()

	handler.Me(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	var resp struct {
		Email string `json:"Email"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.Email != "me@example.com" {
		t.Errorf("email: got %q, want %q", resp.Email, "me@example.com")
	}
}
