package bootstrap

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/waffle/config"
	"github.com/taskcamp/taskcamp/internal/testutil"
	"go.uber.org/zap"
)

func testAppConfig() AppConfig {
	return AppConfig{
		AccessTokenSecret:         "test-access-secret",
		AccessTokenExpiry:         15 * time.Minute,
		RefreshTokenSecret:        "test-refresh-secret",
		RefreshTokenExpiry:        720 * time.Hour,
		TempTokenExpiry:           20 * time.Minute,
		SiteName:                  "TaskCamp",
		BaseURL:                   "http://localhost:8080",
		ForgotPasswordRedirectURL: "http://localhost:3000/reset-password",
	}
}

type envelope struct {
	StatusCode int             `json:"statusCode"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	Success    bool            `json:"success"`
}

func do(t *testing.T, h http.Handler, method, path, bearer string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("%s %s: unmarshal envelope: %v (body %s)", method, path, err, rec.Body.String())
		}
	}
	return rec, env
}

// TestAPIScenario drives the wired router end to end: two users register and
// log in, one creates a project, the other is invited as a member, hits the
// administrator-only routes, gets promoted, and then succeeds.
func TestAPIScenario(t *testing.T) {
	db := testutil.SetupTestDB(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	coreCfg := &config.CoreConfig{Env: "dev"}
	deps := DBDeps{MongoClient: db.Client(), MongoDatabase: db}
	if err := EnsureSchema(ctx, coreCfg, testAppConfig(), deps, zap.NewNop()); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}

	h, err := BuildHandler(coreCfg, testAppConfig(), deps, zap.NewNop())
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}

	rec, _ := do(t, h, "GET", "/api/v1/healthcheck", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("healthcheck: got %d", rec.Code)
	}

	login := func(email, username, password string) string {
		t.Helper()
		rec, _ := do(t, h, "POST", "/api/v1/users/register", "", map[string]string{
			"email": email, "username": username, "password": password,
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("register %s: got %d, body %s", username, rec.Code, rec.Body.String())
		}
		rec, env := do(t, h, "POST", "/api/v1/users/login", "", map[string]string{
			"email": email, "password": password,
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("login %s: got %d, body %s", username, rec.Code, rec.Body.String())
		}
		var data struct {
			AccessToken string `json:"accessToken"`
		}
		if err := json.Unmarshal(env.Data, &data); err != nil || data.AccessToken == "" {
			t.Fatalf("login %s: no access token in %s", username, env.Data)
		}
		return data.AccessToken
	}

	ownerToken := login("owner@example.com", "owner", "owner-password-1")
	guestToken := login("guest@example.com", "guest", "guest-password-1")

	// Owner creates a project.
	rec, env := do(t, h, "POST", "/api/v1/projects", ownerToken, map[string]string{
		"name": "Apollo", "description": "moon landing",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create project: got %d, body %s", rec.Code, rec.Body.String())
	}
	var project struct {
		ID string `json:"_id"`
	}
	if err := json.Unmarshal(env.Data, &project); err != nil || project.ID == "" {
		t.Fatalf("create project: no id in %s", env.Data)
	}

	// A non-member cannot see the project; membership is not leaked.
	rec, _ = do(t, h, "GET", "/api/v1/projects/"+project.ID, guestToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("non-member get: got %d, want 404", rec.Code)
	}

	// Owner invites the guest as a plain member.
	rec, _ = do(t, h, "POST", "/api/v1/projects/"+project.ID+"/members", ownerToken, map[string]string{
		"email": "guest@example.com", "role": "member",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("invite: got %d, body %s", rec.Code, rec.Body.String())
	}

	// The member can now read but not administer.
	rec, _ = do(t, h, "GET", "/api/v1/projects/"+project.ID, guestToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("member get: got %d", rec.Code)
	}
	rec, _ = do(t, h, "PUT", "/api/v1/projects/"+project.ID, guestToken, map[string]string{
		"name": "Renamed",
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("member update: got %d, want 403", rec.Code)
	}

	// The member can work with tasks as far as reading; creating is for
	// administrator roles.
	rec, _ = do(t, h, "GET", "/api/v1/tasks/"+project.ID, guestToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("member list tasks: got %d", rec.Code)
	}
	rec, _ = do(t, h, "POST", "/api/v1/tasks/"+project.ID, guestToken, map[string]string{
		"title": "Forbidden task",
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("member create task: got %d, want 403", rec.Code)
	}

	// Look up the guest's id for the promotion call.
	rec, env = do(t, h, "GET", "/api/v1/users/current-user", guestToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("current-user: got %d", rec.Code)
	}
	var guest struct {
		ID string `json:"_id"`
	}
	if err := json.Unmarshal(env.Data, &guest); err != nil || guest.ID == "" {
		t.Fatalf("current-user: no id in %s", env.Data)
	}

	// Promotion to project administrator unlocks task creation.
	rec, _ = do(t, h, "PUT", "/api/v1/projects/"+project.ID+"/members/"+guest.ID, ownerToken, map[string]string{
		"role": "project-administrator",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("promote: got %d, body %s", rec.Code, rec.Body.String())
	}
	rec, _ = do(t, h, "POST", "/api/v1/tasks/"+project.ID, guestToken, map[string]string{
		"title": "Build the lander",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("promoted create task: got %d, body %s", rec.Code, rec.Body.String())
	}

	// Project administrators still cannot touch notes writes.
	rec, _ = do(t, h, "POST", "/api/v1/notes/"+project.ID, guestToken, map[string]string{
		"content": "not allowed",
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("project-admin create note: got %d, want 403", rec.Code)
	}
	rec, _ = do(t, h, "POST", "/api/v1/notes/"+project.ID, ownerToken, map[string]string{
		"content": "Launch window is Tuesday.",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("admin create note: got %d, body %s", rec.Code, rec.Body.String())
	}

	// No token at all is rejected before any routing happens.
	rec, _ = do(t, h, "GET", "/api/v1/projects", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous list: got %d, want 401", rec.Code)
	}
}
