package respond_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/taskcamp/taskcamp/internal/app/system/respond"
)

func TestJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	respond.JSON(rec, http.StatusCreated, map[string]string{"name": "Apollo"}, "created")

	if rec.Code != http.StatusCreated {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusCreated)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q", ct)
	}

	var env respond.Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !env.Success {
		t.Error("success: got false, want true")
	}
	if env.StatusCode != http.StatusCreated {
		t.Errorf("statusCode: got %d, want %d", env.StatusCode, http.StatusCreated)
	}
	if env.Message != "created" {
		t.Errorf("message: got %q, want %q", env.Message, "created")
	}
}

func TestError(t *testing.T) {
	rec := httptest.NewRecorder()
	respond.Error(rec, http.StatusConflict, "user already exists", "email is taken")

	if rec.Code != http.StatusConflict {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusConflict)
	}

	var env respond.Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if env.Success {
		t.Error("success: got true, want false")
	}
	if len(env.Errors) != 1 || env.Errors[0] != "email is taken" {
		t.Errorf("errors: got %v", env.Errors)
	}
}
