package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"goji.io"

	"github.com/qtmlab/qtmtoolbox/param"
)

func newTestMux(t *testing.T) (*goji.Mux, *param.Registry, *float64) {
	t.Helper()
	reg := param.NewRegistry()
	var stored float64 = 1.5
	err := reg.Register("dev.v", struct {
		param.Readable
		param.Writable
	}{
		param.ReadFunc(func() (float64, error) { return stored, nil }),
		param.WriteFunc(func(v float64) error { stored = v; return nil }),
	})
	if err != nil {
		t.Fatal(err)
	}
	err = reg.Register("dev.t", param.ReadFunc(func() (float64, error) { return 0, errors.New("sensor unplugged") }))
	if err != nil {
		t.Fatal(err)
	}
	mux := goji.NewMux()
	NewParamServer(reg).RT().Bind(mux)
	return mux, reg, &stored
}

func TestGetParam(t *testing.T) {
	mux, _, _ := newTestMux(t)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/param/dev.v", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status %d, body %s", w.Code, w.Body.String())
	}
	var resp FloatT
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.F64 != 1.5 {
		t.Errorf("got %v, want 1.5", resp.F64)
	}
}

func TestSetParam(t *testing.T) {
	mux, _, stored := newTestMux(t)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/param/dev.v", strings.NewReader(`{"f64": -0.25}`))
	mux.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d, body %s", w.Code, w.Body.String())
	}
	if *stored != -0.25 {
		t.Errorf("stored value = %v, want -0.25", *stored)
	}
}

func TestSetReadOnlyParamNotFound(t *testing.T) {
	mux, _, _ := newTestMux(t)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/param/dev.t", strings.NewReader(`{"f64": 1}`))
	mux.ServeHTTP(w, req)
	if w.Code == http.StatusOK {
		t.Error("POST to a read-only parameter succeeded")
	}
}

func TestGetErrorPropagates(t *testing.T) {
	mux, _, _ := newTestMux(t)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/param/dev.t", nil))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status %d, want 500", w.Code)
	}
	if !strings.Contains(w.Body.String(), "sensor unplugged") {
		t.Errorf("error text lost, body %q", w.Body.String())
	}
}

func TestList(t *testing.T) {
	mux, _, _ := newTestMux(t)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/params", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	var infos []ParamInfo
	if err := json.NewDecoder(w.Body).Decode(&infos); err != nil {
		t.Fatal(err)
	}
	if len(infos) != 2 {
		t.Fatalf("listed %d params, want 2", len(infos))
	}
	// IDs come back sorted
	if infos[0].ID != "dev.t" || infos[1].ID != "dev.v" {
		t.Errorf("ids = %v, %v", infos[0].ID, infos[1].ID)
	}
	if infos[0].Write {
		t.Error("dev.t reported writable")
	}
	if !infos[1].Read || !infos[1].Write {
		t.Error("dev.v capabilities misreported")
	}
}

func TestSetRejectsBadJSON(t *testing.T) {
	mux, _, _ := newTestMux(t)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/param/dev.v", strings.NewReader("not json"))
	mux.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status %d, want 400", w.Code)
	}
}
