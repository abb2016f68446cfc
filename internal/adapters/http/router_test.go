package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/bps3275/sinora/internal/domain"
	"github.com/bps3275/sinora/internal/testsupport"
	"github.com/prometheus/client_golang/prometheus"
)

type envelope struct {
	Status  string            `json:"status"`
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Details []domain.RowError `json:"details"`
}

type testServer struct {
	h      *testsupport.Harness
	router http.Handler
	admin  string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	h := testsupport.New(t)
	h.SeedAdmin(t)
	reg := prometheus.NewRegistry()
	router := NewRouter(NewHandler(h.Service, nil), NewMetrics(reg, reg))
	return &testServer{
		h:      h,
		router: router,
		admin:  h.Login(t, testsupport.AdminNIP, testsupport.AdminPassword),
	}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, ok := body.(string)
		if !ok {
			encoded, err := json.Marshal(body)
			if err != nil {
				t.Fatalf("marshal body: %v", err)
			}
			raw = string(encoded)
		}
		reader = strings.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	return s.serve(t, req)
}

func (s *testServer) serve(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode response %q: %v", rec.Body.String(), err)
		}
	}
	return rec, env
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

func TestHealthAndReadiness(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	rec, env := s.do(t, http.MethodGet, "/healthz", "", nil)
	expectStatus(t, rec, http.StatusOK)
	if env.Message != "ok" || rec.Header().Get("X-Request-Id") == "" {
		t.Fatalf("unexpected healthz response: %+v", env)
	}

	failing := NewRouter(NewHandler(s.h.Service, func(context.Context) error { return errors.New("db down") }), nil)
	rec = httptest.NewRecorder()
	failing.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when dependencies fail, got %d", rec.Code)
	}
}

func TestAuthContract(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	rec, env := s.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"nip": "199001012015031001", "name": "Budi Santoso", "password": "rahasia1",
	})
	expectStatus(t, rec, http.StatusCreated)
	if env.Status != "success" {
		t.Fatalf("unexpected envelope: %+v", env)
	}

	rec, env = s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"nip": "199001012015031001", "password": "salah-sandi",
	})
	expectStatus(t, rec, http.StatusUnauthorized)
	if env.Code != "INVALID_CREDENTIALS" {
		t.Fatalf("expected INVALID_CREDENTIALS, got %+v", env)
	}

	rec, env = s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"nip": "199001012015031001", "password": "rahasia1",
	})
	expectStatus(t, rec, http.StatusOK)
	var login struct {
		Token string `json:"token"`
		User  struct {
			Role string `json:"role"`
		} `json:"user"`
	}
	if err := json.Unmarshal(env.Data, &login); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	if login.Token == "" || login.User.Role != domain.RoleUser {
		t.Fatalf("unexpected login payload: %s", env.Data)
	}

	rec, _ = s.do(t, http.MethodGet, "/api/v1/auth/me", login.Token, nil)
	expectStatus(t, rec, http.StatusOK)

	rec, _ = s.do(t, http.MethodPost, "/api/v1/auth/logout", login.Token, nil)
	expectStatus(t, rec, http.StatusOK)

	rec, env = s.do(t, http.MethodGet, "/api/v1/auth/me", login.Token, nil)
	expectStatus(t, rec, http.StatusUnauthorized)
	if env.Code != "SESSION_REVOKED" {
		t.Fatalf("expected SESSION_REVOKED, got %+v", env)
	}

	rec, env = s.do(t, http.MethodGet, "/api/v1/dashboard", "", nil)
	expectStatus(t, rec, http.StatusUnauthorized)
	if env.Code != "UNAUTHORIZED" {
		t.Fatalf("expected UNAUTHORIZED, got %+v", env)
	}

	rec, env = s.do(t, http.MethodPost, "/api/v1/auth/login", "", `{"nip":"1","password":"x","extra":true}`)
	expectStatus(t, rec, http.StatusBadRequest)
	if env.Code != "VALIDATION_ERROR" {
		t.Fatalf("expected VALIDATION_ERROR for unknown field, got %+v", env)
	}
}

func TestForgotPasswordContract(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	rec, env := s.do(t, http.MethodPost, "/api/v1/auth/forgot-password/check-nip", "", map[string]string{"nip": testsupport.AdminNIP})
	expectStatus(t, rec, http.StatusOK)
	var check struct {
		ResetToken string `json:"reset_token"`
	}
	if err := json.Unmarshal(env.Data, &check); err != nil || check.ResetToken == "" {
		t.Fatalf("expected reset token, got %s", env.Data)
	}

	rec, _ = s.do(t, http.MethodPost, "/api/v1/auth/forgot-password/reset", "", map[string]string{
		"reset_token": check.ResetToken, "new_password": "sandi-pulih",
	})
	expectStatus(t, rec, http.StatusOK)

	rec, env = s.do(t, http.MethodGet, "/api/v1/users", s.admin, nil)
	expectStatus(t, rec, http.StatusUnauthorized)
	if env.Code != "SESSION_REVOKED" {
		t.Fatalf("expected old session revoked after reset, got %+v", env)
	}

	rec, env = s.do(t, http.MethodPost, "/api/v1/auth/forgot-password/check-nip", "", map[string]string{"nip": "199901012020121009"})
	expectStatus(t, rec, http.StatusNotFound)
	if env.Code != "NOT_FOUND" {
		t.Fatalf("expected NOT_FOUND, got %+v", env)
	}
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	staffID := s.h.SeedUser(t, "199001012015031001", "Budi Santoso", "rahasia1")
	staff := s.h.Login(t, "199001012015031001", "rahasia1")
	mitra := testsupport.Mitra("1001", "Ani Rahmawati", domain.JenisPetugasPendataan)

	rec, env := s.do(t, http.MethodPost, "/api/v1/mitra", staff, mitra)
	expectStatus(t, rec, http.StatusForbidden)
	if env.Code != "FORBIDDEN" {
		t.Fatalf("expected FORBIDDEN, got %+v", env)
	}

	rec, _ = s.do(t, http.MethodPost, "/api/v1/mitra", s.admin, mitra)
	expectStatus(t, rec, http.StatusCreated)
	rec, env = s.do(t, http.MethodPost, "/api/v1/mitra", s.admin, mitra)
	expectStatus(t, rec, http.StatusConflict)
	if env.Code != "CONFLICT" {
		t.Fatalf("expected CONFLICT, got %+v", env)
	}

	rec, env = s.do(t, http.MethodGet, "/api/v1/mitra/1001", staff, nil)
	expectStatus(t, rec, http.StatusOK)
	var got domain.Mitra
	if err := json.Unmarshal(env.Data, &got); err != nil || got.Nama != "Ani Rahmawati" {
		t.Fatalf("unexpected mitra payload: %s", env.Data)
	}
	rec, _ = s.do(t, http.MethodGet, "/api/v1/mitra/9999", staff, nil)
	expectStatus(t, rec, http.StatusNotFound)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/kegiatan/abc", staff, nil)
	expectStatus(t, rec, http.StatusBadRequest)

	rec, _ = s.do(t, http.MethodPut, "/api/v1/users/"+itoa(staffID)+"/role", staff, map[string]string{"role": "admin"})
	expectStatus(t, rec, http.StatusForbidden)
	rec, _ = s.do(t, http.MethodPut, "/api/v1/users/"+itoa(staffID)+"/role", s.admin, map[string]string{"role": "admin"})
	expectStatus(t, rec, http.StatusOK)
}

func TestDemotedAdminLosesAccessImmediately(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	staffID := s.h.SeedUser(t, "199001012015031001", "Budi Santoso", "rahasia1")
	rolePath := "/api/v1/users/" + itoa(staffID) + "/role"

	rec, _ := s.do(t, http.MethodPut, rolePath, s.admin, map[string]string{"role": "admin"})
	expectStatus(t, rec, http.StatusOK)
	promoted := s.h.Login(t, "199001012015031001", "rahasia1")
	rec, _ = s.do(t, http.MethodPost, "/api/v1/mitra", promoted, testsupport.Mitra("1001", "Ani Rahmawati", domain.JenisPetugasPendataan))
	expectStatus(t, rec, http.StatusCreated)

	rec, _ = s.do(t, http.MethodPut, rolePath, s.admin, map[string]string{"role": "user"})
	expectStatus(t, rec, http.StatusOK)

	rec, env := s.do(t, http.MethodPost, "/api/v1/mitra", promoted, testsupport.Mitra("1002", "Budi Hartono", domain.JenisPetugasPendataan))
	expectStatus(t, rec, http.StatusUnauthorized)
	if env.Code != "SESSION_REVOKED" {
		t.Fatalf("expected SESSION_REVOKED, got %+v", env)
	}
	rec, _ = s.do(t, http.MethodPut, rolePath, promoted, map[string]string{"role": "admin"})
	expectStatus(t, rec, http.StatusUnauthorized)

	demoted := s.h.Login(t, "199001012015031001", "rahasia1")
	rec, _ = s.do(t, http.MethodPost, "/api/v1/mitra", demoted, testsupport.Mitra("1002", "Budi Hartono", domain.JenisPetugasPendataan))
	expectStatus(t, rec, http.StatusForbidden)
	rec, _ = s.do(t, http.MethodPut, rolePath, demoted, map[string]string{"role": "admin"})
	expectStatus(t, rec, http.StatusForbidden)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/mitra/1002", s.admin, nil)
	expectStatus(t, rec, http.StatusNotFound)
}

func TestKegiatanHonorLimitContract(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	s.h.SeedMitra(t, "1001", "Ani Rahmawati", domain.JenisPetugasPendataan)

	rec, _ := s.do(t, http.MethodPut, "/api/v1/honor/limits/Pendataan", s.admin, map[string]int64{"honor_max": 400000})
	expectStatus(t, rec, http.StatusOK)
	rec, _ = s.do(t, http.MethodPut, "/api/v1/honor/limits/Pendataan%20dan%20Pengolahan", s.admin, map[string]int64{"honor_max": 900000})
	expectStatus(t, rec, http.StatusOK)

	kegiatan := map[string]any{
		"nama_kegiatan":    "Survei Harga Konsumen",
		"kode":             "SHK-01",
		"jenis_kegiatan":   "Lapangan",
		"tanggal_mulai":    "2025-03-01",
		"tanggal_berakhir": "2025-03-20",
		"penanggung_jawab": testsupport.AdminName,
		"satuan_honor":     "Dokumen",
		"mitra": []map[string]any{
			{"sobat_id": "1001", "honor_satuan": 50000, "target_volume_pekerjaan": 10, "status_mitra": "PPL"},
		},
	}
	rec, env := s.do(t, http.MethodPost, "/api/v1/kegiatan", s.admin, kegiatan)
	expectStatus(t, rec, http.StatusUnprocessableEntity)
	if env.Code != "HONOR_LIMIT_EXCEEDED" || !strings.Contains(env.Message, "1001") {
		t.Fatalf("expected HONOR_LIMIT_EXCEEDED naming the mitra, got %+v", env)
	}

	kegiatan["mitra"] = []map[string]any{
		{"sobat_id": "1001", "honor_satuan": 40000, "target_volume_pekerjaan": 10, "status_mitra": "PPL"},
	}
	rec, env = s.do(t, http.MethodPost, "/api/v1/kegiatan", s.admin, kegiatan)
	expectStatus(t, rec, http.StatusCreated)
	var created struct {
		KegiatanID int64 `json:"kegiatan_id"`
	}
	if err := json.Unmarshal(env.Data, &created); err != nil || created.KegiatanID == 0 {
		t.Fatalf("unexpected create payload: %s", env.Data)
	}

	rec, env = s.do(t, http.MethodGet, "/api/v1/mitra/1001/honor?month=3&year=2025", s.admin, nil)
	expectStatus(t, rec, http.StatusOK)
	var honor struct {
		TotalHonor int64 `json:"total_honor"`
		Remaining  int64 `json:"remaining"`
	}
	if err := json.Unmarshal(env.Data, &honor); err != nil || honor.TotalHonor != 400000 || honor.Remaining != 0 {
		t.Fatalf("unexpected honor payload: %s", env.Data)
	}

	rec, _ = s.do(t, http.MethodGet, "/api/v1/mitra/1001/honor?month=maret&year=2025", s.admin, nil)
	expectStatus(t, rec, http.StatusBadRequest)

	rec, _ = s.do(t, http.MethodDelete, "/api/v1/kegiatan/"+itoa(created.KegiatanID)+"/mitra/1001", s.admin, nil)
	expectStatus(t, rec, http.StatusOK)
	rec, _ = s.do(t, http.MethodGet, "/api/v1/kegiatan/"+itoa(created.KegiatanID)+"/mitra", s.admin, nil)
	expectStatus(t, rec, http.StatusNotFound)
}

func multipartUpload(t *testing.T, filename, content, onConflict string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if onConflict != "" {
		if err := w.WriteField("on_conflict", onConflict); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/mitra/import", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestImportMitraContract(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	header := "sobat_id,nik,nama,jenis_petugas,pekerjaan,jenis_kelamin,alamat\n"

	bad := header +
		"2001,3275010101900002,Dewi Lestari,Pendataan,Petani,Perempuan,Jl. Merdeka 5\n" +
		"2002,3275010101900003,Eko Prasetyo,Pendataan,Guru,Pria,Jl. Sudirman 7\n"
	req := multipartUpload(t, "mitra.csv", bad, "")
	req.Header.Set("Authorization", "Bearer "+s.admin)
	rec, env := s.serve(t, req)
	expectStatus(t, rec, http.StatusUnprocessableEntity)
	if env.Code != "IMPORT_REJECTED" || len(env.Details) != 1 || env.Details[0].Row != 3 || env.Details[0].Field != "jenis_kelamin" {
		t.Fatalf("unexpected rejection: %+v", env)
	}

	good := strings.Replace(bad, "Pria", "Laki-laki", 1)
	req = multipartUpload(t, "mitra.csv", good, "skip")
	req.Header.Set("Authorization", "Bearer "+s.admin)
	rec, env = s.serve(t, req)
	expectStatus(t, rec, http.StatusOK)
	var res struct {
		Inserted int `json:"inserted"`
	}
	if err := json.Unmarshal(env.Data, &res); err != nil || res.Inserted != 2 {
		t.Fatalf("unexpected import result: %s", env.Data)
	}

	req = multipartUpload(t, "mitra.txt", good, "")
	req.Header.Set("Authorization", "Bearer "+s.admin)
	rec, _ = s.serve(t, req)
	expectStatus(t, rec, http.StatusBadRequest)
}

func TestImportMitraRemovesSpilledUploads(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("TMPDIR", tmp)

	s := newTestServer(t)
	req := multipartUpload(t, "mitra.xlsx", strings.Repeat("x", 2*uploadMemoryBytes), "")
	req.Header.Set("Authorization", "Bearer "+s.admin)
	rec, _ := s.serve(t, req)
	if rec.Code < 400 {
		t.Fatalf("expected garbage workbook to be refused, got %d", rec.Code)
	}

	entries, err := os.ReadDir(tmp)
	if err != nil {
		t.Fatalf("read temp dir: %v", err)
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), "multipart-") {
			t.Fatalf("upload left %s behind", entry.Name())
		}
	}
}

func TestExportsAreDownloads(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	rec, _ := s.do(t, http.MethodGet, "/api/v1/laporan/export?month=all", s.admin, nil)
	expectStatus(t, rec, http.StatusOK)
	if !strings.Contains(rec.Header().Get("Content-Type"), "spreadsheetml") {
		t.Fatalf("unexpected content type %q", rec.Header().Get("Content-Type"))
	}
	if !strings.Contains(rec.Header().Get("Content-Disposition"), "Semua Bulan_Semua Tahun.xlsx") {
		t.Fatalf("unexpected disposition %q", rec.Header().Get("Content-Disposition"))
	}

	rec, _ = s.do(t, http.MethodGet, "/api/v1/laporan/export?format=csv&year=2025", s.admin, nil)
	expectStatus(t, rec, http.StatusOK)
	if !strings.HasPrefix(rec.Body.String(), "NIK,Nama") {
		t.Fatalf("expected csv header, got %q", rec.Body.String())
	}

	rec, env := s.do(t, http.MethodGet, "/api/v1/mitra/1001/export?month=3", s.admin, nil)
	expectStatus(t, rec, http.StatusBadRequest)
	if env.Code != "VALIDATION_ERROR" {
		t.Fatalf("expected VALIDATION_ERROR, got %+v", env)
	}
}

func TestMetricsRecordRoutePatterns(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	rec, _ := s.do(t, http.MethodGet, "/api/v1/mitra/1001", s.admin, nil)
	expectStatus(t, rec, http.StatusNotFound)

	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	expectStatus(t, rec, http.StatusOK)
	body := rec.Body.String()
	if !strings.Contains(body, `route="/api/v1/mitra/{sobat_id}"`) || !strings.Contains(body, `status="404"`) {
		t.Fatalf("expected route pattern label in metrics, got:\n%s", body)
	}
}

func TestMapDomainError(t *testing.T) {
	t.Parallel()

	cases := []struct {
		err    error
		status int
		code   string
	}{
		{domain.ErrInvalidInput, http.StatusBadRequest, "VALIDATION_ERROR"},
		{domain.ErrSessionExpired, http.StatusUnauthorized, "SESSION_EXPIRED"},
		{&domain.HonorLimitError{SobatID: "1"}, http.StatusUnprocessableEntity, "HONOR_LIMIT_EXCEEDED"},
		{&domain.ImportError{}, http.StatusUnprocessableEntity, "IMPORT_REJECTED"},
		{domain.ErrAccountLocked, http.StatusTooManyRequests, "ACCOUNT_LOCKED"},
		{domain.ErrRateLimited, http.StatusTooManyRequests, "RATE_LIMITED"},
		{errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tc := range cases {
		status, code, _ := mapDomainError(tc.err)
		if status != tc.status || code != tc.code {
			t.Fatalf("%v: expected %d %s, got %d %s", tc.err, tc.status, tc.code, status, code)
		}
	}
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
