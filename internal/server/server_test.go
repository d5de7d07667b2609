package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"selecao/internal"
	"selecao/internal/docstore"
	"selecao/internal/store"
	"selecao/pkg/types"

	"github.com/gorilla/securecookie"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

const (
	adminToken     = "admin-token"
	candidateToken = "candidate-token"
)

type fakeAuth struct {
	sessions map[string]types.Session
}

func (f *fakeAuth) Login(_ context.Context, email, password string) (*Tokens, error) {
	if password != "Correct-horse-1" {
		return nil, ErrInvalidCredentials
	}
	for token, session := range f.sessions {
		if session.Email == email {
			return &Tokens{IDToken: token, ExpiresIn: 3600}, nil
		}
	}
	return nil, ErrInvalidCredentials
}

func (f *fakeAuth) Register(context.Context, *RegisterInput) error { return nil }

func (f *fakeAuth) ConfirmRegistration(_ context.Context, _, code string) error {
	if code != "123456" {
		return ErrInvalidCode
	}
	return nil
}

func (f *fakeAuth) Verify(_ context.Context, idToken string) (*types.Session, error) {
	session, ok := f.sessions[idToken]
	if !ok {
		return nil, ErrInvalidToken
	}
	return &session, nil
}

type fakeFiles struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (f *fakeFiles) Upload(_ context.Context, key string, body io.Reader, _ string) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	return key, nil
}

func (f *fakeFiles) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}

func (f *fakeFiles) PresignGet(_ context.Context, key string) (string, error) {
	return "https://files.example/" + key, nil
}

type fakeNotifier struct {
	notified []types.ApplicationStatus
}

func (f *fakeNotifier) ApplicationStatusChanged(_ context.Context, _ *types.SelectionProcess, application *types.Application) error {
	f.notified = append(f.notified, application.Status)
	return nil
}

type testServer struct {
	service  *Service
	handler  http.Handler
	repos    *store.ProcessRepository
	apps     *store.ApplicationRepository
	files    *fakeFiles
	notifier *fakeNotifier
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	bolt, err := docstore.OpenBolt(filepath.Join(t.TempDir(), "server.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = bolt.Close() })

	config := &types.Config{
		Environment:      "development",
		Timezone:         "UTC",
		AdminGroup:       "admin",
		SessionMaxAgeSec: 3600,
		ResearchAreas:    []string{"Redes", "Banco de Dados"},
		CookieHashKey:    base64.StdEncoding.EncodeToString(securecookie.GenerateRandomKey(32)),
		CookieBlockKey:   base64.StdEncoding.EncodeToString(securecookie.GenerateRandomKey(32)),
	}

	logger, _ := test.NewNullLogger()

	applications := store.NewApplicationRepository(bolt)
	processes := store.NewProcessRepository(bolt, applications)
	news := store.NewNewsRepository(bolt)

	auth := &fakeAuth{sessions: map[string]types.Session{
		adminToken:     {IsLoggedIn: true, Role: types.RoleAdmin, DisplayName: "Coordenação", UID: "admin-1", Email: "admin@example.com"},
		candidateToken: {IsLoggedIn: true, Role: types.RoleCandidate, DisplayName: "Ana", UID: "uid-1", Email: "ana@example.com"},
	}}
	files := &fakeFiles{objects: map[string][]byte{}}
	notifier := &fakeNotifier{}

	service, err := New(config, logger, processes, applications, news, auth, files, notifier)
	require.NoError(t, err)
	service.now = func() time.Time { return time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC) }

	return &testServer{
		service:  service,
		handler:  service.Handler(),
		repos:    processes,
		apps:     applications,
		files:    files,
		notifier: notifier,
	}
}

func (ts *testServer) cookie(t *testing.T, token string) *http.Cookie {
	t.Helper()

	value, err := ts.service.cookie.Encode(internal.COOKIE_ID_TOKEN_NAME, token)
	require.NoError(t, err)
	return &http.Cookie{Name: internal.COOKIE_ID_TOKEN_NAME, Value: value}
}

func (ts *testServer) do(t *testing.T, req *http.Request, token string) *httptest.ResponseRecorder {
	t.Helper()

	if token != "" {
		req.AddCookie(ts.cookie(t, token))
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) form(t *testing.T, method, target string, values url.Values, token string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return ts.do(t, req, token)
}

func (ts *testServer) json(t *testing.T, method, target string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, target, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return ts.do(t, req, token)
}

func (ts *testServer) get(t *testing.T, target, token string) *httptest.ResponseRecorder {
	t.Helper()
	return ts.do(t, httptest.NewRequest(http.MethodGet, target, nil), token)
}

type multipartFile struct {
	field, filename string
	content         []byte
}

func (ts *testServer) multipart(t *testing.T, target string, values map[string]string, files []multipartFile, token string) *httptest.ResponseRecorder {
	t.Helper()

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range values {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, f := range files {
		part, err := w.CreateFormFile(f.field, f.filename)
		require.NoError(t, err)
		_, err = part.Write(f.content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, target, body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return ts.do(t, req, token)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func processPath(id string, parts ...string) string {
	return strings.Join(append([]string{"/processes", url.PathEscape(id)}, parts...), "/")
}

func adminPath(id string, parts ...string) string {
	return "/admin" + processPath(id, parts...)
}

func seedProcess(t *testing.T, ts *testServer, name, start, end string) *types.SelectionProcess {
	t.Helper()

	created, err := ts.repos.CreateProcess(context.Background(), &types.SelectionProcess{
		Name:                  name,
		Places:                5,
		MiniDescription:       "curta",
		Description:           "longa",
		ResearchFieldRequired: true,
		StartDate:             start,
		EndDate:               end,
		RegistrationFieldsInfo: []types.FieldDescriptor{
			{Name: "CPF", Type: types.FieldTypeNumber, Required: true},
			{Name: "Histórico", Type: types.FieldTypeFile, Required: true},
		},
	})
	require.NoError(t, err)
	return created
}
