package echoapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/kiam/core/account"
	"github.com/trezcool/kiam/storage/database/inmem"
)

const testPassword = "Ph0n3-Kiw1!"

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

type testServer struct {
	*server
	db *inmemdb.DB
}

func setup(t *testing.T) testServer {
	t.Helper()
	db := inmemdb.New(inmemdb.WithYear(2026))
	s := NewServer(&Options{DisableReqLogs: true, Store: db, SecretKey: "test-secret"})
	return testServer{server: s.(*server), db: db}
}

func (ts testServer) createUser(t *testing.T, username, role string, active bool) account.User {
	t.Helper()
	usr, err := ts.db.CreateUser(account.NewUser{
		Username: username, Email: username + "@kiam.test", Nom: "Test", Prenom: username,
		Role: role, Password: testPassword,
	})
	require.NoError(t, err)
	if !active {
		usr, err = ts.db.SetUserStatus(usr.ID, false)
		require.NoError(t, err)
	}
	return usr
}

func (ts testServer) token(t *testing.T, usr account.User) string {
	t.Helper()
	token, err := ts.auth.GenerateToken(usr)
	require.NoError(t, err)
	return token
}

// run serves tt and returns the recorded response.
func (ts testServer) run(t *testing.T, tt httpTest) *httptest.ResponseRecorder {
	t.Helper()
	if tt.method == "" {
		tt.method = http.MethodGet
	}
	req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
	ts.ServeHTTP(rec, req)
	return rec
}

func (ts testServer) runAll(t *testing.T, tests []httpTest) {
	for _, tt := range tests {
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, ts.run(t, tt))
		})
	}
}

func newAuthRequest(method, path, token string, data []byte) (*http.Request, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, httptest.NewRecorder()
}

func marshallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	require.NoError(t, err, "marshallObj()")
	return data
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}

// checkCodeAndData compares the body only when wantData is set.
func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
	if tt.wantData != nil {
		assert.JSONEq(t, string(tt.wantData), rec.Body.String())
	}
}
