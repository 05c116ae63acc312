package httpapi

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dmitrijs2005/healthkey/internal/common"
	"github.com/dmitrijs2005/healthkey/internal/logging"
	"github.com/dmitrijs2005/healthkey/internal/server/models"
	"github.com/dmitrijs2005/healthkey/internal/server/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeGateway struct {
	authErr  error
	fundErr  error
	storeErr error
	fundKey  string
	stored   []byte
	tags     []models.Tag
	objects  map[string][]byte
	types    map[string]string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeGateway) Challenge(_ context.Context, address string) (string, error) {
	if address == "bad" {
		return "", common.ErrorValidation
	}
	return "nonce-1", nil
}

func (f *fakeGateway) CreateSession(_ context.Context, address, nonce, signature string) (string, error) {
	if signature != "good" {
		return "", common.ErrInvalidSignature
	}
	return "tok-" + address, nil
}

func (f *fakeGateway) Authenticate(token string) (string, error) {
	if f.authErr != nil {
		return "", f.authErr
	}
	return strings.TrimPrefix(token, "tok-"), nil
}

func (f *fakeGateway) Price(size int64) (int64, error) { return 100 + size, nil }

func (f *fakeGateway) Balance(_ context.Context, address string) (*models.Account, error) {
	return &models.Account{Address: address, WalletBalance: 900, CreditBalance: 100}, nil
}

func (f *fakeGateway) Fund(_ context.Context, _, key string, _ int64) error {
	f.fundKey = key
	return f.fundErr
}

func (f *fakeGateway) Store(_ context.Context, owner string, data []byte, tags []models.Tag) (*services.StoreResult, error) {
	if f.storeErr != nil {
		return nil, f.storeErr
	}
	f.stored = data
	f.tags = tags
	id := services.StorageID(owner, data)
	f.objects[id] = data
	f.types[id] = models.ContentTypeTag(tags)
	return &services.StoreResult{ID: id, Price: 100 + int64(len(data))}, nil
}

func (f *fakeGateway) Retrieve(_ context.Context, id string) ([]byte, string, error) {
	b, ok := f.objects[id]
	if !ok {
		return nil, "", common.ErrorNotFound
	}
	return b, f.types[id], nil
}

func newTestServer(g Gateway, o Options) *httptest.Server {
	s := NewHTTPServer(":0", logging.NewNopLogger(), g, o)
	return httptest.NewServer(s.Handler())
}

func do(t *testing.T, method, url string, body []byte, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	require.NoError(t, err)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(resp.Body)
	return resp, buf.Bytes()
}

func bearer(addr string) map[string]string {
	return map[string]string{common.SessionHeaderName: "Bearer tok-" + addr}
}

func TestSessionEndpoints(t *testing.T) {
	srv := newTestServer(newFakeGateway(), Options{})
	defer srv.Close()

	resp, body := do(t, http.MethodGet, srv.URL+"/session/challenge?address=addr1", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"nonce":"nonce-1"}`, string(body))

	resp, _ = do(t, http.MethodGet, srv.URL+"/session/challenge", nil, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = do(t, http.MethodPost, srv.URL+"/session",
		[]byte(`{"address":"addr1","nonce":"nonce-1","signature":"good"}`), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"token":"tok-addr1"}`, string(body))

	resp, _ = do(t, http.MethodPost, srv.URL+"/session",
		[]byte(`{"address":"addr1","nonce":"nonce-1","signature":"bad"}`), nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = do(t, http.MethodPost, srv.URL+"/session", []byte(`{}`), nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPrice(t *testing.T) {
	srv := newTestServer(newFakeGateway(), Options{})
	defer srv.Close()

	resp, body := do(t, http.MethodGet, srv.URL+"/price/28", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"price":128}`, string(body))

	resp, _ = do(t, http.MethodGet, srv.URL+"/price/abc", nil, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSessionRequired(t *testing.T) {
	srv := newTestServer(newFakeGateway(), Options{})
	defer srv.Close()

	resp, _ := do(t, http.MethodGet, srv.URL+"/account/balance", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = do(t, http.MethodGet, srv.URL+"/account/balance", nil,
		map[string]string{common.SessionHeaderName: "Basic abc"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestExpiredTokenBody(t *testing.T) {
	g := newFakeGateway()
	g.authErr = common.ErrTokenExpired
	srv := newTestServer(g, Options{})
	defer srv.Close()

	resp, body := do(t, http.MethodGet, srv.URL+"/account/balance", nil, bearer("addr1"))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, string(body), "token expired")
}

func TestBalance(t *testing.T) {
	srv := newTestServer(newFakeGateway(), Options{})
	defer srv.Close()

	resp, body := do(t, http.MethodGet, srv.URL+"/account/balance", nil, bearer("addr1"))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]any
	require.NoError(t, json.Unmarshal(body, &out))
	assert.EqualValues(t, 900, out["wallet"])
	assert.EqualValues(t, 100, out["credit"])
}

func TestFund(t *testing.T) {
	g := newFakeGateway()
	srv := newTestServer(g, Options{})
	defer srv.Close()

	h := bearer("addr1")
	h[common.IdempotencyHeaderName] = "key-1"
	h["Content-Type"] = "application/json"

	resp, _ := do(t, http.MethodPost, srv.URL+"/account/fund", []byte(`{"amount":107}`), h)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "key-1", g.fundKey)

	g.fundErr = common.ErrInsufficientFunds
	resp, _ = do(t, http.MethodPost, srv.URL+"/account/fund", []byte(`{"amount":107}`), h)
	assert.Equal(t, http.StatusPaymentRequired, resp.StatusCode)
}

func TestStoreAndRetrieve(t *testing.T) {
	g := newFakeGateway()
	srv := newTestServer(g, Options{})
	defer srv.Close()

	tags, _ := json.Marshal([]models.Tag{{Name: "Content-Type", Value: "text/plain"}})
	h := bearer("addr1")
	h[common.TagsHeaderName] = base64.StdEncoding.EncodeToString(tags)
	h["Content-Type"] = "application/octet-stream"

	resp, body := do(t, http.MethodPost, srv.URL+"/tx", []byte("cipher"), h)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, services.StorageID("addr1", []byte("cipher")), out.ID)
	assert.Equal(t, []models.Tag{{Name: "Content-Type", Value: "text/plain"}}, g.tags)

	resp, body = do(t, http.MethodGet, srv.URL+"/"+out.ID, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/plain", resp.Header.Get("Content-Type"))
	assert.Equal(t, "cipher", string(body))

	resp, _ = do(t, http.MethodGet, srv.URL+"/unknown", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStore_Errors(t *testing.T) {
	g := newFakeGateway()
	srv := newTestServer(g, Options{})
	defer srv.Close()

	h := bearer("addr1")
	h[common.TagsHeaderName] = "%%%"
	resp, _ := do(t, http.MethodPost, srv.URL+"/tx", []byte("x"), h)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	delete(h, common.TagsHeaderName)
	g.storeErr = common.ErrInsufficientFunds
	resp, _ = do(t, http.MethodPost, srv.URL+"/tx", []byte("x"), h)
	assert.Equal(t, http.StatusPaymentRequired, resp.StatusCode)
}

func TestRetrieve_DefaultContentType(t *testing.T) {
	g := newFakeGateway()
	g.objects["raw"] = []byte{1, 2, 3}
	srv := newTestServer(g, Options{})
	defer srv.Close()

	resp, _ := do(t, http.MethodGet, srv.URL+"/raw", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/octet-stream", resp.Header.Get("Content-Type"))
}

func TestRetrieve_RateLimited(t *testing.T) {
	g := newFakeGateway()
	g.objects["raw"] = []byte{1}
	srv := newTestServer(g, Options{RetrievalRate: 0.001, RetrievalBurst: 2})
	defer srv.Close()

	for i := 0; i < 2; i++ {
		resp, _ := do(t, http.MethodGet, srv.URL+"/raw", nil, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	resp, _ := do(t, http.MethodGet, srv.URL+"/raw", nil, nil)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestInternalErrorNotEchoed(t *testing.T) {
	g := newFakeGateway()
	g.fundErr = assert.AnError
	srv := newTestServer(g, Options{})
	defer srv.Close()

	h := bearer("addr1")
	h[common.IdempotencyHeaderName] = "k"
	resp, body := do(t, http.MethodPost, srv.URL+"/account/fund", []byte(`{"amount":1}`), h)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.NotContains(t, string(body), assert.AnError.Error())
}
