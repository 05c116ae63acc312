package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/dmitrijs2005/healthkey/internal/common"
	"github.com/dmitrijs2005/healthkey/internal/logging"
	"github.com/dmitrijs2005/healthkey/internal/netx"
	"github.com/dmitrijs2005/healthkey/internal/wallet"
	"github.com/google/uuid"
	"github.com/mr-tron/base58"
)

// HTTPGateway talks to the storage gateway over HTTP.
type HTTPGateway struct {
	endpointURL  string
	retrievalURL string
	http         *http.Client
	policy       netx.Policy
	logger       logging.Logger
}

func NewHTTPGateway(endpointURL, retrievalURL string, httpClient *http.Client, policy netx.Policy, logger logging.Logger) *HTTPGateway {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if retrievalURL == "" {
		retrievalURL = endpointURL
	}
	return &HTTPGateway{
		endpointURL:  strings.TrimRight(endpointURL, "/"),
		retrievalURL: strings.TrimRight(retrievalURL, "/"),
		http:         httpClient,
		policy:       policy,
		logger:       logger,
	}
}

type request struct {
	method  string
	path    string
	body    []byte
	headers map[string]string
}

// do sends r with retries and decodes a JSON response into out, when given.
func (g *HTTPGateway) do(ctx context.Context, base string, r request, out any) error {
	return netx.Do(ctx, g.policy, func(ctx context.Context) error {
		var body io.Reader
		if r.body != nil {
			body = bytes.NewReader(r.body)
		}
		req, err := http.NewRequestWithContext(ctx, r.method, base+r.path, body)
		if err != nil {
			return err
		}
		for k, v := range r.headers {
			req.Header.Set(k, v)
		}

		resp, err := g.http.Do(req)
		if err != nil {
			g.logger.Debug(ctx, "gateway request failed", "method", r.method, "path", r.path, "error", err)
			return err
		}
		defer resp.Body.Close()

		if err := netx.CheckResponse(resp); err != nil {
			return err
		}
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	})
}

func (g *HTTPGateway) mapError(err error) error {
	if err == nil {
		return nil
	}
	switch code := netx.StatusCode(err); {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return fmt.Errorf("%w: %w", ErrUnauthorized, err)
	case code == http.StatusPaymentRequired:
		return fmt.Errorf("%w: %w", common.ErrInsufficientFunds, err)
	case code == http.StatusNotFound:
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case netx.IsRetryable(err):
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	default:
		return err
	}
}

func jsonBody(v any) []byte {
	b, _ := json.Marshal(v)
	return b
}

// OpenSession runs the challenge/response handshake: the gateway issues a
// nonce, the wallet signs it, and the signature is exchanged for a token.
func (g *HTTPGateway) OpenSession(ctx context.Context, signer wallet.Signer) (Session, error) {
	s := &httpSession{g: g, signer: signer}
	if err := s.authenticate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Fetch is unauthenticated. The recorded Content-Type tag, if any, comes
// back as the response content type.
func (g *HTTPGateway) Fetch(ctx context.Context, id string) (*Object, error) {
	var obj *Object
	err := netx.Do(ctx, g.policy, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.retrievalURL+"/"+url.PathEscape(id), nil)
		if err != nil {
			return err
		}
		resp, err := g.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if err := netx.CheckResponse(resp); err != nil {
			return err
		}
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		obj = &Object{Data: data, ContentType: resp.Header.Get("Content-Type")}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", id, g.mapError(err))
	}
	return obj, nil
}

type httpSession struct {
	g      *HTTPGateway
	signer wallet.Signer

	mu    sync.Mutex
	token string
}

func (s *httpSession) Address() string { return s.signer.Address() }

func (s *httpSession) authenticate(ctx context.Context) error {
	address := s.signer.Address()

	var challenge struct {
		Nonce string `json:"nonce"`
	}
	q := url.Values{"address": {address}}
	err := s.g.do(ctx, s.g.endpointURL, request{method: http.MethodGet, path: "/session/challenge?" + q.Encode()}, &challenge)
	if err != nil {
		return fmt.Errorf("session challenge: %w", s.g.mapError(err))
	}

	sig, err := s.signer.Sign(ctx, []byte(common.SessionChallengePrefix+challenge.Nonce))
	if err != nil {
		return fmt.Errorf("sign challenge: %w", err)
	}

	var out struct {
		Token string `json:"token"`
	}
	body := jsonBody(map[string]string{
		"address":   address,
		"nonce":     challenge.Nonce,
		"signature": base58.Encode(sig),
	})
	err = s.g.do(ctx, s.g.endpointURL, request{
		method:  http.MethodPost,
		path:    "/session",
		body:    body,
		headers: map[string]string{"Content-Type": "application/json"},
	}, &out)
	if err != nil {
		return fmt.Errorf("open session: %w", s.g.mapError(err))
	}

	s.mu.Lock()
	s.token = out.Token
	s.mu.Unlock()
	return nil
}

// authorized sends r with the session token. A 401 carrying the expired
// token message re-opens the session once and repeats the request.
func (s *httpSession) authorized(ctx context.Context, r request, out any) error {
	send := func() error {
		s.mu.Lock()
		token := s.token
		s.mu.Unlock()

		headers := map[string]string{common.SessionHeaderName: "Bearer " + token}
		for k, v := range r.headers {
			headers[k] = v
		}
		rr := r
		rr.headers = headers
		return s.g.do(ctx, s.g.endpointURL, rr, out)
	}

	err := send()
	if !isTokenExpired(err) {
		return s.g.mapError(err)
	}

	s.g.logger.Debug(ctx, "session expired, re-authenticating", "address", s.signer.Address())
	if err := s.authenticate(ctx); err != nil {
		return err
	}
	return s.g.mapError(send())
}

func isTokenExpired(err error) bool {
	var se *netx.StatusError
	if !errors.As(err, &se) || se.Code != http.StatusUnauthorized {
		return false
	}
	return strings.Contains(se.Body, common.ErrTokenExpired.Error())
}

func (s *httpSession) Price(ctx context.Context, size int) (int64, error) {
	if size < 0 {
		return 0, fmt.Errorf("%w: negative size", common.ErrorValidation)
	}
	var out struct {
		Price int64 `json:"price"`
	}
	err := s.authorized(ctx, request{method: http.MethodGet, path: "/price/" + strconv.Itoa(size)}, &out)
	if err != nil {
		return 0, err
	}
	return out.Price, nil
}

// Fund moves amount into gateway credit. One idempotency key covers all
// retries of a call so a retried request is never charged twice.
func (s *httpSession) Fund(ctx context.Context, amount int64) error {
	return s.authorized(ctx, request{
		method: http.MethodPost,
		path:   "/account/fund",
		body:   jsonBody(map[string]int64{"amount": amount}),
		headers: map[string]string{
			"Content-Type":               "application/json",
			common.IdempotencyHeaderName: uuid.NewString(),
		},
	}, nil)
}

// EncodeTags renders tags for the X-Tags header.
func EncodeTags(tags []Tag) string {
	if len(tags) == 0 {
		return ""
	}
	return base64.StdEncoding.EncodeToString(jsonBody(tags))
}

// DecodeTags parses an X-Tags header value.
func DecodeTags(v string) ([]Tag, error) {
	if v == "" {
		return nil, nil
	}
	raw, err := base64.StdEncoding.DecodeString(v)
	if err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	var tags []Tag
	if err := json.Unmarshal(raw, &tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	return tags, nil
}

func (s *httpSession) Upload(ctx context.Context, data []byte, tags []Tag) (string, error) {
	headers := map[string]string{"Content-Type": "application/octet-stream"}
	if v := EncodeTags(tags); v != "" {
		headers[common.TagsHeaderName] = v
	}

	var out struct {
		ID string `json:"id"`
	}
	err := s.authorized(ctx, request{method: http.MethodPost, path: "/tx", body: data, headers: headers}, &out)
	if err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", errors.New("gateway returned empty id")
	}
	return out.ID, nil
}

func (s *httpSession) Balance(ctx context.Context) (*Balance, error) {
	var b Balance
	if err := s.authorized(ctx, request{method: http.MethodGet, path: "/account/balance"}, &b); err != nil {
		return nil, err
	}
	return &b, nil
}
