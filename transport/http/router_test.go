package http

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/json"
	nethttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	gethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/layer-3/gatekeeper/adapters/store"
	"github.com/layer-3/gatekeeper/adapters/tokenizer"
	"github.com/layer-3/gatekeeper/audit"
	"github.com/layer-3/gatekeeper/csrf"
	"github.com/layer-3/gatekeeper/ports"
	"github.com/layer-3/gatekeeper/ratelimit"
	"github.com/layer-3/gatekeeper/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testStack struct {
	router  *gin.Engine
	tokens  ports.Tokenizer
	key     *ecdsa.PrivateKey // wallet key
	address string
}

func newTestStack(t *testing.T, maxRequests int) *testStack {
	t.Helper()

	signKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	auditLog := audit.NewLogger(zerolog.Nop(), nil)
	tokens := tokenizer.NewJWTTokenizer(signKey)
	authService := service.NewAuthService(
		store.NewMemoryStore(),
		tokens,
		auditLog,
		5*time.Minute,
		24*time.Hour,
	)
	csrfManager := csrf.NewManager("0123456789abcdef0123456789abcdef", time.Hour)
	limiter := ratelimit.NewLimiter(time.Minute, maxRequests)
	cookies := NewCookieManager(false)

	walletKey, err := gethcrypto.GenerateKey()
	require.NoError(t, err)

	return &testStack{
		router:  SetupRouter(authService, csrfManager, limiter, cookies, auditLog),
		tokens:  tokens,
		key:     walletKey,
		address: gethcrypto.PubkeyToAddress(walletKey.PublicKey).Hex(),
	}
}

func (s *testStack) do(t *testing.T, method, target string, body any, cookie *nethttp.Cookie, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// login runs the full challenge/sign/verify flow and returns the session cookie.
func (s *testStack) login(t *testing.T) *nethttp.Cookie {
	t.Helper()

	w := s.do(t, "GET", "/auth?address="+s.address, nil, nil, nil)
	require.Equal(t, nethttp.StatusOK, w.Code)

	var challengeResp struct {
		Challenge struct {
			Message string `json:"message"`
		} `json:"challenge"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &challengeResp))
	message := challengeResp.Challenge.Message
	require.NotEmpty(t, message)

	sig, err := gethcrypto.Sign(accounts.TextHash([]byte(message)), s.key)
	require.NoError(t, err)

	w = s.do(t, "POST", "/auth", map[string]string{
		"address":   s.address,
		"signature": hexutil.Encode(sig),
		"message":   message,
	}, nil, nil)
	require.Equal(t, nethttp.StatusOK, w.Code)

	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == SessionCookieName && cookie.Value != "" {
			require.True(t, cookie.HttpOnly)
			require.Equal(t, nethttp.SameSiteStrictMode, cookie.SameSite)
			return cookie
		}
	}
	t.Fatal("no session cookie in login response")
	return nil
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Code
}
