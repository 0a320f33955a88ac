package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spinwheel/app/services"
	"spinwheel/pkg/chain"
	"spinwheel/pkg/config"
	"spinwheel/pkg/database/dbtest"
	"spinwheel/pkg/wheel"
)

const wallet = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"

type stubSender struct{ err error }

func (s *stubSender) Send(context.Context, string, int64) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "0x" + fmt.Sprintf("%064d", 1), nil
}

type stubVerifier struct{ paid map[string]int64 }

func (v *stubVerifier) Inspect(_ context.Context, hash string) (*chain.Transfer, error) {
	amount, ok := v.paid[hash]
	if !ok {
		return nil, fmt.Errorf("%w: not found", chain.ErrInvalidTransfer)
	}
	return &chain.Transfer{TxHash: hash, From: common.HexToAddress(wallet), Amount: amount, Exact: true}, nil
}

func (v *stubVerifier) Verify(ctx context.Context, _ string, hash string, cost int64) (*chain.Transfer, error) {
	t, err := v.Inspect(ctx, hash)
	if err != nil {
		return nil, err
	}
	if t.Amount < cost {
		return nil, fmt.Errorf("%w: underpaid", chain.ErrInvalidTransfer)
	}
	return t, nil
}

type envelope struct {
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

type apiFixture struct {
	router   *gin.Engine
	sender   *stubSender
	verifier *stubVerifier
}

func newAPI(t *testing.T, prizes ...wheel.Prize) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	config.Set("app.env", "testing")
	config.Set("app.admin_token", "secret")

	table := wheel.DefaultPrizeTable()
	if len(prizes) > 0 {
		var err error
		table, err = wheel.NewPrizeTable(prizes)
		require.NoError(t, err)
	}

	f := &apiFixture{
		router:   gin.New(),
		sender:   &stubSender{},
		verifier: &stubVerifier{paid: map[string]int64{}},
	}
	svc := services.NewContainer(services.Deps{
		DB:                 dbtest.New(t),
		Clock:              wheel.SystemClock{Loc: time.UTC},
		Prizes:             table,
		Sender:             f.sender,
		Verifier:           f.verifier,
		DistributionWallet: "0xBc0c054066966a7A6C875981a18376e2296e5815",
	})
	RegisterAPIRoutes(f.router, svc)
	f.router.NoRoute(NotFound)
	return f
}

func (f *apiFixture) do(t *testing.T, method, path string, body interface{}, headers ...string) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w.Code, env
}

func TestConnectAndStatus(t *testing.T) {
	api := newAPI(t)

	code, env := api.do(t, "POST", "/v1/wheel/connect", gin.H{"wallet_address": wallet})
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"created":true`)

	code, env = api.do(t, "GET", "/v1/wheel/users/"+wallet, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"spins_available":1`)

	code, _ = api.do(t, "GET", "/v1/wheel/users/0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, env = api.do(t, "POST", "/v1/wheel/connect", gin.H{"wallet_address": "0x12"})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Contains(t, string(env.Data), "wallet_address")
}

func TestSpinEndpoint(t *testing.T) {
	api := newAPI(t, wheel.Prize{Label: "NO PRIZE", Kind: wheel.KindNone, Weight: 1})

	code, env := api.do(t, "POST", "/v1/wheel/spin", gin.H{"wallet_address": wallet})
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"source":"free"`)

	code, env = api.do(t, "POST", "/v1/wheel/spin", gin.H{"wallet_address": wallet})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, services.ErrNoSpinsAvailable.Error(), env.Error)
}

func TestSpinTransferFailureStillShowsPrize(t *testing.T) {
	api := newAPI(t, wheel.Prize{Label: "10 GKY", Kind: wheel.KindToken, Amount: 10, Weight: 1})
	api.sender.err = errors.New("nonce too low")

	code, env := api.do(t, "POST", "/v1/wheel/spin", gin.H{"wallet_address": wallet})
	assert.Equal(t, http.StatusBadGateway, code)
	assert.Contains(t, string(env.Data), `"label":"10 GKY"`)
	assert.Contains(t, string(env.Data), `"transfer_status":"failed"`)

	code, env = api.do(t, "GET", "/v1/admin/payouts/"+wallet, nil, "X-Admin-Token", "secret")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"status":"failed"`)
	assert.Contains(t, string(env.Data), `"last_error":"nonce too low"`)

	code, _ = api.do(t, "GET", "/v1/admin/payouts/not-a-wallet", nil, "X-Admin-Token", "secret")
	assert.Equal(t, http.StatusUnprocessableEntity, code)
}

func TestPurchaseEndpoint(t *testing.T) {
	api := newAPI(t)
	hash := "0x" + fmt.Sprintf("%064x", 77)
	api.verifier.paid[hash] = 125

	body := gin.H{"wallet_address": wallet, "tx_hash": hash, "spins": 3}
	code, env := api.do(t, "POST", "/v1/wheel/purchases", body)
	require.Equal(t, http.StatusCreated, code)
	assert.Contains(t, string(env.Data), `"extra_spins":3`)

	code, _ = api.do(t, "POST", "/v1/wheel/purchases", body)
	assert.Equal(t, http.StatusConflict, code)

	other := gin.H{"wallet_address": wallet, "tx_hash": "0x" + fmt.Sprintf("%064x", 78)}
	code, _ = api.do(t, "POST", "/v1/wheel/purchases", other)
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	code, _ = api.do(t, "POST", "/v1/wheel/purchases", gin.H{"wallet_address": wallet, "tx_hash": "nope"})
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	code, env = api.do(t, "GET", "/v1/admin/report", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, env = api.do(t, "GET", "/v1/admin/report", nil, "X-Admin-Token", "secret")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"total_in":125`)
}

func TestShareTaskEndpoint(t *testing.T) {
	api := newAPI(t)

	code, _ := api.do(t, "POST", "/v1/wheel/share-task", gin.H{"wallet_address": wallet})
	assert.Equal(t, http.StatusNotFound, code)

	_, _ = api.do(t, "POST", "/v1/wheel/connect", gin.H{"wallet_address": wallet})

	code, _ = api.do(t, "POST", "/v1/wheel/share-task", gin.H{"wallet_address": wallet})
	assert.Equal(t, http.StatusOK, code)

	code, env := api.do(t, "POST", "/v1/wheel/share-task", gin.H{"wallet_address": wallet})
	assert.Equal(t, http.StatusConflict, code)
	assert.Contains(t, string(env.Data), "retry_in_seconds")
}

func TestCatalogEndpoints(t *testing.T) {
	api := newAPI(t)

	code, env := api.do(t, "GET", "/v1/wheel/prizes", nil)
	require.Equal(t, http.StatusOK, code)
	var prizes []map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &prizes))
	assert.Len(t, prizes, len(wheel.DefaultPrizeTable().Entries))

	code, env = api.do(t, "GET", "/v1/wheel/packs", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"pay_to":"0xBc0c054066966a7A6C875981a18376e2296e5815"`)

	code, _ = api.do(t, "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = api.do(t, "GET", "/v1/nothing", nil)
	assert.Equal(t, http.StatusNotFound, code)
}
