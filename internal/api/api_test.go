package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pinch-protocol/ss58/internal/api"
	"github.com/pinch-protocol/ss58/internal/convert"
	"github.com/pinch-protocol/ss58/internal/hub"
	"github.com/pinch-protocol/ss58/internal/registry"
	"github.com/pinch-protocol/ss58/internal/store"
)

const alice42 = "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY"

type fixture struct {
	srv *httptest.Server
	hub *hub.Hub
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	db, err := store.OpenDB(filepath.Join(t.TempDir(), "ss58.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	networks, err := store.NewNetworkStore(db)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	svc := convert.New(
		convert.WithRegistry(registry.Chain{networks, registry.Builtin()}),
		convert.WithMetrics(convert.NewMetrics(reg)),
	)
	h := hub.NewHub(svc, hub.Limits{})
	go h.Run(ctx)

	srv := httptest.NewServer(api.NewRouter(ctx, api.Config{
		Service:  svc,
		Builtin:  registry.Builtin(),
		Networks: networks,
		Hub:      h,
		Gatherer: reg,
	}))
	t.Cleanup(srv.Close)
	return &fixture{srv: srv, hub: h}
}

func (f *fixture) do(t *testing.T, method, path, body string) (int, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, f.srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp.StatusCode, out
}

func TestEncodeEndpoint(t *testing.T) {
	f := newFixture(t)

	status, body := f.do(t, http.MethodPost, "/v1/encode",
		`{"payload":"0xd43593c715fdd31c61141abd04a99fd6822c8558854ccde39a5684e7a56da27d"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, alice42, body["address"])
	assert.Equal(t, float64(42), body["prefix"])
	assert.Equal(t, "substrate", body["network"])

	status, body = f.do(t, http.MethodPost, "/v1/encode", `{"payload":"0x01","format":2}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "g4b", body["address"])
}

func TestEncodeEndpointErrors(t *testing.T) {
	f := newFixture(t)

	status, body := f.do(t, http.MethodPost, "/v1/encode", `{"payload":"0x010203","format":42}`)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "invalid_length", body["kind"])

	status, body = f.do(t, http.MethodPost, "/v1/encode", `{"payload":"0x01","format":16384}`)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "invalid_prefix", body["kind"])

	status, body = f.do(t, http.MethodPost, "/v1/encode", `{"payload":`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "bad_request", body["kind"])

	status, body = f.do(t, http.MethodPost, "/v1/encode", `{"payload":"0x01","color":"red"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "bad_request", body["kind"])
}

func TestDecodeEndpoint(t *testing.T) {
	f := newFixture(t)

	status, body := f.do(t, http.MethodPost, "/v1/decode", `{"address":"`+alice42+`","expect":[42]}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "0xd43593c715fdd31c61141abd04a99fd6822c8558854ccde39a5684e7a56da27d", body["payload"])
	assert.Equal(t, float64(42), body["prefix"])

	status, body = f.do(t, http.MethodPost, "/v1/decode", `{"address":"`+alice42+`","expect":[0,2]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "unexpected_prefix", body["kind"])

	status, body = f.do(t, http.MethodPost, "/v1/decode", `{"address":"5GoKvZWG5ZPYL1WUovuHW3zJBWBP5eT8CbqjdRY4Q6iMa9cj"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "checksum_mismatch", body["kind"])

	status, body = f.do(t, http.MethodPost, "/v1/decode", `{"address":"F3opIRbN5ZbjJNU511Kj2TLuzFcDq9BGduA9TgiECafpg29"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "invalid_encoding", body["kind"])
	assert.Contains(t, body["error"], `invalid base58 character "I"`)

	// Hex literals carry no prefix.
	status, body = f.do(t, http.MethodPost, "/v1/decode", `{"address":"0x0102"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "0x0102", body["payload"])
	assert.NotContains(t, body, "prefix")
}

func TestConvertEndpoint(t *testing.T) {
	f := newFixture(t)

	status, body := f.do(t, http.MethodPost, "/v1/convert", `{"address":"`+alice42+`","format":0}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "15oF4uVJwmo4TdGW7VfQxNLavjCXviqxT9S1MgbjMNHr6Sp5", body["address"])
	assert.Equal(t, "polkadot", body["network"])
}

func TestNetworkEndpoints(t *testing.T) {
	f := newFixture(t)

	status, body := f.do(t, http.MethodGet, "/v1/networks/0", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "polkadot", body["network"])
	assert.Equal(t, false, body["custom"])

	status, body = f.do(t, http.MethodGet, "/v1/networks/1000", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "not_found", body["kind"])

	status, body = f.do(t, http.MethodGet, "/v1/networks/polkadot", "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = f.do(t, http.MethodPut, "/v1/networks/1000", `{"network":"testnet","displayName":"Test Network"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["custom"])

	status, body = f.do(t, http.MethodGet, "/v1/networks/1000", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "testnet", body["network"])
	assert.Equal(t, true, body["custom"])

	// Custom networks name encode results.
	status, body = f.do(t, http.MethodPost, "/v1/encode", `{"payload":"0x01","format":1000}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "testnet", body["network"])

	status, _ = f.do(t, http.MethodDelete, "/v1/networks/1000", "")
	assert.Equal(t, http.StatusNoContent, status)
	status, _ = f.do(t, http.MethodDelete, "/v1/networks/1000", "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestPutNetworkRejections(t *testing.T) {
	f := newFixture(t)

	status, body := f.do(t, http.MethodPut, "/v1/networks/0", `{"network":"mine"}`)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "conflict", body["kind"])

	status, body = f.do(t, http.MethodPut, "/v1/networks/2000", `{"network":""}`)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "invalid_network", body["kind"])

	status, body = f.do(t, http.MethodPut, "/v1/networks/16384", `{"network":"far"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "invalid_network", body["kind"])
}

func TestListNetworks(t *testing.T) {
	f := newFixture(t)
	status, _ := f.do(t, http.MethodPut, "/v1/networks/3000", `{"network":"appchain"}`)
	require.Equal(t, http.StatusOK, status)

	resp, err := http.Get(f.srv.URL + "/v1/networks")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list []struct {
		Prefix  int    `json:"prefix"`
		Network string `json:"network"`
		Custom  bool   `json:"custom"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Len(t, list, len(registry.Builtin().Networks())+1)
	last := list[len(list)-1]
	assert.Equal(t, 3000, last.Prefix)
	assert.Equal(t, "appchain", last.Network)
	assert.True(t, last.Custom)
}

func TestHealthAndMetrics(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/v1/encode", `{"payload":"0x01","format":2}`)

	status, body := f.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "goroutines")
	assert.Equal(t, float64(0), body["sessions"])

	resp, err := http.Get(f.srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `ss58_operations_total{op="encode",result="ok"} 1`)
}

func TestWebSocketSession(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/ws"
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer conn.CloseNow()

	require.NoError(t, conn.Write(ctx, websocket.MessageText,
		[]byte(`{"id":"a","op":"convert","address":"`+alice42+`","format":2}`)))
	_, data, err := conn.Read(ctx)
	require.NoError(t, err)

	var resp hub.Response
	require.NoError(t, json.Unmarshal(data, &resp))
	assert.Equal(t, "a", resp.ID)
	require.NotNil(t, resp.Result)
	assert.Equal(t, "HNZata7iMYWmk5RvZRTiAsSDhV8366zq2YGb3tLH5Upf74F", resp.Result.Address)
	require.Eventually(t, func() bool { return f.hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Write(ctx, websocket.MessageBinary, []byte{1, 2, 3}))
	_, data, err = conn.Read(ctx)
	require.NoError(t, err)
	var rejected hub.Response
	require.NoError(t, json.Unmarshal(data, &rejected))
	assert.Equal(t, "bad_request", rejected.Kind)
	assert.Nil(t, rejected.Result)

	require.NoError(t, conn.Close(websocket.StatusNormalClosure, ""))
	require.Eventually(t, func() bool { return f.hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}
