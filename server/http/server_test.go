package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"gamehub/auth"
	"gamehub/contract"
	"gamehub/domain"
	"gamehub/observability"
	"gamehub/repositories"
	"gamehub/runtime"
	"gamehub/services"
)

type noopSender struct{}

func (noopSender) SendToUser(string, []byte) bool { return true }

type noopGame struct{}

func (noopGame) HandleConnected(string)       {}
func (noopGame) HandleDisconnected(string)    {}
func (noopGame) HandleMessage(string, []byte) {}

func newServerUnderTest(t *testing.T) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokens := auth.NewTokenManager("test-secret", "gamehub", time.Hour)
	authService := services.NewAuthService(repositories.NewInMemoryUserRepository(), tokens)

	factory := func(string, contract.Sender) contract.Game { return noopGame{} }
	router := runtime.NewRouter(logger, noopSender{}, factory, 16, time.Second, observability.NewMetrics())
	t.Cleanup(router.StopAll)

	mux := http.NewServeMux()
	NewServer(logger, authService, router, time.Hour).Register(mux,
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotImplemented)
		}))

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestServer_Register_Sets_Auth_Cookie(t *testing.T) {
	req := require.New(t)
	server := newServerUnderTest(t)

	// When a new account registers
	resp := postJSON(t, server.URL+"/auth/register",
		map[string]string{"email": "alice@example.com", "password": "sup3rsecret"})

	// Then the credentials come back in the body and as a cookie
	req.Equal(http.StatusCreated, resp.StatusCode)
	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "authToken" {
			cookie = c
		}
	}
	req.NotNil(cookie)
	body := decodeBody[credentialsResponse](t, resp)
	req.NotEmpty(body.UserID)
	req.Equal(body.Token, cookie.Value)
}

func TestServer_Register_Rejects_Duplicate_Email(t *testing.T) {
	req := require.New(t)
	server := newServerUnderTest(t)
	payload := map[string]string{"email": "alice@example.com", "password": "sup3rsecret"}
	first := postJSON(t, server.URL+"/auth/register", payload)
	first.Body.Close()

	resp := postJSON(t, server.URL+"/auth/register", payload)
	defer resp.Body.Close()

	req.Equal(http.StatusConflict, resp.StatusCode)
}

func TestServer_Login_Round_Trip(t *testing.T) {
	req := require.New(t)
	server := newServerUnderTest(t)
	registered := postJSON(t, server.URL+"/auth/register",
		map[string]string{"email": "alice@example.com", "password": "sup3rsecret"})
	registeredBody := decodeBody[credentialsResponse](t, registered)

	// When logging in with the same credentials
	resp := postJSON(t, server.URL+"/auth/login",
		map[string]string{"email": "alice@example.com", "password": "sup3rsecret"})

	req.Equal(http.StatusOK, resp.StatusCode)
	body := decodeBody[credentialsResponse](t, resp)
	req.Equal(registeredBody.UserID, body.UserID)
}

func TestServer_Login_Wrong_Password(t *testing.T) {
	req := require.New(t)
	server := newServerUnderTest(t)
	registered := postJSON(t, server.URL+"/auth/register",
		map[string]string{"email": "alice@example.com", "password": "sup3rsecret"})
	registered.Body.Close()

	resp := postJSON(t, server.URL+"/auth/login",
		map[string]string{"email": "alice@example.com", "password": "wr0ng"})
	defer resp.Body.Close()

	req.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func TestServer_Game_Lifecycle(t *testing.T) {
	req := require.New(t)
	server := newServerUnderTest(t)

	// When a game is created
	created := postJSON(t, server.URL+"/games", map[string]string{"playerId": "alice", "name": "Lobby"})
	req.Equal(http.StatusCreated, created.StatusCode)
	gameID := decodeBody[createGameResponse](t, created).GameID
	req.NotEmpty(gameID)

	// Then it shows up in the listing
	listed, err := http.Get(server.URL + "/games")
	req.NoError(err)
	games := decodeBody[[]domain.GameInfo](t, listed)
	req.Len(games, 1)
	req.Equal("Lobby", games[0].Name)

	// And a player can join it
	joined := postJSON(t, server.URL+"/games/join", map[string]string{"playerId": "alice", "gameId": gameID})
	joined.Body.Close()
	req.Equal(http.StatusNoContent, joined.StatusCode)

	// And deleting it empties the listing
	deleteReq, err := http.NewRequest(http.MethodDelete, server.URL+"/games/"+gameID, nil)
	req.NoError(err)
	deleted, err := http.DefaultClient.Do(deleteReq)
	req.NoError(err)
	deleted.Body.Close()
	req.Equal(http.StatusNoContent, deleted.StatusCode)

	listedAgain, err := http.Get(server.URL + "/games")
	req.NoError(err)
	req.Empty(decodeBody[[]domain.GameInfo](t, listedAgain))
}

func TestServer_Join_Unknown_Game_Is_404(t *testing.T) {
	req := require.New(t)
	server := newServerUnderTest(t)

	resp := postJSON(t, server.URL+"/games/join", map[string]string{"playerId": "alice", "gameId": "game-404"})
	defer resp.Body.Close()

	req.Equal(http.StatusNotFound, resp.StatusCode)
}

func TestServer_Bad_JSON_Is_400(t *testing.T) {
	req := require.New(t)
	server := newServerUnderTest(t)

	resp, err := http.Post(server.URL+"/games", "application/json", bytes.NewReader([]byte("{broken")))
	req.NoError(err)
	defer resp.Body.Close()

	req.Equal(http.StatusBadRequest, resp.StatusCode)
}

func TestServer_Healthz(t *testing.T) {
	req := require.New(t)
	server := newServerUnderTest(t)

	resp, err := http.Get(server.URL + "/healthz")
	req.NoError(err)
	defer resp.Body.Close()

	req.Equal(http.StatusOK, resp.StatusCode)
}
