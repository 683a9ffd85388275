package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/olekukonko/tablewriter"

	"gamehub/domain"
	"gamehub/protocol"
)

// Terminal chat client. Registers or logs in over REST, joins a game, then
// speaks the realtime protocol over a websocket. Commands start with a slash;
// anything else is sent as a chat message.
type Config struct {
	ServerURL string `env:"SERVER_URL,default=http://localhost:8080"`
	Email     string `env:"CLIENT_EMAIL,required=true"`
	Password  string `env:"CLIENT_PASSWORD,required=true"`
	GameID    string `env:"GAME_ID"`
	GameName  string `env:"GAME_NAME,default=Lobby"`
}

type credentials struct {
	UserID string `json:"userId"`
	Token  string `json:"token"`
}

func main() {
	if err := run(); err != nil {
		color.Red.Println(err)
		os.Exit(1)
	}
}

func run() error {
	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	creds, err := authenticate(cfg)
	if err != nil {
		return err
	}
	color.Green.Printf("Authenticated as %s\n", creds.UserID)

	gameID, err := pickGame(cfg, creds)
	if err != nil {
		return err
	}
	color.Green.Printf("Joined %s\n", gameID)

	socket, err := dial(cfg, creds.Token)
	if err != nil {
		return err
	}
	defer socket.Close()

	go receive(socket)
	return prompt(socket)
}

// authenticate logs in, registering first when the account does not exist yet.
func authenticate(cfg Config) (credentials, error) {
	creds, err := postCredentials(cfg, "/auth/login")
	if err == nil {
		return creds, nil
	}
	return postCredentials(cfg, "/auth/register")
}

func postCredentials(cfg Config, path string) (credentials, error) {
	body, _ := json.Marshal(map[string]string{"email": cfg.Email, "password": cfg.Password})
	resp, err := http.Post(cfg.ServerURL+path, "application/json", bytes.NewReader(body))
	if err != nil {
		return credentials{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return credentials{}, fmt.Errorf("%s refused: %s", path, resp.Status)
	}
	var creds credentials
	if err := json.NewDecoder(resp.Body).Decode(&creds); err != nil {
		return credentials{}, err
	}
	return creds, nil
}

// pickGame joins the configured game, or creates one when none is set.
func pickGame(cfg Config, creds credentials) (string, error) {
	gameID := cfg.GameID
	if gameID == "" {
		body, _ := json.Marshal(map[string]string{"playerId": creds.UserID, "name": cfg.GameName})
		resp, err := http.Post(cfg.ServerURL+"/games", "application/json", bytes.NewReader(body))
		if err != nil {
			return "", err
		}
		defer resp.Body.Close()

		var created struct {
			GameID string `json:"gameId"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
			return "", err
		}
		gameID = created.GameID
	}

	body, _ := json.Marshal(map[string]string{"playerId": creds.UserID, "gameId": gameID})
	resp, err := http.Post(cfg.ServerURL+"/games/join", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("join refused: %s", resp.Status)
	}
	return gameID, nil
}

func dial(cfg Config, token string) (*websocket.Conn, error) {
	parsed, err := url.Parse(cfg.ServerURL)
	if err != nil {
		return nil, err
	}
	scheme := "ws"
	if parsed.Scheme == "https" {
		scheme = "wss"
	}
	endpoint := url.URL{Scheme: scheme, Host: parsed.Host, Path: "/ws", RawQuery: "token=" + url.QueryEscape(token)}

	socket, _, err := websocket.DefaultDialer.Dial(endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial failed: %w", err)
	}
	return socket, nil
}

// receive prints server frames until the socket closes.
func receive(socket *websocket.Conn) {
	for {
		_, payload, err := socket.ReadMessage()
		if err != nil {
			color.Yellow.Println("Connection closed")
			os.Exit(0)
		}
		render(payload)
	}
}

func render(payload []byte) {
	decoded, err := protocol.Decode(payload)
	if err != nil {
		return
	}

	switch msg := decoded.(type) {
	case *protocol.MessageReceived:
		color.Cyan.Printf("%s: ", msg.ScreenName)
		fmt.Println(msg.Message)
	case *protocol.PlayerJoined:
		color.Green.Printf("-> %s joined\n", msg.ScreenName)
	case *protocol.PlayerLeft:
		color.Yellow.Printf("<- %s left\n", msg.ScreenName)
	case *protocol.GetMessagesResponse:
		renderHistory(msg.Messages)
	case *protocol.GetPlayersResponse:
		renderPlayers(msg.ScreenNames)
	case *protocol.TokenVerificationResponse:
		if msg.Success {
			color.Green.Println("Token verified")
		} else {
			color.Red.Printf("Token rejected: %s\n", msg.Message)
		}
	}
}

func renderHistory(entries []protocol.ChatEntry) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Player", "Message"})
	for _, entry := range entries {
		table.Append([]string{entry.ScreenName, entry.Message})
	}
	table.Render()
}

func renderPlayers(names []string) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Players"})
	for _, name := range names {
		table.Append([]string{name})
	}
	table.Render()
}

func listGames(serverURL string) {
	resp, err := http.Get(serverURL + "/games")
	if err != nil {
		color.Red.Println(err)
		return
	}
	defer resp.Body.Close()

	var games []domain.GameInfo
	if err := json.NewDecoder(resp.Body).Decode(&games); err != nil {
		color.Red.Println(err)
		return
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Name", "Created"})
	for _, g := range games {
		table.Append([]string{g.ID, g.Name, g.CreatedAt.Format(time.RFC3339)})
	}
	table.Render()
}

func prompt(socket *websocket.Conn) error {
	color.Gray.Println("Commands: /name <n>  /players  /history  /games  /quit")

	var cfg Config
	_, _ = env.UnmarshalFromEnviron(&cfg)

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var message any
		switch {
		case line == "/quit":
			return nil
		case line == "/players":
			message = protocol.NewGetPlayers()
		case line == "/history":
			message = protocol.NewGetMessages()
		case line == "/games":
			listGames(cfg.ServerURL)
			continue
		case strings.HasPrefix(line, "/name "):
			message = protocol.NewSetScreenName(strings.TrimSpace(strings.TrimPrefix(line, "/name ")))
		default:
			message = protocol.NewSendMessage(line)
		}

		raw, err := protocol.Encode(message)
		if err != nil {
			color.Red.Println(err)
			continue
		}
		if err := socket.WriteMessage(websocket.TextMessage, raw); err != nil {
			return fmt.Errorf("write failed: %w", err)
		}
	}
	return scanner.Err()
}
