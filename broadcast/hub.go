package broadcast

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Client はルームのトピックを購読しているWebSocket接続1本分です。
type Client struct {
	Conn   *websocket.Conn
	RoomID string
	Player string
	send   chan []byte
}

// Event は配信メッセージの封筒です。channelは "room" / "vote" / "leader"。
type Event struct {
	Channel string      `json:"channel"`
	Payload interface{} `json:"payload"`
}

// Hub はルームIDごとのトピックにイベントをファンアウトします。
// 配信は投げっぱなしで、遅いクライアントがいても状態変更側は止まりません。
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]bool // キー: ルームID
	logger  *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]bool),
		logger:  logger,
	}
}

// Register はクライアントをルームのトピックに加え、送信ゴルーチンを起動します。
func (h *Hub) Register(client *Client) {
	client.send = make(chan []byte, 16)
	h.mu.Lock()
	if h.clients[client.RoomID] == nil {
		h.clients[client.RoomID] = make(map[*Client]bool)
	}
	h.clients[client.RoomID][client] = true
	h.mu.Unlock()
	h.logger.Info("Client subscribed",
		zap.String("roomID", client.RoomID), zap.String("player", client.Player))

	go h.writePump(client)
	go h.readPump(client)
}

// Unregister はクライアントをトピックから外し、接続を閉じます。
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	if room, ok := h.clients[client.RoomID]; ok {
		if _, ok := room[client]; ok {
			delete(room, client)
			close(client.send)
			if len(room) == 0 {
				delete(h.clients, client.RoomID)
			}
		}
	}
	h.mu.Unlock()
	client.Conn.Close()
}

// Publish はルームのトピックへイベントを配信します。
// バッファが詰まっているクライアントへの配信は落とします（ブロックしない）。
func (h *Hub) Publish(roomID, channel string, payload interface{}) {
	message, err := json.Marshal(Event{Channel: channel, Payload: payload})
	if err != nil {
		h.logger.Error("Failed to marshal event", zap.String("channel", channel), zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients[roomID] {
		select {
		case client.send <- message:
		default:
			h.logger.Warn("Dropping event for slow client",
				zap.String("roomID", roomID), zap.String("player", client.Player))
		}
	}
}

// writePump はキューされたメッセージの書き出しと定期Pingを担います。
func (h *Hub) writePump(client *Client) {
	pingPeriod := 10 * time.Second
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		h.Unregister(client)
	}()

	for {
		select {
		case message, ok := <-client.send:
			if !ok {
				client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				h.logger.Error("Failed to write to client", zap.Error(err))
				return
			}
		case <-ticker.C:
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump は受信デッドラインの更新と切断検知のためだけに読み続けます。
// クライアントからの入力はHTTP側で受けるため、ここでは捨てます。
func (h *Hub) readPump(client *Client) {
	defer h.Unregister(client)

	client.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	client.Conn.SetPongHandler(func(string) error {
		client.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})
	for {
		if _, _, err := client.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Error("WebSocket error", zap.Error(err))
			}
			return
		}
	}
}
