package main

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strings"

	"github.com/gorilla/websocket"
)

const (
	MsgTypeLogin          = 2
	MsgTypeOpenChest      = 107
	MsgTypeBeginEncounter = 201
	MsgTypeAnswer         = 202
	MsgTypeClaimDaily     = 224
	MsgTypeClaimOffline   = 225
)

// send formats and sends a message to the WebSocket server.
func send(c *websocket.Conn, msgID uint16, data []byte) error {
	packet := make([]byte, 4+len(data))
	binary.BigEndian.PutUint16(packet[0:2], msgID)
	binary.BigEndian.PutUint16(packet[2:4], uint16(len(data)))
	copy(packet[4:], data)

	return c.WriteMessage(websocket.BinaryMessage, packet)
}

func main() {
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	u := url.URL{Scheme: "ws", Host: "localhost:8080", Path: "/ws"}
	log.Printf("Connecting to %s", u.String())

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Dial failed: %v", err)
	}
	defer c.Close()

	done := make(chan struct{})

	// Read loop
	go func() {
		defer close(done)
		for {
			_, message, err := c.ReadMessage()
			if err != nil {
				log.Println("Read error:", err)
				return
			}
			if len(message) < 4 {
				log.Printf("Received invalid packet of size %d", len(message))
				continue
			}
			msgID := binary.BigEndian.Uint16(message[0:2])
			data := message[4:]
			log.Printf("<- RECV (ID: %d): %s", msgID, string(data))
		}
	}()

	playerID := "tester"
	if len(os.Args) > 1 {
		playerID = os.Args[1]
	}

	login, _ := json.Marshal(map[string]string{"player_id": playerID})
	log.Printf("Logging in as %s...", playerID)
	if err := send(c, MsgTypeLogin, login); err != nil {
		log.Println("Write error:", err)
		return
	}

	log.Println("Commands: fight, right, wrong, chest, daily, offline")

	reader := bufio.NewReader(os.Stdin)
	for {
		select {
		case <-done:
			return
		case <-interrupt:
			log.Println("Interrupted, closing connection.")
			c.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		default:
		}

		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}

		switch strings.TrimSpace(line) {
		case "fight":
			send(c, MsgTypeBeginEncounter, []byte{})
		case "right":
			payload, _ := json.Marshal(map[string]interface{}{"correct": true, "category": "manual"})
			send(c, MsgTypeAnswer, payload)
		case "wrong":
			payload, _ := json.Marshal(map[string]interface{}{"correct": false, "category": "manual"})
			send(c, MsgTypeAnswer, payload)
		case "chest":
			payload, _ := json.Marshal(map[string]int64{"cost": 100})
			send(c, MsgTypeOpenChest, payload)
		case "daily":
			send(c, MsgTypeClaimDaily, []byte{})
		case "offline":
			send(c, MsgTypeClaimOffline, []byte{})
		}
	}
}
