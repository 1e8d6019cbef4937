package main

import (
	"encoding/json"
	"flag"
	"log"
	"math/rand"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// bookfeed is a local stand-in for an exchange depth stream. It accepts
// {"op":"subscribe","symbols":[...]} and then emits a synthetic five-level
// book per symbol at a fixed interval.

type subscribeFrame struct {
	Op      string   `json:"op"`
	Symbols []string `json:"symbols"`
}

type bookFrame struct {
	Symbol string       `json:"symbol"`
	Bids   [][2]float64 `json:"bids"`
	Asks   [][2]float64 `json:"asks"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

func main() {
	log.SetFlags(0)

	addr := flag.String("addr", ":8091", "listen address")
	interval := flag.Duration("interval", 500*time.Millisecond, "snapshot interval")
	flag.Parse()

	http.HandleFunc("/book", func(w http.ResponseWriter, r *http.Request) {
		serve(w, r, *interval)
	})

	log.Printf("book feed stub on %s/book", *addr)
	log.Fatal(http.ListenAndServe(*addr, nil))
}

func serve(w http.ResponseWriter, r *http.Request, interval time.Duration) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("upgrade: %v", err)
		return
	}
	defer conn.Close()

	var sub subscribeFrame
	if err := conn.ReadJSON(&sub); err != nil || sub.Op != "subscribe" || len(sub.Symbols) == 0 {
		log.Printf("bad subscribe from %s", r.RemoteAddr)
		return
	}
	log.Printf("%s subscribed to %v", r.RemoteAddr, sub.Symbols)

	// drain control frames so pings keep the connection alive
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	mids := make(map[string]float64, len(sub.Symbols))
	for _, symbol := range sub.Symbols {
		mids[symbol] = 80 + rng.Float64()*60
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		for _, symbol := range sub.Symbols {
			mids[symbol] *= 1 + rng.NormFloat64()*0.001
			frame := synthesize(symbol, mids[symbol], rng)

			payload, err := json.Marshal(frame)
			if err != nil {
				log.Printf("marshal: %v", err)
				return
			}
			conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				log.Printf("%s disconnected", r.RemoteAddr)
				return
			}
		}
	}
}

func synthesize(symbol string, mid float64, rng *rand.Rand) bookFrame {
	const levels = 5
	tick := mid * 0.0005

	frame := bookFrame{Symbol: symbol}
	for i := 1; i <= levels; i++ {
		qty := float64(100 + rng.Intn(900))
		frame.Bids = append(frame.Bids, [2]float64{mid - tick*float64(i), qty})

		qty = float64(100 + rng.Intn(900))
		frame.Asks = append(frame.Asks, [2]float64{mid + tick*float64(i), qty})
	}
	return frame
}
