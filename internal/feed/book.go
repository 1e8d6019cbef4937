// Package feed streams order-book depth snapshots over a websocket and
// normalizes them into orderflow levels.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bistai/committee-trader/internal/observ"
	"github.com/bistai/committee-trader/internal/orderflow"
)

// Book is one depth snapshot for a symbol, best levels first.
type Book struct {
	Symbol string
	Bids   []orderflow.Level
	Asks   []orderflow.Level
	Time   time.Time
}

// wire format: {"symbol":"THYAO","bids":[[price,qty],...],"asks":[[price,qty],...]}
type bookFrame struct {
	Symbol string       `json:"symbol"`
	Bids   [][2]float64 `json:"bids"`
	Asks   [][2]float64 `json:"asks"`
}

type subscribeFrame struct {
	Op      string   `json:"op"`
	Symbols []string `json:"symbols"`
}

// BookClient consumes depth snapshots from a websocket endpoint. Snapshots
// arrive on Books(); a read failure closes the channel and surfaces on Errs().
type BookClient struct {
	conn *websocket.Conn

	writeMu sync.Mutex // gorilla allows one concurrent writer

	books chan Book
	errs  chan error
	done  chan struct{}
	once  sync.Once

	readTimeout  time.Duration
	writeTimeout time.Duration
	pingInterval time.Duration
}

// Dial connects and starts the read and ping pumps.
func Dial(ctx context.Context, url string) (*BookClient, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial book feed %s: %w", url, err)
	}
	observ.Log("book_feed_connected", map[string]any{"url": url})

	c := &BookClient{
		conn:         conn,
		books:        make(chan Book, 64),
		errs:         make(chan error, 1),
		done:         make(chan struct{}),
		readTimeout:  60 * time.Second,
		writeTimeout: 10 * time.Second,
		pingInterval: 20 * time.Second,
	}

	go c.readPump()
	go c.pingPump()
	return c, nil
}

// Subscribe asks the feed to stream depth for the given symbols.
func (c *BookClient) Subscribe(symbols ...string) error {
	payload, err := json.Marshal(subscribeFrame{Op: "subscribe", Symbols: symbols})
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	return nil
}

// Books is the stream of decoded snapshots. It closes when the connection
// drops or Close is called.
func (c *BookClient) Books() <-chan Book { return c.books }

// Errs reports the terminal read error, if any.
func (c *BookClient) Errs() <-chan error { return c.errs }

func (c *BookClient) Close() error {
	var err error
	c.once.Do(func() {
		close(c.done)
		err = c.conn.Close()
	})
	return err
}

func (c *BookClient) readPump() {
	defer close(c.books)

	c.conn.SetReadLimit(1 << 20)
	c.conn.SetReadDeadline(time.Now().Add(c.readTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.readTimeout))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done: // deliberate close, not an error
			default:
				select {
				case c.errs <- fmt.Errorf("book feed read: %w", err):
				default:
				}
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(c.readTimeout))

		book, err := decodeBook(message)
		if err != nil {
			observ.IncCounter("book_frames_dropped_total", map[string]string{"cause": "decode"})
			continue
		}
		observ.IncCounter("book_frames_total", map[string]string{"symbol": book.Symbol})

		select {
		case c.books <- book:
		case <-c.done:
			return
		}
	}
}

func (c *BookClient) pingPump() {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.writeMu.Lock()
			c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			err := c.conn.WriteMessage(websocket.PingMessage, nil)
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

func decodeBook(message []byte) (Book, error) {
	var frame bookFrame
	if err := json.Unmarshal(message, &frame); err != nil {
		return Book{}, err
	}
	if frame.Symbol == "" {
		return Book{}, fmt.Errorf("frame missing symbol")
	}

	return Book{
		Symbol: frame.Symbol,
		Bids:   toLevels(frame.Bids),
		Asks:   toLevels(frame.Asks),
		Time:   time.Now().UTC(),
	}, nil
}

func toLevels(pairs [][2]float64) []orderflow.Level {
	levels := make([]orderflow.Level, len(pairs))
	for i, p := range pairs {
		levels[i] = orderflow.Level{Price: p[0], Qty: p[1]}
	}
	return levels
}
