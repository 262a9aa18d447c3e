// Charades
//
// A room is one shared card. Anyone with the room link can draw a prompt from
// a category, drag the card around, flick it away to draw again, or tap it to
// flip it over. The card's gestures are interpreted server side and the
// resulting style changes are pushed to every browser in the room, so a phone
// and a TV showing the same room stay in step.
//
// Features:
// - WebSockets per room: /play/:room and /play/:room/ws
// - Players identified by cookie; each keeps its own record of what it has
//   already drawn, so nobody sees a repeat until a category is exhausted
// - Drawing while a card is showing throws the old card away first and only
//   reveals the new prompt once the old one is gone
// - Pointer input rate limited per connection
// - Rooms auto-reaped after configurable idle timeout
// - Random 8-char room IDs via crypto/rand, with server-side collision check
// - QR code to share the current room, backed by go-qrcode

package main

import (
	"crypto/rand"
	"fmt"
	mrand "math/rand/v2"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Seednode/charades/card"
	"github.com/Seednode/charades/catalog"
	"github.com/Seednode/charades/usage"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
	"golang.org/x/time/rate"
)

// Messages coming from clients
type ClientMessage struct {
	Type       string  `json:"type"`                 // "draw", "pointer", "flip", "reset_category", "reset_all", "settings", "stats"
	Category   string  `json:"category,omitempty"`   // draw / reset_category
	Phase      string  `json:"phase,omitempty"`      // pointer: "down", "move", "up", "cancel"
	X          float64 `json:"x,omitempty"`          // pointer
	Y          float64 `json:"y,omitempty"`          // pointer
	BgColor    *string `json:"bgColor,omitempty"`    // settings
	ScreenWake *bool   `json:"screenWake,omitempty"` // settings
}

type CategoryInfo struct {
	Name  catalog.Category `json:"name"`
	Label string           `json:"label"`
	Count int              `json:"count"`
}

// SessionInfoMessage is sent immediately on connect.
type SessionInfoMessage struct {
	Type       string         `json:"type"` // "session_info"
	Room       string         `json:"room"`
	Categories []CategoryInfo `json:"categories"`
	Palette    []string       `json:"palette"`
	Settings   Settings       `json:"settings"`
}

// ItemMessage carries the prompt to write onto the (hidden) card.
type ItemMessage struct {
	Type        string           `json:"type"` // "item"
	Category    catalog.Category `json:"category"`
	Label       string           `json:"label"`
	Title       string           `json:"title"`
	Year        int              `json:"year,omitempty"`
	Byline      string           `json:"byline"`
	Description string           `json:"description"`
	Genre       []string         `json:"genre,omitempty"`
}

// StyleMessage sets one style property on the card ("card") or on its
// flipping face ("inner").
type StyleMessage struct {
	Type     string `json:"type"` // "style"
	Target   string `json:"target"`
	Property string `json:"property"`
	Value    string `json:"value"`
}

type ClassMessage struct {
	Type   string `json:"type"` // "class"
	Target string `json:"target"`
	Name   string `json:"name"`
	Add    bool   `json:"add"`
}

type StatsMessage struct {
	Type  string                           `json:"type"` // "stats"
	Stats map[catalog.Category]usage.Stats `json:"stats"`
}

type SettingsMessage struct {
	Type     string   `json:"type"` // "settings"
	Settings Settings `json:"settings"`
}

// SimpleMessage is for generic notifications ("error", "reset").
type SimpleMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type Client struct {
	conn    *websocket.Conn
	send    chan any
	player  *Player
	limiter *rate.Limiter
}

type inbound struct {
	client *Client
	msg    ClientMessage
}

type drawRequest struct {
	player   *Player
	category catalog.Category
}

// Room owns one card. Everything except lastActive is touched only by the
// run goroutine, including the card engine, whose timers are delivered back
// onto that goroutine through calls.
type Room struct {
	id      string
	cfg     *Config
	catalog *catalog.Catalog
	clients map[*Client]bool

	register chan *Client
	unreg    chan *Client
	inbox    chan inbound
	calls    chan func()
	quit     chan struct{}
	quitOnce sync.Once

	mu         sync.RWMutex
	lastActive time.Time

	engine  *card.Engine
	surface *roomSurface
	styles  map[string]map[string]string
	classes map[string]map[string]bool

	current  *catalog.Item
	category catalog.Category
	gesturer *Player
	swapping bool
	queued   *drawRequest
}

func newRoom(cfg *Config, c *catalog.Catalog, id string) *Room {
	r := &Room{
		id:         id,
		cfg:        cfg,
		catalog:    c,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unreg:      make(chan *Client),
		inbox:      make(chan inbound, 64),
		calls:      make(chan func(), 16),
		quit:       make(chan struct{}),
		lastActive: time.Now(),
		styles:     map[string]map[string]string{"card": {}, "inner": {}},
		classes:    map[string]map[string]bool{"card": {}, "inner": {}},
	}

	r.surface = &roomSurface{room: r, target: "card"}
	r.engine = card.New(hubClock{room: r})
	r.engine.Bind(r.surface, r.onDismissed)

	return r
}

// hubClock delivers engine timers onto the room's run goroutine.
type hubClock struct {
	room *Room
}

func (c hubClock) AfterFunc(d time.Duration, f func()) card.Timer {
	return time.AfterFunc(d, func() {
		c.room.post(f)
	})
}

// roomSurface applies the engine's style changes to every connected
// browser, and remembers them so late joiners see the same card.
type roomSurface struct {
	room   *Room
	target string
}

func (s *roomSurface) SetStyle(property, value string) {
	s.room.styles[s.target][property] = value

	s.room.broadcast(StyleMessage{
		Type:     "style",
		Target:   s.target,
		Property: property,
		Value:    value,
	})
}

func (s *roomSurface) AddClass(name string) {
	s.room.classes[s.target][name] = true

	s.room.broadcast(ClassMessage{Type: "class", Target: s.target, Name: name, Add: true})
}

func (s *roomSurface) RemoveClass(name string) {
	delete(s.room.classes[s.target], name)

	s.room.broadcast(ClassMessage{Type: "class", Target: s.target, Name: name, Add: false})
}

func (s *roomSurface) Inner() card.Surface {
	if s.target != "card" {
		return nil
	}

	return &roomSurface{room: s.room, target: "inner"}
}

// post runs f on the room goroutine, unless the room has closed.
func (r *Room) post(f func()) {
	select {
	case r.calls <- f:
	case <-r.quit:
	}
}

func (r *Room) touch() {
	r.mu.Lock()
	r.lastActive = time.Now()
	r.mu.Unlock()
}

func (r *Room) idleSince() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.lastActive
}

func (r *Room) close() {
	r.quitOnce.Do(func() {
		close(r.quit)
	})
}

func (r *Room) run() {
	for {
		select {
		case c := <-r.register:
			r.touch()
			r.clients[c] = true
			r.welcome(c)

		case c := <-r.unreg:
			r.touch()
			if _, ok := r.clients[c]; ok {
				delete(r.clients, c)
				close(c.send)
			}

		case in := <-r.inbox:
			r.touch()
			r.handle(in.client, in.msg)

		case f := <-r.calls:
			f()

		case <-r.quit:
			r.engine.Destroy()
			for c := range r.clients {
				close(c.send)
				if c.conn != nil {
					_ = c.conn.Close()
				}
				delete(r.clients, c)
			}
			return
		}
	}
}

// sendTo queues msg for c, dropping a client that has stopped reading.
func (r *Room) sendTo(c *Client, msg any) {
	if !r.clients[c] {
		return
	}

	select {
	case c.send <- msg:
	default:
		delete(r.clients, c)
		close(c.send)
	}
}

func (r *Room) broadcast(msg any) {
	for c := range r.clients {
		r.sendTo(c, msg)
	}
}

func (r *Room) sendToPlayer(p *Player, msg any) {
	for c := range r.clients {
		if c.player == p {
			r.sendTo(c, msg)
		}
	}
}

func categoryInfos(c *catalog.Catalog) []CategoryInfo {
	stats := c.Stats()

	infos := make([]CategoryInfo, 0, len(catalog.Categories))
	for _, category := range catalog.Categories {
		infos = append(infos, CategoryInfo{
			Name:  category,
			Label: category.Label(),
			Count: stats.Counts[category],
		})
	}

	return infos
}

// welcome brings a new connection up to date with the room's card.
func (r *Room) welcome(c *Client) {
	r.sendTo(c, SessionInfoMessage{
		Type:       "session_info",
		Room:       r.id,
		Categories: categoryInfos(r.catalog),
		Palette:    colorPalette,
		Settings:   c.player.Settings(),
	})

	if r.current != nil {
		r.sendTo(c, newItemMessage(*r.current))
	}

	for target, styles := range r.styles {
		for property, value := range styles {
			r.sendTo(c, StyleMessage{Type: "style", Target: target, Property: property, Value: value})
		}
	}

	for target, classes := range r.classes {
		for name := range classes {
			r.sendTo(c, ClassMessage{Type: "class", Target: target, Name: name, Add: true})
		}
	}

	r.sendTo(c, StatsMessage{Type: "stats", Stats: c.player.Stats(r.catalog)})
}

func (r *Room) handle(c *Client, msg ClientMessage) {
	switch msg.Type {
	case "draw":
		category, err := catalog.ParseCategory(msg.Category)
		if err != nil {
			r.sendTo(c, SimpleMessage{Type: "error", Message: err.Error()})
			return
		}
		r.requestDraw(c.player, category)

	case "pointer":
		r.handlePointer(c, msg)

	case "flip":
		r.engine.Flip()

	case "reset_category":
		category, err := catalog.ParseCategory(msg.Category)
		if err != nil {
			r.sendTo(c, SimpleMessage{Type: "error", Message: err.Error()})
			return
		}
		c.player.Usage.ResetCategory(category.String())
		logf(r.cfg, "USAGE: Player %s reset %s", c.player.ID, category)
		r.sendToPlayer(c.player, StatsMessage{Type: "stats", Stats: c.player.Stats(r.catalog)})

	case "reset_all":
		c.player.Usage.ResetAll()
		logf(r.cfg, "USAGE: Player %s reset all categories", c.player.ID)
		r.sendToPlayer(c.player, SimpleMessage{
			Type:    "reset",
			Message: "Used content has been reset. All items can now be selected again.",
		})
		r.sendToPlayer(c.player, StatsMessage{Type: "stats", Stats: c.player.Stats(r.catalog)})

	case "settings":
		settings, err := c.player.UpdateSettings(msg.BgColor, msg.ScreenWake)
		if err != nil {
			r.sendTo(c, SimpleMessage{Type: "error", Message: err.Error()})
			return
		}
		r.sendToPlayer(c.player, SettingsMessage{Type: "settings", Settings: settings})

	case "stats":
		r.sendTo(c, StatsMessage{Type: "stats", Stats: c.player.Stats(r.catalog)})

	default:
		// ignore unknown types
	}
}

func (r *Room) handlePointer(c *Client, msg ClientMessage) {
	// Nothing to drag until something has been drawn.
	if r.current == nil {
		return
	}

	switch msg.Phase {
	case "down":
		// A press on a card already in flight is ignored and must not
		// take the next draw away from whoever threw it.
		if r.engine.PointerDown(msg.X, msg.Y) {
			r.gesturer = c.player
		}
	case "move":
		if !c.limiter.Allow() {
			return
		}
		r.engine.PointerMove(msg.X, msg.Y)
	case "up":
		r.engine.PointerUp()
	case "cancel":
		r.engine.PointerCancel()
	}
}

// onDismissed runs when a card has been flicked away by hand; the next card
// comes from the same category, for whoever flicked it.
func (r *Room) onDismissed() {
	if r.gesturer == nil || r.category == "" || r.swapping {
		return
	}

	r.draw(r.gesturer, r.category)
}

// requestDraw throws away the current card, if any, and draws a new one
// once it is out of sight. Requests made while a card is in flight replace
// one another; only the last is drawn.
func (r *Room) requestDraw(p *Player, category catalog.Category) {
	if r.swapping {
		r.queued = &drawRequest{player: p, category: category}
		return
	}

	if r.current == nil {
		r.draw(p, category)
		return
	}

	r.swapping = true
	r.queued = &drawRequest{player: p, category: category}

	done := r.engine.TriggerSwipeAway()

	go func() {
		select {
		case <-done:
		case <-r.quit:
			return
		}

		r.post(r.finishSwap)
	}()
}

func (r *Room) finishSwap() {
	r.swapping = false

	next := r.queued
	r.queued = nil

	if next != nil {
		r.draw(next.player, next.category)
	}
}

func (r *Room) draw(p *Player, category catalog.Category) {
	items := r.catalog.Items(category)

	item, ok := catalog.Pick(usage.Unused(p.Usage, category.String(), items), mrand.IntN)
	if !ok {
		r.sendToPlayer(p, SimpleMessage{
			Type:    "error",
			Message: fmt.Sprintf("No items available in %s category", category),
		})
		return
	}

	p.Usage.MarkUsed(category.String(), item.ID)

	r.current = &item
	r.category = category

	// The new prompt must never be seen on the old card.
	r.surface.SetStyle("transition", "none")
	r.surface.SetStyle("opacity", "0")

	r.broadcast(newItemMessage(item))
	r.engine.ShowCard()

	r.sendToPlayer(p, StatsMessage{Type: "stats", Stats: p.Stats(r.catalog)})

	logf(r.cfg, "GAMES: Drew %s %q in %s", category.Singular(), item.Title, r.id)
}

func newItemMessage(item catalog.Item) ItemMessage {
	return ItemMessage{
		Type:        "item",
		Category:    item.Category,
		Label:       item.Category.Label(),
		Title:       item.Title,
		Year:        item.Year,
		Byline:      item.Byline(),
		Description: item.Description,
		Genre:       item.Genre,
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// RoomManager holds a set of rooms keyed by room ID, so each
// /play/:room is its own isolated card.
type RoomManager struct {
	mu          sync.Mutex
	cfg         *Config
	catalog     *catalog.Catalog
	players     *Players
	rooms       map[string]*Room
	idleTimeout time.Duration
}

func newRoomManager(cfg *Config, c *catalog.Catalog, players *Players) *RoomManager {
	rm := &RoomManager{
		cfg:         cfg,
		catalog:     c,
		players:     players,
		rooms:       make(map[string]*Room),
		idleTimeout: cfg.sessionTimeout,
	}
	return rm
}

func (rm *RoomManager) getRoom(id string) *Room {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if room, ok := rm.rooms[id]; ok {
		return room
	}

	room := newRoom(rm.cfg, rm.catalog, id)
	rm.rooms[id] = room
	go room.run()
	return room
}

// newRoomID generates a crypto-random room ID and ensures it doesn't
// collide with existing rooms.
func (rm *RoomManager) newRoomID() string {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	for {
		buf := make([]byte, 8)
		if _, err := rand.Read(buf); err != nil {
			panic("crypto/rand failure: " + err.Error())
		}
		out := make([]byte, 8)
		for i := range out {
			out[i] = letters[int(buf[i])%len(letters)]
		}
		id := string(out)

		rm.mu.Lock()
		_, exists := rm.rooms[id]
		rm.mu.Unlock()

		if !exists {
			return id
		}
	}
}

// reap closes every room idle since before cutoff, returning how many.
func (rm *RoomManager) reap(cutoff time.Time) int {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	reaped := 0
	for id, room := range rm.rooms {
		if room.idleSince().Before(cutoff) {
			delete(rm.rooms, id)
			room.close()
			reaped++
		}
	}

	return reaped
}

// reaperLoop periodically removes rooms that have been idle longer than
// idleTimeout, until done is closed.
func (rm *RoomManager) reaperLoop(done <-chan struct{}) {
	if rm.idleTimeout <= 0 {
		return
	}

	ticker := time.NewTicker(rm.idleTimeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if n := rm.reap(time.Now().Add(-rm.idleTimeout)); n > 0 {
				logf(rm.cfg, "GAMES: Closed %d idle room(s)", n)
			}
		}
	}
}

func (rm *RoomManager) closeAll() {
	rm.reap(time.Now().Add(time.Hour))
}

// WebSocket handler that picks the room based on :room
func serveWSForManager(cfg *Config, rm *RoomManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		roomID := ps.ByName("room")
		if roomID == "" {
			http.Error(w, "missing room id", http.StatusBadRequest)
			return
		}

		playerID, fresh := playerCookie(cfg, r)
		if playerID == "" {
			http.Error(w, "unable to assign player id", http.StatusInternalServerError)
			return
		}

		header := http.Header{}
		if fresh != nil {
			header.Add("Set-Cookie", fresh.String())
		}

		conn, err := upgrader.Upgrade(w, r, header)
		if err != nil {
			logf(cfg, "ERROR: Websocket upgrade from %s failed: %v", realIP(r), err)
			return
		}

		room := rm.getRoom(roomID)

		client := &Client{
			conn:    conn,
			send:    make(chan any, 64),
			player:  rm.players.Get(playerID),
			limiter: rate.NewLimiter(rate.Limit(cfg.inputRate), int(cfg.inputRate)+1),
		}

		select {
		case room.register <- client:
		case <-room.quit:
			_ = conn.Close()
			return
		}

		go client.writePump()
		client.readPump(room)
	}
}

func (c *Client) readPump(r *Room) {
	defer func() {
		select {
		case r.unreg <- c:
		case <-r.quit:
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		select {
		case r.inbox <- inbound{client: c, msg: msg}:
		case <-r.quit:
			return
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(timeout))
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

// QR handler: generates a PNG QR code for the current room URL using go-qrcode.
func qrHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if ps.ByName("room") == "" {
		http.Error(w, "missing room id", http.StatusBadRequest)
		return
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto == "http" || proto == "https" {
		scheme = proto
	}

	url := scheme + "://" + r.Host + strings.TrimSuffix(r.URL.Path, "/qr")

	const qrSize = 320
	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		http.Error(w, "qr generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(png)
}

// redirectNewRoom handles GET /play by generating a new random room ID
// and redirecting to /play/:room.
func redirectNewRoom(cfg *Config, path string, rm *RoomManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		roomID := rm.newRoomID()
		logf(cfg, "GAMES: Created room %s", roomID)
		http.Redirect(w, r, cfg.prefix+path+"/"+roomID, http.StatusTemporaryRedirect)
	}
}

// registerCharades sets up routes so that:
//   - $path              → redirects to new random room (8-char ID)
//   - $path/:room        → HTML client
//   - $path/:room/ws     → WebSocket for that room
//   - $path/:room/qr     → PNG QR code for that room URL
func registerCharades(cfg *Config, path string, mux *httprouter.Router, rm *RoomManager, errs chan<- error) {
	mux.GET(cfg.prefix+path, redirectNewRoom(cfg, path, rm))

	mux.GET(cfg.prefix+path+"/:room", servePlayPage(cfg, errs))

	mux.GET(cfg.prefix+path+"/:room/ws", serveWSForManager(cfg, rm))

	mux.GET(cfg.prefix+path+"/:room/qr", qrHandler)
}
