package main

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"cardclash/server/battle"
	"cardclash/server/catalog"
	"cardclash/server/gacha"
	"cardclash/server/logging"
	"cardclash/server/persist"
)

const (
	writeWait       = 10 * time.Second
	tickRate        = 15 // simulation ticks per second
	starterDeckSize = 5
)

type playerState struct {
	ID   string
	deck []catalog.Card
}

type subscriber struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *subscriber) send(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// battleSession owns one running simulator and its tick loop. The session
// mutex serializes Step against forfeits arriving from connection handlers.
type battleSession struct {
	id           string
	sim          *battle.Simulator
	participants map[string]bool
	stop         chan struct{}
	stopped      atomic.Bool

	mu      sync.Mutex
	started time.Time
}

func (b *battleSession) halt() {
	if b.stopped.CompareAndSwap(false, true) {
		close(b.stop)
	}
}

// Hub owns every player session and battle. The acquisition engine is not
// goroutine-safe, so every roll goes through the hub mutex; each battle
// session carries its own lock so simulations never contend with rolls.
type Hub struct {
	mu        sync.Mutex
	cat       *catalog.Catalog
	engine    *gacha.Engine
	store     *persist.Store
	publisher logging.Publisher
	seed      uint64

	players     map[string]*playerState
	battles     map[string]*battleSession
	subscribers map[string]map[string]*subscriber

	nextPlayerID atomic.Uint64
	nextBattleID atomic.Uint64
}

func newHub(cat *catalog.Catalog, engine *gacha.Engine, store *persist.Store, publisher logging.Publisher, seed uint64) *Hub {
	if publisher == nil {
		publisher = logging.NopPublisher()
	}
	return &Hub{
		cat:         cat,
		engine:      engine,
		store:       store,
		publisher:   publisher,
		seed:        seed,
		players:     make(map[string]*playerState),
		battles:     make(map[string]*battleSession),
		subscribers: make(map[string]map[string]*subscriber),
	}
}

// Join mints a player and rolls their starter deck.
func (h *Hub) Join() (joinResponse, error) {
	playerID := fmt.Sprintf("player-%d", h.nextPlayerID.Add(1))

	h.mu.Lock()
	defer h.mu.Unlock()

	results, err := h.engine.RollMultiple(playerID, starterDeckSize)
	if err != nil {
		return joinResponse{}, err
	}
	deck := make([]catalog.Card, 0, len(results))
	for _, result := range results {
		deck = append(deck, result.Card)
	}
	h.players[playerID] = &playerState{ID: playerID, deck: deck}
	h.savePityLocked()

	return joinResponse{
		ID:   playerID,
		Deck: deck,
		Pity: h.pityViewLocked(playerID),
	}, nil
}

// Roll draws cards for a known player, appending them to the player's deck.
// A request with an auto block runs batched rolls with early stop; otherwise
// count plain rolls.
func (h *Hub) Roll(req rollRequest) (rollResponse, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	player, ok := h.players[req.PlayerID]
	if !ok {
		return rollResponse{}, fmt.Errorf("unknown player %s", req.PlayerID)
	}

	var results []gacha.RollResult
	var err error
	if req.Auto != nil {
		results, err = h.engine.RollAuto(req.PlayerID, gacha.AutoConfig{
			MaxRolls:     req.Auto.MaxRolls,
			BatchSize:    req.Auto.BatchSize,
			StopAtRarity: catalog.Rarity(req.Auto.StopAtRarity),
		})
	} else {
		results, err = h.engine.RollMultiple(req.PlayerID, req.Count)
	}
	if err != nil {
		return rollResponse{}, err
	}

	views := make([]rollView, 0, len(results))
	for _, result := range results {
		player.deck = append(player.deck, result.Card)
		symbol := ""
		if len(result.Card.Symbols) > 0 {
			symbol = result.Card.Symbols[0]
		}
		views = append(views, rollView{
			CardID:        result.Card.ID,
			Symbol:        symbol,
			Rarity:        string(result.Rarity),
			PityTriggered: result.PityTriggered,
			RollCount:     result.RollCount,
		})
	}
	h.savePityLocked()

	return rollResponse{
		PlayerID: req.PlayerID,
		Results:  views,
		Pity:     h.pityViewLocked(req.PlayerID),
	}, nil
}

// Pity reports a player's pity window without mutating it.
func (h *Hub) Pity(playerID string) (pityView, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.players[playerID]; !ok {
		return pityView{}, false
	}
	return h.pityViewLocked(playerID), true
}

// Rates reports the configured drop distribution.
func (h *Hub) Rates() ratesResponse {
	h.mu.Lock()
	defer h.mu.Unlock()
	rates := h.engine.DropRates()
	perRarity := make(map[string]float64, len(rates.PerRarity))
	for rarity, rate := range rates.PerRarity {
		perRarity[string(rarity)] = rate
	}
	return ratesResponse{Rates: perRarity, GuaranteedRareAt: rates.GuaranteedRareAt}
}

func (h *Hub) pityViewLocked(playerID string) pityView {
	progress := h.engine.PityProgress(playerID)
	return pityView{CurrentCount: progress.CurrentCount, Threshold: progress.Threshold}
}

func (h *Hub) savePityLocked() {
	if err := h.store.SavePity(h.engine.SnapshotPity()); err != nil {
		log.Printf("failed to persist pity counters: %v", err)
	}
}

// StartBattle builds a simulator for two joined players and launches its
// tick loop. Frames stream to the battle's websocket subscribers.
func (h *Hub) StartBattle(req battleRequest) (battleResponse, error) {
	h.mu.Lock()
	playerA, okA := h.players[req.PlayerA]
	playerB, okB := h.players[req.PlayerB]
	h.mu.Unlock()
	if !okA || !okB {
		return battleResponse{}, fmt.Errorf("both players must join before battling")
	}
	if req.PlayerA == req.PlayerB {
		return battleResponse{}, fmt.Errorf("a battle needs two distinct players")
	}

	battleNum := h.nextBattleID.Add(1)
	battleID := fmt.Sprintf("battle-%d", battleNum)

	var rng battle.RandomSource
	if h.seed != 0 {
		rng = gacha.NewSeededSource(h.seed + battleNum)
	} else {
		rng = gacha.DefaultSource()
	}

	cfg := battle.Config{BattleID: battleID}
	if req.TimeLimitMs > 0 {
		cfg.TimeLimit = time.Duration(req.TimeLimitMs) * time.Millisecond
	}

	sink := battle.FrameSinkFunc(func(frame battle.Frame) {
		h.broadcastFrame(battleID, frame)
	})
	sim, err := battle.NewSimulator(cfg, h.cat, rng, h.publisher, sink)
	if err != nil {
		return battleResponse{}, err
	}
	for _, player := range []*playerState{playerA, playerB} {
		if err := sim.AddCombatant(battle.CombatantConfig{
			ID:    player.ID,
			MaxHP: 100,
			Deck:  player.deck,
		}); err != nil {
			return battleResponse{}, err
		}
	}

	session := &battleSession{
		id:  battleID,
		sim: sim,
		participants: map[string]bool{
			req.PlayerA: true,
			req.PlayerB: true,
		},
		stop: make(chan struct{}),
	}

	h.mu.Lock()
	h.battles[battleID] = session
	h.mu.Unlock()

	go h.runBattle(session)
	return battleResponse{BattleID: battleID}, nil
}

// runBattle drives the simulator at the fixed tick rate until it ends or is
// halted. Battle time is read once per tick and passed in, so the simulator
// itself never touches the clock.
func (h *Hub) runBattle(session *battleSession) {
	session.mu.Lock()
	session.started = time.Now()
	err := session.sim.Start(0)
	session.mu.Unlock()
	if err != nil {
		log.Printf("battle %s failed to start: %v", session.id, err)
		h.releaseBattle(session)
		return
	}

	ticker := time.NewTicker(time.Second / tickRate)
	defer ticker.Stop()

	for {
		select {
		case <-session.stop:
			h.releaseBattle(session)
			return
		case now := <-ticker.C:
			session.mu.Lock()
			session.sim.Step(now.Sub(session.started))
			ended := session.sim.Phase() == battle.PhaseEnded
			session.mu.Unlock()
			if ended {
				h.finishBattle(session)
				return
			}
		}
	}
}

// Forfeit ends a battle in the opponent's favor. Called for explicit
// forfeit messages and for disconnects mid-battle.
func (h *Hub) Forfeit(battleID, playerID string) {
	h.mu.Lock()
	session, ok := h.battles[battleID]
	h.mu.Unlock()
	if !ok || !session.participants[playerID] {
		return
	}

	session.mu.Lock()
	if session.sim.Phase() == battle.PhaseRunning {
		session.sim.Forfeit(playerID, time.Since(session.started))
	}
	session.mu.Unlock()
	// The tick loop observes the ended phase on its next pass and finishes
	// the session, persisting proc history on the way out.
}

func (h *Hub) finishBattle(session *battleSession) {
	session.mu.Lock()
	history := session.sim.Passives().SnapshotHistory()
	session.mu.Unlock()
	if len(history) > 0 {
		if err := h.store.SavePassiveHistory(history); err != nil {
			log.Printf("failed to persist passive history: %v", err)
		}
	}
	session.halt()
	h.releaseBattle(session)
}

func (h *Hub) releaseBattle(session *battleSession) {
	h.mu.Lock()
	delete(h.battles, session.id)
	subs := h.subscribers[session.id]
	delete(h.subscribers, session.id)
	h.mu.Unlock()

	for _, sub := range subs {
		sub.conn.Close()
	}
}

// Subscribe attaches a websocket to a battle's frame stream. A second
// subscription from the same player replaces the first.
func (h *Hub) Subscribe(battleID, playerID string, conn *websocket.Conn) (*subscriber, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	session, ok := h.battles[battleID]
	if !ok || !session.participants[playerID] {
		return nil, false
	}

	subs := h.subscribers[battleID]
	if subs == nil {
		subs = make(map[string]*subscriber)
		h.subscribers[battleID] = subs
	}
	if existing, ok := subs[playerID]; ok {
		existing.conn.Close()
	}
	sub := &subscriber{conn: conn}
	subs[playerID] = sub
	return sub, true
}

// Disconnect detaches a subscriber. A disconnect while the battle is still
// running counts as a forfeit.
func (h *Hub) Disconnect(battleID, playerID string) {
	h.mu.Lock()
	subs := h.subscribers[battleID]
	sub, ok := subs[playerID]
	if ok {
		delete(subs, playerID)
	}
	_, running := h.battles[battleID]
	h.mu.Unlock()

	if ok {
		sub.conn.Close()
	}
	if running {
		h.Forfeit(battleID, playerID)
	}
}

func (h *Hub) broadcastFrame(battleID string, frame battle.Frame) {
	data, err := json.Marshal(frameMessage{Type: "frame", Frame: frame})
	if err != nil {
		log.Printf("failed to marshal frame for %s: %v", battleID, err)
		return
	}

	h.mu.Lock()
	subs := make(map[string]*subscriber, len(h.subscribers[battleID]))
	for id, sub := range h.subscribers[battleID] {
		subs[id] = sub
	}
	h.mu.Unlock()

	for playerID, sub := range subs {
		if err := sub.send(data); err != nil {
			log.Printf("dropping subscriber %s on %s: %v", playerID, battleID, err)
			go h.Disconnect(battleID, playerID)
		}
	}
}
