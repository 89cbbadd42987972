package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/websocket"

	"cardclash/server/catalog"
	"cardclash/server/gacha"
	"cardclash/server/logging"
	"cardclash/server/logging/sinks"
	"cardclash/server/persist"
)

func main() {
	var (
		addr        = flag.String("addr", ":8080", "listen address")
		catalogPath = flag.String("catalog", "", "effect catalog yaml (builtin when empty)")
		tablePath   = flag.String("drop-table", "", "drop table yaml (defaults when empty)")
		seed        = flag.Uint64("seed", 0, "deterministic seed (0 uses crypto randomness)")
		dataApp     = flag.String("data-app", "cardclash", "application name for the data store")
		logJSON     = flag.String("log-json", "", "append structured log events to this file")
	)
	flag.Parse()

	cat, err := catalog.LoadFileOrDefault(*catalogPath)
	if err != nil {
		log.Fatalf("failed to load effect catalog: %v", err)
	}

	table := gacha.DefaultDropTable()
	if *tablePath != "" {
		table, err = gacha.LoadDropTable(*tablePath)
		if err != nil {
			log.Fatalf("failed to load drop table: %v", err)
		}
	}

	router, err := buildRouter(*logJSON)
	if err != nil {
		log.Fatalf("failed to build log router: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := router.Close(ctx); err != nil {
			log.Printf("log router close: %v", err)
		}
	}()

	store, err := persist.Open(*dataApp)
	if err != nil {
		log.Printf("data store unavailable, running in memory: %v", err)
		store = persist.NewMemoryStore()
	}

	var rng gacha.RandomSource
	if *seed != 0 {
		rng = gacha.NewSeededSource(*seed)
	} else {
		rng = gacha.DefaultSource()
	}

	engine, err := gacha.NewEngine(table, cat, rng, router)
	if err != nil {
		log.Fatalf("failed to build acquisition engine: %v", err)
	}
	if snapshot, err := store.LoadPity(); err != nil {
		log.Printf("failed to load pity counters: %v", err)
	} else if len(snapshot) > 0 {
		engine.RestorePity(snapshot)
	}

	hub := newHub(cat, engine, store, router, *seed)

	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})

	http.HandleFunc("/join", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		join, err := hub.Join()
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, join)
	})

	http.HandleFunc("/roll", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req rollRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		resp, err := hub.Roll(req)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, gacha.ErrInvalidArgument) {
				status = http.StatusBadRequest
			}
			writeError(w, status, err)
			return
		}
		writeJSON(w, resp)
	})

	http.HandleFunc("/pity", func(w http.ResponseWriter, r *http.Request) {
		playerID := r.URL.Query().Get("id")
		view, ok := hub.Pity(playerID)
		if !ok {
			http.Error(w, "unknown player", http.StatusNotFound)
			return
		}
		writeJSON(w, view)
	})

	http.HandleFunc("/rates", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, hub.Rates())
	})

	http.HandleFunc("/battle", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req battleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		resp, err := hub.StartBattle(req)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeJSON(w, resp)
	})

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}

	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		battleID := r.URL.Query().Get("battle")
		playerID := r.URL.Query().Get("id")
		if battleID == "" || playerID == "" {
			http.Error(w, "missing battle or id", http.StatusBadRequest)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("upgrade failed for %s: %v", playerID, err)
			return
		}

		_, ok := hub.Subscribe(battleID, playerID, conn)
		if !ok {
			message := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "unknown battle or player")
			conn.WriteMessage(websocket.CloseMessage, message)
			conn.Close()
			return
		}

		for {
			_, payload, err := conn.ReadMessage()
			if err != nil {
				hub.Disconnect(battleID, playerID)
				return
			}

			var msg clientMessage
			if err := json.Unmarshal(payload, &msg); err != nil {
				log.Printf("discarding malformed message from %s: %v", playerID, err)
				continue
			}

			switch msg.Type {
			case "forfeit":
				hub.Forfeit(battleID, playerID)
			default:
				log.Printf("unknown message type %q from %s", msg.Type, playerID)
			}
		}
	})

	log.Printf("server listening on %s", *addr)
	if err := http.ListenAndServe(*addr, nil); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

func buildRouter(jsonPath string) (*logging.Router, error) {
	cfg := logging.DefaultConfig()
	named := []logging.NamedSink{
		{Name: "console", Sink: sinks.NewConsoleSink(os.Stdout, cfg.Console)},
	}
	if jsonPath != "" {
		file, err := os.OpenFile(jsonPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, err
		}
		named = append(named, logging.NamedSink{
			Name: "json",
			Sink: sinks.NewJSON(file, cfg.JSON.FlushInterval),
		})
		cfg.EnabledSinks = append(cfg.EnabledSinks, "json")
	}
	return logging.NewRouter(nil, cfg, named)
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: err.Error()})
}
