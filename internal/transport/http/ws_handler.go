package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/websocket"
	"trivia-quiz-service/internal/domain"
	"trivia-quiz-service/internal/quiz"
)

// CategoryLister exposes the remote category list for the settings view.
type CategoryLister interface {
	ListCategories(ctx context.Context) ([]domain.Category, error)
}

// WSHandler hosts one quiz state machine per websocket connection. The
// connection carries UI intents inbound and state snapshots outbound.
type WSHandler struct {
	fetcher  quiz.QuestionFetcher
	tokenAPI quiz.TokenAPI
	cache    quiz.TokenCache
	opts     []quiz.Option
	upgrader websocket.Upgrader
}

func NewWSHandler(fetcher quiz.QuestionFetcher, tokenAPI quiz.TokenAPI, cache quiz.TokenCache, opts ...quiz.Option) *WSHandler {
	return &WSHandler{
		fetcher:  fetcher,
		tokenAPI: tokenAPI,
		cache:    cache,
		opts:     opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	Answer string `json:"answer"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and runs a quiz session until the client
// disconnects. The clientId query parameter keys the token cache so a
// returning client resumes its session token.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	clientID := r.URL.Query().Get("clientId")
	if clientID == "" {
		http.Error(w, "missing clientId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	tokens := quiz.NewTokenStore(h.tokenAPI, h.cache, clientID)
	tokens.Restore(r.Context())

	machine := quiz.NewMachine(h.fetcher, tokens, h.opts...)
	defer machine.Close()

	snapshots, cancel := machine.Subscribe()
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	snapshotsDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(snapshotsDone)
		for {
			select {
			case snapshot, ok := <-snapshots:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "state", Payload: snapshot}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if err := h.dispatch(r.Context(), machine, inbound); err != nil {
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
		}
	}

	close(closeSignals)
	<-snapshotsDone
	close(send)
	<-writerDone
}

func (h *WSHandler) dispatch(ctx context.Context, machine *quiz.Machine, inbound inboundMessage) error {
	switch inbound.Type {
	case "start":
		var criteria domain.Criteria
		if err := json.Unmarshal(inbound.Payload, &criteria); err != nil {
			return fmt.Errorf("invalid start payload: %w", err)
		}
		return machine.Start(ctx, criteria)
	case "answer":
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return fmt.Errorf("invalid answer payload: %w", err)
		}
		return machine.SelectAnswer(payload.Answer)
	case "next":
		return machine.Next()
	case "retake":
		return machine.Retake(ctx)
	case "newSettings":
		machine.NewSettings()
		return nil
	default:
		return errUnsupportedMessage(inbound.Type)
	}
}

type errUnsupportedMessage string

func (e errUnsupportedMessage) Error() string {
	return "unsupported message type " + string(e)
}

// NewCategoriesHandler serves the remote category list as JSON for the
// settings dropdown.
func NewCategoriesHandler(lister CategoryLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categories, err := lister.ListCategories(r.Context())
		if err != nil {
			log.Printf("category fetch failed: %v", err)
			http.Error(w, "could not load categories", http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(categories); err != nil {
			log.Printf("category encode failed: %v", err)
		}
	}
}
