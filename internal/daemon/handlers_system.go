package daemon

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"revostream/internal/api"
	"revostream/internal/logging"
)

const (
	defaultJournalTail = 50
	defaultLogLimit    = 200
	eventPingInterval  = 30 * time.Second
	eventWriteTimeout  = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Origin is not checked; the bearer token guards the route.
	CheckOrigin: func(*http.Request) bool { return true },
}

func (s *apiServer) handleVideoDevices(w http.ResponseWriter, r *http.Request) {
	list, err := s.daemon.lister.VideoDevices(r.Context())
	if err != nil {
		s.fail(w, r, "video_devices", err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.DeviceListResponse{Devices: api.FromDevices(list)})
}

func (s *apiServer) handleAudioDevices(w http.ResponseWriter, r *http.Request) {
	kind := strings.TrimSpace(r.URL.Query().Get("kind"))
	if kind == "" {
		kind = "input"
	}
	list, err := s.daemon.lister.AudioDevices(r.Context(), kind)
	if err != nil {
		s.fail(w, r, "audio_devices", err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.DeviceListResponse{Devices: api.FromDevices(list)})
}

func (s *apiServer) handleJournal(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if raw := strings.TrimSpace(query.Get("since")); raw != "" {
		since, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid since cursor")
			return
		}
		s.writeJSON(w, http.StatusOK, api.JournalResponse{Entries: api.FromJournal(s.daemon.journal.Since(since))})
		return
	}
	tail := defaultJournalTail
	if raw := strings.TrimSpace(query.Get("tail")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.writeError(w, http.StatusBadRequest, "invalid tail count")
			return
		}
		tail = n
	}
	s.writeJSON(w, http.StatusOK, api.JournalResponse{Entries: api.FromJournal(s.daemon.journal.Tail(tail))})
}

func (s *apiServer) handleLogs(w http.ResponseWriter, r *http.Request) {
	hub := s.daemon.logHub
	if hub == nil {
		s.writeJSON(w, http.StatusOK, api.LogStreamResponse{Events: []api.LogEvent{}, Next: 0})
		return
	}

	query := r.URL.Query()
	since, _ := strconv.ParseUint(query.Get("since"), 10, 64)
	limit, _ := strconv.Atoi(query.Get("limit"))
	if limit <= 0 {
		limit = defaultLogLimit
	}
	follow := query.Get("follow") == "1" || strings.EqualFold(query.Get("follow"), "true")
	tail := query.Get("tail") == "1" || strings.EqualFold(query.Get("tail"), "true")
	component := strings.TrimSpace(query.Get("component"))

	var (
		events []logging.LogEvent
		next   uint64
	)
	if tail && since == 0 && !follow {
		events, next = hub.Tail(limit)
	} else {
		fetched, cursor, err := hub.Fetch(r.Context(), since, limit, follow)
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		events, next = fetched, cursor
	}

	converted := api.FromLogEvents(events)
	filtered := converted[:0]
	for _, evt := range converted {
		if component != "" && !strings.EqualFold(component, evt.Component) {
			continue
		}
		filtered = append(filtered, evt)
	}
	s.writeJSON(w, http.StatusOK, api.LogStreamResponse{Events: filtered, Next: next})
}

// handleEvents streams journal entries, including device hotplug actions,
// over a websocket. ?since=<seq> replays buffered entries first.
func (s *apiServer) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.daemon.journal == nil {
		s.writeError(w, http.StatusServiceUnavailable, "journal disabled")
		return
	}
	var since uint64
	replay := false
	if raw := strings.TrimSpace(r.URL.Query().Get("since")); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid since cursor")
			return
		}
		since, replay = parsed, true
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", logging.Error(err))
		return
	}
	defer conn.Close()

	clientID := uuid.NewString()
	log := logging.WithContext(r.Context(), s.logger).With(logging.String("client_id", clientID))
	s.daemon.metrics.websocketClients.Inc()
	defer s.daemon.metrics.websocketClients.Dec()
	log.Debug("event stream client connected")
	defer log.Debug("event stream client disconnected")

	entries, cancel := s.daemon.journal.Subscribe()
	defer cancel()

	send := func(evt api.Event) error {
		_ = conn.SetWriteDeadline(time.Now().Add(eventWriteTimeout))
		return conn.WriteJSON(evt)
	}
	if replay {
		for _, entry := range s.daemon.journal.Since(since) {
			je := api.FromJournalEntry(entry)
			if err := send(api.Event{Type: api.EventTypeJournal, Journal: &je}); err != nil {
				return
			}
			since = entry.Seq
		}
	}

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(eventPingInterval)
	defer ticker.Stop()
	done := s.streamContext().Done()
	for {
		select {
		case <-done:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "daemon stopping"),
				time.Now().Add(time.Second))
			return
		case <-closed:
			return
		case entry, ok := <-entries:
			if !ok {
				return
			}
			if replay && entry.Seq <= since {
				continue
			}
			je := api.FromJournalEntry(entry)
			if err := send(api.Event{Type: api.EventTypeJournal, Journal: &je}); err != nil {
				log.Debug("event stream write failed", logging.Error(err))
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(eventWriteTimeout)); err != nil {
				return
			}
		}
	}
}
