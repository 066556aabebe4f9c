package main

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"
)

//go:embed frontend
var frontendFS embed.FS

const (
	maxBodySize     = 64 << 10 // 64 KB
	maxSpeechLength = 32       // runes
)

// rateLimiter is a simple per-IP token bucket rate limiter.
type rateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*bucket
	rate     int           // tokens per interval
	interval time.Duration // refill interval
}

type bucket struct {
	tokens   int
	lastSeen time.Time
}

func newRateLimiter(rate int, interval time.Duration) *rateLimiter {
	rl := &rateLimiter{
		visitors: make(map[string]*bucket),
		rate:     rate,
		interval: interval,
	}
	// Cleanup stale entries every minute.
	go func() {
		for {
			time.Sleep(time.Minute)
			rl.mu.Lock()
			for ip, b := range rl.visitors {
				if time.Since(b.lastSeen) > 5*time.Minute {
					delete(rl.visitors, ip)
				}
			}
			rl.mu.Unlock()
		}
	}()
	return rl
}

func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.visitors[ip]
	if !ok {
		rl.visitors[ip] = &bucket{tokens: rl.rate - 1, lastSeen: time.Now()}
		return true
	}

	// Refill tokens based on elapsed time.
	elapsed := time.Since(b.lastSeen)
	refill := int(elapsed / rl.interval)
	if refill > 0 {
		b.tokens += refill * rl.rate
		if b.tokens > rl.rate {
			b.tokens = rl.rate
		}
		b.lastSeen = time.Now()
	}

	if b.tokens <= 0 {
		return false
	}
	b.tokens--
	return true
}

// clientIP strips the port from the request's remote address.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ServerOptions tunes a Server. Zero values select the defaults.
type ServerOptions struct {
	Themes      ThemeTable
	Slots       int
	RevealDelay time.Duration
	Logger      *log.Logger
}

// Server is the main HTTP server.
type Server struct {
	mux         *http.ServeMux
	store       *Store
	backend     Backend
	themes      ThemeTable
	filler      *ImageFiller
	sse         *Broadcaster
	logger      *log.Logger
	slots       int
	revealDelay time.Duration
	generateRL  *rateLimiter
	speechRL    *rateLimiter

	// baseCtx parents every batch context; cancel stops all fill-ins.
	baseCtx context.Context
	cancel  context.CancelFunc
	fills   sync.WaitGroup

	afterFunc func(d time.Duration, f func())
	now       func() time.Time
}

// NewServer creates a configured HTTP server.
func NewServer(store *Store, backend Backend, opts ServerOptions) *Server {
	if opts.Themes == nil {
		opts.Themes = DefaultThemeTable()
	}
	if opts.Slots <= 0 {
		opts.Slots = defaultSlots
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		mux:         http.NewServeMux(),
		store:       store,
		backend:     backend,
		themes:      opts.Themes,
		filler:      NewImageFiller(backend.Images, opts.Themes, opts.Logger),
		sse:         NewBroadcaster(),
		logger:      opts.Logger,
		slots:       min(opts.Slots, maxSlots),
		revealDelay: opts.RevealDelay,
		generateRL:  newRateLimiter(10, time.Minute), // 10 generations/min per IP
		speechRL:    newRateLimiter(30, time.Minute), // 30 readings/min per IP
		baseCtx:     ctx,
		cancel:      cancel,
		afterFunc:   func(d time.Duration, f func()) { time.AfterFunc(d, f) },
		now:         time.Now,
	}
	s.routes()
	return s
}

// Shutdown cancels running image fill-ins and waits for them to return.
func (s *Server) Shutdown() {
	s.cancel()
	s.fills.Wait()
}

// PruneIdle drops sessions idle for longer than ttl. A session with an open
// event stream is never idle. It returns the number of sessions removed.
func (s *Server) PruneIdle(ttl time.Duration) int {
	ids := s.store.PruneIdle(ttl, func(id string) bool {
		return s.sse.ClientCount(id) > 0
	})
	// A stream may have connected after the check.
	for _, id := range ids {
		s.sse.CloseSession(id)
	}
	return len(ids)
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("GET /api/themes", s.handleListThemes)
	s.mux.HandleFunc("GET /palette.css", s.handlePaletteCSS)

	// Session API
	s.mux.HandleFunc("POST /api/sessions", s.handleCreateSession)
	s.mux.HandleFunc("GET /api/sessions/{id}", s.handleGetSession)
	s.mux.HandleFunc("PATCH /api/sessions/{id}", s.handleUpdateSession)
	s.mux.HandleFunc("POST /api/sessions/{id}/generate", s.handleGenerate)
	s.mux.HandleFunc("POST /api/sessions/{id}/items/{item}/reveal", s.handleReveal)
	s.mux.HandleFunc("GET /api/sessions/{id}/events", s.handleSessionEvents)
	s.mux.HandleFunc("GET /api/sessions/{id}/print", s.handlePrint)
	s.mux.HandleFunc("GET /api/sessions/{id}/export.xlsx", s.handleExport)

	s.mux.HandleFunc("POST /api/speech", s.handleSpeech)

	// Frontend static files
	frontendDir, _ := fs.Sub(frontendFS, "frontend")
	s.mux.Handle("GET /", http.FileServer(http.FS(frontendDir)))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
	w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self' https://cdnjs.cloudflare.com; style-src 'self' 'unsafe-inline'; img-src 'self' data: https://raw.githubusercontent.com; media-src 'self' blob:; connect-src 'self'")
	s.mux.ServeHTTP(w, r)
}

// GET /healthz
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "sessions": s.store.Len()})
}

// GET /api/themes: list themes in display order.
func (s *Server) handleListThemes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.themes.List())
}

// GET /palette.css: theme and card colours as CSS custom properties.
func (s *Server) handlePaletteCSS(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	io.WriteString(w, s.themes.CSS())
}

// --- Session handlers ---

// POST /api/sessions: open a new table.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Theme      string `json:"theme"`
		ShowPinyin *bool  `json:"show_pinyin"`
	}
	if !decodeOptionalBody(w, r, &req) {
		return
	}

	theme, err := ParseTheme(req.Theme)
	if err != nil {
		jsonError(w, "未知主题", http.StatusBadRequest)
		return
	}
	showPinyin := true
	if req.ShowPinyin != nil {
		showPinyin = *req.ShowPinyin
	}

	sess := s.store.CreateSession(theme, showPinyin)
	s.logger.Debug("session created", "session", sess.ID, "theme", theme)
	writeJSON(w, http.StatusCreated, sess.View())
}

// GET /api/sessions/{id}: session preferences and live board.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}
	sess.Touch()
	writeJSON(w, http.StatusOK, sess.View())
}

// PATCH /api/sessions/{id}: change theme or pinyin display.
func (s *Server) handleUpdateSession(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}

	var req struct {
		Theme      *string `json:"theme"`
		ShowPinyin *bool   `json:"show_pinyin"`
	}
	if !decodeOptionalBody(w, r, &req) {
		return
	}

	if req.Theme != nil {
		theme, err := ParseTheme(*req.Theme)
		if err != nil {
			jsonError(w, "未知主题", http.StatusBadRequest)
			return
		}
		sess.SetTheme(theme)
	}
	if req.ShowPinyin != nil {
		sess.SetShowPinyin(*req.ShowPinyin)
	}
	sess.Touch()
	writeJSON(w, http.StatusOK, sess.View())
}

// POST /api/sessions/{id}/generate: deal a new board from the input text.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if !s.generateRL.allow(clientIP(r)) {
		jsonError(w, "请求过于频繁，请稍后再试", http.StatusTooManyRequests)
		return
	}

	sess := s.session(w, r)
	if sess == nil {
		return
	}

	var req struct {
		Text  string `json:"text"`
		Theme string `json:"theme"`
		Slots int    `json:"slots"`
	}
	if !decodeOptionalBody(w, r, &req) {
		return
	}

	theme := sess.Theme()
	if req.Theme != "" {
		t, err := ParseTheme(req.Theme)
		if err != nil {
			jsonError(w, "未知主题", http.StatusBadRequest)
			return
		}
		theme = t
		sess.SetTheme(t)
	}

	slots := s.slots
	if req.Slots != 0 {
		if req.Slots < 1 || req.Slots > maxSlots {
			jsonError(w, "格子数量无效", http.StatusBadRequest)
			return
		}
		slots = req.Slots
	}

	chars := ExtractHanzi(req.Text)
	pairs := transliterate(r.Context(), s.backend.Transliterator, chars, s.logger)
	board := NewBoard(pairs, theme, slots, nil)
	// The installed board belongs to the session lock from here on.
	snapshot := board.clone()

	batchCtx := sess.Install(s.baseCtx, board)
	text, surprise := snapshot.Counts()
	s.logger.Info("board generated", "session", sess.ID, "batch", snapshot.ID, "theme", theme, "text", text, "surprise", surprise)
	s.sse.Publish(sess.ID, eventBoardReplaced, map[string]any{"board": snapshot})

	if !theme.HasStockImages() {
		s.startFill(batchCtx, sess, snapshot)
	}

	writeJSON(w, http.StatusCreated, snapshot)
}

// startFill runs the image fill-in of a freshly installed board in the background.
func (s *Server) startFill(ctx context.Context, sess *Session, board *Board) {
	s.fills.Add(1)
	go func() {
		defer s.fills.Done()

		res := s.filler.Fill(ctx, board, func(itemID, url string) bool {
			if !sess.AttachImage(board.ID, itemID, url) {
				return false
			}
			s.sse.Publish(sess.ID, eventImageReady, map[string]any{
				"batch_id":  board.ID,
				"item_id":   itemID,
				"image_url": url,
			})
			return true
		})

		if ctx.Err() == nil {
			s.sse.Publish(sess.ID, eventBatchSettled, map[string]any{
				"batch_id": board.ID,
				"filled":   res.Filled,
				"failed":   res.Failed,
			})
		}
	}()
}

// POST /api/sessions/{id}/items/{item}/reveal: open a blind box.
func (s *Server) handleReveal(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}

	var req struct {
		Mode string `json:"mode"`
	}
	if !decodeOptionalBody(w, r, &req) {
		return
	}
	mode, err := ParseDisplayMode(req.Mode)
	if err != nil {
		jsonError(w, "显示模式无效", http.StatusBadRequest)
		return
	}

	itemID := r.PathValue("item")
	outcome, batchID, err := sess.BeginReveal(itemID, mode)
	switch {
	case errors.Is(err, ErrNoBoard):
		jsonError(w, "还没有生成盲盒", http.StatusConflict)
		return
	case errors.Is(err, ErrItemNotFound):
		jsonError(w, "盲盒不存在", http.StatusNotFound)
		return
	}

	if outcome == RevealStarted {
		s.sse.Publish(sess.ID, eventRevealStarted, map[string]any{"batch_id": batchID, "item_id": itemID})
		s.afterFunc(s.revealDelay, func() {
			if sess.FinishReveal(batchID, itemID) {
				s.sse.Publish(sess.ID, eventItemRevealed, map[string]any{"batch_id": batchID, "item_id": itemID})
			}
		})
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"item_id": itemID,
		"outcome": string(outcome),
	})
}

// GET /api/sessions/{id}/events: SSE stream.
func (s *Server) handleSessionEvents(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}

	s.sse.ServeSSE(w, r, sess.ID, func(c *client) {
		sess.Touch()
		// Send the current state on connect.
		evt, _ := json.Marshal(map[string]any{
			"type":    eventSessionState,
			"session": sess.View(),
		})
		c.ch <- string(evt)
	})
}

// GET /api/sessions/{id}/print: A4 print sheets for the live board.
func (s *Server) handlePrint(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}
	board := sess.Board()
	if board == nil {
		jsonError(w, "还没有生成盲盒", http.StatusConflict)
		return
	}

	sheet := NewPrintSheet(board, s.themes.Get(board.Theme), sess.ShowPinyin(), s.now())
	var buf bytes.Buffer
	if err := sheet.Render(&buf); err != nil {
		s.logger.Error("print sheet", "session", sess.ID, "err", err)
		jsonError(w, "生成打印页失败，请重试", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

// GET /api/sessions/{id}/export.xlsx: the board as a spreadsheet.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}
	board := sess.Board()
	if board == nil {
		jsonError(w, "还没有生成盲盒", http.StatusConflict)
		return
	}

	var buf bytes.Buffer
	if err := writeWorkbook(&buf, board); err != nil {
		s.logger.Error("export workbook", "session", sess.ID, "err", err)
		jsonError(w, "导出失败，请重试", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="hanzi-`+board.CreatedAt.Format("2006-01-02")+`.xlsx"`)
	w.Write(buf.Bytes())
}

// POST /api/speech: read a character aloud. Any failure is silent: 204.
func (s *Server) handleSpeech(w http.ResponseWriter, r *http.Request) {
	if !s.speechRL.allow(clientIP(r)) {
		jsonError(w, "请求过于频繁，请稍后再试", http.StatusTooManyRequests)
		return
	}

	var req struct {
		Text string `json:"text"`
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "字段 'text' 必填", http.StatusBadRequest)
		return
	}
	text := strings.TrimSpace(req.Text)
	if text == "" || utf8.RuneCountInString(text) > maxSpeechLength {
		jsonError(w, "朗读内容无效", http.StatusBadRequest)
		return
	}

	if s.backend.Speech == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	pcm, err := s.backend.Speech.Synthesize(r.Context(), text)
	if err != nil {
		s.logger.Warn("speech synthesis failed", "err", err)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	wav, err := encodeWAV(pcm, speechSampleRate, speechChannels)
	if err != nil {
		s.logger.Warn("speech encoding failed", "err", err)
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", "audio/wav")
	w.Write(wav)
}

// --- Helpers ---

// session looks up the {id} path value, writing a 404 when it is unknown.
func (s *Server) session(w http.ResponseWriter, r *http.Request) *Session {
	sess := s.store.GetSession(r.PathValue("id"))
	if sess == nil {
		jsonError(w, "会话不存在", http.StatusNotFound)
	}
	return sess
}

// decodeOptionalBody decodes a JSON body into v. An empty body leaves v untouched.
func decodeOptionalBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	err := json.NewDecoder(r.Body).Decode(v)
	if err != nil && !errors.Is(err, io.EOF) {
		jsonError(w, "请求无效", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
