package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"Monad-Agent-Kit/internal/agent"
	"Monad-Agent-Kit/internal/chat"
	xerrors "Monad-Agent-Kit/internal/errors"
	"Monad-Agent-Kit/internal/history"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 200
)

// Server 负责暴露 REST 接口，供外部驱动智能体问答。
type Server struct {
	addr      string
	agent     *agent.Agent
	chats     *chat.Service
	histories history.Store
}

// NewServer 构造 API 服务实例。chats 与 histories 可以为空，对应的
// 接口会返回 503。
func NewServer(addr string, ag *agent.Agent, chats *chat.Service, histories history.Store) *Server {
	return &Server{addr: addr, agent: ag, chats: chats, histories: histories}
}

// Start 启动 HTTP 服务，直到上下文取消或出现错误。
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.addr,
		Handler:           withContext(ctx, s.Handler()),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// Handler 返回路由后的 HTTP 处理器，便于测试。
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/ask", s.handleAsk)
	mux.HandleFunc("/api/v1/chat", s.handleChat)
	mux.HandleFunc("/api/v1/history", s.handleHistory)
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	Answer string `json:"answer"`
}

// handleAsk 同步驱动一次完整问答。
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "仅支持 POST", http.StatusMethodNotAllowed)
		return
	}
	if s.agent == nil {
		http.Error(w, "Agent 未初始化", http.StatusServiceUnavailable)
		return
	}

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "请求体解析失败", http.StatusBadRequest)
		return
	}

	answer, err := s.agent.Ask(r.Context(), req.Question)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, askResponse{Answer: answer})
}

// handleChat 提交异步问答任务或查询任务状态。
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if s.chats == nil {
		http.Error(w, "问答服务未初始化", http.StatusServiceUnavailable)
		return
	}
	switch r.Method {
	case http.MethodPost:
		var req chat.SubmitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "请求体解析失败", http.StatusBadRequest)
			return
		}
		job, err := s.chats.Submit(r.Context(), req)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, job)
	case http.MethodGet:
		id := strings.TrimSpace(r.URL.Query().Get("id"))
		if id == "" {
			http.Error(w, "缺少 id 参数", http.StatusBadRequest)
			return
		}
		job, err := s.chats.Get(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, job)
	default:
		http.Error(w, "仅支持 GET/POST", http.StatusMethodNotAllowed)
	}
}

// handleHistory 返回最近的问答记录。
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "仅支持 GET", http.StatusMethodNotAllowed)
		return
	}
	if s.histories == nil {
		http.Error(w, "历史存储未初始化", http.StatusServiceUnavailable)
		return
	}

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	exchanges, err := s.histories.ListLatest(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if exchanges == nil {
		exchanges = []history.Exchange{}
	}
	writeJSON(w, http.StatusOK, exchanges)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError 按统一错误码映射 HTTP 状态。
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch xerrors.CodeOf(err) {
	case xerrors.CodeInvalidArgument, chat.CodeChatValidation:
		status = http.StatusBadRequest
	case xerrors.CodeNotFound, chat.CodeChatNotFound:
		status = http.StatusNotFound
	case xerrors.CodeInitializationFailure:
		status = http.StatusServiceUnavailable
	}
	http.Error(w, err.Error(), status)
}

// withContext 确保请求处理能够感知根上下文取消。
func withContext(ctx context.Context, handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-ctx.Done():
			http.Error(w, "服务已关闭", http.StatusServiceUnavailable)
			return
		default:
		}
		handler.ServeHTTP(w, r)
	})
}
