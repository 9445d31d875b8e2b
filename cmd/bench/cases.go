// README: Smoke-test cases; covers HTTP validation, chat turns, DB schema, Redis, and load checks.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Runner struct {
	cfg   Config
	httpc *http.Client
	db    *pgxpool.Pool
	redis *redis.Client
}

type Result struct {
	Name    string
	Status  string
	Latency time.Duration
	Note    string
}

type TestCase struct {
	Name  string
	Focus string
	Run   func(ctx context.Context, r *Runner) Result
}

func NewRunner(cfg Config) *Runner {
	return &Runner{
		cfg:   cfg,
		httpc: &http.Client{Timeout: 35 * time.Second},
	}
}

func (r *Runner) RunAll(ctx context.Context) []Result {
	if r.cfg.DSN != "" {
		if db, err := pgxpool.New(ctx, r.cfg.DSN); err == nil {
			r.db = db
		}
	}
	if r.cfg.RedisAddr != "" {
		r.redis = redis.NewClient(&redis.Options{Addr: r.cfg.RedisAddr})
	}

	tests := r.cases()
	results := make([]Result, 0, len(tests))

	for _, tc := range tests {
		res := tc.Run(ctx, r)
		results = append(results, res)
		fmt.Printf("%-7s %s", res.Status, tc.Name)
		if res.Latency > 0 {
			fmt.Printf(" (%s)", res.Latency)
		}
		if res.Note != "" {
			fmt.Printf(" - %s", res.Note)
		}
		fmt.Println()
	}

	if r.db != nil {
		r.db.Close()
	}
	if r.redis != nil {
		_ = r.redis.Close()
	}

	return results
}

func (r *Runner) cases() []TestCase {
	base := r.cfg.BaseURL
	return []TestCase{
		{
			Name:  "Env: Postgres connect",
			Focus: "DB reachable",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.db == nil {
					return Result{Status: "FAIL", Note: "db not configured"}
				}
				ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
				defer cancel()
				if err := r.db.Ping(ctx); err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				return Result{Status: "PASS"}
			},
		},
		{
			Name:  "Env: Redis connect",
			Focus: "embedding cache reachable",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.redis == nil {
					return Result{Status: "FAIL", Note: "redis not configured"}
				}
				ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
				defer cancel()
				if err := r.redis.Ping(ctx).Err(); err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				return Result{Status: "PASS"}
			},
		},
		{
			Name:  "Migration: apply (optional)",
			Focus: "apply schema before tests",
			Run: func(ctx context.Context, r *Runner) Result {
				if !r.cfg.ApplyMigration {
					return Result{Status: "SKIP", Note: "apply-migration=false"}
				}
				if r.db == nil {
					return Result{Status: "FAIL", Note: "db not configured"}
				}
				sql, err := os.ReadFile(r.cfg.MigrationPath)
				if err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				for _, s := range splitSQL(string(sql)) {
					if _, err := r.db.Exec(ctx, s); err != nil {
						return Result{Status: "FAIL", Note: err.Error()}
					}
				}
				return Result{Status: "PASS"}
			},
		},
		{
			Name:  "Migration: tables exist",
			Focus: "schema matches migrations/0001_init.sql",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.db == nil {
					return Result{Status: "FAIL", Note: "db not configured"}
				}
				tables, err := extractTables(r.cfg.MigrationPath)
				if err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				for _, t := range tables {
					var exists bool
					err := r.db.QueryRow(ctx,
						"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name=$1)",
						t,
					).Scan(&exists)
					if err != nil {
						return Result{Status: "FAIL", Note: err.Error()}
					}
					if !exists {
						return Result{Status: "FAIL", Note: "missing table: " + t}
					}
				}
				return Result{Status: "PASS"}
			},
		},
		{
			Name:  "Data: towns seeded",
			Focus: "at least one destination exists",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.db == nil {
					return Result{Status: "FAIL", Note: "db not configured"}
				}
				var n int
				if err := r.db.QueryRow(ctx, "SELECT count(*) FROM towns").Scan(&n); err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				if n == 0 {
					return Result{Status: "PENDING", Note: "no towns seeded"}
				}
				return Result{Status: "PASS", Note: fmt.Sprintf("towns=%d", n)}
			},
		},
		{
			Name:  "API: health endpoint",
			Focus: "server reachable",
			Run: func(ctx context.Context, r *Runner) Result {
				start := time.Now()
				resp, err := r.httpc.Get(base + "/health")
				if err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				_ = resp.Body.Close()
				if resp.StatusCode != 200 {
					return Result{Status: "FAIL", Note: fmt.Sprintf("status=%d", resp.StatusCode)}
				}
				return Result{Status: "PASS", Latency: time.Since(start)}
			},
		},

		// Input validation never reaches the LLM, so these are cheap.
		httpCase("Chat: missing message -> 400", base+"/api/chat", map[string]any{
			"session_id": "bench",
		}, []int{400}, nil),

		httpCase("Chat: missing session -> 400", base+"/api/chat", map[string]any{
			"message": "hola",
		}, []int{400}, nil),

		httpCase("Chat: blank message -> 400", base+"/api/chat", map[string]any{
			"message":    "   ",
			"session_id": "bench",
		}, []int{400}, nil),

		{
			Name:  "Chat: greeting turn",
			Focus: "full turn through classifier and experts",
			Run: func(ctx context.Context, r *Runner) Result {
				resp, lat, err := r.chatTurn(ctx, base, "hola", "")
				if err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				if resp.ConversationID == "" {
					return Result{Status: "FAIL", Note: "no conversation_id issued"}
				}
				if resp.Message == "" {
					return Result{Status: "FAIL", Note: "empty reply"}
				}
				return Result{Status: "PASS", Latency: lat, Note: "intent=" + resp.Intent}
			},
		},
		{
			Name:  "Chat: conversation continuity",
			Focus: "second turn keeps the id and accumulated state",
			Run: func(ctx context.Context, r *Runner) Result {
				first, _, err := r.chatTurn(ctx, base, "quiero ir a Guatavita", "")
				if err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				second, lat, err := r.chatTurn(ctx, base, "somos cuatro personas", first.ConversationID)
				if err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				if second.ConversationID != first.ConversationID {
					return Result{Status: "FAIL", Note: "conversation restarted"}
				}
				return Result{Status: "PASS", Latency: lat}
			},
		},
		{
			Name:  "Concurrency: same conversation turns",
			Focus: "optimistic state version surfaces as 409, never 5xx",
			Run: func(ctx context.Context, r *Runner) Result {
				return concurrentTurns(ctx, r, base)
			},
		},

		manualCase("Chat: classification quality", "needs manual review of intents over a Spanish message set"),
		manualCase("RAG: namespace answers", "needs rag_documents seeded for a town and a destination question"),
		manualCase("Leads: handoff row created", "needs a full selection+contact flow, then check the leads table"),

		{
			Name:  "Perf: health throughput",
			Focus: "baseline request rate",
			Run: func(ctx context.Context, r *Runner) Result {
				return perfLoad(ctx, r, http.MethodGet, base+"/health", nil)
			},
		},
		{
			Name:  "Perf: validation throughput",
			Focus: "rejects load without LLM spend",
			Run: func(ctx context.Context, r *Runner) Result {
				return perfLoad(ctx, r, http.MethodPost, base+"/api/chat", map[string]any{
					"session_id": "bench",
				})
			},
		},
	}
}

type chatResponse struct {
	Message        string `json:"message"`
	Intent         string `json:"intent"`
	ConversationID string `json:"conversation_id"`
}

func (r *Runner) chatTurn(ctx context.Context, base, message, conversationID string) (*chatResponse, time.Duration, error) {
	payload := map[string]any{
		"message":    message,
		"session_id": "bench",
	}
	if conversationID != "" {
		payload["conversation_id"] = conversationID
	}
	b, _ := json.Marshal(payload)

	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, base+"/api/chat", strings.NewReader(string(b)))
	req.Header.Set("Content-Type", "application/json")
	start := time.Now()
	resp, err := r.httpc.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	lat := time.Since(start)

	if resp.StatusCode != 200 {
		return nil, lat, fmt.Errorf("status=%d", resp.StatusCode)
	}
	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, lat, err
	}
	return &out, lat, nil
}

func httpCase(name, url string, body any, okStatuses, pendingStatuses []int) TestCase {
	return TestCase{
		Name:  name,
		Focus: "HTTP API",
		Run: func(ctx context.Context, r *Runner) Result {
			var reader io.Reader
			if body != nil {
				b, _ := json.Marshal(body)
				reader = strings.NewReader(string(b))
			}
			req, _ := http.NewRequestWithContext(ctx, http.MethodPost, url, reader)
			req.Header.Set("Content-Type", "application/json")
			start := time.Now()
			resp, err := r.httpc.Do(req)
			if err != nil {
				return Result{Status: "FAIL", Note: err.Error()}
			}
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			latency := time.Since(start)

			if contains(okStatuses, resp.StatusCode) {
				return Result{Status: "PASS", Latency: latency, Note: fmt.Sprintf("status=%d", resp.StatusCode)}
			}
			if contains(pendingStatuses, resp.StatusCode) {
				return Result{Status: "PENDING", Latency: latency, Note: fmt.Sprintf("status=%d", resp.StatusCode)}
			}
			return Result{Status: "FAIL", Latency: latency, Note: fmt.Sprintf("status=%d", resp.StatusCode)}
		},
	}
}

func manualCase(name, note string) TestCase {
	return TestCase{
		Name:  name,
		Focus: "Manual",
		Run: func(ctx context.Context, r *Runner) Result {
			return Result{Status: "SKIP", Note: note}
		},
	}
}

func concurrentTurns(ctx context.Context, r *Runner, base string) Result {
	first, _, err := r.chatTurn(ctx, base, "hola", "")
	if err != nil {
		return Result{Status: "FAIL", Note: err.Error()}
	}

	payload := map[string]any{
		"message":         "quiero ir a Guatavita",
		"session_id":      "bench",
		"conversation_id": first.ConversationID,
	}
	b, _ := json.Marshal(payload)

	wg := sync.WaitGroup{}
	mu := sync.Mutex{}
	bad := 0
	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req, _ := http.NewRequestWithContext(ctx, http.MethodPost, base+"/api/chat", strings.NewReader(string(b)))
			req.Header.Set("Content-Type", "application/json")
			resp, err := r.httpc.Do(req)
			if err != nil {
				return
			}
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			if resp.StatusCode != 200 && resp.StatusCode != 409 {
				mu.Lock()
				bad++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if bad > 0 {
		return Result{Status: "FAIL", Note: fmt.Sprintf("unexpected statuses=%d", bad)}
	}
	return Result{Status: "PASS"}
}

func perfLoad(ctx context.Context, r *Runner, method, url string, payload any) Result {
	var body string
	if payload != nil {
		b, _ := json.Marshal(payload)
		body = string(b)
	}
	end := time.Now().Add(r.cfg.Duration)
	var count int64
	var errCount int64
	var mu sync.Mutex
	wg := sync.WaitGroup{}

	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for time.Now().Before(end) {
				var reader io.Reader
				if body != "" {
					reader = strings.NewReader(body)
				}
				req, _ := http.NewRequestWithContext(ctx, method, url, reader)
				req.Header.Set("Content-Type", "application/json")
				resp, err := r.httpc.Do(req)
				if err != nil {
					mu.Lock()
					errCount++
					mu.Unlock()
					continue
				}
				io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
				mu.Lock()
				count++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if count == 0 {
		return Result{Status: "FAIL", Note: "no requests completed"}
	}
	rps := float64(count) / r.cfg.Duration.Seconds()
	return Result{Status: "PASS", Note: fmt.Sprintf("rps=%.1f errors=%d", rps, errCount)}
}

func contains(list []int, v int) bool {
	for _, i := range list {
		if i == v {
			return true
		}
	}
	return false
}

func extractTables(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	re := regexp.MustCompile(`(?i)create\s+table\s+if\s+not\s+exists\s+([a-zA-Z0-9_]+)`)
	matches := re.FindAllStringSubmatch(string(b), -1)
	tables := make([]string, 0, len(matches))
	for _, m := range matches {
		tables = append(tables, m[1])
	}
	return tables, nil
}

func splitSQL(sql string) []string {
	lines := strings.Split(sql, "\n")
	filtered := make([]string, 0, len(lines))
	for _, line := range lines {
		l := strings.TrimSpace(line)
		if strings.HasPrefix(l, "--") || l == "" {
			continue
		}
		filtered = append(filtered, line)
	}
	cleaned := strings.Join(filtered, "\n")
	parts := strings.Split(cleaned, ";")
	stmts := make([]string, 0, len(parts))
	for _, p := range parts {
		s := strings.TrimSpace(p)
		if s != "" {
			stmts = append(stmts, s)
		}
	}
	return stmts
}
