// Команда loadtest гоняет конкурентное оформление заказов через HTTP API.
// Основной сценарий — борьба за остатки одного товара: проверяет, что сток
// никогда не уходит в минус и отказ идёт кодом 409, а не 5xx.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type config struct {
	baseURL     string
	total       int
	concurrency int
	timeout     time.Duration
	productID   int64
	quantity    int32
	cancelRate  int
	email       string
	password    string
	idempotent  bool
	outputPath  string
}

type latencySummary struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
	Avg float64 `json:"avg"`
	P50 float64 `json:"p50"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
}

type report struct {
	StartedAt       time.Time        `json:"started_at"`
	DurationSeconds float64          `json:"duration_seconds"`
	Total           int64            `json:"total"`
	Placed          int64            `json:"placed"`
	OutOfStock      int64            `json:"out_of_stock"`
	Failed          int64            `json:"failed"`
	Cancelled       int64            `json:"cancelled"`
	RPS             float64          `json:"rps"`
	StatusCodes     map[string]int64 `json:"status_codes"`
	LatencyMs       latencySummary   `json:"latency_ms"`
}

type collector struct {
	mu         sync.Mutex
	total      int64
	placed     int64
	outOfStock int64
	failed     int64
	cancelled  int64
	codes      map[string]int64
	latencies  []float64
}

func newCollector() *collector {
	return &collector{codes: make(map[string]int64)}
}

func (c *collector) record(status int, latency time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.total++
	c.codes[fmt.Sprintf("%d", status)]++
	c.latencies = append(c.latencies, float64(latency.Milliseconds()))

	switch {
	case status == http.StatusCreated:
		c.placed++
	case status == http.StatusConflict:
		c.outOfStock++
	default:
		c.failed++
	}
}

func (c *collector) recordCancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelled++
}

func (c *collector) buildReport(startedAt time.Time, duration time.Duration) report {
	c.mu.Lock()
	defer c.mu.Unlock()

	rps := 0.0
	if duration > 0 {
		rps = float64(c.total) / duration.Seconds()
	}
	return report{
		StartedAt:       startedAt,
		DurationSeconds: duration.Seconds(),
		Total:           c.total,
		Placed:          c.placed,
		OutOfStock:      c.outOfStock,
		Failed:          c.failed,
		Cancelled:       c.cancelled,
		RPS:             rps,
		StatusCodes:     c.codes,
		LatencyMs:       buildLatencySummary(c.latencies),
	}
}

func parseConfig() (config, error) {
	var cfg config

	flag.StringVar(&cfg.baseURL, "addr", "http://localhost:8080", "base URL of the API server")
	flag.IntVar(&cfg.total, "total", 100, "total number of orders to place")
	flag.IntVar(&cfg.concurrency, "concurrency", 10, "number of concurrent workers")
	flag.DurationVar(&cfg.timeout, "timeout", 5*time.Second, "per-request timeout")
	flag.Int64Var(&cfg.productID, "product", 0, "product id to order (required)")
	var qty int
	flag.IntVar(&qty, "qty", 1, "quantity per order")
	flag.IntVar(&cfg.cancelRate, "cancel-rate", 0, "percent of placed orders to cancel (0..100)")
	flag.StringVar(&cfg.email, "email", "", "existing account email (a throwaway account is registered when empty)")
	flag.StringVar(&cfg.password, "password", "loadtest-secret", "account password")
	flag.BoolVar(&cfg.idempotent, "idempotency", false, "send a unique Idempotency-Key per order")
	flag.StringVar(&cfg.outputPath, "output", "", "write the JSON report to this file")
	flag.Parse()

	cfg.quantity = int32(qty)
	cfg.baseURL = strings.TrimRight(cfg.baseURL, "/")

	if cfg.productID <= 0 {
		return config{}, fmt.Errorf("-product is required")
	}
	if cfg.total <= 0 || cfg.concurrency <= 0 {
		return config{}, fmt.Errorf("-total and -concurrency must be positive")
	}
	if cfg.quantity <= 0 {
		return config{}, fmt.Errorf("-qty must be positive")
	}
	if cfg.cancelRate < 0 || cfg.cancelRate > 100 {
		return config{}, fmt.Errorf("-cancel-rate must be in 0..100")
	}
	return cfg, nil
}

func main() {
	cfg, err := parseConfig()
	if err != nil {
		fail("%v", err)
	}

	client := &http.Client{Timeout: cfg.timeout}

	token, err := obtainToken(client, cfg)
	if err != nil {
		fail("authentication failed: %v", err)
	}

	stats := newCollector()
	jobs := make(chan int)
	var wg sync.WaitGroup

	startedAt := time.Now()
	for i := 0; i < cfg.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			worker(client, cfg, token, jobs, stats)
		}()
	}
	for i := 0; i < cfg.total; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	duration := time.Since(startedAt)

	result := stats.buildReport(startedAt, duration)
	printReport(result)

	if cfg.outputPath != "" {
		if err := writeJSONReport(cfg.outputPath, result); err != nil {
			fail("write report: %v", err)
		}
	}
}

func worker(client *http.Client, cfg config, token string, jobs <-chan int, stats *collector) {
	orderPath := cfg.baseURL + "/api/v1/orders"

	for index := range jobs {
		body, _ := json.Marshal(map[string]any{
			"items": []map[string]any{
				{"productId": cfg.productID, "quantity": cfg.quantity},
			},
		})

		req, err := http.NewRequest(http.MethodPost, orderPath, bytes.NewReader(body))
		if err != nil {
			stats.record(0, 0)
			continue
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		if cfg.idempotent {
			req.Header.Set("Idempotency-Key", uuid.NewString())
		}

		started := time.Now()
		resp, err := client.Do(req)
		latency := time.Since(started)
		if err != nil {
			stats.record(0, latency)
			continue
		}

		var placed struct {
			ID int64 `json:"id"`
		}
		decodeErr := json.NewDecoder(resp.Body).Decode(&placed)
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()

		stats.record(resp.StatusCode, latency)

		if resp.StatusCode == http.StatusCreated && decodeErr == nil &&
			cfg.cancelRate > 0 && index%100 < cfg.cancelRate {
			if cancelOrder(client, cfg, token, placed.ID) {
				stats.recordCancel()
			}
		}
	}
}

func cancelOrder(client *http.Client, cfg config, token string, orderID int64) bool {
	path := fmt.Sprintf("%s/api/v1/orders/%d/cancel", cfg.baseURL, orderID)
	req, err := http.NewRequest(http.MethodPost, path, nil)
	if err != nil {
		return false
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	return resp.StatusCode == http.StatusNoContent
}

// obtainToken логинится; без -email регистрирует одноразовый аккаунт.
func obtainToken(client *http.Client, cfg config) (string, error) {
	email := cfg.email
	if email == "" {
		email = fmt.Sprintf("loadtest-%s@example.com", uuid.NewString()[:8])
		registerBody, _ := json.Marshal(map[string]string{
			"name":     "Load Test",
			"email":    email,
			"password": cfg.password,
		})
		resp, err := client.Post(cfg.baseURL+"/api/v1/auth/register", "application/json", bytes.NewReader(registerBody))
		if err != nil {
			return "", err
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
		if resp.StatusCode != http.StatusCreated {
			return "", fmt.Errorf("register returned %d", resp.StatusCode)
		}
	}

	loginBody, _ := json.Marshal(map[string]string{
		"email":    email,
		"password": cfg.password,
	})
	resp, err := client.Post(cfg.baseURL+"/api/v1/auth/login", "application/json", bytes.NewReader(loginBody))
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login returned %d", resp.StatusCode)
	}

	var login struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&login); err != nil {
		return "", err
	}
	if login.Token == "" {
		return "", fmt.Errorf("login response has no token")
	}
	return login.Token, nil
}

func printReport(result report) {
	fmt.Printf("total=%d placed=%d out_of_stock=%d failed=%d cancelled=%d rps=%.1f\n",
		result.Total, result.Placed, result.OutOfStock, result.Failed, result.Cancelled, result.RPS)
	fmt.Printf("latency ms: min=%.1f p50=%.1f p95=%.1f p99=%.1f max=%.1f\n",
		result.LatencyMs.Min, result.LatencyMs.P50, result.LatencyMs.P95, result.LatencyMs.P99, result.LatencyMs.Max)
	for code, count := range result.StatusCodes {
		fmt.Printf("  status %s: %d\n", code, count)
	}
}

func writeJSONReport(path string, result report) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	encoded, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, encoded, 0o644)
}

func buildLatencySummary(values []float64) latencySummary {
	if len(values) == 0 {
		return latencySummary{}
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}

	return latencySummary{
		Min: sorted[0],
		Max: sorted[len(sorted)-1],
		Avg: sum / float64(len(sorted)),
		P50: percentile(sorted, 50),
		P95: percentile(sorted, 95),
		P99: percentile(sorted, 99),
	}
}

func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := p / 100 * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper {
		return sorted[lower]
	}
	weight := rank - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

func fail(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
