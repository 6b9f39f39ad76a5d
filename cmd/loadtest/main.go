package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

const defaultPriceMinor = int64(15000)

type loadMode string

const (
	modeCreate        loadMode = "create"
	modeCreateReady   loadMode = "create-ready"
	modeCreateArchive loadMode = "create-archive"
)

type config struct {
	baseURL     string
	total       int
	totalSet    bool
	duration    time.Duration
	concurrency int
	timeout     time.Duration
	mode        loadMode
	priceMinor  int64
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

type methodReport struct {
	Calls     int64            `json:"calls"`
	Success   int64            `json:"success"`
	Failed    int64            `json:"failed"`
	ErrorRate float64          `json:"error_rate"`
	Codes     map[string]int64 `json:"codes"`
	LatencyMs latencySummary   `json:"latency_ms"`
}

type report struct {
	StartedAt         time.Time               `json:"started_at"`
	DurationSeconds   float64                 `json:"duration_seconds"`
	TotalScenarios    int64                   `json:"total_scenarios"`
	SuccessScenarios  int64                   `json:"success_scenarios"`
	FailedScenarios   int64                   `json:"failed_scenarios"`
	ErrorRate         float64                 `json:"error_rate"`
	RPS               float64                 `json:"rps"`
	ScenarioLatencyMs latencySummary          `json:"scenario_latency_ms"`
	Methods           map[string]methodReport `json:"methods"`
}

type methodStats struct {
	calls     int64
	success   int64
	failed    int64
	codes     map[string]int64
	latencies []float64
}

type collector struct {
	mu      sync.Mutex
	methods map[string]*methodStats
}

func newCollector() *collector {
	return &collector{methods: make(map[string]*methodStats)}
}

func (c *collector) record(method string, latency time.Duration, code int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats, ok := c.methods[method]
	if !ok {
		stats = &methodStats{codes: make(map[string]int64)}
		c.methods[method] = stats
	}

	stats.calls++
	if code >= 200 && code < 300 {
		stats.success++
	} else {
		stats.failed++
	}
	stats.codes[fmt.Sprintf("%d", code)]++
	stats.latencies = append(stats.latencies, float64(latency.Microseconds())/1000.0)
}

func (c *collector) buildReport(startedAt time.Time, duration time.Duration) report {
	c.mu.Lock()
	defer c.mu.Unlock()

	result := report{
		StartedAt:       startedAt.UTC(),
		DurationSeconds: duration.Seconds(),
		Methods:         make(map[string]methodReport, len(c.methods)),
	}

	scenarioStats := c.methods["scenario"]
	if scenarioStats != nil {
		result.TotalScenarios = scenarioStats.calls
		result.SuccessScenarios = scenarioStats.success
		result.FailedScenarios = scenarioStats.failed
		result.ErrorRate = ratio(scenarioStats.failed, scenarioStats.calls)
		result.ScenarioLatencyMs = buildLatencySummary(scenarioStats.latencies)
	}
	if duration > 0 {
		result.RPS = float64(result.TotalScenarios) / duration.Seconds()
	}

	for name, stats := range c.methods {
		codesCopy := make(map[string]int64, len(stats.codes))
		for code, count := range stats.codes {
			codesCopy[code] = count
		}
		result.Methods[name] = methodReport{
			Calls:     stats.calls,
			Success:   stats.success,
			Failed:    stats.failed,
			ErrorRate: ratio(stats.failed, stats.calls),
			Codes:     codesCopy,
			LatencyMs: buildLatencySummary(stats.latencies),
		}
	}

	return result
}

func parseConfig() (config, error) {
	var cfg config
	var modeValue string
	var timeoutValue string
	var durationValue string

	flag.StringVar(&cfg.baseURL, "addr", "http://localhost:8080", "HTTP API base URL")
	flag.IntVar(&cfg.total, "total", 400, "total scenarios to execute in count mode")
	flag.StringVar(&durationValue, "duration", "0s", "optional time-based run duration (e.g. 10m)")
	flag.IntVar(&cfg.concurrency, "concurrency", 40, "number of concurrent workers")
	flag.StringVar(&timeoutValue, "timeout", "5s", "per-request timeout")
	flag.StringVar(&modeValue, "mode", string(modeCreate), "load mode: create | create-ready | create-archive")
	flag.Int64Var(&cfg.priceMinor, "price-minor", defaultPriceMinor, "seeded product price in minor units")
	flag.StringVar(&cfg.outputPath, "output", "", "optional JSON report output file path")
	flag.Parse()

	timeout, err := time.ParseDuration(strings.TrimSpace(timeoutValue))
	if err != nil {
		return cfg, fmt.Errorf("parse timeout: %w", err)
	}
	cfg.timeout = timeout

	duration, err := time.ParseDuration(strings.TrimSpace(durationValue))
	if err != nil {
		return cfg, fmt.Errorf("parse duration: %w", err)
	}
	cfg.duration = duration

	flag.CommandLine.Visit(func(f *flag.Flag) {
		if f.Name == "total" {
			cfg.totalSet = true
		}
	})

	switch loadMode(strings.TrimSpace(modeValue)) {
	case modeCreate, modeCreateReady, modeCreateArchive:
		cfg.mode = loadMode(strings.TrimSpace(modeValue))
	default:
		return cfg, fmt.Errorf("unsupported mode: %s", modeValue)
	}

	if cfg.duration < 0 {
		return cfg, errors.New("duration must be >= 0")
	}
	if cfg.duration == 0 && cfg.total <= 0 {
		return cfg, errors.New("total must be > 0 in count mode")
	}
	if cfg.concurrency <= 0 {
		return cfg, errors.New("concurrency must be > 0")
	}
	cfg.baseURL = strings.TrimRight(cfg.baseURL, "/")

	return cfg, nil
}

type apiClient struct {
	base   string
	client *http.Client
	stats  *collector
}

type apiEnvelope struct {
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func (c *apiClient) call(ctx context.Context, name, method, path string, body any, out any) (int, error) {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("marshal %s body: %w", name, err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	started := time.Now()
	resp, err := c.client.Do(req)
	latency := time.Since(started)
	if err != nil {
		c.stats.record(name, latency, 0)
		return 0, err
	}
	defer resp.Body.Close()

	var envelope apiEnvelope
	decodeErr := json.NewDecoder(resp.Body).Decode(&envelope)
	c.stats.record(name, latency, resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("%s: http %d: %s", name, resp.StatusCode, envelope.Message)
	}
	if decodeErr != nil {
		return resp.StatusCode, fmt.Errorf("decode %s response: %w", name, decodeErr)
	}
	if out != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode %s data: %w", name, err)
		}
	}

	return resp.StatusCode, nil
}

type seededFixtures struct {
	productID string
	tableID   string
	waiterID  string
}

// seed готовит справочники для сценариев: повар, официант, продукт и стол.
func seed(ctx context.Context, client *apiClient, priceMinor int64) (seededFixtures, error) {
	suffix := time.Now().UnixNano()

	var user struct {
		ID string `json:"id"`
	}
	if _, err := client.call(ctx, "create_user", http.MethodPost, "/api/users", map[string]any{
		"username": fmt.Sprintf("load-cook-%d", suffix),
		"role":     "KITCHEN",
	}, &user); err != nil {
		return seededFixtures{}, err
	}

	var product struct {
		ID string `json:"id"`
	}
	if _, err := client.call(ctx, "create_product", http.MethodPost, "/api/products", map[string]any{
		"name":         fmt.Sprintf("load-dish-%d", suffix),
		"price":        priceMinor,
		"assignedToId": user.ID,
	}, &product); err != nil {
		return seededFixtures{}, err
	}

	var table struct {
		ID string `json:"id"`
	}
	if _, err := client.call(ctx, "create_table", http.MethodPost, "/api/tables", map[string]any{
		"number": fmt.Sprintf("load-%d", suffix),
	}, &table); err != nil {
		return seededFixtures{}, err
	}

	var waiter struct {
		ID string `json:"id"`
	}
	if _, err := client.call(ctx, "create_user", http.MethodPost, "/api/users", map[string]any{
		"username": fmt.Sprintf("load-waiter-%d", suffix),
		"role":     "WAITER",
	}, &waiter); err != nil {
		return seededFixtures{}, err
	}

	return seededFixtures{productID: product.ID, tableID: table.ID, waiterID: waiter.ID}, nil
}

type orderPayload struct {
	ID    string `json:"id"`
	Items []struct {
		ID string `json:"id"`
	} `json:"orderItems"`
}

// runScenario выполняет один сценарий выбранного режима.
func runScenario(ctx context.Context, client *apiClient, cfg config, fixtures seededFixtures) error {
	var order orderPayload
	if _, err := client.call(ctx, "create_order", http.MethodPost, "/api/orders", map[string]any{
		"tableId": fixtures.tableID,
		"userId":  fixtures.waiterID,
		"orderItems": []map[string]any{
			{"productId": fixtures.productID, "count": 2},
		},
	}, &order); err != nil {
		return err
	}

	if cfg.mode == modeCreate {
		return nil
	}

	for _, item := range order.Items {
		if _, err := client.call(ctx, "item_ready", http.MethodPatch, "/api/order-items/"+item.ID, map[string]any{
			"status": "READY",
		}, nil); err != nil {
			return err
		}
	}

	if cfg.mode == modeCreateReady {
		return nil
	}

	_, err := client.call(ctx, "archive_order", http.MethodPatch, "/api/orders/"+order.ID, map[string]any{
		"status": "ARCHIVE",
	}, nil)
	return err
}

func main() {
	cfg, err := parseConfig()
	if err != nil {
		fail("invalid configuration: %v", err)
	}

	stats := newCollector()
	client := &apiClient{
		base:   cfg.baseURL,
		client: &http.Client{Timeout: cfg.timeout},
		stats:  stats,
	}

	rootCtx := context.Background()
	seedCtx, cancelSeed := context.WithTimeout(rootCtx, 30*time.Second)
	fixtures, err := seed(seedCtx, client, cfg.priceMinor)
	cancelSeed()
	if err != nil {
		fail("seed fixtures: %v", err)
	}

	runCtx := rootCtx
	var cancelRun context.CancelFunc
	if cfg.duration > 0 {
		runCtx, cancelRun = context.WithTimeout(rootCtx, cfg.duration)
		defer cancelRun()
	}

	var scheduled int64
	var wg sync.WaitGroup
	startedAt := time.Now()

	for range cfg.concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if runCtx.Err() != nil {
					return
				}
				if cfg.duration == 0 || cfg.totalSet {
					if atomic.AddInt64(&scheduled, 1) > int64(cfg.total) {
						return
					}
				}

				scenarioStart := time.Now()
				err := runScenario(runCtx, client, cfg, fixtures)
				code := 200
				if err != nil {
					if errors.Is(err, context.DeadlineExceeded) && runCtx.Err() != nil {
						return
					}
					code = 0
				}
				stats.record("scenario", time.Since(scenarioStart), code)
			}
		}()
	}

	wg.Wait()
	result := stats.buildReport(startedAt, time.Since(startedAt))

	raw, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fail("marshal report: %v", err)
	}
	fmt.Println(string(raw))

	if cfg.outputPath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.outputPath), 0o755); err != nil {
			fail("create output dir: %v", err)
		}
		if err := os.WriteFile(cfg.outputPath, raw, 0o644); err != nil {
			fail("write report: %v", err)
		}
	}
}

func buildLatencySummary(latencies []float64) latencySummary {
	if len(latencies) == 0 {
		return latencySummary{}
	}

	sorted := make([]float64, len(latencies))
	copy(sorted, latencies)
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
	rank := int(math.Ceil(p/100.0*float64(len(sorted)))) - 1
	if rank < 0 {
		rank = 0
	}
	if rank >= len(sorted) {
		rank = len(sorted) - 1
	}
	return sorted[rank]
}

func ratio(part, total int64) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total)
}

func fail(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
