package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/clinica-jazmin/dental-ledger/internal/appointment"
	"github.com/clinica-jazmin/dental-ledger/internal/config"
	"github.com/clinica-jazmin/dental-ledger/internal/db"
	"github.com/clinica-jazmin/dental-ledger/internal/logger"
)

type SimConfig struct {
	APIBaseURL   string
	Duration     time.Duration
	Workers      int
	BookingRatio float64
	StatusRatio  float64
	PaymentRatio float64
	ReadRatio    float64
	PatientLimit int
	// HotSlots is how many (date, time) pairs all workers compete for.
	HotSlots    int
	PostgresDSN string
}

type slot struct {
	Date appointment.Date
	Time appointment.TimeOfDay
}

type DataPool struct {
	Patients     []uuid.UUID
	Services     []uuid.UUID
	Slots        []slot
	mu           sync.RWMutex
	appointments []uuid.UUID // Thread-safe list of created appointment IDs
}

func (dp *DataPool) AddAppointment(id uuid.UUID) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.appointments = append(dp.appointments, id)
}

func (dp *DataPool) GetRandomAppointment(rng *rand.Rand) (uuid.UUID, bool) {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	if len(dp.appointments) == 0 {
		return uuid.Nil, false
	}
	return dp.appointments[rng.Intn(len(dp.appointments))], true
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

func (om *OperationMetrics) Record(latency time.Duration, success bool, conflict bool) {
	atomic.AddInt64(&om.Total, 1)
	if success {
		atomic.AddInt64(&om.Success, 1)
	} else if conflict {
		atomic.AddInt64(&om.Conflict, 1)
	} else {
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, min, max, p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.Latencies) == 0 {
		return 0, 0, 0, 0, 0
	}

	latencies := make([]time.Duration, len(om.Latencies))
	copy(latencies, om.Latencies)
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}

	avg = sum / time.Duration(len(latencies))
	min = latencies[0]
	max = latencies[len(latencies)-1]
	p50 = latencies[percentileIndex(len(latencies), 50)]
	p95 = latencies[percentileIndex(len(latencies), 95)]
	return avg, min, max, p50, p95
}

func percentileIndex(n, p int) int {
	idx := n * p / 100
	if idx >= n {
		idx = n - 1
	}
	return idx
}

type Metrics struct {
	Booking       OperationMetrics
	Status        OperationMetrics
	Payment       OperationMetrics
	ReadByID      OperationMetrics
	ListByPatient OperationMetrics
	ListByDate    OperationMetrics
}

type Simulator struct {
	config  SimConfig
	pool    *DataPool
	client  *http.Client
	metrics Metrics
	log     *zap.Logger
}

func main() {
	cfg, baseCfg := loadConfig()

	log, err := logger.New(baseCfg.Env, baseCfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := validateConfig(cfg); err != nil {
		log.Fatal("invalid config", zap.Error(err))
	}

	log.Info("simulator starting",
		zap.Duration("duration", cfg.Duration),
		zap.Int("workers", cfg.Workers),
		zap.Int("hot_slots", cfg.HotSlots),
		zap.Float64("booking", cfg.BookingRatio),
		zap.Float64("status", cfg.StatusRatio),
		zap.Float64("payment", cfg.PaymentRatio),
		zap.Float64("read", cfg.ReadRatio),
	)

	// Load data from Postgres
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pgPool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("connect postgres", zap.Error(err))
	}
	defer pgPool.Close()

	dataPool, err := loadDataPool(ctx, pgPool, cfg)
	if err != nil {
		log.Fatal("load data pool", zap.Error(err))
	}

	log.Info("data loaded",
		zap.Int("patients", len(dataPool.Patients)),
		zap.Int("services", len(dataPool.Services)),
		zap.Int("slots", len(dataPool.Slots)),
	)

	sim := &Simulator{
		config: cfg,
		pool:   dataPool,
		client: &http.Client{Timeout: 10 * time.Second},
		log:    log,
	}

	sim.Run()
	sim.PrintReport()

	dupes, err := countDoubleBookings(context.Background(), pgPool)
	if err != nil {
		log.Fatal("verify slots", zap.Error(err))
	}
	if dupes > 0 {
		log.Error("double-booked slots found", zap.Int("slots", dupes))
		os.Exit(1)
	}
	log.Info("no double-booked slots")
}

func loadConfig() (SimConfig, config.Config) {
	baseCfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load base config: %v\n", err)
		os.Exit(1)
	}

	cfg := SimConfig{
		APIBaseURL:   getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		Duration:     getDuration("SIM_DURATION", 30*time.Second),
		Workers:      getInt("SIM_WORKERS", 10),
		BookingRatio: getFloat("SIM_BOOKING_RATIO", 0.5),
		StatusRatio:  getFloat("SIM_STATUS_RATIO", 0.15),
		PaymentRatio: getFloat("SIM_PAYMENT_RATIO", 0.1),
		ReadRatio:    getFloat("SIM_READ_RATIO", 0.25),
		PatientLimit: getInt("SIM_PATIENT_LIMIT", 1000),
		HotSlots:     getInt("SIM_HOT_SLOTS", 40),
		PostgresDSN:  baseCfg.PostgresDSN,
	}

	// Normalize ratios
	total := cfg.BookingRatio + cfg.StatusRatio + cfg.PaymentRatio + cfg.ReadRatio
	if total > 0 {
		cfg.BookingRatio /= total
		cfg.StatusRatio /= total
		cfg.PaymentRatio /= total
		cfg.ReadRatio /= total
	}

	return cfg, baseCfg
}

func validateConfig(cfg SimConfig) error {
	if cfg.PostgresDSN == "" {
		return fmt.Errorf("POSTGRES_DSN is required (set in .env or environment)")
	}
	if cfg.Workers <= 0 {
		return fmt.Errorf("SIM_WORKERS must be > 0")
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("SIM_DURATION must be > 0")
	}
	if cfg.HotSlots <= 0 {
		return fmt.Errorf("SIM_HOT_SLOTS must be > 0")
	}
	return nil
}

func loadIDs(ctx context.Context, pool *pgxpool.Pool, query string, args ...any) ([]uuid.UUID, error) {
	rows, err := pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func loadDataPool(ctx context.Context, pool *pgxpool.Pool, cfg SimConfig) (*DataPool, error) {
	dataPool := &DataPool{}

	var err error
	dataPool.Patients, err = loadIDs(ctx, pool, `
		SELECT id FROM accounts WHERE role = 'patient' AND active LIMIT $1
	`, cfg.PatientLimit)
	if err != nil {
		return nil, fmt.Errorf("load patients: %w", err)
	}
	dataPool.Services, err = loadIDs(ctx, pool, `SELECT id FROM dental_services`)
	if err != nil {
		return nil, fmt.Errorf("load services: %w", err)
	}

	if len(dataPool.Patients) == 0 {
		return nil, fmt.Errorf("no patients loaded")
	}
	if len(dataPool.Services) == 0 {
		return nil, fmt.Errorf("no services loaded")
	}

	// Half-hour slots on future days, far enough out not to collide with seed data.
	start := appointment.DateOf(time.Now()).AddDays(30)
	for i := 0; i < cfg.HotSlots; i++ {
		dataPool.Slots = append(dataPool.Slots, slot{
			Date: start.AddDays(i / 20),
			Time: appointment.TimeOfDay{Hour: 9 + (i%20)/2, Minute: 30 * (i % 2)},
		})
	}

	return dataPool, nil
}

func countDoubleBookings(ctx context.Context, pool *pgxpool.Pool) (int, error) {
	var n int
	err := pool.QueryRow(ctx, `
		SELECT count(*) FROM (
			SELECT date, time
			FROM appointments
			WHERE status <> 'cancelled'
			GROUP BY date, time
			HAVING count(*) > 1
		) d
	`).Scan(&n)
	return n, err
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	s.log.Info("starting simulation", zap.Duration("duration", s.config.Duration), zap.Int("workers", s.config.Workers))

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}

	wg.Wait()
	s.log.Info("simulation complete")
}

func (s *Simulator) worker(ctx context.Context, workerID int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))

	for {
		select {
		case <-ctx.Done():
			return
		default:
			// Select operation based on ratios
			r := rng.Float64()
			switch {
			case r < s.config.BookingRatio:
				s.doBooking(ctx, rng)
			case r < s.config.BookingRatio+s.config.StatusRatio:
				s.doStatusChange(ctx, rng)
			case r < s.config.BookingRatio+s.config.StatusRatio+s.config.PaymentRatio:
				s.doPayment(ctx, rng)
			default:
				switch rng.Intn(3) {
				case 0:
					s.doReadByID(ctx, rng)
				case 1:
					s.doListByPatient(ctx, rng)
				case 2:
					s.doListByDate(ctx, rng)
				}
			}
		}
	}
}

// send performs a request and reports the status code. A transport error
// is reported as status 0.
func (s *Simulator) send(ctx context.Context, method, path string, body any) (int, []byte, time.Duration) {
	var reader io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.config.APIBaseURL+path, reader)
	if err != nil {
		return 0, nil, 0
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	latency := time.Since(start)
	if err != nil {
		return 0, nil, latency
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, data, latency
}

func (s *Simulator) doBooking(ctx context.Context, rng *rand.Rand) {
	sl := s.pool.Slots[rng.Intn(len(s.pool.Slots))]

	code, data, latency := s.send(ctx, http.MethodPost, "/appointments", map[string]string{
		"patient_id": s.pool.Patients[rng.Intn(len(s.pool.Patients))].String(),
		"service_id": s.pool.Services[rng.Intn(len(s.pool.Services))].String(),
		"date":       sl.Date.String(),
		"time":       sl.Time.String(),
	})

	if code == http.StatusCreated {
		var apptResp struct {
			ID uuid.UUID `json:"id"`
		}
		if json.Unmarshal(data, &apptResp) == nil && apptResp.ID != uuid.Nil {
			s.pool.AddAppointment(apptResp.ID)
		}
	}

	s.metrics.Booking.Record(latency, code == http.StatusCreated, code == http.StatusConflict)
}

func (s *Simulator) doStatusChange(ctx context.Context, rng *rand.Rand) {
	apptID, ok := s.pool.GetRandomAppointment(rng)
	if !ok {
		return
	}

	statuses := []string{"confirmed", "completed", "cancelled"}
	code, _, latency := s.send(ctx, http.MethodPost,
		fmt.Sprintf("/appointments/%s/status", apptID), map[string]string{
			"status": statuses[rng.Intn(len(statuses))],
		})

	s.metrics.Status.Record(latency, code == http.StatusOK, code == http.StatusConflict)
}

func (s *Simulator) doPayment(ctx context.Context, rng *rand.Rand) {
	apptID, ok := s.pool.GetRandomAppointment(rng)
	if !ok {
		return
	}

	code, _, latency := s.send(ctx, http.MethodPut,
		fmt.Sprintf("/appointments/%s/payment", apptID), map[string]any{
			"paid_amount": strconv.Itoa(rng.Intn(200)),
			"method":      "cash",
		})

	s.metrics.Payment.Record(latency, code == http.StatusOK, false)
}

func (s *Simulator) doReadByID(ctx context.Context, rng *rand.Rand) {
	apptID, ok := s.pool.GetRandomAppointment(rng)
	if !ok {
		return
	}

	code, _, latency := s.send(ctx, http.MethodGet, "/appointments/"+apptID.String(), nil)
	s.metrics.ReadByID.Record(latency, code == http.StatusOK, false)
}

func (s *Simulator) doListByPatient(ctx context.Context, rng *rand.Rand) {
	patientID := s.pool.Patients[rng.Intn(len(s.pool.Patients))]

	code, _, latency := s.send(ctx, http.MethodGet,
		fmt.Sprintf("/appointments?patient_id=%s&limit=20&offset=0", patientID), nil)
	s.metrics.ListByPatient.Record(latency, code == http.StatusOK, false)
}

func (s *Simulator) doListByDate(ctx context.Context, rng *rand.Rand) {
	sl := s.pool.Slots[rng.Intn(len(s.pool.Slots))]

	code, _, latency := s.send(ctx, http.MethodGet, "/appointments?date="+sl.Date.String(), nil)
	s.metrics.ListByDate.Record(latency, code == http.StatusOK, false)
}

func (s *Simulator) PrintReport() {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("SIMULATION REPORT")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Duration: %s\n", s.config.Duration)
	fmt.Printf("Workers: %d\n", s.config.Workers)
	fmt.Printf("Hot slots: %d\n", s.config.HotSlots)
	fmt.Println()

	printOperationReport("Booking", &s.metrics.Booking)
	printOperationReport("Status change", &s.metrics.Status)
	printOperationReport("Payment", &s.metrics.Payment)
	printOperationReport("Read by ID", &s.metrics.ReadByID)
	printOperationReport("List by Patient", &s.metrics.ListByPatient)
	printOperationReport("List by Date", &s.metrics.ListByDate)
}

func printOperationReport(name string, om *OperationMetrics) {
	total := atomic.LoadInt64(&om.Total)
	if total == 0 {
		return
	}

	success := atomic.LoadInt64(&om.Success)
	conflict := atomic.LoadInt64(&om.Conflict)
	failed := atomic.LoadInt64(&om.Error)

	avg, min, max, p50, p95 := om.Stats()

	fmt.Printf("%s:\n", name)
	fmt.Printf("  Total: %d\n", total)
	fmt.Printf("  Success: %d (%.1f%%)\n", success, float64(success)/float64(total)*100)
	if conflict > 0 {
		fmt.Printf("  Conflicts: %d (%.1f%%)\n", conflict, float64(conflict)/float64(total)*100)
	}
	if failed > 0 {
		fmt.Printf("  Errors: %d (%.1f%%)\n", failed, float64(failed)/float64(total)*100)
	}
	fmt.Printf("  Latency: avg=%s min=%s max=%s p50=%s p95=%s\n",
		avg.Round(time.Millisecond), min.Round(time.Millisecond), max.Round(time.Millisecond),
		p50.Round(time.Millisecond), p95.Round(time.Millisecond))
	fmt.Println()
}

// Helper functions

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
