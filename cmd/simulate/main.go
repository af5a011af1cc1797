package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/goccy/go-json"

	"github.com/bellhart/clinic-portal/internal/schedule"
)

type SimConfig struct {
	APIBaseURL      string
	Duration        time.Duration
	Workers         int
	BookRatio       float64
	CancelRatio     float64
	CompleteRatio   float64
	RescheduleRatio float64
	ReadRatio       float64
}

type slotInfo struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Doctor   string `json:"doctor"`
	Location string `json:"location"`
}

type slotDetail struct {
	slotInfo
	SubSlots []struct {
		Key   string `json:"key"`
		Label string `json:"label"`
		Taken bool   `json:"taken"`
	} `json:"subSlots"`
}

// DataPool tracks which slots this run has booked so cancel and
// reschedule operations have something to act on.
type DataPool struct {
	Slots []slotInfo

	mu     sync.RWMutex
	booked []string
}

func (dp *DataPool) AddBooked(slotID string) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.booked = append(dp.booked, slotID)
}

func (dp *DataPool) RemoveBooked(slotID string) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	for i, id := range dp.booked {
		if id == slotID {
			dp.booked = append(dp.booked[:i], dp.booked[i+1:]...)
			return
		}
	}
}

func (dp *DataPool) RandomBooked(rng *rand.Rand) (string, bool) {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	if len(dp.booked) == 0 {
		return "", false
	}
	return dp.booked[rng.Intn(len(dp.booked))], true
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

func (om *OperationMetrics) Record(latency time.Duration, success, conflict bool) {
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

	sort.Slice(latencies, func(i, j int) bool {
		return latencies[i] < latencies[j]
	})

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}

	avg = sum / time.Duration(len(latencies))
	min = latencies[0]
	max = latencies[len(latencies)-1]

	p50Idx := len(latencies) * 50 / 100
	if p50Idx >= len(latencies) {
		p50Idx = len(latencies) - 1
	}
	p50 = latencies[p50Idx]

	p95Idx := len(latencies) * 95 / 100
	if p95Idx >= len(latencies) {
		p95Idx = len(latencies) - 1
	}
	p95 = latencies[p95Idx]

	return avg, min, max, p50, p95
}

type Metrics struct {
	Book       OperationMetrics
	Cancel     OperationMetrics
	Complete   OperationMetrics
	Reschedule OperationMetrics
	Schedule   OperationMetrics
	Upcoming   OperationMetrics
}

type Simulator struct {
	config  SimConfig
	pool    *DataPool
	client  *http.Client
	metrics Metrics
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("simulator starting")

	cfg := loadConfig()
	if err := validateConfig(cfg); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	log.Printf("config: base=%s duration=%s workers=%d book=%.2f cancel=%.2f complete=%.2f reschedule=%.2f read=%.2f",
		cfg.APIBaseURL, cfg.Duration, cfg.Workers, cfg.BookRatio, cfg.CancelRatio, cfg.CompleteRatio, cfg.RescheduleRatio, cfg.ReadRatio)

	gofakeit.Seed(time.Now().UnixNano())

	sim := &Simulator{
		config: cfg,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	pool, err := sim.loadDataPool(ctx)
	cancel()
	if err != nil {
		log.Fatalf("load schedule: %v", err)
	}
	sim.pool = pool
	log.Printf("loaded: %d slots", len(pool.Slots))

	sim.Run()
	sim.PrintReport()
}

func loadConfig() SimConfig {
	cfg := SimConfig{
		APIBaseURL:      getEnv("SIM_API_BASE_URL", "http://localhost:8787"),
		Duration:        getDuration("SIM_DURATION", 30*time.Second),
		Workers:         getInt("SIM_WORKERS", 4),
		BookRatio:       getFloat("SIM_BOOK_RATIO", 0.4),
		CancelRatio:     getFloat("SIM_CANCEL_RATIO", 0.1),
		CompleteRatio:   getFloat("SIM_COMPLETE_RATIO", 0.1),
		RescheduleRatio: getFloat("SIM_RESCHEDULE_RATIO", 0.1),
		ReadRatio:       getFloat("SIM_READ_RATIO", 0.3),
	}

	total := cfg.BookRatio + cfg.CancelRatio + cfg.CompleteRatio + cfg.RescheduleRatio + cfg.ReadRatio
	if total > 0 {
		cfg.BookRatio /= total
		cfg.CancelRatio /= total
		cfg.CompleteRatio /= total
		cfg.RescheduleRatio /= total
		cfg.ReadRatio /= total
	}

	return cfg
}

func validateConfig(cfg SimConfig) error {
	if cfg.Workers <= 0 {
		return fmt.Errorf("SIM_WORKERS must be > 0")
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("SIM_DURATION must be > 0")
	}
	return nil
}

func (s *Simulator) loadDataPool(ctx context.Context) (*DataPool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.config.APIBaseURL+"/schedule", nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET /schedule: status %d", resp.StatusCode)
	}

	var slots []slotInfo
	if err := json.NewDecoder(resp.Body).Decode(&slots); err != nil {
		return nil, fmt.Errorf("decode schedule: %w", err)
	}
	if len(slots) == 0 {
		return nil, fmt.Errorf("no slots in schedule")
	}

	pool := &DataPool{Slots: slots}
	for _, sl := range slots {
		if sl.Status == string(schedule.StatusBooked) {
			pool.booked = append(pool.booked, sl.ID)
		}
	}
	return pool, nil
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	log.Printf("starting simulation for %s with %d workers", s.config.Duration, s.config.Workers)

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}

	wg.Wait()
	log.Println("simulation complete")
}

func (s *Simulator) worker(ctx context.Context, workerID int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))

	for {
		select {
		case <-ctx.Done():
			return
		default:
			r := rng.Float64()
			switch {
			case r < s.config.BookRatio:
				s.doBook(ctx, rng)
			case r < s.config.BookRatio+s.config.CancelRatio:
				s.doCancel(ctx, rng)
			case r < s.config.BookRatio+s.config.CancelRatio+s.config.CompleteRatio:
				s.doComplete(ctx, rng)
			case r < s.config.BookRatio+s.config.CancelRatio+s.config.CompleteRatio+s.config.RescheduleRatio:
				s.doReschedule(ctx, rng)
			default:
				if rng.Intn(2) == 0 {
					s.doReadSchedule(ctx, rng)
				} else {
					s.doReadUpcoming(ctx)
				}
			}
		}
	}
}

func randomBookingRequest() schedule.BookingRequest {
	types := []schedule.AppointmentType{
		schedule.TypeConsultation,
		schedule.TypeLabTest,
		schedule.TypeFollowUp,
	}
	contact := schedule.ContactPhone
	if gofakeit.Bool() {
		contact = schedule.ContactEmail
	}
	dob := gofakeit.DateRange(
		time.Date(1940, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2007, 12, 31, 0, 0, 0, 0, time.UTC),
	)
	return schedule.BookingRequest{
		Type: types[gofakeit.IntRange(0, len(types)-1)],
		Patient: schedule.Patient{
			Name:             gofakeit.Name(),
			HealthNumber:     gofakeit.Numerify("##########"),
			DateOfBirth:      dob.Format("2006-01-02"),
			Sex:              gofakeit.RandomString([]string{"female", "male", "other"}),
			Phone:            gofakeit.Numerify("604#######"),
			Email:            gofakeit.Email(),
			PreferredContact: []schedule.ContactMethod{contact},
		},
	}
}

func (s *Simulator) doBook(ctx context.Context, rng *rand.Rand) {
	slot := s.pool.Slots[rng.Intn(len(s.pool.Slots))]
	body := randomBookingRequest()

	// Waitlist slots need a free sub-slot picked from the live grid.
	if slot.Status == string(schedule.StatusWaitlist) {
		key, ok := s.freeSubSlot(ctx, slot.ID, rng)
		if !ok {
			return
		}
		body.SubSlot = key
	}

	start := time.Now()
	resp, err := s.postJSON(ctx, "/schedule/slots/"+slot.ID+"/book", body)
	latency := time.Since(start)

	success, conflict := false, false
	if err == nil {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		switch resp.StatusCode {
		case http.StatusCreated:
			success = true
			s.pool.AddBooked(slot.ID)
		case http.StatusConflict:
			conflict = true
		}
	}
	s.metrics.Book.Record(latency, success, conflict)
}

func (s *Simulator) doCancel(ctx context.Context, rng *rand.Rand) {
	slotID, ok := s.pool.RandomBooked(rng)
	if !ok {
		return
	}

	start := time.Now()
	resp, err := s.postJSON(ctx, "/schedule/slots/"+slotID+"/cancel", nil)
	latency := time.Since(start)

	success, conflict := false, false
	if err == nil {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		switch resp.StatusCode {
		case http.StatusNoContent:
			success = true
			s.pool.RemoveBooked(slotID)
		case http.StatusConflict:
			conflict = true
		}
	}
	s.metrics.Cancel.Record(latency, success, conflict)
}

func (s *Simulator) doComplete(ctx context.Context, rng *rand.Rand) {
	slotID, ok := s.pool.RandomBooked(rng)
	if !ok {
		return
	}

	start := time.Now()
	resp, err := s.postJSON(ctx, "/schedule/slots/"+slotID+"/complete", nil)
	latency := time.Since(start)

	// Conflicts are expected: only past-start bookings can complete.
	success, conflict := false, false
	if err == nil {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		switch resp.StatusCode {
		case http.StatusOK:
			success = true
			s.pool.RemoveBooked(slotID)
		case http.StatusConflict:
			conflict = true
		}
	}
	s.metrics.Complete.Record(latency, success, conflict)
}

func (s *Simulator) doReschedule(ctx context.Context, rng *rand.Rand) {
	oldSlotID, ok := s.pool.RandomBooked(rng)
	if !ok {
		return
	}
	target := s.pool.Slots[rng.Intn(len(s.pool.Slots))]
	if target.ID == oldSlotID {
		return
	}

	body := struct {
		NewSlotID string `json:"newSlotId"`
		schedule.BookingRequest
	}{
		NewSlotID:      target.ID,
		BookingRequest: randomBookingRequest(),
	}
	if target.Status == string(schedule.StatusWaitlist) {
		key, ok := s.freeSubSlot(ctx, target.ID, rng)
		if !ok {
			return
		}
		body.SubSlot = key
	}

	start := time.Now()
	resp, err := s.postJSON(ctx, "/schedule/slots/"+oldSlotID+"/reschedule", body)
	latency := time.Since(start)

	success, conflict := false, false
	if err == nil {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		switch resp.StatusCode {
		case http.StatusOK:
			success = true
			s.pool.RemoveBooked(oldSlotID)
			s.pool.AddBooked(target.ID)
		case http.StatusConflict:
			conflict = true
		}
	}
	s.metrics.Reschedule.Record(latency, success, conflict)
}

func (s *Simulator) doReadSchedule(ctx context.Context, rng *rand.Rand) {
	url := s.config.APIBaseURL + "/schedule"
	if rng.Intn(2) == 0 {
		slot := s.pool.Slots[rng.Intn(len(s.pool.Slots))]
		url += "?doctor=" + strings.ReplaceAll(slot.Doctor, " ", "+")
	}

	start := time.Now()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	resp, err := s.client.Do(req)
	latency := time.Since(start)

	success := false
	if err == nil {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		success = resp.StatusCode == http.StatusOK
	}
	s.metrics.Schedule.Record(latency, success, false)
}

func (s *Simulator) doReadUpcoming(ctx context.Context) {
	start := time.Now()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, s.config.APIBaseURL+"/appointments/upcoming", nil)
	resp, err := s.client.Do(req)
	latency := time.Since(start)

	success := false
	if err == nil {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		success = resp.StatusCode == http.StatusOK
	}
	s.metrics.Upcoming.Record(latency, success, false)
}

func (s *Simulator) freeSubSlot(ctx context.Context, slotID string, rng *rand.Rand) (string, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.config.APIBaseURL+"/schedule/slots/"+slotID, nil)
	if err != nil {
		return "", false
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return "", false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", false
	}

	var detail slotDetail
	if err := json.NewDecoder(resp.Body).Decode(&detail); err != nil {
		return "", false
	}

	free := make([]string, 0, len(detail.SubSlots))
	for _, sub := range detail.SubSlots {
		if !sub.Taken {
			free = append(free, sub.Key)
		}
	}
	if len(free) == 0 {
		return "", false
	}
	return free[rng.Intn(len(free))], true
}

func (s *Simulator) postJSON(ctx context.Context, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.APIBaseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return s.client.Do(req)
}

func (s *Simulator) PrintReport() {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("SIMULATION REPORT")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Duration: %s\n", s.config.Duration)
	fmt.Printf("Workers: %d\n", s.config.Workers)
	fmt.Println()

	printOperationReport("Book", &s.metrics.Book)
	printOperationReport("Cancel", &s.metrics.Cancel)
	printOperationReport("Complete", &s.metrics.Complete)
	printOperationReport("Reschedule", &s.metrics.Reschedule)
	printOperationReport("Read schedule", &s.metrics.Schedule)
	printOperationReport("Read upcoming", &s.metrics.Upcoming)
}

func printOperationReport(name string, om *OperationMetrics) {
	total := atomic.LoadInt64(&om.Total)
	if total == 0 {
		return
	}

	success := atomic.LoadInt64(&om.Success)
	conflict := atomic.LoadInt64(&om.Conflict)
	failures := atomic.LoadInt64(&om.Error)

	avg, min, max, p50, p95 := om.Stats()

	fmt.Printf("%s:\n", name)
	fmt.Printf("  Total: %d\n", total)
	fmt.Printf("  Success: %d (%.1f%%)\n", success, float64(success)/float64(total)*100)
	if conflict > 0 {
		fmt.Printf("  Conflicts: %d (%.1f%%)\n", conflict, float64(conflict)/float64(total)*100)
	}
	if failures > 0 {
		fmt.Printf("  Errors: %d (%.1f%%)\n", failures, float64(failures)/float64(total)*100)
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
