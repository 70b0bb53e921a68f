package monitoring

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/mem"
)

// HostStats is the latest host sample shown by the health endpoint.
type HostStats struct {
	MemoryUsedPercent float64   `json:"memoryUsedPercent"`
	SampledAt         time.Time `json:"sampledAt"`
}

// StatUpdater periodically samples host memory usage.
type StatUpdater struct {
	interval time.Duration
	sample   func() (float64, error)
	ticker   *time.Ticker
	done     chan struct{}
	once     sync.Once

	mu     sync.RWMutex
	latest HostStats
}

// NewStatUpdater creates a new StatUpdater.
func NewStatUpdater(interval time.Duration) *StatUpdater {
	return &StatUpdater{
		interval: interval,
		sample:   virtualMemoryPercent,
		done:     make(chan struct{}),
	}
}

func virtualMemoryPercent() (float64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, err
	}
	return vm.UsedPercent, nil
}

// Run starts the periodic updates. It blocks until Stop is called.
func (su *StatUpdater) Run() {
	log.Info().Msg("Starting background stat updater...")
	su.ticker = time.NewTicker(su.interval)
	defer su.ticker.Stop()

	// Run once immediately on start
	su.Update()

	for {
		select {
		case <-su.done:
			log.Info().Msg("Stopping background stat updater.")
			return
		case <-su.ticker.C:
			su.Update()
		}
	}
}

// Stop halts the updater. It is safe to call more than once.
func (su *StatUpdater) Stop() {
	su.once.Do(func() { close(su.done) })
}

// Update takes a fresh sample. Failures keep the previous sample.
func (su *StatUpdater) Update() {
	used, err := su.sample()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to sample host memory")
		return
	}

	su.mu.Lock()
	su.latest = HostStats{MemoryUsedPercent: used, SampledAt: time.Now().UTC()}
	su.mu.Unlock()
}

// Latest returns the most recent sample, or a zero value before the first one.
func (su *StatUpdater) Latest() HostStats {
	su.mu.RLock()
	defer su.mu.RUnlock()
	return su.latest
}
