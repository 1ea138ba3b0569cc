package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	DossiersGenerated  uint64
	DossierCacheHits   uint64
	DossierCacheMisses uint64
	ProviderErrors     uint64
	QuotaRejected      map[string]uint64
	LeadsCreated       uint64
	LeadsUpdated       uint64
	LeadsDeleted       uint64
	StagesMoved        uint64
	GenerationCount    uint64
	GenerationTotalNs  int64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	dossiersGenerated uint64
	dossierCacheHits  uint64
	dossierCacheMiss  uint64
	providerErrors    uint64
	leadsCreated      uint64
	leadsUpdated      uint64
	leadsDeleted      uint64
	stagesMoved       uint64
	generationCount   uint64
	generationTotalNs int64

	mu            sync.Mutex
	quotaRejected map[string]uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{quotaRejected: make(map[string]uint64)}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	rejected := make(map[string]uint64, len(m.quotaRejected))
	for plan, n := range m.quotaRejected {
		rejected[plan] = n
	}
	m.mu.Unlock()

	return Snapshot{
		DossiersGenerated: atomic.LoadUint64(&m.dossiersGenerated),
		DossierCacheHits:  atomic.LoadUint64(&m.dossierCacheHits),
		DossierCacheMisses: atomic.LoadUint64(&m.dossierCacheMiss),
		ProviderErrors:    atomic.LoadUint64(&m.providerErrors),
		QuotaRejected:     rejected,
		LeadsCreated:      atomic.LoadUint64(&m.leadsCreated),
		LeadsUpdated:      atomic.LoadUint64(&m.leadsUpdated),
		LeadsDeleted:      atomic.LoadUint64(&m.leadsDeleted),
		StagesMoved:       atomic.LoadUint64(&m.stagesMoved),
		GenerationCount:   atomic.LoadUint64(&m.generationCount),
		GenerationTotalNs: atomic.LoadInt64(&m.generationTotalNs),
	}
}

// IncDossierGenerated increments the generated dossier counter.
func (m *InMemoryRecorder) IncDossierGenerated() {
	atomic.AddUint64(&m.dossiersGenerated, 1)
}

// IncDossierCacheHit increments the cache hit counter.
func (m *InMemoryRecorder) IncDossierCacheHit() {
	atomic.AddUint64(&m.dossierCacheHits, 1)
}

// IncDossierCacheMiss increments the cache miss counter.
func (m *InMemoryRecorder) IncDossierCacheMiss() {
	atomic.AddUint64(&m.dossierCacheMiss, 1)
}

// IncProviderError increments the provider failure counter.
func (m *InMemoryRecorder) IncProviderError() {
	atomic.AddUint64(&m.providerErrors, 1)
}

// IncQuotaRejected increments the per-plan quota rejection counter.
func (m *InMemoryRecorder) IncQuotaRejected(plan string) {
	m.mu.Lock()
	m.quotaRejected[plan]++
	m.mu.Unlock()
}

// IncLeadCreated increments the lead created counter.
func (m *InMemoryRecorder) IncLeadCreated() {
	atomic.AddUint64(&m.leadsCreated, 1)
}

// IncLeadUpdated increments the lead updated counter.
func (m *InMemoryRecorder) IncLeadUpdated() {
	atomic.AddUint64(&m.leadsUpdated, 1)
}

// IncLeadDeleted increments the lead deleted counter.
func (m *InMemoryRecorder) IncLeadDeleted() {
	atomic.AddUint64(&m.leadsDeleted, 1)
}

// IncStageMoved increments the stage transition counter.
func (m *InMemoryRecorder) IncStageMoved() {
	atomic.AddUint64(&m.stagesMoved, 1)
}

// ObserveGenerationDuration records a generation duration.
func (m *InMemoryRecorder) ObserveGenerationDuration(d time.Duration) {
	atomic.AddUint64(&m.generationCount, 1)
	atomic.AddInt64(&m.generationTotalNs, d.Nanoseconds())
}
