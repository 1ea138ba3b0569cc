package metrics

import "time"

// Noop is a Recorder that discards all metrics.
type Noop struct{}

// NewNoop creates a no-op metrics recorder.
func NewNoop() *Noop { return &Noop{} }

func (Noop) IncDossierGenerated()                   {}
func (Noop) IncDossierCacheHit()                    {}
func (Noop) IncDossierCacheMiss()                   {}
func (Noop) IncProviderError()                      {}
func (Noop) IncQuotaRejected(string)                {}
func (Noop) IncLeadCreated()                        {}
func (Noop) IncLeadUpdated()                        {}
func (Noop) IncLeadDeleted()                        {}
func (Noop) IncStageMoved()                         {}
func (Noop) ObserveGenerationDuration(time.Duration) {}
