// Package metrics provides lightweight application metrics collection.
package metrics

import "time"

// Recorder is the interface for recording application metrics.
// Implementations must be safe for concurrent use.
type Recorder interface {
	// IncDossierGenerated records a successfully generated dossier.
	IncDossierGenerated()
	// IncDossierCacheHit records a dossier served from cache.
	IncDossierCacheHit()
	// IncDossierCacheMiss records a dossier cache miss.
	IncDossierCacheMiss()
	// IncProviderError records a generation provider failure.
	IncProviderError()
	// IncQuotaRejected records a request rejected by the quota gate.
	IncQuotaRejected(plan string)
	// IncLeadCreated records a lead creation.
	IncLeadCreated()
	// IncLeadUpdated records a lead update.
	IncLeadUpdated()
	// IncLeadDeleted records a lead deletion.
	IncLeadDeleted()
	// IncStageMoved records a lead stage transition.
	IncStageMoved()
	// ObserveGenerationDuration records how long a dossier generation took.
	ObserveGenerationDuration(d time.Duration)
}
