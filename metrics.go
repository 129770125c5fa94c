package blastdb

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordOpen is called after each Open. volumes is the number of
	// volumes in the resulting chain.
	RecordOpen(volumes int, duration time.Duration, err error)

	// RecordLookup is called after each GI or accession lookup.
	// hits is the number of OIDs returned.
	RecordLookup(hits int, duration time.Duration, err error)

	// RecordFetch is called after each sequence or header fetch.
	// bytes is the size of the returned data.
	RecordFetch(bytes int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordOpen(int, time.Duration, error)   {}
func (NoopMetricsCollector) RecordLookup(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordFetch(int, time.Duration, error)  {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	OpenCount        atomic.Int64
	OpenErrors       atomic.Int64
	LookupCount      atomic.Int64
	LookupHits       atomic.Int64
	LookupErrors     atomic.Int64
	LookupTotalNanos atomic.Int64
	FetchCount       atomic.Int64
	FetchBytes       atomic.Int64
	FetchErrors      atomic.Int64
	FetchTotalNanos  atomic.Int64
}

// RecordOpen implements MetricsCollector.
func (b *BasicMetricsCollector) RecordOpen(_ int, _ time.Duration, err error) {
	b.OpenCount.Add(1)
	if err != nil {
		b.OpenErrors.Add(1)
	}
}

// RecordLookup implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLookup(hits int, duration time.Duration, err error) {
	b.LookupCount.Add(1)
	b.LookupHits.Add(int64(hits))
	b.LookupTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.LookupErrors.Add(1)
	}
}

// RecordFetch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFetch(bytes int, duration time.Duration, err error) {
	b.FetchCount.Add(1)
	b.FetchBytes.Add(int64(bytes))
	b.FetchTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.FetchErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		OpenCount:      b.OpenCount.Load(),
		OpenErrors:     b.OpenErrors.Load(),
		LookupCount:    b.LookupCount.Load(),
		LookupHits:     b.LookupHits.Load(),
		LookupErrors:   b.LookupErrors.Load(),
		AvgLookupNanos: avg(b.LookupTotalNanos.Load(), b.LookupCount.Load()),
		FetchCount:     b.FetchCount.Load(),
		FetchBytes:     b.FetchBytes.Load(),
		FetchErrors:    b.FetchErrors.Load(),
		AvgFetchNanos:  avg(b.FetchTotalNanos.Load(), b.FetchCount.Load()),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector counters.
type BasicMetricsStats struct {
	OpenCount      int64
	OpenErrors     int64
	LookupCount    int64
	LookupHits     int64
	LookupErrors   int64
	AvgLookupNanos int64
	FetchCount     int64
	FetchBytes     int64
	FetchErrors    int64
	AvgFetchNanos  int64
}
