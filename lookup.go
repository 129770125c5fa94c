package blastdb

import (
	"context"
	"errors"
	"time"

	"github.com/hupe1980/blastdb/index"
)

// Lookup returns the global OID for a GI.
//
// Volumes are scanned in chain order. A volume is skipped if it has no
// numeric index or its GI list excludes gi. A hit on an OID hidden by the
// volume's mask is not a match and the scan continues.
func (db *DB) Lookup(ctx context.Context, gi uint32) (OID, bool, error) {
	start := time.Now()
	oid, ok, err := db.lookup(ctx, gi)
	hits := 0
	if ok {
		hits = 1
	}
	db.env.metrics.RecordLookup(hits, time.Since(start), err)
	db.env.logger.LogLookup(ctx, gi, hits, err)
	return oid, ok, err
}

func (db *DB) lookup(ctx context.Context, gi uint32) (OID, bool, error) {
	if db.closed {
		return 0, false, ErrClosed
	}
	for _, a := range db.vols {
		if a.idx == nil {
			continue
		}
		v := a.vol
		if v.GIs != nil && !v.GIs.Contains(gi) {
			continue
		}
		local, ok, err := a.idx.LookupNumeric(ctx, gi)
		if errors.Is(err, index.ErrNoIndex) {
			continue
		}
		if err != nil {
			return 0, false, err
		}
		if !ok || !v.Visible(local) {
			continue
		}
		return v.Start + local, true, nil
	}
	return 0, false, nil
}

// LookupAccession returns every visible global OID for a string key, in
// chain order.
func (db *DB) LookupAccession(ctx context.Context, key string) ([]OID, error) {
	start := time.Now()
	oids, err := db.lookupAccession(ctx, key)
	db.env.metrics.RecordLookup(len(oids), time.Since(start), err)
	db.env.logger.LogLookup(ctx, key, len(oids), err)
	return oids, err
}

func (db *DB) lookupAccession(ctx context.Context, key string) ([]OID, error) {
	if db.closed {
		return nil, ErrClosed
	}
	var out []OID
	for _, a := range db.vols {
		if a.idx == nil {
			continue
		}
		locals, err := a.idx.LookupString(ctx, key)
		if errors.Is(err, index.ErrNoIndex) {
			continue
		}
		if err != nil {
			return nil, err
		}
		for _, l := range locals {
			if a.vol.Visible(l) {
				out = append(out, a.vol.Start+l)
			}
		}
	}
	return out, nil
}
