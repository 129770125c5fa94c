// Package chain assembles resolved volumes into one contiguous OID space.
package chain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/hupe1980/blastdb/volume"
)

// ErrTooManyOIDs is returned when the volumes of a chain hold more
// sequences than a 32-bit OID can address.
var ErrTooManyOIDs = errors.New("chain: too many oids")

// maxOIDs is the size of the 32-bit OID space.
const maxOIDs = 1 << 32

// Chain is an ordered list of volumes whose global OID ranges are
// contiguous: Volumes[0].Start == 0 and Volumes[i].Stop+1 ==
// Volumes[i+1].Start.
type Chain struct {
	Volumes []*volume.Volume
	numOIDs uint64
}

type dupKey struct {
	mol     volume.MoleculeType
	total   uint64
	maxLen  uint32
	base    string
	date    string
	membBit uint32
	masks   string
}

func keyOf(v *volume.Volume) dupKey {
	return dupKey{
		mol:     v.Molecule(),
		total:   v.Index.TotalLength,
		maxLen:  v.Index.MaxSeqLen,
		base:    v.Index.Base,
		date:    v.Index.Date,
		membBit: v.MembershipBit,
		masks:   v.MaskKey(),
	}
}

// Build takes ownership of vols and returns the stitched chain. Volumes
// without sequences are dropped; unmasked volumes are placed before masked
// ones; duplicates of the same physical database are merged.
func Build(ctx context.Context, vols []*volume.Volume, logger *slog.Logger) (*Chain, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	kept := make([]*volume.Volume, 0, len(vols))
	for _, v := range vols {
		if v.Count() == 0 {
			logger.DebugContext(ctx, "empty volume dropped", "volume", v.Index.Base)
			_ = v.Release()
			continue
		}
		kept = append(kept, v)
	}

	kept = Partition(kept)
	kept = MergeDuplicates(ctx, kept, logger)

	c := &Chain{Volumes: kept}
	if err := c.Stitch(); err != nil {
		return c, err
	}
	return c, c.Validate()
}

// Partition stably orders unmasked volumes before masked ones.
func Partition(vols []*volume.Volume) []*volume.Volume {
	sort.SliceStable(vols, func(i, j int) bool {
		return !vols[i].Masked() && vols[j].Masked()
	})
	return vols
}

// MergeDuplicates folds later duplicates into their first occurrence and
// releases them.
func MergeDuplicates(ctx context.Context, vols []*volume.Volume, logger *slog.Logger) []*volume.Volume {
	first := make(map[dupKey]*volume.Volume, len(vols))
	out := vols[:0]
	for _, v := range vols {
		k := keyOf(v)
		if dst, ok := first[k]; ok {
			dst.Merge(v)
			logger.DebugContext(ctx, "duplicate volume merged", "volume", v.Index.Base, "masks", k.masks)
			_ = v.Release()
			continue
		}
		first[k] = v
		out = append(out, v)
	}
	return out
}

// Stitch assigns global OID ranges in list order. It fails with
// ErrTooManyOIDs if the volumes do not fit the 32-bit OID space.
func (c *Chain) Stitch() error {
	var next uint64
	for i, v := range c.Volumes {
		end := next + uint64(v.Count())
		if end > maxOIDs {
			return fmt.Errorf("%w: volume %d (%s) ends at oid %d", ErrTooManyOIDs, i, v.Index.Base, end)
		}
		v.Start = volume.OID(next)
		v.Stop = volume.OID(end - 1)
		next = end
	}
	c.numOIDs = next
	return nil
}

// NumOIDs returns the size of the OID space.
func (c *Chain) NumOIDs() uint64 { return c.numOIDs }

// Molecule returns the molecule type shared by all volumes.
func (c *Chain) Molecule() volume.MoleculeType {
	if len(c.Volumes) == 0 {
		return volume.Unknown
	}
	return c.Volumes[0].Molecule()
}

// Locate returns the volume holding global OID oid and the local OID within
// it.
func (c *Chain) Locate(oid volume.OID) (*volume.Volume, volume.OID, bool) {
	if uint64(oid) >= c.numOIDs {
		return nil, 0, false
	}
	i := sort.Search(len(c.Volumes), func(i int) bool {
		return c.Volumes[i].Stop >= oid
	})
	v := c.Volumes[i]
	return v, oid - v.Start, true
}

// Clone returns a chain with copied volumes that hold their own index
// references.
func (c *Chain) Clone() *Chain {
	out := &Chain{Volumes: make([]*volume.Volume, len(c.Volumes)), numOIDs: c.numOIDs}
	for i, v := range c.Volumes {
		out.Volumes[i] = v.Clone()
	}
	return out
}

// Release drops every volume's index reference.
func (c *Chain) Release() error {
	var errs []error
	for _, v := range c.Volumes {
		errs = append(errs, v.Release())
	}
	c.Volumes = nil
	c.numOIDs = 0
	return errors.Join(errs...)
}

// Validate checks the stitching invariants.
func (c *Chain) Validate() error {
	var next uint64
	for i, v := range c.Volumes {
		if uint64(v.Start) != next {
			return fmt.Errorf("chain: volume %d starts at %d, want %d", i, v.Start, next)
		}
		if v.Molecule() != c.Molecule() {
			return fmt.Errorf("chain: volume %d is %s, chain is %s", i, v.Molecule(), c.Molecule())
		}
		next = uint64(v.Stop) + 1
	}
	if next != c.numOIDs {
		return fmt.Errorf("chain: %d OIDs stitched, %d recorded", next, c.numOIDs)
	}
	return nil
}
