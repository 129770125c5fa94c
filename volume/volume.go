package volume

import (
	"strconv"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/blastdb/gilist"
	"github.com/hupe1980/blastdb/oidmask"
)

// OID is a zero-based ordinal id. Depending on context it is global (within
// a virtual database) or local (within one volume).
type OID = uint32

// Identity identifies a physical volume. Two volumes with equal identity
// share their sequence and header mappings.
type Identity struct {
	Base     string
	Molecule MoleculeType
	Date     string
}

func (id Identity) String() string {
	return id.Base + "[" + id.Molecule.String() + "@" + id.Date + "]"
}

// MaskRef applies a mask to a volume. Local OID l of the volume is tested as
// Base+l, where Base is the volume's position within the sub-chain the mask
// was declared over.
type MaskRef struct {
	Mask *oidmask.Mask
	Base uint32
}

// Field selects an alias statistics override.
type Field uint8

const (
	FieldLength Field = 1 << iota
	FieldNumSeqs
	FieldMaxLen
)

// Stats holds alias statistics overrides. A zero value means "not set".
type Stats struct {
	Length  uint64
	NumSeqs uint64
	MaxLen  uint32
}

// Volume is one entry of a virtual database chain.
//
// Volumes are created by the alias resolver and mutated only while the
// chain is (re)built. Every Volume holds one reference on its Index.
type Volume struct {
	Index *Index

	Title string
	// Start is the first global OID of the volume; Stop is the last.
	Start OID
	Stop  OID

	// Masks restrict visible OIDs. A local OID is visible if every mask
	// contains it.
	Masks []MaskRef
	// GIs restricts numeric lookups. Nil means unrestricted.
	GIs *gilist.List
	// MembershipBit is the alias MEMB_BIT value, 0 if unset.
	MembershipBit uint32

	// Override replaces computed statistics for the sub-chain this volume
	// heads. Covered marks fields already accounted for by another
	// volume's override.
	Override Stats
	Covered  Field

	visible    uint64
	visibleKey string
	visibleOK  bool
}

// New returns a Volume over ix with the index title as default title.
// The Volume takes ownership of the caller's reference on ix.
func New(ix *Index) *Volume {
	return &Volume{Index: ix, Title: ix.Title}
}

// Count returns the number of local OIDs.
func (v *Volume) Count() uint32 { return v.Index.NumSeqs }

// Molecule returns the volume's molecule type.
func (v *Volume) Molecule() MoleculeType { return v.Index.Molecule }

// Identity returns the physical identity of the volume.
func (v *Volume) Identity() Identity {
	return Identity{Base: v.Index.Base, Molecule: v.Index.Molecule, Date: v.Index.Date}
}

// Masked reports whether the volume carries at least one mask.
func (v *Volume) Masked() bool { return len(v.Masks) > 0 }

// Visible reports whether local OID l is visible through all masks.
func (v *Volume) Visible(l OID) bool {
	if l >= v.Count() {
		return false
	}
	for _, m := range v.Masks {
		if !m.Mask.Contains(m.Base + l) {
			return false
		}
	}
	return true
}

// Contains reports whether global OID oid falls in [Start, Stop].
func (v *Volume) Contains(oid OID) bool {
	return oid >= v.Start && oid <= v.Stop
}

// VisibleCount returns the number of visible local OIDs. The count is
// cached until the masks change.
func (v *Volume) VisibleCount() uint64 {
	key := v.MaskKey()
	if v.visibleOK && v.visibleKey == key {
		return v.visible
	}
	v.visible, v.visibleKey, v.visibleOK = v.countVisible(), key, true
	return v.visible
}

func (v *Volume) countVisible() uint64 {
	switch len(v.Masks) {
	case 0:
		return uint64(v.Count())
	case 1:
		m := v.Masks[0]
		return m.Mask.CountRange(m.Base, m.Base+v.Count())
	}
	var acc *roaring.Bitmap
	for _, m := range v.Masks {
		rb := m.Mask.RangeBitmap(uint64(m.Base), uint64(m.Base)+uint64(v.Count()))
		if acc == nil {
			acc = rb
			continue
		}
		acc.And(rb)
	}
	return acc.GetCardinality()
}

// Contribution returns the value this volume adds to a database statistic:
// 0 if covered, the override if set, otherwise the computed value.
func (v *Volume) Contribution(f Field) uint64 {
	if v.Covered&f != 0 {
		return 0
	}
	switch f {
	case FieldLength:
		if v.Override.Length != 0 {
			return v.Override.Length
		}
		return v.Index.TotalLength
	case FieldNumSeqs:
		if v.Override.NumSeqs != 0 {
			return v.Override.NumSeqs
		}
		return v.VisibleCount()
	case FieldMaxLen:
		if v.Override.MaxLen != 0 {
			return uint64(v.Override.MaxLen)
		}
		return uint64(v.Index.MaxSeqLen)
	}
	return 0
}

// MaskKey returns a string that is equal for volumes with identical masks.
func (v *Volume) MaskKey() string {
	if len(v.Masks) == 0 {
		return ""
	}
	var b strings.Builder
	for i, m := range v.Masks {
		if i > 0 {
			b.WriteByte('|')
		}
		b.WriteString(m.Mask.Source())
		b.WriteByte('+')
		b.WriteString(strconv.FormatUint(uint64(m.Base), 10))
	}
	return b.String()
}

// SameDatabase reports whether v and o describe the same physical database
// under the same restrictions, making them candidates for merging.
func (v *Volume) SameDatabase(o *Volume) bool {
	a, b := v.Index, o.Index
	return a.Molecule == b.Molecule &&
		a.TotalLength == b.TotalLength &&
		a.MaxSeqLen == b.MaxSeqLen &&
		a.Base == b.Base &&
		a.Date == b.Date &&
		v.MembershipBit == o.MembershipBit &&
		v.MaskKey() == o.MaskKey()
}

// Clone returns a copy of v holding its own reference on the index.
func (v *Volume) Clone() *Volume {
	c := *v
	c.Masks = append([]MaskRef(nil), v.Masks...)
	v.Index.Retain()
	return &c
}

// Release drops the volume's index reference.
func (v *Volume) Release() error {
	return v.Index.Release()
}

// Merge folds o, a duplicate of v (see SameDatabase), into v. GI lists are
// united; a side without a list leaves the result unrestricted. Titles are
// joined with "; ". Statistics overrides are summed (MaxLen takes the
// maximum). o keeps its index reference; the caller releases it.
func (v *Volume) Merge(o *Volume) {
	if v.GIs == nil || o.GIs == nil {
		v.GIs = nil
	} else {
		v.GIs = v.GIs.Union(o.GIs)
	}

	switch {
	case v.Title == "":
		v.Title = o.Title
	case o.Title != "":
		v.Title += "; " + o.Title
	}

	for _, f := range []Field{FieldLength, FieldNumSeqs, FieldMaxLen} {
		va, vb := v.Covered&f != 0, o.Covered&f != 0
		switch {
		case (!va && v.hasOverride(f)) || (!vb && o.hasOverride(f)):
			a, b := v.Contribution(f), o.Contribution(f)
			if f == FieldMaxLen {
				v.setOverride(f, max(a, b))
			} else {
				v.setOverride(f, a+b)
			}
			v.Covered &^= f
		case va && vb:
			v.Covered |= f
		default:
			v.Covered &^= f
		}
	}
}

func (v *Volume) hasOverride(f Field) bool {
	switch f {
	case FieldLength:
		return v.Override.Length != 0
	case FieldNumSeqs:
		return v.Override.NumSeqs != 0
	case FieldMaxLen:
		return v.Override.MaxLen != 0
	}
	return false
}

func (v *Volume) setOverride(f Field, n uint64) {
	switch f {
	case FieldLength:
		v.Override.Length = n
	case FieldNumSeqs:
		v.Override.NumSeqs = n
	case FieldMaxLen:
		v.Override.MaxLen = uint32(n)
	}
}
