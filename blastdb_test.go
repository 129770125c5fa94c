package blastdb

import (
	"context"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/hupe1980/blastdb/blobstore"
	"github.com/hupe1980/blastdb/index"
	"github.com/hupe1980/blastdb/residue"
	"github.com/hupe1980/blastdb/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fixture struct {
	dir  string
	seqs map[string][][]byte
}

func newFixture(t *testing.T) *fixture {
	return &fixture{dir: t.TempDir(), seqs: map[string][][]byte{}}
}

func (f *fixture) protein(t *testing.T, name string, n int) string {
	t.Helper()
	seqs := testutil.NewRNG(int64(len(f.seqs)+n)).ProteinSet(n, 1, 60)
	f.seqs[name] = seqs
	return testutil.WriteVolume(t, f.dir, testutil.VolumeSpec{Name: name, Protein: true, Title: name, Sequences: seqs})
}

func (f *fixture) nucleotide(t *testing.T, name string, n int) string {
	t.Helper()
	seqs := testutil.NewRNG(int64(n)).NucleotideSet(n, 1, 500, 0.02)
	f.seqs[name] = seqs
	return testutil.WriteVolume(t, f.dir, testutil.VolumeSpec{Name: name, Title: name, Sequences: seqs})
}

func (f *fixture) open(t *testing.T, mol MoleculeType, names []string, opts ...Option) *DB {
	t.Helper()
	opts = append([]Option{WithSearchPath(f.dir)}, opts...)
	db, err := Open(context.Background(), names, mol, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestOpen_Protein(t *testing.T) {
	f := newFixture(t)
	f.protein(t, "sp", 20)
	ctx := context.Background()

	db := f.open(t, Protein, []string{"sp"})
	assert.Equal(t, Protein, db.Molecule())
	assert.Equal(t, uint64(20), db.NumOIDs())
	assert.Equal(t, uint64(20), db.NumSeqs())
	assert.Equal(t, "sp", db.Title())
	assert.NotEmpty(t, db.Date())
	assert.Empty(t, db.Warnings())

	var total uint64
	var maxLen uint32
	for oid := range db.OIDs() {
		want := f.seqs["sp"][oid]
		got, err := db.Sequence(ctx, oid)
		require.NoError(t, err)
		assert.Equal(t, want, got)

		raw, err := db.SequenceBytes(ctx, oid)
		require.NoError(t, err)
		assert.Equal(t, want, raw)

		n, err := db.SequenceLength(ctx, oid)
		require.NoError(t, err)
		assert.Equal(t, uint32(len(want)), n)
		approx, err := db.SequenceLengthApprox(ctx, oid)
		require.NoError(t, err)
		assert.Equal(t, n, approx)

		hdr, err := db.Header(ctx, oid)
		require.NoError(t, err)
		assert.Equal(t, "seq"+strconv.Itoa(int(oid)), string(hdr))

		runs, err := db.Ambiguities(ctx, oid)
		require.NoError(t, err)
		assert.Empty(t, runs)

		total += uint64(n)
		maxLen = max(maxLen, n)
	}
	assert.Equal(t, total, db.TotalLength())
	assert.Equal(t, maxLen, db.MaxLength())

	s, err := db.SequenceString(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, residue.ProteinLetters(f.seqs["sp"][0]), s)
}

func TestOpen_Nucleotide(t *testing.T) {
	for _, mmap := range []bool{true, false} {
		f := newFixture(t)
		f.nucleotide(t, "nt", 25)
		ctx := context.Background()

		db := f.open(t, Unknown, []string{"nt"}, WithMmap(mmap))
		assert.Equal(t, Nucleotide, db.Molecule())

		for oid := range db.OIDs() {
			want := f.seqs["nt"][oid]
			got, err := db.Sequence(ctx, oid)
			require.NoError(t, err)
			require.Equal(t, want, got, "oid %d mmap %v", oid, mmap)

			n, err := db.SequenceLength(ctx, oid)
			require.NoError(t, err)
			assert.Equal(t, uint32(len(want)), n)

			approx, err := db.SequenceLengthApprox(ctx, oid)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, approx, n)
			assert.Less(t, approx-n, uint32(5))

			runs, err := db.Ambiguities(ctx, oid)
			require.NoError(t, err)
			assert.Equal(t, residue.FindRuns(want, 4096), runs)
		}
	}
}

func TestOpen_ChainScenario(t *testing.T) {
	f := newFixture(t)
	f.protein(t, "first", 100)
	f.protein(t, "second", 50)
	testutil.WriteAlias(t, f.dir, "both", true, `TITLE "Custom"`, "DBLIST first second")
	ctx := context.Background()

	db := f.open(t, Protein, []string{"both"})
	assert.Equal(t, uint64(150), db.NumOIDs())
	assert.Equal(t, "Custom", db.Title())

	vols := db.Volumes()
	require.Len(t, vols, 2)
	assert.Equal(t, "Custom", vols[0].Title)
	assert.Equal(t, "", vols[1].Title)
	assert.Equal(t, OID(0), vols[0].Start)
	assert.Equal(t, vols[0].Stop+1, vols[1].Start)

	got, err := db.Sequence(ctx, 120)
	require.NoError(t, err)
	assert.Equal(t, f.seqs["second"][20], got)

	_, err = db.Sequence(ctx, 150)
	var oor *ErrOutOfRange
	require.ErrorAs(t, err, &oor)
	assert.Equal(t, uint64(150), oor.NumOIDs)
}

func TestOpen_OIDWindow(t *testing.T) {
	f := newFixture(t)
	f.protein(t, "big", 1000)
	testutil.WriteAlias(t, f.dir, "window", true, "DBLIST big", "FIRST_OID 10", "LAST_OID 19")

	db := f.open(t, Protein, []string{"window"})
	assert.Equal(t, uint64(1000), db.NumOIDs())
	assert.Equal(t, uint64(10), db.NumSeqs())

	var oids []OID
	for oid := range db.OIDs() {
		oids = append(oids, oid)
	}
	assert.Equal(t, []OID{10, 11, 12, 13, 14, 15, 16, 17, 18, 19}, oids)
	assert.True(t, db.Visible(10))
	assert.False(t, db.Visible(9))
}

func TestLookup_MergeTransparency(t *testing.T) {
	f := newFixture(t)
	base := f.protein(t, "sp", 10)
	testutil.WriteFile(t, filepath.Join(f.dir, "g1.gil"), []byte("100\n"))
	testutil.WriteFile(t, filepath.Join(f.dir, "g2.gil"), []byte("200\n"))
	testutil.WriteAlias(t, f.dir, "a1", true, "DBLIST sp", "GILIST g1.gil")
	testutil.WriteAlias(t, f.dir, "a2", true, "DBLIST sp", "GILIST g2.gil")
	testutil.WriteAlias(t, f.dir, "merged", true, "DBLIST a1 a2")

	opener := index.NewMemoryOpener()
	opener.Set(base, index.NewMemoryIndex().AddNumeric(100, 3).AddNumeric(200, 5).AddNumeric(300, 7))
	ctx := context.Background()

	merged := f.open(t, Protein, []string{"merged"}, WithIndexOpener(opener))
	require.Len(t, merged.Volumes(), 1)
	assert.Equal(t, uint64(10), merged.NumOIDs())

	a1 := f.open(t, Protein, []string{"a1"}, WithIndexOpener(opener))
	a2 := f.open(t, Protein, []string{"a2"}, WithIndexOpener(opener))

	for _, tc := range []struct {
		gi  uint32
		ref *DB
	}{{100, a1}, {200, a2}} {
		want, ok, err := tc.ref.Lookup(ctx, tc.gi)
		require.NoError(t, err)
		require.True(t, ok)

		got, ok, err := merged.Lookup(ctx, tc.gi)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, want, got)
	}

	_, ok, err := merged.Lookup(ctx, 300)
	require.NoError(t, err)
	assert.False(t, ok, "gi outside both lists")

	_, ok, err = a1.Lookup(ctx, 200)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLookup_MaskedHitContinuesScan(t *testing.T) {
	f := newFixture(t)
	base := f.protein(t, "sp", 10)
	testutil.WriteAlias(t, f.dir, "low", true, "DBLIST sp", "FIRST_OID 0", "LAST_OID 1")
	testutil.WriteAlias(t, f.dir, "high", true, "DBLIST sp", "FIRST_OID 4", "LAST_OID 6")

	mi := index.NewMemoryIndex().AddNumeric(7, 5).AddString("P1", 1).AddString("P1", 5).AddString("P1", 9)
	opener := index.NewMemoryOpener()
	opener.Set(base, mi)
	ctx := context.Background()

	db := f.open(t, Protein, []string{"low", "high"}, WithIndexOpener(opener))
	require.Len(t, db.Volumes(), 2)

	oid, ok, err := db.Lookup(ctx, 7)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, OID(15), oid)

	oids, err := db.LookupAccession(ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, []OID{1, 15}, oids)

	require.NoError(t, db.Close())
	assert.True(t, mi.Closed())
}

func TestOpen_Warnings(t *testing.T) {
	f := newFixture(t)
	f.protein(t, "v", 3)
	testutil.WriteAlias(t, f.dir, "loop", true, "DBLIST loop2 v")
	testutil.WriteAlias(t, f.dir, "loop2", true, "DBLIST loop missing")

	db := f.open(t, Protein, []string{"loop"})
	assert.Equal(t, uint64(3), db.NumOIDs())

	var rec *ErrRecursion
	var mf *ErrMissingFile
	warnings := db.Warnings()
	require.Len(t, warnings, 3)
	assert.ErrorAs(t, warnings[0], &rec)
	assert.ErrorAs(t, warnings[1], &mf)

	_, err := Open(context.Background(), []string{"absent"}, Protein, WithSearchPath(f.dir))
	assert.ErrorAs(t, err, &mf)
}

func TestOpen_MissingSiblingName(t *testing.T) {
	f := newFixture(t)
	f.protein(t, "sp", 4)
	ctx := context.Background()

	db := f.open(t, Protein, []string{"sp", "nosuchdb"})
	assert.Equal(t, uint64(4), db.NumOIDs())
	got, err := db.Sequence(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, f.seqs["sp"][3], got)

	var mf *ErrMissingFile
	require.Len(t, db.Warnings(), 1)
	require.ErrorAs(t, db.Warnings()[0], &mf)
	assert.Equal(t, "nosuchdb", mf.Name)

	_, err = Open(ctx, []string{"nosuchdb", "gone"}, Protein, WithSearchPath(f.dir))
	assert.ErrorIs(t, err, ErrNoVolumes)
	assert.ErrorAs(t, err, &mf)
}

func TestOpen_LargeLastOID(t *testing.T) {
	f := newFixture(t)
	f.protein(t, "sp", 5)
	testutil.WriteAlias(t, f.dir, "wide", true, "DBLIST sp", "FIRST_OID 2", "LAST_OID 4294967295")

	db := f.open(t, Protein, []string{"wide"})
	assert.Equal(t, uint64(5), db.NumOIDs())
	assert.Equal(t, uint64(3), db.NumSeqs())
	var oids []OID
	for oid := range db.OIDs() {
		oids = append(oids, oid)
	}
	assert.Equal(t, []OID{2, 3, 4}, oids)
}

func TestAttach_SharesMappings(t *testing.T) {
	f := newFixture(t)
	f.protein(t, "sp", 30)
	ctx := context.Background()

	env, err := NewEnvironment(WithSearchPath(f.dir))
	require.NoError(t, err)

	db, err := Open(ctx, []string{"sp"}, Protein, WithEnvironment(env))
	require.NoError(t, err)
	_, err = db.Sequence(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, env.Stats().Handles)
	assert.Equal(t, int64(1), env.Stats().Opens)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(oid OID) {
			defer wg.Done()
			worker, err := db.Attach()
			if !assert.NoError(t, err) {
				return
			}
			defer worker.Close()
			got, err := worker.Sequence(ctx, oid)
			assert.NoError(t, err)
			assert.Equal(t, f.seqs["sp"][oid], got)
		}(OID(i % 30))
	}
	wg.Wait()

	st := env.Stats()
	assert.Equal(t, 1, st.Handles)
	assert.Equal(t, int64(1), st.Opens)
	assert.Zero(t, st.Closes)

	other, err := Open(ctx, []string{"sp"}, Protein, WithEnvironment(env))
	require.NoError(t, err)
	require.NoError(t, db.Close())
	assert.Zero(t, env.Stats().Closes)
	_, err = db.Sequence(ctx, 0)
	assert.ErrorIs(t, err, ErrClosed)

	_, err = other.Header(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, other.Close())
	require.NoError(t, other.Close())

	st = env.Stats()
	assert.Equal(t, 0, st.Handles)
	assert.Equal(t, int64(2), st.Opens)
	assert.Equal(t, int64(2), st.Closes)
	assert.Zero(t, st.MappedBytes)
}

func TestOpen_MemoryLimitFallsBack(t *testing.T) {
	f := newFixture(t)
	f.protein(t, "sp", 50)
	ctx := context.Background()

	db := f.open(t, Protein, []string{"sp"}, WithMemoryLimit(1), WithReadRateLimit(1<<30))
	for oid := range db.OIDs() {
		got, err := db.Sequence(ctx, oid)
		require.NoError(t, err)
		assert.Equal(t, f.seqs["sp"][oid], got)
	}
	assert.Zero(t, db.Environment().Stats().MappedBytes)
}

func TestOpen_BlobStoreAndMetrics(t *testing.T) {
	store := blobstore.NewMemoryStore()
	seqs := testutil.NewRNG(9).NucleotideSet(5, 10, 100, 0.05)
	testutil.PutVolume(store, testutil.VolumeSpec{Name: "remote/nt", Sequences: seqs})
	ctx := context.Background()

	mc := &BasicMetricsCollector{}
	db, err := Open(ctx, []string{"remote/nt"}, Nucleotide,
		WithBlobStore(store),
		WithSearchPath("."),
		WithBlockCache(1<<20, 64),
		WithMetricsCollector(mc),
	)
	require.NoError(t, err)
	defer db.Close()

	for oid := range db.OIDs() {
		got, err := db.Sequence(ctx, oid)
		require.NoError(t, err)
		assert.Equal(t, seqs[oid], got)
	}
	_, err = db.Header(ctx, 99)
	assert.Error(t, err)

	st := mc.GetStats()
	assert.Equal(t, int64(1), st.OpenCount)
	assert.Equal(t, int64(6), st.FetchCount)
	assert.Equal(t, int64(1), st.FetchErrors)
}
