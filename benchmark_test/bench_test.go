package benchmark_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/hupe1980/blastdb"
	"github.com/hupe1980/blastdb/index"
	"github.com/hupe1980/blastdb/testutil"
)

const numSeqs = 2000

func openBench(b *testing.B, protein bool, opts ...blastdb.Option) *blastdb.DB {
	b.Helper()
	dir := b.TempDir()
	rng := testutil.NewRNG(1)
	spec := testutil.VolumeSpec{Name: "bench", Protein: protein}
	if protein {
		spec.Sequences = rng.ProteinSet(numSeqs, 50, 1000)
	} else {
		spec.Sequences = rng.NucleotideSet(numSeqs, 100, 5000, 0.01)
	}
	testutil.WriteVolume(b, dir, spec)

	mol := blastdb.Nucleotide
	if protein {
		mol = blastdb.Protein
	}
	opts = append([]blastdb.Option{blastdb.WithSearchPath(dir)}, opts...)
	db, err := blastdb.Open(context.Background(), []string{"bench"}, mol, opts...)
	if err != nil {
		b.Fatal(err)
	}
	b.Cleanup(func() { _ = db.Close() })
	return db
}

func BenchmarkSequence_Protein_Mmap(b *testing.B) {
	benchmarkSequence(b, true, true)
}

func BenchmarkSequence_Protein_Buffered(b *testing.B) {
	benchmarkSequence(b, true, false)
}

func BenchmarkSequence_Nucleotide_Mmap(b *testing.B) {
	benchmarkSequence(b, false, true)
}

func BenchmarkSequence_Nucleotide_Buffered(b *testing.B) {
	benchmarkSequence(b, false, false)
}

func benchmarkSequence(b *testing.B, protein, mmap bool) {
	b.ReportAllocs()
	db := openBench(b, protein, blastdb.WithMmap(mmap))
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := db.Sequence(ctx, blastdb.OID(i%numSeqs)); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSequenceBytes_Nucleotide(b *testing.B) {
	b.ReportAllocs()
	db := openBench(b, false)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := db.SequenceBytes(ctx, blastdb.OID(i%numSeqs)); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSequenceLength_Nucleotide(b *testing.B) {
	b.ReportAllocs()
	db := openBench(b, false)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := db.SequenceLength(ctx, blastdb.OID(i%numSeqs)); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSequence_Parallel(b *testing.B) {
	b.ReportAllocs()
	db := openBench(b, true)
	ctx := context.Background()

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		worker, err := db.Attach()
		if err != nil {
			b.Error(err)
			return
		}
		defer worker.Close()
		i := 0
		for pb.Next() {
			if _, err := worker.Sequence(ctx, blastdb.OID(i%numSeqs)); err != nil {
				b.Error(err)
				return
			}
			i++
		}
	})
}

func BenchmarkLookup(b *testing.B) {
	b.ReportAllocs()
	dir := b.TempDir()
	testutil.WriteVolume(b, dir, testutil.VolumeSpec{Name: "bench", Protein: true, Sequences: testutil.NewRNG(2).ProteinSet(numSeqs, 10, 20)})

	mi := index.NewMemoryIndex()
	for oid := uint32(0); oid < numSeqs; oid++ {
		mi.AddNumeric(1000+oid, oid)
	}
	opener := index.NewMemoryOpener()
	opener.Set(filepath.Join(dir, "bench"), mi)

	db, err := blastdb.Open(context.Background(), []string{"bench"}, blastdb.Protein,
		blastdb.WithSearchPath(dir), blastdb.WithIndexOpener(opener))
	if err != nil {
		b.Fatal(err)
	}
	defer db.Close()
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, ok, err := db.Lookup(ctx, uint32(1000+i%numSeqs)); err != nil || !ok {
			b.Fatal(ok, err)
		}
	}
}

func BenchmarkOpen(b *testing.B) {
	b.ReportAllocs()
	dir := b.TempDir()
	rng := testutil.NewRNG(3)
	for _, name := range []string{"a", "b", "c", "d"} {
		testutil.WriteVolume(b, dir, testutil.VolumeSpec{Name: name, Protein: true, Sequences: rng.ProteinSet(500, 10, 100)})
	}
	testutil.WriteAlias(b, dir, "all", true, "DBLIST a b c d")
	env, err := blastdb.NewEnvironment(blastdb.WithSearchPath(dir))
	if err != nil {
		b.Fatal(err)
	}
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		db, err := blastdb.Open(ctx, []string{"all"}, blastdb.Protein, blastdb.WithEnvironment(env))
		if err != nil {
			b.Fatal(err)
		}
		_ = db.Close()
	}
}
