package driver_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"quill/internal/driver"
	"quill/internal/partialeval"
	"quill/internal/rca"
	"quill/internal/rir"
	"quill/internal/samples"
	"quill/internal/target"
)

func bellProgram(t *testing.T) (*rir.Program, driver.Key) {
	t.Helper()
	s, err := samples.Lookup("bell")
	if err != nil {
		t.Fatal(err)
	}
	pkg := s.Build()
	prog, err := partialeval.PartiallyEvaluate(context.Background(), pkg, rca.Analyze(pkg), partialeval.Options{
		Target: target.Base.Capabilities(),
	})
	if err != nil {
		t.Fatal(err)
	}
	key, err := driver.ComputeKey(driver.KeyInput{Package: pkg, Capabilities: target.Base.Capabilities()})
	if err != nil {
		t.Fatal(err)
	}
	return prog, key
}

func TestDiskCacheRoundTrip(t *testing.T) {
	cache, err := driver.OpenDiskCacheAt(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	prog, key := bellProgram(t)

	if _, ok, err := cache.Get(key); ok || err != nil {
		t.Fatalf("empty cache hit: %v %v", ok, err)
	}
	if err := cache.Put(key, "bell", "base", prog); err != nil {
		t.Fatal(err)
	}
	got, ok, err := cache.Get(key)
	if err != nil || !ok {
		t.Fatalf("Get = %v, %v", ok, err)
	}
	if rir.BlocksString(got) != rir.BlocksString(prog) {
		t.Fatalf("cached program differs:\n%s", rir.BlocksString(got))
	}

	entries, err := os.ReadDir(filepath.Join(cache.Dir(), "programs"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || !strings.HasPrefix(entries[0].Name(), key.String()) {
		t.Fatalf("cache dir holds %v", entries)
	}

	if err := cache.DropAll(); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := cache.Get(key); ok {
		t.Fatal("entry survived DropAll")
	}
}

func TestComputeKey(t *testing.T) {
	s, _ := samples.Lookup("bell")
	base := driver.KeyInput{Package: s.Build(), Capabilities: target.Base.Capabilities()}
	k1, err := driver.ComputeKey(base)
	if err != nil {
		t.Fatal(err)
	}
	k2, _ := driver.ComputeKey(driver.KeyInput{Package: s.Build(), Capabilities: target.Base.Capabilities()})
	if k1 != k2 || k1.IsZero() {
		t.Fatalf("rebuilt package hashes differently: %s vs %s", k1, k2)
	}

	variants := []driver.KeyInput{
		{Package: base.Package, Capabilities: target.AdaptiveRI.Capabilities()},
		{Package: base.Package, Capabilities: base.Capabilities, MaxCallDepth: 4},
		{Package: base.Package, Capabilities: base.Capabilities, MaxLoopIterations: 9},
	}
	for i, v := range variants {
		k, err := driver.ComputeKey(v)
		if err != nil {
			t.Fatal(err)
		}
		if k == k1 {
			t.Errorf("variant %d shares the key", i)
		}
	}
	if _, err := driver.ComputeKey(driver.KeyInput{Package: base.Package, MaxCallDepth: -1}); err == nil {
		t.Error("negative limit accepted")
	}
}

func TestProgramCache(t *testing.T) {
	prog, key := bellProgram(t)
	c := driver.NewProgramCache(4)
	if _, ok := c.Get(key); ok {
		t.Fatal("hit on empty cache")
	}
	c.Put(key, prog)
	if got, ok := c.Get(key); !ok || got != prog || c.Len() != 1 {
		t.Fatalf("Get = %p %v, len %d", got, ok, c.Len())
	}
}

func TestPackageAndProgramFiles(t *testing.T) {
	dir := t.TempDir()
	s, _ := samples.Lookup("measure-int")
	pkgPath := filepath.Join(dir, "measure.qfir")
	if err := driver.SavePackage(pkgPath, s.Build()); err != nil {
		t.Fatal(err)
	}
	pkg, err := driver.LoadPackage(pkgPath)
	if err != nil {
		t.Fatal(err)
	}
	if pkg.Name != "measure-int" {
		t.Fatalf("loaded package %q", pkg.Name)
	}
	if _, err := driver.LoadPackage(filepath.Join(dir, "measure.json")); err == nil {
		t.Fatal("wrong extension accepted")
	}

	prog, _ := bellProgram(t)
	bin := driver.OutputPath(dir, pkgPath, true)
	if filepath.Base(bin) != "measure.qrir" {
		t.Fatalf("binary output %s", bin)
	}
	if err := driver.WriteProgram(bin, prog, true); err != nil {
		t.Fatal(err)
	}
	back, err := driver.LoadProgram(bin)
	if err != nil {
		t.Fatal(err)
	}
	if rir.BlocksString(back) != rir.BlocksString(prog) {
		t.Fatal("binary program changed on disk")
	}

	text := driver.OutputPath(filepath.Join(dir, "out"), pkgPath, false)
	if err := driver.WriteProgram(text, prog, false); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(text)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "Blocks:") {
		t.Fatalf("listing:\n%s", data)
	}
}
