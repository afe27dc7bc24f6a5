// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package arena

import "testing"

func TestInsertGet(t *testing.T) {
	var a Arena[string]
	h := a.Insert("a")
	if got, ok := a.Get(h); !ok || *got != "a" {
		t.Fatalf("Arena.Get:\nhave %v, %t\nwant %q, true", got, ok, "a")
	}
	if n := a.Len(); n != 1 {
		t.Fatalf("Arena.Len:\nhave %d\nwant 1", n)
	}
}

func TestZeroHandleInvalid(t *testing.T) {
	var a Arena[int]
	var zero Handle
	if zero.Valid() {
		t.Fatal("Handle{}.Valid: have true, want false")
	}
	if _, ok := a.Get(zero); ok {
		t.Fatal("Arena.Get(Handle{}): have ok, want !ok")
	}
}

func TestRemoveInvalidatesHandle(t *testing.T) {
	var a Arena[int]
	h := a.Insert(42)
	if v, ok := a.Remove(h); !ok || v != 42 {
		t.Fatalf("Arena.Remove:\nhave %d, %t\nwant 42, true", v, ok)
	}
	if _, ok := a.Get(h); ok {
		t.Fatal("Arena.Get after Remove: have ok, want !ok")
	}
	if _, ok := a.Remove(h); ok {
		t.Fatal("Arena.Remove twice: have ok, want !ok")
	}
}

func TestReuseBumpsGeneration(t *testing.T) {
	var a Arena[int]
	h1 := a.Insert(1)
	weak := h1.Weak()
	a.Remove(h1)
	h2 := a.Insert(2)
	if h1.index != h2.index {
		t.Fatalf("slot reuse: have index %d, want %d", h2.index, h1.index)
	}
	if h1.gen == h2.gen {
		t.Fatal("Arena.Insert: slot reused without bumping generation")
	}
	if _, ok := a.Resolve(weak); ok {
		t.Fatal("Weak.Resolve after reuse: have ok, want !ok (stale generation)")
	}
	if got, ok := a.Get(h2); !ok || *got != 2 {
		t.Fatalf("Arena.Get(h2):\nhave %v, %t\nwant 2, true", got, ok)
	}
}

func TestGrowPastOneChunk(t *testing.T) {
	var a Arena[int]
	var handles []Handle
	const n = 100
	for i := 0; i < n; i++ {
		handles = append(handles, a.Insert(i))
	}
	if got := a.Len(); got != n {
		t.Fatalf("Arena.Len:\nhave %d\nwant %d", got, n)
	}
	for i, h := range handles {
		got, ok := a.Get(h)
		if !ok || *got != i {
			t.Fatalf("Arena.Get(handles[%d]):\nhave %v, %t\nwant %d, true", i, got, ok, i)
		}
	}
}

func TestAll(t *testing.T) {
	var a Arena[int]
	a.Insert(1)
	h := a.Insert(2)
	a.Insert(3)
	a.Remove(h)

	var sum int
	var count int
	a.All(func(_ Handle, v *int) bool {
		sum += *v
		count++
		return true
	})
	if count != 2 || sum != 4 {
		t.Fatalf("Arena.All:\nhave count=%d sum=%d\nwant count=2 sum=4", count, sum)
	}
}

func TestAllStopsEarly(t *testing.T) {
	var a Arena[int]
	a.Insert(1)
	a.Insert(2)
	a.Insert(3)

	var count int
	a.All(func(_ Handle, _ *int) bool {
		count++
		return false
	})
	if count != 1 {
		t.Fatalf("Arena.All early stop:\nhave count=%d\nwant 1", count)
	}
}
