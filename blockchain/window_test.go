package blockchain

import (
	"strconv"
	"testing"
)

func TestRecentIDWindowEviction(t *testing.T) {
	window := newRecentIDWindow(5)

	for i := 0; i < 7; i++ {
		window.push(strconv.Itoa(i))
	}
	if window.len() != 5 {
		t.Fatalf("TestRecentIDWindowEviction: want length 5, got %d", window.len())
	}
	// The two oldest ids were evicted.
	for _, evicted := range []string{"0", "1"} {
		if window.contains(evicted) {
			t.Fatalf("TestRecentIDWindowEviction: id %s not evicted", evicted)
		}
	}
	for i := 2; i < 7; i++ {
		if !window.contains(strconv.Itoa(i)) {
			t.Fatalf("TestRecentIDWindowEviction: id %d missing", i)
		}
	}
}

func TestRecentIDWindowReset(t *testing.T) {
	window := newRecentIDWindow(3)
	window.push("stale")

	window.reset([]string{"1", "2", "3", "4", "5"})
	if window.len() != 3 {
		t.Fatalf("TestRecentIDWindowReset: want length 3, got %d", window.len())
	}
	if window.contains("stale") || window.contains("1") || window.contains("2") {
		t.Fatalf("TestRecentIDWindowReset: stale ids survived the reset")
	}
	for _, id := range []string{"3", "4", "5"} {
		if !window.contains(id) {
			t.Fatalf("TestRecentIDWindowReset: id %s missing", id)
		}
	}
}

func TestChainWindowLifecycle(t *testing.T) {
	harness := newTestHarness(t)
	harness.store.lastIDs = []string{"11", "12", "13"}

	harness.chain.HandleBlockchainReady()
	for _, id := range harness.store.lastIDs {
		if !harness.chain.window.contains(id) {
			t.Fatalf("TestChainWindowLifecycle: id %s not primed", id)
		}
	}

	block := harness.newSignedBlock(t, 1, nil)
	harness.chain.HandleNewBlock(block)
	if !harness.chain.window.contains(block.ID) {
		t.Fatalf("TestChainWindowLifecycle: accepted block id not recorded")
	}
}

// TestChainWindowLoadFailure makes sure a storage failure during window
// priming does not abort startup.
func TestChainWindowLoadFailure(t *testing.T) {
	harness := newTestHarness(t)
	harness.store.loadErr = errTest

	harness.chain.HandleBlockchainReady()
	if harness.chain.window.len() != 0 {
		t.Fatalf("TestChainWindowLoadFailure: window primed despite load failure")
	}
}
