package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type payload struct {
	Names []string `json:"names"`
}

func newTestLayer(enabled bool) *Layer {
	return NewLayer(NewMemoryStore(time.Minute), Policy{Enabled: enabled, DurationHours: 6}, []string{"es:", "en:"})
}

func TestFetchCachesValue(t *testing.T) {
	l := newTestLayer(true)
	ctx := context.Background()
	var calls int

	compute := func(context.Context) (payload, error) {
		calls++
		return payload{Names: []string{"Bereshit"}}, nil
	}

	for i := 0; i < 3; i++ {
		got, err := Fetch(ctx, l, "es:programs", l.TTL(), compute)
		if err != nil {
			t.Fatalf("Fetch failed: %v", err)
		}
		if len(got.Names) != 1 || got.Names[0] != "Bereshit" {
			t.Errorf("Unexpected value %+v", got)
		}
	}
	if calls != 1 {
		t.Errorf("Expected compute to run once, ran %d times", calls)
	}
}

func TestFetchDisabledAlwaysComputes(t *testing.T) {
	l := newTestLayer(false)
	ctx := WithScope(context.Background())
	var calls int

	for i := 0; i < 3; i++ {
		Fetch(ctx, l, "es:programs", time.Hour, func(context.Context) (int, error) {
			calls++
			return calls, nil
		})
	}
	if calls != 3 {
		t.Errorf("Expected compute on every call with caching disabled, got %d", calls)
	}

	keys, _ := l.Store().Keys(ctx, "")
	if len(keys) != 0 {
		t.Errorf("Expected nothing written while disabled, got %v", keys)
	}
}

func TestFetchDoesNotCacheErrors(t *testing.T) {
	l := newTestLayer(true)
	ctx := context.Background()
	boom := errors.New("boom")
	var calls int

	_, err := Fetch(ctx, l, "es:programs", l.TTL(), func(context.Context) (int, error) {
		calls++
		return 0, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Expected compute error, got %v", err)
	}

	got, err := Fetch(ctx, l, "es:programs", l.TTL(), func(context.Context) (int, error) {
		calls++
		return 7, nil
	})
	if err != nil || got != 7 {
		t.Errorf("Expected recomputed value 7, got %d (err: %v)", got, err)
	}
	if calls != 2 {
		t.Errorf("Expected 2 compute calls, got %d", calls)
	}
}

func TestFetchUsesRequestScope(t *testing.T) {
	l := newTestLayer(true)
	ctx := WithScope(context.Background())

	Fetch(ctx, l, "es:k", l.TTL(), func(context.Context) (int, error) { return 1, nil })

	// Remove from the durable store; the scope still shadows it
	l.Store().Delete(ctx, "es:k")

	got, err := Fetch(ctx, l, "es:k", l.TTL(), func(context.Context) (int, error) {
		t.Error("compute should not run while the scope holds the key")
		return 2, nil
	})
	if err != nil || got != 1 {
		t.Errorf("Expected scoped value 1, got %d (err: %v)", got, err)
	}
}

func TestFetchSingleFlight(t *testing.T) {
	l := newTestLayer(true)
	var calls atomic.Int32
	release := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			Fetch(context.Background(), l, "en:programs", l.TTL(), func(context.Context) (int, error) {
				calls.Add(1)
				<-release
				return 42, nil
			})
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := calls.Load(); n != 1 {
		t.Errorf("Expected one compute for concurrent misses, got %d", n)
	}
}

func TestFetchUndecodableEntryIsMiss(t *testing.T) {
	l := newTestLayer(true)
	ctx := context.Background()
	l.Store().Set(ctx, "es:k", []byte("not json"), time.Hour)

	got, err := Fetch(ctx, l, "es:k", l.TTL(), func(context.Context) (int, error) { return 5, nil })
	if err != nil || got != 5 {
		t.Errorf("Expected recompute after bad entry, got %d (err: %v)", got, err)
	}
}

func TestSetPolicy(t *testing.T) {
	l := newTestLayer(true)
	l.SetPolicy(Policy{Enabled: true, DurationHours: 12})

	if l.TTL() != 12*time.Hour {
		t.Errorf("Expected 12h, got %v", l.TTL())
	}
	if l.SearchTTL() != 6*time.Hour {
		t.Errorf("Expected 6h search ttl, got %v", l.SearchTTL())
	}
	if l.FallbackTTL() != time.Hour {
		t.Errorf("Expected 1h fallback ttl, got %v", l.FallbackTTL())
	}
}

func TestClearAll(t *testing.T) {
	l := newTestLayer(true)
	ctx := WithScope(context.Background())

	for _, key := range []string{"es:programs", "es:materials_3", "en:programs", "en:search_torah"} {
		if _, err := Fetch(ctx, l, key, l.TTL(), func(context.Context) (string, error) { return key, nil }); err != nil {
			t.Fatal(err)
		}
	}

	n, err := l.ClearAll(ctx)
	if err != nil {
		t.Fatalf("ClearAll failed: %v", err)
	}
	if n != 4 {
		t.Errorf("Expected 4 deleted keys, got %d", n)
	}

	for _, ns := range []string{"es:", "en:"} {
		keys, _ := l.Store().Keys(ctx, ns)
		if len(keys) != 0 {
			t.Errorf("Expected no %s keys after clear, got %v", ns, keys)
		}
	}
	if ScopeFrom(ctx).Len() != 0 {
		t.Error("Expected request scope to be reset")
	}

	var calls int
	Fetch(ctx, l, "es:programs", l.TTL(), func(context.Context) (string, error) {
		calls++
		return "fresh", nil
	})
	if calls != 1 {
		t.Error("Expected a fresh fetch after clear-all")
	}
}

func TestFetchSharedComputeSurvivesCallerCancel(t *testing.T) {
	l := newTestLayer(true)
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once

	compute := func(ctx context.Context) (string, error) {
		once.Do(func() { close(started) })
		<-release
		if err := ctx.Err(); err != nil {
			return "", err
		}
		return "ready", nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := Fetch(ctx, l, "es:shared", time.Hour, compute)
		first <- err
	}()
	<-started
	cancel()

	second := make(chan string, 1)
	go func() {
		v, _ := Fetch(context.Background(), l, "es:shared", time.Hour, compute)
		second <- v
	}()
	time.Sleep(20 * time.Millisecond)
	close(release)

	if err := <-first; err != nil {
		t.Errorf("Expected the canceled caller's compute to finish, got %v", err)
	}
	if v := <-second; v != "ready" {
		t.Errorf("Expected waiter to get the shared value, got %q", v)
	}
	if _, err := l.Store().Get(context.Background(), "es:shared"); err != nil {
		t.Errorf("Expected value to be cached, got %v", err)
	}
}
