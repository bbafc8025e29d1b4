//go:build test

package pipeline

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"testing"

	"github.com/bastiangx/icdnorm/pkg/record"
	"github.com/bastiangx/icdnorm/pkg/segment"
	"github.com/charmbracelet/log"
)

func init() {
	log.SetLevel(log.ErrorLevel)
}

var leakPhrases = []string{
	"肺炎併發敗血症", "高血壓併心臟病", "武漢肺炎", "新冠肺炎及COVID19",
	"敗血休克", "慢性腎臟病合併呼吸衰竭", "糖尿病、腎臟病", "高血壓性心臟病",
	"無明顯外傷", "肺?", "呼吸衰竭導致敗血症",
}

func TestMemoryLeakNormalize(t *testing.T) {
	iterations := []int{100, 1000, 5000}

	for _, iterCount := range iterations {
		t.Run(fmt.Sprintf("iterations_%d", iterCount), func(t *testing.T) {
			runNormalizeMemoryTest(t, iterCount)
		})
	}
}

func runNormalizeMemoryTest(t *testing.T, iterations int) {
	cache, err := segment.NewCache(64)
	if err != nil {
		t.Fatal(err)
	}
	p := testPipeline(t, WithCache(cache))

	var baseline runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&baseline)
	baselineGoroutines := runtime.NumGoroutine()

	for i := 0; i < iterations; i++ {
		for _, phrase := range leakPhrases {
			_ = p.Normalize(phrase)
		}
	}

	var final runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&final)
	goroutineDelta := runtime.NumGoroutine() - baselineGoroutines

	memDelta := int64(final.Alloc) - int64(baseline.Alloc)
	totalOps := iterations * len(leakPhrases)
	memPerOp := float64(memDelta) / float64(totalOps)

	t.Logf("iterations=%d ops=%d mem_delta=%d bytes mem_per_op=%.2f goroutine_delta=%d cache=%d",
		iterations, totalOps, memDelta, memPerOp, goroutineDelta, cache.Len())

	if memPerOp > 1000 {
		t.Errorf("excessive memory retained per operation: %.2f bytes", memPerOp)
	}
	if cache.Len() > len(leakPhrases) {
		t.Errorf("cache grew past the distinct phrases: %d", cache.Len())
	}
	if goroutineDelta > 2 {
		t.Errorf("goroutine leak detected: %d goroutines leaked", goroutineDelta)
	}
}

func TestCacheBounded(t *testing.T) {
	cache, err := segment.NewCache(32)
	if err != nil {
		t.Fatal(err)
	}
	p := testPipeline(t, WithCache(cache))
	for i := 0; i < 10000; i++ {
		_ = p.Normalize(fmt.Sprintf("肺炎%d", i))
	}
	if cache.Len() > 32 {
		t.Errorf("cache holds %d entries, limit is 32", cache.Len())
	}
}

func TestGoroutineLeakRunner(t *testing.T) {
	configs := []struct {
		workers int
		files   int
	}{
		{workers: 1, files: 10},
		{workers: 4, files: 50},
		{workers: 16, files: 200},
	}

	for _, config := range configs {
		t.Run(fmt.Sprintf("workers_%d_files_%d", config.workers, config.files), func(t *testing.T) {
			files := make(map[string][]record.Row, config.files)
			paths := make([]string, 0, config.files)
			for i := 0; i < config.files; i++ {
				path := fmt.Sprintf("f%03d", i)
				rows := make([]record.Row, 0, len(leakPhrases))
				for _, phrase := range leakPhrases {
					rows = append(rows, row(
						map[record.Category]record.Slots{record.CategoryA: {phrase}}, nil))
				}
				files[path] = rows
				paths = append(paths, path)
			}

			runtime.GC()
			baseline := runtime.NumGoroutine()

			r := NewRunner(testPipeline(t), testReader(files), WithWorkers(config.workers))
			results, total, err := r.Run(context.Background(), paths)
			if err != nil {
				t.Fatal(err)
			}
			if len(results) != config.files || total.Total != config.files*len(leakPhrases) {
				t.Errorf("got %d files and %d rows", len(results), total.Total)
			}

			runtime.GC()
			if delta := runtime.NumGoroutine() - baseline; delta > 2 {
				t.Errorf("goroutine leak detected: %d goroutines leaked", delta)
			}
		})
	}
}

func TestConcurrentNormalize(t *testing.T) {
	cache, err := segment.NewCache(16)
	if err != nil {
		t.Fatal(err)
	}
	p := testPipeline(t, WithCache(cache))
	want := make(map[string][]string, len(leakPhrases))
	for _, phrase := range leakPhrases {
		want[phrase] = p.Normalize(phrase)
	}

	var wg sync.WaitGroup
	errs := make(chan string, 8)
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				phrase := leakPhrases[i%len(leakPhrases)]
				if got := p.Normalize(phrase); fmt.Sprint(got) != fmt.Sprint(want[phrase]) {
					select {
					case errs <- fmt.Sprintf("Normalize(%q) = %v, want %v", phrase, got, want[phrase]):
					default:
					}
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for e := range errs {
		t.Error(e)
	}
}
