//go:build ignore
// +build ignore

// Matching engine benchmark.
// Measures how quickly an audience can be scrubbed against a large
// in-memory suppression list.
//
// Usage:
//   go run scripts/matching_benchmark.go \
//     --suppression-size=10000000 \
//     --audience-size=5000000 \
//     --workers=16
//
// With real files (one address per line, or a binary stream ending in .bin):
//   go run scripts/matching_benchmark.go \
//     --suppression-file=/path/to/suppression.txt \
//     --audience-file=/path/to/audience.txt
//
// --write-encoded=/path/out.bin writes the loaded suppression list as a
// binary address stream, the format the S3 export uses.

package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"runtime"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ignite/emailtype/internal/emailaddr"
	"github.com/ignite/emailtype/internal/suppression"
)

const listID = "benchmark"

type benchmarkConfig struct {
	SuppressionSize int
	AudienceSize    int

	SuppressionFile string
	AudienceFile    string
	WriteEncoded    string

	Workers   int
	BatchSize int

	// Fraction of the synthetic audience drawn from the suppression list.
	Overlap float64
}

type benchmarkMetrics struct {
	LoadTime     time.Duration
	Records      int
	Skipped      int
	MemoryMB     float64
	Domains      int
	Checked      int64
	Suppressed   int64
	Elapsed      time.Duration
	ChecksPerSec float64
	BatchP50     time.Duration
	BatchP95     time.Duration
	BatchP99     time.Duration
}

func main() {
	cfg := &benchmarkConfig{
		SuppressionSize: 1_000_000,
		AudienceSize:    500_000,
		Workers:         runtime.NumCPU(),
		BatchSize:       10_000,
		Overlap:         0.05,
	}
	flag.IntVar(&cfg.SuppressionSize, "suppression-size", cfg.SuppressionSize, "Number of synthetic suppression records")
	flag.IntVar(&cfg.AudienceSize, "audience-size", cfg.AudienceSize, "Number of synthetic audience records")
	flag.StringVar(&cfg.SuppressionFile, "suppression-file", "", "Suppression file (text, or .bin address stream)")
	flag.StringVar(&cfg.AudienceFile, "audience-file", "", "Audience file (one address per line)")
	flag.StringVar(&cfg.WriteEncoded, "write-encoded", "", "Write the loaded suppression list as a binary stream")
	flag.IntVar(&cfg.Workers, "workers", cfg.Workers, "Number of parallel workers")
	flag.IntVar(&cfg.BatchSize, "batch-size", cfg.BatchSize, "Addresses per batch")
	flag.Float64Var(&cfg.Overlap, "overlap", cfg.Overlap, "Fraction of the audience that is suppressed (0.0-1.0)")
	flag.Parse()

	if err := run(cfg); err != nil {
		log.Fatalf("Benchmark failed: %v", err)
	}
}

func run(cfg *benchmarkConfig) error {
	m := suppression.NewManager()
	metrics := &benchmarkMetrics{}

	fmt.Println("PHASE 1: LOADING SUPPRESSION LIST")
	fmt.Println(strings.Repeat("-", 79))
	start := time.Now()
	list, err := loadSuppression(m, cfg)
	if err != nil {
		return fmt.Errorf("load suppression list: %w", err)
	}
	metrics.LoadTime = time.Since(start)
	st := list.Stats()
	metrics.Records = list.Count()
	metrics.Skipped = st.SkippedLines
	metrics.Domains = st.Domains
	metrics.MemoryMB = float64(st.TotalMemoryBytes) / (1024 * 1024)
	fmt.Printf("  Loaded %d unique addresses across %d domains in %v (%d lines skipped)\n",
		metrics.Records, metrics.Domains, metrics.LoadTime, metrics.Skipped)
	fmt.Printf("  Memory: %.2f MB, estimated false positive rate %.5f\n", metrics.MemoryMB, st.EstimatedFPRate)

	if cfg.WriteEncoded != "" {
		if err := writeEncoded(cfg.WriteEncoded, list.Addresses()); err != nil {
			return err
		}
		fmt.Printf("  Wrote binary stream to %s\n", cfg.WriteEncoded)
	}
	fmt.Println()

	fmt.Println("PHASE 2: LOADING AUDIENCE")
	fmt.Println(strings.Repeat("-", 79))
	audience, err := loadAudience(cfg, list.Addresses())
	if err != nil {
		return fmt.Errorf("load audience: %w", err)
	}
	fmt.Printf("  %d audience addresses\n\n", len(audience))

	fmt.Println("PHASE 3: SCRUB")
	fmt.Println(strings.Repeat("-", 79))
	scrub(m, audience, cfg, metrics)
	printResults(metrics)
	return nil
}

func loadSuppression(m *suppression.Manager, cfg *benchmarkConfig) (*suppression.List, error) {
	if cfg.SuppressionFile == "" {
		fmt.Printf("  Generating %d synthetic records...\n", cfg.SuppressionSize)
		return m.LoadList(listID, "synthetic", "generated", synthetic("suppressed", "domain", cfg.SuppressionSize, 10000))
	}
	f, err := os.Open(cfg.SuppressionFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if strings.HasSuffix(cfg.SuppressionFile, ".bin") {
		return m.LoadListFromEncoded(listID, cfg.SuppressionFile, "file", f)
	}
	return m.LoadListFromReader(listID, cfg.SuppressionFile, "file", f)
}

func loadAudience(cfg *benchmarkConfig, suppressed []emailaddr.Address) ([]emailaddr.Address, error) {
	if cfg.AudienceFile != "" {
		f, err := os.Open(cfg.AudienceFile)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		var out []emailaddr.Address
		sc := bufio.NewScanner(f)
		for sc.Scan() {
			if a, err := emailaddr.Parse(strings.TrimSpace(sc.Text())); err == nil {
				out = append(out, a)
			}
		}
		return out, sc.Err()
	}

	audience := synthetic("audience", "target", cfg.AudienceSize, 5000)
	overlap := int(float64(cfg.AudienceSize) * cfg.Overlap)
	for i := 0; i < overlap && len(suppressed) > 0; i++ {
		audience[i] = suppressed[rand.Intn(len(suppressed))]
	}
	rand.Shuffle(len(audience), func(i, j int) { audience[i], audience[j] = audience[j], audience[i] })
	return audience, nil
}

// synthetic builds n addresses spread over the given number of domains.
// Labels are letters only with a digit tail, as the grammar requires.
func synthetic(local, domain string, n, domains int) []emailaddr.Address {
	out := make([]emailaddr.Address, n)
	for i := range out {
		out[i] = emailaddr.MustParse(fmt.Sprintf("%s%d@%s%d.com", local, i, domain, i%domains))
	}
	return out
}

func writeEncoded(path string, addrs []emailaddr.Address) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := emailaddr.NewWriter(f)
	for _, a := range addrs {
		if err := w.Write(a); err != nil {
			f.Close()
			return err
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func scrub(m *suppression.Manager, audience []emailaddr.Address, cfg *benchmarkConfig, metrics *benchmarkMetrics) {
	ids := []string{listID}
	batches := make(chan []emailaddr.Address, cfg.Workers*2)
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		latencies []time.Duration
	)

	start := time.Now()
	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for batch := range batches {
				t := time.Now()
				_, suppressed := m.FilterAddresses(batch, ids)
				atomic.AddInt64(&metrics.Suppressed, int64(suppressed))
				atomic.AddInt64(&metrics.Checked, int64(len(batch)))
				mu.Lock()
				latencies = append(latencies, time.Since(t))
				mu.Unlock()
			}
		}()
	}
	for i := 0; i < len(audience); i += cfg.BatchSize {
		batches <- audience[i:min(i+cfg.BatchSize, len(audience))]
	}
	close(batches)
	wg.Wait()

	metrics.Elapsed = time.Since(start)
	if metrics.Elapsed > 0 {
		metrics.ChecksPerSec = float64(metrics.Checked) / metrics.Elapsed.Seconds()
	}
	if len(latencies) > 0 {
		sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
		pick := func(p float64) time.Duration { return latencies[int(float64(len(latencies)-1)*p)] }
		metrics.BatchP50, metrics.BatchP95, metrics.BatchP99 = pick(0.50), pick(0.95), pick(0.99)
	}
}

func printResults(m *benchmarkMetrics) {
	fmt.Println()
	fmt.Println(strings.Repeat("=", 79))
	fmt.Printf("  Checked:          %d\n", m.Checked)
	if m.Checked > 0 {
		fmt.Printf("  Suppressed:       %d (%.2f%%)\n", m.Suppressed, float64(m.Suppressed)/float64(m.Checked)*100)
	}
	fmt.Printf("  Elapsed:          %v\n", m.Elapsed)
	fmt.Printf("  Checks/sec:       %.0f\n", m.ChecksPerSec)
	fmt.Printf("  Batch p50/95/99:  %v / %v / %v\n", m.BatchP50, m.BatchP95, m.BatchP99)
	fmt.Printf("  List memory:      %.2f MB (%d records)\n", m.MemoryMB, m.Records)
	fmt.Println(strings.Repeat("=", 79))
}
