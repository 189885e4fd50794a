// Package main provides a performance benchmarking tool for the patrolq CLI.
// It measures pipeline execution times across sample sizes and worker counts,
// running each configuration multiple times, treating the first successful run
// as cold and averaging the rest as warm, and writes CSV output for analysis.
//
// Prerequisites:
// - patrolq binary installed and available in PATH
// - An incident CSV export to cluster
//
// Usage: go run ./benchmark [incidents-csv]
package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// BenchmarkResult holds the result of one benchmarked configuration.
type BenchmarkResult struct {
	SampleSize   int
	Workers      int
	UntrackedAvg string
	ColdTime     string
	WarmTime     string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	InputPath     string
	OutputDir     string
	Timeout       time.Duration
	UntrackedRuns int
	TrackedRuns   int
	SampleSizes   []int
	Workers       []int
}

func main() {
	// Parse command line arguments
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [incidents-csv]\n", os.Args[0])
		os.Exit(1)
	}

	outDir, err := os.MkdirTemp("", "patrolq-benchmark-*")
	if err != nil {
		fmt.Printf("Failed to create output dir: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = os.RemoveAll(outDir) }()

	config := BenchmarkConfig{
		InputPath:     os.Args[1],
		OutputDir:     outDir,
		Timeout:       10 * time.Minute,
		UntrackedRuns: 2,
		TrackedRuns:   3,
		SampleSizes:   []int{10000, 50000, 100000},
		Workers:       []int{1, 4, 8},
	}

	if err := checkPrerequisites(config); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

// checkPrerequisites verifies that the patrolq binary and the input exist
func checkPrerequisites(config BenchmarkConfig) error {
	if _, err := exec.LookPath("patrolq"); err != nil {
		return fmt.Errorf("patrolq binary not found in PATH")
	}
	if _, err := os.Stat(config.InputPath); os.IsNotExist(err) {
		return fmt.Errorf("input %s not found", config.InputPath)
	}
	return nil
}

// runBenchmarks executes every sample size and worker combination
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d sample sizes, %d worker counts, %v timeout, untracked: %d runs, tracked: %d runs\n",
		len(config.SampleSizes), len(config.Workers), config.Timeout, config.UntrackedRuns, config.TrackedRuns)

	for _, size := range config.SampleSizes {
		for _, workers := range config.Workers {
			results = append(results, runBenchmarkSuite(config, size, workers))
		}
	}
	return results
}

// runBenchmarkSuite runs both untracked and tracked phases for a configuration
func runBenchmarkSuite(config BenchmarkConfig, size, workers int) BenchmarkResult {
	fmt.Printf("Running sample size %d with %d workers\n", size, workers)

	// Helper to run a benchmark phase
	runPhase := func(backend string, numRuns int, phaseName string) (coldTime float64, avgTime string) {
		fmt.Printf("  %s phase (%d runs)\n", phaseName, numRuns)
		cold, times := runBenchmark(config, size, workers, backend, numRuns)
		if len(times) == 0 {
			avgTime = "TIMEOUT"
		} else {
			var sum float64
			for _, t := range times {
				sum += t
			}
			avgTime = fmt.Sprintf("%.3fs", sum/float64(len(times)))
		}
		return cold, avgTime
	}

	// Phase 1: Untracked runs
	_, untrackedAvg := runPhase("none", config.UntrackedRuns, "Untracked")

	// Phase 2: Tracked runs
	coldTime, warmAvg := runPhase("sqlite", config.TrackedRuns, "Tracked")

	coldTimeStr := "TIMEOUT"
	if coldTime > 0 {
		coldTimeStr = fmt.Sprintf("%.3fs", coldTime)
	}

	fmt.Printf("  Untracked average: %s, Cold time: %s, Warm average: %s\n", untrackedAvg, coldTimeStr, warmAvg)

	return BenchmarkResult{
		SampleSize:   size,
		Workers:      workers,
		UntrackedAvg: untrackedAvg,
		ColdTime:     coldTimeStr,
		WarmTime:     warmAvg,
	}
}

// runBenchmark executes patrolq run multiple times and returns cold time and warm times
func runBenchmark(config BenchmarkConfig, size, workers int, backend string, numRuns int) (coldTime float64, warmTimes []float64) {
	args := []string{
		"run", config.InputPath,
		"--output-dir", config.OutputDir,
		"--log-dir", filepath.Join(config.OutputDir, "logs"),
		"--sample-size", strconv.Itoa(size),
		"--workers", strconv.Itoa(workers),
		"--tracking-backend", backend,
	}

	var times []float64
	for run := 1; run <= numRuns; run++ {
		start := time.Now()

		cmd := exec.Command("patrolq", args...)

		done := make(chan bool)
		var output []byte
		var cmdErr error

		go func() {
			output, cmdErr = cmd.CombinedOutput()
			done <- true
		}()

		select {
		case <-done:
			if cmdErr == nil && isSuccess(output) {
				times = append(times, time.Since(start).Seconds())
			}
		case <-time.After(config.Timeout):
			_ = cmd.Process.Kill()
			<-done
		}
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return
}

// isSuccess checks if command output indicates successful completion
func isSuccess(output []byte) bool {
	outputStr := string(output)
	return strings.Contains(outputStr, "Best model: K=") &&
		strings.Contains(outputStr, "Pipeline completed in")
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("/tmp/patrolq_benchmark_%s.csv", timestamp)

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	if err := writer.Write([]string{"sample_size", "workers", "untracked_avg", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	// Write results
	for _, r := range results {
		if err := writer.Write([]string{strconv.Itoa(r.SampleSize), strconv.Itoa(r.Workers), r.UntrackedAvg, r.ColdTime, r.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")
	for _, r := range results {
		fmt.Printf("  sample %-7d workers %-2d: Untracked: %s, Cold: %s, Warm: %s\n",
			r.SampleSize, r.Workers, r.UntrackedAvg, r.ColdTime, r.WarmTime)
	}
}
