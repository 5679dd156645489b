package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

var defaultQueries = []string{
	"vector space model",
	"inverse document frequency",
	"cosine similarity",
	"euclidean distance ranking",
	"posting list",
	"term frequency normalization",
	"query vector weight",
	"document norm",
	"search engine",
	"inverted index",
}

type options struct {
	baseURL     string
	concurrency int
	duration    time.Duration
	limit       int
	modes       []string
	queries     []string
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "base URL of the search service")
	concurrency := flag.Int("concurrency", 10, "number of concurrent workers")
	duration := flag.Duration("duration", 30*time.Second, "test duration")
	limit := flag.Int("limit", 3, "results requested per query")
	modes := flag.String("modes", "cosine,euclidean", "comma-separated ranking modes to alternate")
	queryFile := flag.String("queries", "", "file with one query per line")
	flag.Parse()

	queries := defaultQueries
	if *queryFile != "" {
		loaded, err := readQueries(*queryFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "reading queries: %v\n", err)
			os.Exit(1)
		}
		queries = loaded
	}
	opts := options{
		baseURL:     strings.TrimRight(*baseURL, "/"),
		concurrency: *concurrency,
		duration:    *duration,
		limit:       *limit,
		modes:       strings.Split(*modes, ","),
		queries:     queries,
	}

	fmt.Println("=== Vector Space Search Load Test ===")
	fmt.Printf("Target:      %s\n", opts.baseURL)
	fmt.Printf("Concurrency: %d\n", opts.concurrency)
	fmt.Printf("Duration:    %s\n", opts.duration)
	fmt.Printf("Modes:       %s\n", strings.Join(opts.modes, ", "))
	fmt.Printf("Queries:     %d unique\n\n", len(opts.queries))

	start := time.Now()
	stats := run(opts)
	elapsed := time.Since(start)

	total := 0
	for _, mode := range opts.modes {
		s := stats[mode].summarize()
		s.print(os.Stdout, mode, elapsed)
		total += s.Requests - s.Failures
	}
	if total == 0 {
		fmt.Println("WARNING: No requests completed. Is the service running?")
		os.Exit(1)
	}
}

func readQueries(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var queries []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if q := strings.TrimSpace(scanner.Text()); q != "" {
			queries = append(queries, q)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(queries) == 0 {
		return nil, fmt.Errorf("%s holds no queries", path)
	}
	return queries, nil
}

func run(opts options) map[string]*modeStats {
	stats := make(map[string]*modeStats, len(opts.modes))
	for _, mode := range opts.modes {
		stats[mode] = newModeStats()
	}
	client := &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        opts.concurrency * 2,
			MaxIdleConnsPerHost: opts.concurrency * 2,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.duration)
	defer cancel()

	var g errgroup.Group
	for w := 0; w < opts.concurrency; w++ {
		g.Go(func() error {
			for i := w; ctx.Err() == nil; i++ {
				mode := opts.modes[i%len(opts.modes)]
				query := opts.queries[(i/len(opts.modes))%len(opts.queries)]
				d, status, returned := search(ctx, client, opts, query, mode)
				if ctx.Err() != nil {
					return nil
				}
				stats[mode].record(d, status, returned)
			}
			return nil
		})
	}
	g.Wait()
	return stats
}

// search sends one query and reports its latency, HTTP status (0 on
// transport failure) and number of results returned.
func search(ctx context.Context, client *http.Client, opts options, query, mode string) (time.Duration, int, int) {
	v := url.Values{}
	v.Set("q", query)
	v.Set("mode", mode)
	v.Set("limit", fmt.Sprint(opts.limit))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, opts.baseURL+"/api/v1/search?"+v.Encode(), nil)
	if err != nil {
		return 0, 0, 0
	}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return time.Since(start), 0, 0
	}
	defer resp.Body.Close()
	var body struct {
		Results []json.RawMessage `json:"results"`
	}
	json.NewDecoder(resp.Body).Decode(&body)
	return time.Since(start), resp.StatusCode, len(body.Results)
}
