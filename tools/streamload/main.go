// Command streamload opens many concurrent connections against the
// session SSE stream and reports event throughput. Useful for checking
// that the snapshot broadcaster drops slow readers instead of stalling
// the swap engine.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"
)

func main() {
	var (
		targetURL   string
		connections int
		duration    time.Duration
	)

	flag.StringVar(&targetURL, "url", "http://localhost:8080/session/stream", "SSE endpoint URL")
	flag.IntVar(&connections, "conns", 100, "number of concurrent connections to open")
	flag.DurationVar(&duration, "dur", 30*time.Second, "test duration (0 for until interrupted)")
	flag.Parse()

	if connections <= 0 {
		log.Fatalf("invalid conns: %d", connections)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()
	if duration > 0 {
		go func() {
			select {
			case <-time.After(duration):
				cancel()
			case <-ctx.Done():
			}
		}()
	}

	client := &http.Client{
		Transport: &http.Transport{
			MaxConnsPerHost:     connections + 10,
			MaxIdleConnsPerHost: connections + 10,
			DisableCompression:  true,
		},
	}

	var (
		connected   int64
		connectErrs int64
		events      int64
	)

	log.Printf("starting stream load: url=%s conns=%d dur=%s", targetURL, connections, duration)
	start := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < connections; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
			if err != nil {
				atomic.AddInt64(&connectErrs, 1)
				return
			}
			req.Header.Set("Accept", "text/event-stream")

			resp, err := client.Do(req)
			if err != nil {
				atomic.AddInt64(&connectErrs, 1)
				return
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				atomic.AddInt64(&connectErrs, 1)
				return
			}
			atomic.AddInt64(&connected, 1)

			scanner := bufio.NewScanner(resp.Body)
			for scanner.Scan() {
				if strings.HasPrefix(scanner.Text(), "event: session") {
					atomic.AddInt64(&events, 1)
				}
			}
		}()
	}
	wg.Wait()

	elapsed := time.Since(start)
	if elapsed <= 0 {
		elapsed = time.Millisecond
	}
	fmt.Printf("done: connected=%d connect_errs=%d events=%d elapsed=%s events/s=%.2f\n",
		atomic.LoadInt64(&connected),
		atomic.LoadInt64(&connectErrs),
		atomic.LoadInt64(&events),
		elapsed.Truncate(time.Millisecond),
		float64(events)/elapsed.Seconds(),
	)
}
