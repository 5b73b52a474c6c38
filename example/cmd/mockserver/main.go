// Standalone mock sites for trying the CLI.
//
// Usage:
//
//	go run ./example/cmd/mockserver
//
// Then in another terminal:
//
//	go run ./cmd/webping run -c example/webping.yaml
package main

import (
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"sync"
	"time"
)

func main() {
	fmt.Println("Mock sites starting on :9999")
	fmt.Println("  /ok     always 200")
	fmt.Println("  /slow   200 after 2-5s")
	fmt.Println("  /flaky  cycles 200 → 503 → 500")
	fmt.Println("  /hang   never answers")
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	var (
		mu      sync.Mutex
		codeIdx int
		next    = time.Now().Add(nextChange())
		codes   = []int{http.StatusOK, http.StatusServiceUnavailable, http.StatusInternalServerError}
	)

	http.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	http.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Duration(2000+rand.Intn(3000)) * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	})
	http.HandleFunc("/flaky", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		if time.Now().After(next) {
			old := codes[codeIdx]
			codeIdx = (codeIdx + 1) % len(codes)
			next = time.Now().Add(nextChange())
			slog.Info("flaky site changed", "from", old, "to", codes[codeIdx])
		}
		code := codes[codeIdx]
		mu.Unlock()

		w.WriteHeader(code)
	})
	http.HandleFunc("/hang", func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	if err := http.ListenAndServe(":9999", nil); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func nextChange() time.Duration {
	return time.Duration(20+rand.Intn(41)) * time.Second
}
