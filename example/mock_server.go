package main

import (
	"log/slog"
	"math/rand"
	"net/http"
	"sync"
	"time"
)

// flakyState tracks the status a flaky site answers with and when it next
// changes.
type flakyState struct {
	codeIdx      int
	nextChangeAt time.Time
}

// StartMockSites serves a handful of sites that behave differently:
//   - /ok answers 200
//   - /slow answers 200 after a few seconds
//   - /flaky cycles through 200, 503 and 500 every 20-60 seconds
//   - /hang never answers before the client gives up
//
// Call this in a goroutine before starting webping.
func StartMockSites(addr string) {
	var (
		state = &flakyState{nextChangeAt: time.Now().Add(nextChange())}
		mu    sync.Mutex
	)
	codes := []int{http.StatusOK, http.StatusServiceUnavailable, http.StatusInternalServerError}

	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		// simulate latency variance
		time.Sleep(time.Duration(2000+rand.Intn(3000)) * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/flaky", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		if time.Now().After(state.nextChangeAt) {
			old := codes[state.codeIdx]
			state.codeIdx = (state.codeIdx + 1) % len(codes)
			state.nextChangeAt = time.Now().Add(nextChange())
			slog.Info("flaky site changed", "from", old, "to", codes[state.codeIdx])
		}
		code := codes[state.codeIdx]
		mu.Unlock()

		w.WriteHeader(code)
	})
	mux.HandleFunc("/hang", func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("mock server error", "error", err)
	}
}

func nextChange() time.Duration {
	return time.Duration(20+rand.Intn(41)) * time.Second
}
