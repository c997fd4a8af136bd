package main

import (
	"flag"
	"net/http"
	"os"
	"strings"

	"github.com/goccy/go-json"

	"github.com/Clark-Hu/moviegraph/internal/logging"
)

// showEntry mirrors one element of the search API's result array.
type showEntry struct {
	Title         string                                    `json:"title"`
	StreamingInfo map[string]map[string][]map[string]string `json:"streamingInfo,omitempty"`
	Trailer       string                                    `json:"youtubeTrailerVideoLink,omitempty"`
	PosterURLs    map[string]string                         `json:"posterURLs,omitempty"`
	IMDbRating    *int                                      `json:"imdbRating,omitempty"`
}

type searchResponse struct {
	Result []showEntry `json:"result"`
}

func main() {
	var (
		port = flag.String("port", "9099", "port to listen on")
		data = flag.String("data", "mock-catalog.json", "path to mock data file")
	)
	flag.Parse()

	logger := logging.New(logging.Config{Format: "console"}, "catalog-mock")

	file, err := os.ReadFile(*data)
	if err != nil {
		logger.Fatal().Err(err).Msg("read mock data")
	}

	var shows []showEntry
	if err := json.Unmarshal(file, &shows); err != nil {
		logger.Fatal().Err(err).Msg("parse mock data")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/v2/search/title", func(w http.ResponseWriter, r *http.Request) {
		query := strings.ToLower(r.URL.Query().Get("title"))
		resp := searchResponse{Result: []showEntry{}}
		for _, s := range shows {
			if sharesWord(query, strings.ToLower(s.Title)) {
				resp.Result = append(resp.Result, s)
			}
		}
		logger.Info().Str("title", query).Int("results", len(resp.Result)).Msg("search")
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})

	addr := ":" + *port
	logger.Info().Str("addr", addr).Int("entries", len(shows)).Msg("mock catalog listening")
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Fatal().Err(err).Msg("server error")
	}
}

func sharesWord(query, title string) bool {
	for _, w := range strings.Fields(query) {
		if strings.Contains(title, w) {
			return true
		}
	}
	return false
}
