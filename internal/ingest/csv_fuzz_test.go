package ingest

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func FuzzCSVSource(f *testing.F) {
	seeds := []string{
		"h\n0,1,4.0,Heat,Crime\n",
		"h\n0,1,abc,Heat,Crime\n",
		"h\n\"unterminated,1,4.0\n",
		"",
	}
	for _, seed := range seeds {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, raw string) {
		g, err := Build(context.Background(), NewCSVSource(strings.NewReader(raw), true), zerolog.Nop())
		if err != nil && g != nil {
			t.Fatalf("partial graph returned alongside error %v", err)
		}
		if err == nil && g == nil {
			t.Fatalf("nil graph without error")
		}
	})
}
