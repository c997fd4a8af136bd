package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Clark-Hu/moviegraph/internal/domain"
	"github.com/Clark-Hu/moviegraph/internal/recommend"
)

const ratingsCSV = `,userId,rating,title,genres
0,1,5.0,A,Action-Thriller
1,2,4.5,A,Action-Thriller
2,3,5.0,A,Action-Thriller
3,1,5.0,B,Action-Thriller
4,2,4.8,B,Action-Thriller
5,3,4.9,B,Action-Thriller
`

func writeRatings(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ratings.csv")
	require.NoError(t, os.WriteFile(path, []byte(ratingsCSV), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestParseSeed(t *testing.T) {
	tests := []struct {
		raw     string
		want    recommend.Seed
		wantErr bool
	}{
		{raw: "Heat=4.5", want: recommend.Seed{Title: "Heat", Rating: 4.5}},
		{raw: "E=mc2 = 3", want: recommend.Seed{Title: "E=mc2", Rating: 3}},
		{raw: "Heat", wantErr: true},
		{raw: "=4", wantErr: true},
		{raw: "Heat=", wantErr: true},
		{raw: "Heat=high", wantErr: true},
	}
	for _, tt := range tests {
		got, err := parseSeed(tt.raw)
		if tt.wantErr {
			assert.Error(t, err, tt.raw)
			continue
		}
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.want, got)
	}
}

func TestTitlesCommand(t *testing.T) {
	out, err := run(t, "titles", "--data", writeRatings(t))
	require.NoError(t, err)
	assert.Equal(t, "A\nB\n", out)
}

func TestRecommendCommand(t *testing.T) {
	out, err := run(t, "recommend", "--data", writeRatings(t), "--seed", "A=5")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "TITLE"))
	assert.Equal(t, []string{"B", "6.250", "3", "1.000", "4.90"}, strings.Fields(lines[1]))
}

func TestRecommendCommandUnknownSeed(t *testing.T) {
	_, err := run(t, "recommend", "--data", writeRatings(t), "--seed", "Nope=4")
	var unknown *domain.UnknownMovieError
	assert.True(t, errors.As(err, &unknown), "err = %v", err)
}

func TestDataFlagRequired(t *testing.T) {
	_, err := run(t, "titles")
	assert.Error(t, err)
}
