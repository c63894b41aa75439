package genre_test

import (
	"path/filepath"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/auvred/genre"
	"github.com/auvred/genre/fixture"
)

func TestConformance(t *testing.T) {
	var files []string
	for _, glob := range []string{"*.txt", "*.yaml"} {
		m, err := filepath.Glob(filepath.Join("testdata", glob))
		assert.NilError(t, err)
		files = append(files, m...)
	}
	assert.Assert(t, len(files) > 0)

	for _, file := range files {
		cases, err := fixture.LoadFile(file)
		assert.NilError(t, err)
		t.Run(filepath.Base(file), func(t *testing.T) {
			for _, c := range cases {
				for _, flags := range []genre.Flag{0, genre.FlagExplicitStack} {
					res := fixture.Check(c, flags)
					assert.NilError(t, res.Err, "%s", c)
					assert.Assert(t, res.Passed(), "%s: got %s (flags %d)", c, res.GotString(), flags)
				}
			}
		})
	}
}
