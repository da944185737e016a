package orchestrator

import (
	"bufio"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(input string) ([]string, error) {
	var lines []string
	err := scanLines(strings.NewReader(input), func(line string) error {
		lines = append(lines, line)
		return nil
	})
	return lines, err
}

func TestScanLines_LongLine(t *testing.T) {
	long := strings.Repeat("x", 100*1024)

	lines, err := collect("first\n" + long + "\nlast\n")

	require.NoError(t, err)
	assert.Equal(t, []string{"first", long, "last"}, lines)
}

func TestScanLines_TooLong(t *testing.T) {
	lines, err := collect("first\n" + strings.Repeat("x", maxLogLineSize+1) + "\n")

	assert.ErrorIs(t, err, bufio.ErrTooLong)
	assert.Equal(t, []string{"first"}, lines)
}

func TestScanLines_StopsOnLineError(t *testing.T) {
	stop := errors.New("closed")
	var lines []string

	err := scanLines(strings.NewReader("a\nb\n"), func(line string) error {
		lines = append(lines, line)
		return stop
	})

	assert.ErrorIs(t, err, stop)
	assert.Equal(t, []string{"a"}, lines)
}
