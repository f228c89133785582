package scrape

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConsoleSince(t *testing.T) {
	console := NewConsole()
	require.Empty(t, console.Since(0))

	console.Logf("first")
	console.Logf("second %d", 2)
	console.Logf("third")

	all := console.Since(0)
	require.Len(t, all, 3)
	require.Equal(t, uint64(0), all[0].Index)
	require.Equal(t, "second 2", all[1].Message)

	tail := console.Since(2)
	require.Len(t, tail, 1)
	require.Equal(t, "third", tail[0].Message)

	require.Empty(t, console.Since(3))
}

func TestConsoleDropsOldestWhenFull(t *testing.T) {
	console := NewConsole()
	for i := 0; i < consoleCapacity+10; i++ {
		console.Logf("entry %d", i)
	}

	all := console.Since(0)
	require.Len(t, all, consoleCapacity)
	// indices keep increasing even after entries are dropped
	require.Equal(t, uint64(10), all[0].Index)
	require.Equal(t, fmt.Sprintf("entry %d", consoleCapacity+9), all[len(all)-1].Message)
}
