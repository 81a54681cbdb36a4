package privacy

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromise_FirstResolveWins(t *testing.T) {
	p := newPromise[int]()

	var wg sync.WaitGroup
	for i := 1; i <= 10; i++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			p.resolve(v)
		}(i)
	}
	wg.Wait()

	v, err := p.await(context.Background())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, v, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = p.await(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
