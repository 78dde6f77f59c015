package spider

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprint(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		same bool
	}{
		{"case-insensitive host", "https://Example.COM/p/1", "https://example.com/p/1", true},
		{"default https port stripped", "https://example.com:443/p/1", "https://example.com/p/1", true},
		{"default http port stripped", "http://example.com:80/p/1", "http://example.com/p/1", true},
		{"fragment dropped", "https://example.com/p/1#reviews", "https://example.com/p/1", true},
		{"query preserved", "https://example.com/s?k=mice", "https://example.com/s?k=keyboards", false},
		{"path is significant", "https://example.com/p/1", "https://example.com/p/2", false},
		{"scheme is significant", "http://example.com/p/1", "https://example.com/p/1", false},
		{"non-default port preserved", "https://example.com:8443/p/1", "https://example.com/p/1", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.same {
				assert.Equal(t, Fingerprint(tc.a), Fingerprint(tc.b))
			} else {
				assert.NotEqual(t, Fingerprint(tc.a), Fingerprint(tc.b))
			}
		})
	}
}

func TestFingerprint_UnparseableFallsBackToRaw(t *testing.T) {
	assert.Equal(t, "://not a url", Fingerprint("://not a url"))
}

func TestDedupMiddleware_DropsSecondRequest(t *testing.T) {
	mw := NewDedupMiddleware()

	first, err := mw.Process(NewRequest("https://example.com/p/1", CallbackParse))
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := mw.Process(NewRequest("https://example.com/p/1", CallbackParse))
	assert.Nil(t, second)
	assert.ErrorIs(t, err, ErrRequestDropped)
}

func TestDedupMiddleware_NormalizedVariantsCollapse(t *testing.T) {
	mw := NewDedupMiddleware()

	_, err := mw.Process(NewRequest("https://example.com/p/1", CallbackParse))
	require.NoError(t, err)

	_, err = mw.Process(NewRequest("https://EXAMPLE.com:443/p/1#reviews", CallbackParse))
	assert.ErrorIs(t, err, ErrRequestDropped)
}

func TestDedupMiddleware_ExactlyOneWinnerUnderConcurrency(t *testing.T) {
	mw := NewDedupMiddleware()

	const goroutines = 50
	var wg sync.WaitGroup
	results := make(chan error, goroutines)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := mw.Process(NewRequest("https://example.com/p/1", CallbackParse))
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var passed, dropped int
	for err := range results {
		switch {
		case err == nil:
			passed++
		case errors.Is(err, ErrRequestDropped):
			dropped++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 1, passed)
	assert.Equal(t, goroutines-1, dropped)
}

func TestDedupMiddleware_FreshSetPerInstance(t *testing.T) {
	first := NewDedupMiddleware()
	_, err := first.Process(NewRequest("https://example.com/p/1", CallbackParse))
	require.NoError(t, err)

	// A new run gets a new middleware and must see the URL as fresh
	second := NewDedupMiddleware()
	_, err = second.Process(NewRequest("https://example.com/p/1", CallbackParse))
	assert.NoError(t, err)
}

func TestDedupMiddleware_DistinctURLsAllPass(t *testing.T) {
	mw := NewDedupMiddleware()

	for i := 0; i < 100; i++ {
		_, err := mw.Process(NewRequest(fmt.Sprintf("https://example.com/p/%d", i), CallbackParse))
		require.NoError(t, err)
	}
}
