package clustering

import (
	"context"
	"sync"

	"github.com/kozaktomas/band-gallery/internal/constants"
	"github.com/kozaktomas/band-gallery/internal/database"
)

// Fetcher downloads photo media by its stored URL.
type Fetcher interface {
	GetURL(ctx context.Context, url string) ([]byte, error)
}

// HashFailure records a photo that could not be hashed.
type HashFailure struct {
	PhotoID string
	Err     error
}

// HashStats summarizes a HashBatch run.
type HashStats struct {
	Hashed   int
	Failures []HashFailure
}

// mediaURL prefers the thumbnail, which is enough for 8x8 hashes.
func mediaURL(p database.Photo) string {
	if p.ThumbnailURL != "" {
		return p.ThumbnailURL
	}
	return p.URL
}

// HashBatch downloads and hashes photos with at most concurrency downloads in flight.
// progress, when set, is called once per photo. A failing photo does not stop the batch.
func HashBatch(ctx context.Context, store database.HashStore, fetch Fetcher, photos []database.Photo, concurrency int, progress func()) HashStats {
	if concurrency < 1 {
		concurrency = constants.DefaultConcurrency
	}

	var (
		stats HashStats
		mu    sync.Mutex
		wg    sync.WaitGroup
	)
	sem := make(chan struct{}, concurrency)

	for _, photo := range photos {
		wg.Add(1)
		go func(p database.Photo) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			err := ctx.Err()
			if err == nil {
				var data []byte
				if data, err = fetch.GetURL(ctx, mediaURL(p)); err == nil {
					_, err = HashPhoto(ctx, store, p.ID, data)
				}
			}

			mu.Lock()
			if err != nil {
				stats.Failures = append(stats.Failures, HashFailure{PhotoID: p.ID, Err: err})
			} else {
				stats.Hashed++
			}
			mu.Unlock()
			if progress != nil {
				progress()
			}
		}(photo)
	}

	wg.Wait()
	return stats
}
