package scheduler

import (
	"fmt"
	"runtime"
	"strconv"
	"sync"

	"github.com/bmsrender/bmsrender/internal/bank"
	"github.com/bmsrender/bmsrender/internal/decode"
	"github.com/bmsrender/bmsrender/internal/pcm"
)

// LoadPool runs sound-bank decode jobs across a fixed worker pool,
// adapted from internal/streaming/render_pool.go's RenderWorkerPool:
// the same NumCPU-default/16-cap sizing and job-channel shape, retargeted
// from per-frame particle rendering to per-channel bank decode. Decode
// runs on a worker thread with no interaction with the mix loop; results
// are only applied to the Scheduler/Mixer afterwards.
type LoadPool struct {
	numWorkers int
}

// NewLoadPool creates a pool with numWorkers workers; 0 defaults to
// runtime.NumCPU(), capped at 16, matching RenderWorkerPool.
func NewLoadPool(numWorkers int) *LoadPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	if numWorkers > 16 {
		numWorkers = 16
	}
	return &LoadPool{numWorkers: numWorkers}
}

type decodeResult struct {
	job LoadJob
	buf pcm.Buffer
	err error
}

// decodeAll resolves and decodes every job concurrently, preserving job
// order in the returned slice regardless of completion order.
func (p *LoadPool) decodeAll(jobs []LoadJob, res bank.Bank) []decodeResult {
	results := make([]decodeResult, len(jobs))
	if len(jobs) == 0 {
		return results
	}

	jobChan := make(chan int, len(jobs))
	for i := range jobs {
		jobChan <- i
	}
	close(jobChan)

	var wg sync.WaitGroup
	workers := p.numWorkers
	if workers > len(jobs) {
		workers = len(jobs)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobChan {
				job := jobs[i]
				raw, err := res.Resolve(job.Filename)
				if err != nil {
					results[i] = decodeResult{job: job, err: fmt.Errorf("load pool: resolve channel %d: %w", job.Channel, err)}
					continue
				}
				buf, err := decode.Decode(raw, job.Filename, nil)
				if err != nil {
					results[i] = decodeResult{job: job, err: fmt.Errorf("load pool: decode channel %d (%s): %w", job.Channel, job.Filename, err)}
					continue
				}
				results[i] = decodeResult{job: job, buf: buf}
			}
		}()
	}
	wg.Wait()
	return results
}

// LoadAllParallel decodes every remaining job through pool and binds the
// results into the Mixer's sound cache, skipping LoadNext's one-at-a-time
// progress reporting. Mixer.CreateSound is applied sequentially after
// decode to stay within its own internal locking discipline, even though
// decode itself ran concurrently.
func (s *Scheduler) LoadAllParallel(pool *LoadPool) error {
	pending := s.jobs[s.jobIndex:]
	results := pool.decodeAll(pending, s.bank)

	for _, r := range results {
		if r.err != nil {
			return r.err
		}
		cacheKey := "ch" + strconv.Itoa(r.job.Channel) + ":" + r.job.Filename
		cached, err := s.mixer.CreateSound(cacheKey, r.buf)
		if err != nil {
			return fmt.Errorf("scheduler: cache channel %d: %w", r.job.Channel, err)
		}
		s.soundCache[r.job.Channel] = cached
		s.boundName[r.job.Channel] = cacheKey
	}

	s.jobIndex = len(s.jobs)
	return nil
}
