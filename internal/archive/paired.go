package archive

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// pairedClient pairs a fast local disk cache with a slow remote store,
// the same division of labour as the teacher's storage.Paired: reads
// prefer the fast store and backfill it from the slow store on a miss;
// writes land in the fast store immediately and are queued for
// best-effort, retrying background delivery to the slow store. Writes
// never wait on the slow store; a read that misses the fast store does.
// Every C7 call is failure-tolerant (§4.7), so unlike Paired, a failed
// background propagation is only logged, never surfaced to a later
// caller.
type pairedClient struct {
	fast *diskStore
	slow *s3Store

	retryInterval time.Duration

	mu      sync.Mutex
	pending []pendingUpload
	once    sync.Once
	wake    chan struct{}
	done    chan struct{}
}

type pendingUpload struct {
	idigest string
	record  *record
}

func newPairedClient(fast *diskStore, slow *s3Store) *pairedClient {
	return &pairedClient{
		fast:          fast,
		slow:          slow,
		retryInterval: 5 * time.Second,
		wake:          make(chan struct{}, 1),
		done:          make(chan struct{}),
	}
}

var _ Client = (*pairedClient)(nil)

func (p *pairedClient) FetchBestKnown(idigest string) (int, bool, error) {
	r, err := p.fast.get(idigest)
	if err == errNotFound {
		r, err = p.slow.get(idigest)
		if err == nil {
			if e := p.fast.put(idigest, r); e != nil {
				logFailure("fetch-best-known:backfill", idigest, e)
			}
		}
	}
	if err != nil {
		logFailure("fetch-best-known", idigest, err)
		return 0, false, nil
	}
	if r.BestScore == nil {
		return 0, false, nil
	}
	return *r.BestScore, true, nil
}

func (p *pairedClient) UploadSolution(idigest, canonicalText string, score int) error {
	s := score
	_ = canonicalText // not stored: only the score is cached and propagated
	merged, err := p.fast.merge(idigest, &record{BestScore: &s})
	if err != nil {
		logFailure("upload-solution", idigest, err)
		return nil
	}
	p.enqueue(idigest, merged)
	return nil
}

func (p *pairedClient) ReportError(idigest string, kind ErrorKind) error {
	merged, err := p.fast.merge(idigest, &record{ErrorKind: kind})
	if err != nil {
		logFailure("report-error", idigest, err)
		return nil
	}
	p.enqueue(idigest, merged)
	return nil
}

func (p *pairedClient) enqueue(idigest string, r *record) {
	p.once.Do(func() { go p.propagate() })
	p.mu.Lock()
	p.pending = append(p.pending, pendingUpload{idigest: idigest, record: r})
	p.mu.Unlock()
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

func (p *pairedClient) propagate() {
	for {
		item, ok := p.dequeue()
		if !ok {
			select {
			case <-p.wake:
				continue
			case <-p.done:
				return
			}
		}
		for {
			if err := p.slow.put(item.idigest, item.record); err == nil {
				break
			} else {
				log.WithFields(log.Fields{
					"idigest": item.idigest,
					"cause":   err.Error(),
				}).Warning("archive: retrying background upload")
			}
			select {
			case <-time.After(p.retryInterval):
			case <-p.done:
				return
			}
		}
	}
}

func (p *pairedClient) dequeue() (pendingUpload, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.pending) == 0 {
		return pendingUpload{}, false
	}
	item := p.pending[0]
	p.pending = p.pending[1:]
	return item, true
}

func (p *pairedClient) Close() {
	close(p.done)
	for {
		item, ok := p.dequeue()
		if !ok {
			return
		}
		if err := p.slow.put(item.idigest, item.record); err != nil {
			logFailure("close:flush", item.idigest, err)
		}
	}
}
