package archive

import "github.com/manpen/stride/internal/config"

// New constructs the Client selected by cfg (§4.5, §4.7): "null" (also
// forced whenever cfg.Offline is set) disables the archive outright,
// "disk" caches locally with no remote propagation, and "s3" pairs the
// local cache with the teacher's S3-backed remote store for durable,
// best-effort publication.
func New(cfg *config.C) (Client, error) {
	if cfg.Offline {
		return NullClient{}, nil
	}
	switch cfg.Archive {
	case "", "null":
		return NullClient{}, nil
	case "disk":
		fast, err := newDiskStore(cfg.ArchiveCacheDirectoryPath())
		if err != nil {
			return nil, err
		}
		return &diskOnlyClient{fast: fast}, nil
	case "s3":
		fast, err := newDiskStore(cfg.ArchiveCacheDirectoryPath())
		if err != nil {
			return nil, err
		}
		slow, err := newS3Store(cfg)
		if err != nil {
			return nil, err
		}
		return newPairedClient(fast, slow), nil
	default:
		return NullClient{}, nil
	}
}

// diskOnlyClient is the "disk" backend: a local cache with no remote
// propagation, useful for single-machine runs that still want
// best-known deduplication across invocations.
type diskOnlyClient struct {
	fast *diskStore
}

var _ Client = (*diskOnlyClient)(nil)

func (c *diskOnlyClient) FetchBestKnown(idigest string) (int, bool, error) {
	r, err := c.fast.get(idigest)
	if err != nil || r.BestScore == nil {
		return 0, false, nil
	}
	return *r.BestScore, true, nil
}

func (c *diskOnlyClient) UploadSolution(idigest, _ string, score int) error {
	s := score
	if _, err := c.fast.merge(idigest, &record{BestScore: &s}); err != nil {
		logFailure("upload-solution", idigest, err)
	}
	return nil
}

func (c *diskOnlyClient) ReportError(idigest string, kind ErrorKind) error {
	if _, err := c.fast.merge(idigest, &record{ErrorKind: kind}); err != nil {
		logFailure("report-error", idigest, err)
	}
	return nil
}

func (c *diskOnlyClient) Close() {}
