package scanning

import "context"

// serialized lets one scan run at a time through a Scanner that is not safe
// for concurrent use. Waiting callers give up when their context ends.
type serialized struct {
	next Scanner
	sem  chan struct{}
}

// Serialized wraps s so that ScanText and Close never run concurrently.
func Serialized(s Scanner) Scanner {
	return &serialized{
		next: s,
		sem:  make(chan struct{}, 1),
	}
}

func (s *serialized) Name() string {
	return s.next.Name()
}

func (s *serialized) ScanText(ctx context.Context, pngData []byte) ([]Fragment, error) {
	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-s.sem }()

	return s.next.ScanText(ctx, pngData)
}

func (s *serialized) Close() error {
	s.sem <- struct{}{}
	defer func() { <-s.sem }()
	return s.next.Close()
}
