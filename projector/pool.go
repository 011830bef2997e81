package projector

import (
	"errors"
	"slices"

	"github.com/puzpuzpuz/xsync/v3"
)

// Pool shares one Projector per host between independent callers, so that
// commands to the same device are serialized through a single session.
//
// Pool is goroutine-safe.
type Pool struct {
	opts       []ConnOption
	projectors *xsync.MapOf[string, *Projector]
}

// NewPool creates a pool whose projectors are configured with opts.
func NewPool(opts ...ConnOption) *Pool {
	return &Pool{
		opts:       opts,
		projectors: xsync.NewMapOf[string, *Projector](),
	}
}

// Get returns the projector for host, creating it on first use.
func (p *Pool) Get(host string) (*Projector, error) {
	var createErr error

	proj, _ := p.projectors.Compute(host, func(old *Projector, loaded bool) (*Projector, bool) {
		if loaded {
			return old, false
		}

		proj, err := Dial(host, p.opts...)
		if err != nil {
			createErr = err
			return nil, true
		}
		proj.GetLogger().Debug("jvc: pool added projector")

		return proj, false
	})
	if createErr != nil {
		return nil, createErr
	}

	return proj, nil
}

// Lookup returns the projector for host if Get has already created it.
func (p *Pool) Lookup(host string) (*Projector, bool) {
	return p.projectors.Load(host)
}

// Hosts returns the sorted hosts with a projector in the pool.
func (p *Pool) Hosts() []string {
	hosts := make([]string, 0, p.projectors.Size())
	p.projectors.Range(func(host string, _ *Projector) bool {
		hosts = append(hosts, host)
		return true
	})
	slices.Sort(hosts)

	return hosts
}

// Range calls f for each projector until f returns false.
func (p *Pool) Range(f func(host string, proj *Projector) bool) {
	p.projectors.Range(f)
}

// Remove closes and forgets the projector for host.
func (p *Pool) Remove(host string) error {
	proj, ok := p.projectors.LoadAndDelete(host)
	if !ok {
		return nil
	}

	return proj.Close()
}

// Close closes every projector and empties the pool.
func (p *Pool) Close() error {
	var errs []error
	p.projectors.Range(func(host string, _ *Projector) bool {
		errs = append(errs, p.Remove(host))
		return true
	})

	return errors.Join(errs...)
}
