package exec

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/rillflow/rill/common/safe"
	"github.com/rillflow/rill/common/status"
	"github.com/rillflow/rill/element"
	"github.com/rillflow/rill/log"
)

// nodeKind tags the operator variants the in-process executor knows.
type nodeKind int

const (
	kindSource nodeKind = iota
	kindMap
	kindUnion
	kindRepartition
	kindReduce
	kindSink
)

func (k nodeKind) String() string {
	switch k {
	case kindSource:
		return "source"
	case kindMap:
		return "map"
	case kindUnion:
		return "union"
	case kindRepartition:
		return "repartition"
	case kindReduce:
		return "reduce"
	case kindSink:
		return "sink"
	default:
		return "unknown"
	}
}

type node struct {
	kind nodeKind
	name string
	run  func() error
}

// Flow is a minimal in-process host for the engine: operator nodes
// connected by channels, each resolved to its behavior once at graph
// construction time and run on its own goroutine. It is a test and
// reference harness, not a distributed runner.
type Flow struct {
	name   string
	logger log.Logger
	status status.Status
	nodes  []node

	ChannelSize int
}

func NewFlow(name string) *Flow {
	return &Flow{
		name:        name,
		logger:      log.Global().Named(name + ".flow"),
		ChannelSize: 1024,
	}
}

func (f *Flow) spawn(kind nodeKind, name string, run func() error) {
	f.nodes = append(f.nodes, node{kind: kind, name: name, run: run})
}

func (f *Flow) channel() chan element.Element {
	return make(chan element.Element, f.ChannelSize)
}

// Run starts every node and blocks until the flow drains. The first
// node failure is returned; a failed partition stops producing output
// but the flow does not restart it.
func (f *Flow) Run() error {
	if !status.CAP(&f.status, status.Ready, status.Running) {
		return errors.Errorf("flow %s is not ready", f.name)
	}
	f.logger.Infof("starting %d nodes", len(f.nodes))
	errChan := make(chan error, len(f.nodes))
	var wg sync.WaitGroup
	for _, n := range f.nodes {
		n := n
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := safe.Run(n.run); err != nil {
				errChan <- errors.WithMessagef(err, "%s node %s failed", n.kind, n.name)
			}
		}()
	}
	wg.Wait()
	status.CAP(&f.status, status.Running, status.Closed)
	close(errChan)
	return <-errChan
}

// Source feeds the given tokens in order and closes the edge. The
// caller interleaves watermarks and terminates with EndOfStream the
// way any upstream partition would.
func Source(f *Flow, name string, tokens []element.Element) <-chan element.Element {
	out := f.channel()
	f.spawn(kindSource, name, func() error {
		defer close(out)
		for _, token := range tokens {
			out <- token
		}
		return nil
	})
	return out
}

// Sink drains an edge into fn.
func Sink(f *Flow, name string, in <-chan element.Element, fn func(element.Element)) {
	f.spawn(kindSink, name, func() error {
		for token := range in {
			fn(token)
		}
		return nil
	})
}
