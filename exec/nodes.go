package exec

import (
	"fmt"

	"github.com/rillflow/rill/element"
	"github.com/rillflow/rill/partition"
	"github.com/rillflow/rill/reducer"
)

// Map transforms events one to one and forwards every other token
// unchanged. The window and pane metadata survive, so a Map behind a
// reduce keeps the attached windows intact.
func Map[IN, OUT any](f *Flow, name string, in <-chan element.Element, fn func(IN) OUT) <-chan element.Element {
	out := f.channel()
	f.spawn(kindMap, name, func() error {
		defer close(out)
		for token := range in {
			switch it := token.(type) {
			case *element.Event[IN]:
				out <- &element.Event[OUT]{
					Value:     fn(it.Value),
					Timestamp: it.Timestamp,
					Windows:   it.Windows,
					Pane:      it.Pane,
				}
			default:
				out <- token
			}
		}
		return nil
	})
	return out
}

// Union interleaves several edges into one. Watermarks are combined to
// the minimum over the still-active inputs, window-close notifications
// pass through, and end-of-stream is emitted once after every input
// ended.
func Union(f *Flow, name string, ins ...<-chan element.Element) <-chan element.Element {
	out := f.channel()
	f.spawn(kindUnion, name, func() error {
		defer close(out)
		cw := newCombineWatermark(len(ins))
		type incoming struct {
			input int
			token element.Element
			ok    bool
		}
		merged := make(chan incoming, len(ins))
		for i, in := range ins {
			i, in := i, in
			go func() {
				for token := range in {
					merged <- incoming{input: i, token: token, ok: true}
				}
				merged <- incoming{input: i}
			}()
		}
		open := len(ins)
		ended := 0
		for open > 0 {
			msg := <-merged
			if !msg.ok {
				open--
				continue
			}
			switch it := msg.token.(type) {
			case element.Watermark:
				if cw.UpdateWatermarkTimestamp(it.Timestamp, msg.input) {
					out <- element.Watermark{Timestamp: cw.GetCombinedWatermarkTimestamp()}
				}
			case element.EndOfStream:
				ended++
				if cw.UpdateIdle(true, msg.input) {
					out <- element.Watermark{Timestamp: cw.GetCombinedWatermarkTimestamp()}
				}
				if ended == len(ins) {
					out <- element.EndOfStream{}
				}
			default:
				out <- msg.token
			}
		}
		return nil
	})
	return out
}

// Repartition shuffles events onto partitions by key so each key is
// owned by exactly one downstream partition. Watermarks, window-close
// notifications and end-of-stream are broadcast to every partition.
func Repartition[V any, K comparable](f *Flow, name string, in <-chan element.Element, partitions int, keyFn func(V) K) []<-chan element.Element {
	p := partition.NewHashPartitioner[K]()
	outs := make([]chan element.Element, partitions)
	for i := range outs {
		outs[i] = f.channel()
	}
	f.spawn(kindRepartition, name, func() error {
		defer func() {
			for _, out := range outs {
				close(out)
			}
		}()
		for token := range in {
			switch it := token.(type) {
			case *element.Event[V]:
				outs[p.Partition(keyFn(it.Value), partitions)] <- token
			default:
				for _, out := range outs {
					out <- token
				}
			}
		}
		return nil
	})
	views := make([]<-chan element.Element, partitions)
	for i, out := range outs {
		views[i] = out
	}
	return views
}

// Reduce runs one partition engine per input edge and unions their
// outputs. Inputs must already be partitioned by the config's key
// extractor, typically by a Repartition right upstream.
func Reduce[K comparable, V, OUT any](f *Flow, name string, ins []<-chan element.Element, cfg reducer.Config[K, V, OUT]) (<-chan element.Element, error) {
	if cfg.Name == "" {
		cfg.Name = name
	}
	baseName := cfg.Name
	outs := make([]<-chan element.Element, len(ins))
	for i, in := range ins {
		i, in := i, in
		partitionCfg := cfg
		partitionCfg.Name = fmt.Sprintf("%s-%d", baseName, i)
		red, err := reducer.New(partitionCfg)
		if err != nil {
			return nil, err
		}
		f.spawn(kindReduce, partitionCfg.Name, func() error {
			go func() {
				for token := range in {
					red.In() <- token
				}
				close(red.In())
			}()
			return red.Run()
		})
		outs[i] = red.Out()
	}
	if len(outs) == 1 {
		return outs[0], nil
	}
	return Union(f, name+"-union", outs...), nil
}
