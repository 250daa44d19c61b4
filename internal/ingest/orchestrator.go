package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/xid"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"eventsIngestion/internal/model"
	"eventsIngestion/internal/publisher"
	"eventsIngestion/internal/registry"
	"eventsIngestion/internal/transcode"
)

// Fetcher retrieves a source's historical events.
type Fetcher interface {
	FetchEvents(ctx context.Context, src model.Source) ([]model.ChainEvent, error)
}

// Resolver lists the children registered on the root contract.
type Resolver interface {
	ListRegistered(ctx context.Context, root model.Source) ([]common.Address, error)
}

// Config holds the settings of one run.
type Config struct {
	RunID          string
	Topic          string
	StartBlock     uint64
	RootAddress    common.Address
	RootInterface  abi.ABI
	ChildInterface abi.ABI
	// MaxConcurrency bounds in-flight child tasks; zero means unbounded.
	MaxConcurrency int
}

// Orchestrator sequences one run: root events, registry snapshot, child
// fan-out, disconnect.
type Orchestrator struct {
	cfg       Config
	fetcher   Fetcher
	resolver  Resolver
	publisher publisher.Publisher
	observer  Observer
}

// NewOrchestrator builds an Orchestrator. The publisher is opened on the
// first non-empty send and closed once when the run ends.
func NewOrchestrator(cfg Config, fetcher Fetcher, resolver Resolver, pub publisher.Publisher, observer Observer) *Orchestrator {
	if observer == nil {
		observer = NopObserver{}
	}
	if cfg.RunID == "" {
		cfg.RunID = xid.New().String()
	}
	return &Orchestrator{
		cfg:       cfg,
		fetcher:   fetcher,
		resolver:  resolver,
		publisher: pub,
		observer:  observer,
	}
}

// RootSource returns the descriptor of the root contract.
func (o *Orchestrator) RootSource() model.Source {
	return model.Source{
		Role:       model.RoleRoot,
		Address:    o.cfg.RootAddress,
		StartBlock: o.cfg.StartBlock,
		Interface:  o.cfg.RootInterface,
	}
}

func (o *Orchestrator) childSource(address common.Address) model.Source {
	return model.Source{
		Role:       model.RoleChild,
		Address:    address,
		StartBlock: o.cfg.StartBlock,
		Interface:  o.cfg.ChildInterface,
	}
}

// ResolveChildren reads the registry once and returns the snapshot.
func (o *Orchestrator) ResolveChildren(ctx context.Context) (registry.Snapshot, error) {
	registered, err := o.resolver.ListRegistered(ctx, o.RootSource())
	if err != nil {
		return registry.Snapshot{}, err
	}
	return registry.NewSnapshot(o.cfg.RootAddress, registered), nil
}

// Run executes the state machine once. Close is called exactly once before
// Run returns, whatever the outcome.
func (o *Orchestrator) Run(ctx context.Context) Result {
	r := &run{
		Orchestrator: o,
		result:       Result{RunID: o.cfg.RunID, State: Idle, StartedAt: time.Now().UTC()},
	}
	runErr := r.execute(ctx)

	r.enter(Disconnecting)
	if err := o.publisher.Close(); err != nil {
		runErr = multierr.Append(runErr, asPublishError(o.cfg.Topic, err))
	}

	r.result.Err = runErr
	r.result.Duration = time.Since(r.result.StartedAt)
	if runErr != nil {
		r.enter(Failed)
	} else {
		r.enter(Succeeded)
	}
	o.observer.Finished(r.result)
	return r.result
}

type run struct {
	*Orchestrator
	result Result

	openOnce sync.Once
	openErr  error
}

func (r *run) enter(next State) {
	prev := r.result.State
	r.result.State = next
	r.observer.Transition(prev, next)
}

func (r *run) execute(ctx context.Context) error {
	root := r.RootSource()

	r.enter(FetchingRoot)
	rootResult := model.SourceResult{Role: root.Role, Address: root.Address.Hex()}
	events, err := r.fetch(ctx, root, &rootResult)
	if err != nil {
		r.result.Sources = append(r.result.Sources, rootResult)
		return err
	}

	r.enter(PublishingRoot)
	if err := r.publish(ctx, root, events, &rootResult); err != nil {
		r.result.Sources = append(r.result.Sources, rootResult)
		return err
	}

	// A registry failure is reported on the root, whose events stay published.
	r.enter(ResolvingChildren)
	snapshot, err := r.ResolveChildren(ctx)
	if err != nil {
		err = r.fail(root, &rootResult, err)
		r.result.Sources = append(r.result.Sources, rootResult)
		return err
	}
	r.result.Sources = append(r.result.Sources, rootResult)
	r.result.Snapshot = snapshot
	r.observer.ChildrenResolved(snapshot)

	r.enter(FanningOutChildren)
	return r.fanOut(ctx, snapshot.Addresses())
}

// fanOut processes every child and waits for all of them; one child's
// failure does not cancel its siblings.
func (r *run) fanOut(ctx context.Context, children []common.Address) error {
	if len(children) == 0 {
		return nil
	}

	results := make([]model.SourceResult, len(children))
	var g errgroup.Group
	if r.cfg.MaxConcurrency > 0 {
		g.SetLimit(r.cfg.MaxConcurrency)
	}
	for i, address := range children {
		src := r.childSource(address)
		g.Go(func() error {
			results[i] = r.processChild(ctx, src)
			return results[i].Err
		})
	}
	err := g.Wait()

	r.result.Sources = append(r.result.Sources, results...)
	return err
}

func (r *run) processChild(ctx context.Context, src model.Source) model.SourceResult {
	res := model.SourceResult{Role: src.Role, Address: src.Address.Hex()}
	events, err := r.fetch(ctx, src, &res)
	if err != nil {
		return res
	}
	_ = r.publish(ctx, src, events, &res)
	return res
}

func (r *run) fetch(ctx context.Context, src model.Source, res *model.SourceResult) ([]model.ChainEvent, error) {
	events, err := r.fetcher.FetchEvents(ctx, src)
	if err != nil {
		return nil, r.fail(src, res, err)
	}
	res.Events = len(events)
	r.observer.SourceFetched(src, len(events))
	return events, nil
}

func (r *run) publish(ctx context.Context, src model.Source, events []model.ChainEvent, res *model.SourceResult) error {
	messages, err := transcode.ToMessages(events)
	if err != nil {
		return r.fail(src, res, fmt.Errorf("transcode %s: %w", src.Address.Hex(), err))
	}
	if err := r.send(ctx, messages); err != nil {
		return r.fail(src, res, err)
	}
	res.Published = len(messages)
	r.observer.SourcePublished(src, len(messages))
	return nil
}

func (r *run) fail(src model.Source, res *model.SourceResult, err error) error {
	res.Err = err
	r.observer.SourceFailed(src, err)
	return err
}

// send opens the publisher on first use. An empty batch never opens it.
func (r *run) send(ctx context.Context, messages []model.BrokerMessage) error {
	if len(messages) == 0 {
		return nil
	}
	r.openOnce.Do(func() {
		if err := r.publisher.Open(ctx); err != nil {
			r.openErr = asPublishError("", err)
		}
	})
	if r.openErr != nil {
		return r.openErr
	}
	if err := r.publisher.Send(ctx, r.cfg.Topic, messages); err != nil {
		return asPublishError(r.cfg.Topic, err)
	}
	return nil
}

func asPublishError(topic string, err error) error {
	var publishErr *model.PublishError
	if errors.As(err, &publishErr) {
		return err
	}
	return &model.PublishError{Topic: topic, Err: err}
}
