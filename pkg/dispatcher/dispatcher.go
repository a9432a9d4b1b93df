// Package dispatcher routes browser requests to the plugin that serves them.
package dispatcher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/morezero/jaxon/pkg/errdefs"
	"github.com/morezero/jaxon/pkg/events"
	"github.com/morezero/jaxon/pkg/plugin"
	"github.com/morezero/jaxon/pkg/request"
	"github.com/morezero/jaxon/pkg/response"
)

const logPrefix = "dispatcher:dispatch"

// State is the stage of one dispatch.
type State int

const (
	StateIdle State = iota
	StateResolving
	StateInvoking
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateResolving:
		return "resolving"
	case StateInvoking:
		return "invoking"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

var transitions = map[State][]State{
	StateIdle:      {StateResolving},
	StateResolving: {StateInvoking, StateIdle},
	StateInvoking:  {StateSucceeded, StateFailed},
}

// machine tracks the state of one dispatch.
type machine struct {
	state State
}

func (m *machine) to(next State) {
	for _, allowed := range transitions[m.state] {
		if allowed == next {
			m.state = next
			return
		}
	}
	panic(fmt.Sprintf("%s - invalid transition %s -> %s", logPrefix, m.state, next))
}

// Result is the outcome of a dispatch. Handled is false when no handler
// recognized the request; that is not an error.
type Result struct {
	Handled  bool
	State    State
	Owner    string
	Target   string
	Response *response.Response
	Err      error
	Duration time.Duration
}

// NewDispatcherParams holds the collaborators of a Dispatcher.
type NewDispatcherParams struct {
	Plugins   *plugin.Manager
	Publisher events.EventPublisher
}

// Dispatcher routes requests to the registered request handlers.
type Dispatcher struct {
	plugins   *plugin.Manager
	publisher events.EventPublisher
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(p NewDispatcherParams) *Dispatcher {
	pub := p.Publisher
	if pub == nil {
		pub = &events.NoOpPublisher{}
	}
	return &Dispatcher{plugins: p.Plugins, publisher: pub}
}

// resolve picks the owner of rc: the first handler, in registration order,
// that recognizes it. Preprocessors that recognize rc prepare it for the
// owner, and own it only when no other handler does.
func resolve(handlers []plugin.Record, rc *request.Context) (*plugin.Record, []plugin.Preprocessor) {
	var (
		owner *plugin.Record
		first *plugin.Record
		pre   []plugin.Preprocessor
	)
	for i := range handlers {
		rec := &handlers[i]
		if p, ok := rec.Plugin.(plugin.Preprocessor); ok {
			if p.CanProcessRequest(rc) {
				pre = append(pre, p)
				if first == nil {
					first = rec
				}
			}
			continue
		}
		if owner == nil && rec.Plugin.(plugin.RequestHandler).CanProcessRequest(rc) {
			owner = rec
		}
	}
	if owner == nil && first != nil {
		return first, nil
	}
	return owner, pre
}

// Dispatch serves rc with its owner. Each call runs its own state machine.
func (d *Dispatcher) Dispatch(ctx context.Context, rc *request.Context) *Result {
	start := time.Now()
	m := &machine{state: StateIdle}
	res := &Result{Target: rc.Target().String()}

	m.to(StateResolving)
	owner, pre := resolve(d.plugins.RequestHandlers(), rc)
	if owner == nil {
		m.to(StateIdle)
		res.State = m.state
		slog.Debug(fmt.Sprintf("%s - request not handled target=%q", logPrefix, res.Target))
		d.publish(ctx, res, start)
		return res
	}
	res.Handled = true
	res.Owner = owner.Name

	m.to(StateInvoking)
	resp := response.New(response.Params{Request: rc, Plugins: d.plugins})
	err := invoke(ctx, owner.Plugin.(plugin.RequestHandler), pre, rc, resp)
	if err != nil {
		m.to(StateFailed)
		res.Err = err
		slog.Warn(fmt.Sprintf("%s - owner=%s target=%q failed: %v", logPrefix, res.Owner, res.Target, err))
	} else {
		resp.Finalize()
		m.to(StateSucceeded)
		res.Response = resp
		slog.Debug(fmt.Sprintf("%s - owner=%s target=%q commands=%d", logPrefix, res.Owner, res.Target, resp.Len()))
	}
	res.State = m.state
	d.publish(ctx, res, start)
	return res
}

// invoke runs the preprocessors then the owner. A panic fails the request
// with an internal error.
func invoke(ctx context.Context, owner plugin.RequestHandler, pre []plugin.Preprocessor, rc *request.Context, resp *response.Response) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error(fmt.Sprintf("%s - panic while serving request: %v", logPrefix, r))
			err = errdefs.NewRequestError(errdefs.CodeInternal, fmt.Sprintf("panic: %v", r), nil)
		}
	}()

	for _, p := range pre {
		if err := p.PreprocessRequest(ctx, rc); err != nil {
			return err
		}
	}
	return owner.ProcessRequest(ctx, rc, resp)
}

func (d *Dispatcher) publish(ctx context.Context, res *Result, start time.Time) {
	res.Duration = time.Since(start)
	ev := &events.DispatchedEvent{
		Target:     res.Target,
		Owner:      res.Owner,
		Handled:    res.Handled,
		State:      res.State.String(),
		DurationMs: res.Duration.Milliseconds(),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}
	if res.Response != nil {
		ev.Commands = res.Response.Len()
	}
	if res.Err != nil {
		detail := ErrorDetailOf(res.Err)
		ev.ErrorCode = detail.Code
		ev.Error = detail.Message
	}
	if err := d.publisher.PublishDispatched(ctx, ev); err != nil {
		slog.Warn(fmt.Sprintf("%s - failed to publish dispatch event: %v", logPrefix, err))
	}
}
