package events

import (
	"context"
	"fmt"
	"log/slog"

	comms "github.com/nats-io/nats.go"

	"github.com/morezero/jaxon/pkg/commsutil"
)

const commsPublisherLogPrefix = "events:comms_publisher"

// CommsPublisherOpts configures CommsPublisher. Nil or zero values use defaults.
type CommsPublisherOpts struct {
	// DispatchSubject overrides the dispatch event base subject.
	DispatchSubject string
	// UploadSubject overrides the upload event subject.
	UploadSubject string
}

// CommsPublisher publishes request events to COMMS subjects.
type CommsPublisher struct {
	nc              *comms.Conn
	dispatchSubject string
	uploadSubject   string
}

// NewCommsPublisher creates a new CommsPublisher. Pass nil for opts to use defaults.
func NewCommsPublisher(nc *comms.Conn, opts *CommsPublisherOpts) *CommsPublisher {
	p := &CommsPublisher{
		nc:              nc,
		dispatchSubject: commsutil.SubjectDispatch,
		uploadSubject:   commsutil.SubjectUpload,
	}
	if opts != nil {
		if opts.DispatchSubject != "" {
			p.dispatchSubject = opts.DispatchSubject
		}
		if opts.UploadSubject != "" {
			p.uploadSubject = opts.UploadSubject
		}
	}
	return p
}

// PublishDispatched publishes a DispatchedEvent to both the granular
// and global dispatch subjects.
func (p *CommsPublisher) PublishDispatched(_ context.Context, event *DispatchedEvent) error {
	granular := commsutil.BuildDispatchSubject(p.dispatchSubject, event.State, event.Owner)
	for _, subject := range []string{granular, p.dispatchSubject} {
		if err := p.publish(subject, TypeDispatched, event); err != nil {
			return err
		}
	}
	slog.Debug(fmt.Sprintf("%s - Published dispatch event for %s (%s)", commsPublisherLogPrefix, event.Target, event.State))
	return nil
}

// PublishUploaded publishes an UploadedEvent.
func (p *CommsPublisher) PublishUploaded(_ context.Context, event *UploadedEvent) error {
	if err := p.publish(p.uploadSubject, TypeUploaded, event); err != nil {
		return err
	}
	slog.Debug(fmt.Sprintf("%s - Published upload event for %d file(s)", commsPublisherLogPrefix, event.Files))
	return nil
}

func (p *CommsPublisher) publish(subject, eventType string, event interface{}) error {
	msg, err := commsutil.NewMessage(subject, eventType, event)
	if err != nil {
		return fmt.Errorf("%s - failed to encode event: %w", commsPublisherLogPrefix, err)
	}
	if err := p.nc.PublishMsg(msg); err != nil {
		slog.Error(fmt.Sprintf("%s - failed to publish to %s: %v", commsPublisherLogPrefix, subject, err))
		return err
	}
	return nil
}
