// Package pipeline wires the poller and the renderer together around the snapshot broker.
// It is used by both the CLI and the MCP server.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"baobab/src/broker"
	"baobab/src/contracts"
	"baobab/src/logger"
	"baobab/src/poller"
	"baobab/src/render"
	"baobab/src/teamcity"
)

// subscriberGroup names the renderer's subscription.
const subscriberGroup = "baobab-renderer"

// Options configure a watch.
type Options struct {
	BuildURL    string
	Credentials teamcity.Credentials
	Poll        poller.Config
	// RedpandaBrokers, when set, mirrors every snapshot to Kafka.
	RedpandaBrokers []string
	// HTTPClient is shared by every request; nil means a client with teamcity.DefaultTimeout.
	HTTPClient *http.Client
	Log        logger.Logger
}

// Watch resolves opts.BuildURL and streams the build's progress to display
// until it finishes. It returns nil once the finished snapshot was rendered.
func Watch(ctx context.Context, opts Options, display render.Display, notifier render.Notifier) error {
	log := opts.Log
	if log == nil {
		log = logger.NewSilentLogger()
	}

	req, err := teamcity.ParseBuildURL(opts.BuildURL)
	if err != nil {
		return err
	}

	msgBroker, err := NewBroker(opts.RedpandaBrokers, log)
	if err != nil {
		return err
	}

	client := teamcity.NewClient(req.APIURL, opts.Credentials, opts.HTTPClient, log)
	log.Info("watching build %d on %s", req.BuildID, req.APIURL)

	return Run(ctx, req, client, msgBroker, display, notifier, opts.Poll, log)
}

// NewBroker returns the in-memory snapshot handoff, mirrored to Redpanda when brokers are given.
func NewBroker(brokers []string, log logger.Logger) (broker.Broker, error) {
	inMemory := broker.NewInMemoryBroker()
	if len(brokers) == 0 {
		return inMemory, nil
	}

	redpanda, err := broker.NewRedpandaProducer(brokers, log)
	if err != nil {
		inMemory.Close()
		return nil, fmt.Errorf("failed to create Redpanda producer: %w", err)
	}
	return broker.NewMirror(inMemory, log, redpanda), nil
}

// Run polls req with fetcher in one goroutine and renders snapshots from
// msgBroker in the caller's goroutine. It takes ownership of msgBroker and
// closes it once polling stops, so the renderer sees every snapshot that was
// published before the stream ends.
func Run(ctx context.Context, req teamcity.BuildRequest, fetcher poller.Fetcher, msgBroker broker.Broker,
	display render.Display, notifier render.Notifier, cfg poller.Config, log logger.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	msgs, err := msgBroker.Subscribe(ctx, contracts.TopicSnapshots, subscriberGroup)
	if err != nil {
		msgBroker.Close()
		return fmt.Errorf("failed to subscribe to %s: %w", contracts.TopicSnapshots, err)
	}

	engine := poller.NewEngine(req, fetcher, msgBroker, cfg, log)

	pollErr := make(chan error, 1)
	go func() {
		err := engine.Run(ctx)
		if closeErr := msgBroker.Close(); closeErr != nil {
			log.Warn("failed to close broker: %v", closeErr)
		}
		pollErr <- err
	}()

	renderer := render.NewRenderer(display, notifier, log)
	renderErr := renderer.Run(ctx, render.Snapshots(ctx, msgs, log))

	// Stop the poller if the renderer gave up first.
	if renderErr != nil {
		cancel()
	}

	if err := <-pollErr; err != nil {
		return err
	}
	if errors.Is(renderErr, render.ErrStreamEnded) {
		return fmt.Errorf("build %d: %w", req.BuildID, renderErr)
	}
	return renderErr
}

// Status fetches a build once and describes it.
func Status(ctx context.Context, buildURL string, creds teamcity.Credentials, httpClient *http.Client, log logger.Logger) (*teamcity.Build, render.Descriptor, error) {
	req, err := teamcity.ParseBuildURL(buildURL)
	if err != nil {
		return nil, render.Descriptor{}, err
	}

	build, err := teamcity.NewClient(req.APIURL, creds, httpClient, log).GetBuild(ctx, req.BuildID)
	if err != nil {
		return nil, render.Descriptor{}, err
	}

	return build, render.Describe(*build), nil
}
