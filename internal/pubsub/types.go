package pubsub

import "cloud.google.com/go/pubsub"

type client struct {
	client   *pubsub.Client
	teardown func()
}

// DefaultTopic carries league events from the site to the push endpoint.
const DefaultTopic = "league-events"
