// Package event carries host notifications to the components that react
// to them.
//
// Events are typed at publish time and delivered as an Envelope:
//
//	bus := event.NewBus()
//	bus.Subscribe("runtime.*", func(ctx context.Context, ev event.Envelope) error {
//		click, ok := event.Payload[event.MenuClick](ev)
//		...
//	})
//	event.Publish(ctx, bus, event.TopicMenuClicked, click, "host")
//
// Topic patterns use "*" for one segment and "**" for any number of
// segments. Delivery is synchronous, so a publisher observes every
// handler's error.
package event
