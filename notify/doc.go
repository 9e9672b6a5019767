// Package notify fans freshly stored sensor data out to subscribers.
//
// A Subscription ties a sensor id to a list of hooks and a delivery
// protocol. After the dispatcher has pushed a sensor's records to its
// backend, the Notifier looks up that sensor's subscription and delivers
// the records to every hook over the subscription's protocol. Delivery is
// fire-and-forget: jobs run on a worker pool, failures are logged and
// dropped, and nothing here ever surfaces as a dispatch failure. A failed
// hook never blocks the other hooks of the same subscription.
//
// Subscriptions live in an external store behind the Store interface; the
// natskv subpackage provides the JetStream KV implementation.
package notify
