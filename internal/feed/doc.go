// Package feed fans probe outcomes out to live subscribers.
//
// A [Feed] keeps nothing: each [Event] is handed to the subscribers that
// exist when it is published and then forgotten. Subscribers that connect
// later never see earlier outcomes.
//
// Subscribers receive events via buffered channels with non-blocking sends,
// so a slow subscriber misses events rather than holding up probing.
package feed
