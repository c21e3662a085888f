// Package runtime holds the engine core: the definition resolver, the page runner and
// the dispatcher that serializes activation requests through them.
//
// Everything here is single-threaded cooperative. Exactly one activation is in flight at
// a time; steps that need more time suspend and are polled by Tick. Enqueue is the only
// entry point safe to call from step logic or from other goroutines.
package runtime
