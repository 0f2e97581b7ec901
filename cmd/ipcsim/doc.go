// Command ipcsim replays scenario files against the simulator and serves the
// simulator over HTTP.
//
// Usage:
//
//	ipcsim run scenarios/classic.yaml --events --state
//	ipcsim run scenarios/classic.yaml --fail-on-deadlock
//	ipcsim validate scenarios/*.yaml
//	ipcsim serve --port 4000 --tick 500ms
package main
