// Package scenario loads scripted command sequences from YAML, TOML or JSON
// files and replays them against a simulator.
//
// A scenario file looks like:
//
//	name: classic
//	steps:
//	  - op: process
//	  - op: process
//	  - op: channel
//	    type: pipe
//	  - {op: acquire, pid: P1, channel: C1, lock: A, expect: true}
//	  - {op: acquire, pid: P2, channel: C1, lock: B, expect: true}
//	  - {op: acquire, pid: P1, channel: C1, lock: B, expect: false}
//	  - {op: acquire, pid: P2, channel: C1, lock: A, expect: false}
//	  - op: step
package scenario
