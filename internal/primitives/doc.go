// Package primitives provides the data definitions shared by every tier of the
// state machine engine.
//
// A chart is described by a ChartConfig: a tree of StateConfig values rooted
// at the implicit Top state (id 0). Configs carry json and yaml tags so that
// charts can be loaded from files, and they hold no behaviour. Entry, exit,
// init and event-handling bodies are attached by the hsm package.
//
// Core invariants:
//   - StateID 0 is Top and never appears in a config
//   - state IDs and names are unique within a chart
//   - configs are treated as immutable once a chart is built
package primitives
