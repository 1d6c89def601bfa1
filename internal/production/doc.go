// Package production provides the integrations a deployed machine needs
// around it: recording traces, storing them as JSON or YAML, forwarding
// transition records over channels, and rendering charts as Graphviz DOT.
package production
