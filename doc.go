// Package kioto implements a name-addressable plugin registry and its
// call machinery: a content-addressed Store of type-erased plugin
// instances, a Call/Bind pipeline that resolves a commit id to a running
// plugin, an Event/Handler chain that pairs a plugin call with an
// optional observer, and a Broker that threads at-most-one pending
// message between them.
//
// The environment builder/loader that assembles a Store from TOML
// configuration files lives in the sibling env package. Error kinds live
// in kerr; structured logging in klog.
package kioto
