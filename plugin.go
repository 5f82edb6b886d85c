package kioto

import "context"

// Plugin is the contract every registered instance satisfies: report its
// own identity, handle a Call, fork an independent copy of itself for a
// child Call, and optionally accept a broker message or reconfiguration.
//
// Concrete plugins (the out-of-scope request/process/repl plugins this
// runtime is built to host) depend only on this interface plus *Call and
// *Item — never the other way around, so kioto never imports them.
type Plugin interface {
	// PluginName reports this plugin's canonical Name.
	PluginName() Name

	// PluginVersion reports a free-form build/revision string, distinct
	// from Name.Version (which is the plugin family's semantic version).
	PluginVersion() string

	// Call runs one invocation of this plugin and returns its Work.
	Call(ctx context.Context, c *Call) (*Work, error)

	// Fork produces an independent instance of this plugin for use by a
	// child Call (one created via Call.Fork). The returned Plugin shares
	// no mutable state with the
	// original unless the plugin author chooses to share it explicitly.
	Fork() (Plugin, error)

	// Receive lets a plugin observe a Message waiting in the Broker for
	// its own commit id and optionally substitute a different Plugin
	// value to act as the call receiver. Returning (nil, nil) means "no
	// override, proceed with the stored instance". The override never
	// mutates the Item in the Store.
	Receive(msg Message) (Plugin, error)

	// Configure applies a decoded document (TOML or JSON table) to this
	// plugin instance, before it is registered. Used by LoadByTOML.
	Configure(fields map[string]any) error
}

// Handler is a Plugin that additionally observes another Item's Call
// sequence. A Handler's own Call always completes after the target
// plugin's Work and after Handle returns (spec.md §4.6).
type Handler interface {
	Plugin

	// Handle runs after target's Work completes, before the Handler's
	// own call-fn begins. self is the Handler's own Item.
	Handle(ctx context.Context, target, self *Item) error
}

// ArgConfigurable is implemented by plugins that can be constructed
// directly from command-line style arguments rather than a TOML/JSON
// document, used by LoadByArgs.
type ArgConfigurable interface {
	ConfigureFromArgs(args ArgMatches) error
}

// ArgMatches is the interface LoadByArgs consumes. It is the entire
// surface the core needs from a command-line parsing library; the
// parsing library itself (e.g. a pflag/cobra FlagSet) is out of scope
// and lives in the external CLI binary that owns it.
type ArgMatches interface {
	GetString(key string) (string, bool)
	GetBool(key string) (bool, bool)
}
