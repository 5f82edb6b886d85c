package kioto

// BasePlugin provides default implementations for the parts of the
// Plugin interface that most concrete plugins don't need to customize.
// Embed it and override only what matters, the way the teacher's
// BasePlugin let concrete plugins skip the lifecycle hooks they didn't
// care about.
//
// Fork has no sensible default (embedding gives BasePlugin no way to
// know the embedder's own type) and is left for the embedding plugin to
// implement.
type BasePlugin struct {
	Name    Name
	Version string
}

// PluginName returns the Name set on this BasePlugin.
func (p *BasePlugin) PluginName() Name {
	return p.Name
}

// PluginVersion returns the Version string set on this BasePlugin, or
// "0.0.0-dev" if unset.
func (p *BasePlugin) PluginVersion() string {
	if p.Version == "" {
		return "0.0.0-dev"
	}
	return p.Version
}

// Receive is a no-op default: the plugin ignores any pending broker
// message and the stored instance is used as-is.
func (p *BasePlugin) Receive(Message) (Plugin, error) {
	return nil, nil
}

// Configure is a no-op default: a plugin that takes no configuration
// fields can embed BasePlugin and skip implementing this.
func (p *BasePlugin) Configure(map[string]any) error {
	return nil
}
