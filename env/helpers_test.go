package env

import (
	"context"

	"github.com/streamspace-dev/kioto"
)

// configurablePlugin is a minimal kioto.Plugin used across this
// package's tests: Configure copies a "greeting" field off the decoded
// document, and Call echoes it back as a BytesMessage.
type configurablePlugin struct {
	kioto.BasePlugin
	Greeting string
}

func (p *configurablePlugin) PluginName() kioto.Name {
	if p.BasePlugin.Name == (kioto.Name{}) {
		return kioto.NewName("kioto", "plugins", "greeter", kioto.Version{})
	}
	return p.BasePlugin.Name
}

func (p *configurablePlugin) Configure(fields map[string]any) error {
	if g, ok := fields["greeting"].(string); ok {
		p.Greeting = g
	}
	return nil
}

func (p *configurablePlugin) Call(ctx context.Context, c *kioto.Call) (*kioto.Work, error) {
	b, err := kioto.BindAs[*configurablePlugin](c)
	if err != nil {
		return nil, err
	}
	return b.Work(func(cur *configurablePlugin) (kioto.Message, error) {
		return kioto.BytesMessage([]byte(cur.Greeting)), nil
	}), nil
}

func (p *configurablePlugin) Fork() (kioto.Plugin, error) {
	return &configurablePlugin{BasePlugin: p.BasePlugin, Greeting: p.Greeting}, nil
}
