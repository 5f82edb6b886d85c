package kioto

import (
	"context"
	"reflect"
)

var nameType = reflect.TypeOf(Name{})

// testPlugin is a minimal Plugin used across the root package's tests:
// its Call echoes a fixed string back as a BytesMessage.
type testPlugin struct {
	BasePlugin
	echo string
}

func (p *testPlugin) Call(ctx context.Context, c *Call) (*Work, error) {
	b, err := BindAs[*testPlugin](c)
	if err != nil {
		return nil, err
	}
	return b.Work(func(cur *testPlugin) (Message, error) {
		return BytesMessage([]byte(cur.echo)), nil
	}), nil
}

func (p *testPlugin) Fork() (Plugin, error) {
	return &testPlugin{BasePlugin: p.BasePlugin, echo: p.echo}, nil
}

// otherTestPlugin exists solely to be a distinct concrete type from
// testPlugin, for exercising Borrow/BindAs mismatch paths.
type otherTestPlugin struct {
	BasePlugin
}

func (p *otherTestPlugin) Call(ctx context.Context, c *Call) (*Work, error) {
	return nil, nil
}

func (p *otherTestPlugin) Fork() (Plugin, error) {
	return &otherTestPlugin{BasePlugin: p.BasePlugin}, nil
}

// countingHandler observes a target Item's Call and records how many
// times Handle ran and what it saw, then publishes its own return.
type countingHandler struct {
	BasePlugin
	handled  int
	lastSeen string
}

func (h *countingHandler) Call(ctx context.Context, c *Call) (*Work, error) {
	b, err := BindAs[*countingHandler](c)
	if err != nil {
		return nil, err
	}
	return b.Work(func(cur *countingHandler) (Message, error) {
		msg := BytesMessage([]byte("handler-return"))
		if perr := c.PublishReturn(msg); perr != nil {
			return Message{}, perr
		}
		return msg, nil
	}), nil
}

func (h *countingHandler) Fork() (Plugin, error) {
	return &countingHandler{BasePlugin: h.BasePlugin}, nil
}

func (h *countingHandler) Handle(ctx context.Context, target, self *Item) error {
	h.handled++
	if p, ok := Borrow[*testPlugin](target); ok {
		h.lastSeen = p.echo
	}
	return nil
}
