package kioto

import (
	"reflect"

	"github.com/BurntSushi/toml"
	"github.com/streamspace-dev/kioto/kerr"
)

// LoadByTOML decodes text as a TOML document, applies it to a freshly
// constructed P via Configure, and registers the result. P must be a
// pointer-to-struct type (Configure mutates the pointed-to struct), as
// every concrete plugin in this runtime is.
//
// The env package's Loader is the usual caller of this: it augments a
// plugin's source document with synthesized -kt-loader metadata before
// handing the combined document here, and passes along any labels
// declared in the environment's engine config.
func LoadByTOML[P Plugin](s *Store, text string, labels map[string]string) (Address, error) {
	inst := newZero[P]()

	var doc map[string]any
	if _, err := toml.Decode(text, &doc); err != nil {
		return Address{}, kerr.SerializationError("toml", err.Error())
	}
	if err := inst.Configure(doc); err != nil {
		return Address{}, kerr.LoadPluginError(err.Error())
	}

	put := s.Put(inst)
	for k, v := range labels {
		put = put.Label(k, v)
	}
	return put.Commit()
}

// LoadByArgs constructs a P and, if it implements ArgConfigurable,
// applies args to it before registering. A plugin that only ever loads
// from TOML and never from command-line arguments can skip implementing
// ArgConfigurable; LoadByArgs then just registers the zero-configured P.
func LoadByArgs[P Plugin](s *Store, args ArgMatches) (Address, error) {
	inst := newZero[P]()

	if ac, ok := any(inst).(ArgConfigurable); ok {
		if err := ac.ConfigureFromArgs(args); err != nil {
			return Address{}, kerr.LoadPluginError(err.Error())
		}
	}
	return s.Load(inst)
}

// newZero constructs a new, zeroed P. P is expected to be a pointer type
// (e.g. *EchoPlugin); newZero allocates the pointed-to struct and
// returns a pointer to it.
func newZero[P Plugin]() P {
	var zero P
	t := reflect.TypeOf(zero)
	if t == nil || t.Kind() != reflect.Ptr {
		// P is not a pointer type (unusual, but not invalid per the
		// Plugin interface itself); return the zero value as-is.
		return zero
	}
	return reflect.New(t.Elem()).Interface().(P)
}
