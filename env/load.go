package env

import (
	"bytes"
	"fmt"
	"hash/crc64"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/BurntSushi/toml"
	"golang.org/x/sync/errgroup"

	"github.com/streamspace-dev/kioto"
	"github.com/streamspace-dev/kioto/kerr"
	"github.com/streamspace-dev/kioto/klog"
)

var crcTable = crc64.MakeTable(crc64.ISO)

// Load implements spec.md §4.8's Loader algorithm: read
// root/label/config.toml, then for every plugins/handlers entry resolve
// its source file, synthesize a `-kt-loader` metadata table into the
// document, and hand the result to the matching loader in loaders.
func Load(root, label string, loaders *LoaderTable, opts ...kioto.StoreOption) (*Env, error) {
	configPath := filepath.Join(root, label, "config.toml")
	raw, err := os.ReadFile(configPath)
	if err != nil {
		return nil, kerr.IOError(err.Error())
	}

	var cfg EngineConfig
	if _, err := toml.Decode(string(raw), &cfg); err != nil {
		return nil, kerr.SerializationError("toml", err.Error())
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		absRoot = root
	}

	e := newEnv(label, root, loaders, kioto.NewStore(opts...))

	// Each file's read/parse/loader-dispatch is independent of every
	// other, so they fan out across a bounded pool rather than running
	// one at a time; the Store's own locking makes concurrent
	// registration safe. The errgroup's SetLimit caps how many files are
	// open and being parsed at once, the same concern Runtime.Spawn's
	// semaphore addresses for Work.
	g := new(errgroup.Group)
	g.SetLimit(runtime.NumCPU())
	var mu sync.Mutex

	for eventName, pc := range cfg.Plugins {
		eventName, pc := eventName, pc
		g.Go(func() error {
			addr, err := loadOne(e, absRoot, label, eventName, pc, loaders)
			if err != nil {
				return err
			}
			mu.Lock()
			e.Plugins[eventName] = addr
			mu.Unlock()
			return nil
		})
	}
	for eventName, pc := range cfg.Handlers {
		eventName, pc := eventName, pc
		g.Go(func() error {
			addr, err := loadOne(e, absRoot, label, eventName, pc, loaders)
			if err != nil {
				return err
			}
			mu.Lock()
			e.Handlers[eventName] = addr
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	klog.Env().Info().Str("label", label).Int("plugins", len(e.Plugins)).Int("handlers", len(e.Handlers)).Msg("environment loaded")
	return e, nil
}

func loadOne(e *Env, absRoot, label, eventName string, pc PluginConfig, loaders *LoaderTable) (kioto.Address, error) {
	name, err := kioto.ParseName(pc.Plugin)
	if err != nil {
		return kioto.Address{}, err
	}

	srcPath := pc.Load.path(e.Root, label, name, eventName)

	raw, err := os.ReadFile(srcPath)
	if err != nil {
		return kioto.Address{}, kerr.IOError(err.Error())
	}

	var doc map[string]any
	if _, err := toml.Decode(string(raw), &doc); err != nil {
		return kioto.Address{}, kerr.SerializationError("toml", err.Error())
	}

	absSrc, err := filepath.Abs(srcPath)
	if err != nil {
		absSrc = srcPath
	}
	meta := LoaderMetadata{
		Env:     label,
		Root:    absRoot,
		Src:     absSrc,
		SrcSize: int64(len(raw)),
		Event:   eventName,
		CRCMs:   fmt.Sprintf("%x", crc64.Checksum(raw, crcTable)),
	}
	doc["-kt-loader"] = meta.toDoc()

	buf, err := encodeDoc(doc)
	if err != nil {
		return kioto.Address{}, kerr.SerializationError("toml", err.Error())
	}

	loader, ok := loaders.Lookup(name.FullRef())
	if !ok {
		loader, ok = loaders.Lookup(name.ShortRef())
	}
	if !ok {
		return kioto.Address{}, kerr.LoadPluginError("no loader registered for " + pc.Plugin)
	}

	return loader(e.Store, string(buf), pc.Labels)
}

// path resolves a PluginConfig's source file: an explicit load.path if
// given, else the canonical etc/<package>/<version>/<module>/<plugin>/<event>.toml
// location the Builder wrote it to.
func (l *LoadSpec) path(root, label string, name kioto.Name, eventName string) string {
	if l != nil && l.Path != "" {
		return l.Path
	}
	return filepath.Join(root, label, "etc", name.Package, name.Version.String(), name.Module, name.Plugin, eventName+".toml")
}

func encodeDoc(doc map[string]any) ([]byte, error) {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
