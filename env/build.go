package env

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/streamspace-dev/kioto"
	"github.com/streamspace-dev/kioto/kerr"
	"github.com/streamspace-dev/kioto/klog"
)

type copyTask struct {
	srcPath string
	name    kioto.Name
	event   string
}

// Build implements spec.md §4.8's Builder algorithm: it scans every
// *.toml file directly under sourceRoot/label/ for a `-kt-build` table,
// assembles an EngineConfig from what it finds, writes
// targetRoot/label/config.toml, and copies each source file to its
// canonical targetRoot/label/etc/<package>/<version>/<module>/<plugin>/<event>.toml
// location.
//
// A file missing `-kt-build` is silently skipped, per spec.md §7's
// recoverable-locally policy. If no file in the directory carries a
// valid `-kt-build` table, Build fails with KindIOError (the original's
// io::ErrorKind::InvalidData has no exact analogue in this runtime's
// closed Kind enum; see DESIGN.md).
func Build(sourceRoot, targetRoot, label string) error {
	dir := filepath.Join(sourceRoot, label)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return kerr.IOError(err.Error())
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".toml") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	cfg := newEngineConfig()
	var tasks []copyTask

	for _, fname := range names {
		path := filepath.Join(dir, fname)
		raw, err := os.ReadFile(path)
		if err != nil {
			return kerr.IOError(err.Error())
		}
		text := string(raw)

		var bf buildFile
		if _, err := toml.Decode(text, &bf); err != nil || bf.KtBuild == nil {
			klog.Env().Debug().Str("file", path).Msg("no -kt-build table, skipping")
			continue
		}

		name, err := kioto.ParseName(bf.KtBuild.Plugin)
		if err != nil {
			klog.Env().Warn().Str("file", path).Str("plugin", bf.KtBuild.Plugin).Msg("unparseable plugin name, skipping")
			continue
		}

		if len(bf.KtBuild.Templates) > 0 {
			var whole map[string]any
			if _, err := toml.Decode(text, &whole); err != nil {
				return kerr.SerializationError("toml", err.Error())
			}
			templates, err := normalizeTemplates(bf.KtBuild.Templates)
			if err != nil {
				return err
			}
			for field, declared := range templates {
				if value, ok := whole[field].(string); ok {
					if err := validateField(field, value, declared); err != nil {
						return err
					}
				}
			}
		}

		eventName := strings.TrimSuffix(fname, ".toml")
		pc := PluginConfig{Plugin: bf.KtBuild.Plugin, Load: bf.KtBuild.Load, Labels: bf.KtBuild.Labels}

		if bf.KtBuild.Handler != nil {
			cfg.Handlers[eventName] = pc
		} else {
			cfg.Plugins[eventName] = pc
		}

		tasks = append(tasks, copyTask{srcPath: path, name: name, event: eventName})
	}

	if len(tasks) == 0 {
		return kerr.IOError("No valid files were found")
	}

	labelDir := filepath.Join(targetRoot, label)
	if err := os.MkdirAll(labelDir, 0o755); err != nil {
		return kerr.IOError(err.Error())
	}

	configPath := filepath.Join(labelDir, "config.toml")
	f, err := os.Create(configPath)
	if err != nil {
		return kerr.IOError(err.Error())
	}
	enc := toml.NewEncoder(f)
	encErr := enc.Encode(cfg)
	closeErr := f.Close()
	if encErr != nil {
		return kerr.SerializationError("toml", encErr.Error())
	}
	if closeErr != nil {
		return kerr.IOError(closeErr.Error())
	}

	for _, t := range tasks {
		destDir := filepath.Join(labelDir, "etc", t.name.Package, t.name.Version.String(), t.name.Module, t.name.Plugin)
		if err := os.MkdirAll(destDir, 0o755); err != nil {
			return kerr.IOError(err.Error())
		}
		destPath := filepath.Join(destDir, t.event+".toml")
		contents, err := os.ReadFile(t.srcPath)
		if err != nil {
			return kerr.IOError(err.Error())
		}
		if err := os.WriteFile(destPath, contents, 0o644); err != nil {
			return kerr.IOError(err.Error())
		}
	}

	klog.Env().Info().Str("label", label).Int("plugins", len(cfg.Plugins)).Int("handlers", len(cfg.Handlers)).Msg("environment built")
	return nil
}
