// Package models holds the small pieces of ambient state (prefs, register
// diffing, cross-engine gating) shared by the rest of the glue layer.
package models

import (
	"bufio"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/shibukawa/configdir"
)

// Prefs is a minimal boolean preference store, standing in for the
// surrounding emulator's own preferences file. This layer only ever reads
// two keys from it: "jit" and "ignoresegv" (the only PrefsFindBool call
// site is in package fault, for "ignoresegv").
type Prefs struct {
	dir   *configdir.Config
	bools map[string]bool
}

const (
	vendorName = "macemu"
	appName    = "ppcglue"
	prefsFile  = "prefs"
)

// LoadPrefs reads boolean preferences from the user's config directory. A
// missing file is not an error; every key defaults to false until set.
func LoadPrefs() (*Prefs, error) {
	dirs := configdir.New(vendorName, appName)
	folder := dirs.QueryFolderContainsFile(prefsFile)
	p := &Prefs{bools: make(map[string]bool)}
	if folder == nil {
		p.dir = dirs.QueryFolders(configdir.Global)[0]
		return p, nil
	}
	p.dir = folder
	data, err := folder.ReadFile(prefsFile)
	if err != nil {
		return nil, errors.Wrap(err, "LoadPrefs: reading prefs file")
	}
	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		kv := strings.SplitN(line, "=", 2)
		if len(kv) != 2 {
			continue
		}
		v, err := strconv.ParseBool(strings.TrimSpace(kv[1]))
		if err != nil {
			continue
		}
		p.bools[strings.TrimSpace(kv[0])] = v
	}
	return p, nil
}

// PrefsFindBool returns the named boolean preference, defaulting to false
// when unset.
func (p *Prefs) PrefsFindBool(name string) bool {
	return p.bools[name]
}

// SetBool overrides a preference for the lifetime of the process; it does
// not persist to disk. cmd/ppcglue sets both keys from its flags this way
// on a Prefs it builds directly; it does not call LoadPrefs, so no on-disk
// prefs are read there.
func (p *Prefs) SetBool(name string, v bool) {
	if p.bools == nil {
		p.bools = make(map[string]bool)
	}
	p.bools[name] = v
}

// jit and ignoresegv are the only two preference keys this layer consumes.
const (
	PrefJIT        = "jit"
	PrefIgnoreSEGV = "ignoresegv"
)
