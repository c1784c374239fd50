package platform

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/quicknote/pkg/adapters/fs"
	"github.com/aretw0/quicknote/pkg/adapters/memory"
	"github.com/aretw0/quicknote/pkg/adapters/sqlite"
	"github.com/aretw0/quicknote/pkg/core"
)

// DatabaseFile is the SQLite file created inside the data directory.
const DatabaseFile = "quicknote.db"

// New opens the notebook at uri and loads its notes.
// The uri is adapter-specific: a directory for "fs", a directory or a .db
// file for "sqlite", ignored for "memory".
//
//	svc, err := quicknote.New("./.quicknote", quicknote.WithAdapter("sqlite"))
func New(uri string, opts ...Option) (*core.Service, error) {
	o := applyOptions(opts)

	store, err := initStorage(uri, o)
	if err != nil {
		return nil, err
	}

	svc := core.NewService(store, core.Config{
		Logger:        o.logger,
		Clock:         o.clock,
		IDs:           o.ids,
		AutosaveDelay: o.autosaveDelay,
		ErrorHandler:  o.errorHandler,
		EventBuffer:   o.eventBuffer,
	})
	if err := svc.Load(context.Background()); err != nil {
		svc.Close()
		return nil, err
	}
	return svc, nil
}

// Init creates and initializes the storage for uri without loading notes.
func Init(uri string, opts ...Option) (core.Storage, error) {
	return initStorage(uri, applyOptions(opts))
}

func initStorage(uri string, o *options) (core.Storage, error) {
	if o.storage != nil {
		if err := o.storage.Initialize(context.Background()); err != nil {
			return nil, err
		}
		return o.storage, nil
	}

	var (
		store core.Storage
		err   error
	)
	switch o.adapter {
	case AdapterFS, "":
		store = fs.NewStore(fs.Config{
			Path:         resolvePath(uri, o),
			MustExist:    o.mustExist,
			ReadOnly:     o.readOnly,
			Logger:       o.logger,
			ErrorHandler: o.errorHandler,
		})
	case AdapterSQLite:
		path := resolvePath(uri, o)
		if !strings.HasSuffix(path, ".db") {
			path = filepath.Join(path, DatabaseFile)
		}
		if err := ensureDir(filepath.Dir(path), o); err != nil {
			return nil, err
		}
		store, err = sqlite.Open(sqlite.Config{Path: path, ReadOnly: o.readOnly, Logger: o.logger})
	case AdapterMemory:
		store = memory.NewStore()
	default:
		return nil, fmt.Errorf("unknown adapter: %s", o.adapter)
	}
	if err != nil {
		return nil, err
	}

	if err := store.Initialize(context.Background()); err != nil {
		return nil, err
	}
	return store, nil
}

// resolvePath applies the dev sandbox rules to uri.
func resolvePath(uri string, o *options) string {
	sandbox := o.forceTemp || (o.devSafety && !o.readOnly && IsDevRun())
	path := ResolveDataPath(uri, sandbox)
	if sandbox && o.logger != nil {
		o.logger.Warn("running in SAFE MODE (dev sandbox)", "original_path", uri, "resolved_path", path)
	}
	return path
}

// ensureDir prepares the directory holding a database file.
func ensureDir(dir string, o *options) error {
	if o.readOnly || o.mustExist {
		if _, err := os.Stat(dir); err != nil {
			return fmt.Errorf("data path does not exist: %s", dir)
		}
		return nil
	}
	return os.MkdirAll(dir, 0755)
}
