// Package quicknote is the composition root for QuickNote.
//
// It connects the note repository, query engine and autosave coordinator in
// pkg/core with a storage adapter (filesystem, SQLite or memory) using the
// hexagonal layout of the module: the core only knows the core.Storage
// contract, adapters live in pkg/adapters.
//
// Usage:
//
//	svc, err := quicknote.New("./.quicknote",
//		quicknote.WithLogger(logger),
//		quicknote.WithAutosaveDelay(2*time.Second),
//	)
//	if err != nil {
//		return err
//	}
//	defer svc.Close()
//
//	id, _ := svc.Create(ctx)
//	err = svc.Save(ctx, id, "Shopping", "milk, eggs")
//
// Import and export live in pkg/exchange.
package quicknote
