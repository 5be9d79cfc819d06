package main

import (
	"arc/internal/cache"
	"arc/internal/config"
	"arc/internal/edit"
	"arc/internal/logging"
	"arc/internal/pathguard"
	"arc/internal/tools"
)

// buildRegistry wires the tool set every arc process exposes: a cached
// file_read and the multi_edit transaction engine, both confined to root.
// The cache handle is created here and injected; tools never own global state.
func buildRegistry(root string, cfg config.RuntimeConfig, logger logging.Logger) (tools.Registry, error) {
	guard, err := pathguard.New(root)
	if err != nil {
		return nil, err
	}
	tx, err := edit.NewTransaction(root, logger)
	if err != nil {
		return nil, err
	}

	store := cache.NewLRU(cfg.CacheSize, cfg.CacheTTL)
	registry := tools.NewRegistry()
	if err := registry.Register(tools.NewCacheExecutor(tools.NewFileRead(guard), store, nil)); err != nil {
		return nil, err
	}
	if err := registry.Register(tools.NewMultiEdit(tx)); err != nil {
		return nil, err
	}
	return registry, nil
}
