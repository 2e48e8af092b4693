package config

const defaultRoot = "/usr/local/var/lexicon"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = defaultRoot + "/data/db/lexicon.db"
	}
	if cfg.Storage.AutocompleteIndexPath == "" {
		cfg.Storage.AutocompleteIndexPath = defaultRoot + "/data/indices/autocomplete"
	}
	if cfg.Content.Directory == "" {
		cfg.Content.Directory = defaultRoot + "/content"
	}
	if cfg.Content.Watch == nil {
		t := true
		cfg.Content.Watch = &t
	}
	if cfg.Content.WatchDebounceMS == 0 {
		cfg.Content.WatchDebounceMS = 400
	}
	if cfg.Ingest.Concurrency == 0 {
		cfg.Ingest.Concurrency = 2
	}
	if cfg.Ingest.RebuildDelayMS == 0 {
		cfg.Ingest.RebuildDelayMS = 2000
	}
	if cfg.Search.LookupLimit == 0 {
		cfg.Search.LookupLimit = 10
	}
	if cfg.Search.MaxLookupLimit == 0 {
		cfg.Search.MaxLookupLimit = 100
	}
}
