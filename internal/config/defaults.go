package config

const (
	defaultTablesDir          = "~/vpinball/tables"
	defaultVPinMAMEDir        = "~/vpinball/VPinMAME"
	defaultPuPVideosDir       = "~/vpinball/PUPVideos"
	defaultMusicDir           = "~/vpinball/Music"
	defaultMatchThreshold     = 0.5
	defaultMinReferenceKeyLen = 3
	defaultFeedURL            = "https://virtualpinballspreadsheet.github.io/vps-db/db/vpsdb.json"
	defaultFeedMaxAgeHours    = 24
	defaultRequestTimeout     = 30
	defaultPatchRepository    = "jsm174/vpx-standalone-scripts"
	defaultPatchRef           = "master"
	defaultGitHubAPIURL       = "https://api.github.com/"
	defaultListingCacheSize   = 256
	defaultAuditWorkers       = 4
	defaultSampleWindow       = 256
	defaultMinPrintableRatio  = 0.95
	defaultConstPath          = "./"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	maxAuditWorkers           = 64
)

var (
	defaultExtensions    = []string{".vpx", ".vpt"}
	defaultScriptMarkers = []string{"Option Explicit", "Option", "Const"}
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			TablesDir:    defaultTablesDir,
			VPinMAMEDir:  defaultVPinMAMEDir,
			PuPVideosDir: defaultPuPVideosDir,
			MusicDir:     defaultMusicDir,
		},
		Matching: Matching{
			Threshold:          defaultMatchThreshold,
			MinReferenceKeyLen: defaultMinReferenceKeyLen,
		},
		Metadata: Metadata{
			Enabled:        true,
			FeedURL:        defaultFeedURL,
			MaxAgeHours:    defaultFeedMaxAgeHours,
			RequestTimeout: defaultRequestTimeout,
		},
		Patches: Patches{
			Enabled:          true,
			Repository:       defaultPatchRepository,
			Ref:              defaultPatchRef,
			APIURL:           defaultGitHubAPIURL,
			ListingCacheSize: defaultListingCacheSize,
			RequestTimeout:   defaultRequestTimeout,
		},
		Cache: Cache{
			Dir: defaultCacheDir(),
		},
		Audit: Audit{
			Workers:           defaultAuditWorkers,
			Extensions:        append([]string(nil), defaultExtensions...),
			ScriptMarkers:     append([]string(nil), defaultScriptMarkers...),
			SampleWindow:      defaultSampleWindow,
			MinPrintableRatio: defaultMinPrintableRatio,
			AutofixPreview:    true,
		},
		Export: Export{
			Autofix:   false,
			ConstPath: defaultConstPath,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
