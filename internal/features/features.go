// Package features is the feature-flag registry. A flag resolves from an
// environment override, then a runtime toggle, then the config file, then
// its default.
package features

import (
	"os"
	"sort"
	"strings"
	"sync"
	"unicode"
)

// Feature describes a named feature flag.
type Feature struct {
	Name        string
	Default     bool
	Description string
}

var (
	// CloudSync gates every remote operation of the local-first data layer.
	CloudSync = Feature{
		Name:        "cloud_sync",
		Default:     false,
		Description: "Reconcile local records with the hosted backend",
	}

	// BackgroundSync gates the timer/reconnect/post-mutation reconciliation loop.
	BackgroundSync = Feature{
		Name:        "background_sync",
		Default:     true,
		Description: "Run reconciliation automatically in the background",
	}
)

var allFeatures = []Feature{
	BackgroundSync,
	CloudSync,
}

var defaultValues = buildDefaultMap()

func buildDefaultMap() map[string]bool {
	values := make(map[string]bool, len(allFeatures))
	for _, feature := range allFeatures {
		values[feature.Name] = feature.Default
	}
	return values
}

// Source names where a resolved value came from.
const (
	SourceEnv     = "env"
	SourceRuntime = "runtime"
	SourceConfig  = "config"
	SourceDefault = "default"
)

// ListAll returns all known features sorted by name.
func ListAll() []Feature {
	items := make([]Feature, len(allFeatures))
	copy(items, allFeatures)
	sort.Slice(items, func(i, j int) bool {
		return items[i].Name < items[j].Name
	})
	return items
}

// IsKnownFeature returns true when the feature exists in the registry.
func IsKnownFeature(name string) bool {
	_, ok := defaultValues[normalizeName(name)]
	return ok
}

// Flags resolves feature values for one process. It is safe for concurrent use.
type Flags struct {
	mu      sync.RWMutex
	config  map[string]bool
	runtime map[string]bool
	getenv  func(string) string
}

// New builds a resolver over the feature_flags section of the config file.
func New(config map[string]bool) *Flags {
	normalized := make(map[string]bool, len(config))
	for k, v := range config {
		normalized[normalizeName(k)] = v
	}
	return &Flags{
		config:  normalized,
		runtime: map[string]bool{},
		getenv:  os.Getenv,
	}
}

// IsEnabled reports the resolved state of the named feature.
func (f *Flags) IsEnabled(name string) bool {
	enabled, _ := f.Resolve(name)
	return enabled
}

// Resolve returns the feature state and its source.
func (f *Flags) Resolve(name string) (bool, string) {
	canonical := normalizeName(name)

	if enabled, ok := f.resolveEnvOverride(canonical); ok {
		return enabled, SourceEnv
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if enabled, ok := f.runtime[canonical]; ok {
		return enabled, SourceRuntime
	}
	if enabled, ok := f.config[canonical]; ok {
		return enabled, SourceConfig
	}
	return getDefault(canonical), SourceDefault
}

// Set toggles a feature for the lifetime of the process. Environment
// overrides still take precedence.
func (f *Flags) Set(name string, enabled bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runtime[normalizeName(name)] = enabled
}

// Unset drops a runtime toggle.
func (f *Flags) Unset(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.runtime, normalizeName(name))
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func getDefault(name string) bool {
	if enabled, ok := defaultValues[name]; ok {
		return enabled
	}
	return false
}

func (f *Flags) resolveEnvOverride(name string) (bool, bool) {
	if disabled, ok := parseBool(f.getenv("BIZKEEPER_DISABLE_EXPERIMENTAL")); ok && disabled {
		return false, true
	}

	if enabled, ok := parseBool(f.getenv("BIZKEEPER_FEATURE_" + normalizeForEnvKey(name))); ok {
		return enabled, true
	}

	if containsFeatureName(f.getenv("BIZKEEPER_DISABLE_FEATURES"), name) {
		return false, true
	}
	if containsFeatureName(f.getenv("BIZKEEPER_ENABLE_FEATURES"), name) {
		return true, true
	}

	return false, false
}

func normalizeForEnvKey(name string) string {
	upper := strings.ToUpper(strings.TrimSpace(name))
	var b strings.Builder
	for _, r := range upper {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		b.WriteByte('_')
	}
	return b.String()
}

// ParseBool accepts the usual on/off spellings used by env vars and the CLI.
func ParseBool(raw string) (bool, bool) {
	return parseBool(raw)
}

func parseBool(raw string) (bool, bool) {
	switch strings.TrimSpace(strings.ToLower(raw)) {
	case "1", "true", "on", "yes":
		return true, true
	case "0", "false", "off", "no":
		return false, true
	default:
		return false, false
	}
}

func containsFeatureName(raw, target string) bool {
	if raw == "" {
		return false
	}
	target = normalizeName(target)
	for _, item := range strings.Split(raw, ",") {
		if normalizeName(item) == target {
			return true
		}
	}
	return false
}
