package cache

import "log"

// Persistent keys shared with the favorites/settings stores and the
// presentation layer. The preserve set below is what survives a soft clear.
const (
	KeyFavorites            = "tartu_bus_favorites"
	KeySettings             = "tartu-bus-settings"
	KeyLanguage             = "language"
	KeyDarkMode             = "darkMode"
	KeyBuildHash            = "app_build_hash"
	KeySoftClearVersion     = "cache_soft_clear_version"
	KeyFullClearVersion     = "cache_full_clear_version"
	KeyLocationModalSeen    = "location_modal_seen"
	KeyInstallPromptDismiss = "install_prompt_dismissed"

	// FullClearNever disables the full-clear escape hatch.
	FullClearNever = "never"
)

var preserveKeys = []string{
	KeyFavorites,
	KeySettings,
	KeyLanguage,
	KeyDarkMode,
	KeyBuildHash,
	KeySoftClearVersion,
	KeyFullClearVersion,
}

// Maintain runs the startup migration sequence:
//
//  1. a full-clear version bump wipes the whole store, keeping only the
//     version markers and the build hash (the escape hatch for
//     shape-incompatible migrations);
//  2. otherwise a soft-clear version bump wipes the store but restores
//     user-authored keys (favorites, settings, theme, language);
//  3. regardless, all transient stops_/route_ entries are dropped and the
//     stops class is bounded by EvictExpired.
func (c *Cache) Maintain(softVersion, fullVersion string) {
	storedFull, _ := c.store.Get(KeyFullClearVersion)
	if fullVersion != FullClearNever && string(storedFull) != fullVersion {
		c.fullClear(softVersion, fullVersion)
		return
	}

	storedSoft, _ := c.store.Get(KeySoftClearVersion)
	if string(storedSoft) != softVersion {
		c.softClear(softVersion)
	}

	c.DropTransient()
	c.EvictExpired()
}

func (c *Cache) fullClear(softVersion, fullVersion string) {
	buildHash, hadHash := c.store.Get(KeyBuildHash)

	c.wipe()

	if hadHash {
		c.mustSet(KeyBuildHash, buildHash)
	}
	c.mustSet(KeySoftClearVersion, []byte(softVersion))
	c.mustSet(KeyFullClearVersion, []byte(fullVersion))
	log.Printf("cache: full clear, version %s", fullVersion)
}

func (c *Cache) softClear(softVersion string) {
	preserved := map[string][]byte{}
	for _, key := range preserveKeys {
		if v, ok := c.store.Get(key); ok {
			preserved[key] = v
		}
	}

	c.wipe()

	for key, v := range preserved {
		c.mustSet(key, v)
	}
	c.mustSet(KeySoftClearVersion, []byte(softVersion))
	log.Printf("cache: soft clear, version %s", softVersion)
}

func (c *Cache) wipe() {
	for _, key := range c.store.Keys() {
		c.store.Delete(key)
	}
	c.mem.Purge()
}

// mustSet writes raw bytes past the entry envelope: version markers and
// preserved values are stored verbatim.
func (c *Cache) mustSet(key string, v []byte) {
	if err := c.store.Set(key, v); err != nil {
		log.Printf("cache: restore %s: %v", key, err)
	}
}
