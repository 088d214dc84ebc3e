package native

import "os"

// Info describes the loader setup for diagnostics.
func (l *Loader) Info() map[string]interface{} {
	info := make(map[string]interface{})

	info["platform"] = l.platform.String()
	info["prefix"] = FilePrefix(l.platform)
	if ext, err := FileExtension(l.platform); err == nil {
		info["extension"] = ext
	}
	if rid, err := RuntimeIdentifier(l.platform, l.is64Bit); err == nil {
		info["runtime_identifier"] = rid
	} else {
		info["runtime_identifier_error"] = err.Error()
	}
	if dirs, err := l.SearchDirectories(); err == nil {
		info["search_directories"] = dirs
	}
	info["extra_directories"] = l.config.ExtraDirectories
	info["libraries"] = l.config.Libraries
	info["system_fallback"] = l.config.systemFallbackEnabled()

	env := make(map[string]string)
	for _, key := range []string{EnvLibraryPath, EnvSystemFallback} {
		if v := os.Getenv(key); v != "" {
			env[key] = v
		}
	}
	info["environment"] = env

	return info
}
