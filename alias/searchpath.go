package alias

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-ini/ini"
	"github.com/hupe1980/blastdb/blobstore"
)

// EnvVar names the environment variable holding database directories.
const EnvVar = "BLASTDB"

// ConfigFileName is the name of the fallback configuration file.
const ConfigFileName = ".ncbirc"

// SearchPath is an ordered list of directories probed for bare database
// names.
type SearchPath []string

// DefaultSearchPath returns the current directory, then the directories in
// $BLASTDB, then the BLASTDB entry of the [BLAST] section in configFile. An
// empty configFile selects the first .ncbirc found by FindConfig.
func DefaultSearchPath(configFile string) (SearchPath, error) {
	path := SearchPath{"."}
	path = append(path, filepath.SplitList(os.Getenv(EnvVar))...)

	if configFile == "" {
		configFile = FindConfig()
	}
	if configFile != "" {
		dirs, err := LoadConfig(configFile)
		if err != nil {
			return nil, err
		}
		path = append(path, dirs...)
	}
	return path.compact(), nil
}

// FindConfig returns the first existing .ncbirc in $NCBI, the home
// directory and the current directory, or "".
func FindConfig() string {
	var dirs []string
	if d := os.Getenv("NCBI"); d != "" {
		dirs = append(dirs, d)
	}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, home)
	}
	dirs = append(dirs, ".")
	for _, d := range dirs {
		p := filepath.Join(d, ConfigFileName)
		if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
			return p
		}
	}
	return ""
}

// LoadConfig reads the database directories from an INI file.
func LoadConfig(path string) ([]string, error) {
	cfg, err := ini.LoadSources(ini.LoadOptions{Insensitive: true}, path)
	if err != nil {
		return nil, err
	}
	v := cfg.Section("BLAST").Key("BLASTDB").String()
	var dirs []string
	for _, d := range filepath.SplitList(v) {
		if d = strings.TrimSpace(d); d != "" {
			dirs = append(dirs, d)
		}
	}
	return dirs, nil
}

func (p SearchPath) compact() SearchPath {
	seen := make(map[string]bool, len(p))
	out := p[:0]
	for _, d := range p {
		if d == "" || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	return out
}

// Candidates returns the base paths to probe for name. Absolute names are
// used as-is. Relative names are tried in dir (the directory of the
// referencing alias file, if any) and then along the search path.
func (p SearchPath) Candidates(name, dir string) []string {
	if filepath.IsAbs(name) {
		return []string{name}
	}
	var out []string
	seen := map[string]bool{}
	add := func(c string) {
		c = filepath.Clean(c)
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	if dir != "" {
		add(filepath.Join(dir, name))
	}
	for _, d := range p {
		add(filepath.Join(d, name))
	}
	if len(out) == 0 {
		add(name)
	}
	return out
}

// resolveFile finds a companion file referenced from an alias file.
func resolveFile(ctx context.Context, store blobstore.BlobStore, name, dir string) (string, bool) {
	p := name
	if !filepath.IsAbs(name) && dir != "" {
		p = filepath.Join(dir, name)
	}
	return p, blobstore.Exists(ctx, store, p)
}
