package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// TrustedHosts is the allowlist of domains a curated resource may link to. Hosts match
// exactly or as a parent domain ("youtube.com" admits "www.youtube.com"); suffixes match
// the end of the registrable domain (".edu").
type TrustedHosts struct {
	Hosts    []string `yaml:"hosts"`
	Suffixes []string `yaml:"suffixes"`
}

// DefaultTrustedHosts returns the built-in allowlist of educational and video platforms.
func DefaultTrustedHosts() TrustedHosts {
	return TrustedHosts{
		Hosts: []string{
			"ocw.mit.edu",
			"khanacademy.org",
			"youtube.com",
			"youtu.be",
			"openstax.org",
			"coursera.org",
			"edx.org",
			"wikipedia.org",
			"3blue1brown.com",
			"libretexts.org",
			"brilliant.org",
			"mathworld.wolfram.com",
			"nptel.ac.in",
		},
		Suffixes: []string{".edu", ".ac.uk"},
	}
}

// LoadTrustedHosts reads a YAML allowlist from path. An empty path yields the defaults;
// a file that lists nothing also falls back to them.
func LoadTrustedHosts(path string) (TrustedHosts, error) {
	if path == "" {
		return DefaultTrustedHosts(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return TrustedHosts{}, fmt.Errorf("read trusted hosts %s: %w", path, err)
	}

	var fileCfg TrustedHosts
	if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
		return TrustedHosts{}, fmt.Errorf("parse trusted hosts %s: %w", path, err)
	}

	fileCfg = fileCfg.normalized()
	if len(fileCfg.Hosts) == 0 && len(fileCfg.Suffixes) == 0 {
		return DefaultTrustedHosts(), nil
	}
	return fileCfg, nil
}

func (t TrustedHosts) normalized() TrustedHosts {
	clean := func(values []string, dotted bool) []string {
		out := make([]string, 0, len(values))
		for _, v := range values {
			v = strings.ToLower(strings.TrimSpace(v))
			v = strings.TrimSuffix(v, ".")
			if v == "" {
				continue
			}
			if dotted && !strings.HasPrefix(v, ".") {
				v = "." + v
			}
			out = append(out, v)
		}
		return out
	}
	return TrustedHosts{Hosts: clean(t.Hosts, false), Suffixes: clean(t.Suffixes, true)}
}
