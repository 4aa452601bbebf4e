package catalog

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Policy extends the built-in catalog from a YAML file. The allow-list
// suffix heuristic in particular is deliberately not a fixed security
// boundary; deployments tune it here.
type Policy struct {
	AllowPaths     []string `yaml:"allow_paths"`
	BlockedDeps    []string `yaml:"blocked_dependencies"`
	TrustedDomains []string `yaml:"trusted_domains"`
	IgnorePatterns []string `yaml:"ignore_patterns"`
}

// Load reads a policy file and returns the default catalog extended with
// its entries, plus the scan-ignore patterns for the file walker. A
// missing path returns the defaults unchanged.
func Load(path string) (*Catalog, []string, error) {
	c := Default()
	if path == "" {
		return c, nil, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil, nil
		}
		return nil, nil, fmt.Errorf("read policy: %w", err)
	}
	var p Policy
	if err := yaml.Unmarshal(b, &p); err != nil {
		return nil, nil, fmt.Errorf("parse policy: %w", err)
	}
	for _, pat := range p.AllowPaths {
		re, err := regexp.Compile(pat)
		if err != nil {
			return nil, nil, fmt.Errorf("policy allow_paths %q: %w", pat, err)
		}
		c.AllowList = append(c.AllowList, re)
	}
	for _, dep := range p.BlockedDeps {
		c.BlockedDeps[dep] = struct{}{}
	}
	c.TrustedDomains = append(c.TrustedDomains, p.TrustedDomains...)
	return c, p.IgnorePatterns, nil
}
