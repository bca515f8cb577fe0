package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// BuildInfo is the compiler part of a Hardhat build-info file.
type BuildInfo struct {
	SolcVersion string `json:"solcVersion"`
	Input       struct {
		Settings struct {
			Optimizer struct {
				Enabled bool `json:"enabled"`
				Runs    int  `json:"runs"`
			} `json:"optimizer"`
		} `json:"settings"`
	} `json:"input"`

	Path string `json:"-"`
}

// LoadBuildInfos reads every <artifactsDir>/build-info/*.json. A missing
// directory yields no build infos.
func LoadBuildInfos(artifactsDir string) ([]*BuildInfo, error) {
	paths, err := filepath.Glob(filepath.Join(artifactsDir, "build-info", "*.json"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	infos := make([]*BuildInfo, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read build info: %w", err)
		}
		var info BuildInfo
		if err := json.Unmarshal(data, &info); err != nil {
			return nil, fmt.Errorf("failed to parse build info %s: %w", path, err)
		}
		info.Path = path
		infos = append(infos, &info)
	}
	return infos, nil
}

// Mismatches lists the settings in which b differs from s.
func (s SolidityConfig) Mismatches(b *BuildInfo) []string {
	var out []string
	name := filepath.Base(b.Path)
	if s.Version != "" && strings.TrimPrefix(b.SolcVersion, "v") != s.Version {
		out = append(out, fmt.Sprintf("%s: solc %s, configured %s", name, b.SolcVersion, s.Version))
	}
	opt := b.Input.Settings.Optimizer
	if opt.Enabled != s.Optimizer.Enabled {
		out = append(out, fmt.Sprintf("%s: optimizer enabled=%t, configured %t", name, opt.Enabled, s.Optimizer.Enabled))
	}
	if opt.Enabled && s.Optimizer.Enabled && opt.Runs != s.Optimizer.Runs {
		out = append(out, fmt.Sprintf("%s: optimizer runs %d, configured %d", name, opt.Runs, s.Optimizer.Runs))
	}
	return out
}

// CheckBuildInfo compares every build-info file under artifactsDir with s.
func CheckBuildInfo(artifactsDir string, s SolidityConfig) ([]string, error) {
	infos, err := LoadBuildInfos(artifactsDir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, info := range infos {
		out = append(out, s.Mismatches(info)...)
	}
	return out, nil
}
