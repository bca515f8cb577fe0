package config

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Artifact is the subset of a Hardhat compilation artifact flowctl needs.
type Artifact struct {
	ContractName string          `json:"contractName"`
	SourceName   string          `json:"sourceName"`
	RawABI       json.RawMessage `json:"abi"`
	Bytecode     string          `json:"bytecode"`

	ABI  abi.ABI `json:"-"`
	Path string  `json:"-"`
}

// Code returns the decoded creation bytecode.
func (a *Artifact) Code() ([]byte, error) {
	code := strings.TrimPrefix(a.Bytecode, "0x")
	if code == "" {
		return nil, fmt.Errorf("artifact %s has no bytecode (abstract contract or interface?)", a.ContractName)
	}
	b, err := hex.DecodeString(code)
	if err != nil {
		return nil, fmt.Errorf("failed to decode bytecode of %s: %w", a.ContractName, err)
	}
	return b, nil
}

// FindArtifact locates <name>.json below dir, skipping debug files and build-info.
func FindArtifact(dir, name string) (string, error) {
	var found string
	target := name + ".json"

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == "build-info" {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() == target {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	if err != nil && !errors.Is(err, fs.SkipAll) {
		return "", fmt.Errorf("failed to search artifacts in %s: %w", dir, err)
	}
	if found == "" {
		return "", fmt.Errorf("%w: no artifact %s under %s", ErrContractNotFound, target, dir)
	}
	return found, nil
}

// LoadArtifact finds and parses the Hardhat artifact for contract name.
func LoadArtifact(dir, name string) (*Artifact, error) {
	path, err := FindArtifact(dir, name)
	if err != nil {
		return nil, err
	}
	return ReadArtifact(path)
}

// ReadArtifact parses a single artifact file.
func ReadArtifact(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}

	var art Artifact
	if err := json.Unmarshal(data, &art); err != nil {
		return nil, fmt.Errorf("failed to parse artifact %s: %w", path, err)
	}
	if len(art.RawABI) == 0 {
		return nil, fmt.Errorf("artifact %s has no abi", path)
	}

	parsed, err := abi.JSON(strings.NewReader(string(art.RawABI)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ABI in %s: %w", path, err)
	}
	art.ABI = parsed
	art.Path = path
	return &art, nil
}
