package config

import (
	"crypto/ecdsa"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var ErrCircularDependency = errors.New("circular dependency detected or missing dependency")

// PostDeploymentAction is a transaction sent to a freshly deployed contract.
type PostDeploymentAction struct {
	Method      string   `json:"method"`
	Args        []string `json:"args"`
	Description string   `json:"description,omitempty"`
}

// ContractConfig is one entry of a deployment plan.
type ContractConfig struct {
	Name            string                 `json:"name"`
	Artifact        string                 `json:"artifact,omitempty"`
	ConstructorArgs []string               `json:"constructor_args,omitempty"`
	Dependencies    []string               `json:"dependencies,omitempty"`
	GasLimit        *uint64                `json:"gas_limit,omitempty"`
	Value           string                 `json:"value,omitempty"`
	Signer          int                    `json:"signer,omitempty"`
	PostDeployment  []PostDeploymentAction `json:"post_deployment,omitempty"`
}

// ArtifactName is the Hardhat artifact the contract is built from.
func (c ContractConfig) ArtifactName() string {
	if c.Artifact != "" {
		return c.Artifact
	}
	return c.Name
}

// DeploymentPlan is the on-disk format read by `deploy plan`.
type DeploymentPlan struct {
	Contracts []ContractConfig `json:"contracts"`
}

// DeploymentRecord is what deployments.json remembers about a deployed contract.
type DeploymentRecord struct {
	Name       string    `json:"name"`
	Address    string    `json:"address"`
	Network    string    `json:"network"`
	ChainID    int64     `json:"chain_id"`
	Deployer   string    `json:"deployer"`
	TxHash     string    `json:"txhash"`
	Version    string    `json:"version,omitempty"`
	DeployedAt time.Time `json:"deployed_at"`
}

// LoadDeploymentPlan reads and parses a deployment plan file
func LoadDeploymentPlan(path string) (*DeploymentPlan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read deployment plan: %w", err)
	}

	var plan DeploymentPlan
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("failed to parse deployment plan: %w", err)
	}
	if len(plan.Contracts) == 0 {
		return nil, fmt.Errorf("deployment plan %s lists no contracts", path)
	}
	return &plan, nil
}

// DeploymentsPath is the location of deployments.json inside a workspace.
func DeploymentsPath(workspace string) string {
	return filepath.Join(workspace, "deployments.json")
}

// LoadDeploymentRecords reads deployment records from deployments.json
func LoadDeploymentRecords(path string) ([]DeploymentRecord, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return []DeploymentRecord{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read deployments: %w", err)
	}

	var deployments []DeploymentRecord
	if err := json.Unmarshal(data, &deployments); err != nil {
		return nil, fmt.Errorf("failed to parse deployments: %w", err)
	}

	return deployments, nil
}

// SaveDeploymentRecord upserts a record keyed by name and network.
func SaveDeploymentRecord(path string, record DeploymentRecord) error {
	deployments, err := LoadDeploymentRecords(path)
	if err != nil {
		return err
	}

	replaced := false
	for i := range deployments {
		if deployments[i].Name == record.Name && deployments[i].Network == record.Network {
			deployments[i] = record
			replaced = true
			break
		}
	}
	if !replaced {
		deployments = append(deployments, record)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create workspace directory: %w", err)
	}

	data, err := json.MarshalIndent(deployments, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal deployments: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write deployments: %w", err)
	}
	return nil
}

// FindDeployment returns the record for name on network. An empty network
// matches any.
func FindDeployment(deployments []DeploymentRecord, name, network string) (*DeploymentRecord, error) {
	for i := len(deployments) - 1; i >= 0; i-- {
		d := deployments[i]
		if !strings.EqualFold(d.Name, name) {
			continue
		}
		if network != "" && d.Network != network {
			continue
		}
		return &deployments[i], nil
	}
	return nil, fmt.Errorf("%w: %s has no deployment record on %q", ErrContractNotFound, name, network)
}

// ResolveDependencies replaces template variables in args. ${Name} becomes the
// recorded address of contract Name and ${signerN} the address of signer N.
func ResolveDependencies(args []string, deployments []DeploymentRecord, network string, signers []common.Address) ([]string, error) {
	resolvedArgs := make([]string, len(args))

	for i, arg := range args {
		if !strings.HasPrefix(arg, "${") || !strings.HasSuffix(arg, "}") {
			resolvedArgs[i] = arg
			continue
		}
		ref := arg[2 : len(arg)-1]

		if idx, ok := SignerIndex(ref); ok {
			if idx >= len(signers) {
				return nil, fmt.Errorf("%s requires at least %d signers, network has %d", arg, idx+1, len(signers))
			}
			resolvedArgs[i] = signers[idx].Hex()
			continue
		}

		record, err := FindDeployment(deployments, ref, network)
		if err != nil {
			return nil, fmt.Errorf("dependency contract %s not found in deployments: %w", ref, err)
		}
		resolvedArgs[i] = record.Address
	}

	return resolvedArgs, nil
}

// SignerIndex parses a signerN reference.
func SignerIndex(ref string) (int, bool) {
	if !strings.HasPrefix(ref, "signer") {
		return 0, false
	}
	idx, err := strconv.Atoi(strings.TrimPrefix(ref, "signer"))
	if err != nil || idx < 0 {
		return 0, false
	}
	return idx, true
}

// ValidateDependencies checks if all required dependencies are deployed
func ValidateDependencies(contract ContractConfig, deployments []DeploymentRecord, network string) error {
	for _, dep := range contract.Dependencies {
		if _, err := FindDeployment(deployments, dep, network); err != nil {
			return fmt.Errorf("required dependency %s is not deployed", dep)
		}
	}
	return nil
}

// GetDeploymentOrder returns contracts sorted by dependency order. Contracts
// with no ordering constraint between them keep their plan order.
func GetDeploymentOrder(contracts []ContractConfig) ([]ContractConfig, error) {
	var ordered []ContractConfig
	deployed := make(map[string]bool)

	known := make(map[string]bool, len(contracts))
	for _, c := range contracts {
		known[c.Name] = true
	}

	for len(ordered) < len(contracts) {
		progress := false

		for _, contract := range contracts {
			if deployed[contract.Name] {
				continue
			}

			canDeploy := true
			for _, dep := range contract.Dependencies {
				if !known[dep] {
					return nil, fmt.Errorf("%w: %s depends on %s, which is not in the plan", ErrCircularDependency, contract.Name, dep)
				}
				if !deployed[dep] {
					canDeploy = false
					break
				}
			}

			if canDeploy {
				ordered = append(ordered, contract)
				deployed[contract.Name] = true
				progress = true
			}
		}

		if !progress {
			var pending []string
			for _, c := range contracts {
				if !deployed[c.Name] {
					pending = append(pending, c.Name)
				}
			}
			sort.Strings(pending)
			return nil, fmt.Errorf("%w: %s", ErrCircularDependency, strings.Join(pending, ", "))
		}
	}

	return ordered, nil
}

// ConvertArguments converts string args into the Go values the ABI inputs expect.
func ConvertArguments(args []string, inputs abi.Arguments) ([]interface{}, error) {
	if len(args) != len(inputs) {
		return nil, fmt.Errorf("argument count mismatch: got %d, want %d", len(args), len(inputs))
	}

	converted := make([]interface{}, len(args))
	for i, arg := range args {
		v, err := ConvertArgument(arg, inputs[i].Type)
		if err != nil {
			return nil, fmt.Errorf("failed to convert arg %d (%s): %w", i, inputs[i].Name, err)
		}
		converted[i] = v
	}

	return converted, nil
}

// ConvertArgument converts a single string into a value of the given ABI type.
// Integers wider than 64 bits become *big.Int, narrower ones their Go kind.
func ConvertArgument(arg string, typ abi.Type) (interface{}, error) {
	switch typ.T {
	case abi.AddressTy:
		if !common.IsHexAddress(arg) {
			return nil, fmt.Errorf("invalid address: %s", arg)
		}
		return common.HexToAddress(arg), nil
	case abi.UintTy, abi.IntTy:
		value, ok := new(big.Int).SetString(arg, 0)
		if !ok {
			return nil, fmt.Errorf("invalid %s value: %s", typ.String(), arg)
		}
		if typ.T == abi.UintTy && value.Sign() < 0 {
			return nil, fmt.Errorf("negative value for %s: %s", typ.String(), arg)
		}
		return narrowInt(value, typ)
	case abi.BoolTy:
		return strconv.ParseBool(arg)
	case abi.StringTy:
		return arg, nil
	case abi.BytesTy:
		return hexutilDecode(arg)
	case abi.FixedBytesTy:
		raw, err := hexutilDecode(arg)
		if err != nil {
			return nil, err
		}
		if len(raw) != typ.Size {
			return nil, fmt.Errorf("expected %d bytes, got %d", typ.Size, len(raw))
		}
		if typ.Size != 32 {
			return nil, fmt.Errorf("unsupported type: %s", typ.String())
		}
		var out [32]byte
		copy(out[:], raw)
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported type: %s", typ.String())
	}
}

func narrowInt(v *big.Int, typ abi.Type) (interface{}, error) {
	if typ.Size > 64 {
		return v, nil
	}
	if typ.T == abi.UintTy {
		if v.BitLen() > typ.Size {
			return nil, fmt.Errorf("value %s overflows %s", v, typ.String())
		}
		u := v.Uint64()
		switch typ.Size {
		case 8:
			return uint8(u), nil
		case 16:
			return uint16(u), nil
		case 32:
			return uint32(u), nil
		case 64:
			return u, nil
		}
	} else {
		if !v.IsInt64() {
			return nil, fmt.Errorf("value %s overflows %s", v, typ.String())
		}
		i := v.Int64()
		switch typ.Size {
		case 8:
			return int8(i), nil
		case 16:
			return int16(i), nil
		case 32:
			return int32(i), nil
		case 64:
			return i, nil
		}
	}
	return v, nil
}

func hexutilDecode(s string) ([]byte, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid hex format: %w", err)
	}
	return b, nil
}

// ParsePrivateKey parses a hex secp256k1 key, 0x prefix optional.
func ParsePrivateKey(privateKeyStr string) (*ecdsa.PrivateKey, error) {
	privateKeyStr = strings.TrimPrefix(strings.TrimSpace(privateKeyStr), "0x")

	privateKeyBytes, err := hex.DecodeString(privateKeyStr)
	if err != nil {
		return nil, fmt.Errorf("invalid hex format: %w", err)
	}

	if len(privateKeyBytes) != 32 {
		return nil, fmt.Errorf("invalid private key length: got %d bytes, want 32 bytes", len(privateKeyBytes))
	}

	privateKey, err := crypto.ToECDSA(privateKeyBytes)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	return privateKey, nil
}
