package contracts

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/sha3"
)

// RawCaller calls contracts flowctl has no ABI for. The method signature is
// derived from the Go types of the arguments.
type RawCaller struct {
	backend bind.ContractBackend
	address common.Address
	chainID *big.Int
}

func NewRawCaller(backend bind.ContractBackend, address common.Address, chainID *big.Int) *RawCaller {
	return &RawCaller{
		backend: backend,
		address: address,
		chainID: chainID,
	}
}

func (rc *RawCaller) CallMethod(ctx context.Context, methodName string, args []interface{}) ([]byte, error) {
	callData, err := rc.BuildCallData(methodName, args)
	if err != nil {
		return nil, fmt.Errorf("failed to build call data: %w", err)
	}

	result, err := rc.backend.CallContract(ctx, ethereum.CallMsg{To: &rc.address, Data: callData}, nil)
	if err != nil {
		return nil, fmt.Errorf("contract call failed: %w", err)
	}

	return result, nil
}

func (rc *RawCaller) SendTransaction(ctx context.Context, methodName string, args []interface{}, privateKey *ecdsa.PrivateKey, gasLimit uint64) (*types.Transaction, error) {
	callData, err := rc.BuildCallData(methodName, args)
	if err != nil {
		return nil, fmt.Errorf("failed to build call data: %w", err)
	}

	fromAddress := crypto.PubkeyToAddress(privateKey.PublicKey)

	nonce, err := rc.backend.PendingNonceAt(ctx, fromAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to get nonce: %w", err)
	}

	gasPrice, err := rc.backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get gas price: %w", err)
	}

	if gasLimit == 0 {
		gasLimit, err = rc.backend.EstimateGas(ctx, ethereum.CallMsg{
			From: fromAddress,
			To:   &rc.address,
			Data: callData,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to estimate gas: %w", err)
		}
	}

	tx := types.NewTransaction(nonce, rc.address, big.NewInt(0), gasLimit, gasPrice, callData)

	signedTx, err := types.SignTx(tx, types.NewEIP155Signer(rc.chainID), privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := rc.backend.SendTransaction(ctx, signedTx); err != nil {
		return nil, fmt.Errorf("failed to send transaction: %w", err)
	}

	return signedTx, nil
}

// BuildCallData returns selector || encoded args.
func (rc *RawCaller) BuildCallData(methodName string, args []interface{}) ([]byte, error) {
	methodSig := fmt.Sprintf("%s(%s)", methodName, MethodSignature(args))

	hash := sha3.NewLegacyKeccak256()
	hash.Write([]byte(methodSig))
	methodSelector := hash.Sum(nil)[:4]

	if len(args) == 0 {
		return methodSelector, nil
	}

	encodedArgs, err := EncodeArguments(args)
	if err != nil {
		return nil, fmt.Errorf("failed to encode arguments: %w", err)
	}

	return append(methodSelector, encodedArgs...), nil
}

// MethodSignature lists the ABI type names of args, comma separated.
func MethodSignature(args []interface{}) string {
	signatures := make([]string, len(args))
	for i, arg := range args {
		switch arg.(type) {
		case common.Address:
			signatures[i] = "address"
		case *big.Int:
			signatures[i] = "uint256"
		case bool:
			signatures[i] = "bool"
		case string:
			signatures[i] = "string"
		default:
			signatures[i] = "bytes"
		}
	}
	return strings.Join(signatures, ",")
}

func word(v *big.Int) []byte {
	padded := make([]byte, 32)
	b := v.Bytes()
	copy(padded[32-len(b):], b)
	return padded
}

// EncodeArguments ABI-encodes address, uint256, bool and string values. Strings
// are dynamic: the head holds their offset and the tail their length and data.
func EncodeArguments(args []interface{}) ([]byte, error) {
	head := make([]byte, 0, len(args)*32)
	var tail []byte
	tailOffset := len(args) * 32

	for _, arg := range args {
		switch v := arg.(type) {
		case common.Address:
			padded := make([]byte, 32)
			copy(padded[12:], v.Bytes())
			head = append(head, padded...)
		case *big.Int:
			if v.Sign() < 0 {
				return nil, fmt.Errorf("negative uint256: %s", v)
			}
			if v.BitLen() > 256 {
				return nil, fmt.Errorf("value overflows uint256: %s", v)
			}
			head = append(head, word(v)...)
		case bool:
			padded := make([]byte, 32)
			if v {
				padded[31] = 1
			}
			head = append(head, padded...)
		case string:
			head = append(head, word(big.NewInt(int64(tailOffset+len(tail))))...)
			strBytes := []byte(v)
			paddedData := make([]byte, ((len(strBytes)+31)/32)*32)
			copy(paddedData, strBytes)
			tail = append(tail, word(big.NewInt(int64(len(strBytes))))...)
			tail = append(tail, paddedData...)
		default:
			return nil, fmt.Errorf("unsupported argument type: %T", arg)
		}
	}

	return append(head, tail...), nil
}

// ConvertRawArguments converts CLI strings for RawCaller. Types are address,
// uint256 (or uint), bool and string.
func ConvertRawArguments(args, typeNames []string) ([]interface{}, error) {
	if len(args) != len(typeNames) {
		return nil, fmt.Errorf("number of arguments (%d) must match number of types (%d)", len(args), len(typeNames))
	}

	converted := make([]interface{}, len(args))
	for i, arg := range args {
		switch typeNames[i] {
		case "address":
			if !common.IsHexAddress(arg) {
				return nil, fmt.Errorf("argument %d: invalid address %s", i, arg)
			}
			converted[i] = common.HexToAddress(arg)
		case "uint256", "uint":
			val, ok := new(big.Int).SetString(arg, 0)
			if !ok || val.Sign() < 0 {
				return nil, fmt.Errorf("argument %d: invalid uint256 value %s", i, arg)
			}
			converted[i] = val
		case "bool":
			b, err := strconv.ParseBool(arg)
			if err != nil {
				return nil, fmt.Errorf("argument %d: invalid bool value %s: %w", i, arg, err)
			}
			converted[i] = b
		case "string":
			converted[i] = arg
		default:
			return nil, fmt.Errorf("argument %d: unsupported type %s", i, typeNames[i])
		}
	}
	return converted, nil
}
