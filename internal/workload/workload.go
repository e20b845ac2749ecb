package workload

import (
	"math/rand"
	"strconv"

	"github.com/cockroachdb/errors"
)

// Op はストアに発行する操作の種類
type Op uint8

const (
	OpInsert Op = iota
	OpRead
	OpUpsert
	OpScan
	OpReadModifyWrite
)

func (o Op) String() string {
	switch o {
	case OpInsert:
		return "insert"
	case OpRead:
		return "read"
	case OpUpsert:
		return "upsert"
	case OpScan:
		return "scan"
	case OpReadModifyWrite:
		return "rmw"
	default:
		return "unknown"
	}
}

// Policy はスレッドローカルな乱数から次の操作を選ぶ
type Policy func(rng *rand.Rand) Op

// ID はワークロード番号
type ID int

const (
	A5050 ID = iota
	RMW100
	Upsert100
	Read100
)

// ErrUnknownWorkload は未知のワークロード番号
var ErrUnknownWorkload = errors.New("unknown workload")

// Parse はコマンドライン引数のワークロード番号を解釈する
func Parse(s string) (ID, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.Wrapf(ErrUnknownWorkload, "%q is not a workload id", s)
	}
	id := ID(n)
	if _, err := id.Policy(); err != nil {
		return 0, err
	}
	return id, nil
}

// Name はワークロード名を返す
func (id ID) Name() string {
	switch id {
	case A5050:
		return "ycsb-a-50-50"
	case RMW100:
		return "rmw-100"
	case Upsert100:
		return "upsert-100"
	case Read100:
		return "read-100"
	default:
		return "unknown"
	}
}

// Policy はワークロード番号に対応するポリシーを返す
func (id ID) Policy() (Policy, error) {
	switch id {
	case A5050:
		return ReadUpsert5050, nil
	case RMW100:
		return AlwaysRMW, nil
	case Upsert100:
		return AlwaysUpsert, nil
	case Read100:
		return AlwaysRead, nil
	default:
		return nil, errors.Wrapf(ErrUnknownWorkload, "workload id %d", int(id))
	}
}

// ReadUpsert5050 は Read と Upsert を半々で選ぶ
func ReadUpsert5050(rng *rand.Rand) Op {
	if rng.Intn(100) < 50 {
		return OpRead
	}
	return OpUpsert
}

// AlwaysRMW は常に Read-Modify-Write を選ぶ
func AlwaysRMW(*rand.Rand) Op { return OpReadModifyWrite }

// AlwaysUpsert は常に Upsert を選ぶ
func AlwaysUpsert(*rand.Rand) Op { return OpUpsert }

// AlwaysRead は常に Read を選ぶ
func AlwaysRead(*rand.Rand) Op { return OpRead }
