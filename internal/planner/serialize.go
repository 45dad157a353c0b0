package planner

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"sort"

	"tracedf/internal/bytecode"
	"tracedf/internal/dferr"
)

// instrWire is the fixed-width, trivially-copyable wire shape of a single
// bytecode.Instruction -- Col/Slot widened from Go's platform-sized int to
// a portable int32, mirroring how every InterpreterSpec field in
// query_plan.h is a fixed-width C++ integer rather than a platform type.
type instrWire struct {
	Op   uint16
	Dst  uint16
	Src  uint16
	Src2 uint16
	Col  int32
	Slot int32
	Imm  int64
}

// specWire is the fixed-width wire shape of ExecutionParams, minus
// ColToOutputOffset: that field is a sparse map here (the original's
// fixed kMaxFilters array doesn't translate cleanly to Go without an
// unused-slot ambiguity), so it is serialized separately as a
// length-prefixed (column, offset) pair list immediately after.
type specWire struct {
	FilterValueCount uint32
	OutputRegister   uint16
	OutputPerRow     uint32
}

// Serialize encodes a QueryPlan as a length-prefixed raw binary record,
// Base64-encoded, following the original engine's Serialize(): a
// bytecode-count prefix, the flat instruction array, then the
// interpreter spec -- not JSON, so the encoding is stable regardless of
// field naming and round-trips byte-for-byte.
func Serialize(plan *QueryPlan) (string, error) {
	var buf bytes.Buffer

	if err := binary.Write(&buf, binary.LittleEndian, uint64(len(plan.Program.Instrs))); err != nil {
		return "", err
	}
	for _, instr := range plan.Program.Instrs {
		w := instrWire{
			Op:   uint16(instr.Op),
			Dst:  uint16(instr.Dst),
			Src:  uint16(instr.Src),
			Src2: uint16(instr.Src2),
			Col:  int32(instr.Col),
			Slot: int32(instr.Slot),
			Imm:  instr.Imm,
		}
		if err := binary.Write(&buf, binary.LittleEndian, w); err != nil {
			return "", err
		}
	}

	spec := specWire{
		FilterValueCount: uint32(plan.Params.FilterValueCount),
		OutputRegister:   uint16(plan.Params.OutputRegister),
		OutputPerRow:     uint32(plan.Params.OutputPerRow),
	}
	if err := binary.Write(&buf, binary.LittleEndian, spec); err != nil {
		return "", err
	}

	cols := make([]int, 0, len(plan.Params.ColToOutputOffset))
	for col := range plan.Params.ColToOutputOffset {
		cols = append(cols, col)
	}
	sort.Ints(cols)
	if err := binary.Write(&buf, binary.LittleEndian, uint32(len(cols))); err != nil {
		return "", err
	}
	for _, col := range cols {
		pair := [2]int32{int32(col), int32(plan.Params.ColToOutputOffset[col])}
		if err := binary.Write(&buf, binary.LittleEndian, pair); err != nil {
			return "", err
		}
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Deserialize is the inverse of Serialize.
func Deserialize(s string) (*QueryPlan, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, &dferr.PlanError{Reason: fmt.Sprintf("invalid base64: %v", err)}
	}
	r := bytes.NewReader(raw)

	var count uint64
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, &dferr.PlanError{Reason: fmt.Sprintf("truncated plan: %v", err)}
	}

	instrs := make([]bytecode.Instruction, count)
	for i := range instrs {
		var w instrWire
		if err := binary.Read(r, binary.LittleEndian, &w); err != nil {
			return nil, &dferr.PlanError{Reason: fmt.Sprintf("truncated instruction %d: %v", i, err)}
		}
		instrs[i] = bytecode.Instruction{
			Op:   bytecode.Opcode(w.Op),
			Dst:  bytecode.Reg(w.Dst),
			Src:  bytecode.Reg(w.Src),
			Src2: bytecode.Reg(w.Src2),
			Col:  int(w.Col),
			Slot: int(w.Slot),
			Imm:  w.Imm,
		}
	}

	var spec specWire
	if err := binary.Read(r, binary.LittleEndian, &spec); err != nil {
		return nil, &dferr.PlanError{Reason: fmt.Sprintf("truncated interpreter spec: %v", err)}
	}

	var offsetCount uint32
	if err := binary.Read(r, binary.LittleEndian, &offsetCount); err != nil {
		return nil, &dferr.PlanError{Reason: fmt.Sprintf("truncated output offset count: %v", err)}
	}
	offsets := make(map[int]int, offsetCount)
	for i := uint32(0); i < offsetCount; i++ {
		var pair [2]int32
		if err := binary.Read(r, binary.LittleEndian, &pair); err != nil {
			return nil, &dferr.PlanError{Reason: fmt.Sprintf("truncated output offset %d: %v", i, err)}
		}
		offsets[int(pair[0])] = int(pair[1])
	}
	if r.Len() != 0 {
		return nil, &dferr.PlanError{Reason: fmt.Sprintf("%d trailing bytes after query plan", r.Len())}
	}

	return &QueryPlan{
		Program: &bytecode.Program{Instrs: instrs},
		Params: ExecutionParams{
			FilterValueCount:  int(spec.FilterValueCount),
			OutputRegister:    bytecode.Reg(spec.OutputRegister),
			ColToOutputOffset: offsets,
			OutputPerRow:      int(spec.OutputPerRow),
		},
	}, nil
}
