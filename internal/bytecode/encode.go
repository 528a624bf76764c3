package bytecode

import (
	"encoding/binary"
	"io"
	"sort"

	"github.com/pkg/errors"

	"github.com/lineCode/floyd/internal/types"
)

// On-disk bytecode layout: a magic 4-byte tag, a version u16, the
// length-prefixed type table, the globals block, the function count,
// then each function's header and instruction array. Everything is
// little-endian; every jump offset is relative within its own
// function's stream, so no relocation happens on either side.
//
// The format is a faithful dump of the in-memory Program — decoding
// yields a program that executes identically — but carries no
// cross-version compatibility promise: a version mismatch is an error,
// not a migration.

var bytecodeMagic = [4]byte{'F', 'L', 'B', 'C'}

const bytecodeVersion uint16 = 1

// Const-entry tags for FuncDef.Consts / GlobalsDef.Consts payloads.
const (
	constBool byte = iota
	constInt
	constFloat
	constString
	constVoid
	constType
	constFunc
)

// Encode writes p in the on-disk layout.
func (p *Program) Encode(w io.Writer) error {
	// Function signatures are referenced from the function headers by
	// table index; intern them all before the table's length is fixed
	// on the wire (host-function signatures in particular may not have
	// been interned during generation).
	for _, fd := range p.Funcs {
		if _, err := p.Types.Intern(fd.Type); err != nil {
			return err
		}
	}

	e := &encoder{w: w}
	e.bytes(bytecodeMagic[:])
	e.u16(bytecodeVersion)

	e.u16(uint16(p.Types.Len()))
	for i := 0; i < p.Types.Len(); i++ {
		e.typeID(p.Types.At(uint16(i)))
	}

	e.globals(p.Globals)

	e.u32(uint32(len(p.Funcs)))
	for _, fd := range p.Funcs {
		e.funcDef(p, fd)
	}
	return e.err
}

// Decode reads a Program back from the on-disk layout.
func Decode(r io.Reader) (*Program, error) {
	d := &decoder{r: r}

	var magic [4]byte
	d.bytes(magic[:])
	if d.err == nil && magic != bytecodeMagic {
		return nil, errors.Errorf("not a Floyd bytecode stream (bad magic %q)", magic[:])
	}
	if v := d.u16(); d.err == nil && v != bytecodeVersion {
		return nil, errors.Errorf("unsupported bytecode version %d (want %d)", v, bytecodeVersion)
	}

	table := types.NewTable()
	typeCount := int(d.u16())
	for i := 0; i < typeCount && d.err == nil; i++ {
		if _, err := table.Intern(d.typeID()); err != nil {
			return nil, err
		}
	}

	prog := &Program{Types: table, FuncIndex: map[string]int{}}
	prog.Globals = d.globals()

	funcCount := int(d.u32())
	for i := 0; i < funcCount && d.err == nil; i++ {
		fd := d.funcDef(table)
		prog.Funcs = append(prog.Funcs, fd)
		prog.FuncIndex[fd.Name] = i
	}
	if d.err != nil {
		return nil, d.err
	}
	return prog, nil
}

// --- encoding ---------------------------------------------------------

// encoder is a sticky-error little-endian writer: the first failed
// write latches err and every later call is a no-op, so the field-by-
// field emitters above don't need an error check per line.
type encoder struct {
	w   io.Writer
	err error
}

func (e *encoder) bytes(b []byte) {
	if e.err != nil {
		return
	}
	_, e.err = e.w.Write(b)
}

func (e *encoder) u8(v byte)     { e.bytes([]byte{v}) }
func (e *encoder) u16(v uint16)  { e.num(v) }
func (e *encoder) u32(v uint32)  { e.num(v) }
func (e *encoder) i16(v int16)   { e.num(v) }
func (e *encoder) i64(v int64)   { e.num(v) }
func (e *encoder) f64(v float64) { e.num(v) }

func (e *encoder) num(v interface{}) {
	if e.err != nil {
		return
	}
	e.err = binary.Write(e.w, binary.LittleEndian, v)
}

func (e *encoder) str(s string) {
	e.u16(uint16(len(s)))
	e.bytes([]byte(s))
}

func (e *encoder) boolByte(b bool) {
	if b {
		e.u8(1)
		return
	}
	e.u8(0)
}

func (e *encoder) typeID(t *types.TypeID) {
	e.u8(byte(t.Kind))
	switch t.Kind {
	case types.KindStruct:
		e.str(t.StructName)
		e.u16(uint16(len(t.Members)))
		for _, m := range t.Members {
			e.str(m.Name)
			e.typeID(m.Type)
		}
	case types.KindVector, types.KindDict:
		e.typeID(t.Element)
	case types.KindFunction:
		e.typeID(t.Return)
		e.u16(uint16(len(t.Args)))
		for _, a := range t.Args {
			e.typeID(a)
		}
		e.boolByte(t.IsPure)
	case types.KindUnresolvedName:
		e.str(t.Name)
	}
}

func (e *encoder) extBits(bits []bool) {
	e.u32(uint32(len(bits)))
	for _, b := range bits {
		e.boolByte(b)
	}
}

func (e *encoder) consts(consts map[int]interface{}) {
	slots := make([]int, 0, len(consts))
	for slot := range consts {
		slots = append(slots, slot)
	}
	sort.Ints(slots)
	e.u32(uint32(len(slots)))
	for _, slot := range slots {
		e.u32(uint32(slot))
		switch c := consts[slot].(type) {
		case bool:
			e.u8(constBool)
			e.boolByte(c)
		case int64:
			e.u8(constInt)
			e.i64(c)
		case float64:
			e.u8(constFloat)
			e.f64(c)
		case string:
			e.u8(constString)
			e.str(c)
		case VoidConst:
			e.u8(constVoid)
		case TypeConst:
			e.u8(constType)
			e.u16(c.Index)
		case FuncConst:
			e.u8(constFunc)
			e.u32(uint32(c.ID))
		default:
			if e.err == nil {
				e.err = errors.Errorf("unencodable const %#v at slot %d", c, slot)
			}
		}
	}
}

func (e *encoder) instructions(instrs []Instruction) {
	e.u32(uint32(len(instrs)))
	for _, in := range instrs {
		e.u8(byte(in.Op))
		e.u16(in.InstrType)
		for _, reg := range []RegRef{in.Reg1, in.Reg2, in.Reg3} {
			e.i16(reg.ParentSteps)
			e.i16(reg.Index)
		}
		e.u16(uint16(len(in.Keys)))
		for _, k := range in.Keys {
			e.str(k)
		}
	}
}

func (e *encoder) globals(g *GlobalsDef) {
	e.u32(uint32(g.FrameSize))
	e.extBits(g.ExtBits)
	e.consts(g.Consts)
	e.instructions(g.Instructions)

	names := make([]string, 0, len(g.Names))
	for name := range g.Names {
		names = append(names, name)
	}
	sort.Strings(names)
	e.u32(uint32(len(names)))
	for _, name := range names {
		e.str(name)
		e.u32(uint32(g.Names[name]))
	}
}

func (e *encoder) funcDef(p *Program, fd *FuncDef) {
	e.str(fd.Name)
	idx, err := p.Types.Intern(fd.Type)
	if err != nil && e.err == nil {
		e.err = err
	}
	e.u16(idx)
	e.u32(uint32(fd.FrameSize))
	e.u32(uint32(fd.HostFunctionID))
	e.extBits(fd.ExtBits)
	e.consts(fd.Consts)
	e.instructions(fd.Instructions)
}

// --- decoding ---------------------------------------------------------

type decoder struct {
	r   io.Reader
	err error
}

func (d *decoder) bytes(b []byte) {
	if d.err != nil {
		return
	}
	_, d.err = io.ReadFull(d.r, b)
}

func (d *decoder) u8() byte {
	var b [1]byte
	d.bytes(b[:])
	return b[0]
}

func (d *decoder) u16() uint16  { var v uint16; d.num(&v); return v }
func (d *decoder) u32() uint32  { var v uint32; d.num(&v); return v }
func (d *decoder) i16() int16   { var v int16; d.num(&v); return v }
func (d *decoder) i64() int64   { var v int64; d.num(&v); return v }
func (d *decoder) f64() float64 { var v float64; d.num(&v); return v }

func (d *decoder) num(v interface{}) {
	if d.err != nil {
		return
	}
	d.err = binary.Read(d.r, binary.LittleEndian, v)
}

func (d *decoder) str() string {
	n := int(d.u16())
	if d.err != nil || n == 0 {
		return ""
	}
	b := make([]byte, n)
	d.bytes(b)
	return string(b)
}

func (d *decoder) boolByte() bool {
	return d.u8() != 0
}

func (d *decoder) typeID() *types.TypeID {
	kind := types.Kind(d.u8())
	switch kind {
	case types.KindBool:
		return types.Bool
	case types.KindInt:
		return types.Int
	case types.KindFloat:
		return types.Float
	case types.KindString:
		return types.String
	case types.KindJSONValue:
		return types.JSONValue
	case types.KindTypeID:
		return types.TypeIDType
	case types.KindVoid:
		return types.Void
	case types.KindDynamic:
		return types.Dynamic
	case types.KindUndefined:
		return types.Undefined
	case types.KindStruct:
		name := d.str()
		members := make([]types.Member, int(d.u16()))
		for i := range members {
			members[i] = types.Member{Name: d.str(), Type: d.typeID()}
		}
		return types.NewStruct(name, members)
	case types.KindVector:
		return types.NewVector(d.typeID())
	case types.KindDict:
		return types.NewDict(d.typeID())
	case types.KindFunction:
		ret := d.typeID()
		args := make([]*types.TypeID, int(d.u16()))
		for i := range args {
			args[i] = d.typeID()
		}
		return types.NewFunction(ret, args, d.boolByte())
	case types.KindUnresolvedName:
		return types.NewUnresolvedName(d.str())
	default:
		if d.err == nil {
			d.err = errors.Errorf("undecodable type kind %d", kind)
		}
		return types.Undefined
	}
}

func (d *decoder) extBits() []bool {
	n := int(d.u32())
	if d.err != nil || n == 0 {
		return nil
	}
	bits := make([]bool, n)
	for i := range bits {
		bits[i] = d.boolByte()
	}
	return bits
}

func (d *decoder) consts() map[int]interface{} {
	n := int(d.u32())
	if d.err != nil || n == 0 {
		return nil
	}
	out := make(map[int]interface{}, n)
	for i := 0; i < n && d.err == nil; i++ {
		slot := int(d.u32())
		switch tag := d.u8(); tag {
		case constBool:
			out[slot] = d.boolByte()
		case constInt:
			out[slot] = d.i64()
		case constFloat:
			out[slot] = d.f64()
		case constString:
			out[slot] = d.str()
		case constVoid:
			out[slot] = VoidConst{}
		case constType:
			out[slot] = TypeConst{Index: d.u16()}
		case constFunc:
			out[slot] = FuncConst{ID: int(d.u32())}
		default:
			d.err = errors.Errorf("undecodable const tag %d at slot %d", tag, slot)
		}
	}
	return out
}

func (d *decoder) instructions() []Instruction {
	n := int(d.u32())
	if d.err != nil || n == 0 {
		return nil
	}
	instrs := make([]Instruction, n)
	for i := range instrs {
		in := Instruction{Op: Opcode(d.u8()), InstrType: d.u16()}
		for _, reg := range []*RegRef{&in.Reg1, &in.Reg2, &in.Reg3} {
			reg.ParentSteps = d.i16()
			reg.Index = d.i16()
		}
		if keyCount := int(d.u16()); keyCount > 0 {
			in.Keys = make([]string, keyCount)
			for k := range in.Keys {
				in.Keys[k] = d.str()
			}
		}
		instrs[i] = in
	}
	return instrs
}

func (d *decoder) globals() *GlobalsDef {
	g := &GlobalsDef{
		FrameSize:    int(d.u32()),
		ExtBits:      d.extBits(),
		Consts:       d.consts(),
		Instructions: d.instructions(),
		Names:        map[string]int{},
	}
	nameCount := int(d.u32())
	for i := 0; i < nameCount && d.err == nil; i++ {
		name := d.str()
		g.Names[name] = int(d.u32())
	}
	return g
}

func (d *decoder) funcDef(table *types.Table) *FuncDef {
	fd := &FuncDef{Name: d.str()}
	typeIdx := d.u16()
	fd.FrameSize = int(d.u32())
	fd.HostFunctionID = int(d.u32())
	fd.ExtBits = d.extBits()
	fd.Consts = d.consts()
	fd.Instructions = d.instructions()
	if d.err == nil {
		if int(typeIdx) >= table.Len() {
			d.err = errors.Errorf("function %q references type %d beyond the type table", fd.Name, typeIdx)
			return fd
		}
		fd.Type = table.At(typeIdx)
	}
	return fd
}
