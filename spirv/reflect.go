// Package spirv extracts compute dispatch interfaces from SPIR-V
// modules.
//
// Reflect walks a module's decoration, type, and variable instructions
// and reports the descriptor bindings, push-constant size, and
// specialization-constant count a pipeline needs. It understands the
// resource encodings produced by the WGSL and GLSL compute compilers:
// both the StorageBuffer storage class and the legacy
// Uniform+BufferBlock form.
package spirv

import (
	"errors"
	"fmt"

	"github.com/gogpu/vkcompute"
)

// MagicNumber is the first word of every valid SPIR-V module.
const MagicNumber = 0x07230203

// headerWords is the fixed SPIR-V header size: magic, version,
// generator, bound, schema.
const headerWords = 5

// Opcodes consumed by reflection. Everything else is skipped.
const (
	opTypeInt          = 21
	opTypeFloat        = 22
	opTypeVector       = 23
	opTypeImage        = 25
	opTypeSampler      = 26
	opTypeSampledImage = 27
	opTypeArray        = 28
	opTypeRuntimeArray = 29
	opTypeStruct       = 30
	opTypePointer      = 32
	opVariable         = 59
	opDecorate         = 71
	opMemberDecorate   = 72
)

// Storage classes.
const (
	classUniformConstant = 0
	classUniform         = 2
	classPushConstant    = 9
	classStorageBuffer   = 12
)

// Decorations.
const (
	decorationSpecID      = 1
	decorationBlock       = 2
	decorationBufferBlock = 3
	decorationNonWritable = 24
	decorationBinding     = 33
	decorationSet         = 34
)

var (
	// ErrBadMagic reports a word stream that does not start with the
	// SPIR-V magic number.
	ErrBadMagic = errors.New("spirv: bad magic number")
	// ErrTruncated reports a module that ends mid-header or
	// mid-instruction.
	ErrTruncated = errors.New("spirv: truncated module")
	// ErrMalformed reports a module whose instruction stream cannot be
	// walked.
	ErrMalformed = errors.New("spirv: malformed module")
)

var _ vkcompute.SignatureResolver = Reflect

// Reflect extracts the dispatch interface of a compute module: the
// descriptor bindings of set 0 in slot order, the push-constant block
// size in 32-bit words, and the number of distinct specialization
// constants.
//
// Bindings must be dense: a hole in the slot numbering or a slot bound
// twice is an error, as is any resource outside descriptor set 0.
// Reflect is a [vkcompute.SignatureResolver].
func Reflect(words []uint32) (vkcompute.ShaderSignature, error) {
	var r reflector
	if err := r.parse(words); err != nil {
		return vkcompute.ShaderSignature{}, err
	}
	return r.signature()
}

// typeInst is one recorded type instruction; args holds the operands
// with the result id first.
type typeInst struct {
	op   uint32
	args []uint32
}

// varInst is one recorded OpVariable.
type varInst struct {
	ptrType uint32
	id      uint32
	class   uint32
}

type reflector struct {
	types              map[uint32]typeInst
	vars               []varInst
	bindingOf          map[uint32]uint32
	setOf              map[uint32]uint32
	nonWritableVars    map[uint32]bool
	bufferBlockStructs map[uint32]bool
	memberNonWritable  map[uint32]map[uint32]bool
	specIDs            map[uint32]bool
}

// parse validates the header and records every instruction reflection
// cares about. Instruction order does not matter; resolution happens in
// signature.
func (r *reflector) parse(words []uint32) error {
	if len(words) < headerWords {
		return fmt.Errorf("%w: %d words, header needs %d", ErrTruncated, len(words), headerWords)
	}
	if words[0] != MagicNumber {
		return fmt.Errorf("%w: %#08x", ErrBadMagic, words[0])
	}

	r.types = make(map[uint32]typeInst)
	r.bindingOf = make(map[uint32]uint32)
	r.setOf = make(map[uint32]uint32)
	r.nonWritableVars = make(map[uint32]bool)
	r.bufferBlockStructs = make(map[uint32]bool)
	r.memberNonWritable = make(map[uint32]map[uint32]bool)
	r.specIDs = make(map[uint32]bool)

	for i := headerWords; i < len(words); {
		first := words[i]
		wc := int(first >> 16)
		op := first & 0xffff
		if wc == 0 {
			return fmt.Errorf("%w: zero-length instruction at word %d", ErrMalformed, i)
		}
		if i+wc > len(words) {
			return fmt.Errorf("%w: instruction at word %d runs past the end", ErrTruncated, i)
		}
		args := words[i+1 : i+wc]

		switch op {
		case opDecorate:
			if len(args) >= 2 {
				r.recordDecoration(args)
			}
		case opMemberDecorate:
			if len(args) >= 3 && args[2] == decorationNonWritable {
				m := r.memberNonWritable[args[0]]
				if m == nil {
					m = make(map[uint32]bool)
					r.memberNonWritable[args[0]] = m
				}
				m[args[1]] = true
			}
		case opTypeInt, opTypeFloat, opTypeVector, opTypeImage, opTypeSampler,
			opTypeSampledImage, opTypeArray, opTypeRuntimeArray, opTypeStruct, opTypePointer:
			if len(args) < 1 {
				return fmt.Errorf("%w: type instruction at word %d has no result id", ErrMalformed, i)
			}
			r.types[args[0]] = typeInst{op: op, args: args}
		case opVariable:
			if len(args) < 3 {
				return fmt.Errorf("%w: variable instruction at word %d is short", ErrMalformed, i)
			}
			r.vars = append(r.vars, varInst{ptrType: args[0], id: args[1], class: args[2]})
		}
		i += wc
	}
	return nil
}

func (r *reflector) recordDecoration(args []uint32) {
	target, decoration := args[0], args[1]
	switch decoration {
	case decorationSpecID:
		if len(args) >= 3 {
			r.specIDs[args[2]] = true
		}
	case decorationBufferBlock:
		r.bufferBlockStructs[target] = true
	case decorationNonWritable:
		r.nonWritableVars[target] = true
	case decorationBinding:
		if len(args) >= 3 {
			r.bindingOf[target] = args[2]
		}
	case decorationSet:
		if len(args) >= 3 {
			r.setOf[target] = args[2]
		}
	}
}

// signature resolves the recorded instructions into a ShaderSignature.
func (r *reflector) signature() (vkcompute.ShaderSignature, error) {
	var sig vkcompute.ShaderSignature

	byBinding := make(map[uint32]vkcompute.BindingType)
	maxSlot := -1
	for _, v := range r.vars {
		if v.class == classPushConstant {
			n, err := r.pushConstantWords(v)
			if err != nil {
				return sig, err
			}
			sig.PushConstantCount += n
			continue
		}

		bt, ok, err := r.classify(v)
		if err != nil {
			return sig, err
		}
		if !ok {
			continue
		}
		if set, present := r.setOf[v.id]; present && set != 0 {
			return sig, fmt.Errorf("spirv: resource in descriptor set %d, only set 0 is supported", set)
		}
		slot, present := r.bindingOf[v.id]
		if !present {
			return sig, fmt.Errorf("spirv: resource variable %d has no binding decoration", v.id)
		}
		if _, dup := byBinding[slot]; dup {
			return sig, fmt.Errorf("spirv: binding %d is bound twice", slot)
		}
		byBinding[slot] = bt
		if int(slot) > maxSlot {
			maxSlot = int(slot)
		}
	}

	if maxSlot >= 0 {
		sig.Bindings = make([]vkcompute.BindingType, maxSlot+1)
		for slot := 0; slot <= maxSlot; slot++ {
			bt, ok := byBinding[uint32(slot)]
			if !ok {
				return sig, fmt.Errorf("spirv: binding table has a hole at slot %d", slot)
			}
			sig.Bindings[slot] = bt
		}
	}
	sig.SpecializationCount = len(r.specIDs)
	return sig, nil
}

// classify maps a variable to a binding type by its storage class.
// ok is false for storage classes that carry no descriptor, such as
// Input or Workgroup.
func (r *reflector) classify(v varInst) (vkcompute.BindingType, bool, error) {
	switch v.class {
	case classStorageBuffer, classUniform, classUniformConstant:
	default:
		return 0, false, nil
	}

	ptr, ok := r.types[v.ptrType]
	if !ok || ptr.op != opTypePointer || len(ptr.args) < 3 {
		return 0, false, fmt.Errorf("%w: variable %d has no pointer type", ErrMalformed, v.id)
	}
	pointee := ptr.args[2]

	switch v.class {
	case classStorageBuffer:
		if r.readonly(v.id, pointee) {
			return vkcompute.BindingReadOnlyStorageBuffer, true, nil
		}
		return vkcompute.BindingStorageBuffer, true, nil
	case classUniform:
		// SPIR-V 1.0 encodes storage buffers as Uniform + BufferBlock.
		if r.bufferBlockStructs[pointee] {
			if r.readonly(v.id, pointee) {
				return vkcompute.BindingReadOnlyStorageBuffer, true, nil
			}
			return vkcompute.BindingStorageBuffer, true, nil
		}
		return vkcompute.BindingUniformBuffer, true, nil
	default: // classUniformConstant
		return r.classifyOpaque(v.id, pointee)
	}
}

// readonly reports whether a buffer variable is read-only: either the
// variable itself or every member of its backing struct is decorated
// NonWritable.
func (r *reflector) readonly(varID, structID uint32) bool {
	if r.nonWritableVars[varID] {
		return true
	}
	st, ok := r.types[structID]
	if !ok || st.op != opTypeStruct {
		return false
	}
	members := len(st.args) - 1
	if members == 0 {
		return false
	}
	marked := r.memberNonWritable[structID]
	for i := 0; i < members; i++ {
		if !marked[uint32(i)] {
			return false
		}
	}
	return true
}

// classifyOpaque resolves a UniformConstant pointee, through array
// types, to an image, sampler, or combined image-sampler.
func (r *reflector) classifyOpaque(varID, typeID uint32) (vkcompute.BindingType, bool, error) {
	t, ok := r.types[typeID]
	if !ok {
		return 0, false, fmt.Errorf("%w: variable %d references unknown type %d", ErrMalformed, varID, typeID)
	}
	for t.op == opTypeArray || t.op == opTypeRuntimeArray {
		if len(t.args) < 2 {
			return 0, false, fmt.Errorf("%w: array type %d has no element type", ErrMalformed, typeID)
		}
		typeID = t.args[1]
		t, ok = r.types[typeID]
		if !ok {
			return 0, false, fmt.Errorf("%w: variable %d references unknown type %d", ErrMalformed, varID, typeID)
		}
	}

	switch t.op {
	case opTypeImage:
		// args: result, sampled type, dim, depth, arrayed, ms, sampled, format.
		if len(t.args) < 8 {
			return 0, false, fmt.Errorf("%w: image type %d is short", ErrMalformed, typeID)
		}
		switch t.args[6] {
		case 2:
			return vkcompute.BindingStorageImage, true, nil
		case 1:
			return vkcompute.BindingSampledImage, true, nil
		default:
			return 0, false, fmt.Errorf("spirv: image type %d has unsupported sampled operand %d", typeID, t.args[6])
		}
	case opTypeSampledImage:
		return vkcompute.BindingSampledImage, true, nil
	case opTypeSampler:
		return vkcompute.BindingSampler, true, nil
	}
	return 0, false, fmt.Errorf("spirv: unsupported resource type for variable %d", varID)
}

// pushConstantWords sizes a push-constant block in 32-bit words. Only
// flat blocks of 32-bit scalars and vectors are supported.
func (r *reflector) pushConstantWords(v varInst) (int, error) {
	ptr, ok := r.types[v.ptrType]
	if !ok || ptr.op != opTypePointer || len(ptr.args) < 3 {
		return 0, fmt.Errorf("%w: variable %d has no pointer type", ErrMalformed, v.id)
	}
	st, ok := r.types[ptr.args[2]]
	if !ok || st.op != opTypeStruct {
		return 0, fmt.Errorf("spirv: push-constant variable %d is not backed by a struct", v.id)
	}

	total := 0
	for _, member := range st.args[1:] {
		n, err := r.scalarWords(member)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

// scalarWords counts the 32-bit words in a scalar or vector type.
func (r *reflector) scalarWords(typeID uint32) (int, error) {
	t, ok := r.types[typeID]
	if !ok {
		return 0, fmt.Errorf("%w: unknown type %d", ErrMalformed, typeID)
	}
	switch t.op {
	case opTypeInt, opTypeFloat:
		// args: result, width[, signedness].
		if len(t.args) < 2 || t.args[1] != 32 {
			return 0, fmt.Errorf("spirv: push constants support only 32-bit members, type %d", typeID)
		}
		return 1, nil
	case opTypeVector:
		// args: result, component type, component count.
		if len(t.args) < 3 {
			return 0, fmt.Errorf("%w: vector type %d is short", ErrMalformed, typeID)
		}
		per, err := r.scalarWords(t.args[1])
		if err != nil {
			return 0, err
		}
		return per * int(t.args[2]), nil
	}
	return 0, fmt.Errorf("spirv: unsupported push-constant member type %d", typeID)
}
