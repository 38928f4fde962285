package compiler

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ipa-lang/ipa/ast"
	"github.com/ipa-lang/ipa/bytecode"
	"github.com/ipa-lang/ipa/errz"
	"github.com/ipa-lang/ipa/op"
	"github.com/ipa-lang/ipa/resolver"
	"github.com/ipa-lang/ipa/sema"
	"github.com/ipa-lang/ipa/token"
	"github.com/ipa-lang/ipa/types"
)

func ident(name string) token.Token { return token.Ident(name) }

func intTok(lit string) token.Token { return token.Token{Type: token.INT, Literal: lit} }

func retTok() token.Token { return token.Token{Type: token.RETURN, Literal: "return"} }

func typeName(b *ast.Builder, name string) *ast.TypeRef {
	return b.TypeName(token.Token{Type: token.TYPE, Literal: name})
}

func compileUnit(t *testing.T, fill func(b *ast.Builder)) (*bytecode.Program, *ast.Unit, error) {
	t.Helper()
	u := ast.NewUnit(1, "main", ast.NewGlobalScope())
	b := ast.NewBuilder(u)
	fill(b)
	b.Finish()
	units := []*ast.Unit{u}
	require.NoError(t, resolver.Resolve(units))
	in := sema.New()
	require.NoError(t, in.Infer(units))
	p, err := Compile(units, in.InitOrder(), nil)
	return p, u, err
}

func mustCompile(t *testing.T, fill func(b *ast.Builder)) *bytecode.Program {
	t.Helper()
	p, _, err := compileUnit(t, fill)
	require.NoError(t, err)
	return p
}

func typeOp(k types.Kind, off op.Code) op.Code {
	base, _ := op.TypeFamily(k)
	return base + off
}

func sizeOp(size uint32, off op.Code) op.Code {
	base, _ := op.SizeFamily(size)
	return base + off
}

var sentinel = op.ABC(op.Empty, 0, 0, 0)

func lookup(t *testing.T, p *bytecode.Program, name string) *bytecode.Function {
	t.Helper()
	fn, ok := p.Lookup(name)
	require.True(t, ok, "function %s", name)
	return fn
}

func TestStaticLayout(t *testing.T) {
	p := mustCompile(t, func(b *ast.Builder) {
		b.Global(ident("a"), typeName(b, "s8"), nil, 0)
		b.BeginFunction(ident("f"))
		b.EndFunction()
		b.Global(ident("b"), typeName(b, "s64"), nil, 0)
		b.Global(ident("c"), typeName(b, "u16"), nil, 0)
	})
	require.Equal(t, uint32(4), lookup(t, p, "f").Address())
	require.Equal(t, 3, p.GlobalCount())
	require.Equal(t, bytecode.Global{Name: "a", Module: "main", Address: 0, Size: 1, Kind: types.KindS8}, p.GlobalAt(0))
	require.Equal(t, uint32(8), p.GlobalAt(1).Address)
	require.Equal(t, uint32(16), p.GlobalAt(2).Address)
	require.Equal(t, uint32(24), p.StaticSize())
	require.Nil(t, p.InitFunction())
}

func TestArgumentOperandsArePatched(t *testing.T) {
	p := mustCompile(t, func(b *ast.Builder) {
		b.BeginFunction(ident("add"))
		b.Param(ident("a"), typeName(b, "s32"))
		b.Param(ident("b"), typeName(b, "s32"))
		b.Returns(typeName(b, "s32"))
		b.Return(retTok(), b.Binary(token.Add, b.Ident(ident("a")), b.Ident(ident("b"))))
		b.EndFunction()
	})
	fn := lookup(t, p, "main.add")
	require.Equal(t, uint32(8), fn.FrameSize())
	require.Equal(t, uint32(8), fn.ArgsSize())
	require.Equal(t, []op.Instruction{
		op.ABC(typeOp(types.KindS32, op.Add), 8, 12, 0),
		op.ABC(sizeOp(4, op.Return), 0, 0, 0),
		sentinel,
	}, fn.Code().Instructions())
	require.Equal(t, "func main.add(s32, s32) -> s32", fn.String())
}

func TestDecrementIsNotIncrement(t *testing.T) {
	p := mustCompile(t, func(b *ast.Builder) {
		b.BeginFunction(ident("f"))
		b.Param(ident("x"), typeName(b, "s32"))
		b.Returns(typeName(b, "s32"))
		b.Expr(b.Postfix(token.Decrement, b.Ident(ident("x"))))
		b.Return(retTok(), b.Ident(ident("x")))
		b.EndFunction()
	})
	require.Equal(t, []op.Instruction{
		op.ABC(typeOp(types.KindS32, op.Dec), 8, 0, 1),
		op.ABC(sizeOp(4, op.Return), 8, 0, 0),
		sentinel,
	}, lookup(t, p, "f").Code().Instructions())
}

func TestPrefixIncrement(t *testing.T) {
	p := mustCompile(t, func(b *ast.Builder) {
		b.BeginFunction(ident("f"))
		b.Param(ident("x"), typeName(b, "u8"))
		b.Returns(typeName(b, "u8"))
		b.Return(retTok(), b.Prefix(token.Increment, b.Ident(ident("x"))))
		b.EndFunction()
	})
	require.Equal(t, []op.Instruction{
		op.ABC(typeOp(types.KindU8, op.Inc), 8, 0, 0),
		op.ABC(sizeOp(1, op.Return), 0, 0, 0),
		sentinel,
	}, lookup(t, p, "f").Code().Instructions())
}

func TestLocalsAndTemporaries(t *testing.T) {
	p := mustCompile(t, func(b *ast.Builder) {
		b.BeginFunction(ident("f"))
		b.Returns(typeName(b, "s32"))
		b.Local(ident("x"), nil, b.Literal(intTok("1")))
		b.Local(ident("y"), nil, b.Literal(intTok("2")))
		b.Return(retTok(), b.Binary(token.Add, b.Ident(ident("x")), b.Ident(ident("y"))))
		b.EndFunction()
	})
	fn := lookup(t, p, "f")
	require.Equal(t, uint32(16), fn.FrameSize())
	require.Equal(t, []op.Instruction{
		op.ABx(sizeOp(4, op.LoadConstant), 8, 0),
		op.ABC(sizeOp(4, op.SetLocal), 8, 0, 0),
		op.ABx(sizeOp(4, op.LoadConstant), 8, 4),
		op.ABC(sizeOp(4, op.SetLocal), 8, 4, 0),
		op.ABC(typeOp(types.KindS32, op.Add), 0, 4, 8),
		op.ABC(sizeOp(4, op.Return), 8, 0, 0),
		sentinel,
	}, fn.Code().Instructions())
}

func TestCallLowering(t *testing.T) {
	p := mustCompile(t, func(b *ast.Builder) {
		b.BeginFunction(ident("add"))
		b.Param(ident("a"), typeName(b, "s32"))
		b.Param(ident("b"), typeName(b, "s32"))
		b.Returns(typeName(b, "s32"))
		b.Return(retTok(), b.Binary(token.Add, b.Ident(ident("a")), b.Ident(ident("b"))))
		b.EndFunction()

		b.BeginFunction(ident("main"))
		b.Returns(typeName(b, "s32"))
		b.Return(retTok(), b.Call(b.Ident(ident("add")), b.Literal(intTok("3")), b.Literal(intTok("4"))))
		b.EndFunction()
	})
	require.Equal(t, []op.Instruction{
		op.ABx(sizeOp(4, op.LoadConstant), 0, 0),
		op.ABx(sizeOp(4, op.LoadConstant), 4, 4),
		op.ABC(sizeOp(4, op.Arg), 0, 0, 0),
		op.ABC(sizeOp(4, op.Arg), 4, 4, 0),
		op.ABx(op.CallStatic, 0, 0),
		op.ABC(sizeOp(4, op.Return), 0, 0, 0),
		sentinel,
	}, lookup(t, p, "main").Code().Instructions())
}

func TestIfLowering(t *testing.T) {
	p := mustCompile(t, func(b *ast.Builder) {
		b.BeginFunction(ident("f"))
		b.Param(ident("x"), typeName(b, "s32"))
		b.Returns(typeName(b, "s32"))
		b.BeginIf(token.Token{Type: token.IF, Literal: "if"},
			b.Binary(token.Lt, b.Ident(ident("x")), b.Literal(intTok("10"))))
		b.Return(retTok(), b.Literal(intTok("1")))
		b.EndIf()
		b.Return(retTok(), b.Literal(intTok("2")))
		b.EndFunction()
	})
	require.Equal(t, []op.Instruction{
		op.ABx(sizeOp(4, op.LoadConstant), 0, 0),
		op.ABC(typeOp(types.KindS32, op.Lt), 8, 0, 4),
		op.ABC(op.If, 4, 0, 0),
		op.AsBx(op.Jump, 0, 2),
		op.ABx(sizeOp(4, op.LoadConstant), 0, 4),
		op.ABC(sizeOp(4, op.Return), 0, 0, 0),
		op.ABx(sizeOp(4, op.LoadConstant), 0, 8),
		op.ABC(sizeOp(4, op.Return), 0, 0, 0),
		sentinel,
	}, lookup(t, p, "f").Code().Instructions())
}

func TestWhileJumpsBack(t *testing.T) {
	p := mustCompile(t, func(b *ast.Builder) {
		b.BeginFunction(ident("f"))
		b.Param(ident("flag"), typeName(b, "bool"))
		b.BeginWhile(token.Token{Type: token.WHILE, Literal: "while"}, b.Ident(ident("flag")))
		b.Expr(b.Assign(b.Ident(ident("flag")), b.Literal(token.Token{Type: token.FALSE, Literal: "false"})))
		b.EndWhile()
		b.EndFunction()
	})
	require.Equal(t, []op.Instruction{
		op.ABC(op.If, 8, 0, 0),
		op.AsBx(op.Jump, 0, 3),
		op.ABx(sizeOp(1, op.LoadConstant), 0, 0),
		op.ABC(sizeOp(1, op.SetLocal), 0, 8, 0),
		op.AsBx(op.Jump, 0, -5),
		op.ABC(op.ReturnVoid, 0, 0, 0),
		sentinel,
	}, lookup(t, p, "f").Code().Instructions())
}

func TestConstantPoolDeduplicates(t *testing.T) {
	p := mustCompile(t, func(b *ast.Builder) {
		b.Global(ident("a"), nil, b.Literal(intTok("7")), 0)
		b.Global(ident("b"), nil, b.Literal(intTok("7")), 0)
		b.Global(ident("c"), typeName(b, "s64"), b.Literal(intTok("7")), 0)
		b.Global(ident("d"), nil, b.Literal(token.Token{Type: token.FLOAT, Literal: "1.5"}), 0)
	})
	require.Equal(t, 16, p.ConstantBytes())
	require.Equal(t, []byte{7, 0, 0, 0}, p.Constants()[:4])
	require.NotNil(t, p.InitFunction())
}

func TestInitFollowsDependencyOrder(t *testing.T) {
	p := mustCompile(t, func(b *ast.Builder) {
		b.Global(ident("a"), nil, b.Binary(token.Add, b.Ident(ident("b")), b.Literal(intTok("1"))), 0)
		b.Global(ident("b"), nil, b.Literal(intTok("2")), 0)
	})
	initFn := p.InitFunction()
	require.NotNil(t, initFn)
	require.Equal(t, bytecode.InitName, initFn.Name())
	var stores []uint32
	for _, ins := range initFn.Code().Instructions() {
		if ins.Code == sizeOp(4, op.SetStatic) {
			stores = append(stores, ins.Bx())
		}
	}
	require.Equal(t, []uint32{4, 0}, stores)
}

func TestCastToBoolComparesWithZero(t *testing.T) {
	p := mustCompile(t, func(b *ast.Builder) {
		b.BeginFunction(ident("f"))
		b.Param(ident("x"), typeName(b, "s16"))
		b.Returns(typeName(b, "bool"))
		b.Return(retTok(), b.Cast(b.Ident(ident("x")), typeName(b, "bool")))
		b.EndFunction()
	})
	require.Equal(t, []op.Instruction{
		op.ABx(sizeOp(2, op.LoadConstant), 2, 0),
		op.ABC(typeOp(types.KindS16, op.Neq), 8, 2, 0),
		op.ABC(sizeOp(1, op.Return), 0, 0, 0),
		sentinel,
	}, lookup(t, p, "f").Code().Instructions())
}

func TestStructArgumentIsUnsupported(t *testing.T) {
	_, u, err := compileUnit(t, func(b *ast.Builder) {
		b.BeginStruct(ident("P"))
		b.Member(ident("x"), typeName(b, "s32"))
		b.EndStruct()
		b.BeginFunction(ident("f"))
		b.Param(ident("p"), b.TypeName(ident("P")))
		b.EndFunction()
	})
	require.Error(t, err)
	require.Equal(t, 1, u.Errors().Len())
	require.Equal(t, errz.E3002, u.Errors().Items()[0].Code)
}

func TestFrameTooLarge(t *testing.T) {
	_, u, err := compileUnit(t, func(b *ast.Builder) {
		b.BeginFunction(ident("f"))
		b.Local(ident("buf"), b.ArrayOf(ident("buf"), typeName(b, "u8"), 70000), nil)
		b.EndFunction()
	})
	require.Error(t, err)
	require.Equal(t, errz.E3003, u.Errors().Items()[0].Code)
}

func TestSourceLocations(t *testing.T) {
	pos := token.Position{Line: 4, Column: 2}
	p := mustCompile(t, func(b *ast.Builder) {
		b.BeginFunction(ident("f"))
		b.Returns(typeName(b, "s32"))
		b.Return(token.New(token.RETURN, "return", pos), b.Literal(token.New(token.INT, "5", token.Position{Line: 4, Column: 9})))
		b.EndFunction()
	})
	code := lookup(t, p, "f").Code()
	require.Equal(t, bytecode.SourceLocation{Line: 5, Column: 10}, code.LocationAt(0))
	require.Equal(t, bytecode.SourceLocation{Line: 5, Column: 3}, code.LocationAt(1))
}
