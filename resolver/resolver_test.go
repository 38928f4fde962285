package resolver

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ipa-lang/ipa/ast"
	"github.com/ipa-lang/ipa/errz"
	"github.com/ipa-lang/ipa/token"
)

func ident(name string) token.Token { return token.Ident(name) }

func intTok(lit string) token.Token { return token.Token{Type: token.INT, Literal: lit} }

func retTok() token.Token { return token.Token{Type: token.RETURN, Literal: "return"} }

func newUnits(names ...string) ([]*ast.Unit, []*ast.Builder) {
	global := ast.NewGlobalScope()
	units := make([]*ast.Unit, len(names))
	builders := make([]*ast.Builder, len(names))
	for i, name := range names {
		units[i] = ast.NewUnit(uint32(i+1), name, global)
		builders[i] = ast.NewBuilder(units[i])
	}
	return units, builders
}

func TestResolveWithinModule(t *testing.T) {
	units, bs := newUnits("main")
	b := bs[0]
	f := b.BeginFunction(ident("f"))
	use := b.Ident(ident("g"))
	b.Return(retTok(), use)
	b.EndFunction()
	g := b.Global(ident("g"), nil, b.Literal(intTok("1")), 0)
	b.Finish()

	r := New()
	r.ResolveUnit(units[0])
	require.Equal(t, 0, r.Pending())
	require.Same(t, g, use.Decl)
	require.Empty(t, units[0].Links())
	require.NotNil(t, f)
}

func TestResolveArgumentBeforeGlobal(t *testing.T) {
	units, bs := newUnits("main")
	b := bs[0]
	b.Global(ident("n"), nil, b.Literal(intTok("1")), 0)
	b.BeginFunction(ident("f"))
	arg := b.Param(ident("n"), b.TypeName(ident("s32")))
	use := b.Ident(ident("n"))
	b.Return(retTok(), use)
	b.EndFunction()
	b.Finish()

	require.NoError(t, Resolve(units))
	require.Same(t, arg, use.Decl)
}

func TestResolveAcrossModules(t *testing.T) {
	units, bs := newUnits("lib", "main")
	lib, main := bs[0], bs[1]

	helper := lib.BeginFunction(ident("helper"))
	lib.EndFunction()
	lib.Finish()

	main.BeginFunction(ident("run"))
	callee := main.Ident(ident("helper"))
	main.Expr(main.Call(callee))
	main.EndFunction()
	main.Finish()

	r := New()
	for _, u := range units {
		r.ResolveUnit(u)
	}
	require.Equal(t, 1, r.Pending())
	r.ResolveProject(units)
	require.Equal(t, 0, r.Pending())
	require.Same(t, helper, callee.Decl)
	require.False(t, units[1].HasErrors())
}

func TestMutualRecursionAcrossModules(t *testing.T) {
	units, bs := newUnits("even", "odd")
	even, odd := bs[0], bs[1]

	isEven := even.BeginFunction(ident("is_even"))
	toOdd := even.Ident(ident("is_odd"))
	even.Expr(even.Call(toOdd))
	even.EndFunction()
	even.Finish()

	isOdd := odd.BeginFunction(ident("is_odd"))
	toEven := odd.Ident(ident("is_even"))
	odd.Expr(odd.Call(toEven))
	odd.EndFunction()
	odd.Finish()

	require.NoError(t, Resolve(units))
	require.Same(t, isOdd, toOdd.Decl)
	require.Same(t, isEven, toEven.Decl)
}

func TestUnknownIdentifierNamesContainer(t *testing.T) {
	units, bs := newUnits("main")
	b := bs[0]
	b.BeginFunction(ident("f"))
	b.Expr(b.Ident(ident("nope")))
	b.EndFunction()
	b.Finish()

	err := Resolve(units)
	require.Error(t, err)
	items := units[0].Errors().Items()
	require.Len(t, items, 1)
	require.Equal(t, errz.E1001, items[0].Code)
	require.Equal(t, `unknown identifier "nope" in function f`, items[0].Message())
	require.Equal(t, "main", items[0].ModuleName())
}

func TestAmbiguousIdentifier(t *testing.T) {
	units, bs := newUnits("a", "b", "main")
	bs[0].Global(ident("x"), nil, bs[0].Literal(intTok("1")), 0)
	bs[0].Finish()
	bs[1].Global(ident("x"), nil, bs[1].Literal(intTok("2")), 0)
	bs[1].Finish()
	m := bs[2]
	m.BeginFunction(ident("f"))
	use := m.Ident(ident("x"))
	m.Expr(use)
	m.EndFunction()
	m.Finish()

	require.Error(t, Resolve(units))
	require.Nil(t, use.Decl)
	items := units[2].Errors().Items()
	require.Len(t, items, 1)
	require.Equal(t, errz.E1003, items[0].Code)
	require.Contains(t, items[0].Message(), "declared in modules a, b")
}

func TestLocalShadowsOtherModule(t *testing.T) {
	units, bs := newUnits("lib", "main")
	bs[0].Global(ident("x"), nil, bs[0].Literal(intTok("1")), 0)
	bs[0].Finish()
	m := bs[1]
	m.BeginFunction(ident("f"))
	local := m.Local(ident("x"), nil, m.Literal(intTok("5")))
	use := m.Ident(ident("x"))
	m.Return(retTok(), use)
	m.EndFunction()
	m.Finish()

	require.NoError(t, Resolve(units))
	require.Same(t, local, use.Decl)
}

func TestTypeNameBindsStruct(t *testing.T) {
	units, bs := newUnits("main")
	b := bs[0]
	point := b.BeginStruct(ident("Point"))
	b.Member(ident("x"), b.TypeName(ident("s32")))
	b.EndStruct()
	ref := b.TypeName(ident("Point"))
	b.Global(ident("p"), ref, nil, 0)
	b.Finish()

	require.NoError(t, Resolve(units))
	require.Same(t, point, ref.Struct)
}

func TestTypeNameMustBeStruct(t *testing.T) {
	units, bs := newUnits("main")
	b := bs[0]
	b.Global(ident("v"), nil, b.Literal(intTok("1")), 0)
	ref := b.TypeName(ident("v"))
	b.Global(ident("w"), ref, nil, 0)
	b.Finish()

	require.Error(t, Resolve(units))
	require.Nil(t, ref.Struct)
	require.Equal(t, errz.E1004, units[0].Errors().Items()[0].Code)
}

func TestStructUsedAsValue(t *testing.T) {
	units, bs := newUnits("main")
	b := bs[0]
	b.BeginStruct(ident("Point"))
	b.EndStruct()
	b.BeginFunction(ident("f"))
	use := b.Ident(ident("Point"))
	b.Expr(use)
	b.EndFunction()
	b.Finish()

	require.Error(t, Resolve(units))
	require.Nil(t, use.Decl)
	require.Equal(t, errz.E1005, units[0].Errors().Items()[0].Code)
}
