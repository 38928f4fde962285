package sema

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ipa-lang/ipa/ast"
	"github.com/ipa-lang/ipa/errz"
	"github.com/ipa-lang/ipa/resolver"
	"github.com/ipa-lang/ipa/token"
	"github.com/ipa-lang/ipa/types"
)

func ident(name string) token.Token { return token.Ident(name) }

func intTok(lit string) token.Token { return token.Token{Type: token.INT, Literal: lit} }

func retTok() token.Token { return token.Token{Type: token.RETURN, Literal: "return"} }

func build(t *testing.T, fill func(b *ast.Builder)) *ast.Unit {
	t.Helper()
	u := ast.NewUnit(1, "main", ast.NewGlobalScope())
	b := ast.NewBuilder(u)
	fill(b)
	b.Finish()
	require.NoError(t, resolver.Resolve([]*ast.Unit{u}))
	return u
}

func codes(u *ast.Unit) []errz.ErrorCode {
	var out []errz.ErrorCode
	for _, d := range u.Errors().Items() {
		out = append(out, d.Code)
	}
	return out
}

func TestLiteralTypes(t *testing.T) {
	var small, big, huge, fl, flag *ast.Variable
	u := build(t, func(b *ast.Builder) {
		small = b.Global(ident("small"), nil, b.Literal(intTok("7")), 0)
		big = b.Global(ident("big"), nil, b.Literal(intTok("3000000000")), 0)
		huge = b.Global(ident("huge"), nil, b.Literal(intTok("10000000000000000000")), 0)
		fl = b.Global(ident("real"), nil, b.Literal(token.Token{Type: token.FLOAT, Literal: "1.5"}), 0)
		flag = b.Global(ident("flag"), nil, b.Literal(token.Token{Type: token.TRUE, Literal: "true"}), 0)
	})
	require.NoError(t, New().Infer([]*ast.Unit{u}))
	require.Same(t, types.S32, small.Type())
	require.Same(t, types.S64, big.Type())
	require.Same(t, types.U64, huge.Type())
	require.Same(t, types.F64, fl.Type())
	require.Same(t, types.Bool, flag.Type())
}

func TestCircularDependency(t *testing.T) {
	u := build(t, func(b *ast.Builder) {
		b.Global(ident("a"), nil, b.Ident(ident("b")), 0)
		b.Global(ident("b"), nil, b.Ident(ident("a")), 0)
	})
	err := New().Infer([]*ast.Unit{u})
	require.Error(t, err)
	items := u.Errors().Items()
	require.Len(t, items, 1)
	require.Equal(t, errz.E2002, items[0].Code)
	require.Equal(t, `circular type dependency between "b" and "a"`, items[0].Message())
}

func TestSelfDependency(t *testing.T) {
	u := build(t, func(b *ast.Builder) {
		b.Global(ident("a"), nil, b.Binary(token.Add, b.Ident(ident("a")), b.Literal(intTok("1"))), 0)
	})
	require.Error(t, New().Infer([]*ast.Unit{u}))
	require.Equal(t, []errz.ErrorCode{errz.E2002}, codes(u))
}

func TestDependencyChainTooDeep(t *testing.T) {
	u := build(t, func(b *ast.Builder) {
		for i := 0; i < 9; i++ {
			b.Global(ident(fmt.Sprintf("v%d", i)), nil, b.Ident(ident(fmt.Sprintf("v%d", i+1))), 0)
		}
		b.Global(ident("v9"), nil, b.Literal(intTok("1")), 0)
	})
	require.Error(t, New(WithMaxDepth(4)).Infer([]*ast.Unit{u}))
	require.Contains(t, codes(u), errz.E2008)
	require.NotContains(t, codes(u), errz.E2002)
}

func TestInitOrderFollowsDependencies(t *testing.T) {
	var a, c *ast.Variable
	u := build(t, func(b *ast.Builder) {
		a = b.Global(ident("a"), nil, b.Binary(token.Add, b.Ident(ident("c")), b.Literal(intTok("1"))), 0)
		c = b.Global(ident("c"), nil, b.Literal(intTok("2")), 0)
	})
	in := New()
	require.NoError(t, in.Infer([]*ast.Unit{u}))
	require.Equal(t, []*ast.Variable{c, a}, in.InitOrder())
}

func TestWideningInsertsCasts(t *testing.T) {
	var f *ast.Function
	var sum *ast.OperandExpr
	u := build(t, func(b *ast.Builder) {
		f = b.BeginFunction(ident("f"))
		b.Param(ident("a"), b.TypeName(ident("s8")))
		b.Param(ident("c"), b.TypeName(ident("s32")))
		b.Returns(b.TypeName(ident("s64")))
		sum = b.Binary(token.Add, b.Ident(ident("a")), b.Ident(ident("c")))
		b.Return(retTok(), sum)
		b.EndFunction()
	})
	require.NoError(t, New().Infer([]*ast.Unit{u}))

	require.Same(t, types.S32, sum.Type())
	require.Same(t, types.S32, sum.Term)
	cast, ok := sum.LHS.(*ast.CastExpr)
	require.True(t, ok)
	require.True(t, cast.IsImplicit())
	require.Same(t, types.S32, cast.Type())
	require.Same(t, types.S8, cast.X.Type())

	ret := f.Body.Stmts[0].(*ast.ReturnStmt)
	widened, ok := ret.Value.(*ast.CastExpr)
	require.True(t, ok)
	require.Same(t, types.S64, widened.Type())
	require.Equal(t, "(s8, s32) -> s64", f.Signature().String())
}

func TestCategoryMismatch(t *testing.T) {
	u := build(t, func(b *ast.Builder) {
		b.BeginFunction(ident("f"))
		b.Param(ident("a"), b.TypeName(ident("u8")))
		b.Param(ident("c"), b.TypeName(ident("s8")))
		b.Expr(b.Binary(token.Add, b.Ident(ident("a")), b.Ident(ident("c"))))
		b.EndFunction()
	})
	require.Error(t, New().Infer([]*ast.Unit{u}))
	require.Equal(t, []errz.ErrorCode{errz.E2001}, codes(u))
	require.Equal(t, `incompatible operand types u8 and s8 for "+"`, u.Errors().Items()[0].Message())
}

func TestInferenceIsIdempotent(t *testing.T) {
	u := build(t, func(b *ast.Builder) {
		b.Global(ident("base"), b.TypeName(ident("s64")), b.Literal(intTok("10")), 0)
		b.BeginFunction(ident("f"))
		b.Param(ident("a"), b.TypeName(ident("s16")))
		b.Returns(b.TypeName(ident("s64")))
		b.Local(ident("x"), nil, b.Binary(token.Mul, b.Ident(ident("a")), b.Literal(intTok("3"))))
		b.Return(retTok(), b.Binary(token.Add, b.Ident(ident("x")), b.Ident(ident("base"))))
		b.EndFunction()
	})
	require.NoError(t, New().Infer([]*ast.Unit{u}))
	first := ast.Dump(u)
	require.NotContains(t, first, ":?")

	require.NoError(t, New().Infer([]*ast.Unit{u}))
	require.Equal(t, first, ast.Dump(u))
}

func TestCallUsesDeclaredReturnType(t *testing.T) {
	var call *ast.CallExpr
	u := build(t, func(b *ast.Builder) {
		b.BeginFunction(ident("byte"))
		b.Returns(b.TypeName(ident("u8")))
		b.Return(retTok(), b.Cast(b.Literal(intTok("1")), b.TypeName(ident("u8"))))
		b.EndFunction()
		b.BeginFunction(ident("main"))
		call = b.Call(b.Ident(ident("byte")))
		b.Expr(call)
		b.EndFunction()
	})
	require.NoError(t, New().Infer([]*ast.Unit{u}))
	require.Same(t, types.U8, call.Type())
}

func TestMutualRecursion(t *testing.T) {
	u := build(t, func(b *ast.Builder) {
		b.BeginFunction(ident("ping"))
		b.Returns(b.TypeName(ident("s32")))
		b.Return(retTok(), b.Call(b.Ident(ident("pong"))))
		b.EndFunction()
		b.BeginFunction(ident("pong"))
		b.Returns(b.TypeName(ident("s32")))
		b.Return(retTok(), b.Call(b.Ident(ident("ping"))))
		b.EndFunction()
	})
	require.NoError(t, New().Infer([]*ast.Unit{u}))
}

func TestCallErrors(t *testing.T) {
	u := build(t, func(b *ast.Builder) {
		b.Global(ident("g"), nil, b.Literal(intTok("1")), 0)
		b.BeginFunction(ident("h"))
		b.Param(ident("a"), b.TypeName(ident("s32")))
		b.EndFunction()
		b.BeginFunction(ident("main"))
		b.Expr(b.Call(b.Ident(ident("g"))))
		b.Expr(b.Call(b.Ident(ident("h"))))
		b.EndFunction()
	})
	require.Error(t, New().Infer([]*ast.Unit{u}))
	require.Equal(t, []errz.ErrorCode{errz.E2006, errz.E2005}, codes(u))
}

func TestErrorsAreCollected(t *testing.T) {
	u := build(t, func(b *ast.Builder) {
		b.BeginFunction(ident("f"))
		b.Returns(b.TypeName(ident("s32")))
		b.BeginIf(token.Token{Type: token.IF, Literal: "if"}, b.Literal(intTok("1")))
		b.Return(retTok(), b.Literal(token.Token{Type: token.TRUE, Literal: "true"}))
		b.EndIf()
		b.Return(retTok(), nil)
		b.EndFunction()
	})
	require.Error(t, New().Infer([]*ast.Unit{u}))
	require.Equal(t, []errz.ErrorCode{errz.E2009, errz.E2003, errz.E2003}, codes(u))
}

func TestAssignmentTargets(t *testing.T) {
	u := build(t, func(b *ast.Builder) {
		b.Global(ident("k"), nil, b.Literal(intTok("1")), ast.Const)
		b.BeginFunction(ident("f"))
		b.Expr(b.Assign(b.Ident(ident("k")), b.Literal(intTok("2"))))
		b.Expr(b.Assign(b.Literal(intTok("3")), b.Literal(intTok("2"))))
		b.Expr(b.Assign(b.Ident(ident("f")), b.Literal(intTok("2"))))
		b.EndFunction()
	})
	require.Error(t, New().Infer([]*ast.Unit{u}))
	require.Equal(t, []errz.ErrorCode{errz.E2010, errz.E2004, errz.E2004}, codes(u))
}

func TestUnaryOperators(t *testing.T) {
	var neg, inc, dec, not *ast.OperandExpr
	u := build(t, func(b *ast.Builder) {
		b.BeginFunction(ident("f"))
		b.Param(ident("n"), b.TypeName(ident("s16")))
		b.Param(ident("ok"), b.TypeName(ident("bool")))
		neg = b.Prefix(token.Sub, b.Ident(ident("n")))
		inc = b.Postfix(token.Increment, b.Ident(ident("n")))
		dec = b.Prefix(token.Decrement, b.Ident(ident("n")))
		not = b.Prefix(token.Not, b.Ident(ident("ok")))
		b.Expr(neg)
		b.Expr(inc)
		b.Expr(dec)
		b.Expr(not)
		b.Expr(b.Prefix(token.Sub, b.Ident(ident("ok"))))
		b.EndFunction()
	})
	require.Error(t, New().Infer([]*ast.Unit{u}))
	require.Equal(t, []errz.ErrorCode{errz.E3001}, codes(u))
	require.Same(t, types.S16, neg.Type())
	require.Same(t, types.S16, inc.Type())
	require.Same(t, types.S16, dec.Type())
	require.Same(t, types.Bool, not.Type())
}

func TestComparisonTerm(t *testing.T) {
	var cmp *ast.OperandExpr
	u := build(t, func(b *ast.Builder) {
		b.BeginFunction(ident("f"))
		b.Param(ident("x"), b.TypeName(ident("f32")))
		cmp = b.Binary(token.Lt, b.Ident(ident("x")), b.Literal(token.Token{Type: token.FLOAT, Literal: "2.5"}))
		b.Expr(cmp)
		b.EndFunction()
	})
	require.NoError(t, New().Infer([]*ast.Unit{u}))
	require.Same(t, types.Bool, cmp.Type())
	require.Same(t, types.F64, cmp.Term)
}

func TestArrayIndexIsCastToS32(t *testing.T) {
	var idx *ast.ArrayAccessExpr
	u := build(t, func(b *ast.Builder) {
		b.BeginFunction(ident("f"))
		b.Param(ident("i"), b.TypeName(ident("s64")))
		b.Returns(b.TypeName(ident("u8")))
		b.Local(ident("arr"), b.ArrayOf(token.Token{Literal: "["}, b.TypeName(ident("u8")), 4), nil)
		idx = b.Index(b.Ident(ident("arr")), b.Ident(ident("i")))
		b.Return(retTok(), idx)
		b.EndFunction()
	})
	require.NoError(t, New().Infer([]*ast.Unit{u}))
	require.Same(t, types.U8, idx.Type())
	cast, ok := idx.Index.(*ast.CastExpr)
	require.True(t, ok)
	require.Same(t, types.S32, cast.Type())
}

func TestForLoops(t *testing.T) {
	var rng, each *ast.ForStmt
	u := build(t, func(b *ast.Builder) {
		b.BeginFunction(ident("f"))
		b.Param(ident("n"), b.TypeName(ident("s64")))
		b.Local(ident("arr"), b.ArrayOf(token.Token{Literal: "["}, b.TypeName(ident("f32")), 3), nil)
		rng = b.BeginFor(token.Token{Type: token.FOR, Literal: "for"}, ident("i"), b.Literal(intTok("0")), b.Ident(ident("n")))
		b.Expr(b.Postfix(token.Increment, b.Ident(ident("i"))))
		b.EndFor()
		each = b.BeginForEach(token.Token{Type: token.FOR, Literal: "for"}, ident("v"), ident("k"), b.Ident(ident("arr")))
		b.Expr(b.Binary(token.Mul, b.Ident(ident("v")), b.Ident(ident("v"))))
		b.EndFor()
		b.EndFunction()
	})
	require.NoError(t, New().Infer([]*ast.Unit{u}))
	require.Same(t, types.S64, rng.It.Type())
	_, ok := rng.Low.(*ast.CastExpr)
	require.True(t, ok)
	require.Same(t, types.F32, each.It.Type())
	require.Same(t, types.S32, each.Index.Type())
}

func TestStructMembers(t *testing.T) {
	var member *ast.LoadExpr
	var point *ast.Struct
	u := build(t, func(b *ast.Builder) {
		point = b.BeginStruct(ident("Point"))
		b.Member(ident("x"), b.TypeName(ident("s32")))
		b.Member(ident("y"), b.TypeName(ident("s64")))
		b.EndStruct()
		b.Global(ident("p"), b.TypeName(ident("Point")), nil, 0)
		b.BeginFunction(ident("f"))
		b.Returns(b.TypeName(ident("s64")))
		member = b.MemberOf(b.Ident(ident("p")), ident("y"))
		b.Return(retTok(), member)
		b.Expr(b.MemberOf(b.Ident(ident("p")), ident("z")))
		b.EndFunction()
	})
	require.Error(t, New().Infer([]*ast.Unit{u}))
	require.Equal(t, []errz.ErrorCode{errz.E1006}, codes(u))
	require.Same(t, types.S64, member.Type())
	require.Equal(t, "y", member.Member.Name())
	st := point.StructType()
	require.Equal(t, uint32(16), st.Size())
	f, ok := st.Field("y")
	require.True(t, ok)
	require.Equal(t, uint32(8), f.Offset)
}

func TestRecursiveStruct(t *testing.T) {
	u := build(t, func(b *ast.Builder) {
		b.BeginStruct(ident("Node"))
		b.Member(ident("next"), b.TypeName(ident("Node")))
		b.EndStruct()
	})
	require.Error(t, New().Infer([]*ast.Unit{u}))
	require.Equal(t, []errz.ErrorCode{errz.E2002}, codes(u))
}

func TestVariableWithoutTypeOrValue(t *testing.T) {
	u := build(t, func(b *ast.Builder) {
		b.BeginFunction(ident("f"))
		b.Param(ident("a"), nil)
		b.EndFunction()
	})
	require.Error(t, New().Infer([]*ast.Unit{u}))
	require.Equal(t, []errz.ErrorCode{errz.E2007}, codes(u))
}

func TestFailedInitializerReportsOnce(t *testing.T) {
	tests := []struct {
		name  string
		value func(b *ast.Builder) ast.Expr
		want  string
	}{
		{"operands", func(b *ast.Builder) ast.Expr {
			return b.Binary(token.Add, b.Literal(intTok("1")), b.Literal(token.Token{Type: token.TRUE, Literal: "true"}))
		}, `incompatible operand types s32 and bool for "+"`},
		{"nested", func(b *ast.Builder) ast.Expr {
			flag := b.Literal(token.Token{Type: token.FALSE, Literal: "false"})
			return b.Binary(token.Mul, b.Binary(token.Mul, b.Literal(intTok("2")), flag), b.Literal(intTok("3")))
		}, `incompatible operand types s32 and bool for "*"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := build(t, func(b *ast.Builder) {
				b.BeginFunction(ident("f"))
				b.Local(ident("y"), nil, tt.value(b))
				b.EndFunction()
			})
			require.Error(t, New().Infer([]*ast.Unit{u}))
			items := u.Errors().Items()
			require.Len(t, items, 1)
			require.Equal(t, tt.want, items[0].Message())
		})
	}
}

func TestArrayTypeTooLarge(t *testing.T) {
	tests := []struct {
		name string
		elem string
		n    uint32
		ok   bool
	}{
		{"fits", "u8", 1 << 20, true},
		{"largest", "u8", 1<<32 - 1, true},
		{"wraps", "s64", 1 << 30, false},
		{"overflows", "s32", 1<<31 + 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v *ast.Variable
			u := build(t, func(b *ast.Builder) {
				v = b.Global(ident("big"), b.ArrayOf(token.Token{Literal: "["}, b.TypeName(ident(tt.elem)), tt.n), nil, 0)
			})
			err := New().Infer([]*ast.Unit{u})
			if tt.ok {
				require.NoError(t, err)
				require.NotNil(t, v.Type())
				return
			}
			require.Error(t, err)
			require.Equal(t, []errz.ErrorCode{errz.E2011}, codes(u))
			require.Nil(t, v.Type())
		})
	}
}

func TestMissingReturn(t *testing.T) {
	ifTok := token.Token{Type: token.IF, Literal: "if"}
	whileTok := token.Token{Type: token.WHILE, Literal: "while"}
	flag := func(b *ast.Builder, v bool) ast.Expr {
		if v {
			return b.Literal(token.Token{Type: token.TRUE, Literal: "true"})
		}
		return b.Literal(token.Token{Type: token.FALSE, Literal: "false"})
	}
	one := func(b *ast.Builder) ast.Expr { return b.Literal(intTok("1")) }

	tests := []struct {
		name    string
		body    func(b *ast.Builder)
		missing bool
	}{
		{"empty body", func(b *ast.Builder) {}, true},
		{"plain return", func(b *ast.Builder) {
			b.Return(retTok(), one(b))
		}, false},
		{"if without else", func(b *ast.Builder) {
			b.BeginIf(ifTok, b.Ident(ident("c")))
			b.Return(retTok(), one(b))
			b.EndIf()
		}, true},
		{"both branches return", func(b *ast.Builder) {
			b.BeginIf(ifTok, b.Ident(ident("c")))
			b.Return(retTok(), one(b))
			b.Else(token.Token{Type: token.ELSE, Literal: "else"})
			b.Return(retTok(), one(b))
			b.EndIf()
		}, false},
		{"else falls through", func(b *ast.Builder) {
			b.BeginIf(ifTok, b.Ident(ident("c")))
			b.Return(retTok(), one(b))
			b.Else(token.Token{Type: token.ELSE, Literal: "else"})
			b.Expr(b.Assign(b.Ident(ident("c")), flag(b, false)))
			b.EndIf()
		}, true},
		{"return inside loop", func(b *ast.Builder) {
			b.BeginWhile(whileTok, b.Ident(ident("c")))
			b.Return(retTok(), one(b))
			b.EndWhile()
		}, true},
		{"endless loop", func(b *ast.Builder) {
			b.BeginWhile(whileTok, flag(b, true))
			b.Expr(b.Assign(b.Ident(ident("c")), flag(b, false)))
			b.EndWhile()
		}, false},
		{"statements after return", func(b *ast.Builder) {
			b.Return(retTok(), one(b))
			b.Expr(b.Assign(b.Ident(ident("c")), flag(b, true)))
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := build(t, func(b *ast.Builder) {
				b.BeginFunction(ident("f"))
				b.Param(ident("c"), b.TypeName(ident("bool")))
				b.Returns(b.TypeName(ident("s32")))
				tt.body(b)
				b.EndFunction()
			})
			err := New().Infer([]*ast.Unit{u})
			if !tt.missing {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.Equal(t, []errz.ErrorCode{errz.E2012}, codes(u))
			require.Equal(t, `missing return at end of function "f"`, u.Errors().Items()[0].Message())
		})
	}
}

func TestVoidFunctionNeedsNoReturn(t *testing.T) {
	u := build(t, func(b *ast.Builder) {
		b.BeginFunction(ident("f"))
		b.Expr(b.Literal(intTok("1")))
		b.EndFunction()
	})
	require.NoError(t, New().Infer([]*ast.Unit{u}))
}
