package ast

import (
	"errors"

	"github.com/ipa-lang/ipa/errz"
	"github.com/ipa-lang/ipa/token"
	"github.com/ipa-lang/ipa/types"
)

type frameKind uint8

const (
	frameFunction frameKind = iota
	frameIf
	frameElse
	frameWhile
	frameFor
)

type frame struct {
	kind   frameKind
	block  *Block
	stmt   Stmt
	locals map[string]*Variable
	scope  *Scope
	fn     *Function
}

// Builder is the construction API used by the parser. It allocates nodes
// from a unit, declares names into the current scope and records a Link for
// every identifier that is not a local already visible at that point.
//
// Locals follow textual order: a local is visible from its declaration to
// the end of its enclosing block. Declaring a name that is already a visible
// local or an argument of the current function reuses that declaration and
// emits an assignment instead.
type Builder struct {
	u      *Unit
	scope  *Scope
	fn     *Function
	st     *Struct
	frames []*frame
}

// NewBuilder returns a builder positioned at the module scope of u.
func NewBuilder(u *Unit) *Builder {
	return &Builder{u: u, scope: u.scope}
}

// Unit returns the unit being built.
func (b *Builder) Unit() *Unit { return b.u }

// Finish finalizes the module scope. Further declarations fail.
func (b *Builder) Finish() {
	for len(b.frames) > 0 {
		top := b.frames[len(b.frames)-1]
		b.internal(top.block.Token(), "unterminated block")
		b.pop()
	}
	b.u.scope.Finalize()
}

func (b *Builder) internal(tok token.Token, msg string) {
	b.u.Report(errz.ErrInternal, errz.E3006, errz.Text{Value: msg}, errz.Token{Token: tok})
}

func (b *Builder) declare(scope *Scope, d Decl) {
	err := scope.Declare(d)
	if err == nil {
		return
	}
	if errors.Is(err, ErrFinalized) {
		b.u.Report(errz.ErrName, errz.E1007, errz.Text{Value: "cannot declare"}, errz.Token{Token: d.Token()},
			errz.Text{Value: "in finalized " + scope.String()})
		return
	}
	b.u.Report(errz.ErrName, errz.E1002, errz.Text{Value: "duplicate declaration of"}, errz.Token{Token: d.Token()},
		errz.Text{Value: "in " + scope.String()})
}

func (b *Builder) push(f *frame) {
	f.locals = map[string]*Variable{}
	b.frames = append(b.frames, f)
}

func (b *Builder) pop() *frame {
	top := b.frames[len(b.frames)-1]
	b.frames = b.frames[:len(b.frames)-1]
	if top.kind == frameFunction {
		b.fn.Scope.Finalize()
		b.scope = top.scope
		b.fn = top.fn
	}
	return top
}

func (b *Builder) top() *frame {
	if len(b.frames) == 0 {
		return nil
	}
	return b.frames[len(b.frames)-1]
}

func (b *Builder) visibleLocal(name string) *Variable {
	for i := len(b.frames) - 1; i >= 0; i-- {
		f := b.frames[i]
		if v, ok := f.locals[name]; ok {
			return v
		}
		if f.kind == frameFunction {
			break
		}
	}
	return nil
}

func (b *Builder) appendStmt(s Stmt) {
	top := b.top()
	if top == nil {
		b.internal(s.Token(), "statement outside of a function")
		return
	}
	top.block.Stmts = append(top.block.Stmts, s)
}

// Global declares a module-level variable. value and typ may each be nil
// but not both.
func (b *Builder) Global(name token.Token, typ *TypeRef, value Expr, flags Flags) *Variable {
	v := b.u.newVariable(name, flags|Global)
	v.Annotation = typ
	v.Value = value
	if b.fn != nil || b.st != nil {
		b.internal(name, "global declared inside a function or struct")
	}
	b.declare(b.u.scope, v)
	return v
}

// BeginFunction declares a function at module scope and makes its body the
// current block.
func (b *Builder) BeginFunction(name token.Token) *Function {
	f := b.u.newFunction(name, Global)
	if b.fn != nil || b.st != nil {
		b.u.Report(errz.ErrUnsupported, errz.E3002, errz.Text{Value: "nested function"}, errz.Token{Token: name},
			errz.Text{Value: "is not supported"})
	} else {
		b.declare(b.scope, f)
	}
	f.Scope = b.u.newScope(ScopeFunction, name.Literal, b.scope, name)
	f.Body = b.u.newBlock(name)
	b.push(&frame{kind: frameFunction, block: f.Body, scope: b.scope, fn: b.fn})
	b.fn = f
	b.scope = f.Scope
	return f
}

// Param declares the next argument of the current function.
func (b *Builder) Param(name token.Token, typ *TypeRef) *Variable {
	v := b.u.newVariable(name, Local)
	v.Annotation = typ
	if b.fn == nil {
		b.internal(name, "parameter outside of a function")
		return v
	}
	v.Function = b.fn
	b.fn.Args = append(b.fn.Args, v)
	b.declare(b.fn.Scope, v)
	return v
}

// Returns sets the return type of the current function. Functions without
// a return type return void.
func (b *Builder) Returns(typ *TypeRef) {
	if b.fn == nil {
		b.internal(typ.Token(), "return type outside of a function")
		return
	}
	b.fn.Return = typ
}

// EndFunction closes the current function.
func (b *Builder) EndFunction() {
	if top := b.top(); top == nil || top.kind != frameFunction || len(b.frames) != 1 {
		tok := token.Token{}
		if top != nil {
			tok = top.block.Token()
		}
		b.internal(tok, "EndFunction does not match BeginFunction")
		return
	}
	b.pop()
}

// BeginStruct declares a struct at module scope; Member adds to it until
// EndStruct.
func (b *Builder) BeginStruct(name token.Token) *Struct {
	s := b.u.newStruct(name, Global)
	if b.fn != nil || b.st != nil {
		b.internal(name, "struct declared inside a function or struct")
	} else {
		b.declare(b.scope, s)
	}
	s.Scope = b.u.newScope(ScopeStruct, name.Literal, b.scope, name)
	b.st = s
	b.scope = s.Scope
	return s
}

// Member declares a member of the current struct.
func (b *Builder) Member(name token.Token, typ *TypeRef) *Variable {
	v := b.u.newVariable(name, Member)
	v.Annotation = typ
	if b.st == nil {
		b.internal(name, "member outside of a struct")
		return v
	}
	b.declare(b.st.Scope, v)
	return v
}

// EndStruct closes the current struct.
func (b *Builder) EndStruct() {
	if b.st == nil {
		b.internal(token.Token{}, "EndStruct without BeginStruct")
		return
	}
	b.st.Scope.Finalize()
	b.scope = b.st.Scope.Parent()
	b.st = nil
}

// Local handles "name := value" and "name: typ = value" inside a function
// body. A new local is declared unless name is already visible, in which
// case the existing declaration is assigned. value may be nil when typ is
// given, leaving the local zero-initialized.
func (b *Builder) Local(name token.Token, typ *TypeRef, value Expr) *Variable {
	top := b.top()
	if b.fn == nil || top == nil {
		b.internal(name, "local outside of a function")
		return b.u.newVariable(name, Local)
	}
	prev := b.visibleLocal(name.Literal)
	if prev == nil {
		if d, ok := b.fn.Scope.Lookup(name.Literal); ok {
			prev, _ = d.(*Variable)
		}
	}
	if prev != nil {
		if typ != nil {
			b.u.Report(errz.ErrName, errz.E1002, errz.Text{Value: "duplicate declaration of"}, errz.Token{Token: name},
				errz.Text{Value: "in function " + b.fn.Name()})
		}
		if value != nil {
			b.Expr(b.Assign(b.bind(name, prev), value))
		}
		return prev
	}
	v := b.u.newVariable(name, Local)
	v.Annotation = typ
	v.Function = b.fn
	if typ == nil {
		v.Value = value
	}
	b.fn.Locals = append(b.fn.Locals, v)
	top.block.Locals = append(top.block.Locals, v)
	top.locals[name.Literal] = v
	if value != nil {
		b.Expr(b.Assign(b.bind(name, v), value))
	}
	return v
}

func (b *Builder) bind(tok token.Token, v *Variable) *LoadExpr {
	e := b.u.newLoad(tok, LoadVariable)
	e.Decl = v
	return e
}

// Expr appends an expression statement.
func (b *Builder) Expr(x Expr) *ExprStmt {
	_, s := b.u.exprStmts.Alloc()
	s.node = b.u.nextNode(x.Token())
	s.X = x
	b.appendStmt(s)
	return s
}

// Return appends a return statement. value is nil for a bare return.
func (b *Builder) Return(tok token.Token, value Expr) *ReturnStmt {
	_, s := b.u.returns.Alloc()
	s.node = b.u.nextNode(tok)
	s.Value = value
	s.Function = b.fn
	b.appendStmt(s)
	return s
}

// BeginIf appends an if statement and makes its then-block current.
func (b *Builder) BeginIf(tok token.Token, cond Expr) *IfStmt {
	_, s := b.u.ifs.Alloc()
	s.node = b.u.nextNode(tok)
	s.Cond = cond
	s.Then = b.u.newBlock(tok)
	b.appendStmt(s)
	b.push(&frame{kind: frameIf, block: s.Then, stmt: s})
	return s
}

// Else closes the then-block of the current if statement and opens its
// else-block.
func (b *Builder) Else(tok token.Token) {
	top := b.top()
	if top == nil || top.kind != frameIf {
		b.internal(tok, "else without if")
		return
	}
	b.pop()
	s := top.stmt.(*IfStmt)
	s.Else = b.u.newBlock(tok)
	b.push(&frame{kind: frameElse, block: s.Else, stmt: s})
}

// EndIf closes the current if statement.
func (b *Builder) EndIf() {
	if top := b.top(); top == nil || (top.kind != frameIf && top.kind != frameElse) {
		b.internal(token.Token{}, "EndIf without BeginIf")
		return
	}
	b.pop()
}

// BeginWhile appends a while loop and makes its body current.
func (b *Builder) BeginWhile(tok token.Token, cond Expr) *WhileStmt {
	_, s := b.u.whiles.Alloc()
	s.node = b.u.nextNode(tok)
	s.Cond = cond
	s.Body = b.u.newBlock(tok)
	b.appendStmt(s)
	b.push(&frame{kind: frameWhile, block: s.Body, stmt: s})
	return s
}

// EndWhile closes the current while loop.
func (b *Builder) EndWhile() {
	if top := b.top(); top == nil || top.kind != frameWhile {
		b.internal(token.Token{}, "EndWhile without BeginWhile")
		return
	}
	b.pop()
}

// BeginFor appends a loop over the range [low, high) with iterator it.
func (b *Builder) BeginFor(tok, it token.Token, low, high Expr) *ForStmt {
	s := b.newFor(tok, it)
	s.Low = low
	s.High = high
	b.enterFor(s)
	return s
}

// BeginForEach appends a loop over the elements of array. index is optional;
// pass a zero token to omit it.
func (b *Builder) BeginForEach(tok, it, index token.Token, array Expr) *ForStmt {
	s := b.newFor(tok, it)
	s.Array = array
	if index.Literal != "" {
		s.Index = b.u.newVariable(index, Local)
		s.Index.Function = b.fn
	}
	b.enterFor(s)
	return s
}

func (b *Builder) newFor(tok, it token.Token) *ForStmt {
	_, s := b.u.fors.Alloc()
	s.node = b.u.nextNode(tok)
	s.It = b.u.newVariable(it, Local)
	s.It.Function = b.fn
	s.Body = b.u.newBlock(tok)
	return s
}

func (b *Builder) enterFor(s *ForStmt) {
	b.appendStmt(s)
	b.push(&frame{kind: frameFor, block: s.Body, stmt: s})
	top := b.top()
	vars := []*Variable{s.It}
	if s.Index != nil {
		vars = append(vars, s.Index)
	}
	for _, v := range vars {
		if b.fn != nil {
			b.fn.Locals = append(b.fn.Locals, v)
		}
		s.Body.Locals = append(s.Body.Locals, v)
		top.locals[v.Name()] = v
	}
}

// EndFor closes the current for loop.
func (b *Builder) EndFor() {
	if top := b.top(); top == nil || top.kind != frameFor {
		b.internal(token.Token{}, "EndFor without BeginFor")
		return
	}
	b.pop()
}

// Literal returns a constant load for an INT, FLOAT, TRUE or FALSE token.
func (b *Builder) Literal(tok token.Token) *LoadExpr {
	e := b.u.newLoad(tok, LoadConstant)
	lit, err := ParseLiteral(tok)
	if err != nil {
		b.u.Report(errz.ErrSyntax, errz.E1008, errz.Text{Value: "invalid literal"}, errz.Token{Token: tok}).WithCause(err)
	}
	e.Literal = lit
	return e
}

// Ident returns a load of the named variable or function.
func (b *Builder) Ident(tok token.Token) *LoadExpr {
	e := b.u.newLoad(tok, LoadVariable)
	if v := b.visibleLocal(tok.Literal); v != nil {
		e.Decl = v
		return e
	}
	b.u.addLink(tok, b.scope, e, nil)
	return e
}

// MemberOf returns a load of the member named by tok of the struct value obj.
func (b *Builder) MemberOf(obj Expr, tok token.Token) *LoadExpr {
	e := b.u.newLoad(tok, LoadMember)
	e.Object = obj
	return e
}

// Operand returns an operand expression. Pass a nil lhs for a prefix
// operator and a nil rhs for a postfix operator.
func (b *Builder) Operand(tok token.Token, op token.Operator, lhs, rhs Expr) *OperandExpr {
	_, e := b.u.operands.Alloc()
	e.node = b.u.nextNode(tok)
	e.Op = op
	e.LHS = lhs
	e.RHS = rhs
	return e
}

func operatorToken(op token.Operator, at Expr) token.Token {
	return token.New(token.OPERATOR, op.String(), at.Token().StartPosition)
}

// Binary returns "lhs op rhs".
func (b *Builder) Binary(op token.Operator, lhs, rhs Expr) *OperandExpr {
	return b.Operand(operatorToken(op, lhs), op, lhs, rhs)
}

// Prefix returns "op x".
func (b *Builder) Prefix(op token.Operator, x Expr) *OperandExpr {
	return b.Operand(operatorToken(op, x), op, nil, x)
}

// Postfix returns "x op".
func (b *Builder) Postfix(op token.Operator, x Expr) *OperandExpr {
	return b.Operand(operatorToken(op, x), op, x, nil)
}

// Assign returns "lhs = rhs".
func (b *Builder) Assign(lhs, rhs Expr) *OperandExpr {
	return b.Binary(token.Set, lhs, rhs)
}

// Call returns a call of callee. The argument slice is copied.
func (b *Builder) Call(callee Expr, args ...Expr) *CallExpr {
	_, e := b.u.calls.Alloc()
	e.node = b.u.nextNode(callee.Token())
	e.Callee = callee
	e.Args = b.u.copyExprs(args)
	return e
}

// Index returns "array[index]".
func (b *Builder) Index(array, index Expr) *ArrayAccessExpr {
	_, e := b.u.indexes.Alloc()
	e.node = b.u.nextNode(array.Token())
	e.Array = array
	e.Index = index
	return e
}

// Cast returns an explicit conversion of x.
func (b *Builder) Cast(x Expr, to *TypeRef) *CastExpr {
	c := b.u.NewCast(x)
	c.Target = to
	return c
}

// TypeName returns a reference to a primitive type or a struct.
func (b *Builder) TypeName(tok token.Token) *TypeRef {
	if p, ok := types.Lookup(tok.Literal); ok {
		t := b.u.newTypeRef(tok, TypePrimitive)
		t.Primitive = p
		return t
	}
	t := b.u.newTypeRef(tok, TypeNamed)
	b.u.addLink(tok, b.scope, nil, t)
	return t
}

// ArrayOf returns a reference to the array type [n]elem.
func (b *Builder) ArrayOf(tok token.Token, elem *TypeRef, n uint32) *TypeRef {
	t := b.u.newTypeRef(tok, TypeArray)
	t.Elem = elem
	t.Len = n
	return t
}
