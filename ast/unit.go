package ast

import (
	"github.com/ipa-lang/ipa/errz"
	"github.com/ipa-lang/ipa/internal/arena"
	"github.com/ipa-lang/ipa/token"
)

// Link is a reference whose declaration is not known yet. Exactly one of
// Load and Type is set.
type Link struct {
	Token token.Token
	// Scope is the scope at the reference site.
	Scope *Scope
	Load  *LoadExpr
	Type  *TypeRef
}

// Unit is one module: its scope, its nodes, its pending links and its
// diagnostics. All nodes of a unit are released together.
type Unit struct {
	id    uint32
	name  string
	scope *Scope
	seq   uint32
	links []*Link
	errs  errz.List

	scopes    arena.Arena[Scope]
	variables arena.Arena[Variable]
	functions arena.Arena[Function]
	structs   arena.Arena[Struct]
	blocks    arena.Arena[Block]
	ifs       arena.Arena[IfStmt]
	whiles    arena.Arena[WhileStmt]
	fors      arena.Arena[ForStmt]
	returns   arena.Arena[ReturnStmt]
	exprStmts arena.Arena[ExprStmt]
	loads     arena.Arena[LoadExpr]
	operands  arena.Arena[OperandExpr]
	calls     arena.Arena[CallExpr]
	indexes   arena.Arena[ArrayAccessExpr]
	casts     arena.Arena[CastExpr]
	typeRefs  arena.Arena[TypeRef]
	linkPool  arena.Arena[Link]
	exprLists arena.Arena[Expr]
}

// NewGlobalScope returns the root scope shared by the units of a project.
func NewGlobalScope() *Scope {
	return &Scope{kind: ScopeGlobal}
}

// NewUnit returns an empty module whose scope is nested in parent. The id
// must be unique among the units of a project and non-zero.
func NewUnit(id uint32, name string, parent *Scope) *Unit {
	u := &Unit{id: id, name: name}
	u.scope = u.newScope(ScopeModule, name, parent, token.Ident(name))
	return u
}

// ID returns the unit id.
func (u *Unit) ID() uint32 { return u.id }

// Name returns the module name.
func (u *Unit) Name() string { return u.name }

// Scope returns the module scope.
func (u *Unit) Scope() *Scope { return u.scope }

// Links returns the references still waiting for resolution.
func (u *Unit) Links() []*Link { return u.links }

// SetLinks replaces the pending links. It is used by the resolver.
func (u *Unit) SetLinks(links []*Link) { u.links = links }

// Errors returns the unit's diagnostics.
func (u *Unit) Errors() *errz.List { return &u.errs }

// HasErrors reports whether any diagnostic was recorded.
func (u *Unit) HasErrors() bool { return u.errs.Len() > 0 }

// Report records a diagnostic, prefixed with the module reference.
func (u *Unit) Report(kind errz.ErrorKind, code errz.ErrorCode, parts ...errz.Part) *errz.Diagnostic {
	d := errz.New(kind, code, append([]errz.Part{errz.Module{Name: u.name}}, parts...)...)
	u.errs.Add(d)
	return d
}

// Decls returns the top-level declarations in declaration order.
func (u *Unit) Decls() []Decl { return u.scope.Decls() }

// Functions returns the top-level functions in declaration order.
func (u *Unit) Functions() []*Function {
	var out []*Function
	for _, d := range u.scope.Decls() {
		if f, ok := d.(*Function); ok {
			out = append(out, f)
		}
	}
	return out
}

// Lookup finds a top-level declaration.
func (u *Unit) Lookup(name string) (Decl, bool) {
	return u.scope.Lookup(name)
}

// NodeCount returns the number of nodes allocated so far.
func (u *Unit) NodeCount() int { return int(u.seq) }

// Release drops every node of the unit. Nodes must not be used afterwards.
func (u *Unit) Release() {
	u.scopes.Release()
	u.variables.Release()
	u.functions.Release()
	u.structs.Release()
	u.blocks.Release()
	u.ifs.Release()
	u.whiles.Release()
	u.fors.Release()
	u.returns.Release()
	u.exprStmts.Release()
	u.loads.Release()
	u.operands.Release()
	u.calls.Release()
	u.indexes.Release()
	u.casts.Release()
	u.typeRefs.Release()
	u.linkPool.Release()
	u.exprLists.Release()
	u.links = nil
	u.scope = nil
}

func (u *Unit) nextNode(tok token.Token) node {
	u.seq++
	return node{id: MakeID(u.id, u.seq), tok: tok}
}

func (u *Unit) newScope(kind ScopeKind, owner string, parent *Scope, tok token.Token) *Scope {
	_, s := u.scopes.Alloc()
	s.node = u.nextNode(tok)
	s.kind = kind
	s.owner = owner
	s.parent = parent
	return s
}

func (u *Unit) newVariable(tok token.Token, flags Flags) *Variable {
	_, v := u.variables.Alloc()
	v.node = u.nextNode(tok)
	v.flags = flags
	return v
}

func (u *Unit) newFunction(tok token.Token, flags Flags) *Function {
	_, f := u.functions.Alloc()
	f.node = u.nextNode(tok)
	f.flags = flags
	return f
}

func (u *Unit) newStruct(tok token.Token, flags Flags) *Struct {
	_, s := u.structs.Alloc()
	s.node = u.nextNode(tok)
	s.flags = flags
	return s
}

func (u *Unit) newBlock(tok token.Token) *Block {
	_, b := u.blocks.Alloc()
	b.node = u.nextNode(tok)
	return b
}

func (u *Unit) newLoad(tok token.Token, kind LoadKind) *LoadExpr {
	_, e := u.loads.Alloc()
	e.node = u.nextNode(tok)
	e.Kind = kind
	return e
}

func (u *Unit) newTypeRef(tok token.Token, kind TypeRefKind) *TypeRef {
	_, t := u.typeRefs.Alloc()
	t.node = u.nextNode(tok)
	t.Kind = kind
	return t
}

// NewCast wraps x in an untyped cast node. The type inferer uses it to insert
// widening conversions.
func (u *Unit) NewCast(x Expr) *CastExpr {
	_, c := u.casts.Alloc()
	c.node = u.nextNode(x.Token())
	c.X = x
	return c
}

func (u *Unit) addLink(tok token.Token, scope *Scope, load *LoadExpr, typ *TypeRef) {
	_, l := u.linkPool.Alloc()
	l.Token = tok
	l.Scope = scope
	l.Load = load
	l.Type = typ
	u.links = append(u.links, l)
}

func (u *Unit) copyExprs(in []Expr) []Expr {
	out := u.exprLists.AllocSlice(len(in))
	copy(out, in)
	return out
}
