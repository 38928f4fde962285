// Package ast defines the declaration and scope model of IPA modules.
//
// Every node kind is a distinct Go type. The Decl, Stmt and Expr interfaces
// carry unexported marker methods, so the set of implementations is closed
// and consumers switch over it exhaustively.
//
// Nodes are allocated from the arenas of the Unit they belong to and are
// identified by a NodeID that is unique across the units of a project.
package ast

import (
	"fmt"

	"github.com/ipa-lang/ipa/token"
	"github.com/ipa-lang/ipa/types"
)

// NodeID identifies a node. The high 32 bits hold the unit id and the low 32
// bits a per-unit sequence number starting at 1.
type NodeID uint64

// MakeID builds a NodeID from a unit id and a sequence number.
func MakeID(unit, seq uint32) NodeID {
	return NodeID(uint64(unit)<<32 | uint64(seq))
}

// Unit returns the id of the unit that allocated the node.
func (id NodeID) Unit() uint32 { return uint32(id >> 32) }

// Seq returns the per-unit sequence number.
func (id NodeID) Seq() uint32 { return uint32(id) }

// IsValid reports whether the id was assigned by a unit.
func (id NodeID) IsValid() bool { return id.Seq() != 0 }

func (id NodeID) String() string {
	return fmt.Sprintf("%d.%d", id.Unit(), id.Seq())
}

// Node represents a portion of the syntax tree.
type Node interface {
	// ID returns the node's identity.
	ID() NodeID

	// Token returns the token the node was created from.
	Token() token.Token

	// String returns a human friendly representation of the Node.
	String() string
}

// Decl is a named entity introduced into a scope: *Variable, *Function or
// *Struct.
type Decl interface {
	Node
	Name() string
	Flags() Flags
	// Type returns the inferred type or nil before inference.
	Type() types.Type
	declNode()
}

// Stmt is one of *IfStmt, *ForStmt, *WhileStmt, *ReturnStmt or *ExprStmt.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is one of *LoadExpr, *OperandExpr, *CallExpr, *ArrayAccessExpr or
// *CastExpr.
type Expr interface {
	Node
	// Type returns the inferred type or nil before inference.
	Type() types.Type
	// SetType is called by the type inferer.
	SetType(types.Type)
	exprNode()
}

// Flags describe how a declaration was introduced.
type Flags uint8

const (
	Global Flags = 1 << iota
	Local
	Member
	Const
)

// Has reports whether every flag of f2 is set.
func (f Flags) Has(f2 Flags) bool { return f&f2 == f2 }

func (f Flags) String() string {
	var s string
	add := func(name string) {
		if s != "" {
			s += "|"
		}
		s += name
	}
	if f.Has(Global) {
		add("global")
	}
	if f.Has(Local) {
		add("local")
	}
	if f.Has(Member) {
		add("member")
	}
	if f.Has(Const) {
		add("const")
	}
	return s
}

type node struct {
	id  NodeID
	tok token.Token
}

func (n *node) ID() NodeID         { return n.id }
func (n *node) Token() token.Token { return n.tok }

type exprBase struct {
	node
	typ types.Type
}

func (e *exprBase) Type() types.Type     { return e.typ }
func (e *exprBase) SetType(t types.Type) { e.typ = t }
func (e *exprBase) exprNode()            {}
