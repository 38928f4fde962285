package ast

// Visitor defines the interface for AST traversal. If Visit returns nil,
// children of the node are not visited. Otherwise, the returned Visitor
// is used to visit children.
type Visitor interface {
	Visit(node Node) (w Visitor)
}

// Walk traverses an AST in depth-first order. It starts by calling
// v.Visit(node); if the returned visitor w is not nil, Walk is invoked
// recursively with visitor w for each of the non-nil children of node.
// The declaration a load is bound to is not a child of the load.
func Walk(v Visitor, node Node) {
	if v = v.Visit(node); v == nil {
		return
	}

	switch n := node.(type) {
	case *Scope:
		for _, d := range n.decls {
			Walk(v, d)
		}

	// Declarations
	case *Variable:
		if n.Value != nil {
			Walk(v, n.Value)
		}
	case *Function:
		for _, a := range n.Args {
			Walk(v, a)
		}
		if n.Body != nil {
			Walk(v, n.Body)
		}
	case *Struct:
		if n.Scope != nil {
			Walk(v, n.Scope)
		}

	// Statements
	case *Block:
		for _, s := range n.Stmts {
			Walk(v, s)
		}
	case *IfStmt:
		Walk(v, n.Cond)
		Walk(v, n.Then)
		if n.Else != nil {
			Walk(v, n.Else)
		}
	case *WhileStmt:
		Walk(v, n.Cond)
		Walk(v, n.Body)
	case *ForStmt:
		if n.IsRange() {
			Walk(v, n.Low)
			Walk(v, n.High)
		} else {
			Walk(v, n.Array)
		}
		Walk(v, n.Body)
	case *ReturnStmt:
		if n.Value != nil {
			Walk(v, n.Value)
		}
	case *ExprStmt:
		Walk(v, n.X)

	// Expressions
	case *LoadExpr:
		if n.Kind == LoadMember {
			Walk(v, n.Object)
		}
	case *OperandExpr:
		if n.LHS != nil {
			Walk(v, n.LHS)
		}
		if n.RHS != nil {
			Walk(v, n.RHS)
		}
	case *CallExpr:
		Walk(v, n.Callee)
		for _, a := range n.Args {
			Walk(v, a)
		}
	case *ArrayAccessExpr:
		Walk(v, n.Array)
		Walk(v, n.Index)
	case *CastExpr:
		Walk(v, n.X)

	case *TypeRef:
		// leaf
	}

	v.Visit(nil)
}

type inspector func(Node) bool

func (f inspector) Visit(node Node) Visitor {
	if node != nil && f(node) {
		return f
	}
	return nil
}

// Inspect traverses an AST in depth-first order. It starts by calling
// f(node); if f returns true, Inspect invokes f recursively for each of
// the non-nil children of node.
func Inspect(node Node, f func(Node) bool) {
	Walk(inspector(f), node)
}
